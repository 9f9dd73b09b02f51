// internal/services/storage_service.go
package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/licensechain/internal/config"
	"github.com/javajoker/licensechain/internal/utils"
)

var (
	ErrDocumentTooLarge = errors.New("document exceeds the size limit")
	ErrDocumentType     = errors.New("document type is not allowed")
)

// DocumentStore keeps supporting documents and hands back an opaque
// reference the ledger record stores verbatim.
type DocumentStore interface {
	Put(ctx context.Context, name string, body []byte) (string, error)
	PutUpload(ctx context.Context, file multipart.File, header *multipart.FileHeader) (string, error)
	MaxDocumentMB() int
}

var _ DocumentStore = (*StorageService)(nil)

type StorageService struct {
	s3Client s3iface.S3API
	config   config.AWSConfig
	maxSize  int64
	now      func() time.Time
}

var documentExtensions = map[string]bool{".pdf": true, ".jpg": true, ".jpeg": true, ".png": true}

func NewStorageService(cfg config.AWSConfig) (*StorageService, error) {
	svc := &StorageService{
		config:  cfg,
		maxSize: int64(cfg.MaxDocumentMB) * 1024 * 1024,
		now:     time.Now,
	}
	if cfg.AccessKeyID == "" {
		// Return service without S3 for local development
		return svc, nil
	}

	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(cfg.Region),
		Credentials: credentials.NewStaticCredentials(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}
	svc.s3Client = s3.New(sess)
	return svc, nil
}

// NewStorageServiceWithClient wires an existing S3 client.
func NewStorageServiceWithClient(client s3iface.S3API, cfg config.AWSConfig) *StorageService {
	return &StorageService{
		s3Client: client,
		config:   cfg,
		maxSize:  int64(cfg.MaxDocumentMB) * 1024 * 1024,
		now:      time.Now,
	}
}

// PutUpload reads a multipart upload and stores it.
func (s *StorageService) PutUpload(ctx context.Context, file multipart.File, header *multipart.FileHeader) (string, error) {
	if s.maxSize > 0 && header.Size > s.maxSize {
		return "", ErrDocumentTooLarge
	}
	var r io.Reader = file
	if s.maxSize > 0 {
		r = io.LimitReader(file, s.maxSize+1)
	}
	body, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}
	return s.Put(ctx, header.Filename, body)
}

func (s *StorageService) Put(ctx context.Context, name string, body []byte) (string, error) {
	if s.maxSize > 0 && int64(len(body)) > s.maxSize {
		return "", ErrDocumentTooLarge
	}
	ext := strings.ToLower(filepath.Ext(name))
	if !documentExtensions[ext] || !isDocument(body) {
		return "", fmt.Errorf("%w: %s", ErrDocumentType, ext)
	}

	key := s.generateKey(ext)
	contentType := http.DetectContentType(body)
	digest := utils.HashBytes(body)

	if s.s3Client == nil {
		logrus.WithFields(logrus.Fields{
			"key":    key,
			"sha256": digest,
		}).Debug("S3 not configured, document kept as local reference")
		return "local://" + key, nil
	}

	_, err := s.s3Client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.config.S3Bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(body),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(body))),
		Metadata:      map[string]*string{"sha256": aws.String(digest)},
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to S3: %w", err)
	}

	return s.objectURL(key), nil
}

func (s *StorageService) generateKey(ext string) string {
	return fmt.Sprintf("documents/%s_%s%s", s.now().UTC().Format("20060102"), uuid.New().String(), ext)
}

func (s *StorageService) objectURL(key string) string {
	if s.config.CloudFrontURL != "" {
		return fmt.Sprintf("%s/%s", strings.TrimRight(s.config.CloudFrontURL, "/"), key)
	}

	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s",
		s.config.S3Bucket, s.config.Region, key)
}

// isDocument checks the file signature for the accepted formats.
func isDocument(buffer []byte) bool {
	switch {
	case len(buffer) >= 4 && string(buffer[:4]) == "%PDF":
		return true
	case len(buffer) >= 3 && buffer[0] == 0xFF && buffer[1] == 0xD8 && buffer[2] == 0xFF:
		return true
	case len(buffer) >= 8 && buffer[0] == 0x89 && string(buffer[1:4]) == "PNG":
		return true
	}
	return false
}

func (s *StorageService) MaxDocumentMB() int {
	return s.config.MaxDocumentMB
}
