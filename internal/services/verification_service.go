// internal/services/verification_service.go
package services

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/javajoker/licensechain/internal/apperrors"
	"github.com/javajoker/licensechain/internal/ledger"
	"github.com/javajoker/licensechain/internal/metrics"
	"github.com/javajoker/licensechain/internal/models"
)

// VerificationService answers whether an (id, registration number) pair
// belongs together and is currently valid.
type VerificationService struct {
	reader  recordReader
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewVerificationService(gw ledger.Gateway, m *metrics.Metrics, now func() time.Time) *VerificationService {
	if now == nil {
		now = time.Now
	}
	return &VerificationService{
		reader:  recordReader{ledger: gw},
		metrics: m,
		now:     now,
	}
}

// Verify resolves identityID and checks registrationNumber against the
// stored one. Both sides are normalized once before an exact comparison.
func (s *VerificationService) Verify(ctx context.Context, identityID, registrationNumber string) (*models.VerificationResult, error) {
	result, err := s.verify(ctx, identityID, registrationNumber)
	switch {
	case err != nil:
		s.metrics.IncrementVerification(string(apperrors.KindOf(err)))
	case result.IsActive:
		s.metrics.IncrementVerification("active")
	default:
		s.metrics.IncrementVerification("inactive")
	}
	return result, err
}

func (s *VerificationService) verify(ctx context.Context, identityID, registrationNumber string) (*models.VerificationResult, error) {
	identityID = strings.TrimSpace(identityID)
	if identityID == "" {
		return nil, apperrors.MissingField("license_id")
	}
	if strings.TrimSpace(registrationNumber) == "" {
		return nil, apperrors.MissingField("registration_number")
	}

	want := models.NormalizeRegistrationNumber(registrationNumber)
	if !models.ValidRegistrationNumber(want) {
		return nil, apperrors.FormatError("registration_number", registrationNumber, "REG-dddddd")
	}

	id, err := strconv.ParseUint(identityID, 10, 64)
	if err != nil {
		return nil, apperrors.FormatError("license_id", identityID, "a non-negative integer")
	}
	if id == 0 {
		return nil, apperrors.NotFound(0)
	}

	rec, err := s.reader.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !rec.Exists() {
		return nil, apperrors.NotFound(id)
	}
	if models.NormalizeRegistrationNumber(rec.RegistrationNumber) != want {
		return nil, apperrors.SecurityMismatch(id)
	}

	now := s.now()
	expired := rec.Expired(now)
	return &models.VerificationResult{
		ID:                 rec.ID,
		BusinessName:       rec.BusinessName,
		RegistrationNumber: rec.RegistrationNumber,
		Email:              rec.Email,
		PremiseAddress:     rec.PremiseAddress,
		BusinessType:       rec.BusinessType,
		BusinessSector:     rec.BusinessSector,
		DocumentReference:  rec.DocumentReference,
		IssuedAt:           rec.IssuedAt,
		ExpiresAt:          rec.ExpiresAt,
		Status:             rec.Status,
		IsExpired:          expired,
		IsActive:           rec.Status == models.LicenseStatusApproved && !expired,
		VerifiedAt:         now,
	}, nil
}
