// internal/middleware/logging.go
package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/javajoker/licensechain/internal/models"
	"github.com/javajoker/licensechain/internal/utils"
)

const maxAuditBody = 64 * 1024

const redacted = "[REDACTED]"

// secretFields are masked before a request body reaches an audit row.
var secretFields = map[string]bool{
	"registration_number": true,
	"tax_id":              true,
	"signature":           true,
}

func redactSecrets(data map[string]interface{}) {
	for k, v := range data {
		if secretFields[k] {
			data[k] = redacted
			continue
		}
		switch nested := v.(type) {
		case map[string]interface{}:
			redactSecrets(nested)
		case []interface{}:
			for _, item := range nested {
				if m, ok := item.(map[string]interface{}); ok {
					redactSecrets(m)
				}
			}
		}
	}
}

// RequestID propagates X-Request-ID or mints one.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.New().String()
		}
		c.Set(utils.ContextKeyRequest, id)
		c.Header("X-Request-ID", id)
		c.Next()
	}
}

// AuditLogMiddleware records every mutating call. With a nil db only the
// log line is written.
func AuditLogMiddleware(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Skip logging for reads and health checks
		if c.Request.Method == "GET" || c.Request.Method == "OPTIONS" || c.Request.URL.Path == "/health" {
			c.Next()
			return
		}

		// Multipart bodies carry documents; only JSON is kept.
		var requestBody []byte
		if c.Request.Body != nil && strings.HasPrefix(c.ContentType(), "application/json") {
			requestBody, _ = io.ReadAll(io.LimitReader(c.Request.Body, maxAuditBody))
			c.Request.Body = io.NopCloser(io.MultiReader(bytes.NewReader(requestBody), c.Request.Body))
		}

		start := time.Now()
		c.Next()
		duration := time.Since(start)

		caller, _ := utils.GetCallerFromContext(c)
		requestID := c.GetString(utils.ContextKeyRequest)

		var requestData map[string]interface{}
		if len(requestBody) > 0 {
			_ = json.Unmarshal(requestBody, &requestData)
		}
		redactSecrets(requestData)

		auditLog := &models.AuditLog{
			CallerIdentity: caller,
			Action:         c.Request.Method + " " + c.FullPath(),
			ResourceType:   extractResourceType(c.Request.URL.Path),
			LicenseID:      extractLicenseID(c.Request.URL.Path),
			StatusCode:     c.Writer.Status(),
			RequestData:    models.JSONB(requestData),
			IPAddress:      c.ClientIP(),
			UserAgent:      c.Request.UserAgent(),
			RequestID:      requestID,
		}

		if db != nil {
			// Save audit log asynchronously
			go func() {
				if err := db.Create(auditLog).Error; err != nil {
					logrus.WithError(err).WithField("request_id", requestID).Error("Failed to create audit log")
				}
			}()
		}

		logrus.WithFields(logrus.Fields{
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"duration":   duration.Milliseconds(),
			"ip":         c.ClientIP(),
			"caller":     caller,
			"request_id": requestID,
		}).Info("Mutating request processed")
	}
}

func extractResourceType(path string) string {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) >= 2 && parts[0] == "v1" {
		if parts[1] == "admin" && len(parts) >= 3 {
			return parts[2]
		}
		return parts[1]
	}
	if len(parts) >= 1 && parts[0] != "" {
		return parts[0]
	}
	return "unknown"
}

// extractLicenseID returns the numeric segment that follows "licenses".
func extractLicenseID(path string) *uint64 {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	for i := 0; i+1 < len(parts); i++ {
		if parts[i] != "licenses" {
			continue
		}
		if id, err := strconv.ParseUint(parts[i+1], 10, 64); err == nil && id > 0 {
			return &id
		}
	}
	return nil
}

// RequestLogger writes one structured line per request.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		entry := logrus.WithFields(logrus.Fields{
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"duration":   time.Since(start).Milliseconds(),
			"request_id": c.GetString(utils.ContextKeyRequest),
		})
		switch {
		case c.Writer.Status() >= 500:
			entry.Error("Request failed")
		case c.Writer.Status() >= 400:
			entry.Warn("Request rejected")
		default:
			entry.Debug("Request served")
		}
	}
}
