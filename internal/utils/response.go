// internal/utils/response.go
package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/javajoker/licensechain/internal/apperrors"
	"github.com/javajoker/licensechain/internal/i18n"
)

// Context keys set by middleware.
const (
	ContextKeyLang    = "lang"
	ContextKeyAddress = "wallet_address"
	ContextKeyRequest = "request_id"
)

type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
	Meta    interface{} `json:"meta,omitempty"`
}

type APIError struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

func SuccessResponse(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, APIResponse{
		Success: true,
		Data:    data,
	})
}

func SuccessResponseWithMeta(c *gin.Context, data interface{}, meta interface{}) {
	c.JSON(http.StatusOK, APIResponse{
		Success: true,
		Data:    data,
		Meta:    meta,
	})
}

func CreatedResponse(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, APIResponse{
		Success: true,
		Data:    data,
	})
}

func ErrorResponse(c *gin.Context, statusCode int, code, message string, details interface{}) {
	c.JSON(statusCode, APIResponse{
		Success: false,
		Error: &APIError{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

func BadRequestResponse(c *gin.Context, message string, details interface{}) {
	lang := GetLangFromContext(c)
	if message == "" {
		message = i18n.T(lang, i18n.KeyValidationInvalid, "request")
	}
	ErrorResponse(c, http.StatusBadRequest, "BAD_REQUEST", message, details)
}

func UnauthorizedResponse(c *gin.Context, message string) {
	lang := GetLangFromContext(c)
	if message == "" {
		message = i18n.T(lang, i18n.KeyAuthRequired)
	}
	ErrorResponse(c, http.StatusUnauthorized, "UNAUTHORIZED", message, nil)
}

func ForbiddenResponse(c *gin.Context, message string) {
	lang := GetLangFromContext(c)
	if message == "" {
		message = i18n.T(lang, i18n.KeyAdminAccessDenied)
	}
	ErrorResponse(c, http.StatusForbidden, "FORBIDDEN", message, nil)
}

func InternalErrorResponse(c *gin.Context, message string) {
	if message == "" {
		message = "Internal server error"
	}
	ErrorResponse(c, http.StatusInternalServerError, "INTERNAL_ERROR", message, nil)
}

func ValidationErrorResponse(c *gin.Context, errors []ValidationError) {
	lang := GetLangFromContext(c)
	message := i18n.T(lang, i18n.KeyValidationInvalid, "input")
	ErrorResponse(c, http.StatusBadRequest, "VALIDATION_ERROR", message, errors)
}

func TooManyRequestsResponse(c *gin.Context) {
	lang := GetLangFromContext(c)
	ErrorResponse(c, http.StatusTooManyRequests, "RATE_LIMITED", i18n.T(lang, i18n.KeyRateLimited), nil)
}

// AppErrorResponse renders an engine error with the status and message its
// kind calls for. Anything untyped is a 500.
func AppErrorResponse(c *gin.Context, err error) {
	lang := GetLangFromContext(c)
	appErr, ok := apperrors.As(err)
	if !ok {
		InternalErrorResponse(c, "")
		return
	}

	details := gin.H{"kind": appErr.Kind}
	if appErr.Field != "" {
		details["field"] = appErr.Field
	}
	if appErr.LicenseID != 0 {
		details["license_id"] = appErr.LicenseID
	}
	if appErr.Retryable {
		details["retryable"] = true
	}

	switch appErr.Kind {
	case apperrors.KindValidation:
		msg := i18n.T(lang, i18n.KeyValidationInvalid, appErr.Field)
		if appErr.Reason == apperrors.ReasonMissingField {
			msg = i18n.T(lang, i18n.KeyValidationRequired, appErr.Field)
		} else if appErr.Field == "registration_number" {
			msg = i18n.T(lang, i18n.KeyValidationRegistration)
		}
		ErrorResponse(c, http.StatusBadRequest, "VALIDATION_ERROR", msg, details)
	case apperrors.KindConflict:
		if appErr.Reason == apperrors.ReasonNotCertifiable {
			details["status"] = appErr.Status
			ErrorResponse(c, http.StatusConflict, "NOT_CERTIFIABLE", i18n.T(lang, i18n.KeyLicenseNotCertifiable), details)
			return
		}
		ErrorResponse(c, http.StatusConflict, "CONFLICT", i18n.T(lang, i18n.KeyLicenseConflict, appErr.RegistrationNumber), details)
	case apperrors.KindNotFound:
		msg := i18n.T(lang, i18n.KeyLicenseNotFound)
		if appErr.LicenseID != 0 {
			msg = i18n.T(lang, i18n.KeyVerificationNotFound, appErr.LicenseID)
		}
		ErrorResponse(c, http.StatusNotFound, "NOT_FOUND", msg, details)
	case apperrors.KindSecurityMismatch:
		ErrorResponse(c, http.StatusUnprocessableEntity, "SECURITY_MISMATCH", i18n.T(lang, i18n.KeyVerificationMismatch, appErr.LicenseID), details)
	case apperrors.KindUnauthorized:
		switch appErr.Reason {
		case apperrors.ReasonMissingIdentity:
			UnauthorizedResponse(c, "")
			return
		case apperrors.ReasonInvalidSignature:
			UnauthorizedResponse(c, i18n.T(lang, i18n.KeyAuthBadSignature))
			return
		}
		ForbiddenResponse(c, "")
	case apperrors.KindInvalidTransition:
		details["status"] = appErr.Status
		details["action"] = appErr.Action
		ErrorResponse(c, http.StatusConflict, "INVALID_TRANSITION",
			i18n.T(lang, i18n.KeyLicenseInvalidTransition, appErr.Action, appErr.Status), details)
	case apperrors.KindLedgerUnavailable:
		code, key := "LEDGER_UNAVAILABLE", i18n.KeyLedgerUnavailable
		if appErr.OutcomeUnknown {
			code, key = "OUTCOME_UNKNOWN", i18n.KeyLedgerOutcomeUnknown
			details["outcome_unknown"] = true
		}
		c.Header("Retry-After", "5")
		ErrorResponse(c, http.StatusServiceUnavailable, code, i18n.T(lang, key), details)
	case apperrors.KindSchemaMismatch:
		ErrorResponse(c, http.StatusBadGateway, "SCHEMA_MISMATCH", i18n.T(lang, i18n.KeyLedgerSchemaMismatch), nil)
	default:
		InternalErrorResponse(c, "")
	}
}

func PaginatedResponse(c *gin.Context, result PaginationResult) {
	SetPaginationHeaders(c, result)
	SuccessResponseWithMeta(c, result.Data, gin.H{
		"pagination": gin.H{
			"page":        result.Page,
			"limit":       result.Limit,
			"total":       result.Total,
			"total_pages": result.TotalPages,
		},
	})
}

func GetLangFromContext(c *gin.Context) string {
	if lang, exists := c.Get(ContextKeyLang); exists {
		if langStr, ok := lang.(string); ok {
			return langStr
		}
	}
	return i18n.DefaultLanguage()
}

// GetCallerFromContext returns the authenticated wallet address, if any.
func GetCallerFromContext(c *gin.Context) (string, bool) {
	if addr, exists := c.Get(ContextKeyAddress); exists {
		if addrStr, ok := addr.(string); ok && addrStr != "" {
			return addrStr, true
		}
	}
	return "", false
}
