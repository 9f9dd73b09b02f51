// internal/i18n/keys.go
package i18n

// Translation keys constants
const (
	// Authentication
	KeyAuthRequired     = "auth.required"
	KeyAuthInvalidToken = "auth.invalid_token"
	KeyAuthTokenExpired = "auth.token_expired"
	KeyAuthNonceIssued  = "auth.nonce_issued"
	KeyAuthLoginSuccess = "auth.login_success"
	KeyAuthBadSignature = "auth.bad_signature"

	// Licenses
	KeyLicenseApplied           = "license.applied"
	KeyLicenseApproved          = "license.approved"
	KeyLicenseRejected          = "license.rejected"
	KeyLicenseRevoked           = "license.revoked"
	KeyLicenseNotFound          = "license.not_found"
	KeyLicenseConflict          = "license.conflict"
	KeyLicenseInvalidTransition = "license.invalid_transition"
	KeyLicenseNotCertifiable    = "license.not_certifiable"

	// Admin
	KeyAdminAccessDenied = "admin.access_denied"

	// Ledger
	KeyLedgerUnavailable    = "ledger.unavailable"
	KeyLedgerOutcomeUnknown = "ledger.outcome_unknown"
	KeyLedgerSchemaMismatch = "ledger.schema_mismatch"

	// Validation
	KeyValidationRequired     = "validation.required"
	KeyValidationInvalid      = "validation.invalid"
	KeyValidationRegistration = "validation.registration_number"
	KeyValidationSubType      = "validation.sub_type"

	// File Upload
	KeyFileUploadFailed = "file.upload_failed"
	KeyFileInvalidType  = "file.invalid_type"
	KeyFileTooLarge     = "file.too_large"

	// Verification
	KeyVerificationSuccess  = "verification.success"
	KeyVerificationMismatch = "verification.mismatch"
	KeyVerificationNotFound = "verification.not_found"

	// Rate limiting
	KeyRateLimited = "rate.limited"
)
