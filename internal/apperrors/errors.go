// internal/apperrors/errors.go
package apperrors

import (
	"errors"
	"fmt"
	"strings"
)

// Kind is the normalized failure taxonomy shared by the license engine and
// its presentation layer.
type Kind string

const (
	KindValidation        Kind = "validation"
	KindConflict          Kind = "conflict"
	KindNotFound          Kind = "not_found"
	KindSecurityMismatch  Kind = "security_mismatch"
	KindUnauthorized      Kind = "unauthorized"
	KindInvalidTransition Kind = "invalid_transition"
	KindLedgerUnavailable Kind = "ledger_unavailable"
	KindSchemaMismatch    Kind = "schema_mismatch"
	KindInternal          Kind = "internal"
)

// Reasons refine a kind.
const (
	ReasonMissingField = "missing_field"
	ReasonFormatError  = "format_error"
	// ReasonMissingIdentity marks an Unauthorized raised because no caller
	// identity was supplied at all.
	ReasonMissingIdentity = "missing_identity"
	// ReasonNotCertifiable marks a certificate request for a record that is
	// not Approved.
	ReasonNotCertifiable = "not_certifiable"
	// ReasonInvalidSignature marks a sign-in whose challenge signature did
	// not recover to the claimed address.
	ReasonInvalidSignature = "invalid_signature"
)

// Error carries the kind plus enough identifiers to render a precise message
// without re-deriving anything.
type Error struct {
	Kind               Kind
	Reason             string
	Field              string
	LicenseID          uint64
	RegistrationNumber string
	Status             string
	Action             string
	Message            string
	Retryable          bool
	// OutcomeUnknown is set when a ledger write was sent but its finality
	// could not be confirmed. Such a write must not be retried blindly.
	OutcomeUnknown bool
	Err            error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Kind))
	if e.Reason != "" {
		b.WriteString("/" + e.Reason)
	}
	b.WriteString(": ")
	b.WriteString(e.Message)
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is lets errors.Is match on kind using a bare &Error{Kind: k} target.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Reason == "" || t.Reason == e.Reason)
}

func MissingField(field string) *Error {
	return &Error{
		Kind:    KindValidation,
		Reason:  ReasonMissingField,
		Field:   field,
		Message: field + " is required",
	}
}

func FormatError(field, value, expected string) *Error {
	return &Error{
		Kind:    KindValidation,
		Reason:  ReasonFormatError,
		Field:   field,
		Message: fmt.Sprintf("%s %q does not match %s", field, value, expected),
	}
}

func Conflict(registrationNumber string, existingID uint64) *Error {
	return &Error{
		Kind:               KindConflict,
		RegistrationNumber: registrationNumber,
		LicenseID:          existingID,
		Message:            fmt.Sprintf("registration number %s is already in use", registrationNumber),
	}
}

func NotFound(id uint64) *Error {
	return &Error{
		Kind:      KindNotFound,
		LicenseID: id,
		Message:   fmt.Sprintf("license #%d not found", id),
	}
}

// SecurityMismatch names the queried id but never the stored registration number.
func SecurityMismatch(id uint64) *Error {
	return &Error{
		Kind:      KindSecurityMismatch,
		LicenseID: id,
		Message:   fmt.Sprintf("registration number does not match license #%d", id),
	}
}

func Unauthorized(caller, action string) *Error {
	e := &Error{
		Kind:    KindUnauthorized,
		Action:  action,
		Message: "caller is not the administrator",
	}
	if caller == "" {
		e.Reason = ReasonMissingIdentity
		e.Message = "caller identity is missing"
	}
	return e
}

func InvalidSignature(address string) *Error {
	return &Error{
		Kind:    KindUnauthorized,
		Reason:  ReasonInvalidSignature,
		Action:  "login",
		Message: "sign-in signature is not valid for " + address,
	}
}

func InvalidTransition(id uint64, status, action string) *Error {
	return &Error{
		Kind:      KindInvalidTransition,
		LicenseID: id,
		Status:    status,
		Action:    action,
		Message:   fmt.Sprintf("cannot %s license #%d in state %s", action, id, status),
	}
}

// NotCertifiable is raised when a certificate is requested for a record the
// administrator has not approved.
func NotCertifiable(id uint64, status string) *Error {
	return &Error{
		Kind:      KindConflict,
		Reason:    ReasonNotCertifiable,
		LicenseID: id,
		Status:    status,
		Message:   fmt.Sprintf("license #%d is %s and has no certificate", id, status),
	}
}

func LedgerUnavailable(op string, err error) *Error {
	return &Error{
		Kind:      KindLedgerUnavailable,
		Action:    op,
		Message:   "ledger call " + op + " failed",
		Retryable: true,
		Err:       err,
	}
}

// WriteOutcomeUnknown reports a write that reached the ledger but whose
// confirmation was lost (timeout, cancellation, dropped connection).
func WriteOutcomeUnknown(op string, id uint64, err error) *Error {
	return &Error{
		Kind:           KindLedgerUnavailable,
		Action:         op,
		LicenseID:      id,
		Message:        "ledger write " + op + " was sent but not confirmed",
		OutcomeUnknown: true,
		Err:            err,
	}
}

func SchemaMismatch(detail string) *Error {
	return &Error{
		Kind:    KindSchemaMismatch,
		Message: "ledger record schema mismatch: " + detail,
	}
}

func Internal(message string, err error) *Error {
	return &Error{
		Kind:    KindInternal,
		Message: message,
		Err:     err,
	}
}

// KindOf extracts the kind from an error chain, KindInternal otherwise.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// As is a small helper around errors.As for *Error.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
