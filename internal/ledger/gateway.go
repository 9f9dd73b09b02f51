// internal/ledger/gateway.go
package ledger

import (
	"context"
	"errors"
)

// RawRecord is the positional tuple a ledger returns for getLicense(id).
// Element types follow the ABI: integers for id and timestamps, strings for
// text and addresses, and a string or small integer for the status enum.
type RawRecord []interface{}

// RawSubmission is the positional argument list of applyForLicense:
// businessName, registrationNumber, email, address, auditDescription,
// subType, businessType, documentReference.
type RawSubmission []interface{}

const SubmissionArity = 8

// Method names as the contract spells them.
const (
	MethodCount   = "licenseCount"
	MethodGet     = "getLicense"
	MethodSubmit  = "applyForLicense"
	MethodApprove = "approveLicense"
	MethodReject  = "rejectLicense"
	MethodRevoke  = "revokeLicense"
)

var (
	// ErrUnavailable wraps transport and node failures.
	ErrUnavailable = errors.New("ledger unavailable")
	// ErrDuplicateRegistration is returned by ledgers that enforce
	// registration-number uniqueness atomically at write time.
	ErrDuplicateRegistration = errors.New("registration number already registered")
	// ErrNotAdministrator is the contract's owner-only revert.
	ErrNotAdministrator = errors.New("sender is not the contract administrator")
	// ErrInvalidState is the contract's status precondition revert.
	ErrInvalidState = errors.New("license is not in the required state")
	// ErrUnknownLicense is returned by writes that target an id never issued.
	ErrUnknownLicense = errors.New("license does not exist")
	// ErrBadSubmission means the argument list does not fit applyForLicense.
	ErrBadSubmission = errors.New("malformed submission arguments")
)

// Receipt is what a settled transaction reports back.
type Receipt struct {
	TxHash    string
	LicenseID uint64
	Method    string
}

// Tx is a handle on a write that has been accepted for execution.
type Tx interface {
	Hash() string
	// Wait blocks until the write is final or ctx is done. A ctx error does
	// not mean the write failed.
	Wait(ctx context.Context) (*Receipt, error)
}

// Gateway is the capability set the license engine consumes. Every call is a
// round trip; implementations hold no record cache.
type Gateway interface {
	Count(ctx context.Context) (uint64, error)
	// Get returns a record whose own id field is 0 when id is unknown.
	Get(ctx context.Context, id uint64) (RawRecord, error)
	Submit(ctx context.Context, sender string, args RawSubmission) (Tx, error)
	Approve(ctx context.Context, sender string, id uint64) (Tx, error)
	Reject(ctx context.Context, sender string, id uint64) (Tx, error)
	Revoke(ctx context.Context, sender string, id uint64) (Tx, error)
	// EnforcesUniqueness reports whether Submit itself rejects a live
	// duplicate registration number.
	EnforcesUniqueness() bool
	// ContractAddress identifies the ledger deployment for display.
	ContractAddress() string
}

// settledTx is a transaction that was final when it was handed out.
type settledTx struct {
	receipt Receipt
}

func (t *settledTx) Hash() string {
	return t.receipt.TxHash
}

func (t *settledTx) Wait(ctx context.Context) (*Receipt, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r := t.receipt
	return &r, nil
}

// submissionStrings unpacks and type-checks a RawSubmission.
func submissionStrings(args RawSubmission) ([SubmissionArity]string, error) {
	var out [SubmissionArity]string
	if len(args) != SubmissionArity {
		return out, ErrBadSubmission
	}
	for i, a := range args {
		s, ok := a.(string)
		if !ok {
			return out, ErrBadSubmission
		}
		out[i] = s
	}
	return out, nil
}
