// internal/ledger/memory.go
package ledger

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/javajoker/licensechain/internal/models"
)

// Status spellings the contract stores.
const (
	statusPending  = "Pending"
	statusApproved = "Approved"
	statusRejected = "Rejected"
	statusRevoked  = "Revoked"
)

// DefaultValidity is how long an approved license stays valid when the
// deployment does not say otherwise.
const DefaultValidity = 365 * 24 * time.Hour

type Options struct {
	Administrator     string
	Validity          time.Duration
	EnforceUniqueness bool
	// RetireRevoked keeps a revoked record's registration number blocked
	// for ledgers that enforce uniqueness.
	RetireRevoked bool
	Address       string
	Now           func() time.Time
}

func (o *Options) setDefaults() {
	if o.Validity <= 0 {
		o.Validity = DefaultValidity
	}
	if o.Now == nil {
		o.Now = time.Now
	}
}

type memoryEntry struct {
	fields    [SubmissionArity]string
	applicant string
	submitted int64
	issued    int64
	expires   int64
	status    string
}

// Memory is an in-process rendition of the license contract. It serializes
// writes with a mutex the way the chain serializes transactions.
type Memory struct {
	mu      sync.RWMutex
	opts    Options
	entries []memoryEntry
	nonce   uint64
}

func NewMemory(opts Options) *Memory {
	opts.setDefaults()
	if opts.Address == "" {
		opts.Address = "memory://licensechain"
	}
	return &Memory{opts: opts}
}

func (m *Memory) EnforcesUniqueness() bool {
	return m.opts.EnforceUniqueness
}

func (m *Memory) ContractAddress() string {
	return m.opts.Address
}

func (m *Memory) Count(ctx context.Context) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return uint64(len(m.entries)), nil
}

func (m *Memory) Get(ctx context.Context, id uint64) (RawRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if id == 0 || id > uint64(len(m.entries)) {
		return zeroRecord(), nil
	}
	e := m.entries[id-1]
	return recordTuple(id, e.fields, e.applicant, e.submitted, e.issued, e.expires, e.status), nil
}

func (m *Memory) Submit(ctx context.Context, sender string, args RawSubmission) (Tx, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	fields, err := submissionStrings(args)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(sender) == "" {
		return nil, fmt.Errorf("%w: empty sender", ErrBadSubmission)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.opts.EnforceUniqueness {
		for _, e := range m.entries {
			if e.status == statusRevoked && !m.opts.RetireRevoked {
				continue
			}
			if models.SameRegistrationNumber(e.fields[1], fields[1]) {
				return nil, ErrDuplicateRegistration
			}
		}
	}

	now := m.opts.Now()
	m.entries = append(m.entries, memoryEntry{
		fields:    fields,
		applicant: sender,
		submitted: unixOrZero(now),
		status:    statusPending,
	})
	id := uint64(len(m.entries))
	return m.settle(MethodSubmit, id, sender, now), nil
}

func (m *Memory) Approve(ctx context.Context, sender string, id uint64) (Tx, error) {
	return m.transition(ctx, MethodApprove, sender, id, statusPending, statusApproved)
}

func (m *Memory) Reject(ctx context.Context, sender string, id uint64) (Tx, error) {
	return m.transition(ctx, MethodReject, sender, id, statusPending, statusRejected)
}

func (m *Memory) Revoke(ctx context.Context, sender string, id uint64) (Tx, error) {
	return m.transition(ctx, MethodRevoke, sender, id, statusApproved, statusRevoked)
}

func (m *Memory) transition(ctx context.Context, method, sender string, id uint64, from, to string) (Tx, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !sameIdentity(sender, m.opts.Administrator) {
		return nil, ErrNotAdministrator
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if id == 0 || id > uint64(len(m.entries)) {
		return nil, ErrUnknownLicense
	}
	e := &m.entries[id-1]
	if e.status != from {
		return nil, fmt.Errorf("%w: %s", ErrInvalidState, e.status)
	}

	now := m.opts.Now()
	e.status = to
	if to == statusApproved {
		e.issued = now.Unix()
		e.expires = now.Add(m.opts.Validity).Unix()
	}
	return m.settle(method, id, sender, now), nil
}

func (m *Memory) settle(method string, id uint64, sender string, at time.Time) Tx {
	m.nonce++
	return &settledTx{receipt: Receipt{
		TxHash:    txHash(method, id, sender, m.nonce, at),
		LicenseID: id,
		Method:    method,
	}}
}
