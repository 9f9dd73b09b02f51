// internal/codec/record.go
package codec

import (
	"fmt"
	"math"
	"math/big"
	"time"

	"github.com/javajoker/licensechain/internal/apperrors"
	"github.com/javajoker/licensechain/internal/ledger"
	"github.com/javajoker/licensechain/internal/models"
)

// Record layouts the decoder understands, keyed by arity. v1 predates the
// submission timestamp; v2 inserts it ahead of issuedAt.
const (
	ArityV1 = 13
	ArityV2 = 14
)

type layout struct {
	submitted int // -1 when the schema has no submission timestamp
	issued    int
	expires   int
	status    int
}

var layouts = map[int]layout{
	ArityV1: {submitted: -1, issued: 10, expires: 11, status: 12},
	ArityV2: {submitted: 10, issued: 11, expires: 12, status: 13},
}

// Decode maps a positional ledger record to a LicenseRecord. An id of 0 is
// returned as-is so callers can test Exists().
func Decode(raw ledger.RawRecord) (*models.LicenseRecord, error) {
	l, ok := layouts[len(raw)]
	if !ok {
		return nil, apperrors.SchemaMismatch(fmt.Sprintf("unexpected record arity %d", len(raw)))
	}

	id, err := uintAt(raw, 0)
	if err != nil {
		return nil, err
	}

	var text [9]string
	for i := range text {
		if text[i], err = stringAt(raw, i+1); err != nil {
			return nil, err
		}
	}

	rec := &models.LicenseRecord{
		ID:                 id,
		BusinessName:       text[0],
		RegistrationNumber: text[1],
		Email:              text[2],
		PremiseAddress:     text[3],
		AuditDescription:   text[4],
		BusinessType:       text[5],
		BusinessSector:     text[6],
		DocumentReference:  text[7],
		ApplicantIdentity:  text[8],
	}

	if l.submitted >= 0 {
		if rec.SubmittedAt, err = timeAt(raw, l.submitted); err != nil {
			return nil, err
		}
	}
	if rec.IssuedAt, err = timeAt(raw, l.issued); err != nil {
		return nil, err
	}
	if rec.ExpiresAt, err = timeAt(raw, l.expires); err != nil {
		return nil, err
	}

	// The sentinel record carries an empty status.
	if id == 0 {
		return rec, nil
	}
	if rec.Status, err = statusAt(raw, l.status); err != nil {
		return nil, err
	}
	return rec, nil
}

// Encode lays out a submission as applyForLicense arguments.
func Encode(s models.Submission) ledger.RawSubmission {
	return ledger.RawSubmission{
		s.BusinessName,
		s.RegistrationNumber,
		s.Email,
		s.PremiseAddress,
		s.AuditDescription,
		s.SubType,
		s.BusinessType,
		s.DocumentReference,
	}
}

func stringAt(raw ledger.RawRecord, i int) (string, error) {
	s, ok := raw[i].(string)
	if !ok {
		return "", apperrors.SchemaMismatch(fmt.Sprintf("field %d: want string, got %T", i, raw[i]))
	}
	return s, nil
}

func uintAt(raw ledger.RawRecord, i int) (uint64, error) {
	n, ok := toInt64(raw[i])
	if !ok || n < 0 {
		return 0, apperrors.SchemaMismatch(fmt.Sprintf("field %d: want unsigned integer, got %T", i, raw[i]))
	}
	return uint64(n), nil
}

func timeAt(raw ledger.RawRecord, i int) (*time.Time, error) {
	n, ok := toInt64(raw[i])
	if !ok || n < 0 {
		return nil, apperrors.SchemaMismatch(fmt.Sprintf("field %d: want unix seconds, got %T", i, raw[i]))
	}
	if n == 0 {
		return nil, nil
	}
	t := time.Unix(n, 0).UTC()
	return &t, nil
}

func statusAt(raw ledger.RawRecord, i int) (models.LicenseStatus, error) {
	if s, ok := raw[i].(string); ok {
		st, err := models.ParseLicenseStatus(s)
		if err != nil {
			return "", apperrors.SchemaMismatch(fmt.Sprintf("field %d: %v", i, err))
		}
		return st, nil
	}
	n, ok := toInt64(raw[i])
	if !ok || n < 0 || n >= int64(len(models.LicenseStatuses)) {
		return "", apperrors.SchemaMismatch(fmt.Sprintf("field %d: invalid status %v", i, raw[i]))
	}
	return models.LicenseStatuses[n], nil
}

func toInt64(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint8:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint64:
		if n > math.MaxInt64 {
			return 0, false
		}
		return int64(n), true
	case *big.Int:
		if n == nil || !n.IsInt64() {
			return 0, false
		}
		return n.Int64(), true
	default:
		return 0, false
	}
}
