// internal/services/uniqueness.go
package services

import (
	"context"

	"github.com/javajoker/licensechain/internal/apperrors"
	"github.com/javajoker/licensechain/internal/ledger"
	"github.com/javajoker/licensechain/internal/models"
)

// RevokedPolicy says whether a revoked record still holds its registration
// number.
type RevokedPolicy int

const (
	RevokedReusable RevokedPolicy = iota
	RevokedRetired
)

// UniquenessGuard is a best-effort pre-check. Two concurrent submissions can
// both pass it; only a ledger that enforces uniqueness closes that race.
type UniquenessGuard struct {
	reader recordReader
	policy RevokedPolicy
}

func NewUniquenessGuard(gw ledger.Gateway, policy RevokedPolicy) *UniquenessGuard {
	return &UniquenessGuard{reader: recordReader{ledger: gw}, policy: policy}
}

// CheckAvailable scans records in ascending id order and fails with Conflict
// on the first live record holding registrationNumber. The scan is skipped
// when the ledger enforces uniqueness itself.
func (g *UniquenessGuard) CheckAvailable(ctx context.Context, registrationNumber string) error {
	if g.reader.ledger.EnforcesUniqueness() {
		return nil
	}

	n, err := g.reader.count(ctx)
	if err != nil {
		return err
	}
	for id := uint64(1); id <= n; id++ {
		if err := ctx.Err(); err != nil {
			return apperrors.LedgerUnavailable(ledger.MethodGet, err)
		}
		rec, err := g.reader.get(ctx, id)
		if err != nil {
			return err
		}
		if !g.holds(rec) {
			continue
		}
		if models.SameRegistrationNumber(rec.RegistrationNumber, registrationNumber) {
			return apperrors.Conflict(models.NormalizeRegistrationNumber(registrationNumber), rec.ID)
		}
	}
	return nil
}

func (g *UniquenessGuard) holds(rec *models.LicenseRecord) bool {
	if !rec.Exists() {
		return false
	}
	return rec.Status != models.LicenseStatusRevoked || g.policy == RevokedRetired
}
