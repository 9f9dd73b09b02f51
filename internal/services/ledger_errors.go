// internal/services/ledger_errors.go
package services

import (
	"context"
	"errors"

	"github.com/javajoker/licensechain/internal/apperrors"
	"github.com/javajoker/licensechain/internal/ledger"
)

// fromLedger turns a gateway error into the engine's taxonomy. Errors that
// are already typed pass through.
func fromLedger(op string, id uint64, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := apperrors.As(err); ok {
		return err
	}

	switch {
	case errors.Is(err, ledger.ErrNotAdministrator):
		return apperrors.Unauthorized("ledger", op)
	case errors.Is(err, ledger.ErrUnknownLicense):
		return apperrors.NotFound(id)
	case errors.Is(err, ledger.ErrBadSubmission):
		return apperrors.Internal("ledger rejected "+op+" arguments", err)
	default:
		// Transport failures, timeouts and cancellation.
		return apperrors.LedgerUnavailable(op, err)
	}
}

// awaitWrite blocks on tx finality. Once a write has been accepted, a lost
// confirmation is reported as outcome-unknown, never as a plain failure.
func awaitWrite(ctx context.Context, op string, id uint64, tx ledger.Tx) (*ledger.Receipt, error) {
	receipt, err := tx.Wait(ctx)
	if err != nil {
		return nil, apperrors.WriteOutcomeUnknown(op, id, err)
	}
	return receipt, nil
}
