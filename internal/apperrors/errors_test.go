package apperrors

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindOfUnwrapsChains(t *testing.T) {
	err := fmt.Errorf("approve: %w", InvalidTransition(3, "Rejected", "approve"))

	assert.Equal(t, KindInvalidTransition, KindOf(err))
	assert.True(t, IsKind(err, KindInvalidTransition))
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
}

func TestErrorsIsMatchesKindAndReason(t *testing.T) {
	err := MissingField("registration_number")

	assert.ErrorIs(t, err, &Error{Kind: KindValidation})
	assert.ErrorIs(t, err, &Error{Kind: KindValidation, Reason: ReasonMissingField})
	assert.NotErrorIs(t, err, &Error{Kind: KindValidation, Reason: ReasonFormatError})
	assert.NotErrorIs(t, err, &Error{Kind: KindConflict})
}

func TestLedgerErrorsKeepCause(t *testing.T) {
	err := WriteOutcomeUnknown("submit", 0, context.DeadlineExceeded)

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	e, ok := As(err)
	require.True(t, ok)
	assert.True(t, e.OutcomeUnknown)
	assert.False(t, e.Retryable)

	read := LedgerUnavailable("get", context.Canceled)
	assert.True(t, read.Retryable)
	assert.Contains(t, read.Error(), "ledger call get failed")
}

func TestSecurityMismatchDoesNotLeakStoredValue(t *testing.T) {
	err := SecurityMismatch(7)

	assert.Equal(t, uint64(7), err.LicenseID)
	assert.Empty(t, err.RegistrationNumber)
	assert.Contains(t, err.Error(), "#7")
}

func TestNotCertifiableIsAConflictWithReason(t *testing.T) {
	err := fmt.Errorf("certificate: %w", NotCertifiable(5, "Pending"))

	assert.ErrorIs(t, err, &Error{Kind: KindConflict, Reason: ReasonNotCertifiable})
	assert.NotErrorIs(t, Conflict("REG-000005", 5), &Error{Kind: KindConflict, Reason: ReasonNotCertifiable})
	e, ok := As(err)
	require.True(t, ok)
	assert.Equal(t, "Pending", e.Status)
	assert.Empty(t, e.Action)
}
