// internal/services/lifecycle.go
package services

import (
	"github.com/javajoker/licensechain/internal/apperrors"
	"github.com/javajoker/licensechain/internal/models"
)

// Action is an administrative transition request.
type Action string

const (
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"
	ActionRevoke  Action = "revoke"
)

type transition struct {
	from models.LicenseStatus
	to   models.LicenseStatus
}

// transitions is the whole lifecycle. Rejected and Revoked have no way out.
var transitions = map[Action]transition{
	ActionApprove: {from: models.LicenseStatusPending, to: models.LicenseStatusApproved},
	ActionReject:  {from: models.LicenseStatusPending, to: models.LicenseStatusRejected},
	ActionRevoke:  {from: models.LicenseStatusApproved, to: models.LicenseStatusRevoked},
}

// NextStatus returns the state action leads to from, or false when the
// transition is not legal.
func NextStatus(from models.LicenseStatus, action Action) (models.LicenseStatus, bool) {
	t, ok := transitions[action]
	if !ok || t.from != from {
		return "", false
	}
	return t.to, true
}

// CheckTransition is the precondition check run before any ledger write.
func CheckTransition(rec *models.LicenseRecord, action Action) (models.LicenseStatus, error) {
	if !rec.Exists() {
		var id uint64
		if rec != nil {
			id = rec.ID
		}
		return "", apperrors.NotFound(id)
	}
	to, ok := NextStatus(rec.Status, action)
	if !ok {
		return "", apperrors.InvalidTransition(rec.ID, string(rec.Status), string(action))
	}
	return to, nil
}
