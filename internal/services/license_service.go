// internal/services/license_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/javajoker/licensechain/internal/apperrors"
	"github.com/javajoker/licensechain/internal/codec"
	"github.com/javajoker/licensechain/internal/ledger"
	"github.com/javajoker/licensechain/internal/metrics"
	"github.com/javajoker/licensechain/internal/models"
	"github.com/javajoker/licensechain/internal/utils"
)

type LicenseService struct {
	ledger  ledger.Gateway
	reader  recordReader
	gate    *AdminGate
	guard   *UniquenessGuard
	metrics *metrics.Metrics
	now     func() time.Time
}

type LicenseServiceConfig struct {
	ScanConcurrency int
	Now             func() time.Time
}

type ApplyLicenseRequest struct {
	BusinessName       string `json:"business_name" form:"business_name" validate:"required,max=200"`
	RegistrationNumber string `json:"registration_number" form:"registration_number" validate:"required,reg_number"`
	Email              string `json:"email" form:"email" validate:"required,email"`
	BusinessType       string `json:"business_type" form:"business_type" validate:"required,business_type"`
	SubType            string `json:"sub_type" form:"sub_type" validate:"required"`
	DocumentReference  string `json:"document_reference" form:"document_reference" validate:"max=512"`
	models.ApplicantDetails
}

type SubmissionReceipt struct {
	LicenseID uint64                `json:"license_id"`
	TxHash    string                `json:"tx_hash"`
	License   *models.LicenseRecord `json:"license,omitempty"`
}

type TransitionResult struct {
	TxHash  string                `json:"tx_hash"`
	License *models.LicenseRecord `json:"license"`
}

type AdminLicenseFilter struct {
	Status         *models.LicenseStatus
	Search         string
	IncludeRevoked bool
}

type LicenseStats struct {
	Pending  int `json:"pending"`
	Approved int `json:"approved"`
	Rejected int `json:"rejected"`
	Revoked  int `json:"revoked"`
	Total    int `json:"total"`
}

type Certificate struct {
	License         *models.LicenseRecord `json:"license"`
	ContractAddress string                `json:"contract_address"`
	IsExpired       bool                  `json:"is_expired"`
	IsActive        bool                  `json:"is_active"`
	GeneratedAt     time.Time             `json:"generated_at"`
}

func NewLicenseService(gw ledger.Gateway, gate *AdminGate, guard *UniquenessGuard, m *metrics.Metrics, cfg LicenseServiceConfig) *LicenseService {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &LicenseService{
		ledger:  gw,
		reader:  recordReader{ledger: gw, concurrency: cfg.ScanConcurrency},
		gate:    gate,
		guard:   guard,
		metrics: m,
		now:     cfg.Now,
	}
}

// Submit admits a new application. It runs the uniqueness pre-check, writes
// the record, waits for finality and reads the record back.
func (s *LicenseService) Submit(ctx context.Context, caller string, req *ApplyLicenseRequest) (receipt *SubmissionReceipt, err error) {
	defer func() { s.metrics.IncrementSubmission(outcomeLabel(err)) }()

	caller = strings.TrimSpace(caller)
	if caller == "" {
		return nil, apperrors.Unauthorized("", "submit")
	}
	if err := validateApplication(req); err != nil {
		return nil, err
	}

	sub := ComposeSubmission(req)
	if err := s.guard.CheckAvailable(ctx, sub.RegistrationNumber); err != nil {
		return nil, err
	}

	tx, err := s.ledger.Submit(ctx, caller, codec.Encode(sub))
	if err != nil {
		if errors.Is(err, ledger.ErrDuplicateRegistration) {
			return nil, apperrors.Conflict(sub.RegistrationNumber, 0)
		}
		return nil, fromLedger(ledger.MethodSubmit, 0, err)
	}

	r, err := awaitWrite(ctx, ledger.MethodSubmit, 0, tx)
	if err != nil {
		return nil, err
	}

	receipt = &SubmissionReceipt{LicenseID: r.LicenseID, TxHash: r.TxHash}
	// The write is final; a failed read-back must not look like a failed submit.
	if rec, err := s.reader.get(ctx, r.LicenseID); err == nil && rec.Exists() {
		receipt.License = rec
	}
	return receipt, nil
}

// CheckAvailable runs the validation and uniqueness checks of Submit without
// writing anything. Callers use it before storing the supporting document.
func (s *LicenseService) CheckAvailable(ctx context.Context, req *ApplyLicenseRequest) error {
	if err := validateApplication(req); err != nil {
		return err
	}
	return s.guard.CheckAvailable(ctx, models.NormalizeRegistrationNumber(req.RegistrationNumber))
}

// ComposeSubmission folds the applicant details into the ledger fields.
func ComposeSubmission(req *ApplyLicenseRequest) models.Submission {
	d := req.ApplicantDetails
	city := strings.TrimSpace(d.City)
	state := strings.TrimSpace(d.State)
	subType := strings.TrimSpace(req.SubType)

	return models.Submission{
		BusinessName:       strings.TrimSpace(req.BusinessName),
		RegistrationNumber: models.NormalizeRegistrationNumber(req.RegistrationNumber),
		Email:              strings.TrimSpace(req.Email),
		PremiseAddress:     fmt.Sprintf("%s, %s, %s", strings.TrimSpace(d.Street), city, state),
		AuditDescription: fmt.Sprintf("Owner: %s | PAN: %s | Loc: %s, %s | Type: %s",
			strings.TrimSpace(d.OwnerName), models.NormalizeRegistrationNumber(d.TaxID), city, state, subType),
		SubType:           subType,
		BusinessType:      strings.TrimSpace(req.BusinessType),
		DocumentReference: strings.TrimSpace(req.DocumentReference),
	}
}

func validateApplication(req *ApplyLicenseRequest) error {
	if req == nil {
		return apperrors.MissingField("registration_number")
	}
	if strings.TrimSpace(req.RegistrationNumber) == "" {
		return apperrors.MissingField("registration_number")
	}
	if !models.ValidRegistrationNumber(req.RegistrationNumber) {
		return apperrors.FormatError("registration_number", req.RegistrationNumber, "REG-dddddd")
	}

	if err := validateRequest(req); err != nil {
		return err
	}

	if !models.ValidSubType(req.BusinessType, req.SubType) {
		return apperrors.FormatError("sub_type", req.SubType, "a sub type of "+req.BusinessType)
	}
	return nil
}

// validateRequest maps the first struct tag failure onto a validation error.
func validateRequest(req interface{}) error {
	err := utils.ValidateStruct(req)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		if fe.Tag() == "required" {
			return apperrors.MissingField(fe.Field())
		}
		return apperrors.FormatError(fe.Field(), fmt.Sprint(fe.Value()), fe.Tag())
	}
	return apperrors.Internal("validation failed", err)
}

func (s *LicenseService) Approve(ctx context.Context, caller string, id uint64) (*TransitionResult, error) {
	return s.transition(ctx, caller, id, ActionApprove)
}

func (s *LicenseService) Reject(ctx context.Context, caller string, id uint64) (*TransitionResult, error) {
	return s.transition(ctx, caller, id, ActionReject)
}

func (s *LicenseService) Revoke(ctx context.Context, caller string, id uint64) (*TransitionResult, error) {
	return s.transition(ctx, caller, id, ActionRevoke)
}

func (s *LicenseService) transition(ctx context.Context, caller string, id uint64, action Action) (result *TransitionResult, err error) {
	defer func() { s.metrics.IncrementTransition(string(action), outcomeLabel(err)) }()

	if err := s.gate.Require(caller, string(action)); err != nil {
		return nil, err
	}

	rec, err := s.reader.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := CheckTransition(rec, action); err != nil {
		return nil, err
	}

	method, write := s.writer(action)
	tx, err := write(ctx, caller, id)
	if err != nil {
		if errors.Is(err, ledger.ErrInvalidState) {
			// Another administrator moved the record between read and write.
			current := rec.Status
			if fresh, ferr := s.reader.get(ctx, id); ferr == nil && fresh.Exists() {
				current = fresh.Status
			}
			return nil, apperrors.InvalidTransition(id, string(current), string(action))
		}
		return nil, fromLedger(method, id, err)
	}

	r, err := awaitWrite(ctx, method, id, tx)
	if err != nil {
		return nil, err
	}

	// Read back so ledger-stamped issue and expiry times are visible.
	updated, err := s.reader.get(ctx, id)
	if err != nil {
		updated = nil
	}
	return &TransitionResult{TxHash: r.TxHash, License: updated}, nil
}

func (s *LicenseService) writer(action Action) (string, func(context.Context, string, uint64) (ledger.Tx, error)) {
	switch action {
	case ActionApprove:
		return ledger.MethodApprove, s.ledger.Approve
	case ActionReject:
		return ledger.MethodReject, s.ledger.Reject
	default:
		return ledger.MethodRevoke, s.ledger.Revoke
	}
}

// Get is a plain read by id.
func (s *LicenseService) Get(ctx context.Context, id uint64) (*models.LicenseRecord, error) {
	rec, err := s.reader.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !rec.Exists() {
		return nil, apperrors.NotFound(id)
	}
	return rec, nil
}

// GetForCaller returns a record to its applicant or the administrator. The
// registration number is a verification factor, so anyone else gets
// NotFound.
func (s *LicenseService) GetForCaller(ctx context.Context, caller string, id uint64) (*models.LicenseRecord, error) {
	caller = strings.TrimSpace(caller)
	if caller == "" {
		return nil, apperrors.Unauthorized("", "read")
	}
	rec, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.gate.IsAdministrator(caller) && !strings.EqualFold(rec.ApplicantIdentity, caller) {
		return nil, apperrors.NotFound(id)
	}
	return withSubmissionDate(rec, s.now()), nil
}

// ListByApplicant returns the caller's own records, newest first.
func (s *LicenseService) ListByApplicant(ctx context.Context, caller string) ([]*models.LicenseRecord, error) {
	caller = strings.TrimSpace(caller)
	if caller == "" {
		return nil, apperrors.Unauthorized("", "list")
	}

	all, err := s.reader.all(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	out := make([]*models.LicenseRecord, 0)
	for _, rec := range all {
		if strings.EqualFold(rec.ApplicantIdentity, caller) {
			out = append(out, withSubmissionDate(rec, now))
		}
	}
	return out, nil
}

// ListForAdmin is the administrator's dashboard listing, newest first.
// Revoked records are hidden unless the filter asks for them.
func (s *LicenseService) ListForAdmin(ctx context.Context, caller string, filter AdminLicenseFilter) ([]*models.LicenseRecord, error) {
	if err := s.gate.Require(caller, "list"); err != nil {
		return nil, err
	}

	all, err := s.reader.all(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	search := strings.ToLower(strings.TrimSpace(filter.Search))
	out := make([]*models.LicenseRecord, 0, len(all))
	for _, rec := range all {
		if rec.Status == models.LicenseStatusRevoked && !filter.IncludeRevoked &&
			(filter.Status == nil || *filter.Status != models.LicenseStatusRevoked) {
			continue
		}
		if filter.Status != nil && rec.Status != *filter.Status {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(rec.BusinessName), search) &&
			!strings.Contains(strings.ToLower(rec.RegistrationNumber), search) {
			continue
		}
		out = append(out, withSubmissionDate(rec, now))
	}
	return out, nil
}

func (s *LicenseService) Stats(ctx context.Context, caller string) (*LicenseStats, error) {
	if err := s.gate.Require(caller, "stats"); err != nil {
		return nil, err
	}

	all, err := s.reader.all(ctx)
	if err != nil {
		return nil, err
	}

	stats := &LicenseStats{Total: len(all)}
	for _, rec := range all {
		switch rec.Status {
		case models.LicenseStatusPending:
			stats.Pending++
		case models.LicenseStatusApproved:
			stats.Approved++
		case models.LicenseStatusRejected:
			stats.Rejected++
		case models.LicenseStatusRevoked:
			stats.Revoked++
		}
	}
	return stats, nil
}

// Certificate is available to the record's owner once it is approved.
// Someone else's id reads as not found.
func (s *LicenseService) Certificate(ctx context.Context, caller string, id uint64) (*Certificate, error) {
	caller = strings.TrimSpace(caller)
	if caller == "" {
		return nil, apperrors.Unauthorized("", "certificate")
	}

	rec, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !strings.EqualFold(rec.ApplicantIdentity, caller) {
		return nil, apperrors.NotFound(id)
	}
	if rec.Status != models.LicenseStatusApproved {
		return nil, apperrors.NotCertifiable(id, string(rec.Status))
	}

	now := s.now()
	expired := rec.Expired(now)
	return &Certificate{
		License:         rec,
		ContractAddress: s.ledger.ContractAddress(),
		IsExpired:       expired,
		IsActive:        !expired,
		GeneratedAt:     now,
	}, nil
}

// Ping is a single count round trip.
func (s *LicenseService) Ping(ctx context.Context) (uint64, error) {
	return s.reader.count(ctx)
}

func withSubmissionDate(rec *models.LicenseRecord, now time.Time) *models.LicenseRecord {
	if rec.SubmittedAt == nil {
		at := rec.SubmissionDate(now)
		rec.SubmittedAt = &at
	}
	return rec
}

func outcomeLabel(err error) string {
	if err == nil {
		return "ok"
	}
	return string(apperrors.KindOf(err))
}
