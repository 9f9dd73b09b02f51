package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"

	"github.com/javajoker/licensechain/internal/apperrors"
	"github.com/javajoker/licensechain/internal/ledger"
	"github.com/javajoker/licensechain/internal/metrics"
	"github.com/javajoker/licensechain/internal/models"
)

type LicenseServiceTestSuite struct {
	suite.Suite
	ctx      context.Context
	clock    *clock
	ledger   *ledger.Memory
	metrics  *metrics.Metrics
	licenses *LicenseService
	verifier *VerificationService
}

func (s *LicenseServiceTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.clock = &clock{t: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	s.ledger = ledger.NewMemory(ledger.Options{
		Administrator: adminAddr,
		Validity:      30 * 24 * time.Hour,
		Now:           s.clock.Now,
	})
	s.metrics = metrics.New(prometheus.NewRegistry())
	s.build(s.ledger, RevokedReusable)
}

func (s *LicenseServiceTestSuite) build(gw ledger.Gateway, policy RevokedPolicy) {
	s.licenses = NewLicenseService(gw, NewAdminGate(adminAddr), NewUniquenessGuard(gw, policy), s.metrics,
		LicenseServiceConfig{ScanConcurrency: 2, Now: s.clock.Now})
	s.verifier = NewVerificationService(gw, s.metrics, s.clock.Now)
}

func (s *LicenseServiceTestSuite) submit(reg string) uint64 {
	receipt, err := s.licenses.Submit(s.ctx, applicantAddr, application(reg))
	s.Require().NoError(err)
	return receipt.LicenseID
}

func (s *LicenseServiceTestSuite) count() uint64 {
	n, err := s.ledger.Count(s.ctx)
	s.Require().NoError(err)
	return n
}

func (s *LicenseServiceTestSuite) requireKind(err error, kind apperrors.Kind) *apperrors.Error {
	s.Require().Error(err)
	appErr, ok := apperrors.As(err)
	s.Require().True(ok, "untyped error: %v", err)
	s.Require().Equal(kind, appErr.Kind, err.Error())
	return appErr
}

func (s *LicenseServiceTestSuite) TestSubmitCreatesPendingRecord() {
	receipt, err := s.licenses.Submit(s.ctx, applicantAddr, application(" reg_123456 "))
	s.Require().NoError(err)

	s.Equal(uint64(1), receipt.LicenseID)
	s.NotEmpty(receipt.TxHash)
	rec := receipt.License
	s.Require().NotNil(rec)
	s.Equal(models.LicenseStatusPending, rec.Status)
	s.Equal(applicantAddr, rec.ApplicantIdentity)
	s.Equal("REG-123456", rec.RegistrationNumber)
	s.Equal("Cafe", rec.BusinessType)
	s.Equal("Food Services", rec.BusinessSector)
	s.Equal("12 MG Road, Pune, MH", rec.PremiseAddress)
	s.Equal("Owner: Asha Rao | PAN: ABCDE-1234F | Loc: Pune, MH | Type: Cafe", rec.AuditDescription)
	s.Equal("ipfs://bafy-doc", rec.DocumentReference)
	s.Nil(rec.IssuedAt)
	s.Nil(rec.ExpiresAt)
	s.Require().NotNil(rec.SubmittedAt)
	s.True(s.clock.t.Equal(*rec.SubmittedAt))

	s.Equal(float64(1), testutil.ToFloat64(s.metrics.SubmissionOutcome.WithLabelValues("ok")))
}

func (s *LicenseServiceTestSuite) TestSubmitValidationHappensBeforeAnyWrite() {
	noReg := application("")
	badReg := application("REG-12345")
	badSub := application("REG-123456")
	badSub.SubType = "Retailer"
	noOwner := application("REG-123456")
	noOwner.OwnerName = ""
	badEmail := application("REG-123456")
	badEmail.Email = "not-an-email"

	tests := []struct {
		name   string
		caller string
		req    *ApplyLicenseRequest
		kind   apperrors.Kind
		reason string
		field  string
	}{
		{"missing identity", "", application("REG-123456"), apperrors.KindUnauthorized, apperrors.ReasonMissingIdentity, ""},
		{"missing registration", applicantAddr, noReg, apperrors.KindValidation, apperrors.ReasonMissingField, "registration_number"},
		{"malformed registration", applicantAddr, badReg, apperrors.KindValidation, apperrors.ReasonFormatError, "registration_number"},
		{"sub type outside catalogue", applicantAddr, badSub, apperrors.KindValidation, apperrors.ReasonFormatError, "sub_type"},
		{"missing owner", applicantAddr, noOwner, apperrors.KindValidation, apperrors.ReasonMissingField, "owner_name"},
		{"bad email", applicantAddr, badEmail, apperrors.KindValidation, apperrors.ReasonFormatError, "email"},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			_, err := s.licenses.Submit(s.ctx, tt.caller, tt.req)
			appErr := s.requireKind(err, tt.kind)
			s.Equal(tt.reason, appErr.Reason)
			s.Equal(tt.field, appErr.Field)
		})
	}
	s.Equal(uint64(0), s.count())
}

func (s *LicenseServiceTestSuite) TestUniquenessWhileLive() {
	id := s.submit("REG-123456")

	_, err := s.licenses.Submit(s.ctx, otherAddr, application("reg-123456"))
	appErr := s.requireKind(err, apperrors.KindConflict)
	s.Equal(id, appErr.LicenseID)
	s.Equal("REG-123456", appErr.RegistrationNumber)

	_, err = s.licenses.Approve(s.ctx, adminAddr, id)
	s.Require().NoError(err)
	_, err = s.licenses.Submit(s.ctx, otherAddr, application("REG_123456"))
	s.requireKind(err, apperrors.KindConflict)

	s.Equal(uint64(1), s.count())
}

func (s *LicenseServiceTestSuite) TestCheckAvailableWritesNothing() {
	s.Require().NoError(s.licenses.CheckAvailable(s.ctx, application("REG-123456")))
	s.Equal(uint64(0), s.count())

	id := s.submit("REG-123456")
	appErr := s.requireKind(s.licenses.CheckAvailable(s.ctx, application("reg-123456")), apperrors.KindConflict)
	s.Equal(id, appErr.LicenseID)

	s.requireKind(s.licenses.CheckAvailable(s.ctx, application("REG-1")), apperrors.KindValidation)
	s.Equal(uint64(1), s.count())
}

func (s *LicenseServiceTestSuite) TestRecordsPastAnIDGapStayVisible() {
	s.submit("REG-000001")
	s.submit("REG-000002")
	s.submit("REG-000003")
	s.build(&gappedGateway{Gateway: s.ledger, holes: map[uint64]bool{2: true}}, RevokedReusable)

	_, err := s.licenses.Submit(s.ctx, otherAddr, application("reg_000003"))
	appErr := s.requireKind(err, apperrors.KindConflict)
	s.Equal(uint64(3), appErr.LicenseID)

	mine, err := s.licenses.ListByApplicant(s.ctx, applicantAddr)
	s.Require().NoError(err)
	s.Require().Len(mine, 2)
	s.Equal(uint64(3), mine[0].ID)
	s.Equal(uint64(1), mine[1].ID)

	stats, err := s.licenses.Stats(s.ctx, adminAddr)
	s.Require().NoError(err)
	s.Equal(2, stats.Total)
}

func (s *LicenseServiceTestSuite) TestRevokedNumberIsReusable() {
	id := s.submit("REG-123456")
	_, err := s.licenses.Approve(s.ctx, adminAddr, id)
	s.Require().NoError(err)
	_, err = s.licenses.Revoke(s.ctx, adminAddr, id)
	s.Require().NoError(err)

	receipt, err := s.licenses.Submit(s.ctx, otherAddr, application("REG-123456"))
	s.Require().NoError(err)
	s.Equal(uint64(2), receipt.LicenseID)
}

func (s *LicenseServiceTestSuite) TestRevokedNumberStaysRetired() {
	s.build(s.ledger, RevokedRetired)
	id := s.submit("REG-123456")
	_, err := s.licenses.Approve(s.ctx, adminAddr, id)
	s.Require().NoError(err)
	_, err = s.licenses.Revoke(s.ctx, adminAddr, id)
	s.Require().NoError(err)

	_, err = s.licenses.Submit(s.ctx, otherAddr, application("REG-123456"))
	s.requireKind(err, apperrors.KindConflict)
}

func (s *LicenseServiceTestSuite) TestRejectedNumberIsStillHeld() {
	id := s.submit("REG-123456")
	_, err := s.licenses.Reject(s.ctx, adminAddr, id)
	s.Require().NoError(err)

	_, err = s.licenses.Submit(s.ctx, otherAddr, application("REG-123456"))
	s.requireKind(err, apperrors.KindConflict)
}

func (s *LicenseServiceTestSuite) TestEnforcingLedgerSkipsScanAndReportsConflict() {
	enforcing := ledger.NewMemory(ledger.Options{Administrator: adminAddr, EnforceUniqueness: true, Now: s.clock.Now})
	gw := &faultyGateway{Gateway: enforcing}
	s.build(gw, RevokedReusable)

	_, err := s.licenses.Submit(s.ctx, applicantAddr, application("REG-123456"))
	s.Require().NoError(err)
	readBack := gw.gets.Load()

	_, err = s.licenses.Submit(s.ctx, otherAddr, application("REG-123456"))
	s.requireKind(err, apperrors.KindConflict)
	s.Equal(readBack, gw.gets.Load(), "guard must not scan when the ledger enforces uniqueness")
}

func (s *LicenseServiceTestSuite) TestApproveRequiresAdministrator() {
	id := s.submit("REG-123456")

	for _, caller := range []string{applicantAddr, "", "0x52908400098527886E0F7030069857D2E4169EE"} {
		_, err := s.licenses.Approve(s.ctx, caller, id)
		s.requireKind(err, apperrors.KindUnauthorized)
	}

	rec, err := s.licenses.Get(s.ctx, id)
	s.Require().NoError(err)
	s.Equal(models.LicenseStatusPending, rec.Status)
}

func (s *LicenseServiceTestSuite) TestApproveStampsFromLedger() {
	id := s.submit("REG-123456")

	res, err := s.licenses.Approve(s.ctx, "0x52908400098527886e0f7030069857d2e4169ee7", id)
	s.Require().NoError(err)
	s.NotEmpty(res.TxHash)
	s.Equal(models.LicenseStatusApproved, res.License.Status)
	s.Require().NotNil(res.License.IssuedAt)
	s.Require().NotNil(res.License.ExpiresAt)
	s.True(s.clock.t.Add(30 * 24 * time.Hour).Equal(*res.License.ExpiresAt))

	_, err = s.licenses.Approve(s.ctx, adminAddr, id)
	appErr := s.requireKind(err, apperrors.KindInvalidTransition)
	s.Equal("Approved", appErr.Status)
	s.Equal("approve", appErr.Action)
}

func (s *LicenseServiceTestSuite) TestTerminalStatesAllowNothing() {
	rejected := s.submit("REG-000001")
	revoked := s.submit("REG-000002")
	_, err := s.licenses.Reject(s.ctx, adminAddr, rejected)
	s.Require().NoError(err)
	_, err = s.licenses.Approve(s.ctx, adminAddr, revoked)
	s.Require().NoError(err)
	_, err = s.licenses.Revoke(s.ctx, adminAddr, revoked)
	s.Require().NoError(err)

	for _, id := range []uint64{rejected, revoked} {
		for _, action := range []Action{ActionApprove, ActionReject, ActionRevoke} {
			_, err := s.licenses.transition(s.ctx, adminAddr, id, action)
			s.requireKind(err, apperrors.KindInvalidTransition)
		}
	}
}

func (s *LicenseServiceTestSuite) TestRevokeNeedsApproved() {
	id := s.submit("REG-123456")
	_, err := s.licenses.Revoke(s.ctx, adminAddr, id)
	s.requireKind(err, apperrors.KindInvalidTransition)

	_, err = s.licenses.Approve(s.ctx, adminAddr, 42)
	s.requireKind(err, apperrors.KindNotFound)
}

func (s *LicenseServiceTestSuite) TestEndToEnd() {
	receipt, err := s.licenses.Submit(s.ctx, applicantAddr, application("REG-123456"))
	s.Require().NoError(err)
	s.Equal(uint64(1), receipt.LicenseID)
	s.Equal(models.LicenseStatusPending, receipt.License.Status)

	_, err = s.licenses.Approve(s.ctx, applicantAddr, 1)
	s.requireKind(err, apperrors.KindUnauthorized)
	rec, err := s.licenses.Get(s.ctx, 1)
	s.Require().NoError(err)
	s.Equal(models.LicenseStatusPending, rec.Status)

	_, err = s.licenses.Approve(s.ctx, adminAddr, 1)
	s.Require().NoError(err)

	result, err := s.verifier.Verify(s.ctx, "1", "reg-123456")
	s.Require().NoError(err)
	s.True(result.IsActive)
	s.Equal(models.LicenseStatusApproved, result.Status)
}

func (s *LicenseServiceTestSuite) TestLedgerUnavailableIsRetryable() {
	s.submit("REG-000001")
	gw := &faultyGateway{Gateway: s.ledger, getErr: ledger.ErrUnavailable}
	s.build(gw, RevokedReusable)

	_, err := s.licenses.Submit(s.ctx, applicantAddr, application("REG-123456"))
	appErr := s.requireKind(err, apperrors.KindLedgerUnavailable)
	s.True(appErr.Retryable)
	s.False(appErr.OutcomeUnknown)
	s.True(errors.Is(err, ledger.ErrUnavailable))
	s.Equal(uint64(1), s.count())
}

func (s *LicenseServiceTestSuite) TestLostConfirmationIsOutcomeUnknown() {
	gw := &faultyGateway{Gateway: s.ledger, waitErr: context.DeadlineExceeded}
	s.build(gw, RevokedReusable)

	_, err := s.licenses.Submit(s.ctx, applicantAddr, application("REG-123456"))
	appErr := s.requireKind(err, apperrors.KindLedgerUnavailable)
	s.True(appErr.OutcomeUnknown)
	s.False(appErr.Retryable)
	// The write landed anyway.
	s.Equal(uint64(1), s.count())

	_, err = s.licenses.Approve(s.ctx, adminAddr, 1)
	appErr = s.requireKind(err, apperrors.KindLedgerUnavailable)
	s.True(appErr.OutcomeUnknown)
	s.Equal(uint64(1), appErr.LicenseID)
}

func (s *LicenseServiceTestSuite) TestSchemaMismatchIsFatal() {
	s.submit("REG-123456")
	gw := &faultyGateway{Gateway: s.ledger, record: ledger.RawRecord{uint64(1), "short"}}
	s.build(gw, RevokedReusable)

	_, err := s.licenses.Get(s.ctx, 1)
	appErr := s.requireKind(err, apperrors.KindSchemaMismatch)
	s.False(appErr.Retryable)
}

func (s *LicenseServiceTestSuite) TestCanceledContext() {
	ctx, cancel := context.WithCancel(s.ctx)
	cancel()

	_, err := s.licenses.Submit(ctx, applicantAddr, application("REG-123456"))
	s.requireKind(err, apperrors.KindLedgerUnavailable)
	s.True(errors.Is(err, context.Canceled))
}

func TestLicenseServiceSuite(t *testing.T) {
	suite.Run(t, new(LicenseServiceTestSuite))
}
