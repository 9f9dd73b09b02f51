package services

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/javajoker/licensechain/internal/apperrors"
	"github.com/javajoker/licensechain/internal/models"
)

func (s *LicenseServiceTestSuite) approved(reg string) uint64 {
	id := s.submit(reg)
	_, err := s.licenses.Approve(s.ctx, adminAddr, id)
	s.Require().NoError(err)
	return id
}

func (s *LicenseServiceTestSuite) TestVerifyEquivalentSpellings() {
	id := s.approved("REG-000123")
	idStr := strconv.FormatUint(id, 10)

	for _, reg := range []string{"REG-000123", "reg-000123", " Reg_000123 "} {
		res, err := s.verifier.Verify(s.ctx, idStr, reg)
		s.Require().NoError(err, reg)
		s.True(res.IsActive)
		s.False(res.IsExpired)
		s.Equal(models.LicenseStatusApproved, res.Status)
		s.Equal("Acme Foods", res.BusinessName)
		s.Equal(s.clock.t, res.VerifiedAt)
	}
	s.Equal(float64(3), testutil.ToFloat64(s.metrics.VerificationOutcome.WithLabelValues("active")))
}

func (s *LicenseServiceTestSuite) TestVerifySecurityMismatch() {
	id := s.approved("REG-000123")
	s.approved("REG-000124")

	_, err := s.verifier.Verify(s.ctx, strconv.FormatUint(id, 10), "REG-000124")
	appErr := s.requireKind(err, apperrors.KindSecurityMismatch)
	s.Equal(id, appErr.LicenseID)
	s.NotContains(err.Error(), "000123")
}

func (s *LicenseServiceTestSuite) TestVerifyNotFound() {
	s.approved("REG-000123")

	for _, id := range []string{"0", "2", "999"} {
		_, err := s.verifier.Verify(s.ctx, id, "REG-000123")
		s.requireKind(err, apperrors.KindNotFound)
	}
}

func (s *LicenseServiceTestSuite) TestVerifyInputValidation() {
	gets := &faultyGateway{Gateway: s.ledger}
	s.build(gets, RevokedReusable)

	tests := []struct {
		id     string
		reg    string
		reason string
		field  string
	}{
		{"", "REG-000123", apperrors.ReasonMissingField, "license_id"},
		{"1", "  ", apperrors.ReasonMissingField, "registration_number"},
		{"1", "REG-00012", apperrors.ReasonFormatError, "registration_number"},
		{"1", "REG-000123-", apperrors.ReasonFormatError, "registration_number"},
		{"one", "REG-000123", apperrors.ReasonFormatError, "license_id"},
		{"-1", "REG-000123", apperrors.ReasonFormatError, "license_id"},
	}
	for _, tt := range tests {
		_, err := s.verifier.Verify(s.ctx, tt.id, tt.reg)
		appErr := s.requireKind(err, apperrors.KindValidation)
		s.Equal(tt.reason, appErr.Reason, tt.id+"/"+tt.reg)
		s.Equal(tt.field, appErr.Field)
	}
	s.Equal(int64(0), gets.gets.Load(), "validation must not touch the ledger")
}

func (s *LicenseServiceTestSuite) TestVerifyExpiredApproval() {
	id := s.approved("REG-000123")
	s.clock.Advance(31 * 24 * time.Hour)

	res, err := s.verifier.Verify(s.ctx, strconv.FormatUint(id, 10), "REG-000123")
	s.Require().NoError(err)
	s.True(res.IsExpired)
	s.False(res.IsActive)
	s.Equal(models.LicenseStatusApproved, res.Status)
}

func (s *LicenseServiceTestSuite) TestVerifyInactiveStates() {
	pending := s.submit("REG-000001")
	rejected := s.submit("REG-000002")
	revoked := s.approved("REG-000003")
	_, err := s.licenses.Reject(s.ctx, adminAddr, rejected)
	s.Require().NoError(err)
	_, err = s.licenses.Revoke(s.ctx, adminAddr, revoked)
	s.Require().NoError(err)

	want := map[uint64]models.LicenseStatus{
		pending:  models.LicenseStatusPending,
		rejected: models.LicenseStatusRejected,
		revoked:  models.LicenseStatusRevoked,
	}
	regs := map[uint64]string{pending: "REG-000001", rejected: "REG-000002", revoked: "REG-000003"}
	for id, status := range want {
		res, err := s.verifier.Verify(s.ctx, strconv.FormatUint(id, 10), regs[id])
		s.Require().NoError(err)
		s.False(res.IsActive)
		s.False(res.IsExpired)
		s.Equal(status, res.Status)
	}
}
