package services

import (
	"context"

	"github.com/javajoker/licensechain/internal/apperrors"
	"github.com/javajoker/licensechain/internal/models"
)

// seed: 1 Pending (applicant), 2 Approved (other), 3 Revoked (applicant), 4 Rejected (applicant)
func (s *LicenseServiceTestSuite) seed() {
	s.submit("REG-000001")
	_, err := s.licenses.Submit(s.ctx, otherAddr, application("REG-000002"))
	s.Require().NoError(err)
	s.submit("REG-000003")
	s.submit("REG-000004")

	for _, step := range []struct {
		id uint64
		fn func(uint64) error
	}{
		{2, s.act(s.licenses.Approve)},
		{3, s.act(s.licenses.Approve)},
		{3, s.act(s.licenses.Revoke)},
		{4, s.act(s.licenses.Reject)},
	} {
		s.Require().NoError(step.fn(step.id))
	}
}

func (s *LicenseServiceTestSuite) act(fn func(ctx context.Context, caller string, id uint64) (*TransitionResult, error)) func(uint64) error {
	return func(id uint64) error {
		_, err := fn(s.ctx, adminAddr, id)
		return err
	}
}

func ids(records []*models.LicenseRecord) []uint64 {
	out := make([]uint64, 0, len(records))
	for _, r := range records {
		out = append(out, r.ID)
	}
	return out
}

func (s *LicenseServiceTestSuite) TestListByApplicant() {
	s.seed()

	mine, err := s.licenses.ListByApplicant(s.ctx, "0x8617e340b3d01fa5f11f306f4090fd50e238070d")
	s.Require().NoError(err)
	s.Equal([]uint64{4, 3, 1}, ids(mine))
	for _, r := range mine {
		s.NotNil(r.SubmittedAt)
	}

	_, err = s.licenses.ListByApplicant(s.ctx, "")
	s.requireKind(err, apperrors.KindUnauthorized)
}

func (s *LicenseServiceTestSuite) TestListForAdmin() {
	s.seed()

	all, err := s.licenses.ListForAdmin(s.ctx, adminAddr, AdminLicenseFilter{})
	s.Require().NoError(err)
	s.Equal([]uint64{4, 2, 1}, ids(all), "revoked hidden by default")

	withRevoked, err := s.licenses.ListForAdmin(s.ctx, adminAddr, AdminLicenseFilter{IncludeRevoked: true})
	s.Require().NoError(err)
	s.Equal([]uint64{4, 3, 2, 1}, ids(withRevoked))

	revoked := models.LicenseStatusRevoked
	onlyRevoked, err := s.licenses.ListForAdmin(s.ctx, adminAddr, AdminLicenseFilter{Status: &revoked})
	s.Require().NoError(err)
	s.Equal([]uint64{3}, ids(onlyRevoked))

	pending := models.LicenseStatusPending
	onlyPending, err := s.licenses.ListForAdmin(s.ctx, adminAddr, AdminLicenseFilter{Status: &pending})
	s.Require().NoError(err)
	s.Equal([]uint64{1}, ids(onlyPending))

	search, err := s.licenses.ListForAdmin(s.ctx, adminAddr, AdminLicenseFilter{Search: "reg-000002"})
	s.Require().NoError(err)
	s.Equal([]uint64{2}, ids(search))

	byName, err := s.licenses.ListForAdmin(s.ctx, adminAddr, AdminLicenseFilter{Search: "ACME"})
	s.Require().NoError(err)
	s.Len(byName, 3)

	_, err = s.licenses.ListForAdmin(s.ctx, applicantAddr, AdminLicenseFilter{})
	s.requireKind(err, apperrors.KindUnauthorized)
}

func (s *LicenseServiceTestSuite) TestStats() {
	s.seed()

	stats, err := s.licenses.Stats(s.ctx, adminAddr)
	s.Require().NoError(err)
	s.Equal(LicenseStats{Pending: 1, Approved: 1, Rejected: 1, Revoked: 1, Total: 4}, *stats)

	_, err = s.licenses.Stats(s.ctx, otherAddr)
	s.requireKind(err, apperrors.KindUnauthorized)
}

func (s *LicenseServiceTestSuite) TestCertificate() {
	s.seed()

	cert, err := s.licenses.Certificate(s.ctx, otherAddr, 2)
	s.Require().NoError(err)
	s.Equal(uint64(2), cert.License.ID)
	s.Equal("memory://licensechain", cert.ContractAddress)
	s.True(cert.IsActive)

	_, err = s.licenses.Certificate(s.ctx, applicantAddr, 2)
	s.requireKind(err, apperrors.KindNotFound)

	_, err = s.licenses.Certificate(s.ctx, applicantAddr, 1)
	s.ErrorIs(err, &apperrors.Error{Kind: apperrors.KindConflict, Reason: apperrors.ReasonNotCertifiable})
	appErr, _ := apperrors.As(err)
	s.Equal(string(models.LicenseStatusPending), appErr.Status)

	_, err = s.licenses.Certificate(s.ctx, "", 2)
	s.requireKind(err, apperrors.KindUnauthorized)
}

func (s *LicenseServiceTestSuite) TestGetForCaller() {
	s.seed()

	rec, err := s.licenses.GetForCaller(s.ctx, applicantAddr, 1)
	s.Require().NoError(err)
	s.Equal("REG-000001", rec.RegistrationNumber)

	_, err = s.licenses.GetForCaller(s.ctx, adminAddr, 1)
	s.Require().NoError(err)

	_, err = s.licenses.GetForCaller(s.ctx, otherAddr, 1)
	s.requireKind(err, apperrors.KindNotFound)

	_, err = s.licenses.GetForCaller(s.ctx, applicantAddr, 99)
	s.requireKind(err, apperrors.KindNotFound)
}

func (s *LicenseServiceTestSuite) TestPing() {
	s.seed()
	n, err := s.licenses.Ping(s.ctx)
	s.Require().NoError(err)
	s.Equal(uint64(4), n)
}
