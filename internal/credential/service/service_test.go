package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"vcdemo/internal/credential/disclosure"
	"vcdemo/internal/credential/models"
	"vcdemo/internal/credential/store"
	"vcdemo/internal/events"
	"vcdemo/internal/events/mocks"
	"vcdemo/internal/platform/metrics"
	"vcdemo/internal/sentinel"
	dErrors "vcdemo/pkg/domain-errors"
	"vcdemo/pkg/requestcontext"
)

// brokenStore fails every call with a storage error.
type brokenStore struct{}

var errDisk = errors.New("disk unavailable")

func (brokenStore) Create(context.Context, models.IssueRequest) (*models.Credential, error) {
	return nil, errDisk
}
func (brokenStore) FindByID(context.Context, int64) (*models.Credential, error) { return nil, errDisk }
func (brokenStore) FindByCredentialID(context.Context, string) (*models.Credential, error) {
	return nil, errDisk
}
func (brokenStore) List(context.Context) ([]*models.Credential, error) { return nil, errDisk }
func (brokenStore) Revoke(context.Context, string, string, string) (*models.Credential, error) {
	return nil, errDisk
}
func (brokenStore) Health(context.Context) error { return errDisk }

type ServiceSuite struct {
	suite.Suite
	store     *store.InMemoryStore
	publisher *mocks.MockPublisher
	published []events.Event
	metrics   *metrics.Metrics
	service   *Service
	ctx       context.Context
	now       time.Time
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.store = store.NewInMemoryStore()
	s.published = nil
	s.publisher = mocks.NewMockPublisher(gomock.NewController(s.T()))
	s.publisher.EXPECT().Publish(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, e events.Event) error {
			s.published = append(s.published, e)
			return nil
		}).AnyTimes()
	s.metrics = metrics.New(prometheus.NewRegistry())
	s.service = New(s.store, WithPublisher(s.publisher), WithMetrics(s.metrics))
	s.now = time.Date(2024, 6, 15, 9, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithRequestID(requestcontext.WithTime(context.Background(), s.now), "req-123")
}

func janeDoe() models.IssueRequest {
	return models.IssueRequest{
		FullName:    "Jane Doe",
		DOB:         "2000-01-01",
		Nationality: "UK",
		IDNumber:    "X1",
		KYCStatus:   models.KYCVerified,
		NetWorth:    600000,
		Languages:   []string{"English"},
	}
}

func (s *ServiceSuite) TestIssueFillsGeneratedFields() {
	cred, err := s.service.Issue(s.ctx, janeDoe())
	s.Require().NoError(err)

	s.Regexp(models.CredentialIDPattern, cred.CredentialID)
	s.Contains(cred.CredentialID, "VC-2024-")
	s.Equal("2024-06-15", cred.IssueDate)
	s.False(cred.Revoked)
	s.Nil(cred.RevocationDate)
	s.Nil(cred.RevocationReason)
	s.Equal(1.0, testutil.ToFloat64(s.metrics.CredentialsIssued))
	s.Require().Len(s.published, 1)
	s.Equal(events.CredentialIssued, s.published[0].Type)
	s.Equal(cred.CredentialID, s.published[0].CredentialID)
	s.Equal("req-123", s.published[0].RequestID)
}

func (s *ServiceSuite) TestIssueKeepsCallerValues() {
	req := janeDoe()
	req.CredentialID = "VC-2024-5"
	req.IssueDate = "2024-01-01"

	cred, err := s.service.Issue(s.ctx, req)
	s.Require().NoError(err)
	s.Equal("VC-2024-5", cred.CredentialID)
	s.Equal("2024-01-01", cred.IssueDate)
}

func (s *ServiceSuite) TestIssueRejectsInvalidInput() {
	cases := map[string]func(*models.IssueRequest){
		"future issue date":  func(r *models.IssueRequest) { r.IssueDate = "2024-06-16" },
		"negative net worth": func(r *models.IssueRequest) { r.NetWorth = -1 },
		"unknown kyc status": func(r *models.IssueRequest) { r.KYCStatus = "Verified" },
	}
	for name, mutate := range cases {
		s.Run(name, func() {
			req := janeDoe()
			mutate(&req)
			_, err := s.service.Issue(s.ctx, req)
			s.True(dErrors.HasCode(err, dErrors.CodeValidation), "got %v", err)
		})
	}
}

func (s *ServiceSuite) TestIssueUsesIDGenerator() {
	svc := New(s.store, WithIDGenerator(func(time.Time) string { return "VC-2024-7" }))
	cred, err := svc.Issue(s.ctx, janeDoe())
	s.Require().NoError(err)
	s.Equal("VC-2024-7", cred.CredentialID)
}

func (s *ServiceSuite) TestGetRoundTrip() {
	req := janeDoe()
	req.Languages = []string{"English", "Welsh", "French"}
	issued, err := s.service.Issue(s.ctx, req)
	s.Require().NoError(err)

	got, err := s.service.Get(s.ctx, issued.CredentialID)
	s.Require().NoError(err)
	s.Equal(issued, got)
}

func (s *ServiceSuite) TestGetNotFound() {
	_, err := s.service.Get(s.ctx, "VC-2024-404")
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	s.EqualError(err, MsgCredentialNotFound)
}

func (s *ServiceSuite) TestList() {
	for range 3 {
		_, err := s.service.Issue(s.ctx, janeDoe())
		s.Require().NoError(err)
	}
	creds, err := s.service.List(s.ctx)
	s.Require().NoError(err)
	s.Len(creds, 3)
}

func (s *ServiceSuite) TestRevoke() {
	issued, err := s.service.Issue(s.ctx, janeDoe())
	s.Require().NoError(err)

	s.Run("requires id and reason", func() {
		_, err := s.service.Revoke(s.ctx, "", "Lost")
		s.EqualError(err, MsgCredentialIDRequired)
		_, err = s.service.Revoke(s.ctx, issued.CredentialID, "")
		s.EqualError(err, MsgReasonRequired)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("unknown credential", func() {
		_, err := s.service.Revoke(s.ctx, "VC-2024-404", "Lost")
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("revokes with today's date", func() {
		cred, err := s.service.Revoke(s.ctx, issued.CredentialID, "Lost document")
		s.Require().NoError(err)
		s.True(cred.Revoked)
		s.Equal("2024-06-15", *cred.RevocationDate)
		s.Equal("Lost document", *cred.RevocationReason)
		s.NoError(cred.Validate())
	})

	s.Run("second revocation overwrites", func() {
		later := requestcontext.WithTime(s.ctx, s.now.AddDate(0, 0, 3))
		cred, err := s.service.Revoke(later, issued.CredentialID, "Fraud")
		s.Require().NoError(err)
		s.Equal("2024-06-18", *cred.RevocationDate)
		s.Equal("Fraud", *cred.RevocationReason)
	})

	s.Equal(2.0, testutil.ToFloat64(s.metrics.CredentialsRevoked))
}

func (s *ServiceSuite) TestRevocationStatus() {
	issued, err := s.service.Issue(s.ctx, janeDoe())
	s.Require().NoError(err)

	s.Run("unknown credential is not revoked", func() {
		res, err := s.service.RevocationStatus(s.ctx, "VC-2024-404")
		s.Require().NoError(err)
		s.False(res.IsRevoked)
		s.Nil(res.Credential)
	})

	s.Run("active credential omits credential", func() {
		res, err := s.service.RevocationStatus(s.ctx, issued.CredentialID)
		s.Require().NoError(err)
		s.False(res.IsRevoked)
		s.Nil(res.Credential)
	})

	s.Run("revoked credential includes credential", func() {
		_, err := s.service.Revoke(s.ctx, issued.CredentialID, "Expired")
		s.Require().NoError(err)

		res, err := s.service.RevocationStatus(s.ctx, issued.CredentialID)
		s.Require().NoError(err)
		s.True(res.IsRevoked)
		s.Equal("Expired", *res.RevocationReason)
		s.Require().NotNil(res.Credential)
		s.Equal(issued.CredentialID, res.Credential.CredentialID)
	})
}

func (s *ServiceSuite) TestDisclose() {
	issued, err := s.service.Issue(s.ctx, janeDoe())
	s.Require().NoError(err)

	res, err := s.service.Disclose(s.ctx, issued.CredentialID, disclosure.Request{
		DisclosedFields: []string{"fullName", "nationality"},
		Proofs:          []disclosure.ProofTag{disclosure.ProofAdult, disclosure.ProofWealth, disclosure.ProofKYC},
	})
	s.Require().NoError(err)

	subject := res.VerifiableCredential.CredentialSubject
	s.Len(subject, 5)
	for _, key := range []string{"id", "credentialId", "issueDate", "fullName", "nationality"} {
		s.Contains(subject, key)
	}
	s.Require().Len(res.ZeroKnowledgeProofs, 3)
	for _, p := range res.ZeroKnowledgeProofs {
		s.True(p.Verified())
	}
	s.Equal("2024-06-15T09:00:00.000Z", res.VerifiableCredential.Proof.Created)
	s.Equal(1.0, testutil.ToFloat64(s.metrics.Disclosures.WithLabelValues(metrics.OutcomeDisclosed)))
	s.Equal(1.0, testutil.ToFloat64(s.metrics.ProofsGenerated.WithLabelValues(disclosure.TypeKYCVerification, "verified")))
}

func (s *ServiceSuite) TestDiscloseErrors() {
	s.Run("missing credential id", func() {
		_, err := s.service.Disclose(s.ctx, "", disclosure.Request{})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("unknown credential", func() {
		_, err := s.service.Disclose(s.ctx, "VC-2024-404", disclosure.Request{})
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("revoked credential", func() {
		issued, err := s.service.Issue(s.ctx, janeDoe())
		s.Require().NoError(err)
		_, err = s.service.Revoke(s.ctx, issued.CredentialID, "Compromised")
		s.Require().NoError(err)

		res, err := s.service.Disclose(s.ctx, issued.CredentialID, disclosure.Request{
			DisclosedFields: []string{"fullName"},
			Proofs:          []disclosure.ProofTag{disclosure.ProofKYC},
		})
		s.Nil(res)
		var revoked *RevokedError
		s.Require().ErrorAs(err, &revoked)
		s.True(revoked.Status.IsRevoked)
		s.Equal("Compromised", *revoked.Status.RevocationReason)
		s.ErrorIs(err, disclosure.ErrCredentialRevoked)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
		s.Equal(1.0, testutil.ToFloat64(s.metrics.Disclosures.WithLabelValues(metrics.OutcomeRevoked)))
	})
}

func (s *ServiceSuite) TestPublishFailureIsNotReturned() {
	publisher := mocks.NewMockPublisher(gomock.NewController(s.T()))
	publisher.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(errors.New("broker down")).Times(1)
	svc := New(store.NewInMemoryStore(), WithPublisher(publisher))

	cred, err := svc.Issue(s.ctx, janeDoe())
	s.Require().NoError(err)
	s.NotNil(cred)
}

func (s *ServiceSuite) TestStorageFailuresBecomeGenericInternalErrors() {
	svc := New(brokenStore{})

	_, err := svc.Issue(s.ctx, janeDoe())
	s.assertInternal(err, MsgCreateFailed)

	_, err = svc.List(s.ctx)
	s.assertInternal(err, MsgFetchCredentialsFailed)

	_, err = svc.Get(s.ctx, "VC-2024-1")
	s.assertInternal(err, MsgFetchCredentialFailed)

	_, err = svc.Revoke(s.ctx, "VC-2024-1", "Lost")
	s.assertInternal(err, MsgRevokeFailed)

	_, err = svc.RevocationStatus(s.ctx, "VC-2024-1")
	s.assertInternal(err, MsgStatusFailed)

	_, err = svc.Disclose(s.ctx, "VC-2024-1", disclosure.Request{})
	s.assertInternal(err, MsgDisclosureFailed)
}

func (s *ServiceSuite) assertInternal(err error, msg string) {
	s.T().Helper()
	s.True(dErrors.HasCode(err, dErrors.CodeInternal), "got %v", err)
	s.EqualError(err, msg)
	s.ErrorIs(err, errDisk)
	s.NotErrorIs(err, sentinel.ErrNotFound)
}
