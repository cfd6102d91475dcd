// Package service orchestrates credential issuance, lookup, revocation and
// selective disclosure, and translates store errors into domain errors.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"vcdemo/internal/credential/disclosure"
	"vcdemo/internal/credential/models"
	"vcdemo/internal/credential/revocation"
	"vcdemo/internal/credential/store"
	"vcdemo/internal/events"
	"vcdemo/internal/platform/metrics"
	"vcdemo/internal/platform/tracer"
	"vcdemo/internal/sentinel"
	dErrors "vcdemo/pkg/domain-errors"
	"vcdemo/pkg/platform/privacy"
	"vcdemo/pkg/requestcontext"
)

// Messages surfaced to API callers.
const (
	MsgCredentialNotFound     = "Credential not found"
	MsgCredentialIDRequired   = "Credential ID is required"
	MsgReasonRequired         = "Revocation reason is required"
	MsgFetchCredentialsFailed = "Failed to fetch credentials"
	MsgFetchCredentialFailed  = "Failed to fetch credential"
	MsgCreateFailed           = "Failed to create credential"
	MsgDisclosureFailed       = "Failed to generate selective disclosure"
	MsgRevokeFailed           = "Failed to revoke credential"
	MsgStatusFailed           = "Failed to check revocation status"
	MsgIssueDateInFuture      = "issueDate must not be in the future"
)

// RevokedError refuses a disclosure and carries the status the caller needs
// to explain the refusal. It matches disclosure.ErrCredentialRevoked.
type RevokedError struct {
	Status models.RevocationStatus
}

func (e *RevokedError) Error() string {
	return disclosure.ErrCredentialRevoked.Error()
}

func (e *RevokedError) Unwrap() error {
	return disclosure.ErrCredentialRevoked
}

// StatusResult is the revocation status plus the credential when revoked.
type StatusResult struct {
	models.RevocationStatus
	Credential *models.Credential `json:"credential,omitempty"`
}

// Option configures the Service.
type Option func(*Service)

// Service implements the credential lifecycle.
type Service struct {
	store     store.Store
	tracker   *revocation.Tracker
	engine    *disclosure.Engine
	publisher events.Publisher
	metrics   *metrics.Metrics
	tracer    tracer.Tracer
	logger    *slog.Logger
	newID     func(time.Time) string
}

// New creates a Service over store. Defaults: no events, no metrics, no-op
// tracing, discarded logs.
func New(st store.Store, opts ...Option) *Service {
	svc := &Service{
		store:   st,
		tracker: revocation.NewTracker(st),
		engine:  disclosure.NewEngine(),
		tracer:  tracer.NewNoop(),
		logger:  slog.New(slog.DiscardHandler),
		newID:   models.NewCredentialID,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// WithPublisher configures lifecycle event publishing.
func WithPublisher(p events.Publisher) Option {
	return func(s *Service) {
		s.publisher = p
	}
}

// WithMetrics configures Prometheus metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithTracer configures span creation.
func WithTracer(t tracer.Tracer) Option {
	return func(s *Service) {
		s.tracer = t
	}
}

// WithLogger configures a logger for the service.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithIDGenerator replaces the credential id generator.
func WithIDGenerator(gen func(time.Time) string) Option {
	return func(s *Service) {
		s.newID = gen
	}
}

// Issue stores a new credential. A missing credentialId is generated and a
// missing issueDate defaults to today (UTC).
func (s *Service) Issue(ctx context.Context, req models.IssueRequest) (cred *models.Credential, err error) {
	ctx, span := s.tracer.Start(ctx, tracer.SpanIssue)
	defer func() { span.End(err) }()

	now := requestcontext.Now(ctx)
	today := models.FormatDate(now)

	if req.CredentialID == "" {
		req.CredentialID = s.newID(now)
	}
	if req.IssueDate == "" {
		req.IssueDate = today
	} else if req.IssueDate > today {
		return nil, dErrors.New(dErrors.CodeValidation, MsgIssueDateInFuture)
	}
	if req.NetWorth < 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "netWorth must not be negative")
	}
	switch req.KYCStatus {
	case models.KYCVerified, models.KYCPending, models.KYCRejected:
	default:
		return nil, dErrors.New(dErrors.CodeValidation, "kycStatus must be one of verified, pending, rejected")
	}
	span.SetAttributes(tracer.String(tracer.AttrCredentialID, req.CredentialID))

	start := time.Now()
	cred, err = s.store.Create(ctx, req)
	s.observe("create", start)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to create credential", "error", err)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, MsgCreateFailed)
	}

	if s.metrics != nil {
		s.metrics.IncrementCredentialsIssued()
	}
	s.logger.InfoContext(ctx, "credential issued",
		"credential_id", cred.CredentialID,
		"id_number", privacy.MaskIdentifier(cred.IDNumber),
		"kyc_status", string(cred.KYCStatus),
	)
	s.publish(ctx, span, events.CredentialIssued, cred.CredentialID, now, map[string]string{
		"kyc_status": string(cred.KYCStatus),
	})
	return cred, nil
}

// Get returns the first credential with credentialID.
func (s *Service) Get(ctx context.Context, credentialID string) (cred *models.Credential, err error) {
	ctx, span := s.tracer.Start(ctx, tracer.SpanGet, tracer.String(tracer.AttrCredentialID, credentialID))
	defer func() { span.End(err) }()

	if credentialID == "" {
		return nil, dErrors.New(dErrors.CodeValidation, MsgCredentialIDRequired)
	}
	return s.find(ctx, credentialID, MsgFetchCredentialFailed)
}

// List returns every credential in insertion order.
func (s *Service) List(ctx context.Context) (creds []*models.Credential, err error) {
	ctx, span := s.tracer.Start(ctx, tracer.SpanList)
	defer func() { span.End(err) }()

	start := time.Now()
	creds, err = s.store.List(ctx)
	s.observe("list", start)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to list credentials", "error", err)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, MsgFetchCredentialsFailed)
	}
	span.SetAttributes(tracer.Int(tracer.AttrCount, len(creds)))
	return creds, nil
}

// Revoke marks the credential revoked as of today (UTC). Revoking an already
// revoked credential overwrites its date and reason.
func (s *Service) Revoke(ctx context.Context, credentialID, reason string) (cred *models.Credential, err error) {
	ctx, span := s.tracer.Start(ctx, tracer.SpanRevoke, tracer.String(tracer.AttrCredentialID, credentialID))
	defer func() { span.End(err) }()

	if credentialID == "" {
		return nil, dErrors.New(dErrors.CodeValidation, MsgCredentialIDRequired)
	}
	if reason == "" {
		return nil, dErrors.New(dErrors.CodeValidation, MsgReasonRequired)
	}

	now := requestcontext.Now(ctx)
	start := time.Now()
	cred, err = s.store.Revoke(ctx, credentialID, reason, models.FormatDate(now))
	s.observe("revoke", start)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, MsgCredentialNotFound)
		}
		s.logger.ErrorContext(ctx, "failed to revoke credential", "error", err, "credential_id", credentialID)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, MsgRevokeFailed)
	}

	if s.metrics != nil {
		s.metrics.IncrementCredentialsRevoked()
	}
	s.logger.InfoContext(ctx, "credential revoked", "credential_id", credentialID)
	s.publish(ctx, span, events.CredentialRevoked, credentialID, now, map[string]string{
		"revocation_date": *cred.RevocationDate,
	})
	return cred, nil
}

// RevocationStatus reports whether credentialID is revoked. Unknown ids are
// reported as not revoked. The credential is attached only when revoked.
func (s *Service) RevocationStatus(ctx context.Context, credentialID string) (res *StatusResult, err error) {
	ctx, span := s.tracer.Start(ctx, tracer.SpanRevocationStatus, tracer.String(tracer.AttrCredentialID, credentialID))
	defer func() { span.End(err) }()

	if credentialID == "" {
		return nil, dErrors.New(dErrors.CodeValidation, MsgCredentialIDRequired)
	}

	status, err := s.tracker.CheckStatus(ctx, credentialID)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to check revocation status", "error", err, "credential_id", credentialID)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, MsgStatusFailed)
	}
	span.SetAttributes(tracer.Bool(tracer.AttrRevoked, status.IsRevoked))

	res = &StatusResult{RevocationStatus: status}
	if status.IsRevoked {
		res.Credential, err = s.find(ctx, credentialID, MsgStatusFailed)
		if err != nil {
			return nil, err
		}
	}
	return res, nil
}

// Disclose builds a selective disclosure for credentialID. Revoked
// credentials are refused with a *RevokedError.
func (s *Service) Disclose(ctx context.Context, credentialID string, req disclosure.Request) (res *disclosure.Result, err error) {
	ctx, span := s.tracer.Start(ctx, tracer.SpanDisclose,
		tracer.String(tracer.AttrCredentialID, credentialID),
		tracer.Int(tracer.AttrDisclosedFields, len(req.DisclosedFields)),
	)
	defer func() { span.End(err) }()

	if credentialID == "" {
		return nil, dErrors.New(dErrors.CodeValidation, MsgCredentialIDRequired)
	}

	cred, err := s.find(ctx, credentialID, MsgDisclosureFailed)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			s.countDisclosure(metrics.OutcomeNotFound)
		}
		return nil, err
	}

	status, err := s.tracker.CheckStatus(ctx, credentialID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, MsgDisclosureFailed)
	}
	if status.IsRevoked {
		s.countDisclosure(metrics.OutcomeRevoked)
		return nil, &RevokedError{Status: status}
	}

	now := requestcontext.Now(ctx)
	res, err = s.engine.Disclose(*cred, req, now)
	if err != nil {
		if errors.Is(err, disclosure.ErrCredentialRevoked) {
			s.countDisclosure(metrics.OutcomeRevoked)
			return nil, &RevokedError{Status: cred.Status()}
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, MsgDisclosureFailed)
	}

	s.countDisclosure(metrics.OutcomeDisclosed)
	proofTypes := make([]string, 0, len(res.ZeroKnowledgeProofs))
	for _, p := range res.ZeroKnowledgeProofs {
		proofTypes = append(proofTypes, p.Type)
		if s.metrics != nil {
			s.metrics.IncrementProofsGenerated(p.Type, p.Verified())
		}
	}
	span.SetAttributes(tracer.Attribute{Key: tracer.AttrProofs, Value: proofTypes})
	s.publish(ctx, span, events.CredentialDisclosed, credentialID, now, map[string]string{
		"disclosed_fields": strconv.Itoa(len(req.DisclosedFields)),
		"proofs":           strconv.Itoa(len(proofTypes)),
	})
	return res, nil
}

// find resolves credentialID, mapping not-found to 404 and anything else to
// a 500 with failMsg.
func (s *Service) find(ctx context.Context, credentialID, failMsg string) (*models.Credential, error) {
	start := time.Now()
	cred, err := s.store.FindByCredentialID(ctx, credentialID)
	s.observe("find", start)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, MsgCredentialNotFound)
		}
		s.logger.ErrorContext(ctx, "failed to load credential", "error", err, "credential_id", credentialID)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, failMsg)
	}
	return cred, nil
}

func (s *Service) observe(op string, start time.Time) {
	if s.metrics != nil {
		s.metrics.ObserveStoreLatency(op, time.Since(start).Seconds())
	}
}

func (s *Service) countDisclosure(outcome string) {
	if s.metrics != nil {
		s.metrics.IncrementDisclosures(outcome)
	}
}

// publish emits a lifecycle event. Failures are logged and never returned.
func (s *Service) publish(ctx context.Context, span tracer.Span, typ events.Type, credentialID string, at time.Time, attrs map[string]string) {
	if s.publisher == nil {
		return
	}
	err := s.publisher.Publish(ctx, events.Event{
		Type:         typ,
		CredentialID: credentialID,
		OccurredAt:   at.UTC(),
		RequestID:    requestcontext.RequestID(ctx),
		Attributes:   attrs,
	})
	if err != nil {
		s.logger.WarnContext(ctx, "failed to publish lifecycle event",
			"error", err,
			"event_type", string(typ),
			"credential_id", credentialID,
		)
		return
	}
	span.AddEvent(tracer.EventPublished, tracer.String("event.type", string(typ)))
}
