// Package handler exposes the credential lifecycle over HTTP.
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"vcdemo/internal/credential/disclosure"
	"vcdemo/internal/credential/models"
	"vcdemo/internal/credential/service"
	dErrors "vcdemo/pkg/domain-errors"
	"vcdemo/pkg/platform/httputil"
	"vcdemo/pkg/requestcontext"
)

// Service defines the credential operations used by the handler.
type Service interface {
	Issue(ctx context.Context, req models.IssueRequest) (*models.Credential, error)
	Get(ctx context.Context, credentialID string) (*models.Credential, error)
	List(ctx context.Context) ([]*models.Credential, error)
	Revoke(ctx context.Context, credentialID, reason string) (*models.Credential, error)
	RevocationStatus(ctx context.Context, credentialID string) (*service.StatusResult, error)
	Disclose(ctx context.Context, credentialID string, req disclosure.Request) (*disclosure.Result, error)
}

// Handler wires credential endpoints to the credential service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a credential handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the credential API on the router.
func (h *Handler) Register(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Get("/credentials", h.HandleList)
		r.Get("/credentials/{credentialId}", h.HandleGet)
		r.Post("/credentials", h.HandleIssue)
		r.Post("/verify-disclosure", h.HandleVerifyDisclosure)
		r.Post("/revoke", h.HandleRevoke)
		r.Get("/revocation-status/{credentialId}", h.HandleRevocationStatus)
	})
}

// HandleList handles GET /api/credentials.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	creds, err := h.service.List(ctx)
	if err != nil {
		h.writeError(ctx, w, err, service.MsgFetchCredentialsFailed)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, creds)
}

// HandleGet handles GET /api/credentials/{credentialId}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	cred, err := h.service.Get(ctx, chi.URLParam(r, "credentialId"))
	if err != nil {
		h.writeError(ctx, w, err, service.MsgFetchCredentialFailed)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, cred)
}

// HandleIssue handles POST /api/credentials.
func (h *Handler) HandleIssue(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[IssueCredentialRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	cred, err := h.service.Issue(ctx, req.toModel())
	if err != nil {
		h.writeError(ctx, w, err, service.MsgCreateFailed)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, cred)
}

// HandleVerifyDisclosure handles POST /api/verify-disclosure.
func (h *Handler) HandleVerifyDisclosure(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[DisclosureRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	result, err := h.service.Disclose(ctx, req.CredentialID, req.toModel())
	if err != nil {
		var revoked *service.RevokedError
		if errors.As(err, &revoked) {
			httputil.WriteJSON(w, http.StatusForbidden, RevokedDisclosureResponse{
				Error:            httputil.DomainCodeToHTTPCode(dErrors.CodeForbidden),
				Message:          revoked.Error(),
				RevocationStatus: revoked.Status,
			})
			return
		}
		h.writeError(ctx, w, err, service.MsgDisclosureFailed)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

// HandleRevoke handles POST /api/revoke.
func (h *Handler) HandleRevoke(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[RevokeRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	cred, err := h.service.Revoke(ctx, req.CredentialID, req.Reason)
	if err != nil {
		h.writeError(ctx, w, err, service.MsgRevokeFailed)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, RevokeResponse{
		Message:    MsgRevoked,
		Credential: cred,
	})
}

// HandleRevocationStatus handles GET /api/revocation-status/{credentialId}.
func (h *Handler) HandleRevocationStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	status, err := h.service.RevocationStatus(ctx, chi.URLParam(r, "credentialId"))
	if err != nil {
		h.writeError(ctx, w, err, service.MsgStatusFailed)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, status)
}

// writeError logs and writes err. Errors without a domain code are reported
// with the endpoint's generic message.
func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, err error, fallback string) {
	code := dErrors.CodeOf(err)
	if code == dErrors.CodeInternal {
		h.logger.ErrorContext(ctx, "request failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		var domainErr *dErrors.Error
		if !errors.As(err, &domainErr) {
			err = dErrors.Wrap(err, dErrors.CodeInternal, fallback)
		}
	}
	httputil.WriteError(w, err)
}

var _ Service = (*service.Service)(nil)
