// Package handler exposes the erasure endpoints: the admin-facing delete and
// token mint, and the public token-redemption endpoint.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	id "formpulse/pkg/domain"
	"formpulse/pkg/platform/httputil"
	"formpulse/pkg/requestcontext"
)

// Service defines the erasure operation the handler depends on.
type Service interface {
	Erase(ctx context.Context, respondentID id.RespondentID) error
}

// TokenService mints and validates erasure-link tokens.
type TokenService interface {
	Generate(respondentID id.RespondentID) (string, error)
	Validate(tokenString string) (id.RespondentID, error)
}

// Handler wires the erasure endpoints to the erasure service.
type Handler struct {
	service Service
	tokens  TokenService
	logger  *slog.Logger
}

func New(service Service, tokens TokenService, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		tokens:  tokens,
		logger:  logger,
	}
}

// RegisterAdmin mounts the admin-only endpoints. The router is expected to
// guard them with the admin key middleware.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Delete("/respondents/{respondent_id}", h.HandleErase)
	r.Post("/respondents/{respondent_id}/erasure-token", h.HandleMintToken)
}

// RegisterPublic mounts the unauthenticated token-redemption endpoint.
func (h *Handler) RegisterPublic(r chi.Router) {
	r.Post("/privacy/erasure", h.HandleRedeemToken)
}

// HandleErase handles DELETE /admin/respondents/{respondent_id} requests.
func (h *Handler) HandleErase(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	respondentID, err := id.ParseRespondentID(chi.URLParam(r, "respondent_id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.service.Erase(ctx, respondentID); err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, eraseResponse{Status: "erased"})
}

// HandleMintToken handles POST /admin/respondents/{respondent_id}/erasure-token.
func (h *Handler) HandleMintToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	respondentID, err := id.ParseRespondentID(chi.URLParam(r, "respondent_id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	signed, err := h.tokens.Generate(respondentID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to mint erasure token",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "erasure token minted",
		"respondent_id", respondentID.String(),
		"request_id", requestcontext.RequestID(ctx),
	)

	httputil.WriteJSON(w, http.StatusCreated, mintTokenResponse{Token: signed})
}

// HandleRedeemToken handles POST /privacy/erasure requests. The token is the
// only credential; no other authentication applies.
func (h *Handler) HandleRedeemToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[redeemTokenRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	respondentID, err := h.tokens.Validate(req.Token)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.service.Erase(ctx, respondentID); err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, eraseResponse{Status: "erased"})
}
