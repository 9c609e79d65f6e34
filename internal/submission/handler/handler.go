// Package handler exposes the public submission endpoints.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"formpulse/internal/submission/models"
	"formpulse/internal/submission/service"
	id "formpulse/pkg/domain"
	"formpulse/pkg/platform/httputil"
	"formpulse/pkg/requestcontext"
)

// Service defines the submission operations the handler depends on.
type Service interface {
	Submit(ctx context.Context, formID id.FormID, req models.SubmitFormRequest) (*service.SubmitResult, error)
	CheckSubmission(ctx context.Context, formID id.FormID, email string) (bool, error)
}

// Handler wires submission endpoints to the submission service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a submission handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Register mounts the submission endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/forms/{form_id}/submit", h.HandleSubmit)
	r.Post("/forms/{form_id}/check-submission", h.HandleCheckSubmission)
}

// HandleSubmit handles POST /forms/{form_id}/submit requests.
func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	formID, err := id.ParseFormID(chi.URLParam(r, "form_id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	// Body validation happens in the service, where the failure counter lives.
	req, ok := httputil.DecodeAndPrepare[submitBody](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	result, err := h.service.Submit(ctx, formID, models.SubmitFormRequest(req))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "submission stored",
		"request_id", requestID,
		"form_id", string(formID),
		"response_id", result.ResponseID.String(),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	httputil.WriteJSON(w, http.StatusCreated, submitResponse{
		ResponseID: result.ResponseID.String(),
		Status:     "created",
	})
}

// HandleCheckSubmission handles POST /forms/{form_id}/check-submission requests.
func (h *Handler) HandleCheckSubmission(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	formID, err := id.ParseFormID(chi.URLParam(r, "form_id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeAndPrepare[checkSubmissionRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	submitted, err := h.service.CheckSubmission(ctx, formID, req.Email)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, checkSubmissionResponse{HasSubmitted: submitted})
}
