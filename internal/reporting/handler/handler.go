// Package handler exposes the reporting endpoints: anonymous statistics on
// the public surface, PII-bearing listings on the admin surface.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"formpulse/internal/reporting/service"
	id "formpulse/pkg/domain"
	"formpulse/pkg/platform/httputil"
)

// Service defines the reporting reads the handler depends on.
type Service interface {
	Stats(ctx context.Context, formID id.FormID) (*service.FormStats, error)
	ResponsesWithPII(ctx context.Context, formID id.FormID) ([]service.ResponseWithPII, error)
	Respondents(ctx context.Context, formID id.FormID) ([]service.RespondentSummary, error)
}

// Handler wires reporting endpoints to the reporting service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterPublic mounts the anonymous statistics endpoint.
func (h *Handler) RegisterPublic(r chi.Router) {
	r.Get("/forms/{form_id}/stats", h.HandleStats)
}

// RegisterAdmin mounts the PII-bearing endpoints. The router is expected to
// guard them with the admin key middleware.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Get("/forms/{form_id}/responses", h.HandleResponses)
	r.Get("/forms/{form_id}/respondents", h.HandleRespondents)
}

// HandleStats handles GET /forms/{form_id}/stats requests.
func (h *Handler) HandleStats(w http.ResponseWriter, r *http.Request) {
	formID, err := id.ParseFormID(chi.URLParam(r, "form_id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	stats, err := h.service.Stats(r.Context(), formID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, stats)
}

// HandleResponses handles GET /admin/forms/{form_id}/responses requests.
func (h *Handler) HandleResponses(w http.ResponseWriter, r *http.Request) {
	formID, err := id.ParseFormID(chi.URLParam(r, "form_id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	rows, err := h.service.ResponsesWithPII(r.Context(), formID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, listResponse[service.ResponseWithPII]{Items: rows, Total: len(rows)})
}

// HandleRespondents handles GET /admin/forms/{form_id}/respondents requests.
func (h *Handler) HandleRespondents(w http.ResponseWriter, r *http.Request) {
	formID, err := id.ParseFormID(chi.URLParam(r, "form_id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	roster, err := h.service.Respondents(r.Context(), formID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, listResponse[service.RespondentSummary]{Items: roster, Total: len(roster)})
}

type listResponse[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
}
