package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"formpulse/internal/reporting/service"
	"formpulse/internal/submission/models"
	"formpulse/internal/submission/store"
	id "formpulse/pkg/domain"
)

func newReportingRouter(t *testing.T) (chi.Router, *store.MemoryDB) {
	t.Helper()

	db := store.NewMemory()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := service.NewService(db.Stores(), logger)

	h := New(svc, logger)
	r := chi.NewRouter()
	h.RegisterPublic(r)
	r.Route("/admin", h.RegisterAdmin)
	return r, db
}

func seedSubmission(t *testing.T, db *store.MemoryDB, formID id.FormID, email string) *models.Respondent {
	t.Helper()
	ctx := context.Background()
	respondent := &models.Respondent{
		ID:          id.NewRespondentID(),
		Name:        "Ada Lovelace",
		Email:       email,
		Fingerprint: "fp-" + email,
		CreatedAt:   time.Now(),
	}
	if err := db.Stores().Respondents.Create(ctx, respondent); err != nil {
		t.Fatalf("failed to seed respondent: %v", err)
	}
	response := &models.Response{
		ID:           id.NewResponseID(),
		RespondentID: respondent.ID,
		FormID:       formID,
		Role:         "engineer",
		SubmittedAt:  time.Now(),
	}
	if err := db.Stores().Responses.Create(ctx, response); err != nil {
		t.Fatalf("failed to seed response: %v", err)
	}
	if err := db.Stores().Answers.Create(ctx, &models.Answer{
		ID:         id.NewAnswerID(),
		ResponseID: response.ID,
		QuestionID: "q1",
		Value:      models.ScalarValue(4),
		CreatedAt:  time.Now(),
	}); err != nil {
		t.Fatalf("failed to seed answer: %v", err)
	}
	return respondent
}

func TestStatsEndpointIsAnonymous(t *testing.T) {
	router, db := newReportingRouter(t)
	seedSubmission(t, db, "stats-form", "ada@example.com")
	seedSubmission(t, db, "stats-form", "grace@example.com")

	req := httptest.NewRequest(http.MethodGet, "/forms/stats-form/stats", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from stats, got %d", rec.Code)
	}

	body := rec.Body.String()
	for _, pii := range []string{"ada@example.com", "Ada Lovelace"} {
		if strings.Contains(body, pii) {
			t.Fatalf("stats body leaked PII %q", pii)
		}
	}

	var stats struct {
		TotalResponses int            `json:"total_responses"`
		Roles          map[string]int `json:"roles"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &stats); err != nil {
		t.Fatalf("failed to decode stats: %v", err)
	}
	if stats.TotalResponses != 2 {
		t.Fatalf("expected 2 responses, got %d", stats.TotalResponses)
	}
	if stats.Roles["engineer"] != 2 {
		t.Fatalf("expected 2 engineers, got %d", stats.Roles["engineer"])
	}
}

func TestAdminResponsesShowPIIUntilErased(t *testing.T) {
	router, db := newReportingRouter(t)
	respondent := seedSubmission(t, db, "admin-form", "ada@example.com")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/forms/admin-form/responses", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from admin responses, got %d", rec.Code)
	}

	var listing struct {
		Items []struct {
			Name  *string `json:"name"`
			Email *string `json:"email"`
		} `json:"items"`
		Total int `json:"total"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &listing); err != nil {
		t.Fatalf("failed to decode listing: %v", err)
	}
	if listing.Total != 1 || listing.Items[0].Email == nil || *listing.Items[0].Email != "ada@example.com" {
		t.Fatalf("expected PII in admin listing, got %+v", listing)
	}

	if _, err := db.Stores().Respondents.DeleteByID(context.Background(), respondent.ID); err != nil {
		t.Fatalf("failed to erase respondent: %v", err)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/forms/admin-form/responses", nil))
	if err := json.Unmarshal(rec.Body.Bytes(), &listing); err != nil {
		t.Fatalf("failed to decode listing after erasure: %v", err)
	}
	if listing.Total != 1 {
		t.Fatalf("response should survive erasure, got total %d", listing.Total)
	}
	if listing.Items[0].Name != nil || listing.Items[0].Email != nil {
		t.Fatalf("expected null PII after erasure, got %+v", listing.Items[0])
	}
}

func TestAdminRespondentsRoster(t *testing.T) {
	router, db := newReportingRouter(t)
	seedSubmission(t, db, "roster-form", "ada@example.com")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/forms/roster-form/respondents", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from roster, got %d", rec.Code)
	}

	var roster struct {
		Items []struct {
			Email string `json:"email"`
		} `json:"items"`
		Total int `json:"total"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &roster); err != nil {
		t.Fatalf("failed to decode roster: %v", err)
	}
	if roster.Total != 1 || roster.Items[0].Email != "ada@example.com" {
		t.Fatalf("unexpected roster %+v", roster)
	}
}
