package httptransport

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"formpulse/internal/audit"
	erasurehandler "formpulse/internal/erasure/handler"
	erasureservice "formpulse/internal/erasure/service"
	"formpulse/internal/erasure/token"
	"formpulse/internal/platform/metrics"
	"formpulse/internal/platform/ratelimit"
	"formpulse/internal/platform/secrets"
	reportinghandler "formpulse/internal/reporting/handler"
	reportingservice "formpulse/internal/reporting/service"
	submissionhandler "formpulse/internal/submission/handler"
	"formpulse/internal/submission/identity"
	submissionservice "formpulse/internal/submission/service"
	"formpulse/internal/submission/store"
)

const testAdminKey = "test-admin-key"

type RouterSuite struct {
	suite.Suite
	router  http.Handler
	db      *store.MemoryDB
	healthy bool
}

func TestRouterSuite(t *testing.T) {
	suite.Run(t, new(RouterSuite))
}

func (s *RouterSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	m := metrics.NewForTest()
	s.db = store.NewMemory()
	s.healthy = true

	hasher := identity.NewHasher("test-salt")
	events := audit.NewPublisher(audit.NewInMemoryStore())

	submissions := submissionservice.NewService(s.db, s.db.Stores(), hasher, m, logger,
		submissionservice.WithAuditSink(events))
	erasure := erasureservice.NewService(s.db.Stores().Respondents, events, m, logger)
	reporting := reportingservice.NewService(s.db.Stores(), logger)
	tokens := token.NewService("test-signing-key", "formpulse", time.Hour)

	adminHash, err := secrets.Hash(testAdminKey)
	s.Require().NoError(err)

	s.router = NewRouter(Deps{
		Logger:          logger,
		Metrics:         m,
		Submissions:     submissionhandler.New(submissions, logger),
		Erasure:         erasurehandler.New(erasure, tokens, logger),
		Reporting:       reportinghandler.New(reporting, logger),
		AdminAPIKeyHash: adminHash,
		SubmitLimiter:   ratelimit.NewMemory(2, time.Minute),
		Health: func() error {
			if !s.healthy {
				return errors.New("backend down")
			}
			return nil
		},
	})
}

func (s *RouterSuite) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func submitBody(email string) []byte {
	body, _ := json.Marshal(map[string]any{
		"respondent_name":  "Ada Lovelace",
		"respondent_email": email,
		"role":             "engineer",
		"answers": []map[string]any{
			{"question_id": "q1", "value": 4},
		},
	})
	return body
}

func (s *RouterSuite) TestHealth() {
	rec := s.do(httptest.NewRequest(http.MethodGet, "/healthz", nil))
	s.Equal(http.StatusOK, rec.Code)

	s.healthy = false
	rec = s.do(httptest.NewRequest(http.MethodGet, "/healthz", nil))
	s.Equal(http.StatusServiceUnavailable, rec.Code)
}

func (s *RouterSuite) TestMetricsExposed() {
	rec := s.do(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	s.Equal(http.StatusOK, rec.Code)
}

func (s *RouterSuite) TestSubmitFlow() {
	req := httptest.NewRequest(http.MethodPost, "/api/forms/likert-2026/submit", bytes.NewReader(submitBody("ada@example.com")))
	req.Header.Set("Content-Type", "application/json")
	rec := s.do(req)
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())

	// Same person again, different client IP to dodge the rate limiter.
	req = httptest.NewRequest(http.MethodPost, "/api/forms/likert-2026/submit", bytes.NewReader(submitBody("ada@example.com")))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Forwarded-For", "203.0.113.7")
	rec = s.do(req)
	s.Equal(http.StatusBadRequest, rec.Code)

	var errBody map[string]any
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &errBody))
	s.Equal("duplicate_submission", errBody["error"])
}

func (s *RouterSuite) TestSubmitRateLimited() {
	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/forms/rl-form/check-submission",
			bytes.NewReader([]byte(`{"email": "ada@example.com"}`)))
		req.Header.Set("Content-Type", "application/json")
		s.Require().Equal(http.StatusOK, s.do(req).Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/forms/rl-form/check-submission",
		bytes.NewReader([]byte(`{"email": "ada@example.com"}`)))
	req.Header.Set("Content-Type", "application/json")
	s.Equal(http.StatusTooManyRequests, s.do(req).Code)
}

func (s *RouterSuite) TestContentTypeEnforced() {
	req := httptest.NewRequest(http.MethodPost, "/api/forms/likert-2026/submit", bytes.NewReader(submitBody("ada@example.com")))
	req.Header.Set("Content-Type", "text/plain")
	s.Equal(http.StatusBadRequest, s.do(req).Code)
}

func (s *RouterSuite) TestStatsIsPublic() {
	rec := s.do(httptest.NewRequest(http.MethodGet, "/api/forms/likert-2026/stats", nil))
	s.Equal(http.StatusOK, rec.Code)
}

func (s *RouterSuite) TestAdminGuard() {
	submit := httptest.NewRequest(http.MethodPost, "/api/forms/guard-form/submit", bytes.NewReader(submitBody("ada@example.com")))
	submit.Header.Set("Content-Type", "application/json")
	s.Require().Equal(http.StatusCreated, s.do(submit).Code)

	s.Run("rejects missing key", func() {
		rec := s.do(httptest.NewRequest(http.MethodGet, "/api/admin/forms/guard-form/responses", nil))
		s.Equal(http.StatusUnauthorized, rec.Code)
	})

	s.Run("rejects wrong key", func() {
		req := httptest.NewRequest(http.MethodGet, "/api/admin/forms/guard-form/responses", nil)
		req.Header.Set("Authorization", "Bearer wrong-key")
		s.Equal(http.StatusUnauthorized, s.do(req).Code)
	})

	s.Run("accepts the provisioned key", func() {
		req := httptest.NewRequest(http.MethodGet, "/api/admin/forms/guard-form/responses", nil)
		req.Header.Set("Authorization", "Bearer "+testAdminKey)
		rec := s.do(req)
		s.Require().Equal(http.StatusOK, rec.Code)

		var listing struct {
			Total int `json:"total"`
		}
		s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &listing))
		s.Equal(1, listing.Total)
	})
}

func (s *RouterSuite) TestErasureEndToEnd() {
	submit := httptest.NewRequest(http.MethodPost, "/api/forms/erasure-form/submit", bytes.NewReader(submitBody("gone@example.com")))
	submit.Header.Set("Content-Type", "application/json")
	s.Require().Equal(http.StatusCreated, s.do(submit).Code)

	roster := httptest.NewRequest(http.MethodGet, "/api/admin/forms/erasure-form/respondents", nil)
	roster.Header.Set("Authorization", "Bearer "+testAdminKey)
	rec := s.do(roster)
	s.Require().Equal(http.StatusOK, rec.Code)

	var listing struct {
		Items []struct {
			RespondentID string `json:"respondent_id"`
		} `json:"items"`
	}
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &listing))
	s.Require().Len(listing.Items, 1)

	erase := httptest.NewRequest(http.MethodDelete, "/api/admin/respondents/"+listing.Items[0].RespondentID, nil)
	erase.Header.Set("Authorization", "Bearer "+testAdminKey)
	s.Require().Equal(http.StatusOK, s.do(erase).Code)

	// The response survives with nulled identity; the aggregate count holds.
	stats := s.do(httptest.NewRequest(http.MethodGet, "/api/forms/erasure-form/stats", nil))
	var report struct {
		TotalResponses int `json:"total_responses"`
	}
	s.Require().NoError(json.Unmarshal(stats.Body.Bytes(), &report))
	s.Equal(1, report.TotalResponses)
}
