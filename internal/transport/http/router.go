// Package httptransport assembles the HTTP surface: the public submission
// and statistics routes, the admin routes behind the API key, and the
// operational endpoints.
package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	erasurehandler "formpulse/internal/erasure/handler"
	"formpulse/internal/platform/metrics"
	"formpulse/internal/platform/middleware"
	"formpulse/internal/platform/ratelimit"
	reportinghandler "formpulse/internal/reporting/handler"
	submissionhandler "formpulse/internal/submission/handler"
	"formpulse/pkg/platform/httputil"
)

const (
	requestTimeout = 10 * time.Second
	maxBodyBytes   = 1 << 20 // 1 MiB
)

// Deps carries everything the router mounts. Handlers own their routes; the
// router owns the middleware chain and the public/admin split.
type Deps struct {
	Logger      *slog.Logger
	Metrics     *metrics.Metrics
	Submissions *submissionhandler.Handler
	Erasure     *erasurehandler.Handler
	Reporting   *reportinghandler.Handler

	// AdminAPIKeyHash guards the /api/admin subtree. Empty refuses all
	// admin requests.
	AdminAPIKeyHash string

	// SubmitLimiter throttles the submission endpoints per client IP.
	SubmitLimiter ratelimit.Limiter

	// Health reports backend connectivity for the readiness probe.
	Health func() error
}

// NewRouter builds the full route tree.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.ClientMetadata)
	r.Use(middleware.Logger(deps.Logger))
	r.Use(middleware.Latency(deps.Metrics))

	r.Get("/healthz", handleHealth(deps.Health))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api", func(api chi.Router) {
		api.Use(middleware.Timeout(requestTimeout))
		api.Use(middleware.BodyLimit(maxBodyBytes))
		api.Use(middleware.ContentTypeJSON)

		// Public surface: no authentication by design. Submissions are
		// rate limited; reads are not.
		api.Group(func(public chi.Router) {
			public.Use(middleware.RateLimit(deps.SubmitLimiter, deps.Logger))
			deps.Submissions.Register(public)
		})
		deps.Reporting.RegisterPublic(api)
		deps.Erasure.RegisterPublic(api)

		api.Route("/admin", func(admin chi.Router) {
			admin.Use(middleware.RequireAdmin(deps.AdminAPIKeyHash, deps.Logger))
			deps.Erasure.RegisterAdmin(admin)
			deps.Reporting.RegisterAdmin(admin)
		})
	})

	return r
}

func handleHealth(health func() error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if health != nil {
			if err := health(); err != nil {
				httputil.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
