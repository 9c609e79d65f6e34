package middleware

import (
	"log/slog"
	"net/http"

	"formpulse/internal/platform/ratelimit"
	"formpulse/pkg/platform/httputil"
	"formpulse/pkg/requestcontext"
)

// RateLimit refuses requests over the per-IP ceiling with 429. Limiter errors
// fail open: a broken Redis must not take the submission path down with it.
func RateLimit(limiter ratelimit.Limiter, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			ip := requestcontext.ClientIP(ctx)
			if ip == "" {
				next.ServeHTTP(w, r)
				return
			}

			allowed, err := limiter.Allow(ctx, ip)
			if err != nil {
				logger.ErrorContext(ctx, "rate limit check failed",
					"request_id", requestcontext.RequestID(ctx),
					"error", err.Error(),
				)
				next.ServeHTTP(w, r)
				return
			}

			if !allowed {
				httputil.WriteJSON(w, http.StatusTooManyRequests, map[string]string{
					"error": "rate_limited",
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
