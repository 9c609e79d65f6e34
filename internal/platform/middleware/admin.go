package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"formpulse/internal/platform/secrets"
	dErrors "formpulse/pkg/domain-errors"
	"formpulse/pkg/platform/httputil"
	"formpulse/pkg/requestcontext"
)

// RequireAdmin guards admin routes with a bearer API key verified against a
// bcrypt hash. An empty hash means no admin key was provisioned, in which
// case every request is refused rather than let through.
func RequireAdmin(apiKeyHash string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if apiKeyHash == "" {
				logger.WarnContext(r.Context(), "admin surface disabled, no admin key configured",
					"request_id", requestcontext.RequestID(r.Context()),
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "admin access not configured"))
				return
			}

			key, ok := bearerToken(r)
			if !ok {
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "missing bearer token"))
				return
			}

			if err := secrets.Verify(key, apiKeyHash); err != nil {
				logger.WarnContext(r.Context(), "admin key rejected",
					"request_id", requestcontext.RequestID(r.Context()),
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "invalid admin key"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(prefix):])
	return token, token != ""
}
