package middleware

import (
	"net"
	"net/http"
	"strings"

	"github.com/mssola/useragent"

	"formpulse/pkg/requestcontext"
)

// ClientMetadata extracts the client IP and a condensed browser/platform
// label into the request context. The raw User-Agent header is deliberately
// not propagated; logs and audit records only ever see the short family
// string, never a fingerprintable header value.
func ClientMetadata(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithClientMetadata(r.Context(),
			clientIP(r),
			condenseUserAgent(r.UserAgent()),
		)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func clientIP(r *http.Request) string {
	// First hop of X-Forwarded-For when behind the reverse proxy.
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if idx := strings.IndexByte(fwd, ','); idx > 0 {
			return strings.TrimSpace(fwd[:idx])
		}
		return strings.TrimSpace(fwd)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func condenseUserAgent(raw string) string {
	if raw == "" {
		return "unknown"
	}
	ua := useragent.New(raw)
	if ua.Bot() {
		return "bot"
	}
	name, _ := ua.Browser()
	if name == "" {
		return "unknown"
	}
	os := ua.OSInfo().Name
	if os == "" {
		return strings.ToLower(name)
	}
	return strings.ToLower(name + "/" + os)
}
