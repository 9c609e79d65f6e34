package testutil

import (
	"net/http"

	"formpulse/pkg/requestcontext"
)

// WithRequestID stamps a request ID on the request context, simulating what
// the request-ID middleware would do.
func WithRequestID(req *http.Request, requestID string) *http.Request {
	ctx := requestcontext.WithRequestID(req.Context(), requestID)
	return req.WithContext(ctx)
}

// WithClientMetadata injects a client IP and condensed agent label, simulating
// the client-metadata middleware. Handler tests that exercise rate limiting or
// submission metadata use this instead of running the full middleware chain.
func WithClientMetadata(req *http.Request, clientIP, clientAgent string) *http.Request {
	ctx := requestcontext.WithClientMetadata(req.Context(), clientIP, clientAgent)
	return req.WithContext(ctx)
}
