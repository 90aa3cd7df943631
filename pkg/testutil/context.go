package testutil

import (
	"context"
	"net/http"

	"bronn/internal/identity"
	"bronn/internal/platform/middleware"
)

// WithIdentity attaches a resolved primary identity to the request context.
// This simulates what the auth middleware does for authenticated requests.
func WithIdentity(req *http.Request, id *identity.PrimaryIdentity) *http.Request {
	return req.WithContext(middleware.WithIdentity(req.Context(), id))
}

// WithContextValue adds an arbitrary key-value pair to the request context.
func WithContextValue(req *http.Request, key, value any) *http.Request {
	ctx := context.WithValue(req.Context(), key, value)
	return req.WithContext(ctx)
}
