package middleware

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"bronn/internal/identity"
	pkgerrors "bronn/pkg/errors"
)

type contextKeyIdentity struct{}

// GetIdentity retrieves the resolved caller identity from the context.
// Returns nil when the request did not pass through RequireIdentity.
func GetIdentity(ctx context.Context) *identity.PrimaryIdentity {
	id, _ := ctx.Value(contextKeyIdentity{}).(*identity.PrimaryIdentity)
	return id
}

// WithIdentity returns a context carrying a resolved identity. Handler tests
// use it to simulate RequireIdentity.
func WithIdentity(ctx context.Context, id *identity.PrimaryIdentity) context.Context {
	return context.WithValue(ctx, contextKeyIdentity{}, id)
}

// RequireIdentity resolves the caller through the configured strategy and
// rejects requests it cannot attribute. The resolver is pluggable so
// deployments behind a trusted proxy can run the header strategy while
// everything else verifies bearer tokens.
func RequireIdentity(resolver identity.Resolver, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := resolver.Resolve(r)
			if err != nil {
				code := pkgerrors.CodeOf(err)
				logger.WarnContext(r.Context(), "identity resolution failed",
					"error", err,
					"request_id", GetRequestID(r.Context()),
				)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(pkgerrors.ToHTTPStatus(code))
				_ = json.NewEncoder(w).Encode(map[string]string{
					"error":  string(code),
					"detail": "authentication required",
				})
				return
			}

			ctx := context.WithValue(r.Context(), contextKeyIdentity{}, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
