// Package identity resolves who is calling. The primary provider owns
// credential verification; this package only checks what it issued.
package identity

import (
	"context"
	"net/http"
	"strings"

	pkgerrors "bronn/pkg/errors"
)

// Trusted-proxy headers. Only honored when the deployment topology
// guarantees an upstream proxy strips client-supplied values of these names;
// otherwise they are a spoofing vector and the resolver must not be enabled.
const (
	HeaderUserID    = "X-Bronn-User-Id"
	HeaderUserEmail = "X-Bronn-User-Email"
)

// PrimaryIdentity is the verified identity from the primary provider. It is
// never mutated here; the provider owns its lifecycle.
type PrimaryIdentity struct {
	Subject       string
	Email         string
	EmailVerified bool
	DisplayName   string
	AvatarURL     string
}

// TokenVerifier validates a bearer token against the primary provider:
// signature, expiry, issuer and audience.
type TokenVerifier interface {
	Verify(ctx context.Context, rawToken string) (*PrimaryIdentity, error)
}

// Resolver extracts the caller's identity from a request. Implementations
// are selected by deployment topology, not hard-coded.
type Resolver interface {
	Resolve(r *http.Request) (*PrimaryIdentity, error)
}

// BearerResolver verifies an Authorization bearer token with the primary
// provider. This is the default strategy.
type BearerResolver struct {
	Verifier TokenVerifier
}

func (br BearerResolver) Resolve(r *http.Request) (*PrimaryIdentity, error) {
	raw, err := BearerToken(r)
	if err != nil {
		return nil, err
	}
	return br.Verifier.Verify(r.Context(), raw)
}

// TrustedHeaderResolver accepts identities asserted by an upstream proxy via
// the X-Bronn-* headers. Both headers must be present; absence means
// unauthenticated for this channel and the request falls through to next.
type TrustedHeaderResolver struct {
	Next Resolver
}

func (tr TrustedHeaderResolver) Resolve(r *http.Request) (*PrimaryIdentity, error) {
	userID := strings.TrimSpace(r.Header.Get(HeaderUserID))
	email := strings.TrimSpace(r.Header.Get(HeaderUserEmail))
	if userID != "" && email != "" {
		return &PrimaryIdentity{Subject: userID, Email: email, EmailVerified: true}, nil
	}
	if tr.Next != nil {
		return tr.Next.Resolve(r)
	}
	return nil, pkgerrors.New(pkgerrors.CodeInvalidCredential, "missing trusted identity headers")
}

// BearerToken extracts the token from an Authorization header.
func BearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", pkgerrors.New(pkgerrors.CodeMalformed, "missing Authorization header")
	}
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || strings.TrimSpace(token) == "" {
		return "", pkgerrors.New(pkgerrors.CodeMalformed, "invalid Authorization header")
	}
	return strings.TrimSpace(token), nil
}
