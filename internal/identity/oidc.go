package identity

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"

	pkgerrors "bronn/pkg/errors"
)

// OIDCVerifier validates primary-provider ID tokens against the provider's
// published JWKS. Firebase tokens verify through the standard OIDC discovery
// document at https://securetoken.google.com/<project>.
type OIDCVerifier struct {
	verifier *oidc.IDTokenVerifier
	timeout  time.Duration
	logger   *slog.Logger
}

// NewOIDCVerifier performs provider discovery once at startup. The verifier
// caches and refreshes signing keys internally.
func NewOIDCVerifier(ctx context.Context, issuer, audience string, timeout time.Duration, logger *slog.Logger) (*OIDCVerifier, error) {
	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("oidc discovery for %s: %w", issuer, err)
	}
	return &OIDCVerifier{
		verifier: provider.Verifier(&oidc.Config{ClientID: audience}),
		timeout:  timeout,
		logger:   logger,
	}, nil
}

type providerClaims struct {
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

// Verify checks signature, expiry, issuer and audience. Any failure maps to
// CodeInvalidCredential; the caller must re-authenticate, never be treated
// as anonymous.
func (v *OIDCVerifier) Verify(ctx context.Context, rawToken string) (*PrimaryIdentity, error) {
	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	token, err := v.verifier.Verify(ctx, rawToken)
	if err != nil {
		v.logger.WarnContext(ctx, "primary token verification failed", "error", err)
		return nil, pkgerrors.New(pkgerrors.CodeInvalidCredential, "invalid or expired token")
	}

	var claims providerClaims
	if err := token.Claims(&claims); err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidCredential, "token claims unreadable")
	}
	if claims.Email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidCredential, "token carries no email")
	}

	return &PrimaryIdentity{
		Subject:       token.Subject,
		Email:         claims.Email,
		EmailVerified: claims.EmailVerified,
		DisplayName:   claims.Name,
		AvatarURL:     claims.Picture,
	}, nil
}
