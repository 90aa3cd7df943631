// Package engine integrates with the embedded workflow engine
// (Activepieces). The engine owns its own storage and auth; this package
// only exchanges provisioning tokens for engine session tokens and keeps the
// returned instance URL routable from the caller's network.
package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	pkgerrors "bronn/pkg/errors"
)

// Client talks to the engine's managed-authn endpoint. All failures map to
// CodeFederationUnavailable: the caller keeps its local session and may
// retry later.
type Client struct {
	baseURL string
	signer  *Signer
	http    *http.Client
	logger  *slog.Logger
}

// NewClient builds a client with a bounded timeout so a slow engine cannot
// stall the caller's login flow.
func NewClient(baseURL string, signer *Signer, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		signer:  signer,
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// Configured reports whether an engine address is set for this deployment.
// An unconfigured engine is degraded mode, not an error.
func (c *Client) Configured() bool {
	return c.baseURL != ""
}

// InstanceURL returns the configured engine address.
func (c *Client) InstanceURL() string {
	return c.baseURL
}

type externalTokenRequest struct {
	ExternalAccessToken string `json:"externalAccessToken"`
}

type externalTokenResponse struct {
	Token string `json:"token"`
}

// MintSessionToken signs a provisioning JWT for the user and exchanges it
// for an engine session token. The engine auto-creates the user on first
// exchange.
func (c *Client) MintSessionToken(ctx context.Context, userID, projectID, firstName, lastName string) (string, error) {
	if !c.Configured() {
		return "", pkgerrors.New(pkgerrors.CodeFederationUnavailable, "workflow engine not configured")
	}

	provisioning, err := c.signer.Sign(userID, projectID, firstName, lastName, DefaultRole)
	if err != nil {
		return "", fmt.Errorf("mint session token: %w", err)
	}

	body, err := json.Marshal(externalTokenRequest{ExternalAccessToken: provisioning})
	if err != nil {
		return "", fmt.Errorf("marshal external token request: %w", err)
	}

	// The engine's nginx routes /api/* to its backend.
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/api/v1/managed-authn/external-token", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build external token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.WarnContext(ctx, "engine token exchange failed", "error", err)
		return "", pkgerrors.New(pkgerrors.CodeFederationUnavailable, "workflow engine unreachable")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 200))
		c.logger.WarnContext(ctx, "engine rejected token exchange",
			"status", resp.StatusCode, "detail", string(detail))
		return "", pkgerrors.New(pkgerrors.CodeFederationUnavailable,
			fmt.Sprintf("managed auth failed: %d", resp.StatusCode))
	}

	var out externalTokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil || out.Token == "" {
		return "", pkgerrors.New(pkgerrors.CodeFederationUnavailable, "engine returned no token")
	}
	return out.Token, nil
}
