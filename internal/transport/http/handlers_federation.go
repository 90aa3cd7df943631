package httptransport

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"bronn/internal/federation"
	"bronn/internal/identity"
	"bronn/internal/platform/middleware"
	"bronn/internal/user"
	pkgerrors "bronn/pkg/errors"
)

// FederationService is the slice of the federation bridge the HTTP layer
// consumes.
type FederationService interface {
	VerifyAndFederate(ctx context.Context, rawToken string) (federation.Result, error)
	EngineSession(ctx context.Context, id *identity.PrimaryIdentity) (token, instanceURL string, err error)
	LocalUser(ctx context.Context, id *identity.PrimaryIdentity) (user.User, error)
}

// FederationHandler serves the bridge endpoints the studio frontend calls.
type FederationHandler struct {
	federation FederationService
	resolver   identity.Resolver
	logger     *slog.Logger
}

func NewFederationHandler(svc FederationService, resolver identity.Resolver, logger *slog.Logger) *FederationHandler {
	return &FederationHandler{federation: svc, resolver: resolver, logger: logger}
}

func (h *FederationHandler) Register(r chi.Router) {
	r.Post("/api/auth/verify-token", h.handleVerifyToken)
	r.Group(func(g chi.Router) {
		g.Use(middleware.RequireIdentity(h.resolver, h.logger))
		g.Get("/api/auth/activepieces-token", h.handleEngineToken)
		g.Get("/api/auth/me", h.handleMe)
	})
}

type userResponse struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url"`
}

type verifyTokenResponse struct {
	User              userResponse `json:"user"`
	Valid             bool         `json:"valid"`
	ActivepiecesToken *string      `json:"activepieces_token"`
	InstanceURL       *string      `json:"instance_url"`
}

// handleVerifyToken runs the full federation flow for a primary provider
// token. An engine outage degrades the response to null token fields instead
// of failing login.
func (h *FederationHandler) handleVerifyToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	raw, err := identity.BearerToken(r)
	if err != nil {
		writeError(w, err)
		return
	}

	result, err := h.federation.VerifyAndFederate(ctx, raw)
	if err != nil {
		h.logger.WarnContext(ctx, "federation failed",
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
		writeError(w, err)
		return
	}

	resp := verifyTokenResponse{User: toUserResponse(result.User), Valid: true}
	if result.EngineErr == nil && result.EngineToken != "" {
		resp.ActivepiecesToken = &result.EngineToken
		resp.InstanceURL = &result.InstanceURL
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleEngineToken mints a fresh engine session for an authenticated user.
// Unlike verify-token this endpoint fails hard when the engine is down: the
// caller asked specifically for the embedded engine.
func (h *FederationHandler) handleEngineToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id := middleware.GetIdentity(ctx)
	if id == nil {
		writeError(w, pkgerrors.New(pkgerrors.CodeInternal, "authentication context error"))
		return
	}

	token, instanceURL, err := h.federation.EngineSession(ctx, id)
	if err != nil {
		if pkgerrors.CodeOf(err) == pkgerrors.CodeFederationUnavailable {
			h.logger.WarnContext(ctx, "engine session unavailable",
				"request_id", middleware.GetRequestID(ctx),
				"error", err.Error(),
			)
		}
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"token":        token,
		"instance_url": instanceURL,
	})
}

func (h *FederationHandler) handleMe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id := middleware.GetIdentity(ctx)
	if id == nil {
		writeError(w, pkgerrors.New(pkgerrors.CodeInternal, "authentication context error"))
		return
	}

	u, err := h.federation.LocalUser(ctx, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserResponse(u))
}

func toUserResponse(u user.User) userResponse {
	return userResponse{
		ID:          u.ID,
		Email:       u.Email,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		DisplayName: u.DisplayName,
		AvatarURL:   u.AvatarURL,
	}
}
