package httptransport

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"bronn/internal/auth"
	"bronn/internal/platform/middleware"
	pkgerrors "bronn/pkg/errors"
)

// NativeAuthService is the email/password flow guarded by the auth gate.
type NativeAuthService interface {
	SignUp(ctx context.Context, creds auth.Credentials) (auth.Session, error)
	SignIn(ctx context.Context, email, password string) (auth.Session, error)
}

// NativeHandler serves the engine-compatible native authentication endpoints.
// It is mounted behind the gate; in managed mode it receives no traffic.
type NativeHandler struct {
	auth   NativeAuthService
	logger *slog.Logger
}

func NewNativeHandler(svc NativeAuthService, logger *slog.Logger) *NativeHandler {
	return &NativeHandler{auth: svc, logger: logger}
}

// Handler returns the routes the gate mounts under /v1/authentication.
func (h *NativeHandler) Handler() http.Handler {
	r := chi.NewRouter()
	r.Post("/sign-up", h.handleSignUp)
	r.Post("/sign-in", h.handleSignIn)
	return r
}

type signUpRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      userResponse `json:"user"`
}

func (h *NativeHandler) handleSignUp(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req signUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, pkgerrors.New(pkgerrors.CodeMalformed, "invalid request body"))
		return
	}

	session, err := h.auth.SignUp(ctx, auth.Credentials{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "native sign-up",
		"request_id", middleware.GetRequestID(ctx),
		"user_id", session.User.ID,
	)
	writeJSON(w, http.StatusOK, toSessionResponse(session))
}

func (h *NativeHandler) handleSignIn(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req signInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, pkgerrors.New(pkgerrors.CodeMalformed, "invalid request body"))
		return
	}

	session, err := h.auth.SignIn(ctx, req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSessionResponse(session))
}

func toSessionResponse(s auth.Session) sessionResponse {
	return sessionResponse{
		Token:     s.Token,
		ExpiresAt: s.ExpiresAt,
		User:      toUserResponse(s.User),
	}
}
