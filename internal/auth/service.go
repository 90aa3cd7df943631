// Package auth implements native email/password authentication. In managed
// deployments the gate blocks this module entirely; it exists for
// self-hosted setups that run without the managed provider.
package auth

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"bronn/internal/jwtoken"
	"bronn/internal/platform/metrics"
	mw "bronn/internal/platform/middleware"
	"bronn/internal/user"
	pkgerrors "bronn/pkg/errors"
	audit "bronn/pkg/platform/audit"
)

// subjectPrefix marks locally-owned identities in the shared users table,
// keeping them disjoint from primary-provider subjects.
const subjectPrefix = "local:"

type Credentials struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// Session is a native login result.
type Session struct {
	Token     string
	ExpiresAt time.Time
	User      user.User
}

type Service struct {
	users    user.Store
	tokens   *jwtoken.Service
	metrics  *metrics.Metrics
	recorder *audit.Recorder
	logger   *slog.Logger
}

func NewService(users user.Store, tokens *jwtoken.Service, m *metrics.Metrics, recorder *audit.Recorder, logger *slog.Logger) *Service {
	return &Service{users: users, tokens: tokens, metrics: m, recorder: recorder, logger: logger}
}

func (s *Service) SignUp(ctx context.Context, creds Credentials) (Session, error) {
	email := strings.ToLower(strings.TrimSpace(creds.Email))
	if email == "" || !strings.Contains(email, "@") {
		return Session{}, pkgerrors.New(pkgerrors.CodeMalformed, "valid email is required")
	}
	if len(creds.Password) < 8 {
		return Session{}, pkgerrors.New(pkgerrors.CodeMalformed, "password must be at least 8 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(creds.Password), bcrypt.DefaultCost)
	if err != nil {
		return Session{}, err
	}

	created, err := s.users.Create(ctx, user.User{
		SubjectID:    subjectPrefix + email,
		Email:        email,
		FirstName:    creds.FirstName,
		LastName:     creds.LastName,
		DisplayName:  strings.TrimSpace(creds.FirstName + " " + creds.LastName),
		PasswordHash: string(hash),
	})
	if err != nil {
		return Session{}, err
	}

	s.metrics.UsersCreated.Inc()
	s.record(ctx, audit.ActionUserCreated, created, "native sign-up")

	return s.startSession(ctx, created)
}

func (s *Service) SignIn(ctx context.Context, email, password string) (Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	u, err := s.users.FindByEmail(ctx, email)
	if err != nil || u.PasswordHash == "" {
		// Run the comparison against a dummy hash so missing accounts cost
		// the same as wrong passwords.
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return Session{}, s.failLogin(ctx, email)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return Session{}, s.failLogin(ctx, email)
	}

	s.metrics.NativeLogins.WithLabelValues("ok").Inc()
	s.record(ctx, audit.ActionNativeLogin, u, "")

	return s.startSession(ctx, u)
}

func (s *Service) startSession(ctx context.Context, u user.User) (Session, error) {
	token, expiresAt, err := s.tokens.Issue(u.ID, u.Email)
	if err != nil {
		s.logger.ErrorContext(ctx, "session token issue failed", "error", err)
		return Session{}, pkgerrors.New(pkgerrors.CodeInternal, "could not start session")
	}
	return Session{Token: token, ExpiresAt: expiresAt, User: u}, nil
}

func (s *Service) failLogin(ctx context.Context, email string) error {
	s.metrics.NativeLogins.WithLabelValues("failed").Inc()
	if s.recorder != nil {
		md := mw.GetMetadata(ctx)
		s.recorder.Record(ctx, audit.Event{
			Action:    audit.ActionAuthFailed,
			Email:     email,
			Decision:  "deny",
			Reason:    "bad credentials",
			RequestID: mw.GetRequestID(ctx),
			ClientIP:  md.IP,
			UserAgent: md.UserAgent,
		})
	}
	return pkgerrors.New(pkgerrors.CodeInvalidCredential, "invalid email or password")
}

func (s *Service) record(ctx context.Context, action audit.Action, u user.User, reason string) {
	if s.recorder == nil {
		return
	}
	md := mw.GetMetadata(ctx)
	s.recorder.Record(ctx, audit.Event{
		Action:    action,
		UserID:    u.ID,
		Email:     u.Email,
		Decision:  "allow",
		Reason:    reason,
		RequestID: mw.GetRequestID(ctx),
		ClientIP:  md.IP,
		UserAgent: md.UserAgent,
	})
}

// dummyHash is a bcrypt hash of a random string, used to equalize timing on
// unknown accounts.
var dummyHash = func() []byte {
	h, _ := bcrypt.GenerateFromPassword([]byte("bronn-timing-pad"), bcrypt.DefaultCost)
	return h
}()
