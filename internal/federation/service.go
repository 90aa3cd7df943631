// Package federation bridges the primary identity provider and the embedded
// workflow engine: verify the primary token, sync the local user record,
// mint an engine-scoped session token.
package federation

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"bronn/internal/engine"
	"bronn/internal/identity"
	"bronn/internal/platform/metrics"
	mw "bronn/internal/platform/middleware"
	"bronn/internal/user"
	"bronn/pkg/email"
	pkgerrors "bronn/pkg/errors"
	audit "bronn/pkg/platform/audit"
)

// EngineClient is the slice of the engine integration this service needs.
type EngineClient interface {
	Configured() bool
	InstanceURL() string
	MintSessionToken(ctx context.Context, userID, projectID, firstName, lastName string) (string, error)
}

// Result of a federation call. User is always populated on success.
// EngineToken and InstanceURL are empty when the engine step failed or the
// engine is not configured; callers treat that as "proceed without the
// embedded engine" unless the engine is mandatory for their view.
type Result struct {
	User    user.User
	Created bool

	EngineToken string
	InstanceURL string

	// EngineErr is non-nil when the engine step failed. The user record
	// stands regardless; this error is retryable and distinct from a
	// credential failure.
	EngineErr error
}

type Service struct {
	verifier identity.TokenVerifier
	users    user.Store
	engine   EngineClient
	rewriter engine.URLRewriter

	// projectID maps every user onto the engine project backing their
	// workspace. A single shared project for now; per-workspace mapping
	// rides on the same claim when workspaces grow engine projects.
	projectID string

	group    singleflight.Group
	metrics  *metrics.Metrics
	recorder *audit.Recorder
	logger   *slog.Logger
	tracer   trace.Tracer
}

func NewService(
	verifier identity.TokenVerifier,
	users user.Store,
	engineClient EngineClient,
	rewriter engine.URLRewriter,
	projectID string,
	m *metrics.Metrics,
	recorder *audit.Recorder,
	logger *slog.Logger,
) *Service {
	return &Service{
		verifier:  verifier,
		users:     users,
		engine:    engineClient,
		rewriter:  rewriter,
		projectID: projectID,
		metrics:   m,
		recorder:  recorder,
		logger:    logger,
		tracer:    otel.Tracer("bronn/federation"),
	}
}

// VerifyAndFederate runs the full bridge: verify, upsert, mint, rewrite.
// The upsert is the first durable effect and is never rolled back; an
// engine failure after it degrades the result instead of failing the call.
func (s *Service) VerifyAndFederate(ctx context.Context, rawToken string) (Result, error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "federation.verify_and_federate")
	defer span.End()
	defer func() {
		s.metrics.FederationDuration.Observe(time.Since(start).Seconds())
	}()

	id, err := s.verify(ctx, rawToken)
	if err != nil {
		return Result{}, err
	}

	u, created, err := s.upsert(ctx, id)
	if err != nil {
		s.metrics.FederationAttempts.WithLabelValues("error").Inc()
		return Result{}, err
	}

	result := Result{User: u, Created: created}
	token, err := s.mint(ctx, u)
	if err != nil {
		s.metrics.FederationAttempts.WithLabelValues("engine_unavailable").Inc()
		s.record(ctx, audit.ActionFederationDegraded, u, err.Error())
		result.EngineErr = err
		return result, nil
	}

	result.EngineToken = token
	result.InstanceURL = s.rewriter.Rewrite(s.engine.InstanceURL())
	s.metrics.FederationAttempts.WithLabelValues("ok").Inc()
	s.record(ctx, audit.ActionFederationSuccess, u, "")
	return result, nil
}

// EngineSession mints an engine token for an already-resolved identity.
// Unlike VerifyAndFederate, an engine failure here is a hard error: the
// caller explicitly asked for the embedded engine.
func (s *Service) EngineSession(ctx context.Context, id *identity.PrimaryIdentity) (token, instanceURL string, err error) {
	ctx, span := s.tracer.Start(ctx, "federation.engine_session")
	defer span.End()

	u, err := s.users.FindBySubject(ctx, id.Subject)
	if err != nil {
		return "", "", err
	}

	token, err = s.mint(ctx, u)
	if err != nil {
		return "", "", err
	}
	return token, s.rewriter.Rewrite(s.engine.InstanceURL()), nil
}

// LocalUser returns the record backing a resolved identity.
func (s *Service) LocalUser(ctx context.Context, id *identity.PrimaryIdentity) (user.User, error) {
	return s.users.FindBySubject(ctx, id.Subject)
}

func (s *Service) verify(ctx context.Context, rawToken string) (*identity.PrimaryIdentity, error) {
	ctx, span := s.tracer.Start(ctx, "federation.verify")
	defer span.End()

	id, err := s.verifier.Verify(ctx, rawToken)
	if err != nil {
		s.metrics.FederationAttempts.WithLabelValues("invalid_credential").Inc()
		if s.recorder != nil {
			md := mw.GetMetadata(ctx)
			s.recorder.Record(ctx, audit.Event{
				Action:    audit.ActionFederationFailed,
				Decision:  "deny",
				Reason:    "primary token verification failed",
				RequestID: mw.GetRequestID(ctx),
				ClientIP:  md.IP,
				UserAgent: md.UserAgent,
			})
		}
		return nil, err
	}
	return id, nil
}

func (s *Service) upsert(ctx context.Context, id *identity.PrimaryIdentity) (user.User, bool, error) {
	ctx, span := s.tracer.Start(ctx, "federation.upsert")
	defer span.End()

	first, last := user.SplitDisplayName(id.DisplayName)
	if first == "" {
		// Some provider accounts carry no display name at all; fall back to
		// a name derived from the email local part.
		first, last = email.DeriveNameFromEmail(id.Email)
	}
	u, created, err := s.users.Upsert(ctx, user.UpsertParams{
		SubjectID:   id.Subject,
		Email:       id.Email,
		FirstName:   first,
		LastName:    last,
		DisplayName: id.DisplayName,
		AvatarURL:   id.AvatarURL,
	})
	if err != nil {
		return user.User{}, false, err
	}

	if created {
		s.metrics.UsersCreated.Inc()
		s.record(ctx, audit.ActionUserCreated, u, "first federation")
	} else {
		s.record(ctx, audit.ActionUserSynced, u, "")
	}
	return u, created, nil
}

// mint exchanges a provisioning token for an engine session. Calls for the
// same user are deduplicated so a burst of tabs logging in at once performs
// one exchange.
func (s *Service) mint(ctx context.Context, u user.User) (string, error) {
	ctx, span := s.tracer.Start(ctx, "federation.mint")
	defer span.End()

	if !s.engine.Configured() {
		return "", pkgerrors.New(pkgerrors.CodeFederationUnavailable, "workflow engine not configured")
	}

	// The flight is shared by every caller for this user, so the exchange
	// must not die with the ctx of whichever caller happened to start it.
	// The engine client bounds the call with its own timeout.
	mintCtx := context.WithoutCancel(ctx)
	v, err, _ := s.group.Do(u.ID, func() (any, error) {
		return s.engine.MintSessionToken(mintCtx, u.ID, s.projectID, u.FirstName, u.LastName)
	})
	if err != nil {
		s.logger.WarnContext(ctx, "engine token mint failed",
			"user_id", u.ID, "error", err)
		return "", err
	}
	return v.(string), nil
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
