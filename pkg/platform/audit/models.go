// Package audit captures key authentication decisions for operational and
// security review. Events are emitted from domain logic, buffered in
// process, and fanned out to sinks (PostgreSQL, optionally Kafka) by a
// worker so the request path never blocks on audit persistence.
package audit

import (
	"context"
	"time"
)

type Action string

const (
	ActionUserCreated        Action = "user_created"
	ActionUserSynced         Action = "user_synced"
	ActionFederationSuccess  Action = "federation_succeeded"
	ActionFederationDegraded Action = "federation_degraded"
	ActionFederationFailed   Action = "federation_failed"
	ActionAuthFailed         Action = "auth_failed"
	ActionNativeLogin        Action = "native_login"
	ActionNativeAuthBlocked  Action = "native_auth_blocked"
	ActionRateLimitExceeded  Action = "rate_limit_exceeded"
)

// Event is transport-agnostic so stores and sinks can fan out.
type Event struct {
	Action    Action
	Timestamp time.Time
	UserID    string
	Email     string
	Decision  string
	Reason    string
	RequestID string
	ClientIP  string
	UserAgent string
}

// Sink persists or forwards audit events. Implementations must be safe for
// concurrent use by the worker.
type Sink interface {
	Append(ctx context.Context, event Event) error
}
