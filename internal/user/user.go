// Package user owns the application's view of a user. The primary provider
// remains the source of truth for credentials; records here hold profile
// data synced on each federation plus native-auth password hashes.
package user

import (
	"context"
	"strings"
	"time"

	pkgerrors "bronn/pkg/errors"
)

// User is the local user record. Created on first successful federation or
// native sign-up; profile fields are refreshed on subsequent logins when the
// provider reports changes. Never deleted by this flow.
type User struct {
	ID           string
	SubjectID    string
	Email        string
	FirstName    string
	LastName     string
	DisplayName  string
	AvatarURL    string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	LastLoginAt  time.Time
}

// UpsertParams carries provider-supplied profile fields for the federation
// upsert. SubjectID is the natural key.
type UpsertParams struct {
	SubjectID   string
	Email       string
	FirstName   string
	LastName    string
	DisplayName string
	AvatarURL   string
}

// Store persists user records. Upsert must be atomic insert-if-absent,
// else-update against the natural key: two concurrent federation calls for
// the same identity must yield exactly one record. The uniqueness constraint
// of the backing store closes the race, not an application-level
// check-then-act.
type Store interface {
	Upsert(ctx context.Context, params UpsertParams) (User, bool, error)
	Create(ctx context.Context, u User) (User, error)
	FindByID(ctx context.Context, id string) (User, error)
	FindBySubject(ctx context.Context, subjectID string) (User, error)
	FindByEmail(ctx context.Context, email string) (User, error)
}

var (
	ErrNotFound   = pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
	ErrEmailTaken = pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
)

// SplitDisplayName derives first/last name from a provider display name,
// matching how profiles were seeded historically: first word is the first
// name, the remainder is the last name.
func SplitDisplayName(displayName string) (first, last string) {
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		return "", ""
	}
	parts := strings.SplitN(displayName, " ", 2)
	first = parts[0]
	if len(parts) > 1 {
		last = parts[1]
	}
	return first, last
}
