// Package postgres materializes audit events for querying.
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	audit "bronn/pkg/platform/audit"
)

// Store implements audit.Sink on database/sql.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Open connects with the pq driver and verifies the connection.
func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open audit db: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping audit db: %w", err)
	}
	return db, nil
}

func (s *Store) Append(ctx context.Context, event audit.Event) error {
	const query = `
		INSERT INTO audit_events (
			id, action, user_id, email, decision, reason,
			request_id, client_ip, user_agent, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO NOTHING
	`

	var userID *uuid.UUID
	if event.UserID != "" {
		if parsed, err := uuid.Parse(event.UserID); err == nil {
			userID = &parsed
		}
	}

	_, err := s.db.ExecContext(ctx, query,
		uuid.New(),
		string(event.Action),
		userID,
		event.Email,
		event.Decision,
		event.Reason,
		event.RequestID,
		event.ClientIP,
		event.UserAgent,
		event.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}
