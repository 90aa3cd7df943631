package user

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists user records in PostgreSQL. The federation upsert
// leans on the subject_id uniqueness constraint so concurrent calls for the
// same identity settle on one row.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const userColumns = `id, subject_id, email, first_name, last_name, display_name, avatar_url, password_hash, created_at, updated_at, last_login_at`

// Upsert inserts or refreshes the record in one statement. Profile fields
// only change when the provider sent a value; empty incoming fields keep the
// stored ones. The (xmax = 0) projection reports whether the row was
// freshly inserted.
func (s *PostgresStore) Upsert(ctx context.Context, params UpsertParams) (User, bool, error) {
	const query = `
		INSERT INTO users (id, subject_id, email, first_name, last_name, display_name, avatar_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (subject_id) DO UPDATE SET
			email         = EXCLUDED.email,
			first_name    = CASE WHEN EXCLUDED.display_name <> '' THEN EXCLUDED.first_name ELSE users.first_name END,
			last_name     = CASE WHEN EXCLUDED.display_name <> '' THEN EXCLUDED.last_name ELSE users.last_name END,
			display_name  = CASE WHEN EXCLUDED.display_name <> '' THEN EXCLUDED.display_name ELSE users.display_name END,
			avatar_url    = CASE WHEN EXCLUDED.avatar_url <> '' THEN EXCLUDED.avatar_url ELSE users.avatar_url END,
			updated_at    = now(),
			last_login_at = now()
		RETURNING ` + userColumns + `, (xmax = 0)
	`

	var u User
	var created bool
	err := s.pool.QueryRow(ctx, query,
		uuid.New(), params.SubjectID, params.Email,
		params.FirstName, params.LastName, params.DisplayName, params.AvatarURL,
	).Scan(
		&u.ID, &u.SubjectID, &u.Email, &u.FirstName, &u.LastName,
		&u.DisplayName, &u.AvatarURL, &u.PasswordHash,
		&u.CreatedAt, &u.UpdatedAt, &u.LastLoginAt,
		&created,
	)
	if err != nil {
		if isUniqueViolation(err) {
			// Same email already registered under a different subject.
			return User{}, false, ErrEmailTaken
		}
		return User{}, false, fmt.Errorf("upsert user: %w", err)
	}
	return u, created, nil
}

func (s *PostgresStore) Create(ctx context.Context, u User) (User, error) {
	const query = `
		INSERT INTO users (id, subject_id, email, first_name, last_name, display_name, avatar_url, password_hash)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + userColumns

	id := u.ID
	if id == "" {
		id = uuid.NewString()
	}
	var out User
	err := s.pool.QueryRow(ctx, query,
		id, u.SubjectID, u.Email, u.FirstName, u.LastName,
		u.DisplayName, u.AvatarURL, u.PasswordHash,
	).Scan(
		&out.ID, &out.SubjectID, &out.Email, &out.FirstName, &out.LastName,
		&out.DisplayName, &out.AvatarURL, &out.PasswordHash,
		&out.CreatedAt, &out.UpdatedAt, &out.LastLoginAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return User{}, ErrEmailTaken
		}
		return User{}, fmt.Errorf("create user: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id string) (User, error) {
	return s.findBy(ctx, "id", id)
}

func (s *PostgresStore) FindBySubject(ctx context.Context, subjectID string) (User, error) {
	return s.findBy(ctx, "subject_id", subjectID)
}

func (s *PostgresStore) FindByEmail(ctx context.Context, email string) (User, error) {
	return s.findBy(ctx, "email", email)
}

func (s *PostgresStore) findBy(ctx context.Context, column, value string) (User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE ` + column + ` = $1`

	var u User
	err := s.pool.QueryRow(ctx, query, value).Scan(
		&u.ID, &u.SubjectID, &u.Email, &u.FirstName, &u.LastName,
		&u.DisplayName, &u.AvatarURL, &u.PasswordHash,
		&u.CreatedAt, &u.UpdatedAt, &u.LastLoginAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("find user by %s: %w", column, err)
	}
	return u, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
