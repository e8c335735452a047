package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/learnova/learnova/internal/access"
)

var (
	// ErrUserNotFound indicates that no account matches the email in the school.
	ErrUserNotFound = errors.New("auth: user not found")
	// ErrAccountsUnavailable indicates that no account store is configured.
	ErrAccountsUnavailable = errors.New("auth: accounts unavailable")
)

// Repository defines persistence operations for auth module.
type Repository interface {
	// FindByEmail looks the account up within schoolID; an empty schoolID
	// selects platform accounts.
	FindByEmail(ctx context.Context, schoolID, email string) (*User, error)
	CreateSession(ctx context.Context, id, userID string, expiresAt time.Time, ip, ua string) error
	DeleteSession(ctx context.Context, id string) error
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const findUserByEmail = `
SELECT u.id::text, COALESCE(u.school_id::text, ''), u.email, u.password_hash, u.role,
       u.is_system, u.is_active, u.created_at, u.updated_at,
       COALESCE(array_agg(p.permission ORDER BY p.permission) FILTER (WHERE p.permission IS NOT NULL), '{}')
FROM users u
LEFT JOIN user_permissions p ON p.user_id = u.id
WHERE lower(u.email) = lower($1)
  AND u.school_id IS NOT DISTINCT FROM NULLIF($2, '')::uuid
GROUP BY u.id
`

// FindByEmail fetches a user and its granted permissions.
func (r *PGRepository) FindByEmail(ctx context.Context, schoolID, email string) (*User, error) {
	var (
		u    User
		role string
	)
	err := r.pool.QueryRow(ctx, findUserByEmail, strings.TrimSpace(email), schoolID).Scan(
		&u.ID, &u.SchoolID, &u.Email, &u.PasswordHash, &role,
		&u.IsSystem, &u.IsActive, &u.CreatedAt, &u.UpdatedAt,
		&u.Permissions,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("auth/pg: find user: %w", err)
	}
	u.Role = access.ParseRole(role)
	return &u, nil
}

// CreateSession persists a new login session in the database for auditing.
func (r *PGRepository) CreateSession(ctx context.Context, id, userID string, expiresAt time.Time, ip, ua string) error {
	_, err := r.pool.Exec(ctx, `
INSERT INTO user_sessions (id, user_id, created_at, expires_at, ip, user_agent)
VALUES ($1, $2::uuid, $3, $4, NULLIF($5, ''), NULLIF($6, ''))`,
		id, userID, time.Now().UTC(), expiresAt.UTC(), ip, ua)
	if err != nil {
		return fmt.Errorf("auth/pg: create session: %w", err)
	}
	return nil
}

// DeleteSession removes a session record from the database.
func (r *PGRepository) DeleteSession(ctx context.Context, id string) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM user_sessions WHERE id = $1`, id); err != nil {
		return fmt.Errorf("auth/pg: delete session: %w", err)
	}
	return nil
}

var (
	_ Repository = (*PGRepository)(nil)
	_ Repository = UnavailableRepository{}
)

// UnavailableRepository rejects every sign-in. It serves deployments that run
// without a database.
type UnavailableRepository struct{}

// FindByEmail implements Repository.
func (UnavailableRepository) FindByEmail(ctx context.Context, schoolID, email string) (*User, error) {
	return nil, ErrAccountsUnavailable
}

// CreateSession implements Repository.
func (UnavailableRepository) CreateSession(ctx context.Context, id, userID string, expiresAt time.Time, ip, ua string) error {
	return nil
}

// DeleteSession implements Repository.
func (UnavailableRepository) DeleteSession(ctx context.Context, id string) error {
	return nil
}
