package sqlite

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/example/ai-secretary/internal/persistence"
)

const userColumns = `id, email, display_name, password_hash, is_admin, created_at, updated_at`

// UserRepository implements persistence.UserRepository using SQLite.
type UserRepository struct {
	pool   *ConnectionPool
	mapper *ErrorMapper
	retry  *RetryHelper
	now    func() time.Time
}

// NewUserRepository creates a new SQLite user repository.
func NewUserRepository(pool *ConnectionPool) *UserRepository {
	return &UserRepository{
		pool:   pool,
		mapper: NewErrorMapper(),
		retry:  NewRetryHelper(DefaultRetryConfig()),
		now:    time.Now,
	}
}

// UpsertUser inserts a user or updates the row sharing its email. The ID of
// an existing row is kept.
func (r *UserRepository) UpsertUser(ctx context.Context, user persistence.User) (persistence.User, error) {
	if user.ID == "" || user.PasswordHash == "" {
		return persistence.User{}, persistence.ErrConstraintViolation
	}
	email := normalizeEmail(user.Email)
	if email == "" {
		return persistence.User{}, persistence.ErrConstraintViolation
	}
	now := formatTime(r.now())

	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(email) DO UPDATE SET
			display_name = excluded.display_name,
			password_hash = excluded.password_hash,
			is_admin = excluded.is_admin,
			updated_at = excluded.updated_at
		RETURNING ` + userColumns

	var stored persistence.User
	err := r.retry.WithRetry(ctx, func() error {
		row := r.pool.DB().QueryRowContext(ctx, query,
			user.ID, email, user.DisplayName, user.PasswordHash, user.IsAdmin, now, now,
		)
		var scanErr error
		stored, scanErr = scanUser(row)
		return scanErr
	})
	if err != nil {
		return persistence.User{}, r.mapper.MapError(err)
	}
	return stored, nil
}

// GetUser retrieves a user by ID.
func (r *UserRepository) GetUser(ctx context.Context, id string) (persistence.User, error) {
	if id == "" {
		return persistence.User{}, persistence.ErrNotFound
	}
	row := r.pool.DB().QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	user, err := scanUser(row)
	if err != nil {
		return persistence.User{}, r.mapper.MapError(err)
	}
	return user, nil
}

// GetUserByEmail retrieves a user by email, case-insensitively.
func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (persistence.User, error) {
	email = normalizeEmail(email)
	if email == "" {
		return persistence.User{}, persistence.ErrNotFound
	}
	row := r.pool.DB().QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, email)
	user, err := scanUser(row)
	if err != nil {
		return persistence.User{}, r.mapper.MapError(err)
	}
	return user, nil
}

// ListUsers returns all users ordered by email.
func (r *UserRepository) ListUsers(ctx context.Context) ([]persistence.User, error) {
	rows, err := r.pool.DB().QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY email`)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var users []persistence.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}
	return users, nil
}

func scanUser(row rowScanner) (persistence.User, error) {
	var (
		user                 persistence.User
		createdAt, updatedAt string
	)
	if err := row.Scan(
		&user.ID,
		&user.Email,
		&user.DisplayName,
		&user.PasswordHash,
		&user.IsAdmin,
		&createdAt,
		&updatedAt,
	); err != nil {
		return persistence.User{}, err
	}

	var err error
	if user.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
		return persistence.User{}, err
	}
	if user.UpdatedAt, err = parseTime("updated_at", updatedAt); err != nil {
		return persistence.User{}, err
	}
	return user, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
