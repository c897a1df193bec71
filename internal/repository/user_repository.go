package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gitlab.com/yelinaung/savings-tracker/internal/database"
	"gitlab.com/yelinaung/savings-tracker/internal/models"
)

// ErrDuplicateEmail is returned when an account with the same email exists.
var ErrDuplicateEmail = errors.New("email already registered")

const uniqueViolation = "23505"

const userColumns = `id, name, email, password_hash, sync_code, created_at, last_login_at`

// UserRepository handles account database operations.
type UserRepository struct {
	db database.PGXDB
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(db database.PGXDB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a new account. Emails are unique regardless of case.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO app_users (id, name, email, password_hash, sync_code, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		RETURNING created_at
	`, user.ID, user.Name, user.Email, user.PasswordHash, user.SyncCode).Scan(&user.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func scanUser(row interface{ Scan(dest ...any) error }) (*models.User, error) {
	var u models.User
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.SyncCode, &u.CreatedAt, &u.LastLoginAt); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByID retrieves an account by id.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	u, err := scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM app_users WHERE id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", notFound(err))
	}
	return u, nil
}

// GetByEmail retrieves an account by email, ignoring case.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	u, err := scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM app_users WHERE LOWER(email) = LOWER($1)`, email))
	if err != nil {
		return nil, fmt.Errorf("failed to get user by email: %w", notFound(err))
	}
	return u, nil
}

// GetBySyncCode retrieves the account currently holding code, ignoring case.
func (r *UserRepository) GetBySyncCode(ctx context.Context, code string) (*models.User, error) {
	u, err := scanUser(r.db.QueryRow(ctx, `
		SELECT `+userColumns+` FROM app_users
		WHERE UPPER(sync_code) = UPPER($1)
		ORDER BY created_at DESC
		LIMIT 1
	`, code))
	if err != nil {
		return nil, fmt.Errorf("failed to get user by sync code: %w", notFound(err))
	}
	return u, nil
}

// UpdateSyncCode replaces the sync code of an account.
func (r *UserRepository) UpdateSyncCode(ctx context.Context, id, code string) error {
	tag, err := r.db.Exec(ctx, `UPDATE app_users SET sync_code = $2 WHERE id = $1`, id, code)
	if err != nil {
		return fmt.Errorf("failed to update sync code: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("failed to update sync code: %w", ErrNotFound)
	}
	return nil
}

// TouchLogin records a successful login.
func (r *UserRepository) TouchLogin(ctx context.Context, id string, at time.Time) error {
	_, err := r.db.Exec(ctx, `UPDATE app_users SET last_login_at = $2 WHERE id = $1`, id, at)
	if err != nil {
		return fmt.Errorf("failed to update last login: %w", err)
	}
	return nil
}

// ListIDs returns every account id.
func (r *UserRepository) ListIDs(ctx context.Context) ([]string, error) {
	rows, err := r.db.Query(ctx, `SELECT id FROM app_users ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan user id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}
	return ids, nil
}
