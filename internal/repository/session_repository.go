package repository

import (
	"context"
	"fmt"
	"time"

	"gitlab.com/yelinaung/savings-tracker/internal/database"
	"gitlab.com/yelinaung/savings-tracker/internal/models"
)

// SessionRepository handles bearer session database operations.
type SessionRepository struct {
	db database.PGXDB
}

// NewSessionRepository creates a new SessionRepository.
func NewSessionRepository(db database.PGXDB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Create stores a new session.
func (r *SessionRepository) Create(ctx context.Context, s *models.Session) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO sessions (token, user_id, expires_at, created_at)
		VALUES ($1, $2, $3, NOW())
		RETURNING created_at
	`, s.Token, s.UserID, s.ExpiresAt).Scan(&s.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

// Get retrieves a session by token. Expired sessions are returned as well;
// callers check Session.Expired.
func (r *SessionRepository) Get(ctx context.Context, token string) (*models.Session, error) {
	var s models.Session
	err := r.db.QueryRow(ctx, `
		SELECT token, user_id, expires_at, created_at
		FROM sessions WHERE token = $1
	`, token).Scan(&s.Token, &s.UserID, &s.ExpiresAt, &s.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", notFound(err))
	}
	return &s, nil
}

// Delete removes a session. Deleting an unknown token is not an error.
func (r *SessionRepository) Delete(ctx context.Context, token string) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM sessions WHERE token = $1`, token); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// DeleteExpired removes every session that expired before now and returns
// how many were removed.
func (r *SessionRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM sessions WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}
	return tag.RowsAffected(), nil
}
