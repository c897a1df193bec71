package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"gitlab.com/yelinaung/savings-tracker/internal/database"
	"gitlab.com/yelinaung/savings-tracker/internal/models"
)

// TelegramLinkRepository binds Telegram chats to accounts.
type TelegramLinkRepository struct {
	db database.PGXDB
}

// NewTelegramLinkRepository creates a new TelegramLinkRepository.
func NewTelegramLinkRepository(db database.PGXDB) *TelegramLinkRepository {
	return &TelegramLinkRepository{db: db}
}

// Link binds chatID to userID, replacing any previous binding of the chat.
func (r *TelegramLinkRepository) Link(ctx context.Context, chatID int64, userID string) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO telegram_links (chat_id, user_id, linked_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (chat_id) DO UPDATE SET
			user_id = EXCLUDED.user_id,
			linked_at = NOW()
	`, chatID, userID)
	if err != nil {
		return fmt.Errorf("failed to link chat: %w", err)
	}
	return nil
}

// Unlink removes the binding of chatID.
func (r *TelegramLinkRepository) Unlink(ctx context.Context, chatID int64) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM telegram_links WHERE chat_id = $1`, chatID); err != nil {
		return fmt.Errorf("failed to unlink chat: %w", err)
	}
	return nil
}

// UserForChat returns the account bound to chatID.
func (r *TelegramLinkRepository) UserForChat(ctx context.Context, chatID int64) (string, error) {
	var userID string
	err := r.db.QueryRow(ctx, `SELECT user_id FROM telegram_links WHERE chat_id = $1`, chatID).Scan(&userID)
	if err != nil {
		return "", fmt.Errorf("failed to get chat link: %w", notFound(err))
	}
	return userID, nil
}

// ChatsForUser returns every chat bound to userID.
func (r *TelegramLinkRepository) ChatsForUser(ctx context.Context, userID string) ([]models.TelegramLink, error) {
	rows, err := r.db.Query(ctx, `
		SELECT chat_id, user_id, linked_at
		FROM telegram_links WHERE user_id = $1
		ORDER BY linked_at
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get chat links: %w", err)
	}
	return scanLinks(rows)
}

// All returns every chat binding, grouped by account.
func (r *TelegramLinkRepository) All(ctx context.Context) ([]models.TelegramLink, error) {
	rows, err := r.db.Query(ctx, `
		SELECT chat_id, user_id, linked_at
		FROM telegram_links
		ORDER BY user_id, linked_at
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list chat links: %w", err)
	}
	return scanLinks(rows)
}

func scanLinks(rows pgx.Rows) ([]models.TelegramLink, error) {
	defer rows.Close()

	var links []models.TelegramLink
	for rows.Next() {
		var l models.TelegramLink
		if err := rows.Scan(&l.ChatID, &l.UserID, &l.LinkedAt); err != nil {
			return nil, fmt.Errorf("failed to scan chat link: %w", err)
		}
		links = append(links, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate chat links: %w", err)
	}
	return links, nil
}
