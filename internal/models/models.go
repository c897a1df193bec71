package models

import "time"

// User is a registered account.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	SyncCode     string
	CreatedAt    time.Time
	LastLoginAt  *time.Time
}

// Session is an opaque bearer token with a server-side expiry.
type Session struct {
	Token     string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Expired reports whether the session is no longer valid at now.
func (s Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// TelegramLink binds a Telegram chat to an account.
type TelegramLink struct {
	ChatID   int64
	UserID   string
	LinkedAt time.Time
}
