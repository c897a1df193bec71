package logger

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"strings"
)

const minSaltLength = 32

var hashSalt = "default-salt-change-in-production"

// InitHashSalt loads LOG_HASH_SALT. It panics when the salt is missing or
// shorter than 32 characters.
func InitHashSalt() {
	salt := os.Getenv("LOG_HASH_SALT")
	if salt == "" {
		panic("LOG_HASH_SALT is required")
	}
	if len(salt) < minSaltLength {
		panic(fmt.Sprintf("LOG_HASH_SALT must be at least %d characters", minSaltLength))
	}
	hashSalt = salt
}

// InitHashSaltForTesting sets the salt directly.
func InitHashSaltForTesting(salt string) {
	hashSalt = salt
}

func hash(value string) string {
	sum := sha256.Sum256([]byte(value + ":" + hashSalt))
	return hex.EncodeToString(sum[:])[:8]
}

// HashUserID creates a privacy-preserving hash of an account id.
// This allows tracking user actions without exposing actual user IDs.
func HashUserID(userID string) string {
	return hash(userID)
}

// HashChatID creates a privacy-preserving hash of a Telegram chat id.
func HashChatID(chatID int64) string {
	return hash(fmt.Sprintf("chat:%d", chatID))
}

// HashEmail hashes an email address after normalizing its case.
func HashEmail(email string) string {
	return hash("email:" + strings.ToLower(strings.TrimSpace(email)))
}

// SanitizeDescription redacts a free-text note but preserves length
// information for debugging.
func SanitizeDescription(desc string) string {
	if desc == "" {
		return "<empty>"
	}

	words := strings.Fields(desc)
	return fmt.Sprintf("<redacted: %d words, %d chars>", len(words), len(desc))
}

// SanitizeText is a general-purpose sanitizer for any user-provided text.
func SanitizeText(text string) string {
	if text == "" {
		return "<empty>"
	}

	// For short text, show only the length
	if len(text) <= 10 {
		return fmt.Sprintf("<%d chars>", len(text))
	}

	return fmt.Sprintf("%s...<%d chars>", text[:3], len(text))
}
