package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"gitlab.com/yelinaung/savings-tracker/internal/database"
	"gitlab.com/yelinaung/savings-tracker/internal/models"
)

// RecordRepository stores one savings Document per user as a JSONB payload.
type RecordRepository struct {
	db database.PGXDB
}

// NewRecordRepository creates a new RecordRepository.
func NewRecordRepository(db database.PGXDB) *RecordRepository {
	return &RecordRepository{db: db}
}

// Load returns the stored document of userID, or nil when none is stored.
func (r *RecordRepository) Load(ctx context.Context, userID string) (*models.Document, error) {
	var payload []byte
	err := r.db.QueryRow(ctx, `SELECT payload FROM user_records WHERE user_id = $1`, userID).Scan(&payload)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load record: %w", err)
	}

	doc, err := models.DecodeDocument(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to decode record: %w", err)
	}
	return doc, nil
}

// Save upserts the whole document of userID and returns the stored copy.
func (r *RecordRepository) Save(ctx context.Context, userID string, doc *models.Document) (*models.Document, error) {
	stored, _, err := r.SaveWithTime(ctx, userID, doc)
	return stored, err
}

// SaveWithTime is Save that also returns the stored update time.
func (r *RecordRepository) SaveWithTime(ctx context.Context, userID string, doc *models.Document) (*models.Document, time.Time, error) {
	if doc == nil {
		doc = models.NewDocument()
	}
	payload, err := json.Marshal(doc)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("failed to encode record: %w", err)
	}

	var (
		stored    []byte
		updatedAt time.Time
	)
	err = r.db.QueryRow(ctx, `
		INSERT INTO user_records (user_id, payload, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (user_id) DO UPDATE SET
			payload = EXCLUDED.payload,
			updated_at = NOW()
		RETURNING payload, updated_at
	`, userID, payload).Scan(&stored, &updatedAt)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("failed to save record: %w", err)
	}

	out, err := models.DecodeDocument(stored)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("failed to decode record: %w", err)
	}
	return out, updatedAt, nil
}

// ListUserIDs returns the ids of every user with a stored document.
func (r *RecordRepository) ListUserIDs(ctx context.Context) ([]string, error) {
	rows, err := r.db.Query(ctx, `SELECT user_id FROM user_records ORDER BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to scan records: %w", err)
	}
	return ids, nil
}
