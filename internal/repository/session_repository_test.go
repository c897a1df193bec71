package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gitlab.com/yelinaung/savings-tracker/internal/database"
	"gitlab.com/yelinaung/savings-tracker/internal/models"
)

func TestSessionRepository(t *testing.T) {
	tx := database.TestTx(t)
	ctx := context.Background()
	createUser(t, NewUserRepository(tx), "u1", "ana@example.com")
	repo := NewSessionRepository(tx)

	expires := time.Now().Add(24 * time.Hour).UTC().Truncate(time.Microsecond)
	s := &models.Session{Token: "tok-1", UserID: "u1", ExpiresAt: expires}
	require.NoError(t, repo.Create(ctx, s))
	require.False(t, s.CreatedAt.IsZero())

	got, err := repo.Get(ctx, "tok-1")
	require.NoError(t, err)
	require.Equal(t, "u1", got.UserID)
	require.True(t, expires.Equal(got.ExpiresAt))
	require.False(t, got.Expired(time.Now()))

	require.NoError(t, repo.Delete(ctx, "tok-1"))
	_, err = repo.Get(ctx, "tok-1")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, repo.Delete(ctx, "tok-1"), "deleting twice is fine")
}

func TestSessionRepository_DeleteExpired(t *testing.T) {
	tx := database.TestTx(t)
	ctx := context.Background()
	createUser(t, NewUserRepository(tx), "u1", "ana@example.com")
	repo := NewSessionRepository(tx)

	now := time.Now().UTC()
	require.NoError(t, repo.Create(ctx, &models.Session{Token: "old", UserID: "u1", ExpiresAt: now.Add(-time.Hour)}))
	require.NoError(t, repo.Create(ctx, &models.Session{Token: "live", UserID: "u1", ExpiresAt: now.Add(time.Hour)}))

	n, err := repo.DeleteExpired(ctx, now)
	require.NoError(t, err)
	require.EqualValues(t, 1, n)

	_, err = repo.Get(ctx, "old")
	require.ErrorIs(t, err, ErrNotFound)
	_, err = repo.Get(ctx, "live")
	require.NoError(t, err)
}
