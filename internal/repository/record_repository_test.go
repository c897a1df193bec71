package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gitlab.com/yelinaung/savings-tracker/internal/database"
	"gitlab.com/yelinaung/savings-tracker/internal/models"
	"gitlab.com/yelinaung/savings-tracker/internal/tracker"
)

var _ tracker.Store = (*RecordRepository)(nil)

func TestRecordRepository(t *testing.T) {
	tx := database.TestTx(t)
	ctx := context.Background()
	createUser(t, NewUserRepository(tx), "u1", "ana@example.com")
	repo := NewRecordRepository(tx)

	t.Run("absent records load as nil", func(t *testing.T) {
		doc, err := repo.Load(ctx, "u1")
		require.NoError(t, err)
		require.Nil(t, doc)
	})

	t.Run("save then load", func(t *testing.T) {
		doc := models.NewDocument()
		doc.Incomes = []models.Income{{
			ID:     "i1",
			Type:   models.DefaultIncomeType,
			Amount: models.AmountFromFloat(1234.56),
			Date:   models.DateOf(2024, 3, 1),
		}}
		doc.Goals = []models.Goal{{ID: "g1", Name: "Bici", Cost: models.AmountFromInt(600), Version: 1}}

		stored, updatedAt, err := repo.SaveWithTime(ctx, "u1", doc)
		require.NoError(t, err)
		require.False(t, updatedAt.IsZero())
		require.Len(t, stored.Incomes, 1)

		loaded, err := repo.Load(ctx, "u1")
		require.NoError(t, err)
		require.Len(t, loaded.Incomes, 1)
		require.True(t, loaded.Incomes[0].Amount.Equal(doc.Incomes[0].Amount.Decimal))
		require.Equal(t, models.DateOf(2024, 3, 1), loaded.Incomes[0].Date)
		require.Equal(t, "Bici", loaded.Goals[0].Name)
	})

	t.Run("save replaces the whole document", func(t *testing.T) {
		_, err := repo.Save(ctx, "u1", nil)
		require.NoError(t, err)

		loaded, err := repo.Load(ctx, "u1")
		require.NoError(t, err)
		require.Empty(t, loaded.Incomes)
		require.Empty(t, loaded.Goals)
		require.Equal(t, models.DefaultReminderSettings(), loaded.ReminderSettings)
	})

	t.Run("list user ids", func(t *testing.T) {
		ids, err := repo.ListUserIDs(ctx)
		require.NoError(t, err)
		require.Contains(t, ids, "u1")
	})
}
