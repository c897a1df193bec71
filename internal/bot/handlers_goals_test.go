package bot

import (
	"context"
	"errors"
	"strings"
	"testing"

	tgmodels "github.com/go-telegram/bot/models"
	"github.com/stretchr/testify/require"
	"gitlab.com/yelinaung/savings-tracker/internal/bot/mocks"
	"gitlab.com/yelinaung/savings-tracker/internal/models"
)

func createGoals(t *testing.T, env *testEnv) (viaje, bici models.Goal) {
	t.Helper()
	ctx := context.Background()

	env.bot.handleNewGoalCore(ctx, env.tg, mocks.CommandUpdate(testChatID, testUserID, "/nuevameta 1200 12 Viaje a Roma"))
	env.bot.handleNewGoalCore(ctx, env.tg, mocks.CommandUpdate(testChatID, testUserID, "/nuevameta 100 Bici"))

	views := env.tracker(t).Goals()
	require.Len(t, views, 2)
	return views[0].Goal, views[1].Goal
}

func TestHandleNewGoalCore(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("creates push goal", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t, march15)

		env.bot.handleNewGoalCore(ctx, env.tg, mocks.CommandUpdate(testChatID, testUserID, "/nuevameta 1200 12 Viaje a Roma"))

		text := env.lastText(t)
		require.Contains(t, text, "✅ Meta creada: <b>Viaje a Roma</b>")
		require.Contains(t, text, "hasta el 15/03/2025")

		views := env.tracker(t).Goals()
		require.Len(t, views, 1)
		require.Equal(t, models.ChannelPush, views[0].ReminderChannel)
		require.True(t, views[0].ReminderOptIn)
	})

	t.Run("default months", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t, march15)

		env.bot.handleNewGoalCore(ctx, env.tg, mocks.CommandUpdate(testChatID, testUserID, "/nuevameta 100 Bici"))

		views := env.tracker(t).Goals()
		require.Len(t, views, 1)
		require.Equal(t, "2024-09-15", views[0].Deadline.Time().Format("2006-01-02"))
	})

	t.Run("usage", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t, march15)

		env.bot.handleNewGoalCore(ctx, env.tg, mocks.CommandUpdate(testChatID, testUserID, "/nuevameta Viaje"))

		require.Contains(t, env.lastText(t), "Uso:")
		require.Empty(t, env.tracker(t).Goals())
	})
}

func TestHandleGoalsCore(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	env := newTestEnv(t, march15)

	env.bot.handleGoalsCore(ctx, env.tg, mocks.CommandUpdate(testChatID, testUserID, "/metas"))
	require.Contains(t, env.lastText(t), "Aún no tienes metas")

	createGoals(t, env)
	env.tg.Reset()

	env.bot.handleGoalsCore(ctx, env.tg, mocks.CommandUpdate(testChatID, testUserID, "/metas"))

	text := env.lastText(t)
	require.Contains(t, text, "1. <b>Viaje a Roma</b>")
	require.Contains(t, text, "2. <b>Bici</b> 0,00 € / 100,00 € (0%)")
	require.Contains(t, text, "Activas: 2 · Completadas: 0")
	require.Equal(t, tgmodels.ParseModeHTML, env.tg.LastSentMessage().ParseMode)
}

func TestHandleGoalCore(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	env := newTestEnv(t, march15)
	viaje, _ := createGoals(t, env)
	env.tg.Reset()

	env.bot.handleGoalCore(ctx, env.tg, mocks.CommandUpdate(testChatID, testUserID, "/detalle 1"))

	msg := env.tg.LastSentMessage()
	require.NotNil(t, msg)
	require.Contains(t, msg.Text, "🎯 <b>Viaje a Roma</b> (otros)")
	require.Contains(t, msg.Text, "Fecha límite: 15/03/2025")

	kb, ok := msg.ReplyMarkup.(*tgmodels.InlineKeyboardMarkup)
	require.True(t, ok)
	require.Len(t, kb.InlineKeyboard, 2)
	require.Len(t, kb.InlineKeyboard[0], len(quickAmounts))
	require.Equal(t, "+10 €", kb.InlineKeyboard[0][0].Text)
	require.Equal(t, "aportar:"+viaje.ID+":10", kb.InlineKeyboard[0][0].CallbackData)
	require.Equal(t, "informe:"+viaje.ID, kb.InlineKeyboard[1][0].CallbackData)

	env.bot.handleGoalCore(ctx, env.tg, mocks.CommandUpdate(testChatID, testUserID, "/detalle 9"))
	require.Contains(t, env.lastText(t), "No existe la meta 9")

	env.bot.handleGoalCore(ctx, env.tg, mocks.CommandUpdate(testChatID, testUserID, "/detalle"))
	require.Contains(t, env.lastText(t), "Uso:")
}

func TestHandleContributeCore(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	env := newTestEnv(t, march15)
	createGoals(t, env)
	env.tg.Reset()

	env.bot.handleContributeCore(ctx, env.tg, mocks.CommandUpdate(testChatID, testUserID, "/aportar 1 300 paga extra"))

	text := env.lastText(t)
	require.Contains(t, text, "✅ Aporte de 300,00 € a <b>Viaje a Roma</b>.")
	require.Contains(t, text, "Llevas 300,00 €")

	viaje := env.tracker(t).Goals()[0]
	require.Len(t, viaje.Contributions, 1)
	require.Equal(t, "Test", viaje.Contributions[0].Author)
	require.Equal(t, "paga extra", viaje.Contributions[0].Note)

	env.bot.handleContributeCore(ctx, env.tg, mocks.CommandUpdate(testChatID, testUserID, "/aportar 2 100"))
	require.True(t, env.tracker(t).Goals()[1].IsCompleted())

	env.bot.handleContributeCore(ctx, env.tg, mocks.CommandUpdate(testChatID, testUserID, "/aportar 2 10"))
	require.Contains(t, env.lastText(t), "ya está completada")

	env.bot.handleContributeCore(ctx, env.tg, mocks.CommandUpdate(testChatID, testUserID, "/aportar 3 10"))
	require.Contains(t, env.lastText(t), "No existe la meta 3")

	env.bot.handleContributeCore(ctx, env.tg, mocks.CommandUpdate(testChatID, testUserID, "/aportar uno"))
	require.Contains(t, env.lastText(t), "Uso:")
}

func TestHandleContributeCore_DefaultAuthor(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, march15)
	createGoals(t, env)

	ctx := context.Background()
	env.bot.handleContributeCore(ctx, env.tg, mocks.CommandUpdate(testChatID, testUserID, "/aportar 1 20", mocks.WithSender(" ", "anon")))
	env.bot.handleContributeCore(ctx, env.tg, mocks.CommandUpdate(testChatID, testUserID, "/aportar 1 5", mocks.WithoutSender()))

	contributions := env.tracker(t).Goals()[0].Contributions
	require.Len(t, contributions, 2)
	require.Equal(t, defaultAuthor, contributions[0].Author)
	require.Equal(t, defaultAuthor, contributions[1].Author)
}

func TestHandleContributeCallbackCore(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	env := newTestEnv(t, march15)
	viaje, _ := createGoals(t, env)
	env.tg.Reset()

	env.bot.handleContributeCallbackCore(ctx, env.tg, mocks.CallbackQueryUpdate(testChatID, testUserID, 77, "aportar:"+viaje.ID+":50"))

	require.Len(t, env.tg.AnsweredCallbacks, 1)
	require.Equal(t, "✅ Aporte de 50,00 €", env.tg.LastAnswer().Text)

	edited := env.tg.LastEditedMessage()
	require.NotNil(t, edited)
	require.Equal(t, 77, edited.MessageID)
	require.Contains(t, edited.Text, "Ahorrado: 50,00 €")
	require.IsType(t, &tgmodels.InlineKeyboardMarkup{}, edited.ReplyMarkup)

	g, err := env.tracker(t).Goal(viaje.ID)
	require.NoError(t, err)
	require.Equal(t, "Test", g.Contributions[0].Author)

	t.Run("invalid data", func(t *testing.T) {
		for _, data := range []string{"aportar:", "aportar:" + viaje.ID, "aportar:" + viaje.ID + ":x", "aportar:" + viaje.ID + ":-5"} {
			env.tg.Reset()
			env.bot.handleContributeCallbackCore(ctx, env.tg, mocks.CallbackQueryUpdate(testChatID, testUserID, 77, data))
			require.Len(t, env.tg.AnsweredCallbacks, 1, "data %q", data)
			require.Equal(t, "❌ Acción no válida", env.tg.AnsweredCallbacks[0].Text)
			require.Empty(t, env.tg.EditedMessages)
		}
	})

	t.Run("missing goal", func(t *testing.T) {
		env.tg.Reset()
		env.bot.handleContributeCallbackCore(ctx, env.tg, mocks.CallbackQueryUpdate(testChatID, testUserID, 77, "aportar:nope:10"))
		require.Equal(t, "❌ La meta ya no existe", env.tg.AnsweredCallbacks[0].Text)
	})

	t.Run("unlinked chat", func(t *testing.T) {
		env.tg.Reset()
		env.bot.handleContributeCallbackCore(ctx, env.tg, mocks.CallbackQueryUpdate(9999, testUserID, 77, "aportar:"+viaje.ID+":10"))
		require.Len(t, env.tg.AnsweredCallbacks, 1)
		require.Contains(t, env.lastText(t), "no está vinculado")
	})

	t.Run("edit failure still records", func(t *testing.T) {
		env.tg.Reset()
		env.tg.EditMessageError = errors.New("message is not modified")
		env.bot.handleContributeCallbackCore(ctx, env.tg, mocks.CallbackQueryUpdate(testChatID, testUserID, 77, "aportar:"+viaje.ID+":10"))

		g, err := env.tracker(t).Goal(viaje.ID)
		require.NoError(t, err)
		require.Equal(t, "60", g.Saved.Decimal.String())
	})
}

func TestGoalKeyboard_Completed(t *testing.T) {
	t.Parallel()

	g := models.Goal{ID: "g1", Status: models.GoalStatusCompleted}
	kb := goalKeyboard(g)
	require.Len(t, kb.InlineKeyboard, 1)
	require.Equal(t, "informe:g1", kb.InlineKeyboard[0][0].CallbackData)
}

func TestHandleReportCallbackCore(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	env := newTestEnv(t, march15)
	_, bici := createGoals(t, env)
	env.tg.Reset()

	env.bot.handleReportCallbackCore(ctx, env.tg, mocks.CallbackQueryUpdate(testChatID, testUserID, 80, "informe:"+bici.ID))

	require.Equal(t, "📄 Generando informe...", env.tg.AnsweredCallbacks[0].Text)
	doc := env.tg.LastSentDocument()
	require.NotNil(t, doc)
	require.Equal(t, "Bici-reporte.txt", doc.Filename)
	require.True(t, strings.HasPrefix(string(doc.Data), "Meta: Bici\n"))
	require.Contains(t, doc.Caption, "<b>Bici</b>")

	env.tg.Reset()
	env.bot.handleReportCallbackCore(ctx, env.tg, mocks.CallbackQueryUpdate(testChatID, testUserID, 80, "informe:nope"))
	require.Equal(t, "❌ La meta ya no existe", env.tg.AnsweredCallbacks[0].Text)
	require.Zero(t, env.tg.SentDocumentCount())
}
