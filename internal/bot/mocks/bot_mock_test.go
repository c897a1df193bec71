package mocks

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/stretchr/testify/require"
)

func TestMockBot_SendMessage(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m := NewMockBot()

	keyboard := &models.InlineKeyboardMarkup{}
	first, err := m.SendMessage(ctx, &bot.SendMessageParams{ChatID: int64(42), Text: "hola", ParseMode: models.ParseModeHTML, ReplyMarkup: keyboard})
	require.NoError(t, err)
	second, err := m.SendMessage(ctx, &bot.SendMessageParams{ChatID: 7, Text: "adiós"})
	require.NoError(t, err)

	require.Equal(t, FirstMessageID, first.ID)
	require.Equal(t, FirstMessageID+1, second.ID)
	require.Equal(t, int64(42), first.Chat.ID)
	require.Equal(t, int64(7), second.Chat.ID, "int chat ids are widened")

	require.Equal(t, 2, m.SentMessageCount())
	require.Equal(t, SentMessage{ChatID: 42, Text: "hola", ParseMode: models.ParseModeHTML, ReplyMarkup: keyboard}, m.Messages()[0])
	require.Equal(t, "adiós", m.LastSentMessage().Text)
	require.Len(t, m.MessagesTo(42), 1)
	require.Empty(t, m.MessagesTo(99))
}

func TestMockBot_SendMessageUsername(t *testing.T) {
	t.Parallel()

	msg, err := NewMockBot().SendMessage(context.Background(), &bot.SendMessageParams{ChatID: "@canal", Text: "x"})
	require.NoError(t, err)
	require.Zero(t, msg.Chat.ID)
}

func TestMockBot_Errors(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	boom := errors.New("boom")

	m := NewMockBot()
	m.SendMessageError = boom
	m.EditMessageError = boom
	m.AnswerError = boom
	m.SendDocumentError = boom

	_, err := m.SendMessage(ctx, &bot.SendMessageParams{ChatID: int64(1)})
	require.ErrorIs(t, err, boom)
	_, err = m.EditMessageText(ctx, &bot.EditMessageTextParams{ChatID: int64(1)})
	require.ErrorIs(t, err, boom)
	ok, err := m.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{CallbackQueryID: "c"})
	require.ErrorIs(t, err, boom)
	require.False(t, ok)
	_, err = m.SendDocument(ctx, &bot.SendDocumentParams{ChatID: int64(1)})
	require.ErrorIs(t, err, boom)

	require.Nil(t, m.LastSentMessage())
	require.Nil(t, m.LastEditedMessage())
	require.Nil(t, m.LastAnswer())
	require.Nil(t, m.LastSentDocument())

	m.Reset()
	_, err = m.SendMessage(ctx, &bot.SendMessageParams{ChatID: int64(1)})
	require.NoError(t, err, "Reset clears the error fields")
}

func TestMockBot_EditAndAnswer(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m := NewMockBot()

	msg, err := m.EditMessageText(ctx, &bot.EditMessageTextParams{ChatID: int64(5), MessageID: 77, Text: "nuevo"})
	require.NoError(t, err)
	require.Equal(t, 77, msg.ID)
	require.Equal(t, EditedMessage{ChatID: 5, MessageID: 77, Text: "nuevo"}, *m.LastEditedMessage())

	ok, err := m.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{CallbackQueryID: "cb", Text: "✅", ShowAlert: true})
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, AnsweredCallback{CallbackQueryID: "cb", Text: "✅", ShowAlert: true}, *m.LastAnswer())
}

func TestMockBot_SendDocument(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m := NewMockBot()

	msg, err := m.SendDocument(ctx, &bot.SendDocumentParams{
		ChatID:   int64(3),
		Document: &models.InputFileUpload{Filename: "aportes.csv", Data: bytes.NewReader([]byte("Fecha,Meta\n"))},
		Caption:  "📄",
	})
	require.NoError(t, err)
	require.Equal(t, "aportes.csv", msg.Document.FileName)

	doc := m.LastSentDocument()
	require.Equal(t, "aportes.csv", doc.Filename)
	require.Equal(t, "Fecha,Meta\n", string(doc.Data))
	require.Equal(t, 1, m.SentDocumentCount())

	_, err = m.SendDocument(ctx, &bot.SendDocumentParams{ChatID: int64(3), Document: &models.InputFileString{Data: "file-id"}})
	require.NoError(t, err)
	require.Empty(t, m.LastSentDocument().Filename)
}

func TestMockBot_LastReturnsCopy(t *testing.T) {
	t.Parallel()
	m := NewMockBot()

	_, err := m.SendMessage(context.Background(), &bot.SendMessageParams{ChatID: int64(1), Text: "a"})
	require.NoError(t, err)

	m.LastSentMessage().Text = "changed"
	require.Equal(t, "a", m.LastSentMessage().Text)
}

func TestMockBot_Concurrent(t *testing.T) {
	t.Parallel()
	m := NewMockBot()

	done := make(chan struct{})
	for range 10 {
		go func() {
			defer func() { done <- struct{}{} }()
			_, _ = m.SendMessage(context.Background(), &bot.SendMessageParams{ChatID: int64(1)})
		}()
	}
	for range 10 {
		<-done
	}
	require.Equal(t, 10, m.SentMessageCount())
}
