// Package mocks provides a recording Telegram client and update fixtures
// for the bot handler tests.
package mocks

import (
	"context"
	"io"
	"sync"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// TelegramAPI is the part of *bot.Bot the handlers call. It lives here so
// the bot package and its tests share it without an import cycle.
type TelegramAPI interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
	EditMessageText(ctx context.Context, params *bot.EditMessageTextParams) (*models.Message, error)
	AnswerCallbackQuery(ctx context.Context, params *bot.AnswerCallbackQueryParams) (bool, error)
	SendDocument(ctx context.Context, params *bot.SendDocumentParams) (*models.Message, error)
}

var _ TelegramAPI = (*MockBot)(nil)

// FirstMessageID is the id of the first message a MockBot sends.
const FirstMessageID = 1000

// SentMessage is a recorded SendMessage call.
type SentMessage struct {
	ChatID      int64
	Text        string
	ParseMode   models.ParseMode
	ReplyMarkup models.ReplyMarkup
}

// EditedMessage is a recorded EditMessageText call.
type EditedMessage struct {
	ChatID      int64
	MessageID   int
	Text        string
	ParseMode   models.ParseMode
	ReplyMarkup models.ReplyMarkup
}

// AnsweredCallback is a recorded AnswerCallbackQuery call.
type AnsweredCallback struct {
	CallbackQueryID string
	Text            string
	ShowAlert       bool
}

// SentDocument is a recorded SendDocument call. Data holds the uploaded bytes.
type SentDocument struct {
	ChatID    int64
	Filename  string
	Data      []byte
	Caption   string
	ParseMode models.ParseMode
}

// MockBot records every call instead of talking to Telegram. Setting one of
// the error fields makes the matching method fail without recording.
type MockBot struct {
	mu sync.Mutex

	SentMessages      []SentMessage
	EditedMessages    []EditedMessage
	AnsweredCallbacks []AnsweredCallback
	SentDocuments     []SentDocument

	SendMessageError  error
	EditMessageError  error
	AnswerError       error
	SendDocumentError error

	nextID int
}

// NewMockBot creates an empty MockBot.
func NewMockBot() *MockBot {
	return &MockBot{nextID: FirstMessageID}
}

// chatID resolves the ChatID parameter, which Telegram accepts as a
// numeric id or an @username.
func chatID(v any) int64 {
	switch id := v.(type) {
	case int64:
		return id
	case int:
		return int64(id)
	}
	return 0
}

// message builds the reply of a send call. It runs under the lock.
func (m *MockBot) message(chat int64) *models.Message {
	msg := &models.Message{ID: m.nextID, Chat: models.Chat{ID: chat}}
	m.nextID++
	return msg
}

// SendMessage records the message.
func (m *MockBot) SendMessage(_ context.Context, params *bot.SendMessageParams) (*models.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SendMessageError != nil {
		return nil, m.SendMessageError
	}

	sent := SentMessage{
		ChatID:      chatID(params.ChatID),
		Text:        params.Text,
		ParseMode:   params.ParseMode,
		ReplyMarkup: params.ReplyMarkup,
	}
	m.SentMessages = append(m.SentMessages, sent)

	msg := m.message(sent.ChatID)
	msg.Text = sent.Text
	return msg, nil
}

// EditMessageText records the edit.
func (m *MockBot) EditMessageText(_ context.Context, params *bot.EditMessageTextParams) (*models.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.EditMessageError != nil {
		return nil, m.EditMessageError
	}

	edit := EditedMessage{
		ChatID:      chatID(params.ChatID),
		MessageID:   params.MessageID,
		Text:        params.Text,
		ParseMode:   params.ParseMode,
		ReplyMarkup: params.ReplyMarkup,
	}
	m.EditedMessages = append(m.EditedMessages, edit)

	return &models.Message{ID: edit.MessageID, Chat: models.Chat{ID: edit.ChatID}, Text: edit.Text}, nil
}

// AnswerCallbackQuery records the answer.
func (m *MockBot) AnswerCallbackQuery(_ context.Context, params *bot.AnswerCallbackQueryParams) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.AnswerError != nil {
		return false, m.AnswerError
	}

	m.AnsweredCallbacks = append(m.AnsweredCallbacks, AnsweredCallback{
		CallbackQueryID: params.CallbackQueryID,
		Text:            params.Text,
		ShowAlert:       params.ShowAlert,
	})
	return true, nil
}

// SendDocument records the document and reads an uploaded body.
func (m *MockBot) SendDocument(_ context.Context, params *bot.SendDocumentParams) (*models.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SendDocumentError != nil {
		return nil, m.SendDocumentError
	}

	doc := SentDocument{
		ChatID:    chatID(params.ChatID),
		Caption:   params.Caption,
		ParseMode: params.ParseMode,
	}
	if upload, ok := params.Document.(*models.InputFileUpload); ok {
		doc.Filename = upload.Filename
		if upload.Data != nil {
			data, err := io.ReadAll(upload.Data)
			if err != nil {
				return nil, err
			}
			doc.Data = data
		}
	}
	m.SentDocuments = append(m.SentDocuments, doc)

	msg := m.message(doc.ChatID)
	msg.Caption = doc.Caption
	msg.Document = &models.Document{FileID: "mock_file_id", FileName: doc.Filename}
	return msg, nil
}

// Reset forgets every recorded call and clears the error fields.
func (m *MockBot) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.SentMessages = nil
	m.EditedMessages = nil
	m.AnsweredCallbacks = nil
	m.SentDocuments = nil
	m.SendMessageError = nil
	m.EditMessageError = nil
	m.AnswerError = nil
	m.SendDocumentError = nil
}

func last[T any](s []T) *T {
	if len(s) == 0 {
		return nil
	}
	v := s[len(s)-1]
	return &v
}

// LastSentMessage returns a copy of the latest message, or nil.
func (m *MockBot) LastSentMessage() *SentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return last(m.SentMessages)
}

// LastEditedMessage returns a copy of the latest edit, or nil.
func (m *MockBot) LastEditedMessage() *EditedMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return last(m.EditedMessages)
}

// LastAnswer returns a copy of the latest callback answer, or nil.
func (m *MockBot) LastAnswer() *AnsweredCallback {
	m.mu.Lock()
	defer m.mu.Unlock()
	return last(m.AnsweredCallbacks)
}

// LastSentDocument returns a copy of the latest document, or nil.
func (m *MockBot) LastSentDocument() *SentDocument {
	m.mu.Lock()
	defer m.mu.Unlock()
	return last(m.SentDocuments)
}

// Messages returns a copy of every sent message.
func (m *MockBot) Messages() []SentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]SentMessage(nil), m.SentMessages...)
}

// MessagesTo returns the messages sent to chat.
func (m *MockBot) MessagesTo(chat int64) []SentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []SentMessage
	for _, msg := range m.SentMessages {
		if msg.ChatID == chat {
			out = append(out, msg)
		}
	}
	return out
}

// SentMessageCount returns the number of sent messages.
func (m *MockBot) SentMessageCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.SentMessages)
}

// SentDocumentCount returns the number of sent documents.
func (m *MockBot) SentDocumentCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.SentDocuments)
}
