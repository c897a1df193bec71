package mocks

import "github.com/go-telegram/bot/models"

// Defaults of the generated updates.
const (
	DefaultMessageID  = 1
	DefaultCallbackID = "callback-query-id"
	DefaultFirstName  = "Test"
)

// UpdateOption customizes a generated update.
type UpdateOption func(*models.Update)

// WithSender replaces the name of the sender.
func WithSender(firstName, username string) UpdateOption {
	return func(u *models.Update) {
		if from := sender(u); from != nil {
			from.FirstName = firstName
			from.Username = username
		}
	}
}

// WithoutSender drops the sender of a message, as in channel posts.
func WithoutSender() UpdateOption {
	return func(u *models.Update) {
		if u.Message != nil {
			u.Message.From = nil
		}
	}
}

// WithMessageID sets the id of the message or of the message a callback
// belongs to.
func WithMessageID(id int) UpdateOption {
	return func(u *models.Update) {
		switch {
		case u.Message != nil:
			u.Message.ID = id
		case u.CallbackQuery != nil && u.CallbackQuery.Message.Message != nil:
			u.CallbackQuery.Message.Message.ID = id
		}
	}
}

// WithCallbackID sets the id of a callback query.
func WithCallbackID(id string) UpdateOption {
	return func(u *models.Update) {
		if u.CallbackQuery != nil {
			u.CallbackQuery.ID = id
		}
	}
}

func sender(u *models.Update) *models.User {
	switch {
	case u.Message != nil:
		return u.Message.From
	case u.CallbackQuery != nil:
		return &u.CallbackQuery.From
	}
	return nil
}

func user(userID int64) models.User {
	return models.User{ID: userID, FirstName: DefaultFirstName, Username: "testuser"}
}

func privateChat(chatID int64) models.Chat {
	return models.Chat{ID: chatID, Type: "private"}
}

func apply(u *models.Update, opts []UpdateOption) *models.Update {
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// MessageUpdate creates a private text message from userID in chatID.
func MessageUpdate(chatID, userID int64, text string, opts ...UpdateOption) *models.Update {
	from := user(userID)
	return apply(&models.Update{
		Message: &models.Message{
			ID:   DefaultMessageID,
			Chat: privateChat(chatID),
			From: &from,
			Text: text,
		},
	}, opts)
}

// CommandUpdate creates a message carrying a command such as "/metas 1".
func CommandUpdate(chatID, userID int64, command string, opts ...UpdateOption) *models.Update {
	return MessageUpdate(chatID, userID, command, opts...)
}

// CallbackQueryUpdate creates an inline button press on messageID.
func CallbackQueryUpdate(chatID, userID int64, messageID int, data string, opts ...UpdateOption) *models.Update {
	return apply(&models.Update{
		CallbackQuery: &models.CallbackQuery{
			ID:   DefaultCallbackID,
			From: user(userID),
			Message: models.MaybeInaccessibleMessage{
				Message: &models.Message{ID: messageID, Chat: privateChat(chatID)},
			},
			Data: data,
		},
	}, opts)
}
