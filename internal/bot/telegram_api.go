package bot

import (
	tgbot "github.com/go-telegram/bot"
	"gitlab.com/yelinaung/savings-tracker/internal/bot/mocks"
)

// TelegramAPI is the Telegram surface the handlers use. It is declared in
// mocks so the recording fake can implement it without importing bot.
type TelegramAPI = mocks.TelegramAPI

var _ TelegramAPI = (*tgbot.Bot)(nil)
