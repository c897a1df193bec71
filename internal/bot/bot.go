// Package bot provides the Telegram front-end of the savings tracker.
package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"
	"gitlab.com/yelinaung/savings-tracker/internal/config"
	"gitlab.com/yelinaung/savings-tracker/internal/gemini"
	"gitlab.com/yelinaung/savings-tracker/internal/logger"
	"gitlab.com/yelinaung/savings-tracker/internal/models"
	"gitlab.com/yelinaung/savings-tracker/internal/repository"
	"gitlab.com/yelinaung/savings-tracker/internal/telemetry"
	"gitlab.com/yelinaung/savings-tracker/internal/tracker"
	"go.opentelemetry.io/otel/attribute"
)

// Trackers resolves the live tracker of an account.
type Trackers interface {
	Get(ctx context.Context, userID string) (*tracker.Tracker, error)
}

// ChatLinks stores which chats are bound to which accounts.
type ChatLinks interface {
	Link(ctx context.Context, chatID int64, userID string) error
	Unlink(ctx context.Context, chatID int64) error
	UserForChat(ctx context.Context, chatID int64) (string, error)
	ChatsForUser(ctx context.Context, userID string) ([]models.TelegramLink, error)
	All(ctx context.Context) ([]models.TelegramLink, error)
}

// Accounts looks up accounts by their sync code.
type Accounts interface {
	GetBySyncCode(ctx context.Context, code string) (*models.User, error)
}

// CategorySuggester picks an expense category for a free-text description.
type CategorySuggester interface {
	SuggestCategory(ctx context.Context, description string, categories []string) (*gemini.CategorySuggestion, error)
}

// Deps are the application services the bot talks to.
type Deps struct {
	Trackers  Trackers
	Links     ChatLinks
	Accounts  Accounts
	Suggester CategorySuggester // optional
}

// Bot wraps the Telegram bot with application dependencies.
type Bot struct {
	bot           *bot.Bot
	cfg           *config.Config
	trackers      Trackers
	links         ChatLinks
	accounts      Accounts
	suggester     CategorySuggester
	messageSender TelegramAPI
	loc           *time.Location
}

// New creates a new Bot instance.
func New(cfg *config.Config, deps Deps) (*Bot, error) {
	b := newBot(cfg, deps)

	opts := []bot.Option{
		bot.WithMiddlewares(b.logMiddleware),
		bot.WithDefaultHandler(b.defaultHandler),
	}

	telegramBot, err := bot.New(cfg.TelegramBotToken, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	b.bot = telegramBot
	b.messageSender = telegramBot
	b.registerHandlers()

	return b, nil
}

func newBot(cfg *config.Config, deps Deps) *Bot {
	return &Bot{
		cfg:       cfg,
		trackers:  deps.Trackers,
		links:     deps.Links,
		accounts:  deps.Accounts,
		suggester: deps.Suggester,
		loc:       cfg.Location(),
	}
}

// Start runs the reminder loop and polls for updates until ctx is done.
func (b *Bot) Start(ctx context.Context) {
	go b.startReminderLoop(ctx)

	logger.Log.Info().Msg("Bot started polling")
	b.bot.Start(ctx)
}

// registerHandlers sets up command handlers.
func (b *Bot) registerHandlers() {
	b.bot.RegisterHandler(bot.HandlerTypeMessageText, "/start", bot.MatchTypePrefix, b.handleStart)
	b.bot.RegisterHandler(bot.HandlerTypeMessageText, "/ayuda", bot.MatchTypePrefix, b.handleHelp)
	b.bot.RegisterHandler(bot.HandlerTypeMessageText, "/help", bot.MatchTypePrefix, b.handleHelp)
	b.bot.RegisterHandler(bot.HandlerTypeMessageText, "/vincular", bot.MatchTypePrefix, b.handleLink)
	b.bot.RegisterHandler(bot.HandlerTypeMessageText, "/desvincular", bot.MatchTypePrefix, b.handleUnlink)
	b.bot.RegisterHandler(bot.HandlerTypeMessageText, "/resumen", bot.MatchTypePrefix, b.handleSummary)
	b.bot.RegisterHandler(bot.HandlerTypeMessageText, "/ingreso", bot.MatchTypePrefix, b.handleIncome)
	b.bot.RegisterHandler(bot.HandlerTypeMessageText, "/gasto", bot.MatchTypePrefix, b.handleExpense)
	b.bot.RegisterHandler(bot.HandlerTypeMessageText, "/metas", bot.MatchTypePrefix, b.handleGoals)
	b.bot.RegisterHandler(bot.HandlerTypeMessageText, "/nuevameta", bot.MatchTypePrefix, b.handleNewGoal)
	b.bot.RegisterHandler(bot.HandlerTypeMessageText, "/detalle", bot.MatchTypePrefix, b.handleGoal)
	b.bot.RegisterHandler(bot.HandlerTypeMessageText, "/aportar", bot.MatchTypePrefix, b.handleContribute)
	b.bot.RegisterHandler(bot.HandlerTypeMessageText, "/grafico", bot.MatchTypePrefix, b.handleChart)
	b.bot.RegisterHandler(bot.HandlerTypeMessageText, "/exportar", bot.MatchTypePrefix, b.handleExport)

	b.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, callbackContribute, bot.MatchTypePrefix, b.handleContributeCallback)
	b.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, callbackReport, bot.MatchTypePrefix, b.handleReportCallback)
}

// logMiddleware logs every update and counts handled commands.
func (b *Bot) logMiddleware(next bot.HandlerFunc) bot.HandlerFunc {
	return func(ctx context.Context, tgBot *bot.Bot, update *tgmodels.Update) {
		chatID := extractChatID(update)
		if chatID == 0 {
			return
		}

		logUserAction(chatID, update)
		if cmd := extractCommand(update); cmd != "" {
			telemetry.Add(ctx, telemetry.BotCommandsHandled, 1, attribute.String("command", cmd))
		}

		next(ctx, tgBot, update)
	}
}

// logUserAction logs the user's input without its content.
func logUserAction(chatID int64, update *tgmodels.Update) {
	switch {
	case update.Message != nil:
		logger.Log.Info().
			Str("chat_hash", logger.HashChatID(chatID)).
			Str("text", logger.SanitizeText(update.Message.Text)).
			Msg("User input")

	case update.CallbackQuery != nil:
		logger.Log.Info().
			Str("chat_hash", logger.HashChatID(chatID)).
			Str("data", update.CallbackQuery.Data).
			Msg("Callback query")
	}
}

// extractCommand returns the leading /command of a message, if any.
func extractCommand(update *tgmodels.Update) string {
	if update.Message == nil || !strings.HasPrefix(update.Message.Text, "/") {
		return ""
	}
	cmd, _, _ := strings.Cut(update.Message.Text, " ")
	cmd, _, _ = strings.Cut(cmd, "@")
	return cmd
}

// extractChatID gets the chat ID from various update types.
func extractChatID(update *tgmodels.Update) int64 {
	if update.Message != nil {
		return update.Message.Chat.ID
	}
	if update.CallbackQuery != nil && update.CallbackQuery.Message.Message != nil {
		return update.CallbackQuery.Message.Message.Chat.ID
	}
	return 0
}

// linkedUser returns the account bound to chatID. When the chat is not linked
// it tells the user how to link it and reports false.
func (b *Bot) linkedUser(ctx context.Context, tg TelegramAPI, chatID int64) (string, bool) {
	userID, err := b.links.UserForChat(ctx, chatID)
	if err == nil {
		return userID, true
	}

	text := "🔗 Este chat no está vinculado. Usa <code>/vincular &lt;código&gt;</code> con el código de sincronización de la web."
	if !errors.Is(err, repository.ErrNotFound) {
		logger.Log.Error().Err(err).Str("chat_hash", logger.HashChatID(chatID)).Msg("Failed to resolve chat link")
		text = "❌ No se pudo consultar tu cuenta. Inténtalo de nuevo."
	}
	b.reply(ctx, tg, chatID, text)
	return "", false
}

// linkedTracker resolves the tracker of the account bound to chatID.
func (b *Bot) linkedTracker(ctx context.Context, tg TelegramAPI, chatID int64) (*tracker.Tracker, bool) {
	userID, ok := b.linkedUser(ctx, tg, chatID)
	if !ok {
		return nil, false
	}

	t, err := b.trackers.Get(ctx, userID)
	if err != nil {
		logger.Log.Error().Err(err).Str("user_hash", logger.HashUserID(userID)).Msg("Failed to load tracker")
		b.reply(ctx, tg, chatID, "❌ No se pudieron cargar tus datos. Inténtalo de nuevo.")
		return nil, false
	}
	return t, true
}

// reply sends an HTML message and logs failures.
func (b *Bot) reply(ctx context.Context, tg TelegramAPI, chatID int64, text string) {
	_, err := tg.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    chatID,
		Text:      text,
		ParseMode: tgmodels.ParseModeHTML,
	})
	if err != nil {
		logger.Log.Error().Err(err).Str("chat_hash", logger.HashChatID(chatID)).Msg("Failed to send message")
	}
}

// defaultHandler handles unrecognized messages, attempting free-text expense parsing.
func (b *Bot) defaultHandler(ctx context.Context, tgBot *bot.Bot, update *tgmodels.Update) {
	b.defaultHandlerCore(ctx, tgBot, update)
}

func (b *Bot) defaultHandlerCore(ctx context.Context, tg TelegramAPI, update *tgmodels.Update) {
	if update.Message == nil {
		return
	}

	if b.handleFreeTextExpenseCore(ctx, tg, update) {
		return
	}

	b.reply(ctx, tg, update.Message.Chat.ID,
		"No te he entendido. Usa /ayuda para ver los comandos, o envía un gasto como <code>12,50 cena</code>")
}

// escapeHTML escapes HTML special characters for safe interpolation in Telegram HTML messages.
func escapeHTML(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	return s
}
