package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"gitlab.com/yelinaung/savings-tracker/internal/gemini"
	"gitlab.com/yelinaung/savings-tracker/internal/goals"
	"gitlab.com/yelinaung/savings-tracker/internal/logger"
	"gitlab.com/yelinaung/savings-tracker/internal/metrics"
	appmodels "gitlab.com/yelinaung/savings-tracker/internal/models"
	"gitlab.com/yelinaung/savings-tracker/internal/repository"
	"gitlab.com/yelinaung/savings-tracker/internal/tracker"
)

// extractCommandArgs strips the /command prefix (and optional @botname suffix)
// from a message and returns the remaining trimmed arguments.
func extractCommandArgs(text, command string) string {
	args := strings.TrimSpace(strings.TrimPrefix(text, command))
	if strings.HasPrefix(args, "@") {
		if spaceIdx := strings.Index(args, " "); spaceIdx != -1 {
			args = strings.TrimSpace(args[spaceIdx:])
		} else {
			args = ""
		}
	}
	return args
}

// formatGreeting returns a greeting suffix with the user's name.
func formatGreeting(firstName string) string {
	if firstName == "" {
		return ""
	}
	return ", " + escapeHTML(firstName)
}

// handleStart handles the /start command.
func (b *Bot) handleStart(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleStartCore(ctx, tgBot, update)
}

// handleStartCore is the testable implementation of handleStart.
func (b *Bot) handleStartCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.Message == nil {
		return
	}

	firstName := ""
	if update.Message.From != nil {
		firstName = update.Message.From.FirstName
	}

	text := fmt.Sprintf(`👋 ¡Hola%s!

Soy tu asistente de ahorro. Registra gastos e ingresos y sigue tus metas desde aquí.

<b>Para empezar:</b>
• Copia el código de sincronización de la web y envía <code>/vincular &lt;código&gt;</code>
• Después envía un gasto como <code>12,50 cena</code>

Usa /ayuda para ver todos los comandos.`,
		formatGreeting(firstName))

	b.reply(ctx, tg, update.Message.Chat.ID, text)
}

// handleHelp handles the /ayuda command.
func (b *Bot) handleHelp(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleHelpCore(ctx, tgBot, update)
}

// handleHelpCore is the testable implementation of handleHelp.
func (b *Bot) handleHelpCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.Message == nil {
		return
	}

	text := `📚 <b>Comandos disponibles</b>

<b>Cuenta:</b>
• <code>/vincular &lt;código&gt;</code> - Vincula este chat a tu cuenta
• <code>/desvincular</code> - Desvincula este chat

<b>Movimientos:</b>
• <code>12,50 cena</code> - Registra un gasto
• <code>/gasto &lt;monto&gt; &lt;descripción&gt; [categoría]</code> - Registra un gasto
• <code>/ingreso &lt;monto&gt; [nota]</code> - Registra un ingreso
• <code>/resumen</code> - Resumen del mes

<b>Metas:</b>
• <code>/metas</code> - Lista tus metas
• <code>/detalle &lt;n&gt;</code> - Detalle de una meta
• <code>/nuevameta &lt;monto&gt; [meses] &lt;nombre&gt;</code> - Crea una meta
• <code>/aportar &lt;n&gt; &lt;monto&gt; [nota]</code> - Aporta a una meta

<b>Informes:</b>
• <code>/grafico</code> - Gráfico de gastos del mes
• <code>/exportar</code> - Movimientos del mes en CSV
• <code>/exportar aportes</code> - Historial de aportes en CSV`

	b.reply(ctx, tg, update.Message.Chat.ID, text)
}

// handleLink handles the /vincular command.
func (b *Bot) handleLink(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleLinkCore(ctx, tgBot, update)
}

// handleLinkCore is the testable implementation of handleLink.
func (b *Bot) handleLinkCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID

	code := extractCommandArgs(update.Message.Text, "/vincular")
	if code == "" {
		b.reply(ctx, tg, chatID, "Uso: <code>/vincular &lt;código&gt;</code>\n\nEncontrarás el código de sincronización en tu perfil de la web.")
		return
	}

	user, err := b.accounts.GetBySyncCode(ctx, code)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			b.reply(ctx, tg, chatID, "❌ Código no válido. Revisa el código de sincronización de tu perfil.")
			return
		}
		logger.Log.Error().Err(err).Msg("Failed to look up sync code")
		b.reply(ctx, tg, chatID, "❌ No se pudo vincular el chat. Inténtalo de nuevo.")
		return
	}

	if err := b.links.Link(ctx, chatID, user.ID); err != nil {
		logger.Log.Error().Err(err).Str("user_hash", logger.HashUserID(user.ID)).Msg("Failed to link chat")
		b.reply(ctx, tg, chatID, "❌ No se pudo vincular el chat. Inténtalo de nuevo.")
		return
	}

	logger.Log.Info().
		Str("user_hash", logger.HashUserID(user.ID)).
		Str("chat_hash", logger.HashChatID(chatID)).
		Msg("Chat linked")
	b.reply(ctx, tg, chatID, fmt.Sprintf("✅ Chat vinculado a la cuenta de <b>%s</b>.", escapeHTML(user.Name)))
}

// handleUnlink handles the /desvincular command.
func (b *Bot) handleUnlink(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleUnlinkCore(ctx, tgBot, update)
}

// handleUnlinkCore is the testable implementation of handleUnlink.
func (b *Bot) handleUnlinkCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID

	if err := b.links.Unlink(ctx, chatID); err != nil {
		logger.Log.Error().Err(err).Str("chat_hash", logger.HashChatID(chatID)).Msg("Failed to unlink chat")
		b.reply(ctx, tg, chatID, "❌ No se pudo desvincular el chat. Inténtalo de nuevo.")
		return
	}
	b.reply(ctx, tg, chatID, "👋 Chat desvinculado. Ya no recibirás avisos aquí.")
}

// handleSummary handles the /resumen command.
func (b *Bot) handleSummary(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleSummaryCore(ctx, tgBot, update)
}

// handleSummaryCore is the testable implementation of handleSummary.
func (b *Bot) handleSummaryCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID

	t, ok := b.linkedTracker(ctx, tg, chatID)
	if !ok {
		return
	}

	d := t.Dashboard()
	m := d.Metrics

	var sb strings.Builder
	sb.WriteString("📊 <b>Resumen del mes</b>\n\n")
	fmt.Fprintf(&sb, "💰 Ingresos: %s\n", goals.FormatMoney(m.TotalIncomes))
	fmt.Fprintf(&sb, "🛒 Gastos: %s\n", goals.FormatMoney(m.TotalExpenses))
	fmt.Fprintf(&sb, "🔁 Suscripciones: %s\n", goals.FormatMoney(m.TotalSubs))
	fmt.Fprintf(&sb, "🏦 Ahorro: <b>%s</b>\n", goals.FormatMoney(m.Savings))
	fmt.Fprintf(&sb, "📈 Tasa de ahorro: %s%% (%s)\n", d.SavingsRate.Round(1).String(), d.Health)

	if top, found := metrics.TopCategory(metrics.MonthExpenses(t.Document().Expenses, t.Now())); found {
		fmt.Fprintf(&sb, "\nMayor gasto: %s (%s)", escapeHTML(top.Category), goals.FormatMoney(top.Total))
	}

	b.reply(ctx, tg, chatID, sb.String())
}

// handleIncome handles the /ingreso command.
func (b *Bot) handleIncome(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleIncomeCore(ctx, tgBot, update)
}

// handleIncomeCore is the testable implementation of handleIncome.
func (b *Bot) handleIncomeCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID

	parsed := ParseEntryInput(extractCommandArgs(update.Message.Text, "/ingreso"))
	if parsed == nil {
		b.reply(ctx, tg, chatID, "Uso: <code>/ingreso &lt;monto&gt; [nota]</code>\n\nEjemplo: <code>/ingreso 1500 nómina</code>")
		return
	}

	t, ok := b.linkedTracker(ctx, tg, chatID)
	if !ok {
		return
	}

	income, err := t.AddIncome(tracker.IncomeInput{
		Amount: appmodels.NewAmount(parsed.Amount),
		Notes:  parsed.Description,
	})
	if err != nil {
		logger.Log.Error().Err(err).Str("user_hash", logger.HashUserID(t.UserID())).Msg("Failed to add income")
		b.reply(ctx, tg, chatID, "❌ No se pudo registrar el ingreso.")
		return
	}

	b.reply(ctx, tg, chatID, fmt.Sprintf("✅ Ingreso registrado: <b>%s</b> (%s)",
		goals.FormatMoney(income.Amount.Decimal), escapeHTML(income.Type)))
}

// handleExpense handles the /gasto command.
func (b *Bot) handleExpense(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleExpenseCore(ctx, tgBot, update)
}

// handleExpenseCore is the testable implementation of handleExpense.
func (b *Bot) handleExpenseCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID

	parsed := ParseEntryWithCategories(extractCommandArgs(update.Message.Text, "/gasto"), appmodels.ExpenseCategories)
	if parsed == nil {
		b.reply(ctx, tg, chatID, "Uso: <code>/gasto &lt;monto&gt; &lt;descripción&gt; [categoría]</code>\n\nEjemplo: <code>/gasto 30 gasolina</code>")
		return
	}

	b.recordExpense(ctx, tg, chatID, parsed)
}

// handleFreeTextExpenseCore records messages like "12,50 cena" as expenses.
// It reports false when the message is not an expense.
func (b *Bot) handleFreeTextExpenseCore(ctx context.Context, tg TelegramAPI, update *models.Update) bool {
	if strings.HasPrefix(update.Message.Text, "/") {
		return false
	}

	parsed := ParseEntryWithCategories(update.Message.Text, appmodels.ExpenseCategories)
	if parsed == nil {
		return false
	}

	b.recordExpense(ctx, tg, update.Message.Chat.ID, parsed)
	return true
}

func (b *Bot) recordExpense(ctx context.Context, tg TelegramAPI, chatID int64, parsed *ParsedEntry) {
	t, ok := b.linkedTracker(ctx, tg, chatID)
	if !ok {
		return
	}

	category := b.resolveCategory(ctx, parsed)
	expense, err := t.AddExpense(tracker.ExpenseInput{
		Category: category,
		Amount:   appmodels.NewAmount(parsed.Amount),
		Notes:    parsed.Description,
	})
	if err != nil {
		logger.Log.Error().Err(err).Str("user_hash", logger.HashUserID(t.UserID())).Msg("Failed to add expense")
		b.reply(ctx, tg, chatID, "❌ No se pudo registrar el gasto.")
		return
	}

	text := fmt.Sprintf("✅ Gasto registrado: <b>%s</b> en %s", goals.FormatMoney(expense.Amount.Decimal), escapeHTML(expense.Category))
	if expense.Notes != "" {
		text += "\n📝 " + escapeHTML(expense.Notes)
	}
	b.reply(ctx, tg, chatID, text)
}

// resolveCategory picks the category of a parsed expense: an explicit
// category, then a keyword match, then the suggester, then Otros.
func (b *Bot) resolveCategory(ctx context.Context, parsed *ParsedEntry) string {
	if parsed.CategoryName != "" {
		return parsed.CategoryName
	}
	if parsed.Description == "" {
		return appmodels.ExpenseCategoryOther
	}
	if c := KeywordCategory(parsed.Description); c != "" {
		return c
	}

	if b.suggester != nil {
		suggestion, err := b.suggester.SuggestCategory(ctx, parsed.Description, appmodels.ExpenseCategories)
		if err != nil {
			logger.Log.Debug().Err(err).
				Str("description", logger.SanitizeDescription(parsed.Description)).
				Msg("Category suggestion failed")
		} else if suggestion.Confidence >= gemini.MinConfidence {
			if c := MatchCategory(suggestion.Category, appmodels.ExpenseCategories); c != "" {
				return c
			}
		}
	}

	return appmodels.ExpenseCategoryOther
}
