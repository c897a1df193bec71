package bot

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/shopspring/decimal"
	"gitlab.com/yelinaung/savings-tracker/internal/goals"
	"gitlab.com/yelinaung/savings-tracker/internal/logger"
	appmodels "gitlab.com/yelinaung/savings-tracker/internal/models"
	"gitlab.com/yelinaung/savings-tracker/internal/tracker"
)

// Callback data prefixes.
const (
	callbackContribute = "aportar:"
	callbackReport     = "informe:"
)

// quickAmounts are the one-tap contribution buttons of a goal.
var quickAmounts = []int64{10, 50, 100}

const defaultAuthor = "Telegram"

// formatGoalLine renders one line of the /metas list.
func formatGoalLine(n int, v goals.View) string {
	status := "🎯"
	if v.IsCompleted() {
		status = "✅"
	}
	return fmt.Sprintf("%s %d. <b>%s</b> %s / %s (%s%%)",
		status, n, escapeHTML(v.Name),
		goals.FormatMoney(v.Saved.Decimal), goals.FormatMoney(v.Cost.Decimal),
		v.Insights.Progress.Round(0).String())
}

// formatGoalDetail renders a goal with its insights.
func formatGoalDetail(v goals.View) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "🎯 <b>%s</b> (%s)\n\n", escapeHTML(v.Name), escapeHTML(v.Category))
	fmt.Fprintf(&sb, "Ahorrado: %s de %s (%s%%)\n",
		goals.FormatMoney(v.Saved.Decimal), goals.FormatMoney(v.Cost.Decimal), v.Insights.Progress.Round(0).String())

	if v.IsCompleted() {
		fmt.Fprintf(&sb, "✅ Completada el %s\n", v.CompletedAt.Time().Format("02/01/2006"))
		return sb.String()
	}

	fmt.Fprintf(&sb, "Falta: %s\n", goals.FormatMoney(v.Insights.RemainingAmount))
	fmt.Fprintf(&sb, "Fecha límite: %s (%d días)\n", v.Deadline.Time().Format("02/01/2006"), v.Insights.DaysLeft)
	fmt.Fprintf(&sb, "Sugerido: %s al mes\n", goals.FormatMoney(v.Insights.AutoMonthly))
	fmt.Fprintf(&sb, "Estado: %s", v.Insights.Badge)
	return sb.String()
}

// goalKeyboard builds the inline actions of a goal.
func goalKeyboard(g appmodels.Goal) *models.InlineKeyboardMarkup {
	var rows [][]models.InlineKeyboardButton
	if !g.IsCompleted() {
		row := make([]models.InlineKeyboardButton, 0, len(quickAmounts))
		for _, amount := range quickAmounts {
			row = append(row, models.InlineKeyboardButton{
				Text:         fmt.Sprintf("+%d €", amount),
				CallbackData: fmt.Sprintf("%s%s:%d", callbackContribute, g.ID, amount),
			})
		}
		rows = append(rows, row)
	}
	rows = append(rows, []models.InlineKeyboardButton{
		{Text: "📄 Informe", CallbackData: callbackReport + g.ID},
	})
	return &models.InlineKeyboardMarkup{InlineKeyboard: rows}
}

// goalAt returns the goal at 1-based position n of the /metas list.
func goalAt(t *tracker.Tracker, n int) (goals.View, bool) {
	views := t.Goals()
	if n < 1 || n > len(views) {
		return goals.View{}, false
	}
	return views[n-1], true
}

// authorName is the contribution author recorded for a Telegram user.
func authorName(from *models.User) string {
	if from == nil || strings.TrimSpace(from.FirstName) == "" {
		return defaultAuthor
	}
	return strings.TrimSpace(from.FirstName)
}

// handleGoals handles the /metas command.
func (b *Bot) handleGoals(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleGoalsCore(ctx, tgBot, update)
}

// handleGoalsCore is the testable implementation of handleGoals.
func (b *Bot) handleGoalsCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID

	t, ok := b.linkedTracker(ctx, tg, chatID)
	if !ok {
		return
	}

	views := t.Goals()
	if len(views) == 0 {
		b.reply(ctx, tg, chatID, "Aún no tienes metas. Crea una con <code>/nuevameta 1200 12 Viaje</code>")
		return
	}

	var sb strings.Builder
	sb.WriteString("🎯 <b>Tus metas</b>\n\n")
	for i, v := range views {
		sb.WriteString(formatGoalLine(i+1, v))
		sb.WriteString("\n")
	}

	all := make([]appmodels.Goal, 0, len(views))
	for _, v := range views {
		all = append(all, v.Goal)
	}
	s := goals.Summarize(all, goals.CategoryAll)
	fmt.Fprintf(&sb, "\nActivas: %d · Completadas: %d\nAhorrado: %s · Pendiente: %s",
		s.Active, s.Completed, goals.FormatMoney(s.TotalSaved), goals.FormatMoney(s.TotalPending))
	sb.WriteString("\n\nUsa <code>/detalle &lt;n&gt;</code> para ver una meta.")

	b.reply(ctx, tg, chatID, sb.String())
}

// handleGoal handles the /detalle command.
func (b *Bot) handleGoal(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleGoalCore(ctx, tgBot, update)
}

// handleGoalCore is the testable implementation of handleGoal.
func (b *Bot) handleGoalCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID

	var n int
	if _, err := fmt.Sscanf(extractCommandArgs(update.Message.Text, "/detalle"), "%d", &n); err != nil {
		b.reply(ctx, tg, chatID, "Uso: <code>/detalle &lt;n&gt;</code>, donde n es el número que muestra /metas")
		return
	}

	t, ok := b.linkedTracker(ctx, tg, chatID)
	if !ok {
		return
	}

	v, found := goalAt(t, n)
	if !found {
		b.reply(ctx, tg, chatID, fmt.Sprintf("❌ No existe la meta %d. Usa /metas para ver la lista.", n))
		return
	}

	_, err := tg.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      chatID,
		Text:        formatGoalDetail(v),
		ParseMode:   models.ParseModeHTML,
		ReplyMarkup: goalKeyboard(v.Goal),
	})
	if err != nil {
		logger.Log.Error().Err(err).Msg("Failed to send goal detail")
	}
}

// handleNewGoal handles the /nuevameta command.
func (b *Bot) handleNewGoal(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleNewGoalCore(ctx, tgBot, update)
}

// handleNewGoalCore is the testable implementation of handleNewGoal.
func (b *Bot) handleNewGoalCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID

	parsed := ParseGoalInput(extractCommandArgs(update.Message.Text, "/nuevameta"))
	if parsed == nil {
		b.reply(ctx, tg, chatID, "Uso: <code>/nuevameta &lt;monto&gt; [meses] &lt;nombre&gt;</code>\n\nEjemplo: <code>/nuevameta 1200 12 Viaje a Roma</code>")
		return
	}

	t, ok := b.linkedTracker(ctx, tg, chatID)
	if !ok {
		return
	}

	g, err := t.CreateGoal(goals.NewGoal{
		Name:            parsed.Name,
		Cost:            appmodels.NewAmount(parsed.Cost),
		Months:          parsed.Months,
		ReminderChannel: appmodels.ChannelPush,
	})
	if err != nil {
		logger.Log.Error().Err(err).Str("user_hash", logger.HashUserID(t.UserID())).Msg("Failed to create goal")
		b.reply(ctx, tg, chatID, "❌ No se pudo crear la meta.")
		return
	}

	v := goals.View{Goal: g, Insights: goals.ComputeInsights(g, t.Now())}
	b.reply(ctx, tg, chatID, fmt.Sprintf("✅ Meta creada: <b>%s</b> por %s hasta el %s.\nSugerido: %s al mes.",
		escapeHTML(g.Name), goals.FormatMoney(g.Cost.Decimal),
		g.Deadline.Time().Format("02/01/2006"), goals.FormatMoney(v.Insights.AutoMonthly)))
}

// handleContribute handles the /aportar command.
func (b *Bot) handleContribute(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleContributeCore(ctx, tgBot, update)
}

// handleContributeCore is the testable implementation of handleContribute.
func (b *Bot) handleContributeCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID

	parsed := ParseContributionInput(extractCommandArgs(update.Message.Text, "/aportar"))
	if parsed == nil {
		b.reply(ctx, tg, chatID, "Uso: <code>/aportar &lt;n&gt; &lt;monto&gt; [nota]</code>\n\nEjemplo: <code>/aportar 1 50 paga extra</code>")
		return
	}

	t, ok := b.linkedTracker(ctx, tg, chatID)
	if !ok {
		return
	}

	v, found := goalAt(t, parsed.Index)
	if !found {
		b.reply(ctx, tg, chatID, fmt.Sprintf("❌ No existe la meta %d. Usa /metas para ver la lista.", parsed.Index))
		return
	}
	if v.IsCompleted() {
		b.reply(ctx, tg, chatID, fmt.Sprintf("✅ La meta <b>%s</b> ya está completada.", escapeHTML(v.Name)))
		return
	}

	res, err := t.Contribute(ctx, v.ID, goals.ContributionInput{
		Amount: appmodels.NewAmount(parsed.Amount),
		Note:   parsed.Note,
		Author: authorName(update.Message.From),
	})
	if err != nil {
		logger.Log.Error().Err(err).Str("user_hash", logger.HashUserID(t.UserID())).Msg("Failed to add contribution")
		b.reply(ctx, tg, chatID, "❌ No se pudo registrar el aporte.")
		return
	}

	b.reply(ctx, tg, chatID, contributionText(parsed.Amount, res))
}

// contributionText confirms a contribution. Completion itself is announced
// by the completion notifier.
func contributionText(amount decimal.Decimal, res tracker.ContributionResult) string {
	g := res.Goal
	text := fmt.Sprintf("✅ Aporte de %s a <b>%s</b>.\nLlevas %s de %s.",
		goals.FormatMoney(amount), escapeHTML(g.Name),
		goals.FormatMoney(g.Saved.Decimal), goals.FormatMoney(g.Cost.Decimal))
	if res.Renewed != nil {
		text += fmt.Sprintf("\n🔁 Nuevo ciclo creado hasta el %s.", res.Renewed.Deadline.Time().Format("02/01/2006"))
	}
	return text
}

// handleContributeCallback handles the quick contribution buttons.
func (b *Bot) handleContributeCallback(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleContributeCallbackCore(ctx, tgBot, update)
}

// handleContributeCallbackCore is the testable implementation of handleContributeCallback.
func (b *Bot) handleContributeCallbackCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	cq := update.CallbackQuery
	if cq == nil || cq.Message.Message == nil {
		return
	}
	chatID := cq.Message.Message.Chat.ID
	messageID := cq.Message.Message.ID

	goalID, amountStr, found := strings.Cut(strings.TrimPrefix(cq.Data, callbackContribute), ":")
	amount, err := decimal.NewFromString(amountStr)
	if !found || goalID == "" || err != nil || !amount.IsPositive() {
		b.answer(ctx, tg, cq.ID, "❌ Acción no válida")
		return
	}

	t, ok := b.linkedTracker(ctx, tg, chatID)
	if !ok {
		b.answer(ctx, tg, cq.ID, "")
		return
	}

	res, err := t.Contribute(ctx, goalID, goals.ContributionInput{
		Amount: appmodels.NewAmount(amount),
		Author: authorName(&cq.From),
	})
	if err != nil {
		if errors.Is(err, tracker.ErrGoalNotFound) {
			b.answer(ctx, tg, cq.ID, "❌ La meta ya no existe")
			return
		}
		logger.Log.Error().Err(err).Str("user_hash", logger.HashUserID(t.UserID())).Msg("Failed to add contribution")
		b.answer(ctx, tg, cq.ID, "❌ No se pudo registrar el aporte")
		return
	}

	b.answer(ctx, tg, cq.ID, "✅ Aporte de "+goals.FormatMoney(amount))

	v := goals.View{Goal: res.Goal, Insights: goals.ComputeInsights(res.Goal, t.Now())}
	_, err = tg.EditMessageText(ctx, &bot.EditMessageTextParams{
		ChatID:      chatID,
		MessageID:   messageID,
		Text:        formatGoalDetail(v),
		ParseMode:   models.ParseModeHTML,
		ReplyMarkup: goalKeyboard(res.Goal),
	})
	if err != nil {
		logger.Log.Error().Err(err).Msg("Failed to update goal message")
	}
}

// handleReportCallback sends the text report of a goal.
func (b *Bot) handleReportCallback(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleReportCallbackCore(ctx, tgBot, update)
}

// handleReportCallbackCore is the testable implementation of handleReportCallback.
func (b *Bot) handleReportCallbackCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	cq := update.CallbackQuery
	if cq == nil || cq.Message.Message == nil {
		return
	}
	chatID := cq.Message.Message.Chat.ID
	goalID := strings.TrimPrefix(cq.Data, callbackReport)

	t, ok := b.linkedTracker(ctx, tg, chatID)
	if !ok {
		b.answer(ctx, tg, cq.ID, "")
		return
	}

	v, err := t.Goal(goalID)
	if err != nil {
		b.answer(ctx, tg, cq.ID, "❌ La meta ya no existe")
		return
	}

	b.answer(ctx, tg, cq.ID, "📄 Generando informe...")

	_, err = tg.SendDocument(ctx, &bot.SendDocumentParams{
		ChatID: chatID,
		Document: &models.InputFileUpload{
			Filename: goals.ReportFilename(v.Goal),
			Data:     bytes.NewReader([]byte(goals.Report(v.Goal))),
		},
		Caption:   fmt.Sprintf("📄 Informe de <b>%s</b>", escapeHTML(v.Name)),
		ParseMode: models.ParseModeHTML,
	})
	if err != nil {
		logger.Log.Error().Err(err).Msg("Failed to send goal report")
	}
}

// answer acknowledges a callback query.
func (b *Bot) answer(ctx context.Context, tg TelegramAPI, callbackID, text string) {
	_, err := tg.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: callbackID,
		Text:            text,
	})
	if err != nil {
		logger.Log.Error().Err(err).Msg("Failed to answer callback query")
	}
}
