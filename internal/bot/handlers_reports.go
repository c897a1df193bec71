package bot

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"gitlab.com/yelinaung/savings-tracker/internal/goals"
	"gitlab.com/yelinaung/savings-tracker/internal/logger"
	"gitlab.com/yelinaung/savings-tracker/internal/metrics"
)

var monthNames = [...]string{
	"enero", "febrero", "marzo", "abril", "mayo", "junio",
	"julio", "agosto", "septiembre", "octubre", "noviembre", "diciembre",
}

const exportContributions = "aportes"

// handleChart handles the /grafico command.
func (b *Bot) handleChart(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleChartCore(ctx, tgBot, update)
}

// handleChartCore is the testable implementation of handleChart.
func (b *Bot) handleChartCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID

	t, ok := b.linkedTracker(ctx, tg, chatID)
	if !ok {
		return
	}

	now := t.Now()
	month := fmt.Sprintf("%s %d", monthNames[now.Month()-1], now.Year())
	expenses := metrics.MonthExpenses(t.Document().Expenses, now)
	if len(expenses) == 0 {
		b.reply(ctx, tg, chatID, fmt.Sprintf("📊 No hay gastos en %s.", month))
		return
	}

	totals := metrics.CategoryTotals(expenses)
	chartData, err := GenerateExpenseChart(totals, "Gastos de "+month)
	if err != nil {
		logger.Log.Error().Err(err).Msg("Failed to generate chart")
		b.reply(ctx, tg, chatID, "❌ No se pudo generar el gráfico. Inténtalo de nuevo.")
		return
	}

	var caption strings.Builder
	fmt.Fprintf(&caption, "📊 <b>Gastos de %s</b>\n", month)
	for _, ct := range totals {
		fmt.Fprintf(&caption, "\n• %s: %s", escapeHTML(ct.Category), goals.FormatMoney(ct.Total))
	}

	_, err = tg.SendDocument(ctx, &bot.SendDocumentParams{
		ChatID: chatID,
		Document: &models.InputFileUpload{
			Filename: chartFilename(now),
			Data:     bytes.NewReader(chartData),
		},
		Caption:   caption.String(),
		ParseMode: models.ParseModeHTML,
	})
	if err != nil {
		logger.Log.Error().Err(err).Msg("Failed to send chart")
		b.reply(ctx, tg, chatID, "❌ No se pudo enviar el gráfico. Inténtalo de nuevo.")
	}
}

// handleExport handles the /exportar command.
func (b *Bot) handleExport(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleExportCore(ctx, tgBot, update)
}

// handleExportCore is the testable implementation of handleExport.
func (b *Bot) handleExportCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID

	args := strings.ToLower(extractCommandArgs(update.Message.Text, "/exportar"))
	if args != "" && args != exportContributions {
		b.reply(ctx, tg, chatID, "Uso: <code>/exportar</code> o <code>/exportar aportes</code>")
		return
	}

	t, ok := b.linkedTracker(ctx, tg, chatID)
	if !ok {
		return
	}

	now := t.Now()
	doc := t.Document()

	var (
		data     []byte
		filename string
		caption  string
		err      error
	)
	if args == exportContributions {
		feed := goals.ContributionFeed(doc.Goals)
		if len(feed) == 0 {
			b.reply(ctx, tg, chatID, "📄 Todavía no hay aportes.")
			return
		}
		data, err = goals.ContributionsCSV(feed)
		filename = contributionsFilename(now)
		caption = fmt.Sprintf("📄 Historial de aportes (%d)", len(feed))
	} else {
		incomes := metrics.FilterIncomes(doc.Incomes, metrics.PeriodMonth, "", now)
		expenses := metrics.MonthExpenses(doc.Expenses, now)
		if len(incomes)+len(expenses) == 0 {
			b.reply(ctx, tg, chatID, "📄 No hay movimientos este mes.")
			return
		}
		data, err = GenerateEntriesCSV(incomes, expenses)
		filename = entriesFilename(now)
		caption = fmt.Sprintf("📄 Movimientos de %s %d", monthNames[now.Month()-1], now.Year())
	}
	if err != nil {
		logger.Log.Error().Err(err).Msg("Failed to generate CSV")
		b.reply(ctx, tg, chatID, "❌ No se pudo generar el archivo. Inténtalo de nuevo.")
		return
	}

	_, err = tg.SendDocument(ctx, &bot.SendDocumentParams{
		ChatID: chatID,
		Document: &models.InputFileUpload{
			Filename: filename,
			Data:     bytes.NewReader(data),
		},
		Caption: caption,
	})
	if err != nil {
		logger.Log.Error().Err(err).Msg("Failed to send CSV")
		b.reply(ctx, tg, chatID, "❌ No se pudo enviar el archivo. Inténtalo de nuevo.")
	}
}
