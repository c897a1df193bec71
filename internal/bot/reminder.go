package bot

import (
	"context"
	"fmt"
	"time"

	tgbot "github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"
	"gitlab.com/yelinaung/savings-tracker/internal/goals"
	"gitlab.com/yelinaung/savings-tracker/internal/logger"
	"gitlab.com/yelinaung/savings-tracker/internal/models"
	"gitlab.com/yelinaung/savings-tracker/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
)

const (
	// ReminderCheckInterval is how often the reminder loop checks for due reminders.
	ReminderCheckInterval = 15 * time.Minute
	// ReminderTimeout is the maximum time a single reminder check can take.
	ReminderTimeout = 2 * time.Minute
)

// startReminderLoop periodically sends the push reminders of every linked
// account to its chats.
func (b *Bot) startReminderLoop(ctx context.Context) {
	logger.Log.Info().
		Str("timezone", b.loc.String()).
		Dur("interval", ReminderCheckInterval).
		Msg("Reminder loop started")

	reminded := make(map[string]string)
	ticker := time.NewTicker(ReminderCheckInterval)
	defer ticker.Stop()

	select {
	case <-ctx.Done():
		logger.Log.Info().Msg("Reminder loop stopped")
		return
	default:
	}

	// Run one check immediately so reminders aren't skipped when the process
	// starts during the reminder hour.
	b.checkAndSendReminders(ctx, reminded, time.Now().In(b.loc))

	for {
		select {
		case <-ctx.Done():
			logger.Log.Info().Msg("Reminder loop stopped")
			return
		case <-ticker.C:
			b.checkAndSendReminders(ctx, reminded, time.Now().In(b.loc))
		}
	}
}

// checkAndSendReminders sends the due push reminders of every linked account
// and returns how many were delivered. The reminded map tracks which goals
// were already reminded during the current hour.
func (b *Bot) checkAndSendReminders(ctx context.Context, reminded map[string]string, now time.Time) int {
	checkCtx, cancel := context.WithTimeout(ctx, ReminderTimeout)
	defer cancel()

	slot := now.Format("2006-01-02T15")

	// Prune entries from previous hours so the map doesn't grow unbounded.
	for key, s := range reminded {
		if s != slot {
			delete(reminded, key)
		}
	}

	links, err := b.links.All(checkCtx)
	if err != nil {
		logger.Log.Error().Err(err).Msg("Failed to fetch chat links for reminders")
		return 0
	}

	chats := make(map[string][]int64)
	var users []string
	for _, l := range links {
		if _, seen := chats[l.UserID]; !seen {
			users = append(users, l.UserID)
		}
		chats[l.UserID] = append(chats[l.UserID], l.ChatID)
	}

	sent := 0
	for _, userID := range users {
		t, err := b.trackers.Get(checkCtx, userID)
		if err != nil {
			logger.Log.Warn().Err(err).Str("user_hash", logger.HashUserID(userID)).Msg("Failed to load tracker for reminders")
			continue
		}

		for _, r := range t.DueReminders() {
			if r.Channel != models.ChannelPush {
				continue
			}
			key := userID + "/" + r.GoalID
			if reminded[key] == slot {
				continue
			}
			if b.sendToChats(checkCtx, chats[userID], formatReminder(r)) == 0 {
				continue
			}
			reminded[key] = slot
			sent++
			telemetry.Add(checkCtx, telemetry.RemindersSent, 1, attribute.String("channel", r.Channel))
			logger.Log.Debug().
				Str("user_hash", logger.HashUserID(userID)).
				Str("goal_id", r.GoalID).
				Msg("Sent goal reminder")
		}
	}
	return sent
}

// formatReminder renders the reminder message of a goal.
func formatReminder(r goals.Reminder) string {
	return fmt.Sprintf("⏰ Recordatorio de <b>%s</b>\n\nTe faltan %s. Un aporte de %s te mantiene en camino.\n\nUsa /metas para aportar.",
		escapeHTML(r.GoalName), goals.FormatMoney(r.Remaining), goals.FormatMoney(r.Suggested))
}

// sendToChats sends text to every chat and returns how many deliveries succeeded.
func (b *Bot) sendToChats(ctx context.Context, chatIDs []int64, text string) int {
	delivered := 0
	for _, chatID := range chatIDs {
		_, err := b.messageSender.SendMessage(ctx, &tgbot.SendMessageParams{
			ChatID:    chatID,
			Text:      text,
			ParseMode: tgmodels.ParseModeHTML,
		})
		if err != nil {
			logger.Log.Warn().Err(err).Str("chat_hash", logger.HashChatID(chatID)).Msg("Failed to send notification")
			continue
		}
		delivered++
	}
	return delivered
}
