package bot

import (
	"context"
	"fmt"

	"gitlab.com/yelinaung/savings-tracker/internal/goals"
	"gitlab.com/yelinaung/savings-tracker/internal/tracker"
)

var _ tracker.Notifier = (*Bot)(nil)

// GoalCompleted announces a completed goal in every chat linked to userID.
func (b *Bot) GoalCompleted(ctx context.Context, userID string, event goals.CompletionEvent) error {
	links, err := b.links.ChatsForUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to get linked chats: %w", err)
	}
	if len(links) == 0 {
		return nil
	}

	chatIDs := make([]int64, 0, len(links))
	for _, l := range links {
		chatIDs = append(chatIDs, l.ChatID)
	}

	text := fmt.Sprintf("🎉 ¡Meta completada! Has alcanzado <b>%s</b>.", escapeHTML(event.GoalName))
	if b.sendToChats(ctx, chatIDs, text) == 0 {
		return fmt.Errorf("failed to deliver completion of goal %s", event.GoalID)
	}
	return nil
}
