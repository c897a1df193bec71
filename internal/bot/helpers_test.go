package bot

import (
	"cmp"
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"gitlab.com/yelinaung/savings-tracker/internal/bot/mocks"
	"gitlab.com/yelinaung/savings-tracker/internal/config"
	"gitlab.com/yelinaung/savings-tracker/internal/gemini"
	"gitlab.com/yelinaung/savings-tracker/internal/goals"
	"gitlab.com/yelinaung/savings-tracker/internal/models"
	"gitlab.com/yelinaung/savings-tracker/internal/repository"
	"gitlab.com/yelinaung/savings-tracker/internal/tracker"
)

const (
	testChatID int64 = 5001
	testUserID int64 = 7001
	testOwner        = "u-ana"
)

var march15 = time.Date(2024, time.March, 15, 10, 0, 0, 0, time.UTC)

type fakeLinks struct {
	mu    sync.Mutex
	chats map[int64]string
	err   error
}

func newFakeLinks() *fakeLinks {
	return &fakeLinks{chats: make(map[int64]string)}
}

func (f *fakeLinks) Link(_ context.Context, chatID int64, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.chats[chatID] = userID
	return nil
}

func (f *fakeLinks) Unlink(_ context.Context, chatID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	delete(f.chats, chatID)
	return nil
}

func (f *fakeLinks) UserForChat(_ context.Context, chatID int64) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	userID, ok := f.chats[chatID]
	if !ok {
		return "", repository.ErrNotFound
	}
	return userID, nil
}

func (f *fakeLinks) ChatsForUser(ctx context.Context, userID string) ([]models.TelegramLink, error) {
	all, err := f.All(ctx)
	if err != nil {
		return nil, err
	}
	return slices.DeleteFunc(all, func(l models.TelegramLink) bool { return l.UserID != userID }), nil
}

func (f *fakeLinks) All(context.Context) ([]models.TelegramLink, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	var out []models.TelegramLink
	for chatID, userID := range f.chats {
		out = append(out, models.TelegramLink{ChatID: chatID, UserID: userID, LinkedAt: march15})
	}
	slices.SortFunc(out, func(a, b models.TelegramLink) int {
		if c := cmp.Compare(a.UserID, b.UserID); c != 0 {
			return c
		}
		return cmp.Compare(a.ChatID, b.ChatID)
	})
	return out, nil
}

type fakeAccounts map[string]*models.User

func (f fakeAccounts) GetBySyncCode(_ context.Context, code string) (*models.User, error) {
	if u, ok := f[strings.ToUpper(code)]; ok {
		return u, nil
	}
	return nil, repository.ErrNotFound
}

type fakeSuggester struct {
	mu         sync.Mutex
	suggestion *gemini.CategorySuggestion
	err        error
	calls      []string
}

func (f *fakeSuggester) SuggestCategory(_ context.Context, description string, _ []string) (*gemini.CategorySuggestion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, description)
	if f.err != nil {
		return nil, f.err
	}
	return f.suggestion, nil
}

type testEnv struct {
	bot       *Bot
	tg        *mocks.MockBot
	links     *fakeLinks
	registry  *tracker.Registry
	suggester *fakeSuggester
}

// newTestEnv builds a bot whose chat testChatID is linked to testOwner.
func newTestEnv(t *testing.T, now time.Time) *testEnv {
	t.Helper()

	registry := tracker.NewRegistry(tracker.NewMemoryStore(), nil, goals.NewEngine("https://ahorro.example"), nil)
	registry.SetClock(func() time.Time { return now })

	links := newFakeLinks()
	links.chats[testChatID] = testOwner

	suggester := &fakeSuggester{err: errors.New("not configured")}
	accounts := fakeAccounts{
		"AB12C": {ID: testOwner, Name: "Ana", Email: "ana@example.com", SyncCode: "AB12C"},
		"ZZ99Z": {ID: "u-luis", Name: "Luis <admin>", Email: "luis@example.com", SyncCode: "ZZ99Z"},
	}

	cfg := &config.Config{ReminderTimezone: "UTC"}
	b := newBot(cfg, Deps{
		Trackers:  registry,
		Links:     links,
		Accounts:  accounts,
		Suggester: suggester,
	})
	tg := mocks.NewMockBot()
	b.messageSender = tg

	return &testEnv{bot: b, tg: tg, links: links, registry: registry, suggester: suggester}
}

func (e *testEnv) tracker(t *testing.T) *tracker.Tracker {
	t.Helper()
	tr, err := e.registry.Get(context.Background(), testOwner)
	if err != nil {
		t.Fatalf("failed to load tracker: %v", err)
	}
	return tr
}

func (e *testEnv) lastText(t *testing.T) string {
	t.Helper()
	msg := e.tg.LastSentMessage()
	if msg == nil {
		t.Fatal("no message was sent")
	}
	return msg.Text
}

func boolPtr(b bool) *bool { return &b }

func strPtr(s string) *string { return &s }
