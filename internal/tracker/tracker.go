// Package tracker holds the authoritative in-memory Document of each user
// and applies view-layer intents to it through the metrics and goal engines.
package tracker

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"time"

	"gitlab.com/yelinaung/savings-tracker/internal/goals"
	"gitlab.com/yelinaung/savings-tracker/internal/logger"
	"gitlab.com/yelinaung/savings-tracker/internal/metrics"
	"gitlab.com/yelinaung/savings-tracker/internal/models"
	"gitlab.com/yelinaung/savings-tracker/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
)

// Errors returned by Tracker intents.
var (
	ErrGoalNotFound        = errors.New("goal not found")
	ErrEntryNotFound       = errors.New("entry not found")
	ErrNegativeAmount      = errors.New("amount must not be negative")
	ErrInvalidCategory     = errors.New("invalid expense category")
	ErrSubscriptionName    = errors.New("subscription name is required")
	ErrInvalidSubscription = errors.New("invalid subscription type")
	ErrInvalidCadence      = errors.New("invalid reminder cadence")
	ErrInvalidChannel      = errors.New("invalid reminder channel")
	ErrInvalidReminderHour = errors.New("invalid reminder hour")
)

// IncomeInput is the input of AddIncome.
type IncomeInput struct {
	Type   string        `json:"type"`
	Amount models.Amount `json:"amount"`
	Date   models.Date   `json:"date"`
	Notes  string        `json:"notes"`
}

// ExpenseInput is the input of AddExpense.
type ExpenseInput struct {
	Category string        `json:"category"`
	Amount   models.Amount `json:"amount"`
	Date     models.Date   `json:"date"`
	Notes    string        `json:"notes"`
}

// SubscriptionInput is the input of AddSubscription.
type SubscriptionInput struct {
	Name      string        `json:"name"`
	Cost      models.Amount `json:"cost"`
	Type      string        `json:"type"`
	Frequency string        `json:"frequency"`
	StartDate models.Date   `json:"startDate"`
	EndDate   models.Date   `json:"endDate"`
}

// ContributionResult is the outcome of a goal contribution.
type ContributionResult struct {
	Goal models.Goal `json:"goal"`
	// Completed is set when this contribution completed the goal.
	Completed *goals.CompletionEvent `json:"completed,omitempty"`
	// Renewed is the next cycle spawned for a recurring goal.
	Renewed *models.Goal `json:"renewed,omitempty"`
}

// Saver receives document snapshots after every mutation.
type Saver interface {
	Enqueue(userID string, doc *models.Document)
}

// Tracker serializes the intents of one user over an in-memory Document.
type Tracker struct {
	userID   string
	engine   *goals.Engine
	saver    Saver
	notifier Notifier
	now      func() time.Time

	mu  sync.Mutex
	doc *models.Document
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

// WithNotifier sets the receiver of goal completion events.
func WithNotifier(n Notifier) Option {
	return func(t *Tracker) { t.notifier = n }
}

// New creates a Tracker for userID. A nil doc starts from defaults.
func New(userID string, doc *models.Document, engine *goals.Engine, saver Saver, opts ...Option) *Tracker {
	if doc == nil {
		doc = models.NewDocument()
	}
	doc.Normalize()

	t := &Tracker{
		userID:   userID,
		engine:   engine,
		saver:    saver,
		notifier: NopNotifier{},
		now:      time.Now,
		doc:      doc,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// UserID returns the owner of the tracker.
func (t *Tracker) UserID() string {
	return t.userID
}

// Now returns the tracker clock.
func (t *Tracker) Now() time.Time {
	return t.now()
}

// Document returns a deep copy of the current document.
func (t *Tracker) Document() *models.Document {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.doc.Clone()
}

// Metrics recomputes the metrics of the current document.
func (t *Tracker) Metrics() metrics.Metrics {
	t.mu.Lock()
	defer t.mu.Unlock()
	return metrics.Compute(t.doc, t.now())
}

// Dashboard recomputes the dashboard of the current document.
func (t *Tracker) Dashboard() metrics.Dashboard {
	t.mu.Lock()
	defer t.mu.Unlock()
	return metrics.BuildDashboard(t.doc, t.now())
}

// errUnchanged tells mutate that fn left the document as it was.
var errUnchanged = errors.New("document unchanged")

// mutate runs fn under the lock and, when it changed the document, hands a
// snapshot to the saver.
func (t *Tracker) mutate(fn func(doc *models.Document, now time.Time) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := fn(t.doc, t.now()); err != nil {
		if errors.Is(err, errUnchanged) {
			return nil
		}
		return err
	}
	if t.saver != nil {
		t.saver.Enqueue(t.userID, t.doc.Clone())
	}
	return nil
}

// Replace overwrites the whole document. A nil doc resets to defaults.
func (t *Tracker) Replace(doc *models.Document) *models.Document {
	if doc == nil {
		doc = models.NewDocument()
	} else {
		doc = doc.Clone()
	}
	doc.Normalize()

	var out *models.Document
	_ = t.mutate(func(_ *models.Document, _ time.Time) error {
		t.doc = doc
		out = doc.Clone()
		return nil
	})
	return out
}

// Reset replaces the document with defaults.
func (t *Tracker) Reset() *models.Document {
	return t.Replace(nil)
}

func orNow(d models.Date, now time.Time) models.Date {
	if d.IsZero() {
		return models.NewDate(now)
	}
	return d
}

// AddIncome records an income.
func (t *Tracker) AddIncome(in IncomeInput) (models.Income, error) {
	if in.Amount.IsNegative() {
		return models.Income{}, ErrNegativeAmount
	}
	var out models.Income
	err := t.mutate(func(doc *models.Document, now time.Time) error {
		kind := strings.TrimSpace(in.Type)
		if kind == "" {
			kind = models.DefaultIncomeType
		}
		out = models.Income{
			ID:     t.engine.NewID(),
			Type:   kind,
			Amount: in.Amount,
			Date:   orNow(in.Date, now),
			Notes:  in.Notes,
		}
		doc.Incomes = append(doc.Incomes, out)
		return nil
	})
	return out, err
}

// DeleteIncome removes an income.
func (t *Tracker) DeleteIncome(id string) error {
	return t.mutate(func(doc *models.Document, _ time.Time) error {
		n := len(doc.Incomes)
		doc.Incomes = slices.DeleteFunc(doc.Incomes, func(i models.Income) bool { return i.ID == id })
		if len(doc.Incomes) == n {
			return ErrEntryNotFound
		}
		return nil
	})
}

// ValidExpenseCategory reports whether c is an accepted expense category.
func ValidExpenseCategory(c string) bool {
	return slices.Contains(models.ExpenseCategories, c)
}

// AddExpense records an expense. An empty category becomes Otros.
func (t *Tracker) AddExpense(in ExpenseInput) (models.Expense, error) {
	if in.Amount.IsNegative() {
		return models.Expense{}, ErrNegativeAmount
	}
	category := in.Category
	if category == "" {
		category = models.ExpenseCategoryOther
	}
	if !ValidExpenseCategory(category) {
		return models.Expense{}, ErrInvalidCategory
	}

	var out models.Expense
	err := t.mutate(func(doc *models.Document, now time.Time) error {
		out = models.Expense{
			ID:       t.engine.NewID(),
			Category: category,
			Amount:   in.Amount,
			Date:     orNow(in.Date, now),
			Notes:    in.Notes,
		}
		doc.Expenses = append(doc.Expenses, out)
		return nil
	})
	return out, err
}

// DeleteExpense removes an expense.
func (t *Tracker) DeleteExpense(id string) error {
	return t.mutate(func(doc *models.Document, _ time.Time) error {
		n := len(doc.Expenses)
		doc.Expenses = slices.DeleteFunc(doc.Expenses, func(e models.Expense) bool { return e.ID == id })
		if len(doc.Expenses) == n {
			return ErrEntryNotFound
		}
		return nil
	})
}

// AddSubscription records a subscription. An empty type becomes fija.
func (t *Tracker) AddSubscription(in SubscriptionInput) (models.Subscription, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return models.Subscription{}, ErrSubscriptionName
	}
	if in.Cost.IsNegative() {
		return models.Subscription{}, ErrNegativeAmount
	}
	kind := in.Type
	if kind == "" {
		kind = models.SubscriptionFixed
	}
	if kind != models.SubscriptionFixed && kind != models.SubscriptionTemporary {
		return models.Subscription{}, ErrInvalidSubscription
	}

	var out models.Subscription
	err := t.mutate(func(doc *models.Document, now time.Time) error {
		out = models.Subscription{
			ID:        t.engine.NewID(),
			Name:      name,
			Cost:      in.Cost,
			Type:      kind,
			Frequency: in.Frequency,
			StartDate: orNow(in.StartDate, now),
		}
		if kind == models.SubscriptionTemporary {
			out.EndDate = in.EndDate
		}
		doc.Subscriptions = append(doc.Subscriptions, out)
		return nil
	})
	return out, err
}

// DeleteSubscription removes a subscription.
func (t *Tracker) DeleteSubscription(id string) error {
	return t.mutate(func(doc *models.Document, _ time.Time) error {
		n := len(doc.Subscriptions)
		doc.Subscriptions = slices.DeleteFunc(doc.Subscriptions, func(s models.Subscription) bool { return s.ID == id })
		if len(doc.Subscriptions) == n {
			return ErrEntryNotFound
		}
		return nil
	})
}

func validateReminderPatch(cadence, channel, hour *string) error {
	if cadence != nil {
		switch *cadence {
		case models.CadenceWeekly, models.CadenceMonthly, models.CadenceYearly:
		default:
			return ErrInvalidCadence
		}
	}
	if channel != nil && *channel != models.ChannelEmail && *channel != models.ChannelPush {
		return ErrInvalidChannel
	}
	if hour != nil {
		if _, ok := goals.ParseHour(*hour); !ok {
			return ErrInvalidReminderHour
		}
	}
	return nil
}

// UpdateReminderSettings merges patch into the document reminder defaults.
func (t *Tracker) UpdateReminderSettings(patch models.ReminderSettingsPatch) (models.ReminderSettings, error) {
	if err := validateReminderPatch(patch.Cadence, patch.Channel, patch.Hour); err != nil {
		return models.ReminderSettings{}, err
	}
	var out models.ReminderSettings
	err := t.mutate(func(doc *models.Document, _ time.Time) error {
		doc.ReminderSettings = patch.Apply(doc.ReminderSettings)
		out = doc.ReminderSettings
		return nil
	})
	return out, err
}

// Goal returns one goal with its insights.
func (t *Tracker) Goal(id string) (goals.View, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	idx := t.doc.GoalIndex(id)
	if idx < 0 {
		return goals.View{}, ErrGoalNotFound
	}
	g := t.doc.Goals[idx].Clone()
	return goals.View{Goal: g, Insights: goals.ComputeInsights(g, t.now())}, nil
}

// Goals returns every goal with its insights.
func (t *Tracker) Goals() []goals.View {
	t.mu.Lock()
	defer t.mu.Unlock()
	return goals.Views(t.doc.Clone().Goals, t.now())
}

// CreateGoal creates a goal and appends it to the document.
func (t *Tracker) CreateGoal(in goals.NewGoal) (models.Goal, error) {
	var out models.Goal
	err := t.mutate(func(doc *models.Document, now time.Time) error {
		g, err := t.engine.Create(in, now)
		if err != nil {
			return err
		}
		doc.Goals = append(doc.Goals, g)
		out = g.Clone()
		return nil
	})
	return out, err
}

// DeleteGoal removes a goal permanently.
func (t *Tracker) DeleteGoal(id string) error {
	return t.mutate(func(doc *models.Document, _ time.Time) error {
		idx := doc.GoalIndex(id)
		if idx < 0 {
			return ErrGoalNotFound
		}
		doc.Goals = slices.Delete(doc.Goals, idx, idx+1)
		return nil
	})
}

// updateGoal replaces the goal with id by the result of fn.
func (t *Tracker) updateGoal(id string, fn func(g models.Goal, now time.Time) (models.Goal, error)) (models.Goal, error) {
	var out models.Goal
	err := t.mutate(func(doc *models.Document, now time.Time) error {
		idx := doc.GoalIndex(id)
		if idx < 0 {
			return ErrGoalNotFound
		}
		g, err := fn(doc.Goals[idx], now)
		if err != nil {
			return err
		}
		doc.Goals[idx] = g
		out = g.Clone()
		return nil
	})
	return out, err
}

// Contribute adds money to a goal. When the contribution completes the goal
// the completion event is published and, for recurring goals, the next
// cycle is appended to the document.
func (t *Tracker) Contribute(ctx context.Context, goalID string, in goals.ContributionInput) (ContributionResult, error) {
	var res ContributionResult
	err := t.mutate(func(doc *models.Document, now time.Time) error {
		idx := doc.GoalIndex(goalID)
		if idx < 0 {
			return ErrGoalNotFound
		}
		if !in.Amount.IsPositive() {
			res = ContributionResult{Goal: doc.Goals[idx].Clone()}
			return errUnchanged
		}
		g, event := t.engine.AddContribution(doc.Goals[idx], in, now)
		doc.Goals[idx] = g
		res = t.afterContribution(doc, g, event, now)
		return nil
	})
	if err != nil {
		return ContributionResult{}, err
	}
	if in.Amount.IsPositive() {
		telemetry.Add(ctx, telemetry.Contributions, 1, attribute.String("source", "manual"))
	}
	if res.Completed != nil {
		t.publish(ctx, *res.Completed)
	}
	return res, nil
}

// afterContribution renews a recurring goal that was just completed. It runs under the lock.
func (t *Tracker) afterContribution(doc *models.Document, g models.Goal, event *goals.CompletionEvent, now time.Time) ContributionResult {
	res := ContributionResult{Goal: g.Clone(), Completed: event}
	if event == nil || g.Recurrence == models.RecurrenceOnce {
		return res
	}

	sibling, err := t.engine.Renew(g, now)
	if err != nil {
		logger.Log.Warn().
			Err(err).
			Str("user_hash", logger.HashUserID(t.userID)).
			Str("goal_id", g.ID).
			Msg("Failed to renew recurring goal")
		return res
	}
	doc.Goals = append(doc.Goals, sibling)
	res.Renewed = &sibling
	return res
}

// RunAutomations performs every due automatic contribution and returns the
// number of contributions made.
func (t *Tracker) RunAutomations(ctx context.Context) int {
	var events []goals.CompletionEvent
	ran := 0
	_ = t.mutate(func(doc *models.Document, now time.Time) error {
		// Renewed goals are appended while iterating; they start disabled.
		for i := 0; i < len(doc.Goals); i++ {
			g, event, ok := t.engine.RunAutomation(doc.Goals[i], now)
			if !ok {
				continue
			}
			ran++
			doc.Goals[i] = g
			if res := t.afterContribution(doc, g, event, now); res.Completed != nil {
				events = append(events, *res.Completed)
			}
		}
		if ran == 0 {
			return errUnchanged
		}
		return nil
	})
	telemetry.Add(ctx, telemetry.AutomationRuns, int64(ran))
	for _, ev := range events {
		t.publish(ctx, ev)
	}
	return ran
}

// DueReminders lists the reminders due now.
func (t *Tracker) DueReminders() []goals.Reminder {
	t.mu.Lock()
	defer t.mu.Unlock()
	return goals.DueReminders(t.doc, t.now())
}

// UpdateGoalReminder merges reminder preferences into a goal.
func (t *Tracker) UpdateGoalReminder(id string, patch models.ReminderPatch) (models.Goal, error) {
	if err := validateReminderPatch(patch.Cadence, patch.Channel, nil); err != nil {
		return models.Goal{}, err
	}
	return t.updateGoal(id, func(g models.Goal, _ time.Time) (models.Goal, error) {
		return goals.UpdateReminder(g, patch), nil
	})
}

// UpdateGoalDetails edits a goal.
func (t *Tracker) UpdateGoalDetails(id string, patch models.DetailsPatch) (models.Goal, error) {
	return t.updateGoal(id, func(g models.Goal, now time.Time) (models.Goal, error) {
		return t.engine.UpdateDetails(g, patch, now)
	})
}

// AddCollaborator shares a goal.
func (t *Tracker) AddCollaborator(id string, in goals.CollaboratorInput) (models.Goal, error) {
	return t.updateGoal(id, func(g models.Goal, now time.Time) (models.Goal, error) {
		return t.engine.AddCollaborator(g, in, now)
	})
}

// UpdateCollaboratorRole changes a collaborator role.
func (t *Tracker) UpdateCollaboratorRole(id, collaboratorID, role string) (models.Goal, error) {
	return t.updateGoal(id, func(g models.Goal, now time.Time) (models.Goal, error) {
		return t.engine.UpdateCollaboratorRole(g, collaboratorID, role, now)
	})
}

// AddComment comments on a goal.
func (t *Tracker) AddComment(id string, in goals.CommentInput) (models.Goal, error) {
	return t.updateGoal(id, func(g models.Goal, now time.Time) (models.Goal, error) {
		return t.engine.AddComment(g, in, now)
	})
}

// UpdateAutomation changes the automatic contribution schedule of a goal.
func (t *Tracker) UpdateAutomation(id string, patch models.AutomationPatch) (models.Goal, error) {
	return t.updateGoal(id, func(g models.Goal, now time.Time) (models.Goal, error) {
		return t.engine.UpdateAutomation(g, patch, now), nil
	})
}

func (t *Tracker) publish(ctx context.Context, ev goals.CompletionEvent) {
	telemetry.Add(ctx, telemetry.GoalsCompleted, 1)
	n := t.notifier
	userID := t.userID
	ctx = context.WithoutCancel(ctx)
	go func() {
		if err := n.GoalCompleted(ctx, userID, ev); err != nil {
			logger.Log.Warn().
				Err(err).
				Str("user_hash", logger.HashUserID(userID)).
				Str("goal_id", ev.GoalID).
				Msg("Failed to publish goal completion")
		}
	}()
}
