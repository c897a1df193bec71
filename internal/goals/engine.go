// Package goals implements the savings goal lifecycle: creation,
// contribution accounting, completion detection, recurrence renewal and the
// collaborator, reminder and automation metadata of a goal.
//
// Every operation takes a goal by value and returns the updated copy; the
// input is never modified.
package goals

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gitlab.com/yelinaung/savings-tracker/internal/models"
)

// Validation errors.
var (
	ErrNameRequired             = errors.New("goal name is required")
	ErrCostNotPositive          = errors.New("goal cost must be larger than zero")
	ErrNotRecurring             = errors.New("goal does not recur")
	ErrCollaboratorNameRequired = errors.New("collaborator name is required")
	ErrCollaboratorNotFound     = errors.New("collaborator not found")
	ErrInvalidRole              = errors.New("invalid collaborator role")
	ErrCommentRequired          = errors.New("comment text is required")
)

const (
	// DefaultMonths is the planning horizon of a goal created without one.
	DefaultMonths = 6
	// DefaultAuthor signs contributions and comments made by the account owner.
	DefaultAuthor = "Tú"
	// AutomaticAuthor signs contributions made by the automation sweep.
	AutomaticAuthor = "Automático"

	shareCodeLength = 5
)

// NewGoal is the input of Create.
type NewGoal struct {
	Name            string        `json:"name"`
	Category        string        `json:"category"`
	Cost            models.Amount `json:"cost"`
	Months          int           `json:"months"`
	Deadline        models.Date   `json:"deadline"`
	Recurrence      string        `json:"recurrence"`
	ReminderCadence string        `json:"reminderCadence"`
	ReminderChannel string        `json:"reminderChannel"`
	ReminderOptIn   *bool         `json:"reminderOptIn"`
	Notes           string        `json:"notes"`
	// Saved pre-seeds the goal. It becomes the goal baseline.
	Saved models.Amount `json:"saved"`
}

// ContributionInput is the input of AddContribution.
type ContributionInput struct {
	Amount models.Amount `json:"amount"`
	Note   string        `json:"note"`
	Author string        `json:"author"`
	Date   models.Date   `json:"date"`
}

// CompletionEvent is emitted once, when a contribution completes a goal.
type CompletionEvent struct {
	GoalID   string `json:"goalId"`
	GoalName string `json:"goalName"`
}

// Engine creates and updates goals.
type Engine struct {
	shareBaseURL string
	newID        func() string
	newCode      func() string
}

// NewEngine creates an Engine whose share links point at shareBaseURL.
func NewEngine(shareBaseURL string) *Engine {
	return &Engine{
		shareBaseURL: strings.TrimRight(shareBaseURL, "/"),
		newID:        uuid.NewString,
		newCode:      newShareCode,
	}
}

// WithIDs replaces the id and share code generators.
func (e *Engine) WithIDs(newID, newCode func() string) *Engine {
	cp := *e
	if newID != nil {
		cp.newID = newID
	}
	if newCode != nil {
		cp.newCode = newCode
	}
	return &cp
}

// NewID returns a fresh entity id.
func (e *Engine) NewID() string {
	return e.newID()
}

func newShareCode() string {
	b := make([]byte, 3)
	_, _ = rand.Read(b)
	return strings.ToUpper(hex.EncodeToString(b))[:shareCodeLength]
}

func (e *Engine) shareURL(code string) string {
	return fmt.Sprintf("%s/metas/%s", e.shareBaseURL, code)
}

func (e *Engine) historyEntry(now time.Time, action, detail string) models.HistoryEntry {
	return models.HistoryEntry{
		ID:        e.newID(),
		Timestamp: models.NewDate(now),
		Action:    action,
		Detail:    detail,
	}
}

func prependHistory(g *models.Goal, entry models.HistoryEntry) {
	g.History = append([]models.HistoryEntry{entry}, g.History...)
}

func validRecurrence(r string) bool {
	switch r {
	case models.RecurrenceOnce, models.RecurrenceMonthly, models.RecurrenceYearly:
		return true
	}
	return false
}

// Create validates input and builds a new active goal.
func (e *Engine) Create(input NewGoal, now time.Time) (models.Goal, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return models.Goal{}, ErrNameRequired
	}
	if !input.Cost.IsPositive() {
		return models.Goal{}, ErrCostNotPositive
	}

	months := input.Months
	if months <= 0 {
		months = DefaultMonths
	}

	createdAt := models.NewDate(now)
	deadline := input.Deadline
	if deadline.IsZero() {
		deadline = createdAt.AddDate(0, months, 0)
	}

	category := input.Category
	if category == "" {
		category = models.GoalCategoryOther
	}
	recurrence := input.Recurrence
	if !validRecurrence(recurrence) {
		recurrence = models.RecurrenceOnce
	}
	cadence := input.ReminderCadence
	if cadence == "" {
		cadence = models.CadenceMonthly
	}
	channel := input.ReminderChannel
	if channel == "" {
		channel = models.ChannelEmail
	}
	optIn := true
	if input.ReminderOptIn != nil {
		optIn = *input.ReminderOptIn
	}

	saved := input.Saved
	if saved.IsNegative() {
		saved = models.Amount{}
	}

	code := e.newCode()
	g := models.Goal{
		ID:            e.newID(),
		Name:          name,
		Category:      category,
		SharedCode:    code,
		ShareURL:      e.shareURL(code),
		Cost:          input.Cost,
		Months:        months,
		Deadline:      deadline,
		CreatedAt:     createdAt,
		Recurrence:    recurrence,
		Saved:         saved,
		Status:        models.GoalStatusActive,
		Notes:         input.Notes,
		Collaborators: []models.Collaborator{},
		Comments:      []models.Comment{},
		Contributions: []models.Contribution{},
		Version:       1,
		AutoSchedule: models.AutoSchedule{
			Cadence: models.CadenceMonthly,
		},
		ReminderCadence: cadence,
		ReminderChannel: channel,
		ReminderOptIn:   optIn,
	}
	g.History = []models.HistoryEntry{
		e.historyEntry(now, models.ActionCreated, "Meta creada con objetivo de "+FormatMoney(input.Cost.Decimal)),
	}
	return g, nil
}

// AddContribution adds money to a goal.
//
// A zero or negative amount is a no-op. Otherwise the contribution and an
// Aporte history entry are prepended and the version is bumped. The first
// contribution that brings Saved to Cost completes the goal and returns a
// CompletionEvent; later contributions never emit another one.
func (e *Engine) AddContribution(goal models.Goal, in ContributionInput, now time.Time) (models.Goal, *CompletionEvent) {
	if !in.Amount.IsPositive() {
		return goal, nil
	}

	g := goal.Clone()
	date := in.Date
	if date.IsZero() {
		date = models.NewDate(now)
	}
	author := strings.TrimSpace(in.Author)
	if author == "" {
		author = DefaultAuthor
	}

	g.Saved = g.Saved.Plus(in.Amount)
	g.Contributions = append([]models.Contribution{{
		ID:     e.newID(),
		Date:   date,
		Amount: in.Amount,
		Note:   in.Note,
		Author: author,
	}}, g.Contributions...)

	detail := fmt.Sprintf("%s aportó %s", author, FormatMoney(in.Amount.Decimal))
	if note := strings.TrimSpace(in.Note); note != "" {
		detail += " · " + note
	}
	prependHistory(&g, e.historyEntry(now, models.ActionContribution, detail))
	g.Version++

	if g.IsCompleted() || g.Saved.LessThan(g.Cost.Decimal) {
		return g, nil
	}

	g.Status = models.GoalStatusCompleted
	g.CompletedAt = models.NewDate(now)
	return g, &CompletionEvent{GoalID: g.ID, GoalName: g.Name}
}

// NextDeadlineFromRecurrence returns the deadline of the next cycle of goal.
//
// It advances the goal's own deadline (or its creation date when the
// deadline is unset, or now when both are) by one month for mensual, one
// year for anual and by the goal's months otherwise.
func NextDeadlineFromRecurrence(goal models.Goal, now time.Time) models.Date {
	base := goal.Deadline
	if base.IsZero() {
		base = goal.CreatedAt
	}
	if base.IsZero() {
		base = models.NewDate(now)
	}

	switch goal.Recurrence {
	case models.RecurrenceMonthly:
		return base.AddDate(0, 1, 0)
	case models.RecurrenceYearly:
		return base.AddDate(1, 0, 0)
	default:
		return base.AddDate(0, max(goal.Months, 1), 0)
	}
}

// Renew builds the next cycle of a completed recurring goal. The new goal
// starts empty and active; completed is not modified.
func (e *Engine) Renew(completed models.Goal, now time.Time) (models.Goal, error) {
	if completed.Recurrence == models.RecurrenceOnce || !validRecurrence(completed.Recurrence) {
		return models.Goal{}, ErrNotRecurring
	}

	notes := "Renovación automática de " + completed.Name
	if n := strings.TrimSpace(completed.Notes); n != "" {
		notes = n + " · " + notes
	}

	optIn := completed.ReminderOptIn
	return e.Create(NewGoal{
		Name:            completed.Name,
		Category:        completed.Category,
		Cost:            completed.Cost,
		Months:          completed.Months,
		Deadline:        NextDeadlineFromRecurrence(completed, now),
		Recurrence:      completed.Recurrence,
		ReminderCadence: completed.ReminderCadence,
		ReminderChannel: completed.ReminderChannel,
		ReminderOptIn:   &optIn,
		Notes:           notes,
	}, now)
}
