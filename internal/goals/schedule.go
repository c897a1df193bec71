package goals

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gitlab.com/yelinaung/savings-tracker/internal/models"
)

// Reminder is a goal whose reminder is due.
type Reminder struct {
	GoalID    string          `json:"goalId"`
	GoalName  string          `json:"goalName"`
	Channel   string          `json:"channel"`
	Cadence   string          `json:"cadence"`
	Remaining decimal.Decimal `json:"remaining"`
	Suggested decimal.Decimal `json:"suggested"`
}

// ParseHour returns the hour of an "HH:MM" setting.
func ParseHour(hour string) (int, bool) {
	h, _, _ := strings.Cut(strings.TrimSpace(hour), ":")
	n, err := strconv.Atoi(h)
	if err != nil || n < 0 || n > 23 {
		return 0, false
	}
	return n, true
}

func cadenceDue(cadence string, now time.Time) bool {
	switch cadence {
	case models.CadenceWeekly:
		return now.Weekday() == time.Monday
	case models.CadenceMonthly:
		return now.Day() == 1
	case models.CadenceYearly:
		return now.YearDay() == 1
	}
	return false
}

// DueReminders lists the reminders due at now.
//
// The document settings must be enabled and their hour must match now.
// Each goal uses its own cadence and channel when set, falling back to the
// document settings, and must be active and opted in.
func DueReminders(doc *models.Document, now time.Time) []Reminder {
	if doc == nil || !doc.ReminderSettings.Enabled {
		return nil
	}
	hour, ok := ParseHour(doc.ReminderSettings.Hour)
	if !ok || hour != now.Hour() {
		return nil
	}

	var due []Reminder
	for _, g := range doc.Goals {
		if g.IsCompleted() || !g.ReminderOptIn {
			continue
		}
		cadence := g.ReminderCadence
		if cadence == "" {
			cadence = doc.ReminderSettings.Cadence
		}
		if !cadenceDue(cadence, now) {
			continue
		}
		channel := g.ReminderChannel
		if channel == "" {
			channel = doc.ReminderSettings.Channel
		}
		insights := ComputeInsights(g, now)
		suggested := insights.AutoMonthly
		if cadence == models.CadenceWeekly {
			suggested = insights.AutoWeekly
		}
		due = append(due, Reminder{
			GoalID:    g.ID,
			GoalName:  g.Name,
			Channel:   channel,
			Cadence:   cadence,
			Remaining: insights.RemainingAmount,
			Suggested: suggested,
		})
	}
	return due
}

// AdvanceSchedule moves next one cadence period forward.
func AdvanceSchedule(next models.Date, cadence string) models.Date {
	switch cadence {
	case models.CadenceWeekly:
		return next.AddDate(0, 0, 7)
	case models.CadenceYearly:
		return next.AddDate(1, 0, 0)
	default:
		return next.AddDate(0, 1, 0)
	}
}

// AutomationDue reports whether the goal's automatic contribution should run at now.
func AutomationDue(goal models.Goal, now time.Time) bool {
	s := goal.AutoSchedule
	if !s.Enabled || goal.IsCompleted() || !s.Amount.IsPositive() || s.NextRun.IsZero() {
		return false
	}
	return !s.NextRun.Time().After(now)
}

// RunAutomation performs the scheduled contribution of goal when it is due.
//
// The contribution goes through AddContribution, signed by AutomaticAuthor.
// NextRun then advances by cadence until it is after now, so missed periods
// are skipped rather than paid at once. ran is false when nothing was due.
func (e *Engine) RunAutomation(goal models.Goal, now time.Time) (updated models.Goal, event *CompletionEvent, ran bool) {
	if !AutomationDue(goal, now) {
		return goal, nil, false
	}

	s := goal.AutoSchedule
	updated, event = e.AddContribution(goal, ContributionInput{
		Amount: s.Amount,
		Note:   "Aporte automático " + s.Cadence,
		Author: AutomaticAuthor,
		Date:   models.NewDate(now),
	}, now)

	next := s.NextRun
	for !next.Time().After(now) {
		next = AdvanceSchedule(next, s.Cadence)
	}
	updated.AutoSchedule.NextRun = next
	return updated, event, true
}
