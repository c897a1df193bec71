package goals

import (
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gitlab.com/yelinaung/savings-tracker/internal/models"
	"pgregory.net/rapid"
)

func testEngine() *Engine {
	n := 0
	return NewEngine("https://ahorro.example/").WithIDs(
		func() string {
			n++
			return fmt.Sprintf("id-%d", n)
		},
		func() string { return "AB12C" },
	)
}

func amount(v int64) models.Amount {
	return models.AmountFromInt(v)
}

func requireDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	require.True(t, decimal.RequireFromString(want).Equal(got), "want %s, got %s", want, got.String())
}

var march15 = time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)

func TestCreate(t *testing.T) {
	t.Parallel()

	t.Run("applies defaults", func(t *testing.T) {
		t.Parallel()
		g, err := testEngine().Create(NewGoal{Name: " Viaje ", Cost: amount(500)}, march15)
		require.NoError(t, err)

		require.Equal(t, "id-1", g.ID)
		require.Equal(t, "Viaje", g.Name)
		require.Equal(t, models.GoalCategoryOther, g.Category)
		require.Equal(t, DefaultMonths, g.Months)
		require.Equal(t, march15.AddDate(0, 6, 0), g.Deadline.Time())
		require.Equal(t, models.RecurrenceOnce, g.Recurrence)
		require.Equal(t, models.CadenceMonthly, g.ReminderCadence)
		require.Equal(t, models.ChannelEmail, g.ReminderChannel)
		require.True(t, g.ReminderOptIn)
		require.Equal(t, "AB12C", g.SharedCode)
		require.Equal(t, "https://ahorro.example/metas/AB12C", g.ShareURL)
		require.Equal(t, 1, g.Version)
		require.Equal(t, models.GoalStatusActive, g.Status)
		require.True(t, g.Saved.IsZero())
		require.Empty(t, g.Contributions)
		require.Len(t, g.History, 1)
		require.Equal(t, models.ActionCreated, g.History[0].Action)
	})

	t.Run("keeps explicit deadline and baseline", func(t *testing.T) {
		t.Parallel()
		optOut := false
		g, err := testEngine().Create(NewGoal{
			Name:          "Coche",
			Cost:          amount(3000),
			Months:        12,
			Deadline:      models.DateOf(2025, 1, 1),
			Recurrence:    models.RecurrenceYearly,
			ReminderOptIn: &optOut,
			Saved:         amount(250),
		}, march15)
		require.NoError(t, err)
		require.Equal(t, "2025-01-01", g.Deadline.String())
		require.Equal(t, 12, g.Months)
		require.False(t, g.ReminderOptIn)
		requireDecimal(t, "250", g.Saved.Decimal)
		requireDecimal(t, "250", g.Baseline())
	})

	t.Run("rejects missing name", func(t *testing.T) {
		t.Parallel()
		_, err := testEngine().Create(NewGoal{Name: "  ", Cost: amount(10)}, march15)
		require.ErrorIs(t, err, ErrNameRequired)
	})

	t.Run("rejects non-positive cost", func(t *testing.T) {
		t.Parallel()
		_, err := testEngine().Create(NewGoal{Name: "X"}, march15)
		require.ErrorIs(t, err, ErrCostNotPositive)
		_, err = testEngine().Create(NewGoal{Name: "X", Cost: amount(-5)}, march15)
		require.ErrorIs(t, err, ErrCostNotPositive)
	})

	t.Run("unknown recurrence falls back to unica", func(t *testing.T) {
		t.Parallel()
		g, err := testEngine().Create(NewGoal{Name: "X", Cost: amount(10), Recurrence: "semanal"}, march15)
		require.NoError(t, err)
		require.Equal(t, models.RecurrenceOnce, g.Recurrence)
	})

	t.Run("random share code", func(t *testing.T) {
		t.Parallel()
		code := newShareCode()
		require.Len(t, code, 5)
		require.Regexp(t, `^[0-9A-F]{5}$`, code)
	})
}

func TestAddContribution_CompletesOnce(t *testing.T) {
	t.Parallel()

	e := testEngine()
	goal := models.Goal{ID: "g1", Name: "Bici", Cost: amount(500), Saved: amount(450), Recurrence: models.RecurrenceOnce, Status: models.GoalStatusActive, Version: 1}

	updated, event := e.AddContribution(goal, ContributionInput{Amount: amount(50), Note: "último"}, march15)

	requireDecimal(t, "500", updated.Saved.Decimal)
	require.Equal(t, models.GoalStatusCompleted, updated.Status)
	require.Equal(t, march15, updated.CompletedAt.Time())
	require.NotNil(t, event)
	require.Equal(t, CompletionEvent{GoalID: "g1", GoalName: "Bici"}, *event)
	require.Len(t, updated.Contributions, 1)
	require.Equal(t, DefaultAuthor, updated.Contributions[0].Author)
	require.Len(t, updated.History, 1)
	require.Equal(t, models.ActionContribution, updated.History[0].Action)
	require.Equal(t, 2, updated.Version)

	// Input goal is untouched.
	requireDecimal(t, "450", goal.Saved.Decimal)
	require.Empty(t, goal.Contributions)

	again, second := e.AddContribution(updated, ContributionInput{Amount: amount(10)}, march15.Add(time.Hour))
	require.Nil(t, second)
	require.Equal(t, models.GoalStatusCompleted, again.Status)
	require.Equal(t, march15, again.CompletedAt.Time())
	requireDecimal(t, "510", again.Saved.Decimal)
}

func TestAddContribution_NoOpForNonPositive(t *testing.T) {
	t.Parallel()

	e := testEngine()
	goal := models.Goal{ID: "g1", Cost: amount(100), Saved: amount(20), Version: 3, Status: models.GoalStatusActive}

	for _, a := range []models.Amount{amount(0), amount(-5), {}} {
		updated, event := e.AddContribution(goal, ContributionInput{Amount: a}, march15)
		require.Nil(t, event)
		require.Equal(t, goal, updated)
	}
}

func TestAddContribution_PrependsNewest(t *testing.T) {
	t.Parallel()

	e := testEngine()
	goal := models.Goal{ID: "g1", Cost: amount(1000), Status: models.GoalStatusActive, Version: 1}

	goal, _ = e.AddContribution(goal, ContributionInput{Amount: amount(10), Author: "Ana"}, march15)
	goal, _ = e.AddContribution(goal, ContributionInput{Amount: amount(20), Date: models.DateOf(2024, 3, 1)}, march15)

	require.Len(t, goal.Contributions, 2)
	requireDecimal(t, "20", goal.Contributions[0].Amount.Decimal)
	require.Equal(t, "2024-03-01", goal.Contributions[0].Date.String())
	require.Equal(t, "Ana", goal.Contributions[1].Author)
	require.Len(t, goal.History, 2)
	require.Equal(t, 3, goal.Version)
}

func TestRenew_MonthlyRecurrence(t *testing.T) {
	t.Parallel()

	e := testEngine()
	goal := models.Goal{
		ID: "g1", Name: "Alquiler", Category: models.GoalCategoryHome,
		Cost: amount(300), Saved: amount(280), Months: 1,
		Deadline: models.DateOf(2024, 4, 1), CreatedAt: models.DateOf(2024, 3, 1),
		Recurrence: models.RecurrenceMonthly, Status: models.GoalStatusActive, Version: 1,
		ReminderCadence: models.CadenceWeekly, ReminderChannel: models.ChannelPush, ReminderOptIn: true,
	}

	completed, event := e.AddContribution(goal, ContributionInput{Amount: amount(30)}, march15)
	require.NotNil(t, event)
	requireDecimal(t, "310", completed.Saved.Decimal)
	require.Equal(t, models.GoalStatusCompleted, completed.Status)

	sibling, err := e.Renew(completed, march15)
	require.NoError(t, err)
	require.NotEqual(t, completed.ID, sibling.ID)
	require.Equal(t, "2024-05-01", sibling.Deadline.String())
	require.True(t, sibling.Saved.IsZero())
	require.Empty(t, sibling.Contributions)
	require.Equal(t, models.GoalStatusActive, sibling.Status)
	require.Equal(t, march15, sibling.CreatedAt.Time())
	require.Equal(t, models.RecurrenceMonthly, sibling.Recurrence)
	require.Equal(t, models.ChannelPush, sibling.ReminderChannel)
	require.Contains(t, sibling.Notes, "Renovación automática")
	require.Equal(t, 1, sibling.Version)

	require.Equal(t, models.GoalStatusCompleted, completed.Status)
}

func TestRenew_RejectsOneOff(t *testing.T) {
	t.Parallel()

	_, err := testEngine().Renew(models.Goal{Name: "X", Cost: amount(1), Recurrence: models.RecurrenceOnce}, march15)
	require.ErrorIs(t, err, ErrNotRecurring)
}

func TestNextDeadlineFromRecurrence(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		goal models.Goal
		want string
	}{
		{"monthly", models.Goal{Recurrence: models.RecurrenceMonthly, Deadline: models.DateOf(2024, 4, 1)}, "2024-05-01"},
		{"yearly", models.Goal{Recurrence: models.RecurrenceYearly, Deadline: models.DateOf(2024, 4, 1)}, "2025-04-01"},
		{"once uses months", models.Goal{Recurrence: models.RecurrenceOnce, Months: 3, Deadline: models.DateOf(2024, 4, 1)}, "2024-07-01"},
		{"months floor of one", models.Goal{Recurrence: models.RecurrenceOnce, Deadline: models.DateOf(2024, 4, 1)}, "2024-05-01"},
		{"falls back to createdAt", models.Goal{Recurrence: models.RecurrenceMonthly, CreatedAt: models.DateOf(2024, 1, 10)}, "2024-02-10"},
		{"falls back to now", models.Goal{Recurrence: models.RecurrenceYearly}, "2025-03-15T10:00:00Z"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.want, NextDeadlineFromRecurrence(tt.goal, march15).String())
		})
	}
}

func TestLateContributionDoesNotShiftNextCycle(t *testing.T) {
	t.Parallel()

	e := testEngine()
	goal, err := e.Create(NewGoal{Name: "Cuota", Cost: amount(100), Deadline: models.DateOf(2024, 4, 1), Recurrence: models.RecurrenceMonthly}, march15)
	require.NoError(t, err)

	late := time.Date(2024, 6, 20, 0, 0, 0, 0, time.UTC)
	completed, event := e.AddContribution(goal, ContributionInput{Amount: amount(100)}, late)
	require.NotNil(t, event)

	sibling, err := e.Renew(completed, late)
	require.NoError(t, err)
	require.Equal(t, "2024-05-01", sibling.Deadline.String())
}

func TestLedgerInvariants(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(t *rapid.T) {
		e := testEngine()
		baseline := rapid.Int64Range(0, 500).Draw(t, "baseline")
		cost := rapid.Int64Range(1, 5000).Draw(t, "cost")

		goal, err := e.Create(NewGoal{Name: "Meta", Cost: amount(cost), Saved: amount(baseline)}, march15)
		if err != nil {
			t.Fatalf("create: %v", err)
		}

		amounts := rapid.SliceOfN(rapid.Int64Range(-100, 1000), 0, 40).Draw(t, "amounts")
		events := 0
		now := march15
		for _, a := range amounts {
			prevVersion := goal.Version
			prevStatus := goal.Status
			prevContribs := len(goal.Contributions)
			prevHistory := len(goal.History)

			now = now.Add(time.Hour)
			var event *CompletionEvent
			goal, event = e.AddContribution(goal, ContributionInput{Amount: amount(a)}, now)
			if event != nil {
				events++
			}

			if goal.Version < prevVersion {
				t.Fatalf("version decreased from %d to %d", prevVersion, goal.Version)
			}
			if prevStatus == models.GoalStatusCompleted && goal.Status != models.GoalStatusCompleted {
				t.Fatalf("completed goal reopened")
			}
			if a > 0 {
				if len(goal.Contributions) != prevContribs+1 || len(goal.History) != prevHistory+1 {
					t.Fatalf("contribution of %d did not append exactly one ledger and history entry", a)
				}
			} else if len(goal.Contributions) != prevContribs || goal.Version != prevVersion {
				t.Fatalf("non-positive contribution %d changed the goal", a)
			}
		}

		if !goal.Saved.Equal(goal.Contributed().Add(decimal.NewFromInt(baseline))) {
			t.Fatalf("saved %s != contributions %s + baseline %d", goal.Saved, goal.Contributed(), baseline)
		}
		if events > 1 {
			t.Fatalf("completion event emitted %d times", events)
		}
		reached := goal.Saved.GreaterThanOrEqual(goal.Cost.Decimal)
		if reached != (events == 1) && baseline < cost {
			t.Fatalf("reached=%v but events=%d", reached, events)
		}
	})
}

func TestVersionMonotonicAcrossEdits(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(t *rapid.T) {
		e := testEngine()
		goal, err := e.Create(NewGoal{Name: "Meta", Cost: amount(1000)}, march15)
		if err != nil {
			t.Fatalf("create: %v", err)
		}

		steps := rapid.IntRange(1, 30).Draw(t, "steps")
		for i := range steps {
			prev := goal.Version
			now := march15.Add(time.Duration(i) * time.Hour)
			switch rapid.IntRange(0, 2).Draw(t, "op") {
			case 0:
				goal, _ = e.AddContribution(goal, ContributionInput{Amount: amount(rapid.Int64Range(-10, 200).Draw(t, "amount"))}, now)
			case 1:
				c := amount(rapid.Int64Range(1, 3000).Draw(t, "cost"))
				goal, err = e.UpdateDetails(goal, models.DetailsPatch{Cost: &c}, now)
			case 2:
				m := rapid.IntRange(1, 24).Draw(t, "months")
				goal, err = e.UpdateDetails(goal, models.DetailsPatch{Months: &m}, now)
			}
			if err != nil {
				t.Fatalf("edit: %v", err)
			}
			if goal.Version < prev {
				t.Fatalf("version decreased from %d to %d", prev, goal.Version)
			}
		}
	})
}
