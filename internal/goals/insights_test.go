package goals

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gitlab.com/yelinaung/savings-tracker/internal/models"
)

func TestComputeInsights(t *testing.T) {
	t.Parallel()

	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	deadline := time.Date(2024, 1, 11, 0, 0, 0, 0, time.UTC)
	goal := models.Goal{
		Cost:      amount(1000),
		Saved:     amount(200),
		Months:    4,
		CreatedAt: models.NewDate(created),
		Deadline:  models.NewDate(deadline),
	}

	t.Run("on track halfway", func(t *testing.T) {
		t.Parallel()
		in := ComputeInsights(goal, created.Add(2*24*time.Hour))
		requireDecimal(t, "20", in.Progress)
		requireDecimal(t, "20", in.ExpectedPct)
		requireDecimal(t, "0", in.Delta)
		require.Equal(t, ToneOnTrack, in.Tone)
		require.Equal(t, "Vas en camino", in.Badge)
		requireDecimal(t, "800", in.RemainingAmount)
		require.Equal(t, 8, in.DaysLeft)
		requireDecimal(t, "200", in.AutoMonthly)
		requireDecimal(t, "700", in.AutoWeekly.Round(2))
	})

	t.Run("delayed", func(t *testing.T) {
		t.Parallel()
		in := ComputeInsights(goal, created.Add(5*24*time.Hour))
		requireDecimal(t, "-30", in.Delta)
		require.Equal(t, ToneDelayed, in.Tone)
	})

	t.Run("ahead", func(t *testing.T) {
		t.Parallel()
		in := ComputeInsights(goal, created)
		requireDecimal(t, "0", in.ExpectedPct)
		require.Equal(t, ToneAhead, in.Tone)
		require.Equal(t, 10, in.DaysLeft)
	})

	t.Run("closing wins over delay", func(t *testing.T) {
		t.Parallel()
		g := goal
		g.Saved = amount(950)
		in := ComputeInsights(g, deadline.Add(48*time.Hour))
		require.Equal(t, ToneClosing, in.Tone)
		require.Equal(t, "¡Estás cerca!", in.Badge)
		requireDecimal(t, "100", in.ExpectedPct)
		require.Equal(t, 0, in.DaysLeft)
		requireDecimal(t, "50", in.AutoWeekly)
	})

	t.Run("overshoot has nothing remaining", func(t *testing.T) {
		t.Parallel()
		g := goal
		g.Saved = amount(1200)
		in := ComputeInsights(g, created)
		requireDecimal(t, "120", in.Progress)
		requireDecimal(t, "0", in.RemainingAmount)
	})

	t.Run("zero cost and no months", func(t *testing.T) {
		t.Parallel()
		in := ComputeInsights(models.Goal{Cost: amount(0), Saved: amount(0)}, created)
		requireDecimal(t, "0", in.Progress)
		requireDecimal(t, "0", in.AutoMonthly)
	})

	t.Run("weekly pace uses weeks left", func(t *testing.T) {
		t.Parallel()
		g := goal
		g.Deadline = models.NewDate(created.AddDate(0, 0, 28))
		in := ComputeInsights(g, created)
		require.Equal(t, 28, in.DaysLeft)
		requireDecimal(t, "200", in.AutoWeekly)
	})
}

func TestViews(t *testing.T) {
	t.Parallel()

	views := Views([]models.Goal{{ID: "a", Cost: amount(10), Saved: amount(5)}}, march15)
	require.Len(t, views, 1)
	require.Equal(t, "a", views[0].ID)
	requireDecimal(t, "50", views[0].Insights.Progress)
}

func TestSummarize(t *testing.T) {
	t.Parallel()

	goals := []models.Goal{
		{Category: models.GoalCategoryTravel, Cost: amount(500), Saved: amount(200), Status: models.GoalStatusActive},
		{Category: models.GoalCategoryHome, Cost: amount(300), Saved: amount(100), Status: models.GoalStatusActive},
		{Category: models.GoalCategoryTravel, Cost: amount(100), Saved: amount(120), Status: models.GoalStatusCompleted},
	}

	all := Summarize(goals, CategoryAll)
	require.Equal(t, 2, all.Active)
	require.Equal(t, 1, all.Completed)
	requireDecimal(t, "300", all.TotalSaved)
	requireDecimal(t, "500", all.TotalPending)

	travel := Summarize(goals, models.GoalCategoryTravel)
	require.Equal(t, 1, travel.Active)
	require.Equal(t, 1, travel.Completed)
	requireDecimal(t, "300", travel.TotalPending)

	require.Equal(t, all, Summarize(goals, ""))
}

func TestProject(t *testing.T) {
	t.Parallel()

	goal := models.Goal{ID: "g1", Cost: amount(1000), Saved: amount(100)}

	p := Project(goal, decimal.NewFromInt(150), decimal.NewFromInt(10), march15)
	requireDecimal(t, "900", p.Remaining)
	require.Equal(t, int64(6), p.MonthsNeeded)
	requireDecimal(t, "165", p.BoostedMonthly)
	require.Equal(t, int64(6), p.BoostedMonths)
	require.Equal(t, march15.AddDate(0, 6, 0), p.ProjectedFinish.Time())

	slow := Project(goal, decimal.NewFromInt(1), decimal.Zero, march15)
	requireDecimal(t, "10", slow.Monthly)
	require.Equal(t, int64(90), slow.MonthsNeeded)

	done := Project(models.Goal{Cost: amount(10), Saved: amount(10)}, decimal.NewFromInt(100), decimal.Zero, march15)
	require.Equal(t, int64(0), done.MonthsNeeded)
	require.Equal(t, march15, done.ProjectedFinish.Time())
}

func TestSuggestedMonthly(t *testing.T) {
	t.Parallel()

	requireDecimal(t, "300", SuggestedMonthly(models.Goal{Cost: amount(1800), Months: 6}))
	requireDecimal(t, "50", SuggestedMonthly(models.Goal{Cost: amount(120), Months: 12}))
	requireDecimal(t, "100", SuggestedMonthly(models.Goal{Cost: amount(600)}))
}
