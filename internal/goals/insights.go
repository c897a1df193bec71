package goals

import (
	"time"

	"github.com/shopspring/decimal"
	"gitlab.com/yelinaung/savings-tracker/internal/models"
)

// Insight tones.
const (
	ToneOnTrack = "onTrack"
	ToneClosing = "closing"
	ToneDelayed = "delayed"
	ToneAhead   = "ahead"
)

// CategoryAll disables the Summary category filter.
const CategoryAll = "todas"

const (
	day = 24 * time.Hour

	minProjectionMonthly = 10
	fallbackMonths       = 3
)

var (
	hundred      = decimal.NewFromInt(100)
	seven        = decimal.NewFromInt(7)
	closingPct   = decimal.NewFromInt(90)
	delayedDelta = decimal.NewFromInt(-10)
	aheadDelta   = decimal.NewFromInt(12)
)

// Insights describe how a goal is progressing against its plan.
type Insights struct {
	Progress        decimal.Decimal `json:"progress"`
	ExpectedPct     decimal.Decimal `json:"expectedPct"`
	Delta           decimal.Decimal `json:"delta"`
	Tone            string          `json:"tone"`
	Badge           string          `json:"badge"`
	RemainingAmount decimal.Decimal `json:"remainingAmount"`
	DaysLeft        int             `json:"daysLeft"`
	AutoMonthly     decimal.Decimal `json:"autoMonthly"`
	AutoWeekly      decimal.Decimal `json:"autoWeekly"`
}

// View is a goal together with its insights.
type View struct {
	models.Goal
	Insights Insights `json:"insights"`
}

// ComputeInsights derives the insights of goal at now.
func ComputeInsights(goal models.Goal, now time.Time) Insights {
	progress := decimal.Zero
	if goal.Cost.IsPositive() {
		progress = goal.Saved.Div(goal.Cost.Decimal).Mul(hundred)
	}

	start := goal.CreatedAt.Time()
	if goal.CreatedAt.IsZero() {
		start = now
	}
	deadline := goal.Deadline.Time()
	if goal.Deadline.IsZero() {
		deadline = start
	}

	total := max(deadline.Sub(start), time.Millisecond)
	elapsed := max(now.Sub(start), 0)
	expected := decimal.NewFromInt(int64(elapsed)).Div(decimal.NewFromInt(int64(total))).Mul(hundred)
	if expected.GreaterThan(hundred) {
		expected = hundred
	}
	delta := progress.Sub(expected)

	remaining := goal.Remaining()
	daysLeft := 0
	if left := deadline.Sub(now); left > 0 {
		daysLeft = int((left + day - 1) / day)
	}

	var autoMonthly decimal.Decimal
	if goal.Months > 0 {
		autoMonthly = remaining.Div(decimal.NewFromInt(int64(goal.Months)))
	} else {
		autoMonthly = remaining.Div(decimal.NewFromInt(fallbackMonths))
	}

	autoWeekly := remaining
	if daysLeft > 0 {
		weeks := decimal.Max(decimal.NewFromInt(int64(daysLeft)).Div(seven), decimal.NewFromInt(1))
		autoWeekly = remaining.Div(weeks)
	}

	tone, badge := ToneOnTrack, "Vas en camino"
	switch {
	case progress.GreaterThanOrEqual(closingPct):
		tone, badge = ToneClosing, "¡Estás cerca!"
	case delta.LessThan(delayedDelta):
		tone, badge = ToneDelayed, "Vas atrasado"
	case delta.GreaterThan(aheadDelta):
		tone, badge = ToneAhead, "Adelantado"
	}

	return Insights{
		Progress:        progress,
		ExpectedPct:     expected,
		Delta:           delta,
		Tone:            tone,
		Badge:           badge,
		RemainingAmount: remaining,
		DaysLeft:        daysLeft,
		AutoMonthly:     autoMonthly,
		AutoWeekly:      autoWeekly,
	}
}

// Views attaches insights to every goal.
func Views(goals []models.Goal, now time.Time) []View {
	out := make([]View, 0, len(goals))
	for _, g := range goals {
		out = append(out, View{Goal: g, Insights: ComputeInsights(g, now)})
	}
	return out
}

// Summary aggregates a portfolio of goals.
type Summary struct {
	Active       int             `json:"active"`
	Completed    int             `json:"completed"`
	TotalSaved   decimal.Decimal `json:"totalSaved"`
	TotalPending decimal.Decimal `json:"totalPending"`
}

// Summarize counts goals by status and sums saved and pending amounts of
// the active ones. category filters the goals unless it is empty or CategoryAll.
func Summarize(goals []models.Goal, category string) Summary {
	s := Summary{TotalSaved: decimal.Zero, TotalPending: decimal.Zero}
	for _, g := range goals {
		if category != "" && category != CategoryAll && g.Category != category {
			continue
		}
		if g.IsCompleted() {
			s.Completed++
			continue
		}
		s.Active++
		s.TotalSaved = s.TotalSaved.Add(g.Saved.Decimal)
		s.TotalPending = s.TotalPending.Add(g.Remaining())
	}
	return s
}

// Projection simulates how long a goal takes at a given monthly pace.
type Projection struct {
	GoalID          string          `json:"goalId"`
	Remaining       decimal.Decimal `json:"remaining"`
	Monthly         decimal.Decimal `json:"monthly"`
	MonthsNeeded    int64           `json:"monthsNeeded"`
	BoostPct        decimal.Decimal `json:"boostPct"`
	BoostedMonthly  decimal.Decimal `json:"boostedMonthly"`
	BoostedMonths   int64           `json:"boostedMonths"`
	ProjectedFinish models.Date     `json:"projectedFinish"`
}

// Project simulates paying monthly into goal from now, and the same with
// the payment raised by boostPct percent. Monthly is raised to at least 10.
func Project(goal models.Goal, monthly, boostPct decimal.Decimal, now time.Time) Projection {
	floor := decimal.NewFromInt(minProjectionMonthly)
	if monthly.LessThan(floor) {
		monthly = floor
	}
	if boostPct.IsNegative() {
		boostPct = decimal.Zero
	}
	boosted := monthly.Mul(decimal.NewFromInt(1).Add(boostPct.Div(hundred)))

	remaining := goal.Remaining()
	var months, boostedMonths int64
	if remaining.IsPositive() {
		months = remaining.Div(monthly).Ceil().IntPart()
		boostedMonths = remaining.Div(boosted).Ceil().IntPart()
	}

	return Projection{
		GoalID:          goal.ID,
		Remaining:       remaining,
		Monthly:         monthly,
		MonthsNeeded:    months,
		BoostPct:        boostPct,
		BoostedMonthly:  boosted,
		BoostedMonths:   boostedMonths,
		ProjectedFinish: models.NewDate(now.AddDate(0, int(months), 0)),
	}
}

// SuggestedMonthly is the default pace offered by the projection simulator.
func SuggestedMonthly(goal models.Goal) decimal.Decimal {
	months := goal.Months
	if months <= 0 {
		months = DefaultMonths
	}
	base := goal.Cost.Div(decimal.NewFromInt(int64(months))).Round(0)
	return decimal.Max(base, decimal.NewFromInt(50))
}
