// Package metrics derives read-only aggregates from a Document.
//
// Everything here is a pure function of the Document and an explicit now.
// Nothing is cached: callers recompute after every mutation.
package metrics

import (
	"fmt"
	"slices"
	"time"

	"github.com/shopspring/decimal"
	"gitlab.com/yelinaung/savings-tracker/internal/models"
)

// HistoryPoint is the net balance of one calendar month.
type HistoryPoint struct {
	Key   string          `json:"key"`
	Label string          `json:"label"`
	Value decimal.Decimal `json:"value"`
}

// Metrics are the aggregates of the month containing now plus the monthly history.
type Metrics struct {
	TotalIncomes   decimal.Decimal `json:"totalIncomes"`
	TotalSubs      decimal.Decimal `json:"totalSubs"`
	TotalExpenses  decimal.Decimal `json:"totalExpenses"`
	TotalOut       decimal.Decimal `json:"totalOut"`
	Savings        decimal.Decimal `json:"savings"`
	History        []HistoryPoint  `json:"history"`
	AvgMonthly     decimal.Decimal `json:"avgMonthly"`
	YearlyEstimate decimal.Decimal `json:"yearlyEstimate"`
}

var twelve = decimal.NewFromInt(12)

// Compute derives Metrics from doc as of now.
//
// Incomes and expenses count only when they fall in now's calendar month.
// Subscriptions count when active at now. The history books each
// subscription once, in the month of its start date; a subscription
// without a start date is booked in now's month.
func Compute(doc *models.Document, now time.Time) Metrics {
	m := Metrics{
		TotalIncomes:   decimal.Zero,
		TotalSubs:      decimal.Zero,
		TotalExpenses:  decimal.Zero,
		TotalOut:       decimal.Zero,
		Savings:        decimal.Zero,
		History:        []HistoryPoint{},
		AvgMonthly:     decimal.Zero,
		YearlyEstimate: decimal.Zero,
	}
	if doc == nil {
		return m
	}

	for _, inc := range doc.Incomes {
		if inc.Date.SameMonth(now) {
			m.TotalIncomes = m.TotalIncomes.Add(inc.Amount.Decimal)
		}
	}
	for _, exp := range doc.Expenses {
		if exp.Date.SameMonth(now) {
			m.TotalExpenses = m.TotalExpenses.Add(exp.Amount.Decimal)
		}
	}
	for _, sub := range doc.Subscriptions {
		if sub.ActiveAt(now) {
			m.TotalSubs = m.TotalSubs.Add(sub.Cost.Decimal)
		}
	}

	m.TotalOut = m.TotalSubs.Add(m.TotalExpenses)
	m.Savings = m.TotalIncomes.Sub(m.TotalOut)
	m.History = buildHistory(doc, now)

	if len(m.History) > 0 {
		sum := decimal.Zero
		for _, h := range m.History {
			sum = sum.Add(h.Value)
		}
		m.AvgMonthly = sum.Div(decimal.NewFromInt(int64(len(m.History))))
		m.YearlyEstimate = m.AvgMonthly.Mul(twelve)
	}

	return m
}

type monthKey struct {
	year  int
	month time.Month
}

func (k monthKey) key() string {
	return fmt.Sprintf("%04d-%02d", k.year, int(k.month))
}

func (k monthKey) label() string {
	return fmt.Sprintf("%02d/%04d", int(k.month), k.year)
}

func keyOf(d models.Date, loc *time.Location) (monthKey, bool) {
	if d.IsZero() {
		return monthKey{}, false
	}
	t := d.Time().In(loc)
	return monthKey{year: t.Year(), month: t.Month()}, true
}

func buildHistory(doc *models.Document, now time.Time) []HistoryPoint {
	buckets := make(map[monthKey]decimal.Decimal)
	add := func(k monthKey, delta decimal.Decimal) {
		buckets[k] = buckets[k].Add(delta)
	}

	loc := now.Location()
	for _, inc := range doc.Incomes {
		if k, ok := keyOf(inc.Date, loc); ok {
			add(k, inc.Amount.Decimal)
		}
	}
	for _, exp := range doc.Expenses {
		if k, ok := keyOf(exp.Date, loc); ok {
			add(k, exp.Amount.Neg())
		}
	}
	// Subscriptions count once, in their start month, not in every month
	// they are active.
	current := monthKey{year: now.Year(), month: now.Month()}
	for _, sub := range doc.Subscriptions {
		k, ok := keyOf(sub.StartDate, loc)
		if !ok {
			k = current
		}
		add(k, sub.Cost.Neg())
	}

	keys := make([]monthKey, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b monthKey) int {
		if a.year != b.year {
			return a.year - b.year
		}
		return int(a.month) - int(b.month)
	})

	history := make([]HistoryPoint, 0, len(keys))
	for _, k := range keys {
		history = append(history, HistoryPoint{Key: k.key(), Label: k.label(), Value: buckets[k]})
	}
	return history
}
