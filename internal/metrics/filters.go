package metrics

import (
	"strings"
	"time"

	"gitlab.com/yelinaung/savings-tracker/internal/models"
)

// Income periods.
const (
	PeriodMonth = "month"
	PeriodYear  = "year"
	PeriodAll   = "all"
)

// CategoryAll disables the expense category filter.
const CategoryAll = "all"

func matchesSearch(query string, fields ...string) bool {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return true
	}
	return strings.Contains(strings.ToLower(strings.Join(fields, " ")), query)
}

// FilterIncomes returns the incomes in period (relative to now) whose type
// or notes contain query. Unknown periods behave like PeriodAll.
func FilterIncomes(incomes []models.Income, period, query string, now time.Time) []models.Income {
	out := []models.Income{}
	for _, inc := range incomes {
		if !matchesSearch(query, inc.Type, inc.Notes) {
			continue
		}
		switch period {
		case PeriodMonth:
			if !inc.Date.SameMonth(now) {
				continue
			}
		case PeriodYear:
			if inc.Date.IsZero() || inc.Date.Time().In(now.Location()).Year() != now.Year() {
				continue
			}
		}
		out = append(out, inc)
	}
	return out
}

// FilterExpenses returns the expenses of category whose category or notes
// contain query. An empty category or CategoryAll matches every expense.
func FilterExpenses(expenses []models.Expense, category, query string) []models.Expense {
	out := []models.Expense{}
	for _, exp := range expenses {
		if !matchesSearch(query, exp.Category, exp.Notes) {
			continue
		}
		if category != "" && category != CategoryAll && exp.Category != category {
			continue
		}
		out = append(out, exp)
	}
	return out
}

// MonthExpenses returns the expenses dated in now's calendar month.
func MonthExpenses(expenses []models.Expense, now time.Time) []models.Expense {
	out := []models.Expense{}
	for _, exp := range expenses {
		if exp.Date.SameMonth(now) {
			out = append(out, exp)
		}
	}
	return out
}
