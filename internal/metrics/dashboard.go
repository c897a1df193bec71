package metrics

import (
	"cmp"
	"slices"
	"time"

	"github.com/shopspring/decimal"
	"gitlab.com/yelinaung/savings-tracker/internal/models"
)

// Health labels by savings rate.
const (
	HealthExcellent = "Excelente"
	HealthHealthy   = "Sano"
	HealthStable    = "Estable"
	HealthAlert     = "En alerta"
)

// Activity tones.
const (
	TonePositive = "positive"
	ToneNegative = "negative"
	ToneNeutral  = "neutral"
)

const (
	upcomingGoalsLimit  = 3
	recentActivityLimit = 6
	trendMonths         = 6
	subscriptionsLimit  = 5
)

var (
	hundred          = decimal.NewFromInt(100)
	coverageLimit    = decimal.NewFromInt(70)
	healthExcellent  = decimal.NewFromInt(45)
	healthHealthyMin = decimal.NewFromInt(15)
)

// Activity is one dated item of the recent activity feed.
type Activity struct {
	ID     string          `json:"id"`
	Label  string          `json:"label"`
	Note   string          `json:"note"`
	Amount decimal.Decimal `json:"amount"`
	Date   models.Date     `json:"date"`
	Tone   string          `json:"tone"`
}

// Advice is a suggestion shown on the dashboard.
type Advice struct {
	Title  string `json:"title"`
	Detail string `json:"detail"`
}

// UpcomingGoal is a goal with its progress ratio.
type UpcomingGoal struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Saved    decimal.Decimal `json:"saved"`
	Cost     decimal.Decimal `json:"cost"`
	Progress decimal.Decimal `json:"progress"`
}

// Dashboard is the main read model shown after login.
type Dashboard struct {
	Metrics        Metrics         `json:"metrics"`
	SavingsRate    decimal.Decimal `json:"savingsRate"`
	Coverage       decimal.Decimal `json:"coverage"`
	Health         string          `json:"health"`
	UpcomingGoals  []UpcomingGoal  `json:"upcomingGoals"`
	RecentActivity []Activity      `json:"recentActivity"`
	Advice         []Advice        `json:"advice"`
	BestMonth      *HistoryPoint   `json:"bestMonth,omitempty"`
	WorstMonth     *HistoryPoint   `json:"worstMonth,omitempty"`
	Trend          []HistoryPoint  `json:"trend"`
}

// BuildDashboard computes the dashboard for doc as of now.
func BuildDashboard(doc *models.Document, now time.Time) Dashboard {
	m := Compute(doc, now)

	d := Dashboard{
		Metrics:        m,
		SavingsRate:    decimal.Zero,
		Coverage:       decimal.Zero,
		UpcomingGoals:  []UpcomingGoal{},
		RecentActivity: []Activity{},
		Advice:         []Advice{},
		Trend:          lastN(m.History, trendMonths),
	}

	if !m.TotalIncomes.IsZero() {
		d.SavingsRate = m.Savings.Div(m.TotalIncomes).Mul(hundred)
		d.Coverage = m.TotalOut.Div(m.TotalIncomes).Mul(hundred)
	}
	d.Health = HealthLabel(d.SavingsRate)
	d.BestMonth, d.WorstMonth = bestAndWorst(m.History)

	if doc == nil {
		return d
	}

	d.UpcomingGoals = upcomingGoals(doc.Goals)
	d.RecentActivity = recentActivity(doc)
	d.Advice = advice(d.Coverage, len(doc.Subscriptions), m.AvgMonthly)

	return d
}

// HealthLabel classifies a savings rate expressed in percent.
func HealthLabel(rate decimal.Decimal) string {
	switch {
	case rate.GreaterThan(healthExcellent):
		return HealthExcellent
	case rate.GreaterThan(healthHealthyMin):
		return HealthHealthy
	case rate.IsPositive():
		return HealthStable
	default:
		return HealthAlert
	}
}

func progressRatio(saved, cost decimal.Decimal) decimal.Decimal {
	if !cost.IsPositive() {
		return decimal.Zero
	}
	return saved.Div(cost)
}

func upcomingGoals(goals []models.Goal) []UpcomingGoal {
	out := make([]UpcomingGoal, 0, len(goals))
	for _, g := range goals {
		out = append(out, UpcomingGoal{
			ID:       g.ID,
			Name:     g.Name,
			Saved:    g.Saved.Decimal,
			Cost:     g.Cost.Decimal,
			Progress: progressRatio(g.Saved.Decimal, g.Cost.Decimal).Mul(hundred),
		})
	}
	slices.SortStableFunc(out, func(a, b UpcomingGoal) int {
		return a.Progress.Cmp(b.Progress)
	})
	if len(out) > upcomingGoalsLimit {
		out = out[:upcomingGoalsLimit]
	}
	return out
}

func recentActivity(doc *models.Document) []Activity {
	var items []Activity
	for _, inc := range doc.Incomes {
		label := inc.Type
		if label == "" {
			label = "Ingreso"
		}
		items = append(items, Activity{
			ID: inc.ID, Label: label, Note: inc.Notes,
			Amount: inc.Amount.Decimal, Date: inc.Date, Tone: TonePositive,
		})
	}
	for _, exp := range doc.Expenses {
		items = append(items, Activity{
			ID: exp.ID, Label: exp.Category, Note: exp.Notes,
			Amount: exp.Amount.Neg(), Date: exp.Date, Tone: ToneNegative,
		})
	}
	for _, sub := range doc.Subscriptions {
		note := "Subscripción temporal"
		if sub.Type == models.SubscriptionFixed {
			note = "Subscripción fija"
		}
		items = append(items, Activity{
			ID: sub.ID, Label: sub.Name, Note: note,
			Amount: sub.Cost.Neg(), Date: sub.StartDate, Tone: ToneNeutral,
		})
	}

	items = slices.DeleteFunc(items, func(a Activity) bool { return a.Date.IsZero() })
	slices.SortStableFunc(items, func(a, b Activity) int {
		return b.Date.Time().Compare(a.Date.Time())
	})
	if len(items) > recentActivityLimit {
		items = items[:recentActivityLimit]
	}
	if items == nil {
		items = []Activity{}
	}
	return items
}

func advice(coverage decimal.Decimal, subscriptions int, avgMonthly decimal.Decimal) []Advice {
	out := []Advice{}
	if coverage.GreaterThan(coverageLimit) {
		out = append(out, Advice{
			Title:  "Reduce gastos variables",
			Detail: "Tus egresos consumen más del 70% de los ingresos. Revisa ocio y compras impulsivas.",
		})
	}
	if subscriptions > subscriptionsLimit {
		out = append(out, Advice{
			Title:  "Audita subscripciones",
			Detail: "Tienes más de 5 servicios activos. Cancela los que no uses a menudo.",
		})
	}
	if avgMonthly.IsNegative() {
		out = append(out, Advice{
			Title:  "Ajusta tu ritmo de ahorro",
			Detail: "Tu media mensual es negativa. Prioriza crear un colchón de emergencia.",
		})
	}
	return out
}

func bestAndWorst(history []HistoryPoint) (*HistoryPoint, *HistoryPoint) {
	if len(history) == 0 {
		return nil, nil
	}
	best := slices.MaxFunc(history, func(a, b HistoryPoint) int { return a.Value.Cmp(b.Value) })
	worst := slices.MinFunc(history, func(a, b HistoryPoint) int { return a.Value.Cmp(b.Value) })
	return &best, &worst
}

func lastN[T any](items []T, n int) []T {
	start := max(len(items)-n, 0)
	return append([]T{}, items[start:]...)
}

// CategoryTotal is the spending of one expense category.
type CategoryTotal struct {
	Category string          `json:"category"`
	Total    decimal.Decimal `json:"total"`
}

// CategoryTotals sums expenses per category, largest first.
func CategoryTotals(expenses []models.Expense) []CategoryTotal {
	totals := make(map[string]decimal.Decimal)
	for _, e := range expenses {
		totals[e.Category] = totals[e.Category].Add(e.Amount.Decimal)
	}

	out := make([]CategoryTotal, 0, len(totals))
	for cat, total := range totals {
		out = append(out, CategoryTotal{Category: cat, Total: total})
	}
	slices.SortFunc(out, func(a, b CategoryTotal) int {
		if c := b.Total.Cmp(a.Total); c != 0 {
			return c
		}
		return cmp.Compare(a.Category, b.Category)
	})
	return out
}

// TopCategory returns the category with the highest spending.
func TopCategory(expenses []models.Expense) (CategoryTotal, bool) {
	totals := CategoryTotals(expenses)
	if len(totals) == 0 {
		return CategoryTotal{}, false
	}
	return totals[0], true
}
