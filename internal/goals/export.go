package goals

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"slices"
	"strings"

	"github.com/shopspring/decimal"
	"gitlab.com/yelinaung/savings-tracker/internal/models"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.Spanish)

// FormatMoney renders an amount in euros using Spanish number formatting.
func FormatMoney(d decimal.Decimal) string {
	return printer.Sprintf("%.2f €", d.InexactFloat64())
}

// Template is a preset for a common goal.
type Template struct {
	ID              string        `json:"id"`
	Name            string        `json:"name"`
	Cost            models.Amount `json:"cost"`
	Months          int           `json:"months"`
	Category        string        `json:"category"`
	Recurrence      string        `json:"recurrence"`
	ReminderCadence string        `json:"reminderCadence"`
}

// NewGoal turns the template into a Create input.
func (t Template) NewGoal() NewGoal {
	return NewGoal{
		Name:            t.Name,
		Category:        t.Category,
		Cost:            t.Cost,
		Months:          t.Months,
		Recurrence:      t.Recurrence,
		ReminderCadence: t.ReminderCadence,
	}
}

// Templates returns the built-in goal presets.
func Templates() []Template {
	return []Template{
		{
			ID: "viaje-anual", Name: "Viaje anual", Cost: models.AmountFromInt(1800), Months: 12,
			Category: models.GoalCategoryTravel, Recurrence: models.RecurrenceYearly, ReminderCadence: models.CadenceMonthly,
		},
		{
			ID: "fondo-emergencia", Name: "Fondo de emergencia", Cost: models.AmountFromInt(3000), Months: 10,
			Category: models.GoalCategoryEmergency, Recurrence: models.RecurrenceMonthly, ReminderCadence: models.CadenceWeekly,
		},
		{
			ID: "renovar-equipo", Name: "Renovar equipo", Cost: models.AmountFromInt(1200), Months: 6,
			Category: models.GoalCategoryShopping, Recurrence: models.RecurrenceYearly, ReminderCadence: models.CadenceMonthly,
		},
	}
}

// FindTemplate looks a template up by id.
func FindTemplate(id string) (Template, bool) {
	for _, t := range Templates() {
		if t.ID == id {
			return t, true
		}
	}
	return Template{}, false
}

// FeedEntry is a contribution annotated with its goal.
type FeedEntry struct {
	models.Contribution
	GoalID   string `json:"goalId"`
	GoalName string `json:"goalName"`
	Category string `json:"category"`
}

// ContributionFeed lists the contributions of every goal, newest first.
func ContributionFeed(goals []models.Goal) []FeedEntry {
	feed := []FeedEntry{}
	for _, g := range goals {
		for _, c := range g.Contributions {
			feed = append(feed, FeedEntry{Contribution: c, GoalID: g.ID, GoalName: g.Name, Category: g.Category})
		}
	}
	slices.SortStableFunc(feed, func(a, b FeedEntry) int {
		return b.Date.Time().Compare(a.Date.Time())
	})
	return feed
}

// ContributionsCSV renders the feed as a CSV file.
func ContributionsCSV(feed []FeedEntry) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	header := []string{"Fecha", "Meta", "Categoría", "Monto", "Nota", "Autor"}
	if err := writer.Write(header); err != nil {
		return nil, fmt.Errorf("failed to write CSV header: %w", err)
	}

	for i := range feed {
		row := []string{
			feed[i].Date.Time().Format("2006-01-02"),
			feed[i].GoalName,
			feed[i].Category,
			feed[i].Amount.StringFixed(2),
			feed[i].Note,
			feed[i].Author,
		}
		if err := writer.Write(row); err != nil {
			return nil, fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// Report renders a plain-text summary of one goal.
func Report(goal models.Goal) string {
	lines := []string{
		"Meta: " + goal.Name,
		"Objetivo: " + FormatMoney(goal.Cost.Decimal),
		"Ahorrado: " + FormatMoney(goal.Saved.Decimal),
		fmt.Sprintf("Colaboradores: %d", len(goal.Collaborators)),
		fmt.Sprintf("Recordatorios: %s · %s", goal.ReminderCadence, goal.ReminderChannel),
		fmt.Sprintf("Historial: %d eventos", len(goal.History)),
	}
	return strings.Join(lines, "\n")
}

// ReportFilename is the download name of a goal report.
func ReportFilename(goal models.Goal) string {
	return goal.Name + "-reporte.txt"
}
