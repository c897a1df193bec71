package bot

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"slices"
	"time"

	"gitlab.com/yelinaung/savings-tracker/internal/models"
)

const (
	entryKindIncome  = "Ingreso"
	entryKindExpense = "Gasto"
)

type csvEntry struct {
	date     models.Date
	kind     string
	category string
	amount   models.Amount
	notes    string
}

// GenerateEntriesCSV generates a CSV file of incomes and expenses, oldest first.
func GenerateEntriesCSV(incomes []models.Income, expenses []models.Expense) ([]byte, error) {
	entries := make([]csvEntry, 0, len(incomes)+len(expenses))
	for _, in := range incomes {
		entries = append(entries, csvEntry{in.Date, entryKindIncome, in.Type, in.Amount, in.Notes})
	}
	for _, e := range expenses {
		entries = append(entries, csvEntry{e.Date, entryKindExpense, e.Category, e.Amount, e.Notes})
	}
	slices.SortStableFunc(entries, func(a, b csvEntry) int {
		return a.date.Time().Compare(b.date.Time())
	})

	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	header := []string{"Fecha", "Tipo", "Categoría", "Monto", "Notas"}
	if err := writer.Write(header); err != nil {
		return nil, fmt.Errorf("failed to write CSV header: %w", err)
	}

	for i := range entries {
		row := []string{
			entries[i].date.Time().Format("2006-01-02"),
			entries[i].kind,
			entries[i].category,
			entries[i].amount.StringFixed(2),
			entries[i].notes,
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

// entriesFilename creates a filename like "movimientos_2024-03.csv".
func entriesFilename(now time.Time) string {
	return fmt.Sprintf("movimientos_%s.csv", now.Format("2006-01"))
}

// contributionsFilename creates a filename like "aportes_2024-03-15.csv".
func contributionsFilename(now time.Time) string {
	return fmt.Sprintf("aportes_%s.csv", now.Format("2006-01-02"))
}
