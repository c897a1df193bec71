package bot

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-analyze/charts"
	"gitlab.com/yelinaung/savings-tracker/internal/metrics"
)

var errNothingToChart = errors.New("no expenses to chart")

// GenerateExpenseChart creates a pie chart of spending per category.
// Returns PNG image as bytes.
func GenerateExpenseChart(totals []metrics.CategoryTotal, title string) ([]byte, error) {
	if len(totals) == 0 {
		return nil, errNothingToChart
	}

	values := make([]float64, 0, len(totals))
	names := make([]string, 0, len(totals))
	for _, t := range totals {
		names = append(names, t.Category)
		values = append(values, t.Total.InexactFloat64())
	}

	p, err := charts.PieRender(
		values,
		charts.TitleOptionFunc(charts.TitleOption{
			Text: title,
		}),
		charts.LegendLabelsOptionFunc(names),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create chart: %w", err)
	}

	buf, err := p.Bytes()
	if err != nil {
		return nil, fmt.Errorf("failed to render chart: %w", err)
	}

	return buf, nil
}

// chartFilename creates a filename like "gastos_2024-03.png".
func chartFilename(now time.Time) string {
	return fmt.Sprintf("gastos_%s.png", now.Format("2006-01"))
}
