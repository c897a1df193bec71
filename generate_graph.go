//go:build ignore
// +build ignore

package main

import (
	"fmt"
	"os"

	"gitlab.com/yelinaung/savings-tracker/internal/bot"
	"gitlab.com/yelinaung/savings-tracker/internal/metrics"
	"gitlab.com/yelinaung/savings-tracker/internal/models"
)

func main() {
	expenses := []models.Expense{
		{Category: models.ExpenseCategoryFood, Amount: models.AmountFromFloat(150.50), Date: models.MustParseDate("2026-01-03")},
		{Category: models.ExpenseCategoryFood, Amount: models.AmountFromFloat(42.30), Date: models.MustParseDate("2026-01-11")},
		{Category: models.ExpenseCategoryTransport, Amount: models.AmountFromFloat(60), Date: models.MustParseDate("2026-01-07")},
		{Category: models.ExpenseCategoryLeisure, Amount: models.AmountFromFloat(25), Date: models.MustParseDate("2026-01-17")},
		{Category: models.ExpenseCategoryHome, Amount: models.AmountFromFloat(120), Date: models.MustParseDate("2026-01-20")},
	}

	chartData, err := bot.GenerateExpenseChart(metrics.CategoryTotals(expenses), "Gastos de enero 2026")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := os.WriteFile("graph.png", chartData, 0600); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing file: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("✓ Created graph.png - Example expense breakdown chart")
}
