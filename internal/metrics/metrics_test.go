package metrics

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gitlab.com/yelinaung/savings-tracker/internal/models"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func requireDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	require.True(t, dec(want).Equal(got), "want %s, got %s", want, got.String())
}

func TestCompute_EmptyDocument(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	m := Compute(models.NewDocument(), now)

	requireDecimal(t, "0", m.TotalIncomes)
	requireDecimal(t, "0", m.TotalSubs)
	requireDecimal(t, "0", m.TotalExpenses)
	requireDecimal(t, "0", m.TotalOut)
	requireDecimal(t, "0", m.Savings)
	requireDecimal(t, "0", m.AvgMonthly)
	requireDecimal(t, "0", m.YearlyEstimate)
	require.NotNil(t, m.History)
	require.Empty(t, m.History)

	nilDoc := Compute(nil, now)
	require.Empty(t, nilDoc.History)
}

func TestCompute_MonthTotals(t *testing.T) {
	t.Parallel()

	doc := models.NewDocument()
	doc.Incomes = []models.Income{{ID: "i1", Amount: models.AmountFromInt(1000), Date: models.DateOf(2024, 3, 5)}}
	doc.Expenses = []models.Expense{{ID: "e1", Category: models.ExpenseCategoryFood, Amount: models.AmountFromInt(200), Date: models.DateOf(2024, 3, 10)}}

	m := Compute(doc, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC))

	requireDecimal(t, "1000", m.TotalIncomes)
	requireDecimal(t, "200", m.TotalExpenses)
	requireDecimal(t, "200", m.TotalOut)
	requireDecimal(t, "800", m.Savings)
	require.Len(t, m.History, 1)
	require.Equal(t, "2024-03", m.History[0].Key)
	require.Equal(t, "03/2024", m.History[0].Label)
	requireDecimal(t, "800", m.History[0].Value)
	requireDecimal(t, "800", m.AvgMonthly)
	requireDecimal(t, "9600", m.YearlyEstimate)
}

func TestCompute_OtherMonthsExcluded(t *testing.T) {
	t.Parallel()

	doc := models.NewDocument()
	doc.Incomes = []models.Income{
		{Amount: models.AmountFromInt(500), Date: models.DateOf(2024, 2, 28)},
		{Amount: models.AmountFromInt(300), Date: models.DateOf(2023, 3, 5)},
		{Amount: models.AmountFromInt(100), Date: models.DateOf(2024, 3, 1)},
	}

	m := Compute(doc, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC))
	requireDecimal(t, "100", m.TotalIncomes)
	require.Len(t, m.History, 3)
	require.Equal(t, []string{"2023-03", "2024-02", "2024-03"}, []string{m.History[0].Key, m.History[1].Key, m.History[2].Key})
}

func TestCompute_ExpiredTemporarySubscriptionExcluded(t *testing.T) {
	t.Parallel()

	doc := models.NewDocument()
	doc.Subscriptions = []models.Subscription{
		{ID: "s1", Name: "Curso", Cost: models.AmountFromInt(40), Type: models.SubscriptionTemporary, StartDate: models.DateOf(2023, 10, 1), EndDate: models.DateOf(2024, 1, 1)},
		{ID: "s2", Name: "Gimnasio", Cost: models.AmountFromInt(30), Type: models.SubscriptionFixed, StartDate: models.DateOf(2023, 1, 1), EndDate: models.DateOf(2023, 6, 1)},
		{ID: "s3", Name: "Streaming", Cost: models.AmountFromInt(10), Type: models.SubscriptionTemporary, StartDate: models.DateOf(2024, 5, 1)},
	}

	m := Compute(doc, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))
	requireDecimal(t, "40", m.TotalSubs)
	requireDecimal(t, "40", m.TotalOut)
	requireDecimal(t, "-40", m.Savings)
}

func TestCompute_SubscriptionBookedInStartMonthOnly(t *testing.T) {
	t.Parallel()

	doc := models.NewDocument()
	doc.Subscriptions = []models.Subscription{
		{Cost: models.AmountFromInt(15), Type: models.SubscriptionFixed, StartDate: models.DateOf(2024, 1, 20)},
		{Cost: models.AmountFromInt(5), Type: models.SubscriptionFixed},
	}

	m := Compute(doc, time.Date(2024, 4, 2, 0, 0, 0, 0, time.UTC))
	require.Len(t, m.History, 2)
	require.Equal(t, "2024-01", m.History[0].Key)
	requireDecimal(t, "-15", m.History[0].Value)
	require.Equal(t, "2024-04", m.History[1].Key)
	requireDecimal(t, "-5", m.History[1].Value)
	requireDecimal(t, "-10", m.AvgMonthly)
	requireDecimal(t, "-120", m.YearlyEstimate)
}

func TestCompute_MalformedAmountsCoerceToZero(t *testing.T) {
	t.Parallel()

	doc, err := models.DecodeDocument([]byte(`{
		"incomes":[{"id":"i1","amount":"abc","date":"2024-03-05"},{"id":"i2","amount":"250","date":"2024-03-06"}],
		"expenses":[{"id":"e1","amount":null,"date":"2024-03-07"}],
		"subscriptions":[{"id":"s1","cost":true,"type":"fija"}]
	}`))
	require.NoError(t, err)

	m := Compute(doc, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC))
	requireDecimal(t, "250", m.TotalIncomes)
	requireDecimal(t, "0", m.TotalExpenses)
	requireDecimal(t, "0", m.TotalSubs)
}

func TestCompute_Deterministic(t *testing.T) {
	t.Parallel()

	doc := models.NewDocument()
	for i := 1; i <= 12; i++ {
		doc.Incomes = append(doc.Incomes, models.Income{Amount: models.AmountFromInt(int64(100 * i)), Date: models.DateOf(2024, time.Month(i), 1)})
		doc.Expenses = append(doc.Expenses, models.Expense{Amount: models.AmountFromInt(int64(10 * i)), Date: models.DateOf(2024, time.Month(i), 2)})
	}
	now := time.Date(2024, 7, 10, 0, 0, 0, 0, time.UTC)

	first, err := json.Marshal(Compute(doc, now))
	require.NoError(t, err)
	second, err := json.Marshal(Compute(doc, now))
	require.NoError(t, err)
	require.Equal(t, string(first), string(second))
}

func TestCompute_MonthViewedInNowLocation(t *testing.T) {
	t.Parallel()

	madrid, err := time.LoadLocation("Europe/Madrid")
	if err != nil {
		t.Skip("timezone data not available")
	}
	doc := models.NewDocument()
	// 23:30 UTC on March 31 is already April 1 in Madrid.
	doc.Incomes = []models.Income{{Amount: models.AmountFromInt(70), Date: models.NewDate(time.Date(2024, 3, 31, 23, 30, 0, 0, time.UTC))}}

	m := Compute(doc, time.Date(2024, 4, 10, 12, 0, 0, 0, madrid))
	requireDecimal(t, "70", m.TotalIncomes)
	require.Equal(t, "2024-04", m.History[0].Key)
}
