package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gitlab.com/yelinaung/savings-tracker/internal/metrics"
	"gitlab.com/yelinaung/savings-tracker/internal/tracker"
)

func (s *Server) listIncomes(c *gin.Context) {
	t, ok := s.userTracker(c)
	if !ok {
		return
	}
	period := c.DefaultQuery("period", metrics.PeriodAll)
	doc := t.Document()
	c.JSON(http.StatusOK, gin.H{
		"data": metrics.FilterIncomes(doc.Incomes, period, c.Query("q"), t.Now()),
	})
}

func (s *Server) addIncome(c *gin.Context) {
	var in tracker.IncomeInput
	if !bind(c, &in) {
		return
	}
	t, ok := s.userTracker(c)
	if !ok {
		return
	}
	income, err := t.AddIncome(in)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, income)
}

func (s *Server) deleteIncome(c *gin.Context) {
	t, ok := s.userTracker(c)
	if !ok {
		return
	}
	if err := t.DeleteIncome(c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// listExpenses returns the filtered expenses plus the month's category totals.
func (s *Server) listExpenses(c *gin.Context) {
	t, ok := s.userTracker(c)
	if !ok {
		return
	}
	doc := t.Document()
	month := metrics.MonthExpenses(doc.Expenses, t.Now())

	body := gin.H{
		"data":   metrics.FilterExpenses(doc.Expenses, c.Query("category"), c.Query("q")),
		"totals": metrics.CategoryTotals(month),
	}
	if top, ok := metrics.TopCategory(month); ok {
		body["topCategory"] = top
	}
	c.JSON(http.StatusOK, body)
}

func (s *Server) addExpense(c *gin.Context) {
	var in tracker.ExpenseInput
	if !bind(c, &in) {
		return
	}
	t, ok := s.userTracker(c)
	if !ok {
		return
	}
	expense, err := t.AddExpense(in)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, expense)
}

func (s *Server) deleteExpense(c *gin.Context) {
	t, ok := s.userTracker(c)
	if !ok {
		return
	}
	if err := t.DeleteExpense(c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) listSubscriptions(c *gin.Context) {
	t, ok := s.userTracker(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": t.Document().Subscriptions})
}

func (s *Server) addSubscription(c *gin.Context) {
	var in tracker.SubscriptionInput
	if !bind(c, &in) {
		return
	}
	t, ok := s.userTracker(c)
	if !ok {
		return
	}
	sub, err := t.AddSubscription(in)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, sub)
}

func (s *Server) deleteSubscription(c *gin.Context) {
	t, ok := s.userTracker(c)
	if !ok {
		return
	}
	if err := t.DeleteSubscription(c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
