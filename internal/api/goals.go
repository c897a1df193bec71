package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gitlab.com/yelinaung/savings-tracker/internal/goals"
	"gitlab.com/yelinaung/savings-tracker/internal/models"
)

type createGoalRequest struct {
	goals.NewGoal
	// TemplateID starts from a template; non-empty fields of NewGoal override it.
	TemplateID string `json:"templateId"`
}

type roleRequest struct {
	Role string `json:"role"`
}

func (s *Server) listGoals(c *gin.Context) {
	t, ok := s.userTracker(c)
	if !ok {
		return
	}
	category := c.DefaultQuery("category", goals.CategoryAll)
	doc := t.Document()

	filtered := make([]models.Goal, 0, len(doc.Goals))
	for _, g := range doc.Goals {
		if category == goals.CategoryAll || g.Category == category {
			filtered = append(filtered, g)
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"data":    goals.Views(filtered, t.Now()),
		"summary": goals.Summarize(doc.Goals, category),
	})
}

func (s *Server) listTemplates(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": goals.Templates()})
}

func (req createGoalRequest) resolve() (goals.NewGoal, error) {
	if req.TemplateID == "" {
		return req.NewGoal, nil
	}
	tpl, ok := goals.FindTemplate(req.TemplateID)
	if !ok {
		return goals.NewGoal{}, errTemplateNotFound
	}
	in := tpl.NewGoal()
	if strings.TrimSpace(req.Name) != "" {
		in.Name = req.Name
	}
	if req.Cost.IsPositive() {
		in.Cost = req.Cost
	}
	if req.Months > 0 {
		in.Months = req.Months
	}
	if !req.Deadline.IsZero() {
		in.Deadline = req.Deadline
	}
	if req.Notes != "" {
		in.Notes = req.Notes
	}
	return in, nil
}

func (s *Server) createGoal(c *gin.Context) {
	var req createGoalRequest
	if !bind(c, &req) {
		return
	}
	in, err := req.resolve()
	if err != nil {
		fail(c, err)
		return
	}
	t, ok := s.userTracker(c)
	if !ok {
		return
	}
	goal, err := t.CreateGoal(in)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, goal)
}

func (s *Server) getGoal(c *gin.Context) {
	t, ok := s.userTracker(c)
	if !ok {
		return
	}
	view, err := t.Goal(c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (s *Server) deleteGoal(c *gin.Context) {
	t, ok := s.userTracker(c)
	if !ok {
		return
	}
	if err := t.DeleteGoal(c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) contribute(c *gin.Context) {
	var in goals.ContributionInput
	if !bind(c, &in) {
		return
	}
	t, ok := s.userTracker(c)
	if !ok {
		return
	}
	res, err := t.Contribute(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) updateGoalDetails(c *gin.Context) {
	var patch models.DetailsPatch
	if !bind(c, &patch) {
		return
	}
	t, ok := s.userTracker(c)
	if !ok {
		return
	}
	goal, err := t.UpdateGoalDetails(c.Param("id"), patch)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, goal)
}

func (s *Server) updateGoalReminder(c *gin.Context) {
	var patch models.ReminderPatch
	if !bind(c, &patch) {
		return
	}
	t, ok := s.userTracker(c)
	if !ok {
		return
	}
	goal, err := t.UpdateGoalReminder(c.Param("id"), patch)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, goal)
}

func (s *Server) addCollaborator(c *gin.Context) {
	var in goals.CollaboratorInput
	if !bind(c, &in) {
		return
	}
	t, ok := s.userTracker(c)
	if !ok {
		return
	}
	goal, err := t.AddCollaborator(c.Param("id"), in)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, goal)
}

func (s *Server) updateCollaboratorRole(c *gin.Context) {
	var req roleRequest
	if !bind(c, &req) {
		return
	}
	t, ok := s.userTracker(c)
	if !ok {
		return
	}
	goal, err := t.UpdateCollaboratorRole(c.Param("id"), c.Param("collaboratorId"), req.Role)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, goal)
}

func (s *Server) addComment(c *gin.Context) {
	var in goals.CommentInput
	if !bind(c, &in) {
		return
	}
	t, ok := s.userTracker(c)
	if !ok {
		return
	}
	goal, err := t.AddComment(c.Param("id"), in)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, goal)
}

func (s *Server) updateAutomation(c *gin.Context) {
	var patch models.AutomationPatch
	if !bind(c, &patch) {
		return
	}
	t, ok := s.userTracker(c)
	if !ok {
		return
	}
	goal, err := t.UpdateAutomation(c.Param("id"), patch)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, goal)
}

func decimalQuery(c *gin.Context, key string, fallback decimal.Decimal) (decimal.Decimal, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return fallback, nil
	}
	d, err := decimal.NewFromString(strings.ReplaceAll(raw, ",", "."))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %s", errInvalidQuery, key)
	}
	return d, nil
}

// projectGoal runs the projection simulator. monthly defaults to the
// suggested pace of the goal and boost to zero.
func (s *Server) projectGoal(c *gin.Context) {
	t, ok := s.userTracker(c)
	if !ok {
		return
	}
	view, err := t.Goal(c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	monthly, err := decimalQuery(c, "monthly", goals.SuggestedMonthly(view.Goal))
	if err != nil {
		fail(c, err)
		return
	}
	boost, err := decimalQuery(c, "boost", decimal.Zero)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, goals.Project(view.Goal, monthly, boost, t.Now()))
}

func (s *Server) goalReport(c *gin.Context) {
	t, ok := s.userTracker(c)
	if !ok {
		return
	}
	view, err := t.Goal(c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", goals.ReportFilename(view.Goal)))
	c.String(http.StatusOK, goals.Report(view.Goal))
}

// contributionFeed lists every contribution across goals, newest first.
// With format=csv it downloads the feed as a CSV file.
func (s *Server) contributionFeed(c *gin.Context) {
	t, ok := s.userTracker(c)
	if !ok {
		return
	}
	feed := goals.ContributionFeed(t.Document().Goals)
	if c.Query("format") != "csv" {
		c.JSON(http.StatusOK, gin.H{"data": feed})
		return
	}

	data, err := goals.ContributionsCSV(feed)
	if err != nil {
		fail(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="aportes.csv"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", data)
}
