package goals

import (
	"fmt"
	"strings"
	"time"

	"gitlab.com/yelinaung/savings-tracker/internal/models"
)

// CollaboratorInput is the input of AddCollaborator.
type CollaboratorInput struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// CommentInput is the input of AddComment.
type CommentInput struct {
	Author string `json:"author"`
	Role   string `json:"role"`
	Text   string `json:"text"`
}

// UpdateReminder merges reminder preferences into the goal. It is not a
// structural change: no history entry, no version bump.
func UpdateReminder(goal models.Goal, patch models.ReminderPatch) models.Goal {
	g := goal.Clone()
	if patch.Cadence != nil {
		g.ReminderCadence = *patch.Cadence
	}
	if patch.Channel != nil {
		g.ReminderChannel = *patch.Channel
	}
	if patch.OptIn != nil {
		g.ReminderOptIn = *patch.OptIn
	}
	return g
}

// UpdateDetails applies patch to the goal.
//
// Changes to cost, deadline and months are summarized in a single Ajuste
// history entry and bump the version. Name, category and notes are applied
// silently.
func (e *Engine) UpdateDetails(goal models.Goal, patch models.DetailsPatch, now time.Time) (models.Goal, error) {
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return goal, ErrNameRequired
	}
	if patch.Cost != nil && !patch.Cost.IsPositive() {
		return goal, ErrCostNotPositive
	}

	g := goal.Clone()
	if patch.Name != nil {
		g.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Category != nil {
		g.Category = *patch.Category
	}
	if patch.Notes != nil {
		g.Notes = *patch.Notes
	}

	var diffs []string
	if patch.Cost != nil && !patch.Cost.Equal(g.Cost.Decimal) {
		diffs = append(diffs, fmt.Sprintf("objetivo %s → %s", FormatMoney(g.Cost.Decimal), FormatMoney(patch.Cost.Decimal)))
		g.Cost = *patch.Cost
	}
	if patch.Months != nil && *patch.Months > 0 && *patch.Months != g.Months {
		diffs = append(diffs, fmt.Sprintf("plazo %d → %d meses", g.Months, *patch.Months))
		g.Months = *patch.Months
	}
	if patch.Deadline != nil && !patch.Deadline.IsZero() && !patch.Deadline.Equal(g.Deadline) {
		diffs = append(diffs, fmt.Sprintf("fecha límite %s → %s", g.Deadline, *patch.Deadline))
		g.Deadline = *patch.Deadline
	}

	if len(diffs) > 0 {
		prependHistory(&g, e.historyEntry(now, models.ActionAdjustment, strings.Join(diffs, "; ")))
		g.Version++
	}
	return g, nil
}

// AddCollaborator shares the goal with a new person.
func (e *Engine) AddCollaborator(goal models.Goal, in CollaboratorInput, now time.Time) (models.Goal, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return goal, ErrCollaboratorNameRequired
	}
	role := in.Role
	if role == "" {
		role = models.RoleViewer
	}
	if !models.ValidRole(role) {
		return goal, ErrInvalidRole
	}

	g := goal.Clone()
	g.Collaborators = append(g.Collaborators, models.Collaborator{
		ID:       e.newID(),
		Name:     name,
		Email:    strings.TrimSpace(in.Email),
		Role:     role,
		JoinedAt: models.NewDate(now),
	})
	g.IsShared = true
	prependHistory(&g, e.historyEntry(now, models.ActionCollaboration, fmt.Sprintf("%s se unió como %s", name, role)))
	return g, nil
}

// UpdateCollaboratorRole changes the role of the collaborator with the given id.
func (e *Engine) UpdateCollaboratorRole(goal models.Goal, collaboratorID, role string, now time.Time) (models.Goal, error) {
	if !models.ValidRole(role) {
		return goal, ErrInvalidRole
	}

	idx := -1
	for i := range goal.Collaborators {
		if goal.Collaborators[i].ID == collaboratorID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return goal, ErrCollaboratorNotFound
	}

	g := goal.Clone()
	g.Collaborators[idx].Role = role
	prependHistory(&g, e.historyEntry(now, models.ActionCollaboration,
		fmt.Sprintf("%s ahora es %s", g.Collaborators[idx].Name, role)))
	return g, nil
}

// AddComment prepends a comment to the goal.
func (e *Engine) AddComment(goal models.Goal, in CommentInput, now time.Time) (models.Goal, error) {
	text := strings.TrimSpace(in.Text)
	if text == "" {
		return goal, ErrCommentRequired
	}
	author := strings.TrimSpace(in.Author)
	if author == "" {
		author = DefaultAuthor
	}
	role := in.Role
	if role == "" {
		role = models.RoleAdmin
	}

	g := goal.Clone()
	g.Comments = append([]models.Comment{{
		ID:        e.newID(),
		Author:    author,
		Role:      role,
		Text:      text,
		Timestamp: models.NewDate(now),
	}}, g.Comments...)
	return g, nil
}

// UpdateAutomation merges patch into the goal's AutoSchedule. Without an
// explicit NextRun the next run is the next recurrence deadline.
func (e *Engine) UpdateAutomation(goal models.Goal, patch models.AutomationPatch, now time.Time) models.Goal {
	g := goal.Clone()
	s := g.AutoSchedule

	if patch.Enabled != nil {
		s.Enabled = *patch.Enabled
	}
	if patch.Cadence != nil && *patch.Cadence != "" {
		s.Cadence = *patch.Cadence
	}
	if s.Cadence == "" {
		s.Cadence = models.CadenceMonthly
	}
	if patch.Amount != nil && !patch.Amount.IsNegative() {
		s.Amount = *patch.Amount
	}
	if patch.NextRun != nil && !patch.NextRun.IsZero() {
		s.NextRun = *patch.NextRun
	} else {
		s.NextRun = NextDeadlineFromRecurrence(goal, now)
	}
	g.AutoSchedule = s

	detail := "Automatización pausada"
	if s.Enabled {
		detail = fmt.Sprintf("Automatización activada: %s %s", FormatMoney(s.Amount.Decimal), s.Cadence)
	}
	prependHistory(&g, e.historyEntry(now, models.ActionAutomation, detail))
	return g
}
