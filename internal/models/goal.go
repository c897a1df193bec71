package models

import "github.com/shopspring/decimal"

// GoalStatus is the lifecycle state of a single goal instance.
type GoalStatus string

// Goal statuses. Completed is terminal for a goal instance.
const (
	GoalStatusActive    GoalStatus = "active"
	GoalStatusCompleted GoalStatus = "completed"
)

// Recurrence policies.
const (
	RecurrenceOnce    = "unica"
	RecurrenceMonthly = "mensual"
	RecurrenceYearly  = "anual"
)

// Collaborator roles.
const (
	RoleViewer = "viewer"
	RoleEditor = "editor"
	RoleAdmin  = "admin"
)

// ValidRole reports whether role is a known collaborator role.
func ValidRole(role string) bool {
	switch role {
	case RoleViewer, RoleEditor, RoleAdmin:
		return true
	}
	return false
}

// History actions.
const (
	ActionCreated       = "Creación"
	ActionContribution  = "Aporte"
	ActionAdjustment    = "Ajuste"
	ActionCollaboration = "Colaboración"
	ActionAutomation    = "Automatización"
)

// Goal categories.
const (
	GoalCategoryHome       = "hogar"
	GoalCategoryTravel     = "viajes"
	GoalCategoryEmergency  = "emergencias"
	GoalCategoryShopping   = "compras"
	GoalCategoryInvestment = "inversiones"
	GoalCategoryEducation  = "educacion"
	GoalCategoryOther      = "otros"
)

// Goal is a savings objective with a target amount, a deadline and a
// contribution ledger.
type Goal struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Category   string `json:"category"`
	SharedCode string `json:"sharedCode"`
	ShareURL   string `json:"shareUrl"`
	IsShared   bool   `json:"isShared"`

	Cost       Amount `json:"cost"`
	Months     int    `json:"months"`
	Deadline   Date   `json:"deadline"`
	CreatedAt  Date   `json:"createdAt"`
	Recurrence string `json:"recurrence"`

	Saved       Amount     `json:"saved"`
	Status      GoalStatus `json:"status"`
	CompletedAt Date       `json:"completedAt,omitzero"`
	Notes       string     `json:"notes"`

	Collaborators []Collaborator `json:"collaborators"`
	Comments      []Comment      `json:"comments"`
	Contributions []Contribution `json:"contributions"`
	History       []HistoryEntry `json:"history"`
	Version       int            `json:"version"`

	AutoSchedule AutoSchedule `json:"autoSchedule"`

	ReminderCadence string `json:"reminderCadence"`
	ReminderChannel string `json:"reminderChannel"`
	ReminderOptIn   bool   `json:"reminderOptIn"`
}

// Collaborator is a person the goal is shared with.
type Collaborator struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	JoinedAt Date   `json:"joinedAt"`
}

// Comment is a note left on a shared goal.
type Comment struct {
	ID        string `json:"id"`
	Author    string `json:"author"`
	Role      string `json:"role"`
	Text      string `json:"text"`
	Timestamp Date   `json:"timestamp"`
}

// Contribution is a single ledger entry that increased Saved.
type Contribution struct {
	ID     string `json:"id"`
	Date   Date   `json:"date"`
	Amount Amount `json:"amount"`
	Note   string `json:"note"`
	Author string `json:"author"`
}

// HistoryEntry is one line of the goal audit log.
type HistoryEntry struct {
	ID        string `json:"id"`
	Timestamp Date   `json:"timestamp"`
	Action    string `json:"action"`
	Detail    string `json:"detail"`
}

// AutoSchedule describes recurring automatic contributions.
type AutoSchedule struct {
	Enabled bool   `json:"enabled"`
	Cadence string `json:"cadence"`
	Amount  Amount `json:"amount"`
	NextRun Date   `json:"nextRun,omitzero"`
}

// IsCompleted reports whether the goal reached its terminal state.
func (g Goal) IsCompleted() bool {
	return g.Status == GoalStatusCompleted
}

// Contributed returns the sum of all ledger entries.
func (g Goal) Contributed() decimal.Decimal {
	total := decimal.Zero
	for _, c := range g.Contributions {
		total = total.Add(c.Amount.Decimal)
	}
	return total
}

// Baseline returns the part of Saved that is not backed by contributions,
// i.e. the value the goal was pre-seeded with.
func (g Goal) Baseline() decimal.Decimal {
	return g.Saved.Sub(g.Contributed())
}

// Remaining returns how much is left to reach Cost, never negative.
func (g Goal) Remaining() decimal.Decimal {
	rem := g.Cost.Sub(g.Saved.Decimal)
	if rem.IsNegative() {
		return decimal.Zero
	}
	return rem
}

// Clone returns a deep copy of the goal.
func (g Goal) Clone() Goal {
	out := g
	out.Collaborators = append([]Collaborator{}, g.Collaborators...)
	out.Comments = append([]Comment{}, g.Comments...)
	out.Contributions = append([]Contribution{}, g.Contributions...)
	out.History = append([]HistoryEntry{}, g.History...)
	return out
}

func (g *Goal) normalize() {
	if g.Collaborators == nil {
		g.Collaborators = []Collaborator{}
	}
	if g.Comments == nil {
		g.Comments = []Comment{}
	}
	if g.Contributions == nil {
		g.Contributions = []Contribution{}
	}
	if g.History == nil {
		g.History = []HistoryEntry{}
	}
	if g.Status == "" {
		g.Status = GoalStatusActive
	}
	if g.Recurrence == "" {
		g.Recurrence = RecurrenceOnce
	}
}
