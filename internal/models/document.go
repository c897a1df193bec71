// Package models defines the domain entities for the savings tracker.
package models

import (
	"encoding/json"
	"time"
)

// Expense categories.
const (
	ExpenseCategoryFood      = "Comida"
	ExpenseCategoryLeisure   = "Ocio"
	ExpenseCategoryTransport = "Transporte"
	ExpenseCategoryHome      = "Casa"
	ExpenseCategoryOther     = "Otros"
)

// ExpenseCategories lists the accepted expense categories in display order.
var ExpenseCategories = []string{
	ExpenseCategoryFood,
	ExpenseCategoryLeisure,
	ExpenseCategoryTransport,
	ExpenseCategoryHome,
	ExpenseCategoryOther,
}

// Subscription types.
const (
	SubscriptionFixed     = "fija"
	SubscriptionTemporary = "temporal"
)

// Reminder cadences and channels.
const (
	CadenceWeekly  = "semanal"
	CadenceMonthly = "mensual"
	CadenceYearly  = "anual"

	ChannelEmail = "email"
	ChannelPush  = "push"
)

// DefaultIncomeType is used when an income is recorded without a type.
const DefaultIncomeType = "Sueldo"

// Document is the complete financial record of one user. It is loaded and
// saved as a whole.
type Document struct {
	Incomes          []Income         `json:"incomes"`
	Subscriptions    []Subscription   `json:"subscriptions"`
	Expenses         []Expense        `json:"expenses"`
	Goals            []Goal           `json:"goals"`
	ReminderSettings ReminderSettings `json:"reminderSettings"`
}

// Income is money received.
type Income struct {
	ID     string `json:"id"`
	Type   string `json:"type"`
	Amount Amount `json:"amount"`
	Date   Date   `json:"date"`
	Notes  string `json:"notes"`
}

// Expense is a one-off spending entry.
type Expense struct {
	ID       string `json:"id"`
	Category string `json:"category"`
	Amount   Amount `json:"amount"`
	Date     Date   `json:"date"`
	Notes    string `json:"notes"`
}

// Subscription is a recurring cost. A fixed subscription never ends.
type Subscription struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Cost      Amount `json:"cost"`
	Type      string `json:"type"`
	Frequency string `json:"frequency"`
	StartDate Date   `json:"startDate,omitzero"`
	EndDate   Date   `json:"endDate,omitzero"`
}

// ActiveAt reports whether the subscription still costs money at now.
func (s Subscription) ActiveAt(now time.Time) bool {
	if s.Type == SubscriptionFixed {
		return true
	}
	if s.EndDate.IsZero() {
		return true
	}
	return !s.EndDate.Time().Before(now)
}

// ReminderSettings is the user's default reminder policy. Goals may override it.
type ReminderSettings struct {
	Enabled bool   `json:"enabled"`
	Cadence string `json:"cadence"`
	Channel string `json:"channel"`
	Hour    string `json:"hour"`
}

// DefaultReminderSettings returns the reminder policy of a new account.
func DefaultReminderSettings() ReminderSettings {
	return ReminderSettings{
		Enabled: true,
		Cadence: CadenceMonthly,
		Channel: ChannelEmail,
		Hour:    "09:00",
	}
}

// NewDocument returns an empty Document with default reminder settings.
func NewDocument() *Document {
	return &Document{
		Incomes:          []Income{},
		Subscriptions:    []Subscription{},
		Expenses:         []Expense{},
		Goals:            []Goal{},
		ReminderSettings: DefaultReminderSettings(),
	}
}

// Normalize replaces nil collections with empty ones, so documents written
// by older clients behave like new ones. Reminder settings are kept as
// given; DecodeDocument fills them only when the payload has none.
func (d *Document) Normalize() {
	if d.Incomes == nil {
		d.Incomes = []Income{}
	}
	if d.Subscriptions == nil {
		d.Subscriptions = []Subscription{}
	}
	if d.Expenses == nil {
		d.Expenses = []Expense{}
	}
	if d.Goals == nil {
		d.Goals = []Goal{}
	}
	for i := range d.Goals {
		d.Goals[i].normalize()
	}
}

// Clone returns a deep copy of the document.
func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}
	out := &Document{
		Incomes:          append([]Income{}, d.Incomes...),
		Subscriptions:    append([]Subscription{}, d.Subscriptions...),
		Expenses:         append([]Expense{}, d.Expenses...),
		Goals:            make([]Goal, len(d.Goals)),
		ReminderSettings: d.ReminderSettings,
	}
	for i := range d.Goals {
		out.Goals[i] = d.Goals[i].Clone()
	}
	return out
}

// GoalIndex returns the position of the goal with the given id, or -1.
func (d *Document) GoalIndex(id string) int {
	for i := range d.Goals {
		if d.Goals[i].ID == id {
			return i
		}
	}
	return -1
}

// DecodeDocument parses a stored or submitted payload. An empty payload
// yields a new default Document. Reminder fields missing from the payload
// keep their defaults.
func DecodeDocument(data []byte) (*Document, error) {
	doc := NewDocument()
	if len(data) == 0 || string(data) == "null" {
		return doc, nil
	}
	if err := json.Unmarshal(data, doc); err != nil {
		return nil, err
	}
	doc.Normalize()
	return doc, nil
}
