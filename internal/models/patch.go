package models

// ReminderPatch updates a goal's reminder preferences. Nil fields keep
// their current value.
type ReminderPatch struct {
	Cadence *string `json:"cadence,omitempty"`
	Channel *string `json:"channel,omitempty"`
	OptIn   *bool   `json:"enabled,omitempty"`
}

// DetailsPatch edits a goal. Cost, Deadline and Months are tracked in the
// goal history; the rest are not.
type DetailsPatch struct {
	Name     *string `json:"name,omitempty"`
	Category *string `json:"category,omitempty"`
	Notes    *string `json:"notes,omitempty"`
	Cost     *Amount `json:"cost,omitempty"`
	Deadline *Date   `json:"deadline,omitempty"`
	Months   *int    `json:"months,omitempty"`
}

// AutomationPatch merges into a goal's AutoSchedule.
type AutomationPatch struct {
	Enabled *bool   `json:"enabled,omitempty"`
	Cadence *string `json:"cadence,omitempty"`
	Amount  *Amount `json:"amount,omitempty"`
	NextRun *Date   `json:"nextRun,omitempty"`
}

// ReminderSettingsPatch updates the document-level reminder defaults.
type ReminderSettingsPatch struct {
	Enabled *bool   `json:"enabled,omitempty"`
	Cadence *string `json:"cadence,omitempty"`
	Channel *string `json:"channel,omitempty"`
	Hour    *string `json:"hour,omitempty"`
}

// Apply merges the patch into s.
func (p ReminderSettingsPatch) Apply(s ReminderSettings) ReminderSettings {
	if p.Enabled != nil {
		s.Enabled = *p.Enabled
	}
	if p.Cadence != nil {
		s.Cadence = *p.Cadence
	}
	if p.Channel != nil {
		s.Channel = *p.Channel
	}
	if p.Hour != nil {
		s.Hour = *p.Hour
	}
	return s
}
