package models

import (
	"time"

	"github.com/google/uuid"
)

// ReminderTemplate is the closed set of dunning email templates. Steps
// referencing anything outside this set are a sweep error, never a
// silent skip.
type ReminderTemplate string

const (
	TemplateFriendlyReminder ReminderTemplate = "friendly_reminder"
	TemplateFirmReminder     ReminderTemplate = "firm_reminder"
	TemplateFinalNotice      ReminderTemplate = "final_notice"
)

// DunningStep fires when an invoice is exactly DaysAfterDue days overdue.
type DunningStep struct {
	DaysAfterDue int              `json:"days_after_due"`
	Template     ReminderTemplate `json:"template"`
	Channel      string           `json:"channel"` // only "email" is supported
}

// DunningSchedule is a tenant's ordered reminder ladder. Read-only from
// the sweep's perspective.
type DunningSchedule struct {
	ID        uuid.UUID     `json:"id"`
	UserID    uuid.UUID     `json:"user_id"`
	IsActive  bool          `json:"is_active"`
	Steps     []DunningStep `json:"steps"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}
