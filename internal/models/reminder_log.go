package models

import (
	"time"

	"github.com/google/uuid"
)

// ReminderLog is the append-only idempotency record for dunning sends.
// Existence of a (project_id, reminder_type) row is the sole dedup
// mechanism; rows are never updated or deleted.
type ReminderLog struct {
	ID           uuid.UUID        `json:"id"`
	ProjectID    uuid.UUID        `json:"project_id"`
	ReminderType ReminderTemplate `json:"reminder_type"`
	SentAt       time.Time        `json:"sent_at"`
}
