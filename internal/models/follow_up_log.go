package models

import (
	"time"

	"github.com/google/uuid"
)

// FollowUpType is the fixed ladder of lifecycle nudges.
type FollowUpType string

const (
	FollowUpQuoteReminder       FollowUpType = "quote_reminder"
	FollowUpQuoteExpiring       FollowUpType = "quote_expiring"
	FollowUpInvoiceReminder     FollowUpType = "invoice_reminder"
	FollowUpReviewRequest       FollowUpType = "review_request"
	FollowUpMaintenanceReminder FollowUpType = "maintenance_reminder"
)

// FollowUpLog is the append-only idempotency record for follow-up sends,
// keyed by (project_id, type).
type FollowUpLog struct {
	ID        uuid.UUID    `json:"id"`
	ProjectID uuid.UUID    `json:"project_id"`
	Type      FollowUpType `json:"type"`
	ClientID  *uuid.UUID   `json:"client_id,omitempty"`
	SentAt    time.Time    `json:"sent_at"`
}
