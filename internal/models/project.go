package models

import (
	"time"

	"github.com/google/uuid"
)

// ProjectStatusType is the lifecycle state of a project.
type ProjectStatusType string

const (
	ProjectStatusDraft     ProjectStatusType = "draft"
	ProjectStatusQuoted    ProjectStatusType = "quoted"
	ProjectStatusSent      ProjectStatusType = "sent" // quote/invoice delivered, not yet concluded
	ProjectStatusApproved  ProjectStatusType = "approved"
	ProjectStatusScheduled ProjectStatusType = "scheduled"
	ProjectStatusCompleted ProjectStatusType = "completed"
)

// PaymentStatusType tracks the checkout outcome, distinct from the
// project lifecycle status.
type PaymentStatusType string

const (
	PaymentStatusNone    PaymentStatusType = ""
	PaymentStatusPaid    PaymentStatusType = "paid"
	PaymentStatusExpired PaymentStatusType = "expired"
	PaymentStatusFailed  PaymentStatusType = "failed"
)

// InvoiceLineItem is one row of a frozen invoice snapshot.
type InvoiceLineItem struct {
	Description    string `json:"description"`
	Quantity       int    `json:"quantity"`
	UnitPriceCents int64  `json:"unit_price_cents"`
	AmountCents    int64  `json:"amount_cents"`
}

// InvoiceData is the invoice snapshot persisted onto a project when the
// invoice share token is first issued. Once written, the client-facing
// amounts come exclusively from here.
type InvoiceData struct {
	InvoiceNumber string            `json:"invoice_number"`
	LineItems     []InvoiceLineItem `json:"line_items"`
	TotalCents    int64             `json:"total_cents"`
	DueDate       *time.Time        `json:"due_date,omitempty"`
}

// Project is one unit of work for one client, owned by a tenant.
type Project struct {
	Versioned
	ID              uuid.UUID         `json:"id"`
	UserID          uuid.UUID         `json:"user_id"`
	ClientID        *uuid.UUID        `json:"client_id,omitempty"`
	Name            string            `json:"name"`
	Status          ProjectStatusType `json:"status"`
	QuoteTotalCents int64             `json:"quote_total_cents"`
	QuoteSentAt     *time.Time        `json:"quote_sent_at,omitempty"`
	QuoteApprovedAt *time.Time        `json:"quote_approved_at,omitempty"`
	QuoteExpiresAt  *time.Time        `json:"quote_expires_at,omitempty"`
	InvoiceSentAt   *time.Time        `json:"invoice_sent_at,omitempty"`
	InvoicePaidAt   *time.Time        `json:"invoice_paid_at,omitempty"`
	CompletedAt     *time.Time        `json:"completed_at,omitempty"`
	InvoiceData     *InvoiceData      `json:"invoice_data,omitempty"`
	PaymentStatus   PaymentStatusType `json:"payment_status"`
	PaymentIntentID *string           `json:"payment_intent_id,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

func (p *Project) GetID() string {
	return p.ID.String()
}

// BillableTotalCents is the server-held amount a client may be charged:
// the frozen invoice total, falling back to the quote total when no
// invoice snapshot exists. Client-supplied amounts are never consulted.
func (p *Project) BillableTotalCents() int64 {
	if p.InvoiceData != nil && p.InvoiceData.TotalCents > 0 {
		return p.InvoiceData.TotalCents
	}
	return p.QuoteTotalCents
}
