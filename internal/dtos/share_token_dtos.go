package dtos

import (
	"time"

	"github.com/google/uuid"
	"github.com/quotemint/billing-service/internal/models"
)

// IssueShareTokenRequest mints (or reuses) a share link for a project
// document. InvoiceData, when present on an invoice request, is frozen
// onto the project before the link exists.
type IssueShareTokenRequest struct {
	Type          string              `json:"type" validate:"required,oneof=quote invoice"`
	ExpiresInDays int                 `json:"expires_in_days" validate:"omitempty,gt=0,lte=365"`
	InvoiceData   *models.InvoiceData `json:"invoice_data,omitempty"`
}

type ShareTokenResponse struct {
	ID        uuid.UUID `json:"id"`
	Token     string    `json:"token"`
	Type      string    `json:"type"`
	ExpiresAt time.Time `json:"expires_at"`
	ShareURL  string    `json:"share_url"`
	Existing  bool      `json:"existing"`
}

// PublicDocumentResponse is the anonymous view behind a share link.
type PublicDocumentResponse struct {
	Type           string              `json:"type"`
	ProjectName    string              `json:"project_name"`
	CompanyName    string              `json:"company_name"`
	ClientName     string              `json:"client_name,omitempty"`
	Status         string              `json:"status"`
	PaymentStatus  string              `json:"payment_status"`
	TotalCents     int64               `json:"total_cents"`
	QuoteExpiresAt *time.Time          `json:"quote_expires_at,omitempty"`
	InvoiceData    *models.InvoiceData `json:"invoice_data,omitempty"`
}

// PayResponse carries the hosted checkout URL for an invoice payment.
type PayResponse struct {
	CheckoutURL string `json:"checkout_url"`
}

// ApproveQuoteResponse reports when the quote was approved. Repeat
// approvals echo the original timestamp.
type ApproveQuoteResponse struct {
	ApprovedAt time.Time `json:"approved_at"`
}
