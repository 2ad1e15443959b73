package models

import (
	"time"

	"github.com/google/uuid"
)

// ConnectAccountStatusType mirrors the payment processor's view of a
// tenant's connected payout account.
type ConnectAccountStatusType string

const (
	ConnectAccountStatusNone       ConnectAccountStatusType = ""
	ConnectAccountStatusPending    ConnectAccountStatusType = "pending"
	ConnectAccountStatusActive     ConnectAccountStatusType = "active"
	ConnectAccountStatusRestricted ConnectAccountStatusType = "restricted"
)

// Settings holds per-tenant configuration the billing core reads:
// display identity for outgoing mail and connected-account state.
type Settings struct {
	UserID              uuid.UUID                `json:"user_id"`
	CompanyName         string                   `json:"company_name"`
	ReplyToEmail        *string                  `json:"reply_to_email,omitempty"`
	StripeAccountID     *string                  `json:"stripe_account_id,omitempty"`
	StripeAccountStatus ConnectAccountStatusType `json:"stripe_account_status"`
	CreatedAt           time.Time                `json:"created_at"`
	UpdatedAt           time.Time                `json:"updated_at"`
}
