package models

import (
	"time"

	"github.com/google/uuid"
)

// DocumentType scopes a share token to one client-facing document.
type DocumentType string

const (
	DocumentTypeQuote   DocumentType = "quote"
	DocumentTypeInvoice DocumentType = "invoice"
)

func (d DocumentType) Valid() bool {
	return d == DocumentTypeQuote || d == DocumentTypeInvoice
}

// ShareToken grants anonymous, time-bounded access to exactly one
// (project, document type) pair. Tokens are immutable after creation;
// revocation deletes the row and expiry is a pure time comparison.
type ShareToken struct {
	ID        uuid.UUID    `json:"id"`
	Token     string       `json:"token"`
	ProjectID uuid.UUID    `json:"project_id"`
	ClientID  *uuid.UUID   `json:"client_id,omitempty"`
	Type      DocumentType `json:"type"`
	ExpiresAt time.Time    `json:"expires_at"`
	CreatedAt time.Time    `json:"created_at"`
}

func (t *ShareToken) ExpiredAt(now time.Time) bool {
	return t.ExpiresAt.Before(now)
}
