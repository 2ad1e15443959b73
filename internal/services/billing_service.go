package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/quotemint/billing-service/internal/models"
	"github.com/quotemint/billing-service/internal/repositories"
)

// BillingSummary is the tenant dashboard read model, computed on demand
// from the project list.
type BillingSummary struct {
	OutstandingCount int   `json:"outstanding_count"`
	OutstandingCents int64 `json:"outstanding_cents"`
	OverdueCount     int   `json:"overdue_count"`
	OverdueCents     int64 `json:"overdue_cents"`
	PaidCount        int   `json:"paid_count"`
	PaidCents        int64 `json:"paid_cents"`
	OpenQuoteCount   int   `json:"open_quote_count"`
	OpenQuoteCents   int64 `json:"open_quote_cents"`
}

type BillingService struct {
	projectRepo repositories.ProjectRepository
	now         func() time.Time
}

func NewBillingService(projectRepo repositories.ProjectRepository) *BillingService {
	return &BillingService{
		projectRepo: projectRepo,
		now:         time.Now,
	}
}

func (s *BillingService) Summary(ctx context.Context, userID uuid.UUID) (*BillingSummary, error) {
	projects, err := s.projectRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	sum := &BillingSummary{}
	for _, p := range projects {
		switch {
		case p.PaymentStatus == models.PaymentStatusPaid:
			sum.PaidCount++
			sum.PaidCents += p.BillableTotalCents()

		case p.InvoiceSentAt != nil:
			amount := p.BillableTotalCents()
			sum.OutstandingCount++
			sum.OutstandingCents += amount
			if p.InvoiceData != nil && p.InvoiceData.DueDate != nil &&
				daysBetween(*p.InvoiceData.DueDate, now) > 0 {
				sum.OverdueCount++
				sum.OverdueCents += amount
			}

		case p.QuoteSentAt != nil && p.QuoteApprovedAt == nil:
			sum.OpenQuoteCount++
			sum.OpenQuoteCents += p.QuoteTotalCents
		}
	}
	return sum, nil
}
