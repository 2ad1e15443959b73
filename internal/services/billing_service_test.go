package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/quotemint/billing-service/internal/models"
	"github.com/stretchr/testify/require"
)

func TestBillingSummaryBuckets(t *testing.T) {
	userID := uuid.New()
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

	overdueDue := now.AddDate(0, 0, -5)
	currentDue := now.AddDate(0, 0, 5)
	sentAt := now.AddDate(0, 0, -10)
	paidAt := now.AddDate(0, 0, -2)

	projects := []*models.Project{
		{
			ID: uuid.New(), UserID: userID, Status: models.ProjectStatusSent,
			InvoiceSentAt: &sentAt,
			InvoiceData:   &models.InvoiceData{InvoiceNumber: "A", TotalCents: 10_000, DueDate: &overdueDue},
		},
		{
			ID: uuid.New(), UserID: userID, Status: models.ProjectStatusSent,
			InvoiceSentAt: &sentAt,
			InvoiceData:   &models.InvoiceData{InvoiceNumber: "B", TotalCents: 20_000, DueDate: &currentDue},
		},
		{
			ID: uuid.New(), UserID: userID, Status: models.ProjectStatusSent,
			PaymentStatus: models.PaymentStatusPaid, InvoicePaidAt: &paidAt,
			InvoiceSentAt: &sentAt,
			InvoiceData:   &models.InvoiceData{InvoiceNumber: "C", TotalCents: 30_000},
		},
		{
			ID: uuid.New(), UserID: userID, Status: models.ProjectStatusSent,
			QuoteSentAt: &sentAt, QuoteTotalCents: 40_000,
		},
		// Another tenant's project never shows up.
		{
			ID: uuid.New(), UserID: uuid.New(), Status: models.ProjectStatusSent,
			InvoiceSentAt: &sentAt,
			InvoiceData:   &models.InvoiceData{InvoiceNumber: "D", TotalCents: 99_000, DueDate: &overdueDue},
		},
	}

	svc := NewBillingService(newFakeProjectRepo(projects...))
	svc.now = func() time.Time { return now }

	sum, err := svc.Summary(context.Background(), userID)
	require.NoError(t, err)

	require.Equal(t, 2, sum.OutstandingCount)
	require.Equal(t, int64(30_000), sum.OutstandingCents)
	require.Equal(t, 1, sum.OverdueCount)
	require.Equal(t, int64(10_000), sum.OverdueCents)
	require.Equal(t, 1, sum.PaidCount)
	require.Equal(t, int64(30_000), sum.PaidCents)
	require.Equal(t, 1, sum.OpenQuoteCount)
	require.Equal(t, int64(40_000), sum.OpenQuoteCents)
}
