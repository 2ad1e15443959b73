package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/quotemint/billing-service/internal/config"
	"github.com/quotemint/billing-service/internal/models"
	"github.com/stretchr/testify/require"
	stripe "github.com/stripe/stripe-go/v82"
)

type paymentFixture struct {
	svc      *PaymentService
	projects *fakeProjectRepo
	settings *fakeSettingsRepo
	sender   *recordingSender
	project  *models.Project
	userID   uuid.UUID
}

func newPaymentFixture(t *testing.T) *paymentFixture {
	t.Helper()

	userID := uuid.New()
	clientID := uuid.New()
	due := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	project := &models.Project{
		ID:              uuid.New(),
		UserID:          userID,
		ClientID:        &clientID,
		Name:            "Garage door",
		Status:          models.ProjectStatusSent,
		QuoteTotalCents: 50_000,
		InvoiceData: &models.InvoiceData{
			InvoiceNumber: "INV-100",
			TotalCents:    100_000,
			DueDate:       &due,
		},
	}

	fix := &paymentFixture{
		projects: newFakeProjectRepo(project),
		settings: newFakeSettingsRepo(&models.Settings{UserID: userID, CompanyName: "Hart Plumbing"}),
		sender:   &recordingSender{},
		project:  project,
		userID:   userID,
	}
	fix.svc = NewPaymentService(
		&config.Config{AppUrl: "https://app.quotemint.test", OrganizationName: "QuoteMint"},
		fix.projects,
		fix.settings,
		newFakeClientRepo(&models.Client{ID: clientID, UserID: userID, Name: "Dana", Email: "dana@example.com"}),
		&fakeUserRepo{users: []*models.User{{ID: userID, Email: "owner@example.com", Name: "Pat"}}},
		fix.sender,
	)
	fix.svc.now = func() time.Time { return time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC) }
	return fix
}

func TestPlatformFeeCents(t *testing.T) {
	require.Equal(t, int64(2_500), PlatformFeeCents(100_000))
	require.Equal(t, int64(25), PlatformFeeCents(1_000))
	require.Equal(t, int64(3), PlatformFeeCents(101)) // 2.525 rounds up
	require.Equal(t, int64(0), PlatformFeeCents(0))
}

func TestBuildCheckoutSessionParamsSplitsFeeForConnectedTenant(t *testing.T) {
	fix := newPaymentFixture(t)
	acctID := "acct_123"
	settings := &models.Settings{
		UserID:              fix.userID,
		StripeAccountID:     &acctID,
		StripeAccountStatus: models.ConnectAccountStatusActive,
	}

	params := buildCheckoutSessionParams(fix.project, settings, "https://app.quotemint.test/p/invoice/tok", fix.svc.now())

	require.Len(t, params.LineItems, 1)
	require.Equal(t, int64(100_000), *params.LineItems[0].PriceData.UnitAmount)
	require.Equal(t, int64(2_500), *params.PaymentIntentData.ApplicationFeeAmount)
	require.Equal(t, acctID, *params.PaymentIntentData.TransferData.Destination)
	require.Equal(t, fix.project.ID.String(), params.Metadata["project_id"])
	require.Equal(t, fix.project.ID.String(), params.PaymentIntentData.Metadata["project_id"])
}

func TestBuildCheckoutSessionParamsNoSplitWhenNotActive(t *testing.T) {
	fix := newPaymentFixture(t)
	acctID := "acct_123"
	settings := &models.Settings{
		UserID:              fix.userID,
		StripeAccountID:     &acctID,
		StripeAccountStatus: models.ConnectAccountStatusPending,
	}

	params := buildCheckoutSessionParams(fix.project, settings, "https://x", fix.svc.now())
	require.Nil(t, params.PaymentIntentData.ApplicationFeeAmount)
	require.Nil(t, params.PaymentIntentData.TransferData)
}

func TestBuildCheckoutSessionParamsIgnoresClientInput(t *testing.T) {
	// The charge amount comes from the stored invoice snapshot, with the
	// quote total as the only fallback. There is no payer-supplied path.
	fix := newPaymentFixture(t)

	params := buildCheckoutSessionParams(fix.project, nil, "https://x", fix.svc.now())
	require.Equal(t, int64(100_000), *params.LineItems[0].PriceData.UnitAmount)

	fix.project.InvoiceData = nil
	params = buildCheckoutSessionParams(fix.project, nil, "https://x", fix.svc.now())
	require.Equal(t, int64(50_000), *params.LineItems[0].PriceData.UnitAmount)
}

func TestHandleCheckoutSessionCompleted(t *testing.T) {
	fix := newPaymentFixture(t)
	sess := &stripe.CheckoutSession{
		ID:            "cs_test_1",
		Metadata:      map[string]string{"project_id": fix.project.ID.String()},
		PaymentIntent: &stripe.PaymentIntent{ID: "pi_test_1"},
	}

	require.NoError(t, fix.svc.HandleCheckoutSessionCompleted(context.Background(), sess))
	require.Equal(t, models.PaymentStatusPaid, fix.project.PaymentStatus)
	require.NotNil(t, fix.project.InvoicePaidAt)
	require.Equal(t, "pi_test_1", *fix.project.PaymentIntentID)

	// Tenant got the payment-received note.
	require.Equal(t, 1, fix.sender.count())
	require.Equal(t, "owner@example.com", fix.sender.sent[0].ToEmail)
	require.Contains(t, fix.sender.sent[0].Subject, "INV-100")
}

func TestHandleCheckoutSessionCompletedRedeliveryKeepsFirstPaidAt(t *testing.T) {
	fix := newPaymentFixture(t)
	sess := &stripe.CheckoutSession{
		ID:       "cs_test_1",
		Metadata: map[string]string{"project_id": fix.project.ID.String()},
	}

	require.NoError(t, fix.svc.HandleCheckoutSessionCompleted(context.Background(), sess))
	firstPaidAt := *fix.project.InvoicePaidAt

	fix.svc.now = func() time.Time { return firstPaidAt.Add(48 * time.Hour) }
	require.NoError(t, fix.svc.HandleCheckoutSessionCompleted(context.Background(), sess))
	require.Equal(t, firstPaidAt, *fix.project.InvoicePaidAt)
}

func TestHandleCheckoutSessionCompletedSwallowsMailFailure(t *testing.T) {
	fix := newPaymentFixture(t)
	fix.sender.failing = true
	sess := &stripe.CheckoutSession{
		ID:       "cs_test_1",
		Metadata: map[string]string{"project_id": fix.project.ID.String()},
	}

	require.NoError(t, fix.svc.HandleCheckoutSessionCompleted(context.Background(), sess))
	require.Equal(t, models.PaymentStatusPaid, fix.project.PaymentStatus)
}

func TestHandleCheckoutSessionExpired(t *testing.T) {
	fix := newPaymentFixture(t)
	sess := &stripe.CheckoutSession{
		ID:       "cs_test_1",
		Metadata: map[string]string{"project_id": fix.project.ID.String()},
	}

	require.NoError(t, fix.svc.HandleCheckoutSessionExpired(context.Background(), sess))
	require.Equal(t, models.PaymentStatusExpired, fix.project.PaymentStatus)
}

func TestLateEventsNeverDowngradePaid(t *testing.T) {
	fix := newPaymentFixture(t)
	fix.project.PaymentStatus = models.PaymentStatusPaid

	sess := &stripe.CheckoutSession{
		ID:       "cs_test_1",
		Metadata: map[string]string{"project_id": fix.project.ID.String()},
	}
	require.NoError(t, fix.svc.HandleCheckoutSessionExpired(context.Background(), sess))
	require.Equal(t, models.PaymentStatusPaid, fix.project.PaymentStatus)

	pi := &stripe.PaymentIntent{
		ID:       "pi_test_1",
		Metadata: map[string]string{"project_id": fix.project.ID.String()},
	}
	require.NoError(t, fix.svc.HandlePaymentIntentFailed(context.Background(), pi))
	require.Equal(t, models.PaymentStatusPaid, fix.project.PaymentStatus)
}

func TestHandlePaymentIntentFailed(t *testing.T) {
	fix := newPaymentFixture(t)
	pi := &stripe.PaymentIntent{
		ID:       "pi_test_1",
		Metadata: map[string]string{"project_id": fix.project.ID.String()},
	}

	require.NoError(t, fix.svc.HandlePaymentIntentFailed(context.Background(), pi))
	require.Equal(t, models.PaymentStatusFailed, fix.project.PaymentStatus)
}

func TestHandlePaymentIntentFailedIgnoresForeignIntents(t *testing.T) {
	fix := newPaymentFixture(t)
	pi := &stripe.PaymentIntent{ID: "pi_other", Metadata: map[string]string{}}

	require.NoError(t, fix.svc.HandlePaymentIntentFailed(context.Background(), pi))
	require.Equal(t, models.PaymentStatusNone, fix.project.PaymentStatus)
}

func TestConnectStatusFromAccount(t *testing.T) {
	require.Equal(t, models.ConnectAccountStatusActive, connectStatusFromAccount(&stripe.Account{
		ChargesEnabled: true,
		PayoutsEnabled: true,
	}))
	require.Equal(t, models.ConnectAccountStatusRestricted, connectStatusFromAccount(&stripe.Account{
		Requirements: &stripe.AccountRequirements{DisabledReason: "requirements.past_due"},
	}))
	require.Equal(t, models.ConnectAccountStatusPending, connectStatusFromAccount(&stripe.Account{
		ChargesEnabled: true,
	}))
}

func TestHandleAccountUpdated(t *testing.T) {
	fix := newPaymentFixture(t)
	acctID := "acct_123"
	require.NoError(t, fix.settings.SetStripeAccount(context.Background(), fix.userID, acctID, models.ConnectAccountStatusPending))

	acct := &stripe.Account{ID: acctID, ChargesEnabled: true, PayoutsEnabled: true}
	require.NoError(t, fix.svc.HandleAccountUpdated(context.Background(), acct))

	settings, err := fix.settings.GetByUserID(context.Background(), fix.userID)
	require.NoError(t, err)
	require.Equal(t, models.ConnectAccountStatusActive, settings.StripeAccountStatus)
}

func TestHandleAccountUpdatedUnknownAccountIgnored(t *testing.T) {
	fix := newPaymentFixture(t)
	acct := &stripe.Account{ID: "acct_unknown", ChargesEnabled: true, PayoutsEnabled: true}
	require.NoError(t, fix.svc.HandleAccountUpdated(context.Background(), acct))
}

func TestCheckoutMetadataRoundTrip(t *testing.T) {
	id := uuid.New()
	got, err := projectIDFromMetadata(map[string]string{"project_id": id.String()})
	require.NoError(t, err)
	require.Equal(t, id, got)

	_, err = projectIDFromMetadata(map[string]string{})
	require.Error(t, err)
}
