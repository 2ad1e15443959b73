package services

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/quotemint/billing-service/internal/config"
	"github.com/quotemint/billing-service/internal/constants"
	"github.com/quotemint/billing-service/internal/models"
	"github.com/quotemint/billing-service/internal/repositories"
	"github.com/quotemint/billing-service/internal/utils"
	stripe "github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/account"
	"github.com/stripe/stripe-go/v82/accountlink"
	"github.com/stripe/stripe-go/v82/checkout/session"
	"github.com/stripe/stripe-go/v82/loginlink"
)

// PaymentService owns the Stripe surface: checkout sessions for invoice
// payment, Connect onboarding, and the webhook-driven reconciliation
// that is the authority on paid state.
type PaymentService struct {
	cfg          *config.Config
	projectRepo  repositories.ProjectRepository
	settingsRepo repositories.SettingsRepository
	clientRepo   repositories.ClientRepository
	userRepo     repositories.UserRepository
	sender       EmailSender
	now          func() time.Time
}

func NewPaymentService(
	cfg *config.Config,
	projectRepo repositories.ProjectRepository,
	settingsRepo repositories.SettingsRepository,
	clientRepo repositories.ClientRepository,
	userRepo repositories.UserRepository,
	sender EmailSender,
) *PaymentService {
	stripe.Key = cfg.StripeSecretKey

	return &PaymentService{
		cfg:          cfg,
		projectRepo:  projectRepo,
		settingsRepo: settingsRepo,
		clientRepo:   clientRepo,
		userRepo:     userRepo,
		sender:       sender,
		now:          time.Now,
	}
}

// PlatformFeeCents computes the platform's cut of a charge, rounded to
// the nearest cent.
func PlatformFeeCents(amountCents int64) int64 {
	return (amountCents*constants.PlatformFeeBasisPoints + constants.BasisPointsDenominator/2) /
		constants.BasisPointsDenominator
}

// buildCheckoutSessionParams assembles the checkout session for an
// invoice. The amount comes from the server-held project record only;
// nothing the payer submits influences it. The project id rides in
// both the session metadata and the payment intent metadata so every
// downstream event can be traced back without a session lookup.
func buildCheckoutSessionParams(
	p *models.Project,
	settings *models.Settings,
	shareURL string,
	now time.Time,
) *stripe.CheckoutSessionParams {
	amount := p.BillableTotalCents()

	description := p.Name
	if p.InvoiceData != nil && p.InvoiceData.InvoiceNumber != "" {
		description = fmt.Sprintf("Invoice %s — %s", p.InvoiceData.InvoiceNumber, p.Name)
	}

	metadata := map[string]string{
		constants.CheckoutMetadataProjectIDKey: p.ID.String(),
		constants.CheckoutMetadataUserIDKey:    p.UserID.String(),
	}

	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(string(stripe.CurrencyUSD)),
					UnitAmount: stripe.Int64(amount),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(description),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(shareURL + "?paid=1"),
		CancelURL:  stripe.String(shareURL),
		ExpiresAt:  stripe.Int64(now.Add(constants.CheckoutSessionExpiry).Unix()),
		Metadata:   metadata,
		PaymentIntentData: &stripe.CheckoutSessionPaymentIntentDataParams{
			Metadata: metadata,
		},
	}

	// Route funds to the tenant's connected account only once it can
	// actually accept charges; otherwise the platform collects directly
	// and settles out of band.
	if settings != nil && settings.StripeAccountID != nil &&
		settings.StripeAccountStatus == models.ConnectAccountStatusActive {
		params.PaymentIntentData.ApplicationFeeAmount = stripe.Int64(PlatformFeeCents(amount))
		params.PaymentIntentData.TransferData = &stripe.CheckoutSessionPaymentIntentDataTransferDataParams{
			Destination: stripe.String(*settings.StripeAccountID),
		}
	}

	return params
}

// CreateCheckoutSession opens a Stripe-hosted payment page for the
// project's billable total and returns its URL.
func (s *PaymentService) CreateCheckoutSession(ctx context.Context, p *models.Project, shareURL string) (string, error) {
	settings, err := s.settingsRepo.GetByUserID(ctx, p.UserID)
	if err != nil {
		return "", fmt.Errorf("loading settings: %w", err)
	}

	params := buildCheckoutSessionParams(p, settings, shareURL, s.now())
	params.Params.Context = ctx

	sess, err := session.New(params)
	if err != nil {
		utils.Logger.WithError(err).Errorf("Failed to create checkout session for project %s", p.ID)
		return "", fmt.Errorf("could not create checkout session: %w", err)
	}
	return sess.URL, nil
}

func projectIDFromMetadata(md map[string]string) (uuid.UUID, error) {
	raw, ok := md[constants.CheckoutMetadataProjectIDKey]
	if !ok || raw == "" {
		return uuid.Nil, fmt.Errorf("metadata missing %s", constants.CheckoutMetadataProjectIDKey)
	}
	return uuid.Parse(raw)
}

// HandleCheckoutSessionCompleted marks the project paid. It keeps the
// first paid timestamp on redelivery and records the payment intent id
// for later reconciliation.
func (s *PaymentService) HandleCheckoutSessionCompleted(ctx context.Context, sess *stripe.CheckoutSession) error {
	projectID, err := projectIDFromMetadata(sess.Metadata)
	if err != nil {
		return err
	}
	utils.Logger.Infof("checkout.session.completed: session=%s project=%s", sess.ID, projectID)

	var piID *string
	if sess.PaymentIntent != nil && sess.PaymentIntent.ID != "" {
		piID = utils.Ptr(sess.PaymentIntent.ID)
	}

	now := s.now()
	err = s.projectRepo.UpdateWithRetry(ctx, projectID, func(p *models.Project) error {
		p.PaymentStatus = models.PaymentStatusPaid
		if p.InvoicePaidAt == nil {
			p.InvoicePaidAt = &now
		}
		if piID != nil {
			p.PaymentIntentID = piID
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("marking project paid: %w", err)
	}

	// The tenant notification is a courtesy; payment state is already
	// durable, so a mail failure only gets logged.
	if err := s.notifyTenantPaid(ctx, projectID); err != nil {
		utils.Logger.WithError(err).Warnf("failed to send payment notification for project %s", projectID)
	}
	return nil
}

// HandleCheckoutSessionExpired records an abandoned checkout. A late
// expiry event for a session whose project has since been paid is
// ignored rather than downgrading paid state.
func (s *PaymentService) HandleCheckoutSessionExpired(ctx context.Context, sess *stripe.CheckoutSession) error {
	projectID, err := projectIDFromMetadata(sess.Metadata)
	if err != nil {
		return err
	}
	utils.Logger.Infof("checkout.session.expired: session=%s project=%s", sess.ID, projectID)

	return s.projectRepo.UpdateWithRetry(ctx, projectID, func(p *models.Project) error {
		if p.PaymentStatus == models.PaymentStatusPaid {
			return nil
		}
		p.PaymentStatus = models.PaymentStatusExpired
		return nil
	})
}

// HandlePaymentIntentFailed records a failed payment attempt, matched
// through the intent metadata stamped at session creation. Paid state
// is never downgraded.
func (s *PaymentService) HandlePaymentIntentFailed(ctx context.Context, pi *stripe.PaymentIntent) error {
	projectID, err := projectIDFromMetadata(pi.Metadata)
	if err != nil {
		// Intents created outside this service carry no project id.
		utils.Logger.Warnf("payment_intent.payment_failed %s: %v; skipping", pi.ID, err)
		return nil
	}
	utils.Logger.Infof("payment_intent.payment_failed: intent=%s project=%s", pi.ID, projectID)

	return s.projectRepo.UpdateWithRetry(ctx, projectID, func(p *models.Project) error {
		if p.PaymentStatus == models.PaymentStatusPaid {
			return nil
		}
		p.PaymentStatus = models.PaymentStatusFailed
		return nil
	})
}

// connectStatusFromAccount maps Stripe's account state onto the local
// enum. Fully enabled accounts are active; a disabled reason means
// restricted; anything else is still onboarding.
func connectStatusFromAccount(acct *stripe.Account) models.ConnectAccountStatusType {
	if acct.ChargesEnabled && acct.PayoutsEnabled {
		return models.ConnectAccountStatusActive
	}
	if acct.Requirements != nil && acct.Requirements.DisabledReason != "" {
		return models.ConnectAccountStatusRestricted
	}
	return models.ConnectAccountStatusPending
}

// HandleAccountUpdated keeps the tenant's connected-account status in
// sync with Stripe's view.
func (s *PaymentService) HandleAccountUpdated(ctx context.Context, acct *stripe.Account) error {
	settings, err := s.settingsRepo.GetByStripeAccountID(ctx, acct.ID)
	if err != nil {
		return fmt.Errorf("looking up settings by account: %w", err)
	}
	if settings == nil {
		utils.Logger.Warnf("account.updated for unknown account %s; ignoring", acct.ID)
		return nil
	}

	status := connectStatusFromAccount(acct)
	if settings.StripeAccountStatus == status {
		return nil
	}
	utils.Logger.Infof("account.updated: acct=%s status %s -> %s", acct.ID, settings.StripeAccountStatus, status)
	return s.settingsRepo.SetStripeAccountStatus(ctx, acct.ID, status)
}

// GetConnectOnboardingURL creates the tenant's Express account on first
// use and returns a fresh onboarding link.
func (s *PaymentService) GetConnectOnboardingURL(ctx context.Context, userID uuid.UUID) (string, error) {
	settings, err := s.settingsRepo.GetByUserID(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("loading settings: %w", err)
	}
	if settings == nil {
		return "", fmt.Errorf("no settings row for user %s", userID)
	}

	var acctID string
	if settings.StripeAccountID == nil || *settings.StripeAccountID == "" {
		acctID, err = s.createExpressAccount(ctx, settings)
		if err != nil {
			return "", err
		}
	} else {
		acctID = *settings.StripeAccountID
	}

	linkParams := &stripe.AccountLinkParams{
		Account:    stripe.String(acctID),
		ReturnURL:  stripe.String(s.cfg.AppUrl + constants.ConnectReturnPath),
		RefreshURL: stripe.String(s.cfg.AppUrl + constants.ConnectRefreshPath),
		Type:       stripe.String(string(stripe.AccountLinkTypeAccountOnboarding)),
	}
	linkParams.Params.Context = ctx
	acctLink, err := accountlink.New(linkParams)
	if err != nil {
		utils.Logger.WithError(err).Error("Failed to create Stripe AccountLink")
		return "", fmt.Errorf("could not create AccountLink: %w", err)
	}
	return acctLink.URL, nil
}

func (s *PaymentService) createExpressAccount(ctx context.Context, settings *models.Settings) (string, error) {
	acctParams := &stripe.AccountParams{
		Type:         stripe.String(string(stripe.AccountTypeExpress)),
		Country:      stripe.String("US"),
		BusinessType: stripe.String(string(stripe.AccountBusinessTypeIndividual)),
		BusinessProfile: &stripe.AccountBusinessProfileParams{
			ProductDescription: stripe.String("Contracting services via QuoteMint"),
		},
		Capabilities: &stripe.AccountCapabilitiesParams{
			CardPayments: &stripe.AccountCapabilitiesCardPaymentsParams{
				Requested: stripe.Bool(true),
			},
			Transfers: &stripe.AccountCapabilitiesTransfersParams{
				Requested: stripe.Bool(true),
			},
		},
		Metadata: map[string]string{
			constants.CheckoutMetadataUserIDKey: settings.UserID.String(),
		},
	}
	acctParams.Params.Context = ctx

	acct, err := account.New(acctParams)
	if err != nil {
		utils.Logger.WithError(err).Error("Failed to create Stripe Connect account")
		return "", fmt.Errorf("could not create Connect account: %w", err)
	}

	if err := s.settingsRepo.SetStripeAccount(ctx, settings.UserID, acct.ID, models.ConnectAccountStatusPending); err != nil {
		return "", fmt.Errorf("storing connect account id: %w", err)
	}
	return acct.ID, nil
}

// GetDashboardURL returns a one-time Express dashboard login link for a
// tenant that has finished onboarding.
func (s *PaymentService) GetDashboardURL(ctx context.Context, userID uuid.UUID) (string, error) {
	settings, err := s.settingsRepo.GetByUserID(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("loading settings: %w", err)
	}
	if settings == nil || settings.StripeAccountID == nil || *settings.StripeAccountID == "" {
		return "", &utils.AppError{
			StatusCode: http.StatusConflict,
			Code:       utils.ErrCodeConflict,
			Message:    "No connected payout account",
		}
	}

	llParams := &stripe.LoginLinkParams{
		Account: stripe.String(*settings.StripeAccountID),
	}
	llParams.Params.Context = ctx
	ll, err := loginlink.New(llParams)
	if err != nil {
		utils.Logger.WithError(err).Error("Failed to create Express login link")
		return "", fmt.Errorf("could not create login link: %w", err)
	}
	return ll.URL, nil
}

func (s *PaymentService) notifyTenantPaid(ctx context.Context, projectID uuid.UUID) error {
	p, err := s.projectRepo.GetByID(ctx, projectID)
	if err != nil {
		return err
	}
	if p == nil {
		return fmt.Errorf("project %s not found", projectID)
	}

	user, err := s.userRepo.GetByID(ctx, p.UserID)
	if err != nil {
		return err
	}
	if user == nil || user.Email == "" {
		return fmt.Errorf("tenant user missing or has no email")
	}

	clientName := "Your client"
	if p.ClientID != nil {
		client, err := s.clientRepo.GetByID(ctx, *p.ClientID)
		if err == nil && client != nil && client.Name != "" {
			clientName = client.Name
		}
	}

	invoiceNumber := p.Name
	if p.InvoiceData != nil && p.InvoiceData.InvoiceNumber != "" {
		invoiceNumber = p.InvoiceData.InvoiceNumber
	}

	subject, plain, html := renderPaymentReceivedEmail(clientName, invoiceNumber, p.BillableTotalCents())
	return s.sender.Send(ctx, &EmailMessage{
		FromName:  s.cfg.OrganizationName,
		ToName:    user.Name,
		ToEmail:   user.Email,
		Subject:   subject,
		PlainText: plain,
		HTML:      html,
	})
}
