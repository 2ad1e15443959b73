package routes

const (
	Health = "/health"

	// Scheduler-facing sweep triggers (Bearer shared secret).
	DunningSweep  = "/api/v1/billing/sweeps/dunning"
	FollowUpSweep = "/api/v1/billing/sweeps/follow-ups"

	// Payment processor callback.
	StripeWebhook = "/api/v1/billing/stripe/webhook"

	// Tenant-authenticated surface.
	ProjectShareTokens    = "/api/v1/projects/{projectID}/share-tokens"
	ProjectShareTokenByID = "/api/v1/projects/{projectID}/share-tokens/{tokenID}"
	BillingSummary        = "/api/v1/billing/summary"
	StripeConnectOnboard  = "/api/v1/billing/stripe/connect/onboard"
	StripeBillingPortal   = "/api/v1/billing/stripe/portal"

	// Public token-scoped surface.
	PublicDocument     = "/p/{type}/{token}"
	PublicQuoteApprove = "/p/quote/{token}/approve"
	PublicInvoicePay   = "/p/invoice/{token}/pay"
)
