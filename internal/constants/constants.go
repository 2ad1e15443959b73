package constants

import "time"

// Checkout session metadata keys.
const (
	CheckoutMetadataProjectIDKey = "project_id"
	CheckoutMetadataUserIDKey    = "user_id"
)

// Marketplace routing. The platform keeps 2.5% of every connected-account
// charge; this is a fixed business rule, not tenant configuration.
const (
	PlatformFeeBasisPoints = 250
	BasisPointsDenominator = 10000
)

// Share token defaults.
const (
	DefaultShareTokenExpiryDays = 30
	ShareTokenByteLength        = 24 // 192 bits of entropy
	SharePathPrefix             = "/p"
)

// Follow-up ladder thresholds (days).
const (
	QuoteReminderAfterDays       = 3
	QuoteExpiringWithinDays      = 2
	InvoiceReminderAfterDays     = 7
	ReviewRequestAfterDays       = 7
	ReviewRequestCutoffDays      = 30
	MaintenanceReminderAfterDays = 30
)

// Fallback identity when a tenant has no settings row.
const (
	FallbackCompanyName = "Your Contractor"
)

// Email subjects for payment notifications.
const (
	EmailSubjectPaymentReceived = "You got paid: invoice %s"
)

// Checkout session behavior.
const (
	CheckoutSessionExpiry = 24 * time.Hour
)

// Sweep scheduling and timeouts.
const (
	DunningSweepCronSpec       = "0 13 * * *" // 13:00 UTC daily
	FollowUpSweepCronSpec      = "0 14 * * *" // 14:00 UTC daily
	ShortDunningSweepCronSpec  = "0 * * * *"  // hourly, staging only
	ShortFollowUpSweepCronSpec = "30 * * * *"
	SweepJobTimeout            = 15 * time.Minute
)

// Stripe Connect onboarding.
const (
	ConnectRefreshPath = "/settings/payments?refresh=1"
	ConnectReturnPath  = "/settings/payments?connected=1"
	PortalReturnPath   = "/settings/payments"
)
