package config

import (
	"crypto/rsa"
	"encoding/base64"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/launchdarkly/go-sdk-common/v3/ldcontext"
	ld "github.com/launchdarkly/go-server-sdk/v7"
	"github.com/quotemint/billing-service/internal/utils"
)

type Config struct {
	OrganizationName    string
	AppName             string
	AppPort             string
	AppUrl              string
	DBUrl               string
	StripeSecretKey     string
	StripeWebhookSecret string
	SendgridAPIKey      string
	CronSharedSecret    string
	RSAPublicKey        *rsa.PublicKey

	LDFlag_SendgridFromEmail   string
	LDFlag_SendgridSandboxMode bool
	LDFlag_CORSHighSecurity    bool
	LDFlag_UseShortSweepCrons  bool
}

const (
	OrganizationName    = "QuoteMint"
	AppName             = "billing-service"
	LDConnectionTimeout = 5 * time.Second

	ldContextKind = "service"
	ldContextKey  = "billing-service"

	fallbackFromEmail = "no-reply@quotemint.app"
)

// parseRSAPublicKey decodes the base64-wrapped PEM block the identity
// provider publishes for JWT verification.
func parseRSAPublicKey(pubB64 string) (*rsa.PublicKey, error) {
	pubPEM, err := base64.StdEncoding.DecodeString(pubB64)
	if err != nil {
		return nil, fmt.Errorf("decoding RSA public key base64: %w", err)
	}
	return jwt.ParseRSAPublicKeyFromPEM(pubPEM)
}

func LoadConfig() *Config {
	utils.Logger.Info("Loading config for app: ", AppName)

	env := os.Getenv("ENV")
	if env == "" {
		utils.Logger.Fatal("ENV env var is missing")
	}
	appUrl := os.Getenv("APP_URL_FROM_ANYWHERE")
	if appUrl == "" {
		utils.Logger.Fatal("APP_URL_FROM_ANYWHERE env var is missing")
	}
	appPort := os.Getenv("APP_PORT")
	if appPort == "" {
		utils.Logger.Fatal("APP_PORT env var is missing")
	}

	client, err := utils.NewBWSSecretsClient()
	if err != nil {
		utils.Logger.WithError(err).Fatal("Failed to initialize BWSSecretsClient")
	}
	defer client.Close()

	appSecretsName := fmt.Sprintf("%s-%s", AppName, env)
	appSecrets, err := client.GetBWSSecrets(appSecretsName)
	if err != nil {
		utils.Logger.WithError(err).Fatal("Failed to fetch app secrets from BWS")
	}

	sharedSecretsName := fmt.Sprintf("shared-%s", env)
	sharedSecrets, err := client.GetBWSSecrets(sharedSecretsName)
	if err != nil {
		utils.Logger.WithError(err).Fatal("Failed to fetch shared secrets from BWS")
	}

	dbURL, ok := appSecrets["DB_URL"]
	if !ok || dbURL == "" {
		utils.Logger.Fatalf("DB_URL not found in BWS secrets (%s)", appSecretsName)
	}

	ldSDKKey, ok := appSecrets["LD_SDK_KEY"]
	if !ok || ldSDKKey == "" {
		utils.Logger.Fatalf("LD_SDK_KEY not found in BWS secrets (%s)", appSecretsName)
	}

	stripeSecretKey, ok := sharedSecrets["STRIPE_SECRET_KEY"]
	if !ok || stripeSecretKey == "" {
		utils.Logger.Fatalf("STRIPE_SECRET_KEY not found in BWS secrets (%s)", sharedSecretsName)
	}

	stripeWebhookSecret, ok := sharedSecrets["STRIPE_WEBHOOK_SECRET"]
	if !ok || stripeWebhookSecret == "" {
		utils.Logger.Fatalf("STRIPE_WEBHOOK_SECRET not found in BWS secrets (%s)", sharedSecretsName)
	}

	sendgridAPIKey, ok := sharedSecrets["SENDGRID_API_KEY"]
	if !ok || sendgridAPIKey == "" {
		utils.Logger.Fatalf("SENDGRID_API_KEY not found in BWS secrets (%s)", sharedSecretsName)
	}

	// Optional: without it the sweep trigger endpoints are open, which is
	// acceptable only in local development.
	cronSharedSecret := appSecrets["CRON_SHARED_SECRET"]
	if cronSharedSecret == "" {
		utils.Logger.Warn("CRON_SHARED_SECRET not set; sweep trigger endpoints are unauthenticated")
	}

	pubB64, ok := sharedSecrets["RSA_PUBLIC_KEY_BASE64"]
	if !ok {
		utils.Logger.Fatalf("RSA_PUBLIC_KEY_BASE64 not found in BWS secrets (%s)", sharedSecretsName)
	}
	pubKey, err := parseRSAPublicKey(pubB64)
	if err != nil {
		utils.Logger.WithError(err).Fatal("Failed to parse RSA public key")
	}

	ldClient, err := ld.MakeClient(ldSDKKey, LDConnectionTimeout)
	if err != nil {
		utils.Logger.WithError(err).Fatal("Failed to create LaunchDarkly client")
	}
	defer ldClient.Close()

	ctx := ldcontext.NewWithKind(ldcontext.Kind(ldContextKind), ldContextKey)

	sgFromFlag, err := ldClient.StringVariation("sendgrid_from_email", ctx, "")
	if err != nil {
		utils.Logger.WithError(err).Fatal("Error retrieving sendgrid_from_email flag")
	}
	if sgFromFlag == "" {
		sgFromFlag = fallbackFromEmail
	}

	sgSandboxFlag, err := ldClient.BoolVariation("sendgrid_sandbox_mode", ctx, false)
	if err != nil {
		utils.Logger.WithError(err).Fatal("Error retrieving sendgrid_sandbox_mode flag")
	}

	corsHighSecurityFlag, err := ldClient.BoolVariation("cors_high_security", ctx, false)
	if err != nil {
		utils.Logger.WithError(err).Fatal("Error retrieving cors_high_security flag")
	}
	utils.Logger.Debugf("cors_high_security flag: %t", corsHighSecurityFlag)

	shortSweepCronsFlag, err := ldClient.BoolVariation("use_short_sweep_crons", ctx, false)
	if err != nil {
		utils.Logger.WithError(err).Fatal("Error retrieving use_short_sweep_crons flag")
	}
	utils.Logger.Debugf("use_short_sweep_crons flag: %t", shortSweepCronsFlag)

	return &Config{
		OrganizationName:    OrganizationName,
		AppName:             AppName,
		AppPort:             appPort,
		AppUrl:              appUrl,
		DBUrl:               dbURL,
		StripeSecretKey:     stripeSecretKey,
		StripeWebhookSecret: stripeWebhookSecret,
		SendgridAPIKey:      sendgridAPIKey,
		CronSharedSecret:    cronSharedSecret,
		RSAPublicKey:        pubKey,

		LDFlag_SendgridFromEmail:   sgFromFlag,
		LDFlag_SendgridSandboxMode: sgSandboxFlag,
		LDFlag_CORSHighSecurity:    corsHighSecurityFlag,
		LDFlag_UseShortSweepCrons:  shortSweepCronsFlag,
	}
}
