package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/quotemint/billing-service/internal/app"
	"github.com/quotemint/billing-service/internal/config"
	"github.com/quotemint/billing-service/internal/constants"
	"github.com/quotemint/billing-service/internal/controllers"
	"github.com/quotemint/billing-service/internal/middleware"
	"github.com/quotemint/billing-service/internal/repositories"
	"github.com/quotemint/billing-service/internal/routes"
	"github.com/quotemint/billing-service/internal/services"
	"github.com/quotemint/billing-service/internal/utils"
	"github.com/robfig/cron/v3"
	"github.com/rs/cors"
	_ "time/tzdata"
)

func main() {
	utils.InitLogger(config.AppName)
	cfg := config.LoadConfig()

	application, err := app.NewApp(cfg)
	if err != nil {
		utils.Logger.Fatal("Failed to initialize billing-service:", err)
	}
	defer application.Close()

	// Repositories
	projectRepo := repositories.NewProjectRepository(application.DB)
	tokenRepo := repositories.NewShareTokenRepository(application.DB)
	scheduleRepo := repositories.NewDunningScheduleRepository(application.DB)
	reminderLogRepo := repositories.NewReminderLogRepository(application.DB)
	followUpLogRepo := repositories.NewFollowUpLogRepository(application.DB)
	settingsRepo := repositories.NewSettingsRepository(application.DB)
	clientRepo := repositories.NewClientRepository(application.DB)
	userRepo := repositories.NewUserRepository(application.DB)

	// Services
	sender := services.NewSendgridSender(cfg)
	tokenService := services.NewShareTokenService(cfg, tokenRepo, projectRepo, settingsRepo, clientRepo)
	dunningService := services.NewDunningService(cfg, scheduleRepo, projectRepo, reminderLogRepo, tokenRepo, settingsRepo, clientRepo, sender)
	followUpService := services.NewFollowUpService(cfg, userRepo, projectRepo, followUpLogRepo, tokenRepo, settingsRepo, clientRepo, sender)
	paymentService := services.NewPaymentService(cfg, projectRepo, settingsRepo, clientRepo, userRepo, sender)
	billingService := services.NewBillingService(projectRepo)

	// Controllers
	healthController := controllers.NewHealthController(application)
	sweepController := controllers.NewSweepController(cfg, dunningService, followUpService)
	shareTokenController := controllers.NewShareTokenController(tokenService)
	publicController := controllers.NewPublicDocumentController(cfg, tokenService, paymentService)
	webhookController := controllers.NewStripeWebhookController(cfg, paymentService)
	billingController := controllers.NewBillingController(billingService, paymentService)

	// Router setup
	router := mux.NewRouter()

	// Public routes
	router.HandleFunc(routes.Health, healthController.HealthCheckHandler).Methods(http.MethodGet)
	router.HandleFunc(routes.StripeWebhook, webhookController.WebhookHandler).Methods(http.MethodPost)
	router.HandleFunc(routes.DunningSweep, sweepController.DunningSweepHandler).Methods(http.MethodGet)
	router.HandleFunc(routes.FollowUpSweep, sweepController.FollowUpSweepHandler).Methods(http.MethodGet)
	router.HandleFunc(routes.PublicQuoteApprove, publicController.ApproveQuoteHandler).Methods(http.MethodPost)
	router.HandleFunc(routes.PublicInvoicePay, publicController.PayInvoiceHandler).Methods(http.MethodPost)
	router.HandleFunc(routes.PublicDocument, publicController.GetDocumentHandler).Methods(http.MethodGet)

	// Secured routes for tenants
	secured := router.NewRoute().Subrouter()
	secured.Use(middleware.AuthMiddleware(cfg.RSAPublicKey))
	secured.HandleFunc(routes.ProjectShareTokens, shareTokenController.IssueHandler).Methods(http.MethodPost)
	secured.HandleFunc(routes.ProjectShareTokenByID, shareTokenController.RevokeHandler).Methods(http.MethodDelete)
	secured.HandleFunc(routes.BillingSummary, billingController.SummaryHandler).Methods(http.MethodGet)
	secured.HandleFunc(routes.StripeConnectOnboard, billingController.ConnectOnboardHandler).Methods(http.MethodPost)
	secured.HandleFunc(routes.StripeBillingPortal, billingController.PortalHandler).Methods(http.MethodPost)

	// Cron job setup
	c := cron.New(cron.WithLocation(time.UTC))

	dunningSpec := constants.DunningSweepCronSpec
	followUpSpec := constants.FollowUpSweepCronSpec
	if cfg.LDFlag_UseShortSweepCrons {
		dunningSpec = constants.ShortDunningSweepCronSpec
		followUpSpec = constants.ShortFollowUpSweepCronSpec
		utils.Logger.Warnf("Using short sweep cron specs: dunning='%s', follow-up='%s'", dunningSpec, followUpSpec)
	}

	_, err = c.AddFunc(dunningSpec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), constants.SweepJobTimeout)
		defer cancel()
		utils.Logger.Info("Starting dunning sweep cron job...")
		if _, err := dunningService.RunSweep(ctx); err != nil {
			utils.Logger.WithError(err).Error("Dunning sweep failed")
		}
	})
	if err != nil {
		utils.Logger.WithError(err).Fatal("Failed to schedule dunning sweep cron")
	}

	_, err = c.AddFunc(followUpSpec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), constants.SweepJobTimeout)
		defer cancel()
		utils.Logger.Info("Starting follow-up sweep cron job...")
		if _, err := followUpService.RunSweep(ctx); err != nil {
			utils.Logger.WithError(err).Error("Follow-up sweep failed")
		}
	})
	if err != nil {
		utils.Logger.WithError(err).Fatal("Failed to schedule follow-up sweep cron")
	}

	c.Start()
	utils.Logger.Info("Scheduled sweep cron jobs")

	allowedOrigins := []string{cfg.AppUrl}
	if !cfg.LDFlag_CORSHighSecurity {
		allowedOrigins = append(allowedOrigins, utils.CORSLowSecurityAllowedOriginLocalhost)
	}

	co := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "Stripe-Signature", "ngrok-skip-browser-warning"},
		AllowCredentials: true,
	})

	utils.Logger.Infof("Starting %s on port: %s", cfg.AppName, cfg.AppPort)
	if err := http.ListenAndServe(":"+cfg.AppPort, co.Handler(router)); err != nil {
		utils.Logger.Fatal("billing-service failed to start:", err)
	}
}
