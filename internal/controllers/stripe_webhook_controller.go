package controllers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/quotemint/billing-service/internal/config"
	"github.com/quotemint/billing-service/internal/dtos"
	"github.com/quotemint/billing-service/internal/services"
	"github.com/quotemint/billing-service/internal/utils"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
)

type StripeWebhookController struct {
	cfg            *config.Config
	paymentService *services.PaymentService
}

func NewStripeWebhookController(cfg *config.Config, paymentService *services.PaymentService) *StripeWebhookController {
	return &StripeWebhookController{cfg: cfg, paymentService: paymentService}
}

// WebhookHandler -> POST /api/v1/billing/stripe/webhook
//
// Handler errors after signature verification still return 200 so
// Stripe retries on its own schedule; the failure is logged and the
// state update is idempotent under redelivery.
func (c *StripeWebhookController) WebhookHandler(w http.ResponseWriter, r *http.Request) {
	sigHeader := r.Header.Get("Stripe-Signature")
	if sigHeader == "" {
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, "Missing Stripe-Signature header", nil)
		return
	}

	payload, err := io.ReadAll(r.Body)
	if err != nil {
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, "Failed to read webhook body", nil, err)
		return
	}

	event, err := webhook.ConstructEvent(payload, sigHeader, c.cfg.StripeWebhookSecret)
	if err != nil {
		utils.Logger.WithError(err).Error("Stripe webhook signature verification failed")
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	switch event.Type {
	case stripe.EventTypeCheckoutSessionCompleted:
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &sess); err == nil {
			if hErr := c.paymentService.HandleCheckoutSessionCompleted(r.Context(), &sess); hErr != nil {
				utils.Logger.WithError(hErr).Errorf("Failed handling %s", event.Type)
			}
		} else {
			utils.Logger.WithError(err).Error("Could not parse stripe.CheckoutSession object")
		}
	case stripe.EventTypeCheckoutSessionExpired:
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &sess); err == nil {
			if hErr := c.paymentService.HandleCheckoutSessionExpired(r.Context(), &sess); hErr != nil {
				utils.Logger.WithError(hErr).Errorf("Failed handling %s", event.Type)
			}
		} else {
			utils.Logger.WithError(err).Error("Could not parse stripe.CheckoutSession object")
		}
	case stripe.EventTypePaymentIntentPaymentFailed:
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &pi); err == nil {
			if hErr := c.paymentService.HandlePaymentIntentFailed(r.Context(), &pi); hErr != nil {
				utils.Logger.WithError(hErr).Errorf("Failed handling %s", event.Type)
			}
		} else {
			utils.Logger.WithError(err).Error("Could not parse stripe.PaymentIntent object")
		}
	case stripe.EventTypeAccountUpdated:
		var account stripe.Account
		if err := json.Unmarshal(event.Data.Raw, &account); err == nil {
			if hErr := c.paymentService.HandleAccountUpdated(r.Context(), &account); hErr != nil {
				utils.Logger.WithError(hErr).Errorf("Failed handling %s", event.Type)
			}
		} else {
			utils.Logger.WithError(err).Error("Could not parse stripe.Account object")
		}
	default:
		utils.Logger.Infof("Unhandled Stripe event type received in billing-service: %s", event.Type)
	}

	utils.RespondWithJSON(w, http.StatusOK, dtos.WebhookReceivedResponse{Received: true})
}
