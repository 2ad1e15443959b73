package controllers

import (
	"net/http"

	"github.com/quotemint/billing-service/internal/dtos"
	"github.com/quotemint/billing-service/internal/services"
	"github.com/quotemint/billing-service/internal/utils"
)

// BillingController serves the tenant-facing billing surface: the
// dashboard summary and the Stripe Connect flows.
type BillingController struct {
	billingService *services.BillingService
	paymentService *services.PaymentService
}

func NewBillingController(bs *services.BillingService, ps *services.PaymentService) *BillingController {
	return &BillingController{billingService: bs, paymentService: ps}
}

// SummaryHandler -> GET /api/v1/billing/summary
func (c *BillingController) SummaryHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := authedUserID(w, r)
	if !ok {
		return
	}

	summary, err := c.billingService.Summary(r.Context(), userID)
	if err != nil {
		utils.RespondErrorWithCode(w, http.StatusInternalServerError, utils.ErrCodeInternal, "Could not compute billing summary", nil, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, summary)
}

// ConnectOnboardHandler -> POST /api/v1/billing/stripe/connect/onboard
func (c *BillingController) ConnectOnboardHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := authedUserID(w, r)
	if !ok {
		return
	}

	url, err := c.paymentService.GetConnectOnboardingURL(r.Context(), userID)
	if err != nil {
		utils.RespondErrorWithCode(w, http.StatusBadGateway, utils.ErrCodeDependencyFailure, "Could not start payout onboarding", nil, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dtos.ConnectOnboardResponse{URL: url})
}

// PortalHandler -> POST /api/v1/billing/stripe/portal
func (c *BillingController) PortalHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := authedUserID(w, r)
	if !ok {
		return
	}

	url, err := c.paymentService.GetDashboardURL(r.Context(), userID)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dtos.PortalResponse{URL: url})
}
