package controllers

import (
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/quotemint/billing-service/internal/config"
	"github.com/quotemint/billing-service/internal/constants"
	"github.com/quotemint/billing-service/internal/dtos"
	"github.com/quotemint/billing-service/internal/models"
	"github.com/quotemint/billing-service/internal/services"
	"github.com/quotemint/billing-service/internal/utils"
)

// PublicDocumentController serves the anonymous share-link surface.
// Everything here is reachable without authentication; the token is
// the credential.
type PublicDocumentController struct {
	cfg            *config.Config
	tokenService   *services.ShareTokenService
	paymentService *services.PaymentService
}

func NewPublicDocumentController(
	cfg *config.Config,
	tokenService *services.ShareTokenService,
	paymentService *services.PaymentService,
) *PublicDocumentController {
	return &PublicDocumentController{
		cfg:            cfg,
		tokenService:   tokenService,
		paymentService: paymentService,
	}
}

// GetDocumentHandler -> GET /p/{type}/{token}
func (c *PublicDocumentController) GetDocumentHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	docType := models.DocumentType(vars["type"])
	token := vars["token"]

	doc, err := c.tokenService.Resolve(r.Context(), docType, token)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, dtos.PublicDocumentResponse{
		Type:           string(doc.Type),
		ProjectName:    doc.ProjectName,
		CompanyName:    doc.CompanyName,
		ClientName:     doc.ClientName,
		Status:         string(doc.Status),
		PaymentStatus:  string(doc.PaymentStatus),
		TotalCents:     doc.TotalCents,
		QuoteExpiresAt: doc.QuoteExpiresAt,
		InvoiceData:    doc.InvoiceData,
	})
}

// ApproveQuoteHandler -> POST /p/quote/{token}/approve
func (c *PublicDocumentController) ApproveQuoteHandler(w http.ResponseWriter, r *http.Request) {
	token := mux.Vars(r)["token"]

	approvedAt, err := c.tokenService.ApproveQuote(r.Context(), token)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, dtos.ApproveQuoteResponse{ApprovedAt: approvedAt})
}

// PayInvoiceHandler -> POST /p/invoice/{token}/pay
func (c *PublicDocumentController) PayInvoiceHandler(w http.ResponseWriter, r *http.Request) {
	token := mux.Vars(r)["token"]

	project, err := c.tokenService.ResolveForPayment(r.Context(), token)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}

	shareURL := fmt.Sprintf("%s%s/%s/%s",
		c.cfg.AppUrl, constants.SharePathPrefix, models.DocumentTypeInvoice, token)
	checkoutURL, err := c.paymentService.CreateCheckoutSession(r.Context(), project, shareURL)
	if err != nil {
		utils.RespondErrorWithCode(w, http.StatusBadGateway, utils.ErrCodeDependencyFailure, "Could not start payment", nil, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, dtos.PayResponse{CheckoutURL: checkoutURL})
}
