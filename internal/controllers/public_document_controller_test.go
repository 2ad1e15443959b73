package controllers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/quotemint/billing-service/internal/config"
	"github.com/quotemint/billing-service/internal/models"
	"github.com/quotemint/billing-service/internal/routes"
	"github.com/quotemint/billing-service/internal/services"
	"github.com/stretchr/testify/require"
)

type publicFixture struct {
	router  *mux.Router
	project *models.Project
	tokens  *stubShareTokenRepo
}

func newPublicFixture(t *testing.T) *publicFixture {
	t.Helper()

	userID := uuid.New()
	clientID := uuid.New()
	project := &models.Project{
		ID:              uuid.New(),
		UserID:          userID,
		ClientID:        &clientID,
		Name:            "Roof patch",
		Status:          models.ProjectStatusSent,
		QuoteTotalCents: 42_000,
		InvoiceData: &models.InvoiceData{
			InvoiceNumber: "INV-3",
			TotalCents:    60_000,
		},
	}

	cfg := &config.Config{AppUrl: "https://app.quotemint.test"}
	tokens := &stubShareTokenRepo{}
	tokenService := services.NewShareTokenService(
		cfg, tokens, newStubProjectRepo(project),
		newStubSettingsRepo(&models.Settings{UserID: userID, CompanyName: "Hart Plumbing"}),
		newStubClientRepo(&models.Client{ID: clientID, UserID: userID, Name: "Dana", Email: "dana@example.com"}),
	)
	paymentService := services.NewPaymentService(
		cfg, newStubProjectRepo(project), newStubSettingsRepo(),
		newStubClientRepo(), &stubUserRepo{}, discardSender{},
	)
	controller := NewPublicDocumentController(cfg, tokenService, paymentService)

	router := mux.NewRouter()
	router.HandleFunc(routes.PublicQuoteApprove, controller.ApproveQuoteHandler).Methods(http.MethodPost)
	router.HandleFunc(routes.PublicInvoicePay, controller.PayInvoiceHandler).Methods(http.MethodPost)
	router.HandleFunc(routes.PublicDocument, controller.GetDocumentHandler).Methods(http.MethodGet)

	return &publicFixture{router: router, project: project, tokens: tokens}
}

func (f *publicFixture) addToken(docType models.DocumentType, token string, expiresAt time.Time) {
	f.tokens.tokens = append(f.tokens.tokens, &models.ShareToken{
		ID:        uuid.New(),
		Token:     token,
		ProjectID: f.project.ID,
		Type:      docType,
		ExpiresAt: expiresAt,
	})
}

func TestPublicDocumentUnknownTokenIs404(t *testing.T) {
	fix := newPublicFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/p/quote/doesnotexist", nil)
	rec := httptest.NewRecorder()
	fix.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPublicDocumentExpiredTokenIs410(t *testing.T) {
	fix := newPublicFixture(t)
	fix.addToken(models.DocumentTypeQuote, "oldtoken", time.Now().Add(-time.Hour))

	req := httptest.NewRequest(http.MethodGet, "/p/quote/oldtoken", nil)
	rec := httptest.NewRecorder()
	fix.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusGone, rec.Code)
}

func TestPublicDocumentQuoteView(t *testing.T) {
	fix := newPublicFixture(t)
	fix.addToken(models.DocumentTypeQuote, "livetoken", time.Now().Add(24*time.Hour))

	req := httptest.NewRequest(http.MethodGet, "/p/quote/livetoken", nil)
	rec := httptest.NewRecorder()
	fix.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"company_name":"Hart Plumbing"`)
	require.Contains(t, rec.Body.String(), `"total_cents":42000`)
}

func TestPublicInvoiceViewUsesFrozenSnapshot(t *testing.T) {
	fix := newPublicFixture(t)
	fix.addToken(models.DocumentTypeInvoice, "invtoken", time.Now().Add(24*time.Hour))

	req := httptest.NewRequest(http.MethodGet, "/p/invoice/invtoken", nil)
	rec := httptest.NewRecorder()
	fix.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"total_cents":60000`)
	require.Contains(t, rec.Body.String(), `"INV-3"`)
}

func TestApproveQuoteEndpoint(t *testing.T) {
	fix := newPublicFixture(t)
	fix.addToken(models.DocumentTypeQuote, "livetoken", time.Now().Add(24*time.Hour))

	req := httptest.NewRequest(http.MethodPost, "/p/quote/livetoken/approve", nil)
	rec := httptest.NewRecorder()
	fix.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "approved_at")

	require.NotNil(t, fix.project.QuoteApprovedAt)
	require.Equal(t, models.ProjectStatusApproved, fix.project.Status)
}

func TestApproveQuoteUnknownTokenIs404(t *testing.T) {
	fix := newPublicFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/p/quote/missing/approve", nil)
	rec := httptest.NewRecorder()
	fix.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPayAlreadyPaidInvoiceIs409(t *testing.T) {
	fix := newPublicFixture(t)
	fix.addToken(models.DocumentTypeInvoice, "invtoken", time.Now().Add(24*time.Hour))
	fix.project.PaymentStatus = models.PaymentStatusPaid

	req := httptest.NewRequest(http.MethodPost, "/p/invoice/invtoken/pay", nil)
	rec := httptest.NewRecorder()
	fix.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestPayUnknownTokenIs404(t *testing.T) {
	fix := newPublicFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/p/invoice/missing/pay", nil)
	rec := httptest.NewRecorder()
	fix.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNotFound, rec.Code)
}
