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
)

// IssueResult is the outcome of a token issuance. Existing reports
// whether an unexpired token was reused instead of minting a new one.
type IssueResult struct {
	Token    *models.ShareToken
	ShareURL string
	Existing bool
}

// PublicDocument is the anonymous read model served to a share-link
// visitor. Quote views expose quote fields; invoice views expose the
// frozen invoice snapshot.
type PublicDocument struct {
	Type           models.DocumentType
	ProjectName    string
	CompanyName    string
	ClientName     string
	Status         models.ProjectStatusType
	PaymentStatus  models.PaymentStatusType
	TotalCents     int64
	QuoteExpiresAt *time.Time
	InvoiceData    *models.InvoiceData
}

type ShareTokenService struct {
	cfg          *config.Config
	tokenRepo    repositories.ShareTokenRepository
	projectRepo  repositories.ProjectRepository
	settingsRepo repositories.SettingsRepository
	clientRepo   repositories.ClientRepository
	now          func() time.Time
}

func NewShareTokenService(
	cfg *config.Config,
	tokenRepo repositories.ShareTokenRepository,
	projectRepo repositories.ProjectRepository,
	settingsRepo repositories.SettingsRepository,
	clientRepo repositories.ClientRepository,
) *ShareTokenService {
	return &ShareTokenService{
		cfg:          cfg,
		tokenRepo:    tokenRepo,
		projectRepo:  projectRepo,
		settingsRepo: settingsRepo,
		clientRepo:   clientRepo,
		now:          time.Now,
	}
}

// Issue mints a share token for (project, docType), or returns the
// existing unexpired one. When invoice data is supplied it is frozen
// onto the project before the token row exists, so an invoice link can
// never point at a project without a snapshot.
func (s *ShareTokenService) Issue(
	ctx context.Context,
	userID, projectID uuid.UUID,
	docType models.DocumentType,
	expiryDays int,
	invoiceData *models.InvoiceData,
) (*IssueResult, error) {
	if !docType.Valid() {
		return nil, &utils.AppError{
			StatusCode: http.StatusBadRequest,
			Code:       utils.ErrCodeValidation,
			Message:    fmt.Sprintf("unknown document type %q", docType),
			Err:        utils.ErrValidation,
		}
	}

	project, err := s.projectRepo.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if project == nil || project.UserID != userID {
		// Ownership failures are indistinguishable from absence.
		return nil, &utils.AppError{
			StatusCode: http.StatusNotFound,
			Code:       utils.ErrCodeNotFound,
			Message:    "Project not found",
			Err:        utils.ErrNotFound,
		}
	}

	now := s.now()

	existing, err := s.tokenRepo.GetUnexpiredByProjectAndType(ctx, projectID, docType, now)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return &IssueResult{
			Token:    existing,
			ShareURL: s.shareURL(docType, existing.Token),
			Existing: true,
		}, nil
	}

	if docType == models.DocumentTypeInvoice && invoiceData != nil {
		err = s.projectRepo.UpdateWithRetry(ctx, projectID, func(p *models.Project) error {
			p.InvoiceData = invoiceData
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("freezing invoice snapshot: %w", err)
		}
	}

	if expiryDays <= 0 {
		expiryDays = constants.DefaultShareTokenExpiryDays
	}

	tok := &models.ShareToken{
		ID:        uuid.New(),
		Token:     utils.RandomToken(constants.ShareTokenByteLength),
		ProjectID: projectID,
		ClientID:  project.ClientID,
		Type:      docType,
		ExpiresAt: now.AddDate(0, 0, expiryDays),
		CreatedAt: now,
	}
	if err := s.tokenRepo.Create(ctx, tok); err != nil {
		return nil, err
	}

	// Delivery timestamps are bookkeeping; a failure here must not
	// invalidate a token that already exists.
	if err := s.stampDelivery(ctx, projectID, docType, now); err != nil {
		utils.Logger.WithError(err).Warnf("failed to stamp delivery on project %s", projectID)
	}

	return &IssueResult{
		Token:    tok,
		ShareURL: s.shareURL(docType, tok.Token),
		Existing: false,
	}, nil
}

func (s *ShareTokenService) stampDelivery(ctx context.Context, projectID uuid.UUID, docType models.DocumentType, now time.Time) error {
	return s.projectRepo.UpdateWithRetry(ctx, projectID, func(p *models.Project) error {
		switch docType {
		case models.DocumentTypeQuote:
			if p.QuoteSentAt == nil {
				p.QuoteSentAt = &now
			}
		case models.DocumentTypeInvoice:
			if p.InvoiceSentAt == nil {
				p.InvoiceSentAt = &now
			}
		}
		if p.Status == models.ProjectStatusDraft || p.Status == models.ProjectStatusQuoted {
			p.Status = models.ProjectStatusSent
		}
		return nil
	})
}

func (s *ShareTokenService) shareURL(docType models.DocumentType, token string) string {
	return fmt.Sprintf("%s%s/%s/%s", s.cfg.AppUrl, constants.SharePathPrefix, docType, token)
}

// Revoke deletes a token owned by the caller's project. Missing token
// and wrong owner both come back as not found.
func (s *ShareTokenService) Revoke(ctx context.Context, userID, projectID, tokenID uuid.UUID) error {
	project, err := s.projectRepo.GetByID(ctx, projectID)
	if err != nil {
		return err
	}
	if project == nil || project.UserID != userID {
		return &utils.AppError{
			StatusCode: http.StatusNotFound,
			Code:       utils.ErrCodeNotFound,
			Message:    "Project not found",
			Err:        utils.ErrNotFound,
		}
	}

	deleted, err := s.tokenRepo.DeleteByIDAndProject(ctx, tokenID, projectID)
	if err != nil {
		return err
	}
	if !deleted {
		return &utils.AppError{
			StatusCode: http.StatusNotFound,
			Code:       utils.ErrCodeNotFound,
			Message:    "Share token not found",
			Err:        utils.ErrNotFound,
		}
	}
	return nil
}

// Resolve maps an anonymous token to its public document. Unknown
// tokens are not found; known-but-expired tokens surface as expired so
// the handler can answer 410 instead of 404.
func (s *ShareTokenService) Resolve(ctx context.Context, docType models.DocumentType, token string) (*PublicDocument, error) {
	if !docType.Valid() {
		return nil, &utils.AppError{
			StatusCode: http.StatusNotFound,
			Code:       utils.ErrCodeNotFound,
			Message:    "Document not found",
			Err:        utils.ErrNotFound,
		}
	}

	tok, err := s.tokenRepo.GetByToken(ctx, token, docType)
	if err != nil {
		return nil, err
	}
	if tok == nil {
		return nil, &utils.AppError{
			StatusCode: http.StatusNotFound,
			Code:       utils.ErrCodeNotFound,
			Message:    "Document not found",
			Err:        utils.ErrNotFound,
		}
	}
	if tok.ExpiredAt(s.now()) {
		return nil, &utils.AppError{
			StatusCode: http.StatusGone,
			Code:       utils.ErrCodeTokenExpired,
			Message:    "This link has expired",
			Err:        utils.ErrTokenExpired,
		}
	}

	project, err := s.projectRepo.GetByID(ctx, tok.ProjectID)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, &utils.AppError{
			StatusCode: http.StatusNotFound,
			Code:       utils.ErrCodeNotFound,
			Message:    "Document not found",
			Err:        utils.ErrNotFound,
		}
	}

	doc := &PublicDocument{
		Type:          docType,
		ProjectName:   project.Name,
		CompanyName:   constants.FallbackCompanyName,
		Status:        project.Status,
		PaymentStatus: project.PaymentStatus,
	}

	settings, err := s.settingsRepo.GetByUserID(ctx, project.UserID)
	if err != nil {
		return nil, err
	}
	if settings != nil && settings.CompanyName != "" {
		doc.CompanyName = settings.CompanyName
	}

	if project.ClientID != nil {
		client, err := s.clientRepo.GetByID(ctx, *project.ClientID)
		if err != nil {
			return nil, err
		}
		if client != nil {
			doc.ClientName = client.Name
		}
	}

	switch docType {
	case models.DocumentTypeQuote:
		doc.TotalCents = project.QuoteTotalCents
		doc.QuoteExpiresAt = project.QuoteExpiresAt
	case models.DocumentTypeInvoice:
		doc.TotalCents = project.BillableTotalCents()
		doc.InvoiceData = project.InvoiceData
	}

	return doc, nil
}

// ApproveQuote records the client's approval through an unexpired quote
// token. The first approval stamps quote_approved_at and advances the
// project to approved; repeat calls return the original timestamp.
func (s *ShareTokenService) ApproveQuote(ctx context.Context, token string) (time.Time, error) {
	tok, err := s.tokenRepo.GetByToken(ctx, token, models.DocumentTypeQuote)
	if err != nil {
		return time.Time{}, err
	}
	if tok == nil {
		return time.Time{}, &utils.AppError{
			StatusCode: http.StatusNotFound,
			Code:       utils.ErrCodeNotFound,
			Message:    "Quote not found",
			Err:        utils.ErrNotFound,
		}
	}
	if tok.ExpiredAt(s.now()) {
		return time.Time{}, &utils.AppError{
			StatusCode: http.StatusGone,
			Code:       utils.ErrCodeTokenExpired,
			Message:    "This link has expired",
			Err:        utils.ErrTokenExpired,
		}
	}

	project, err := s.projectRepo.GetByID(ctx, tok.ProjectID)
	if err != nil {
		return time.Time{}, err
	}
	if project == nil {
		return time.Time{}, &utils.AppError{
			StatusCode: http.StatusNotFound,
			Code:       utils.ErrCodeNotFound,
			Message:    "Quote not found",
			Err:        utils.ErrNotFound,
		}
	}

	now := s.now()
	var approvedAt time.Time
	err = s.projectRepo.UpdateWithRetry(ctx, tok.ProjectID, func(p *models.Project) error {
		if p.QuoteApprovedAt == nil {
			p.QuoteApprovedAt = &now
		}
		approvedAt = *p.QuoteApprovedAt
		switch p.Status {
		case models.ProjectStatusDraft, models.ProjectStatusQuoted, models.ProjectStatusSent:
			p.Status = models.ProjectStatusApproved
		}
		return nil
	})
	if err != nil {
		return time.Time{}, fmt.Errorf("recording quote approval: %w", err)
	}

	utils.Logger.Infof("quote approved for project %s", tok.ProjectID)
	return approvedAt, nil
}

// ResolveForPayment returns the project behind an unexpired invoice
// token, rejecting already-paid invoices with a conflict.
func (s *ShareTokenService) ResolveForPayment(ctx context.Context, token string) (*models.Project, error) {
	tok, err := s.tokenRepo.GetByToken(ctx, token, models.DocumentTypeInvoice)
	if err != nil {
		return nil, err
	}
	if tok == nil {
		return nil, &utils.AppError{
			StatusCode: http.StatusNotFound,
			Code:       utils.ErrCodeNotFound,
			Message:    "Invoice not found",
			Err:        utils.ErrNotFound,
		}
	}
	if tok.ExpiredAt(s.now()) {
		return nil, &utils.AppError{
			StatusCode: http.StatusGone,
			Code:       utils.ErrCodeTokenExpired,
			Message:    "This link has expired",
			Err:        utils.ErrTokenExpired,
		}
	}

	project, err := s.projectRepo.GetByID(ctx, tok.ProjectID)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, &utils.AppError{
			StatusCode: http.StatusNotFound,
			Code:       utils.ErrCodeNotFound,
			Message:    "Invoice not found",
			Err:        utils.ErrNotFound,
		}
	}
	if project.PaymentStatus == models.PaymentStatusPaid {
		return nil, &utils.AppError{
			StatusCode: http.StatusConflict,
			Code:       utils.ErrCodeConflict,
			Message:    "This invoice has already been paid",
			Err:        utils.ErrAlreadyPaid,
		}
	}
	return project, nil
}
