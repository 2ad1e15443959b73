package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/quotemint/billing-service/internal/config"
	"github.com/quotemint/billing-service/internal/constants"
	"github.com/quotemint/billing-service/internal/models"
	"github.com/quotemint/billing-service/internal/repositories"
	"github.com/quotemint/billing-service/internal/utils"
)

type FollowUpService struct {
	cfg          *config.Config
	userRepo     repositories.UserRepository
	projectRepo  repositories.ProjectRepository
	logRepo      repositories.FollowUpLogRepository
	tokenRepo    repositories.ShareTokenRepository
	settingsRepo repositories.SettingsRepository
	clientRepo   repositories.ClientRepository
	sender       EmailSender
	now          func() time.Time
}

func NewFollowUpService(
	cfg *config.Config,
	userRepo repositories.UserRepository,
	projectRepo repositories.ProjectRepository,
	logRepo repositories.FollowUpLogRepository,
	tokenRepo repositories.ShareTokenRepository,
	settingsRepo repositories.SettingsRepository,
	clientRepo repositories.ClientRepository,
	sender EmailSender,
) *FollowUpService {
	return &FollowUpService{
		cfg:          cfg,
		userRepo:     userRepo,
		projectRepo:  projectRepo,
		logRepo:      logRepo,
		tokenRepo:    tokenRepo,
		settingsRepo: settingsRepo,
		clientRepo:   clientRepo,
		sender:       sender,
		now:          time.Now,
	}
}

// RunSweep evaluates the fixed follow-up ladder for every tenant's
// projects. At most one email per (project, type), ever; the follow-up
// log is the authority.
func (s *FollowUpService) RunSweep(ctx context.Context) (*SweepSummary, error) {
	summary := &SweepSummary{}

	users, err := s.userRepo.List(ctx)
	if err != nil {
		return summary, fmt.Errorf("listing users: %w", err)
	}

	now := s.now()
	for _, u := range users {
		projects, err := s.projectRepo.ListByUser(ctx, u.ID)
		if err != nil {
			summary.Errors = append(summary.Errors,
				fmt.Sprintf("user %s: listing projects: %v", u.ID, err))
			continue
		}

		for _, p := range projects {
			for _, fuType := range dueFollowUps(p, now) {
				summary.Processed++
				sent, err := s.sendFollowUp(ctx, p, fuType, now)
				if err != nil {
					summary.Errors = append(summary.Errors,
						fmt.Sprintf("project %s (%s): %v", p.ID, fuType, err))
					continue
				}
				if sent {
					summary.Sent++
				} else {
					summary.Skipped++
				}
			}
		}
	}

	utils.Logger.Infof(
		"follow-up sweep done: processed=%d sent=%d skipped=%d errors=%d",
		summary.Processed, summary.Sent, summary.Skipped, len(summary.Errors),
	)
	return summary, nil
}

// dueFollowUps returns every follow-up type whose threshold the project
// has crossed as of now. Dedup happens later against the log, so
// "crossed" uses >= rather than exact-day equality: a follow-up missed
// on its first eligible day still goes out the next.
func dueFollowUps(p *models.Project, now time.Time) []models.FollowUpType {
	var due []models.FollowUpType

	quoteOpen := p.QuoteSentAt != nil && p.QuoteApprovedAt == nil
	if quoteOpen && daysBetween(*p.QuoteSentAt, now) >= constants.QuoteReminderAfterDays {
		due = append(due, models.FollowUpQuoteReminder)
	}
	if quoteOpen && p.QuoteExpiresAt != nil {
		daysLeft := daysBetween(now, *p.QuoteExpiresAt)
		if daysLeft > 0 && daysLeft <= constants.QuoteExpiringWithinDays {
			due = append(due, models.FollowUpQuoteExpiring)
		}
	}

	invoiceOpen := p.InvoiceSentAt != nil && p.InvoicePaidAt == nil &&
		p.PaymentStatus != models.PaymentStatusPaid
	if invoiceOpen && daysBetween(*p.InvoiceSentAt, now) >= constants.InvoiceReminderAfterDays {
		due = append(due, models.FollowUpInvoiceReminder)
	}

	if p.Status == models.ProjectStatusCompleted && p.CompletedAt != nil {
		daysDone := daysBetween(*p.CompletedAt, now)
		if daysDone >= constants.ReviewRequestAfterDays && daysDone < constants.ReviewRequestCutoffDays {
			due = append(due, models.FollowUpReviewRequest)
		}
		if daysDone >= constants.MaintenanceReminderAfterDays {
			due = append(due, models.FollowUpMaintenanceReminder)
		}
	}

	return due
}

func (s *FollowUpService) sendFollowUp(
	ctx context.Context,
	p *models.Project,
	fuType models.FollowUpType,
	now time.Time,
) (bool, error) {
	exists, err := s.logRepo.Exists(ctx, p.ID, fuType)
	if err != nil {
		return false, fmt.Errorf("checking follow-up log: %w", err)
	}
	if exists {
		return false, nil
	}

	if p.ClientID == nil {
		return false, fmt.Errorf("project has no client")
	}
	client, err := s.clientRepo.GetByID(ctx, *p.ClientID)
	if err != nil {
		return false, fmt.Errorf("loading client: %w", err)
	}
	if client == nil || client.Email == "" {
		return false, fmt.Errorf("client missing or has no email")
	}

	companyName := constants.FallbackCompanyName
	var replyTo *string
	settings, err := s.settingsRepo.GetByUserID(ctx, p.UserID)
	if err != nil {
		return false, fmt.Errorf("loading settings: %w", err)
	}
	if settings != nil {
		if settings.CompanyName != "" {
			companyName = settings.CompanyName
		}
		replyTo = settings.ReplyToEmail
	}

	shareURL, err := s.shareURLFor(ctx, p.ID, fuType, now)
	if err != nil {
		return false, err
	}

	subject, plain, html, err := renderFollowUpEmail(fuType, followUpData{
		ClientName:  client.Name,
		ProjectName: p.Name,
		CompanyName: companyName,
		ShareURL:    shareURL,
	})
	if err != nil {
		return false, err
	}

	// Same dispatch-then-log ordering as the dunning engine.
	err = s.sender.Send(ctx, &EmailMessage{
		FromName:     companyName,
		ToName:       client.Name,
		ToEmail:      client.Email,
		Subject:      subject,
		PlainText:    plain,
		HTML:         html,
		ReplyToEmail: replyTo,
	})
	if err != nil {
		return false, fmt.Errorf("sending follow-up email: %w", err)
	}

	inserted, err := s.logRepo.Insert(ctx, &models.FollowUpLog{
		ID:        uuid.New(),
		ProjectID: p.ID,
		Type:      fuType,
		ClientID:  p.ClientID,
		SentAt:    now,
	})
	if err != nil {
		return true, fmt.Errorf("recording follow-up: %w", err)
	}
	if !inserted {
		utils.Logger.Warnf("follow-up %s for project %s was recorded concurrently; duplicate send likely", fuType, p.ID)
	}
	return true, nil
}

// shareURLFor picks the document link a follow-up should carry. Quote
// nudges require a live quote token and invoice nudges a live invoice
// token; post-completion nudges link to the app itself.
func (s *FollowUpService) shareURLFor(ctx context.Context, projectID uuid.UUID, fuType models.FollowUpType, now time.Time) (string, error) {
	var docType models.DocumentType
	switch fuType {
	case models.FollowUpQuoteReminder, models.FollowUpQuoteExpiring:
		docType = models.DocumentTypeQuote
	case models.FollowUpInvoiceReminder:
		docType = models.DocumentTypeInvoice
	default:
		return s.cfg.AppUrl, nil
	}

	tok, err := s.tokenRepo.GetUnexpiredByProjectAndType(ctx, projectID, docType, now)
	if err != nil {
		return "", fmt.Errorf("loading %s token: %w", docType, err)
	}
	if tok == nil {
		return "", fmt.Errorf("no unexpired %s share token", docType)
	}
	return fmt.Sprintf("%s%s/%s/%s", s.cfg.AppUrl, constants.SharePathPrefix, docType, tok.Token), nil
}
