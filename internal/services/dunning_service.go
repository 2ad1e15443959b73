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

// SweepSummary reports one sweep run. Errors holds per-item failures;
// a failing item never aborts the rest of the sweep.
type SweepSummary struct {
	Processed int      `json:"processed"`
	Sent      int      `json:"sent"`
	Skipped   int      `json:"skipped"`
	Errors    []string `json:"errors,omitempty"`
}

type DunningService struct {
	cfg          *config.Config
	scheduleRepo repositories.DunningScheduleRepository
	projectRepo  repositories.ProjectRepository
	logRepo      repositories.ReminderLogRepository
	tokenRepo    repositories.ShareTokenRepository
	settingsRepo repositories.SettingsRepository
	clientRepo   repositories.ClientRepository
	sender       EmailSender
	now          func() time.Time
}

func NewDunningService(
	cfg *config.Config,
	scheduleRepo repositories.DunningScheduleRepository,
	projectRepo repositories.ProjectRepository,
	logRepo repositories.ReminderLogRepository,
	tokenRepo repositories.ShareTokenRepository,
	settingsRepo repositories.SettingsRepository,
	clientRepo repositories.ClientRepository,
	sender EmailSender,
) *DunningService {
	return &DunningService{
		cfg:          cfg,
		scheduleRepo: scheduleRepo,
		projectRepo:  projectRepo,
		logRepo:      logRepo,
		tokenRepo:    tokenRepo,
		settingsRepo: settingsRepo,
		clientRepo:   clientRepo,
		sender:       sender,
		now:          time.Now,
	}
}

// midnightUTC truncates a timestamp to its UTC calendar day, so "days
// overdue" is a whole-day count independent of the hour either sweep
// or due date carries.
func midnightUTC(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

func daysBetween(from, to time.Time) int {
	return int(midnightUTC(to).Sub(midnightUTC(from)).Hours() / 24)
}

// RunSweep walks every active schedule and sends each reminder whose
// step matches today exactly. A step missed on its day (service down,
// schedule edited) is skipped forever rather than sent late.
func (s *DunningService) RunSweep(ctx context.Context) (*SweepSummary, error) {
	summary := &SweepSummary{}

	schedules, err := s.scheduleRepo.ListActive(ctx)
	if err != nil {
		return summary, fmt.Errorf("listing active schedules: %w", err)
	}

	now := s.now()
	for _, schedule := range schedules {
		projects, err := s.projectRepo.ListByUserAndStatus(ctx, schedule.UserID, models.ProjectStatusSent)
		if err != nil {
			summary.Errors = append(summary.Errors,
				fmt.Sprintf("user %s: listing projects: %v", schedule.UserID, err))
			continue
		}

		for _, p := range projects {
			if p.InvoiceSentAt == nil || p.InvoicePaidAt != nil ||
				p.PaymentStatus == models.PaymentStatusPaid {
				continue
			}
			summary.Processed++

			if p.InvoiceData == nil || p.InvoiceData.DueDate == nil {
				summary.Skipped++
				continue
			}
			daysOverdue := daysBetween(*p.InvoiceData.DueDate, now)
			if daysOverdue < 0 {
				summary.Skipped++
				continue
			}
			steps := matchSteps(schedule.Steps, daysOverdue)
			if len(steps) == 0 {
				summary.Skipped++
				continue
			}

			for _, step := range steps {
				sent, err := s.sendReminder(ctx, p, step, daysOverdue, now)
				if err != nil {
					summary.Errors = append(summary.Errors,
						fmt.Sprintf("project %s: %v", p.ID, err))
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
		"dunning sweep done: processed=%d sent=%d skipped=%d errors=%d",
		summary.Processed, summary.Sent, summary.Skipped, len(summary.Errors),
	)
	return summary, nil
}

// matchSteps picks every step whose offset equals today's overdue
// count. Exact equality is deliberate; it is what keeps a late sweep
// from firing every past step at once. Two steps sharing a day but
// carrying different templates both fire, and each claims its own
// idempotency slot.
func matchSteps(steps []models.DunningStep, daysOverdue int) []models.DunningStep {
	var matched []models.DunningStep
	for _, st := range steps {
		if st.DaysAfterDue == daysOverdue {
			matched = append(matched, st)
		}
	}
	return matched
}

// sendReminder claims the (project, template) idempotency slot and, on
// winning it, renders and dispatches the email. Returns false when
// another run already holds the slot.
func (s *DunningService) sendReminder(
	ctx context.Context,
	p *models.Project,
	step models.DunningStep,
	daysOverdue int,
	now time.Time,
) (bool, error) {
	// Fast path before the insert; the insert remains the authority.
	exists, err := s.logRepo.Exists(ctx, p.ID, step.Template)
	if err != nil {
		return false, fmt.Errorf("checking reminder log: %w", err)
	}
	if exists {
		return false, nil
	}

	client, companyName, replyTo, err := s.recipient(ctx, p)
	if err != nil {
		return false, err
	}

	paymentURL, err := s.paymentURL(ctx, p.ID, now)
	if err != nil {
		return false, err
	}

	subject, plain, html, err := renderReminderEmail(step.Template, reminderData{
		ClientName:    client.Name,
		InvoiceNumber: p.InvoiceData.InvoiceNumber,
		AmountCents:   p.BillableTotalCents(),
		DueDate:       *p.InvoiceData.DueDate,
		DaysOverdue:   daysOverdue,
		CompanyName:   companyName,
		PaymentURL:    paymentURL,
	})
	if err != nil {
		return false, err
	}

	// Dispatch before the log write: a failed send leaves no log row,
	// so the next sweep retries. The price is a possible duplicate send
	// if the process dies between these two calls.
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
		return false, fmt.Errorf("sending reminder email: %w", err)
	}

	inserted, err := s.logRepo.Insert(ctx, &models.ReminderLog{
		ID:           uuid.New(),
		ProjectID:    p.ID,
		ReminderType: step.Template,
		SentAt:       now,
	})
	if err != nil {
		return true, fmt.Errorf("recording reminder: %w", err)
	}
	if !inserted {
		utils.Logger.Warnf("reminder %s for project %s was recorded concurrently; duplicate send likely", step.Template, p.ID)
	}
	return true, nil
}

func (s *DunningService) recipient(ctx context.Context, p *models.Project) (*models.Client, string, *string, error) {
	if p.ClientID == nil {
		return nil, "", nil, fmt.Errorf("project has no client")
	}
	client, err := s.clientRepo.GetByID(ctx, *p.ClientID)
	if err != nil {
		return nil, "", nil, fmt.Errorf("loading client: %w", err)
	}
	if client == nil || client.Email == "" {
		return nil, "", nil, fmt.Errorf("client missing or has no email")
	}

	companyName := constants.FallbackCompanyName
	var replyTo *string
	settings, err := s.settingsRepo.GetByUserID(ctx, p.UserID)
	if err != nil {
		return nil, "", nil, fmt.Errorf("loading settings: %w", err)
	}
	if settings != nil {
		if settings.CompanyName != "" {
			companyName = settings.CompanyName
		}
		replyTo = settings.ReplyToEmail
	}
	return client, companyName, replyTo, nil
}

// paymentURL resolves the live invoice link for a reminder. A reminder
// without a working link is worse than none, so a missing token is an
// error, not a fallback to the app root.
func (s *DunningService) paymentURL(ctx context.Context, projectID uuid.UUID, now time.Time) (string, error) {
	tok, err := s.tokenRepo.GetUnexpiredByProjectAndType(ctx, projectID, models.DocumentTypeInvoice, now)
	if err != nil {
		return "", fmt.Errorf("loading invoice token: %w", err)
	}
	if tok == nil {
		return "", fmt.Errorf("no unexpired invoice share token")
	}
	return fmt.Sprintf("%s%s/%s/%s", s.cfg.AppUrl, constants.SharePathPrefix, models.DocumentTypeInvoice, tok.Token), nil
}
