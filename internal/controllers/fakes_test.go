package controllers

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	"github.com/quotemint/billing-service/internal/models"
	"github.com/quotemint/billing-service/internal/services"
)

// Minimal in-memory stubs for wiring real services under handler tests.

type stubProjectRepo struct {
	projects map[uuid.UUID]*models.Project
}

func newStubProjectRepo(projects ...*models.Project) *stubProjectRepo {
	r := &stubProjectRepo{projects: make(map[uuid.UUID]*models.Project)}
	for _, p := range projects {
		r.projects[p.ID] = p
	}
	return r
}

func (r *stubProjectRepo) Create(ctx context.Context, p *models.Project) error {
	r.projects[p.ID] = p
	return nil
}

func (r *stubProjectRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	return r.projects[id], nil
}

func (r *stubProjectRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Project, error) {
	var out []*models.Project
	for _, p := range r.projects {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *stubProjectRepo) ListByUserAndStatus(ctx context.Context, userID uuid.UUID, status models.ProjectStatusType) ([]*models.Project, error) {
	var out []*models.Project
	for _, p := range r.projects {
		if p.UserID == userID && p.Status == status {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *stubProjectRepo) UpdateIfVersion(ctx context.Context, p *models.Project, expectedVersion int64) (pgconn.CommandTag, error) {
	return pgconn.CommandTag("UPDATE 1"), nil
}

func (r *stubProjectRepo) UpdateWithRetry(ctx context.Context, id uuid.UUID, mutate func(*models.Project) error) error {
	p, ok := r.projects[id]
	if !ok {
		return errors.New("no rows in result set")
	}
	return mutate(p)
}

type stubShareTokenRepo struct {
	tokens []*models.ShareToken
}

func (r *stubShareTokenRepo) Create(ctx context.Context, t *models.ShareToken) error {
	r.tokens = append(r.tokens, t)
	return nil
}

func (r *stubShareTokenRepo) GetByToken(ctx context.Context, token string, docType models.DocumentType) (*models.ShareToken, error) {
	for _, t := range r.tokens {
		if t.Token == token && t.Type == docType {
			return t, nil
		}
	}
	return nil, nil
}

func (r *stubShareTokenRepo) GetUnexpiredByProjectAndType(ctx context.Context, projectID uuid.UUID, docType models.DocumentType, now time.Time) (*models.ShareToken, error) {
	for _, t := range r.tokens {
		if t.ProjectID == projectID && t.Type == docType && t.ExpiresAt.After(now) {
			return t, nil
		}
	}
	return nil, nil
}

func (r *stubShareTokenRepo) DeleteByIDAndProject(ctx context.Context, id, projectID uuid.UUID) (bool, error) {
	for i, t := range r.tokens {
		if t.ID == id && t.ProjectID == projectID {
			r.tokens = append(r.tokens[:i], r.tokens[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

type stubScheduleRepo struct{}

func (stubScheduleRepo) ListActive(ctx context.Context) ([]*models.DunningSchedule, error) {
	return nil, nil
}

type stubReminderLogRepo struct{}

func (stubReminderLogRepo) Exists(ctx context.Context, projectID uuid.UUID, reminderType models.ReminderTemplate) (bool, error) {
	return false, nil
}

func (stubReminderLogRepo) Insert(ctx context.Context, log *models.ReminderLog) (bool, error) {
	return true, nil
}

type stubFollowUpLogRepo struct{}

func (stubFollowUpLogRepo) Exists(ctx context.Context, projectID uuid.UUID, followUpType models.FollowUpType) (bool, error) {
	return false, nil
}

func (stubFollowUpLogRepo) Insert(ctx context.Context, log *models.FollowUpLog) (bool, error) {
	return true, nil
}

type stubSettingsRepo struct {
	settings map[uuid.UUID]*models.Settings
}

func newStubSettingsRepo(settings ...*models.Settings) *stubSettingsRepo {
	r := &stubSettingsRepo{settings: make(map[uuid.UUID]*models.Settings)}
	for _, s := range settings {
		r.settings[s.UserID] = s
	}
	return r
}

func (r *stubSettingsRepo) GetByUserID(ctx context.Context, userID uuid.UUID) (*models.Settings, error) {
	return r.settings[userID], nil
}

func (r *stubSettingsRepo) GetByStripeAccountID(ctx context.Context, accountID string) (*models.Settings, error) {
	for _, s := range r.settings {
		if s.StripeAccountID != nil && *s.StripeAccountID == accountID {
			return s, nil
		}
	}
	return nil, nil
}

func (r *stubSettingsRepo) SetStripeAccount(ctx context.Context, userID uuid.UUID, accountID string, status models.ConnectAccountStatusType) error {
	if s, ok := r.settings[userID]; ok {
		s.StripeAccountID = &accountID
		s.StripeAccountStatus = status
	}
	return nil
}

func (r *stubSettingsRepo) SetStripeAccountStatus(ctx context.Context, accountID string, status models.ConnectAccountStatusType) error {
	for _, s := range r.settings {
		if s.StripeAccountID != nil && *s.StripeAccountID == accountID {
			s.StripeAccountStatus = status
		}
	}
	return nil
}

type stubClientRepo struct {
	clients map[uuid.UUID]*models.Client
}

func newStubClientRepo(clients ...*models.Client) *stubClientRepo {
	r := &stubClientRepo{clients: make(map[uuid.UUID]*models.Client)}
	for _, c := range clients {
		r.clients[c.ID] = c
	}
	return r
}

func (r *stubClientRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Client, error) {
	return r.clients[id], nil
}

type stubUserRepo struct {
	users []*models.User
}

func (r *stubUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	for _, u := range r.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, nil
}

func (r *stubUserRepo) List(ctx context.Context) ([]*models.User, error) {
	return r.users, nil
}

type discardSender struct{}

func (discardSender) Send(ctx context.Context, m *services.EmailMessage) error { return nil }
