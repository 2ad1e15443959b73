package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	"github.com/quotemint/billing-service/internal/models"
)

// In-memory repository fakes. They implement the repository interfaces
// just far enough for service semantics; no SQL, no pool.

type fakeProjectRepo struct {
	mu       sync.Mutex
	projects map[uuid.UUID]*models.Project
}

func newFakeProjectRepo(projects ...*models.Project) *fakeProjectRepo {
	r := &fakeProjectRepo{projects: make(map[uuid.UUID]*models.Project)}
	for _, p := range projects {
		r.projects[p.ID] = p
	}
	return r
}

func (r *fakeProjectRepo) Create(ctx context.Context, p *models.Project) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.projects[p.ID] = p
	return nil
}

func (r *fakeProjectRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.projects[id], nil
}

func (r *fakeProjectRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Project
	for _, p := range r.projects {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *fakeProjectRepo) ListByUserAndStatus(ctx context.Context, userID uuid.UUID, status models.ProjectStatusType) ([]*models.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Project
	for _, p := range r.projects {
		if p.UserID == userID && p.Status == status {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *fakeProjectRepo) UpdateIfVersion(ctx context.Context, p *models.Project, expectedVersion int64) (pgconn.CommandTag, error) {
	return pgconn.CommandTag("UPDATE 1"), nil
}

func (r *fakeProjectRepo) UpdateWithRetry(ctx context.Context, id uuid.UUID, mutate func(*models.Project) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.projects[id]
	if !ok {
		return errors.New("no rows in result set")
	}
	return mutate(p)
}

type fakeShareTokenRepo struct {
	mu     sync.Mutex
	tokens []*models.ShareToken
}

func (r *fakeShareTokenRepo) Create(ctx context.Context, t *models.ShareToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tokens = append(r.tokens, t)
	return nil
}

func (r *fakeShareTokenRepo) GetByToken(ctx context.Context, token string, docType models.DocumentType) (*models.ShareToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.tokens {
		if t.Token == token && t.Type == docType {
			return t, nil
		}
	}
	return nil, nil
}

func (r *fakeShareTokenRepo) GetUnexpiredByProjectAndType(ctx context.Context, projectID uuid.UUID, docType models.DocumentType, now time.Time) (*models.ShareToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.tokens {
		if t.ProjectID == projectID && t.Type == docType && t.ExpiresAt.After(now) {
			return t, nil
		}
	}
	return nil, nil
}

func (r *fakeShareTokenRepo) DeleteByIDAndProject(ctx context.Context, id, projectID uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, t := range r.tokens {
		if t.ID == id && t.ProjectID == projectID {
			r.tokens = append(r.tokens[:i], r.tokens[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

type fakeScheduleRepo struct {
	schedules []*models.DunningSchedule
}

func (r *fakeScheduleRepo) ListActive(ctx context.Context) ([]*models.DunningSchedule, error) {
	return r.schedules, nil
}

type logKey struct {
	projectID uuid.UUID
	kind      string
}

type fakeReminderLogRepo struct {
	mu   sync.Mutex
	rows map[logKey]bool
	// When set, the next Insert reports not-inserted even though Exists
	// said no row, simulating a concurrent sweep winning the slot.
	loseNextInsert bool
}

func newFakeReminderLogRepo() *fakeReminderLogRepo {
	return &fakeReminderLogRepo{rows: make(map[logKey]bool)}
}

func (r *fakeReminderLogRepo) Exists(ctx context.Context, projectID uuid.UUID, reminderType models.ReminderTemplate) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rows[logKey{projectID, string(reminderType)}], nil
}

func (r *fakeReminderLogRepo) Insert(ctx context.Context, log *models.ReminderLog) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.loseNextInsert {
		r.loseNextInsert = false
		return false, nil
	}
	k := logKey{log.ProjectID, string(log.ReminderType)}
	if r.rows[k] {
		return false, nil
	}
	r.rows[k] = true
	return true, nil
}

type fakeFollowUpLogRepo struct {
	mu   sync.Mutex
	rows map[logKey]bool
}

func newFakeFollowUpLogRepo() *fakeFollowUpLogRepo {
	return &fakeFollowUpLogRepo{rows: make(map[logKey]bool)}
}

func (r *fakeFollowUpLogRepo) Exists(ctx context.Context, projectID uuid.UUID, followUpType models.FollowUpType) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rows[logKey{projectID, string(followUpType)}], nil
}

func (r *fakeFollowUpLogRepo) Insert(ctx context.Context, log *models.FollowUpLog) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := logKey{log.ProjectID, string(log.Type)}
	if r.rows[k] {
		return false, nil
	}
	r.rows[k] = true
	return true, nil
}

type fakeSettingsRepo struct {
	mu     sync.Mutex
	byUser map[uuid.UUID]*models.Settings
}

func newFakeSettingsRepo(settings ...*models.Settings) *fakeSettingsRepo {
	r := &fakeSettingsRepo{byUser: make(map[uuid.UUID]*models.Settings)}
	for _, s := range settings {
		r.byUser[s.UserID] = s
	}
	return r
}

func (r *fakeSettingsRepo) GetByUserID(ctx context.Context, userID uuid.UUID) (*models.Settings, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.byUser[userID], nil
}

func (r *fakeSettingsRepo) GetByStripeAccountID(ctx context.Context, accountID string) (*models.Settings, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.byUser {
		if s.StripeAccountID != nil && *s.StripeAccountID == accountID {
			return s, nil
		}
	}
	return nil, nil
}

func (r *fakeSettingsRepo) SetStripeAccount(ctx context.Context, userID uuid.UUID, accountID string, status models.ConnectAccountStatusType) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.byUser[userID]
	if !ok {
		return errors.New("no settings row")
	}
	s.StripeAccountID = &accountID
	s.StripeAccountStatus = status
	return nil
}

func (r *fakeSettingsRepo) SetStripeAccountStatus(ctx context.Context, accountID string, status models.ConnectAccountStatusType) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.byUser {
		if s.StripeAccountID != nil && *s.StripeAccountID == accountID {
			s.StripeAccountStatus = status
			return nil
		}
	}
	return nil
}

type fakeClientRepo struct {
	clients map[uuid.UUID]*models.Client
}

func newFakeClientRepo(clients ...*models.Client) *fakeClientRepo {
	r := &fakeClientRepo{clients: make(map[uuid.UUID]*models.Client)}
	for _, c := range clients {
		r.clients[c.ID] = c
	}
	return r
}

func (r *fakeClientRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Client, error) {
	return r.clients[id], nil
}

type fakeUserRepo struct {
	users []*models.User
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	for _, u := range r.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) List(ctx context.Context) ([]*models.User, error) {
	return r.users, nil
}

// recordingSender captures outbound messages instead of dispatching.
type recordingSender struct {
	mu      sync.Mutex
	sent    []*EmailMessage
	failing bool
}

func (s *recordingSender) Send(ctx context.Context, m *EmailMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failing {
		return errors.New("smtp unavailable")
	}
	s.sent = append(s.sent, m)
	return nil
}

func (s *recordingSender) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sent)
}
