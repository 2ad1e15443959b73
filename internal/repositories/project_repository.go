package repositories

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/quotemint/billing-service/internal/models"
)

// ProjectRepository defines the project data operations the billing core
// performs. Projects are created/edited by the record-editor surface;
// this core only ever mutates billing fields.
type ProjectRepository interface {
	Create(ctx context.Context, p *models.Project) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Project, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Project, error)
	ListByUserAndStatus(ctx context.Context, userID uuid.UUID, status models.ProjectStatusType) ([]*models.Project, error)
	UpdateIfVersion(ctx context.Context, p *models.Project, expectedVersion int64) (pgconn.CommandTag, error)
	UpdateWithRetry(ctx context.Context, id uuid.UUID, mutate func(*models.Project) error) error
}

type projectRepo struct {
	*BaseVersionedRepo[*models.Project]
	db DB
}

func NewProjectRepository(db DB) ProjectRepository {
	r := &projectRepo{db: db}
	selectStmt := baseSelectProject() + " WHERE id = $1"
	r.BaseVersionedRepo = NewBaseRepo(db, selectStmt, r.scanProject)
	return r
}

func baseSelectProject() string {
	return `
		SELECT
			id, user_id, client_id, name, status, quote_total_cents,
			quote_sent_at, quote_approved_at, quote_expires_at,
			invoice_sent_at, invoice_paid_at, completed_at,
			invoice_data, payment_status, payment_intent_id,
			created_at, updated_at, row_version
		FROM projects
	`
}

func (r *projectRepo) scanProject(row pgx.Row) (*models.Project, error) {
	var p models.Project
	var invoiceRaw []byte
	err := row.Scan(
		&p.ID, &p.UserID, &p.ClientID, &p.Name, &p.Status, &p.QuoteTotalCents,
		&p.QuoteSentAt, &p.QuoteApprovedAt, &p.QuoteExpiresAt,
		&p.InvoiceSentAt, &p.InvoicePaidAt, &p.CompletedAt,
		&invoiceRaw, &p.PaymentStatus, &p.PaymentIntentID,
		&p.CreatedAt, &p.UpdatedAt, &p.RowVersion,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if len(invoiceRaw) > 0 {
		var inv models.InvoiceData
		if err := json.Unmarshal(invoiceRaw, &inv); err != nil {
			return nil, err
		}
		p.InvoiceData = &inv
	}
	return &p, nil
}

func marshalInvoiceData(inv *models.InvoiceData) (interface{}, error) {
	if inv == nil {
		return nil, nil
	}
	return json.Marshal(inv)
}

func (r *projectRepo) Create(ctx context.Context, p *models.Project) error {
	invoiceRaw, err := marshalInvoiceData(p.InvoiceData)
	if err != nil {
		return err
	}
	q := `
		INSERT INTO projects (
			id, user_id, client_id, name, status, quote_total_cents,
			quote_sent_at, quote_approved_at, quote_expires_at,
			invoice_sent_at, invoice_paid_at, completed_at,
			invoice_data, payment_status, payment_intent_id,
			created_at, updated_at, row_version
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,NOW(),NOW(),1)
	`
	_, err = r.db.Exec(ctx, q,
		p.ID, p.UserID, p.ClientID, p.Name, p.Status, p.QuoteTotalCents,
		p.QuoteSentAt, p.QuoteApprovedAt, p.QuoteExpiresAt,
		p.InvoiceSentAt, p.InvoicePaidAt, p.CompletedAt,
		invoiceRaw, p.PaymentStatus, p.PaymentIntentID,
	)
	return err
}

func (r *projectRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	return r.BaseVersionedRepo.GetByID(ctx, id.String())
}

func (r *projectRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Project, error) {
	q := baseSelectProject() + " WHERE user_id = $1 ORDER BY created_at"
	return r.queryProjects(ctx, q, userID)
}

func (r *projectRepo) ListByUserAndStatus(ctx context.Context, userID uuid.UUID, status models.ProjectStatusType) ([]*models.Project, error) {
	q := baseSelectProject() + " WHERE user_id = $1 AND status = $2 ORDER BY created_at"
	return r.queryProjects(ctx, q, userID, status)
}

func (r *projectRepo) queryProjects(ctx context.Context, q string, args ...interface{}) ([]*models.Project, error) {
	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var projects []*models.Project
	for rows.Next() {
		p, err := r.scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

func (r *projectRepo) UpdateIfVersion(ctx context.Context, p *models.Project, expectedVersion int64) (pgconn.CommandTag, error) {
	invoiceRaw, err := marshalInvoiceData(p.InvoiceData)
	if err != nil {
		return nil, err
	}
	q := `
		UPDATE projects SET
			status = $1,
			quote_sent_at = $2,
			quote_approved_at = $3,
			quote_expires_at = $4,
			invoice_sent_at = $5,
			invoice_paid_at = $6,
			completed_at = $7,
			invoice_data = $8,
			payment_status = $9,
			payment_intent_id = $10,
			updated_at = NOW(),
			row_version = row_version + 1
		WHERE id = $11 AND row_version = $12
	`
	return r.db.Exec(ctx, q,
		p.Status, p.QuoteSentAt, p.QuoteApprovedAt, p.QuoteExpiresAt,
		p.InvoiceSentAt, p.InvoicePaidAt, p.CompletedAt,
		invoiceRaw, p.PaymentStatus, p.PaymentIntentID,
		p.ID, expectedVersion)
}

func (r *projectRepo) UpdateWithRetry(ctx context.Context, id uuid.UUID, mutate func(*models.Project) error) error {
	return r.BaseVersionedRepo.UpdateWithRetry(ctx, id.String(), mutate, r.UpdateIfVersion)
}
