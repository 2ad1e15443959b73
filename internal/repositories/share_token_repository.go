package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/quotemint/billing-service/internal/models"
)

// ShareTokenRepository persists anonymous access tokens. Tokens are
// never updated; revocation deletes and expiry is checked in the
// service by time comparison.
type ShareTokenRepository interface {
	Create(ctx context.Context, t *models.ShareToken) error
	GetByToken(ctx context.Context, token string, docType models.DocumentType) (*models.ShareToken, error)
	GetUnexpiredByProjectAndType(ctx context.Context, projectID uuid.UUID, docType models.DocumentType, now time.Time) (*models.ShareToken, error)
	DeleteByIDAndProject(ctx context.Context, id, projectID uuid.UUID) (bool, error)
}

type shareTokenRepo struct {
	db DB
}

func NewShareTokenRepository(db DB) ShareTokenRepository {
	return &shareTokenRepo{db: db}
}

func baseSelectShareToken() string {
	return `
		SELECT id, token, project_id, client_id, type, expires_at, created_at
		FROM share_tokens
	`
}

func (r *shareTokenRepo) scanToken(row pgx.Row) (*models.ShareToken, error) {
	var t models.ShareToken
	err := row.Scan(&t.ID, &t.Token, &t.ProjectID, &t.ClientID, &t.Type, &t.ExpiresAt, &t.CreatedAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *shareTokenRepo) Create(ctx context.Context, t *models.ShareToken) error {
	q := `
		INSERT INTO share_tokens (id, token, project_id, client_id, type, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
	`
	_, err := r.db.Exec(ctx, q, t.ID, t.Token, t.ProjectID, t.ClientID, t.Type, t.ExpiresAt)
	return err
}

func (r *shareTokenRepo) GetByToken(ctx context.Context, token string, docType models.DocumentType) (*models.ShareToken, error) {
	q := baseSelectShareToken() + " WHERE token = $1 AND type = $2"
	row := r.db.QueryRow(ctx, q, token, docType)
	return r.scanToken(row)
}

func (r *shareTokenRepo) GetUnexpiredByProjectAndType(ctx context.Context, projectID uuid.UUID, docType models.DocumentType, now time.Time) (*models.ShareToken, error) {
	q := baseSelectShareToken() + ` WHERE project_id = $1 AND type = $2 AND expires_at > $3
		ORDER BY expires_at DESC LIMIT 1`
	row := r.db.QueryRow(ctx, q, projectID, docType, now)
	return r.scanToken(row)
}

func (r *shareTokenRepo) DeleteByIDAndProject(ctx context.Context, id, projectID uuid.UUID) (bool, error) {
	// Scoping the delete to the project prevents cross-project revocation.
	tag, err := r.db.Exec(ctx, `DELETE FROM share_tokens WHERE id = $1 AND project_id = $2`, id, projectID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}
