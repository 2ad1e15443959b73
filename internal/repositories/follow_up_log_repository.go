package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/quotemint/billing-service/internal/models"
)

// FollowUpLogRepository is the follow-up idempotency log, keyed by
// (project_id, type) with the same insert-or-skip contract as the
// reminder log.
type FollowUpLogRepository interface {
	Exists(ctx context.Context, projectID uuid.UUID, followUpType models.FollowUpType) (bool, error)
	Insert(ctx context.Context, log *models.FollowUpLog) (inserted bool, err error)
}

type followUpLogRepo struct {
	db DB
}

func NewFollowUpLogRepository(db DB) FollowUpLogRepository {
	return &followUpLogRepo{db: db}
}

func (r *followUpLogRepo) Exists(ctx context.Context, projectID uuid.UUID, followUpType models.FollowUpType) (bool, error) {
	var exists bool
	q := `SELECT EXISTS (SELECT 1 FROM follow_up_logs WHERE project_id = $1 AND type = $2)`
	if err := r.db.QueryRow(ctx, q, projectID, followUpType).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *followUpLogRepo) Insert(ctx context.Context, log *models.FollowUpLog) (bool, error) {
	q := `
		INSERT INTO follow_up_logs (id, project_id, type, client_id, sent_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (project_id, type) DO NOTHING
	`
	tag, err := r.db.Exec(ctx, q, log.ID, log.ProjectID, log.Type, log.ClientID, log.SentAt)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}
