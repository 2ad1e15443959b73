package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/quotemint/billing-service/internal/models"
)

// ReminderLogRepository is the dunning idempotency log. Insert is an
// atomic insert-or-skip on the (project_id, reminder_type) unique
// constraint, so two overlapping sweeps cannot both record a send.
type ReminderLogRepository interface {
	Exists(ctx context.Context, projectID uuid.UUID, reminderType models.ReminderTemplate) (bool, error)
	Insert(ctx context.Context, log *models.ReminderLog) (inserted bool, err error)
}

type reminderLogRepo struct {
	db DB
}

func NewReminderLogRepository(db DB) ReminderLogRepository {
	return &reminderLogRepo{db: db}
}

func (r *reminderLogRepo) Exists(ctx context.Context, projectID uuid.UUID, reminderType models.ReminderTemplate) (bool, error) {
	var exists bool
	q := `SELECT EXISTS (SELECT 1 FROM reminder_logs WHERE project_id = $1 AND reminder_type = $2)`
	if err := r.db.QueryRow(ctx, q, projectID, reminderType).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *reminderLogRepo) Insert(ctx context.Context, log *models.ReminderLog) (bool, error) {
	q := `
		INSERT INTO reminder_logs (id, project_id, reminder_type, sent_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (project_id, reminder_type) DO NOTHING
	`
	tag, err := r.db.Exec(ctx, q, log.ID, log.ProjectID, log.ReminderType, log.SentAt)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}
