package repositories

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v4"
	"github.com/quotemint/billing-service/internal/models"
)

// DunningScheduleRepository reads tenant reminder ladders. The billing
// core never writes schedules; the settings UI owns them.
type DunningScheduleRepository interface {
	ListActive(ctx context.Context) ([]*models.DunningSchedule, error)
}

type dunningScheduleRepo struct {
	db DB
}

func NewDunningScheduleRepository(db DB) DunningScheduleRepository {
	return &dunningScheduleRepo{db: db}
}

func (r *dunningScheduleRepo) ListActive(ctx context.Context) ([]*models.DunningSchedule, error) {
	q := `
		SELECT id, user_id, is_active, steps, created_at, updated_at
		FROM dunning_schedules
		WHERE is_active = TRUE
		ORDER BY created_at
	`
	rows, err := r.db.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var schedules []*models.DunningSchedule
	for rows.Next() {
		s, err := scanSchedule(rows)
		if err != nil {
			return nil, err
		}
		schedules = append(schedules, s)
	}
	return schedules, rows.Err()
}

func scanSchedule(row pgx.Row) (*models.DunningSchedule, error) {
	var s models.DunningSchedule
	var stepsRaw []byte
	err := row.Scan(&s.ID, &s.UserID, &s.IsActive, &stepsRaw, &s.CreatedAt, &s.UpdatedAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if len(stepsRaw) > 0 {
		if err := json.Unmarshal(stepsRaw, &s.Steps); err != nil {
			return nil, err
		}
	}
	return &s, nil
}
