package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/quotemint/billing-service/internal/models"
)

type ClientRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Client, error)
}

type clientRepo struct {
	db DB
}

func NewClientRepository(db DB) ClientRepository {
	return &clientRepo{db: db}
}

func (r *clientRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Client, error) {
	q := `SELECT id, user_id, name, email, created_at FROM clients WHERE id = $1`
	var c models.Client
	err := r.db.QueryRow(ctx, q, id).Scan(&c.ID, &c.UserID, &c.Name, &c.Email, &c.CreatedAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}
