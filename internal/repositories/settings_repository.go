package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/quotemint/billing-service/internal/models"
)

// SettingsRepository reads tenant settings and writes the connected
// account fields the Stripe flows own.
type SettingsRepository interface {
	GetByUserID(ctx context.Context, userID uuid.UUID) (*models.Settings, error)
	GetByStripeAccountID(ctx context.Context, accountID string) (*models.Settings, error)
	SetStripeAccount(ctx context.Context, userID uuid.UUID, accountID string, status models.ConnectAccountStatusType) error
	SetStripeAccountStatus(ctx context.Context, accountID string, status models.ConnectAccountStatusType) error
}

type settingsRepo struct {
	db DB
}

func NewSettingsRepository(db DB) SettingsRepository {
	return &settingsRepo{db: db}
}

func baseSelectSettings() string {
	return `
		SELECT user_id, company_name, reply_to_email,
		       stripe_account_id, stripe_account_status,
		       created_at, updated_at
		FROM settings
	`
}

func scanSettings(row pgx.Row) (*models.Settings, error) {
	var s models.Settings
	err := row.Scan(&s.UserID, &s.CompanyName, &s.ReplyToEmail,
		&s.StripeAccountID, &s.StripeAccountStatus,
		&s.CreatedAt, &s.UpdatedAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *settingsRepo) GetByUserID(ctx context.Context, userID uuid.UUID) (*models.Settings, error) {
	row := r.db.QueryRow(ctx, baseSelectSettings()+" WHERE user_id = $1", userID)
	return scanSettings(row)
}

func (r *settingsRepo) GetByStripeAccountID(ctx context.Context, accountID string) (*models.Settings, error) {
	row := r.db.QueryRow(ctx, baseSelectSettings()+" WHERE stripe_account_id = $1", accountID)
	return scanSettings(row)
}

func (r *settingsRepo) SetStripeAccount(ctx context.Context, userID uuid.UUID, accountID string, status models.ConnectAccountStatusType) error {
	q := `
		UPDATE settings
		SET stripe_account_id = $1, stripe_account_status = $2, updated_at = NOW()
		WHERE user_id = $3
	`
	_, err := r.db.Exec(ctx, q, accountID, status, userID)
	return err
}

func (r *settingsRepo) SetStripeAccountStatus(ctx context.Context, accountID string, status models.ConnectAccountStatusType) error {
	q := `
		UPDATE settings
		SET stripe_account_status = $1, updated_at = NOW()
		WHERE stripe_account_id = $2
	`
	_, err := r.db.Exec(ctx, q, status, accountID)
	return err
}
