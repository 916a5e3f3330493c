package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/sms-campaigns/backend/internal/models"
)

type AccountRepo struct {
	db DBTX
}

func NewAccountRepo(db DBTX) *AccountRepo {
	return &AccountRepo{db: db}
}

// Upsert creates the account on first sight and refreshes the email otherwise.
// The balance is never touched here.
func (r *AccountRepo) Upsert(ctx context.Context, a *models.Account) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO accounts (id, email)
		VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET
			email = COALESCE(NULLIF(EXCLUDED.email, ''), accounts.email)
		RETURNING email, balance, created_at, updated_at
	`, a.ID, a.Email).Scan(&a.Email, &a.Balance, &a.CreatedAt, &a.UpdatedAt)
	return translateError(err)
}

func (r *AccountRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	return r.get(ctx, `SELECT id, email, balance, created_at, updated_at FROM accounts WHERE id = $1`, id)
}

func (r *AccountRepo) LockByID(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	return r.get(ctx, `SELECT id, email, balance, created_at, updated_at FROM accounts WHERE id = $1 FOR UPDATE`, id)
}

func (r *AccountRepo) get(ctx context.Context, query string, id uuid.UUID) (*models.Account, error) {
	var a models.Account
	err := r.db.QueryRow(ctx, query, id).Scan(&a.ID, &a.Email, &a.Balance, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, translateError(err)
	}
	return &a, nil
}

func (r *AccountRepo) SetBalance(ctx context.Context, id uuid.UUID, balance int64) error {
	tag, err := r.db.Exec(ctx, `UPDATE accounts SET balance = $1, updated_at = now() WHERE id = $2`, balance, id)
	if err != nil {
		return translateError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
