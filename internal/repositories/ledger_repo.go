package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/sms-campaigns/backend/internal/models"
)

// LedgerRepo only ever inserts; ledger_entries rows are immutable and a
// trigger rejects UPDATE and DELETE.
type LedgerRepo struct {
	db DBTX
}

func NewLedgerRepo(db DBTX) *LedgerRepo {
	return &LedgerRepo{db: db}
}

func (r *LedgerRepo) Insert(ctx context.Context, e *models.LedgerEntry) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO ledger_entries (account_id, kind, amount, balance_after, description, external_ref)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`, e.AccountID, e.Kind, e.Amount, e.BalanceAfter, e.Description, e.ExternalRef,
	).Scan(&e.ID, &e.CreatedAt)
	return translateError(err)
}

func (r *LedgerRepo) GetByRef(ctx context.Context, ref string) (*models.LedgerEntry, error) {
	var e models.LedgerEntry
	err := r.db.QueryRow(ctx, `
		SELECT id, account_id, kind, amount, balance_after, description, external_ref, created_at
		FROM ledger_entries WHERE external_ref = $1
	`, ref).Scan(&e.ID, &e.AccountID, &e.Kind, &e.Amount, &e.BalanceAfter, &e.Description, &e.ExternalRef, &e.CreatedAt)
	if err != nil {
		return nil, translateError(err)
	}
	return &e, nil
}

func (r *LedgerRepo) ListByAccount(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]models.LedgerEntry, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, account_id, kind, amount, balance_after, description, external_ref, created_at
		FROM ledger_entries WHERE account_id = $1
		ORDER BY created_at DESC, id DESC LIMIT $2 OFFSET $3
	`, accountID, normalizeLimit(limit), offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.LedgerEntry
	for rows.Next() {
		var e models.LedgerEntry
		if err := rows.Scan(&e.ID, &e.AccountID, &e.Kind, &e.Amount, &e.BalanceAfter, &e.Description, &e.ExternalRef, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
