package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sms-campaigns/backend/internal/models"
)

const sqlStateUniqueViolation = "23505"

// DBTX is satisfied by both *pgxpool.Pool and pgx.Tx, so every repo works
// inside or outside a transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PgStore implements Store on Postgres. Row locks are SELECT ... FOR UPDATE
// and ledger reference uniqueness is the ledger_entries_external_ref_key index.
type PgStore struct {
	pool      *pgxpool.Pool
	accounts  *AccountRepo
	ledger    *LedgerRepo
	campaigns *CampaignRepo
	reports   *ReportRepo
	audit     *AuditRepo
}

func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{
		pool:      pool,
		accounts:  NewAccountRepo(pool),
		ledger:    NewLedgerRepo(pool),
		campaigns: NewCampaignRepo(pool),
		reports:   NewReportRepo(pool),
		audit:     NewAuditRepo(pool),
	}
}

func (s *PgStore) WithTx(ctx context.Context, fn func(tx Tx) error) error {
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		return fn(&pgTx{
			accounts:  NewAccountRepo(tx),
			ledger:    NewLedgerRepo(tx),
			campaigns: NewCampaignRepo(tx),
			reports:   NewReportRepo(tx),
		})
	})
	return translateError(err)
}

func (s *PgStore) UpsertAccount(ctx context.Context, a *models.Account) error {
	return s.accounts.Upsert(ctx, a)
}

func (s *PgStore) GetAccount(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	return s.accounts.GetByID(ctx, id)
}

func (s *PgStore) ListEntries(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]models.LedgerEntry, error) {
	return s.ledger.ListByAccount(ctx, accountID, limit, offset)
}

func (s *PgStore) GetEntryByRef(ctx context.Context, ref string) (*models.LedgerEntry, error) {
	return s.ledger.GetByRef(ctx, ref)
}

func (s *PgStore) CreateCampaign(ctx context.Context, c *models.Campaign) error {
	return s.campaigns.Create(ctx, c)
}

func (s *PgStore) GetCampaign(ctx context.Context, id uuid.UUID) (*models.Campaign, error) {
	return s.campaigns.GetByID(ctx, id)
}

func (s *PgStore) ListCampaigns(ctx context.Context, f CampaignFilter) ([]models.Campaign, error) {
	return s.campaigns.List(ctx, f)
}

func (s *PgStore) GetReport(ctx context.Context, campaignID uuid.UUID) (*models.Report, error) {
	return s.reports.GetByCampaignID(ctx, campaignID)
}

func (s *PgStore) LogAudit(ctx context.Context, entry models.AuditLog) error {
	return s.audit.Log(ctx, entry)
}

func (s *PgStore) AuditByEntity(ctx context.Context, entityType string, entityID uuid.UUID, limit, offset int) ([]models.AuditLog, error) {
	return s.audit.ListByEntity(ctx, entityType, entityID, limit, offset)
}

type pgTx struct {
	accounts  *AccountRepo
	ledger    *LedgerRepo
	campaigns *CampaignRepo
	reports   *ReportRepo
}

func (t *pgTx) LockAccount(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	return t.accounts.LockByID(ctx, id)
}

func (t *pgTx) SetBalance(ctx context.Context, id uuid.UUID, balance int64) error {
	return t.accounts.SetBalance(ctx, id, balance)
}

func (t *pgTx) InsertEntry(ctx context.Context, e *models.LedgerEntry) error {
	return t.ledger.Insert(ctx, e)
}

func (t *pgTx) LockCampaign(ctx context.Context, id uuid.UUID) (*models.Campaign, error) {
	return t.campaigns.LockByID(ctx, id)
}

func (t *pgTx) UpdateCampaign(ctx context.Context, c *models.Campaign) error {
	return t.campaigns.Update(ctx, c)
}

func (t *pgTx) DeleteCampaign(ctx context.Context, id uuid.UUID) error {
	return t.campaigns.Delete(ctx, id)
}

func (t *pgTx) CreateReport(ctx context.Context, r *models.Report) error {
	return t.reports.Create(ctx, r)
}

func (t *pgTx) LockReport(ctx context.Context, campaignID uuid.UUID) (*models.Report, error) {
	return t.reports.LockByCampaignID(ctx, campaignID)
}

func (t *pgTx) UpdateReport(ctx context.Context, r *models.Report) error {
	return t.reports.Update(ctx, r)
}

// translateError maps driver errors onto the package sentinels. Anything else
// is returned unchanged.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == sqlStateUniqueViolation && pgErr.ConstraintName == "ledger_entries_external_ref_key" {
		return ErrDuplicateReference
	}
	return err
}

var _ Store = (*PgStore)(nil)
