package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/sms-campaigns/backend/internal/models"
)

var (
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateReference is returned when a ledger entry reuses an
	// external reference that is already recorded.
	ErrDuplicateReference = errors.New("duplicate external reference")
)

// Store is the durable side of the ledger and campaign lifecycle. Reads are
// point-in-time; every balance or status mutation goes through WithTx.
type Store interface {
	// WithTx runs fn in a single transaction. The transaction commits when fn
	// returns nil and rolls back otherwise; row locks taken through Tx are held
	// until then.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	UpsertAccount(ctx context.Context, a *models.Account) error
	GetAccount(ctx context.Context, id uuid.UUID) (*models.Account, error)
	ListEntries(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]models.LedgerEntry, error)
	GetEntryByRef(ctx context.Context, ref string) (*models.LedgerEntry, error)

	CreateCampaign(ctx context.Context, c *models.Campaign) error
	GetCampaign(ctx context.Context, id uuid.UUID) (*models.Campaign, error)
	ListCampaigns(ctx context.Context, f CampaignFilter) ([]models.Campaign, error)
	GetReport(ctx context.Context, campaignID uuid.UUID) (*models.Report, error)

	LogAudit(ctx context.Context, entry models.AuditLog) error
	AuditByEntity(ctx context.Context, entityType string, entityID uuid.UUID, limit, offset int) ([]models.AuditLog, error)
}

// Tx is the write surface available inside Store.WithTx.
type Tx interface {
	// LockAccount reads the account row and holds an exclusive lock on it.
	LockAccount(ctx context.Context, id uuid.UUID) (*models.Account, error)
	SetBalance(ctx context.Context, id uuid.UUID, balance int64) error
	// InsertEntry returns ErrDuplicateReference when e.ExternalRef is taken.
	InsertEntry(ctx context.Context, e *models.LedgerEntry) error

	LockCampaign(ctx context.Context, id uuid.UUID) (*models.Campaign, error)
	UpdateCampaign(ctx context.Context, c *models.Campaign) error
	DeleteCampaign(ctx context.Context, id uuid.UUID) error

	CreateReport(ctx context.Context, r *models.Report) error
	LockReport(ctx context.Context, campaignID uuid.UUID) (*models.Report, error)
	UpdateReport(ctx context.Context, r *models.Report) error
}

type CampaignFilter struct {
	AccountID *uuid.UUID
	Status    *models.CampaignStatus
	Limit     int
	Offset    int
}

func normalizeLimit(limit int) int {
	if limit <= 0 || limit > 100 {
		return 20
	}
	return limit
}
