package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sms-campaigns/backend/internal/events"
	"github.com/sms-campaigns/backend/internal/metrics"
	"github.com/sms-campaigns/backend/internal/models"
	"github.com/sms-campaigns/backend/internal/repositories"
	"go.uber.org/zap"
)

// BalanceService is the only writer of account balances. Every mutation locks
// the account row, appends one ledger entry and stores the new balance in a
// single transaction.
type BalanceService struct {
	store     repositories.Store
	publisher events.Publisher
	metrics   *metrics.Metrics
	log       *zap.Logger
}

func NewBalanceService(
	store repositories.Store,
	publisher events.Publisher,
	m *metrics.Metrics,
	log *zap.Logger,
) *BalanceService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &BalanceService{
		store:     store,
		publisher: publisher,
		metrics:   m,
		log:       log,
	}
}

// LedgerResult is the entry written (or found, on replay) and the balance
// after it.
type LedgerResult struct {
	Entry   models.LedgerEntry `json:"entry"`
	Balance int64              `json:"balance"`
}

// OpenAccount creates the account on first authenticated use. Calling it again
// only refreshes the email.
func (s *BalanceService) OpenAccount(ctx context.Context, id uuid.UUID, email string) (*models.Account, error) {
	a := &models.Account{ID: id, Email: email}
	if err := s.store.UpsertAccount(ctx, a); err != nil {
		return nil, fmt.Errorf("open account: %w", err)
	}
	return a, nil
}

func (s *BalanceService) GetAccount(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	a, err := s.store.GetAccount(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrAccountNotFound
	}
	return a, err
}

// GetBalance is a point-in-time read. Do not use it to decide a later write;
// Debit checks the balance under the row lock.
func (s *BalanceService) GetBalance(ctx context.Context, id uuid.UUID) (int64, error) {
	a, err := s.GetAccount(ctx, id)
	if err != nil {
		return 0, err
	}
	return a.Balance, nil
}

func (s *BalanceService) History(ctx context.Context, id uuid.UUID, limit, offset int) ([]models.LedgerEntry, error) {
	if _, err := s.GetAccount(ctx, id); err != nil {
		return nil, err
	}
	return s.store.ListEntries(ctx, id, limit, offset)
}

// Credit adds amount to the balance as a charge entry tagged with ref. A
// second call with the same ref, sequential or concurrent, writes nothing and
// returns the original entry together with ErrAlreadyProcessed.
func (s *BalanceService) Credit(ctx context.Context, accountID uuid.UUID, amount int64, ref, description string) (*LedgerResult, error) {
	res, err := s.idempotent(ctx, "credit", models.EntryKindCharge, accountID, amount, ref, description)
	if err == nil {
		s.log.Info("balance credited",
			zap.String("account_id", accountID.String()),
			zap.Int64("amount", amount),
			zap.String("external_ref", ref),
			zap.Int64("balance", res.Balance),
		)
	}
	return res, err
}

// Refund returns money to the balance. Like Credit it is keyed by ref.
func (s *BalanceService) Refund(ctx context.Context, accountID uuid.UUID, amount int64, ref, description string) (*LedgerResult, error) {
	return s.idempotent(ctx, "refund", models.EntryKindRefund, accountID, amount, ref, description)
}

// Debit removes amount from the balance. It fails with ErrInsufficientFunds,
// writing nothing, when amount exceeds the balance at lock time.
func (s *BalanceService) Debit(ctx context.Context, accountID uuid.UUID, amount int64, description string) (*LedgerResult, error) {
	var res *LedgerResult
	err := s.store.WithTx(ctx, func(tx repositories.Tx) error {
		var err error
		res, err = s.DebitTx(ctx, tx, accountID, amount, "", description)
		return err
	})
	s.metrics.LedgerOp("debit", resultLabel(err))
	if err != nil {
		return nil, err
	}
	s.committed(ctx, res)
	return res, nil
}

// DebitTx is Debit inside a caller's transaction. ref may be empty. The caller
// publishes the change after commit with BalanceService.committed.
func (s *BalanceService) DebitTx(ctx context.Context, tx repositories.Tx, accountID uuid.UUID, amount int64, ref, description string) (*LedgerResult, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	return s.apply(ctx, tx, accountID, models.EntryKindUsage, -amount, ref, description)
}

// RefundTx is Refund inside a caller's transaction. A duplicate ref aborts the
// whole transaction.
func (s *BalanceService) RefundTx(ctx context.Context, tx repositories.Tx, accountID uuid.UUID, amount int64, ref, description string) (*LedgerResult, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if ref == "" {
		return nil, ErrMissingReference
	}
	return s.apply(ctx, tx, accountID, models.EntryKindRefund, amount, ref, description)
}

func (s *BalanceService) idempotent(ctx context.Context, op, kind string, accountID uuid.UUID, amount int64, ref, description string) (*LedgerResult, error) {
	if amount <= 0 {
		s.metrics.LedgerOp(op, resultLabel(ErrInvalidAmount))
		return nil, ErrInvalidAmount
	}
	if ref == "" {
		s.metrics.LedgerOp(op, resultLabel(ErrMissingReference))
		return nil, ErrMissingReference
	}

	var res *LedgerResult
	err := s.store.WithTx(ctx, func(tx repositories.Tx) error {
		var err error
		res, err = s.apply(ctx, tx, accountID, kind, amount, ref, description)
		return err
	})
	if errors.Is(err, repositories.ErrDuplicateReference) {
		res, err = s.replay(ctx, accountID, ref)
	}
	s.metrics.LedgerOp(op, resultLabel(err))
	if err != nil {
		return res, err
	}

	s.committed(ctx, res)
	return res, nil
}

// replay loads the entry that already owns ref. The returned error is
// ErrAlreadyProcessed unless the lookup itself fails.
func (s *BalanceService) replay(ctx context.Context, accountID uuid.UUID, ref string) (*LedgerResult, error) {
	entry, err := s.store.GetEntryByRef(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("load entry for %s: %w", ref, err)
	}
	if entry.AccountID != accountID {
		s.log.Warn("external reference already used by another account",
			zap.String("external_ref", ref),
			zap.String("account_id", accountID.String()),
			zap.String("owner_account_id", entry.AccountID.String()),
		)
	}
	balance, err := s.GetBalance(ctx, entry.AccountID)
	if err != nil {
		return nil, err
	}

	s.log.Info("ledger entry already processed",
		zap.String("external_ref", ref),
		zap.String("entry_id", entry.ID.String()),
	)
	return &LedgerResult{Entry: *entry, Balance: balance}, ErrAlreadyProcessed
}

func (s *BalanceService) apply(ctx context.Context, tx repositories.Tx, accountID uuid.UUID, kind string, delta int64, ref, description string) (*LedgerResult, error) {
	acct, err := tx.LockAccount(ctx, accountID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lock account: %w", err)
	}

	newBalance := acct.Balance + delta
	switch {
	case delta < 0 && newBalance < 0:
		return nil, ErrInsufficientFunds
	case delta > 0 && newBalance < acct.Balance:
		return nil, ErrInvalidAmount
	}

	entry := models.LedgerEntry{
		AccountID:    accountID,
		Kind:         kind,
		Amount:       delta,
		BalanceAfter: newBalance,
		Description:  description,
	}
	if ref != "" {
		entry.ExternalRef = &ref
	}
	if err := tx.InsertEntry(ctx, &entry); err != nil {
		if errors.Is(err, repositories.ErrDuplicateReference) {
			return nil, err
		}
		return nil, fmt.Errorf("insert ledger entry: %w", err)
	}
	if err := tx.SetBalance(ctx, accountID, newBalance); err != nil {
		return nil, fmt.Errorf("update balance: %w", err)
	}

	return &LedgerResult{Entry: entry, Balance: newBalance}, nil
}

// committed records metrics and publishes a balance change for a write that
// has been committed.
func (s *BalanceService) committed(ctx context.Context, res *LedgerResult) {
	if res == nil {
		return
	}
	amount := res.Entry.Amount
	if amount < 0 {
		amount = -amount
	}
	s.metrics.LedgerAmount(res.Entry.Kind, amount)

	payload := map[string]any{
		"entry_id": res.Entry.ID.String(),
		"kind":     res.Entry.Kind,
		"amount":   res.Entry.Amount,
		"balance":  res.Balance,
	}
	if res.Entry.ExternalRef != nil {
		payload["external_ref"] = *res.Entry.ExternalRef
	}
	_ = s.publisher.Publish(ctx, events.StreamAccounts, events.Event{
		Type:      events.EventBalanceChanged,
		AccountID: res.Entry.AccountID.String(),
		Payload:   payload,
	})
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrAlreadyProcessed):
		return "already_processed"
	case errors.Is(err, ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, ErrAccountNotFound), errors.Is(err, ErrCampaignNotFound):
		return "not_found"
	case errors.Is(err, ErrInvalidAmount), errors.Is(err, ErrMissingReference):
		return "invalid"
	case errors.Is(err, ErrInvalidTransition):
		return "invalid_transition"
	case errors.Is(err, ErrTemplateNotApproved):
		return "template_not_approved"
	default:
		return "error"
	}
}
