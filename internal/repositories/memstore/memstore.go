// Package memstore is an in-memory repositories.Store used by tests and by
// local runs without POSTGRES_DSN. It mirrors the Postgres guarantees the
// services rely on: per-row exclusive locks held until the end of WithTx,
// buffered writes that only become visible on commit, a unique index on
// ledger external references, and a non-negative balance check.
package memstore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sms-campaigns/backend/internal/models"
	"github.com/sms-campaigns/backend/internal/repositories"
)

var errNegativeBalance = errors.New(`new row for relation "accounts" violates check constraint "accounts_balance_check"`)

type Store struct {
	mu        sync.Mutex
	accounts  map[uuid.UUID]models.Account
	entries   []models.LedgerEntry
	refs      map[string]int
	campaigns map[uuid.UUID]models.Campaign
	reports   map[uuid.UUID]models.Report // keyed by campaign id
	audit     []models.AuditLog
	locks     map[string]chan struct{}
	now       func() time.Time
}

func New() *Store {
	return &Store{
		accounts:  make(map[uuid.UUID]models.Account),
		refs:      make(map[string]int),
		campaigns: make(map[uuid.UUID]models.Campaign),
		reports:   make(map[uuid.UUID]models.Report),
		locks:     make(map[string]chan struct{}),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) rowLock(key string) chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[key]
	if !ok {
		l = make(chan struct{}, 1)
		s.locks[key] = l
	}
	return l
}

func (s *Store) WithTx(ctx context.Context, fn func(tx repositories.Tx) error) error {
	tx := &memTx{
		s:         s,
		held:      make(map[string]chan struct{}),
		accounts:  make(map[uuid.UUID]models.Account),
		campaigns: make(map[uuid.UUID]models.Campaign),
		deleted:   make(map[uuid.UUID]bool),
		reports:   make(map[uuid.UUID]models.Report),
		refs:      make(map[string]bool),
	}
	defer tx.release()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.commit()
}

func (s *Store) UpsertAccount(_ context.Context, a *models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.accounts[a.ID]
	if !ok {
		now := s.now()
		existing = models.Account{ID: a.ID, CreatedAt: now, UpdatedAt: now}
	}
	if a.Email != "" {
		existing.Email = a.Email
	}
	s.accounts[a.ID] = existing
	*a = existing
	return nil
}

func (s *Store) GetAccount(_ context.Context, id uuid.UUID) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &a, nil
}

func (s *Store) ListEntries(_ context.Context, accountID uuid.UUID, limit, offset int) ([]models.LedgerEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.LedgerEntry
	for i := len(s.entries) - 1; i >= 0; i-- {
		if s.entries[i].AccountID == accountID {
			out = append(out, s.entries[i])
		}
	}
	return page(out, limit, offset), nil
}

func (s *Store) GetEntryByRef(_ context.Context, ref string) (*models.LedgerEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.refs[ref]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	e := s.entries[i]
	return &e, nil
}

func (s *Store) CreateCampaign(_ context.Context, c *models.Campaign) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	now := s.now()
	c.CreatedAt, c.UpdatedAt = now, now
	s.campaigns[c.ID] = *c
	return nil
}

func (s *Store) GetCampaign(_ context.Context, id uuid.UUID) (*models.Campaign, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.campaigns[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &c, nil
}

func (s *Store) ListCampaigns(_ context.Context, f repositories.CampaignFilter) ([]models.Campaign, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.Campaign
	for _, c := range s.campaigns {
		if f.AccountID != nil && c.AccountID != *f.AccountID {
			continue
		}
		if f.Status != nil && c.Status != *f.Status {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return page(out, f.Limit, f.Offset), nil
}

func (s *Store) GetReport(_ context.Context, campaignID uuid.UUID) (*models.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reports[campaignID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &r, nil
}

func (s *Store) LogAudit(_ context.Context, entry models.AuditLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry.ID = uuid.New()
	entry.CreatedAt = s.now()
	s.audit = append(s.audit, entry)
	return nil
}

func (s *Store) AuditByEntity(_ context.Context, entityType string, entityID uuid.UUID, limit, offset int) ([]models.AuditLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.AuditLog
	for i := len(s.audit) - 1; i >= 0; i-- {
		l := s.audit[i]
		if l.EntityType == entityType && l.EntityID != nil && *l.EntityID == entityID {
			out = append(out, l)
		}
	}
	if limit <= 0 {
		limit = 50
	}
	return page(out, limit, offset), nil
}

func page[T any](items []T, limit, offset int) []T {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if len(items) > limit {
		items = items[:limit]
	}
	return items
}

type memTx struct {
	s    *Store
	held map[string]chan struct{}

	accounts  map[uuid.UUID]models.Account
	entries   []models.LedgerEntry
	refs      map[string]bool
	campaigns map[uuid.UUID]models.Campaign
	deleted   map[uuid.UUID]bool
	reports   map[uuid.UUID]models.Report
}

func (t *memTx) acquire(ctx context.Context, key string) error {
	if _, ok := t.held[key]; ok {
		return nil
	}
	l := t.s.rowLock(key)
	select {
	case l <- struct{}{}:
		t.held[key] = l
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *memTx) release() {
	for key, l := range t.held {
		<-l
		delete(t.held, key)
	}
}

func (t *memTx) account(id uuid.UUID) (models.Account, bool) {
	if a, ok := t.accounts[id]; ok {
		return a, true
	}
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	a, ok := t.s.accounts[id]
	return a, ok
}

func (t *memTx) LockAccount(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	if err := t.acquire(ctx, "account:"+id.String()); err != nil {
		return nil, err
	}
	a, ok := t.account(id)
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &a, nil
}

func (t *memTx) SetBalance(_ context.Context, id uuid.UUID, balance int64) error {
	a, ok := t.account(id)
	if !ok {
		return repositories.ErrNotFound
	}
	if balance < 0 {
		return errNegativeBalance
	}
	a.Balance = balance
	a.UpdatedAt = t.s.now()
	t.accounts[id] = a
	return nil
}

func (t *memTx) InsertEntry(_ context.Context, e *models.LedgerEntry) error {
	if e.ExternalRef != nil {
		ref := *e.ExternalRef
		t.s.mu.Lock()
		_, taken := t.s.refs[ref]
		t.s.mu.Unlock()
		if taken || t.refs[ref] {
			return repositories.ErrDuplicateReference
		}
		t.refs[ref] = true
	}
	e.ID = uuid.New()
	e.CreatedAt = t.s.now()
	t.entries = append(t.entries, *e)
	return nil
}

func (t *memTx) campaign(id uuid.UUID) (models.Campaign, bool) {
	if t.deleted[id] {
		return models.Campaign{}, false
	}
	if c, ok := t.campaigns[id]; ok {
		return c, true
	}
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	c, ok := t.s.campaigns[id]
	return c, ok
}

func (t *memTx) LockCampaign(ctx context.Context, id uuid.UUID) (*models.Campaign, error) {
	if err := t.acquire(ctx, "campaign:"+id.String()); err != nil {
		return nil, err
	}
	c, ok := t.campaign(id)
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &c, nil
}

func (t *memTx) UpdateCampaign(_ context.Context, c *models.Campaign) error {
	if _, ok := t.campaign(c.ID); !ok {
		return repositories.ErrNotFound
	}
	c.UpdatedAt = t.s.now()
	t.campaigns[c.ID] = *c
	return nil
}

func (t *memTx) DeleteCampaign(_ context.Context, id uuid.UUID) error {
	delete(t.campaigns, id)
	t.deleted[id] = true
	return nil
}

func (t *memTx) report(campaignID uuid.UUID) (models.Report, bool) {
	if r, ok := t.reports[campaignID]; ok {
		return r, true
	}
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	r, ok := t.s.reports[campaignID]
	return r, ok
}

func (t *memTx) CreateReport(_ context.Context, r *models.Report) error {
	if _, exists := t.report(r.CampaignID); exists {
		return fmt.Errorf("report for campaign %s already exists", r.CampaignID)
	}
	now := t.s.now()
	r.ID = uuid.New()
	r.CreatedAt, r.UpdatedAt = now, now
	t.reports[r.CampaignID] = *r
	return nil
}

func (t *memTx) LockReport(ctx context.Context, campaignID uuid.UUID) (*models.Report, error) {
	if err := t.acquire(ctx, "report:"+campaignID.String()); err != nil {
		return nil, err
	}
	r, ok := t.report(campaignID)
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &r, nil
}

func (t *memTx) UpdateReport(_ context.Context, r *models.Report) error {
	if _, ok := t.report(r.CampaignID); !ok {
		return repositories.ErrNotFound
	}
	r.UpdatedAt = t.s.now()
	t.reports[r.CampaignID] = *r
	return nil
}

func (t *memTx) commit() error {
	s := t.s
	s.mu.Lock()
	defer s.mu.Unlock()

	for ref := range t.refs {
		if _, taken := s.refs[ref]; taken {
			return repositories.ErrDuplicateReference
		}
	}

	for id, a := range t.accounts {
		s.accounts[id] = a
	}
	for _, e := range t.entries {
		s.entries = append(s.entries, e)
		if e.ExternalRef != nil {
			s.refs[*e.ExternalRef] = len(s.entries) - 1
		}
	}
	for id, c := range t.campaigns {
		s.campaigns[id] = c
	}
	for id := range t.deleted {
		delete(s.campaigns, id)
		delete(s.reports, id)
	}
	for id, r := range t.reports {
		if t.deleted[id] {
			continue
		}
		s.reports[id] = r
	}
	return nil
}

var _ repositories.Store = (*Store)(nil)
