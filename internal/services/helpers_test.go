package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sms-campaigns/backend/internal/clock"
	"github.com/sms-campaigns/backend/internal/config"
	"github.com/sms-campaigns/backend/internal/events"
	"github.com/sms-campaigns/backend/internal/metrics"
	"github.com/sms-campaigns/backend/internal/models"
	"github.com/sms-campaigns/backend/internal/repositories/memstore"
	"github.com/sms-campaigns/backend/internal/scheduler"
	"go.uber.org/zap"
)

type fakeTemplates struct {
	mu       sync.Mutex
	approved map[uuid.UUID]bool
}

func (f *fakeTemplates) IsApproved(_ context.Context, _, templateID uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.approved[templateID], nil
}

type fakeGateway struct {
	mu         sync.Mutex
	registered int
	stats      *DeliveryStats
	statsErr   error
}

func (f *fakeGateway) RegisterCampaign(_ context.Context, c *models.Campaign) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.registered++
	return "gw-" + c.ID.String(), nil
}

func (f *fakeGateway) DeliveryStats(context.Context, string) (*DeliveryStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.statsErr != nil {
		return nil, f.statsErr
	}
	if f.stats == nil {
		return nil, errors.New("no stats")
	}
	st := *f.stats
	return &st, nil
}

type testEnv struct {
	store     *memstore.Store
	balance   *BalanceService
	campaigns *CampaignService
	templates *fakeTemplates
	gateway   *fakeGateway
	sched     *scheduler.Memory
	clock     *clock.Fixed
	bus       *events.MemoryBus
	cfg       *config.Config

	account    uuid.UUID
	reviewer   uuid.UUID
	templateID uuid.UUID
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		store:      memstore.New(),
		templates:  &fakeTemplates{approved: map[uuid.UUID]bool{}},
		gateway:    &fakeGateway{},
		sched:      scheduler.NewMemory(),
		clock:      clock.NewFixed(time.Now()),
		bus:        events.NewMemoryBus(),
		account:    uuid.New(),
		reviewer:   uuid.New(),
		templateID: uuid.New(),
		cfg: &config.Config{
			CostSMS:         50,
			CostMMS:         120,
			CostRCS:         80,
			CompletionDelay: 5 * time.Minute,
		},
	}
	env.templates.approved[env.templateID] = true

	log := zap.NewNop()
	m := metrics.New()
	env.balance = NewBalanceService(env.store, env.bus, m, log)
	env.campaigns = NewCampaignService(env.store, env.balance, env.templates, env.gateway, env.sched, env.bus, m, env.clock, env.cfg, log)

	if _, err := env.balance.OpenAccount(context.Background(), env.account, "owner@example.com"); err != nil {
		t.Fatalf("open account: %v", err)
	}
	return env
}

func (e *testEnv) fund(t *testing.T, amount int64) {
	t.Helper()
	if _, err := e.balance.Credit(context.Background(), e.account, amount, "seed-"+uuid.NewString(), "seed"); err != nil {
		t.Fatalf("fund: %v", err)
	}
}

func (e *testEnv) balanceOf(t *testing.T) int64 {
	t.Helper()
	b, err := e.balance.GetBalance(context.Background(), e.account)
	if err != nil {
		t.Fatalf("get balance: %v", err)
	}
	return b
}

func (e *testEnv) entries(t *testing.T) []models.LedgerEntry {
	t.Helper()
	entries, err := e.store.ListEntries(context.Background(), e.account, 100, 0)
	if err != nil {
		t.Fatalf("list entries: %v", err)
	}
	return entries
}

// seed stores a 100-recipient SMS campaign directly in the given status.
func (e *testEnv) seed(t *testing.T, status models.CampaignStatus, mutate ...func(*models.Campaign)) *models.Campaign {
	t.Helper()
	c := &models.Campaign{
		AccountID:      e.account,
		TemplateID:     e.templateID,
		Title:          "spring sale",
		MessageType:    models.MessageTypeSMS,
		Status:         status,
		TargetCount:    100,
		CostPerMessage: 50,
		Budget:         5000,
	}
	for _, fn := range mutate {
		fn(c)
	}
	if err := e.store.CreateCampaign(context.Background(), c); err != nil {
		t.Fatalf("seed campaign: %v", err)
	}
	return c
}

func (e *testEnv) statusOf(t *testing.T, id uuid.UUID) models.CampaignStatus {
	t.Helper()
	c, err := e.store.GetCampaign(context.Background(), id)
	if err != nil {
		t.Fatalf("get campaign: %v", err)
	}
	return c.Status
}

// approved walks a new campaign through create, submit and approve.
func (e *testEnv) approved(t *testing.T) *models.Campaign {
	t.Helper()
	ctx := context.Background()
	c, err := e.campaigns.Create(ctx, e.account, CampaignInput{
		TemplateID:  e.templateID,
		Title:       "spring sale",
		MessageType: models.MessageTypeSMS,
		TargetCount: 100,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := e.campaigns.Submit(ctx, c.ID, e.account); err != nil {
		t.Fatalf("submit: %v", err)
	}
	c, err = e.campaigns.Approve(ctx, c.ID, e.reviewer)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	return c
}
