package webhook

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sms-campaigns/backend/internal/clock"
)

const seenKeyPrefix = "webhook:seen:"

// SeenSet remembers recently handled references. It only short-circuits
// retries; the ledger's unique reference is what prevents double credit.
type SeenSet interface {
	Seen(ctx context.Context, ref string) (bool, error)
	Mark(ctx context.Context, ref string) error
}

type RedisSeen struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisSeen(client *redis.Client, ttl time.Duration) *RedisSeen {
	return &RedisSeen{client: client, ttl: ttl}
}

func (r *RedisSeen) Seen(ctx context.Context, ref string) (bool, error) {
	n, err := r.client.Exists(ctx, seenKeyPrefix+ref).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *RedisSeen) Mark(ctx context.Context, ref string) error {
	return r.client.SetNX(ctx, seenKeyPrefix+ref, 1, r.ttl).Err()
}

type MemorySeen struct {
	mu    sync.Mutex
	ttl   time.Duration
	clock clock.Clock
	refs  map[string]time.Time
}

func NewMemorySeen(ttl time.Duration, clk clock.Clock) *MemorySeen {
	if clk == nil {
		clk = clock.RealClock{}
	}
	return &MemorySeen{ttl: ttl, clock: clk, refs: make(map[string]time.Time)}
}

func (m *MemorySeen) Seen(_ context.Context, ref string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	exp, ok := m.refs[ref]
	if !ok {
		return false, nil
	}
	if !m.clock.Now().Before(exp) {
		delete(m.refs, ref)
		return false, nil
	}
	return true, nil
}

func (m *MemorySeen) Mark(_ context.Context, ref string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.clock.Now()
	m.refs[ref] = now.Add(m.ttl)

	if len(m.refs) > 10000 {
		for k, exp := range m.refs {
			if !now.Before(exp) {
				delete(m.refs, k)
			}
		}
	}
	return nil
}
