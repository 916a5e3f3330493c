package scheduler

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const DefaultKey = "scheduler:campaign_completion"

// Redis keeps jobs in a sorted set scored by due unix time. The set survives
// restarts of the process that scheduled the job.
type Redis struct {
	client *redis.Client
	key    string
	log    *zap.Logger
}

func NewRedis(client *redis.Client, key string, log *zap.Logger) *Redis {
	if key == "" {
		key = DefaultKey
	}
	return &Redis{client: client, key: key, log: log}
}

func (r *Redis) Schedule(ctx context.Context, campaignID uuid.UUID, due time.Time) error {
	return r.client.ZAdd(ctx, r.key, redis.Z{
		Score:  float64(due.Unix()),
		Member: campaignID.String(),
	}).Err()
}

func (r *Redis) Claim(ctx context.Context, now time.Time, limit int) ([]uuid.UUID, error) {
	members, err := r.client.ZRangeByScore(ctx, r.key, &redis.ZRangeBy{
		Min:   "-inf",
		Max:   strconv.FormatInt(now.Unix(), 10),
		Count: int64(limit),
	}).Result()
	if err != nil {
		return nil, err
	}

	var claimed []uuid.UUID
	for _, m := range members {
		// ZREM succeeds for one caller only.
		n, err := r.client.ZRem(ctx, r.key, m).Result()
		if err != nil {
			return claimed, err
		}
		if n == 0 {
			continue
		}
		id, err := uuid.Parse(m)
		if err != nil {
			r.log.Warn("dropping malformed completion job", zap.String("member", m))
			continue
		}
		claimed = append(claimed, id)
	}
	return claimed, nil
}

func (r *Redis) Pending(ctx context.Context) (int64, error) {
	return r.client.ZCard(ctx, r.key).Result()
}
