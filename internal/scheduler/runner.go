package scheduler

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sms-campaigns/backend/internal/clock"
	"github.com/sms-campaigns/backend/internal/metrics"
	"go.uber.org/zap"
)

// CompleteFunc completes one campaign. It must be a no-op for a campaign that
// is no longer running.
type CompleteFunc func(ctx context.Context, campaignID uuid.UUID) error

// Runner claims due completion jobs and runs them. A failed job is put back
// with a retry delay.
type Runner struct {
	sched    Scheduler
	complete CompleteFunc
	clock    clock.Clock
	retry    time.Duration
	batch    int
	metrics  *metrics.Metrics
	log      *zap.Logger
}

func NewRunner(sched Scheduler, complete CompleteFunc, clk clock.Clock, retry time.Duration, m *metrics.Metrics, log *zap.Logger) *Runner {
	if clk == nil {
		clk = clock.RealClock{}
	}
	if retry <= 0 {
		retry = time.Minute
	}
	return &Runner{
		sched:    sched,
		complete: complete,
		clock:    clk,
		retry:    retry,
		batch:    100,
		metrics:  m,
		log:      log,
	}
}

// RunOnce processes every job due now and returns how many succeeded. Jobs
// claimed before a Claim error are still run; the error is returned after.
func (r *Runner) RunOnce(ctx context.Context) (int, error) {
	now := r.clock.Now()
	ids, claimErr := r.sched.Claim(ctx, now, r.batch)

	done := 0
	for _, id := range ids {
		if err := r.complete(ctx, id); err != nil {
			r.metrics.CompletionJob("failed")
			r.log.Error("campaign completion failed, retrying later",
				zap.String("campaign_id", id.String()),
				zap.Error(err),
			)
			if err := r.sched.Schedule(ctx, id, now.Add(r.retry)); err != nil {
				r.log.Error("failed to reschedule completion", zap.String("campaign_id", id.String()), zap.Error(err))
			}
			continue
		}
		r.metrics.CompletionJob("completed")
		done++
	}

	if pending, err := r.sched.Pending(ctx); err == nil {
		r.metrics.CompletionsPending(pending)
	}
	return done, claimErr
}

// SweepFunc completes running campaigns whose job never fired, for example
// because the schedule was lost on restart.
type SweepFunc func(ctx context.Context) (int, error)

// Loop runs due jobs every poll interval and sweep every sweepEvery until ctx
// is done. A nil sweep is skipped.
func (r *Runner) Loop(ctx context.Context, poll time.Duration, sweep SweepFunc, sweepEvery time.Duration) {
	pollTicker := time.NewTicker(poll)
	defer pollTicker.Stop()

	var sweepC <-chan time.Time
	if sweep != nil && sweepEvery > 0 {
		sweepTicker := time.NewTicker(sweepEvery)
		defer sweepTicker.Stop()
		sweepC = sweepTicker.C
	}

	for {
		select {
		case <-pollTicker.C:
			done, err := r.RunOnce(ctx)
			if err != nil {
				r.log.Error("failed to claim completion jobs", zap.Error(err))
			}
			if done > 0 {
				r.log.Info("campaigns completed", zap.Int("count", done))
			}
		case <-sweepC:
			done, err := sweep(ctx)
			if err != nil {
				r.log.Error("overdue completion sweep failed", zap.Error(err))
			}
			if done > 0 {
				r.log.Warn("completed overdue campaigns without a scheduled job", zap.Int("count", done))
			}
		case <-ctx.Done():
			return
		}
	}
}
