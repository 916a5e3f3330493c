// Package scheduler holds deferred campaign completions. A job is a campaign
// id and a due time; Claim hands each due job to exactly one caller, so several
// worker processes can poll the same schedule.
package scheduler

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Scheduler interface {
	// Schedule adds the job or moves an existing one to the new due time.
	Schedule(ctx context.Context, campaignID uuid.UUID, due time.Time) error
	// Claim removes and returns up to limit jobs due at or before now.
	Claim(ctx context.Context, now time.Time, limit int) ([]uuid.UUID, error)
	Pending(ctx context.Context) (int64, error)
}
