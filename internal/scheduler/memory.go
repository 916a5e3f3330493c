package scheduler

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Memory is a process-local Scheduler. Jobs are lost on restart; the worker's
// overdue sweep picks such campaigns up again.
type Memory struct {
	mu   sync.Mutex
	jobs map[uuid.UUID]time.Time
}

func NewMemory() *Memory {
	return &Memory{jobs: make(map[uuid.UUID]time.Time)}
}

func (m *Memory) Schedule(_ context.Context, campaignID uuid.UUID, due time.Time) error {
	m.mu.Lock()
	m.jobs[campaignID] = due
	m.mu.Unlock()
	return nil
}

func (m *Memory) Claim(_ context.Context, now time.Time, limit int) ([]uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	type job struct {
		id  uuid.UUID
		due time.Time
	}
	var due []job
	for id, at := range m.jobs {
		if !at.After(now) {
			due = append(due, job{id, at})
		}
	}
	sort.Slice(due, func(i, j int) bool { return due[i].due.Before(due[j].due) })
	if limit > 0 && len(due) > limit {
		due = due[:limit]
	}

	ids := make([]uuid.UUID, 0, len(due))
	for _, j := range due {
		delete(m.jobs, j.id)
		ids = append(ids, j.id)
	}
	return ids, nil
}

func (m *Memory) Pending(context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.jobs)), nil
}
