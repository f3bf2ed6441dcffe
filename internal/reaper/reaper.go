package reaper

import (
	"context"
	"time"

	"habitat/internal/api"
	"habitat/internal/environment"
	"habitat/pkg/logging"
)

// Deleter force-deletes one environment. The orchestrator supplies this so
// reclamation goes through the same teardown path as a user delete.
type Deleter func(ctx context.Context, id string) error

// Reaper periodically sweeps the store for stale records.
type Reaper struct {
	store    environment.Store
	interval time.Duration
	ttl      time.Duration
	deleteFn Deleter
}

// New creates a reaper sweeping every interval, reclaiming records idle
// longer than ttl.
func New(store environment.Store, interval, ttl time.Duration, deleteFn Deleter) *Reaper {
	return &Reaper{
		store:    store,
		interval: interval,
		ttl:      ttl,
		deleteFn: deleteFn,
	}
}

// Run sweeps on the reaper's interval until ctx is cancelled.
func (r *Reaper) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	logging.Info("reaper", "Sweeping every %s, TTL %s", r.interval, r.ttl)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sweep(ctx)
		}
	}
}

// Sweep reclaims every stale non-READY record and returns the reclaimed ids.
func (r *Reaper) Sweep(ctx context.Context) []string {
	cutoff := time.Now().Add(-r.ttl)

	var reclaimed []string
	for _, record := range r.store.List() {
		if record.Status() == api.StateReady {
			continue
		}
		if record.LastAccessed().After(cutoff) {
			continue
		}

		id := record.ID()
		if err := r.deleteFn(ctx, id); err != nil {
			logging.Warn("reaper", "Failed to reclaim %s: %v", id, err)
			continue
		}
		logging.Info("reaper", "Reclaimed %s (idle since %s, state %s)",
			id, record.LastAccessed().Format(time.RFC3339), record.Status())
		reclaimed = append(reclaimed, id)
	}
	return reclaimed
}
