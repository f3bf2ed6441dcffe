package monitor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"habitat/internal/api"
	"habitat/internal/backend"
	"habitat/internal/environment"
	"habitat/internal/scaler"
	"habitat/pkg/logging"
)

// ScaleRequest is the monitor's auto-scaling hook. The orchestrator decides
// whether to act on it; the monitor only reports the wish.
type ScaleRequest func(id string, direction api.ScaleDirection, reason string)

// PolicySource resolves an environment's scaling policy: its parsed triggers
// and instance bounds. ok is false when the environment has no policy.
type PolicySource func(id string) (triggers []scaler.Trigger, min, max int, ok bool)

// Monitor owns the health workers. One worker exists per environment the
// orchestrator asked to watch; workers idle through transient SCALING and
// UPDATING phases and stop themselves when their environment is stopping,
// stopped, errored, or gone from the store.
type Monitor struct {
	mu       sync.Mutex
	store    environment.Store
	probes   *backend.Registry
	tick     time.Duration
	policyFn PolicySource
	scaleFn  ScaleRequest
	workers  map[string]context.CancelFunc
	wg       sync.WaitGroup
}

// New creates a monitor probing on the given interval. policyFn and scaleFn
// may be nil when auto-scaling is disabled entirely.
func New(store environment.Store, probes *backend.Registry, tick time.Duration, policyFn PolicySource, scaleFn ScaleRequest) *Monitor {
	return &Monitor{
		store:    store,
		probes:   probes,
		tick:     tick,
		policyFn: policyFn,
		scaleFn:  scaleFn,
		workers:  make(map[string]context.CancelFunc),
	}
}

// Watch starts a health worker for id. Watching an id twice is a no-op.
func (m *Monitor) Watch(ctx context.Context, id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.workers[id]; exists {
		return
	}
	workerCtx, cancel := context.WithCancel(ctx)
	m.workers[id] = cancel
	m.wg.Add(1)
	go m.run(workerCtx, id)
}

// Unwatch stops the worker for id, if any.
func (m *Monitor) Unwatch(id string) {
	m.mu.Lock()
	cancel, exists := m.workers[id]
	if exists {
		delete(m.workers, id)
	}
	m.mu.Unlock()

	if exists {
		cancel()
	}
}

// Watching reports whether id has a live worker.
func (m *Monitor) Watching(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, exists := m.workers[id]
	return exists
}

// Stop cancels every worker and waits for them to exit.
func (m *Monitor) Stop() {
	m.mu.Lock()
	for id, cancel := range m.workers {
		cancel()
		delete(m.workers, id)
	}
	m.mu.Unlock()
	m.wg.Wait()
}

// run is the per-environment worker loop.
func (m *Monitor) run(ctx context.Context, id string) {
	defer m.wg.Done()
	defer m.forget(id)
	defer m.recover(id)

	ticker := time.NewTicker(m.tick)
	defer ticker.Stop()

	logging.Debug("monitor", "Started health worker for %s", id)
	for {
		select {
		case <-ctx.Done():
			logging.Debug("monitor", "Health worker for %s cancelled", id)
			return
		case <-ticker.C:
			if !m.observe(ctx, id) {
				logging.Debug("monitor", "Health worker for %s done", id)
				return
			}
		}
	}
}

// observe runs one probe tick. It returns false when the worker should exit.
func (m *Monitor) observe(ctx context.Context, id string) bool {
	record, exists := m.store.Get(id)
	if !exists {
		return false
	}
	switch record.Status() {
	case api.StateReady:
	case api.StateScaling, api.StateUpdating:
		// Transient resize states; skip this tick, the record returns to
		// READY when the operation completes.
		return true
	default:
		return false
	}

	b, exists := m.probes.Get(record.Kind())
	if !exists {
		logging.Warn("monitor", "No backend for kind %s, stopping worker for %s", record.Kind(), id)
		return false
	}

	snapshot, err := b.ProbeHealth(ctx, record)
	if err != nil {
		// A failed probe degrades; it never escalates to a lifecycle error.
		snapshot = &api.HealthSnapshot{
			Status:    api.HealthUnhealthy,
			CheckedAt: time.Now().UTC(),
			Message:   err.Error(),
		}
	}
	record.SetHealth(snapshot)
	if snapshot.Active {
		record.Touch()
	}

	if m.scaleFn != nil && m.policyFn != nil && record.AutoScaling() && len(snapshot.Metrics) > 0 {
		m.evaluate(record, snapshot.Metrics)
	}
	return true
}

// evaluate runs the trigger set against the latest metrics and reports any
// resulting wish to the scaling hook.
func (m *Monitor) evaluate(record *environment.Record, metrics map[string]float64) {
	triggers, min, max, ok := m.policyFn(record.ID())
	if !ok {
		return
	}
	decision := scaler.Evaluate(triggers, metrics, record.Instances(), min, max)
	if decision == nil {
		return
	}
	logging.Info("monitor", "Auto-scale %s requested for %s: %s", decision.Direction, record.ID(), decision.Reason)
	m.scaleFn(record.ID(), decision.Direction, decision.Reason)
}

// forget drops the worker bookkeeping when the loop exits on its own.
func (m *Monitor) forget(id string) {
	m.mu.Lock()
	if cancel, exists := m.workers[id]; exists {
		delete(m.workers, id)
		cancel()
	}
	m.mu.Unlock()
}

// recover flips the record to ERROR if the worker panicked.
func (m *Monitor) recover(id string) {
	if r := recover(); r != nil {
		logging.Error("monitor", fmt.Errorf("%v", r), "Health worker for %s panicked", id)
		if record, exists := m.store.Get(id); exists {
			record.Fail(fmt.Errorf("health worker panicked: %v", r))
		}
	}
}
