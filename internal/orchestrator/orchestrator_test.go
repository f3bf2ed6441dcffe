package orchestrator

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"habitat/internal/api"
	"habitat/internal/backend"
	"habitat/internal/catalog"
	"habitat/internal/config"
	"habitat/internal/environment"
)

type fixture struct {
	orch  *Orchestrator
	store environment.Store
	fake  *backend.Fake
	cfg   *config.Config
}

func newFixture(t *testing.T, mutate func(*config.Config)) *fixture {
	t.Helper()

	defaults := config.DefaultConfig()
	cfg := &defaults
	cfg.Provision.Timeout = 2 * time.Second
	cfg.Monitor.Interval = 20 * time.Millisecond
	if mutate != nil {
		mutate(cfg)
	}

	store := environment.NewMemoryStore()
	cat := catalog.NewRegistry(nil)

	fake := backend.NewFake(api.KindContainer)
	// Neutral metrics: warm enough to block auto-scale-down, cool enough to
	// never trigger a scale-up.
	fake.HealthFn = func(*environment.Record) *api.HealthSnapshot {
		return &api.HealthSnapshot{
			Status:    api.HealthHealthy,
			Active:    true,
			Metrics:   map[string]float64{"cpu_usage": 60, "memory_usage": 60},
			CheckedAt: time.Now(),
		}
	}
	backends := backend.NewRegistry()
	require.NoError(t, backends.Register(fake))
	require.NoError(t, backends.Register(backend.NewFake(api.KindSandboxShell)))
	require.NoError(t, backends.Register(backend.NewFake(api.KindCloud)))
	require.NoError(t, backends.Register(backend.NewFake(api.KindHybrid)))

	orch := New(store, cat, backends, cfg)
	t.Cleanup(orch.Close)
	return &fixture{orch: orch, store: store, fake: fake, cfg: cfg}
}

func createReady(t *testing.T, f *fixture, owner string) string {
	t.Helper()
	id, err := f.orch.CreateEnvironment(api.CreateEnvironmentRequest{
		TemplateID: "web-development",
		Owner:      owner,
	})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	info, err := f.orch.WaitReady(ctx, id)
	require.NoError(t, err)
	require.Equal(t, api.StateReady, info.Status)
	return id
}

func TestCreateReturnsImmediatelyThenProvisions(t *testing.T) {
	f := newFixture(t, nil)
	f.fake.ProvisionDelay = 100 * time.Millisecond

	id, err := f.orch.CreateEnvironment(api.CreateEnvironmentRequest{
		TemplateID: "web-development",
		Owner:      "alice",
	})
	require.NoError(t, err)

	info, err := f.orch.GetEnvironment(id)
	require.NoError(t, err)
	assert.Contains(t, []api.EnvironmentState{api.StatePending, api.StateProvisioning}, info.Status)
	assert.Empty(t, info.Endpoints)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	info, err = f.orch.WaitReady(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, api.StateReady, info.Status)
	assert.NotEmpty(t, info.Endpoints)
	assert.Equal(t, "Web Development", info.Metadata["template_name"])
}

func TestCreateUnknownTemplate(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.orch.CreateEnvironment(api.CreateEnvironmentRequest{
		TemplateID: "no-such",
		Owner:      "alice",
	})
	require.Error(t, err)
	assert.True(t, api.IsNotFound(err))
}

func TestCreateRequiresOwner(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.orch.CreateEnvironment(api.CreateEnvironmentRequest{TemplateID: "web-development"})
	assert.Error(t, err)
}

func TestCreateMergesCallerConfig(t *testing.T) {
	f := newFixture(t, nil)

	id, err := f.orch.CreateEnvironment(api.CreateEnvironmentRequest{
		TemplateID: "web-development",
		Owner:      "alice",
		Config:     map[string]interface{}{"base_image": "node:22-bookworm"},
	})
	require.NoError(t, err)

	info, err := f.orch.GetEnvironment(id)
	require.NoError(t, err)
	// Caller override wins; untouched base keys survive.
	assert.Equal(t, "node:22-bookworm", info.Config["base_image"])
	assert.NotNil(t, info.Config["additional_packages"])
}

func TestQuotaPerOwnerRejection(t *testing.T) {
	f := newFixture(t, func(cfg *config.Config) {
		cfg.Limits.MaxEnvironmentsPerOwner = 2
	})

	for i := 0; i < 2; i++ {
		_, err := f.orch.CreateEnvironment(api.CreateEnvironmentRequest{
			TemplateID: "web-development",
			Owner:      "alice",
		})
		require.NoError(t, err)
	}

	_, err := f.orch.CreateEnvironment(api.CreateEnvironmentRequest{
		TemplateID: "web-development",
		Owner:      "alice",
	})
	require.Error(t, err)
	require.True(t, api.IsQuotaExceeded(err))

	var quotaErr *api.QuotaExceededError
	require.ErrorAs(t, err, &quotaErr)
	assert.Equal(t, "max_environments_per_owner", quotaErr.Limit)

	// Other owners are unaffected.
	_, err = f.orch.CreateEnvironment(api.CreateEnvironmentRequest{
		TemplateID: "web-development",
		Owner:      "bob",
	})
	assert.NoError(t, err)
}

func TestProvisionFailureEndsInError(t *testing.T) {
	f := newFixture(t, nil)
	f.fake.ProvisionErr = errors.New("image pull failed")

	id, err := f.orch.CreateEnvironment(api.CreateEnvironmentRequest{
		TemplateID: "web-development",
		Owner:      "alice",
	})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	info, err := f.orch.WaitReady(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, api.StateError, info.Status)
	assert.Contains(t, info.Metadata["last_error"], "image pull failed")
	assert.Empty(t, info.Endpoints)
}

func TestProvisionTimeout(t *testing.T) {
	f := newFixture(t, func(cfg *config.Config) {
		cfg.Provision.Timeout = 50 * time.Millisecond
	})
	f.fake.ProvisionDelay = time.Minute

	id, err := f.orch.CreateEnvironment(api.CreateEnvironmentRequest{
		TemplateID: "web-development",
		Owner:      "alice",
	})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	info, err := f.orch.WaitReady(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, api.StateError, info.Status)

	record, exists := f.store.Get(id)
	require.True(t, exists)
	assert.ErrorIs(t, record.LastError(), api.ErrProvisionTimeout)
}

func TestStopIsReadyOnlyAndIdempotent(t *testing.T) {
	f := newFixture(t, nil)
	id := createReady(t, f, "alice")

	ctx := context.Background()
	require.NoError(t, f.orch.StopEnvironment(ctx, id))

	info, err := f.orch.GetEnvironment(id)
	require.NoError(t, err)
	assert.Equal(t, api.StateStopped, info.Status)
	assert.Equal(t, int64(1), f.fake.Terminates())

	// Stopping again is a no-op, not an error.
	require.NoError(t, f.orch.StopEnvironment(ctx, id))
	assert.Equal(t, int64(1), f.fake.Terminates())
}

func TestStopRejectsNonReady(t *testing.T) {
	f := newFixture(t, nil)
	f.fake.ProvisionDelay = time.Minute

	id, err := f.orch.CreateEnvironment(api.CreateEnvironmentRequest{
		TemplateID: "web-development",
		Owner:      "alice",
	})
	require.NoError(t, err)

	err = f.orch.StopEnvironment(context.Background(), id)
	require.Error(t, err)
	assert.True(t, api.IsInvalidState(err))
}

func TestDeleteStopsFirst(t *testing.T) {
	f := newFixture(t, nil)
	id := createReady(t, f, "alice")

	require.NoError(t, f.orch.DeleteEnvironment(context.Background(), id, false))
	_, err := f.orch.GetEnvironment(id)
	assert.True(t, api.IsNotFound(err))
	assert.Equal(t, int64(1), f.fake.Terminates())
}

func TestDeleteUnknownID(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	err := f.orch.DeleteEnvironment(ctx, "ghost", false)
	assert.True(t, api.IsNotFound(err))

	// Force delete of an unknown id is a no-op.
	assert.NoError(t, f.orch.DeleteEnvironment(ctx, "ghost", true))
}

func TestDeleteErroredEnvironment(t *testing.T) {
	f := newFixture(t, nil)
	f.fake.ProvisionErr = errors.New("image pull failed")

	id, err := f.orch.CreateEnvironment(api.CreateEnvironmentRequest{
		TemplateID: "web-development",
		Owner:      "alice",
	})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	info, err := f.orch.WaitReady(ctx, id)
	require.NoError(t, err)
	require.Equal(t, api.StateError, info.Status)

	// A failed environment is removable without force.
	require.NoError(t, f.orch.DeleteEnvironment(context.Background(), id, false))
	_, err = f.orch.GetEnvironment(id)
	assert.True(t, api.IsNotFound(err))
}

func TestForceDeleteSwallowsBackendErrors(t *testing.T) {
	f := newFixture(t, nil)
	id := createReady(t, f, "alice")
	f.fake.TerminateErr = errors.New("backend unreachable")

	require.NoError(t, f.orch.DeleteEnvironment(context.Background(), id, true))
	_, err := f.orch.GetEnvironment(id)
	assert.True(t, api.IsNotFound(err))
}

func TestRestartSupersedes(t *testing.T) {
	f := newFixture(t, nil)
	id := createReady(t, f, "alice")
	require.NoError(t, f.orch.AddCollaborator(id, "bob"))

	newID, err := f.orch.RestartEnvironment(context.Background(), id)
	require.NoError(t, err)
	assert.NotEqual(t, id, newID)

	// The old record is gone; only the replacement remains.
	_, err = f.orch.GetEnvironment(id)
	assert.True(t, api.IsNotFound(err))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	info, err := f.orch.WaitReady(ctx, newID)
	require.NoError(t, err)
	assert.Equal(t, api.StateReady, info.Status)
	assert.Equal(t, "alice", info.Owner)
	assert.Contains(t, info.Collaborators, "bob")
	assert.Len(t, f.orch.ListEnvironments(""), 1)
}

func TestRestartAtOwnerQuota(t *testing.T) {
	f := newFixture(t, func(cfg *config.Config) {
		cfg.Limits.MaxEnvironmentsPerOwner = 1
	})
	id := createReady(t, f, "alice")

	// The superseded record does not count against the ceiling.
	newID, err := f.orch.RestartEnvironment(context.Background(), id)
	require.NoError(t, err)
	assert.NotEqual(t, id, newID)
	assert.Len(t, f.orch.ListEnvironments("alice"), 1)

	// A plain create is still rejected.
	_, err = f.orch.CreateEnvironment(api.CreateEnvironmentRequest{
		TemplateID: "web-development",
		Owner:      "alice",
	})
	assert.True(t, api.IsQuotaExceeded(err))
}

func TestScaleCollision(t *testing.T) {
	f := newFixture(t, nil)
	id := createReady(t, f, "alice")

	record, exists := f.store.Get(id)
	require.True(t, exists)
	require.True(t, record.TryTransition(api.StateReady, api.StateScaling))

	err := f.orch.ScaleEnvironment(context.Background(), id, api.ScaleUp)
	require.Error(t, err)
	assert.True(t, api.IsScaleInProgress(err))
	require.NoError(t, record.Transition(api.StateReady))

	// With the state released, scaling proceeds.
	require.NoError(t, f.orch.ScaleEnvironment(context.Background(), id, api.ScaleUp))
	assert.Equal(t, int64(1), f.fake.ScaleUps())

	info, err := f.orch.GetEnvironment(id)
	require.NoError(t, err)
	assert.Equal(t, api.StateReady, info.Status)
	assert.Equal(t, 2, info.Instances)
}

func TestScaleConcurrentRequestsOneWins(t *testing.T) {
	f := newFixture(t, nil)
	f.fake.ProvisionDelay = 0
	id := createReady(t, f, "alice")

	const callers = 8
	var wg sync.WaitGroup
	results := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(slot int) {
			defer wg.Done()
			results[slot] = f.orch.ScaleEnvironment(context.Background(), id, api.ScaleUp)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range results {
		if err == nil {
			succeeded++
		} else {
			assert.True(t, api.IsScaleInProgress(err) || api.IsInvalidState(err))
		}
	}
	assert.GreaterOrEqual(t, succeeded, 1)
	// web-development caps at 3 instances, so at most 2 ups reach the backend.
	assert.LessOrEqual(t, f.fake.ScaleUps(), int64(2))

	info, err := f.orch.GetEnvironment(id)
	require.NoError(t, err)
	assert.LessOrEqual(t, info.Instances, 3)
}

func TestScaleBackendFailureErrorsEnvironment(t *testing.T) {
	f := newFixture(t, nil)
	id := createReady(t, f, "alice")
	f.fake.ScaleErr = errors.New("resize rejected")

	err := f.orch.ScaleEnvironment(context.Background(), id, api.ScaleUp)
	require.Error(t, err)

	info, err := f.orch.GetEnvironment(id)
	require.NoError(t, err)
	assert.Equal(t, api.StateError, info.Status)
	assert.Contains(t, info.Metadata["last_error"], "resize rejected")
	// The instance count matches the backend, which never resized.
	assert.Equal(t, 1, info.Instances)
}

func TestScaleClampedAtTemplateMax(t *testing.T) {
	f := newFixture(t, nil)
	id := createReady(t, f, "alice")

	// web-development allows at most 3 instances.
	for i := 0; i < 5; i++ {
		require.NoError(t, f.orch.ScaleEnvironment(context.Background(), id, api.ScaleUp))
	}
	info, err := f.orch.GetEnvironment(id)
	require.NoError(t, err)
	assert.Equal(t, 3, info.Instances)
	// Clamped attempts do not reach the backend.
	assert.Equal(t, int64(2), f.fake.ScaleUps())
}

func TestAccessControl(t *testing.T) {
	f := newFixture(t, nil)
	id := createReady(t, f, "alice")

	endpoints, err := f.orch.GetAccess(id, "alice")
	require.NoError(t, err)
	assert.NotEmpty(t, endpoints)

	_, err = f.orch.GetAccess(id, "mallory")
	assert.Error(t, err)

	require.NoError(t, f.orch.AddCollaborator(id, "bob"))
	endpoints, err = f.orch.GetAccess(id, "bob")
	require.NoError(t, err)
	assert.NotEmpty(t, endpoints)
}

func TestAccessBumpsLastAccessed(t *testing.T) {
	f := newFixture(t, nil)
	id := createReady(t, f, "alice")

	record, exists := f.store.Get(id)
	require.True(t, exists)
	stale := time.Now().Add(-time.Hour)
	record.SetLastAccessed(stale)

	_, err := f.orch.GetAccess(id, "alice")
	require.NoError(t, err)
	assert.True(t, record.LastAccessed().After(stale))
}

func TestListFiltersByOwner(t *testing.T) {
	f := newFixture(t, nil)
	createReady(t, f, "alice")
	createReady(t, f, "bob")

	assert.Len(t, f.orch.ListEnvironments(""), 2)
	assert.Len(t, f.orch.ListEnvironments("alice"), 1)
	assert.Empty(t, f.orch.ListEnvironments("carol"))
}

func TestResourceUsageReport(t *testing.T) {
	f := newFixture(t, nil)
	createReady(t, f, "alice")

	report := f.orch.GetResourceUsage()
	assert.Equal(t, 1, report.Usage.TotalEnvironments)
	assert.Equal(t, 1, report.Usage.ReadyEnvironments)
	assert.InDelta(t, 2.0, report.Usage.MemoryGi, 0.0001)
	assert.Equal(t, f.cfg.Limits.MaxTotalEnvironments, report.Limits.MaxTotalEnvironments)
}

func TestCleanupExpiredReclaimsStaleStopped(t *testing.T) {
	f := newFixture(t, func(cfg *config.Config) {
		cfg.Reaper.TTL = time.Hour
	})
	stopped := createReady(t, f, "alice")
	require.NoError(t, f.orch.StopEnvironment(context.Background(), stopped))
	kept := createReady(t, f, "bob")

	record, exists := f.store.Get(stopped)
	require.True(t, exists)
	record.SetLastAccessed(time.Now().Add(-2 * time.Hour))

	keptRecord, exists := f.store.Get(kept)
	require.True(t, exists)
	keptRecord.SetLastAccessed(time.Now().Add(-2 * time.Hour))

	reclaimed := f.orch.CleanupExpired(context.Background())
	assert.Equal(t, []string{stopped}, reclaimed)

	// Stale but READY environments are never reclaimed.
	_, err := f.orch.GetEnvironment(kept)
	assert.NoError(t, err)
}

func TestStateChangeEventsPublished(t *testing.T) {
	f := newFixture(t, nil)
	events := f.orch.SubscribeToStateChanges()

	id := createReady(t, f, "alice")

	var states []api.EnvironmentState
	deadline := time.After(2 * time.Second)
	for len(states) < 2 {
		select {
		case event := <-events:
			if event.ID == id {
				states = append(states, event.NewState)
			}
		case <-deadline:
			t.Fatalf("timed out waiting for events, got %v", states)
		}
	}
	assert.Equal(t, []api.EnvironmentState{api.StateProvisioning, api.StateReady}, states)
}

func TestMonitorWatchesReadyEnvironment(t *testing.T) {
	f := newFixture(t, nil)
	id := createReady(t, f, "alice")

	record, exists := f.store.Get(id)
	require.True(t, exists)
	require.Eventually(t, func() bool {
		return record.Health() != nil
	}, 2*time.Second, 20*time.Millisecond)
	assert.Equal(t, api.HealthHealthy, record.Health().Status)
}

func TestCostEstimateExposed(t *testing.T) {
	f := newFixture(t, nil)
	id := createReady(t, f, "alice")

	info, err := f.orch.GetEnvironment(id)
	require.NoError(t, err)
	// web-development: 0.05 + 2*0.01 + 1*0.02 = 0.09/h.
	assert.InDelta(t, 0.09, info.Cost.HourlyUSD, 0.0001)
	assert.GreaterOrEqual(t, info.Uptime, time.Duration(0))
}
