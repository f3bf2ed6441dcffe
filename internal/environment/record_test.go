package environment

import (
	"errors"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"habitat/internal/api"
)

func newTestRecord() *Record {
	return New("env-1", "tmpl-1", "test-env", api.KindContainer, "u1",
		map[string]interface{}{"base_image": "node:18"},
		api.ResourceShape{MemoryGi: 2, CPUMillis: 1000},
		nil, false)
}

func TestNewRecordStartsPending(t *testing.T) {
	record := newTestRecord()

	assert.Equal(t, api.StatePending, record.Status())
	assert.Equal(t, 1, record.Instances())
	assert.Nil(t, record.Endpoints())
	assert.Nil(t, record.Health())
}

func TestTransitionLegalPath(t *testing.T) {
	record := newTestRecord()

	require.NoError(t, record.Transition(api.StateProvisioning))
	require.NoError(t, record.SetReady(map[string]string{"primary": "http://localhost:8080"}))
	require.NoError(t, record.Transition(api.StateStopping))
	require.NoError(t, record.Transition(api.StateStopped))

	assert.Equal(t, api.StateStopped, record.Status())
}

func TestTransitionIllegalEdge(t *testing.T) {
	record := newTestRecord()

	err := record.Transition(api.StateStopping)
	require.Error(t, err)
	assert.True(t, api.IsInvalidState(err))
	assert.Equal(t, api.StatePending, record.Status())
}

func TestStoppedIsTerminal(t *testing.T) {
	record := newTestRecord()
	require.NoError(t, record.Transition(api.StateProvisioning))
	require.NoError(t, record.SetReady(nil))
	require.NoError(t, record.Transition(api.StateStopping))
	require.NoError(t, record.Transition(api.StateStopped))

	for _, to := range States() {
		assert.Error(t, record.Transition(to), "STOPPED must not transition to %s", to)
	}
}

func TestErrorIsTerminal(t *testing.T) {
	record := newTestRecord()
	record.Fail(errors.New("provision failed"))

	assert.True(t, record.Status().Terminal())
	for _, to := range States() {
		assert.Error(t, record.Transition(to), "ERROR must not transition to %s", to)
	}
}

func TestEndpointsVisibleOnlyWhenReady(t *testing.T) {
	record := newTestRecord()
	require.NoError(t, record.Transition(api.StateProvisioning))
	require.NoError(t, record.SetReady(map[string]string{"primary": "http://x"}))

	assert.Equal(t, map[string]string{"primary": "http://x"}, record.Endpoints())
	assert.NotEmpty(t, record.Snapshot().Endpoints)

	require.NoError(t, record.Transition(api.StateStopping))
	assert.Nil(t, record.Endpoints())
	assert.Empty(t, record.Snapshot().Endpoints)
}

func TestSetReadyFromWrongState(t *testing.T) {
	record := newTestRecord()

	err := record.SetReady(map[string]string{"primary": "http://x"})
	require.Error(t, err)
	assert.Nil(t, record.Endpoints())
}

func TestFailRecordsCause(t *testing.T) {
	record := newTestRecord()
	require.NoError(t, record.Transition(api.StateProvisioning))

	cause := errors.New("image pull failed")
	record.Fail(cause)

	assert.Equal(t, api.StateError, record.Status())
	assert.Equal(t, cause, record.LastError())
	assert.Equal(t, "image pull failed", record.Snapshot().Metadata["last_error"])

	// Fail on a terminal record is a no-op.
	record.Fail(errors.New("second failure"))
	assert.Equal(t, cause, record.LastError())
}

func TestTryTransitionMutualExclusion(t *testing.T) {
	record := newTestRecord()
	require.NoError(t, record.Transition(api.StateProvisioning))
	require.NoError(t, record.SetReady(nil))

	const attempts = 16
	var wg sync.WaitGroup
	wins := make(chan bool, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			wins <- record.TryTransition(api.StateReady, api.StateScaling)
		}()
	}
	wg.Wait()
	close(wins)

	won := 0
	for win := range wins {
		if win {
			won++
		}
	}
	assert.Equal(t, 1, won, "exactly one concurrent attempt may take READY→SCALING")
	assert.Equal(t, api.StateScaling, record.Status())
}

func TestStateChangeCallback(t *testing.T) {
	record := newTestRecord()

	var mu sync.Mutex
	var events [][2]api.EnvironmentState
	record.SetStateChangeCallback(func(id string, from, to api.EnvironmentState, err error) {
		mu.Lock()
		events = append(events, [2]api.EnvironmentState{from, to})
		mu.Unlock()
	})

	require.NoError(t, record.Transition(api.StateProvisioning))
	require.NoError(t, record.SetReady(nil))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, events, 2)
	assert.Equal(t, [2]api.EnvironmentState{api.StatePending, api.StateProvisioning}, events[0])
	assert.Equal(t, [2]api.EnvironmentState{api.StateProvisioning, api.StateReady}, events[1])
}

func TestAddCollaboratorIdempotent(t *testing.T) {
	record := newTestRecord()

	record.AddCollaborator("alice")
	record.AddCollaborator("bob")
	record.AddCollaborator("alice")

	assert.Equal(t, []string{"alice", "bob"}, record.Collaborators())
}

func TestAdjustInstancesClamped(t *testing.T) {
	record := newTestRecord()

	count, changed := record.AdjustInstances(1, 1, 3)
	assert.True(t, changed)
	assert.Equal(t, 2, count)

	count, changed = record.AdjustInstances(5, 1, 3)
	assert.True(t, changed)
	assert.Equal(t, 3, count)

	_, changed = record.AdjustInstances(1, 1, 3)
	assert.False(t, changed, "already at max")

	count, changed = record.AdjustInstances(-10, 1, 3)
	assert.True(t, changed)
	assert.Equal(t, 1, count)

	_, changed = record.AdjustInstances(-1, 1, 3)
	assert.False(t, changed, "already at min")
}

func TestTouchBumpsLastAccessed(t *testing.T) {
	record := newTestRecord()
	record.SetLastAccessed(time.Now().Add(-time.Hour))
	before := record.LastAccessed()

	record.Touch()
	assert.True(t, record.LastAccessed().After(before))
}

// TestStateMachineClosure drives records through random legal operations and
// asserts that every observed state stays inside the defined set and every
// observed transition is a defined edge.
func TestStateMachineClosure(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	defined := make(map[api.EnvironmentState]bool)
	for _, s := range States() {
		defined[s] = true
	}

	for run := 0; run < 200; run++ {
		record := newTestRecord()
		last := record.Status()

		record.SetStateChangeCallback(func(id string, from, to api.EnvironmentState, err error) {
			assert.True(t, defined[from], "undefined state %s", from)
			assert.True(t, defined[to], "undefined state %s", to)
			assert.True(t, CanTransition(from, to), "illegal transition %s → %s", from, to)
		})

		for step := 0; step < 20; step++ {
			target := States()[rng.Intn(len(States()))]
			switch target {
			case api.StateReady:
				record.SetReady(map[string]string{"primary": "http://x"})
			case api.StateError:
				record.Fail(errors.New("induced"))
			default:
				record.Transition(target)
			}

			current := record.Status()
			assert.True(t, defined[current])
			if current != last {
				assert.True(t, CanTransition(last, current))
				last = current
			}
		}
	}
}
