package orchestrator

import (
	"time"

	"habitat/internal/api"
	"habitat/pkg/logging"
)

// EnvironmentStateChangedEvent notifies subscribers that an environment moved
// along the lifecycle state machine.
type EnvironmentStateChangedEvent struct {
	ID        string
	Name      string
	Kind      api.EnvironmentKind
	OldState  api.EnvironmentState
	NewState  api.EnvironmentState
	Err       error
	Timestamp time.Time
}

// SubscribeToStateChanges returns a buffered channel receiving every
// lifecycle transition. Slow subscribers have events dropped rather than
// blocking the orchestrator.
func (o *Orchestrator) SubscribeToStateChanges() <-chan EnvironmentStateChangedEvent {
	eventChan := make(chan EnvironmentStateChangedEvent, 100)

	o.mu.Lock()
	o.subscribers = append(o.subscribers, eventChan)
	o.mu.Unlock()

	return eventChan
}

// publishStateChange fans one event out to all subscribers without blocking.
func (o *Orchestrator) publishStateChange(event EnvironmentStateChangedEvent) {
	o.mu.RLock()
	subscribers := make([]chan<- EnvironmentStateChangedEvent, len(o.subscribers))
	copy(subscribers, o.subscribers)
	o.mu.RUnlock()

	for _, subscriber := range subscribers {
		select {
		case subscriber <- event:
		default:
			logging.Debug("orchestrator", "Subscriber blocked, dropping event for %s", event.ID)
		}
	}
}

// stateChangeCallback adapts record transitions into published events.
func (o *Orchestrator) stateChangeCallback(id string, oldState, newState api.EnvironmentState, err error) {
	var name string
	var kind api.EnvironmentKind
	if record, exists := o.store.Get(id); exists {
		name = record.Name()
		kind = record.Kind()
	}
	o.publishStateChange(EnvironmentStateChangedEvent{
		ID:        id,
		Name:      name,
		Kind:      kind,
		OldState:  oldState,
		NewState:  newState,
		Err:       err,
		Timestamp: time.Now(),
	})
}
