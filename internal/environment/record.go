package environment

import (
	"sync"
	"time"

	"habitat/internal/api"
)

// StateChangeCallback is invoked after a record's lifecycle state changes.
// Callbacks run outside the record lock.
type StateChangeCallback func(id string, oldState, newState api.EnvironmentState, err error)

// Record is the authoritative, lock-guarded state of one managed environment.
type Record struct {
	mu sync.RWMutex

	// Identity, immutable after creation.
	id         string
	templateID string
	name       string
	kind       api.EnvironmentKind
	owner      string
	createdAt  time.Time

	// Lifecycle.
	status    api.EnvironmentState
	lastError error

	// Merged configuration and granted allocation.
	config    map[string]interface{}
	resources api.ResourceShape
	instances int

	// Populated only once provisioning succeeds.
	endpoints map[string]string

	// Audit trail and observation data.
	metadata      map[string]interface{}
	lastAccessed  time.Time
	collaborators []string
	autoScaling   bool
	health        *api.HealthSnapshot

	stateCallback StateChangeCallback
}

// New builds a fresh PENDING record. The id must be unique for the lifetime
// of the registry process and is never reused.
func New(id, templateID, name string, kind api.EnvironmentKind, owner string,
	config map[string]interface{}, resources api.ResourceShape,
	collaborators []string, autoScaling bool) *Record {

	now := time.Now()
	return &Record{
		id:            id,
		templateID:    templateID,
		name:          name,
		kind:          kind,
		owner:         owner,
		createdAt:     now,
		lastAccessed:  now,
		status:        api.StatePending,
		config:        config,
		resources:     resources,
		instances:     1,
		endpoints:     make(map[string]string),
		metadata:      make(map[string]interface{}),
		collaborators: append([]string(nil), collaborators...),
		autoScaling:   autoScaling,
	}
}

// ID returns the environment id.
func (r *Record) ID() string { return r.id }

// TemplateID returns the originating template id. The reference is soft and
// may dangle after the template is replaced or removed.
func (r *Record) TemplateID() string { return r.templateID }

// Name returns the display name.
func (r *Record) Name() string { return r.name }

// Kind returns the backend kind, fixed at creation.
func (r *Record) Kind() api.EnvironmentKind { return r.kind }

// Owner returns the owner identity.
func (r *Record) Owner() string { return r.owner }

// CreatedAt returns the creation timestamp.
func (r *Record) CreatedAt() time.Time { return r.createdAt }

// Status returns the current lifecycle state.
func (r *Record) Status() api.EnvironmentState {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.status
}

// LastError returns the most recent error recorded on the record.
func (r *Record) LastError() error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lastError
}

// AutoScaling reports whether the auto-scaler considers this environment.
func (r *Record) AutoScaling() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.autoScaling
}

// Instances returns the currently allocated instance count.
func (r *Record) Instances() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.instances
}

// Resources returns the granted resource allocation.
func (r *Record) Resources() api.ResourceShape {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.resources
}

// Config returns the merged configuration bag. The caller must not mutate
// the returned map.
func (r *Record) Config() map[string]interface{} {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.config
}

// LastAccessed returns the last time the environment was observed in use.
func (r *Record) LastAccessed() time.Time {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lastAccessed
}

// SetStateChangeCallback registers the lifecycle event callback.
func (r *Record) SetStateChangeCallback(callback StateChangeCallback) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stateCallback = callback
}

// Transition moves the record along one legal state machine edge. An illegal
// edge returns api.InvalidStateError and leaves the record untouched.
func (r *Record) Transition(to api.EnvironmentState) error {
	r.mu.Lock()
	from := r.status
	if !CanTransition(from, to) {
		r.mu.Unlock()
		return &api.InvalidStateError{ID: r.id, Current: from, Attempted: to}
	}
	r.status = to
	callback := r.stateCallback
	r.mu.Unlock()

	if callback != nil {
		callback(r.id, from, to, nil)
	}
	return nil
}

// TryTransition attempts the edge from → to and reports whether it was taken.
// The check and the move happen under one lock acquisition, which makes it
// usable as a mutual-exclusion gate: exactly one of two concurrent
// READY→SCALING attempts wins.
func (r *Record) TryTransition(from, to api.EnvironmentState) bool {
	r.mu.Lock()
	if r.status != from || !CanTransition(from, to) {
		r.mu.Unlock()
		return false
	}
	r.status = to
	callback := r.stateCallback
	r.mu.Unlock()

	if callback != nil {
		callback(r.id, from, to, nil)
	}
	return true
}

// Fail moves the record to ERROR from any non-terminal state and records the
// cause both as the last error and in the metadata audit trail.
func (r *Record) Fail(cause error) {
	r.mu.Lock()
	from := r.status
	if from.Terminal() {
		r.mu.Unlock()
		return
	}
	r.status = api.StateError
	r.lastError = cause
	if cause != nil {
		r.metadata["last_error"] = cause.Error()
		r.metadata["failed_at"] = time.Now().Format(time.RFC3339)
	}
	callback := r.stateCallback
	r.mu.Unlock()

	if callback != nil {
		callback(r.id, from, api.StateError, cause)
	}
}

// SetReady completes provisioning: moves PROVISIONING → READY and installs
// the endpoints in the same critical section, so endpoints are never
// observable outside READY.
func (r *Record) SetReady(endpoints map[string]string) error {
	r.mu.Lock()
	from := r.status
	if !CanTransition(from, api.StateReady) {
		r.mu.Unlock()
		return &api.InvalidStateError{ID: r.id, Current: from, Attempted: api.StateReady}
	}
	r.status = api.StateReady
	r.endpoints = make(map[string]string, len(endpoints))
	for name, url := range endpoints {
		r.endpoints[name] = url
	}
	r.metadata["provisioning_complete"] = time.Now().Format(time.RFC3339)
	callback := r.stateCallback
	r.mu.Unlock()

	if callback != nil {
		callback(r.id, from, api.StateReady, nil)
	}
	return nil
}

// Endpoints returns a copy of the endpoint map, or nil unless the record is
// currently READY.
func (r *Record) Endpoints() map[string]string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.status != api.StateReady || len(r.endpoints) == 0 {
		return nil
	}
	out := make(map[string]string, len(r.endpoints))
	for name, url := range r.endpoints {
		out[name] = url
	}
	return out
}

// Touch bumps the last-accessed timestamp.
func (r *Record) Touch() {
	r.mu.Lock()
	r.lastAccessed = time.Now()
	r.mu.Unlock()
}

// SetLastAccessed overrides the last-accessed timestamp. Used by the reaper
// tests and by restore paths; normal code calls Touch.
func (r *Record) SetLastAccessed(t time.Time) {
	r.mu.Lock()
	r.lastAccessed = t
	r.mu.Unlock()
}

// SetHealth stores the monitor's latest snapshot.
func (r *Record) SetHealth(snapshot *api.HealthSnapshot) {
	r.mu.Lock()
	r.health = snapshot
	r.mu.Unlock()
}

// Health returns the latest health snapshot, nil before the first tick.
func (r *Record) Health() *api.HealthSnapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.health
}

// RecordMetadata writes one key of the free-form audit trail.
func (r *Record) RecordMetadata(key string, value interface{}) {
	r.mu.Lock()
	r.metadata[key] = value
	r.mu.Unlock()
}

// Metadata returns a copy of the audit trail.
func (r *Record) Metadata() map[string]interface{} {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]interface{}, len(r.metadata))
	for key, value := range r.metadata {
		out[key] = value
	}
	return out
}

// AddCollaborator appends a collaborator identity; adding an existing one is
// a no-op.
func (r *Record) AddCollaborator(who string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.collaborators {
		if existing == who {
			return
		}
	}
	r.collaborators = append(r.collaborators, who)
}

// Collaborators returns a copy of the collaborator list.
func (r *Record) Collaborators() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.collaborators...)
}

// AdjustInstances applies a scale step, clamped to [min, max]. It returns the
// new count and whether the step changed anything.
func (r *Record) AdjustInstances(delta, min, max int) (int, bool) {
	if min < 1 {
		min = 1
	}
	if max < min {
		max = min
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	next := r.instances + delta
	if next < min {
		next = min
	}
	if next > max {
		next = max
	}
	if next == r.instances {
		return r.instances, false
	}
	r.instances = next
	return next, true
}

// Snapshot returns a point-in-time copy suitable for API responses. Endpoints
// and health reflect the visibility rules: endpoints appear only in READY.
func (r *Record) Snapshot() api.EnvironmentInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	info := api.EnvironmentInfo{
		ID:            r.id,
		TemplateID:    r.templateID,
		Name:          r.name,
		Kind:          r.kind,
		Status:        r.status,
		Config:        r.config,
		Resources:     r.resources,
		CreatedAt:     r.createdAt,
		LastAccessed:  r.lastAccessed,
		Owner:         r.owner,
		Collaborators: append([]string(nil), r.collaborators...),
		AutoScaling:   r.autoScaling,
		Instances:     r.instances,
		Health:        r.health,
	}

	if len(r.metadata) > 0 {
		info.Metadata = make(map[string]interface{}, len(r.metadata))
		for key, value := range r.metadata {
			info.Metadata[key] = value
		}
	}

	if r.status == api.StateReady && len(r.endpoints) > 0 {
		info.Endpoints = make(map[string]string, len(r.endpoints))
		for name, url := range r.endpoints {
			info.Endpoints[name] = url
		}
	}

	return info
}
