package backend

import (
	"context"
	"fmt"
	"sync"

	"habitat/internal/api"
	"habitat/internal/environment"
)

// Backend is the capability contract one environment kind implements.
// Provision and Terminate may block for seconds to minutes; the orchestrator
// never holds registry locks across these calls. ProbeHealth and ApplyScale
// are expected to be fast.
type Backend interface {
	// Kind identifies which environment kind this backend provisions.
	Kind() api.EnvironmentKind

	// Provision builds the environment described by the record's merged
	// config and returns its named endpoints.
	Provision(ctx context.Context, record *environment.Record, tmpl *api.EnvironmentTemplate) (map[string]string, error)

	// Terminate tears the environment down. Data volumes and workspace
	// state are kept per the backend's contract.
	Terminate(ctx context.Context, record *environment.Record) error

	// ProbeHealth checks every configured endpoint and returns an
	// aggregated snapshot.
	ProbeHealth(ctx context.Context, record *environment.Record) (*api.HealthSnapshot, error)

	// ApplyScale adjusts the environment's allocation in the given
	// direction.
	ApplyScale(ctx context.Context, record *environment.Record, direction api.ScaleDirection) error
}

// Registry routes environment kinds to backends. Dispatch is a pure lookup.
type Registry struct {
	mu       sync.RWMutex
	backends map[api.EnvironmentKind]Backend
}

// NewRegistry creates an empty backend registry.
func NewRegistry() *Registry {
	return &Registry{
		backends: make(map[api.EnvironmentKind]Backend),
	}
}

// Register adds a backend for its kind. Registering a kind twice is an error.
func (r *Registry) Register(b Backend) error {
	if b == nil {
		return fmt.Errorf("cannot register nil backend")
	}
	kind := b.Kind()
	if !kind.Valid() {
		return fmt.Errorf("backend has unsupported kind %q", kind)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.backends[kind]; exists {
		return fmt.Errorf("backend for kind %s already registered", kind)
	}
	r.backends[kind] = b
	return nil
}

// Get returns the backend for kind.
func (r *Registry) Get(kind api.EnvironmentKind) (Backend, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, exists := r.backends[kind]
	return b, exists
}

// Kinds returns the kinds with a registered backend.
func (r *Registry) Kinds() []api.EnvironmentKind {
	r.mu.RLock()
	defer r.mu.RUnlock()

	kinds := make([]api.EnvironmentKind, 0, len(r.backends))
	for kind := range r.backends {
		kinds = append(kinds, kind)
	}
	return kinds
}

// NewSimulatedRegistry wires the four shipped backends with the given
// provisioning delay. The hybrid backend composes the sandbox-shell and cloud
// legs registered here.
func NewSimulatedRegistry(delay Delay) (*Registry, error) {
	registry := NewRegistry()

	sandbox := NewSandboxShell(delay)
	container := NewContainer(delay)
	cloud := NewCloud(container, delay)

	for _, b := range []Backend{
		sandbox,
		container,
		cloud,
		NewHybrid(sandbox, cloud),
	} {
		if err := registry.Register(b); err != nil {
			return nil, err
		}
	}
	return registry, nil
}
