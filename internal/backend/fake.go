package backend

import (
	"context"
	"sync/atomic"
	"time"

	"habitat/internal/api"
	"habitat/internal/environment"
)

// Fake is a test double implementing Backend with injectable behavior.
type Fake struct {
	kind api.EnvironmentKind

	// ProvisionDelay stalls Provision before it returns.
	ProvisionDelay time.Duration
	// ProvisionErr, when set, makes every Provision call fail.
	ProvisionErr error
	// TerminateErr, when set, makes every Terminate call fail.
	TerminateErr error
	// ScaleErr, when set, makes every ApplyScale call fail.
	ScaleErr error
	// HealthFn overrides ProbeHealth when set.
	HealthFn func(record *environment.Record) *api.HealthSnapshot
	// Endpoints returned on successful Provision.
	Endpoints map[string]string

	provisions  atomic.Int64
	terminates  atomic.Int64
	scaleUps    atomic.Int64
	scaleDowns  atomic.Int64
	healthCalls atomic.Int64
}

// NewFake creates a fake backend for kind.
func NewFake(kind api.EnvironmentKind) *Fake {
	return &Fake{
		kind:      kind,
		Endpoints: map[string]string{"primary": "https://fake.habitat.test"},
	}
}

// Kind implements Backend.
func (f *Fake) Kind() api.EnvironmentKind { return f.kind }

// Provision implements Backend.
func (f *Fake) Provision(ctx context.Context, record *environment.Record, tmpl *api.EnvironmentTemplate) (map[string]string, error) {
	f.provisions.Add(1)
	if f.ProvisionDelay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(f.ProvisionDelay):
		}
	}
	if f.ProvisionErr != nil {
		return nil, f.ProvisionErr
	}
	endpoints := make(map[string]string, len(f.Endpoints))
	for name, value := range f.Endpoints {
		endpoints[name] = value
	}
	return endpoints, nil
}

// Terminate implements Backend.
func (f *Fake) Terminate(ctx context.Context, record *environment.Record) error {
	f.terminates.Add(1)
	return f.TerminateErr
}

// ProbeHealth implements Backend.
func (f *Fake) ProbeHealth(ctx context.Context, record *environment.Record) (*api.HealthSnapshot, error) {
	f.healthCalls.Add(1)
	if f.HealthFn != nil {
		return f.HealthFn(record), nil
	}
	return probeEndpoints(record), nil
}

// ApplyScale implements Backend.
func (f *Fake) ApplyScale(ctx context.Context, record *environment.Record, direction api.ScaleDirection) error {
	if f.ScaleErr != nil {
		return f.ScaleErr
	}
	if direction == api.ScaleUp {
		f.scaleUps.Add(1)
	} else {
		f.scaleDowns.Add(1)
	}
	return nil
}

// Provisions returns how many times Provision ran.
func (f *Fake) Provisions() int64 { return f.provisions.Load() }

// Terminates returns how many times Terminate ran.
func (f *Fake) Terminates() int64 { return f.terminates.Load() }

// ScaleUps returns how many scale-up calls were applied.
func (f *Fake) ScaleUps() int64 { return f.scaleUps.Load() }

// ScaleDowns returns how many scale-down calls were applied.
func (f *Fake) ScaleDowns() int64 { return f.scaleDowns.Load() }

// HealthCalls returns how many probes ran.
func (f *Fake) HealthCalls() int64 { return f.healthCalls.Load() }
