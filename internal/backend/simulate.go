package backend

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"habitat/internal/api"
	"habitat/internal/environment"
	"habitat/internal/template"
)

// Delay bounds the simulated provisioning time of the shipped backends.
type Delay struct {
	Min time.Duration
	Max time.Duration
}

// DefaultDelay approximates real provisioning latency without making tests
// unbearable.
var DefaultDelay = Delay{Min: 500 * time.Millisecond, Max: 2 * time.Second}

func (d Delay) sleep(ctx context.Context) error {
	span := d.Max - d.Min
	wait := d.Min
	if span > 0 {
		wait += time.Duration(rand.Int63n(int64(span)))
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(wait):
		return nil
	}
}

// renderEndpoints expands template variables in the endpoint map declared in
// the environment's merged config. The record's name and id are always
// available as variables alongside the config's scalar string values.
func renderEndpoints(record *environment.Record, declared map[string]interface{}) (map[string]string, error) {
	vars := map[string]interface{}{
		"name":  record.Name(),
		"id":    record.ID(),
		"owner": record.Owner(),
	}
	for key, value := range record.Config() {
		if s, ok := value.(string); ok {
			vars[key] = s
		}
	}

	engine := template.New()
	endpoints := make(map[string]string, len(declared))
	for name, raw := range declared {
		pattern, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("endpoint %q is not a string", name)
		}
		rendered, err := engine.Replace(pattern, vars)
		if err != nil {
			return nil, fmt.Errorf("rendering endpoint %q: %w", name, err)
		}
		value, ok := rendered.(string)
		if !ok {
			return nil, fmt.Errorf("endpoint %q rendered to non-string", name)
		}
		endpoints[name] = value
	}
	return endpoints, nil
}

// declaredEndpoints extracts the endpoints map from a merged config, if any.
func declaredEndpoints(config map[string]interface{}) map[string]interface{} {
	raw, ok := config["endpoints"]
	if !ok {
		return nil
	}
	declared, ok := raw.(map[string]interface{})
	if !ok {
		return nil
	}
	return declared
}

// probeEndpoints builds a health snapshot for a record's published endpoints.
// The simulated backends report every endpoint healthy while the record is
// READY; kinds with richer checks layer on top of this.
func probeEndpoints(record *environment.Record) *api.HealthSnapshot {
	now := time.Now().UTC()
	endpoints := record.Endpoints()

	snapshot := &api.HealthSnapshot{
		Status:    api.HealthHealthy,
		Active:    true,
		Endpoints: make(map[string]api.EndpointHealth, len(endpoints)),
		Metrics: map[string]float64{
			"cpu_usage":    float64(5 + rand.Intn(60)),
			"memory_usage": float64(10 + rand.Intn(50)),
		},
		CheckedAt: now,
	}
	if record.Status() != api.StateReady {
		snapshot.Status = api.HealthUnknown
		snapshot.Active = false
		snapshot.Message = fmt.Sprintf("environment is %s", record.Status())
		return snapshot
	}
	for name := range endpoints {
		latency := float64(1 + rand.Intn(20))
		snapshot.Endpoints[name] = api.EndpointHealth{
			Available: true,
			Metrics:   map[string]float64{"latency_ms": latency},
		}
	}
	return snapshot
}
