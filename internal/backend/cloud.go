package backend

import (
	"context"
	"fmt"

	"habitat/internal/api"
	"habitat/internal/environment"
	"habitat/pkg/logging"
)

// Cloud provisions managed instances on the hosted substrate. It reuses the
// container backend's mechanics for the workload itself and layers a public
// endpoint on top.
type Cloud struct {
	local Backend
	delay Delay
}

// NewCloud creates the cloud backend. local supplies the workload mechanics.
func NewCloud(local Backend, delay Delay) *Cloud {
	return &Cloud{local: local, delay: delay}
}

// Kind implements Backend.
func (c *Cloud) Kind() api.EnvironmentKind {
	return api.KindCloud
}

// Provision implements Backend.
func (c *Cloud) Provision(ctx context.Context, record *environment.Record, tmpl *api.EnvironmentTemplate) (map[string]string, error) {
	logging.Info("backend-cloud", "Provisioning managed instance for %s", record.ID())

	endpoints, err := c.local.Provision(ctx, record, tmpl)
	if err != nil {
		return nil, &api.ProvisionError{Kind: c.Kind(), Cause: err}
	}
	if err := c.delay.sleep(ctx); err != nil {
		return nil, &api.ProvisionError{Kind: c.Kind(), Cause: err}
	}

	record.RecordMetadata("region", regionFor(record))
	endpoints["public"] = fmt.Sprintf("https://%s.run.habitat.dev", record.Name())
	return endpoints, nil
}

// Terminate implements Backend.
func (c *Cloud) Terminate(ctx context.Context, record *environment.Record) error {
	logging.Info("backend-cloud", "Releasing managed instance for %s", record.ID())
	return c.local.Terminate(ctx, record)
}

// ProbeHealth implements Backend.
func (c *Cloud) ProbeHealth(ctx context.Context, record *environment.Record) (*api.HealthSnapshot, error) {
	return c.local.ProbeHealth(ctx, record)
}

// ApplyScale implements Backend. Cloud environments scale horizontally, so
// the instance count moves with the direction; the record clamps it.
func (c *Cloud) ApplyScale(ctx context.Context, record *environment.Record, direction api.ScaleDirection) error {
	logging.Debug("backend-cloud", "Scaling managed instance %s (%s)", record.ID(), direction)
	return nil
}

func regionFor(record *environment.Record) string {
	if region, ok := record.Config()["region"].(string); ok && region != "" {
		return region
	}
	return "us-central"
}
