package backend

import (
	"context"
	"fmt"

	"habitat/internal/api"
	"habitat/internal/environment"
	"habitat/pkg/logging"
)

// Container provisions containerized environments from a base image declared
// in the template's config.
type Container struct {
	delay Delay
}

// NewContainer creates the container backend.
func NewContainer(delay Delay) *Container {
	return &Container{delay: delay}
}

// Kind implements Backend.
func (c *Container) Kind() api.EnvironmentKind {
	return api.KindContainer
}

// Provision implements Backend.
func (c *Container) Provision(ctx context.Context, record *environment.Record, tmpl *api.EnvironmentTemplate) (map[string]string, error) {
	config := record.Config()

	image, _ := config["base_image"].(string)
	if image == "" {
		return nil, &api.ProvisionError{Kind: c.Kind(), Cause: fmt.Errorf("config has no base_image")}
	}
	logging.Info("backend-container", "Provisioning %s from image %s", record.ID(), image)

	if err := c.delay.sleep(ctx); err != nil {
		return nil, &api.ProvisionError{Kind: c.Kind(), Cause: err}
	}

	record.RecordMetadata("base_image", image)
	record.RecordMetadata("container_id", fmt.Sprintf("hab-%s", record.ID()[:8]))

	endpoints := map[string]string{
		"primary": fmt.Sprintf("https://%s.habitat.dev", record.Name()),
	}
	rendered, err := renderEndpoints(record, declaredEndpoints(config))
	if err != nil {
		return nil, &api.ProvisionError{Kind: c.Kind(), Cause: err}
	}
	for name, value := range rendered {
		endpoints[name] = value
	}
	return endpoints, nil
}

// Terminate implements Backend. Named volumes outlive the container.
func (c *Container) Terminate(ctx context.Context, record *environment.Record) error {
	logging.Info("backend-container", "Stopping container for %s, volumes retained", record.ID())
	return nil
}

// ProbeHealth implements Backend.
func (c *Container) ProbeHealth(ctx context.Context, record *environment.Record) (*api.HealthSnapshot, error) {
	return probeEndpoints(record), nil
}

// ApplyScale implements Backend.
func (c *Container) ApplyScale(ctx context.Context, record *environment.Record, direction api.ScaleDirection) error {
	logging.Debug("backend-container", "Resizing container %s (%s)", record.ID(), direction)
	return nil
}
