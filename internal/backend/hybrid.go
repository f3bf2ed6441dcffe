package backend

import (
	"context"

	"golang.org/x/sync/errgroup"

	"habitat/internal/api"
	"habitat/internal/environment"
	"habitat/pkg/logging"
)

// Hybrid provisions a local sandbox-shell workspace and a cloud instance in
// parallel. The local leg is authoritative: the environment comes up as long
// as the workspace exists, and a failed cloud leg only degrades it.
type Hybrid struct {
	local Backend
	cloud Backend
}

// NewHybrid creates the hybrid backend from its two legs.
func NewHybrid(local, cloud Backend) *Hybrid {
	return &Hybrid{local: local, cloud: cloud}
}

// Kind implements Backend.
func (h *Hybrid) Kind() api.EnvironmentKind {
	return api.KindHybrid
}

// Provision implements Backend. Both legs run concurrently; a cloud failure
// is recorded in metadata instead of failing the environment.
func (h *Hybrid) Provision(ctx context.Context, record *environment.Record, tmpl *api.EnvironmentTemplate) (map[string]string, error) {
	var (
		localEndpoints map[string]string
		cloudEndpoints map[string]string
		cloudErr       error
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		endpoints, err := h.local.Provision(gctx, record, tmpl)
		if err != nil {
			return err
		}
		localEndpoints = endpoints
		return nil
	})
	g.Go(func() error {
		endpoints, err := h.cloud.Provision(gctx, record, tmpl)
		if err != nil {
			cloudErr = err
			return nil
		}
		cloudEndpoints = endpoints
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, &api.ProvisionError{Kind: h.Kind(), Cause: err}
	}

	endpoints := make(map[string]string, len(localEndpoints)+len(cloudEndpoints))
	for name, value := range localEndpoints {
		endpoints[name] = value
	}
	for name, value := range cloudEndpoints {
		endpoints[name] = value
	}
	if cloudErr != nil {
		logging.Warn("backend-hybrid", "Cloud leg failed for %s, continuing local-only: %v", record.ID(), cloudErr)
		record.RecordMetadata("cloud_leg", "failed")
		record.RecordMetadata("cloud_leg_error", cloudErr.Error())
	} else {
		record.RecordMetadata("cloud_leg", "ready")
	}
	return endpoints, nil
}

// Terminate implements Backend. Both legs are torn down; the first error
// wins but both still run.
func (h *Hybrid) Terminate(ctx context.Context, record *environment.Record) error {
	localErr := h.local.Terminate(ctx, record)
	cloudErr := h.cloud.Terminate(ctx, record)
	if localErr != nil {
		return localErr
	}
	return cloudErr
}

// ProbeHealth implements Backend. A failed cloud leg caps the status at
// degraded while local endpoints stay reachable.
func (h *Hybrid) ProbeHealth(ctx context.Context, record *environment.Record) (*api.HealthSnapshot, error) {
	snapshot, err := h.local.ProbeHealth(ctx, record)
	if err != nil {
		return nil, err
	}
	if leg, ok := record.Metadata()["cloud_leg"].(string); ok && leg == "failed" {
		if snapshot.Status == api.HealthHealthy {
			snapshot.Status = api.HealthDegraded
			snapshot.Message = "cloud leg unavailable"
		}
	}
	return snapshot, nil
}

// ApplyScale implements Backend. Only the cloud leg scales horizontally.
func (h *Hybrid) ApplyScale(ctx context.Context, record *environment.Record, direction api.ScaleDirection) error {
	return h.cloud.ApplyScale(ctx, record, direction)
}
