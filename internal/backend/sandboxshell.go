package backend

import (
	"context"
	"fmt"
	"path"

	"habitat/internal/api"
	"habitat/internal/environment"
	"habitat/pkg/logging"
)

// SandboxShell provisions isolated shell workspaces with a declarative
// package set. The workspace survives termination so a recreated environment
// finds its files again.
type SandboxShell struct {
	delay Delay
	root  string
}

// NewSandboxShell creates the sandbox-shell backend.
func NewSandboxShell(delay Delay) *SandboxShell {
	return &SandboxShell{
		delay: delay,
		root:  "/var/lib/habitat/workspaces",
	}
}

// Kind implements Backend.
func (s *SandboxShell) Kind() api.EnvironmentKind {
	return api.KindSandboxShell
}

// Provision implements Backend. The shell endpoint is always published;
// config-declared endpoints are rendered on top of it.
func (s *SandboxShell) Provision(ctx context.Context, record *environment.Record, tmpl *api.EnvironmentTemplate) (map[string]string, error) {
	logging.Info("backend-sandbox", "Provisioning shell workspace for %s", record.ID())

	if err := s.delay.sleep(ctx); err != nil {
		return nil, &api.ProvisionError{Kind: s.Kind(), Cause: err}
	}

	workspace := path.Join(s.root, record.Owner(), record.Name())
	record.RecordMetadata("workspace", workspace)
	if packages, ok := record.Config()["packages"]; ok {
		record.RecordMetadata("packages", packages)
	}

	endpoints := map[string]string{
		"shell":  fmt.Sprintf("habitat shell %s", record.ID()),
		"editor": fmt.Sprintf("https://%s.edit.habitat.dev", record.Name()),
	}
	rendered, err := renderEndpoints(record, declaredEndpoints(record.Config()))
	if err != nil {
		return nil, &api.ProvisionError{Kind: s.Kind(), Cause: err}
	}
	for name, value := range rendered {
		endpoints[name] = value
	}
	return endpoints, nil
}

// Terminate implements Backend. The workspace directory is retained.
func (s *SandboxShell) Terminate(ctx context.Context, record *environment.Record) error {
	logging.Info("backend-sandbox", "Releasing shell for %s, workspace retained", record.ID())
	return nil
}

// ProbeHealth implements Backend.
func (s *SandboxShell) ProbeHealth(ctx context.Context, record *environment.Record) (*api.HealthSnapshot, error) {
	return probeEndpoints(record), nil
}

// ApplyScale implements Backend. Shell workspaces scale vertically only, so
// the record's resource shape is the sole thing that moves.
func (s *SandboxShell) ApplyScale(ctx context.Context, record *environment.Record, direction api.ScaleDirection) error {
	logging.Debug("backend-sandbox", "Resizing workspace %s (%s)", record.ID(), direction)
	return nil
}
