package cmd

import (
	"fmt"
	"os"

	"habitat/internal/backend"
	"habitat/internal/catalog"
	"habitat/internal/config"
	"habitat/internal/environment"
	"habitat/internal/formatting"
	"habitat/internal/orchestrator"
	"habitat/pkg/logging"
)

// app bundles the wired subsystems one CLI invocation operates on. The CLI
// runs everything in-process against the simulated backends; there is no
// remote server to talk to.
type app struct {
	cfg     *config.Config
	catalog *catalog.Registry
	orch    *orchestrator.Orchestrator
}

// newApp loads configuration, initializes logging, and wires the catalog,
// backends, and orchestrator.
func newApp() (*app, error) {
	configDir := flagConfigDir
	if configDir == "" {
		dir, err := config.DefaultConfigDir()
		if err != nil {
			return nil, err
		}
		configDir = dir
	}

	cfg, err := config.Load(configDir)
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}

	logging.Init(logging.ParseLevel(cfg.Logging.Level), os.Stderr)

	storage := config.NewStorage(configDir)
	cat := catalog.NewRegistry(storage)
	if err := cat.LoadDefinitions(); err != nil {
		return nil, err
	}

	backends, err := backend.NewSimulatedRegistry(backend.DefaultDelay)
	if err != nil {
		return nil, err
	}

	orch := orchestrator.New(environment.NewMemoryStore(), cat, backends, &cfg)
	return &app{cfg: &cfg, catalog: cat, orch: orch}, nil
}

func (a *app) Close() {
	a.orch.Close()
}

// formatter builds the output formatter from the global flags.
func formatter() formatting.Formatter {
	return formatting.NewFormatter(formatting.Options{
		Format: formatting.OutputFormat(flagOutput),
		Quiet:  flagQuiet,
	})
}
