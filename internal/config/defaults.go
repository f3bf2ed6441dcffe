package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Default limits and intervals, matching the original deployment.
const (
	DefaultMaxEnvironmentsPerOwner = 5
	DefaultMaxTotalEnvironments    = 50
	DefaultProvisionTimeout        = 5 * time.Minute
	DefaultMonitorInterval         = 60 * time.Second
	DefaultReaperInterval          = 30 * time.Minute
	DefaultTTL                     = 24 * time.Hour
)

// Default advisory cost rates in USD.
const (
	DefaultBaseHourlyUSD     = 0.05
	DefaultMemoryGiHourlyUSD = 0.01
	DefaultCPUCoreHourlyUSD  = 0.02
)

// DefaultConfig returns the configuration habitat runs with when no config
// file overrides are present.
func DefaultConfig() Config {
	return Config{
		Limits: Limits{
			MaxEnvironmentsPerOwner: DefaultMaxEnvironmentsPerOwner,
			MaxTotalEnvironments:    DefaultMaxTotalEnvironments,
		},
		Provision: Provision{
			Timeout: DefaultProvisionTimeout,
		},
		Monitor: MonitorLoop{
			Interval: DefaultMonitorInterval,
		},
		Reaper: ReaperSweep{
			Interval: DefaultReaperInterval,
			TTL:      DefaultTTL,
		},
		Cost: CostRates{
			BaseHourlyUSD:     DefaultBaseHourlyUSD,
			MemoryGiHourlyUSD: DefaultMemoryGiHourlyUSD,
			CPUCoreHourlyUSD:  DefaultCPUCoreHourlyUSD,
		},
		Logging: LoggingSetup{
			Level: "info",
		},
	}
}

// DefaultConfigDir returns the directory habitat reads configuration and
// template definitions from, ~/.config/habitat unless overridden.
func DefaultConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to determine home directory: %w", err)
	}
	return filepath.Join(home, ".config", "habitat"), nil
}

// Load reads habitat.yaml from configDir and merges it over the defaults.
// A missing file is not an error; the defaults are returned unchanged.
func Load(configDir string) (Config, error) {
	cfg := DefaultConfig()

	path := filepath.Join(configDir, "habitat.yaml")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	cfg.applyFloors()
	return cfg, nil
}

// applyFloors backfills zero values left by partial config files.
func (c *Config) applyFloors() {
	def := DefaultConfig()
	if c.Limits.MaxEnvironmentsPerOwner <= 0 {
		c.Limits.MaxEnvironmentsPerOwner = def.Limits.MaxEnvironmentsPerOwner
	}
	if c.Limits.MaxTotalEnvironments <= 0 {
		c.Limits.MaxTotalEnvironments = def.Limits.MaxTotalEnvironments
	}
	if c.Provision.Timeout <= 0 {
		c.Provision.Timeout = def.Provision.Timeout
	}
	if c.Monitor.Interval <= 0 {
		c.Monitor.Interval = def.Monitor.Interval
	}
	if c.Reaper.Interval <= 0 {
		c.Reaper.Interval = def.Reaper.Interval
	}
	if c.Reaper.TTL <= 0 {
		c.Reaper.TTL = def.Reaper.TTL
	}
	if c.Cost.BaseHourlyUSD <= 0 {
		c.Cost.BaseHourlyUSD = def.Cost.BaseHourlyUSD
	}
	if c.Cost.MemoryGiHourlyUSD <= 0 {
		c.Cost.MemoryGiHourlyUSD = def.Cost.MemoryGiHourlyUSD
	}
	if c.Cost.CPUCoreHourlyUSD <= 0 {
		c.Cost.CPUCoreHourlyUSD = def.Cost.CPUCoreHourlyUSD
	}
	if c.Logging.Level == "" {
		c.Logging.Level = def.Logging.Level
	}
}
