package config

import "time"

// Config is the top-level configuration structure for habitat.
type Config struct {
	Limits    Limits       `yaml:"limits,omitempty"`
	Provision Provision    `yaml:"provision,omitempty"`
	Monitor   MonitorLoop  `yaml:"monitor,omitempty"`
	Reaper    ReaperSweep  `yaml:"reaper,omitempty"`
	Cost      CostRates    `yaml:"cost,omitempty"`
	Logging   LoggingSetup `yaml:"logging,omitempty"`
}

// Limits caps aggregate allocation. Both counts are checked at admission time
// only, never continuously.
type Limits struct {
	// MaxEnvironmentsPerOwner caps how many environments a single owner may
	// hold simultaneously.
	MaxEnvironmentsPerOwner int `yaml:"maxEnvironmentsPerOwner,omitempty"`

	// MaxTotalEnvironments caps the whole fleet.
	MaxTotalEnvironments int `yaml:"maxTotalEnvironments,omitempty"`
}

// Provision bounds asynchronous provisioning attempts.
type Provision struct {
	// Timeout is the deadline for one backend provisioning call; on expiry
	// the record moves to ERROR with a timeout cause.
	Timeout time.Duration `yaml:"timeout,omitempty"`
}

// MonitorLoop configures the per-environment health observation loop.
type MonitorLoop struct {
	// Interval is the fixed delay between health probe ticks.
	Interval time.Duration `yaml:"interval,omitempty"`
}

// ReaperSweep configures the periodic garbage collection of stale records.
type ReaperSweep struct {
	// Interval is the sweep period.
	Interval time.Duration `yaml:"interval,omitempty"`

	// TTL is the maximum idle duration before a non-READY environment is
	// reclaimed.
	TTL time.Duration `yaml:"ttl,omitempty"`
}

// CostRates parameterize the advisory cost estimate: a base hourly rate plus
// linear terms for memory and CPU.
type CostRates struct {
	BaseHourlyUSD     float64 `yaml:"baseHourlyUSD,omitempty"`
	MemoryGiHourlyUSD float64 `yaml:"memoryGiHourlyUSD,omitempty"`
	CPUCoreHourlyUSD  float64 `yaml:"cpuCoreHourlyUSD,omitempty"`
}

// LoggingSetup configures the logging subsystem.
type LoggingSetup struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level,omitempty"`
}
