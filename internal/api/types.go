package api

import "time"

// EnvironmentKind identifies the provisioning backend an environment is built
// on. The kind is copied from the template at creation time and never changes
// for the lifetime of the environment.
type EnvironmentKind string

const (
	KindSandboxShell EnvironmentKind = "sandbox-shell"
	KindContainer    EnvironmentKind = "container"
	KindCloud        EnvironmentKind = "cloud"
	KindHybrid       EnvironmentKind = "hybrid"
)

// Kinds lists every supported environment kind.
func Kinds() []EnvironmentKind {
	return []EnvironmentKind{KindSandboxShell, KindContainer, KindCloud, KindHybrid}
}

// Valid reports whether k is one of the supported kinds.
func (k EnvironmentKind) Valid() bool {
	switch k {
	case KindSandboxShell, KindContainer, KindCloud, KindHybrid:
		return true
	}
	return false
}

// EnvironmentState is the lifecycle state of a managed environment.
//
// Valid transitions:
//
//	PENDING → PROVISIONING → READY ⇄ SCALING/UPDATING → STOPPING → STOPPED
//
// and any non-terminal state → ERROR. STOPPED and ERROR are terminal; a
// restart enters through a fresh PENDING record rather than resurrecting the
// old one.
type EnvironmentState string

const (
	StatePending      EnvironmentState = "pending"
	StateProvisioning EnvironmentState = "provisioning"
	StateReady        EnvironmentState = "ready"
	StateScaling      EnvironmentState = "scaling"
	StateUpdating     EnvironmentState = "updating"
	StateStopping     EnvironmentState = "stopping"
	StateStopped      EnvironmentState = "stopped"
	StateError        EnvironmentState = "error"
)

// Terminal reports whether no further transitions are allowed out of s
// (other than removal from the registry). Both STOPPED and ERROR are
// terminal: a failed environment is inspected and deleted, never resumed.
func (s EnvironmentState) Terminal() bool {
	return s == StateStopped || s == StateError
}

// HealthState is the aggregated health of an environment as observed by the
// health monitor. Health never drives lifecycle transitions; only explicit
// stop/delete operations do.
type HealthState string

const (
	HealthUnknown   HealthState = "unknown"
	HealthHealthy   HealthState = "healthy"
	HealthDegraded  HealthState = "degraded"
	HealthUnhealthy HealthState = "unhealthy"
)

// ScaleDirection is the direction of a scaling intent.
type ScaleDirection string

const (
	ScaleUp   ScaleDirection = "up"
	ScaleDown ScaleDirection = "down"
)

// Valid reports whether d is a supported scale direction.
func (d ScaleDirection) Valid() bool {
	return d == ScaleUp || d == ScaleDown
}

// ResourceShape describes the compute resources requested by a template or
// granted to an environment.
type ResourceShape struct {
	// MemoryGi is the memory allocation in GiB.
	MemoryGi float64 `yaml:"memoryGi" json:"memoryGi"`

	// CPUMillis is the CPU allocation in millicores (1000 = one core).
	CPUMillis int `yaml:"cpuMillis" json:"cpuMillis"`

	// StorageGi is the workspace storage allocation in GiB.
	StorageGi float64 `yaml:"storageGi,omitempty" json:"storageGi,omitempty"`

	// Accelerators is the number of attached accelerator devices (GPUs).
	Accelerators int `yaml:"accelerators,omitempty" json:"accelerators,omitempty"`
}

// ScalingPolicy is a template's auto-scaling configuration.
type ScalingPolicy struct {
	Enabled      bool `yaml:"enabled" json:"enabled"`
	MinInstances int  `yaml:"minInstances,omitempty" json:"minInstances,omitempty"`
	MaxInstances int  `yaml:"maxInstances,omitempty" json:"maxInstances,omitempty"`

	// Triggers are comparator expressions evaluated against monitor metrics,
	// e.g. "cpu_usage > 80%". Any firing trigger requests a scale-up.
	Triggers []string `yaml:"triggers,omitempty" json:"triggers,omitempty"`
}

// EnvironmentTemplate is an immutable blueprint for creating environments of a
// given kind. Templates are registered once (seed set plus user additions) and
// only replaced administratively; deleting a template never invalidates
// environments already built from it.
type EnvironmentTemplate struct {
	ID          string          `yaml:"id" json:"id"`
	Name        string          `yaml:"name" json:"name"`
	Description string          `yaml:"description" json:"description"`
	Kind        EnvironmentKind `yaml:"kind" json:"kind"`

	// BaseConfig is an opaque key-value bag interpreted by the matching
	// backend. Caller overrides are deep-merged on top of it at creation.
	BaseConfig map[string]interface{} `yaml:"baseConfig,omitempty" json:"baseConfig,omitempty"`

	Resources ResourceShape `yaml:"resources" json:"resources"`
	Scaling   ScalingPolicy `yaml:"scaling,omitempty" json:"scaling,omitempty"`

	Extensions     []string `yaml:"extensions,omitempty" json:"extensions,omitempty"`
	Dependencies   []string `yaml:"dependencies,omitempty" json:"dependencies,omitempty"`
	StartupActions []string `yaml:"startupActions,omitempty" json:"startupActions,omitempty"`
	HealthProbes   []string `yaml:"healthProbes,omitempty" json:"healthProbes,omitempty"`

	CreatedBy string   `yaml:"createdBy,omitempty" json:"createdBy,omitempty"`
	Tags      []string `yaml:"tags,omitempty" json:"tags,omitempty"`
}

// EndpointHealth is the monitor's latest observation for one named endpoint.
type EndpointHealth struct {
	Available bool               `json:"available"`
	Metrics   map[string]float64 `json:"metrics,omitempty"`
}

// HealthSnapshot is the latest aggregated health observation for one
// environment, written by the health monitor on each tick.
type HealthSnapshot struct {
	Status    HealthState               `json:"status"`
	Active    bool                      `json:"active"`
	Endpoints map[string]EndpointHealth `json:"endpoints,omitempty"`
	Metrics   map[string]float64        `json:"metrics,omitempty"`
	CheckedAt time.Time                 `json:"checkedAt"`
	Message   string                    `json:"message,omitempty"`
}

// CostEstimate is an advisory running cost figure. It is a simple linear
// function of allocated resources and wall-clock time, not settlement-grade
// billing.
type CostEstimate struct {
	HourlyUSD float64 `json:"hourlyUSD"`
	TotalUSD  float64 `json:"totalUSD"`
}

// CreateEnvironmentRequest is a request to build a new environment from a
// registered template.
type CreateEnvironmentRequest struct {
	TemplateID string `json:"templateId"`

	// Name is optional; a display name is derived from the template when
	// empty.
	Name string `json:"name,omitempty"`

	// Config is deep-merged over the template's base config; caller keys win
	// per-key and nested maps merge key-wise.
	Config map[string]interface{} `json:"config,omitempty"`

	Owner         string   `json:"owner"`
	Collaborators []string `json:"collaborators,omitempty"`
}

// EnvironmentInfo is a point-in-time snapshot of a managed environment as
// returned by status and list operations.
type EnvironmentInfo struct {
	ID            string                 `json:"id"`
	TemplateID    string                 `json:"templateId"`
	Name          string                 `json:"name"`
	Kind          EnvironmentKind        `json:"kind"`
	Status        EnvironmentState       `json:"status"`
	Config        map[string]interface{} `json:"config,omitempty"`
	Resources     ResourceShape          `json:"resources"`
	Endpoints     map[string]string      `json:"endpoints,omitempty"`
	Metadata      map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt     time.Time              `json:"createdAt"`
	LastAccessed  time.Time              `json:"lastAccessed"`
	Owner         string                 `json:"owner"`
	Collaborators []string               `json:"collaborators,omitempty"`
	AutoScaling   bool                   `json:"autoScaling"`
	Instances     int                    `json:"instances"`
	Health        *HealthSnapshot        `json:"health,omitempty"`
	Uptime        time.Duration          `json:"uptime"`
	Cost          CostEstimate           `json:"cost"`
}

// ResourceUsage aggregates allocation across READY environments for reporting.
type ResourceUsage struct {
	TotalEnvironments int     `json:"totalEnvironments"`
	ReadyEnvironments int     `json:"readyEnvironments"`
	MemoryGi          float64 `json:"memoryGi"`
	CPUCores          float64 `json:"cpuCores"`
}
