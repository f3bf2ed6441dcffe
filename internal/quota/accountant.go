package quota

import (
	"math"
	"sync"
	"time"

	"habitat/internal/api"
	"habitat/internal/config"
	"habitat/internal/environment"
)

// Accountant performs admission checks against configured limits and turns
// record state into advisory cost and usage figures.
type Accountant struct {
	mu     sync.Mutex
	store  environment.Store
	limits config.Limits
	rates  config.CostRates
}

// NewAccountant creates an accountant over store with the given limits and
// cost rates.
func NewAccountant(store environment.Store, limits config.Limits, rates config.CostRates) *Accountant {
	return &Accountant{
		store:  store,
		limits: limits,
		rates:  rates,
	}
}

// Admit checks whether owner may create one more environment. The per-owner
// limit is checked before the total limit, so the error names the narrowest
// breached ceiling. Terminal records still count until the reaper removes
// them.
//
// The check is serialized so concurrent creations cannot both pass on the
// same headroom.
func (a *Accountant) Admit(owner string) error {
	return a.AdmitReplacing(owner, "")
}

// AdmitReplacing admits owner while excluding one record from the counts:
// the record about to be superseded by a restart. Without the exclusion an
// owner at the per-owner ceiling could never restart, since the replacement
// is created before the old record is removed.
func (a *Accountant) AdmitReplacing(owner, supersededID string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	total := 0
	owned := 0
	for _, record := range a.store.List() {
		if supersededID != "" && record.ID() == supersededID {
			continue
		}
		total++
		if record.Owner() == owner {
			owned++
		}
	}

	if owned >= a.limits.MaxEnvironmentsPerOwner {
		return &api.QuotaExceededError{
			Limit:   "max_environments_per_owner",
			Max:     a.limits.MaxEnvironmentsPerOwner,
			Current: owned,
		}
	}
	if total >= a.limits.MaxTotalEnvironments {
		return &api.QuotaExceededError{
			Limit:   "max_total_environments",
			Max:     a.limits.MaxTotalEnvironments,
			Current: total,
		}
	}
	return nil
}

// EstimateCost prices an environment's allocation from creation until now.
// The hourly rate is linear in memory and CPU; wall-clock time is billed
// regardless of state, matching the advisory nature of the figure.
func (a *Accountant) EstimateCost(shape api.ResourceShape, createdAt time.Time) api.CostEstimate {
	hourly := a.rates.BaseHourlyUSD +
		a.rates.MemoryGiHourlyUSD*shape.MemoryGi +
		a.rates.CPUCoreHourlyUSD*float64(shape.CPUMillis)/1000.0

	hours := time.Since(createdAt).Hours()
	if hours < 0 {
		hours = 0
	}
	return api.CostEstimate{
		HourlyUSD: round4(hourly),
		TotalUSD:  round4(hourly * hours),
	}
}

// AggregateUsage sums the allocation of READY environments. Environments in
// other states hold no billable capacity but still count toward the total.
func (a *Accountant) AggregateUsage() api.ResourceUsage {
	usage := api.ResourceUsage{}
	for _, record := range a.store.List() {
		usage.TotalEnvironments++
		if record.Status() != api.StateReady {
			continue
		}
		usage.ReadyEnvironments++
		shape := record.Resources()
		usage.MemoryGi += shape.MemoryGi
		usage.CPUCores += float64(shape.CPUMillis) / 1000.0
	}
	return usage
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
