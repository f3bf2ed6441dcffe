package scaler

import (
	"habitat/internal/api"
	"habitat/pkg/logging"
)

// Decision is the outcome of one evaluation.
type Decision struct {
	Direction api.ScaleDirection
	// Reason names the trigger that fired, or describes the idle condition
	// for a scale-down.
	Reason string
}

// Evaluate inspects metrics against the parsed triggers and returns a
// scaling decision, or nil when no change is warranted.
//
// Scale-up: the first trigger whose metric is present and fires, provided
// instances < max. Scale-down: every trigger whose metric is present reads
// below half its threshold, at least one metric was observed, and
// instances > min.
func Evaluate(triggers []Trigger, metrics map[string]float64, instances, min, max int) *Decision {
	if len(triggers) == 0 || len(metrics) == 0 {
		return nil
	}

	observed := 0
	allIdle := true
	for _, trigger := range triggers {
		value, present := metrics[trigger.Metric]
		if !present {
			continue
		}
		observed++
		if trigger.Fires(value) {
			if instances >= max {
				logging.Debug("scaler", "Trigger %q fired but already at max instances (%d)", trigger, instances)
				return nil
			}
			return &Decision{
				Direction: api.ScaleUp,
				Reason:    trigger.String(),
			}
		}
		if value >= trigger.Threshold/2 {
			allIdle = false
		}
	}

	if observed > 0 && allIdle && instances > min {
		return &Decision{
			Direction: api.ScaleDown,
			Reason:    "all metrics below half their thresholds",
		}
	}
	return nil
}
