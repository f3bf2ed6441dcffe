package scaler

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Trigger is one parsed scaling condition.
type Trigger struct {
	Metric    string
	Op        string
	Threshold float64
}

var triggerPattern = regexp.MustCompile(`^\s*([a-zA-Z_][a-zA-Z0-9_]*)\s*(>=|<=|==|!=|>|<)\s*([0-9]+(?:\.[0-9]+)?)\s*%?\s*$`)

// ParseTrigger parses one trigger expression.
func ParseTrigger(expr string) (Trigger, error) {
	match := triggerPattern.FindStringSubmatch(expr)
	if match == nil {
		return Trigger{}, fmt.Errorf("invalid trigger expression %q, want \"metric op threshold\"", strings.TrimSpace(expr))
	}
	threshold, err := strconv.ParseFloat(match[3], 64)
	if err != nil {
		return Trigger{}, fmt.Errorf("invalid threshold in %q: %w", expr, err)
	}
	return Trigger{Metric: match[1], Op: match[2], Threshold: threshold}, nil
}

// ParseTriggers parses a template's trigger list. One bad expression fails
// the whole list so misconfigured templates surface at registration.
func ParseTriggers(exprs []string) ([]Trigger, error) {
	triggers := make([]Trigger, 0, len(exprs))
	for _, expr := range exprs {
		trigger, err := ParseTrigger(expr)
		if err != nil {
			return nil, err
		}
		triggers = append(triggers, trigger)
	}
	return triggers, nil
}

// Fires reports whether value satisfies the trigger's condition.
func (t Trigger) Fires(value float64) bool {
	switch t.Op {
	case ">":
		return value > t.Threshold
	case ">=":
		return value >= t.Threshold
	case "<":
		return value < t.Threshold
	case "<=":
		return value <= t.Threshold
	case "==":
		return value == t.Threshold
	case "!=":
		return value != t.Threshold
	}
	return false
}

// String returns the canonical form of the trigger.
func (t Trigger) String() string {
	return fmt.Sprintf("%s %s %g", t.Metric, t.Op, t.Threshold)
}
