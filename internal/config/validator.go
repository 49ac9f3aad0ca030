package config

import (
	"fmt"

	"github.com/gitgoal/gitgoal/internal/state"
)

// ValidationError describes a single invalid configuration field.
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid config: %s = %v: %s", e.Field, e.Value, e.Message)
}

// Validate checks the configuration for structural problems. Heuristic
// coefficients are only checked for sign here; the planner applies the
// admissibility clamp when it builds its heuristic.
func (c *Config) Validate() error {
	if !state.GoalMode(c.Goal.Mode).Valid() {
		return &ValidationError{Field: "goal.mode", Value: c.Goal.Mode,
			Message: `must be one of "resolve_only", "rebase_to_upstream", "push_with_lease"`}
	}

	switch c.Strategy.ConflictStyle {
	case "merge", "diff3", "zdiff3":
	default:
		return &ValidationError{Field: "strategy.conflict_style", Value: c.Strategy.ConflictStyle,
			Message: `must be one of "merge", "diff3", "zdiff3"`}
	}

	for i, rule := range c.Strategy.Rules {
		if rule.Pattern == "" {
			return &ValidationError{Field: fmt.Sprintf("strategy.rules[%d].pattern", i), Value: rule.Pattern,
				Message: "pattern must not be empty"}
		}
		if !resolutionValid(rule.Resolution) {
			return &ValidationError{Field: fmt.Sprintf("strategy.rules[%d].resolution", i), Value: rule.Resolution,
				Message: `must be "ours", "theirs", or "merge-driver:<name>"`}
		}
		switch rule.When {
		case "", "whitespace_only":
		default:
			return &ValidationError{Field: fmt.Sprintf("strategy.rules[%d].when", i), Value: rule.When,
				Message: `must be empty or "whitespace_only"`}
		}
	}

	coefficients := []struct {
		name  string
		value float64
	}{
		{"planner.alpha", c.Planner.Alpha},
		{"planner.beta", c.Planner.Beta},
		{"planner.gamma", c.Planner.Gamma},
		{"planner.delta", c.Planner.Delta},
		{"planner.epsilon", c.Planner.Epsilon},
		{"planner.zeta", c.Planner.Zeta},
	}
	for _, coeff := range coefficients {
		if coeff.value < 0 {
			return &ValidationError{Field: coeff.name, Value: coeff.value,
				Message: "heuristic coefficients must be non-negative"}
		}
	}

	bounds := []struct {
		name  string
		value int
	}{
		{"planner.max_expansions", c.Planner.MaxExpansions},
		{"planner.max_plan_length", c.Planner.MaxPlanLength},
		{"safety.max_test_runtime_sec", c.Safety.MaxTestRuntimeSec},
		{"safety.observe_timeout_sec", c.Safety.ObserveTimeoutSec},
		{"safety.mutate_timeout_sec", c.Safety.MutateTimeoutSec},
	}
	for _, bound := range bounds {
		if bound.value <= 0 {
			return &ValidationError{Field: bound.name, Value: bound.value,
				Message: "must be positive"}
		}
	}
	if c.Planner.MaxReplans < 0 {
		return &ValidationError{Field: "planner.max_replans", Value: c.Planner.MaxReplans,
			Message: "must not be negative"}
	}
	if c.Safety.DriftDivergenceTolerance < 0 {
		return &ValidationError{Field: "safety.drift_divergence_tolerance", Value: c.Safety.DriftDivergenceTolerance,
			Message: "must not be negative"}
	}

	return nil
}
