package state

// ActionSpec is one declarative step of a plan: a registry action name, the
// parameters it should run with, its planned cost, and an optional rationale.
type ActionSpec struct {
	Name      string
	Params    map[string]string
	Cost      float64
	Rationale string
}

// Plan is an ordered action list with the planner's cost estimate and
// free-form explanation lines. A Plan is never mutated after return.
type Plan struct {
	Actions       []ActionSpec
	EstimatedCost float64
	Notes         []string
}

// Empty reports whether the plan has no actions.
func (p Plan) Empty() bool { return len(p.Actions) == 0 }

// Head returns the first action. Callers must check Empty first.
func (p Plan) Head() ActionSpec { return p.Actions[0] }

// Tail returns a plan holding the remaining actions after the first, sharing
// the original estimate and notes.
func (p Plan) Tail() Plan {
	if p.Empty() {
		return p
	}
	return Plan{
		Actions:       p.Actions[1:],
		EstimatedCost: p.EstimatedCost,
		Notes:         p.Notes,
	}
}
