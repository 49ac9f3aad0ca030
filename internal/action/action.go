// Package action defines the atomic operations the planner sequences:
// each action declares a pure precondition predicate, a pure effect
// transformer, a pure cost function, and an impure execute hook that turns
// the action into git invocations. The planner never sees the hook.
package action

import (
	"context"

	"github.com/gitgoal/gitgoal/internal/config"
	"github.com/gitgoal/gitgoal/internal/git"
	"github.com/gitgoal/gitgoal/internal/logging"
	"github.com/gitgoal/gitgoal/internal/state"
)

// Env carries the impure collaborators execute hooks are allowed to touch.
type Env struct {
	Facade *git.Facade
	Logger *logging.Logger
	Config *config.Config
}

// ExecuteFunc performs the action against the repository.
type ExecuteFunc func(ctx context.Context, env *Env, s state.RepoState) error

// Action is one registry entry. Applicable, Predict, and Cost must be pure:
// same inputs, same outputs, no I/O.
type Action struct {
	Name      string
	Rationale string

	// Unrecoverable marks actions whose execution failure must terminate the
	// run instead of triggering a replan.
	Unrecoverable bool

	Applicable func(s state.RepoState, cfg *config.Config) bool
	Predict    func(s state.RepoState, cfg *config.Config) state.RepoState
	Cost       func(s state.RepoState, cfg *config.Config) float64
	// Params decorates the planned ActionSpec; may be nil.
	Params func(s state.RepoState, cfg *config.Config) map[string]string

	Execute ExecuteFunc
}

// Spec builds the plan entry for this action at state s.
func (a Action) Spec(s state.RepoState, cfg *config.Config) state.ActionSpec {
	spec := state.ActionSpec{
		Name:      a.Name,
		Cost:      a.Cost(s, cfg),
		Rationale: a.Rationale,
	}
	if a.Params != nil {
		spec.Params = a.Params(s, cfg)
	}
	return spec
}

// Registry is the immutable action catalog. Iteration order is fixed at
// construction and doubles as the planner's tie-break order.
type Registry struct {
	actions []Action
	byName  map[string]Action
}

// NewRegistry builds a registry from the given actions.
func NewRegistry(actions ...Action) *Registry {
	byName := make(map[string]Action, len(actions))
	for _, a := range actions {
		byName[a.Name] = a
	}
	return &Registry{
		actions: append([]Action(nil), actions...),
		byName:  byName,
	}
}

// DefaultRegistry returns the full catalog in canonical order.
func DefaultRegistry() *Registry {
	return NewRegistry(
		backupRef(),
		fetchAll(),
		ensureClean(),
		autoTrivialResolve(),
		applyPathStrategy(),
		useMergeDriver(),
		rebaseContinue(),
		rebaseOntoUpstream(),
		runTests(),
		pushWithLease(),
		rebaseAbort(),
	)
}

// Actions returns the catalog in registration order.
func (r *Registry) Actions() []Action {
	out := make([]Action, len(r.actions))
	copy(out, r.actions)
	return out
}

// Lookup finds an action by name.
func (r *Registry) Lookup(name string) (Action, bool) {
	a, ok := r.byName[name]
	return a, ok
}

// Base costs for the catalog. All non-negative; the planner's heuristic
// clamp depends on these floors.
const (
	costBackupRef       = 0.4
	costEnsureClean     = 0.6
	costFetchBase       = 0.3
	costFetchPerStale   = 0.1
	costRebaseBase      = 1.0
	costRebasePerDiff   = 0.5
	costTrivialPerHunk  = 0.2
	costPathStrategy    = 1.2
	costMergeDriver     = 1.5
	costRebaseContinue  = 0.5
	costRebaseAbort     = 5.0
	costRunTests        = 3.0
	costPushWithLease   = 1.2
	riskHighMultiplier  = 1.5
)

// riskAdjusted applies the high-risk penalty multiplier.
func riskAdjusted(base float64, s state.RepoState) float64 {
	if s.RiskLevel == state.RiskHigh {
		return base * riskHighMultiplier
	}
	return base
}

// MinCostFloors reports, per heuristic dimension, the cheapest single-step
// cost that can reduce it. The planner clamps the user-supplied coefficients
// against these floors to keep the heuristic admissible.
type MinCostFloors struct {
	PerConflict   float64
	PerDivergence float64
	InFlight      float64
	PerStaleness  float64
	Tests         float64
	Push          float64
	Backup        float64
}

// Floors returns the admissibility floors implied by the catalog costs.
func Floors() MinCostFloors {
	return MinCostFloors{
		PerConflict:   costTrivialPerHunk,
		PerDivergence: costFetchPerStale,
		InFlight:      costRebaseContinue,
		PerStaleness:  costFetchPerStale,
		Tests:         costRunTests,
		Push:          costPushWithLease,
		Backup:        costBackupRef,
	}
}
