// Package planner implements the A* search over predicted repository states.
// Nodes are RepoState values, edges are registry actions applied through
// their pure effect transformers, and the heuristic estimates the remaining
// cost toward the goal predicate.
package planner

import (
	"github.com/gitgoal/gitgoal/internal/action"
	"github.com/gitgoal/gitgoal/internal/config"
	"github.com/gitgoal/gitgoal/internal/state"
)

// Weights are the clamped heuristic coefficients. Each term multiplies a
// goal-relevant dimension of the state; a term only contributes while the
// goal still demands progress on that dimension, so h vanishes exactly on
// goal states.
type Weights struct {
	Alpha   float64 // per open conflict
	Beta    float64 // per diverged commit
	Gamma   float64 // in-flight rebase or merge
	Delta   float64 // per staleness unit
	Epsilon float64 // outstanding test requirement
	Zeta    float64 // outstanding push requirement

	// Backup charges for a missing backup ref while a rebase is still owed.
	// Fixed to the BackupRef cost when safety.require_backup_ref is set,
	// zero otherwise.
	Backup float64
}

// ClampWeights bounds the user-supplied coefficients so the heuristic never
// overestimates: each coefficient is capped at the cheapest single-step cost
// that reduces the corresponding dimension, and negatives collapse to zero.
func ClampWeights(cfg config.PlannerConfig, floors action.MinCostFloors) Weights {
	clamp := func(value, ceiling float64) float64 {
		if value < 0 {
			return 0
		}
		if value > ceiling {
			return ceiling
		}
		return value
	}
	return Weights{
		Alpha:   clamp(cfg.Alpha, floors.PerConflict),
		Beta:    clamp(cfg.Beta, floors.PerDivergence),
		Gamma:   clamp(cfg.Gamma, floors.InFlight),
		Delta:   clamp(cfg.Delta, floors.PerStaleness),
		Epsilon: clamp(cfg.Epsilon, floors.Tests),
		Zeta:    clamp(cfg.Zeta, floors.Push),
	}
}

// Score estimates the remaining cost from s to the goal. Admissible under
// the clamped weights; exactly zero when the goal holds.
func (w Weights) Score(s state.RepoState, goal state.GoalSpec) float64 {
	h := w.Alpha * float64(len(s.Conflicts))

	if s.OngoingRebase || s.OngoingMerge {
		// Concluding the in-flight operation also clears the divergence, so
		// the divergence terms are folded into this one; charging both would
		// overestimate against a single RebaseContinue step.
		h += w.Gamma
	} else if goal.Mode.Rank() >= state.ModeRebaseToUpstream.Rank() && s.DivergedRemote > 0 {
		h += w.Beta * float64(s.DivergedRemote)
		h += w.Delta * s.StalenessScore
		if !s.HasBackupRef {
			h += w.Backup
		}
	}

	if goal.TestsMustPass && s.TestsLastResult != state.TestsPassed {
		h += w.Epsilon
	}
	if goal.PushWithLease && s.HasUnpushedCommits {
		h += w.Zeta
		h += w.Beta * float64(s.DivergedLocal)
	}

	return h
}
