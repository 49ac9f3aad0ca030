package action

import (
	"context"
	"strings"

	"github.com/gitgoal/gitgoal/internal/config"
	"github.com/gitgoal/gitgoal/internal/errors"
	"github.com/gitgoal/gitgoal/internal/state"
)

// predictedDifficulty sums the difficulty of the merge-tree predicted set.
func predictedDifficulty(s state.RepoState) float64 {
	total := 0.0
	for _, c := range s.PredictedConflicts {
		total += c.Difficulty()
	}
	return total
}

// rebaseOntoUpstream starts the rebase. It requires a fresh fetch and, when
// configured, a backup ref at HEAD; both gates are cheap actions the planner
// schedules first.
func rebaseOntoUpstream() Action {
	return Action{
		Name:      "RebaseOntoUpstream",
		Rationale: "Replay local commits on top of the tracking ref to clear the divergence.",
		Applicable: func(s state.RepoState, cfg *config.Config) bool {
			if cfg.Safety.RequireBackupRef && !s.HasBackupRef {
				return false
			}
			return s.DivergedRemote > 0 &&
				!s.OngoingRebase && !s.OngoingMerge &&
				s.WorkingTreeClean &&
				s.Ref.Tracking != "" &&
				s.StalenessScore == 0
		},
		Predict: func(s state.RepoState, _ *config.Config) state.RepoState {
			return s.With(func(n *state.RepoState) {
				n.OngoingRebase = true
				n.Conflicts = append([]state.ConflictDetail(nil), s.PredictedConflicts...)
				n.PredictedConflicts = nil
				n.WorkingTreeClean = len(n.Conflicts) == 0
				n.TestsLastResult = state.TestsUnknown
			})
		},
		Cost: func(s state.RepoState, _ *config.Config) float64 {
			return riskAdjusted(costRebaseBase+costRebasePerDiff*predictedDifficulty(s), s)
		},
		Params: func(s state.RepoState, _ *config.Config) map[string]string {
			return map[string]string{"upstream": s.Ref.Tracking}
		},
		Execute: func(ctx context.Context, env *Env, s state.RepoState) error {
			if env.Config.Strategy.EnableRerere {
				if _, err := env.Facade.RunChecked(ctx, "config", "--local", "rerere.enabled", "true"); err != nil {
					return err
				}
			}
			if _, err := env.Facade.RunChecked(ctx, "config", "--local", "merge.conflictStyle", env.Config.Strategy.ConflictStyle); err != nil {
				return err
			}

			args := []string{"rebase"}
			if env.Config.Strategy.UpdateRefs {
				args = append(args, "--update-refs")
			}
			if env.Config.Strategy.RebaseMerges {
				args = append(args, "--rebase-merges")
			}
			args = append(args, s.Ref.Tracking)

			result, err := env.Facade.Run(ctx, args...)
			if err != nil {
				return err
			}
			if result.ExitCode != 0 {
				combined := result.Stdout + result.Stderr
				// Stopping on a conflict is the predicted outcome, not a
				// failure; the observer picks up the conflicted state next.
				if strings.Contains(combined, "CONFLICT") || strings.Contains(combined, "could not apply") {
					env.Logger.Info("rebase stopped on conflicts", "upstream", s.Ref.Tracking)
					return nil
				}
				return errors.NewExternalFailure(result.RecordedCommand, result.ExitCode, result.Stderr)
			}
			return nil
		},
	}
}

// rebaseContinue concludes the rebase once no conflicts remain.
func rebaseContinue() Action {
	return Action{
		Name:      "RebaseContinue",
		Rationale: "All conflicts are resolved; conclude the rebase.",
		Applicable: func(s state.RepoState, _ *config.Config) bool {
			return s.OngoingRebase && len(s.Conflicts) == 0
		},
		Predict: func(s state.RepoState, _ *config.Config) state.RepoState {
			return s.With(func(n *state.RepoState) {
				n.OngoingRebase = false
				n.DivergedRemote = 0
				n.WorkingTreeClean = true
				n.StagedChanges = false
				n.HasUnpushedCommits = n.DivergedLocal > 0
				n.TestsLastResult = state.TestsUnknown
			})
		},
		Cost: func(s state.RepoState, _ *config.Config) float64 {
			return riskAdjusted(costRebaseContinue, s)
		},
		Execute: func(ctx context.Context, env *Env, _ state.RepoState) error {
			result, err := env.Facade.Run(ctx, "rebase", "--continue")
			if err != nil {
				return err
			}
			if result.ExitCode != 0 {
				return errors.NewExternalFailure(result.RecordedCommand, result.ExitCode, result.Stderr)
			}
			return nil
		},
	}
}

// rebaseAbort restores the pre-rebase state. Gated behind an explicit config
// flag; the default is to leave a stuck rebase for the operator.
func rebaseAbort() Action {
	return Action{
		Name:          "RebaseAbort",
		Rationale:     "Abandon the rebase and restore the pre-rebase HEAD.",
		Unrecoverable: true,
		Applicable: func(s state.RepoState, cfg *config.Config) bool {
			return s.OngoingRebase && cfg.Safety.AllowRebaseAbort
		},
		Predict: func(s state.RepoState, _ *config.Config) state.RepoState {
			return s.With(func(n *state.RepoState) {
				n.OngoingRebase = false
				n.Conflicts = nil
				n.WorkingTreeClean = true
				n.StagedChanges = false
				n.TestsLastResult = state.TestsUnknown
			})
		},
		Cost: func(_ state.RepoState, _ *config.Config) float64 {
			return costRebaseAbort
		},
		Execute: func(ctx context.Context, env *Env, _ state.RepoState) error {
			result, err := env.Facade.Run(ctx, "rebase", "--abort")
			if err != nil {
				return err
			}
			if result.ExitCode != 0 {
				return errors.Join(
					errors.ErrUnrecoverable,
					errors.NewExternalFailure(result.RecordedCommand, result.ExitCode, result.Stderr),
				)
			}
			return nil
		},
	}
}
