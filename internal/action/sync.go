package action

import (
	"context"

	"github.com/gitgoal/gitgoal/internal/config"
	"github.com/gitgoal/gitgoal/internal/errors"
	"github.com/gitgoal/gitgoal/internal/state"
)

const defaultRemote = "origin"

// fetchAll refreshes the remote view. Cost grows with how stale the view is,
// so a freshly fetched repository never pays for a redundant fetch.
func fetchAll() Action {
	return Action{
		Name:      "FetchAll",
		Rationale: "Refresh remote tracking refs so divergence counts are trustworthy.",
		Applicable: func(s state.RepoState, _ *config.Config) bool {
			return s.StalenessScore > 0
		},
		Predict: func(s state.RepoState, _ *config.Config) state.RepoState {
			return s.With(func(n *state.RepoState) { n.StalenessScore = 0 })
		},
		Cost: func(s state.RepoState, _ *config.Config) float64 {
			return costFetchBase + costFetchPerStale*s.StalenessScore
		},
		Params: func(_ state.RepoState, _ *config.Config) map[string]string {
			return map[string]string{"remote": defaultRemote}
		},
		Execute: func(ctx context.Context, env *Env, _ state.RepoState) error {
			_, err := env.Facade.RunChecked(ctx, "fetch", "--prune", "--tags", defaultRemote)
			return err
		},
	}
}

// pushWithLease publishes local commits, refusing to clobber concurrent
// remote updates. A rejected lease is unrecoverable by design: it means the
// remote moved and the whole premise of the plan is stale.
func pushWithLease() Action {
	return Action{
		Name:          "PushWithLease",
		Rationale:     "Publish the rebased branch, guarded by a lease on the remote ref.",
		Unrecoverable: true,
		Applicable: func(s state.RepoState, cfg *config.Config) bool {
			return s.HasUnpushedCommits &&
				cfg.Goal.PushWithLease &&
				cfg.Safety.AllowForcePush &&
				s.WorkingTreeClean &&
				len(s.Conflicts) == 0 &&
				!s.OngoingRebase && !s.OngoingMerge &&
				s.DivergedRemote == 0
		},
		Predict: func(s state.RepoState, _ *config.Config) state.RepoState {
			return s.With(func(n *state.RepoState) {
				n.HasUnpushedCommits = false
				n.DivergedLocal = 0
			})
		},
		Cost: func(s state.RepoState, _ *config.Config) float64 {
			return riskAdjusted(costPushWithLease, s)
		},
		Params: func(_ state.RepoState, _ *config.Config) map[string]string {
			return map[string]string{"remote": defaultRemote}
		},
		Execute: func(ctx context.Context, env *Env, _ state.RepoState) error {
			if !env.Config.Safety.AllowForcePush {
				return errors.NewPolicyViolation("safety.allow_force_push")
			}
			result, err := env.Facade.Run(ctx, "push", "--force-with-lease", defaultRemote)
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
