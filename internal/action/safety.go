package action

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gitgoal/gitgoal/internal/config"
	"github.com/gitgoal/gitgoal/internal/state"
)

const (
	backupRefPrefix = "refs/backup/goap"
	stashPrefix     = "goap"
)

func timestamp() string {
	return time.Now().UTC().Format("20060102T150405Z")
}

// backupRef records HEAD under refs/backup/goap/<ts> so any later step can
// be undone.
func backupRef() Action {
	return Action{
		Name:      "BackupRef",
		Rationale: "Create a recoverable snapshot of HEAD before mutating the repository.",
		Applicable: func(s state.RepoState, _ *config.Config) bool {
			return !s.HasBackupRef
		},
		Predict: func(s state.RepoState, _ *config.Config) state.RepoState {
			return s.With(func(n *state.RepoState) { n.HasBackupRef = true })
		},
		Cost: func(_ state.RepoState, _ *config.Config) float64 {
			return costBackupRef
		},
		Execute: func(ctx context.Context, env *Env, _ state.RepoState) error {
			head, err := env.Facade.RunChecked(ctx, "rev-parse", "HEAD")
			if err != nil {
				return err
			}
			sha := strings.TrimSpace(head.Stdout)
			ref := fmt.Sprintf("%s/%s", backupRefPrefix, timestamp())
			if _, err := env.Facade.RunChecked(ctx, "update-ref", ref, sha); err != nil {
				return err
			}
			env.Logger.Info("created backup ref", "ref", ref, "sha", sha)
			return nil
		},
	}
}

// ensureClean stashes a dirty working tree, untracked files included.
func ensureClean() Action {
	return Action{
		Name:      "EnsureClean",
		Rationale: "Stash local modifications so automated operations start from a clean tree.",
		Applicable: func(s state.RepoState, _ *config.Config) bool {
			return !s.WorkingTreeClean && len(s.Conflicts) == 0 &&
				!s.OngoingRebase && !s.OngoingMerge
		},
		Predict: func(s state.RepoState, _ *config.Config) state.RepoState {
			return s.With(func(n *state.RepoState) {
				n.WorkingTreeClean = true
				n.StagedChanges = false
				n.StashEntries++
			})
		},
		Cost: func(_ state.RepoState, _ *config.Config) float64 {
			return costEnsureClean
		},
		Execute: func(ctx context.Context, env *Env, _ state.RepoState) error {
			label := fmt.Sprintf("%s/%s", stashPrefix, timestamp())
			_, err := env.Facade.RunChecked(ctx, "stash", "push", "--include-untracked", "-m", label)
			if err != nil {
				return err
			}
			env.Logger.Info("stashed dirty worktree", "label", label)
			return nil
		},
	}
}
