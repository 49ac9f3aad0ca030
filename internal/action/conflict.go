package action

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gitgoal/gitgoal/internal/config"
	"github.com/gitgoal/gitgoal/internal/errors"
	"github.com/gitgoal/gitgoal/internal/mergedriver"
	"github.com/gitgoal/gitgoal/internal/state"
)

// trivialHunks counts rule-resolvable hunks across the conflict set.
func trivialHunks(conflicts []state.ConflictDetail) int {
	total := 0
	for _, c := range conflicts {
		if c.Trivial() {
			total += c.HunkCount
		}
	}
	return total
}

// autoTrivialResolve clears conflicts whose sides differ only in whitespace,
// reusing recorded resolutions first when rerere is enabled.
func autoTrivialResolve() Action {
	return Action{
		Name:      "AutoTrivialResolve",
		Rationale: "Apply recorded resolutions and take theirs for whitespace-only conflicts.",
		Applicable: func(s state.RepoState, cfg *config.Config) bool {
			if !cfg.Strategy.EnableRerere {
				return false
			}
			if !s.OngoingRebase && !s.OngoingMerge {
				return false
			}
			for _, c := range s.Conflicts {
				if c.Trivial() {
					return true
				}
			}
			return false
		},
		Predict: func(s state.RepoState, _ *config.Config) state.RepoState {
			return s.With(func(n *state.RepoState) {
				var rest []state.ConflictDetail
				for _, c := range n.Conflicts {
					if !c.Trivial() {
						rest = append(rest, c)
					}
				}
				n.Conflicts = rest
			})
		},
		Cost: func(s state.RepoState, _ *config.Config) float64 {
			hunks := trivialHunks(s.Conflicts)
			if hunks < 1 {
				hunks = 1
			}
			return costTrivialPerHunk * float64(hunks)
		},
		Execute: func(ctx context.Context, env *Env, s state.RepoState) error {
			if _, err := env.Facade.Run(ctx, "rerere"); err != nil {
				return err
			}
			for _, c := range s.Conflicts {
				if !c.Trivial() {
					continue
				}
				if _, err := env.Facade.RunChecked(ctx, "checkout", "--theirs", "--", c.Path); err != nil {
					return err
				}
				if _, err := env.Facade.RunChecked(ctx, "add", "--", c.Path); err != nil {
					return err
				}
				env.Logger.Info("resolved trivial conflict", "path", c.Path)
			}
			return nil
		},
	}
}

// applyPathStrategy resolves conflicts covered by configured rules.
func applyPathStrategy() Action {
	return Action{
		Name:      "ApplyPathStrategy",
		Rationale: "Resolve conflicts on paths covered by configured ours/theirs rules.",
		Applicable: func(s state.RepoState, cfg *config.Config) bool {
			matched, _ := partitionByRule(s.Conflicts, cfg.Strategy.Rules)
			return len(matched) > 0
		},
		Predict: func(s state.RepoState, cfg *config.Config) state.RepoState {
			return s.With(func(n *state.RepoState) {
				_, rest := partitionByRule(n.Conflicts, cfg.Strategy.Rules)
				n.Conflicts = rest
			})
		},
		Cost: func(s state.RepoState, _ *config.Config) float64 {
			return riskAdjusted(costPathStrategy, s)
		},
		Execute: func(ctx context.Context, env *Env, s state.RepoState) error {
			for _, c := range s.Conflicts {
				rule := selectRule(c, env.Config.Strategy.Rules)
				if rule == nil {
					continue
				}
				switch {
				case rule.Resolution == "ours":
					if _, err := env.Facade.RunChecked(ctx, "checkout", "--ours", "--", c.Path); err != nil {
						return err
					}
				case rule.Resolution == "theirs":
					if _, err := env.Facade.RunChecked(ctx, "checkout", "--theirs", "--", c.Path); err != nil {
						return err
					}
				case strings.HasPrefix(rule.Resolution, "merge-driver:"):
					if err := mergeStages(ctx, env, c.Path); err != nil {
						return err
					}
				default:
					env.Logger.Warn("unsupported resolution", "pattern", rule.Pattern, "resolution", rule.Resolution)
					continue
				}
				if _, err := env.Facade.RunChecked(ctx, "add", "--", c.Path); err != nil {
					return err
				}
				env.Logger.Info("applied path strategy", "path", c.Path, "resolution", rule.Resolution)
			}
			return nil
		},
	}
}

// useMergeDriver resolves structured JSON/YAML conflicts with the built-in
// three-way document merge.
func useMergeDriver() Action {
	return Action{
		Name:      "UseMergeDriver",
		Rationale: "Merge JSON/YAML conflicts structurally instead of line by line.",
		Applicable: func(s state.RepoState, cfg *config.Config) bool {
			if !cfg.Strategy.StructuredMerge {
				return false
			}
			for _, c := range s.Conflicts {
				if c.Type == state.ConflictJSON || c.Type == state.ConflictYAML {
					return true
				}
			}
			return false
		},
		Predict: func(s state.RepoState, _ *config.Config) state.RepoState {
			return s.With(func(n *state.RepoState) {
				var rest []state.ConflictDetail
				for _, c := range n.Conflicts {
					if c.Type != state.ConflictJSON && c.Type != state.ConflictYAML {
						rest = append(rest, c)
					}
				}
				n.Conflicts = rest
			})
		},
		Cost: func(s state.RepoState, _ *config.Config) float64 {
			return riskAdjusted(costMergeDriver, s)
		},
		Execute: func(ctx context.Context, env *Env, s state.RepoState) error {
			for _, c := range s.Conflicts {
				if c.Type != state.ConflictJSON && c.Type != state.ConflictYAML {
					continue
				}
				if err := mergeStages(ctx, env, c.Path); err != nil {
					return err
				}
				if _, err := env.Facade.RunChecked(ctx, "add", "--", c.Path); err != nil {
					return err
				}
				env.Logger.Info("merged structured conflict", "path", c.Path)
			}
			return nil
		},
	}
}

// mergeStages loads the three index stages of a conflicted path, merges them
// structurally, and writes the result to the working copy.
func mergeStages(ctx context.Context, env *Env, relPath string) error {
	stage := func(n int) (string, bool, error) {
		result, err := env.Facade.Run(ctx, "show", fmt.Sprintf(":%d:%s", n, relPath))
		if err != nil {
			return "", false, err
		}
		if result.ExitCode != 0 {
			// Stage missing: add/add conflicts have no base.
			return "", false, nil
		}
		return result.Stdout, true, nil
	}

	base, hasBase, err := stage(1)
	if err != nil {
		return err
	}
	ours, hasOurs, err := stage(2)
	if err != nil {
		return err
	}
	theirs, hasTheirs, err := stage(3)
	if err != nil {
		return err
	}
	if !hasOurs || !hasTheirs {
		return errors.NewGitError("conflict stages missing for "+relPath, nil)
	}

	merged, err := mergedriver.MergeDocuments(
		mergedriver.Document{Content: base, Present: hasBase},
		mergedriver.Document{Content: ours, Present: true},
		mergedriver.Document{Content: theirs, Present: true},
		mergedriver.FormatForPath(relPath),
	)
	if err != nil {
		return err
	}

	if env.Facade.DryRun() {
		env.Logger.Info("dry-run: skipped writing merged document", "path", relPath)
		return nil
	}
	return os.WriteFile(filepath.Join(env.Facade.RepoPath(), relPath), []byte(merged), 0o644)
}
