package action

import (
	"bytes"
	"context"
	"os/exec"
	"time"

	"github.com/gitgoal/gitgoal/internal/config"
	"github.com/gitgoal/gitgoal/internal/errors"
	"github.com/gitgoal/gitgoal/internal/state"
)

// runTests executes the configured test command. The hook is the only place
// in the catalog that spawns a non-git subprocess; it honors dry-run and the
// configured runtime ceiling.
func runTests() Action {
	return Action{
		Name:      "RunTests",
		Rationale: "Verify the rebased tree before publishing it.",
		Applicable: func(s state.RepoState, cfg *config.Config) bool {
			return cfg.Goal.TestsMustPass &&
				len(cfg.Strategy.TestCommand) > 0 &&
				s.TestsLastResult != state.TestsPassed &&
				s.WorkingTreeClean &&
				!s.OngoingRebase && !s.OngoingMerge
		},
		Predict: func(s state.RepoState, _ *config.Config) state.RepoState {
			return s.With(func(n *state.RepoState) { n.TestsLastResult = state.TestsPassed })
		},
		Cost: func(s state.RepoState, _ *config.Config) float64 {
			return riskAdjusted(costRunTests, s)
		},
		Params: func(_ state.RepoState, cfg *config.Config) map[string]string {
			if len(cfg.Strategy.TestCommand) == 0 {
				return nil
			}
			return map[string]string{"command": cfg.Strategy.TestCommand[0]}
		},
		Execute: func(ctx context.Context, env *Env, _ state.RepoState) error {
			command := env.Config.Strategy.TestCommand
			if len(command) == 0 {
				return errors.NewGitError("no test command configured", nil)
			}
			if env.Facade.DryRun() {
				env.Logger.Info("dry-run: skipped test command", "argv", command)
				return nil
			}

			timeout := time.Duration(env.Config.Safety.MaxTestRuntimeSec) * time.Second
			runCtx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			cmd := exec.CommandContext(runCtx, command[0], command[1:]...)
			cmd.Dir = env.Facade.RepoPath()
			var output bytes.Buffer
			cmd.Stdout = &output
			cmd.Stderr = &output

			err := cmd.Run()
			if runCtx.Err() == context.DeadlineExceeded {
				return errors.NewExternalTimeout(command, timeout.Seconds())
			}
			if err != nil {
				var exitErr *exec.ExitError
				if errors.As(err, &exitErr) {
					return errors.NewExternalFailure(command, exitErr.ExitCode(), output.String())
				}
				return err
			}
			env.Logger.Info("tests passed", "argv", command)
			return nil
		},
	}
}
