package cmd

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/gitgoal/gitgoal/internal/watch"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Re-observe on repository changes and report goal status",
	Long: `Watch keeps an eye on the repository and prints a fresh observation
whenever the working tree or the git control directory settles after a
change. It never executes actions; use it to see drift as it happens.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		rt, err := buildRuntime(cmd)
		if err != nil {
			return err
		}
		if err := rt.facade.CheckVersion(cmd.Context()); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		goal := rt.cfg.GoalSpec()
		report := func() {
			s, err := rt.observer.Observe(ctx)
			if err != nil {
				cmd.PrintErrln("observation failed:", err)
				return
			}
			status := "goal holds"
			if !goal.Satisfied(s) {
				status = "goal not reached"
			}
			cmd.Println(fmt.Sprintf("[%s] %s: %d conflict(s), %d behind, rebase=%t, %s",
				time.Now().Format("15:04:05"), s.Ref.Branch, len(s.Conflicts), s.DivergedRemote, s.OngoingRebase, status))
		}

		debounce, _ := cmd.Flags().GetDuration("debounce")
		watcher, err := watch.New(rt.repoPath, rt.logger, debounce, report)
		if err != nil {
			return err
		}
		defer watcher.Stop()

		if err := watcher.Start(); err != nil {
			return err
		}

		report()
		<-ctx.Done()
		return nil
	},
}

func init() {
	watchCmd.Flags().Duration("debounce", 500*time.Millisecond, "quiet period before re-observing")
	rootCmd.AddCommand(watchCmd)
}
