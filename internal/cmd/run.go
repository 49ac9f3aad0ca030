package cmd

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/gitgoal/gitgoal/internal/errors"
	"github.com/gitgoal/gitgoal/internal/executor"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Execute the perceive-plan-act loop until the goal holds",
	RunE: func(cmd *cobra.Command, _ []string) error {
		rt, err := buildRuntime(cmd)
		if err != nil {
			return err
		}
		if err := rt.facade.CheckVersion(cmd.Context()); err != nil {
			return &exitError{code: errors.ExitEnvironment, err: err}
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		exec := executor.New(rt.observer, rt.planner, rt.registry, rt.env, rt.cfg, rt.logger)
		report := exec.Execute(ctx)

		cmd.Println(titleStyle.Render(fmt.Sprintf("run %s: %s", report.RunID, report.Status)))
		for _, record := range report.Records {
			line := fmt.Sprintf("[%s] #%d %s", record.Level, record.CorrelationID, record.Message)
			if record.Action != "" {
				line = fmt.Sprintf("[%s] #%d %s: %s", record.Level, record.CorrelationID, record.Action, record.Message)
			}
			cmd.Println(line)
		}
		if rt.cfg.Safety.DryRun {
			journal := rt.facade.Journal()
			suppressed := 0
			for _, entry := range journal {
				if entry.Suppressed {
					suppressed++
				}
			}
			cmd.Println(fmt.Sprintf("dry-run: %d command(s) recorded, %d suppressed", len(journal), suppressed))
		}

		if code := report.ExitCode(); code != 0 {
			return &exitError{code: code, err: report.Err}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}
