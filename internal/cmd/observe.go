package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true)
	keyStyle   = lipgloss.NewStyle().Faint(true).Width(20)
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
)

var observeCmd = &cobra.Command{
	Use:   "observe",
	Short: "Print the observed repository state",
	RunE: func(cmd *cobra.Command, _ []string) error {
		rt, err := buildRuntime(cmd)
		if err != nil {
			return err
		}
		if err := rt.facade.CheckVersion(cmd.Context()); err != nil {
			return err
		}

		s, err := rt.observer.Observe(cmd.Context())
		if err != nil {
			return err
		}

		if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
			out, err := json.MarshalIndent(s, "", "  ")
			if err != nil {
				return err
			}
			cmd.Println(string(out))
			return nil
		}

		cmd.Println(titleStyle.Render("repository state"))
		row := func(key string, value any) {
			cmd.Println(keyStyle.Render(key) + fmt.Sprint(value))
		}
		row("branch", s.Ref.Branch)
		row("tracking", s.Ref.Tracking)
		row("ahead / behind", fmt.Sprintf("%d / %d", s.DivergedLocal, s.DivergedRemote))
		row("clean", s.WorkingTreeClean)
		row("staged changes", s.StagedChanges)
		row("in-flight", fmt.Sprintf("rebase=%t merge=%t", s.OngoingRebase, s.OngoingMerge))
		row("stash entries", s.StashEntries)
		row("conflicts", len(s.Conflicts))
		for _, c := range s.Conflicts {
			cmd.Println(keyStyle.Render("") + warnStyle.Render(
				fmt.Sprintf("%s (%s, %d hunks, trivial %.0f%%)", c.Path, c.Type, c.HunkCount, c.TrivialRatio*100)))
		}
		row("predicted conflicts", len(s.PredictedConflicts))
		row("staleness", fmt.Sprintf("%.2f", s.StalenessScore))
		row("risk", s.RiskLevel)
		return nil
	},
}

func init() {
	observeCmd.Flags().Bool("json", false, "print the state as JSON")
	rootCmd.AddCommand(observeCmd)
}
