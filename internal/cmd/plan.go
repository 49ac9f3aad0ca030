package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Observe once and print the plan toward the configured goal",
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

		plan, err := rt.planner.Plan(s, rt.cfg.GoalSpec())
		if err != nil {
			return err
		}

		if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
			out, err := json.MarshalIndent(plan, "", "  ")
			if err != nil {
				return err
			}
			cmd.Println(string(out))
			return nil
		}

		if plan.Empty() {
			cmd.Println("nothing to do: the goal already holds")
			return nil
		}

		cmd.Println(titleStyle.Render(fmt.Sprintf("plan (%d actions, estimated cost %.2f)", len(plan.Actions), plan.EstimatedCost)))
		stepStyle := lipgloss.NewStyle().PaddingLeft(2)
		for i, a := range plan.Actions {
			line := fmt.Sprintf("%d. %s (cost %.2f)", i+1, a.Name, a.Cost)
			if len(a.Params) > 0 {
				for key, value := range a.Params {
					line += fmt.Sprintf(" %s=%s", key, value)
				}
			}
			cmd.Println(stepStyle.Render(line))
		}

		if explain, _ := cmd.Flags().GetBool("explain"); explain {
			cmd.Println(titleStyle.Render("notes"))
			for _, note := range plan.Notes {
				cmd.Println(stepStyle.Render(note))
			}
		}
		return nil
	},
}

func init() {
	planCmd.Flags().Bool("explain", false, "print per-step rationale and rejected alternatives")
	planCmd.Flags().Bool("json", false, "print the plan as JSON")
	rootCmd.AddCommand(planCmd)
}
