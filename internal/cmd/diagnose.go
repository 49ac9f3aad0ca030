package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gitgoal/gitgoal/internal/diagnose"
)

var diagnoseCmd = &cobra.Command{
	Use:   "diagnose",
	Short: "Inspect git configuration and repository size",
	RunE: func(cmd *cobra.Command, _ []string) error {
		rt, err := buildRuntime(cmd)
		if err != nil {
			return err
		}
		if err := rt.facade.CheckVersion(cmd.Context()); err != nil {
			return err
		}

		report, err := diagnose.Generate(cmd.Context(), rt.facade)
		if err != nil {
			return err
		}

		if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
			pretty, _ := cmd.Flags().GetBool("pretty")
			out, err := report.JSON(pretty)
			if err != nil {
				return err
			}
			cmd.Println(out)
			return nil
		}

		cmd.Println(titleStyle.Render("git configuration"))
		for _, check := range report.GitConfig {
			marker := "ok"
			if !check.Matches {
				marker = "want " + check.Recommended
			}
			detected := check.Detected
			if detected == "" {
				detected = "(unset)"
			}
			cmd.Println(keyStyle.Render(check.Key) + fmt.Sprintf("%s (%s)", detected, marker))
		}

		if report.Stats != nil {
			cmd.Println(titleStyle.Render("repository"))
			cmd.Println(keyStyle.Render("tracked files") + fmt.Sprint(report.Stats.TrackedFiles))
			cmd.Println(keyStyle.Render("commits") + fmt.Sprint(report.Stats.CommitCount))
			cmd.Println(keyStyle.Render("pack size KiB") + fmt.Sprint(report.Stats.SizePackKiB))
		}
		if report.Diffstat != nil {
			cmd.Println(keyStyle.Render("pending diff") + fmt.Sprintf("%d file(s), +%d -%d",
				report.Diffstat.FilesChanged, report.Diffstat.Additions, report.Diffstat.Deletions))
		}
		if report.Guidance.Triggered {
			cmd.Println(titleStyle.Render("large repository guidance"))
			for _, reason := range report.Guidance.Reasons {
				cmd.Println(warnStyle.Render("  " + reason))
			}
			for _, suggestion := range report.Guidance.Suggestions {
				cmd.Println("  " + suggestion)
			}
		}
		return nil
	},
}

func init() {
	diagnoseCmd.Flags().Bool("json", false, "print the report as JSON")
	diagnoseCmd.Flags().Bool("pretty", false, "indent the JSON output")
	rootCmd.AddCommand(diagnoseCmd)
}
