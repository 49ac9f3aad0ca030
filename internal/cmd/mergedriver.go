package cmd

import (
	"github.com/spf13/cobra"

	"github.com/gitgoal/gitgoal/internal/mergedriver"
)

var mergeDriverCmd = &cobra.Command{
	Use:   "merge-driver <base> <ours> <theirs>",
	Short: "Three-way structural merge for JSON and YAML files",
	Long: `Merge-driver implements git's custom merge driver calling convention
(%O %A %B): it merges <ours> and <theirs> against <base> structurally and
writes the result to <ours>. Wire it up via .gitattributes:

    *.json merge=gitgoal
    *.yaml merge=gitgoal

and .git/config:

    [merge "gitgoal"]
        name = gitgoal structured merge
        driver = gitgoal merge-driver %O %A %B`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := mergedriver.MergeFiles(args[0], args[1], args[2]); err != nil {
			// Exit 1 tells git the merge driver could not resolve the file.
			return &exitError{code: 1, err: err}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(mergeDriverCmd)
}
