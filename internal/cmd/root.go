// Package cmd wires the gitgoal CLI: flag parsing, configuration loading,
// and the command surface over the core packages.
package cmd

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/gitgoal/gitgoal/internal/config"
	"github.com/gitgoal/gitgoal/internal/errors"
)

var rootCmd = &cobra.Command{
	Use:   "gitgoal",
	Short: "Goal-driven git repository assistant",
	Long: `Gitgoal drives a working repository from an arbitrary in-progress state
toward a declared goal state: rebased on upstream, conflict-free, tests
green, pushed with lease. It observes the repository, searches for the
cheapest safe sequence of git operations, executes one at a time, and
replans whenever reality disagrees with the prediction.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// exitError carries an explicit process exit code out of a command.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err != nil {
		return e.err.Error()
	}
	return "exit"
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	err := rootCmd.Execute()
	if err == nil {
		return 0
	}
	var exit *exitError
	if errAs(err, &exit) {
		return exit.code
	}
	rootCmd.PrintErrln("gitgoal:", err)
	return errors.ExitCode(err)
}

func errAs(err error, target **exitError) bool {
	return errors.As(err, target)
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (default .gitgoal.toml, then $HOME/.config/gitgoal/config.toml)")
	rootCmd.PersistentFlags().StringP("repo", "C", ".", "repository root to operate on")
	rootCmd.PersistentFlags().Bool("dry-run", true, "suppress mutating git commands")
	rootCmd.PersistentFlags().Bool("json-logs", false, "emit JSON log records")
	rootCmd.PersistentFlags().String("log-level", "INFO", "log level (DEBUG, INFO, WARN, ERROR)")

	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	_ = viper.BindPFlag("safety.dry_run", rootCmd.PersistentFlags().Lookup("dry-run"))
	_ = viper.BindPFlag("logging.json", rootCmd.PersistentFlags().Lookup("json-logs"))
	_ = viper.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))
}

func initConfig() {
	config.SetDefaults()

	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName(".gitgoal")
		viper.SetConfigType("toml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME/.config/gitgoal")
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix("GITGOAL")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Missing config files are fine; defaults cover everything.
	_ = viper.ReadInConfig()
}
