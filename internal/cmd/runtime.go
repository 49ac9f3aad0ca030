package cmd

import (
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/gitgoal/gitgoal/internal/action"
	"github.com/gitgoal/gitgoal/internal/config"
	"github.com/gitgoal/gitgoal/internal/git"
	"github.com/gitgoal/gitgoal/internal/logging"
	"github.com/gitgoal/gitgoal/internal/observe"
	"github.com/gitgoal/gitgoal/internal/planner"
)

// runtime bundles the collaborators every command needs.
type runtime struct {
	repoPath string
	cfg      *config.Config
	logger   *logging.Logger
	facade   *git.Facade
	observer *observe.Observer
	registry *action.Registry
	planner  *planner.Planner
	env      *action.Env
}

// buildRuntime loads configuration and assembles the core around the
// repository named by the --repo flag.
func buildRuntime(cmd *cobra.Command) (*runtime, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	repoFlag, _ := cmd.Flags().GetString("repo")
	repoPath, err := filepath.Abs(repoFlag)
	if err != nil {
		return nil, err
	}

	logger := logging.New(os.Stderr, cfg.Logging.Level, cfg.Logging.JSON).WithRepo(repoPath)

	facade := git.New(repoPath, logger, git.Options{
		DryRun:         cfg.Safety.DryRun,
		ObserveTimeout: time.Duration(cfg.Safety.ObserveTimeoutSec) * time.Second,
		MutateTimeout:  time.Duration(cfg.Safety.MutateTimeoutSec) * time.Second,
	})

	registry := action.DefaultRegistry()

	return &runtime{
		repoPath: repoPath,
		cfg:      cfg,
		logger:   logger,
		facade:   facade,
		observer: observe.NewObserver(facade, logger),
		registry: registry,
		planner:  planner.New(registry, cfg),
		env:      &action.Env{Facade: facade, Logger: logger, Config: cfg},
	}, nil
}
