// Package config defines the gitgoal configuration schema and its loader.
// The Config value is constructed once at startup, validated, and passed by
// shared reference thereafter; no subsystem mutates it.
package config

import (
	"strings"

	"github.com/spf13/viper"

	"github.com/gitgoal/gitgoal/internal/state"
)

// Config is the complete gitgoal configuration.
type Config struct {
	Goal     GoalConfig     `mapstructure:"goal"`
	Strategy StrategyConfig `mapstructure:"strategy"`
	Safety   SafetyConfig   `mapstructure:"safety"`
	Planner  PlannerConfig  `mapstructure:"planner"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// GoalConfig declares the target state of a run.
type GoalConfig struct {
	// Mode is one of "resolve_only", "rebase_to_upstream", "push_with_lease".
	Mode          string `mapstructure:"mode"`
	TestsMustPass bool   `mapstructure:"tests_must_pass"`
	PushWithLease bool   `mapstructure:"push_with_lease"`
}

// StrategyConfig tunes conflict handling.
type StrategyConfig struct {
	EnableRerere bool `mapstructure:"enable_rerere"`
	// ConflictStyle is one of "merge", "diff3", "zdiff3".
	ConflictStyle string `mapstructure:"conflict_style"`
	// Rules are ordered; the first matching rule wins.
	Rules []StrategyRule `mapstructure:"rules"`
	// StructuredMerge enables the built-in JSON/YAML merge driver action.
	StructuredMerge bool `mapstructure:"structured_merge"`
	UpdateRefs      bool `mapstructure:"update_refs"`
	RebaseMerges    bool `mapstructure:"rebase_merges"`
	// TestCommand is the command RunTests executes, argv form.
	TestCommand []string `mapstructure:"test_command"`
}

// StrategyRule maps a repository-relative glob to a resolution.
type StrategyRule struct {
	Pattern string `mapstructure:"pattern"`
	// Resolution is "ours", "theirs", or "merge-driver:<name>".
	Resolution string `mapstructure:"resolution"`
	// When optionally restricts the rule, e.g. "whitespace_only".
	When string `mapstructure:"when"`
}

// SafetyConfig gates the mutating behaviors.
type SafetyConfig struct {
	DryRun            bool `mapstructure:"dry_run"`
	AllowForcePush    bool `mapstructure:"allow_force_push"`
	AllowRebaseAbort  bool `mapstructure:"allow_rebase_abort"`
	RequireBackupRef  bool `mapstructure:"require_backup_ref"`
	MaxTestRuntimeSec int  `mapstructure:"max_test_runtime_sec"`
	ObserveTimeoutSec int  `mapstructure:"observe_timeout_sec"`
	MutateTimeoutSec  int  `mapstructure:"mutate_timeout_sec"`
	// DriftDivergenceTolerance allows the observed diverged counts to differ
	// from the prediction by this much before a drift replan is forced.
	DriftDivergenceTolerance int `mapstructure:"drift_divergence_tolerance"`
}

// PlannerConfig carries the A* bounds and heuristic coefficients. The
// planner clamps coefficients to preserve admissibility; the validator only
// rejects negatives.
type PlannerConfig struct {
	Alpha float64 `mapstructure:"alpha"` // per open conflict
	Beta  float64 `mapstructure:"beta"`  // per diverged commit
	Gamma float64 `mapstructure:"gamma"` // in-flight rebase/merge indicator
	Delta float64 `mapstructure:"delta"` // per staleness unit
	// Epsilon weighs an outstanding test requirement.
	Epsilon float64 `mapstructure:"epsilon"`
	// Zeta weighs an outstanding push requirement.
	Zeta float64 `mapstructure:"zeta"`

	MaxExpansions int `mapstructure:"max_expansions"`
	MaxPlanLength int `mapstructure:"max_plan_length"`
	MaxReplans    int `mapstructure:"max_replans"`
}

// LoggingConfig controls record emission.
type LoggingConfig struct {
	Level string `mapstructure:"level"`
	JSON  bool   `mapstructure:"json"`
}

// GoalSpec converts the goal section to the planner's value type.
func (c *Config) GoalSpec() state.GoalSpec {
	return state.GoalSpec{
		Mode:          state.GoalMode(c.Goal.Mode),
		TestsMustPass: c.Goal.TestsMustPass,
		PushWithLease: c.Goal.PushWithLease,
	}
}

// SetDefaults registers every default with viper. Defaults are conservative:
// dry-run on, force push off, rebase abort manual.
func SetDefaults() {
	viper.SetDefault("goal.mode", string(state.ModeRebaseToUpstream))
	viper.SetDefault("goal.tests_must_pass", false)
	viper.SetDefault("goal.push_with_lease", false)

	viper.SetDefault("strategy.enable_rerere", true)
	viper.SetDefault("strategy.conflict_style", "zdiff3")
	viper.SetDefault("strategy.structured_merge", true)
	viper.SetDefault("strategy.update_refs", false)
	viper.SetDefault("strategy.rebase_merges", false)
	viper.SetDefault("strategy.test_command", []string{})

	viper.SetDefault("safety.dry_run", true)
	viper.SetDefault("safety.allow_force_push", false)
	viper.SetDefault("safety.allow_rebase_abort", false)
	viper.SetDefault("safety.require_backup_ref", true)
	viper.SetDefault("safety.max_test_runtime_sec", 600)
	viper.SetDefault("safety.observe_timeout_sec", 30)
	viper.SetDefault("safety.mutate_timeout_sec", 120)
	viper.SetDefault("safety.drift_divergence_tolerance", 1)

	viper.SetDefault("planner.alpha", 1.0)
	viper.SetDefault("planner.beta", 1.2)
	viper.SetDefault("planner.gamma", 0.5)
	viper.SetDefault("planner.delta", 0.3)
	viper.SetDefault("planner.epsilon", 2.0)
	viper.SetDefault("planner.zeta", 1.0)
	viper.SetDefault("planner.max_expansions", 5000)
	viper.SetDefault("planner.max_plan_length", 32)
	viper.SetDefault("planner.max_replans", 3)

	viper.SetDefault("logging.level", "INFO")
	viper.SetDefault("logging.json", false)
}

// Load unmarshals the viper state into a validated Config.
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the built-in configuration without touching viper's global
// state. Used by tests and as a fallback when no config file exists.
func Default() *Config {
	return &Config{
		Goal: GoalConfig{Mode: string(state.ModeRebaseToUpstream)},
		Strategy: StrategyConfig{
			EnableRerere:    true,
			ConflictStyle:   "zdiff3",
			StructuredMerge: true,
		},
		Safety: SafetyConfig{
			DryRun:                   true,
			RequireBackupRef:         true,
			MaxTestRuntimeSec:        600,
			ObserveTimeoutSec:        30,
			MutateTimeoutSec:         120,
			DriftDivergenceTolerance: 1,
		},
		Planner: PlannerConfig{
			Alpha: 1.0, Beta: 1.2, Gamma: 0.5, Delta: 0.3, Epsilon: 2.0, Zeta: 1.0,
			MaxExpansions: 5000,
			MaxPlanLength: 32,
			MaxReplans:    3,
		},
		Logging: LoggingConfig{Level: "INFO"},
	}
}

// resolutionValid reports whether a rule resolution is recognized.
func resolutionValid(resolution string) bool {
	if resolution == "ours" || resolution == "theirs" {
		return true
	}
	return strings.HasPrefix(resolution, "merge-driver:") && len(resolution) > len("merge-driver:")
}
