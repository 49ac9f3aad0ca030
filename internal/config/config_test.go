package config

import (
	"strings"
	"testing"

	"github.com/spf13/viper"
)

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
	if !cfg.Safety.DryRun {
		t.Error("default must be dry-run")
	}
	if cfg.Safety.AllowForcePush {
		t.Error("default must not allow force push")
	}
	if cfg.Planner.MaxExpansions != 5000 || cfg.Planner.MaxPlanLength != 32 || cfg.Planner.MaxReplans != 3 {
		t.Errorf("unexpected planner bounds: %+v", cfg.Planner)
	}
}

func TestLoad_FromTOML(t *testing.T) {
	viper.Reset()
	defer viper.Reset()
	SetDefaults()
	viper.SetConfigType("toml")

	raw := `
[goal]
mode = "push_with_lease"
tests_must_pass = true
push_with_lease = true

[safety]
dry_run = false
allow_force_push = true

[[strategy.rules]]
pattern = "**/*.lock"
resolution = "theirs"

[[strategy.rules]]
pattern = "docs/**"
resolution = "ours"
when = "whitespace_only"
`
	if err := viper.ReadConfig(strings.NewReader(raw)); err != nil {
		t.Fatalf("ReadConfig: %v", err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Goal.Mode != "push_with_lease" || !cfg.Goal.TestsMustPass {
		t.Errorf("goal section not applied: %+v", cfg.Goal)
	}
	if cfg.Safety.DryRun || !cfg.Safety.AllowForcePush {
		t.Errorf("safety section not applied: %+v", cfg.Safety)
	}
	if len(cfg.Strategy.Rules) != 2 {
		t.Fatalf("rules = %d, want 2", len(cfg.Strategy.Rules))
	}
	if cfg.Strategy.Rules[0].Pattern != "**/*.lock" || cfg.Strategy.Rules[0].Resolution != "theirs" {
		t.Errorf("first rule = %+v", cfg.Strategy.Rules[0])
	}
	// Untouched sections keep defaults.
	if cfg.Strategy.ConflictStyle != "zdiff3" {
		t.Errorf("conflict style default lost: %q", cfg.Strategy.ConflictStyle)
	}
}

func TestValidate_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"bad mode", func(c *Config) { c.Goal.Mode = "yolo" }, "goal.mode"},
		{"bad conflict style", func(c *Config) { c.Strategy.ConflictStyle = "union" }, "strategy.conflict_style"},
		{"negative alpha", func(c *Config) { c.Planner.Alpha = -1 }, "planner.alpha"},
		{"zero expansions", func(c *Config) { c.Planner.MaxExpansions = 0 }, "planner.max_expansions"},
		{"empty pattern", func(c *Config) {
			c.Strategy.Rules = []StrategyRule{{Pattern: "", Resolution: "ours"}}
		}, "strategy.rules[0].pattern"},
		{"bad resolution", func(c *Config) {
			c.Strategy.Rules = []StrategyRule{{Pattern: "*.lock", Resolution: "union"}}
		}, "strategy.rules[0].resolution"},
		{"bare merge-driver", func(c *Config) {
			c.Strategy.Rules = []StrategyRule{{Pattern: "*.json", Resolution: "merge-driver:"}}
		}, "strategy.rules[0].resolution"},
		{"bad when", func(c *Config) {
			c.Strategy.Rules = []StrategyRule{{Pattern: "*.go", Resolution: "ours", When: "fridays"}}
		}, "strategy.rules[0].when"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			var verr *ValidationError
			if !asValidation(err, &verr) {
				t.Fatalf("error type = %T, want *ValidationError", err)
			}
			if verr.Field != tt.field {
				t.Errorf("Field = %q, want %q", verr.Field, tt.field)
			}
		})
	}
}

func TestValidate_MergeDriverResolution(t *testing.T) {
	cfg := Default()
	cfg.Strategy.Rules = []StrategyRule{{Pattern: "*.json", Resolution: "merge-driver:structured"}}
	if err := cfg.Validate(); err != nil {
		t.Errorf("merge-driver resolution should validate: %v", err)
	}
}

func asValidation(err error, target **ValidationError) bool {
	v, ok := err.(*ValidationError)
	if ok {
		*target = v
	}
	return ok
}
