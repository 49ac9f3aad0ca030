package diagnose

import (
	"context"
	"strings"
	"testing"

	"github.com/gitgoal/gitgoal/internal/git"
	"github.com/gitgoal/gitgoal/internal/logging"
)

// scriptedRunner replays canned output keyed by subcommand.
type scriptedRunner struct {
	outputs map[string]string
	exits   map[string]int
}

func (r *scriptedRunner) Run(_ context.Context, _ string, argv []string) (int, string, string, error) {
	key := argv[0]
	if argv[0] == "config" && len(argv) > 2 {
		key = "config " + argv[2]
	}
	exit := r.exits[key]
	return exit, r.outputs[key], "", nil
}

func newFacade(runner *scriptedRunner) *git.Facade {
	return git.New("/tmp/repo", logging.NopLogger(), git.Options{Runner: runner})
}

func TestGenerate_ConfigChecks(t *testing.T) {
	runner := &scriptedRunner{
		outputs: map[string]string{
			"config merge.conflictStyle": "zdiff3\n",
			"config rerere.enabled":      "false\n",
		},
		exits: map[string]int{
			"config pull.rebase": 1, // unset
		},
	}

	report, err := Generate(context.Background(), newFacade(runner))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if len(report.GitConfig) != 3 {
		t.Fatalf("checks = %d, want 3", len(report.GitConfig))
	}
	byKey := map[string]ConfigCheck{}
	for _, c := range report.GitConfig {
		byKey[c.Key] = c
	}
	if !byKey["merge.conflictStyle"].Matches {
		t.Error("zdiff3 should match the recommendation")
	}
	if byKey["rerere.enabled"].Matches {
		t.Error("false must not match the recommended true")
	}
	if byKey["pull.rebase"].Detected != "" {
		t.Error("unset key must report empty detected value")
	}
}

func TestGenerate_StatsAndGuidance(t *testing.T) {
	runner := &scriptedRunner{
		outputs: map[string]string{
			"count-objects": "count: 10\nsize: 40\nin-pack: 100\nsize-pack: 2000000\n",
			"ls-files":      "a.go\nb.go\n",
			"rev-list":      "1234\n",
		},
	}

	report, err := Generate(context.Background(), newFacade(runner))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if report.Stats == nil {
		t.Fatal("stats missing")
	}
	if report.Stats.TrackedFiles != 2 || report.Stats.CommitCount != 1234 || report.Stats.SizePackKiB != 2000000 {
		t.Errorf("stats = %+v", report.Stats)
	}
	if !report.Guidance.Triggered {
		t.Error("oversized pack should trigger guidance")
	}
}

func TestGenerate_Diffstat(t *testing.T) {
	diff := `diff --git a/main.go b/main.go
index 0000000..1111111 100644
--- a/main.go
+++ b/main.go
@@ -1,3 +1,4 @@
 package main
+import "fmt"
 func main() {
-	run()
+	fmt.Println("run")
 }
`
	runner := &scriptedRunner{outputs: map[string]string{"diff": diff}}

	report, err := Generate(context.Background(), newFacade(runner))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if report.Diffstat == nil {
		t.Fatal("diffstat missing")
	}
	if report.Diffstat.FilesChanged != 1 {
		t.Errorf("FilesChanged = %d, want 1", report.Diffstat.FilesChanged)
	}
	if report.Diffstat.Additions != 2 || report.Diffstat.Deletions != 1 {
		t.Errorf("Additions/Deletions = %d/%d, want 2/1", report.Diffstat.Additions, report.Diffstat.Deletions)
	}
}

func TestReport_JSON(t *testing.T) {
	report := Report{Guidance: Guidance{Triggered: false}}
	out, err := report.JSON(true)
	if err != nil {
		t.Fatalf("JSON: %v", err)
	}
	if !strings.Contains(out, "large_repo_guidance") {
		t.Errorf("JSON = %s", out)
	}
}
