package observe

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gitgoal/gitgoal/internal/git"
	"github.com/gitgoal/gitgoal/internal/logging"
	"github.com/gitgoal/gitgoal/internal/state"
)

// scriptedRunner replays canned git output keyed by subcommand.
type scriptedRunner struct {
	outputs map[string]string
	calls   []string
}

func (r *scriptedRunner) Run(_ context.Context, _ string, argv []string) (int, string, string, error) {
	r.calls = append(r.calls, argv[0])
	out, ok := r.outputs[argv[0]]
	if !ok {
		return 0, "", "", nil
	}
	return 0, out, "", nil
}

func newTestObserver(t *testing.T, repoDir string, outputs map[string]string) (*Observer, *scriptedRunner) {
	t.Helper()
	if _, ok := outputs["rev-parse"]; !ok {
		outputs["rev-parse"] = ".git\n"
	}
	runner := &scriptedRunner{outputs: outputs}
	facade := git.New(repoDir, logging.NopLogger(), git.Options{Runner: runner})
	return NewObserver(facade, logging.NopLogger()), runner
}

func mkRepoDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, ".git"), 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	return dir
}

func TestObserve_CleanRepository(t *testing.T) {
	dir := mkRepoDir(t)
	observer, _ := newTestObserver(t, dir, map[string]string{
		"status": "# branch.oid abc123\n# branch.head main\n# branch.upstream origin/main\n# branch.ab +0 -0\n",
	})

	s, err := observer.Observe(context.Background())
	if err != nil {
		t.Fatalf("Observe: %v", err)
	}

	if !s.WorkingTreeClean || s.StagedChanges {
		t.Errorf("state should be clean: %+v", s)
	}
	if s.OngoingRebase || s.OngoingMerge {
		t.Error("no in-flight operation expected")
	}
	if s.RiskLevel != state.RiskLow {
		t.Errorf("RiskLevel = %s, want low", s.RiskLevel)
	}
	if s.Ref.Branch != "main" || s.Ref.Tracking != "origin/main" {
		t.Errorf("Ref = %+v", s.Ref)
	}
}

func TestObserve_IdempotentOnQuietRepo(t *testing.T) {
	dir := mkRepoDir(t)
	observer, _ := newTestObserver(t, dir, map[string]string{
		"status": "# branch.oid abc123\n# branch.head main\n# branch.upstream origin/main\n# branch.ab +1 -0\n",
	})
	// Pin the clock so staleness does not move between observations.
	now := time.Now()
	observer.WithClock(func() time.Time { return now })

	first, err := observer.Observe(context.Background())
	if err != nil {
		t.Fatalf("first Observe: %v", err)
	}
	second, err := observer.Observe(context.Background())
	if err != nil {
		t.Fatalf("second Observe: %v", err)
	}

	if !first.Equal(second) {
		t.Error("observing twice on a quiet repository must return equal states")
	}
}

func TestObserve_RebaseInFlightWithConflicts(t *testing.T) {
	dir := mkRepoDir(t)
	if err := os.MkdirAll(filepath.Join(dir, ".git", "rebase-merge"), 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	writeFile(t, dir, "app.lock", "<<<<<<< HEAD\nv1\n=======\nv2\n>>>>>>> other\n")

	observer, _ := newTestObserver(t, dir, map[string]string{
		"status": "# branch.oid abc123\n# branch.head feature\n# branch.upstream origin/feature\n# branch.ab +0 -2\n" +
			"u UU N... 100644 100644 100644 100644 a b c app.lock\n",
	})

	s, err := observer.Observe(context.Background())
	if err != nil {
		t.Fatalf("Observe: %v", err)
	}

	if !s.OngoingRebase {
		t.Error("rebase-merge directory should mark ongoing rebase")
	}
	if len(s.Conflicts) != 1 {
		t.Fatalf("Conflicts = %v, want one", s.Conflicts)
	}
	if s.Conflicts[0].Type != state.ConflictLock {
		t.Errorf("conflict type = %s, want lock", s.Conflicts[0].Type)
	}
	if s.RiskLevel != state.RiskHigh {
		t.Errorf("RiskLevel = %s, want high", s.RiskLevel)
	}
	if s.WorkingTreeClean {
		t.Error("conflicted tree cannot be clean")
	}
}

func TestObserve_MergeInFlight(t *testing.T) {
	dir := mkRepoDir(t)
	writeFile(t, dir, ".git/MERGE_HEAD", "abc123\n")

	observer, _ := newTestObserver(t, dir, map[string]string{
		"status": "# branch.oid abc123\n# branch.head main\n",
	})

	s, err := observer.Observe(context.Background())
	if err != nil {
		t.Fatalf("Observe: %v", err)
	}
	if !s.OngoingMerge {
		t.Error("MERGE_HEAD should mark ongoing merge")
	}
}

func TestObserve_PredictsConflictsWhenBehind(t *testing.T) {
	dir := mkRepoDir(t)
	observer, runner := newTestObserver(t, dir, map[string]string{
		"status":     "# branch.oid abc123\n# branch.head feature\n# branch.upstream origin/main\n# branch.ab +1 -3\n",
		"merge-tree": "deadbeef\nCONFLICT (content): Merge conflict in src/app.go\n",
	})

	s, err := observer.Observe(context.Background())
	if err != nil {
		t.Fatalf("Observe: %v", err)
	}

	if len(s.PredictedConflicts) != 1 || s.PredictedConflicts[0].Path != "src/app.go" {
		t.Errorf("PredictedConflicts = %v", s.PredictedConflicts)
	}
	if !s.HasUnpushedCommits {
		t.Error("ahead > 0 implies unpushed commits")
	}
	if s.StalenessScore <= 0 {
		t.Error("behind with tracking ref implies positive staleness")
	}

	sawMergeTree := false
	for _, call := range runner.calls {
		if call == "merge-tree" {
			sawMergeTree = true
		}
	}
	if !sawMergeTree {
		t.Error("observer should run the merge-tree preview when behind")
	}
}

func TestObserve_BackupRefDetection(t *testing.T) {
	dir := mkRepoDir(t)
	observer, _ := newTestObserver(t, dir, map[string]string{
		"status":       "# branch.oid abc123\n# branch.head main\n# branch.upstream origin/main\n# branch.ab +0 -0\n",
		"for-each-ref": "abc123\n",
	})

	s, err := observer.Observe(context.Background())
	if err != nil {
		t.Fatalf("Observe: %v", err)
	}
	if !s.HasBackupRef {
		t.Error("backup ref at HEAD should be detected")
	}
}

func TestObserve_RetriesParseErrorOnce(t *testing.T) {
	dir := mkRepoDir(t)
	observer, runner := newTestObserver(t, dir, map[string]string{
		"status": "garbage entry\n",
	})

	_, err := observer.Observe(context.Background())
	if err == nil {
		t.Fatal("persistent parse failure should surface")
	}

	statusCalls := 0
	for _, call := range runner.calls {
		if call == "status" {
			statusCalls++
		}
	}
	if statusCalls != 2 {
		t.Errorf("status invoked %d times, want 2 (retry once)", statusCalls)
	}
}
