package observe

import (
	"testing"

	"github.com/gitgoal/gitgoal/internal/errors"
)

func TestParsePorcelain_BranchHeaders(t *testing.T) {
	output := "# branch.oid 4f2a9c8d\n" +
		"# branch.head feature/login\n" +
		"# branch.upstream origin/feature/login\n" +
		"# branch.ab +2 -5\n" +
		"# stash 3\n"

	summary, err := ParsePorcelain(output)
	if err != nil {
		t.Fatalf("ParsePorcelain: %v", err)
	}

	if summary.Branch != "feature/login" {
		t.Errorf("Branch = %q", summary.Branch)
	}
	if summary.Tracking != "origin/feature/login" {
		t.Errorf("Tracking = %q", summary.Tracking)
	}
	if summary.SHA != "4f2a9c8d" {
		t.Errorf("SHA = %q", summary.SHA)
	}
	if summary.Ahead != 2 || summary.Behind != 5 {
		t.Errorf("Ahead/Behind = %d/%d, want 2/5", summary.Ahead, summary.Behind)
	}
	if summary.StashEntries != 3 {
		t.Errorf("StashEntries = %d, want 3", summary.StashEntries)
	}
}

func TestParsePorcelain_InitialCommitOID(t *testing.T) {
	summary, err := ParsePorcelain("# branch.oid (initial)\n# branch.head main\n")
	if err != nil {
		t.Fatalf("ParsePorcelain: %v", err)
	}
	if summary.SHA != "" {
		t.Errorf("SHA = %q, want empty for initial commit", summary.SHA)
	}
}

func TestParsePorcelain_Entries(t *testing.T) {
	output := "# branch.head main\n" +
		"1 .M N... 100644 100644 100644 aaa bbb internal/app.go\n" +
		"1 M. N... 100644 100644 100644 aaa bbb staged.go\n" +
		"2 R. N... 100644 100644 100644 aaa bbb R100 new name.go\told.go\n" +
		"u UU N... 100644 100644 100644 100644 a b c conflicted.go\n" +
		"? notes.txt\n" +
		"! vendor/\n"

	summary, err := ParsePorcelain(output)
	if err != nil {
		t.Fatalf("ParsePorcelain: %v", err)
	}

	if !summary.WorkingTreeDirty {
		t.Error("worktree modification not detected")
	}
	if !summary.StagedChanges {
		t.Error("staged change not detected")
	}
	if !summary.UntrackedPresent {
		t.Error("untracked entry not detected")
	}
	if len(summary.UnmergedPaths) != 1 || summary.UnmergedPaths[0] != "conflicted.go" {
		t.Errorf("UnmergedPaths = %v", summary.UnmergedPaths)
	}
	wantChanged := []string{"internal/app.go", "staged.go", "new name.go"}
	if len(summary.ChangedPaths) != len(wantChanged) {
		t.Fatalf("ChangedPaths = %v, want %v", summary.ChangedPaths, wantChanged)
	}
	for i, want := range wantChanged {
		if summary.ChangedPaths[i] != want {
			t.Errorf("ChangedPaths[%d] = %q, want %q", i, summary.ChangedPaths[i], want)
		}
	}
}

func TestParsePorcelain_QuotedPaths(t *testing.T) {
	output := "1 .M N... 100644 100644 100644 aaa bbb \"sp\\303\\244ter plan.md\"\n"

	summary, err := ParsePorcelain(output)
	if err != nil {
		t.Fatalf("ParsePorcelain: %v", err)
	}
	if len(summary.ChangedPaths) != 1 || summary.ChangedPaths[0] != "später plan.md" {
		t.Errorf("quoted path decoded to %q", summary.ChangedPaths)
	}
}

func TestParsePorcelain_UnknownHeaderWarns(t *testing.T) {
	summary, err := ParsePorcelain("# branch.head main\n# future.extension xyz\n")
	if err != nil {
		t.Fatalf("unknown headers must not fail parsing: %v", err)
	}
	if len(summary.Warnings) != 1 {
		t.Errorf("Warnings = %v, want one entry", summary.Warnings)
	}
}

func TestParsePorcelain_MalformedEntry(t *testing.T) {
	tests := []string{
		"1 .M\n",
		"x whatever\n",
		"u UU N... 100644 conflicted.go\n",
	}

	for _, output := range tests {
		_, err := ParsePorcelain(output)
		if err == nil {
			t.Errorf("ParsePorcelain(%q) should fail", output)
			continue
		}
		var parse *errors.ParseError
		if !errors.As(err, &parse) {
			t.Errorf("error type = %T, want *ParseError", err)
		}
	}
}

func TestUnquotePath_RoundTrips(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{`plain/path.go`, "plain/path.go"},
		{`"with space.go"`, "with space.go"},
		{`"tab\there"`, "tab\there"},
		{`"quote\"d"`, `quote"d`},
		{`"nl\n"`, "nl\n"},
	}
	for _, tt := range tests {
		got, err := unquotePath(tt.raw)
		if err != nil {
			t.Errorf("unquotePath(%q): %v", tt.raw, err)
			continue
		}
		if got != tt.want {
			t.Errorf("unquotePath(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}
