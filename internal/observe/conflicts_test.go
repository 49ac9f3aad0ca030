package observe

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/gitgoal/gitgoal/internal/errors"
	"github.com/gitgoal/gitgoal/internal/state"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
}

func TestClassifyPath(t *testing.T) {
	tests := []struct {
		path string
		want state.ConflictType
	}{
		{"config/app.json", state.ConflictJSON},
		{"deploy.yaml", state.ConflictYAML},
		{"deploy.yml", state.ConflictYAML},
		{"Cargo.lock", state.ConflictLock},
		{"package-lock.json", state.ConflictLock},
		{"go.sum", state.ConflictLock},
		{"main.go", state.ConflictText},
		{"README", state.ConflictText},
	}
	for _, tt := range tests {
		if got := ClassifyPath(tt.path); got != tt.want {
			t.Errorf("ClassifyPath(%q) = %s, want %s", tt.path, got, tt.want)
		}
	}
}

func TestParseConflictFile_CountsHunks(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "main.go", `package main
<<<<<<< HEAD
func a() {}
=======
func b() {}
>>>>>>> origin/main
var x = 1
<<<<<<< HEAD
var y = 2
=======
var y = 3
>>>>>>> origin/main
`)

	detail, err := ParseConflictFile(dir, "main.go")
	if err != nil {
		t.Fatalf("ParseConflictFile: %v", err)
	}
	if detail.HunkCount != 2 {
		t.Errorf("HunkCount = %d, want 2", detail.HunkCount)
	}
	if detail.Type != state.ConflictText {
		t.Errorf("Type = %s, want text", detail.Type)
	}
	if detail.TrivialRatio != 0 {
		t.Errorf("TrivialRatio = %v, want 0", detail.TrivialRatio)
	}
}

func TestParseConflictFile_TrivialWhitespaceHunk(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "fmt.go", "<<<<<<< HEAD\nx :=1\n=======\nx := 1\n>>>>>>> other\n<<<<<<< HEAD\nreal change\n=======\ndifferent change\n>>>>>>> other\n")

	detail, err := ParseConflictFile(dir, "fmt.go")
	if err != nil {
		t.Fatalf("ParseConflictFile: %v", err)
	}
	if detail.HunkCount != 2 {
		t.Fatalf("HunkCount = %d, want 2", detail.HunkCount)
	}
	if detail.TrivialRatio != 0.5 {
		t.Errorf("TrivialRatio = %v, want 0.5", detail.TrivialRatio)
	}
}

func TestParseConflictFile_Zdiff3BaseSection(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.txt", "<<<<<<< HEAD\nours\n||||||| base\noriginal\n=======\ntheirs\n>>>>>>> other\n")

	detail, err := ParseConflictFile(dir, "a.txt")
	if err != nil {
		t.Fatalf("ParseConflictFile: %v", err)
	}
	if detail.HunkCount != 1 {
		t.Errorf("HunkCount = %d, want 1", detail.HunkCount)
	}
}

func TestParseConflictFile_BinarySniff(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "logo.png", "\x89PNG\x00\x00junk")

	detail, err := ParseConflictFile(dir, "logo.png")
	if err != nil {
		t.Fatalf("ParseConflictFile: %v", err)
	}
	if detail.Type != state.ConflictBinary {
		t.Errorf("Type = %s, want binary", detail.Type)
	}
}

func TestParseConflictFile_UnbalancedMarkers(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"unterminated", "<<<<<<< HEAD\nours\n=======\ntheirs\n"},
		{"orphan end", ">>>>>>> other\n"},
		{"nested start", "<<<<<<< HEAD\n<<<<<<< HEAD\n=======\n>>>>>>> x\n"},
		{"separator outside", "=======\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeFile(t, dir, "broken.txt", tt.content)

			_, err := ParseConflictFile(dir, "broken.txt")
			if err == nil {
				t.Fatal("expected ParseError")
			}
			var parse *errors.ParseError
			if !errors.As(err, &parse) {
				t.Errorf("error type = %T, want *ParseError", err)
			}
		})
	}
}

func TestParseConflictFile_MissingWorkingCopy(t *testing.T) {
	detail, err := ParseConflictFile(t.TempDir(), "deleted.go")
	if err != nil {
		t.Fatalf("missing files should not error: %v", err)
	}
	if detail.HunkCount != 0 || detail.Path != "deleted.go" {
		t.Errorf("detail = %+v", detail)
	}
}
