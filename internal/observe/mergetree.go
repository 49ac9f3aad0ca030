package observe

import (
	"context"
	"strings"

	"github.com/gitgoal/gitgoal/internal/git"
	"github.com/gitgoal/gitgoal/internal/state"
)

// MergePreview is the outcome of a non-destructive three-way merge.
type MergePreview struct {
	// TreeID is the written tree when the output includes one. Unused by the
	// planner but exposed for caching.
	TreeID string
	// Conflicts are the predicted conflicted paths in first-seen order.
	Conflicts []state.ConflictDetail
}

// Clean reports whether the preview predicts no conflicts.
func (p MergePreview) Clean() bool { return len(p.Conflicts) == 0 }

// PreviewMerge runs `git merge-tree --write-tree ours theirs` and recovers
// the predicted conflict set. It never mutates the working tree or the index.
func PreviewMerge(ctx context.Context, facade *git.Facade, ours, theirs string) (MergePreview, error) {
	result, err := facade.Run(ctx, "merge-tree", "--write-tree", ours, theirs)
	if err != nil {
		return MergePreview{}, err
	}
	return parseMergeTree(result.Stdout), nil
}

// parseMergeTree decodes merge-tree --write-tree output: the first line is
// the written tree id, and conflicts are reported as informational lines of
// the form "CONFLICT (<kind>): ... in <path>".
func parseMergeTree(output string) MergePreview {
	preview := MergePreview{}
	seen := make(map[string]bool)

	for i, raw := range strings.Split(output, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		if i == 0 && !strings.HasPrefix(line, "CONFLICT") {
			preview.TreeID = line
			continue
		}
		if !strings.HasPrefix(line, "CONFLICT") {
			continue
		}
		idx := strings.LastIndex(line, " in ")
		if idx < 0 {
			continue
		}
		path := strings.TrimSpace(line[idx+len(" in "):])
		if path == "" || seen[path] {
			continue
		}
		seen[path] = true
		preview.Conflicts = append(preview.Conflicts, state.ConflictDetail{
			Path:      path,
			HunkCount: 1,
			Type:      ClassifyPath(path),
		})
	}

	return preview
}
