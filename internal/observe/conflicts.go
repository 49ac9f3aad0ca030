package observe

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"

	"github.com/gitgoal/gitgoal/internal/errors"
	"github.com/gitgoal/gitgoal/internal/state"
)

// lockFilenames are well-known dependency lockfiles that do not carry the
// .lock extension convention.
var lockFilenames = map[string]bool{
	"package-lock.json": true,
	"yarn.lock":         true,
	"cargo.lock":        true,
	"gemfile.lock":      true,
	"poetry.lock":       true,
	"go.sum":            true,
}

// binarySniffLen bounds how much of a file the null-byte sniff reads.
const binarySniffLen = 8000

// ClassifyPath maps a repository-relative path to a conflict type. Lockfile
// names win over the json extension so package-lock.json classifies as lock.
func ClassifyPath(path string) state.ConflictType {
	lowered := strings.ToLower(filepath.Base(path))
	if lockFilenames[lowered] || strings.HasSuffix(lowered, ".lock") {
		return state.ConflictLock
	}
	switch {
	case strings.HasSuffix(lowered, ".json"):
		return state.ConflictJSON
	case strings.HasSuffix(lowered, ".yaml"), strings.HasSuffix(lowered, ".yml"):
		return state.ConflictYAML
	default:
		return state.ConflictText
	}
}

// ParseConflictFile reads the working copy of a conflicted path and produces
// its ConflictDetail: hunk count, classification, and the trivial ratio.
func ParseConflictFile(repoPath, relPath string) (state.ConflictDetail, error) {
	data, err := os.ReadFile(filepath.Join(repoPath, relPath))
	if err != nil {
		// The working copy can be absent for delete/delete conflicts.
		return state.ConflictDetail{Path: relPath, Type: ClassifyPath(relPath)}, nil
	}

	if bytes.IndexByte(data[:min(len(data), binarySniffLen)], 0) >= 0 {
		return state.ConflictDetail{Path: relPath, HunkCount: 1, Type: state.ConflictBinary}, nil
	}

	hunks, err := scanConflictHunks(relPath, data)
	if err != nil {
		return state.ConflictDetail{}, err
	}

	trivial := 0
	for _, h := range hunks {
		if h.trivial() {
			trivial++
		}
	}
	ratio := 0.0
	if len(hunks) > 0 {
		ratio = float64(trivial) / float64(len(hunks))
	}

	return state.ConflictDetail{
		Path:         relPath,
		HunkCount:    len(hunks),
		Type:         ClassifyPath(relPath),
		TrivialRatio: ratio,
	}, nil
}

// conflictHunk holds the two sides of one conflict region.
type conflictHunk struct {
	ours   []string
	theirs []string
}

// trivial reports whether the two sides differ only in whitespace or line
// endings.
func (h conflictHunk) trivial() bool {
	return stripWhitespace(h.ours) == stripWhitespace(h.theirs)
}

func stripWhitespace(lines []string) string {
	var b strings.Builder
	for _, line := range lines {
		b.WriteString(strings.Join(strings.Fields(line), ""))
	}
	return b.String()
}

// scanConflictHunks walks the file line by line. A region begins at
// `<<<<<<<`, may contain a `|||||||` base section and exactly one `=======`,
// and ends at `>>>>>>>`. Anything unbalanced is a ParseError.
func scanConflictHunks(path string, data []byte) ([]conflictHunk, error) {
	const (
		outside = iota
		inOurs
		inBase
		inTheirs
	)

	var hunks []conflictHunk
	var current conflictHunk
	section := outside

	for _, rawLine := range strings.Split(string(data), "\n") {
		line := strings.TrimSuffix(rawLine, "\r")
		switch {
		case strings.HasPrefix(line, "<<<<<<<"):
			if section != outside {
				return nil, errors.NewParseError("conflict-markers", path+": nested conflict start")
			}
			current = conflictHunk{}
			section = inOurs
		case strings.HasPrefix(line, "|||||||"):
			if section != inOurs {
				return nil, errors.NewParseError("conflict-markers", path+": misplaced base marker")
			}
			section = inBase
		case strings.HasPrefix(line, "======="):
			if section != inOurs && section != inBase {
				return nil, errors.NewParseError("conflict-markers", path+": misplaced separator")
			}
			section = inTheirs
		case strings.HasPrefix(line, ">>>>>>>"):
			if section != inTheirs {
				return nil, errors.NewParseError("conflict-markers", path+": unbalanced conflict end")
			}
			hunks = append(hunks, current)
			section = outside
		default:
			switch section {
			case inOurs:
				current.ours = append(current.ours, line)
			case inTheirs:
				current.theirs = append(current.theirs, line)
			}
		}
	}

	if section != outside {
		return nil, errors.NewParseError("conflict-markers", path+": unterminated conflict region")
	}
	return hunks, nil
}
