// Package observe turns git's machine-readable output into frozen RepoState
// snapshots: the porcelain v2 status parser, the conflict-marker scanner,
// the merge-tree previewer, and the observer that composes them.
package observe

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gitgoal/gitgoal/internal/errors"
)

// StatusSummary is the decoded porcelain v2 output used to build a RepoState.
type StatusSummary struct {
	Branch   string
	Tracking string
	SHA      string

	Ahead  int
	Behind int

	StagedChanges    bool
	WorkingTreeDirty bool
	UntrackedPresent bool

	StashEntries int

	// UnmergedPaths are conflicted paths in porcelain order.
	UnmergedPaths []string
	// ChangedPaths are ordinary changed paths in porcelain order.
	ChangedPaths []string

	// Warnings collects unrecognized headers; parsing is total.
	Warnings []string
}

// ParsePorcelain decodes `git status --porcelain=v2 --branch --ahead-behind
// --show-stash` output. Unknown headers are ignored with a warning; malformed
// entries yield a ParseError carrying the offending line.
func ParsePorcelain(output string) (StatusSummary, error) {
	summary := StatusSummary{Branch: "HEAD"}

	for _, raw := range strings.Split(output, "\n") {
		line := strings.TrimSuffix(raw, "\r")
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "# ") {
			summary.handleHeader(line[2:])
			continue
		}
		if err := summary.handleEntry(line); err != nil {
			return StatusSummary{}, err
		}
	}

	return summary, nil
}

func (s *StatusSummary) handleHeader(header string) {
	switch {
	case strings.HasPrefix(header, "branch.head "):
		s.Branch = header[len("branch.head "):]
	case strings.HasPrefix(header, "branch.upstream "):
		s.Tracking = header[len("branch.upstream "):]
	case strings.HasPrefix(header, "branch.oid "):
		oid := header[len("branch.oid "):]
		if oid != "(initial)" {
			s.SHA = oid
		}
	case strings.HasPrefix(header, "branch.ab "):
		tokens := strings.Fields(header)
		if len(tokens) >= 3 {
			s.Ahead = parseSigned(tokens[1])
			s.Behind = parseSigned(tokens[2])
		}
	case strings.HasPrefix(header, "stash "):
		if n, err := strconv.Atoi(header[len("stash "):]); err == nil {
			s.StashEntries = n
		}
	default:
		s.Warnings = append(s.Warnings, fmt.Sprintf("unrecognized status header: %q", header))
	}
}

func (s *StatusSummary) handleEntry(line string) error {
	switch line[0] {
	case '1':
		return s.handleOrdinary(line, 8)
	case '2':
		return s.handleRename(line)
	case 'u':
		return s.handleUnmerged(line)
	case '?':
		s.UntrackedPresent = true
		return nil
	case '!':
		return nil
	default:
		return errors.NewParseError("porcelain", line)
	}
}

// handleOrdinary decodes a "1" entry: 1 XY sub mH mI mW hH hI path.
func (s *StatusSummary) handleOrdinary(line string, pathField int) error {
	fields := strings.SplitN(line, " ", pathField+1)
	if len(fields) != pathField+1 || len(fields[1]) != 2 {
		return errors.NewParseError("porcelain", line)
	}
	s.applyXY(fields[1])

	path, err := unquotePath(fields[pathField])
	if err != nil {
		return errors.NewParseError("porcelain", line)
	}
	s.ChangedPaths = append(s.ChangedPaths, path)
	return nil
}

// handleRename decodes a "2" entry: 2 XY sub mH mI mW hH hI Xscore path\torigPath.
func (s *StatusSummary) handleRename(line string) error {
	fields := strings.SplitN(line, " ", 10)
	if len(fields) != 10 || len(fields[1]) != 2 {
		return errors.NewParseError("porcelain", line)
	}
	s.applyXY(fields[1])

	// The tab separates the new path from the original path.
	pathPart, _, found := strings.Cut(fields[9], "\t")
	if !found {
		return errors.NewParseError("porcelain", line)
	}
	path, err := unquotePath(pathPart)
	if err != nil {
		return errors.NewParseError("porcelain", line)
	}
	s.ChangedPaths = append(s.ChangedPaths, path)
	return nil
}

// handleUnmerged decodes a "u" entry: u XY sub m1 m2 m3 mW h1 h2 h3 path.
func (s *StatusSummary) handleUnmerged(line string) error {
	fields := strings.SplitN(line, " ", 11)
	if len(fields) != 11 || len(fields[1]) != 2 {
		return errors.NewParseError("porcelain", line)
	}
	s.WorkingTreeDirty = true

	path, err := unquotePath(fields[10])
	if err != nil {
		return errors.NewParseError("porcelain", line)
	}
	s.UnmergedPaths = append(s.UnmergedPaths, path)
	return nil
}

func (s *StatusSummary) applyXY(xy string) {
	if xy[0] != '.' {
		s.StagedChanges = true
	}
	if xy[1] != '.' {
		s.WorkingTreeDirty = true
	}
}

// parseSigned parses porcelain ahead/behind tokens like "+3" and "-0".
func parseSigned(token string) int {
	n, err := strconv.Atoi(strings.TrimLeft(token, "+-"))
	if err != nil {
		return 0
	}
	return n
}

// unquotePath decodes a porcelain path, handling git's C-style quoting for
// paths with special bytes. Decoding is byte-precise: octal escapes are
// restored exactly.
func unquotePath(raw string) (string, error) {
	if len(raw) < 2 || raw[0] != '"' {
		return raw, nil
	}
	if raw[len(raw)-1] != '"' {
		return "", fmt.Errorf("unterminated quoted path: %s", raw)
	}

	var b strings.Builder
	body := raw[1 : len(raw)-1]
	for i := 0; i < len(body); i++ {
		c := body[i]
		if c != '\\' {
			b.WriteByte(c)
			continue
		}
		i++
		if i >= len(body) {
			return "", fmt.Errorf("dangling escape in quoted path: %s", raw)
		}
		switch body[i] {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		case '"', '\\':
			b.WriteByte(body[i])
		case '0', '1', '2', '3':
			if i+2 >= len(body) {
				return "", fmt.Errorf("truncated octal escape in quoted path: %s", raw)
			}
			n, err := strconv.ParseUint(body[i:i+3], 8, 8)
			if err != nil {
				return "", fmt.Errorf("bad octal escape in quoted path: %s", raw)
			}
			b.WriteByte(byte(n))
			i += 2
		default:
			return "", fmt.Errorf("unknown escape %q in quoted path: %s", body[i], raw)
		}
	}
	return b.String(), nil
}
