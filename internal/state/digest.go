package state

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
)

// Digest returns a canonical SHA-256 digest covering every RepoState field.
// Two states with equal digests are structurally equal; the planner keys its
// closed set on this value.
func (s RepoState) Digest() string {
	var b strings.Builder
	fmt.Fprintf(&b, "path=%s\n", s.RepoPath)
	fmt.Fprintf(&b, "ref=%s|%s|%s\n", s.Ref.Branch, s.Ref.Tracking, s.Ref.SHA)
	fmt.Fprintf(&b, "diverged=%d|%d\n", s.DivergedLocal, s.DivergedRemote)
	fmt.Fprintf(&b, "tree=%t|%t\n", s.WorkingTreeClean, s.StagedChanges)
	fmt.Fprintf(&b, "inflight=%t|%t\n", s.OngoingRebase, s.OngoingMerge)
	fmt.Fprintf(&b, "stash=%d\n", s.StashEntries)
	writeConflicts(&b, "conflicts", s.Conflicts)
	writeConflicts(&b, "predicted", s.PredictedConflicts)
	fmt.Fprintf(&b, "difficulty=%.6f\n", s.ConflictDifficulty)
	fmt.Fprintf(&b, "tests=%s\n", s.TestsLastResult)
	fmt.Fprintf(&b, "unpushed=%t\n", s.HasUnpushedCommits)
	fmt.Fprintf(&b, "backup=%t\n", s.HasBackupRef)
	fmt.Fprintf(&b, "staleness=%.6f\n", s.StalenessScore)
	fmt.Fprintf(&b, "risk=%s\n", s.RiskLevel)

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

// SafetyDigest covers only the fields the executor compares for drift:
// the conflict set, the in-flight flags, and the diverged counts.
func (s RepoState) SafetyDigest() string {
	var b strings.Builder
	paths := s.ConflictPaths()
	sort.Strings(paths)
	fmt.Fprintf(&b, "conflicts=%s\n", strings.Join(paths, ","))
	fmt.Fprintf(&b, "inflight=%t|%t\n", s.OngoingRebase, s.OngoingMerge)
	fmt.Fprintf(&b, "diverged=%d|%d\n", s.DivergedLocal, s.DivergedRemote)

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:8])
}

// SafetyMatches compares predicted and observed on the safety-relevant fields.
// The conflict sets must be equal as sets; the in-flight flags must match
// exactly; the diverged counts may differ by at most tolerance, which absorbs
// concurrent external fetches.
func SafetyMatches(predicted, observed RepoState, tolerance int) bool {
	if predicted.OngoingRebase != observed.OngoingRebase ||
		predicted.OngoingMerge != observed.OngoingMerge {
		return false
	}
	if !equalPathSets(predicted.ConflictPaths(), observed.ConflictPaths()) {
		return false
	}
	if absDiff(predicted.DivergedLocal, observed.DivergedLocal) > tolerance {
		return false
	}
	if absDiff(predicted.DivergedRemote, observed.DivergedRemote) > tolerance {
		return false
	}
	return true
}

func equalPathSets(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	sort.Strings(a)
	sort.Strings(b)
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func absDiff(a, b int) int {
	if a > b {
		return a - b
	}
	return b - a
}

func writeConflicts(b *strings.Builder, label string, conflicts []ConflictDetail) {
	fmt.Fprintf(b, "%s=%d\n", label, len(conflicts))
	for _, c := range conflicts {
		fmt.Fprintf(b, "  %s|%d|%s|%.6f|%s\n", c.Path, c.HunkCount, c.Type, c.TrivialRatio, c.PreferredStrategy)
	}
}
