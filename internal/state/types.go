// Package state defines the value types flowing between the observer,
// planner, and executor: repository snapshots, goal specifications, and
// plans. All types here are treated as immutable snapshots; transitions
// produce new values, and identity is structural.
package state

// -----------------------------------------------------------------------------
// Enums
// -----------------------------------------------------------------------------

// RiskLevel is the assessed risk of operating on a repository state.
type RiskLevel string

const (
	// RiskLow means the repository is clean and safe to mutate.
	RiskLow RiskLevel = "low"
	// RiskMedium means local modifications are present.
	RiskMedium RiskLevel = "medium"
	// RiskHigh means conflicts or an in-flight operation are present.
	RiskHigh RiskLevel = "high"
)

// rank orders risk levels for comparisons and cost multipliers.
func (r RiskLevel) rank() int {
	switch r {
	case RiskMedium:
		return 1
	case RiskHigh:
		return 2
	default:
		return 0
	}
}

// AtLeast reports whether r is at least as severe as other.
func (r RiskLevel) AtLeast(other RiskLevel) bool {
	return r.rank() >= other.rank()
}

// ConflictType categorizes a conflicted path by its content kind.
type ConflictType string

const (
	ConflictText   ConflictType = "text"
	ConflictJSON   ConflictType = "json"
	ConflictYAML   ConflictType = "yaml"
	ConflictLock   ConflictType = "lock"
	ConflictBinary ConflictType = "binary"
)

// TestResult is the remembered outcome of the most recent test run.
type TestResult string

const (
	TestsUnknown TestResult = "unknown"
	TestsPassed  TestResult = "passed"
	TestsFailed  TestResult = "failed"
)

// GoalMode selects how far the assistant should drive the repository.
type GoalMode string

const (
	// ModeResolveOnly clears conflicts and in-flight operations.
	ModeResolveOnly GoalMode = "resolve_only"
	// ModeRebaseToUpstream additionally requires zero commits behind upstream.
	ModeRebaseToUpstream GoalMode = "rebase_to_upstream"
	// ModePushWithLease additionally requires the branch to be pushed.
	ModePushWithLease GoalMode = "push_with_lease"
)

// Rank orders goal modes by how much they demand.
func (m GoalMode) Rank() int {
	switch m {
	case ModeRebaseToUpstream:
		return 1
	case ModePushWithLease:
		return 2
	case ModeResolveOnly:
		return 0
	default:
		return -1
	}
}

// Valid reports whether m is a known goal mode.
func (m GoalMode) Valid() bool { return m.Rank() >= 0 }

// -----------------------------------------------------------------------------
// Leaf values
// -----------------------------------------------------------------------------

// RepoRef is a named reference with optional upstream tracking reference and
// resolved commit id.
type RepoRef struct {
	Branch   string
	Tracking string
	SHA      string
}

// ConflictDetail describes one conflicted path.
type ConflictDetail struct {
	Path string
	// HunkCount is the estimated number of conflict regions in the file.
	HunkCount int
	Type      ConflictType
	// TrivialRatio in [0,1] estimates the share of hunks resolvable by rule,
	// currently those whose sides differ only in whitespace or line endings.
	TrivialRatio float64
	// PreferredStrategy optionally hints at a resolution ("ours", "theirs",
	// "merge-driver:<name>").
	PreferredStrategy string
}

// Trivial reports whether every hunk in the conflict is rule-resolvable.
func (c ConflictDetail) Trivial() bool { return c.TrivialRatio >= 1.0 }

// typeWeight scales conflict difficulty by content kind. Binary conflicts
// cannot be merged textually and dominate the difficulty estimate.
func (c ConflictDetail) typeWeight() float64 {
	switch c.Type {
	case ConflictJSON, ConflictYAML:
		return 0.8
	case ConflictLock:
		return 0.6
	case ConflictBinary:
		return 2.0
	default:
		return 1.0
	}
}

// Difficulty is the per-path contribution to RepoState.ConflictDifficulty.
func (c ConflictDetail) Difficulty() float64 {
	hunks := float64(c.HunkCount)
	if hunks < 0 {
		hunks = 0
	}
	trivial := c.TrivialRatio
	if trivial < 0 {
		trivial = 0
	} else if trivial > 1 {
		trivial = 1
	}
	return hunks * (1 - trivial) * c.typeWeight()
}

// GoalSpec is the goal predicate the planner searches toward.
type GoalSpec struct {
	Mode          GoalMode
	TestsMustPass bool
	PushWithLease bool
}

// Satisfied reports whether s meets the goal.
func (g GoalSpec) Satisfied(s RepoState) bool {
	if len(s.Conflicts) > 0 || s.OngoingRebase || s.OngoingMerge {
		return false
	}
	if !s.WorkingTreeClean || s.StagedChanges {
		return false
	}
	if g.Mode.Rank() >= ModeRebaseToUpstream.Rank() && s.DivergedRemote != 0 {
		return false
	}
	if g.TestsMustPass && s.TestsLastResult != TestsPassed {
		return false
	}
	if g.PushWithLease && s.HasUnpushedCommits {
		return false
	}
	return true
}
