package state

// RepoState is the observation snapshot consumed by the planner and compared
// against predictions by the executor. Treat values as frozen: use With to
// derive modified copies. Derived fields (ConflictDifficulty, RiskLevel) are
// recomputed on every reconstruction.
type RepoState struct {
	RepoPath string
	Ref      RepoRef

	// DivergedLocal and DivergedRemote are the ahead/behind commit counts
	// relative to the tracking reference. Never negative.
	DivergedLocal  int
	DivergedRemote int

	WorkingTreeClean bool
	StagedChanges    bool

	OngoingRebase bool
	OngoingMerge  bool

	StashEntries int

	// Conflicts is the ordered set of currently conflicted paths; empty iff
	// no textual conflict exists.
	Conflicts []ConflictDetail

	// PredictedConflicts is the merge-tree preview of what a rebase onto the
	// tracking ref would conflict on. Populated by the observer when the
	// branch is behind; consumed by the rebase action's effect transformer.
	PredictedConflicts []ConflictDetail

	// ConflictDifficulty is Σ hunk_count · (1 − trivial_ratio) weighted by
	// conflict type. Derived.
	ConflictDifficulty float64

	TestsLastResult TestResult

	HasUnpushedCommits bool

	// HasBackupRef reports whether a backup ref currently points at HEAD.
	HasBackupRef bool

	// StalenessScore grows with DivergedRemote and elapsed time since the
	// last fetch. Zero means the remote view is fresh.
	StalenessScore float64

	// RiskLevel is derived from the fields above.
	RiskLevel RiskLevel
}

// With returns a copy of s with mutate applied and derived fields recomputed.
// The receiver is never modified; conflict slices are deep-copied first so
// the mutator may append or reslice freely.
func (s RepoState) With(mutate func(*RepoState)) RepoState {
	c := s.clone()
	if mutate != nil {
		mutate(&c)
	}
	c.normalize()
	return c
}

// Normalized returns s with counters clamped and derived fields recomputed.
// Observers call this before freezing a snapshot.
func (s RepoState) Normalized() RepoState {
	c := s.clone()
	c.normalize()
	return c
}

func (s RepoState) clone() RepoState {
	c := s
	c.Conflicts = append([]ConflictDetail(nil), s.Conflicts...)
	c.PredictedConflicts = append([]ConflictDetail(nil), s.PredictedConflicts...)
	return c
}

func (s *RepoState) normalize() {
	if s.DivergedLocal < 0 {
		s.DivergedLocal = 0
	}
	if s.DivergedRemote < 0 {
		s.DivergedRemote = 0
	}
	if s.StashEntries < 0 {
		s.StashEntries = 0
	}
	if s.StalenessScore < 0 {
		s.StalenessScore = 0
	}
	if s.TestsLastResult == "" {
		s.TestsLastResult = TestsUnknown
	}
	if s.WorkingTreeClean {
		// Invariant: a clean tree has nothing staged and no conflicts.
		s.StagedChanges = false
		s.Conflicts = nil
	}

	s.ConflictDifficulty = 0
	for _, c := range s.Conflicts {
		s.ConflictDifficulty += c.Difficulty()
	}

	s.RiskLevel = deriveRisk(*s)
}

// deriveRisk computes the risk level from the other fields.
func deriveRisk(s RepoState) RiskLevel {
	if len(s.Conflicts) > 0 || s.OngoingRebase || s.OngoingMerge {
		return RiskHigh
	}
	if !s.WorkingTreeClean || s.StagedChanges {
		return RiskMedium
	}
	return RiskLow
}

// Equal reports structural equality with other.
func (s RepoState) Equal(other RepoState) bool {
	return s.Digest() == other.Digest()
}

// ConflictPaths returns the conflicted paths in order.
func (s RepoState) ConflictPaths() []string {
	paths := make([]string, len(s.Conflicts))
	for i, c := range s.Conflicts {
		paths[i] = c.Path
	}
	return paths
}
