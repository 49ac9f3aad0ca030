package state

import "testing"

func baseState() RepoState {
	return RepoState{
		RepoPath:         "/tmp/repo",
		Ref:              RepoRef{Branch: "feature", Tracking: "origin/feature", SHA: "abc123"},
		WorkingTreeClean: true,
		TestsLastResult:  TestsUnknown,
	}.Normalized()
}

func TestNormalized_CleanTreeImpliesNoConflicts(t *testing.T) {
	s := RepoState{
		WorkingTreeClean: true,
		StagedChanges:    true,
		Conflicts:        []ConflictDetail{{Path: "a.txt", HunkCount: 1}},
	}.Normalized()

	if s.StagedChanges {
		t.Error("clean tree must not have staged changes")
	}
	if len(s.Conflicts) != 0 {
		t.Error("clean tree must not carry conflicts")
	}
}

func TestNormalized_ClampsNegativeCounters(t *testing.T) {
	s := RepoState{DivergedLocal: -2, DivergedRemote: -1, StashEntries: -3, StalenessScore: -0.5}.Normalized()
	if s.DivergedLocal != 0 || s.DivergedRemote != 0 || s.StashEntries != 0 || s.StalenessScore != 0 {
		t.Errorf("negative counters not clamped: %+v", s)
	}
}

func TestWith_DoesNotMutateReceiver(t *testing.T) {
	orig := baseState().With(func(s *RepoState) {
		s.WorkingTreeClean = false
		s.Conflicts = []ConflictDetail{{Path: "a.txt", HunkCount: 2, Type: ConflictText}}
	})

	derived := orig.With(func(s *RepoState) {
		s.Conflicts = append(s.Conflicts, ConflictDetail{Path: "b.txt", HunkCount: 1, Type: ConflictText})
	})

	if len(orig.Conflicts) != 1 {
		t.Errorf("receiver mutated: %d conflicts, want 1", len(orig.Conflicts))
	}
	if len(derived.Conflicts) != 2 {
		t.Errorf("derived state has %d conflicts, want 2", len(derived.Conflicts))
	}
}

func TestConflictDifficulty_Weighted(t *testing.T) {
	s := baseState().With(func(s *RepoState) {
		s.WorkingTreeClean = false
		s.OngoingRebase = true
		s.Conflicts = []ConflictDetail{
			{Path: "a.txt", HunkCount: 2, Type: ConflictText, TrivialRatio: 0.5},
			{Path: "b.bin", HunkCount: 1, Type: ConflictBinary},
		}
	})

	// 2*0.5*1.0 + 1*1.0*2.0
	want := 3.0
	if s.ConflictDifficulty != want {
		t.Errorf("ConflictDifficulty = %v, want %v", s.ConflictDifficulty, want)
	}
}

func TestDeriveRisk(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*RepoState)
		want   RiskLevel
	}{
		{"clean", func(s *RepoState) {}, RiskLow},
		{"dirty", func(s *RepoState) { s.WorkingTreeClean = false }, RiskMedium},
		{"rebase in flight", func(s *RepoState) { s.OngoingRebase = true }, RiskHigh},
		{"conflicted", func(s *RepoState) {
			s.WorkingTreeClean = false
			s.Conflicts = []ConflictDetail{{Path: "a", HunkCount: 1}}
		}, RiskHigh},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := baseState().With(tt.mutate)
			if s.RiskLevel != tt.want {
				t.Errorf("RiskLevel = %s, want %s", s.RiskLevel, tt.want)
			}
		})
	}
}

func TestGoalSatisfied(t *testing.T) {
	clean := baseState()

	tests := []struct {
		name  string
		state RepoState
		goal  GoalSpec
		want  bool
	}{
		{
			name:  "resolve only on clean state",
			state: clean,
			goal:  GoalSpec{Mode: ModeResolveOnly},
			want:  true,
		},
		{
			name:  "rebase mode rejects behind",
			state: clean.With(func(s *RepoState) { s.DivergedRemote = 3 }),
			goal:  GoalSpec{Mode: ModeRebaseToUpstream},
			want:  false,
		},
		{
			name:  "resolve only tolerates behind",
			state: clean.With(func(s *RepoState) { s.DivergedRemote = 3 }),
			goal:  GoalSpec{Mode: ModeResolveOnly},
			want:  true,
		},
		{
			name:  "tests required",
			state: clean,
			goal:  GoalSpec{Mode: ModeResolveOnly, TestsMustPass: true},
			want:  false,
		},
		{
			name:  "tests passed",
			state: clean.With(func(s *RepoState) { s.TestsLastResult = TestsPassed }),
			goal:  GoalSpec{Mode: ModeResolveOnly, TestsMustPass: true},
			want:  true,
		},
		{
			name:  "push required",
			state: clean.With(func(s *RepoState) { s.HasUnpushedCommits = true }),
			goal:  GoalSpec{Mode: ModePushWithLease, PushWithLease: true},
			want:  false,
		},
		{
			name:  "conflicts block everything",
			state: clean.With(func(s *RepoState) {
				s.WorkingTreeClean = false
				s.OngoingRebase = true
				s.Conflicts = []ConflictDetail{{Path: "a", HunkCount: 1}}
			}),
			goal: GoalSpec{Mode: ModeResolveOnly},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.goal.Satisfied(tt.state); got != tt.want {
				t.Errorf("Satisfied = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDigest_Deterministic(t *testing.T) {
	a := baseState().With(func(s *RepoState) { s.DivergedRemote = 2; s.StalenessScore = 2 })
	b := baseState().With(func(s *RepoState) { s.DivergedRemote = 2; s.StalenessScore = 2 })

	if a.Digest() != b.Digest() {
		t.Error("equal states must produce equal digests")
	}
	if !a.Equal(b) {
		t.Error("Equal should hold for structurally equal states")
	}

	c := b.With(func(s *RepoState) { s.DivergedRemote = 3 })
	if a.Digest() == c.Digest() {
		t.Error("different states must produce different digests")
	}
}

func TestSafetyMatches_Tolerance(t *testing.T) {
	predicted := baseState().With(func(s *RepoState) { s.DivergedRemote = 0 })
	observed := baseState().With(func(s *RepoState) { s.DivergedRemote = 1 })

	if !SafetyMatches(predicted, observed, 1) {
		t.Error("diverged count within tolerance should match")
	}
	if SafetyMatches(predicted, observed, 0) {
		t.Error("zero tolerance should reject the difference")
	}

	conflicted := observed.With(func(s *RepoState) {
		s.WorkingTreeClean = false
		s.Conflicts = []ConflictDetail{{Path: "a", HunkCount: 1}}
	})
	if SafetyMatches(predicted, conflicted, 5) {
		t.Error("conflict set differences must never match")
	}
}

func TestPlan_HeadTail(t *testing.T) {
	p := Plan{Actions: []ActionSpec{{Name: "A"}, {Name: "B"}}, EstimatedCost: 2}
	if p.Empty() {
		t.Fatal("plan should not be empty")
	}
	if p.Head().Name != "A" {
		t.Errorf("Head = %s, want A", p.Head().Name)
	}
	tail := p.Tail()
	if len(tail.Actions) != 1 || tail.Actions[0].Name != "B" {
		t.Errorf("Tail = %+v, want single action B", tail.Actions)
	}
}
