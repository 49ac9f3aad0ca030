package observe

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gitgoal/gitgoal/internal/errors"
	"github.com/gitgoal/gitgoal/internal/git"
	"github.com/gitgoal/gitgoal/internal/logging"
	"github.com/gitgoal/gitgoal/internal/state"
)

// backupRefPrefix is where safety snapshots of HEAD live.
const backupRefPrefix = "refs/backup/goap"

// ConflictParser decodes one conflicted working copy. Injectable for tests.
type ConflictParser func(repoPath, relPath string) (state.ConflictDetail, error)

// Observer composes the porcelain parser, the conflict scanner, and the
// merge-tree previewer into RepoState snapshots. Observation is referentially
// transparent given a fixed repository on disk.
type Observer struct {
	facade  *git.Facade
	logger  *logging.Logger
	parser  ConflictParser
	clock   func() time.Time
	gitDir  string
}

// NewObserver creates an Observer over the given facade.
func NewObserver(facade *git.Facade, logger *logging.Logger) *Observer {
	return &Observer{
		facade: facade,
		logger: logger,
		parser: ParseConflictFile,
		clock:  time.Now,
	}
}

// WithConflictParser replaces the conflict parser. Test hook.
func (o *Observer) WithConflictParser(p ConflictParser) *Observer {
	o.parser = p
	return o
}

// WithClock replaces the staleness clock. Test hook.
func (o *Observer) WithClock(clock func() time.Time) *Observer {
	o.clock = clock
	return o
}

// Observe materializes a frozen RepoState. A ParseError from the status
// decode is retried once with a fresh invocation before being surfaced.
func (o *Observer) Observe(ctx context.Context) (state.RepoState, error) {
	snapshot, err := o.observeOnce(ctx)
	if err != nil {
		var parse *errors.ParseError
		if errors.As(err, &parse) {
			o.logger.Warn("status parse failed, retrying once", "detail", parse.Detail)
			return o.observeOnce(ctx)
		}
		return state.RepoState{}, err
	}
	return snapshot, nil
}

func (o *Observer) observeOnce(ctx context.Context) (state.RepoState, error) {
	result, err := o.facade.RunChecked(ctx,
		"status", "--porcelain=v2", "--branch", "--ahead-behind", "--show-stash")
	if err != nil {
		return state.RepoState{}, err
	}

	summary, err := ParsePorcelain(result.Stdout)
	if err != nil {
		return state.RepoState{}, err
	}
	for _, warning := range summary.Warnings {
		o.logger.Warn(warning)
	}

	gitDir, err := o.resolveGitDir(ctx)
	if err != nil {
		return state.RepoState{}, err
	}
	ongoingRebase := dirExists(filepath.Join(gitDir, "rebase-merge")) ||
		dirExists(filepath.Join(gitDir, "rebase-apply"))
	ongoingMerge := fileExists(filepath.Join(gitDir, "MERGE_HEAD"))

	conflicts := make([]state.ConflictDetail, 0, len(summary.UnmergedPaths))
	for _, path := range summary.UnmergedPaths {
		detail, err := o.parser(o.facade.RepoPath(), path)
		if err != nil {
			return state.RepoState{}, err
		}
		conflicts = append(conflicts, detail)
	}

	hasBackup, err := o.backupRefAtHead(ctx, summary.SHA)
	if err != nil {
		return state.RepoState{}, err
	}

	var predicted []state.ConflictDetail
	if summary.Behind > 0 && !ongoingRebase && !ongoingMerge && summary.Tracking != "" {
		preview, err := PreviewMerge(ctx, o.facade, "HEAD", summary.Tracking)
		if err != nil {
			// Preview failures degrade the prediction, not the observation.
			o.logger.Warn("merge-tree preview failed", "error", err.Error())
		} else {
			predicted = preview.Conflicts
		}
	}

	snapshot := state.RepoState{
		RepoPath: o.facade.RepoPath(),
		Ref: state.RepoRef{
			Branch:   summary.Branch,
			Tracking: summary.Tracking,
			SHA:      summary.SHA,
		},
		DivergedLocal:      summary.Ahead,
		DivergedRemote:     summary.Behind,
		WorkingTreeClean:   !summary.StagedChanges && !summary.WorkingTreeDirty && !summary.UntrackedPresent,
		StagedChanges:      summary.StagedChanges,
		OngoingRebase:      ongoingRebase,
		OngoingMerge:       ongoingMerge,
		StashEntries:       summary.StashEntries,
		Conflicts:          conflicts,
		PredictedConflicts: predicted,
		TestsLastResult:    state.TestsUnknown,
		HasUnpushedCommits: summary.Ahead > 0,
		HasBackupRef:       hasBackup,
		StalenessScore:     o.staleness(gitDir, summary),
	}
	return snapshot.Normalized(), nil
}

// staleness grows with the behind count and the time since the last fetch.
// Monotone in both inputs; zero when there is nothing to be stale against.
func (o *Observer) staleness(gitDir string, summary StatusSummary) float64 {
	if summary.Tracking == "" {
		return 0
	}
	score := float64(summary.Behind)
	info, err := os.Stat(filepath.Join(gitDir, "FETCH_HEAD"))
	if err != nil {
		// Never fetched in this clone's lifetime.
		return score + 6.0
	}
	hours := o.clock().Sub(info.ModTime()).Hours()
	if hours < 0 {
		hours = 0
	}
	if hours > 24 {
		hours = 24
	}
	return score + hours*0.25
}

func (o *Observer) resolveGitDir(ctx context.Context) (string, error) {
	if o.gitDir != "" {
		return o.gitDir, nil
	}
	result, err := o.facade.RunChecked(ctx, "rev-parse", "--git-dir")
	if err != nil {
		return "", err
	}
	dir := strings.TrimSpace(result.Stdout)
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(o.facade.RepoPath(), dir)
	}
	o.gitDir = dir
	return dir, nil
}

// backupRefAtHead reports whether any backup ref points at the current HEAD.
// Stale backups from earlier runs do not count.
func (o *Observer) backupRefAtHead(ctx context.Context, headSHA string) (bool, error) {
	if headSHA == "" {
		return false, nil
	}
	result, err := o.facade.Run(ctx, "for-each-ref", "--format=%(objectname)", backupRefPrefix)
	if err != nil {
		return false, err
	}
	if result.ExitCode != 0 {
		return false, nil
	}
	for _, line := range strings.Split(result.Stdout, "\n") {
		if strings.TrimSpace(line) == headSHA {
			return true, nil
		}
	}
	return false, nil
}

// BackupRefPrefix exposes the ref namespace for the backup action.
func BackupRefPrefix() string { return backupRefPrefix }

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
