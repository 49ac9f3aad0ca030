// Package git provides the safe subprocess facade around the host git
// binary. Every invocation the core makes goes through Facade.Run, which
// enforces the subcommand whitelist, applies per-call timeouts, suppresses
// mutating commands in dry-run mode, and records a redacted journal entry.
package git

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/gitgoal/gitgoal/internal/errors"
	"github.com/gitgoal/gitgoal/internal/logging"
)

// Result carries the outcome of one git invocation.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
	// RecordedCommand is the redacted argv as it entered the journal.
	RecordedCommand []string
	// Suppressed is true when dry-run mode skipped the subprocess.
	Suppressed bool
}

// JournalEntry is one append-only record of an attempted invocation.
type JournalEntry struct {
	Command    []string
	Dir        string
	ExitCode   int
	DryRun     bool
	Suppressed bool
}

// Runner abstracts the actual subprocess spawn for testability.
type Runner interface {
	// Run executes git with argv in dir and returns exit code and output.
	Run(ctx context.Context, dir string, argv []string) (int, string, string, error)
}

// Options configures a Facade.
type Options struct {
	DryRun         bool
	ObserveTimeout time.Duration
	MutateTimeout  time.Duration
	Runner         Runner // nil means the real subprocess runner
}

// Facade is the single path from the core to the git binary. It owns the
// append-only command journal; the journal is written only from the
// executor's goroutine.
type Facade struct {
	repoPath string
	logger   *logging.Logger
	opts     Options
	runner   Runner
	journal  []JournalEntry
}

// New creates a Facade rooted at repoPath.
func New(repoPath string, logger *logging.Logger, opts Options) *Facade {
	if opts.ObserveTimeout <= 0 {
		opts.ObserveTimeout = 30 * time.Second
	}
	if opts.MutateTimeout <= 0 {
		opts.MutateTimeout = 120 * time.Second
	}
	runner := opts.Runner
	if runner == nil {
		runner = execRunner{}
	}
	return &Facade{
		repoPath: repoPath,
		logger:   logger,
		opts:     opts,
		runner:   runner,
	}
}

// RepoPath returns the repository root the facade is bound to.
func (f *Facade) RepoPath() string { return f.repoPath }

// DryRun reports whether mutating commands are suppressed.
func (f *Facade) DryRun() bool { return f.opts.DryRun }

// Journal returns a copy of the recorded command history.
func (f *Facade) Journal() []JournalEntry {
	out := make([]JournalEntry, len(f.journal))
	copy(out, f.journal)
	return out
}

// Run executes a git subcommand. args omit the leading "git". Non-zero exits
// are reported in the Result without an error; use RunChecked when a failure
// should become an ExternalFailure. Timeouts map to ExternalTimeout and a
// missing binary to ErrEnvironmentMissing.
func (f *Facade) Run(ctx context.Context, args ...string) (Result, error) {
	if len(args) == 0 {
		return Result{}, errors.NewGitError("empty git command", nil)
	}
	if !subcommandAllowed(args[0]) {
		return Result{}, errors.NewGitError(
			fmt.Sprintf("git subcommand %q is not in the whitelist", args[0]), nil,
		).WithRepository(f.repoPath)
	}

	recorded := append([]string{"git"}, logging.RedactArgs(args)...)
	readOnly := isReadOnly(args)

	if f.opts.DryRun && !readOnly {
		f.journal = append(f.journal, JournalEntry{
			Command: recorded, Dir: f.repoPath, ExitCode: 0, DryRun: true, Suppressed: true,
		})
		f.logger.Info("dry-run: suppressed git command", "argv", recorded)
		return Result{ExitCode: 0, RecordedCommand: recorded, Suppressed: true}, nil
	}

	timeout := f.opts.MutateTimeout
	if readOnly {
		timeout = f.opts.ObserveTimeout
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	f.logger.Debug("executing git command", "argv", recorded, "dir", f.repoPath)
	exitCode, stdout, stderr, err := f.runner.Run(runCtx, f.repoPath, args)

	entry := JournalEntry{Command: recorded, Dir: f.repoPath, ExitCode: exitCode, DryRun: f.opts.DryRun}
	f.journal = append(f.journal, entry)

	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return Result{}, errors.ErrEnvironmentMissing
		}
		if runCtx.Err() == context.DeadlineExceeded {
			return Result{}, errors.NewExternalTimeout(recorded, timeout.Seconds())
		}
		return Result{}, errors.NewGitError("failed to run git", err).WithRepository(f.repoPath)
	}

	return Result{
		ExitCode:        exitCode,
		Stdout:          stdout,
		Stderr:          stderr,
		RecordedCommand: recorded,
	}, nil
}

// RunChecked is Run with non-zero exit statuses mapped to ExternalFailure.
func (f *Facade) RunChecked(ctx context.Context, args ...string) (Result, error) {
	result, err := f.Run(ctx, args...)
	if err != nil {
		return result, err
	}
	if result.ExitCode != 0 {
		return result, errors.NewExternalFailure(result.RecordedCommand, result.ExitCode, result.Stderr)
	}
	return result, nil
}

// CheckVersion verifies the host git binary exists and is at least 2.40.
func (f *Facade) CheckVersion(ctx context.Context) error {
	result, err := f.Run(ctx, "version")
	if err != nil {
		return err
	}
	major, minor, ok := parseGitVersion(result.Stdout)
	if !ok || major < 2 || (major == 2 && minor < 40) {
		return errors.ErrEnvironmentMissing
	}
	return nil
}

func parseGitVersion(s string) (major, minor int, ok bool) {
	fields := strings.Fields(strings.TrimSpace(s))
	if len(fields) < 3 || fields[0] != "git" || fields[1] != "version" {
		return 0, 0, false
	}
	parts := strings.Split(fields[2], ".")
	if len(parts) < 2 {
		return 0, 0, false
	}
	major, errMajor := strconv.Atoi(parts[0])
	minor, errMinor := strconv.Atoi(parts[1])
	if errMajor != nil || errMinor != nil {
		return 0, 0, false
	}
	return major, minor, true
}

// execRunner spawns the real git binary.
type execRunner struct{}

func (execRunner) Run(ctx context.Context, dir string, argv []string) (int, string, string, error) {
	cmd := exec.CommandContext(ctx, "git", argv...)
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && ctx.Err() == nil {
			return exitErr.ExitCode(), stdout.String(), stderr.String(), nil
		}
		return -1, stdout.String(), stderr.String(), err
	}
	return 0, stdout.String(), stderr.String(), nil
}
