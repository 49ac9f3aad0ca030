// Package watch re-observes the repository when it changes on disk. It
// watches the worktree and the .git control directory, coalesces event
// bursts, and invokes a callback once the repository has been quiet for the
// configured window.
package watch

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/gitgoal/gitgoal/internal/logging"
)

// Watcher drives the on-change callback. Safe for a single Start/Stop pair;
// Stop is idempotent.
type Watcher struct {
	watcher  *fsnotify.Watcher
	repoPath string
	logger   *logging.Logger
	debounce time.Duration
	onQuiet  func()

	mu      sync.Mutex
	timer   *time.Timer
	stopCh  chan struct{}
	stopped bool
}

// New creates a Watcher over repoPath. onQuiet fires after each event burst
// settles for the debounce window.
func New(repoPath string, logger *logging.Logger, debounce time.Duration, onQuiet func()) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}
	return &Watcher{
		watcher:  fsWatcher,
		repoPath: repoPath,
		logger:   logger,
		debounce: debounce,
		onQuiet:  onQuiet,
		stopCh:   make(chan struct{}),
	}, nil
}

// Start registers the directory watches and begins dispatching.
func (w *Watcher) Start() error {
	if err := w.addRecursive(w.repoPath); err != nil {
		return err
	}
	// Watch the control directory itself so in-flight rebase/merge markers
	// trigger re-observation.
	gitDir := filepath.Join(w.repoPath, ".git")
	if info, err := os.Stat(gitDir); err == nil && info.IsDir() {
		if err := w.watcher.Add(gitDir); err != nil {
			w.logger.Warn("cannot watch git dir", "error", err.Error())
		}
	}

	go w.loop()
	return nil
}

// Stop halts dispatching and releases the underlying watcher.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return
	}
	w.stopped = true
	close(w.stopCh)
	_ = w.watcher.Close()
	if w.timer != nil {
		w.timer.Stop()
	}
}

// addRecursive walks the worktree and watches every directory, skipping the
// .git internals (the control directory is added separately, non-recursive).
func (w *Watcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, entry os.DirEntry, err error) error {
		if err != nil {
			return nil // unreadable subtree, keep watching the rest
		}
		if !entry.IsDir() {
			return nil
		}
		if entry.Name() == ".git" && path != root {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			w.logger.Warn("cannot watch directory", "path", path, "error", err.Error())
		}
		return nil
	})
}

func (w *Watcher) loop() {
	for {
		select {
		case <-w.stopCh:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if w.ignored(event.Name) {
				continue
			}
			// New directories must be added to keep the watch recursive.
			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					_ = w.addRecursive(event.Name)
				}
			}
			w.bump()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watcher error", "error", err.Error())
		}
	}
}

// ignored filters the churn inside .git that does not change what the
// observer would report.
func (w *Watcher) ignored(path string) bool {
	rel, err := filepath.Rel(w.repoPath, path)
	if err != nil {
		return false
	}
	if !strings.HasPrefix(rel, ".git") {
		return false
	}
	base := filepath.Base(rel)
	switch base {
	case "HEAD", "MERGE_HEAD", "FETCH_HEAD", "index", "rebase-merge", "rebase-apply":
		return false
	}
	// Lock files and object churn are noise.
	return strings.HasSuffix(base, ".lock") || strings.Contains(rel, "objects")
}

// bump restarts the quiet-period timer.
func (w *Watcher) bump() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return
	}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.onQuiet)
}
