// Package diagnose inspects git configuration and repository shape and
// reports what will make automated rebases smoother: recommended settings,
// large-repository warnings, and a summary of the current working-tree diff.
package diagnose

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/bluekeyes/go-gitdiff/gitdiff"

	"github.com/gitgoal/gitgoal/internal/git"
)

// Thresholds indicating when the working tree or history may become
// unwieldy for rebase-heavy workflows.
const (
	trackedFileThreshold  = 100_000
	sizePackThresholdKiB  = 1_000_000
	commitCountThreshold  = 50_000
)

// recommendedSettings are the git options the planner benefits from.
var recommendedSettings = [][2]string{
	{"merge.conflictStyle", "zdiff3"},
	{"rerere.enabled", "true"},
	{"pull.rebase", "true"},
}

// ConfigCheck is the state of one recommended git configuration key.
type ConfigCheck struct {
	Key         string `json:"key"`
	Recommended string `json:"recommended"`
	Detected    string `json:"detected,omitempty"`
	Matches     bool   `json:"matches_recommendation"`
}

// RepoStats aggregates repository size information.
type RepoStats struct {
	TrackedFiles int `json:"tracked_files"`
	SizePackKiB  int `json:"size_pack_kib"`
	SizeLooseKiB int `json:"size_loose_kib"`
	CommitCount  int `json:"commit_count"`
}

// Guidance is the large-repository advice derived from RepoStats.
type Guidance struct {
	Triggered   bool     `json:"triggered"`
	Reasons     []string `json:"reasons,omitempty"`
	Suggestions []string `json:"suggestions,omitempty"`
}

// Diffstat summarizes the uncommitted working-tree changes.
type Diffstat struct {
	FilesChanged int   `json:"files_changed"`
	Additions    int64 `json:"additions"`
	Deletions    int64 `json:"deletions"`
}

// Report is the full diagnosis.
type Report struct {
	GitConfig []ConfigCheck `json:"git_config"`
	Stats     *RepoStats    `json:"repo_stats,omitempty"`
	Guidance  Guidance      `json:"large_repo_guidance"`
	Diffstat  *Diffstat     `json:"diffstat,omitempty"`
}

// JSON serializes the report.
func (r Report) JSON(pretty bool) (string, error) {
	var out []byte
	var err error
	if pretty {
		out, err = json.MarshalIndent(r, "", "  ")
	} else {
		out, err = json.Marshal(r)
	}
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// Generate collects the diagnosis through the facade.
func Generate(ctx context.Context, facade *git.Facade) (Report, error) {
	report := Report{}

	for _, setting := range recommendedSettings {
		report.GitConfig = append(report.GitConfig, checkSetting(ctx, facade, setting[0], setting[1]))
	}

	report.Stats = gatherStats(ctx, facade)
	report.Guidance = buildGuidance(report.Stats)
	report.Diffstat = gatherDiffstat(ctx, facade)

	return report, nil
}

func checkSetting(ctx context.Context, facade *git.Facade, key, expected string) ConfigCheck {
	check := ConfigCheck{Key: key, Recommended: expected}
	result, err := facade.Run(ctx, "config", "--get", key)
	if err != nil || result.ExitCode != 0 {
		return check
	}
	check.Detected = strings.TrimSpace(result.Stdout)
	check.Matches = strings.EqualFold(check.Detected, expected)
	return check
}

func gatherStats(ctx context.Context, facade *git.Facade) *RepoStats {
	countResult, err := facade.Run(ctx, "count-objects", "-v")
	if err != nil || countResult.ExitCode != 0 {
		return nil
	}

	stats := &RepoStats{}
	for _, line := range strings.Split(countResult.Stdout, "\n") {
		key, value, found := strings.Cut(strings.TrimSpace(line), ": ")
		if !found {
			continue
		}
		n, err := strconv.Atoi(value)
		if err != nil {
			continue
		}
		switch key {
		case "size-pack":
			stats.SizePackKiB = n
		case "size":
			stats.SizeLooseKiB = n
		}
	}

	if result, err := facade.Run(ctx, "ls-files"); err == nil && result.ExitCode == 0 {
		stats.TrackedFiles = countLines(result.Stdout)
	}
	if result, err := facade.Run(ctx, "rev-list", "--count", "HEAD"); err == nil && result.ExitCode == 0 {
		if n, err := strconv.Atoi(strings.TrimSpace(result.Stdout)); err == nil {
			stats.CommitCount = n
		}
	}

	return stats
}

func buildGuidance(stats *RepoStats) Guidance {
	guidance := Guidance{}
	if stats == nil {
		return guidance
	}

	if stats.TrackedFiles > trackedFileThreshold {
		guidance.Reasons = append(guidance.Reasons, "tracked file count exceeds "+strconv.Itoa(trackedFileThreshold))
		guidance.Suggestions = append(guidance.Suggestions, "enable sparse-checkout for day-to-day work")
	}
	if stats.SizePackKiB > sizePackThresholdKiB {
		guidance.Reasons = append(guidance.Reasons, "pack size exceeds "+strconv.Itoa(sizePackThresholdKiB)+" KiB")
		guidance.Suggestions = append(guidance.Suggestions, "consider a partial clone (--filter=blob:none)")
	}
	if stats.CommitCount > commitCountThreshold {
		guidance.Reasons = append(guidance.Reasons, "commit count exceeds "+strconv.Itoa(commitCountThreshold))
		guidance.Suggestions = append(guidance.Suggestions, "use commit-graph and fetch with --depth where possible")
	}

	guidance.Triggered = len(guidance.Reasons) > 0
	return guidance
}

// gatherDiffstat parses the working-tree diff. A repository with pending
// changes rebases worse; the summary shows what is at stake.
func gatherDiffstat(ctx context.Context, facade *git.Facade) *Diffstat {
	result, err := facade.Run(ctx, "diff", "HEAD")
	if err != nil || result.ExitCode != 0 || strings.TrimSpace(result.Stdout) == "" {
		return nil
	}

	files, _, err := gitdiff.Parse(strings.NewReader(result.Stdout))
	if err != nil {
		return nil
	}

	stat := &Diffstat{FilesChanged: len(files)}
	for _, file := range files {
		for _, fragment := range file.TextFragments {
			stat.Additions += fragment.LinesAdded
			stat.Deletions += fragment.LinesDeleted
		}
	}
	return stat
}

func countLines(s string) int {
	count := 0
	for _, line := range strings.Split(s, "\n") {
		if strings.TrimSpace(line) != "" {
			count++
		}
	}
	return count
}
