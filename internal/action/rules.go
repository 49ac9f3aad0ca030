package action

import (
	"path"
	"strings"

	"github.com/gitgoal/gitgoal/internal/config"
	"github.com/gitgoal/gitgoal/internal/state"
)

// matchPattern matches a repository-relative path against a rule glob.
// A leading "**/" also matches at the repository root, and basename-only
// patterns match regardless of directory depth.
func matchPattern(relPath, pattern string) bool {
	candidates := []string{pattern}
	if strings.HasPrefix(pattern, "**/") {
		candidates = append(candidates, strings.TrimPrefix(pattern, "**/"))
	}
	for _, candidate := range candidates {
		if ok, err := path.Match(candidate, relPath); err == nil && ok {
			return true
		}
		if !strings.Contains(candidate, "/") {
			if ok, err := path.Match(candidate, path.Base(relPath)); err == nil && ok {
				return true
			}
		}
	}
	return false
}

// selectRule returns the first configured rule matching the conflict, or nil.
// Rules restricted to whitespace_only require a fully trivial conflict.
func selectRule(c state.ConflictDetail, rules []config.StrategyRule) *config.StrategyRule {
	for i := range rules {
		rule := &rules[i]
		if !matchPattern(c.Path, rule.Pattern) {
			continue
		}
		if rule.When == "whitespace_only" && !c.Trivial() {
			continue
		}
		return rule
	}
	return nil
}

// partitionByRule splits conflicts into those covered by a rule and the rest.
func partitionByRule(conflicts []state.ConflictDetail, rules []config.StrategyRule) (matched, rest []state.ConflictDetail) {
	for _, c := range conflicts {
		if selectRule(c, rules) != nil {
			matched = append(matched, c)
		} else {
			rest = append(rest, c)
		}
	}
	return matched, rest
}
