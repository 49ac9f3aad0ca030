// Package mergedriver implements a three-way structural merge for JSON and
// YAML documents. It resolves the changes git's line-oriented merge cannot:
// both sides touching different keys of the same object, or one side
// reformatting while the other edits. Scalar conflicts and incompatible
// shapes fail cleanly so the caller can fall back to manual resolution.
package mergedriver

import (
	"fmt"
	"reflect"
	"strings"
)

// MergeError reports a structural conflict the driver cannot resolve.
type MergeError struct {
	Detail string
}

func (e *MergeError) Error() string {
	return "structured merge failed: " + e.Detail
}

// missing is the sentinel distinguishing "key absent" from "value is nil".
type missingValue struct{}

var missing = missingValue{}

// Document is one side of the merge. Present is false when the version does
// not exist, as with add/add conflicts that have no base.
type Document struct {
	Content string
	Present bool
}

// Merge performs the three-way merge of already-decoded values.
func Merge(base, ours, theirs any, hasBase bool) (any, error) {
	baseVal := any(missing)
	if hasBase {
		baseVal = base
	}
	return mergeValues(baseVal, ours, theirs)
}

func mergeValues(base, ours, theirs any) (any, error) {
	if equal(ours, theirs) {
		return ours, nil
	}
	if base != any(missing) && equal(base, ours) {
		return theirs, nil
	}
	if base != any(missing) && equal(base, theirs) {
		return ours, nil
	}

	oursMap, oursIsMap := asMap(ours)
	theirsMap, theirsIsMap := asMap(theirs)
	if oursIsMap && theirsIsMap {
		baseMap := map[string]any{}
		if base != any(missing) && base != nil {
			m, ok := asMap(base)
			if !ok {
				return nil, &MergeError{Detail: "incompatible types during object merge"}
			}
			baseMap = m
		}
		return mergeMaps(baseMap, oursMap, theirsMap)
	}

	oursSeq, oursIsSeq := asSequence(ours)
	theirsSeq, theirsIsSeq := asSequence(theirs)
	if oursIsSeq && theirsIsSeq {
		return mergeSequences(base, oursSeq, theirsSeq)
	}

	return nil, &MergeError{Detail: "conflicting changes in scalar value"}
}

func mergeMaps(base, ours, theirs map[string]any) (map[string]any, error) {
	keys := unionKeys(ours, theirs, base)
	merged := make(map[string]any, len(keys))

	for _, key := range keys {
		baseValue := lookup(base, key)
		ourValue := lookup(ours, key)
		theirValue := lookup(theirs, key)

		switch {
		case ourValue == any(missing) && theirValue == any(missing):
			continue
		case ourValue == any(missing):
			if baseValue == any(missing) || equal(baseValue, theirValue) {
				merged[key] = theirValue
				continue
			}
			return nil, &MergeError{Detail: fmt.Sprintf("conflicting deletion for key %q", key)}
		case theirValue == any(missing):
			if baseValue == any(missing) || equal(baseValue, ourValue) {
				merged[key] = ourValue
				continue
			}
			return nil, &MergeError{Detail: fmt.Sprintf("conflicting deletion for key %q", key)}
		}

		value, err := mergeValues(baseValue, ourValue, theirValue)
		if err != nil {
			return nil, err
		}
		merged[key] = value
	}

	return merged, nil
}

// mergeSequences resolves lists only when the change is one-sided; arbitrary
// list interleavings have no safe automatic answer.
func mergeSequences(base any, ours, theirs []any) (any, error) {
	baseSeq, baseIsSeq := asSequence(base)
	if !baseIsSeq {
		return nil, &MergeError{Detail: "conflicting list modifications"}
	}
	if equal(ours, baseSeq) {
		return theirs, nil
	}
	if equal(theirs, baseSeq) {
		return ours, nil
	}
	return nil, &MergeError{Detail: "conflicting list modifications"}
}

func equal(a, b any) bool {
	return reflect.DeepEqual(normalize(a), normalize(b))
}

// normalize coerces decoder-specific container types so JSON and YAML
// decodings of the same document compare equal.
func normalize(v any) any {
	switch value := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(value))
		for k, item := range value {
			out[k] = normalize(item)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(value))
		for k, item := range value {
			out[fmt.Sprint(k)] = normalize(item)
		}
		return out
	case []any:
		out := make([]any, len(value))
		for i, item := range value {
			out[i] = normalize(item)
		}
		return out
	case int:
		return float64(value)
	case int64:
		return float64(value)
	case float32:
		return float64(value)
	default:
		return v
	}
}

func asMap(v any) (map[string]any, bool) {
	switch value := v.(type) {
	case map[string]any:
		return value, true
	case map[any]any:
		out := make(map[string]any, len(value))
		for k, item := range value {
			out[fmt.Sprint(k)] = item
		}
		return out, true
	default:
		return nil, false
	}
}

func asSequence(v any) ([]any, bool) {
	seq, ok := v.([]any)
	return seq, ok
}

func lookup(m map[string]any, key string) any {
	if value, ok := m[key]; ok {
		return value
	}
	return missing
}

// unionKeys returns the deterministic key order: ours first, then theirs,
// then base, each in sorted order within its tier of first appearance.
func unionKeys(maps ...map[string]any) []string {
	seen := make(map[string]bool)
	var keys []string
	for _, m := range maps {
		tier := make([]string, 0, len(m))
		for k := range m {
			if !seen[k] {
				seen[k] = true
				tier = append(tier, k)
			}
		}
		sortStrings(tier)
		keys = append(keys, tier...)
	}
	return keys
}

func sortStrings(s []string) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && strings.Compare(s[j], s[j-1]) < 0; j-- {
			s[j], s[j-1] = s[j-1], s[j]
		}
	}
}
