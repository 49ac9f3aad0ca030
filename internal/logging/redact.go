package logging

import "regexp"

// Patterns covering the common ways credentials leak into git command lines:
// userinfo embedded in remote URLs, token query or header arguments, and
// obvious bearer strings.
var redactPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(https?://)[^/@\s:]+:[^@\s]+@`),
	regexp.MustCompile(`(?i)(token[=:]\s*)\S+`),
	regexp.MustCompile(`(?i)(authorization:\s*(?:bearer|basic)\s+)\S+`),
	regexp.MustCompile(`(?i)\b(gh[pousr]_[A-Za-z0-9]{16,})\b`),
}

var redactReplacements = []string{
	`$1***:***@`,
	`$1***`,
	`$1***`,
	`***`,
}

// Redact masks credential-shaped fragments in s.
func Redact(s string) string {
	for i, pattern := range redactPatterns {
		s = pattern.ReplaceAllString(s, redactReplacements[i])
	}
	return s
}

// RedactArgs masks credentials in a command argument vector, returning a new
// slice. The input is never modified.
func RedactArgs(args []string) []string {
	out := make([]string, len(args))
	for i, arg := range args {
		out[i] = Redact(arg)
	}
	return out
}

// redactValue applies Redact to string values and string slices, passing
// everything else through unchanged.
func redactValue(v any) any {
	switch value := v.(type) {
	case string:
		return Redact(value)
	case []string:
		return RedactArgs(value)
	default:
		return v
	}
}
