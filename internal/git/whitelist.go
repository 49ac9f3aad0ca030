package git

// allowedSubcommands is the closed set of git subcommands the core may
// invoke. Anything else is rejected before a subprocess is spawned.
var allowedSubcommands = map[string]bool{
	"status":        true,
	"stash":         true,
	"show-ref":      true,
	"rev-parse":     true,
	"rev-list":      true,
	"merge-tree":    true,
	"merge-base":    true,
	"fetch":         true,
	"rebase":        true,
	"push":          true,
	"update-ref":    true,
	"range-diff":    true,
	"config":        true,
	"checkout":      true,
	"add":           true,
	"rerere":        true,
	"diff":          true,
	"show":          true,
	"for-each-ref":  true,
	"count-objects": true,
	"ls-files":      true,
	"branch":        true,
	"version":       true,
}

func subcommandAllowed(sub string) bool {
	return allowedSubcommands[sub]
}

// alwaysReadOnly lists subcommands that never mutate the repository and
// therefore execute even under dry-run.
var alwaysReadOnly = map[string]bool{
	"status":        true,
	"show-ref":      true,
	"rev-parse":     true,
	"rev-list":      true,
	"merge-tree":    true,
	"merge-base":    true,
	"range-diff":    true,
	"diff":          true,
	"show":          true,
	"for-each-ref":  true,
	"count-objects": true,
	"ls-files":      true,
	"version":       true,
}

// isReadOnly categorizes an invocation by a static table. Commands with
// read-only variants are matched on their distinguishing argument: stash
// only for "list", config only for value reads, fetch only with --dry-run.
func isReadOnly(args []string) bool {
	sub := args[0]
	if alwaysReadOnly[sub] {
		return true
	}
	switch sub {
	case "stash":
		return len(args) > 1 && args[1] == "list"
	case "config":
		for _, arg := range args[1:] {
			if arg == "--get" || arg == "--get-all" || arg == "--bool" || arg == "--list" {
				return true
			}
		}
		return false
	case "fetch":
		for _, arg := range args[1:] {
			if arg == "--dry-run" {
				return true
			}
		}
		return false
	case "branch":
		for _, arg := range args[1:] {
			if arg == "--show-current" || arg == "--list" {
				return true
			}
		}
		return false
	default:
		return false
	}
}
