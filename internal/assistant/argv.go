package assistant

import "github.com/ptreezh/orc/internal/types"

// WarningFunc receives a human-readable message when BuildArgv falls back
// to a descriptor's default pattern because the cached convention is
// unknown. Callers typically wire this to the event bus.
type WarningFunc func(message string)

// BuildArgv turns (descriptor, pattern, prompt) into a concrete argv,
// following the parameter builder's decision table. The prompt is always
// passed as a single argv element; no shell interpolation is ever
// performed. When pattern's convention is unknown, BuildArgv falls through
// to descriptor.DefaultPattern and, if onWarning is non-nil, reports the
// fallback.
func BuildArgv(descriptor types.Descriptor, pattern types.Pattern, prompt string, onWarning WarningFunc) []string {
	effective := pattern
	if effective.Convention == types.ConventionUnknown {
		if onWarning != nil {
			onWarning("assistant " + descriptor.Name + ": prompt convention unknown, using default invocation")
		}
		effective = descriptor.DefaultPattern
	}

	base := baseArgv(descriptor, effective)

	switch effective.Convention {
	case types.ConventionFlagged:
		flag := effective.PromptFlag
		if flag == "" {
			flag = "-p"
		}
		return append(base, flag, prompt)
	case types.ConventionSubcommand:
		subcmd := effective.PromptSubcmd
		if subcmd == "" {
			subcmd = "exec"
		}
		return append(base, subcmd, prompt)
	case types.ConventionPositional:
		return append(base, prompt)
	default:
		// effective came from DefaultPattern and is still unknown: the
		// descriptor itself has no declared convention. The only safe
		// move left is a bare positional prompt.
		return append(base, prompt)
	}
}

// baseArgv returns the invocation prefix, which is the binary name alone;
// the pattern's subcommands are not added to it.
func baseArgv(descriptor types.Descriptor, pattern types.Pattern) []string {
	argv := []string{descriptor.Name}
	return argv
}
