package assistant

import (
	"context"
	"strings"
	"time"

	"github.com/ptreezh/orc/internal/exec"
	"github.com/ptreezh/orc/internal/types"
)

// DefaultProbeTimeout bounds how long a single help probe may run.
const DefaultProbeTimeout = 10 * time.Second

// Analyzer spawns an assistant's probe command and classifies its textual
// help output into a Pattern.
type Analyzer struct {
	// ProbeTimeout overrides DefaultProbeTimeout when non-zero.
	ProbeTimeout time.Duration
}

// NewAnalyzer creates an Analyzer using DefaultProbeTimeout.
func NewAnalyzer() *Analyzer {
	return &Analyzer{ProbeTimeout: DefaultProbeTimeout}
}

// Analyze spawns descriptor's probe command with a bounded timeout and
// classifies the textual help output by keyword scan. On probe timeout or
// non-zero exit, it returns a Pattern with ConventionUnknown and the raw
// probe output retained in ProbeNote for diagnostics; callers must fall
// back to descriptor.DefaultPattern in that case.
func (a *Analyzer) Analyze(ctx context.Context, descriptor types.Descriptor) (types.Pattern, error) {
	timeout := a.ProbeTimeout
	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}

	result, err := exec.Execute(ctx, exec.Spec{
		Argv:    descriptor.ProbeArgv,
		Timeout: timeout,
	})

	now := time.Now()

	if err != nil || result.SpawnFailed {
		return types.Pattern{
			Convention: types.ConventionUnknown,
			AnalyzedAt: now,
			ProbeNote:  "probe failed to start: " + errString(err),
		}, err
	}

	if result.TimedOut {
		return types.Pattern{
			Convention: types.ConventionUnknown,
			AnalyzedAt: now,
			ProbeNote:  "probe exceeded its timeout\n" + result.Stdout + result.Stderr,
		}, nil
	}

	if result.ExitCode != 0 {
		return types.Pattern{
			Convention: types.ConventionUnknown,
			AnalyzedAt: now,
			ProbeNote:  result.Stdout + result.Stderr,
		}, nil
	}

	pattern := classify(result.Stdout + "\n" + result.Stderr)
	pattern.AnalyzedAt = now
	return pattern, nil
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// classify applies the deterministic keyword-scan rule set described by
// the help-cache analyzer: "Subcommands:"/"Commands:" headers push the
// record into the subcommand-style category; absence of those plus a
// -p/--prompt flag pushes it into flagged-prompt; otherwise generic.
func classify(helpText string) types.Pattern {
	lower := strings.ToLower(helpText)

	pattern := types.Pattern{Category: types.CategoryGeneric, Convention: types.ConventionUnknown}

	hasSubcommandHeader := strings.Contains(lower, "subcommands:") || strings.Contains(lower, "commands:")
	flag, hasPromptFlag := scanPromptFlag(helpText)

	switch {
	case hasSubcommandHeader:
		pattern.Category = types.CategorySubcommand
		pattern.Subcommands = scanSubcommands(helpText)
		if subcmd := pickPromptSubcommand(pattern.Subcommands); subcmd != "" {
			pattern.Convention = types.ConventionSubcommand
			pattern.PromptSubcmd = subcmd
		}
	case hasPromptFlag:
		pattern.Category = types.CategoryGeneric
		pattern.Convention = types.ConventionFlagged
		pattern.PromptFlag = flag
	default:
		pattern.Category = types.CategoryGeneric
	}

	pattern.Options = scanOptions(helpText)
	return pattern
}

// scanPromptFlag looks for a recognized non-interactive prompt flag among
// a small set of conventional spellings, preferring the shortest form.
func scanPromptFlag(helpText string) (string, bool) {
	candidates := []string{"-p, --prompt", "--prompt", "-p"}
	for _, c := range candidates {
		if strings.Contains(helpText, c) {
			if strings.HasPrefix(c, "-p") {
				return "-p", true
			}
			return "--prompt", true
		}
	}
	return "", false
}

// scanSubcommands extracts bare subcommand names listed under a
// "Commands:"/"Subcommands:" header, one per indented line, until a blank
// line or the next header.
func scanSubcommands(helpText string) []string {
	lines := strings.Split(helpText, "\n")
	var subs []string
	inBlock := false
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		lower := strings.ToLower(trimmed)
		if strings.HasSuffix(lower, "commands:") {
			inBlock = true
			continue
		}
		if !inBlock {
			continue
		}
		if trimmed == "" {
			break
		}
		fields := strings.Fields(trimmed)
		if len(fields) == 0 {
			continue
		}
		name := fields[0]
		if strings.HasPrefix(name, "-") {
			break
		}
		subs = append(subs, name)
	}
	return subs
}

// pickPromptSubcommand returns the subcommand most likely to accept a
// free-form prompt, preferring common spellings used by the pack's
// subcommand-style assistants.
func pickPromptSubcommand(subcommands []string) string {
	preferred := []string{"exec", "run", "chat", "prompt"}
	for _, p := range preferred {
		for _, s := range subcommands {
			if s == p {
				return s
			}
		}
	}
	return ""
}

// scanOptions extracts recognized boolean and value-taking flags from the
// help text's option lines (lines beginning with "-" after trimming).
func scanOptions(helpText string) []types.Option {
	lines := strings.Split(helpText, "\n")
	var opts []types.Option
	seen := map[string]bool{}
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, "-") {
			continue
		}
		fields := strings.Fields(trimmed)
		if len(fields) == 0 {
			continue
		}
		name := strings.TrimRight(fields[0], ",")
		if seen[name] {
			continue
		}
		seen[name] = true
		arity := 0
		if len(fields) > 1 && !strings.HasPrefix(fields[1], "-") {
			arity = 1
		}
		opts = append(opts, types.Option{Name: name, Arity: arity})
	}
	return opts
}
