// Package assistant knows how to invoke each supported coding-assistant CLI
// non-interactively. It analyzes and caches each assistant's help surface
// (the help-cache analyzer) and turns an analyzed pattern plus a prompt into
// a concrete argv (the parameter builder).
package assistant

import "github.com/ptreezh/orc/internal/types"

// Descriptor is the build-time record for one supported assistant.
type Descriptor = types.Descriptor

// Builtin returns the compiled-in descriptor set, keyed by short name.
// Each entry mirrors a real assistant CLI's non-interactive invocation
// surface as observed at the time orc was built; the help-cache analyzer
// re-derives the live pattern and only falls back to DefaultPattern when
// analysis reports an unknown convention.
func Builtin() map[string]Descriptor {
	descriptors := []Descriptor{
		{
			Name:        "claude",
			DisplayName: "Claude Code",
			InstallArgv: []string{"claude", "--version"},
			ProbeArgv:   []string{"claude", "--help"},
			VersionArgv: []string{"claude", "--version"},
			SessionDirs: []string{".claude/projects"},
			DefaultPattern: types.Pattern{
				Category:   types.CategoryGeneric,
				Convention: types.ConventionFlagged,
				PromptFlag: "-p",
			},
		},
		{
			Name:        "gemini",
			DisplayName: "Gemini CLI",
			InstallArgv: []string{"gemini", "--version"},
			ProbeArgv:   []string{"gemini", "--help"},
			VersionArgv: []string{"gemini", "--version"},
			SessionDirs: []string{".gemini/tmp"},
			DefaultPattern: types.Pattern{
				Category:   types.CategoryGeneric,
				Convention: types.ConventionFlagged,
				PromptFlag: "-p",
			},
		},
		{
			Name:        "qwen",
			DisplayName: "Qwen Code",
			InstallArgv: []string{"qwen", "--version"},
			ProbeArgv:   []string{"qwen", "--help"},
			VersionArgv: []string{"qwen", "--version"},
			SessionDirs: []string{".qwen/tmp"},
			DefaultPattern: types.Pattern{
				Category:   types.CategoryGeneric,
				Convention: types.ConventionFlagged,
				PromptFlag: "-p",
			},
		},
		{
			Name:        "iflow",
			DisplayName: "iFlow CLI",
			InstallArgv: []string{"iflow", "--version"},
			ProbeArgv:   []string{"iflow", "--help"},
			VersionArgv: []string{"iflow", "--version"},
			SessionDirs: []string{".iflow/sessions"},
			DefaultPattern: types.Pattern{
				Category:   types.CategoryGeneric,
				Convention: types.ConventionFlagged,
				PromptFlag: "-p",
			},
		},
		{
			Name:        "codex",
			DisplayName: "Codex CLI",
			InstallArgv: []string{"codex", "--version"},
			ProbeArgv:   []string{"codex", "--help"},
			VersionArgv: []string{"codex", "--version"},
			SessionDirs: []string{".codex/sessions"},
			DefaultPattern: types.Pattern{
				Category:     types.CategorySubcommand,
				Subcommands:  []string{"exec"},
				Convention:   types.ConventionSubcommand,
				PromptSubcmd: "exec",
			},
		},
		{
			Name:        "codebuddy",
			DisplayName: "CodeBuddy CLI",
			InstallArgv: []string{"codebuddy", "--version"},
			ProbeArgv:   []string{"codebuddy", "--help"},
			VersionArgv: []string{"codebuddy", "--version"},
			SessionDirs: []string{".codebuddy/sessions"},
			DefaultPattern: types.Pattern{
				Category:   types.CategoryGeneric,
				Convention: types.ConventionFlagged,
				PromptFlag: "--prompt",
			},
		},
		{
			Name:        "copilot",
			DisplayName: "GitHub Copilot CLI",
			InstallArgv: []string{"copilot", "--version"},
			ProbeArgv:   []string{"copilot", "--help"},
			VersionArgv: []string{"copilot", "--version"},
			SessionDirs: []string{".copilot/history"},
			DefaultPattern: types.Pattern{
				Category:   types.CategoryGeneric,
				Convention: types.ConventionFlagged,
				PromptFlag: "-p",
			},
		},
		{
			Name:        "qodercli",
			DisplayName: "Qoder CLI",
			InstallArgv: []string{"qodercli", "--version"},
			ProbeArgv:   []string{"qodercli", "--help"},
			VersionArgv: []string{"qodercli", "--help"},
			SessionDirs: []string{".qoder/sessions"},
			DefaultPattern: types.Pattern{
				Category:   types.CategoryGeneric,
				Convention: types.ConventionPositional,
			},
		},
	}

	out := make(map[string]Descriptor, len(descriptors))
	for _, d := range descriptors {
		out[d.Name] = d
	}
	return out
}

// Names returns the built-in descriptors' short names, sorted as declared.
func Names() []string {
	return []string{"claude", "gemini", "qwen", "iflow", "codex", "codebuddy", "copilot", "qodercli"}
}
