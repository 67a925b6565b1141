// Package types defines the data records shared across the orchestration
// core: assistants, invocation patterns, tasks, subtasks, locks, and events.
package types

import "time"

// PromptConvention describes how an assistant accepts a non-interactive prompt.
type PromptConvention string

const (
	// ConventionFlagged means the assistant takes a flag followed by the prompt,
	// e.g. "claude -p <prompt>".
	ConventionFlagged PromptConvention = "flagged-prompt"

	// ConventionSubcommand means the assistant takes a subcommand followed by
	// the prompt, e.g. "codex exec <prompt>".
	ConventionSubcommand PromptConvention = "positional-after-subcommand"

	// ConventionPositional means the assistant takes the prompt as a bare
	// positional argument.
	ConventionPositional PromptConvention = "positional-only"

	// ConventionUnknown means the probe could not determine a convention.
	ConventionUnknown PromptConvention = "unknown"
)

// Category classifies an assistant's CLI surface, as detected by the
// help-cache analyzer's keyword scan.
type Category string

const (
	CategoryGeneric    Category = "generic"
	CategoryREPL       Category = "repl-like"
	CategorySubcommand Category = "subcommand-style"
)

// Descriptor is the build-time record for one supported assistant.
type Descriptor struct {
	// Name is the stable short name, e.g. "claude", "gemini".
	Name string `json:"name"`

	// DisplayName is the human-facing name.
	DisplayName string `json:"display_name"`

	// InstallArgv verifies the assistant is installed (typically "<bin> --version").
	InstallArgv []string `json:"install_argv"`

	// ProbeArgv is the help probe command, typically "<bin> --help".
	ProbeArgv []string `json:"probe_argv"`

	// VersionArgv reports the assistant's version string.
	VersionArgv []string `json:"version_argv"`

	// SessionDirs lists candidate session directories, relative to $HOME.
	SessionDirs []string `json:"session_dirs"`

	// DefaultPattern is the compiled-in fallback used when analysis fails or
	// returns ConventionUnknown.
	DefaultPattern Pattern `json:"default_pattern"`
}

// Pattern is the cached invocation shape for one assistant.
type Pattern struct {
	Category     Category         `json:"category"`
	Subcommands  []string         `json:"subcommands,omitempty"`
	Options      []Option         `json:"options,omitempty"`
	Convention   PromptConvention `json:"convention"`
	PromptFlag   string           `json:"prompt_flag,omitempty"`       // set when Convention == ConventionFlagged
	PromptSubcmd string           `json:"prompt_subcommand,omitempty"` // set when Convention == ConventionSubcommand
	AssistantVer string           `json:"assistant_version"`
	AnalyzedAt   time.Time        `json:"analyzed_at"`
	ProbeNote    string           `json:"probe_note,omitempty"` // raw probe output kept for diagnostics on failure
}

// Option is one recognized CLI flag and its arity.
type Option struct {
	Name  string `json:"name"`
	Arity int    `json:"arity"` // 0 = boolean flag, 1 = takes one value
}

// Expired reports whether the pattern has outlived ttl since AnalyzedAt.
func (p Pattern) Expired(ttl time.Duration, now time.Time) bool {
	if p.AnalyzedAt.IsZero() {
		return true
	}
	return now.Sub(p.AnalyzedAt) > ttl
}

// ExecutionMode selects how a task's subtasks are scheduled.
type ExecutionMode string

const (
	ModeParallel   ExecutionMode = "parallel"
	ModeSequential ExecutionMode = "sequential"
)

// TaskState is the terminal or in-flight state of a task.
type TaskState string

const (
	TaskPending         TaskState = "pending"
	TaskRunning         TaskState = "running"
	TaskSucceeded       TaskState = "succeeded"
	TaskPartiallyFailed TaskState = "partially-failed"
	TaskFailed          TaskState = "failed"
	TaskCancelled       TaskState = "cancelled"
)

// SubtaskState is the lifecycle state of one subtask.
type SubtaskState string

const (
	SubtaskPending    SubtaskState = "pending"
	SubtaskBlocked    SubtaskState = "blocked"
	SubtaskInProgress SubtaskState = "in-progress"
	SubtaskSucceeded  SubtaskState = "succeeded"
	SubtaskFailed     SubtaskState = "failed"
	SubtaskSkipped    SubtaskState = "skipped"
)

// Task is a top-level unit of user intent.
type Task struct {
	ID             string        `json:"id"`
	Prompt         string        `json:"prompt"`
	Mode           ExecutionMode `json:"mode"`
	Candidates     []string      `json:"candidates"`
	MaxConcurrency int           `json:"max_concurrency"`
	State          TaskState     `json:"state"`
	CreatedAt      time.Time     `json:"created_at"`
	CompletedAt    time.Time     `json:"completed_at,omitempty"`
}

// Subtask is one assistant invocation belonging to a Task.
type Subtask struct {
	ID            string       `json:"id"`
	TaskID        string       `json:"task_id"`
	Assistant     string       `json:"assistant"`
	Prompt        string       `json:"prompt"`
	DeclaredFiles []string     `json:"declared_files,omitempty"`
	Dependencies  []string     `json:"dependencies,omitempty"`
	State         SubtaskState `json:"state"`
	Reason        string       `json:"reason,omitempty"` // populated on failed/skipped
	Stdout        string       `json:"stdout,omitempty"`
	Stderr        string       `json:"stderr,omitempty"`
	ExitCode      int          `json:"exit_code"`
	StartedAt     time.Time    `json:"started_at,omitempty"`
	EndedAt       time.Time    `json:"ended_at,omitempty"`
}

// EventKind enumerates the append-only event taxonomy.
type EventKind string

const (
	EventTaskCreated        EventKind = "task-created"
	EventSubtaskPlanned     EventKind = "subtask-planned"
	EventLockRequested      EventKind = "lock-requested"
	EventLockGranted        EventKind = "lock-granted"
	EventLockDenied         EventKind = "lock-denied"
	EventSubtaskStarted     EventKind = "subtask-started"
	EventSubtaskOutputChunk EventKind = "subtask-output-chunk"
	EventSubtaskCompleted   EventKind = "subtask-completed"
	EventSubtaskFailed      EventKind = "subtask-failed"
	EventPlanUpdated        EventKind = "plan-updated"
	EventFindingsUpdated    EventKind = "findings-updated"
	EventProgressUpdated    EventKind = "progress-updated"
	EventConflictDetected   EventKind = "conflict-detected"
	EventTaskCompleted      EventKind = "task-completed"
	EventTaskCancelled      EventKind = "task-cancelled"
	// EventHookTriggered is an in-process callback point only; it is never
	// fused with the external natural-language hook-file protocol.
	EventHookTriggered EventKind = "hook-triggered"
)

// Event is one append-only record in a task's event log.
type Event struct {
	Seq       int64     `json:"id"`
	Timestamp time.Time `json:"ts"`
	Kind      EventKind `json:"kind"`
	TaskID    string    `json:"taskId"`
	SubtaskID string    `json:"subtaskId,omitempty"`
	Payload   any       `json:"payload,omitempty"`
}
