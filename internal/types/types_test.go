package types

import (
	"encoding/json"
	"testing"
	"time"
)

func TestPatternExpired(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		p    Pattern
		want bool
	}{
		{
			name: "zero AnalyzedAt is always expired",
			p:    Pattern{},
			want: true,
		},
		{
			name: "within ttl is not expired",
			p:    Pattern{AnalyzedAt: now.Add(-1 * time.Hour)},
			want: false,
		},
		{
			name: "past ttl is expired",
			p:    Pattern{AnalyzedAt: now.Add(-48 * time.Hour)},
			want: true,
		},
		{
			name: "exactly at ttl boundary is not expired",
			p:    Pattern{AnalyzedAt: now.Add(-24 * time.Hour)},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.p.Expired(24*time.Hour, now); got != tt.want {
				t.Errorf("Expired() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPatternJSONRoundTrip(t *testing.T) {
	original := Pattern{
		Category:     CategorySubcommand,
		Subcommands:  []string{"exec", "chat"},
		Options:      []Option{{Name: "--model", Arity: 1}, {Name: "--quiet", Arity: 0}},
		Convention:   ConventionSubcommand,
		PromptSubcmd: "exec",
		AssistantVer: "1.2.3",
		AnalyzedAt:   time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC),
	}

	data, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var decoded Pattern
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	if decoded.Category != original.Category {
		t.Errorf("Category mismatch: got %q, want %q", decoded.Category, original.Category)
	}
	if decoded.Convention != original.Convention {
		t.Errorf("Convention mismatch: got %q, want %q", decoded.Convention, original.Convention)
	}
	if len(decoded.Options) != 2 {
		t.Fatalf("Options length mismatch: got %d, want 2", len(decoded.Options))
	}
	if decoded.Options[0].Name != "--model" || decoded.Options[0].Arity != 1 {
		t.Errorf("Options[0] mismatch: got %+v", decoded.Options[0])
	}
	if !decoded.AnalyzedAt.Equal(original.AnalyzedAt) {
		t.Errorf("AnalyzedAt mismatch: got %v, want %v", decoded.AnalyzedAt, original.AnalyzedAt)
	}
}

func TestTaskJSONRoundTrip(t *testing.T) {
	original := Task{
		ID:             "task-1",
		Prompt:         "add retry logic to the client",
		Mode:           ModeParallel,
		Candidates:     []string{"claude", "gemini"},
		MaxConcurrency: 3,
		State:          TaskRunning,
		CreatedAt:      time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC),
	}

	data, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var decoded Task
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	if decoded.ID != original.ID {
		t.Errorf("ID mismatch: got %q, want %q", decoded.ID, original.ID)
	}
	if decoded.Mode != original.Mode {
		t.Errorf("Mode mismatch: got %q, want %q", decoded.Mode, original.Mode)
	}
	if decoded.State != original.State {
		t.Errorf("State mismatch: got %q, want %q", decoded.State, original.State)
	}
	if len(decoded.Candidates) != 2 {
		t.Errorf("Candidates length mismatch: got %d, want 2", len(decoded.Candidates))
	}
	if !decoded.CompletedAt.IsZero() {
		t.Errorf("CompletedAt should be zero, got %v", decoded.CompletedAt)
	}
}

func TestSubtaskJSONRoundTrip(t *testing.T) {
	original := Subtask{
		ID:            "subtask-1",
		TaskID:        "task-1",
		Assistant:     "codex",
		Prompt:        "implement the retry helper",
		DeclaredFiles: []string{"internal/client/retry.go"},
		Dependencies:  []string{"subtask-0"},
		State:         SubtaskSucceeded,
		ExitCode:      0,
		StartedAt:     time.Date(2026, 8, 1, 10, 5, 0, 0, time.UTC),
		EndedAt:       time.Date(2026, 8, 1, 10, 6, 0, 0, time.UTC),
	}

	data, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var decoded Subtask
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	if decoded.Assistant != original.Assistant {
		t.Errorf("Assistant mismatch: got %q, want %q", decoded.Assistant, original.Assistant)
	}
	if len(decoded.DeclaredFiles) != 1 || decoded.DeclaredFiles[0] != "internal/client/retry.go" {
		t.Errorf("DeclaredFiles mismatch: got %v", decoded.DeclaredFiles)
	}
	if decoded.State != original.State {
		t.Errorf("State mismatch: got %q, want %q", decoded.State, original.State)
	}
}

func TestEventJSONRoundTrip(t *testing.T) {
	original := Event{
		Seq:       42,
		Timestamp: time.Date(2026, 8, 1, 10, 6, 0, 0, time.UTC),
		Kind:      EventSubtaskCompleted,
		TaskID:    "task-1",
		SubtaskID: "subtask-1",
		Payload:   map[string]any{"exit_code": float64(0)},
	}

	data, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var decoded Event
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	if decoded.Seq != original.Seq {
		t.Errorf("Seq mismatch: got %d, want %d", decoded.Seq, original.Seq)
	}
	if decoded.Kind != original.Kind {
		t.Errorf("Kind mismatch: got %q, want %q", decoded.Kind, original.Kind)
	}
	if decoded.SubtaskID != original.SubtaskID {
		t.Errorf("SubtaskID mismatch: got %q, want %q", decoded.SubtaskID, original.SubtaskID)
	}
}

func TestTaskStateValues(t *testing.T) {
	states := []TaskState{TaskPending, TaskRunning, TaskSucceeded, TaskPartiallyFailed, TaskFailed, TaskCancelled}
	expected := []string{"pending", "running", "succeeded", "partially-failed", "failed", "cancelled"}

	for i, s := range states {
		if string(s) != expected[i] {
			t.Errorf("TaskState value mismatch: got %q, want %q", s, expected[i])
		}
	}
}

func TestSubtaskStateValues(t *testing.T) {
	states := []SubtaskState{SubtaskPending, SubtaskBlocked, SubtaskInProgress, SubtaskSucceeded, SubtaskFailed, SubtaskSkipped}
	expected := []string{"pending", "blocked", "in-progress", "succeeded", "failed", "skipped"}

	for i, s := range states {
		if string(s) != expected[i] {
			t.Errorf("SubtaskState value mismatch: got %q, want %q", s, expected[i])
		}
	}
}

func TestPromptConventionValues(t *testing.T) {
	conventions := []PromptConvention{ConventionFlagged, ConventionSubcommand, ConventionPositional, ConventionUnknown}
	expected := []string{"flagged-prompt", "positional-after-subcommand", "positional-only", "unknown"}

	for i, c := range conventions {
		if string(c) != expected[i] {
			t.Errorf("PromptConvention value mismatch: got %q, want %q", c, expected[i])
		}
	}
}

func TestEventHookTriggeredIsDistinctKind(t *testing.T) {
	// hook-triggered is an in-process callback marker, never fused with the
	// external hook-file protocol; it must remain its own event kind.
	if EventHookTriggered == EventPlanUpdated {
		t.Error("EventHookTriggered must not collide with EventPlanUpdated")
	}
	if string(EventHookTriggered) != "hook-triggered" {
		t.Errorf("EventHookTriggered = %q, want %q", EventHookTriggered, "hook-triggered")
	}
}
