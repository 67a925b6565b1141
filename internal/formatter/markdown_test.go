package formatter

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestNewMarkdownFormatter(t *testing.T) {
	mf := NewMarkdownFormatter()
	if mf == nil {
		t.Fatal("NewMarkdownFormatter returned nil")
	}
}

func TestMarkdownFormatter_Extension(t *testing.T) {
	mf := NewMarkdownFormatter()
	if ext := mf.Extension(); ext != ".md" {
		t.Errorf("Extension() = %q, want .md", ext)
	}
}

func TestMarkdownFormatter_Format_FullEntry(t *testing.T) {
	mf := NewMarkdownFormatter()

	entry := &Entry{
		TaskID:      "task-001",
		Prompt:      "add rate limiting to the API gateway",
		State:       "succeeded",
		CreatedAt:   time.Date(2026, 1, 25, 10, 0, 0, 0, time.UTC),
		CompletedAt: time.Date(2026, 1, 25, 10, 12, 0, 0, time.UTC),
		Subtasks: []SubtaskSummary{
			{ID: "sub-1", Assistant: "claude", State: "succeeded", ExitCode: 0},
			{ID: "sub-2", Assistant: "gemini", State: "failed", ExitCode: 1, Reason: "timeout"},
		},
		Findings:  []string{"gateway already has a token bucket helper"},
		Conflicts: []string{"sub-1 and sub-2 both touched gateway/limiter.go"},
	}

	var buf bytes.Buffer
	if err := mf.Format(&buf, entry); err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	output := buf.String()

	if !strings.Contains(output, "# Task task-001") {
		t.Error("output should contain the task ID heading")
	}
	if !strings.Contains(output, "**State:** succeeded") {
		t.Error("output should contain the state")
	}
	if !strings.Contains(output, "**Completed:**") {
		t.Error("output should contain completed timestamp")
	}
	if !strings.Contains(output, "## Prompt") {
		t.Error("output should contain the Prompt section")
	}
	if !strings.Contains(output, "add rate limiting to the API gateway") {
		t.Error("output should contain the prompt text")
	}
	if !strings.Contains(output, "## Subtasks") {
		t.Error("output should contain the Subtasks section")
	}
	if !strings.Contains(output, "| claude | succeeded | 0 |") {
		t.Error("output should contain the claude subtask row")
	}
	if !strings.Contains(output, "| gemini | failed | 1 | timeout |") {
		t.Error("output should contain the gemini subtask row with reason")
	}
	if !strings.Contains(output, "## Findings") {
		t.Error("output should contain the Findings section")
	}
	if !strings.Contains(output, "- gateway already has a token bucket helper") {
		t.Error("output should contain the finding item")
	}
	if !strings.Contains(output, "## Conflicts") {
		t.Error("output should contain the Conflicts section")
	}
	if !strings.Contains(output, "- sub-1 and sub-2 both touched gateway/limiter.go") {
		t.Error("output should contain the conflict item")
	}
}

func TestMarkdownFormatter_Format_MinimalEntry(t *testing.T) {
	mf := NewMarkdownFormatter()

	entry := &Entry{
		TaskID:    "task-minimal",
		Prompt:    "fix typo",
		State:     "pending",
		CreatedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	var buf bytes.Buffer
	if err := mf.Format(&buf, entry); err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	output := buf.String()

	if !strings.Contains(output, "# Task task-minimal") {
		t.Error("output should contain the task ID heading")
	}
	if strings.Contains(output, "**Completed:**") {
		t.Error("output should not contain a Completed line when CompletedAt is zero")
	}
	if strings.Contains(output, "## Subtasks") {
		t.Error("output should not contain an empty Subtasks section")
	}
	if strings.Contains(output, "## Findings") {
		t.Error("output should not contain an empty Findings section")
	}
	if strings.Contains(output, "## Conflicts") {
		t.Error("output should not contain an empty Conflicts section")
	}
}

func TestMarkdownFormatter_Format_SpecialCharacters(t *testing.T) {
	mf := NewMarkdownFormatter()

	entry := &Entry{
		TaskID:    "special-chars",
		Prompt:    `Test with "quotes" and <html> & unicode: 日本語`,
		State:     "running",
		CreatedAt: time.Now(),
		Findings: []string{
			"Code: `func() { return }`",
			"Markdown: **bold** and *italic*",
		},
	}

	var buf bytes.Buffer
	if err := mf.Format(&buf, entry); err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	output := buf.String()
	if !strings.Contains(output, "日本語") {
		t.Error("output should preserve unicode characters")
	}
}

func TestMarkdownFormatter_templateFuncs(t *testing.T) {
	mf := NewMarkdownFormatter()
	funcs := mf.templateFuncs()

	t.Run("hasContent", func(t *testing.T) {
		hasContentFn := funcs["hasContent"].(func([]string) bool)
		if !hasContentFn([]string{"item"}) {
			t.Error("hasContent should return true for non-empty slice")
		}
		if hasContentFn([]string{}) {
			t.Error("hasContent should return false for empty slice")
		}
		if hasContentFn(nil) {
			t.Error("hasContent should return false for nil slice")
		}
	})

	t.Run("hasSubtasks", func(t *testing.T) {
		hasSubtasksFn := funcs["hasSubtasks"].(func([]SubtaskSummary) bool)
		if !hasSubtasksFn([]SubtaskSummary{{ID: "sub-1"}}) {
			t.Error("hasSubtasks should return true for non-empty slice")
		}
		if hasSubtasksFn(nil) {
			t.Error("hasSubtasks should return false for nil slice")
		}
	})

	t.Run("join", func(t *testing.T) {
		joinFn := funcs["join"].(func([]string, string) string)
		if got := joinFn([]string{"a", "b"}, ", "); got != "a, b" {
			t.Errorf("join() = %q, want %q", got, "a, b")
		}
	})
}
