package main

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ptreezh/orc/internal/engine"
	"github.com/ptreezh/orc/internal/types"
	"github.com/ptreezh/orc/internal/worktree"
)

func TestRunWithExplicitCandidateAndMissingBinary(t *testing.T) {
	tmp := t.TempDir()
	flagConfigRoot = filepath.Join(tmp, "state")
	flagCandidates = []string{"claude"}
	t.Cleanup(func() {
		flagConfigRoot = ""
		flagCandidates = nil
	})

	var buf bytes.Buffer
	runCmd.SetOut(&buf)
	runCmd.SetErr(&buf)
	rootCmd.SetArgs([]string{"run", "do something that claude cannot actually run in this test"})

	err := rootCmd.Execute()
	if err == nil {
		t.Fatal("expected a task-outcome error since the claude binary is not installed in the test environment")
	}

	var ec *exitCodeError
	if !errors.As(err, &ec) {
		t.Fatalf("expected an *exitCodeError, got %T: %v", err, err)
	}
	if ec.code != 3 {
		t.Errorf("exit code = %d, want 3 (all subtasks failed)", ec.code)
	}

	if !strings.Contains(buf.String(), "claude") {
		t.Errorf("expected rendered output to mention the candidate, got: %s", buf.String())
	}
}

func TestRunRejectsUnresolvableUtteranceWithoutCandidate(t *testing.T) {
	tmp := t.TempDir()
	flagConfigRoot = filepath.Join(tmp, "state")
	flagCandidates = nil
	t.Cleanup(func() { flagConfigRoot = "" })

	var buf bytes.Buffer
	runCmd.SetOut(&buf)
	runCmd.SetErr(&buf)
	rootCmd.SetArgs([]string{"run", "this utterance does not match any routing pattern"})

	if err := rootCmd.Execute(); err == nil {
		t.Fatal("expected an error when no candidate is given and the router cannot resolve one")
	}
}

func TestRunRejectsUnknownCandidate(t *testing.T) {
	tmp := t.TempDir()
	flagConfigRoot = filepath.Join(tmp, "state")
	flagCandidates = []string{"not-a-real-assistant"}
	t.Cleanup(func() {
		flagConfigRoot = ""
		flagCandidates = nil
	})

	rootCmd.SetArgs([]string{"run", "do anything"})
	if err := rootCmd.Execute(); err == nil {
		t.Fatal("expected an error for an unknown --candidate")
	}
}

func TestMergeStrategyFromConfig(t *testing.T) {
	tests := []struct {
		input string
		want  worktree.Strategy
	}{
		{"squash", worktree.StrategySquash},
		{"selective", worktree.StrategySelective},
		{"no-ff", worktree.StrategyMerge},
		{"", worktree.StrategyMerge},
		{"merge", worktree.StrategyMerge},
	}
	for _, tt := range tests {
		if got := mergeStrategyFromConfig(tt.input); got != tt.want {
			t.Errorf("mergeStrategyFromConfig(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestExitForTaskState(t *testing.T) {
	tests := []struct {
		state    types.TaskState
		wantCode int
		wantNil  bool
	}{
		{types.TaskSucceeded, 0, true},
		{types.TaskPartiallyFailed, 2, false},
		{types.TaskFailed, 3, false},
	}
	for _, tt := range tests {
		err := exitForTaskState(tt.state)
		if tt.wantNil {
			if err != nil {
				t.Errorf("exitForTaskState(%v) = %v, want nil", tt.state, err)
			}
			continue
		}
		var ec *exitCodeError
		if !errors.As(err, &ec) {
			t.Fatalf("exitForTaskState(%v): expected *exitCodeError, got %T", tt.state, err)
		}
		if ec.code != tt.wantCode {
			t.Errorf("exitForTaskState(%v) code = %d, want %d", tt.state, ec.code, tt.wantCode)
		}
	}
}

func TestAllTimedOut(t *testing.T) {
	tests := []struct {
		name    string
		summary engine.Summary
		want    bool
	}{
		{
			name: "all failed on timeout",
			summary: engine.Summary{Total: 2, Failed: 2, PerSubtask: []engine.SubtaskResult{
				{Reason: "timeout"}, {Reason: "timeout"},
			}},
			want: true,
		},
		{
			name: "mixed failure reasons",
			summary: engine.Summary{Total: 2, Failed: 2, PerSubtask: []engine.SubtaskResult{
				{Reason: "timeout"}, {Reason: "spawn-failed"},
			}},
			want: false,
		},
		{
			name:    "partial failure is not a timeout abort",
			summary: engine.Summary{Total: 2, Failed: 1, Succeeded: 1},
			want:    false,
		},
		{
			name:    "nothing failed",
			summary: engine.Summary{Total: 1, Succeeded: 1},
			want:    false,
		},
	}
	for _, tt := range tests {
		if got := allTimedOut(tt.summary); got != tt.want {
			t.Errorf("%s: allTimedOut() = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestExcerpt(t *testing.T) {
	if got := excerpt("short output", 400); got != "short output" {
		t.Errorf("excerpt() = %q, want input unchanged", got)
	}

	long := strings.Repeat("line of output\n", 50)
	got := excerpt(long, 100)
	if len(got) > 110 {
		t.Errorf("excerpt() length = %d, want bounded", len(got))
	}
	if !strings.HasSuffix(got, "...") {
		t.Errorf("excerpt() = %q, want ellipsis suffix", got)
	}
}

func TestFirstLine(t *testing.T) {
	if got := firstLine("\n\n  hello world  \nsecond"); got != "hello world" {
		t.Errorf("firstLine() = %q, want %q", got, "hello world")
	}
	if got := firstLine("   \n \n"); got != "" {
		t.Errorf("firstLine() = %q, want empty", got)
	}
}
