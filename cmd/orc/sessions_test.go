package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRunSessionsDefaultView(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	var buf bytes.Buffer
	sessionsCmd.SetOut(&buf)
	sessionsCmd.SetErr(&buf)
	rootCmd.SetArgs([]string{"sessions"})
	flagSessionsView = "summary"
	t.Cleanup(func() { flagSessionsView = "summary" })

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("sessions command failed: %v", err)
	}
}

func TestRunSessionsRejectsUnknownView(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	var buf bytes.Buffer
	sessionsCmd.SetOut(&buf)
	sessionsCmd.SetErr(&buf)
	flagSessionsView = "nonsense"
	t.Cleanup(func() { flagSessionsView = "summary" })
	rootCmd.SetArgs([]string{"sessions"})

	err := rootCmd.Execute()
	if err == nil {
		t.Fatal("expected an error for an unrecognized --view value")
	}
	if !strings.Contains(err.Error(), "invalid --view") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestRunSessionsRejectsMalformedSince(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	flagSessionsSince = "not-a-timestamp"
	t.Cleanup(func() { flagSessionsSince = "" })
	rootCmd.SetArgs([]string{"sessions"})

	err := rootCmd.Execute()
	if err == nil {
		t.Fatal("expected an error for a malformed --since value")
	}
}

func TestRunSessionsResolveFindsFileByBareID(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	sessionPath := filepath.Join(home, ".claude", "projects", "abc123.jsonl")
	if err := os.MkdirAll(filepath.Dir(sessionPath), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(sessionPath, []byte("{}\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	flagSessionsResolveAssistant = "claude"
	t.Cleanup(func() { flagSessionsResolveAssistant = "" })

	var buf bytes.Buffer
	sessionsResolveCmd.SetOut(&buf)
	sessionsResolveCmd.SetErr(&buf)
	rootCmd.SetArgs([]string{"sessions", "resolve", "abc123"})

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("sessions resolve failed: %v", err)
	}
	if !strings.Contains(buf.String(), sessionPath) {
		t.Errorf("output = %q, want the resolved path %q", buf.String(), sessionPath)
	}
}

func TestRunSessionsResolveUnknownIDIsAnError(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	rootCmd.SetArgs([]string{"sessions", "resolve", "no-such-session"})
	if err := rootCmd.Execute(); err == nil {
		t.Fatal("expected an error for an unresolvable session id")
	}
}

func TestRunSessionsResolveRejectsUnknownAssistant(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	flagSessionsResolveAssistant = "not-a-real-assistant"
	t.Cleanup(func() { flagSessionsResolveAssistant = "" })

	rootCmd.SetArgs([]string{"sessions", "resolve", "whatever"})
	if err := rootCmd.Execute(); err == nil {
		t.Fatal("expected an error for an unknown --assistant")
	}
}
