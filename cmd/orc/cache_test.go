package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
)

func TestRunCacheShowEmpty(t *testing.T) {
	tmp := t.TempDir()
	flagConfigRoot = filepath.Join(tmp, "state")
	t.Cleanup(func() { flagConfigRoot = "" })

	var buf bytes.Buffer
	cacheShowCmd.SetOut(&buf)
	cacheShowCmd.SetErr(&buf)
	rootCmd.SetArgs([]string{"cache", "show", "claude"})

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("cache show failed: %v", err)
	}

	got := buf.String()
	if !strings.Contains(got, "claude") || !strings.Contains(got, "not cached") {
		t.Errorf("expected an uncached claude entry, got: %s", got)
	}
}

func TestRunCacheInvalidateUncachedAssistantIsNotAnError(t *testing.T) {
	tmp := t.TempDir()
	flagConfigRoot = filepath.Join(tmp, "state")
	t.Cleanup(func() { flagConfigRoot = "" })

	var buf bytes.Buffer
	cacheInvalidateCmd.SetOut(&buf)
	cacheInvalidateCmd.SetErr(&buf)
	rootCmd.SetArgs([]string{"cache", "invalidate", "claude"})

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("cache invalidate failed: %v", err)
	}

	if !strings.Contains(buf.String(), "cleared") {
		t.Errorf("expected confirmation message, got: %s", buf.String())
	}
}

func TestRunCacheRefreshRejectsUnknownAssistant(t *testing.T) {
	tmp := t.TempDir()
	flagConfigRoot = filepath.Join(tmp, "state")
	t.Cleanup(func() { flagConfigRoot = "" })

	var buf bytes.Buffer
	cacheRefreshCmd.SetOut(&buf)
	cacheRefreshCmd.SetErr(&buf)
	rootCmd.SetArgs([]string{"cache", "refresh", "not-a-real-assistant"})

	if err := rootCmd.Execute(); err == nil {
		t.Fatal("expected an error for an unknown assistant name")
	}
}
