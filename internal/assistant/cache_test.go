package assistant

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ptreezh/orc/internal/types"
)

func TestCache_GetAnalyzesWhenAbsent(t *testing.T) {
	dir := t.TempDir()
	cache := NewCache(dir, NewAnalyzer())

	descriptor := types.Descriptor{
		Name:        "doesnotexist",
		ProbeArgv:   []string{"this-binary-does-not-exist-anywhere"},
		DefaultPattern: types.Pattern{Convention: types.ConventionFlagged, PromptFlag: "-p"},
	}

	pattern, err := cache.Get(context.Background(), descriptor)
	if err == nil {
		t.Fatal("expected an error for a missing probe binary")
	}
	if pattern.Convention != types.ConventionFlagged {
		t.Errorf("Convention = %v, want the descriptor's default convention", pattern.Convention)
	}
}

func TestCache_PersistsAcrossInstances(t *testing.T) {
	dir := t.TempDir()
	cache := NewCache(dir, NewAnalyzer())

	pattern := types.Pattern{
		Convention: types.ConventionFlagged,
		PromptFlag: "-p",
		AnalyzedAt: time.Now(),
	}
	cache.mu.Lock()
	cache.data.Patterns["claude"] = pattern
	if err := cache.persist(); err != nil {
		t.Fatalf("persist() error = %v", err)
	}
	cache.mu.Unlock()

	reopened := NewCache(dir, NewAnalyzer())
	got, ok := reopened.Show("claude")
	if !ok {
		t.Fatal("expected cached entry to survive reopening")
	}
	if got.PromptFlag != "-p" {
		t.Errorf("PromptFlag = %q, want -p", got.PromptFlag)
	}

	if _, err := os.Stat(filepath.Join(dir, "help-cache.json")); err != nil {
		t.Errorf("expected help-cache.json to exist: %v", err)
	}
}

func TestCache_Invalidate(t *testing.T) {
	dir := t.TempDir()
	cache := NewCache(dir, NewAnalyzer())

	cache.mu.Lock()
	cache.data.Patterns["claude"] = types.Pattern{Convention: types.ConventionFlagged}
	cache.mu.Unlock()

	if err := cache.Invalidate("claude", "usage error observed"); err != nil {
		t.Fatalf("Invalidate() error = %v", err)
	}

	if _, ok := cache.Show("claude"); ok {
		t.Error("expected entry to be removed after Invalidate")
	}
}

func TestCache_ExpiredPatternTriggersReanalysis(t *testing.T) {
	dir := t.TempDir()
	cache := NewCache(dir, NewAnalyzer())
	cache.WithTTL(time.Millisecond)

	descriptor := types.Descriptor{
		Name:      "stale",
		ProbeArgv: []string{"this-binary-does-not-exist-anywhere"},
	}

	cache.mu.Lock()
	cache.data.Patterns["stale"] = types.Pattern{
		Convention: types.ConventionFlagged,
		AnalyzedAt: time.Now().Add(-time.Hour),
	}
	cache.mu.Unlock()

	time.Sleep(2 * time.Millisecond)

	_, err := cache.Get(context.Background(), descriptor)
	if err == nil {
		t.Fatal("expected re-analysis to attempt the (missing) probe binary and fail")
	}
}
