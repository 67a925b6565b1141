package assistant

import (
	"context"
	"encoding/json"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/ptreezh/orc/internal/exec"
	"github.com/ptreezh/orc/internal/taskstore"
	"github.com/ptreezh/orc/internal/types"
)

// DefaultTTL is how long an analyzed pattern stays valid before re-analysis
// is attempted.
const DefaultTTL = 7 * 24 * time.Hour

// DefaultVersionHorizon bounds how long a detected assistant version is
// trusted before being re-probed.
const DefaultVersionHorizon = time.Hour

// cacheFile is the on-disk representation of the help cache, persisted as
// indented JSON at <config-root>/help-cache.json.
type cacheFile struct {
	Patterns map[string]types.Pattern  `json:"patterns"`
	Versions map[string]versionedEntry `json:"versions"`
}

type versionedEntry struct {
	Version    string    `json:"version"`
	DetectedAt time.Time `json:"detected_at"`
}

// Cache persists analyzed patterns across orc invocations, keyed by
// assistant short name, with a TTL and a version check so upgrading an
// assistant binary self-heals the cache instead of silently going stale.
type Cache struct {
	path     string
	ttl      time.Duration
	analyzer *Analyzer

	mu   sync.Mutex
	data cacheFile
}

// NewCache opens (or initializes) the help cache rooted at configRoot.
func NewCache(configRoot string, analyzer *Analyzer) *Cache {
	if analyzer == nil {
		analyzer = NewAnalyzer()
	}
	c := &Cache{
		path:     taskstore.HelpCachePath(configRoot),
		ttl:      DefaultTTL,
		analyzer: analyzer,
		data: cacheFile{
			Patterns: map[string]types.Pattern{},
			Versions: map[string]versionedEntry{},
		},
	}
	c.load()
	return c
}

// WithTTL overrides the default pattern TTL.
func (c *Cache) WithTTL(ttl time.Duration) *Cache {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ttl = ttl
	return c
}

func (c *Cache) load() {
	data, err := os.ReadFile(c.path)
	if err != nil {
		return
	}
	var loaded cacheFile
	if err := json.Unmarshal(data, &loaded); err != nil {
		return
	}
	if loaded.Patterns == nil {
		loaded.Patterns = map[string]types.Pattern{}
	}
	if loaded.Versions == nil {
		loaded.Versions = map[string]versionedEntry{}
	}
	c.data = loaded
}

// persist writes the cache atomically: temp file in the same directory,
// fsync, then rename, so a concurrent reader never observes a partial file.
func (c *Cache) persist() error {
	encoded, err := json.MarshalIndent(c.data, "", "  ")
	if err != nil {
		return err
	}
	return taskstore.AtomicWrite(c.path, encoded)
}

// Get returns the cached pattern for descriptor if present and not expired,
// and if the assistant's detected version still matches the version the
// pattern was analyzed against. Otherwise it re-analyzes, caches, and
// returns the fresh pattern. When the probe cannot be run at all, the
// descriptor's default pattern is cached and returned together with the
// probe error.
func (c *Cache) Get(ctx context.Context, descriptor types.Descriptor) (types.Pattern, error) {
	c.mu.Lock()
	cached, ok := c.data.Patterns[descriptor.Name]
	ttl := c.ttl
	c.mu.Unlock()

	version := c.detectVersion(ctx, descriptor)

	if ok && !cached.Expired(ttl, time.Now()) && (version == "" || cached.AssistantVer == version) {
		return cached, nil
	}

	pattern, err := c.analyzer.Analyze(ctx, descriptor)
	if err != nil && pattern.Convention == types.ConventionUnknown {
		// Probe failed outright: fall back to the compiled-in default but
		// still retain the probe note for diagnostics.
		fallback := descriptor.DefaultPattern
		fallback.AnalyzedAt = pattern.AnalyzedAt
		fallback.ProbeNote = pattern.ProbeNote
		pattern = fallback
	}
	pattern.AssistantVer = version

	c.mu.Lock()
	c.data.Patterns[descriptor.Name] = pattern
	persistErr := c.persist()
	c.mu.Unlock()
	if persistErr != nil {
		return pattern, persistErr
	}

	return pattern, err
}

// Invalidate clears descriptor's cache entry; reason is informational only
// (callers typically invoke this after an invocation fails with a usage
// error that indicates the cached convention no longer applies).
func (c *Cache) Invalidate(name string, reason string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data.Patterns, name)
	return c.persist()
}

// Show returns the currently cached pattern for name without triggering
// re-analysis, and whether an entry was present.
func (c *Cache) Show(name string) (types.Pattern, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.data.Patterns[name]
	return p, ok
}

// detectVersion runs descriptor's version command, itself cached for
// DefaultVersionHorizon, returning "" if detection fails.
func (c *Cache) detectVersion(ctx context.Context, descriptor types.Descriptor) string {
	c.mu.Lock()
	entry, ok := c.data.Versions[descriptor.Name]
	c.mu.Unlock()

	if ok && time.Since(entry.DetectedAt) < DefaultVersionHorizon {
		return entry.Version
	}

	if len(descriptor.VersionArgv) == 0 {
		return ""
	}

	result, err := exec.Execute(ctx, exec.Spec{Argv: descriptor.VersionArgv, Timeout: 5 * time.Second})
	if err != nil || result.SpawnFailed || result.ExitCode != 0 {
		return ""
	}

	version := firstNonEmptyLine(result.Stdout + result.Stderr)

	c.mu.Lock()
	c.data.Versions[descriptor.Name] = versionedEntry{Version: version, DetectedAt: time.Now()}
	_ = c.persist()
	c.mu.Unlock()

	return version
}

func firstNonEmptyLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed != "" {
			return trimmed
		}
	}
	return ""
}
