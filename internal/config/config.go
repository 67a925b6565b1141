// Package config provides configuration management for the orchestrator.
// Configuration is loaded from (highest to lowest priority):
// 1. Command-line flags
// 2. Environment variables (ORC_*)
// 3. Project config (.orc/config.yaml in cwd)
// 4. Home config (~/.orc/config.yaml)
// 5. Defaults
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all orchestrator configuration.
type Config struct {
	// Output controls the default output format (table, json, markdown, jsonl).
	Output string `yaml:"output" json:"output"`

	// BaseDir is the orchestrator data directory (default: .orc).
	BaseDir string `yaml:"base_dir" json:"base_dir"`

	// Verbose enables verbose output.
	Verbose bool `yaml:"verbose" json:"verbose"`

	// MaxConcurrency caps the number of subtasks run at once by the
	// parallel execution engine when a task does not set its own cap.
	MaxConcurrency int `yaml:"max_concurrency" json:"max_concurrency"`

	// DefaultAssistant receives prompts the intent router could not
	// resolve to a target. Empty means unresolved prompts are a usage
	// error.
	DefaultAssistant string `yaml:"default_assistant" json:"default_assistant"`

	// Cache settings for the help-cache analyzer.
	Cache CacheConfig `yaml:"cache" json:"cache"`

	// Worktree settings for the worktree manager.
	Worktree WorktreeConfig `yaml:"worktree" json:"worktree"`

	// Assistants holds per-assistant command overrides, keyed by short name.
	Assistants map[string]AssistantOverride `yaml:"assistants" json:"assistants"`
}

// CacheConfig holds help-cache analyzer settings.
type CacheConfig struct {
	// TTL is how long an analyzed pattern stays valid, as a Go duration
	// string. Default: "168h" (one week).
	TTL string `yaml:"ttl" json:"ttl"`

	// ProbeTimeout bounds how long a single "--help" probe may run, as a
	// Go duration string. Default: "10s".
	ProbeTimeout string `yaml:"probe_timeout" json:"probe_timeout"`
}

// WorktreeConfig holds worktree manager settings.
type WorktreeConfig struct {
	// MergeStrategy controls how completed subtask worktrees land back on
	// the base branch. Values: "no-ff" (default), "squash", "selective".
	MergeStrategy string `yaml:"merge_strategy" json:"merge_strategy"`

	// KeepOnConflict leaves a worktree in place for manual resolution
	// instead of removing it when a merge conflict is detected.
	KeepOnConflict bool `yaml:"keep_on_conflict" json:"keep_on_conflict"`
}

// AssistantOverride lets a project rebind an assistant's argv or disable it.
type AssistantOverride struct {
	Command  string `yaml:"command" json:"command"`
	Disabled bool   `yaml:"disabled" json:"disabled"`
}

// Default config values (used in resolution and validation).
const (
	defaultOutput         = "table"
	defaultBaseDir        = ".orc"
	defaultMaxConcurrency = 3
	defaultCacheTTL       = "168h"
	defaultProbeTimeout   = "10s"
	defaultMergeStrategy  = "no-ff"
)

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Output:         defaultOutput,
		BaseDir:        defaultBaseDir,
		Verbose:        false,
		MaxConcurrency: defaultMaxConcurrency,
		Cache: CacheConfig{
			TTL:          defaultCacheTTL,
			ProbeTimeout: defaultProbeTimeout,
		},
		Worktree: WorktreeConfig{
			MergeStrategy:  defaultMergeStrategy,
			KeepOnConflict: true,
		},
		Assistants: map[string]AssistantOverride{},
	}
}

// Load loads configuration with proper precedence.
// Priority: flags > env > project > home > defaults
func Load(flagOverrides *Config) (*Config, error) {
	cfg := Default()

	homeConfig, _ := loadFromPath(homeConfigPath())
	if homeConfig != nil {
		cfg = merge(cfg, homeConfig)
	}

	projectConfig, _ := loadFromPath(projectConfigPath())
	if projectConfig != nil {
		cfg = merge(cfg, projectConfig)
	}

	cfg = applyEnv(cfg)

	if flagOverrides != nil {
		cfg = merge(cfg, flagOverrides)
	}

	return cfg, nil
}

// configRoot returns the root directory under which home/project config
// files are resolved, honoring ORC_CONFIG_ROOT when set.
func configRoot() string {
	if v := strings.TrimSpace(os.Getenv("ORC_CONFIG_ROOT")); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return home
}

// homeConfigPath returns the home config path.
func homeConfigPath() string {
	root := configRoot()
	if root == "" {
		return ""
	}
	return filepath.Join(root, ".orc", "config.yaml")
}

// projectConfigPath returns the project config path.
func projectConfigPath() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}
	return filepath.Join(cwd, ".orc", "config.yaml")
}

// loadFromPath loads config from a YAML file.
func loadFromPath(path string) (*Config, error) {
	if path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// applyEnv applies environment variable overrides. Only ORC_CONFIG_ROOT and
// ORC_MAX_CONCURRENCY are part of the supported surface; the rest are
// accepted here for parity with the YAML fields but are not required.
func applyEnv(cfg *Config) *Config {
	if v := os.Getenv("ORC_OUTPUT"); v != "" {
		cfg.Output = v
	}
	if v := os.Getenv("ORC_BASE_DIR"); v != "" {
		cfg.BaseDir = v
	}
	if v := os.Getenv("ORC_VERBOSE"); v == "true" || v == "1" {
		cfg.Verbose = true
	}
	if v := os.Getenv("ORC_MAX_CONCURRENCY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.MaxConcurrency = n
		}
	}
	if v := os.Getenv("ORC_WORKTREE_MERGE_STRATEGY"); v != "" {
		cfg.Worktree.MergeStrategy = v
	}
	return cfg
}

// merge merges src into dst, with src values taking precedence.
func merge(dst, src *Config) *Config {
	if src.Output != "" {
		dst.Output = src.Output
	}
	if src.BaseDir != "" {
		dst.BaseDir = src.BaseDir
	}
	if src.Verbose {
		dst.Verbose = true
	}
	if src.MaxConcurrency != 0 {
		dst.MaxConcurrency = src.MaxConcurrency
	}
	if src.DefaultAssistant != "" {
		dst.DefaultAssistant = src.DefaultAssistant
	}
	if src.Cache.TTL != "" {
		dst.Cache.TTL = src.Cache.TTL
	}
	if src.Cache.ProbeTimeout != "" {
		dst.Cache.ProbeTimeout = src.Cache.ProbeTimeout
	}
	if src.Worktree.MergeStrategy != "" {
		dst.Worktree.MergeStrategy = src.Worktree.MergeStrategy
	}
	if src.Worktree.KeepOnConflict {
		dst.Worktree.KeepOnConflict = true
	}
	for name, override := range src.Assistants {
		if dst.Assistants == nil {
			dst.Assistants = map[string]AssistantOverride{}
		}
		dst.Assistants[name] = override
	}

	return dst
}

// Source represents where a config value came from.
type Source string

const (
	SourceDefault Source = "default"
	SourceHome    Source = "~/.orc/config.yaml"
	SourceProject Source = ".orc/config.yaml"
	SourceEnv     Source = "environment"
	SourceFlag    Source = "flag"
)

// getEnvString returns the value and whether the env var was set.
func getEnvString(key string) (string, bool) {
	v := os.Getenv(key)
	return v, v != ""
}

// getEnvBool returns the boolean value and whether it was truthy.
func getEnvBool(key string) (bool, bool) {
	v := os.Getenv(key)
	if v == "true" || v == "1" {
		return true, true
	}
	return false, false
}

// resolveStringField resolves a string through the precedence chain.
// Returns the resolved value and its source.
func resolveStringField(home, project, env, flag, def string) resolved {
	result := resolved{Value: def, Source: SourceDefault}

	if home != "" {
		result = resolved{Value: home, Source: SourceHome}
	}
	if project != "" {
		result = resolved{Value: project, Source: SourceProject}
	}
	if env != "" {
		result = resolved{Value: env, Source: SourceEnv}
	}
	if flag != "" {
		result = resolved{Value: flag, Source: SourceFlag}
	}

	return result
}

// resolveIntField resolves an int through the precedence chain, treating 0
// as "not set" at every level below default.
func resolveIntField(home, project, env, flag, def int) resolved {
	result := resolved{Value: def, Source: SourceDefault}

	if home != 0 {
		result = resolved{Value: home, Source: SourceHome}
	}
	if project != 0 {
		result = resolved{Value: project, Source: SourceProject}
	}
	if env != 0 {
		result = resolved{Value: env, Source: SourceEnv}
	}
	if flag != 0 {
		result = resolved{Value: flag, Source: SourceFlag}
	}

	return result
}

// ResolvedConfig shows config values with their sources, surfaced by
// "orc doctor" for diagnosing precedence surprises.
type ResolvedConfig struct {
	Output         resolved `json:"output"`
	BaseDir        resolved `json:"base_dir"`
	Verbose        resolved `json:"verbose"`
	MaxConcurrency resolved `json:"max_concurrency"`
	CacheTTL       resolved `json:"cache_ttl"`
	MergeStrategy  resolved `json:"merge_strategy"`
}

type resolved struct {
	Value  interface{} `json:"value"`
	Source Source      `json:"source"`
}

// Resolve returns configuration with source tracking.
// Uses precedence chain: flags > env > project > home > defaults.
func Resolve(flagOutput, flagBaseDir string, flagVerbose bool, flagMaxConcurrency int) *ResolvedConfig {
	homeConfig, _ := loadFromPath(homeConfigPath())
	projectConfig, _ := loadFromPath(projectConfigPath())

	var homeOutput, homeBaseDir, homeCacheTTL, homeMergeStrategy string
	var homeVerbose bool
	var homeMaxConcurrency int
	if homeConfig != nil {
		homeOutput = homeConfig.Output
		homeBaseDir = homeConfig.BaseDir
		homeVerbose = homeConfig.Verbose
		homeMaxConcurrency = homeConfig.MaxConcurrency
		homeCacheTTL = homeConfig.Cache.TTL
		homeMergeStrategy = homeConfig.Worktree.MergeStrategy
	}

	var projectOutput, projectBaseDir, projectCacheTTL, projectMergeStrategy string
	var projectVerbose bool
	var projectMaxConcurrency int
	if projectConfig != nil {
		projectOutput = projectConfig.Output
		projectBaseDir = projectConfig.BaseDir
		projectVerbose = projectConfig.Verbose
		projectMaxConcurrency = projectConfig.MaxConcurrency
		projectCacheTTL = projectConfig.Cache.TTL
		projectMergeStrategy = projectConfig.Worktree.MergeStrategy
	}

	envOutput, _ := getEnvString("ORC_OUTPUT")
	envBaseDir, _ := getEnvString("ORC_BASE_DIR")
	envVerbose, envVerboseSet := getEnvBool("ORC_VERBOSE")
	envMergeStrategy, _ := getEnvString("ORC_WORKTREE_MERGE_STRATEGY")
	var envMaxConcurrency int
	if v, ok := getEnvString("ORC_MAX_CONCURRENCY"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			envMaxConcurrency = n
		}
	}

	rc := &ResolvedConfig{
		Output:         resolveStringField(homeOutput, projectOutput, envOutput, flagOutput, defaultOutput),
		BaseDir:        resolveStringField(homeBaseDir, projectBaseDir, envBaseDir, flagBaseDir, defaultBaseDir),
		Verbose:        resolved{Value: false, Source: SourceDefault},
		MaxConcurrency: resolveIntField(homeMaxConcurrency, projectMaxConcurrency, envMaxConcurrency, flagMaxConcurrency, defaultMaxConcurrency),
		CacheTTL:       resolveStringField(homeCacheTTL, projectCacheTTL, "", "", defaultCacheTTL),
		MergeStrategy:  resolveStringField(homeMergeStrategy, projectMergeStrategy, envMergeStrategy, "", defaultMergeStrategy),
	}

	if homeVerbose {
		rc.Verbose = resolved{Value: true, Source: SourceHome}
	}
	if projectVerbose {
		rc.Verbose = resolved{Value: true, Source: SourceProject}
	}
	if envVerboseSet && envVerbose {
		rc.Verbose = resolved{Value: true, Source: SourceEnv}
	}
	if flagVerbose {
		rc.Verbose = resolved{Value: true, Source: SourceFlag}
	}

	return rc
}
