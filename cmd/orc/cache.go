package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ptreezh/orc/internal/assistant"
	"github.com/ptreezh/orc/internal/orcerr"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or refresh the per-assistant invocation-pattern cache",
}

var cacheShowCmd = &cobra.Command{
	Use:   "show [assistant]",
	Short: "Show the cached invocation pattern for one or all assistants",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runCacheShow,
}

var cacheRefreshCmd = &cobra.Command{
	Use:   "refresh <assistant>",
	Short: "Re-run the help probe for an assistant and update its cached pattern",
	Args:  cobra.ExactArgs(1),
	RunE:  runCacheRefresh,
}

var cacheInvalidateCmd = &cobra.Command{
	Use:   "invalidate <assistant>",
	Short: "Drop an assistant's cached pattern, forcing re-analysis on next use",
	Args:  cobra.ExactArgs(1),
	RunE:  runCacheInvalidate,
}

func init() {
	cacheCmd.AddCommand(cacheShowCmd, cacheRefreshCmd, cacheInvalidateCmd)
	rootCmd.AddCommand(cacheCmd)
}

func runCacheShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return orcerr.New(orcerr.KindUsage, "cache.show", "", err)
	}
	root, err := dataRoot(cfg)
	if err != nil {
		return orcerr.New(orcerr.KindUsage, "cache.show", "", err)
	}

	cache := assistant.NewCache(root, nil)
	names := assistant.Names()
	if len(args) == 1 {
		names = []string{args[0]}
	}

	w := cmd.OutOrStdout()
	jsonOut := strings.ToLower(cfg.Output) == "json" || strings.ToLower(cfg.Output) == "jsonl"

	type shown struct {
		Assistant string `json:"assistant"`
		Cached    bool   `json:"cached"`
		Pattern   any    `json:"pattern,omitempty"`
	}

	var results []shown
	for _, name := range names {
		pattern, ok := cache.Show(name)
		s := shown{Assistant: name, Cached: ok}
		if ok {
			s.Pattern = pattern
		}
		results = append(results, s)
	}

	if jsonOut {
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		for _, s := range results {
			if err := encoder.Encode(s); err != nil {
				return err
			}
		}
		return nil
	}

	for _, s := range results {
		if !s.Cached {
			fmt.Fprintf(w, "%-12s (not cached)\n", s.Assistant)
			continue
		}
		fmt.Fprintf(w, "%-12s %+v\n", s.Assistant, s.Pattern)
	}
	return nil
}

func runCacheRefresh(cmd *cobra.Command, args []string) error {
	name := args[0]
	if _, ok := assistant.Builtin()[name]; !ok {
		return orcerr.New(orcerr.KindUsage, "cache.refresh", name, fmt.Errorf("unknown assistant %q", name))
	}

	cfg, err := loadConfig()
	if err != nil {
		return orcerr.New(orcerr.KindUsage, "cache.refresh", name, err)
	}
	root, err := dataRoot(cfg)
	if err != nil {
		return orcerr.New(orcerr.KindUsage, "cache.refresh", name, err)
	}

	cache := assistant.NewCache(root, nil)
	if err := cache.Invalidate(name, "manual refresh"); err != nil {
		return orcerr.New(orcerr.KindIntegrity, "cache.refresh", name, err)
	}

	descriptor := assistant.Builtin()[name]
	pattern, err := cache.Get(context.Background(), descriptor)
	if err != nil {
		return orcerr.New(orcerr.KindProbe, "cache.refresh", name, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s: %+v\n", name, pattern)
	return nil
}

func runCacheInvalidate(cmd *cobra.Command, args []string) error {
	name := args[0]
	cfg, err := loadConfig()
	if err != nil {
		return orcerr.New(orcerr.KindUsage, "cache.invalidate", name, err)
	}
	root, err := dataRoot(cfg)
	if err != nil {
		return orcerr.New(orcerr.KindUsage, "cache.invalidate", name, err)
	}

	cache := assistant.NewCache(root, nil)
	if err := cache.Invalidate(name, "manual invalidate"); err != nil {
		return orcerr.New(orcerr.KindIntegrity, "cache.invalidate", name, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s: cache entry cleared\n", name)
	return nil
}
