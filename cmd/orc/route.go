package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ptreezh/orc/internal/assistant"
	"github.com/ptreezh/orc/internal/orcerr"
	"github.com/ptreezh/orc/internal/router"
)

var routeCmd = &cobra.Command{
	Use:   "route <utterance>",
	Short: "Show how a natural-language utterance would be routed",
	Long: `route is a debugging entry point into the intent router: it parses
utterance against the routing catalogue and prints which assistant and
residual task text "orc run" would resolve, without actually running
anything.`,
	Args: cobra.ExactArgs(1),
	RunE: runRoute,
}

func init() {
	rootCmd.AddCommand(routeCmd)
}

type routeResult struct {
	Utterance string `json:"utterance"`
	Matched   bool   `json:"matched"`
	Assistant string `json:"assistant,omitempty"`
	Task      string `json:"task,omitempty"`
	Pattern   string `json:"pattern,omitempty"`
	Language  string `json:"language,omitempty"`
}

func runRoute(cmd *cobra.Command, args []string) error {
	utterance := args[0]

	cfg, err := loadConfig()
	if err != nil {
		return orcerr.New(orcerr.KindUsage, "route", "", err)
	}

	known := assistant.Names()
	target, task, pattern := router.Route(utterance, known)

	result := routeResult{Utterance: utterance}
	if target != nil {
		result.Matched = true
		result.Assistant = *target
		result.Task = task
		result.Pattern = pattern.Name
		result.Language = pattern.Language
	}

	w := cmd.OutOrStdout()
	switch strings.ToLower(cfg.Output) {
	case "json", "jsonl":
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(result)
	default:
		if !result.Matched {
			fmt.Fprintf(w, "%q did not match any routing pattern\n", utterance)
			return nil
		}
		fmt.Fprintf(w, "assistant: %s\n", result.Assistant)
		fmt.Fprintf(w, "task:      %s\n", result.Task)
		fmt.Fprintf(w, "pattern:   %s (%s)\n", result.Pattern, result.Language)
		return nil
	}
}
