package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ptreezh/orc/internal/assistant"
	"github.com/ptreezh/orc/internal/orcerr"
	"github.com/ptreezh/orc/internal/sessions"
)

var (
	flagSessionsAssistant string
	flagSessionsProject   string
	flagSessionsSince     string
	flagSessionsContains  string
	flagSessionsView      string
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Browse the recovery index of prior assistant sessions",
	Long: `sessions scans each known assistant's own on-disk session
directories under $HOME and presents a read-only recovery index over
them, so a task can pick up with knowledge of what an assistant already
saw even after its own context window has rolled off.`,
	RunE: runSessions,
}

var flagSessionsResolveAssistant string

var sessionsResolveCmd = &cobra.Command{
	Use:   "resolve <sessionId>",
	Short: "Locate a session file on disk by its id",
	Long: `resolve turns a session id (bare, with extension, or a distinctive
substring of the filename) into the path of the session file it names,
probing each known assistant's session directories under $HOME.`,
	Args: cobra.ExactArgs(1),
	RunE: runSessionsResolve,
}

func init() {
	sessionsCmd.Flags().StringVar(&flagSessionsAssistant, "assistant", "", "Restrict to one assistant")
	sessionsCmd.Flags().StringVar(&flagSessionsProject, "project", "", "Restrict to sessions whose project path contains this substring")
	sessionsCmd.Flags().StringVar(&flagSessionsSince, "since", "", "Restrict to sessions modified since this RFC3339 timestamp")
	sessionsCmd.Flags().StringVar(&flagSessionsContains, "contains", "", "Restrict to sessions whose first line contains this substring")
	sessionsCmd.Flags().StringVar(&flagSessionsView, "view", "summary", "Rendering view: summary, timeline, detailed, or context")
	sessionsResolveCmd.Flags().StringVar(&flagSessionsResolveAssistant, "assistant", "", "Search only this assistant's session directories")
	sessionsCmd.AddCommand(sessionsResolveCmd)
	rootCmd.AddCommand(sessionsCmd)
}

func runSessionsResolve(cmd *cobra.Command, args []string) error {
	home, err := os.UserHomeDir()
	if err != nil {
		return orcerr.New(orcerr.KindUsage, "sessions.resolve", "", err)
	}

	descriptors := assistant.Builtin()
	if a := flagSessionsResolveAssistant; a != "" {
		if _, ok := descriptors[a]; !ok {
			return orcerr.New(orcerr.KindUsage, "sessions.resolve", a, fmt.Errorf("unknown assistant %q", a))
		}
	}

	resolver := sessions.NewResolver(home, descriptors)
	path, err := resolver.Resolve(flagSessionsResolveAssistant, args[0])
	if err != nil {
		return orcerr.New(orcerr.KindUsage, "sessions.resolve", args[0], err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), path)
	return nil
}

func runSessions(cmd *cobra.Command, args []string) error {
	home, err := os.UserHomeDir()
	if err != nil {
		return orcerr.New(orcerr.KindUsage, "sessions", "", err)
	}

	descriptors := assistant.Builtin()
	records, err := sessions.Scan(context.Background(), descriptors, home)
	if err != nil {
		return orcerr.New(orcerr.KindIntegrity, "sessions", "", err)
	}

	filter := sessions.Filter{
		Assistant:     flagSessionsAssistant,
		Project:       flagSessionsProject,
		ContentDigest: flagSessionsContains,
	}
	if flagSessionsSince != "" {
		since, err := time.Parse(time.RFC3339, flagSessionsSince)
		if err != nil {
			return orcerr.New(orcerr.KindUsage, "sessions", "", fmt.Errorf("invalid --since: %w", err))
		}
		filter.Since = since
	}
	records = sessions.Apply(records, filter)

	w := cmd.OutOrStdout()
	switch flagSessionsView {
	case "summary":
		return sessions.FormatSummary(w, records)
	case "timeline":
		return sessions.FormatTimeline(w, records)
	case "detailed":
		return sessions.FormatDetailed(w, records)
	case "context":
		return sessions.FormatContext(w, records)
	default:
		return orcerr.New(orcerr.KindUsage, "sessions", "", fmt.Errorf("invalid --view %q; want summary, timeline, detailed, or context", flagSessionsView))
	}
}
