package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ptreezh/orc/internal/eventbus"
	"github.com/ptreezh/orc/internal/orcerr"
	"github.com/ptreezh/orc/internal/types"
)

var (
	flagEventsKind    string
	flagEventsSubtask string
)

var eventsCmd = &cobra.Command{
	Use:   "events <taskId>",
	Short: "Show a task's event log, including every lock decision",
	Long: `events reads a completed (or in-flight) task's append-only event log
and prints it in order. The lock-requested/lock-granted/lock-denied
events are the durable record of every scheduling decision the lock
manager made, so this is the debugging window into why a subtask ran
when it did — or why it waited.`,
	Args: cobra.ExactArgs(1),
	RunE: runEvents,
}

func init() {
	eventsCmd.Flags().StringVar(&flagEventsKind, "kind", "", "Restrict to one event kind, e.g. lock-denied")
	eventsCmd.Flags().StringVar(&flagEventsSubtask, "subtask", "", "Restrict to one subtask id")
	rootCmd.AddCommand(eventsCmd)
}

func runEvents(cmd *cobra.Command, args []string) error {
	taskID := args[0]

	cfg, err := loadConfig()
	if err != nil {
		return orcerr.New(orcerr.KindUsage, "events", taskID, err)
	}
	root, err := dataRoot(cfg)
	if err != nil {
		return orcerr.New(orcerr.KindUsage, "events", taskID, err)
	}

	events, err := eventbus.Query(root, taskID, eventbus.Filter{
		Kind:      types.EventKind(flagEventsKind),
		SubtaskID: flagEventsSubtask,
	})
	if err != nil {
		return orcerr.New(orcerr.KindIntegrity, "events", taskID, err)
	}
	if len(events) == 0 {
		return orcerr.New(orcerr.KindUsage, "events", taskID, fmt.Errorf("no events recorded for task %q", taskID))
	}

	w := cmd.OutOrStdout()
	if strings.ToLower(cfg.Output) == "json" || strings.ToLower(cfg.Output) == "jsonl" {
		encoder := json.NewEncoder(w)
		for _, ev := range events {
			if err := encoder.Encode(ev); err != nil {
				return err
			}
		}
		return nil
	}

	for _, ev := range events {
		line := fmt.Sprintf("%6d  %s  %-22s", ev.Seq, ev.Timestamp.Format("15:04:05.000"), ev.Kind)
		if ev.SubtaskID != "" {
			line += "  " + ev.SubtaskID
		}
		if ev.Payload != nil {
			if encoded, err := json.Marshal(ev.Payload); err == nil && string(encoded) != "null" {
				line += "  " + string(encoded)
			}
		}
		fmt.Fprintln(w, line)
	}
	return nil
}
