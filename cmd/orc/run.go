package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ptreezh/orc/internal/assistant"
	"github.com/ptreezh/orc/internal/config"
	"github.com/ptreezh/orc/internal/engine"
	"github.com/ptreezh/orc/internal/eventbus"
	"github.com/ptreezh/orc/internal/formatter"
	"github.com/ptreezh/orc/internal/orcerr"
	"github.com/ptreezh/orc/internal/router"
	"github.com/ptreezh/orc/internal/taskfiles"
	"github.com/ptreezh/orc/internal/taskstore"
	"github.com/ptreezh/orc/internal/types"
	"github.com/ptreezh/orc/internal/worktree"
)

var (
	flagMode           string
	flagMaxConcurrency int
	flagTimeout        time.Duration
	flagSubtaskTimeout time.Duration
	flagCandidates     []string
	flagMergeStrategy  string
)

var runCmd = &cobra.Command{
	Use:   "run <prompt>",
	Short: "Run a prompt against one or more assistants",
	Long: `run fans prompt out to one or more assistant CLIs.

If no --candidate is given, the prompt itself is parsed by the intent
router: an utterance like "ask claude to add tests" resolves to the
claude assistant with the residual task text as the prompt. Pass
--candidate (repeatable) to target one or more assistants explicitly
and skip routing.`,
	Args: cobra.ExactArgs(1),
	RunE: runRun,
}

func init() {
	runCmd.Flags().StringVar(&flagMode, "mode", "", "Execution mode: parallel or sequential (default: parallel, or sequential for a single candidate)")
	runCmd.Flags().IntVar(&flagMaxConcurrency, "max-concurrency", 0, "Cap on concurrently running subtasks (default from config)")
	runCmd.Flags().DurationVar(&flagTimeout, "timeout", 0, "Overall task timeout (default: none)")
	runCmd.Flags().DurationVar(&flagSubtaskTimeout, "subtask-timeout", 0, "Per-subtask timeout (default: 10m)")
	runCmd.Flags().StringArrayVar(&flagCandidates, "candidate", nil, "Assistant to target; repeatable. Omit to let the router resolve one from the prompt")
	runCmd.Flags().StringVar(&flagMergeStrategy, "merge-strategy", "", "Worktree merge strategy: no-ff, squash, or selective (default from config)")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	prompt := args[0]

	cfg, err := loadConfig()
	if err != nil {
		return orcerr.New(orcerr.KindUsage, "run", "", err)
	}

	root, err := dataRoot(cfg)
	if err != nil {
		return orcerr.New(orcerr.KindUsage, "run", "", err)
	}

	descriptors := assistant.Builtin()
	known := assistant.Names()

	candidates := flagCandidates
	if len(candidates) == 0 {
		target, residual, _ := router.Route(prompt, known)
		switch {
		case target != nil:
			candidates = []string{*target}
			if residual != "" {
				prompt = residual
			}
			debugf("routed prompt to %s via pattern resolution", *target)
		case cfg.DefaultAssistant != "":
			candidates = []string{cfg.DefaultAssistant}
			debugf("no routing pattern matched; falling back to default assistant %s", cfg.DefaultAssistant)
		default:
			return orcerr.New(orcerr.KindUsage, "run", "", fmt.Errorf("could not resolve an assistant from the prompt; pass --candidate explicitly or configure default_assistant"))
		}
	}
	for _, c := range candidates {
		if _, ok := descriptors[c]; !ok {
			return orcerr.New(orcerr.KindUsage, "run", c, fmt.Errorf("unknown assistant %q", c))
		}
	}

	mode := types.ModeParallel
	switch {
	case flagMode == "parallel":
		mode = types.ModeParallel
	case flagMode == "sequential":
		mode = types.ModeSequential
	case flagMode != "":
		return orcerr.New(orcerr.KindUsage, "run", "", fmt.Errorf("invalid --mode %q; want parallel or sequential", flagMode))
	case len(candidates) == 1:
		mode = types.ModeSequential
	}

	taskID := taskstore.NewTaskID()
	task := types.Task{
		ID:             taskID,
		Prompt:         prompt,
		Mode:           mode,
		Candidates:     candidates,
		MaxConcurrency: flagMaxConcurrency,
		State:          types.TaskRunning,
		CreatedAt:      time.Now(),
	}
	if task.MaxConcurrency <= 0 {
		task.MaxConcurrency = cfg.MaxConcurrency
	}

	subtasks := make([]types.Subtask, 0, len(candidates))
	for _, c := range candidates {
		subtasks = append(subtasks, types.Subtask{
			ID:        taskstore.NewSubtaskID(),
			TaskID:    taskID,
			Assistant: c,
			Prompt:    prompt,
			State:     types.SubtaskPending,
		})
	}

	bus, err := eventbus.Open(root, taskID)
	if err != nil {
		return orcerr.New(orcerr.KindIntegrity, "run", taskID, err)
	}
	defer bus.Close()

	_, _ = bus.Publish(types.EventTaskCreated, "", map[string]string{"prompt": prompt, "mode": string(mode)}, true)
	for _, s := range subtasks {
		_, _ = bus.Publish(types.EventSubtaskPlanned, s.ID, map[string]string{"assistant": s.Assistant}, false)
	}

	files := taskfiles.New(root, taskID, bus)
	if err := files.InitPlan(prompt, mode, subtasks); err != nil {
		warnf(err, "could not write plan document for task %s", taskID)
	}

	cache := assistant.NewCache(root, nil)

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repoRoot := ""
	if r, err := worktree.GetRepoRoot(sigCtx, "."); err == nil {
		repoRoot = r
	}

	worktreePaths := make(map[string]string, len(subtasks))
	if repoRoot != "" {
		for i := range subtasks {
			path, err := worktree.Create(sigCtx, repoRoot, subtasks[i].ID)
			if err != nil {
				warnf(err, "could not create worktree for subtask %s", subtasks[i].ID)
				continue
			}
			worktreePaths[subtasks[i].ID] = path
		}
	}

	runCtx := sigCtx
	if flagTimeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(sigCtx, flagTimeout)
		defer cancel()
	}

	opts := engine.RunOptions{
		MaxConcurrency: task.MaxConcurrency,
		SubtaskTimeout: flagSubtaskTimeout,
		GlobalTimeout:  flagTimeout,
		Mirror:         cmd.OutOrStdout(),
		Cache:          cache,
		Bus:            bus,
		WorkDirs:       worktreePaths,
	}

	summary, err := engine.Run(runCtx, task, subtasks, descriptors, opts)
	if err != nil {
		return orcerr.New(orcerr.KindIntegrity, "run", taskID, err)
	}

	task.State = summary.TaskState()
	task.CompletedAt = time.Now()

	strategy := mergeStrategyFromConfig(cfg.Worktree.MergeStrategy)
	if flagMergeStrategy != "" {
		strategy = mergeStrategyFromConfig(flagMergeStrategy)
	}

	var conflicts []string
	if repoRoot != "" {
		for _, sr := range summary.PerSubtask {
			path, ok := worktreePaths[sr.SubtaskID]
			if !ok {
				continue
			}
			if sr.State == types.SubtaskSucceeded {
				if mergeErr := worktree.Merge(context.Background(), repoRoot, path, sr.SubtaskID, strategy, bus); mergeErr != nil {
					conflicts = append(conflicts, sr.SubtaskID+": "+mergeErr.Error())
					if cfg.Worktree.KeepOnConflict {
						continue
					}
				}
			}
			_ = worktree.Remove(context.Background(), repoRoot, path)
		}
	}

	for _, sr := range summary.PerSubtask {
		_ = files.RecordTransition(sr.SubtaskID, types.SubtaskPending, sr.State, sr.Reason)
		if sr.State == types.SubtaskSucceeded {
			_ = files.RecordFinding(sr.Assistant,
				fmt.Sprintf("subtask %s succeeded in %s", sr.SubtaskID, sr.Duration.Round(time.Millisecond)),
				excerpt(sr.Stdout, 400))
		}
	}

	if task.State == types.TaskCancelled {
		_, _ = bus.Publish(types.EventTaskCancelled, "", nil, true)
	} else {
		_, _ = bus.Publish(types.EventTaskCompleted, "", map[string]string{"state": string(task.State)}, true)
	}

	entry := buildRunEntry(task, summary, conflicts)
	if err := renderEntry(cmd, cfg, entry); err != nil {
		return orcerr.New(orcerr.KindIntegrity, "run", taskID, err)
	}

	if task.State == types.TaskCancelled {
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			return newExitCodeError(4)
		}
		return newExitCodeError(5)
	}
	if task.State == types.TaskFailed && allTimedOut(summary) {
		return newExitCodeError(4)
	}
	return exitForTaskState(task.State)
}

// allTimedOut reports whether every subtask failed and every failure was a
// timeout, in which case the task's exit code reflects the timeout abort
// rather than a generic all-failed outcome.
func allTimedOut(summary engine.Summary) bool {
	if summary.Failed == 0 || summary.Failed != summary.Total {
		return false
	}
	for _, sr := range summary.PerSubtask {
		if sr.Reason != "timeout" {
			return false
		}
	}
	return true
}

// excerpt trims s to at most max bytes for inclusion in the findings
// document, cutting at a line boundary where possible. A trimmed excerpt
// is followed by a "\n..." marker, which is not counted against max.
func excerpt(s string, max int) string {
	s = strings.TrimSpace(s)
	if len(s) <= max {
		return s
	}
	cut := s[:max]
	if i := strings.LastIndexByte(cut, '\n'); i > max/2 {
		cut = cut[:i]
	}
	return cut + "\n..."
}

// mergeStrategyFromConfig translates the configuration file's merge
// strategy spelling ("no-ff", its historical default) to this package's
// Strategy constants.
func mergeStrategyFromConfig(s string) worktree.Strategy {
	switch s {
	case "squash":
		return worktree.StrategySquash
	case "selective":
		return worktree.StrategySelective
	default:
		return worktree.StrategyMerge
	}
}

func exitForTaskState(state types.TaskState) error {
	switch state {
	case types.TaskSucceeded:
		return nil
	case types.TaskPartiallyFailed:
		return newExitCodeError(2)
	case types.TaskFailed:
		return newExitCodeError(3)
	default:
		return newExitCodeError(70)
	}
}

func buildRunEntry(task types.Task, summary engine.Summary, conflicts []string) formatter.Entry {
	entry := formatter.Entry{
		TaskID:      task.ID,
		Prompt:      task.Prompt,
		State:       string(task.State),
		CreatedAt:   task.CreatedAt,
		CompletedAt: task.CompletedAt,
		Conflicts:   conflicts,
	}
	for _, sr := range summary.PerSubtask {
		entry.Subtasks = append(entry.Subtasks, formatter.SubtaskSummary{
			ID:        sr.SubtaskID,
			Assistant: sr.Assistant,
			State:     string(sr.State),
			ExitCode:  sr.ExitCode,
			Reason:    sr.Reason,
		})
		if sr.State == types.SubtaskSucceeded && sr.Stdout != "" {
			entry.Findings = append(entry.Findings, sr.Assistant+": "+firstLine(sr.Stdout))
		}
	}
	return entry
}

func firstLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

func renderTable(w io.Writer, entry formatter.Entry) error {
	fmt.Fprintf(w, "Task %s: %s\n\n", entry.TaskID, entry.State)
	table := formatter.NewTable(w, "SUBTASK", "ASSISTANT", "STATE", "EXIT", "REASON")
	for _, s := range entry.Subtasks {
		table.AddRow(s.ID, s.Assistant, s.State, strconv.Itoa(s.ExitCode), s.Reason)
	}
	if err := table.Render(); err != nil {
		return err
	}
	if len(entry.Conflicts) > 0 {
		fmt.Fprintln(w, "\nConflicts:")
		for _, c := range entry.Conflicts {
			fmt.Fprintf(w, "  - %s\n", c)
		}
	}
	return nil
}

func renderEntry(cmd *cobra.Command, cfg *config.Config, entry formatter.Entry) error {
	w := cmd.OutOrStdout()
	switch strings.ToLower(cfg.Output) {
	case "json", "jsonl":
		return formatter.NewJSONLFormatter().Format(w, &entry)
	case "markdown", "md":
		return formatter.NewMarkdownFormatter().Format(w, &entry)
	default:
		return renderTable(w, entry)
	}
}
