// Package engine orchestrates the life of a single task: accepting its
// already-routed subtasks, registering them with the lock manager, and
// running the lock-gated scheduling loop that spawns each runnable subtask
// through the child process executor.
package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ptreezh/orc/internal/assistant"
	"github.com/ptreezh/orc/internal/eventbus"
	"github.com/ptreezh/orc/internal/exec"
	"github.com/ptreezh/orc/internal/lockmgr"
	"github.com/ptreezh/orc/internal/types"
)

// DefaultMaxConcurrency is the fallback cap when RunOptions.MaxConcurrency
// and the task's own MaxConcurrency are both unset.
const DefaultMaxConcurrency = 3

// DefaultSubtaskTimeout bounds an individual subtask's child process when
// RunOptions.SubtaskTimeout is zero.
const DefaultSubtaskTimeout = 10 * time.Minute

// RunOptions parameterizes one invocation of Run.
type RunOptions struct {
	MaxConcurrency int
	SubtaskTimeout time.Duration
	GlobalTimeout  time.Duration
	Mirror         mirrorWriter
	Cache          *assistant.Cache
	Bus            *eventbus.Bus
	// WorkDirs maps a subtask id to the working directory its child
	// process runs in, typically the subtask's isolated worktree. Absent
	// entries inherit the orchestrator's own working directory.
	WorkDirs map[string]string
}

// mirrorWriter is the minimal surface engine needs from an io.Writer,
// named to avoid importing io solely for a type alias.
type mirrorWriter interface {
	Write(p []byte) (n int, err error)
}

// SubtaskResult is one subtask's outcome, reported in Summary.PerSubtask.
type SubtaskResult struct {
	SubtaskID string
	Assistant string
	State     types.SubtaskState
	Reason    string
	ExitCode  int
	Stdout    string
	Stderr    string
	Duration  time.Duration
}

// Summary aggregates a task's outcome across every subtask.
type Summary struct {
	Total      int
	Succeeded  int
	Failed     int
	Skipped    int
	Cancelled  bool
	PerSubtask []SubtaskResult
}

// TaskState derives the task's terminal state from the summary, per the
// rule: succeeded if every subtask succeeded, partially-failed if some
// did, failed if all did, cancelled if aborted before any success.
func (s Summary) TaskState() types.TaskState {
	if s.Cancelled && s.Succeeded == 0 {
		return types.TaskCancelled
	}
	if s.Succeeded == s.Total && s.Total > 0 {
		return types.TaskSucceeded
	}
	if s.Succeeded > 0 {
		return types.TaskPartiallyFailed
	}
	return types.TaskFailed
}

// Run executes every subtask of task, respecting its declared dependencies
// and file-set overlaps, bounded by opts.MaxConcurrency, and returns the
// aggregated outcome.
func Run(ctx context.Context, task types.Task, subtasks []types.Subtask, descriptors map[string]types.Descriptor, opts RunOptions) (Summary, error) {
	maxConcurrency := opts.MaxConcurrency
	if maxConcurrency <= 0 {
		maxConcurrency = task.MaxConcurrency
	}
	if maxConcurrency <= 0 {
		maxConcurrency = DefaultMaxConcurrency
	}

	if task.Mode == types.ModeSequential {
		subtasks = chainSequentially(subtasks)
	}

	manager := lockmgr.New(task.ID)
	specs := make([]lockmgr.SubtaskSpec, 0, len(subtasks))
	byID := make(map[string]*types.Subtask, len(subtasks))
	for i := range subtasks {
		s := &subtasks[i]
		byID[s.ID] = s
		specs = append(specs, lockmgr.SubtaskSpec{
			ID:            s.ID,
			DeclaredFiles: s.DeclaredFiles,
			Dependencies:  s.Dependencies,
		})
	}

	if err := manager.Initialise(specs); err != nil {
		return Summary{}, err
	}

	runCtx := ctx
	var cancel context.CancelFunc
	if opts.GlobalTimeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, opts.GlobalTimeout)
		defer cancel()
	}

	type completion struct {
		subtaskID string
		result    SubtaskResult
	}

	completions := make(chan completion, len(subtasks))
	inFlight := 0
	results := make(map[string]SubtaskResult, len(subtasks))
	cancelled := false
	var mirrorMu sync.Mutex

	publish := func(kind types.EventKind, subtaskID string, payload any) {
		if opts.Bus == nil {
			return
		}
		_, _ = opts.Bus.Publish(kind, subtaskID, payload, false)
	}

	for !manager.AllTerminal() {
		if runCtx.Err() != nil {
			manager.Abort("global timeout exceeded")
			cancelled = true
			break
		}

		// A single scan of Ready() only advances one hop of a dependency
		// chain: a root failure marks its direct dependent skipped, but a
		// grandchild still reads that dependent's pre-skip state in the same
		// pass. Rescan to a fixpoint so multi-hop skip propagation (A fails
		// => B skipped => C skipped) fully settles before deciding whether
		// anything is left to wait on.
		for {
			progressed := false
			for _, id := range manager.Ready() {
				if inFlight >= maxConcurrency {
					break
				}
				publish(types.EventLockRequested, id, nil)
				decision := manager.TryAcquire(id)
				if decision.Granted {
					publish(types.EventLockGranted, id, nil)
					inFlight++
					subtask := byID[id]
					publish(types.EventSubtaskStarted, id, nil)

					go func(s *types.Subtask) {
						result := runSubtask(runCtx, *s, descriptors, opts, &mirrorMu)
						completions <- completion{subtaskID: s.ID, result: result}
					}(subtask)
					continue
				}

				switch decision.Reason {
				case lockmgr.ReasonFileConflict:
					publish(types.EventLockDenied, id, map[string]any{
						"reason":    string(decision.Reason),
						"conflicts": decision.Conflicts,
					})
				case lockmgr.ReasonUnmetDependency:
					if state, _ := manager.State(id); state == types.SubtaskSkipped {
						// A failed or skipped dependency just cascaded; the
						// next pass lets this skip reach its own dependents.
						progressed = true
						continue
					}
					publish(types.EventLockDenied, id, map[string]string{"reason": string(decision.Reason)})
				}
			}
			if !progressed {
				break
			}
		}

		if inFlight == 0 {
			if manager.AllTerminal() {
				break
			}
			// Nothing runnable and nothing in flight: remaining subtasks
			// are permanently blocked, and the fixpoint scan above already
			// propagated every skip it could, so there is nothing left to
			// wait on.
			break
		}

		select {
		case <-runCtx.Done():
			manager.Abort("global timeout exceeded")
			cancelled = true
		case c := <-completions:
			inFlight--
			results[c.subtaskID] = c.result
			_ = manager.Release(c.subtaskID, lockmgr.Result{Succeeded: c.result.State == types.SubtaskSucceeded})
			if c.result.State == types.SubtaskSucceeded {
				publish(types.EventSubtaskCompleted, c.subtaskID, nil)
			} else {
				publish(types.EventSubtaskFailed, c.subtaskID, map[string]string{"reason": c.result.Reason})
			}
		}
	}

	// Drain any completions still arriving after the loop exited on abort.
	for inFlight > 0 {
		c := <-completions
		inFlight--
		results[c.subtaskID] = c.result
		_ = manager.Release(c.subtaskID, lockmgr.Result{Succeeded: c.result.State == types.SubtaskSucceeded})
	}

	summary := Summary{Total: len(subtasks)}
	for i := range subtasks {
		id := subtasks[i].ID
		state, _ := manager.State(id)
		result, ok := results[id]
		if !ok {
			result = SubtaskResult{SubtaskID: id, Assistant: subtasks[i].Assistant, State: state}
		}
		result.State = state

		switch state {
		case types.SubtaskSucceeded:
			summary.Succeeded++
		case types.SubtaskFailed:
			summary.Failed++
		case types.SubtaskSkipped:
			summary.Skipped++
			if result.Reason == "" {
				result.Reason = "dependency-failure"
			}
		}
		summary.PerSubtask = append(summary.PerSubtask, result)
	}

	summary.Cancelled = cancelled
	return summary, nil
}

// chainSequentially builds a linear dependency chain over subtasks in
// their given order, so sequential mode reuses the exact same scheduling
// loop as parallel mode with no special-casing.
func chainSequentially(subtasks []types.Subtask) []types.Subtask {
	chained := make([]types.Subtask, len(subtasks))
	copy(chained, subtasks)
	for i := 1; i < len(chained); i++ {
		chained[i].Dependencies = append(append([]string{}, chained[i].Dependencies...), chained[i-1].ID)
	}
	return chained
}

// runSubtask resolves the subtask's assistant descriptor and pattern,
// builds its argv, and spawns it via the child process executor.
func runSubtask(ctx context.Context, subtask types.Subtask, descriptors map[string]types.Descriptor, opts RunOptions, mirrorMu *sync.Mutex) SubtaskResult {
	start := time.Now()
	descriptor, ok := descriptors[subtask.Assistant]
	if !ok {
		return SubtaskResult{
			SubtaskID: subtask.ID, Assistant: subtask.Assistant,
			State: types.SubtaskFailed, Reason: fmt.Sprintf("unknown assistant %q", subtask.Assistant),
		}
	}

	pattern := descriptor.DefaultPattern
	if opts.Cache != nil {
		if p, err := opts.Cache.Get(ctx, descriptor); err == nil {
			pattern = p
		}
	}

	argv := assistant.BuildArgv(descriptor, pattern, subtask.Prompt, func(msg string) {
		if opts.Bus != nil {
			_, _ = opts.Bus.Publish(types.EventSubtaskOutputChunk, subtask.ID, map[string]string{"warning": msg}, false)
		}
	})

	timeout := opts.SubtaskTimeout
	if timeout <= 0 {
		timeout = DefaultSubtaskTimeout
	}

	result, err := exec.Execute(ctx, exec.Spec{
		Argv:    argv,
		WorkDir: opts.WorkDirs[subtask.ID],
		Timeout: timeout,
		Prefix:  subtask.Assistant,
		Mirror:  opts.Mirror,
	}.WithMirrorLock(mirrorMu))

	sr := SubtaskResult{
		SubtaskID: subtask.ID,
		Assistant: subtask.Assistant,
		ExitCode:  result.ExitCode,
		Stdout:    result.Stdout,
		Stderr:    result.Stderr,
		Duration:  time.Since(start),
	}

	switch {
	case result.TimedOut:
		sr.State = types.SubtaskFailed
		sr.Reason = "timeout"
	case result.SpawnFailed || err != nil:
		sr.State = types.SubtaskFailed
		sr.Reason = "spawn-failed"
	case result.ExitCode != 0:
		sr.State = types.SubtaskFailed
		sr.Reason = fmt.Sprintf("exit-code-%d", result.ExitCode)
	default:
		sr.State = types.SubtaskSucceeded
	}

	return sr
}
