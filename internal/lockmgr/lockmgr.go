// Package lockmgr is the in-memory single-process scheduler over a task's
// subtasks, parameterised by dependency edges (ordering) and declared-file
// overlaps (mutual exclusion). All edges are stored as slices of opaque
// string ids — never cross-referenced pointers — so a snapshot is a plain
// value copy.
package lockmgr

import (
	"fmt"
	"sync"

	"github.com/ptreezh/orc/internal/orcerr"
	"github.com/ptreezh/orc/internal/types"
)

// DenialReason explains why TryAcquire refused a grant.
type DenialReason string

const (
	ReasonUnmetDependency DenialReason = "unmet-dependency"
	ReasonFileConflict    DenialReason = "file-conflict"
	ReasonAlreadyAcquired DenialReason = "already-acquired"
	ReasonAborted         DenialReason = "aborted"
)

// Decision is the outcome of a TryAcquire call.
type Decision struct {
	Granted bool
	Reason  DenialReason
	// Conflicts lists the sibling subtask ids whose declared files overlap,
	// populated only when Reason == ReasonFileConflict.
	Conflicts []string
}

// SubtaskSpec is the registration-time description of one subtask's edges.
type SubtaskSpec struct {
	ID            string
	DeclaredFiles []string
	Dependencies  []string
}

// Result is what the caller reports back to Release.
type Result struct {
	Succeeded bool
}

type lockState struct {
	spec      SubtaskSpec
	state     types.SubtaskState
	fileSet   map[string]bool
}

// Manager is a single task's lock table. It is safe for concurrent use;
// all operations serialize through one mutex and never block on I/O —
// callers are expected to hold a lock only for the lifetime of an
// in-flight child process, releasing it from a separate goroutine.
type Manager struct {
	mu       sync.Mutex
	taskID   string
	subtasks map[string]*lockState
	aborted  bool
}

// New creates an empty Manager for one task. Call Initialise before any
// other operation.
func New(taskID string) *Manager {
	return &Manager{taskID: taskID, subtasks: map[string]*lockState{}}
}

// Initialise registers every subtask in state pending, records its
// declared file set and dependencies, and validates that the dependency
// graph is acyclic. On a cycle, no subtasks are registered and a UsageError
// kind is returned.
func (m *Manager) Initialise(specs []SubtaskSpec) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	byID := make(map[string]SubtaskSpec, len(specs))
	for _, s := range specs {
		byID[s.ID] = s
	}

	if cyclePath := detectCycle(byID); cyclePath != "" {
		return orcerr.New(orcerr.KindUsage, "lockmgr.Initialise", m.taskID,
			fmt.Errorf("%w: %s", orcerr.ErrCycle, cyclePath))
	}

	subtasks := make(map[string]*lockState, len(specs))
	for _, s := range specs {
		fileSet := make(map[string]bool, len(s.DeclaredFiles))
		for _, f := range s.DeclaredFiles {
			fileSet[f] = true
		}
		subtasks[s.ID] = &lockState{spec: s, state: types.SubtaskPending, fileSet: fileSet}
	}

	m.subtasks = subtasks
	m.aborted = false
	return nil
}

// detectCycle runs a DFS over the dependency edges and returns a
// human-readable description of the first back-edge found, or "" if the
// graph is acyclic.
func detectCycle(byID map[string]SubtaskSpec) string {
	const (
		unvisited = 0
		visiting  = 1
		done      = 2
	)
	color := make(map[string]int, len(byID))

	var visit func(id string, path []string) string
	visit = func(id string, path []string) string {
		color[id] = visiting
		path = append(path, id)
		for _, dep := range byID[id].Dependencies {
			switch color[dep] {
			case visiting:
				return fmt.Sprintf("%v -> %s", path, dep)
			case unvisited:
				if _, ok := byID[dep]; !ok {
					continue // dependency outside this batch is not this manager's concern
				}
				if cyc := visit(dep, path); cyc != "" {
					return cyc
				}
			}
		}
		color[id] = done
		return ""
	}

	for id := range byID {
		if color[id] == unvisited {
			if cyc := visit(id, nil); cyc != "" {
				return cyc
			}
		}
	}
	return ""
}

// TryAcquire grants the lock iff the subtask is pending or blocked, every
// dependency has succeeded, and no in-progress sibling declares an
// overlapping file. On grant the subtask transitions to in-progress.
func (m *Manager) TryAcquire(subtaskID string) Decision {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.aborted {
		return Decision{Granted: false, Reason: ReasonAborted}
	}

	st, ok := m.subtasks[subtaskID]
	if !ok {
		return Decision{Granted: false, Reason: ReasonAborted}
	}

	switch st.state {
	case types.SubtaskPending, types.SubtaskBlocked:
	case types.SubtaskInProgress:
		return Decision{Granted: false, Reason: ReasonAlreadyAcquired}
	default:
		return Decision{Granted: false, Reason: ReasonAborted}
	}

	for _, dep := range st.spec.Dependencies {
		depState, exists := m.subtasks[dep]
		if !exists {
			continue
		}
		switch depState.state {
		case types.SubtaskSucceeded:
			continue
		case types.SubtaskFailed, types.SubtaskSkipped:
			st.state = types.SubtaskSkipped
			return Decision{Granted: false, Reason: ReasonUnmetDependency}
		default:
			st.state = types.SubtaskBlocked
			return Decision{Granted: false, Reason: ReasonUnmetDependency}
		}
	}

	var conflicts []string
	for id, other := range m.subtasks {
		if id == subtaskID || other.state != types.SubtaskInProgress {
			continue
		}
		if filesOverlap(st.fileSet, other.fileSet) {
			conflicts = append(conflicts, id)
		}
	}
	if len(conflicts) > 0 {
		return Decision{Granted: false, Reason: ReasonFileConflict, Conflicts: conflicts}
	}

	st.state = types.SubtaskInProgress
	return Decision{Granted: true}
}

func filesOverlap(a, b map[string]bool) bool {
	if len(a) == 0 || len(b) == 0 {
		return false
	}
	for f := range a {
		if b[f] {
			return true
		}
	}
	return false
}

// Release transitions subtaskID to succeeded or failed per result, and
// removes it from the in-progress set. Blocked siblings are not
// automatically re-evaluated here; scheduling is the caller's (the
// parallel execution engine's) responsibility.
func (m *Manager) Release(subtaskID string, result Result) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	st, ok := m.subtasks[subtaskID]
	if !ok {
		return orcerr.New(orcerr.KindUsage, "lockmgr.Release", subtaskID, orcerr.ErrUnknownSubtask)
	}

	if st.state != types.SubtaskInProgress {
		return orcerr.New(orcerr.KindUsage, "lockmgr.Release", subtaskID, orcerr.ErrAlreadyAcquired)
	}

	if result.Succeeded {
		st.state = types.SubtaskSucceeded
	} else {
		st.state = types.SubtaskFailed
	}
	return nil
}

// Abort marks every non-terminal subtask as skipped.
func (m *Manager) Abort(reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.aborted = true
	for _, st := range m.subtasks {
		switch st.state {
		case types.SubtaskSucceeded, types.SubtaskFailed, types.SubtaskSkipped:
			continue
		default:
			st.state = types.SubtaskSkipped
		}
	}
}

// State returns subtaskID's current state and whether it is registered.
func (m *Manager) State(subtaskID string) (types.SubtaskState, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.subtasks[subtaskID]
	if !ok {
		return "", false
	}
	return st.state, true
}

// Ready returns the ids of every subtask still waiting to acquire — state
// pending or blocked — in no particular order. In-progress subtasks are
// excluded; they already hold their lock.
func (m *Manager) Ready() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	var ids []string
	for id, st := range m.subtasks {
		if st.state == types.SubtaskPending || st.state == types.SubtaskBlocked {
			ids = append(ids, id)
		}
	}
	return ids
}

// Pending returns the ids of every subtask not yet in a terminal state,
// in no particular order.
func (m *Manager) Pending() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	var ids []string
	for id, st := range m.subtasks {
		switch st.state {
		case types.SubtaskSucceeded, types.SubtaskFailed, types.SubtaskSkipped:
			continue
		default:
			ids = append(ids, id)
		}
	}
	return ids
}

// AllTerminal reports whether every registered subtask has reached a
// terminal state.
func (m *Manager) AllTerminal() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, st := range m.subtasks {
		switch st.state {
		case types.SubtaskSucceeded, types.SubtaskFailed, types.SubtaskSkipped:
			continue
		default:
			return false
		}
	}
	return true
}
