// Package taskstore defines the on-disk task directory layout shared by the
// event bus, the task-planning files manager, the session index, and the
// worktree manager, plus ID generation for tasks and subtasks.
package taskstore

import (
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// DefaultConfigSubdir is the directory created under the config root for
// all orchestrator-owned on-disk state.
const DefaultConfigSubdir = ".orc"

// TasksDir is the subdirectory, relative to the config root, holding one
// directory per task.
const TasksDir = "tasks"

// EventsFile is the append-only event log filename within a task directory.
const EventsFile = "events.log"

// LocksFile is the optional snapshot of the lock manager's state.
const LocksFile = "locks.json"

// PlanFile, FindingsFile, and ProgressFile are the three task-planning
// documents maintained per task.
const (
	PlanFile     = "plan"
	FindingsFile = "findings"
	ProgressFile = "progress"
)

// WorktreesDir holds one subdirectory per subtask when C10 is active.
const WorktreesDir = "worktrees"

// HelpCacheFile is C1's cross-assistant cache, stored directly under the
// config root.
const HelpCacheFile = "help-cache.json"

// SessionsIndexCacheFile is C9's last scan, stored directly under the
// config root.
const SessionsIndexCacheFile = "sessions-index.cache"

// NewTaskID generates an opaque task identifier.
func NewTaskID() string {
	return "task-" + uuid.NewString()
}

// NewSubtaskID generates an opaque subtask identifier.
func NewSubtaskID() string {
	return "sub-" + uuid.NewString()
}

// TaskDir returns the directory for one task under the given config root.
func TaskDir(configRoot, taskID string) string {
	return filepath.Join(configRoot, TasksDir, taskID)
}

// EventsPath returns the path to a task's append-only event log.
func EventsPath(configRoot, taskID string) string {
	return filepath.Join(TaskDir(configRoot, taskID), EventsFile)
}

// LocksPath returns the path to a task's lock-state snapshot.
func LocksPath(configRoot, taskID string) string {
	return filepath.Join(TaskDir(configRoot, taskID), LocksFile)
}

// PlanPath, FindingsPath, and ProgressPath return the paths to the three
// task-planning documents.
func PlanPath(configRoot, taskID string) string {
	return filepath.Join(TaskDir(configRoot, taskID), PlanFile)
}

func FindingsPath(configRoot, taskID string) string {
	return filepath.Join(TaskDir(configRoot, taskID), FindingsFile)
}

func ProgressPath(configRoot, taskID string) string {
	return filepath.Join(TaskDir(configRoot, taskID), ProgressFile)
}

// WorktreeDir returns the directory reserved for one subtask's worktree.
func WorktreeDir(configRoot, taskID, subtaskID string) string {
	return filepath.Join(TaskDir(configRoot, taskID), WorktreesDir, subtaskID)
}

// HelpCachePath returns the path to the cross-assistant help cache.
func HelpCachePath(configRoot string) string {
	return filepath.Join(configRoot, HelpCacheFile)
}

// SessionsIndexCachePath returns the path to the session index's last scan.
func SessionsIndexCachePath(configRoot string) string {
	return filepath.Join(configRoot, SessionsIndexCacheFile)
}

// EnsureTaskDir creates a task's directory (and its parents) if absent.
func EnsureTaskDir(configRoot, taskID string) error {
	return os.MkdirAll(TaskDir(configRoot, taskID), 0o700)
}

// EnsureWorktreeParent creates the worktrees directory for a task if absent.
func EnsureWorktreeParent(configRoot, taskID string) error {
	return os.MkdirAll(filepath.Join(TaskDir(configRoot, taskID), WorktreesDir), 0o700)
}

// AtomicWrite writes data to path via a temp file in the same directory,
// fsync, then rename — so a reader never observes a partially written file.
// Grounded on the same temp-then-rename discipline used throughout the
// orchestrator's on-disk state (help cache, task-planning files, lock
// snapshots).
func AtomicWrite(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".tmp-")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return err
	}

	success = true
	return nil
}
