// Package formatter renders task records in the output formats
// the CLI supports: table, markdown, and JSON Lines.
package formatter

import "time"

// SubtaskSummary is the formatter-facing view of one subtask belonging to
// an Entry, stripped down to what a recovery or progress view needs.
type SubtaskSummary struct {
	ID        string
	Assistant string
	State     string
	ExitCode  int
	Reason    string
	StartedAt time.Time
	EndedAt   time.Time
}

// Entry is the formatter-facing view of one task, independent of the
// internal task/session package that produced it. Keeping it local avoids
// an import cycle between formatter and the packages that render through it.
type Entry struct {
	TaskID      string
	Prompt      string
	State       string
	CreatedAt   time.Time
	CompletedAt time.Time
	Subtasks    []SubtaskSummary
	Findings    []string
	Conflicts   []string
}

// Duration returns how long the task ran, or the time since it started if
// it has not completed.
func (e Entry) Duration(now time.Time) time.Duration {
	end := e.CompletedAt
	if end.IsZero() {
		end = now
	}
	return end.Sub(e.CreatedAt)
}
