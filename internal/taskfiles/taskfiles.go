// Package taskfiles maintains the three plain-UTF-8 planning documents
// that persist a task's essence out-of-band from any single assistant's
// lossy, token-bounded conversation: plan, findings, and progress.
package taskfiles

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ptreezh/orc/internal/eventbus"
	"github.com/ptreezh/orc/internal/taskstore"
	"github.com/ptreezh/orc/internal/types"
)

// Manager renders structured updates into the three task-planning
// documents and publishes the matching *-updated event for each write.
type Manager struct {
	configRoot string
	taskID     string
	bus        *eventbus.Bus

	mu       sync.Mutex
	plan     planDoc
	findings []findingEntry
	progress []transitionEntry
}

type planDoc struct {
	Prompt   string
	Mode     types.ExecutionMode
	Subtasks []planSubtask
}

type planSubtask struct {
	ID           string
	Assistant    string
	Dependencies []string
}

type findingEntry struct {
	At        time.Time
	Assistant string
	Summary   string
	Excerpt   string
}

type transitionEntry struct {
	At        time.Time
	SubtaskID string
	From      types.SubtaskState
	To        types.SubtaskState
	Reason    string
}

// New creates a Manager that writes under configRoot/tasks/<taskID>/ and
// publishes update events through bus.
func New(configRoot, taskID string, bus *eventbus.Bus) *Manager {
	return &Manager{configRoot: configRoot, taskID: taskID, bus: bus}
}

// InitPlan writes the initial plan document at task creation: goals,
// chosen mode, and the subtask list.
func (m *Manager) InitPlan(prompt string, mode types.ExecutionMode, subtasks []types.Subtask) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.plan = planDoc{Prompt: prompt, Mode: mode}
	for _, s := range subtasks {
		m.plan.Subtasks = append(m.plan.Subtasks, planSubtask{
			ID: s.ID, Assistant: s.Assistant, Dependencies: s.Dependencies,
		})
	}

	if err := m.writePlan(); err != nil {
		return err
	}
	return m.publish(types.EventPlanUpdated, "", nil)
}

// AddSubtask appends one more subtask to the rendered plan document, for
// example when a task is extended mid-run.
func (m *Manager) AddSubtask(s types.Subtask) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.plan.Subtasks = append(m.plan.Subtasks, planSubtask{
		ID: s.ID, Assistant: s.Assistant, Dependencies: s.Dependencies,
	})

	if err := m.writePlan(); err != nil {
		return err
	}
	return m.publish(types.EventPlanUpdated, s.ID, nil)
}

// RecordFinding appends a dated section to the findings document.
func (m *Manager) RecordFinding(assistant, summary, excerpt string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.findings = append(m.findings, findingEntry{
		At: time.Now(), Assistant: assistant, Summary: summary, Excerpt: excerpt,
	})

	if err := m.writeFindings(); err != nil {
		return err
	}
	return m.publish(types.EventFindingsUpdated, "", map[string]string{"assistant": assistant})
}

// RecordTransition appends a reverse-chronological entry to the progress
// document mirroring a subtask state change.
func (m *Manager) RecordTransition(subtaskID string, from, to types.SubtaskState, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.progress = append(m.progress, transitionEntry{
		At: time.Now(), SubtaskID: subtaskID, From: from, To: to, Reason: reason,
	})

	if err := m.writeProgress(); err != nil {
		return err
	}
	return m.publish(types.EventProgressUpdated, subtaskID, map[string]string{"from": string(from), "to": string(to)})
}

func (m *Manager) publish(kind types.EventKind, subtaskID string, payload any) error {
	if m.bus == nil {
		return nil
	}
	_, err := m.bus.Publish(kind, subtaskID, payload, false)
	return err
}

func (m *Manager) writePlan() error {
	var b strings.Builder
	fmt.Fprintf(&b, "# Plan\n\n")
	fmt.Fprintf(&b, "Prompt: %s\n", m.plan.Prompt)
	fmt.Fprintf(&b, "Mode: %s\n\n", m.plan.Mode)
	fmt.Fprintf(&b, "## Subtasks\n\n")
	for _, s := range m.plan.Subtasks {
		if len(s.Dependencies) > 0 {
			fmt.Fprintf(&b, "- %s (%s) depends on: %s\n", s.ID, s.Assistant, strings.Join(s.Dependencies, ", "))
		} else {
			fmt.Fprintf(&b, "- %s (%s)\n", s.ID, s.Assistant)
		}
	}
	return taskstore.AtomicWrite(taskstore.PlanPath(m.configRoot, m.taskID), []byte(b.String()))
}

func (m *Manager) writeFindings() error {
	var b strings.Builder
	fmt.Fprintf(&b, "# Findings\n\n")
	for _, f := range m.findings {
		fmt.Fprintf(&b, "## %s — %s\n\n", f.At.Format(time.RFC3339), f.Assistant)
		fmt.Fprintf(&b, "%s\n\n", f.Summary)
		if f.Excerpt != "" {
			fmt.Fprintf(&b, "```\n%s\n```\n\n", f.Excerpt)
		}
	}
	return taskstore.AtomicWrite(taskstore.FindingsPath(m.configRoot, m.taskID), []byte(b.String()))
}

func (m *Manager) writeProgress() error {
	var b strings.Builder
	fmt.Fprintf(&b, "# Progress\n\n")
	for i := len(m.progress) - 1; i >= 0; i-- {
		p := m.progress[i]
		line := fmt.Sprintf("- %s %s: %s -> %s", p.At.Format(time.RFC3339), p.SubtaskID, p.From, p.To)
		if p.Reason != "" {
			line += " (" + p.Reason + ")"
		}
		fmt.Fprintf(&b, "%s\n", line)
	}
	return taskstore.AtomicWrite(taskstore.ProgressPath(m.configRoot, m.taskID), []byte(b.String()))
}
