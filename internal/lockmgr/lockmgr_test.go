package lockmgr

import (
	"testing"

	"github.com/ptreezh/orc/internal/types"
)

func TestInitialise_RejectsCycle(t *testing.T) {
	m := New("task-1")
	err := m.Initialise([]SubtaskSpec{
		{ID: "a", Dependencies: []string{"b"}},
		{ID: "b", Dependencies: []string{"a"}},
	})
	if err == nil {
		t.Fatal("expected an error for a cyclic dependency graph")
	}
	if len(m.Pending()) != 0 {
		t.Error("no subtasks should be registered after a rejected cycle")
	}
}

func TestTryAcquire_GrantsIndependentSubtasks(t *testing.T) {
	m := New("task-1")
	_ = m.Initialise([]SubtaskSpec{{ID: "a"}, {ID: "b"}})

	da := m.TryAcquire("a")
	db := m.TryAcquire("b")

	if !da.Granted || !db.Granted {
		t.Errorf("expected both independent subtasks to be granted, got %v, %v", da, db)
	}
}

func TestTryAcquire_DeniesFileConflict(t *testing.T) {
	m := New("task-1")
	_ = m.Initialise([]SubtaskSpec{
		{ID: "a", DeclaredFiles: []string{"main.go"}},
		{ID: "b", DeclaredFiles: []string{"main.go"}},
	})

	da := m.TryAcquire("a")
	if !da.Granted {
		t.Fatalf("expected a to be granted, got %v", da)
	}

	db := m.TryAcquire("b")
	if db.Granted {
		t.Error("expected b to be denied due to a file conflict")
	}
	if db.Reason != ReasonFileConflict {
		t.Errorf("Reason = %v, want %v", db.Reason, ReasonFileConflict)
	}
}

func TestTryAcquire_EmptyFileSetNeverConflicts(t *testing.T) {
	m := New("task-1")
	_ = m.Initialise([]SubtaskSpec{
		{ID: "a"},
		{ID: "b"},
	})

	da := m.TryAcquire("a")
	db := m.TryAcquire("b")
	if !da.Granted || !db.Granted {
		t.Error("subtasks with empty declared file sets should never conflict")
	}
}

func TestTryAcquire_UnmetDependencyBlocks(t *testing.T) {
	m := New("task-1")
	_ = m.Initialise([]SubtaskSpec{
		{ID: "a"},
		{ID: "b", Dependencies: []string{"a"}},
	})

	db := m.TryAcquire("b")
	if db.Granted {
		t.Error("b should not be granted before a succeeds")
	}
	if db.Reason != ReasonUnmetDependency {
		t.Errorf("Reason = %v, want %v", db.Reason, ReasonUnmetDependency)
	}

	state, _ := m.State("b")
	if state != types.SubtaskBlocked {
		t.Errorf("state = %v, want %v", state, types.SubtaskBlocked)
	}
}

func TestTryAcquire_DependencyFailureSkipsDependent(t *testing.T) {
	m := New("task-1")
	_ = m.Initialise([]SubtaskSpec{
		{ID: "a"},
		{ID: "b", Dependencies: []string{"a"}},
	})

	_ = m.TryAcquire("a")
	if err := m.Release("a", Result{Succeeded: false}); err != nil {
		t.Fatalf("Release() error = %v", err)
	}

	db := m.TryAcquire("b")
	if db.Granted {
		t.Error("b should not be granted when its dependency failed")
	}

	state, _ := m.State("b")
	if state != types.SubtaskSkipped {
		t.Errorf("state = %v, want %v", state, types.SubtaskSkipped)
	}
}

func TestRelease_SucceedsAllowsDependent(t *testing.T) {
	m := New("task-1")
	_ = m.Initialise([]SubtaskSpec{
		{ID: "a"},
		{ID: "b", Dependencies: []string{"a"}},
	})

	_ = m.TryAcquire("a")
	_ = m.Release("a", Result{Succeeded: true})

	db := m.TryAcquire("b")
	if !db.Granted {
		t.Errorf("expected b to be granted once a succeeded, got %v", db)
	}
}

func TestRelease_AlreadyTerminalRejected(t *testing.T) {
	m := New("task-1")
	_ = m.Initialise([]SubtaskSpec{{ID: "a"}})

	_ = m.TryAcquire("a")
	_ = m.Release("a", Result{Succeeded: true})

	if err := m.Release("a", Result{Succeeded: true}); err == nil {
		t.Error("expected an error releasing an already-terminal subtask")
	}
}

func TestAbort_MarksNonTerminalSkipped(t *testing.T) {
	m := New("task-1")
	_ = m.Initialise([]SubtaskSpec{{ID: "a"}, {ID: "b"}})
	_ = m.TryAcquire("a")
	_ = m.Release("a", Result{Succeeded: true})

	m.Abort("global timeout")

	stateA, _ := m.State("a")
	if stateA != types.SubtaskSucceeded {
		t.Errorf("terminal subtask a should be unaffected by Abort, got %v", stateA)
	}
	stateB, _ := m.State("b")
	if stateB != types.SubtaskSkipped {
		t.Errorf("state of b = %v, want %v", stateB, types.SubtaskSkipped)
	}
}

func TestTryAcquire_DeniedAfterAbort(t *testing.T) {
	m := New("task-1")
	_ = m.Initialise([]SubtaskSpec{{ID: "a"}})
	m.Abort("cancelled")

	d := m.TryAcquire("a")
	if d.Granted {
		t.Error("expected denial after Abort")
	}
}

func TestAllTerminal(t *testing.T) {
	m := New("task-1")
	_ = m.Initialise([]SubtaskSpec{{ID: "a"}})

	if m.AllTerminal() {
		t.Error("AllTerminal() should be false before any subtask finishes")
	}

	_ = m.TryAcquire("a")
	_ = m.Release("a", Result{Succeeded: true})

	if !m.AllTerminal() {
		t.Error("AllTerminal() should be true once the only subtask succeeds")
	}
}

func TestTryAcquire_SelfDeclaredFileIsHarmless(t *testing.T) {
	m := New("task-1")
	_ = m.Initialise([]SubtaskSpec{
		{ID: "a", DeclaredFiles: []string{"x.go", "x.go"}},
	})

	d := m.TryAcquire("a")
	if !d.Granted {
		t.Errorf("a declaring the same file twice should not block itself, got %v", d)
	}
}
