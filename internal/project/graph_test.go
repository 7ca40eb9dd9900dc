package project

import (
	"reflect"
	"testing"
)

func tasksABC(blockedByC bool) []*Task {
	a := &Task{Slug: "task-a", Status: TaskPending, BlockedBy: nil}
	b := &Task{Slug: "task-b", Status: TaskPending, BlockedBy: []string{"task-a"}}
	c := &Task{Slug: "task-c", Status: TaskPending, BlockedBy: []string{"task-b"}}
	if blockedByC {
		a.BlockedBy = []string{"task-c"}
	}
	return []*Task{a, b, c}
}

func TestTopologicalSortLinearChain(t *testing.T) {
	g := BuildGraph("proj", tasksABC(false))
	order := g.TopologicalSort()
	if order == nil {
		t.Fatal("expected a topological order, got nil")
	}
	want := []string{"task-a", "task-b", "task-c"}
	if !reflect.DeepEqual(order, want) {
		t.Errorf("order = %v, want %v", order, want)
	}
}

// TestCycleDetectionOnChainWithBackEdge builds tasks A, B, C as a chain
// A -> B -> C, then adds a dependency from A on C, introducing a cycle
// that must be detected and must leave the topological sort nil.
func TestCycleDetectionOnChainWithBackEdge(t *testing.T) {
	g := BuildGraph("proj", tasksABC(true))

	if order := g.TopologicalSort(); order != nil {
		t.Errorf("TopologicalSort() = %v, want nil for cyclic graph", order)
	}

	cycles := g.DetectCycles()
	if len(cycles) != 1 {
		t.Fatalf("DetectCycles() = %v, want exactly one cycle", cycles)
	}
	want := []string{"task-a", "task-b", "task-c", "task-a"}
	if !reflect.DeepEqual(cycles[0], want) {
		t.Errorf("cycle = %v, want %v (rotated to lexicographically smallest start and closed)", cycles[0], want)
	}

	if path := g.CriticalPath(); path != nil {
		t.Errorf("CriticalPath() = %v, want nil when cycles exist", path)
	}
}

func TestCriticalPathLinearChain(t *testing.T) {
	g := BuildGraph("proj", tasksABC(false))
	path := g.CriticalPath()
	want := []string{"task-a", "task-b", "task-c"}
	if !reflect.DeepEqual(path, want) {
		t.Errorf("CriticalPath() = %v, want %v", path, want)
	}
}

func TestUnknownDependencyIsDroppedFromGraph(t *testing.T) {
	tasks := []*Task{
		{Slug: "task-a", Status: TaskPending, BlockedBy: []string{"ghost-task"}},
	}
	g := BuildGraph("proj", tasks)
	order := g.TopologicalSort()
	want := []string{"task-a"}
	if !reflect.DeepEqual(order, want) {
		t.Errorf("order = %v, want %v (unknown dep dropped, not fatal)", order, want)
	}
}

func TestAnalyzeGraphValidChain(t *testing.T) {
	result := AnalyzeGraph("proj", tasksABC(false))
	if !result.IsValid {
		t.Fatalf("IsValid = false, want true for an acyclic graph; cycles = %v", result.Cycles)
	}
	want := []string{"task-a", "task-b", "task-c"}
	if !reflect.DeepEqual(result.TopoOrder, want) {
		t.Errorf("TopoOrder = %v, want %v", result.TopoOrder, want)
	}
	if !reflect.DeepEqual(result.CriticalPath, want) {
		t.Errorf("CriticalPath = %v, want %v", result.CriticalPath, want)
	}
	if len(result.Cycles) != 0 {
		t.Errorf("Cycles = %v, want none", result.Cycles)
	}
}

func TestAnalyzeGraphInvalidOnCycle(t *testing.T) {
	result := AnalyzeGraph("proj", tasksABC(true))
	if result.IsValid {
		t.Fatal("IsValid = true, want false for a cyclic graph")
	}
	if result.TopoOrder != nil {
		t.Errorf("TopoOrder = %v, want nil when the graph has a cycle", result.TopoOrder)
	}
	if result.CriticalPath != nil {
		t.Errorf("CriticalPath = %v, want nil when the graph has a cycle", result.CriticalPath)
	}
	if len(result.Cycles) != 1 {
		t.Fatalf("Cycles = %v, want exactly one cycle", result.Cycles)
	}
}

func TestBlockedTasksOmitsEmptyAndTerminal(t *testing.T) {
	tasks := []*Task{
		{Slug: "task-a", Status: TaskCompleted},
		{Slug: "task-b", Status: TaskPending, BlockedBy: []string{"task-a"}},
		{Slug: "task-c", Status: TaskPending, BlockedBy: []string{"task-b"}},
	}
	blocked := BlockedTasks("proj", tasks)
	if _, ok := blocked["task-b"]; ok {
		t.Errorf("task-b should not be blocked: its only dep is completed")
	}
	want := []string{"task-b"}
	if !reflect.DeepEqual(blocked["task-c"], want) {
		t.Errorf("blocked[task-c] = %v, want %v", blocked["task-c"], want)
	}
}
