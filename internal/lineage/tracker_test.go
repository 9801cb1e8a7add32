// File path: internal/lineage/tracker_test.go
package lineage

import (
	"errors"
	"fmt"
	"sync"
	"testing"
)

func newTestTracker(t *testing.T) *Tracker {
	t.Helper()
	return NewTrackerWithConfig(Config{MaxDepth: 100})
}

func TestRegisterRejectsOrphans(t *testing.T) {
	tracker := newTestTracker(t)
	if err := tracker.Register("proj", "child", "missing-parent"); !errors.Is(err, ErrOrphanCommit) {
		t.Fatalf("expected ErrOrphanCommit, got %v", err)
	}
	if err := tracker.Register("proj", "root", ""); err != nil {
		t.Fatalf("register root: %v", err)
	}
	if err := tracker.Register("proj", "child", "root"); err != nil {
		t.Fatalf("register child: %v", err)
	}
	if err := tracker.Register("proj", "child", "root"); !errors.Is(err, ErrDuplicateCommit) {
		t.Fatalf("expected ErrDuplicateCommit, got %v", err)
	}
}

func TestAncestorsNearestFirst(t *testing.T) {
	tracker := newTestTracker(t)
	ids := []string{"a", "b", "c", "d"}
	parent := ""
	for _, id := range ids {
		if err := tracker.Register("proj", id, parent); err != nil {
			t.Fatalf("register %s: %v", id, err)
		}
		parent = id
	}
	chain, err := tracker.Ancestors("d", 0)
	if err != nil {
		t.Fatalf("ancestors: %v", err)
	}
	want := []string{"c", "b", "a"}
	if len(chain) != len(want) {
		t.Fatalf("expected %d ancestors, got %v", len(want), chain)
	}
	for i := range want {
		if chain[i] != want[i] {
			t.Fatalf("position %d: expected %s, got %s", i, want[i], chain[i])
		}
	}
	root, err := tracker.Ancestors("a", 0)
	if err != nil {
		t.Fatalf("root ancestors: %v", err)
	}
	if len(root) != 0 {
		t.Fatalf("expected empty chain for root, got %v", root)
	}
}

func TestAncestorsPerCallDepthTruncates(t *testing.T) {
	tracker := newTestTracker(t)
	ids := []string{"a", "b", "c", "d", "e"}
	parent := ""
	for _, id := range ids {
		if err := tracker.Register("proj", id, parent); err != nil {
			t.Fatalf("register %s: %v", id, err)
		}
		parent = id
	}
	chain, err := tracker.Ancestors("e", 2)
	if err != nil {
		t.Fatalf("ancestors: %v", err)
	}
	if len(chain) != 2 || chain[0] != "d" || chain[1] != "c" {
		t.Fatalf("expected nearest two ancestors, got %v", chain)
	}
	// A per-call bound wider than the chain changes nothing.
	full, err := tracker.Ancestors("e", 50)
	if err != nil {
		t.Fatalf("wide bound: %v", err)
	}
	if len(full) != 4 {
		t.Fatalf("expected full chain, got %v", full)
	}
}

func TestDescendantsBoundedByGenerations(t *testing.T) {
	tracker := newTestTracker(t)
	if err := tracker.Register("proj", "root", ""); err != nil {
		t.Fatalf("register root: %v", err)
	}
	if err := tracker.Register("proj", "gen1", "root"); err != nil {
		t.Fatalf("register gen1: %v", err)
	}
	if err := tracker.Register("proj", "gen2", "gen1"); err != nil {
		t.Fatalf("register gen2: %v", err)
	}
	if err := tracker.Register("proj", "gen1-sibling", "root"); err != nil {
		t.Fatalf("register sibling: %v", err)
	}

	one, err := tracker.Descendants("root", 1)
	if err != nil {
		t.Fatalf("descendants: %v", err)
	}
	if len(one) != 2 {
		t.Fatalf("expected 2 first-generation descendants, got %v", one)
	}
	all, err := tracker.Descendants("root", 0)
	if err != nil {
		t.Fatalf("descendants unbounded: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 descendants, got %v", all)
	}
}

func TestCycleDetection(t *testing.T) {
	tracker := newTestTracker(t)
	if err := tracker.Register("proj", "a", ""); err != nil {
		t.Fatalf("register a: %v", err)
	}
	if err := tracker.Register("proj", "b", "a"); err != nil {
		t.Fatalf("register b: %v", err)
	}
	// Corrupt the arena directly; Register refuses to create cycles.
	tracker.mu.Lock()
	tracker.nodes["a"].parentID = "b"
	tracker.mu.Unlock()

	if _, err := tracker.Ancestors("b", 0); !errors.Is(err, ErrCycleDetected) {
		t.Fatalf("expected ErrCycleDetected, got %v", err)
	}
}

func TestProjectIsolation(t *testing.T) {
	tracker := newTestTracker(t)
	if err := tracker.Register("proj-a", "shared-root", ""); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := tracker.Register("proj-b", "intruder", "shared-root"); err == nil {
		t.Fatal("expected cross-project parent to be rejected")
	}
}

func TestForgetDetachesChildren(t *testing.T) {
	tracker := newTestTracker(t)
	if err := tracker.Register("proj", "root", ""); err != nil {
		t.Fatalf("register root: %v", err)
	}
	if err := tracker.Register("proj", "child", "root"); err != nil {
		t.Fatalf("register child: %v", err)
	}
	tracker.Forget([]string{"child"})
	if tracker.Contains("child") {
		t.Fatal("expected child forgotten")
	}
	children, err := tracker.Children("root")
	if err != nil {
		t.Fatalf("children: %v", err)
	}
	if len(children) != 0 {
		t.Fatalf("expected detached children, got %v", children)
	}
}

func TestConcurrentRegistration(t *testing.T) {
	tracker := newTestTracker(t)
	if err := tracker.Register("proj", "root", ""); err != nil {
		t.Fatalf("register root: %v", err)
	}
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if err := tracker.Register("proj", fmt.Sprintf("commit-%d", i), "root"); err != nil {
				t.Errorf("register commit-%d: %v", i, err)
			}
		}(i)
	}
	wg.Wait()
	if tracker.Size() != 33 {
		t.Fatalf("expected 33 commits, got %d", tracker.Size())
	}
	children, err := tracker.Children("root")
	if err != nil {
		t.Fatalf("children: %v", err)
	}
	if len(children) != 32 {
		t.Fatalf("expected 32 children, got %d", len(children))
	}
}
