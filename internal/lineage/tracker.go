// File path: internal/lineage/tracker.go
package lineage

import (
	"errors"
	"fmt"
	"sync"

	"github.com/Yoshani/team-xc7/internal/common"
)

var (
	// ErrOrphanCommit reports a registration whose parent is unknown.
	ErrOrphanCommit = errors.New("lineage: parent commit not registered")
	// ErrDuplicateCommit reports a commit id registered twice.
	ErrDuplicateCommit = errors.New("lineage: commit already registered")
	// ErrUnknownCommit reports a walk from an unregistered commit.
	ErrUnknownCommit = errors.New("lineage: commit not registered")
	// ErrCycleDetected reports a parent chain that revisits a commit.
	ErrCycleDetected = errors.New("lineage: cycle detected in parent chain")
)

type node struct {
	commitID  string
	projectID string
	parentID  string
	children  []string
}

// Tracker maintains the in-memory parent/child forest of commit snapshots,
// one tree (or several roots) per project. Registration is serialised per
// project so concurrent writers cannot interleave a child before its parent.
type Tracker struct {
	cfg Config

	mu    sync.RWMutex
	nodes map[string]*node

	regMu    sync.Mutex
	registry map[string]*sync.Mutex
}

// NewTracker builds an empty tracker with environment-derived configuration.
func NewTracker() (*Tracker, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, err
	}
	return NewTrackerWithConfig(cfg), nil
}

// NewTrackerWithConfig builds an empty tracker with explicit configuration.
func NewTrackerWithConfig(cfg Config) *Tracker {
	cfg.applyDefaults()
	return &Tracker{
		cfg:      cfg,
		nodes:    make(map[string]*node),
		registry: make(map[string]*sync.Mutex),
	}
}

func (t *Tracker) projectLock(projectID string) *sync.Mutex {
	t.regMu.Lock()
	defer t.regMu.Unlock()
	lock, ok := t.registry[projectID]
	if !ok {
		lock = &sync.Mutex{}
		t.registry[projectID] = lock
	}
	return lock
}

// Register adds a commit under a project. parentID may be empty for a root.
// The parent must already be registered and must belong to the same project.
func (t *Tracker) Register(projectID, commitID, parentID string) error {
	if t == nil {
		return errors.New("lineage tracker not initialised")
	}
	if commitID == "" {
		return errors.New("lineage: commit id required")
	}
	lock := t.projectLock(projectID)
	lock.Lock()
	defer lock.Unlock()

	t.mu.Lock()
	defer t.mu.Unlock()
	if _, exists := t.nodes[commitID]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateCommit, commitID)
	}
	if parentID != "" {
		parent, ok := t.nodes[parentID]
		if !ok {
			return fmt.Errorf("%w: %s", ErrOrphanCommit, parentID)
		}
		if parent.projectID != projectID {
			return fmt.Errorf("lineage: parent %s belongs to project %s, not %s",
				parentID, parent.projectID, projectID)
		}
		parent.children = append(parent.children, commitID)
	}
	t.nodes[commitID] = &node{commitID: commitID, projectID: projectID, parentID: parentID}
	common.Logger().Debug("lineage: registered commit",
		"project", projectID, "commit", commitID, "parent", parentID)
	return nil
}

// Ancestors walks the parent chain from a commit, nearest parent first. The
// commit itself is excluded. A positive maxDepth truncates the walk to the
// nearest maxDepth ancestors; maxDepth <= 0 applies the configured bound, and
// a chain exceeding that bound is an error. Walks are cycle-checked.
func (t *Tracker) Ancestors(commitID string, maxDepth int) ([]string, error) {
	if t == nil {
		return nil, errors.New("lineage tracker not initialised")
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	current, ok := t.nodes[commitID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCommit, commitID)
	}
	limit := t.cfg.MaxDepth
	truncate := false
	if maxDepth > 0 && maxDepth < limit {
		limit = maxDepth
		truncate = true
	}
	seen := map[string]struct{}{commitID: {}}
	chain := make([]string, 0, 8)
	for current.parentID != "" {
		if len(chain) >= limit {
			if truncate {
				return chain, nil
			}
			return nil, fmt.Errorf("lineage: ancestor chain for %s exceeds depth %d", commitID, limit)
		}
		if _, visited := seen[current.parentID]; visited {
			return nil, fmt.Errorf("%w: at %s", ErrCycleDetected, current.parentID)
		}
		parent, ok := t.nodes[current.parentID]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownCommit, current.parentID)
		}
		chain = append(chain, parent.commitID)
		seen[parent.commitID] = struct{}{}
		current = parent
	}
	return chain, nil
}

// Children returns the direct children of a commit in registration order.
func (t *Tracker) Children(commitID string) ([]string, error) {
	if t == nil {
		return nil, errors.New("lineage tracker not initialised")
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	n, ok := t.nodes[commitID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCommit, commitID)
	}
	out := make([]string, len(n.children))
	copy(out, n.children)
	return out, nil
}

// Descendants walks breadth-first from a commit, collecting successors up to
// maxGenerations levels. maxGenerations <= 0 means unbounded (within the
// configured depth limit).
func (t *Tracker) Descendants(commitID string, maxGenerations int) ([]string, error) {
	if t == nil {
		return nil, errors.New("lineage tracker not initialised")
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	root, ok := t.nodes[commitID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCommit, commitID)
	}
	if maxGenerations <= 0 || maxGenerations > t.cfg.MaxDepth {
		maxGenerations = t.cfg.MaxDepth
	}
	var out []string
	frontier := []*node{root}
	seen := map[string]struct{}{commitID: {}}
	for depth := 0; depth < maxGenerations && len(frontier) > 0; depth++ {
		var next []*node
		for _, n := range frontier {
			for _, childID := range n.children {
				if _, visited := seen[childID]; visited {
					return nil, fmt.Errorf("%w: at %s", ErrCycleDetected, childID)
				}
				seen[childID] = struct{}{}
				child, ok := t.nodes[childID]
				if !ok {
					continue
				}
				out = append(out, childID)
				next = append(next, child)
			}
		}
		frontier = next
	}
	return out, nil
}

// Contains reports whether a commit is registered.
func (t *Tracker) Contains(commitID string) bool {
	if t == nil {
		return false
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.nodes[commitID]
	return ok
}

// Forget removes a set of commits, detaching them from parents. Used when a
// project deletion cascades through the catalog.
func (t *Tracker) Forget(commitIDs []string) {
	if t == nil || len(commitIDs) == 0 {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	doomed := make(map[string]struct{}, len(commitIDs))
	for _, id := range commitIDs {
		doomed[id] = struct{}{}
	}
	for _, id := range commitIDs {
		n, ok := t.nodes[id]
		if !ok {
			continue
		}
		if parent, ok := t.nodes[n.parentID]; ok {
			kept := parent.children[:0]
			for _, childID := range parent.children {
				if _, gone := doomed[childID]; !gone {
					kept = append(kept, childID)
				}
			}
			parent.children = kept
		}
		delete(t.nodes, id)
	}
}

// Size returns the number of registered commits.
func (t *Tracker) Size() int {
	if t == nil {
		return 0
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.nodes)
}
