// Package model provides the flat node arena underlying every diagram.
//
// A diagram is a tree of axis-aligned rectangles stored as a flat list keyed
// by id with explicit parent-id links, never as nested structures. Ancestor
// and descendant queries are traversals over this arena, which avoids
// cyclic-reference bookkeeping and keeps lookups O(1).
//
// Snapshots are copy-on-write: engine operations clone the snapshot, mutate
// the clone, and return it. The original is never touched, so callers can
// retain prior snapshots for undo without coordination.
package model

import (
	"errors"
	"fmt"
	"slices"
)

var (
	// ErrInvalidNodeID is returned by [Snapshot.Add] when the node ID is
	// empty. All nodes must have non-empty identifiers.
	ErrInvalidNodeID = errors.New("node ID must not be empty")

	// ErrDuplicateNodeID is returned by [Snapshot.Add] when a node with the
	// same ID already exists. Node IDs must be unique.
	ErrDuplicateNodeID = errors.New("duplicate node ID")

	// ErrUnknownNode is returned when an operation references an ID that is
	// not present in the snapshot.
	ErrUnknownNode = errors.New("unknown node")

	// ErrUnknownParent is returned by [Snapshot.Validate] when a node's
	// ParentID does not resolve. This indicates arena corruption.
	ErrUnknownParent = errors.New("unknown parent node")

	// ErrHierarchyCycle is returned by [Snapshot.Validate] when following
	// parent links from some node never reaches a root.
	ErrHierarchyCycle = errors.New("hierarchy contains a cycle")

	// ErrNonPositiveSize is returned by [Snapshot.Add] and
	// [Snapshot.Validate] for nodes with zero or negative dimensions.
	ErrNonPositiveSize = errors.New("node size must be positive")
)

// Snapshot is an immutable-by-convention view of a diagram.
//
// The zero value is not usable - use New. Snapshot is not safe for
// concurrent mutation; engine operations clone before writing, so sharing a
// snapshot for reads is safe as long as nobody mutates it afterwards.
type Snapshot struct {
	nodes    map[string]*Node
	order    []string            // insertion order, drives deterministic packing
	children map[string][]string // parentID -> child IDs in insertion order
}

// New creates an empty snapshot.
func New() *Snapshot {
	return &Snapshot{
		nodes:    make(map[string]*Node),
		children: make(map[string][]string),
	}
}

// Add inserts a node into the arena.
// Returns ErrInvalidNodeID, ErrDuplicateNodeID, or ErrNonPositiveSize for
// malformed input. Parent existence is not checked here so diagrams can be
// loaded in any order; Validate catches dangling parents afterwards.
func (s *Snapshot) Add(n Node) error {
	if n.ID == "" {
		return ErrInvalidNodeID
	}
	if _, exists := s.nodes[n.ID]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateNodeID, n.ID)
	}
	if n.Rect.W <= 0 || n.Rect.H <= 0 {
		return fmt.Errorf("%w: %s is %dx%d", ErrNonPositiveSize, n.ID, n.Rect.W, n.Rect.H)
	}
	stored := n
	s.nodes[n.ID] = &stored
	s.order = append(s.order, n.ID)
	if n.ParentID != "" {
		s.children[n.ParentID] = append(s.children[n.ParentID], n.ID)
	}
	return nil
}

// Remove detaches a single node from the arena. Children of the removed
// node are left in place with a dangling ParentID; callers are expected to
// reattach or remove them in the same mutation (see engine cascade
// policies). Returns ErrUnknownNode if the ID is absent.
func (s *Snapshot) Remove(id string) error {
	n, ok := s.nodes[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownNode, id)
	}
	delete(s.nodes, id)
	s.order = slices.DeleteFunc(s.order, func(v string) bool { return v == id })
	if n.ParentID != "" {
		s.children[n.ParentID] = slices.DeleteFunc(s.children[n.ParentID], func(v string) bool { return v == id })
	}
	delete(s.children, id)
	return nil
}

// Get returns the node with the given ID, or false if absent.
// The returned pointer aliases arena storage: treat it as read-only unless
// the snapshot is a private clone.
func (s *Snapshot) Get(id string) (*Node, bool) {
	n, ok := s.nodes[id]
	return n, ok
}

// Has reports whether the ID exists in the arena.
func (s *Snapshot) Has(id string) bool {
	_, ok := s.nodes[id]
	return ok
}

// Len returns the number of nodes.
func (s *Snapshot) Len() int { return len(s.nodes) }

// Nodes returns all nodes in insertion order.
func (s *Snapshot) Nodes() []*Node {
	out := make([]*Node, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.nodes[id])
	}
	return out
}

// Roots returns the nodes without a parent, in insertion order.
func (s *Snapshot) Roots() []*Node {
	var out []*Node
	for _, id := range s.order {
		if n := s.nodes[id]; n.ParentID == "" {
			out = append(out, n)
		}
	}
	return out
}

// Children returns the direct children of id in insertion order.
func (s *Snapshot) Children(id string) []*Node {
	ids := s.children[id]
	out := make([]*Node, 0, len(ids))
	for _, cid := range ids {
		out = append(out, s.nodes[cid])
	}
	return out
}

// ChildIDs returns the direct child IDs of id in insertion order.
// The returned slice is a copy.
func (s *Snapshot) ChildIDs(id string) []string {
	return slices.Clone(s.children[id])
}

// Descendants returns every node below id (children, grandchildren, ...)
// in depth-first order. The node itself is not included.
func (s *Snapshot) Descendants(id string) []string {
	var out []string
	stack := slices.Clone(s.children[id])
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		out = append(out, cur)
		stack = append(stack, s.children[cur]...)
	}
	return out
}

// IsDescendant reports whether candidate is id itself or any node below it.
func (s *Snapshot) IsDescendant(id, candidate string) bool {
	if id == candidate {
		return true
	}
	return slices.Contains(s.Descendants(id), candidate)
}

// Depth returns the number of ancestors above id. Roots have depth 0.
// Returns -1 for unknown IDs or when a parent cycle prevents termination.
func (s *Snapshot) Depth(id string) int {
	n, ok := s.nodes[id]
	if !ok {
		return -1
	}
	depth := 0
	for n.ParentID != "" {
		parent, ok := s.nodes[n.ParentID]
		if !ok || depth > len(s.nodes) {
			return -1
		}
		n = parent
		depth++
	}
	return depth
}

// Ancestors returns the chain of ancestor IDs from id's parent up to the
// root, nearest first.
func (s *Snapshot) Ancestors(id string) []string {
	var out []string
	n, ok := s.nodes[id]
	if !ok {
		return nil
	}
	for n.ParentID != "" {
		parent, ok := s.nodes[n.ParentID]
		if !ok || len(out) > len(s.nodes) {
			return out
		}
		out = append(out, parent.ID)
		n = parent
	}
	return out
}

// Clone returns a deep copy of the snapshot. Mutating the clone never
// affects the original, which is what makes whole-snapshot replacement the
// engine's mutation model.
func (s *Snapshot) Clone() *Snapshot {
	out := &Snapshot{
		nodes:    make(map[string]*Node, len(s.nodes)),
		order:    slices.Clone(s.order),
		children: make(map[string][]string, len(s.children)),
	}
	for id, n := range s.nodes {
		copied := *n
		out.nodes[id] = &copied
	}
	for id, ids := range s.children {
		out.children[id] = slices.Clone(ids)
	}
	return out
}

// SetParent rewires a node under a new parent (empty string promotes it to
// root) and keeps the child index consistent. The caller is responsible for
// hierarchy validation; this is the raw arena operation.
func (s *Snapshot) SetParent(id, parentID string) error {
	n, ok := s.nodes[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownNode, id)
	}
	if n.ParentID == parentID {
		return nil
	}
	if n.ParentID != "" {
		s.children[n.ParentID] = slices.DeleteFunc(s.children[n.ParentID], func(v string) bool { return v == id })
	}
	n.ParentID = parentID
	if parentID != "" {
		s.children[parentID] = append(s.children[parentID], id)
	}
	return nil
}

// RefreshVariants re-derives every node's variant from its structure:
// no parent means root, having children means container, otherwise leaf.
// Labels are an explicit tag and are never rewritten.
func (s *Snapshot) RefreshVariants() {
	for _, id := range s.order {
		n := s.nodes[id]
		if n.Variant == VariantLabel {
			continue
		}
		switch {
		case n.ParentID == "":
			n.Variant = VariantRoot
		case len(s.children[id]) > 0:
			n.Variant = VariantContainer
		default:
			n.Variant = VariantLeaf
		}
	}
}

// Validate checks the structural invariants of the arena:
//   - every ParentID resolves to an existing node
//   - following parent links always terminates (no cycles)
//   - every node has positive dimensions
//
// Geometric invariants (containment, overlap, min-size) depend on margins
// and the active algorithm and are checked by the layout package.
func (s *Snapshot) Validate() error {
	for _, id := range s.order {
		n := s.nodes[id]
		if n.ParentID != "" {
			if _, ok := s.nodes[n.ParentID]; !ok {
				return fmt.Errorf("%w: node %s references %s", ErrUnknownParent, id, n.ParentID)
			}
		}
		if n.Rect.W <= 0 || n.Rect.H <= 0 {
			return fmt.Errorf("%w: %s is %dx%d", ErrNonPositiveSize, id, n.Rect.W, n.Rect.H)
		}
		if s.Depth(id) < 0 {
			return fmt.Errorf("%w: detected from node %s", ErrHierarchyCycle, id)
		}
	}
	return nil
}
