package engine

import (
	"github.com/ThomasRohde/domain-designer-sub000/pkg/geometry"
	"github.com/ThomasRohde/domain-designer-sub000/pkg/model"
)

// CanReparent reports whether moving child under newParent is legal.
//
// The move is illegal when it would self-parent the node or create a cycle,
// i.e. when newParent is the child itself or any of its descendants. An
// empty newParent (promote to root) is always legal, including for nodes
// that already are roots (a no-op, but still valid). Unknown ids are the
// caller's contract violation and are reported by the mutating operations,
// not here; CanReparent treats them as "not legal".
func CanReparent(s *model.Snapshot, childID, newParentID string) bool {
	if !s.Has(childID) {
		return false
	}
	if newParentID == "" {
		return true
	}
	if !s.Has(newParentID) {
		return false
	}
	// Covers self-parenting too: a node is its own descendant here.
	return !s.IsDescendant(childID, newParentID)
}

// DropTarget resolves the container a dragged node should be dropped into
// at the given pointer position (already translated into grid units).
//
// Every node whose bounds contain the pointer is a candidate, except the
// dragged node itself, its descendants, and labels (labels cannot host
// children). Candidates are ranked by hierarchy depth descending so that a
// pointer over a deeply nested node targets that node rather than one of
// its ancestors - without this rule, drops on overlapping nested containers
// would be ambiguous. Candidates that fail CanReparent are filtered out.
//
// The second return value is false when no rectangle matches; callers
// interpret that as "promote to root".
func DropTarget(s *model.Snapshot, p geometry.Point, draggedID string) (string, bool) {
	bestID := ""
	bestDepth := -1
	for _, n := range s.Nodes() {
		if n.ID == draggedID || n.IsLabel() {
			continue
		}
		if !n.Rect.ContainsPoint(p) {
			continue
		}
		if s.IsDescendant(draggedID, n.ID) {
			continue
		}
		if !CanReparent(s, draggedID, n.ID) {
			continue
		}
		if d := s.Depth(n.ID); d > bestDepth {
			bestDepth = d
			bestID = n.ID
		}
	}
	if bestID == "" {
		return "", false
	}
	return bestID, true
}
