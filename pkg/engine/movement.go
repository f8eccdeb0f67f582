package engine

import (
	"context"
	"fmt"
	"sort"

	"github.com/ThomasRohde/domain-designer-sub000/pkg/errors"
	"github.com/ThomasRohde/domain-designer-sub000/pkg/geometry"
	"github.com/ThomasRohde/domain-designer-sub000/pkg/model"
)

// Axis selects a movement direction for MaxSafeDelta.
type Axis int

const (
	// AxisX constrains horizontal movement.
	AxisX Axis = iota
	// AxisY constrains vertical movement.
	AxisY
)

// CollisionReport describes why a group move is (or is not) blocked.
type CollisionReport struct {
	// Blocked is true when the move cannot be applied as requested.
	Blocked bool `json:"blocked"`
	// OffendingSiblings lists the non-selected siblings the moved selection
	// would overlap.
	OffendingSiblings []string `json:"offending_siblings,omitempty"`
	// BoundaryViolated is true when the selection's union bounding box
	// would leave the common parent's margin-inset interior.
	BoundaryViolated bool `json:"boundary_violated"`
}

// selectionGroup is a validated multi-node selection: the nodes, their
// common parent ("" for roots), and the sibling set they may collide with.
type selectionGroup struct {
	nodes    []*model.Node
	parentID string
}

// resolveSelection validates a selection for group movement. Rules:
//   - every id must exist (unknown ids are caller contract violations)
//   - labels are never part of a movement group
//   - all nodes must share one parent, and that parent must be a free-form
//     canvas (ManualLayout) - or the nodes must be roots. Auto-packed
//     children have no user-controlled position to move.
func resolveSelection(s *model.Snapshot, selection []string) (selectionGroup, error) {
	if len(selection) == 0 {
		return selectionGroup{}, errors.New(errors.ErrCodeInvalidSelection, "empty selection")
	}

	group := selectionGroup{nodes: make([]*model.Node, 0, len(selection))}
	for i, id := range selection {
		n, ok := s.Get(id)
		if !ok {
			return selectionGroup{}, errors.New(errors.ErrCodeNodeNotFound, "selection references unknown node %s", id)
		}
		if n.IsLabel() {
			return selectionGroup{}, errors.New(errors.ErrCodeInvalidSelection, "label %s cannot join a movement group", id)
		}
		if i == 0 {
			group.parentID = n.ParentID
		} else if n.ParentID != group.parentID {
			return selectionGroup{}, errors.New(errors.ErrCodeInvalidSelection, "selection spans multiple parents")
		}
		group.nodes = append(group.nodes, n)
	}

	if group.parentID != "" {
		parent, ok := s.Get(group.parentID)
		if !ok {
			return selectionGroup{}, errors.New(errors.ErrCodeNodeNotFound, "parent %s missing", group.parentID)
		}
		if !parent.ManualLayout {
			return selectionGroup{}, errors.New(errors.ErrCodeInvalidSelection,
				"children of %s are auto-packed; enable manual positioning to move them", group.parentID)
		}
	}
	return group, nil
}

// unionBox returns the selection's union bounding box after applying delta.
func (g selectionGroup) unionBox(delta geometry.Delta) geometry.Rect {
	rects := make([]geometry.Rect, len(g.nodes))
	for i, n := range g.nodes {
		rects[i] = n.Rect.Translate(delta)
	}
	box, _ := geometry.Union(rects)
	return box
}

// DetectCollisions computes what a group move by delta would hit.
//
// Each selected node's post-move bounding box is tested for pairwise AABB
// overlap against the non-selected siblings under the same parent - nodes
// under other parents are never compared. Separately, the union bounding
// box of the whole selection is tested against the common parent's
// margin-inset interior. Roots have no boundary.
func (e *Engine) DetectCollisions(s *model.Snapshot, selection []string, delta geometry.Delta) (CollisionReport, error) {
	group, err := resolveSelection(s, selection)
	if err != nil {
		return CollisionReport{}, err
	}
	return e.detectCollisions(s, group, delta), nil
}

func (e *Engine) detectCollisions(s *model.Snapshot, group selectionGroup, delta geometry.Delta) CollisionReport {
	var report CollisionReport
	offenders := make(map[string]bool)

	siblings := group.siblings(s)
	for _, n := range group.nodes {
		moved := n.Rect.Translate(delta)
		for _, sib := range siblings {
			if moved.Intersects(sib.Rect) {
				offenders[sib.ID] = true
			}
		}
	}
	for id := range offenders {
		report.OffendingSiblings = append(report.OffendingSiblings, id)
	}
	sort.Strings(report.OffendingSiblings)

	if group.parentID != "" {
		parent, _ := s.Get(group.parentID)
		interior := e.cfg.Interior(parent)
		if !interior.Contains(group.unionBox(delta)) {
			report.BoundaryViolated = true
		}
	}

	report.Blocked = report.BoundaryViolated || len(report.OffendingSiblings) > 0
	return report
}

// siblings returns the non-selected, non-label nodes sharing the group's
// parent.
func (g selectionGroup) siblings(s *model.Snapshot) []*model.Node {
	selected := make(map[string]bool, len(g.nodes))
	for _, n := range g.nodes {
		selected[n.ID] = true
	}

	var candidates []*model.Node
	if g.parentID == "" {
		for _, n := range s.Roots() {
			candidates = append(candidates, n)
		}
	} else {
		candidates = s.Children(g.parentID)
	}

	out := candidates[:0]
	for _, n := range candidates {
		if !selected[n.ID] && !n.IsLabel() {
			out = append(out, n)
		}
	}
	return out
}

// MaxSafeDelta clamps a requested single-axis delta so the selection's
// union bounding box stays inside the common parent's interior.
//
// This is the closed form: the allowance is the distance between the union
// box's leading or trailing edge and the corresponding interior edge in the
// direction of travel. Root selections have no boundary, so the request
// passes through unchanged. Sibling collisions have no closed form (N-way
// interactions) and are handled separately by iterative shrinking in
// MoveSelection.
func (e *Engine) MaxSafeDelta(s *model.Snapshot, selection []string, axis Axis, requested int) (int, error) {
	group, err := resolveSelection(s, selection)
	if err != nil {
		return 0, err
	}
	return e.maxSafeDelta(s, group, axis, requested), nil
}

func (e *Engine) maxSafeDelta(s *model.Snapshot, group selectionGroup, axis Axis, requested int) int {
	if requested == 0 || group.parentID == "" {
		return requested
	}
	parent, _ := s.Get(group.parentID)
	interior := e.cfg.Interior(parent)
	box := group.unionBox(geometry.Delta{})

	var allowance int
	switch {
	case axis == AxisX && requested > 0:
		allowance = interior.Right() - box.Right()
	case axis == AxisX:
		allowance = interior.X - box.X // negative or zero
	case requested > 0:
		allowance = interior.Bottom() - box.Bottom()
	default:
		allowance = interior.Y - box.Y
	}

	if requested > 0 {
		return min(requested, max(allowance, 0))
	}
	return max(requested, min(allowance, 0))
}

// MoveResult is the outcome of a successful group move.
type MoveResult struct {
	// Snapshot is the new diagram state.
	Snapshot *model.Snapshot
	// Applied is the delta that was actually applied after clamping.
	Applied geometry.Delta
	// Clamped is true when Applied differs from the requested delta.
	Clamped bool
}

// MoveSelection moves a selection as a rigid group by the requested delta,
// clamping to the largest safe delta when the full move would cross the
// parent boundary or overlap a sibling.
//
// The boundary clamp is closed-form per axis. If the clamped delta still
// collides with non-selected siblings, the delta is shrunk proportionally
// step by step until it is collision-free. When no non-zero delta is safe
// the move is rejected with a SIBLING_COLLISION or BOUNDARY_VIOLATION
// error carrying the collision report, and the original snapshot is left
// untouched.
//
// Relative offsets within the selection are preserved exactly: every node
// (and its whole subtree) is translated by the same delta, never re-derived
// from a packing algorithm, so the group moves with zero internal drift.
func (e *Engine) MoveSelection(ctx context.Context, s *model.Snapshot, selection []string, delta geometry.Delta) (MoveResult, error) {
	anchor := ""
	if len(selection) > 0 {
		anchor = selection[0]
	}

	var result MoveResult
	err := e.instrument(ctx, "move", anchor, func() error {
		group, err := resolveSelection(s, selection)
		if err != nil {
			return err
		}

		clamped := geometry.Delta{
			DX: e.maxSafeDelta(s, group, AxisX, delta.DX),
			DY: e.maxSafeDelta(s, group, AxisY, delta.DY),
		}

		applied, _ := e.shrinkToFit(s, group, clamped)
		if applied == (geometry.Delta{}) && delta != (geometry.Delta{}) {
			// Report against the original request so callers see what the
			// full move would have hit, not the clamped remnant.
			report := e.detectCollisions(s, group, delta)
			code := errors.ErrCodeCollision
			msg := fmt.Sprintf("move blocked by siblings %v", report.OffendingSiblings)
			if len(report.OffendingSiblings) == 0 {
				code = errors.ErrCodeBoundary
				msg = "selection is flush against its container"
			}
			return &rejectionError{err: errors.New(code, "%s", msg), Report: report}
		}

		out := s.Clone()
		for _, n := range group.nodes {
			moved, _ := out.Get(n.ID)
			translateSubtree(out, moved, applied)
		}
		result = MoveResult{
			Snapshot: out,
			Applied:  applied,
			Clamped:  applied != delta,
		}
		return nil
	})
	if err != nil {
		return MoveResult{}, err
	}
	return result, nil
}

// shrinkToFit walks the delta toward zero until DetectCollisions passes.
// Both axes shrink proportionally so the motion stays on the requested
// vector. Returns the first safe delta and the report for the original one.
func (e *Engine) shrinkToFit(s *model.Snapshot, group selectionGroup, delta geometry.Delta) (geometry.Delta, CollisionReport) {
	first := e.detectCollisions(s, group, delta)
	if !first.Blocked {
		return delta, first
	}

	steps := max(abs(delta.DX), abs(delta.DY))
	for k := steps - 1; k > 0; k-- {
		trial := geometry.Delta{
			DX: delta.DX * k / steps,
			DY: delta.DY * k / steps,
		}
		if trial == (geometry.Delta{}) {
			break
		}
		if r := e.detectCollisions(s, group, trial); !r.Blocked {
			return trial, first
		}
	}
	return geometry.Delta{}, first
}

// translateSubtree moves a node and all its descendants by the same delta.
func translateSubtree(s *model.Snapshot, n *model.Node, delta geometry.Delta) {
	n.Rect = n.Rect.Translate(delta)
	for _, id := range s.Descendants(n.ID) {
		d, _ := s.Get(id)
		d.Rect = d.Rect.Translate(delta)
	}
}

// rejectionError couples a structured error with the collision report so
// callers can render which siblings blocked the move.
type rejectionError struct {
	err    *errors.Error
	Report CollisionReport
}

// Error implements the error interface.
func (e *rejectionError) Error() string { return e.err.Error() }

// Unwrap exposes the structured error for errors.Is/GetCode.
func (e *rejectionError) Unwrap() error { return e.err }

// ReportOf extracts a collision report from a rejection error, if present.
func ReportOf(err error) (CollisionReport, bool) {
	if re, ok := err.(*rejectionError); ok {
		return re.Report, true
	}
	return CollisionReport{}, false
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
