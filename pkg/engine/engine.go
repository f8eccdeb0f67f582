// Package engine is the mutation façade over diagram snapshots.
//
// Every operation takes an immutable snapshot and returns a new one (or a
// typed rejection), so callers can keep prior snapshots for undo without any
// coordination. The engine never panics on user input: geometric and
// hierarchy violations come back as structured rejections, while references
// to unknown node ids are contract violations and fail loudly with
// NODE_NOT_FOUND.
//
// All geometry work is delegated to the layout package; the engine adds
// validation, cascade policies, and observability hooks around it.
package engine

import (
	"context"
	"time"

	"github.com/ThomasRohde/domain-designer-sub000/pkg/errors"
	"github.com/ThomasRohde/domain-designer-sub000/pkg/geometry"
	"github.com/ThomasRohde/domain-designer-sub000/pkg/layout"
	"github.com/ThomasRohde/domain-designer-sub000/pkg/model"
	"github.com/ThomasRohde/domain-designer-sub000/pkg/observability"
)

// CascadePolicy selects what happens to a removed node's children.
type CascadePolicy string

const (
	// CascadeDeleteSubtree removes the node together with every descendant.
	CascadeDeleteSubtree CascadePolicy = "delete-subtree"
	// CascadePromoteChildren reattaches the node's direct children to its
	// parent (or promotes them to roots) before removing the node itself.
	CascadePromoteChildren CascadePolicy = "promote-children"
)

// ParseCascadePolicy validates a user-supplied policy name.
func ParseCascadePolicy(s string) (CascadePolicy, error) {
	switch CascadePolicy(s) {
	case CascadeDeleteSubtree, CascadePromoteChildren:
		return CascadePolicy(s), nil
	}
	return "", errors.New(errors.ErrCodeInvalidInput,
		"unknown cascade policy %q (valid: delete-subtree, promote-children)", s)
}

// Engine applies mutations to diagram snapshots under a fixed layout config.
// The zero value is not usable - use New. Engine itself is stateless and safe
// for concurrent use; all state lives in the snapshots.
type Engine struct {
	cfg layout.Config
}

// New creates an engine with the given layout configuration.
func New(cfg layout.Config) *Engine {
	return &Engine{cfg: cfg}
}

// Config returns the engine's layout configuration.
func (e *Engine) Config() layout.Config { return e.cfg }

// WithConfig returns a new engine using cfg. The receiver is unchanged;
// callers relayout existing snapshots under the new engine themselves.
func (e *Engine) WithConfig(cfg layout.Config) *Engine {
	return &Engine{cfg: cfg}
}

// Relayout re-derives the full layout of the snapshot.
func (e *Engine) Relayout(ctx context.Context, s *model.Snapshot) (*model.Snapshot, error) {
	hooks := observability.Engine()
	hooks.OnRelayoutStart(ctx, s.Len())
	start := time.Now()
	out, err := layout.Relayout(s, e.cfg)
	hooks.OnRelayoutComplete(ctx, s.Len(), time.Since(start), err)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "relayout failed")
	}
	return out, nil
}

// SetAlgorithm switches the packing algorithm and re-derives the full
// layout, returning the reconfigured engine alongside the new snapshot.
func (e *Engine) SetAlgorithm(ctx context.Context, s *model.Snapshot, kind layout.Kind) (*Engine, *model.Snapshot, error) {
	if _, err := layout.ForKind(kind); err != nil {
		return nil, nil, errors.Wrap(errors.ErrCodeInvalidAlgorithm, err, "set algorithm")
	}
	cfg := e.cfg
	cfg.Algorithm = kind
	next := &Engine{cfg: cfg}
	out, err := next.Relayout(ctx, s)
	if err != nil {
		return nil, nil, err
	}
	return next, out, nil
}

// Resize sets a node's dimensions, clamped to the node's minimum size so the
// children still fit. Locked nodes take the requested size verbatim. The
// subtree is re-laid out and any growth propagates to the ancestors.
func (e *Engine) Resize(ctx context.Context, s *model.Snapshot, id string, size geometry.Size) (*model.Snapshot, error) {
	var out *model.Snapshot
	err := e.instrument(ctx, "resize", id, func() error {
		n, ok := s.Get(id)
		if !ok {
			return errors.New(errors.ErrCodeNodeNotFound, "resize: unknown node %s", id)
		}
		if size.W <= 0 || size.H <= 0 {
			return errors.New(errors.ErrCodeInvalidGeometry, "resize %s to %dx%d: dimensions must be positive", id, size.W, size.H)
		}

		if !n.Locked {
			min, err := layout.MinimumSize(s, id, e.cfg)
			if err != nil {
				return errors.Wrap(errors.ErrCodeInternal, err, "resize %s", id)
			}
			if size.W < min.W {
				size.W = min.W
			}
			if size.H < min.H {
				size.H = min.H
			}
		}

		work := s.Clone()
		target, _ := work.Get(id)
		target.Rect.W, target.Rect.H = size.W, size.H

		var err error
		out, err = layout.RelayoutSubtree(work, id, e.cfg)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInternal, err, "resize %s", id)
		}
		return nil
	})
	return out, err
}

// AddChild creates a new leaf under parentID (empty for a new root) and
// returns the new snapshot together with the generated node id. The parent
// subtree is re-laid out so the new child gets a slot and the parent grows
// if needed.
func (e *Engine) AddChild(ctx context.Context, s *model.Snapshot, parentID, label string) (*model.Snapshot, string, error) {
	id := model.NewID()
	var out *model.Snapshot
	err := e.instrument(ctx, "add", id, func() error {
		origin := geometry.Point{}
		if parentID != "" {
			parent, ok := s.Get(parentID)
			if !ok {
				return errors.New(errors.ErrCodeNodeNotFound, "add child: unknown parent %s", parentID)
			}
			if parent.IsLabel() {
				return errors.New(errors.ErrCodeInvalidHierarchy, "add child: label %s cannot host children", parentID)
			}
			interior := e.cfg.Interior(parent)
			origin = geometry.Point{X: interior.X, Y: interior.Y}
		}

		work := s.Clone()
		node := model.Node{
			ID:       id,
			ParentID: parentID,
			Label:    label,
			Rect: geometry.Rect{
				X: origin.X, Y: origin.Y,
				W: e.cfg.LeafSize.W, H: e.cfg.LeafSize.H,
			},
		}
		if err := work.Add(node); err != nil {
			return errors.Wrap(errors.ErrCodeInternal, err, "add child under %s", parentID)
		}

		target := id
		if parentID != "" {
			target = parentID
		}
		var err error
		out, err = layout.RelayoutSubtree(work, target, e.cfg)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInternal, err, "add child under %s", parentID)
		}
		return nil
	})
	if err != nil {
		return nil, "", err
	}
	return out, id, nil
}

// AddLabel creates a free-floating text annotation under parentID. Labels
// own geometry but are skipped by packing, so no relayout is triggered.
func (e *Engine) AddLabel(ctx context.Context, s *model.Snapshot, parentID, text string, at geometry.Point) (*model.Snapshot, string, error) {
	id := model.NewID()
	var out *model.Snapshot
	err := e.instrument(ctx, "add-label", id, func() error {
		if parentID != "" && !s.Has(parentID) {
			return errors.New(errors.ErrCodeNodeNotFound, "add label: unknown parent %s", parentID)
		}
		work := s.Clone()
		node := model.Node{
			ID:       id,
			ParentID: parentID,
			Label:    text,
			Variant:  model.VariantLabel,
			Rect:     geometry.Rect{X: at.X, Y: at.Y, W: max(len(text), 1), H: 1},
		}
		if err := work.Add(node); err != nil {
			return errors.Wrap(errors.ErrCodeInternal, err, "add label under %s", parentID)
		}
		out = work
		return nil
	})
	if err != nil {
		return nil, "", err
	}
	return out, id, nil
}

// RemoveNode deletes a node according to the cascade policy and re-lays out
// the affected part of the tree.
func (e *Engine) RemoveNode(ctx context.Context, s *model.Snapshot, id string, policy CascadePolicy) (*model.Snapshot, error) {
	var out *model.Snapshot
	err := e.instrument(ctx, "remove", id, func() error {
		n, ok := s.Get(id)
		if !ok {
			return errors.New(errors.ErrCodeNodeNotFound, "remove: unknown node %s", id)
		}
		parentID := n.ParentID

		work := s.Clone()
		switch policy {
		case CascadePromoteChildren:
			for _, cid := range work.ChildIDs(id) {
				if err := work.SetParent(cid, parentID); err != nil {
					return errors.Wrap(errors.ErrCodeInternal, err, "promote child %s", cid)
				}
			}
		case CascadeDeleteSubtree:
			for _, did := range work.Descendants(id) {
				if err := work.Remove(did); err != nil {
					return errors.Wrap(errors.ErrCodeInternal, err, "remove descendant %s", did)
				}
			}
		default:
			return errors.New(errors.ErrCodeInvalidInput, "unknown cascade policy %q", policy)
		}
		if err := work.Remove(id); err != nil {
			return errors.Wrap(errors.ErrCodeInternal, err, "remove %s", id)
		}

		var err error
		if parentID != "" {
			out, err = layout.RelayoutSubtree(work, parentID, e.cfg)
		} else {
			out, err = layout.Relayout(work, e.cfg)
		}
		if err != nil {
			return errors.Wrap(errors.ErrCodeInternal, err, "remove %s", id)
		}
		return nil
	})
	return out, err
}

// Reparent moves childID under newParentID (empty promotes to root).
//
// Unknown ids are contract violations and fail with NODE_NOT_FOUND. A move
// that would create a cycle - newParentID inside childID's own subtree, or
// the node itself - is rejected with INVALID_HIERARCHY and the snapshot is
// left unchanged. Both the new and the old parent subtrees are re-laid out.
func (e *Engine) Reparent(ctx context.Context, s *model.Snapshot, childID, newParentID string) (*model.Snapshot, error) {
	var out *model.Snapshot
	err := e.instrument(ctx, "reparent", childID, func() error {
		child, ok := s.Get(childID)
		if !ok {
			return errors.New(errors.ErrCodeNodeNotFound, "reparent: unknown node %s", childID)
		}
		oldParentID := child.ParentID

		if newParentID != "" {
			parent, ok := s.Get(newParentID)
			if !ok {
				return errors.New(errors.ErrCodeNodeNotFound, "reparent: unknown parent %s", newParentID)
			}
			if parent.IsLabel() {
				return errors.New(errors.ErrCodeInvalidHierarchy, "reparent: label %s cannot host children", newParentID)
			}
		}
		if !CanReparent(s, childID, newParentID) {
			return errors.New(errors.ErrCodeInvalidHierarchy,
				"reparent %s under %s would create a cycle", childID, newParentID)
		}

		work := s.Clone()
		if err := work.SetParent(childID, newParentID); err != nil {
			return errors.Wrap(errors.ErrCodeInternal, err, "reparent %s", childID)
		}

		target := newParentID
		if target == "" {
			target = childID
		}
		next, err := layout.RelayoutSubtree(work, target, e.cfg)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInternal, err, "reparent %s", childID)
		}
		if oldParentID != "" && next.Has(oldParentID) {
			next, err = layout.RelayoutSubtree(next, oldParentID, e.cfg)
			if err != nil {
				return errors.Wrap(errors.ErrCodeInternal, err, "reparent %s", childID)
			}
		}
		out = next
		return nil
	})
	return out, err
}

// instrument wraps a mutation with the engine observability hooks.
func (e *Engine) instrument(ctx context.Context, op, nodeID string, fn func() error) error {
	hooks := observability.Engine()
	hooks.OnMutationStart(ctx, op, nodeID)
	start := time.Now()
	err := fn()
	hooks.OnMutationComplete(ctx, op, nodeID, time.Since(start), err)
	if err != nil && errors.IsRejection(err) {
		hooks.OnRejection(ctx, op, string(errors.GetCode(err)))
	}
	return err
}
