package layout

import (
	"fmt"

	"github.com/ThomasRohde/domain-designer-sub000/pkg/geometry"
	"github.com/ThomasRohde/domain-designer-sub000/pkg/model"
)

// Relayout re-derives the geometry of every tree in the snapshot.
//
// The input snapshot is never mutated: a clone is laid out and returned.
// Sizing runs depth-first post-order (children's sizes determine whether
// ancestors must grow), positioning runs pre-order (once a container's
// final size is fixed, its children are packed inside it). Variants are
// refreshed on the way out.
//
// Relayout is idempotent: running it on its own output reproduces that
// output exactly.
func Relayout(s *model.Snapshot, cfg Config) (*model.Snapshot, error) {
	out := s.Clone()
	for _, root := range out.Roots() {
		if err := relayoutIn(out, root.ID, cfg); err != nil {
			return nil, err
		}
	}
	out.RefreshVariants()
	return out, nil
}

// RelayoutSubtree re-derives geometry for the subtree rooted at id only,
// then propagates any growth of id's size up through its ancestors. This is
// the entry point for interactive edits: the cost stays proportional to the
// affected subtree plus the ancestor chain, not the whole document.
func RelayoutSubtree(s *model.Snapshot, id string, cfg Config) (*model.Snapshot, error) {
	if !s.Has(id) {
		return nil, fmt.Errorf("%w: %s", model.ErrUnknownNode, id)
	}
	out := s.Clone()
	if err := relayoutIn(out, id, cfg); err != nil {
		return nil, err
	}
	if err := growAncestors(out, id, cfg); err != nil {
		return nil, err
	}
	out.RefreshVariants()
	return out, nil
}

// relayoutIn sizes and places the subtree rooted at id, in place.
func relayoutIn(s *model.Snapshot, id string, cfg Config) error {
	n, ok := s.Get(id)
	if !ok {
		return fmt.Errorf("%w: %s", model.ErrUnknownNode, id)
	}
	if err := resize(s, n, cfg); err != nil {
		return err
	}
	return placeChildren(s, n, cfg, geometry.Delta{})
}

// resize performs the post-order sizing pass. Containers grow to fit their
// children but never shrink below the size the user gave them; Locked and
// ManualLayout nodes keep their stored size outright.
func resize(s *model.Snapshot, n *model.Node, cfg Config) error {
	children := packable(s.Children(n.ID))
	for _, c := range children {
		if err := resize(s, c, cfg); err != nil {
			return err
		}
	}

	switch {
	case n.Locked || n.ManualLayout:
		// Stored geometry wins. For Locked this is the explicit exemption
		// from grow-to-fit; for ManualLayout the container is a free-form
		// canvas whose extent the user controls.
		return nil
	case len(children) == 0:
		sz := leafSize(n, cfg)
		n.Rect.W, n.Rect.H = sz.W, sz.H
		return nil
	default:
		need, err := requiredSize(s, n, cfg)
		if err != nil {
			return err
		}
		n.Rect.W = max(n.Rect.W, need.W)
		n.Rect.H = max(n.Rect.H, need.H)
		return nil
	}
}

// requiredSize packs the container's children at their current sizes into
// an unbounded area and returns the framed bounding box: the smallest size
// the container may have right now.
func requiredSize(s *model.Snapshot, n *model.Node, cfg Config) (geometry.Size, error) {
	children := packable(s.Children(n.ID))
	items := make([]Item, len(children))
	for i, c := range children {
		items[i] = Item{ID: c.ID, Size: c.Rect.Size()}
	}
	algo, err := ForKind(cfg.Algorithm)
	if err != nil {
		return geometry.Size{}, err
	}
	rects := algo.Pack(items, Context{
		Depth: s.Depth(n.ID),
		Prefs: n.Prefs,
		Gap:   cfg.Margin,
	})
	return cfg.frame(boundingSize(rects), n.HasVisibleLabel()), nil
}

// moveNode assigns a new origin to n and lets the subtree follow.
func moveNode(s *model.Snapshot, n *model.Node, x, y int, cfg Config) error {
	delta := geometry.Delta{DX: x - n.Rect.X, DY: y - n.Rect.Y}
	n.Rect.X, n.Rect.Y = x, y
	return placeChildren(s, n, cfg, delta)
}

// placeChildren performs the pre-order positioning pass for n's children.
// moved is how far n itself just moved; manually positioned children and
// labels ride along rigidly instead of being repacked.
func placeChildren(s *model.Snapshot, n *model.Node, cfg Config, moved geometry.Delta) error {
	children := s.Children(n.ID)
	if len(children) == 0 {
		return nil
	}

	if n.ManualLayout {
		for _, c := range children {
			if err := moveNode(s, c, c.Rect.X+moved.DX, c.Rect.Y+moved.DY, cfg); err != nil {
				return err
			}
		}
		return nil
	}

	var pack []*model.Node
	for _, c := range children {
		if c.IsLabel() {
			// Labels keep their stored position relative to the container.
			if err := moveNode(s, c, c.Rect.X+moved.DX, c.Rect.Y+moved.DY, cfg); err != nil {
				return err
			}
			continue
		}
		pack = append(pack, c)
	}
	if len(pack) == 0 {
		return nil
	}

	items := make([]Item, len(pack))
	for i, c := range pack {
		items[i] = Item{ID: c.ID, Size: c.Rect.Size()}
	}
	algo, err := ForKind(cfg.Algorithm)
	if err != nil {
		return err
	}

	interior := cfg.Interior(n)
	ctx := Context{
		Available: interior.Size(),
		Depth:     s.Depth(n.ID),
		Prefs:     n.Prefs,
		Gap:       cfg.Margin,
	}
	rects := algo.Pack(items, ctx)

	// A bounded pack may exceed the interior when the aspect-driven
	// arrangement disagrees with the sizing pass (which always packs
	// unbounded). Fall back to the unbounded arrangement: the container was
	// grown to fit exactly that.
	if bs := boundingSize(rects); bs.W > interior.W || bs.H > interior.H {
		ctx.Available = geometry.Size{}
		rects = algo.Pack(items, ctx)
	}

	for i, c := range pack {
		if err := moveNode(s, c, interior.X+rects[i].X, interior.Y+rects[i].Y, cfg); err != nil {
			return err
		}
	}
	return nil
}

// growAncestors walks from id's parent toward the root, growing every
// container whose size no longer satisfies its children. The walk
// short-circuits at the first ancestor that is already large enough, and
// stops hard at a Locked ancestor: the violation there is tolerated, not
// fixed.
func growAncestors(s *model.Snapshot, id string, cfg Config) error {
	for _, aid := range s.Ancestors(id) {
		a, ok := s.Get(aid)
		if !ok {
			return fmt.Errorf("%w: %s", model.ErrUnknownNode, aid)
		}
		if a.Locked {
			return nil
		}
		if a.ManualLayout {
			// Free-form canvases are not resized; nothing above them can
			// be affected either, since their extent did not change.
			return nil
		}

		need, err := requiredSize(s, a, cfg)
		if err != nil {
			return err
		}
		grown := a.Rect.W < need.W || a.Rect.H < need.H
		a.Rect.W = max(a.Rect.W, need.W)
		a.Rect.H = max(a.Rect.H, need.H)

		// Repack the children either way: the changed subtree may need a
		// new slot even when the ancestor itself is large enough.
		if err := placeChildren(s, a, cfg, geometry.Delta{}); err != nil {
			return err
		}
		if !grown {
			return nil
		}
	}
	return nil
}

// CheckInvariants verifies the geometric invariants of a laid-out snapshot:
// every child of a non-manual, non-locked container lies inside the
// container's margin-inset interior, no two packable siblings under a
// non-manual parent overlap, and no non-locked container is smaller than
// its children require. Used by tests and by the engine after mutations.
func CheckInvariants(s *model.Snapshot, cfg Config) error {
	for _, n := range s.Nodes() {
		children := s.Children(n.ID)
		if len(children) == 0 {
			continue
		}

		if !n.ManualLayout {
			interior := cfg.Interior(n)
			for _, c := range children {
				if c.Locked || c.IsLabel() || n.Locked {
					// A locked container may be too small for its packed
					// children; that violation is tolerated.
					continue
				}
				if !interior.Contains(c.Rect) {
					return fmt.Errorf("containment: node %s (%+v) escapes interior %+v of %s", c.ID, c.Rect, interior, n.ID)
				}
			}

			pack := packable(children)
			for i := 0; i < len(pack); i++ {
				for j := i + 1; j < len(pack); j++ {
					if pack[i].Rect.Intersects(pack[j].Rect) {
						return fmt.Errorf("overlap: siblings %s and %s under %s", pack[i].ID, pack[j].ID, n.ID)
					}
				}
			}
		}

		if !n.Locked && !n.ManualLayout {
			need, err := requiredSize(s, n, cfg)
			if err != nil {
				return err
			}
			if n.Rect.W < need.W || n.Rect.H < need.H {
				return fmt.Errorf("min-size: container %s is %dx%d, needs %dx%d", n.ID, n.Rect.W, n.Rect.H, need.W, need.H)
			}
		}
	}
	return nil
}
