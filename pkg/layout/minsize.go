package layout

import (
	"fmt"

	"github.com/ThomasRohde/domain-designer-sub000/pkg/geometry"
	"github.com/ThomasRohde/domain-designer-sub000/pkg/model"
)

// MinimumSize computes the smallest size node id may legally have under the
// active packing algorithm and margins.
//
// Leaves return the enforced fixed dimensions when EnforceLeafSize is set,
// otherwise their stored size. Containers recursively compute each child's
// minimum, pack those minimums into an unbounded area, and return the
// resulting bounding box plus margins. Two flags cut the recursion short:
//
//   - Locked nodes return their stored size. The grow-to-fit constraint is
//     deliberately not enforced through them, so any violation below a
//     locked node is tolerated rather than fixed.
//   - ManualLayout containers return the bounding box of their children's
//     stored rectangles plus margins, since their children are never
//     repacked.
//
// The function is deterministic and side-effect free.
func MinimumSize(s *model.Snapshot, id string, cfg Config) (geometry.Size, error) {
	n, ok := s.Get(id)
	if !ok {
		return geometry.Size{}, fmt.Errorf("%w: %s", model.ErrUnknownNode, id)
	}
	return minimumSize(s, n, cfg)
}

func minimumSize(s *model.Snapshot, n *model.Node, cfg Config) (geometry.Size, error) {
	if n.Locked {
		return n.Rect.Size(), nil
	}

	children := packable(s.Children(n.ID))
	if len(children) == 0 {
		return leafSize(n, cfg), nil
	}

	if n.ManualLayout {
		rects := make([]geometry.Rect, len(children))
		for i, c := range children {
			rects[i] = c.Rect
		}
		box, _ := geometry.Union(rects)
		// Stored child coordinates are absolute; measure their extent from
		// the container's own interior origin.
		interior := cfg.Interior(n)
		content := geometry.Size{
			W: box.Right() - interior.X,
			H: box.Bottom() - interior.Y,
		}
		return maxSize(cfg.frame(content, n.HasVisibleLabel()), n.Rect.Size()), nil
	}

	items := make([]Item, len(children))
	for i, c := range children {
		sz, err := minimumSize(s, c, cfg)
		if err != nil {
			return geometry.Size{}, err
		}
		items[i] = Item{ID: c.ID, Size: sz}
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

// leafSize returns the size a childless node receives during relayout.
func leafSize(n *model.Node, cfg Config) geometry.Size {
	if cfg.EnforceLeafSize && !n.IsLabel() {
		return cfg.LeafSize
	}
	return n.Rect.Size()
}

func maxSize(a, b geometry.Size) geometry.Size {
	return geometry.Size{W: max(a.W, b.W), H: max(a.H, b.H)}
}
