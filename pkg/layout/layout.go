// Package layout implements the packing algorithms and constraint
// propagation for box-in-box diagrams.
//
// # Architecture
//
// The package has two layers:
//
//   - Packing algorithms ([Grid], [Flow], [MixedFlow]): pure functions that
//     map a sibling set plus an available content area to positions. They
//     are modeled as implementations of [Algorithm] selected by [Kind], so
//     adding an algorithm extends one switch rather than a class hierarchy.
//   - Constraint propagation ([MinimumSize], [Relayout], [GrowAncestors]):
//     bottom-up sizing and top-down positioning over a [model.Snapshot].
//
// All entry points are pure with respect to their inputs: the same snapshot
// and config always produce the same geometry, and running Relayout on its
// own output reproduces it exactly. This is what makes layouts cacheable by
// snapshot hash.
//
// # Units and margins
//
// Everything is in integer grid units. A uniform Margin insets every side
// of a container's interior and doubles as the gap between siblings. When a
// container has a visible label, LabelMargin is reserved additionally on
// the top edge only.
package layout

import (
	"fmt"

	"github.com/ThomasRohde/domain-designer-sub000/pkg/geometry"
	"github.com/ThomasRohde/domain-designer-sub000/pkg/model"
)

// Kind selects a packing algorithm.
type Kind string

const (
	// KindGrid arranges siblings in a row-major grid with uniform cells.
	KindGrid Kind = "grid"
	// KindFlow packs siblings along a single axis, alternating by depth.
	KindFlow Kind = "flow"
	// KindMixedFlow evaluates row, column, and balanced two-way splits and
	// keeps the one wasting the least area.
	KindMixedFlow Kind = "mixed-flow"
)

// Kinds lists every supported algorithm, in presentation order.
var Kinds = []Kind{KindGrid, KindFlow, KindMixedFlow}

// ParseKind validates a user-supplied algorithm name.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindGrid, KindFlow, KindMixedFlow:
		return Kind(s), nil
	}
	return "", fmt.Errorf("unknown packing algorithm %q (valid: grid, flow, mixed-flow)", s)
}

// Item is one sibling to be packed: an id and the size it must receive.
// Sizes are the children's minimum (or fixed) dimensions; packing never
// resizes an item, it only positions it.
type Item struct {
	ID   string
	Size geometry.Size
}

// Context carries the container-side inputs to a packing run.
type Context struct {
	// Available is the content area the children must fit, already inset by
	// margins. A zero value means unbounded: algorithms then target a 1:1
	// aspect ratio. MinimumSize always packs unbounded.
	Available geometry.Size

	// Depth is the container's hierarchy depth; flow packing alternates its
	// default orientation on it (even = row, odd = column).
	Depth int

	// Prefs are the container's packing overrides.
	Prefs model.PackingPrefs

	// Gap is the spacing between adjacent siblings, normally equal to the
	// configured margin.
	Gap int
}

// Algorithm is the shared packing contract. Pack returns one rectangle per
// item, in item order, positioned relative to the content origin (0,0).
// Implementations must be pure: no hidden state, no dependency on any
// previous layout.
type Algorithm interface {
	Kind() Kind
	Pack(items []Item, ctx Context) []geometry.Rect
}

// ForKind returns the algorithm implementation for k.
func ForKind(k Kind) (Algorithm, error) {
	switch k {
	case KindGrid:
		return Grid{}, nil
	case KindFlow:
		return Flow{}, nil
	case KindMixedFlow:
		return MixedFlow{}, nil
	}
	return nil, fmt.Errorf("unknown packing algorithm %q", k)
}

// Config is the full set of layout settings a relayout run depends on.
type Config struct {
	// Algorithm is the active packing strategy.
	Algorithm Kind

	// Margin is the uniform inset on all sides of a container's interior
	// and the gap between siblings, in grid units.
	Margin int

	// LabelMargin is the extra top inset reserved when the container has a
	// visible label.
	LabelMargin int

	// EnforceLeafSize forces every non-label leaf to LeafSize during
	// relayout. When false, leaves keep their stored dimensions.
	EnforceLeafSize bool

	// LeafSize is the enforced leaf dimension when EnforceLeafSize is set.
	LeafSize geometry.Size
}

// DefaultConfig mirrors the application defaults: grid packing, one grid
// unit of margin, two units of label clearance, 10x5 leaves.
func DefaultConfig() Config {
	return Config{
		Algorithm:       KindGrid,
		Margin:          1,
		LabelMargin:     2,
		EnforceLeafSize: true,
		LeafSize:        geometry.Size{W: 10, H: 5},
	}
}

// Interior returns the margin-inset content box of a container rect.
func (c Config) Interior(n *model.Node) geometry.Rect {
	extraTop := 0
	if n.HasVisibleLabel() {
		extraTop = c.LabelMargin
	}
	return n.Rect.Inset(c.Margin, extraTop)
}

// frame converts a packed bounding box back into an outer container size,
// adding margins (and label clearance) around the content.
func (c Config) frame(content geometry.Size, hasLabel bool) geometry.Size {
	extraTop := 0
	if hasLabel {
		extraTop = c.LabelMargin
	}
	return geometry.Size{
		W: content.W + 2*c.Margin,
		H: content.H + 2*c.Margin + extraTop,
	}
}

// packable filters a container's children down to the nodes that
// participate in packing. Labels own geometry but are never packed.
func packable(nodes []*model.Node) []*model.Node {
	out := make([]*model.Node, 0, len(nodes))
	for _, n := range nodes {
		if !n.IsLabel() {
			out = append(out, n)
		}
	}
	return out
}

// boundingSize returns the size of the bounding box of packed rectangles.
func boundingSize(rects []geometry.Rect) geometry.Size {
	box, ok := geometry.Union(rects)
	if !ok {
		return geometry.Size{}
	}
	return geometry.Size{W: box.Right(), H: box.Bottom()}
}
