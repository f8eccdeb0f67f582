package model

import (
	"github.com/google/uuid"

	"github.com/ThomasRohde/domain-designer-sub000/pkg/geometry"
)

// Variant classifies a node's role in the hierarchy.
type Variant string

const (
	// VariantRoot is a node without a parent.
	VariantRoot Variant = "root"
	// VariantContainer is a node with at least one child. Containers must
	// satisfy the min-size and no-overlap invariants for their children.
	VariantContainer Variant = "container"
	// VariantLeaf is a node without children.
	VariantLeaf Variant = "leaf"
	// VariantLabel is a free-floating text annotation. Labels own geometry
	// but never participate in packing or in multi-node selection groups.
	VariantLabel Variant = "label"
)

// Orientation selects the primary axis for flow packing.
type Orientation string

const (
	// OrientationRow packs children left to right.
	OrientationRow Orientation = "row"
	// OrientationColumn packs children top to bottom.
	OrientationColumn Orientation = "column"
	// OrientationAuto alternates by hierarchy depth: even depth packs rows,
	// odd depth packs columns.
	OrientationAuto Orientation = ""
)

// PackingPrefs holds per-container overrides consumed by the packing
// algorithms. The zero value means "no override": auto orientation and
// unlimited columns/rows.
type PackingPrefs struct {
	Orientation Orientation `json:"orientation,omitempty"`
	MaxColumns  int         `json:"max_columns,omitempty"`
	MaxRows     int         `json:"max_rows,omitempty"`
}

// Node is a rectangle in the box-in-box hierarchy.
//
// Geometry is expressed in grid units. ParentID is empty for roots; the
// parent graph must stay acyclic, which Snapshot.Validate enforces. The zero
// value is not usable - ID and a positive-size Rect must be set before
// adding to a Snapshot.
type Node struct {
	ID       string        `json:"id"`
	ParentID string        `json:"parent_id,omitempty"`
	Rect     geometry.Rect `json:"rect"`
	Label    string        `json:"label,omitempty"`
	Variant  Variant       `json:"variant,omitempty"`

	// Prefs holds packing overrides, consumed only when this node is itself
	// a container.
	Prefs PackingPrefs `json:"prefs,omitempty"`

	// ManualLayout disables auto-packing for this node's direct children:
	// the node becomes a free-form canvas and children keep their stored
	// coordinates.
	ManualLayout bool `json:"manual_layout,omitempty"`

	// Locked exempts this node's own geometry from the grow-to-fit
	// constraint. Used to preserve imported or hand-arranged geometry.
	Locked bool `json:"locked,omitempty"`
}

// IsLabel reports whether the node is a text annotation.
// Labels are skipped by packing and excluded from selection groups.
func (n Node) IsLabel() bool { return n.Variant == VariantLabel }

// HasVisibleLabel reports whether the node reserves vertical space for its
// own title text. Containers with a non-empty label get the extra top inset.
func (n Node) HasVisibleLabel() bool { return n.Label != "" }

// DisplayLabel returns the label if set, otherwise the ID.
func (n Node) DisplayLabel() string {
	if n.Label != "" {
		return n.Label
	}
	return n.ID
}

// NewID generates a fresh node identifier.
func NewID() string { return uuid.NewString() }
