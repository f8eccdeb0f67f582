// Package render turns laid-out snapshots into visual artifacts.
//
// Two renderers are provided:
//
//   - [RenderSVG]: the box view. Nested rectangles drawn directly from the
//     snapshot's grid-unit geometry, scaled to pixels. This is the faithful
//     view: what you see is exactly what the layout engine computed.
//   - [ToDOT] + [RenderDOTSVG]: the structure view. The containment tree as
//     a Graphviz node-link diagram, useful for inspecting deep hierarchies
//     whose boxes get too small to read.
package render

import (
	"bytes"
	"fmt"
	"html"

	"github.com/ThomasRohde/domain-designer-sub000/pkg/model"
)

// Option configures the box renderer.
type Option func(*boxRenderer)

// WithScale sets the pixel size of one grid unit. Default 12.
func WithScale(px int) Option {
	return func(r *boxRenderer) {
		if px > 0 {
			r.scale = px
		}
	}
}

// WithIDs draws node ids under unlabeled boxes.
func WithIDs() Option {
	return func(r *boxRenderer) { r.showIDs = true }
}

type boxRenderer struct {
	scale   int
	showIDs bool
}

// Depth palette: outermost boxes darkest, cycling for deep nests.
var depthFills = []string{"#dbe4f0", "#e7eef7", "#f2f6fb", "#fafcfe"}

// RenderSVG renders the snapshot's boxes as a standalone SVG document.
//
// Boxes are drawn parent before child so nesting shows through painter's
// order, in snapshot sibling order so output is deterministic. Labels go in
// the reserved top band of their container; free-floating label nodes are
// drawn as bare text.
func RenderSVG(s *model.Snapshot, opts ...Option) []byte {
	r := boxRenderer{scale: 12}
	for _, opt := range opts {
		opt(&r)
	}

	w, h := canvasSize(s, r.scale)
	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %d %d" width="%d" height="%d">`+"\n", w, h, w, h)
	fmt.Fprintf(&buf, "  <style>text { font-family: sans-serif; }</style>\n")

	for _, root := range s.Roots() {
		r.renderNode(&buf, s, root, 0)
	}

	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

func canvasSize(s *model.Snapshot, scale int) (int, int) {
	w, h := 1, 1
	for _, n := range s.Nodes() {
		w = max(w, n.Rect.Right())
		h = max(h, n.Rect.Bottom())
	}
	return w * scale, h * scale
}

func (r boxRenderer) renderNode(buf *bytes.Buffer, s *model.Snapshot, n *model.Node, depth int) {
	x, y := n.Rect.X*r.scale, n.Rect.Y*r.scale
	w, h := n.Rect.W*r.scale, n.Rect.H*r.scale
	fontPx := r.scale + r.scale/2

	if n.IsLabel() {
		fmt.Fprintf(buf, `  <text x="%d" y="%d" font-size="%d" fill="#555">%s</text>`+"\n",
			x, y+fontPx, fontPx, html.EscapeString(n.DisplayLabel()))
		return
	}

	fill := depthFills[depth%len(depthFills)]
	fmt.Fprintf(buf, `  <rect id="node-%s" x="%d" y="%d" width="%d" height="%d" fill="%s" stroke="#4a5568" stroke-width="1" rx="2"/>`+"\n",
		html.EscapeString(n.ID), x, y, w, h, fill)

	switch {
	case n.Label != "":
		fmt.Fprintf(buf, `  <text x="%d" y="%d" font-size="%d" fill="#1a202c">%s</text>`+"\n",
			x+r.scale/2, y+fontPx, fontPx, html.EscapeString(n.Label))
	case r.showIDs:
		fmt.Fprintf(buf, `  <text x="%d" y="%d" font-size="%d" fill="#718096">%s</text>`+"\n",
			x+r.scale/2, y+fontPx, fontPx, html.EscapeString(n.ID))
	}

	for _, c := range s.Children(n.ID) {
		r.renderNode(buf, s, c, depth+1)
	}
}
