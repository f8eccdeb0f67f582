package render

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/ThomasRohde/domain-designer-sub000/pkg/model"
)

// DOTOptions configures the structure view.
type DOTOptions struct {
	// Detailed includes geometry and flags in node labels.
	// When false, only the display label is shown.
	Detailed bool
}

// ToDOT converts the containment tree to Graphviz DOT: one box per node,
// one edge per parent-child link. Label nodes are drawn dashed and grey to
// keep them apart from structural boxes. Render the result with
// [RenderDOTSVG].
func ToDOT(s *model.Snapshot, opts DOTOptions) string {
	var buf bytes.Buffer
	buf.WriteString("digraph containment {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=24, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	for _, n := range s.Nodes() {
		label := dotLabel(*n, opts.Detailed)
		attrs := dotAttrs(*n, label)
		fmt.Fprintf(&buf, "  %q [%s];\n", n.ID, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, n := range s.Nodes() {
		if n.ParentID != "" {
			fmt.Fprintf(&buf, "  %q -> %q;\n", n.ParentID, n.ID)
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func dotLabel(n model.Node, detailed bool) string {
	if !detailed {
		return n.DisplayLabel()
	}

	parts := []string{fmt.Sprintf("%dx%d @ (%d,%d)", n.Rect.W, n.Rect.H, n.Rect.X, n.Rect.Y)}
	if n.ManualLayout {
		parts = append(parts, "manual")
	}
	if n.Locked {
		parts = append(parts, "locked")
	}
	return n.DisplayLabel() + "\n" + strings.Join(parts, "\n")
}

func dotAttrs(n model.Node, label string) []string {
	attrs := []string{fmt.Sprintf("label=%q", label)}
	if n.IsLabel() {
		attrs = append(attrs, "style=\"rounded,filled,dashed\"", "fillcolor=lightgrey", "fontcolor=black")
	}
	return attrs
}

// RenderDOTSVG renders a DOT graph to SVG using Graphviz.
func RenderDOTSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox rewrites the Graphviz svg element to a zero-origin
// viewBox with explicit pixel dimensions, so embedding contexts size it
// consistently.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}
