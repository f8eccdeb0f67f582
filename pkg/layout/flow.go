package layout

import (
	"github.com/ThomasRohde/domain-designer-sub000/pkg/geometry"
	"github.com/ThomasRohde/domain-designer-sub000/pkg/model"
)

// Flow packs siblings along a single axis.
//
// The axis defaults to row at even hierarchy depth and column at odd depth,
// so nested containers alternate direction automatically; a per-container
// orientation preference overrides the alternation. When MaxColumns (row
// flow) or MaxRows (column flow) is set, the line wraps after that many
// items.
type Flow struct{}

// Kind implements Algorithm.
func (Flow) Kind() Kind { return KindFlow }

// Pack implements Algorithm.
func (Flow) Pack(items []Item, ctx Context) []geometry.Rect {
	if len(items) == 0 {
		return nil
	}
	if flowOrientation(ctx) == model.OrientationColumn {
		return flowColumns(items, ctx.Gap, ctx.Prefs.MaxRows)
	}
	return flowRows(items, ctx.Gap, ctx.Prefs.MaxColumns)
}

// flowOrientation resolves the effective axis for this container.
func flowOrientation(ctx Context) model.Orientation {
	if ctx.Prefs.Orientation != model.OrientationAuto {
		return ctx.Prefs.Orientation
	}
	if ctx.Depth%2 == 1 {
		return model.OrientationColumn
	}
	return model.OrientationRow
}

// flowRows lays items left to right, wrapping after wrap items when wrap>0.
// Each line is as tall as its tallest item.
func flowRows(items []Item, gap, wrap int) []geometry.Rect {
	out := make([]geometry.Rect, len(items))
	x, y, lineH, inLine := 0, 0, 0, 0
	for i, it := range items {
		if wrap > 0 && inLine == wrap {
			y += lineH + gap
			x, lineH, inLine = 0, 0, 0
		}
		out[i] = geometry.Rect{X: x, Y: y, W: it.Size.W, H: it.Size.H}
		x += it.Size.W + gap
		lineH = max(lineH, it.Size.H)
		inLine++
	}
	return out
}

// flowColumns is the transpose of flowRows.
func flowColumns(items []Item, gap, wrap int) []geometry.Rect {
	out := make([]geometry.Rect, len(items))
	x, y, colW, inCol := 0, 0, 0, 0
	for i, it := range items {
		if wrap > 0 && inCol == wrap {
			x += colW + gap
			y, colW, inCol = 0, 0, 0
		}
		out[i] = geometry.Rect{X: x, Y: y, W: it.Size.W, H: it.Size.H}
		y += it.Size.H + gap
		colW = max(colW, it.Size.W)
		inCol++
	}
	return out
}
