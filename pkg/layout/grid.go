package layout

import (
	"math"

	"github.com/ThomasRohde/domain-designer-sub000/pkg/geometry"
)

// Grid arranges siblings in a row-major grid of uniform cells.
//
// The column count balances rows against columns for the available aspect
// ratio: wide containers get more columns, tall containers more rows. Cells
// share one width (the widest child) and one height (the tallest child), so
// the result reads as a regular table regardless of child sizes. Input
// order is preserved.
type Grid struct{}

// Kind implements Algorithm.
func (Grid) Kind() Kind { return KindGrid }

// Pack implements Algorithm.
func (Grid) Pack(items []Item, ctx Context) []geometry.Rect {
	if len(items) == 0 {
		return nil
	}

	cellW, cellH := 0, 0
	for _, it := range items {
		cellW = max(cellW, it.Size.W)
		cellH = max(cellH, it.Size.H)
	}

	cols := gridColumns(len(items), cellW, cellH, ctx)

	out := make([]geometry.Rect, len(items))
	for i, it := range items {
		row, col := i/cols, i%cols
		out[i] = geometry.Rect{
			X: col * (cellW + ctx.Gap),
			Y: row * (cellH + ctx.Gap),
			W: it.Size.W,
			H: it.Size.H,
		}
	}
	return out
}

// gridColumns chooses the column count. A MaxColumns preference wins
// outright; otherwise the count is derived from the target aspect ratio so
// that cols/rows ≈ available W/H (1:1 when unbounded).
func gridColumns(n, cellW, cellH int, ctx Context) int {
	if ctx.Prefs.MaxColumns > 0 {
		return clampCols(ctx.Prefs.MaxColumns, n)
	}

	aspect := 1.0
	if ctx.Available.W > 0 && ctx.Available.H > 0 {
		// Balance in cell units, not raw grid units, so elongated cells do
		// not skew the fit.
		colUnit := float64(cellW + ctx.Gap)
		rowUnit := float64(cellH + ctx.Gap)
		aspect = (float64(ctx.Available.W) / colUnit) / (float64(ctx.Available.H) / rowUnit)
		if aspect <= 0 || math.IsNaN(aspect) || math.IsInf(aspect, 0) {
			aspect = 1.0
		}
	}

	cols := int(math.Round(math.Sqrt(float64(n) * aspect)))
	return clampCols(cols, n)
}

func clampCols(cols, n int) int {
	if cols < 1 {
		return 1
	}
	if cols > n {
		return n
	}
	return cols
}
