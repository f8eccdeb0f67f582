package layout

import (
	"testing"

	"github.com/ThomasRohde/domain-designer-sub000/pkg/geometry"
	"github.com/ThomasRohde/domain-designer-sub000/pkg/model"
)

func mustAdd(t *testing.T, s *model.Snapshot, n model.Node) {
	t.Helper()
	if err := s.Add(n); err != nil {
		t.Fatalf("Add(%s): %v", n.ID, err)
	}
}

// nestedTree builds root -> mid -> inner -> leaf, three container levels
// above a single leaf.
func nestedTree(t *testing.T) *model.Snapshot {
	t.Helper()
	s := model.New()
	mustAdd(t, s, model.Node{ID: "root", Rect: geometry.Rect{W: 50, H: 50}})
	mustAdd(t, s, model.Node{ID: "mid", ParentID: "root", Rect: geometry.Rect{W: 30, H: 30}})
	mustAdd(t, s, model.Node{ID: "inner", ParentID: "mid", Rect: geometry.Rect{W: 20, H: 20}})
	mustAdd(t, s, model.Node{ID: "leaf", ParentID: "inner", Rect: geometry.Rect{W: 10, H: 10}})
	return s
}

func cfgFixed(w, h int) Config {
	return Config{
		Algorithm:       KindGrid,
		Margin:          1,
		LabelMargin:     2,
		EnforceLeafSize: true,
		LeafSize:        geometry.Size{W: w, H: h},
	}
}

func TestMinimumSizeLeaf(t *testing.T) {
	s := nestedTree(t)

	got, err := MinimumSize(s, "leaf", cfgFixed(10, 10))
	if err != nil {
		t.Fatal(err)
	}
	if got != (geometry.Size{W: 10, H: 10}) {
		t.Errorf("fixed leaf min = %+v, want 10x10", got)
	}

	cfg := cfgFixed(10, 10)
	cfg.EnforceLeafSize = false
	got, err = MinimumSize(s, "leaf", cfg)
	if err != nil {
		t.Fatal(err)
	}
	if got != (geometry.Size{W: 10, H: 10}) {
		t.Errorf("stored leaf min = %+v, want stored 10x10", got)
	}
}

// TestMinimumSizePropagation is the reference scenario: a fixed-size leaf
// three container levels deep. Widening the enforced leaf size must widen
// the minimum of every ancestor.
func TestMinimumSizePropagation(t *testing.T) {
	s := nestedTree(t)

	before := map[string]geometry.Size{}
	for _, id := range []string{"inner", "mid", "root"} {
		sz, err := MinimumSize(s, id, cfgFixed(10, 10))
		if err != nil {
			t.Fatal(err)
		}
		before[id] = sz
	}

	for _, id := range []string{"inner", "mid", "root"} {
		after, err := MinimumSize(s, id, cfgFixed(20, 10))
		if err != nil {
			t.Fatal(err)
		}
		if after.W <= before[id].W {
			t.Errorf("%s: min width %d not grown from %d", id, after.W, before[id].W)
		}
	}
}

func TestMinimumSizePropagationStopsAtLocked(t *testing.T) {
	s := nestedTree(t)
	mid, _ := s.Get("mid")
	mid.Locked = true

	min10, err := MinimumSize(s, "mid", cfgFixed(10, 10))
	if err != nil {
		t.Fatal(err)
	}
	min20, err := MinimumSize(s, "mid", cfgFixed(20, 10))
	if err != nil {
		t.Fatal(err)
	}
	if min10 != min20 {
		t.Errorf("locked container min changed: %+v -> %+v", min10, min20)
	}
	if min20 != (geometry.Size{W: 30, H: 30}) {
		t.Errorf("locked min = %+v, want stored 30x30", min20)
	}
}

func TestRelayoutIdempotent(t *testing.T) {
	s := model.New()
	mustAdd(t, s, model.Node{ID: "root", Label: "Root", Rect: geometry.Rect{W: 40, H: 40}})
	for _, id := range []string{"a", "b", "c", "d", "e"} {
		mustAdd(t, s, model.Node{ID: id, ParentID: "root", Rect: geometry.Rect{W: 7, H: 3}})
	}
	mustAdd(t, s, model.Node{ID: "a1", ParentID: "a", Rect: geometry.Rect{W: 4, H: 4}})

	for _, kind := range Kinds {
		cfg := cfgFixed(10, 5)
		cfg.Algorithm = kind

		once, err := Relayout(s, cfg)
		if err != nil {
			t.Fatalf("%s: Relayout: %v", kind, err)
		}
		twice, err := Relayout(once, cfg)
		if err != nil {
			t.Fatalf("%s: second Relayout: %v", kind, err)
		}
		for _, n := range once.Nodes() {
			m, _ := twice.Get(n.ID)
			if n.Rect != m.Rect {
				t.Errorf("%s: node %s drifted: %+v -> %+v", kind, n.ID, n.Rect, m.Rect)
			}
		}
	}
}

func TestRelayoutInvariants(t *testing.T) {
	s := model.New()
	mustAdd(t, s, model.Node{ID: "root", Label: "System", Rect: geometry.Rect{W: 10, H: 10}})
	mustAdd(t, s, model.Node{ID: "g1", ParentID: "root", Label: "Group 1", Rect: geometry.Rect{W: 5, H: 5}})
	mustAdd(t, s, model.Node{ID: "g2", ParentID: "root", Label: "Group 2", Rect: geometry.Rect{W: 5, H: 5}})
	for i, parent := range []string{"g1", "g1", "g1", "g2", "g2"} {
		mustAdd(t, s, model.Node{ID: string(rune('p' + i)), ParentID: parent, Rect: geometry.Rect{W: 3, H: 3}})
	}

	for _, kind := range Kinds {
		cfg := cfgFixed(10, 5)
		cfg.Algorithm = kind

		out, err := Relayout(s, cfg)
		if err != nil {
			t.Fatalf("%s: Relayout: %v", kind, err)
		}
		if err := CheckInvariants(out, cfg); err != nil {
			t.Errorf("%s: %v", kind, err)
		}
		if err := out.Validate(); err != nil {
			t.Errorf("%s: structural: %v", kind, err)
		}
	}
}

func TestRelayoutGrowsContainers(t *testing.T) {
	s := nestedTree(t)
	// Shrink every container below what the leaf needs.
	for _, id := range []string{"root", "mid", "inner"} {
		n, _ := s.Get(id)
		n.Rect.W, n.Rect.H = 5, 5
	}

	cfg := cfgFixed(10, 10)
	out, err := Relayout(s, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if err := CheckInvariants(out, cfg); err != nil {
		t.Error(err)
	}

	inner, _ := out.Get("inner")
	if inner.Rect.W < 12 { // leaf 10 + 2*margin
		t.Errorf("inner width = %d, want >= 12", inner.Rect.W)
	}
}

func TestRelayoutKeepsUserSize(t *testing.T) {
	s := nestedTree(t)
	root, _ := s.Get("root")
	root.Rect.W, root.Rect.H = 200, 150

	out, err := Relayout(s, cfgFixed(10, 10))
	if err != nil {
		t.Fatal(err)
	}
	got, _ := out.Get("root")
	if got.Rect.W != 200 || got.Rect.H != 150 {
		t.Errorf("root resized to %+v, want 200x150 kept", got.Rect)
	}
}

func TestRelayoutSkipsManualSubtree(t *testing.T) {
	s := model.New()
	mustAdd(t, s, model.Node{ID: "canvas", Rect: geometry.Rect{W: 60, H: 60}, ManualLayout: true})
	mustAdd(t, s, model.Node{ID: "free1", ParentID: "canvas", Rect: geometry.Rect{X: 7, Y: 13, W: 10, H: 5}})
	mustAdd(t, s, model.Node{ID: "free2", ParentID: "canvas", Rect: geometry.Rect{X: 30, Y: 40, W: 10, H: 5}})

	out, err := Relayout(s, cfgFixed(10, 5))
	if err != nil {
		t.Fatal(err)
	}
	f1, _ := out.Get("free1")
	f2, _ := out.Get("free2")
	if f1.Rect != (geometry.Rect{X: 7, Y: 13, W: 10, H: 5}) || f2.Rect != (geometry.Rect{X: 30, Y: 40, W: 10, H: 5}) {
		t.Errorf("manual children moved: %+v, %+v", f1.Rect, f2.Rect)
	}
}

func TestRelayoutLockedKeepsOwnSize(t *testing.T) {
	s := nestedTree(t)
	mid, _ := s.Get("mid")
	mid.Locked = true
	mid.Rect.W, mid.Rect.H = 8, 8 // too small for its subtree

	out, err := Relayout(s, cfgFixed(10, 10))
	if err != nil {
		t.Fatal(err)
	}
	got, _ := out.Get("mid")
	if got.Rect.W != 8 || got.Rect.H != 8 {
		t.Errorf("locked container resized to %+v, want 8x8 kept", got.Rect)
	}
}

func TestRelayoutReservesLabelMargin(t *testing.T) {
	s := model.New()
	mustAdd(t, s, model.Node{ID: "root", Label: "Titled", Rect: geometry.Rect{W: 5, H: 5}})
	mustAdd(t, s, model.Node{ID: "kid", ParentID: "root", Rect: geometry.Rect{W: 10, H: 5}})

	cfg := cfgFixed(10, 5)
	out, err := Relayout(s, cfg)
	if err != nil {
		t.Fatal(err)
	}
	kid, _ := out.Get("kid")
	if kid.Rect.Y != cfg.Margin+cfg.LabelMargin {
		t.Errorf("child Y = %d, want %d (margin + label margin)", kid.Rect.Y, cfg.Margin+cfg.LabelMargin)
	}

	root, _ := out.Get("root")
	if root.Rect.H != 5+2*cfg.Margin+cfg.LabelMargin {
		t.Errorf("root H = %d, want child + margins + label clearance", root.Rect.H)
	}
}

func TestRelayoutSubtreeShortCircuits(t *testing.T) {
	s := model.New()
	mustAdd(t, s, model.Node{ID: "root", Rect: geometry.Rect{W: 500, H: 500}})
	mustAdd(t, s, model.Node{ID: "box", ParentID: "root", Rect: geometry.Rect{W: 20, H: 20}})
	mustAdd(t, s, model.Node{ID: "kid", ParentID: "box", Rect: geometry.Rect{W: 10, H: 5}})

	cfg := cfgFixed(22, 9)
	out, err := RelayoutSubtree(s, "box", cfg)
	if err != nil {
		t.Fatal(err)
	}

	box, _ := out.Get("box")
	if box.Rect.W < 24 { // leaf 22 + 2*margin
		t.Errorf("box width = %d, should have grown for the 22-wide leaf", box.Rect.W)
	}
	// Root was already huge: the cascade short-circuits without touching it.
	root, _ := out.Get("root")
	if root.Rect.W != 500 || root.Rect.H != 500 {
		t.Errorf("root resized to %+v despite being large enough", root.Rect)
	}
	if err := CheckInvariants(out, cfg); err != nil {
		t.Error(err)
	}
}

func TestRelayoutSubtreeStopsAtLockedAncestor(t *testing.T) {
	s := nestedTree(t)
	mid, _ := s.Get("mid")
	mid.Locked = true
	rootBefore, _ := s.Get("root")
	rootRect := rootBefore.Rect

	out, err := RelayoutSubtree(s, "inner", cfgFixed(40, 40))
	if err != nil {
		t.Fatal(err)
	}
	mid2, _ := out.Get("mid")
	if mid2.Rect.Size() != (geometry.Size{W: 30, H: 30}) {
		t.Errorf("locked ancestor resized to %+v", mid2.Rect)
	}
	root2, _ := out.Get("root")
	if root2.Rect != rootRect {
		t.Errorf("cascade passed a locked ancestor: root %+v -> %+v", rootRect, root2.Rect)
	}
}

func TestRelayoutDoesNotMutateInput(t *testing.T) {
	s := nestedTree(t)
	leafBefore, _ := s.Get("leaf")
	rect := leafBefore.Rect

	if _, err := Relayout(s, cfgFixed(25, 25)); err != nil {
		t.Fatal(err)
	}
	leafAfter, _ := s.Get("leaf")
	if leafAfter.Rect != rect {
		t.Errorf("input snapshot mutated: %+v -> %+v", rect, leafAfter.Rect)
	}
}
