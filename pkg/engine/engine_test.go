package engine

import (
	"context"
	"testing"

	"github.com/ThomasRohde/domain-designer-sub000/pkg/errors"
	"github.com/ThomasRohde/domain-designer-sub000/pkg/geometry"
	"github.com/ThomasRohde/domain-designer-sub000/pkg/layout"
	"github.com/ThomasRohde/domain-designer-sub000/pkg/model"
)

func testConfig() layout.Config {
	return layout.Config{
		Algorithm:       layout.KindGrid,
		Margin:          1,
		LabelMargin:     2,
		EnforceLeafSize: true,
		LeafSize:        geometry.Size{W: 10, H: 5},
	}
}

func mustAdd(t *testing.T, s *model.Snapshot, nodes ...model.Node) {
	t.Helper()
	for _, n := range nodes {
		if err := s.Add(n); err != nil {
			t.Fatalf("Add(%s): %v", n.ID, err)
		}
	}
	s.RefreshVariants()
}

func TestReparentRejectsCycle(t *testing.T) {
	s := model.New()
	mustAdd(t, s,
		model.Node{ID: "root", Rect: geometry.Rect{W: 50, H: 40}},
		model.Node{ID: "a", ParentID: "root", Rect: geometry.Rect{X: 1, Y: 1, W: 20, H: 20}},
		model.Node{ID: "b", ParentID: "a", Rect: geometry.Rect{X: 2, Y: 2, W: 10, H: 5}},
	)
	eng := New(testConfig())

	_, err := eng.Reparent(context.Background(), s, "a", "b")
	if !errors.Is(err, errors.ErrCodeInvalidHierarchy) {
		t.Fatalf("Reparent(a, b) error = %v, want INVALID_HIERARCHY", err)
	}
	if !errors.IsRejection(err) {
		t.Error("cycle rejection should be classified as a rejection")
	}

	// The input snapshot must be untouched.
	a, _ := s.Get("a")
	if a.ParentID != "root" {
		t.Errorf("input snapshot mutated: a.ParentID = %q", a.ParentID)
	}
}

func TestReparentUnknownIDIsHardFailure(t *testing.T) {
	s := model.New()
	mustAdd(t, s, model.Node{ID: "root", Rect: geometry.Rect{W: 50, H: 40}})
	eng := New(testConfig())

	_, err := eng.Reparent(context.Background(), s, "ghost", "root")
	if !errors.Is(err, errors.ErrCodeNodeNotFound) {
		t.Fatalf("Reparent(ghost) error = %v, want NODE_NOT_FOUND", err)
	}
	if errors.IsRejection(err) {
		t.Error("unknown id is a contract violation, not a rejection")
	}

	_, err = eng.Reparent(context.Background(), s, "root", "ghost")
	if !errors.Is(err, errors.ErrCodeNodeNotFound) {
		t.Fatalf("Reparent(root, ghost) error = %v, want NODE_NOT_FOUND", err)
	}
}

func TestReparentMovesSubtree(t *testing.T) {
	cfg := testConfig()
	s := model.New()
	mustAdd(t, s,
		model.Node{ID: "r1", Rect: geometry.Rect{W: 30, H: 20}},
		model.Node{ID: "a", ParentID: "r1", Rect: geometry.Rect{X: 1, Y: 1, W: 10, H: 5}},
		model.Node{ID: "r2", Rect: geometry.Rect{X: 50, Y: 0, W: 30, H: 20}},
	)
	eng := New(cfg)

	next, err := eng.Reparent(context.Background(), s, "a", "r2")
	if err != nil {
		t.Fatalf("Reparent: %v", err)
	}

	a, _ := next.Get("a")
	if a.ParentID != "r2" {
		t.Errorf("a.ParentID = %q, want r2", a.ParentID)
	}
	if err := layout.CheckInvariants(next, cfg); err != nil {
		t.Errorf("invariants after reparent: %v", err)
	}

	orig, _ := s.Get("a")
	if orig.ParentID != "r1" {
		t.Errorf("input snapshot mutated: a.ParentID = %q", orig.ParentID)
	}
}

func TestReparentUnderLabelRejected(t *testing.T) {
	s := model.New()
	mustAdd(t, s,
		model.Node{ID: "root", Rect: geometry.Rect{W: 50, H: 40}},
		model.Node{ID: "a", ParentID: "root", Rect: geometry.Rect{X: 1, Y: 1, W: 10, H: 5}},
		model.Node{ID: "note", ParentID: "root", Variant: model.VariantLabel, Label: "note", Rect: geometry.Rect{X: 1, Y: 10, W: 8, H: 1}},
	)
	eng := New(testConfig())

	_, err := eng.Reparent(context.Background(), s, "a", "note")
	if !errors.Is(err, errors.ErrCodeInvalidHierarchy) {
		t.Fatalf("Reparent under label error = %v, want INVALID_HIERARCHY", err)
	}
}

func TestAddChildGrowsParent(t *testing.T) {
	cfg := testConfig()
	s := model.New()
	mustAdd(t, s,
		model.Node{ID: "box", Rect: geometry.Rect{W: 12, H: 7}},
		model.Node{ID: "first", ParentID: "box", Rect: geometry.Rect{X: 1, Y: 1, W: 10, H: 5}},
	)
	eng := New(cfg)

	next, id, err := eng.AddChild(context.Background(), s, "box", "second")
	if err != nil {
		t.Fatalf("AddChild: %v", err)
	}
	if id == "" {
		t.Fatal("AddChild returned empty id")
	}

	child, ok := next.Get(id)
	if !ok {
		t.Fatalf("new child %s missing from snapshot", id)
	}
	if child.ParentID != "box" {
		t.Errorf("child.ParentID = %q, want box", child.ParentID)
	}
	if child.Rect.W != cfg.LeafSize.W || child.Rect.H != cfg.LeafSize.H {
		t.Errorf("child size = %dx%d, want %dx%d", child.Rect.W, child.Rect.H, cfg.LeafSize.W, cfg.LeafSize.H)
	}

	box, _ := next.Get("box")
	if box.Rect.W <= 12 && box.Rect.H <= 7 {
		t.Errorf("box did not grow for second child: %dx%d", box.Rect.W, box.Rect.H)
	}
	if err := layout.CheckInvariants(next, cfg); err != nil {
		t.Errorf("invariants after add: %v", err)
	}
}

func TestAddChildUnknownParent(t *testing.T) {
	eng := New(testConfig())
	_, _, err := eng.AddChild(context.Background(), model.New(), "ghost", "x")
	if !errors.Is(err, errors.ErrCodeNodeNotFound) {
		t.Fatalf("AddChild(ghost) error = %v, want NODE_NOT_FOUND", err)
	}
}

func TestAddLabelSkipsRelayout(t *testing.T) {
	s := model.New()
	mustAdd(t, s, model.Node{ID: "box", Rect: geometry.Rect{W: 30, H: 20}})
	eng := New(testConfig())

	next, id, err := eng.AddLabel(context.Background(), s, "box", "title", geometry.Point{X: 2, Y: 2})
	if err != nil {
		t.Fatalf("AddLabel: %v", err)
	}
	n, _ := next.Get(id)
	if !n.IsLabel() {
		t.Errorf("added node variant = %q, want label", n.Variant)
	}
	if n.Rect.X != 2 || n.Rect.Y != 2 {
		t.Errorf("label placed at (%d,%d), want (2,2)", n.Rect.X, n.Rect.Y)
	}
}

func removeFixture(t *testing.T) *model.Snapshot {
	s := model.New()
	mustAdd(t, s,
		model.Node{ID: "root", Rect: geometry.Rect{W: 40, H: 30}},
		model.Node{ID: "mid", ParentID: "root", Rect: geometry.Rect{X: 1, Y: 1, W: 24, H: 14}},
		model.Node{ID: "leaf1", ParentID: "mid", Rect: geometry.Rect{X: 2, Y: 2, W: 10, H: 5}},
		model.Node{ID: "leaf2", ParentID: "mid", Rect: geometry.Rect{X: 13, Y: 2, W: 10, H: 5}},
	)
	return s
}

func TestRemoveNodeDeleteSubtree(t *testing.T) {
	cfg := testConfig()
	eng := New(cfg)
	s := removeFixture(t)

	next, err := eng.RemoveNode(context.Background(), s, "mid", CascadeDeleteSubtree)
	if err != nil {
		t.Fatalf("RemoveNode: %v", err)
	}
	for _, id := range []string{"mid", "leaf1", "leaf2"} {
		if next.Has(id) {
			t.Errorf("%s should have been removed", id)
		}
	}
	if !next.Has("root") {
		t.Error("root should survive")
	}
	if s.Len() != 4 {
		t.Errorf("input snapshot mutated: Len = %d", s.Len())
	}
}

func TestRemoveNodePromoteChildren(t *testing.T) {
	cfg := testConfig()
	eng := New(cfg)
	s := removeFixture(t)

	next, err := eng.RemoveNode(context.Background(), s, "mid", CascadePromoteChildren)
	if err != nil {
		t.Fatalf("RemoveNode: %v", err)
	}
	if next.Has("mid") {
		t.Error("mid should have been removed")
	}
	for _, id := range []string{"leaf1", "leaf2"} {
		n, ok := next.Get(id)
		if !ok {
			t.Fatalf("%s should survive promotion", id)
		}
		if n.ParentID != "root" {
			t.Errorf("%s.ParentID = %q, want root", id, n.ParentID)
		}
	}
	if err := layout.CheckInvariants(next, cfg); err != nil {
		t.Errorf("invariants after promote: %v", err)
	}
}

func TestRemoveRootPromotesChildrenToRoots(t *testing.T) {
	eng := New(testConfig())
	s := removeFixture(t)

	next, err := eng.RemoveNode(context.Background(), s, "root", CascadePromoteChildren)
	if err != nil {
		t.Fatalf("RemoveNode: %v", err)
	}
	mid, ok := next.Get("mid")
	if !ok {
		t.Fatal("mid should survive root removal")
	}
	if mid.ParentID != "" {
		t.Errorf("mid.ParentID = %q, want root promotion", mid.ParentID)
	}
	if mid.Variant != model.VariantRoot {
		t.Errorf("mid.Variant = %q, want root", mid.Variant)
	}
}

func TestRemoveNodeUnknownPolicy(t *testing.T) {
	eng := New(testConfig())
	s := removeFixture(t)
	_, err := eng.RemoveNode(context.Background(), s, "mid", CascadePolicy("shrug"))
	if !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Fatalf("error = %v, want INVALID_INPUT", err)
	}
}

func TestResizeClampsToMinimum(t *testing.T) {
	cfg := testConfig()
	s := model.New()
	mustAdd(t, s,
		model.Node{ID: "box", Rect: geometry.Rect{W: 20, H: 10}},
		model.Node{ID: "kid", ParentID: "box", Rect: geometry.Rect{X: 1, Y: 1, W: 10, H: 5}},
	)
	eng := New(cfg)

	// One 10x5 child plus 1 unit of margin all around: minimum 12x7.
	next, err := eng.Resize(context.Background(), s, "box", geometry.Size{W: 5, H: 5})
	if err != nil {
		t.Fatalf("Resize: %v", err)
	}
	box, _ := next.Get("box")
	if box.Rect.W < 12 || box.Rect.H < 7 {
		t.Errorf("box = %dx%d, want clamped to at least 12x7", box.Rect.W, box.Rect.H)
	}
	if err := layout.CheckInvariants(next, cfg); err != nil {
		t.Errorf("invariants after resize: %v", err)
	}
}

func TestResizeKeepsGenerousSize(t *testing.T) {
	cfg := testConfig()
	s := model.New()
	mustAdd(t, s,
		model.Node{ID: "box", Rect: geometry.Rect{W: 20, H: 10}},
		model.Node{ID: "kid", ParentID: "box", Rect: geometry.Rect{X: 1, Y: 1, W: 10, H: 5}},
	)
	eng := New(cfg)

	next, err := eng.Resize(context.Background(), s, "box", geometry.Size{W: 60, H: 40})
	if err != nil {
		t.Fatalf("Resize: %v", err)
	}
	box, _ := next.Get("box")
	if box.Rect.W != 60 || box.Rect.H != 40 {
		t.Errorf("box = %dx%d, want user size 60x40 kept", box.Rect.W, box.Rect.H)
	}
}

func TestResizeLockedTakesRequestedSize(t *testing.T) {
	cfg := testConfig()
	s := model.New()
	mustAdd(t, s,
		model.Node{ID: "box", Locked: true, Rect: geometry.Rect{W: 20, H: 10}},
		model.Node{ID: "kid", ParentID: "box", Rect: geometry.Rect{X: 1, Y: 1, W: 10, H: 5}},
	)
	eng := New(cfg)

	next, err := eng.Resize(context.Background(), s, "box", geometry.Size{W: 6, H: 4})
	if err != nil {
		t.Fatalf("Resize: %v", err)
	}
	box, _ := next.Get("box")
	if box.Rect.W != 6 || box.Rect.H != 4 {
		t.Errorf("locked box = %dx%d, want 6x4 verbatim", box.Rect.W, box.Rect.H)
	}
}

func TestResizeRejectsNonPositive(t *testing.T) {
	s := model.New()
	mustAdd(t, s, model.Node{ID: "box", Rect: geometry.Rect{W: 20, H: 10}})
	eng := New(testConfig())

	_, err := eng.Resize(context.Background(), s, "box", geometry.Size{W: 0, H: 5})
	if !errors.Is(err, errors.ErrCodeInvalidGeometry) {
		t.Fatalf("error = %v, want INVALID_GEOMETRY", err)
	}
}

func TestSetAlgorithm(t *testing.T) {
	cfg := testConfig()
	s := removeFixture(t)
	eng := New(cfg)

	next, out, err := eng.SetAlgorithm(context.Background(), s, layout.KindFlow)
	if err != nil {
		t.Fatalf("SetAlgorithm: %v", err)
	}
	if next.Config().Algorithm != layout.KindFlow {
		t.Errorf("Algorithm = %q, want flow", next.Config().Algorithm)
	}
	if err := layout.CheckInvariants(out, next.Config()); err != nil {
		t.Errorf("invariants under flow: %v", err)
	}
	if eng.Config().Algorithm != layout.KindGrid {
		t.Error("original engine config mutated")
	}
}

func TestSetAlgorithmRejectsUnknown(t *testing.T) {
	eng := New(testConfig())
	_, _, err := eng.SetAlgorithm(context.Background(), model.New(), layout.Kind("spiral"))
	if !errors.Is(err, errors.ErrCodeInvalidAlgorithm) {
		t.Fatalf("error = %v, want INVALID_ALGORITHM", err)
	}
}

func TestParseCascadePolicy(t *testing.T) {
	if _, err := ParseCascadePolicy("delete-subtree"); err != nil {
		t.Errorf("delete-subtree: %v", err)
	}
	if _, err := ParseCascadePolicy("promote-children"); err != nil {
		t.Errorf("promote-children: %v", err)
	}
	if _, err := ParseCascadePolicy("orphan"); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("orphan error = %v, want INVALID_INPUT", err)
	}
}
