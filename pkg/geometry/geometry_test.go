package geometry

import "testing"

func TestIntersects(t *testing.T) {
	tests := []struct {
		name string
		a, b Rect
		want bool
	}{
		{"overlapping", Rect{0, 0, 10, 10}, Rect{5, 5, 10, 10}, true},
		{"disjoint", Rect{0, 0, 10, 10}, Rect{20, 20, 5, 5}, false},
		{"touching edges", Rect{0, 0, 10, 10}, Rect{10, 0, 10, 10}, false},
		{"touching corners", Rect{0, 0, 10, 10}, Rect{10, 10, 5, 5}, false},
		{"contained", Rect{0, 0, 20, 20}, Rect{5, 5, 5, 5}, true},
		{"identical", Rect{3, 3, 4, 4}, Rect{3, 3, 4, 4}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Intersects(tt.b); got != tt.want {
				t.Errorf("Intersects() = %v, want %v", got, tt.want)
			}
			// Intersection is symmetric.
			if got := tt.b.Intersects(tt.a); got != tt.want {
				t.Errorf("Intersects() reversed = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestContains(t *testing.T) {
	tests := []struct {
		name string
		a, b Rect
		want bool
	}{
		{"strictly inside", Rect{0, 0, 20, 20}, Rect{5, 5, 5, 5}, true},
		{"flush edges", Rect{0, 0, 20, 20}, Rect{0, 0, 20, 20}, true},
		{"sticking out right", Rect{0, 0, 20, 20}, Rect{15, 5, 10, 5}, false},
		{"fully outside", Rect{0, 0, 20, 20}, Rect{30, 30, 5, 5}, false},
		{"larger than container", Rect{5, 5, 5, 5}, Rect{0, 0, 20, 20}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Contains(tt.b); got != tt.want {
				t.Errorf("Contains() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestContainsPoint(t *testing.T) {
	r := Rect{10, 10, 20, 10}

	tests := []struct {
		name string
		p    Point
		want bool
	}{
		{"center", Point{20, 15}, true},
		{"top-left inclusive", Point{10, 10}, true},
		{"right edge exclusive", Point{30, 15}, false},
		{"bottom edge exclusive", Point{20, 20}, false},
		{"outside", Point{0, 0}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.ContainsPoint(tt.p); got != tt.want {
				t.Errorf("ContainsPoint(%v) = %v, want %v", tt.p, got, tt.want)
			}
		})
	}
}

func TestInset(t *testing.T) {
	r := Rect{0, 0, 40, 40}

	got := r.Inset(2, 3)
	want := Rect{2, 5, 36, 33}
	if got != want {
		t.Errorf("Inset(2, 3) = %+v, want %+v", got, want)
	}

	// Over-inset clamps to zero size instead of inverting.
	tiny := Rect{0, 0, 3, 3}.Inset(2, 0)
	if tiny.W != 0 || tiny.H != 0 {
		t.Errorf("over-inset = %+v, want zero size", tiny)
	}
}

func TestUnion(t *testing.T) {
	if _, ok := Union(nil); ok {
		t.Fatal("Union(nil) should report empty")
	}

	rects := []Rect{
		{10, 10, 5, 5},
		{0, 12, 4, 4},
		{8, 0, 6, 6},
	}
	got, ok := Union(rects)
	if !ok {
		t.Fatal("Union() reported empty for non-empty input")
	}
	want := Rect{0, 0, 15, 16}
	if got != want {
		t.Errorf("Union() = %+v, want %+v", got, want)
	}
}

func TestTranslate(t *testing.T) {
	r := Rect{1, 2, 3, 4}
	got := r.Translate(Delta{DX: 10, DY: -2})
	want := Rect{11, 0, 3, 4}
	if got != want {
		t.Errorf("Translate() = %+v, want %+v", got, want)
	}
}
