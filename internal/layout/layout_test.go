package layout

import "testing"

func TestComputeBounds(t *testing.T) {
	t.Parallel()

	if _, ok := ComputeBounds(nil); ok {
		t.Error("empty input should report ok=false")
	}
	b, ok := ComputeBounds([]Point{{0, 1}, {-3, 4}, {2, 0}, {-1, 7}})
	if !ok {
		t.Fatal("ok = false")
	}
	want := Bounds{MinX: -3, MaxX: 2, MinY: 0, MaxY: 7}
	if b != want {
		t.Errorf("Bounds = %+v, want %+v", b, want)
	}
}

func TestExtent_Symmetric(t *testing.T) {
	t.Parallel()

	for _, s := range []Spacing{DefaultSpacing(), CompactSpacing()} {
		b, _ := ComputeBounds([]Point{{-3, 0}, {-1, 0}, {0, 0}, {2, 0}})
		tr := Transform{Bounds: b, Spacing: s}

		w, h := tr.Extent()
		if want := 5*s.H + s.NodeW; w != want {
			t.Errorf("width = %v, want %v", w, want)
		}
		if h != s.NodeH {
			t.Errorf("height = %v, want %v", h, s.NodeH)
		}
		if x, _ := tr.ToPixel(-3, 0); x != 0 {
			t.Errorf("leftmost x = %v, want 0", x)
		}
		// The rightmost node ends exactly at the container edge.
		if x, _ := tr.ToPixel(2, 0); x+s.NodeW != w {
			t.Errorf("rightmost right edge = %v, want %v", x+s.NodeW, w)
		}
	}
}

func TestToPixel(t *testing.T) {
	t.Parallel()

	tr := Transform{Bounds: Bounds{MinX: -2, MaxX: 3, MinY: 1, MaxY: 6}, Spacing: DefaultSpacing()}
	tests := []struct {
		x, y   int
		px, py float64
	}{
		{-2, 1, 0, 0},
		{0, 1, 320, 0},
		{3, 6, 800, 1100},
	}
	for _, tt := range tests {
		px, py := tr.ToPixel(tt.x, tt.y)
		if px != tt.px || py != tt.py {
			t.Errorf("ToPixel(%d, %d) = (%v, %v), want (%v, %v)", tt.x, tt.y, px, py, tt.px, tt.py)
		}
	}
}

func TestSpacing_Valid(t *testing.T) {
	t.Parallel()

	if !DefaultSpacing().Valid() || !CompactSpacing().Valid() {
		t.Error("built-in profiles should be valid")
	}
	if (Spacing{H: 1, V: 1, NodeW: 0, NodeH: 1}).Valid() {
		t.Error("zero node width should be invalid")
	}
}
