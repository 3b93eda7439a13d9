package viewport

import (
	"testing"

	"github.com/papapumpkin/unlockmap/internal/scene"
)

type history []string

func (h history) LastWatched() (string, bool) {
	if len(h) == 0 {
		return "", false
	}
	return h[len(h)-1], true
}

func TestResolve(t *testing.T) {
	t.Parallel()

	c := New("start")
	if got := c.Resolve(nil); got != "start" {
		t.Errorf("no history = %q, want start", got)
	}
	if got := c.Resolve(history{"a", "b"}); got != "b" {
		t.Errorf("history = %q, want b", got)
	}
	c.RequestCenter("x")
	if got := c.Resolve(history{"a", "b"}); got != "x" {
		t.Errorf("pending = %q, want x", got)
	}
}

func TestCenter(t *testing.T) {
	t.Parallel()

	h := scene.NewHeadless(400, 300)
	h.Append([]scene.Element{
		{ID: "far", Rect: scene.Rect{X: 1000, Y: 800, W: 120, H: 180}},
		{ID: "corner", Rect: scene.Rect{X: 0, Y: 0, W: 120, H: 180}},
	})

	c := New("corner")
	c.RequestCenter("far")
	target, ok := c.Center(h, h, nil)
	if !ok || target != "far" {
		t.Fatalf("Center = %q, %v", target, ok)
	}
	x, y, smooth := h.Scroll()
	if x != 1060-200 || y != 890-150 || !smooth {
		t.Errorf("scroll = (%v, %v, %v), want (860, 740, true)", x, y, smooth)
	}
	if _, pending := c.Pending(); pending {
		t.Error("pending target should be consumed")
	}

	// Falls back to start; the clamp keeps offsets at zero.
	if target, ok := c.Center(h, h, nil); !ok || target != "corner" {
		t.Fatalf("fallback Center = %q, %v", target, ok)
	}
	if x, y, _ := h.Scroll(); x != 0 || y != 0 {
		t.Errorf("scroll = (%v, %v), want clamped (0, 0)", x, y)
	}
}

func TestCenter_MissingTargetSkipped(t *testing.T) {
	t.Parallel()

	h := scene.NewHeadless(400, 300)
	h.ScrollTo(5, 7, false)
	c := New("start")
	c.RequestCenter("gone")
	if _, ok := c.Center(h, h, nil); ok {
		t.Error("missing target should report ok=false")
	}
	if x, y, _ := h.Scroll(); x != 5 || y != 7 {
		t.Errorf("scroll moved to (%v, %v) for a missing target", x, y)
	}
	if _, pending := c.Pending(); pending {
		t.Error("a skipped target is still consumed")
	}
}
