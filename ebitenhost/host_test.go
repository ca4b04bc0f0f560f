package ebitenhost

import (
	"math"
	"testing"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/phanxgames/scrollstage"
)

func newMountedHost(t *testing.T) (*Host, *scrollstage.Controller) {
	t.Helper()
	l := scrollstage.DefaultLayout()
	ctrl := l.NewController(nil)
	h := New(ctrl, RunConfig{Layout: l})
	if _, err := l.Apply(ctrl, scrollstage.Hooks{Apply: h.Apply}); err != nil {
		t.Fatal(err)
	}
	return h, ctrl
}

func TestHostApplyChannels(t *testing.T) {
	h := New(scrollstage.NewController(scrollstage.Options{}), RunConfig{})
	h.Apply("r", scrollstage.Channel{Target: "card", Property: scrollstage.PropOpacity}, 0.25)
	h.Apply("r", scrollstage.Channel{Target: "card", Property: scrollstage.PropOffsetY}, 40)
	h.Apply("r", scrollstage.Channel{Target: "card", Property: scrollstage.PropRotateX}, 20)

	got := h.Target("card")
	if got.Opacity != 0.25 || got.Y != 40 || got.RotateX != 20 {
		t.Errorf("target = %+v", got)
	}
	if got.Scale != 1 || got.ScaleY != 1 {
		t.Error("untouched properties should stay at rest")
	}
	if rest := h.Target("other"); rest.Opacity != 1 || rest.Scale != 1 {
		t.Errorf("new target not at rest: %+v", rest)
	}
}

func TestTargetRect(t *testing.T) {
	rest := scrollstage.Rect{X: 0, Y: 0, Width: 100, Height: 50}
	tests := []struct {
		name  string
		state TargetState
		want  scrollstage.Rect
	}{
		{"rest", TargetState{Scale: 1, ScaleY: 1}, rest},
		{"scaled", TargetState{Scale: 2, ScaleY: 1}, scrollstage.Rect{X: -50, Y: -25, Width: 200, Height: 100}},
		{"offset", TargetState{Scale: 1, ScaleY: 1, X: 10, Y: -5}, scrollstage.Rect{X: 10, Y: -5, Width: 100, Height: 50}},
		{"squashed", TargetState{Scale: 1, ScaleY: 0.5}, scrollstage.Rect{X: 0, Y: 12.5, Width: 100, Height: 25}},
		{"receded", TargetState{Scale: 1, ScaleY: 1, Z: -1000}, scrollstage.Rect{X: 25, Y: 12.5, Width: 50, Height: 25}},
	}
	for _, tt := range tests {
		got := TargetRect(rest, &tt.state)
		if got != tt.want {
			t.Errorf("%s: TargetRect = %+v, want %+v", tt.name, got, tt.want)
		}
	}

	tilted := TargetRect(rest, &TargetState{Scale: 1, ScaleY: 1, RotateX: 60})
	if math.Abs(tilted.Height-25) > 1e-9 || tilted.Width != 100 {
		t.Errorf("tilted = %+v, want height 25", tilted)
	}
}

func TestHostScrollClamp(t *testing.T) {
	h, ctrl := newMountedHost(t)

	// 600vh of sections at 800px plus the 4000px pin, less one viewport.
	if got := h.MaxScroll(); got != 8000 {
		t.Fatalf("MaxScroll = %v, want 8000", got)
	}
	h.SetScroll(1e6)
	if h.ScrollY() != 8000 || ctrl.ScrollY() != 8000 {
		t.Errorf("scroll = %v / %v, want 8000", h.ScrollY(), ctrl.ScrollY())
	}
	h.SetScroll(-20)
	if h.ScrollY() != 0 || ctrl.ScrollY() != 0 {
		t.Errorf("scroll = %v / %v, want 0", h.ScrollY(), ctrl.ScrollY())
	}
}

func TestHostWheelCancelsEngineScroll(t *testing.T) {
	h, ctrl := newMountedHost(t)

	ctrl.ScrollTo(500, 1, nil)
	if !ctrl.ScrollAnimating() {
		t.Fatal("scroll animation not started")
	}
	h.Wheel(-2)
	if ctrl.ScrollAnimating() {
		t.Error("wheel did not cancel the engine scroll")
	}
	if h.ScrollY() != 120 {
		t.Errorf("ScrollY = %v, want 120", h.ScrollY())
	}
	h.Wheel(0)
	if h.ScrollY() != 120 {
		t.Error("zero wheel moved the page")
	}
}

func TestHostFollowsScrollRequests(t *testing.T) {
	h, ctrl := newMountedHost(t)
	var progress float64
	ctrl.OnProgress(mustRegion(t, ctrl), func(p float64) { progress = p })

	ctrl.ScrollTo(250, 0, nil)
	if h.ScrollY() != 250 || ctrl.ScrollY() != 250 {
		t.Errorf("scroll = %v / %v, want 250", h.ScrollY(), ctrl.ScrollY())
	}
	if progress != 0.5 {
		t.Errorf("progress = %v, want 0.5", progress)
	}
	if got := h.Target("hero-title").Y; got == 0 {
		t.Error("hero parallax channel not applied")
	}
}

func mustRegion(t *testing.T, ctrl *scrollstage.Controller) scrollstage.RegionHandle {
	t.Helper()
	rh, err := ctrl.Register(scrollstage.RegionConfig{
		ID:    "probe",
		Start: scrollstage.MustMarker("0"),
		End:   scrollstage.MustMarker("500"),
	})
	if err != nil {
		t.Fatal(err)
	}
	return rh
}

func TestHostLayoutResizes(t *testing.T) {
	h, ctrl := newMountedHost(t)
	w, hgt := h.Layout(640, 480)
	if w != 640 || hgt != 480 {
		t.Errorf("Layout = %dx%d", w, hgt)
	}
	if vp := ctrl.Viewport(); vp.Width != 640 || vp.Height != 480 {
		t.Errorf("viewport = %+v", vp)
	}
}

func TestTouchSlots(t *testing.T) {
	h := New(scrollstage.NewController(scrollstage.Options{}), RunConfig{})
	if s := h.touchSlot(5); s != 1 {
		t.Errorf("first touch slot = %d, want 1", s)
	}
	if s := h.touchSlot(7); s != 2 {
		t.Errorf("second touch slot = %d, want 2", s)
	}
	if s := h.touchSlot(5); s != 1 {
		t.Errorf("existing touch slot = %d, want 1", s)
	}
	for id := 100; id < 107; id++ {
		h.touchSlot(ebiten.TouchID(id))
	}
	if s := h.touchSlot(999); s != -1 {
		t.Errorf("overflow slot = %d, want -1", s)
	}

	var active [maxTouch]bool
	active[2] = true
	h.releaseTouches(active)
	if h.touchUsed[1] || !h.touchUsed[2] {
		t.Error("release did not free inactive slots only")
	}
}

func TestPackRows(t *testing.T) {
	// 2x2 pixels with 4 bytes of row padding.
	pix := []byte{
		1, 1, 1, 1, 2, 2, 2, 2, 0, 0, 0, 0,
		3, 3, 3, 3, 4, 4, 4, 4, 0, 0, 0, 0,
	}
	got := packRows(pix, 12, 2, 2)
	want := []byte{1, 1, 1, 1, 2, 2, 2, 2, 3, 3, 3, 3, 4, 4, 4, 4}
	if string(got) != string(want) {
		t.Errorf("packRows = %v", got)
	}
}

func TestGridTargets(t *testing.T) {
	got := GridTargets([]string{"a", "b", "c"}, 2, scrollstage.Rect{Width: 200, Height: 200})
	if len(got) != 3 {
		t.Fatalf("targets = %v", got)
	}
	want := map[string]scrollstage.Rect{
		"a": {X: 5, Y: 5, Width: 90, Height: 90},
		"b": {X: 105, Y: 5, Width: 90, Height: 90},
		"c": {X: 5, Y: 105, Width: 90, Height: 90},
	}
	for name, r := range want {
		g := got[name]
		if math.Abs(g.X-r.X) > 1e-9 || math.Abs(g.Y-r.Y) > 1e-9 || math.Abs(g.Width-r.Width) > 1e-9 || math.Abs(g.Height-r.Height) > 1e-9 {
			t.Errorf("%s = %+v, want %+v", name, g, r)
		}
	}
	if len(GridTargets(nil, 3, scrollstage.Rect{})) != 0 {
		t.Error("empty names produced targets")
	}
}

func TestMaskTextureStale(t *testing.T) {
	tex := &maskTexture{w: 10, h: 10}
	if !tex.stale(0) {
		t.Error("a texture never uploaded should be stale")
	}
	tex.rev, tex.uploaded = 3, true
	if tex.stale(3) {
		t.Error("texture at the surface revision should not be stale")
	}
	if !tex.stale(4) {
		t.Error("texture behind the surface revision should be stale")
	}
}
