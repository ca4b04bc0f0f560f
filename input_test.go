package scrollstage

import "testing"

func TestHitShapes(t *testing.T) {
	r := HitRect{X: 10, Y: 10, Width: 20, Height: 20}
	if !r.Contains(10, 10) || !r.Contains(30, 30) || r.Contains(31, 20) {
		t.Error("HitRect.Contains wrong")
	}
	c := HitCircle{CenterX: 50, CenterY: 50, Radius: 10}
	if !c.Contains(60, 50) || c.Contains(58, 58) {
		t.Error("HitCircle.Contains wrong")
	}
}

func TestPointerTrackerStartsOnlyInsideCircle(t *testing.T) {
	s := newTestSurface(t, 300)
	tr := NewPointerTracker(s)
	tr.Origin = Vec2{100, 100}

	// Screen (105, 105) is local (5, 5), a corner outside the circle.
	if tr.Down(0, 105, 105) {
		t.Error("stroke started in a corner")
	}
	if s.Phase() != PhaseUnrevealed {
		t.Errorf("phase = %v", s.Phase())
	}
	tr.Move(0, 250, 250)
	if s.Phase() != PhaseUnrevealed {
		t.Error("move without a stroke cut the mask")
	}

	if !tr.Down(0, 250, 250) {
		t.Fatal("stroke did not start at the center")
	}
	if s.Phase() != PhaseArming {
		t.Errorf("phase = %v, want arming", s.Phase())
	}
}

func TestPointerTrackerStrokeContinuesOutside(t *testing.T) {
	s := newTestSurface(t, 300)
	tr := NewPointerTracker(s)

	tr.Down(0, 150, 150)
	tr.Move(0, 400, 150) // leaves the surface
	tr.Move(0, 400, 250)
	if !tr.Active(0) {
		t.Fatal("stroke ended when the pointer left the surface")
	}
	if a := s.Image().RGBAAt(250, 150).A; a != 0 {
		t.Errorf("alpha along the stroke = %d, want 0", a)
	}
	tr.Up(0)
	if tr.Active(0) {
		t.Error("stroke still active after Up")
	}
	before := s.SampledFraction()
	tr.Move(0, 150, 250)
	if s.SampledFraction() != before {
		t.Error("move after release cut the mask")
	}
}

func TestPointerTrackerCustomHitAndMultiTouch(t *testing.T) {
	s := newTestSurface(t, 300)
	tr := NewPointerTracker(s)
	tr.Hit = HitRect{Width: 300, Height: 300}

	if !tr.Down(0, 2, 2) || !tr.Down(3, 290, 290) {
		t.Fatal("rect hit shape rejected corner presses")
	}
	tr.Up(0)
	if tr.Active(0) || !tr.Active(3) {
		t.Error("pointers not tracked independently")
	}
	if tr.Down(maxPointers, 150, 150) || tr.Down(-1, 150, 150) {
		t.Error("out of range pointer accepted")
	}
}

func TestControllerPointerStateMachine(t *testing.T) {
	c := NewController(Options{Viewport: Viewport{Width: 300, Height: 300}})
	h, _ := c.AddReveal(RevealConfig{Seed: 9}, CenteredSquare(300))
	tr := c.RevealTracker(h)

	c.Pointer(0, 150, 150, true)
	if !tr.Active(0) {
		t.Fatal("press not routed")
	}
	c.Pointer(0, 200, 150, true)
	if c.Reveal(h).Phase() != PhaseSampling {
		t.Errorf("phase after drag = %v", c.Reveal(h).Phase())
	}
	c.Pointer(0, 200, 150, false)
	if tr.Active(0) {
		t.Error("release not routed")
	}
	if err := c.Pointer(maxPointers, 0, 0, true); err == nil {
		t.Error("expected error for out of range pointer")
	}
}
