package scrollstage

import "fmt"

const maxPointers = 10 // pointer 0 = mouse, 1-9 = touch

// HitShape decides whether a surface-local point starts a stroke.
type HitShape interface {
	Contains(x, y float64) bool
}

// HitRect is an axis-aligned rectangular hit area in local coordinates.
type HitRect struct {
	X, Y, Width, Height float64
}

// Contains reports whether (x, y) lies inside the rectangle.
func (r HitRect) Contains(x, y float64) bool {
	return x >= r.X && x <= r.X+r.Width &&
		y >= r.Y && y <= r.Y+r.Height
}

// HitCircle is a circular hit area in local coordinates.
type HitCircle struct {
	CenterX, CenterY, Radius float64
}

// Contains reports whether (x, y) lies inside or on the circle.
func (c HitCircle) Contains(x, y float64) bool {
	dx := x - c.CenterX
	dy := y - c.CenterY
	return dx*dx+dy*dy <= c.Radius*c.Radius
}

type stroke struct {
	active bool
	last   Vec2
}

// PointerTracker turns screen-space pointer input into strokes on one
// RevealSurface. A stroke starts only on a press inside the hit shape; once
// started it follows the pointer anywhere and ends on release, wherever that
// happens. Each pointer draws its own stroke.
type PointerTracker struct {
	surface *RevealSurface
	// Origin is the screen position of the surface's top-left corner.
	Origin Vec2
	// Hit restricts where strokes may start. Nil uses the circle inscribed
	// in the surface.
	Hit HitShape

	strokes [maxPointers]stroke
}

// NewPointerTracker returns a tracker feeding s.
func NewPointerTracker(s *RevealSurface) *PointerTracker {
	return &PointerTracker{surface: s}
}

func (t *PointerTracker) local(x, y float64) Vec2 {
	return Vec2{x - t.Origin.X, y - t.Origin.Y}
}

func (t *PointerTracker) hit(p Vec2) bool {
	if t.Hit != nil {
		return t.Hit.Contains(p.X, p.Y)
	}
	w, h := t.surface.Size()
	r := float64(min(w, h)) / 2
	return HitCircle{CenterX: float64(w) / 2, CenterY: float64(h) / 2, Radius: r}.Contains(p.X, p.Y)
}

// Down presses pointer id at screen position (x, y). It returns true when a
// stroke started.
func (t *PointerTracker) Down(id int, x, y float64) bool {
	if id < 0 || id >= maxPointers || t.surface.Revealed() || t.surface.Degraded() {
		return false
	}
	p := t.local(x, y)
	if !t.hit(p) {
		return false
	}
	t.strokes[id] = stroke{active: true, last: p}
	t.surface.Arm()
	return true
}

// Move extends pointer id's stroke to (x, y), cutting the segment from the
// previous position.
func (t *PointerTracker) Move(id int, x, y float64) {
	if id < 0 || id >= maxPointers {
		return
	}
	st := &t.strokes[id]
	if !st.active {
		return
	}
	p := t.local(x, y)
	if p == st.last {
		return
	}
	seg := Segment{From: st.last, To: p}
	st.last = p
	t.surface.Erase(seg, t.surface.BrushRadius())
	if t.surface.Revealed() {
		t.Cancel()
	}
}

// Up ends pointer id's stroke.
func (t *PointerTracker) Up(id int) {
	if id < 0 || id >= maxPointers {
		return
	}
	t.strokes[id] = stroke{}
}

// Cancel ends every stroke.
func (t *PointerTracker) Cancel() {
	t.strokes = [maxPointers]stroke{}
}

// Active reports whether pointer id is drawing.
func (t *PointerTracker) Active(id int) bool {
	return id >= 0 && id < maxPointers && t.strokes[id].active
}

// --- Controller pointer routing ---

type pointerState struct {
	down         bool
	lastX, lastY float64
}

// PointerDown routes a press to every reveal surface.
func (c *Controller) PointerDown(id int, x, y float64) {
	if c.closed {
		return
	}
	for _, s := range c.reveals {
		if s.live {
			s.tracker.Down(id, x, y)
		}
	}
}

// PointerMove routes a move to every reveal surface.
func (c *Controller) PointerMove(id int, x, y float64) {
	if c.closed {
		return
	}
	for _, s := range c.reveals {
		if s.live {
			s.tracker.Move(id, x, y)
		}
	}
}

// PointerUp routes a release to every reveal surface.
func (c *Controller) PointerUp(id int) {
	if c.closed {
		return
	}
	for _, s := range c.reveals {
		if s.live {
			s.tracker.Up(id)
		}
	}
}

// Pointer feeds polled pointer state for one pointer and derives press,
// move and release transitions from it. Hosts that poll input every frame
// call this instead of the individual pointer methods.
func (c *Controller) Pointer(id int, x, y float64, pressed bool) error {
	if id < 0 || id >= maxPointers {
		return fmt.Errorf("pointer %d out of range [0,%d)", id, maxPointers)
	}
	ps := &c.pointers[id]
	switch {
	case pressed && !ps.down:
		ps.down = true
		c.PointerDown(id, x, y)
	case pressed && ps.down:
		if x != ps.lastX || y != ps.lastY {
			c.PointerMove(id, x, y)
		}
	case !pressed && ps.down:
		if x != ps.lastX || y != ps.lastY {
			c.PointerMove(id, x, y)
		}
		ps.down = false
		c.PointerUp(id)
	}
	ps.lastX, ps.lastY = x, y
	return nil
}
