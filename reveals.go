package scrollstage

import (
	"fmt"
	"math"

	"go.uber.org/zap"
)

// RevealHandle identifies a RevealSurface owned by a Controller.
type RevealHandle struct {
	index uint32
	gen   uint32
}

// IsZero reports whether h is the zero handle.
func (h RevealHandle) IsZero() bool {
	return h.gen == 0
}

// Placement returns a surface's screen rectangle for a viewport size. The
// mask is sized to the rectangle, truncated to whole pixels.
type Placement func(vp Viewport) Rect

// CenteredSquare places a size×size surface in the middle of the viewport,
// shrunk to fit when the viewport is smaller.
func CenteredSquare(size float64) Placement {
	return func(vp Viewport) Rect {
		s := math.Min(size, math.Min(vp.Width, vp.Height))
		return Rect{X: (vp.Width - s) / 2, Y: (vp.Height - s) / 2, Width: s, Height: s}
	}
}

type revealSlot struct {
	gen     uint32
	live    bool
	surface *RevealSurface
	tracker *PointerTracker
	place   Placement
	screen  Rect
}

// AddReveal creates a RevealSurface positioned by place and wires its
// completion to the page-wide reveal. The mask is initialized immediately
// and again whenever a resize changes its pixel size.
func (c *Controller) AddReveal(cfg RevealConfig, place Placement) (RevealHandle, error) {
	if c.closed {
		return RevealHandle{}, ErrClosed
	}
	if place == nil {
		return RevealHandle{}, fmt.Errorf("add reveal: nil placement")
	}

	var idx uint32
	if n := len(c.freeReveals); n > 0 {
		idx = c.freeReveals[n-1]
		c.freeReveals = c.freeReveals[:n-1]
	} else {
		idx = uint32(len(c.reveals))
		c.reveals = append(c.reveals, &revealSlot{gen: 1})
	}
	slot := c.reveals[idx]

	s := NewRevealSurface(cfg)
	s.logger = c.logger
	s.OnComplete(func(manual bool) {
		c.coordinator.Trigger(manual)
	})
	slot.surface = s
	slot.tracker = NewPointerTracker(s)
	slot.place = place
	slot.live = true
	c.placeReveal(slot)

	// A surface added after the page was revealed has nothing left to do.
	if c.coordinator.Revealed() {
		s.ForceReveal()
	}
	return RevealHandle{index: idx, gen: slot.gen}, nil
}

// placeReveal repositions a surface for the current viewport and
// reinitializes its mask when the pixel size changed.
func (c *Controller) placeReveal(slot *revealSlot) {
	r := slot.place(c.viewport)
	slot.tracker.Origin = Vec2{r.X, r.Y}
	w, h := int(r.Width), int(r.Height)
	ow, oh := slot.surface.Size()
	slot.screen = r
	// A degraded surface retries acquisition on every placement.
	if slot.surface.Image() == nil || w != ow || h != oh {
		slot.tracker.Cancel()
		slot.surface.InitializeMask(w, h)
		// A surface that recovers from degraded mode after the page was
		// revealed must not put its cover back.
		if c.coordinator.Revealed() && !slot.surface.Degraded() {
			slot.surface.ForceReveal()
			clearRGBA(slot.surface.mask)
			slot.surface.rev++
		}
		c.logger.Debug("reveal mask initialized", zap.Int("width", w), zap.Int("height", h),
			zap.Stringer("phase", slot.surface.Phase()))
	}
}

func (c *Controller) revealSlot(h RevealHandle) *revealSlot {
	if h.gen == 0 || int(h.index) >= len(c.reveals) {
		return nil
	}
	s := c.reveals[h.index]
	if !s.live || s.gen != h.gen {
		return nil
	}
	return s
}

// Reveal returns the surface for h, or nil for a stale handle.
func (c *Controller) Reveal(h RevealHandle) *RevealSurface {
	if s := c.revealSlot(h); s != nil {
		return s.surface
	}
	return nil
}

// RevealTracker returns the pointer tracker for h, or nil for a stale handle.
func (c *Controller) RevealTracker(h RevealHandle) *PointerTracker {
	if s := c.revealSlot(h); s != nil {
		return s.tracker
	}
	return nil
}

// EachReveal calls fn for every live surface with its screen rectangle.
func (c *Controller) EachReveal(fn func(h RevealHandle, s *RevealSurface, screen Rect)) {
	for i, s := range c.reveals {
		if s.live {
			fn(RevealHandle{index: uint32(i), gen: s.gen}, s.surface, s.screen)
		}
	}
}

// DestroyReveal destroys a surface. Its completion can no longer affect the
// page. Stale handles are ignored.
func (c *Controller) DestroyReveal(h RevealHandle) {
	slot := c.revealSlot(h)
	if slot == nil {
		return
	}
	slot.tracker.Cancel()
	slot.surface.Destroy()
	slot.live = false
	slot.surface = nil
	slot.tracker = nil
	slot.place = nil
	slot.gen++
	c.freeReveals = append(c.freeReveals, h.index)
}

// ForceReveal reveals the page without a gesture. It completes every
// surface and, when none could complete (all degraded, or none exist),
// triggers the page reveal directly. Repeated calls are no-ops.
func (c *Controller) ForceReveal() {
	if c.closed || c.coordinator.Revealed() {
		return
	}
	n := 0
	for _, s := range c.reveals {
		if s.live {
			n++
			s.surface.ForceReveal()
		}
	}
	if !c.coordinator.Revealed() {
		if n > 0 {
			c.logger.Warn("no reveal surface completed, revealing page directly", zap.Int("surfaces", n))
		}
		c.coordinator.Trigger(false)
	}
}

// OnReveal subscribes fn to the page reveal, delivered at most once.
func (c *Controller) OnReveal(fn func(RevealEvent)) {
	c.coordinator.OnReveal(fn)
}

// Revealed reports whether the page has been revealed.
func (c *Controller) Revealed() bool {
	return c.coordinator.Revealed()
}

// RevealedManually reports whether a gesture caused the page reveal.
func (c *Controller) RevealedManually() bool {
	return c.coordinator.Manual()
}
