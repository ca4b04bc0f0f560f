package scrollstage

import (
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
	"go.uber.org/zap"
)

// scrollAnim holds an active scroll-to tween.
type scrollAnim struct {
	tween *gween.Tween
	last  float64
}

// ScrollTo animates a scroll request from the current offset to y over
// duration seconds. Each step is delivered to OnScrollRequest subscribers;
// the host scrolls and reports back through Scroll. A new call replaces any
// running animation.
func (c *Controller) ScrollTo(y float64, duration float32, easeFn ease.TweenFunc) {
	if c.closed {
		return
	}
	if easeFn == nil {
		easeFn = ease.Linear
	}
	if duration <= 0 {
		c.scrollTween = nil
		c.requestScroll(y)
		return
	}
	c.scrollTween = &scrollAnim{
		tween: gween.New(float32(c.scrollY), float32(y), duration, easeFn),
		last:  c.scrollY,
	}
}

// ScrollAnimating reports whether a scroll animation is running.
func (c *Controller) ScrollAnimating() bool {
	return c.scrollTween != nil
}

// CancelScroll stops the running scroll animation, if any.
func (c *Controller) CancelScroll() {
	c.scrollTween = nil
}

// OnScrollRequest subscribes fn to engine-initiated scroll requests.
func (c *Controller) OnScrollRequest(fn func(y float64)) {
	c.scrollListeners = append(c.scrollListeners, fn)
}

func (c *Controller) updateAutoScroll(dt float32) {
	if c.scrollTween == nil || dt <= 0 {
		return
	}
	val, done := c.scrollTween.tween.Update(dt)
	if done {
		c.scrollTween = nil
	} else {
		c.scrollTween.last = float64(val)
	}
	c.requestScroll(float64(val))
}

func (c *Controller) requestScroll(y float64) {
	for _, fn := range c.scrollListeners {
		fn(y)
	}
	c.emit(Event{Type: EventScrollRequest, ScrollY: y})
}

// handleReveal runs first among reveal subscribers. A manual reveal starts
// the auto-scroll that brings the content below the hero into view.
func (c *Controller) handleReveal(ev RevealEvent) {
	c.logger.Info("page revealed", zap.Bool("manual", ev.Manual), zap.Float64("scrollY", c.scrollY))
	c.emit(Event{Type: EventReveal, Manual: ev.Manual})
	if ev.Manual && c.autoScrollFraction > 0 {
		c.ScrollTo(c.viewport.Height*c.autoScrollFraction, c.autoScrollDuration, c.autoScrollEase)
	}
}
