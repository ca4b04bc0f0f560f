package scrollstage

type syntheticKind uint8

const (
	syntheticPointer syntheticKind = iota
	syntheticScroll
	syntheticResize
)

// syntheticEvent is a single injected input event. Pointer coordinates are
// screen coordinates, identical to real pointer input.
type syntheticEvent struct {
	kind    syntheticKind
	x, y    float64
	pressed bool
}

func (c *Controller) inject(ev syntheticEvent) {
	if c.closed {
		return
	}
	c.injectQueue = append(c.injectQueue, ev)
}

// InjectPress queues a pointer press at the given screen coordinates. The
// event is consumed on the next Update.
func (c *Controller) InjectPress(x, y float64) {
	c.inject(syntheticEvent{kind: syntheticPointer, x: x, y: y, pressed: true})
}

// InjectMove queues a pointer move with the pointer held down. Use this
// between InjectPress and InjectRelease to draw a stroke.
func (c *Controller) InjectMove(x, y float64) {
	c.inject(syntheticEvent{kind: syntheticPointer, x: x, y: y, pressed: true})
}

// InjectRelease queues a pointer release at the given screen coordinates.
func (c *Controller) InjectRelease(x, y float64) {
	c.inject(syntheticEvent{kind: syntheticPointer, x: x, y: y})
}

// InjectClick queues a press followed by a release at the same point.
// Consumes two updates.
func (c *Controller) InjectClick(x, y float64) {
	c.InjectPress(x, y)
	c.InjectRelease(x, y)
}

// InjectDrag queues a full stroke: press at (fromX, fromY), frames-2
// linearly interpolated moves, and release at (toX, toY). The sequence
// consumes frames updates; the minimum is 2.
func (c *Controller) InjectDrag(fromX, fromY, toX, toY float64, frames int) {
	if frames < 2 {
		frames = 2
	}
	c.InjectPress(fromX, fromY)
	steps := frames - 2
	for i := 1; i <= steps; i++ {
		t := float64(i) / float64(steps+1)
		c.InjectMove(fromX+(toX-fromX)*t, fromY+(toY-fromY)*t)
	}
	c.InjectRelease(toX, toY)
}

// InjectScroll queues a scroll to offset y.
func (c *Controller) InjectScroll(y float64) {
	c.inject(syntheticEvent{kind: syntheticScroll, y: y})
}

// InjectResize queues a viewport resize.
func (c *Controller) InjectResize(w, h float64) {
	c.inject(syntheticEvent{kind: syntheticResize, x: w, y: h})
}

// Pending reports how many injected events are still queued.
func (c *Controller) Pending() int {
	return len(c.injectQueue)
}

// processInjected pops one event from the queue and feeds it through the
// regular input path. It returns true if an event was consumed.
func (c *Controller) processInjected() bool {
	if len(c.injectQueue) == 0 {
		return false
	}
	ev := c.injectQueue[0]
	copy(c.injectQueue, c.injectQueue[1:])
	c.injectQueue = c.injectQueue[:len(c.injectQueue)-1]

	switch ev.kind {
	case syntheticPointer:
		_ = c.Pointer(0, ev.x, ev.y, ev.pressed)
	case syntheticScroll:
		c.Scroll(ev.y)
	case syntheticResize:
		c.Resize(ev.x, ev.y)
	}
	return true
}
