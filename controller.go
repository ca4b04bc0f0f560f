package scrollstage

import (
	"fmt"
	"slices"
	"sort"
	"time"

	"github.com/tanema/gween/ease"
	"go.uber.org/zap"
)

const (
	// DefaultForceRevealDistance is the scroll offset past which an
	// unrevealed page is revealed by force.
	DefaultForceRevealDistance = 50.0
	// DefaultAutoScrollFraction is the viewport-height fraction a manual
	// reveal scrolls to.
	DefaultAutoScrollFraction = 0.3
	// DefaultAutoScrollDuration is the auto-scroll duration in seconds.
	DefaultAutoScrollDuration = 1.5
)

// Options configures a Controller. Zero fields take the defaults.
type Options struct {
	// Bounds reports trigger element boxes in document space.
	Bounds BoundsProvider
	// Viewport is the initial viewport size.
	Viewport Viewport
	// ForceRevealDistance overrides DefaultForceRevealDistance. Negative
	// disables scroll-forced reveals.
	ForceRevealDistance float64
	// AutoScrollFraction overrides DefaultAutoScrollFraction. Negative
	// disables the auto-scroll after a manual reveal.
	AutoScrollFraction float64
	// AutoScrollDuration overrides DefaultAutoScrollDuration, in seconds.
	AutoScrollDuration float64
	// AutoScrollEase shapes the auto-scroll. Nil is power2.inOut.
	AutoScrollEase ease.TweenFunc
	// Logger receives warnings and, in debug mode, per-update stats.
	Logger *zap.Logger
}

// Controller owns every Region and RevealSurface of one page session. Host
// events go in through Scroll, Resize, the pointer methods and Update;
// results come out through callbacks and the optional EventSink. All calls
// must come from one goroutine.
type Controller struct {
	bounds   BoundsProvider
	viewport Viewport
	scrollY  float64
	closed   bool
	logger   *zap.Logger
	debug    bool

	// Regions. order lists live slot indices in registration order.
	regions     []*region
	freeRegions []uint32
	order       []uint32
	nextID      uint32

	// Reveal surfaces and the page-wide coordinator.
	reveals     []*revealSlot
	freeReveals []uint32
	coordinator RevealCoordinator

	forceDistance      float64
	autoScrollFraction float64
	autoScrollDuration float32
	autoScrollEase     ease.TweenFunc
	scrollTween        *scrollAnim
	scrollListeners    []func(y float64)

	useCase          UseCase
	useCaseListeners []func(cur, prev UseCase)

	sink  EventSink
	stats updateStats

	// Synthetic input and scripted runs.
	injectQueue   []syntheticEvent
	pointers      [maxPointers]pointerState
	testRunner    *TestRunner
	snapshotQueue []string
	// SnapshotDir is where Snapshot writes mask PNGs.
	SnapshotDir string
}

// NewController creates a Controller.
func NewController(opts Options) *Controller {
	c := &Controller{
		bounds:             opts.Bounds,
		viewport:           opts.Viewport,
		logger:             opts.Logger,
		forceDistance:      opts.ForceRevealDistance,
		autoScrollFraction: opts.AutoScrollFraction,
		autoScrollDuration: float32(opts.AutoScrollDuration),
		autoScrollEase:     opts.AutoScrollEase,
		SnapshotDir:        "snapshots",
	}
	if c.bounds == nil {
		c.bounds = BoundsFunc(func(string) (Rect, bool) { return Rect{}, false })
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	if c.forceDistance == 0 {
		c.forceDistance = DefaultForceRevealDistance
	}
	if c.autoScrollFraction == 0 {
		c.autoScrollFraction = DefaultAutoScrollFraction
	}
	if c.autoScrollDuration <= 0 {
		c.autoScrollDuration = DefaultAutoScrollDuration
	}
	if c.autoScrollEase == nil {
		c.autoScrollEase = ease.InOutCubic
	}
	c.coordinator.OnReveal(c.handleReveal)
	return c
}

// SetLogger replaces the logger. Nil installs a no-op logger.
func (c *Controller) SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	c.logger = l
	for _, s := range c.reveals {
		if s.live {
			s.surface.logger = l
		}
	}
}

// SetEventSink sets the optional bus-style subscriber. Nil removes it.
func (c *Controller) SetEventSink(sink EventSink) {
	c.sink = sink
}

func (c *Controller) emit(ev Event) {
	if c.sink != nil {
		c.sink.EmitEvent(ev)
	}
}

// --- Regions ---

// Register adds a region and returns its handle. Progress is first emitted
// on the next Scroll, Resize or Refresh.
func (c *Controller) Register(cfg RegionConfig) (RegionHandle, error) {
	if c.closed {
		return RegionHandle{}, ErrClosed
	}
	if err := cfg.validate(); err != nil {
		return RegionHandle{}, err
	}

	var idx uint32
	if n := len(c.freeRegions); n > 0 {
		idx = c.freeRegions[n-1]
		c.freeRegions = c.freeRegions[:n-1]
	} else {
		idx = uint32(len(c.regions))
		c.regions = append(c.regions, &region{gen: 1})
	}
	r := c.regions[idx]
	r.cfg = cfg
	r.live = true
	c.order = append(c.order, idx)
	c.invalidate()

	return RegionHandle{index: idx, gen: r.gen}, nil
}

// Unregister removes a region. Its listeners, step trackers and bindings are
// released before Unregister returns; no callback for it fires afterward,
// even if Unregister is called from inside one of its own callbacks. Stale
// handles are ignored.
func (c *Controller) Unregister(h RegionHandle) {
	r := c.lookup(h)
	if r == nil {
		if c.debug {
			c.logger.Warn("unregister on stale region handle", zap.Uint32("index", h.index), zap.Uint32("gen", h.gen))
		}
		return
	}
	for _, st := range r.steps {
		st.Detach()
	}
	for _, b := range r.bindings {
		b.Detach()
	}
	r.reset()
	r.gen++
	if i := slices.Index(c.order, h.index); i >= 0 {
		c.order = slices.Delete(c.order, i, i+1)
	}
	c.freeRegions = append(c.freeRegions, h.index)
	c.invalidate()
}

func (c *Controller) lookup(h RegionHandle) *region {
	if h.gen == 0 || int(h.index) >= len(c.regions) {
		return nil
	}
	r := c.regions[h.index]
	if !r.live || r.gen != h.gen {
		return nil
	}
	return r
}

// OnProgress subscribes fn to a region's progress. fn receives every new
// value in [0,1].
func (c *Controller) OnProgress(h RegionHandle, fn func(progress float64)) error {
	r := c.lookup(h)
	if r == nil {
		return fmt.Errorf("on progress: %w", ErrUnknownHandle)
	}
	r.listeners = append(r.listeners, fn)
	return nil
}

// AttachSteps classifies a region's progress through table and calls fn on
// every change of step. If the region already has a progress value it is
// classified immediately.
func (c *Controller) AttachSteps(h RegionHandle, table ThresholdTable, fn func(step, prev int)) (*StepTracker, error) {
	r := c.lookup(h)
	if r == nil {
		return nil, fmt.Errorf("attach steps: %w", ErrUnknownHandle)
	}
	id := r.cfg.ID
	st := NewStepTracker(table, func(step, prev int) {
		c.stats.stepEvents++
		if fn != nil {
			fn(step, prev)
		}
		c.emit(Event{Type: EventStepChange, Region: h, RegionID: id, Step: step, PrevStep: prev})
	})
	r.steps = append(r.steps, st)
	if r.emitted {
		st.Observe(r.progress)
	}
	return st, nil
}

// Bind drives channels from a region's progress using the region's scrub
// factor. apply is called per channel whenever its value changes.
func (c *Controller) Bind(h RegionHandle, channels []Channel, apply func(ch Channel, value float64)) (BindingHandle, error) {
	r := c.lookup(h)
	if r == nil {
		return BindingHandle{}, fmt.Errorf("bind: %w", ErrUnknownHandle)
	}
	c.nextID++
	b := newBinding(c.nextID, channels, r.cfg.Scrub, apply)
	r.bindings = append(r.bindings, b)
	if r.emitted {
		b.setTarget(r.progress)
	}
	return BindingHandle{region: h, id: b.id}, nil
}

// Unbind detaches a binding. Stale handles are ignored.
func (c *Controller) Unbind(bh BindingHandle) {
	r := c.lookup(bh.region)
	if r == nil {
		return
	}
	for i, b := range r.bindings {
		if b.id == bh.id {
			b.Detach()
			r.bindings = slices.Delete(r.bindings, i, i+1)
			return
		}
	}
}

// Binding returns the live binding for bh, or nil.
func (c *Controller) Binding(bh BindingHandle) *Binding {
	r := c.lookup(bh.region)
	if r == nil {
		return nil
	}
	for _, b := range r.bindings {
		if b.id == bh.id {
			return b
		}
	}
	return nil
}

// Progress returns a region's last emitted progress. ok is false for stale
// handles and regions whose trigger has never been measured.
func (c *Controller) Progress(h RegionHandle) (p float64, ok bool) {
	r := c.lookup(h)
	if r == nil || !r.emitted {
		return 0, false
	}
	return r.progress, true
}

// Span returns a region's resolved start and end scroll offsets.
func (c *Controller) Span(h RegionHandle) (start, end float64, ok bool) {
	r := c.lookup(h)
	if r == nil || !r.resolved || !r.known {
		return 0, 0, false
	}
	return r.start, r.end, true
}

// PinOffset returns the vertical translation that keeps a pinned region's
// trigger in its viewport slot at the current scroll offset. It is zero for
// non-pinned regions and outside the pin.
func (c *Controller) PinOffset(h RegionHandle) float64 {
	r := c.lookup(h)
	if r == nil || !r.cfg.Pinned || !r.resolved || !r.known {
		return 0
	}
	d := c.scrollY - r.start
	if d < 0 {
		return 0
	}
	return min(d, r.distance())
}

// TotalPinSpacing returns the scroll distance added to the document by all
// pinned regions.
func (c *Controller) TotalPinSpacing() float64 {
	c.resolveAll()
	var total float64
	for _, idx := range c.order {
		r := c.regions[idx]
		if r.cfg.Pinned && r.known {
			total += r.distance()
		}
	}
	return total
}

// --- Host events ---

// Scroll sets the current scroll offset and emits every changed progress.
func (c *Controller) Scroll(y float64) {
	if c.closed {
		return
	}
	c.scrollY = y
	c.recompute()

	if c.forceDistance > 0 && y > c.forceDistance && !c.coordinator.Revealed() {
		c.logger.Debug("scroll distance forces reveal", zap.Float64("scrollY", y))
		c.ForceReveal()
	}
}

// ScrollY returns the last scroll offset given to Scroll.
func (c *Controller) ScrollY() float64 {
	return c.scrollY
}

// Resize sets the viewport size. Cached bounds are dropped and re-measured,
// reveal surfaces whose placement changed size are reinitialized, and
// progress is recomputed before anything is emitted.
func (c *Controller) Resize(w, h float64) {
	if c.closed {
		return
	}
	c.viewport = Viewport{Width: w, Height: h}
	c.invalidate()
	for _, s := range c.reveals {
		if s.live {
			c.placeReveal(s)
		}
	}
	c.recompute()
}

// Viewport returns the current viewport size.
func (c *Controller) Viewport() Viewport {
	return c.viewport
}

// InvalidateLayout drops cached trigger bounds; call it when the host's
// layout changes without a resize.
func (c *Controller) InvalidateLayout() {
	c.invalidate()
}

// Refresh recomputes every region at the current scroll offset.
func (c *Controller) Refresh() {
	if c.closed {
		return
	}
	c.recompute()
}

func (c *Controller) invalidate() {
	for _, idx := range c.order {
		c.regions[idx].resolved = false
	}
}

// resolveAll measures triggers and resolves start/end offsets, applying pin
// spacing: every trigger laid out entirely below a pinned trigger is pushed
// down by that pin's scroll distance.
func (c *Controller) resolveAll() {
	dirty := false
	for _, idx := range c.order {
		if !c.regions[idx].resolved {
			dirty = true
			break
		}
	}
	if !dirty {
		return
	}

	live := make([]*region, 0, len(c.order))
	for _, idx := range c.order {
		r := c.regions[idx]
		c.measure(r)
		if r.known {
			live = append(live, r)
		} else {
			r.resolved = true
		}
	}
	sort.SliceStable(live, func(i, j int) bool { return live[i].bounds.Y < live[j].bounds.Y })

	vh := c.viewport.Height
	var pins []*region
	for _, r := range live {
		r.spacing = 0
		for _, p := range pins {
			if p.bounds.Bottom() <= r.bounds.Y {
				r.spacing += p.distance()
			}
		}
		trigger := r.bounds
		trigger.Y += r.spacing
		r.start = r.cfg.Start.resolve(trigger, vh, 0)
		r.end = r.cfg.End.resolve(trigger, vh, r.start)
		r.resolved = true
		if r.end <= r.start {
			c.logger.Debug("region end does not follow start",
				zap.String("region", r.cfg.ID), zap.Float64("start", r.start), zap.Float64("end", r.end))
		}
		if r.cfg.Pinned {
			pins = append(pins, r)
		}
	}
}

// measure refreshes a region's trigger bounds. A trigger that has vanished
// keeps its last known bounds.
func (c *Controller) measure(r *region) {
	if r.cfg.Trigger == "" {
		r.known = true
		return
	}
	b, ok := c.bounds.Bounds(r.cfg.Trigger)
	switch {
	case ok:
		r.bounds = b
		r.known = true
	case r.known:
		c.logger.Debug("trigger missing, bounds frozen", zap.String("region", r.cfg.ID), zap.String("trigger", r.cfg.Trigger))
	default:
		c.logger.Debug("trigger never measured", zap.String("region", r.cfg.ID), zap.String("trigger", r.cfg.Trigger))
	}
}

// recompute emits progress for every region whose value changed.
func (c *Controller) recompute() {
	c.resolveAll()
	order := slices.Clone(c.order)
	for _, idx := range order {
		r := c.regions[idx]
		if !r.live || !r.known {
			continue
		}
		p := progressAt(c.scrollY, r.start, r.end)
		if r.emitted && p == r.progress {
			continue
		}
		r.progress = p
		r.emitted = true
		c.emitProgress(r, RegionHandle{index: idx, gen: r.gen}, p)
	}
}

// emitProgress fans a new progress value out. Liveness is rechecked before
// every callback so a region unregistered mid-fan-out goes silent at once.
func (c *Controller) emitProgress(r *region, h RegionHandle, p float64) {
	alive := func() bool { return r.live && r.gen == h.gen }
	c.stats.progressEvents++

	for _, fn := range slices.Clone(r.listeners) {
		if !alive() {
			return
		}
		fn(p)
	}
	for _, st := range slices.Clone(r.steps) {
		if !alive() {
			return
		}
		st.Observe(p)
	}
	for _, b := range slices.Clone(r.bindings) {
		if !alive() {
			return
		}
		b.setTarget(p)
	}
	if alive() {
		c.emit(Event{Type: EventProgress, Region: h, RegionID: r.cfg.ID, Progress: p})
	}
}

// --- Per-frame update ---

// Update advances time-based work by dt seconds: one queued synthetic input
// event, the auto-scroll tween, scrubbed bindings, and queued snapshots.
func (c *Controller) Update(dt float64) {
	if c.closed {
		return
	}
	var t0 time.Time
	if c.debug {
		t0 = time.Now()
	}

	if c.testRunner != nil {
		c.testRunner.step(c)
	}
	c.processInjected()
	c.updateAutoScroll(float32(dt))

	for _, idx := range slices.Clone(c.order) {
		r := c.regions[idx]
		gen := r.gen
		for _, b := range slices.Clone(r.bindings) {
			if !r.live || r.gen != gen {
				break
			}
			b.Update(dt)
		}
	}

	c.flushSnapshots()

	if c.debug {
		c.stats.updateTime = time.Since(t0)
		c.stats.regions = len(c.order)
		c.debugLog(c.stats)
	}
	c.stats = updateStats{}
}

// SetDebugMode enables or disables per-update stats logging at debug level
// and warnings for stale handles.
func (c *Controller) SetDebugMode(enabled bool) {
	c.debug = enabled
}

// Close tears the session down: every region is unregistered, every surface
// destroyed, the auto-scroll cancelled and all subscribers dropped. Later
// calls are no-ops.
func (c *Controller) Close() {
	if c.closed {
		return
	}
	for _, idx := range slices.Clone(c.order) {
		c.Unregister(RegionHandle{index: idx, gen: c.regions[idx].gen})
	}
	for i, s := range c.reveals {
		if s.live {
			c.DestroyReveal(RevealHandle{index: uint32(i), gen: s.gen})
		}
	}
	c.coordinator.detach()
	c.scrollTween = nil
	c.scrollListeners = nil
	c.useCaseListeners = nil
	c.injectQueue = nil
	c.snapshotQueue = nil
	c.testRunner = nil
	c.sink = nil
	c.closed = true
}

// Closed reports whether Close has been called.
func (c *Controller) Closed() bool {
	return c.closed
}

// --- Use cases ---

// SetUseCase selects the presentation variant. Invalid values are ignored.
func (c *Controller) SetUseCase(u UseCase) {
	if c.closed || !u.Valid() || u == c.useCase {
		return
	}
	prev := c.useCase
	c.useCase = u
	for _, fn := range slices.Clone(c.useCaseListeners) {
		fn(u, prev)
	}
	c.emit(Event{Type: EventUseCaseChange, UseCase: u})
}

// UseCase returns the selected presentation variant.
func (c *Controller) UseCase() UseCase {
	return c.useCase
}

// OnUseCaseChange subscribes fn to use-case changes.
func (c *Controller) OnUseCaseChange(fn func(cur, prev UseCase)) {
	c.useCaseListeners = append(c.useCaseListeners, fn)
}
