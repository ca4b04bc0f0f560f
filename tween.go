package scrollstage

import (
	"fmt"
	"math"

	"github.com/tanema/gween/ease"
)

// Property names the visual channel a Channel drives.
type Property uint8

const (
	PropOpacity Property = iota // 0 = transparent, 1 = opaque
	PropOffsetX                 // horizontal translation in pixels
	PropOffsetY                 // vertical translation in pixels
	PropOffsetZ                 // depth translation in pixels
	PropScale                   // uniform scale factor
	PropScaleY                  // vertical scale factor
	PropRotateX                 // rotation around the X axis in degrees
)

var propertyNames = [...]string{
	PropOpacity: "opacity",
	PropOffsetX: "x",
	PropOffsetY: "y",
	PropOffsetZ: "z",
	PropScale:   "scale",
	PropScaleY:  "scaleY",
	PropRotateX: "rotateX",
}

// String returns the property's layout name.
func (p Property) String() string {
	if int(p) < len(propertyNames) {
		return propertyNames[p]
	}
	return "unknown"
}

// ParseProperty resolves a layout property name.
func ParseProperty(s string) (Property, error) {
	for i, name := range propertyNames {
		if name == s {
			return Property(i), nil
		}
	}
	return 0, fmt.Errorf("unknown property %q", s)
}

// Window is the sub-range of a region's progress over which a channel
// animates. The zero Window is the full range [0,1].
type Window struct {
	Start, End float64
}

// local normalizes progress into the window, clamped to [0,1].
func (w Window) local(p float64) float64 {
	if w == (Window{}) {
		w.End = 1
	}
	if w.End <= w.Start {
		if p >= w.Start {
			return 1
		}
		return 0
	}
	return clamp01((p - w.Start) / (w.End - w.Start))
}

// Channel maps a region's progress to one visual value. Channels are
// stateless; Evaluate can be called with any progress at any time.
type Channel struct {
	// Target names the element the value is applied to.
	Target   string
	Property Property
	From, To float64
	Window   Window
	// Ease shapes the normalized progress. Nil is linear.
	Ease ease.TweenFunc
}

// Evaluate returns the channel's value at progress: the progress is
// normalized into the channel window, eased, then interpolated From..To.
func Evaluate(progress float64, ch Channel) float64 {
	u := ch.Window.local(progress)
	return ch.From + (ch.To-ch.From)*applyEase(ch.Ease, u)
}

const (
	// scrubTimeConstant scales a scrub factor to the smoothing time constant.
	// Three time constants close ~95% of the gap, so scrub N catches up in
	// roughly N seconds.
	scrubTimeConstant = 1.0 / 3.0
	// settleEpsilon is the progress gap below which a scrubbed playhead
	// snaps onto its target.
	settleEpsilon = 1e-4
)

// BindingHandle identifies a Binding attached to a region.
type BindingHandle struct {
	region RegionHandle
	id     uint32
}

// Binding drives a set of channels from one region's progress. With a scrub
// factor the playhead chases the region's progress by exponential smoothing,
// advanced by Update; without one it follows progress immediately.
//
// Every channel is evaluated and applied on its own; values are only
// re-applied when they change.
type Binding struct {
	id       uint32
	channels []Channel
	apply    func(ch Channel, value float64)
	scrub    float64

	target   float64
	playhead float64
	primed   bool
	last     []float64
	detached bool
}

func newBinding(id uint32, channels []Channel, scrub float64, apply func(Channel, float64)) *Binding {
	own := make([]Channel, len(channels))
	copy(own, channels)
	return &Binding{
		id:       id,
		channels: own,
		apply:    apply,
		scrub:    scrub,
		last:     make([]float64, len(own)),
	}
}

// setTarget records the region's latest progress. The first target, and
// every target of an unscrubbed binding, renders immediately.
func (b *Binding) setTarget(p float64) {
	if b.detached {
		return
	}
	b.target = p
	if !b.primed || b.scrub == 0 {
		b.playhead = p
		b.render()
	}
}

// Update advances the scrubbed playhead by dt seconds toward the target.
func (b *Binding) Update(dt float64) {
	if b.detached || !b.primed || b.scrub == 0 || dt <= 0 {
		return
	}
	gap := b.target - b.playhead
	if gap == 0 {
		return
	}
	if math.Abs(gap) < settleEpsilon {
		b.playhead = b.target
	} else {
		b.playhead += gap * (1 - math.Exp(-dt/(b.scrub*scrubTimeConstant)))
	}
	b.render()
}

func (b *Binding) render() {
	first := !b.primed
	b.primed = true
	for i, ch := range b.channels {
		if b.detached {
			return
		}
		v := Evaluate(b.playhead, ch)
		if !first && v == b.last[i] {
			continue
		}
		b.last[i] = v
		if b.apply != nil {
			b.apply(ch, v)
		}
	}
}

// Playhead returns the smoothed progress currently rendered.
func (b *Binding) Playhead() float64 {
	return b.playhead
}

// Settled reports whether the playhead has reached its target.
func (b *Binding) Settled() bool {
	return b.playhead == b.target
}

// Values returns the last applied value of every channel, in order.
func (b *Binding) Values() []float64 {
	out := make([]float64, len(b.last))
	copy(out, b.last)
	return out
}

// Detach stops the binding; no further values are applied.
func (b *Binding) Detach() {
	b.detached = true
	b.apply = nil
}
