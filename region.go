package scrollstage

import (
	"fmt"
	"math"
)

// RegionConfig describes a scroll-bound interval.
type RegionConfig struct {
	// ID names the region in events and logs.
	ID string
	// Trigger is the element ID passed to the BoundsProvider. It may be empty
	// only when both markers are absolute.
	Trigger string
	// Start and End are the scroll markers delimiting the region. Start must
	// not be relative.
	Start, End Marker
	// Scrub is the smoothing factor applied to bindings on this region, in
	// seconds. Zero snaps immediately.
	Scrub float64
	// Pinned holds the trigger in a fixed viewport slot while the region's
	// scroll distance is consumed. Content laid out below a pinned trigger is
	// pushed down by that distance.
	Pinned bool
}

func (cfg RegionConfig) validate() error {
	if cfg.ID == "" {
		return fmt.Errorf("%w: empty id", ErrInvalidRegion)
	}
	if cfg.Scrub < 0 || math.IsNaN(cfg.Scrub) || math.IsInf(cfg.Scrub, 0) {
		return fmt.Errorf("%w: region %q: scrub %v", ErrInvalidRegion, cfg.ID, cfg.Scrub)
	}
	if cfg.Start.Kind == MarkerRelative {
		return fmt.Errorf("%w: region %q: start marker %q cannot be relative", ErrInvalidRegion, cfg.ID, cfg.Start)
	}
	if cfg.Trigger == "" && (cfg.Start.Kind != MarkerAbsolute || cfg.End.Kind == MarkerAnchored) {
		return fmt.Errorf("%w: region %q: anchored markers need a trigger", ErrInvalidRegion, cfg.ID)
	}
	if cfg.Start.Kind == MarkerAbsolute && cfg.End.Kind == MarkerAbsolute && cfg.End.Offset <= cfg.Start.Offset {
		return fmt.Errorf("%w: region %q: end %v precedes start %v", ErrInvalidRegion, cfg.ID, cfg.End.Offset, cfg.Start.Offset)
	}
	return nil
}

// RegionHandle identifies a registered region. The zero value is never valid.
// Handles of unregistered regions stay invalid even if the slot is reused.
type RegionHandle struct {
	index uint32
	gen   uint32
}

// IsZero reports whether h is the zero handle.
func (h RegionHandle) IsZero() bool {
	return h.gen == 0
}

// BoundsProvider reports the document-space box of a trigger element. ok is
// false when the element no longer exists (or never did).
type BoundsProvider interface {
	Bounds(id string) (r Rect, ok bool)
}

// BoundsFunc adapts a plain function to BoundsProvider.
type BoundsFunc func(id string) (Rect, bool)

// Bounds calls f(id).
func (f BoundsFunc) Bounds(id string) (Rect, bool) {
	return f(id)
}

// region is one arena slot.
type region struct {
	cfg  RegionConfig
	gen  uint32
	live bool

	bounds Rect // last known trigger bounds, frozen when the trigger vanishes
	known  bool // bounds have been observed at least once

	resolved bool // start/end are current for the viewport and layout
	start    float64
	end      float64
	spacing  float64 // pin spacing pushed onto this trigger by pinned regions above

	progress float64
	emitted  bool

	listeners []func(float64)
	steps     []*StepTracker
	bindings  []*Binding
}

func (r *region) reset() {
	gen := r.gen
	*r = region{gen: gen}
}

// distance is the scroll length over which progress runs 0→1.
func (r *region) distance() float64 {
	return math.Max(0, r.end-r.start)
}

// progressAt maps a scroll offset to [0,1] between start and end. A
// degenerate span behaves as a step at start.
func progressAt(scroll, start, end float64) float64 {
	if end <= start {
		if scroll >= start {
			return 1
		}
		return 0
	}
	return clamp01((scroll - start) / (end - start))
}

func clamp01(v float64) float64 {
	if v < 0 || math.IsNaN(v) {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
