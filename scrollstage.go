package scrollstage

// Vec2 is a 2D vector used for pointer positions and segment endpoints.
type Vec2 struct {
	X, Y float64
}

// Rect is an axis-aligned rectangle in document space. The origin is at the
// top-left of the document, with Y increasing downward (toward later content).
type Rect struct {
	X, Y, Width, Height float64
}

// Contains reports whether the point (x, y) lies inside the rectangle.
// Points on the edge are considered inside.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.X && x <= r.X+r.Width &&
		y >= r.Y && y <= r.Y+r.Height
}

// Bottom returns the Y coordinate of the rectangle's bottom edge.
func (r Rect) Bottom() float64 {
	return r.Y + r.Height
}

// Viewport is the visible window size in pixels.
type Viewport struct {
	Width, Height float64
}

// Inactive is the sentinel step reported before a threshold table's first
// cut point and again at or after its last one.
const Inactive = -1

// Phase is the lifecycle stage of a RevealSurface. Phases only move forward.
type Phase uint8

const (
	PhaseUnrevealed Phase = iota // covered, no pointer contact yet
	PhaseArming                  // a pointer is down on the surface
	PhaseSampling                // at least one cut made; coverage is being sampled
	PhaseRevealed                // terminal
)

// String returns the phase name.
func (p Phase) String() string {
	switch p {
	case PhaseUnrevealed:
		return "unrevealed"
	case PhaseArming:
		return "arming"
	case PhaseSampling:
		return "sampling"
	case PhaseRevealed:
		return "revealed"
	default:
		return "unknown"
	}
}

// EventType identifies a kind of outward engine event.
type EventType uint8

const (
	EventProgress      EventType = iota // a region's progress changed
	EventStepChange                     // a region's classified step changed
	EventReveal                         // the page was revealed (at most once)
	EventScrollRequest                  // the engine asks the host to scroll
	EventUseCaseChange                  // the selected use case changed
)

// String returns the event type name.
func (t EventType) String() string {
	switch t {
	case EventProgress:
		return "progress"
	case EventStepChange:
		return "step"
	case EventReveal:
		return "reveal"
	case EventScrollRequest:
		return "scroll-request"
	case EventUseCaseChange:
		return "use-case"
	default:
		return "unknown"
	}
}

// Event carries one outward notification. Only the fields relevant to Type
// are set.
type Event struct {
	Type     EventType
	Region   RegionHandle
	RegionID string

	// EventProgress
	Progress float64

	// EventStepChange
	Step     int
	PrevStep int

	// EventReveal
	Manual bool

	// EventScrollRequest
	ScrollY float64

	// EventUseCaseChange
	UseCase UseCase
}

// EventSink is the interface for optional bus-style subscribers. When set on
// a Controller, every callback is mirrored to the sink as an Event.
type EventSink interface {
	EmitEvent(event Event)
}

// RevealEvent is delivered to OnReveal subscribers exactly once per session.
type RevealEvent struct {
	Revealed bool
	// Manual is true when the user's gesture completed the reveal and false
	// when it was forced (scroll distance, host request).
	Manual bool
}
