package scrollstage

import (
	"fmt"
	"strconv"
	"strings"
)

// MarkerKind selects how a Marker resolves to a scroll offset.
type MarkerKind uint8

const (
	// MarkerAnchored pairs a point on the trigger element with a point on the
	// viewport: the marker is hit when the two coincide ("top 90%").
	MarkerAnchored MarkerKind = iota
	// MarkerRelative is a distance past the resolved start ("+=500%").
	MarkerRelative
	// MarkerAbsolute is a fixed scroll offset in pixels ("500").
	MarkerAbsolute
)

// anchor is a position along one axis: Fraction of the reference length plus
// a fixed pixel offset.
type anchor struct {
	Fraction float64
	Pixels   float64
}

func (a anchor) at(length float64) float64 {
	return a.Fraction*length + a.Pixels
}

// Marker is a parsed scroll position for a region's start or end.
//
// Accepted forms:
//
//	"<element> <viewport>"  each side: top | center | bottom | N% | Npx | N
//	"+=N%" / "+=Npx"        distance after the start; % is of viewport height
//	"N"                     absolute scroll offset in pixels
type Marker struct {
	Kind     MarkerKind
	Element  anchor  // MarkerAnchored: point on the trigger, % of its height
	Viewport anchor  // MarkerAnchored: point on the viewport, % of its height
	Distance anchor  // MarkerRelative: % of viewport height plus pixels
	Offset   float64 // MarkerAbsolute
	raw      string
}

// ParseMarker parses a marker string.
func ParseMarker(s string) (Marker, error) {
	raw := strings.TrimSpace(s)
	if raw == "" {
		return Marker{}, fmt.Errorf("parse marker %q: %w", s, ErrInvalidMarker)
	}

	if rest, ok := strings.CutPrefix(raw, "+="); ok {
		a, err := parseAnchor(strings.TrimSpace(rest), false)
		if err != nil {
			return Marker{}, fmt.Errorf("parse marker %q: %w", s, err)
		}
		return Marker{Kind: MarkerRelative, Distance: a, raw: raw}, nil
	}

	fields := strings.Fields(raw)
	switch len(fields) {
	case 1:
		v, err := strconv.ParseFloat(strings.TrimSuffix(fields[0], "px"), 64)
		if err != nil {
			return Marker{}, fmt.Errorf("parse marker %q: %w", s, ErrInvalidMarker)
		}
		return Marker{Kind: MarkerAbsolute, Offset: v, raw: raw}, nil
	case 2:
		el, err := parseAnchor(fields[0], true)
		if err != nil {
			return Marker{}, fmt.Errorf("parse marker %q: element: %w", s, err)
		}
		vp, err := parseAnchor(fields[1], true)
		if err != nil {
			return Marker{}, fmt.Errorf("parse marker %q: viewport: %w", s, err)
		}
		return Marker{Kind: MarkerAnchored, Element: el, Viewport: vp, raw: raw}, nil
	default:
		return Marker{}, fmt.Errorf("parse marker %q: %w", s, ErrInvalidMarker)
	}
}

// MustMarker is like ParseMarker but panics on error. Intended for literals.
func MustMarker(s string) Marker {
	m, err := ParseMarker(s)
	if err != nil {
		panic(err)
	}
	return m
}

// String returns the marker's source text.
func (m Marker) String() string {
	return m.raw
}

func parseAnchor(tok string, keywords bool) (anchor, error) {
	if keywords {
		switch tok {
		case "top":
			return anchor{Fraction: 0}, nil
		case "center":
			return anchor{Fraction: 0.5}, nil
		case "bottom":
			return anchor{Fraction: 1}, nil
		}
	}
	if num, ok := strings.CutSuffix(tok, "%"); ok {
		v, err := strconv.ParseFloat(num, 64)
		if err != nil {
			return anchor{}, ErrInvalidMarker
		}
		return anchor{Fraction: v / 100}, nil
	}
	v, err := strconv.ParseFloat(strings.TrimSuffix(tok, "px"), 64)
	if err != nil {
		return anchor{}, ErrInvalidMarker
	}
	return anchor{Pixels: v}, nil
}

// resolve converts the marker to a scroll offset given the trigger's
// document bounds, the viewport height, and (for relative markers) the
// already-resolved start offset.
func (m Marker) resolve(trigger Rect, viewportH, start float64) float64 {
	switch m.Kind {
	case MarkerAbsolute:
		return m.Offset
	case MarkerRelative:
		return start + m.Distance.at(viewportH)
	default:
		return trigger.Y + m.Element.at(trigger.Height) - m.Viewport.at(viewportH)
	}
}
