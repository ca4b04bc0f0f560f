package scrollstage

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/adrg/xdg"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

//go:embed layouts/onboarding.yaml
var defaultLayoutYAML []byte

// LayoutFileName is the file FindLayout looks for in the working directory
// and, under the "scrollstage" subdirectory, in the XDG config dirs.
const LayoutFileName = "scrollstage.yaml"

// LengthUnit is the unit of a Length.
type LengthUnit uint8

const (
	UnitPx LengthUnit = iota
	UnitVH
	UnitVW
)

// Length is a layout dimension in pixels or viewport units ("288px", "66vh").
type Length struct {
	Value float64
	Unit  LengthUnit
}

// ParseLength parses "N", "Npx", "Nvh" or "Nvw".
func ParseLength(s string) (Length, error) {
	s = strings.TrimSpace(s)
	unit := UnitPx
	num := s
	switch {
	case strings.HasSuffix(s, "vh"):
		unit, num = UnitVH, strings.TrimSuffix(s, "vh")
	case strings.HasSuffix(s, "vw"):
		unit, num = UnitVW, strings.TrimSuffix(s, "vw")
	case strings.HasSuffix(s, "px"):
		num = strings.TrimSuffix(s, "px")
	}
	v, err := strconv.ParseFloat(num, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return Length{}, fmt.Errorf("invalid length %q", s)
	}
	return Length{Value: v, Unit: unit}, nil
}

// Resolve converts the length to pixels for vp.
func (l Length) Resolve(vp Viewport) float64 {
	switch l.Unit {
	case UnitVH:
		return l.Value / 100 * vp.Height
	case UnitVW:
		return l.Value / 100 * vp.Width
	default:
		return l.Value
	}
}

// String formats the length with its unit.
func (l Length) String() string {
	v := strconv.FormatFloat(l.Value, 'f', -1, 64)
	switch l.Unit {
	case UnitVH:
		return v + "vh"
	case UnitVW:
		return v + "vw"
	default:
		return v + "px"
	}
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (l *Length) UnmarshalYAML(node *yaml.Node) error {
	v, err := ParseLength(node.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*l = v
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (l Length) MarshalYAML() (any, error) {
	return l.String(), nil
}

// Layout is a declarative page: document sections, scroll regions with their
// channels and step tables, and the reveal surface.
type Layout struct {
	Viewport ViewportSpec  `yaml:"viewport"`
	Sections []SectionSpec `yaml:"sections"`
	Reveal   *RevealSpec   `yaml:"reveal,omitempty"`
	Regions  []RegionSpec  `yaml:"regions"`
}

// ViewportSpec is the default window size.
type ViewportSpec struct {
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
}

// SectionSpec is one block of the document. Sections stack in order, each
// starting where the previous one ends, spanning the full viewport width.
type SectionSpec struct {
	ID     string `yaml:"id"`
	Height Length `yaml:"height"`
}

// RevealSpec configures the scratch-to-reveal surface, centered in the
// viewport.
type RevealSpec struct {
	Size          Length         `yaml:"size"`
	Threshold     float64        `yaml:"threshold,omitempty"`
	Stride        int            `yaml:"stride,omitempty"`
	BrushRadius   float64        `yaml:"brushRadius,omitempty"`
	Seed          uint64         `yaml:"seed,omitempty"`
	ForceDistance float64        `yaml:"forceDistance,omitempty"`
	AutoScroll    AutoScrollSpec `yaml:"autoScroll,omitempty"`
}

// AutoScrollSpec configures the scroll that follows a manual reveal.
type AutoScrollSpec struct {
	Fraction float64 `yaml:"fraction,omitempty"`
	Duration float64 `yaml:"duration,omitempty"`
	Ease     string  `yaml:"ease,omitempty"`
}

// RegionSpec is the layout form of a RegionConfig plus what attaches to it.
type RegionSpec struct {
	ID      string  `yaml:"id"`
	Trigger string  `yaml:"trigger,omitempty"`
	Start   string  `yaml:"start"`
	End     string  `yaml:"end"`
	Scrub   float64 `yaml:"scrub,omitempty"`
	Pin     bool    `yaml:"pin,omitempty"`
	// Steps lists threshold cut points; cut i maps to step i, and the last
	// cut ends the sequence.
	Steps    []float64     `yaml:"steps,omitempty"`
	Channels []ChannelSpec `yaml:"channels,omitempty"`
}

// ChannelSpec is the layout form of a Channel.
type ChannelSpec struct {
	Target   string      `yaml:"target"`
	Property string      `yaml:"property"`
	From     float64     `yaml:"from"`
	To       float64     `yaml:"to"`
	Window   *WindowSpec `yaml:"window,omitempty"`
	Ease     string      `yaml:"ease,omitempty"`
}

// WindowSpec is the layout form of a Window.
type WindowSpec struct {
	Start float64 `yaml:"start"`
	End   float64 `yaml:"end"`
}

// ParseLayout decodes and validates a YAML layout. Unknown keys are errors.
func ParseLayout(data []byte) (*Layout, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var l Layout
	if err := dec.Decode(&l); err != nil {
		return nil, fmt.Errorf("parse layout: %w", err)
	}
	if err := l.Validate(); err != nil {
		return nil, err
	}
	return &l, nil
}

// LoadLayout reads and parses the layout file at path.
func LoadLayout(path string) (*Layout, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load layout %s: %w", path, ErrConfigNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load layout %s: %w", path, err)
	}
	l, err := ParseLayout(data)
	if err != nil {
		return nil, fmt.Errorf("load layout %s: %w", path, err)
	}
	return l, nil
}

// DefaultLayout returns the built-in onboarding page layout.
func DefaultLayout() *Layout {
	l, err := ParseLayout(defaultLayoutYAML)
	if err != nil {
		panic(fmt.Sprintf("scrollstage: built-in layout: %v", err))
	}
	return l
}

// DefaultLayoutYAML returns the source of the built-in layout.
func DefaultLayoutYAML() []byte {
	return bytes.Clone(defaultLayoutYAML)
}

// FindLayout locates a layout file: the explicit path if given, otherwise
// LayoutFileName in the working directory, otherwise
// scrollstage/LayoutFileName in the XDG config dirs. It returns
// ErrConfigNotFound when nothing exists.
func FindLayout(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("find layout %s: %w", explicit, ErrConfigNotFound)
		}
		return explicit, nil
	}
	if _, err := os.Stat(LayoutFileName); err == nil {
		return LayoutFileName, nil
	}
	path, err := xdg.SearchConfigFile(filepath.Join("scrollstage", LayoutFileName))
	if err != nil {
		return "", fmt.Errorf("find layout: %w", ErrConfigNotFound)
	}
	return path, nil
}

// Validate checks the layout for consistency: unique section and region
// ids, parseable markers, triggers naming sections, valid step tables,
// known channel properties and eases.
func (l *Layout) Validate() error {
	if l.Viewport.Width < 0 || l.Viewport.Height < 0 {
		return fmt.Errorf("layout: negative viewport %vx%v", l.Viewport.Width, l.Viewport.Height)
	}
	sections := make(map[string]bool, len(l.Sections))
	for i, s := range l.Sections {
		if s.ID == "" {
			return fmt.Errorf("layout: section %d: empty id", i)
		}
		if sections[s.ID] {
			return fmt.Errorf("layout: duplicate section %q", s.ID)
		}
		if s.Height.Value < 0 {
			return fmt.Errorf("layout: section %q: negative height", s.ID)
		}
		sections[s.ID] = true
	}

	if r := l.Reveal; r != nil {
		if r.Size.Value <= 0 {
			return fmt.Errorf("layout: reveal: size must be positive")
		}
		if r.Threshold < 0 || r.Threshold >= 1 {
			return fmt.Errorf("layout: reveal: threshold %v outside [0,1)", r.Threshold)
		}
		if _, ok := EaseByName(r.AutoScroll.Ease); !ok {
			return fmt.Errorf("layout: reveal: unknown ease %q", r.AutoScroll.Ease)
		}
	}

	regions := make(map[string]bool, len(l.Regions))
	for _, rs := range l.Regions {
		if regions[rs.ID] {
			return fmt.Errorf("layout: duplicate region %q", rs.ID)
		}
		regions[rs.ID] = true
		cfg, err := rs.Config()
		if err != nil {
			return fmt.Errorf("layout: %w", err)
		}
		if cfg.Trigger != "" && !sections[cfg.Trigger] {
			return fmt.Errorf("layout: region %q: unknown trigger %q", rs.ID, cfg.Trigger)
		}
		if len(rs.Steps) > 0 {
			if _, err := rs.Thresholds(); err != nil {
				return fmt.Errorf("layout: region %q: %w", rs.ID, err)
			}
		}
		if _, err := rs.CompileChannels(); err != nil {
			return fmt.Errorf("layout: region %q: %w", rs.ID, err)
		}
	}
	return nil
}

// Config converts the spec to a validated RegionConfig.
func (rs RegionSpec) Config() (RegionConfig, error) {
	start, err := ParseMarker(rs.Start)
	if err != nil {
		return RegionConfig{}, fmt.Errorf("region %q: start: %w", rs.ID, err)
	}
	end, err := ParseMarker(rs.End)
	if err != nil {
		return RegionConfig{}, fmt.Errorf("region %q: end: %w", rs.ID, err)
	}
	cfg := RegionConfig{
		ID:      rs.ID,
		Trigger: rs.Trigger,
		Start:   start,
		End:     end,
		Scrub:   rs.Scrub,
		Pinned:  rs.Pin,
	}
	if err := cfg.validate(); err != nil {
		return RegionConfig{}, err
	}
	return cfg, nil
}

// Thresholds builds the region's step table. Cut i maps to step i except
// the last, which ends the sequence.
func (rs RegionSpec) Thresholds() (ThresholdTable, error) {
	cuts := make([]Threshold, len(rs.Steps))
	for i, p := range rs.Steps {
		step := i
		if i == len(rs.Steps)-1 {
			step = Inactive
		}
		cuts[i] = Threshold{Progress: p, Step: step}
	}
	return NewThresholdTable(cuts...)
}

// CompileChannels resolves property and ease names.
func (rs RegionSpec) CompileChannels() ([]Channel, error) {
	out := make([]Channel, 0, len(rs.Channels))
	for i, cs := range rs.Channels {
		prop, err := ParseProperty(cs.Property)
		if err != nil {
			return nil, fmt.Errorf("channel %d: %w", i, err)
		}
		fn, ok := EaseByName(cs.Ease)
		if !ok {
			return nil, fmt.Errorf("channel %d: unknown ease %q", i, cs.Ease)
		}
		ch := Channel{Target: cs.Target, Property: prop, From: cs.From, To: cs.To, Ease: fn}
		if cs.Window != nil {
			if cs.Window.Start < 0 || cs.Window.End > 1 || cs.Window.End <= cs.Window.Start {
				return nil, fmt.Errorf("channel %d: bad window [%v,%v]", i, cs.Window.Start, cs.Window.End)
			}
			ch.Window = Window{Start: cs.Window.Start, End: cs.Window.End}
		}
		out = append(out, ch)
	}
	return out, nil
}

// SectionBounds lays the sections out for vp, without pin spacing.
func (l *Layout) SectionBounds(vp Viewport) map[string]Rect {
	out := make(map[string]Rect, len(l.Sections))
	y := 0.0
	for _, s := range l.Sections {
		h := s.Height.Resolve(vp)
		out[s.ID] = Rect{X: 0, Y: y, Width: vp.Width, Height: h}
		y += h
	}
	return out
}

// ContentHeight is the laid-out height of all sections, without pin
// spacing.
func (l *Layout) ContentHeight(vp Viewport) float64 {
	var total float64
	for _, s := range l.Sections {
		total += s.Height.Resolve(vp)
	}
	return total
}

// BoundsFor returns a BoundsProvider that lays the sections out for
// whatever viewport vp reports at query time.
func (l *Layout) BoundsFor(vp func() Viewport) BoundsProvider {
	return BoundsFunc(func(id string) (Rect, bool) {
		r, ok := l.SectionBounds(vp())[id]
		return r, ok
	})
}

// Options returns Controller options for the layout: bounds from its
// sections and the reveal policies from its reveal block. vp reports the
// current viewport. Layouts built in code skip Validate, so an unknown
// auto-scroll ease is logged and the default ease kept.
func (l *Layout) Options(vp func() Viewport, logger *zap.Logger) Options {
	opts := Options{
		Bounds:   l.BoundsFor(vp),
		Viewport: Viewport{Width: l.Viewport.Width, Height: l.Viewport.Height},
		Logger:   logger,
	}
	if r := l.Reveal; r != nil {
		opts.ForceRevealDistance = r.ForceDistance
		opts.AutoScrollFraction = r.AutoScroll.Fraction
		opts.AutoScrollDuration = r.AutoScroll.Duration
		if r.AutoScroll.Ease != "" {
			fn, ok := EaseByName(r.AutoScroll.Ease)
			if !ok && logger != nil {
				logger.Warn("unknown auto-scroll ease, using default", zap.String("ease", r.AutoScroll.Ease))
			}
			opts.AutoScrollEase = fn
		}
	}
	return opts
}

// NewController creates a Controller configured from the layout.
func (l *Layout) NewController(logger *zap.Logger) *Controller {
	var c *Controller
	c = NewController(l.Options(func() Viewport { return c.Viewport() }, logger))
	return c
}

// Hooks receive the output of a mounted layout. Either may be nil.
type Hooks struct {
	// Apply receives every changed channel value.
	Apply func(regionID string, ch Channel, value float64)
	// Step receives every step change of a region with a step table.
	Step func(regionID string, step, prev int)
}

// Mounted holds the handles created by Layout.Apply, keyed by region id.
type Mounted struct {
	Regions  map[string]RegionHandle
	Bindings map[string]BindingHandle
	Steps    map[string]*StepTracker
	Reveal   RevealHandle
}

// Apply registers every region of the layout on c, attaches step tables and
// channel bindings, and adds the reveal surface. On error, everything
// registered so far is removed again.
func (l *Layout) Apply(c *Controller, hooks Hooks) (*Mounted, error) {
	m := &Mounted{
		Regions:  make(map[string]RegionHandle, len(l.Regions)),
		Bindings: make(map[string]BindingHandle),
		Steps:    make(map[string]*StepTracker),
	}
	fail := func(err error) (*Mounted, error) {
		m.Unmount(c)
		return nil, err
	}

	for _, rs := range l.Regions {
		cfg, err := rs.Config()
		if err != nil {
			return fail(fmt.Errorf("apply layout: %w", err))
		}
		h, err := c.Register(cfg)
		if err != nil {
			return fail(fmt.Errorf("apply layout: %w", err))
		}
		m.Regions[rs.ID] = h

		if len(rs.Steps) > 0 {
			table, err := rs.Thresholds()
			if err != nil {
				return fail(fmt.Errorf("apply layout: region %q: %w", rs.ID, err))
			}
			id := rs.ID
			st, err := c.AttachSteps(h, table, func(step, prev int) {
				if hooks.Step != nil {
					hooks.Step(id, step, prev)
				}
			})
			if err != nil {
				return fail(fmt.Errorf("apply layout: %w", err))
			}
			m.Steps[rs.ID] = st
		}

		if len(rs.Channels) > 0 {
			chans, err := rs.CompileChannels()
			if err != nil {
				return fail(fmt.Errorf("apply layout: region %q: %w", rs.ID, err))
			}
			id := rs.ID
			bh, err := c.Bind(h, chans, func(ch Channel, v float64) {
				if hooks.Apply != nil {
					hooks.Apply(id, ch, v)
				}
			})
			if err != nil {
				return fail(fmt.Errorf("apply layout: %w", err))
			}
			m.Bindings[rs.ID] = bh
		}
	}

	if r := l.Reveal; r != nil {
		size := r.Size
		h, err := c.AddReveal(RevealConfig{
			Threshold:   r.Threshold,
			Stride:      r.Stride,
			BrushRadius: r.BrushRadius,
			Seed:        r.Seed,
		}, func(vp Viewport) Rect {
			return CenteredSquare(size.Resolve(vp))(vp)
		})
		if err != nil {
			return fail(fmt.Errorf("apply layout: %w", err))
		}
		m.Reveal = h
	}
	return m, nil
}

// Unmount unregisters every region and destroys the reveal surface.
func (m *Mounted) Unmount(c *Controller) {
	for _, h := range m.Regions {
		c.Unregister(h)
	}
	if !m.Reveal.IsZero() {
		c.DestroyReveal(m.Reveal)
	}
}
