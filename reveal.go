package scrollstage

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"
	"math/rand/v2"
	"time"

	"github.com/fogleman/gg"
	"go.uber.org/zap"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/vector"
)

const (
	// DefaultRevealThreshold is the sampled transparent fraction above which
	// the surface completes. It includes the ~21.5% of a square canvas that
	// lies outside the inscribed circle, so it corresponds to clearing roughly
	// 36% of the circle.
	DefaultRevealThreshold = 0.5
	// DefaultSampleStride is the linear pixel stride used by SampleCoverage.
	DefaultSampleStride = 50
	// DefaultBrushRadius is the cut radius used by PointerTracker.
	DefaultBrushRadius = 20.0

	// transparentAlpha is the alpha below which a sample counts as cleared.
	// Anti-aliased brush edges leave faint residue, hence not zero.
	transparentAlpha = 50

	noiseCell           = 2
	noiseDensity        = 0.8 // a cell is speckled when rand > noiseDensity
	securityLineSpacing = 20
)

// errNoSurface is returned by operations that need pixels on a degraded
// surface.
var errNoSurface = errors.New("reveal surface has no drawing surface")

// Segment is a pointer movement from the previous to the current position,
// in surface-local pixels.
type Segment struct {
	From, To Vec2
}

// RevealConfig tunes a RevealSurface. Zero fields take the defaults.
type RevealConfig struct {
	// Threshold is the completion fraction; see DefaultRevealThreshold.
	Threshold float64
	// Stride is the linear sampling stride in pixels. It must stay constant
	// for the lifetime of a surface for Threshold to keep its meaning.
	Stride int
	// BrushRadius is the cut radius used for pointer strokes.
	BrushRadius float64
	// Seed seeds the cover's micro-texture. Zero picks a per-session seed.
	Seed uint64
	// Acquire allocates the drawing surface. A nil Acquire uses
	// image.NewRGBA. An error puts the surface in degraded mode.
	Acquire func(w, h int) (*image.RGBA, error)
}

func (cfg RevealConfig) withDefaults() RevealConfig {
	if cfg.Threshold <= 0 || cfg.Threshold >= 1 {
		cfg.Threshold = DefaultRevealThreshold
	}
	if cfg.Stride <= 0 {
		cfg.Stride = DefaultSampleStride
	}
	if cfg.BrushRadius <= 0 {
		cfg.BrushRadius = DefaultBrushRadius
	}
	if cfg.Seed == 0 {
		cfg.Seed = uint64(time.Now().UnixNano())
	}
	if cfg.Acquire == nil {
		cfg.Acquire = func(w, h int) (*image.RGBA, error) {
			return image.NewRGBA(image.Rect(0, 0, w, h)), nil
		}
	}
	return cfg
}

// RevealSurface is a scratch-to-reveal mask over a circular canvas. Gestures
// cut transparent strokes into an opaque cover; a strided alpha sample
// estimates how much has been cleared, and crossing the threshold completes
// the surface exactly once.
//
// If the drawing surface cannot be acquired the surface is degraded: every
// gesture and sample is a no-op and the phase stays Unrevealed. The
// Controller still lets such a page be revealed by force.
type RevealSurface struct {
	cfg    RevealConfig
	rng    *rand.Rand
	logger *zap.Logger

	width, height int
	mask          *image.RGBA // nil when degraded
	rev           uint64      // bumped on every change to mask pixels
	phase         Phase
	sampled       float64

	onComplete func(manual bool)
	destroyed  bool

	raster *vector.Rasterizer
	brush  *image.Alpha
}

// NewRevealSurface returns a surface with no mask yet. Call InitializeMask
// before use.
func NewRevealSurface(cfg RevealConfig) *RevealSurface {
	cfg = cfg.withDefaults()
	return &RevealSurface{
		cfg:    cfg,
		rng:    rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15)),
		logger: zap.NewNop(),
		raster: vector.NewRasterizer(0, 0),
	}
}

// OnComplete sets the completion callback. manual is true when a gesture
// completed the surface and false for ForceReveal.
func (s *RevealSurface) OnComplete(fn func(manual bool)) {
	if s.destroyed {
		return
	}
	s.onComplete = fn
}

// InitializeMask (re)allocates a w×h surface and paints the cover: a silver
// diagonal gradient, faint vertical security lines, session-random speckle,
// and a hint label, all clipped to the inscribed circle. The phase resets to
// Unrevealed unless the surface is already Revealed, which is terminal.
func (s *RevealSurface) InitializeMask(w, h int) {
	if s.destroyed {
		return
	}
	s.width, s.height = w, h
	s.mask = nil

	if w <= 0 || h <= 0 {
		s.logger.Warn("reveal surface degraded", zap.Int("width", w), zap.Int("height", h))
		return
	}
	mask, err := s.cfg.Acquire(w, h)
	if err != nil || mask == nil || mask.Rect != image.Rect(0, 0, w, h) {
		s.logger.Warn("reveal surface degraded", zap.Int("width", w), zap.Int("height", h), zap.Error(err))
		return
	}
	s.mask = mask
	s.rev++

	if s.phase == PhaseRevealed {
		clearRGBA(mask)
		return
	}
	s.paintCover()
	s.phase = PhaseUnrevealed
	s.sampled = 0
}

func clearRGBA(m *image.RGBA) {
	for y := 0; y < m.Rect.Dy(); y++ {
		row := m.Pix[y*m.Stride : y*m.Stride+4*m.Rect.Dx()]
		clear(row)
	}
}

func (s *RevealSurface) paintCover() {
	clearRGBA(s.mask)
	w, h := float64(s.width), float64(s.height)

	dc := gg.NewContextForRGBA(s.mask)
	dc.DrawCircle(w/2, h/2, math.Min(w, h)/2)
	dc.Clip()

	grad := gg.NewLinearGradient(0, 0, w, h)
	grad.AddColorStop(0, color.RGBA{0xE0, 0xE0, 0xE0, 0xFF})
	grad.AddColorStop(0.5, color.RGBA{0xC0, 0xC0, 0xC0, 0xFF})
	grad.AddColorStop(1, color.RGBA{0xA0, 0xA0, 0xA0, 0xFF})
	dc.SetFillStyle(grad)
	dc.DrawRectangle(0, 0, w, h)
	dc.Fill()

	for x := 0; x < s.width; x += noiseCell {
		for y := 0; y < s.height; y += noiseCell {
			if s.rng.Float64() > noiseDensity {
				dc.SetRGBA(1, 1, 1, s.rng.Float64()*0.1)
				dc.DrawRectangle(float64(x), float64(y), noiseCell, noiseCell)
				dc.Fill()
			}
		}
	}

	dc.SetRGBA(1, 1, 1, 0.1)
	dc.SetLineWidth(1)
	for x := 0; x < s.width; x += securityLineSpacing {
		dc.DrawLine(float64(x), 0, float64(x), h)
	}
	dc.Stroke()

	dc.SetFontFace(basicfont.Face7x13)
	dc.SetRGBA(0, 0, 0, 0.3)
	dc.DrawStringAnchored("SCRATCH", w/2, h/2-10, 0.5, 0.5)
	dc.DrawStringAnchored("TO REVEAL", w/2, h/2+10, 0.5, 0.5)
}

// Arm records pointer contact: Unrevealed moves to Arming.
func (s *RevealSurface) Arm() {
	if s.destroyed || s.mask == nil {
		return
	}
	if s.phase == PhaseUnrevealed {
		s.phase = PhaseArming
	}
}

// Erase cuts a capsule of the given radius along seg (destination-out), then
// samples coverage. The cut is continuous between the two endpoints so fast
// pointer motion leaves no gaps. Ignored once Revealed.
func (s *RevealSurface) Erase(seg Segment, radius float64) {
	if s.destroyed || s.mask == nil || s.phase == PhaseRevealed || radius <= 0 {
		return
	}

	minX := int(math.Floor(math.Min(seg.From.X, seg.To.X) - radius))
	minY := int(math.Floor(math.Min(seg.From.Y, seg.To.Y) - radius))
	maxX := int(math.Ceil(math.Max(seg.From.X, seg.To.X) + radius))
	maxY := int(math.Ceil(math.Max(seg.From.Y, seg.To.Y) + radius))
	box := image.Rect(minX, minY, maxX, maxY).Intersect(image.Rect(0, 0, s.width, s.height))

	s.phase = PhaseSampling
	if !box.Empty() {
		s.cut(seg, radius, box)
		s.rev++
	}
	s.SampleCoverage()
}

// cut rasterizes the capsule into the brush buffer covering box and applies
// it to the mask: every premultiplied channel is scaled by 1-coverage.
func (s *RevealSurface) cut(seg Segment, radius float64, box image.Rectangle) {
	bw, bh := box.Dx(), box.Dy()
	if s.brush == nil || cap(s.brush.Pix) < bw*bh {
		s.brush = image.NewAlpha(image.Rect(0, 0, bw, bh))
	} else {
		s.brush.Pix = s.brush.Pix[:bw*bh]
		s.brush.Stride = bw
		s.brush.Rect = image.Rect(0, 0, bw, bh)
		clear(s.brush.Pix)
	}

	s.raster.Reset(bw, bh)
	ox, oy := float64(box.Min.X), float64(box.Min.Y)
	capsulePath(s.raster,
		Vec2{seg.From.X - ox, seg.From.Y - oy},
		Vec2{seg.To.X - ox, seg.To.Y - oy},
		radius)
	s.raster.Draw(s.brush, s.brush.Bounds(), image.Opaque, image.Point{})

	for y := 0; y < bh; y++ {
		row := s.mask.Pix[(box.Min.Y+y)*s.mask.Stride+box.Min.X*4:]
		cov := s.brush.Pix[y*bw : y*bw+bw]
		for x, c := range cov {
			if c == 0 {
				continue
			}
			keep := uint32(255 - c)
			px := row[x*4 : x*4+4]
			for i := range px {
				px[i] = uint8((uint32(px[i])*keep + 127) / 255)
			}
		}
	}
}

// kappa places cubic control points for a quarter circle.
const kappa = 0.5522847498

// capsulePath adds a stadium shape (a segment swept by a disc) to z with a
// single consistent winding. A zero-length segment is a disc.
func capsulePath(z *vector.Rasterizer, p0, p1 Vec2, r float64) {
	dx, dy := p1.X-p0.X, p1.Y-p0.Y
	l := math.Hypot(dx, dy)
	if l < 1e-9 {
		dx, dy = 1, 0
	} else {
		dx, dy = dx/l, dy/l
	}
	d := Vec2{dx, dy}
	n := Vec2{-dy, dx}
	neg := func(v Vec2) Vec2 { return Vec2{-v.X, -v.Y} }

	at := func(c, u Vec2) (float32, float32) {
		return float32(c.X + r*u.X), float32(c.Y + r*u.Y)
	}
	quarter := func(c, u, v Vec2) {
		c1x, c1y := float32(c.X+r*(u.X+kappa*v.X)), float32(c.Y+r*(u.Y+kappa*v.Y))
		c2x, c2y := float32(c.X+r*(v.X+kappa*u.X)), float32(c.Y+r*(v.Y+kappa*u.Y))
		ex, ey := at(c, v)
		z.CubeTo(c1x, c1y, c2x, c2y, ex, ey)
	}

	z.MoveTo(at(p0, n))
	z.LineTo(at(p1, n))
	quarter(p1, n, d)
	quarter(p1, d, neg(n))
	z.LineTo(at(p0, neg(n)))
	quarter(p0, neg(n), neg(d))
	quarter(p0, neg(d), n)
	z.ClosePath()
}

// SampleCoverage estimates the cleared fraction by reading the alpha of every
// Stride-th pixel in row-major order. The cost is O(pixels/Stride). If a cut
// has been made and the estimate exceeds the threshold, the surface
// completes as a manual reveal.
func (s *RevealSurface) SampleCoverage() float64 {
	if s.destroyed || s.mask == nil {
		return s.sampled
	}
	s.sampled = sampleAlpha(s.mask, s.cfg.Stride)
	if s.phase == PhaseSampling && s.sampled > s.cfg.Threshold {
		s.complete(true)
	}
	return s.sampled
}

// sampleAlpha returns the fraction of strided samples whose alpha is below
// transparentAlpha.
func sampleAlpha(m *image.RGBA, stride int) float64 {
	w, h := m.Rect.Dx(), m.Rect.Dy()
	n := w * h
	if n == 0 || stride <= 0 {
		return 0
	}
	var total, cleared int
	for k := 0; k < n; k += stride {
		x, y := k%w, k/w
		if m.Pix[y*m.Stride+x*4+3] < transparentAlpha {
			cleared++
		}
		total++
	}
	return float64(cleared) / float64(total)
}

// ForceReveal completes the surface without sampling, as a non-manual
// reveal. It is idempotent and a no-op on a degraded or destroyed surface.
func (s *RevealSurface) ForceReveal() {
	if s.destroyed || s.mask == nil {
		return
	}
	s.complete(false)
}

func (s *RevealSurface) complete(manual bool) {
	if s.phase == PhaseRevealed {
		return
	}
	s.phase = PhaseRevealed
	if fn := s.onComplete; fn != nil {
		fn(manual)
	}
}

// Destroy detaches the completion callback and releases the mask. Every
// later call is a no-op.
func (s *RevealSurface) Destroy() {
	s.destroyed = true
	s.onComplete = nil
	s.mask = nil
	s.brush = nil
}

// Phase returns the current lifecycle phase.
func (s *RevealSurface) Phase() Phase {
	return s.phase
}

// Revealed reports whether the surface reached its terminal phase.
func (s *RevealSurface) Revealed() bool {
	return s.phase == PhaseRevealed
}

// Revision changes whenever the mask pixels change: on every
// initialization and every cut. Hosts compare it to skip re-uploads.
func (s *RevealSurface) Revision() uint64 {
	return s.rev
}

// Degraded reports whether the surface has no drawing surface.
func (s *RevealSurface) Degraded() bool {
	return s.mask == nil
}

// SampledFraction returns the most recent coverage estimate.
func (s *RevealSurface) SampledFraction() float64 {
	return s.sampled
}

// Threshold returns the completion threshold.
func (s *RevealSurface) Threshold() float64 {
	return s.cfg.Threshold
}

// Stride returns the sampling stride.
func (s *RevealSurface) Stride() int {
	return s.cfg.Stride
}

// BrushRadius returns the configured cut radius.
func (s *RevealSurface) BrushRadius() float64 {
	return s.cfg.BrushRadius
}

// Size returns the mask dimensions.
func (s *RevealSurface) Size() (w, h int) {
	return s.width, s.height
}

// Image returns the mask pixels (premultiplied RGBA) for rendering, or nil
// when degraded. Callers must not modify it.
func (s *RevealSurface) Image() *image.RGBA {
	return s.mask
}

// WritePNG encodes the current mask as PNG.
func (s *RevealSurface) WritePNG(w io.Writer) error {
	if s.mask == nil {
		return errNoSurface
	}
	return png.Encode(w, s.mask)
}
