// Package ebitenhost runs a scrollstage.Controller inside an [Ebitengine]
// window. The host owns the scroll position: wheel, keyboard and
// engine-initiated scroll requests move it, and every change is reported to
// the controller. Pointer and touch input feed the reveal surfaces, whose
// masks are uploaded to GPU textures and drawn over the page.
//
// [Ebitengine]: https://ebitengine.org
package ebitenhost

import (
	"fmt"
	"image/color"
	"math"
	"slices"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/phanxgames/scrollstage"
)

const (
	maxTouch         = 10 // slot 0 is the mouse
	defaultWheelStep = 60.0
	maskFadeSeconds  = 0.6
	perspective      = 1000.0
)

// RunConfig configures the window and the page drawn by the host.
type RunConfig struct {
	Title         string
	Width, Height int
	ShowFPS       bool
	// Background fills the window each frame. Nil is near-black.
	Background color.Color
	// WheelStep is the scroll distance of one wheel notch in pixels.
	WheelStep float64
	// Layout, when set, bounds the scroll range and draws section guides.
	Layout *scrollstage.Layout
	// Targets places channel targets on screen at rest. Targets without a
	// placement are not drawn.
	Targets map[string]scrollstage.Rect
	// Script ends the run once it is done.
	Script *scrollstage.TestRunner
}

// TargetState is the current visual state of one channel target.
type TargetState struct {
	Opacity float64
	X, Y, Z float64
	Scale   float64
	ScaleY  float64
	RotateX float64
}

func newTargetState() *TargetState {
	return &TargetState{Opacity: 1, Scale: 1, ScaleY: 1}
}

type maskTexture struct {
	img      *ebiten.Image
	w, h     int
	rev      uint64
	uploaded bool
	fade     float64 // seconds since the surface was revealed
	seen     bool
}

// stale reports whether the texture lags the surface revision rev.
func (t *maskTexture) stale(rev uint64) bool {
	return !t.uploaded || t.rev != rev
}

// Host implements ebiten.Game for one Controller.
type Host struct {
	ctrl *scrollstage.Controller
	cfg  RunConfig

	scrollY       float64
	width, height int

	targets map[string]*TargetState
	masks   map[scrollstage.RevealHandle]*maskTexture

	touchIDs  []ebiten.TouchID
	touchMap  [maxTouch]ebiten.TouchID
	touchUsed [maxTouch]bool
	touchLast [maxTouch]scrollstage.Vec2
}

// New creates a host for ctrl. Engine scroll requests are routed to the
// host's scroll position.
func New(ctrl *scrollstage.Controller, cfg RunConfig) *Host {
	if cfg.WheelStep <= 0 {
		cfg.WheelStep = defaultWheelStep
	}
	if cfg.Background == nil {
		cfg.Background = color.RGBA{R: 0x0a, G: 0x0a, B: 0x0f, A: 0xff}
	}
	h := &Host{
		ctrl:    ctrl,
		cfg:     cfg,
		targets: make(map[string]*TargetState),
		masks:   make(map[scrollstage.RevealHandle]*maskTexture),
		scrollY: ctrl.ScrollY(),
	}
	ctrl.OnScrollRequest(h.SetScroll)
	return h
}

// Run opens a window and runs ctrl until the window closes or the script
// finishes.
func Run(ctrl *scrollstage.Controller, cfg RunConfig) error {
	return New(ctrl, cfg).Run()
}

// Run opens a window for the host. Window size defaults to the
// controller's viewport.
func (h *Host) Run() error {
	w, hgt := h.cfg.Width, h.cfg.Height
	if w <= 0 || hgt <= 0 {
		vp := h.ctrl.Viewport()
		w, hgt = int(vp.Width), int(vp.Height)
	}
	if w <= 0 || hgt <= 0 {
		return fmt.Errorf("ebitenhost: invalid window size %dx%d", w, hgt)
	}
	ebiten.SetWindowSize(w, hgt)
	ebiten.SetWindowTitle(h.cfg.Title)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	return ebiten.RunGame(h)
}

// GridTargets places names in a centred grid of cols columns filling the
// given area, in the order given.
func GridTargets(names []string, cols int, area scrollstage.Rect) map[string]scrollstage.Rect {
	out := make(map[string]scrollstage.Rect, len(names))
	if len(names) == 0 {
		return out
	}
	cols = max(1, min(cols, len(names)))
	rows := (len(names) + cols - 1) / cols
	cw, ch := area.Width/float64(cols), area.Height/float64(rows)
	const gap = 0.1
	for i, name := range names {
		col, row := i%cols, i/cols
		out[name] = scrollstage.Rect{
			X:      area.X + float64(col)*cw + cw*gap/2,
			Y:      area.Y + float64(row)*ch + ch*gap/2,
			Width:  cw * (1 - gap),
			Height: ch * (1 - gap),
		}
	}
	return out
}

// Apply records a channel value. Pass it as scrollstage.Hooks.Apply.
func (h *Host) Apply(_ string, ch scrollstage.Channel, v float64) {
	t := h.Target(ch.Target)
	switch ch.Property {
	case scrollstage.PropOpacity:
		t.Opacity = v
	case scrollstage.PropOffsetX:
		t.X = v
	case scrollstage.PropOffsetY:
		t.Y = v
	case scrollstage.PropOffsetZ:
		t.Z = v
	case scrollstage.PropScale:
		t.Scale = v
	case scrollstage.PropScaleY:
		t.ScaleY = v
	case scrollstage.PropRotateX:
		t.RotateX = v
	}
}

// Target returns the state of a target, creating it at rest if needed.
func (h *Host) Target(name string) *TargetState {
	t, ok := h.targets[name]
	if !ok {
		t = newTargetState()
		h.targets[name] = t
	}
	return t
}

// ScrollY returns the host's scroll position.
func (h *Host) ScrollY() float64 {
	return h.scrollY
}

// MaxScroll returns the largest scroll offset, or +Inf without a layout.
func (h *Host) MaxScroll() float64 {
	if h.cfg.Layout == nil {
		return math.Inf(1)
	}
	vp := h.ctrl.Viewport()
	return math.Max(0, h.cfg.Layout.ContentHeight(vp)+h.ctrl.TotalPinSpacing()-vp.Height)
}

// SetScroll moves the page to y, clamped to the scroll range, and reports
// the change to the controller.
func (h *Host) SetScroll(y float64) {
	y = math.Max(0, math.Min(y, h.MaxScroll()))
	if y == h.scrollY {
		return
	}
	h.scrollY = y
	h.ctrl.Scroll(y)
}

// Wheel scrolls by dy wheel notches; positive dy scrolls up, as
// ebiten.Wheel reports it. User scrolling cancels any engine scroll.
func (h *Host) Wheel(dy float64) {
	if dy == 0 {
		return
	}
	h.ctrl.CancelScroll()
	h.SetScroll(h.scrollY - dy*h.cfg.WheelStep)
}

// Update implements ebiten.Game.
func (h *Host) Update() error {
	if h.ctrl.Closed() {
		return ebiten.Termination
	}
	dt := 1.0 / float64(ebiten.TPS())

	_, wy := ebiten.Wheel()
	h.Wheel(wy)
	h.pollKeys()
	h.pollMouse()
	h.pollTouches()

	h.ctrl.Update(dt)
	h.advanceFades(dt)

	if h.cfg.Script != nil && h.cfg.Script.Done() {
		return ebiten.Termination
	}
	return nil
}

func (h *Host) pollKeys() {
	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeyArrowRight):
		h.ctrl.SetUseCase(h.ctrl.UseCase().Next())
	case inpututil.IsKeyJustPressed(ebiten.KeyArrowLeft):
		h.ctrl.SetUseCase(h.ctrl.UseCase().Prev())
	case inpututil.IsKeyJustPressed(ebiten.KeyPageDown), inpututil.IsKeyJustPressed(ebiten.KeySpace):
		h.ctrl.CancelScroll()
		h.SetScroll(h.scrollY + h.ctrl.Viewport().Height*0.9)
	case inpututil.IsKeyJustPressed(ebiten.KeyPageUp):
		h.ctrl.CancelScroll()
		h.SetScroll(h.scrollY - h.ctrl.Viewport().Height*0.9)
	case inpututil.IsKeyJustPressed(ebiten.KeyHome):
		h.SetScroll(0)
	case inpututil.IsKeyJustPressed(ebiten.KeyF12):
		h.ctrl.Snapshot("manual")
	}
}

// pollMouse handles the mouse as pointer 0.
func (h *Host) pollMouse() {
	mx, my := ebiten.CursorPosition()
	pressed := ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft)
	_ = h.ctrl.Pointer(0, float64(mx), float64(my), pressed)
}

// pollTouches handles touches as pointers 1-9.
func (h *Host) pollTouches() {
	h.touchIDs = ebiten.AppendTouchIDs(h.touchIDs[:0])

	var active [maxTouch]bool
	for _, tid := range h.touchIDs {
		slot := h.touchSlot(tid)
		if slot < 0 {
			continue
		}
		active[slot] = true
		tx, ty := ebiten.TouchPosition(tid)
		h.touchLast[slot] = scrollstage.Vec2{X: float64(tx), Y: float64(ty)}
		_ = h.ctrl.Pointer(slot, float64(tx), float64(ty), true)
	}
	h.releaseTouches(active)
}

func (h *Host) releaseTouches(active [maxTouch]bool) {
	for i := 1; i < maxTouch; i++ {
		if h.touchUsed[i] && !active[i] {
			last := h.touchLast[i]
			_ = h.ctrl.Pointer(i, last.X, last.Y, false)
			h.touchUsed[i] = false
			h.touchMap[i] = 0
		}
	}
}

// touchSlot maps a touch to a pointer slot (1-9), allocating one if
// needed. It returns -1 when all slots are taken.
func (h *Host) touchSlot(tid ebiten.TouchID) int {
	for i := 1; i < maxTouch; i++ {
		if h.touchUsed[i] && h.touchMap[i] == tid {
			return i
		}
	}
	for i := 1; i < maxTouch; i++ {
		if !h.touchUsed[i] {
			h.touchUsed[i] = true
			h.touchMap[i] = tid
			return i
		}
	}
	return -1
}

func (h *Host) advanceFades(dt float64) {
	h.ctrl.EachReveal(func(rh scrollstage.RevealHandle, s *scrollstage.RevealSurface, _ scrollstage.Rect) {
		if tex := h.masks[rh]; tex != nil && s.Revealed() {
			tex.fade += dt
		}
	})
}

// Layout implements ebiten.Game. A changed window size resizes the
// controller's viewport.
func (h *Host) Layout(outsideWidth, outsideHeight int) (int, int) {
	if outsideWidth != h.width || outsideHeight != h.height {
		h.width, h.height = outsideWidth, outsideHeight
		h.ctrl.Resize(float64(outsideWidth), float64(outsideHeight))
		// The scroll range may have shrunk.
		h.SetScroll(h.scrollY)
	}
	return outsideWidth, outsideHeight
}

// Draw implements ebiten.Game.
func (h *Host) Draw(screen *ebiten.Image) {
	screen.Fill(h.cfg.Background)
	h.drawSections(screen)
	h.drawTargets(screen)
	h.drawMasks(screen)

	p := h.ctrl.UseCase().Presentation()
	ebitenutil.DebugPrintAt(screen, fmt.Sprintf("%s  %s", p.Code, p.Title), 8, h.height-20)
	if h.cfg.ShowFPS {
		ebitenutil.DebugPrint(screen, fmt.Sprintf("FPS: %.1f\nTPS: %.1f\nY: %.0f", ebiten.ActualFPS(), ebiten.ActualTPS(), h.scrollY))
	}
}

func (h *Host) drawSections(screen *ebiten.Image) {
	if h.cfg.Layout == nil {
		return
	}
	vp := h.ctrl.Viewport()
	guide := color.RGBA{R: 0x30, G: 0x30, B: 0x3a, A: 0xff}
	for _, r := range h.cfg.Layout.SectionBounds(vp) {
		y := float32(r.Y - h.scrollY)
		if y < 0 || y > float32(vp.Height) {
			continue
		}
		vector.StrokeLine(screen, 0, y, float32(vp.Width), y, 1, guide, false)
	}
}

func (h *Host) drawTargets(screen *ebiten.Image) {
	if len(h.cfg.Targets) == 0 {
		return
	}
	names := make([]string, 0, len(h.cfg.Targets))
	for name := range h.cfg.Targets {
		names = append(names, name)
	}
	slices.Sort(names)

	tint := h.ctrl.UseCase().Presentation().ParticleColor
	for _, name := range names {
		t := h.Target(name)
		r := TargetRect(h.cfg.Targets[name], t)
		if t.Opacity <= 0 || r.Width <= 0 || r.Height <= 0 {
			continue
		}
		op := &ebiten.DrawImageOptions{}
		op.GeoM.Scale(r.Width, r.Height)
		op.GeoM.Translate(r.X, r.Y)
		op.ColorScale.ScaleWithColor(color.NRGBA{R: tint.R, G: tint.G, B: tint.B, A: 0xff})
		op.ColorScale.ScaleAlpha(float32(t.Opacity))
		screen.DrawImage(whitePixel(), op)
		ebitenutil.DebugPrintAt(screen, name, int(r.X)+4, int(r.Y)+4)
	}
}

// TargetRect applies a target's state to its rest rectangle: offsets
// translate, scale and depth resize around the centre, and rotation about
// the X axis foreshortens the height.
func TargetRect(rest scrollstage.Rect, t *TargetState) scrollstage.Rect {
	depth := perspective / math.Max(perspective-t.Z, 1)
	sx := t.Scale * depth
	sy := t.Scale * t.ScaleY * depth * math.Abs(math.Cos(t.RotateX*math.Pi/180))
	cx := rest.X + rest.Width/2 + t.X
	cy := rest.Y + rest.Height/2 + t.Y
	w, hgt := rest.Width*sx, rest.Height*sy
	return scrollstage.Rect{X: cx - w/2, Y: cy - hgt/2, Width: w, Height: hgt}
}

func (h *Host) drawMasks(screen *ebiten.Image) {
	for _, tex := range h.masks {
		tex.seen = false
	}
	h.ctrl.EachReveal(func(rh scrollstage.RevealHandle, s *scrollstage.RevealSurface, r scrollstage.Rect) {
		img := s.Image()
		if img == nil {
			return
		}
		w, hgt := s.Size()
		tex := h.masks[rh]
		if tex == nil || tex.w != w || tex.h != hgt {
			if tex != nil {
				tex.img.Deallocate()
			}
			tex = &maskTexture{img: ebiten.NewImage(w, hgt), w: w, h: hgt}
			h.masks[rh] = tex
		}
		tex.seen = true

		alpha := 1.0
		if s.Revealed() {
			alpha = 1 - tex.fade/maskFadeSeconds
			if alpha <= 0 {
				return
			}
		} else {
			tex.fade = 0
			if rev := s.Revision(); tex.stale(rev) {
				if img.Stride == 4*w {
					tex.img.WritePixels(img.Pix[:4*w*hgt])
				} else {
					tex.img.WritePixels(packRows(img.Pix, img.Stride, w, hgt))
				}
				tex.rev, tex.uploaded = rev, true
			}
		}

		op := &ebiten.DrawImageOptions{}
		op.GeoM.Translate(r.X, r.Y)
		op.ColorScale.ScaleAlpha(float32(alpha))
		screen.DrawImage(tex.img, op)
	})
	for rh, tex := range h.masks {
		if !tex.seen {
			tex.img.Deallocate()
			delete(h.masks, rh)
		}
	}
}

// packRows copies a strided RGBA buffer into a tight one.
func packRows(pix []byte, stride, w, hgt int) []byte {
	out := make([]byte, 4*w*hgt)
	for y := 0; y < hgt; y++ {
		copy(out[y*4*w:(y+1)*4*w], pix[y*stride:y*stride+4*w])
	}
	return out
}

var white *ebiten.Image

func whitePixel() *ebiten.Image {
	if white == nil {
		white = ebiten.NewImage(1, 1)
		white.Fill(color.White)
	}
	return white
}
