package scrollstage

import (
	"errors"
	"image"
	"testing"
)

// sections is a test BoundsProvider backed by a map.
type sections map[string]Rect

func (s sections) Bounds(id string) (Rect, bool) {
	r, ok := s[id]
	return r, ok
}

func newTestController(b sections) *Controller {
	return NewController(Options{Bounds: b, Viewport: Viewport{Width: 1000, Height: 800}})
}

func mustRegister(t *testing.T, c *Controller, cfg RegionConfig) RegionHandle {
	t.Helper()
	h, err := c.Register(cfg)
	if err != nil {
		t.Fatalf("Register(%s): %v", cfg.ID, err)
	}
	return h
}

type eventRecorder struct{ events []Event }

func (r *eventRecorder) EmitEvent(ev Event) { r.events = append(r.events, ev) }

func (r *eventRecorder) count(typ EventType) int {
	n := 0
	for _, ev := range r.events {
		if ev.Type == typ {
			n++
		}
	}
	return n
}

func TestPinnedRegionHalfway(t *testing.T) {
	c := newTestController(sections{"phone": {Y: 0, Width: 1000, Height: 800}})
	h := mustRegister(t, c, RegionConfig{
		ID: "onboarding", Trigger: "phone",
		Start: MustMarker("top top"), End: MustMarker("+=1000px"),
		Pinned: true,
	})
	var got []float64
	if err := c.OnProgress(h, func(p float64) { got = append(got, p) }); err != nil {
		t.Fatal(err)
	}

	c.Scroll(500)
	if len(got) != 1 || got[0] != 0.5 {
		t.Fatalf("progress = %v, want [0.5]", got)
	}
	if off := c.PinOffset(h); off != 500 {
		t.Errorf("PinOffset = %v, want 500", off)
	}

	c.Scroll(2000)
	if p, _ := c.Progress(h); p != 1 {
		t.Errorf("progress past end = %v, want 1", p)
	}
	if off := c.PinOffset(h); off != 1000 {
		t.Errorf("PinOffset past end = %v, want 1000", off)
	}
}

func TestProgressMonotonicAndClamped(t *testing.T) {
	c := newTestController(sections{"s": {Y: 1000, Height: 400}})
	h := mustRegister(t, c, RegionConfig{ID: "r", Trigger: "s", Start: MustMarker("top bottom"), End: MustMarker("bottom top")})
	// start = 1000-800 = 200, end = 1400.
	prev := -1.0
	for y := 0.0; y <= 2000; y += 50 {
		c.Scroll(y)
		p, ok := c.Progress(h)
		if !ok {
			t.Fatal("no progress")
		}
		if p < prev || p < 0 || p > 1 {
			t.Fatalf("progress %v at %v after %v", p, y, prev)
		}
		prev = p
	}
	start, end, ok := c.Span(h)
	if !ok || start != 200 || end != 1400 {
		t.Errorf("Span = %v, %v, %v", start, end, ok)
	}
}

func TestProgressEmitsOnlyOnChange(t *testing.T) {
	c := newTestController(nil)
	h := mustRegister(t, c, RegionConfig{ID: "hero", Start: MustMarker("0"), End: MustMarker("500")})
	calls := 0
	c.OnProgress(h, func(float64) { calls++ })

	c.Scroll(0)   // first resolution emits 0
	c.Scroll(0)   // unchanged
	c.Scroll(-10) // clamps to 0, unchanged
	c.Scroll(250)
	c.Scroll(600)
	c.Scroll(700) // clamps to 1, unchanged
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestProgressListenersFireInOrder(t *testing.T) {
	c := newTestController(nil)
	h := mustRegister(t, c, RegionConfig{ID: "hero", Start: MustMarker("0"), End: MustMarker("500")})
	var got []string
	c.OnProgress(h, func(float64) { got = append(got, "a") })
	c.OnProgress(h, func(float64) { got = append(got, "b") })

	c.Scroll(250)
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("listener calls = %v, want [a b]", got)
	}
	if err := c.OnProgress(RegionHandle{}, func(float64) {}); !errors.Is(err, ErrUnknownHandle) {
		t.Errorf("OnProgress(zero handle) err = %v, want ErrUnknownHandle", err)
	}
}

func TestThresholdScenario(t *testing.T) {
	c := newTestController(nil)
	h := mustRegister(t, c, RegionConfig{ID: "steps", Start: MustMarker("0"), End: MustMarker("1000")})
	var steps []int
	if _, err := c.AttachSteps(h, OnboardingThresholds(), func(step, prev int) { steps = append(steps, step) }); err != nil {
		t.Fatal(err)
	}

	for _, y := range []float64{200, 300, 970, 50} {
		c.Scroll(y)
	}
	want := []int{0, 1, Inactive}
	if len(steps) != len(want) {
		t.Fatalf("steps = %v, want %v", steps, want)
	}
	for i := range want {
		if steps[i] != want[i] {
			t.Errorf("step %d = %d, want %d", i, steps[i], want[i])
		}
	}
}

func TestAttachStepsClassifiesCurrentProgress(t *testing.T) {
	c := newTestController(nil)
	h := mustRegister(t, c, RegionConfig{ID: "steps", Start: MustMarker("0"), End: MustMarker("100")})
	c.Scroll(50)
	var got []int
	st, err := c.AttachSteps(h, OnboardingThresholds(), func(step, _ int) { got = append(got, step) })
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0] != 2 || st.Current() != 2 {
		t.Errorf("immediate classification = %v (current %d), want [2]", got, st.Current())
	}
}

func TestUnregisterStopsCallbacks(t *testing.T) {
	c := newTestController(nil)
	h := mustRegister(t, c, RegionConfig{ID: "r", Start: MustMarker("0"), End: MustMarker("100")})
	progress, steps, applied := 0, 0, 0
	c.OnProgress(h, func(float64) { progress++ })
	c.AttachSteps(h, OnboardingThresholds(), func(int, int) { steps++ })
	c.Bind(h, []Channel{{From: 0, To: 1}}, func(Channel, float64) { applied++ })

	c.Scroll(50)
	c.Unregister(h)
	p0, s0, a0 := progress, steps, applied

	c.Scroll(20)
	c.Scroll(80)
	c.Update(1)
	if progress != p0 || steps != s0 || applied != a0 {
		t.Errorf("callbacks after Unregister: progress %d->%d steps %d->%d applied %d->%d",
			p0, progress, s0, steps, a0, applied)
	}
	if err := c.OnProgress(h, func(float64) {}); !errors.Is(err, ErrUnknownHandle) {
		t.Errorf("OnProgress on stale handle err = %v", err)
	}
	c.Unregister(h) // stale, no-op
}

func TestUnregisterFromOwnCallback(t *testing.T) {
	c := newTestController(nil)
	h := mustRegister(t, c, RegionConfig{ID: "r", Start: MustMarker("0"), End: MustMarker("100")})
	first, second, steps := 0, 0, 0
	c.OnProgress(h, func(float64) {
		first++
		c.Unregister(h)
	})
	c.OnProgress(h, func(float64) { second++ })
	c.AttachSteps(h, OnboardingThresholds(), func(int, int) { steps++ })

	c.Scroll(50)
	if first != 1 || second != 0 || steps != 0 {
		t.Errorf("first=%d second=%d steps=%d, want 1 0 0", first, second, steps)
	}
}

func TestStaleHandleAfterSlotReuse(t *testing.T) {
	c := newTestController(nil)
	old := mustRegister(t, c, RegionConfig{ID: "a", Start: MustMarker("0"), End: MustMarker("100")})
	c.Unregister(old)
	fresh := mustRegister(t, c, RegionConfig{ID: "b", Start: MustMarker("0"), End: MustMarker("100")})
	if old == fresh {
		t.Fatal("reused slot handed out an equal handle")
	}
	c.Unregister(old)
	c.Scroll(50)
	if _, ok := c.Progress(fresh); !ok {
		t.Error("stale Unregister removed the new region")
	}
}

func TestRegisterRejectsInvalid(t *testing.T) {
	c := newTestController(nil)
	tests := []struct {
		name string
		cfg  RegionConfig
	}{
		{"empty id", RegionConfig{Start: MustMarker("0"), End: MustMarker("1")}},
		{"negative scrub", RegionConfig{ID: "r", Start: MustMarker("0"), End: MustMarker("1"), Scrub: -1}},
		{"relative start", RegionConfig{ID: "r", Trigger: "t", Start: MustMarker("+=10"), End: MustMarker("+=20")}},
		{"anchored without trigger", RegionConfig{ID: "r", Start: MustMarker("top top"), End: MustMarker("+=20")}},
		{"end before start", RegionConfig{ID: "r", Start: MustMarker("500"), End: MustMarker("100")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := c.Register(tt.cfg); !errors.Is(err, ErrInvalidRegion) {
				t.Errorf("err = %v, want ErrInvalidRegion", err)
			}
		})
	}
}

func TestPinSpacingPushesLaterRegions(t *testing.T) {
	b := sections{
		"phone":    {Y: 0, Width: 1000, Height: 800},
		"features": {Y: 800, Width: 1000, Height: 800},
	}
	c := newTestController(b)
	mustRegister(t, c, RegionConfig{ID: "pin", Trigger: "phone", Start: MustMarker("top top"), End: MustMarker("+=500%"), Pinned: true})
	f := mustRegister(t, c, RegionConfig{ID: "features", Trigger: "features", Start: MustMarker("top bottom"), End: MustMarker("bottom top")})

	c.Scroll(0)
	start, end, ok := c.Span(f)
	if !ok {
		t.Fatal("features span unresolved")
	}
	// Unpinned layout: start 0, end 1600. The pin adds 5 viewports.
	if start != 4000 || end != 5600 {
		t.Errorf("features span = [%v, %v], want [4000, 5600]", start, end)
	}
	if got := c.TotalPinSpacing(); got != 4000 {
		t.Errorf("TotalPinSpacing = %v, want 4000", got)
	}
}

func TestResizeRecomputesBeforeEmit(t *testing.T) {
	c := newTestController(sections{"phone": {Y: 0, Height: 800}})
	h := mustRegister(t, c, RegionConfig{ID: "pin", Trigger: "phone", Start: MustMarker("top top"), End: MustMarker("+=100%")})
	var got []float64
	c.OnProgress(h, func(p float64) { got = append(got, p) })

	c.Scroll(400) // 400/800
	c.Resize(1000, 400)
	if len(got) != 2 || got[0] != 0.5 || got[1] != 1 {
		t.Errorf("progress = %v, want [0.5 1]", got)
	}
}

func TestMissingTriggerFreezesBounds(t *testing.T) {
	b := sections{"s": {Y: 1000, Height: 400}}
	c := newTestController(b)
	h := mustRegister(t, c, RegionConfig{ID: "r", Trigger: "s", Start: MustMarker("top top"), End: MustMarker("bottom top")})
	c.Scroll(1200)

	delete(b, "s")
	c.InvalidateLayout()
	c.Scroll(1300)
	p, ok := c.Progress(h)
	if !ok || p != 0.75 {
		t.Errorf("progress with frozen bounds = %v, %v, want 0.75", p, ok)
	}
}

func TestNeverSeenTriggerStaysInactive(t *testing.T) {
	c := newTestController(sections{})
	h := mustRegister(t, c, RegionConfig{ID: "r", Trigger: "ghost", Start: MustMarker("top top"), End: MustMarker("bottom top")})
	calls := 0
	c.OnProgress(h, func(float64) { calls++ })
	c.Scroll(500)
	if _, ok := c.Progress(h); ok || calls != 0 {
		t.Errorf("unmeasured region emitted (calls %d)", calls)
	}
	if c.PinOffset(h) != 0 {
		t.Error("unmeasured region has pin offset")
	}
}

func TestBindingScrubAdvancesOnUpdate(t *testing.T) {
	c := newTestController(nil)
	h := mustRegister(t, c, RegionConfig{ID: "r", Start: MustMarker("0"), End: MustMarker("100"), Scrub: 1})
	var last float64
	bh, err := c.Bind(h, []Channel{{From: 0, To: 100}}, func(_ Channel, v float64) { last = v })
	if err != nil {
		t.Fatal(err)
	}
	c.Scroll(0)
	c.Scroll(100)
	if last != 0 {
		t.Fatalf("scrubbed value moved before Update: %v", last)
	}
	c.Update(0.1)
	if last <= 0 || last >= 100 {
		t.Errorf("value after Update = %v", last)
	}
	if b := c.Binding(bh); b == nil || b.Settled() {
		t.Error("binding should be live and unsettled")
	}

	c.Unbind(bh)
	frozen := last
	c.Update(5)
	if last != frozen {
		t.Error("unbound binding kept applying")
	}
	if c.Binding(bh) != nil {
		t.Error("Binding after Unbind should be nil")
	}
}

func TestDoubleForceRevealSingleEvent(t *testing.T) {
	c := newTestController(nil)
	if _, err := c.AddReveal(RevealConfig{Seed: 1}, CenteredSquare(300)); err != nil {
		t.Fatal(err)
	}
	var events []RevealEvent
	c.OnReveal(func(ev RevealEvent) { events = append(events, ev) })

	c.ForceReveal()
	c.ForceReveal()
	if len(events) != 1 {
		t.Fatalf("events = %d, want 1", len(events))
	}
	if events[0].Manual {
		t.Error("forced reveal reported manual")
	}
}

func TestScrollDistanceForcesReveal(t *testing.T) {
	c := newTestController(nil)
	h, _ := c.AddReveal(RevealConfig{Seed: 1}, CenteredSquare(300))
	count := 0
	c.OnReveal(func(RevealEvent) { count++ })

	c.Scroll(40)
	if c.Revealed() {
		t.Fatal("revealed below the force distance")
	}
	c.Scroll(60)
	c.Scroll(500)
	if count != 1 || !c.Revealed() || c.RevealedManually() {
		t.Errorf("count=%d revealed=%v manual=%v", count, c.Revealed(), c.RevealedManually())
	}
	if !c.Reveal(h).Revealed() {
		t.Error("surface not completed by forced reveal")
	}
	if c.ScrollAnimating() {
		t.Error("forced reveal started an auto-scroll")
	}
}

func TestNegativeForceDistanceDisables(t *testing.T) {
	c := NewController(Options{ForceRevealDistance: -1, Viewport: Viewport{Width: 800, Height: 600}})
	c.Scroll(5000)
	if c.Revealed() {
		t.Error("reveal forced with force distance disabled")
	}
}

func TestDegradedSurfaceStillForceReveals(t *testing.T) {
	c := newTestController(nil)
	h, _ := c.AddReveal(RevealConfig{
		Acquire: func(w, h int) (*image.RGBA, error) { return nil, errors.New("no surface") },
	}, CenteredSquare(300))
	if !c.Reveal(h).Degraded() {
		t.Fatal("surface should be degraded")
	}
	var events []RevealEvent
	c.OnReveal(func(ev RevealEvent) { events = append(events, ev) })
	c.ForceReveal()
	if len(events) != 1 || events[0].Manual {
		t.Errorf("events = %+v, want one non-manual reveal", events)
	}
}

func TestRecoveredSurfaceStaysRevealed(t *testing.T) {
	c := newTestController(nil)
	fail := true
	h, _ := c.AddReveal(RevealConfig{
		Seed: 3,
		Acquire: func(w, h int) (*image.RGBA, error) {
			if fail {
				return nil, errors.New("no surface")
			}
			return image.NewRGBA(image.Rect(0, 0, w, h)), nil
		},
	}, CenteredSquare(300))
	reveals := 0
	c.OnReveal(func(RevealEvent) { reveals++ })
	c.ForceReveal()

	fail = false
	c.Resize(1024, 768)
	if reveals != 1 {
		t.Errorf("reveal events = %d, want 1", reveals)
	}

	s := c.Reveal(h)
	if s.Degraded() {
		t.Fatal("surface still degraded after acquisition succeeded")
	}
	if !s.Revealed() {
		t.Errorf("phase = %v, want revealed", s.Phase())
	}
	if a := s.Image().RGBAAt(150, 150).A; a != 0 {
		t.Errorf("center alpha = %d, want a cleared mask", a)
	}
}

func TestManualRevealAutoScrolls(t *testing.T) {
	c := NewController(Options{Viewport: Viewport{Width: 800, Height: 600}})
	h, err := c.AddReveal(RevealConfig{Seed: 3}, CenteredSquare(300))
	if err != nil {
		t.Fatal(err)
	}
	var requests []float64
	c.OnScrollRequest(func(y float64) { requests = append(requests, y) })
	var events []RevealEvent
	c.OnReveal(func(ev RevealEvent) { events = append(events, ev) })

	// Surface origin is (250, 150). Start in the middle and zigzag over it.
	c.PointerDown(0, 400, 300)
	for y := 0.0; y <= 300; y += 20 {
		c.PointerMove(0, 230, 150+y)
		c.PointerMove(0, 570, 150+y)
	}
	c.PointerUp(0)

	if len(events) != 1 || !events[0].Manual {
		t.Fatalf("events = %+v, want one manual reveal", events)
	}
	if !c.Reveal(h).Revealed() {
		t.Error("surface not revealed")
	}
	if !c.ScrollAnimating() {
		t.Fatal("manual reveal did not start the auto-scroll")
	}

	c.Update(0.75)
	if len(requests) != 1 || requests[0] <= 0 || requests[0] >= 180 {
		t.Fatalf("mid-animation requests = %v", requests)
	}
	c.Update(1)
	if last := requests[len(requests)-1]; last != 180 {
		t.Errorf("final scroll request = %v, want 180", last)
	}
	if c.ScrollAnimating() {
		t.Error("auto-scroll still running after its duration")
	}
}

func TestResizeReinitializesSurface(t *testing.T) {
	c := NewController(Options{Viewport: Viewport{Width: 800, Height: 600}})
	h, _ := c.AddReveal(RevealConfig{Seed: 3}, func(vp Viewport) Rect {
		return Rect{Width: vp.Width / 4, Height: vp.Width / 4}
	})
	s := c.Reveal(h)
	if w, _ := s.Size(); w != 200 {
		t.Fatalf("initial width = %d", w)
	}
	s.Arm()
	c.Resize(400, 600)
	if w, _ := s.Size(); w != 100 {
		t.Errorf("width after resize = %d, want 100", w)
	}
	if s.Phase() != PhaseUnrevealed {
		t.Errorf("phase after reinit = %v", s.Phase())
	}
}

func TestDestroyRevealDetaches(t *testing.T) {
	c := newTestController(nil)
	h, _ := c.AddReveal(RevealConfig{Seed: 1}, CenteredSquare(300))
	s := c.Reveal(h)
	c.DestroyReveal(h)
	if c.Reveal(h) != nil {
		t.Error("Reveal on destroyed handle should be nil")
	}
	s.ForceReveal()
	if c.Revealed() {
		t.Error("destroyed surface still revealed the page")
	}
}

func TestEventSinkMirrorsCallbacks(t *testing.T) {
	c := newTestController(nil)
	rec := &eventRecorder{}
	c.SetEventSink(rec)
	h := mustRegister(t, c, RegionConfig{ID: "r", Start: MustMarker("0"), End: MustMarker("1000")})
	c.AttachSteps(h, OnboardingThresholds(), nil)
	c.SetUseCase(UseCaseFashion)
	c.Scroll(200) // progress 0.2, step 0, also forces the reveal
	c.ScrollTo(0, 0, nil)

	if n := rec.count(EventProgress); n != 1 {
		t.Errorf("progress events = %d", n)
	}
	if n := rec.count(EventStepChange); n != 1 {
		t.Errorf("step events = %d", n)
	}
	if n := rec.count(EventReveal); n != 1 {
		t.Errorf("reveal events = %d", n)
	}
	if n := rec.count(EventUseCaseChange); n != 1 {
		t.Errorf("use case events = %d", n)
	}
	if n := rec.count(EventScrollRequest); n != 1 {
		t.Errorf("scroll request events = %d", n)
	}
	for _, ev := range rec.events {
		if ev.Type == EventProgress && (ev.RegionID != "r" || ev.Progress != 0.2 || ev.Region != h) {
			t.Errorf("progress event = %+v", ev)
		}
	}
}

func TestUseCaseChange(t *testing.T) {
	c := newTestController(nil)
	var got [][2]UseCase
	c.OnUseCaseChange(func(cur, prev UseCase) { got = append(got, [2]UseCase{cur, prev}) })
	c.SetUseCase(UseCaseIndustrial) // already selected
	c.SetUseCase(UseCaseArt)
	c.SetUseCase(UseCase(42))
	if len(got) != 1 || got[0] != [2]UseCase{UseCaseArt, UseCaseIndustrial} {
		t.Errorf("changes = %v", got)
	}
	if c.UseCase() != UseCaseArt {
		t.Errorf("UseCase = %v", c.UseCase())
	}
}

func TestCloseTearsDown(t *testing.T) {
	c := newTestController(nil)
	h := mustRegister(t, c, RegionConfig{ID: "r", Start: MustMarker("0"), End: MustMarker("100"), Scrub: 1})
	calls := 0
	c.OnProgress(h, func(float64) { calls++ })
	c.Bind(h, []Channel{{From: 0, To: 1}}, func(Channel, float64) { calls++ })
	c.AddReveal(RevealConfig{Seed: 1}, CenteredSquare(100))
	reveals := 0
	c.OnReveal(func(RevealEvent) { reveals++ })
	c.ScrollTo(500, 1, nil)

	c.Close()
	c.Scroll(50)
	c.Update(1)
	c.ForceReveal()
	if calls != 0 || reveals != 0 {
		t.Errorf("callbacks after Close: progress/bind %d, reveal %d", calls, reveals)
	}
	if _, err := c.Register(RegionConfig{ID: "x", Start: MustMarker("0"), End: MustMarker("1")}); !errors.Is(err, ErrClosed) {
		t.Errorf("Register after Close err = %v", err)
	}
	if !c.Closed() {
		t.Error("Closed = false")
	}
	c.Close()
}
