// Package scrollstage is a scroll-progress and gesture-reveal engine for
// scroll-driven pages, with an [Ebitengine] host in scrollstage/ebitenhost.
//
// Scrollstage maps a scroll offset to normalized progress over registered
// regions, drives visual channels from that progress, classifies it into
// discrete steps, and gates the page behind a scratch-to-reveal surface.
// It does no rendering of its own: hosts feed it scroll, resize and pointer
// events and subscribe to what comes out.
//
// # Quick start
//
// The simplest way to get started is a [Layout], which declares sections,
// regions and the reveal surface in YAML:
//
//	layout := scrollstage.DefaultLayout()
//	ctrl := layout.NewController(logger)
//	mounted, err := layout.Apply(ctrl, scrollstage.Hooks{
//		Apply: func(region string, ch scrollstage.Channel, v float64) { ... },
//		Step:  func(region string, step, prev int) { ... },
//	})
//
// For full control, register regions on a [Controller] directly:
//
//	ctrl := scrollstage.NewController(scrollstage.Options{Bounds: bounds})
//	h, err := ctrl.Register(scrollstage.RegionConfig{
//		ID:      "onboarding",
//		Trigger: "phone",
//		Start:   scrollstage.MustMarker("top top"),
//		End:     scrollstage.MustMarker("+=500%"),
//		Scrub:   1,
//		Pinned:  true,
//	})
//	ctrl.AttachSteps(h, scrollstage.OnboardingThresholds(), func(step, prev int) { ... })
//
// The host then calls [Controller.Scroll] and [Controller.Resize] as the
// page moves, the pointer methods for gestures, and [Controller.Update]
// once per frame to advance scrubbed bindings and the auto-scroll.
//
// # Regions and markers
//
// A region's start and end are [Marker] values: "top 90%" (trigger top meets
// 90% of the viewport), "+=500%" (five viewport heights after the start) or
// an absolute offset such as "500". Pinned regions hold their trigger in
// place for their whole scroll distance and push later content down by it.
//
// # Reveal
//
// A [RevealSurface] paints an opaque cover that pointer strokes cut away.
// Strided alpha sampling estimates the cleared fraction; crossing the
// threshold reveals the page once. Scrolling past a small distance, or
// [Controller.ForceReveal], reveals it without a gesture.
//
// Everything runs on one goroutine; no method is safe for concurrent use.
//
// [Ebitengine]: https://ebitengine.org
package scrollstage
