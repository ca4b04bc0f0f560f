// Package ecs bridges scrollstage controller events into a [Donburi] world.
//
// [NewDonburiSink] returns an EventSink that publishes every controller
// notification (progress, step changes, reveal, scroll requests, use-case
// changes) as a typed Donburi event. Subscribe to [ScrollEventType] in your
// systems and drain the queue once per frame:
//
//	ctrl.SetEventSink(ecs.NewDonburiSink(world))
//	ecs.ScrollEventType.Subscribe(world, onScrollEvent)
//	// each frame, after ctrl.Update:
//	ecs.ScrollEventType.ProcessEvents(world)
//
// [Donburi]: https://github.com/yohamta/donburi
package ecs
