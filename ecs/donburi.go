package ecs

import (
	"github.com/phanxgames/scrollstage"

	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/features/events"
)

// ScrollEventType is the Donburi event type for scrollstage controller events.
var ScrollEventType = events.NewEventType[scrollstage.Event]()

type donburiSink struct {
	world donburi.World
}

// NewDonburiSink creates an EventSink backed by a Donburi world. Events are
// queued on ScrollEventType until ProcessEvents runs.
func NewDonburiSink(world donburi.World) scrollstage.EventSink {
	return &donburiSink{world: world}
}

func (s *donburiSink) EmitEvent(event scrollstage.Event) {
	ScrollEventType.Publish(s.world, event)
}

// SubscribeType subscribes fn to events of one type only.
func SubscribeType(world donburi.World, typ scrollstage.EventType, fn func(donburi.World, scrollstage.Event)) {
	ScrollEventType.Subscribe(world, func(w donburi.World, e scrollstage.Event) {
		if e.Type == typ {
			fn(w, e)
		}
	})
}
