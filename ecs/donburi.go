package ecs

import (
	"github.com/phanxgames/brush"

	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/features/events"
)

// InteractionEventType is the Donburi event type for brush pointer events.
var InteractionEventType = events.NewEventType[brush.InteractionEvent]()

type donburiStore struct {
	world donburi.World
	kinds map[brush.EventKind]struct{} // nil forwards every kind
}

// NewDonburiStore creates an EntityStore backed by a Donburi world.
// Events are published to InteractionEventType and can be consumed with
// Subscribe and ProcessEvents. When kinds are given, only those kinds are
// forwarded; "over" fires on every pointer move, so most worlds leave it out.
func NewDonburiStore(world donburi.World, kinds ...brush.EventKind) brush.EntityStore {
	s := &donburiStore{world: world}
	if len(kinds) > 0 {
		s.kinds = make(map[brush.EventKind]struct{}, len(kinds))
		for _, k := range kinds {
			s.kinds[k] = struct{}{}
		}
	}
	return s
}

func (s *donburiStore) EmitEvent(event brush.InteractionEvent) {
	if s.kinds != nil {
		if _, ok := s.kinds[event.Kind]; !ok {
			return
		}
	}
	InteractionEventType.Publish(s.world, event)
}
