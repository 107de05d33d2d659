// Package ecs provides ECS adapters for brush's pointer events.
//
// The primary adapter is [NewDonburiStore], which bridges claimed pointer
// events (click, down, up, over) from nodes with a non-zero
// EntityID into a [Donburi] world as typed events. Subscribe to
// [InteractionEventType] in your ECS systems to receive them.
//
// Usage:
//
//	store := ecs.NewDonburiStore(world, brush.EventClick)
//	scene.SetEntityStore(store)
//
// [Donburi]: https://github.com/yohamta/donburi
package ecs
