// Package collision enumerates and resolves, in ascending time-of-impact
// order, the pickup and office-return events swept by a dog's per-tick
// motion segment.
package collision

import (
	"sort"

	"lostandfound/server/internal/geometry"
	"lostandfound/server/internal/worldmodel"
)

// Collision radii are part of the game contract, not tuning knobs.
const (
	ItemPickupRadius  = 0.3
	OfficeReturnRadius = 0.55
)

// Kind distinguishes the two event types this resolver enumerates.
type Kind int

const (
	ItemPickup Kind = iota
	OfficeReturn
)

// Event is a single candidate collision along a dog's swept segment,
// ordered by T ascending (ties broken by insertion order via a stable sort).
type Event struct {
	Kind   Kind
	T      float64
	LootID uint64 // valid when Kind == ItemPickup
}

// Outcome summarizes the inventory effects of resolving a dog's events for
// one tick.
type Outcome struct {
	PickedUp []worldmodel.LootItem
	Returned bool
	ScoreGain float64
}

// Enumerate finds every pickup and office-return event along the segment
// start->end for the given map, in ascending T order (stable for ties).
func Enumerate(m *worldmodel.Map, start, end geometry.Position) []Event {
	var events []Event

	for _, item := range m.LootSnapshot() {
		if t, ok := geometry.TimeOfImpact(start, end, item.Position, ItemPickupRadius); ok {
			events = append(events, Event{Kind: ItemPickup, T: t, LootID: item.ID})
		}
	}
	for _, office := range m.Offices {
		if t, ok := geometry.TimeOfImpact(start, end, office.Position, OfficeReturnRadius); ok {
			events = append(events, Event{Kind: OfficeReturn, T: t})
		}
	}

	sort.SliceStable(events, func(i, j int) bool { return events[i].T < events[j].T })
	return events
}

// Resolve applies the enumerated events in order against the map's live
// loot set and the dog's bag, returning the resulting inventory effects.
// bag and bagCapacity describe the dog's current bag; the returned Outcome
// reflects what happened but the caller owns applying it back to the dog.
func Resolve(m *worldmodel.Map, events []Event, bag []worldmodel.LootItem, bagCapacity int) (newBag []worldmodel.LootItem, outcome Outcome) {
	bag = append([]worldmodel.LootItem(nil), bag...)

	for _, event := range events {
		switch event.Kind {
		case ItemPickup:
			if len(bag) >= bagCapacity {
				//1.- Bag full: the event is dropped, no deferred pickup.
				continue
			}
			item, ok := m.TakeLoot(event.LootID)
			if !ok {
				//2.- Another event already consumed this item this tick.
				continue
			}
			bag = append(bag, item)
			outcome.PickedUp = append(outcome.PickedUp, item)
		case OfficeReturn:
			if len(bag) == 0 {
				continue
			}
			for _, item := range bag {
				outcome.ScoreGain += item.Value
			}
			bag = bag[:0]
			outcome.Returned = true
		}
	}

	return bag, outcome
}
