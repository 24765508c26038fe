package collision

import (
	"strings"
	"testing"

	"lostandfound/server/internal/geometry"
	"lostandfound/server/internal/worldmodel"
)

func singleRoadWorld(t *testing.T, extra string) *worldmodel.World {
	t.Helper()
	doc := `{"maps":[{"id":"m","bagCapacity":99,"roads":[{"x0":0,"y0":0,"x1":10,"y1":0}]` + extra + `}]}`
	cfg, err := worldmodel.LoadConfig(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	world, err := worldmodel.NewWorld(cfg)
	if err != nil {
		t.Fatalf("NewWorld: %v", err)
	}
	return world
}

// Scenario 1: single-road pickup.
func TestResolveSingleRoadPickup(t *testing.T) {
	world := singleRoadWorld(t, "")
	m := world.Map("m")
	m.AddLoot(worldmodel.LootItem{ID: 1, TypeIndex: 1, Value: 10, Position: geometry.Position{X: 5, Y: 0}})

	start := geometry.Position{X: 0, Y: 0}
	end := geometry.Position{X: 5, Y: 0}
	events := Enumerate(m, start, end)
	if len(events) != 1 || events[0].Kind != ItemPickup {
		t.Fatalf("expected one pickup event, got %+v", events)
	}

	bag, outcome := Resolve(m, events, nil, 1)
	if len(bag) != 1 || bag[0].ID != 1 {
		t.Fatalf("expected item in bag, got %+v", bag)
	}
	if len(outcome.PickedUp) != 1 {
		t.Fatalf("expected one pickup recorded, got %+v", outcome)
	}
	if m.LootCount() != 0 {
		t.Fatal("expected loot removed from the map")
	}
}

// Scenario 2: full bag skip.
func TestResolveFullBagSkipsPickup(t *testing.T) {
	world := singleRoadWorld(t, "")
	m := world.Map("m")
	m.AddLoot(worldmodel.LootItem{ID: 1, TypeIndex: 1, Value: 10, Position: geometry.Position{X: 5, Y: 0}})

	existing := worldmodel.LootItem{ID: 99, TypeIndex: 1, Value: 5, Position: geometry.Position{}}
	start := geometry.Position{X: 0, Y: 0}
	end := geometry.Position{X: 5, Y: 0}
	events := Enumerate(m, start, end)

	bag, outcome := Resolve(m, events, []worldmodel.LootItem{existing}, 1)
	if len(bag) != 1 || bag[0].ID != 99 {
		t.Fatalf("expected bag unchanged, got %+v", bag)
	}
	if len(outcome.PickedUp) != 0 {
		t.Fatalf("expected no pickups recorded, got %+v", outcome)
	}
	if m.LootCount() != 1 {
		t.Fatal("expected item to remain on the map")
	}
}

// Scenario 3: pickup then return in one tick.
func TestResolvePickupThenReturn(t *testing.T) {
	world := singleRoadWorld(t, `,"offices":[{"id":"o1","x":8,"y":0,"offsetX":0,"offsetY":0}]`)
	m := world.Map("m")
	m.AddLoot(worldmodel.LootItem{ID: 1, TypeIndex: 1, Value: 10, Position: geometry.Position{X: 2, Y: 0}})

	start := geometry.Position{X: 0, Y: 0}
	end := geometry.Position{X: 10, Y: 0}
	events := Enumerate(m, start, end)
	if len(events) != 2 {
		t.Fatalf("expected pickup + return events, got %+v", events)
	}
	if events[0].Kind != ItemPickup || events[1].Kind != OfficeReturn {
		t.Fatalf("expected pickup before return by ascending t, got %+v", events)
	}

	bag, outcome := Resolve(m, events, nil, 10)
	if len(bag) != 0 {
		t.Fatalf("expected bag emptied after return, got %+v", bag)
	}
	if outcome.ScoreGain != 10 {
		t.Fatalf("expected score gain 10, got %v", outcome.ScoreGain)
	}
	if !outcome.Returned {
		t.Fatal("expected Returned to be true")
	}
	if m.LootCount() != 0 {
		t.Fatal("expected loot removed from the map")
	}
}

func TestEnumerateOrdersByAscendingT(t *testing.T) {
	world := singleRoadWorld(t, "")
	m := world.Map("m")
	m.AddLoot(worldmodel.LootItem{ID: 1, TypeIndex: 1, Value: 10, Position: geometry.Position{X: 8, Y: 0}})
	m.AddLoot(worldmodel.LootItem{ID: 2, TypeIndex: 1, Value: 10, Position: geometry.Position{X: 3, Y: 0}})

	events := Enumerate(m, geometry.Position{X: 0, Y: 0}, geometry.Position{X: 10, Y: 0})
	if len(events) != 2 {
		t.Fatalf("expected two events, got %+v", events)
	}
	if events[0].LootID != 2 || events[1].LootID != 1 {
		t.Fatalf("expected ascending-t order (near item first), got %+v", events)
	}
}
