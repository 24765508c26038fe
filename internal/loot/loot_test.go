package loot

import (
	"strings"
	"testing"

	"lostandfound/server/internal/worldmodel"
)

func mustMap(t *testing.T) *worldmodel.Map {
	t.Helper()
	cfg, err := worldmodel.LoadConfig(strings.NewReader(`{"maps":[{"id":"m","roads":[{"x0":0,"y0":0,"x1":10,"y1":0}]}]}`))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	world, err := worldmodel.NewWorld(cfg)
	if err != nil {
		t.Fatalf("NewWorld: %v", err)
	}
	return world.Map("m")
}

func TestGeneratorSpawnsWhenEmpty(t *testing.T) {
	m := mustMap(t)
	g := NewGenerator()

	g.Tick(m)
	if m.LootCount() != spawnCount {
		t.Fatalf("expected %d items spawned, got %d", spawnCount, m.LootCount())
	}
}

func TestGeneratorSkipsWhenNotEmpty(t *testing.T) {
	m := mustMap(t)
	g := NewGenerator()

	g.Tick(m)
	countAfterFirst := m.LootCount()

	g.Tick(m)
	if m.LootCount() != countAfterFirst {
		t.Fatalf("expected loot count unchanged on second tick, got %d (was %d)", m.LootCount(), countAfterFirst)
	}
}

func mustVerticalMap(t *testing.T) *worldmodel.Map {
	t.Helper()
	cfg, err := worldmodel.LoadConfig(strings.NewReader(`{"maps":[{"id":"m","roads":[{"x0":0,"y0":0,"x1":0,"y1":10}]}]}`))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	world, err := worldmodel.NewWorld(cfg)
	if err != nil {
		t.Fatalf("NewWorld: %v", err)
	}
	return world.Map("m")
}

func TestGeneratorSpawnsOnVerticalRoad(t *testing.T) {
	m := mustVerticalMap(t)
	g := NewGenerator()
	g.Tick(m)

	strip := m.Roads[0]
	for _, item := range m.LootSnapshot() {
		if !strip.Contains(item.Position) {
			t.Fatalf("spawned item %+v lies off the vertical road strip %+v", item, strip)
		}
	}
}

func TestGeneratorAssignsUniqueIDs(t *testing.T) {
	m := mustMap(t)
	g := NewGenerator()
	g.Tick(m)

	seen := make(map[uint64]bool)
	for _, item := range m.LootSnapshot() {
		if seen[item.ID] {
			t.Fatalf("duplicate loot id %d", item.ID)
		}
		seen[item.ID] = true
		if item.TypeIndex != 1 || item.Value != 10.0 {
			t.Fatalf("unexpected loot item %+v", item)
		}
	}
}
