package worldmodel

import (
	"fmt"
	"sync"

	"lostandfound/server/internal/geometry"
)

// Office is a deposit point that converts bag contents to score.
type Office struct {
	ID       string
	Position geometry.Position
	OffsetX  int
	OffsetY  int
}

// Building is informational only; it does not clip motion.
type Building struct {
	Rect geometry.Rect
}

// LootType is an immutable catalog entry referenced by LootItem.TypeIndex.
type LootType struct {
	Index int
	Value float64
}

// LootItem is a piece of loot currently present on a map.
type LootItem struct {
	ID        uint64
	TypeIndex int
	Value     float64
	Position  geometry.Position
}

// Map is the immutable per-map topology plus its mutable, currently-present
// loot set. Roads/Buildings/Offices/LootTypes never change after NewWorld;
// only the loot set is mutated, under the lootMu lock.
type Map struct {
	ID          string
	Name        string
	DogSpeed    float64
	BagCapacity int
	Roads       []geometry.RoadStrip
	Buildings   []Building
	Offices     []Office
	LootTypes   []LootType

	// LootGeneratorConfig is decoded and carried for forward compatibility;
	// the loot generator does not currently consult it (see DESIGN.md).
	LootGeneratorConfig []byte

	lootMu sync.RWMutex
	loot   map[uint64]LootItem
}

// OnRoad reports whether p lies within the union of this map's road strips.
func (m *Map) OnRoad(p geometry.Position) bool {
	for _, strip := range m.Roads {
		if strip.Contains(p) {
			return true
		}
	}
	return false
}

// StripsContaining returns every road strip of this map that contains p.
func (m *Map) StripsContaining(p geometry.Position) []geometry.RoadStrip {
	var matches []geometry.RoadStrip
	for _, strip := range m.Roads {
		if strip.Contains(p) {
			matches = append(matches, strip)
		}
	}
	return matches
}

// DefaultSpawn returns the map's default spawn point: the start of its first
// road.
func (m *Map) DefaultSpawn() geometry.Position {
	if len(m.Roads) == 0 {
		return geometry.Position{}
	}
	start := m.Roads[0].Start
	return geometry.Position{X: float64(start.X), Y: float64(start.Y)}
}

// LootSnapshot returns a defensive copy of the loot currently on the map.
func (m *Map) LootSnapshot() []LootItem {
	m.lootMu.RLock()
	defer m.lootMu.RUnlock()
	items := make([]LootItem, 0, len(m.loot))
	for _, item := range m.loot {
		items = append(items, item)
	}
	return items
}

// LootCount reports how many loot items currently sit on the map.
func (m *Map) LootCount() int {
	m.lootMu.RLock()
	defer m.lootMu.RUnlock()
	return len(m.loot)
}

// AddLoot inserts a newly generated loot item.
func (m *Map) AddLoot(item LootItem) {
	m.lootMu.Lock()
	m.loot[item.ID] = item
	m.lootMu.Unlock()
}

// TakeLoot removes and returns a loot item by id if present.
func (m *Map) TakeLoot(id uint64) (LootItem, bool) {
	m.lootMu.Lock()
	defer m.lootMu.Unlock()
	item, ok := m.loot[id]
	if ok {
		delete(m.loot, id)
	}
	return item, ok
}

// World is the process-wide, immutable-after-load collection of maps.
type World struct {
	DogRetirementSeconds float64
	maps                 map[string]*Map
	order                []string
}

// NewWorld builds the immutable per-map topology plus an initially empty
// loot set for every configured map.
func NewWorld(cfg *Config) (*World, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: nil configuration", ErrConfiguration)
	}
	w := &World{
		DogRetirementSeconds: cfg.DogRetirementTime,
		maps:                 make(map[string]*Map, len(cfg.Maps)),
	}
	for _, mc := range cfg.Maps {
		m, err := buildMap(mc, cfg)
		if err != nil {
			return nil, err
		}
		w.maps[m.ID] = m
		w.order = append(w.order, m.ID)
	}
	return w, nil
}

func buildMap(mc MapConfig, cfg *Config) (*Map, error) {
	dogSpeed := cfg.DefaultDogSpeed
	if mc.DogSpeed != nil {
		dogSpeed = *mc.DogSpeed
	}
	bagCapacity := cfg.DefaultBagCapacity
	if mc.BagCapacity != nil {
		bagCapacity = *mc.BagCapacity
	}

	roads := make([]geometry.RoadStrip, 0, len(mc.Roads))
	for _, rc := range mc.Roads {
		strip, _, err := roadToStrip(rc)
		if err != nil {
			return nil, fmt.Errorf("%w: map %q: %v", ErrConfiguration, mc.ID, err)
		}
		roads = append(roads, strip)
	}

	buildings := make([]Building, 0, len(mc.Buildings))
	for _, bc := range mc.Buildings {
		buildings = append(buildings, Building{Rect: geometry.Rect{
			MinX: bc.X,
			MinY: bc.Y,
			MaxX: bc.X + bc.W,
			MaxY: bc.Y + bc.H,
		}})
	}

	offices := make([]Office, 0, len(mc.Offices))
	for _, oc := range mc.Offices {
		offices = append(offices, Office{
			ID:       oc.ID,
			Position: geometry.Position{X: oc.X, Y: oc.Y},
			OffsetX:  oc.OffsetX,
			OffsetY:  oc.OffsetY,
		})
	}

	lootTypes := make([]LootType, 0, len(mc.LootTypes))
	for i, lc := range mc.LootTypes {
		value := 10.0
		if lc.Value != nil {
			value = *lc.Value
		}
		lootTypes = append(lootTypes, LootType{Index: i, Value: value})
	}

	return &Map{
		ID:                  mc.ID,
		Name:                mc.Name,
		DogSpeed:            dogSpeed,
		BagCapacity:         bagCapacity,
		Roads:               roads,
		Buildings:           buildings,
		Offices:             offices,
		LootTypes:           lootTypes,
		LootGeneratorConfig: cfg.LootGeneratorConfig,
		loot:                make(map[uint64]LootItem),
	}, nil
}

// Map returns the named map, or nil if unknown.
func (w *World) Map(id string) *Map {
	if w == nil {
		return nil
	}
	return w.maps[id]
}

// HasMap reports whether id names a configured map.
func (w *World) HasMap(id string) bool {
	if w == nil {
		return false
	}
	_, ok := w.maps[id]
	return ok
}

// Maps returns every map in configuration order.
func (w *World) Maps() []*Map {
	if w == nil {
		return nil
	}
	maps := make([]*Map, 0, len(w.order))
	for _, id := range w.order {
		maps = append(maps, w.maps[id])
	}
	return maps
}
