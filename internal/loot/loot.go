// Package loot maintains the population of loot items on each map.
package loot

import (
	"math"
	"sync/atomic"

	"lostandfound/server/internal/geometry"
	"lostandfound/server/internal/worldmodel"
)

// spawnCount is the fixed number of items spawned when a map's loot set
// empties (§4.4's minimal faithful policy).
const spawnCount = 5

// nextID is a process-wide monotonically increasing loot item id counter.
var nextID uint64

// Generator applies the fixed spawn-when-empty policy to a world's maps.
//
// lootGeneratorConfig is decoded onto worldmodel.Map but not consulted here;
// a richer Bernoulli/time-based policy may be substituted behind this same
// shape later (see DESIGN.md open question).
type Generator struct{}

// NewGenerator constructs a loot Generator.
func NewGenerator() *Generator { return &Generator{} }

// Tick runs the spawn-when-empty policy for a single map, called once per
// simulation tick after motion and collision resolution.
func (g *Generator) Tick(m *worldmodel.Map) {
	if m == nil || m.LootCount() > 0 || len(m.Roads) == 0 {
		return
	}

	road := m.Roads[0]
	for i := 0; i < spawnCount; i++ {
		id := atomic.AddUint64(&nextID, 1)
		m.AddLoot(worldmodel.LootItem{
			ID:        id,
			TypeIndex: 1,
			Value:     10.0,
			Position:  spawnPointForIndex(road, i),
		})
	}
}

// spawnPointForIndex derives a fixed seed position for the i-th spawned
// item; items share the map's first road at deterministic offsets along
// that road's own axis, stepping from its start toward its end (one unit
// apart, closer on roads shorter than spawnCount-1 units), so spawns land
// on the strip for either orientation and direction, and do not collide at
// a single point.
func spawnPointForIndex(road geometry.RoadStrip, i int) geometry.Position {
	x, y := float64(road.Start.X), float64(road.Start.Y)
	from := x
	if road.Orientation == geometry.Vertical {
		from = y
	}
	length := float64(road.End) - from
	step := math.Min(1, math.Abs(length)/float64(spawnCount-1))
	offset := math.Copysign(step*float64(i), length)
	if road.Orientation == geometry.Vertical {
		return geometry.Position{X: x, Y: y + offset}
	}
	return geometry.Position{X: x + offset, Y: y}
}
