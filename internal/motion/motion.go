// Package motion constrains a dog's per-tick displacement to the road
// network of its map.
package motion

import (
	"errors"
	"fmt"
	"math"

	"lostandfound/server/internal/geometry"
	"lostandfound/server/internal/worldmodel"
)

// ErrWorldInvariant indicates the starting position was not on any road
// strip of the map, violating the "every dog is on road" invariant. This is
// a fatal/assert condition, never silently papered over.
var ErrWorldInvariant = errors.New("world invariant violated")

// Constrain computes the end position of a dog moving from start at the
// given velocity for Δt seconds, clipped to the union of road strips
// containing start. clipped is true when the unconstrained target was
// outside every containing strip and had to be pulled back onto one.
func Constrain(m *worldmodel.Map, start geometry.Position, velocity geometry.Vector, dt float64) (end geometry.Position, clipped bool, err error) {
	if velocity.IsZero() || dt <= 0 {
		//1.- Zero velocity (or a degenerate timestep) is a no-op by definition.
		return start, false, nil
	}

	strips := m.StripsContaining(start)
	if len(strips) == 0 {
		return geometry.Position{}, false, fmt.Errorf("%w: position (%.3f,%.3f) is not on any road strip of map %q", ErrWorldInvariant, start.X, start.Y, m.ID)
	}

	target := start.Add(velocity.Scale(dt))

	var best geometry.Position
	bestDist := -1.0
	for _, strip := range strips {
		candidate := strip.Bounds().Clamp(target)
		dist := candidate.Sub(start).Length()
		if dist > bestDist {
			bestDist = dist
			best = candidate
		}
	}

	//2.- Clipped iff the farthest reachable candidate differs from the
	//    unconstrained target.
	clipped = math.Abs(best.X-target.X) > 1e-9 || math.Abs(best.Y-target.Y) > 1e-9
	return best, clipped, nil
}
