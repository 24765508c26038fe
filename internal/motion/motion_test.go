package motion

import (
	"errors"
	"strings"
	"testing"

	"lostandfound/server/internal/geometry"
	"lostandfound/server/internal/worldmodel"
)

func mustWorld(t *testing.T, roadsJSON string) *worldmodel.World {
	t.Helper()
	doc := `{"maps":[{"id":"m","roads":[` + roadsJSON + `]}]}`
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

func TestConstrainZeroVelocityIsNoop(t *testing.T) {
	world := mustWorld(t, `{"x0":0,"y0":0,"x1":5,"y1":0}`)
	m := world.Map("m")
	start := geometry.Position{X: 1, Y: 0}

	end, clipped, err := Constrain(m, start, geometry.Vector{}, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if clipped {
		t.Fatal("expected no clip for zero velocity")
	}
	if end != start {
		t.Fatalf("expected unchanged position, got %+v", end)
	}
}

func TestConstrainRoadClip(t *testing.T) {
	// Scenario 4: road (0,0)-(5,0), dog at (0,0) velocity (10,0), dt=1.
	world := mustWorld(t, `{"x0":0,"y0":0,"x1":5,"y1":0}`)
	m := world.Map("m")
	start := geometry.Position{X: 0, Y: 0}

	end, clipped, err := Constrain(m, start, geometry.Vector{X: 10}, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !clipped {
		t.Fatal("expected motion to be clipped at the road boundary")
	}
	if end != (geometry.Position{X: 5, Y: 0}) {
		t.Fatalf("expected end at (5,0), got %+v", end)
	}
}

func TestConstrainUnclippedWithinRoad(t *testing.T) {
	world := mustWorld(t, `{"x0":0,"y0":0,"x1":10,"y1":0}`)
	m := world.Map("m")
	start := geometry.Position{X: 0, Y: 0}

	end, clipped, err := Constrain(m, start, geometry.Vector{X: 5}, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if clipped {
		t.Fatal("expected no clip when target stays on the road")
	}
	if end != (geometry.Position{X: 5, Y: 0}) {
		t.Fatalf("expected end at (5,0), got %+v", end)
	}
}

func TestConstrainOffRoadStartIsWorldInvariant(t *testing.T) {
	world := mustWorld(t, `{"x0":0,"y0":0,"x1":10,"y1":0}`)
	m := world.Map("m")
	start := geometry.Position{X: 0, Y: 100}

	_, _, err := Constrain(m, start, geometry.Vector{X: 1}, 1)
	if !errors.Is(err, ErrWorldInvariant) {
		t.Fatalf("expected ErrWorldInvariant, got %v", err)
	}
}

func TestConstrainContinuesOntoIntersectingRoad(t *testing.T) {
	// Two roads sharing (0,0): horizontal (0,0)-(10,0) and vertical (0,0)-(10,0)
	// (going up in y). Moving diagonally-intended velocity should prefer
	// whichever strip's clamp reaches farthest.
	world := mustWorld(t, `{"x0":0,"y0":0,"x1":10,"y1":0},{"x0":0,"y0":0,"x1":0,"y1":10}`)
	m := world.Map("m")
	start := geometry.Position{X: 0, Y: 0}

	end, clipped, err := Constrain(m, start, geometry.Vector{X: 0, Y: 5}, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if clipped {
		t.Fatal("expected the vertical strip to accommodate the full move")
	}
	if end != (geometry.Position{X: 0, Y: 5}) {
		t.Fatalf("expected end at (0,5), got %+v", end)
	}
}
