// Package app implements the Application façade, the single entry point an
// HTTP transport would call: join, list players, get state, set action,
// tick. It owns the lock that serializes every mutation.
package app

import (
	"sync"
	"time"

	"lostandfound/server/internal/collision"
	"lostandfound/server/internal/geometry"
	"lostandfound/server/internal/logging"
	"lostandfound/server/internal/loot"
	"lostandfound/server/internal/motion"
	"lostandfound/server/internal/records"
	"lostandfound/server/internal/retirement"
	"lostandfound/server/internal/session"
	"lostandfound/server/internal/worldmodel"
)

// PlayerState is the read-only view of one player and dog returned by
// GetGameState/GetPlayers.
type PlayerState struct {
	PlayerID uint64
	Name     string
	MapID    string
	DogID    uint64
	Position struct{ X, Y float64 }
	Facing   session.Direction
	BagSize  int
	Score    float64
}

// Application is the sole mutable owner of the world and session registry.
type Application struct {
	mu sync.RWMutex

	world      *worldmodel.World
	registry   *session.Registry
	retirement *retirement.Controller
	generator  *loot.Generator
	logger     *logging.Logger

	tickCount uint64
}

// New builds an Application wired to a loaded world and records sink.
// retryCap bounds the retirement controller's in-memory sink-failure retry
// queue; a value <= 0 keeps the controller's own default.
func New(world *worldmodel.World, sink records.Sink, randomizeSpawn bool, retryCap int, logger *logging.Logger) *Application {
	if logger == nil {
		logger = logging.NewTestLogger()
	}
	registry := session.NewRegistry(world, session.WithRandomizeSpawn(randomizeSpawn))
	threshold := time.Duration(world.DogRetirementSeconds * float64(time.Second))
	ctrl := retirement.NewController(threshold, sink, retirement.WithLogger(logger), retirement.WithRetryCap(retryCap))

	return &Application{
		world:      world,
		registry:   registry,
		retirement: ctrl,
		generator:  loot.NewGenerator(),
		logger:     logger,
	}
}

// SetRetirementCallback installs an optional hook invoked after a player is
// retired.
func (a *Application) SetRetirementCallback(fn func(name string, score float64, playTimeSeconds float64)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.retirement.SetRetirementCallback(fn)
}

// JoinGame registers a new player on the named map. A nil *JoinResult
// signals a bad-request condition (caller maps it to 400).
type JoinResult struct {
	Token    string
	PlayerID uint64
}

// JoinGame joins a new player to the given map.
func (a *Application) JoinGame(name, mapID string) *JoinResult {
	a.mu.Lock()
	defer a.mu.Unlock()

	token, pid, err := a.registry.Join(name, mapID)
	if err != nil {
		return nil
	}
	return &JoinResult{Token: token, PlayerID: pid}
}

// GetGameState returns every player on the same map as token's owner, or
// nil if the token is invalid.
func (a *Application) GetGameState(token string) []PlayerState {
	a.mu.RLock()
	defer a.mu.RUnlock()
	players := a.registry.PlayersOnSameMap(token)
	return toPlayerStates(a.registry, players)
}

// GetPlayers is an alias of GetGameState kept distinct to mirror the
// façade surface's two read operations, which may diverge later (e.g. to
// include retired spectators).
func (a *Application) GetPlayers(token string) []PlayerState {
	return a.GetGameState(token)
}

func toPlayerStates(registry *session.Registry, players []session.Player) []PlayerState {
	if players == nil {
		return nil
	}
	active := registry.Active()
	dogByID := make(map[uint64]session.Snapshot, len(active))
	for _, snap := range active {
		dogByID[snap.Player.DogID] = snap
	}
	states := make([]PlayerState, 0, len(players))
	for _, p := range players {
		snap, ok := dogByID[p.DogID]
		state := PlayerState{PlayerID: p.ID, Name: p.Name, MapID: p.MapID, DogID: p.DogID}
		if ok {
			state.Position.X = snap.Dog.Position.X
			state.Position.Y = snap.Dog.Position.Y
			state.Facing = snap.Dog.Facing
			state.BagSize = len(snap.Dog.Bag)
			state.Score = snap.Dog.Score
		}
		states = append(states, state)
	}
	return states
}

// ActionResult distinguishes the three outcomes of SetPlayerAction.
type ActionResult int

const (
	ActionOK ActionResult = iota
	ActionBadRequest
	ActionUnauthorized
)

// SetPlayerAction applies a discrete move command to the player's dog.
func (a *Application) SetPlayerAction(token string, move string) ActionResult {
	a.mu.Lock()
	defer a.mu.Unlock()

	ok, err := a.registry.SetAction(token, session.Move(move))
	if ok {
		return ActionOK
	}
	if err == session.ErrUnauthorized {
		return ActionUnauthorized
	}
	return ActionBadRequest
}

// Tick advances motion for every dog, resolves collisions in ascending t
// order, runs the loot generator, and runs the retirement controller, all
// under the façade's exclusive lock.
func (a *Application) Tick(dt time.Duration) {
	a.mu.Lock()
	defer a.mu.Unlock()

	dtSeconds := dt.Seconds()

	for _, snap := range a.registry.Active() {
		m := a.world.Map(snap.Player.MapID)
		if m == nil {
			continue
		}
		start := snap.Dog.Position
		end, clipped, err := motion.Constrain(m, start, snap.Dog.Velocity, dtSeconds)
		if err != nil {
			a.logger.Fatal("world invariant violated during tick", logging.String("player", snap.Player.Name), logging.Error(err))
			panic(err)
		}

		events := collision.Enumerate(m, start, end)
		newBag, outcome := collision.Resolve(m, events, snap.Dog.Bag, m.BagCapacity)

		dogID := snap.Player.DogID
		a.registry.MutateDog(dogID, func(d *session.Dog) {
			d.Position = end
			if clipped {
				d.Velocity = geometry.Vector{}
			}
			d.Bag = newBag
			d.Score += outcome.ScoreGain
		})
	}

	for _, m := range a.world.Maps() {
		a.generator.Tick(m)
	}

	a.retirement.Tick(a.registry)
	a.tickCount++
}

// TickCount exposes the number of completed ticks, consumed by
// internal/simulation.TickMonitor style observers.
func (a *Application) TickCount() uint64 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.tickCount
}
