// Package session owns the players, dogs, and auth tokens of the live game,
// and the three indices (token→player, player-id→player, dog-id→dog) that
// must stay mutually consistent at every quiescent point.
package session

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	mrand "math/rand"
	"strings"
	"sync"
	"time"

	"lostandfound/server/internal/geometry"
	"lostandfound/server/internal/worldmodel"
)

// ErrUnauthorized is returned by registry lookups against an unknown or
// retired token.
var ErrUnauthorized = errors.New("unauthorized")

// ErrBadRequest is returned for an empty user name, an unknown map id, or an
// unrecognized move code.
var ErrBadRequest = errors.New("bad request")

// Direction is a dog's facing, preserved across stop actions.
type Direction int

const (
	South Direction = iota
	North
	East
	West
)

// Move is one of the five discrete action codes accepted by SetAction.
type Move string

const (
	MoveLeft  Move = "L"
	MoveRight Move = "R"
	MoveUp    Move = "U"
	MoveDown  Move = "D"
	MoveStop  Move = ""
)

// Dog is a player's avatar: the moving entity.
type Dog struct {
	ID       uint64
	OwnerID  uint64
	MapID    string
	Position geometry.Position
	Velocity geometry.Vector
	Facing   Direction
	Bag      []worldmodel.LootItem
	Score    float64
}

// Player is the identity half of a joined session.
type Player struct {
	ID    uint64
	Name  string
	DogID uint64
	MapID string
	Token string
}

// meta tracks per-player lifecycle bookkeeping not exposed directly outside
// this package.
type meta struct {
	joinTime  time.Time
	idleStart *time.Time
	retired   bool
}

// Registry is the single owner of every live player and dog. Options
// configure behavior at construction; the zero value is not usable, build
// one with NewRegistry.
type Registry struct {
	mu sync.RWMutex

	world          *worldmodel.World
	randomizeSpawn bool
	now            func() time.Time

	players map[uint64]*Player
	dogs    map[uint64]*Dog
	metaFor map[uint64]*meta

	tokenIndex    map[string]uint64 // token -> player id
	dogOwnerIndex map[uint64]uint64 // dog id -> player id

	order        []uint64 // player ids, join order, for deterministic listings
	nextPlayerID uint64
	nextDogID    uint64
}

// Option configures optional Registry behaviour at construction time.
type Option func(*Registry)

// WithClock overrides the default wall-clock time source, for deterministic
// tests.
func WithClock(clock func() time.Time) Option {
	return func(r *Registry) {
		if clock != nil {
			r.now = clock
		}
	}
}

// WithRandomizeSpawn toggles whether Join samples a random point on the
// map's road network instead of using the map's default spawn.
func WithRandomizeSpawn(enabled bool) Option {
	return func(r *Registry) { r.randomizeSpawn = enabled }
}

// NewRegistry constructs a Registry bound to a loaded world.
func NewRegistry(world *worldmodel.World, opts ...Option) *Registry {
	r := &Registry{
		world:         world,
		now:           time.Now,
		players:       make(map[uint64]*Player),
		dogs:          make(map[uint64]*Dog),
		metaFor:       make(map[uint64]*meta),
		tokenIndex:    make(map[string]uint64),
		dogOwnerIndex: make(map[uint64]uint64),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// Join registers a new player and dog on the named map, returning an opaque
// auth token and the new player id.
func (r *Registry) Join(userName, mapID string) (token string, playerID uint64, err error) {
	userName = strings.TrimSpace(userName)
	if userName == "" {
		return "", 0, fmt.Errorf("%w: user name must not be empty", ErrBadRequest)
	}
	if r.world == nil || !r.world.HasMap(mapID) {
		return "", 0, fmt.Errorf("%w: unknown map %q", ErrBadRequest, mapID)
	}
	m := r.world.Map(mapID)

	spawn := m.DefaultSpawn()
	if r.randomizeSpawn {
		if sampled, ok := randomRoadPoint(m); ok {
			spawn = sampled
		}
	}

	tok, err := generateToken()
	if err != nil {
		return "", 0, fmt.Errorf("token generation failed: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextDogID++
	dogID := r.nextDogID
	r.nextPlayerID++
	pid := r.nextPlayerID

	dog := &Dog{
		ID:       dogID,
		OwnerID:  pid,
		MapID:    mapID,
		Position: spawn,
		Facing:   South,
		Bag:      make([]worldmodel.LootItem, 0, m.BagCapacity),
	}
	player := &Player{ID: pid, Name: userName, DogID: dogID, MapID: mapID, Token: tok}

	//1.- Record the player/dog and the three indices together so the
	//    registry never observes a partially joined player.
	r.players[pid] = player
	r.dogs[dogID] = dog
	r.metaFor[pid] = &meta{joinTime: r.now()}
	r.tokenIndex[tok] = pid
	r.dogOwnerIndex[dogID] = pid
	r.order = append(r.order, pid)

	return tok, pid, nil
}

// FindByToken resolves a token to its player, or false if the token is
// unknown or belongs to a retired player.
func (r *Registry) FindByToken(token string) (Player, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	pid, ok := r.tokenIndex[token]
	if !ok {
		return Player{}, false
	}
	p, ok := r.players[pid]
	if !ok {
		return Player{}, false
	}
	return *p, true
}

// PlayersOnSameMap returns every active player sharing the map of the
// player identified by token, or nil if the token is invalid.
func (r *Registry) PlayersOnSameMap(token string) []Player {
	r.mu.RLock()
	defer r.mu.RUnlock()
	pid, ok := r.tokenIndex[token]
	if !ok {
		return nil
	}
	self, ok := r.players[pid]
	if !ok {
		return nil
	}
	var result []Player
	for _, id := range r.order {
		p, ok := r.players[id]
		if !ok || p.MapID != self.MapID {
			continue
		}
		result = append(result, *p)
	}
	return result
}

// SetAction applies a discrete move command to the player's dog, returning
// false with ErrUnauthorized/ErrBadRequest on an invalid request.
func (r *Registry) SetAction(token string, move Move) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	pid, ok := r.tokenIndex[token]
	if !ok {
		return false, ErrUnauthorized
	}
	player, ok := r.players[pid]
	if !ok {
		return false, ErrUnauthorized
	}
	dog, ok := r.dogs[player.DogID]
	if !ok {
		return false, ErrUnauthorized
	}
	m := r.world.Map(player.MapID)
	speed := 0.0
	if m != nil {
		speed = m.DogSpeed
	}

	meta := r.metaFor[pid]

	switch move {
	case MoveLeft:
		dog.Velocity = geometry.Vector{X: -speed}
		dog.Facing = West
	case MoveRight:
		dog.Velocity = geometry.Vector{X: speed}
		dog.Facing = East
	case MoveUp:
		dog.Velocity = geometry.Vector{Y: speed}
		dog.Facing = North
	case MoveDown:
		dog.Velocity = geometry.Vector{Y: -speed}
		dog.Facing = South
	case MoveStop:
		dog.Velocity = geometry.Vector{}
	default:
		return false, fmt.Errorf("%w: unrecognized move %q", ErrBadRequest, move)
	}

	if move == MoveStop {
		//1.- Stopping starts the idle clock if it is not already running.
		if meta != nil && meta.idleStart == nil {
			now := r.now()
			meta.idleStart = &now
		}
	} else {
		//2.- Any movement clears the idle clock.
		if meta != nil {
			meta.idleStart = nil
		}
	}

	return true, nil
}

// Snapshot is a point-in-time, defensively-copied view of one active player
// and its dog, consumed by the application façade and the retirement
// controller.
type Snapshot struct {
	Player    Player
	Dog       Dog
	JoinTime  time.Time
	IdleStart *time.Time
}

// Active returns a snapshot of every non-retired player, in join order.
func (r *Registry) Active() []Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]Snapshot, 0, len(r.order))
	for _, pid := range r.order {
		p, ok := r.players[pid]
		if !ok {
			continue
		}
		d := r.dogs[p.DogID]
		meta := r.metaFor[pid]
		snap := Snapshot{Player: *p}
		if d != nil {
			snap.Dog = *d
			snap.Dog.Bag = append([]worldmodel.LootItem(nil), d.Bag...)
		}
		if meta != nil {
			snap.JoinTime = meta.joinTime
			snap.IdleStart = meta.idleStart
		}
		result = append(result, snap)
	}
	return result
}

// MutateDog applies fn to the live dog identified by id while holding the
// registry's write lock, used by the tick pipeline to write back motion and
// collision results.
func (r *Registry) MutateDog(dogID uint64, fn func(*Dog)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if d, ok := r.dogs[dogID]; ok {
		fn(d)
	}
}

// SetIdleStart overwrites the idle-start timestamp for a player, used by the
// retirement controller to arm the idle clock for a dog found at rest.
func (r *Registry) SetIdleStart(playerID uint64, at *time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m, ok := r.metaFor[playerID]; ok {
		m.idleStart = at
	}
}

// Retire atomically removes a player from all three indices and from the
// players/dogs sequences, returning the data needed to persist a record.
// Retiring an already-retired or unknown player id is a no-op (idempotent).
func (r *Registry) Retire(playerID uint64) (name string, score float64, joinTime time.Time, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	player, exists := r.players[playerID]
	if !exists {
		return "", 0, time.Time{}, false
	}
	dog := r.dogs[player.DogID]
	m := r.metaFor[playerID]

	if m != nil {
		joinTime = m.joinTime
	}
	if dog != nil {
		score = dog.Score
	}
	name = player.Name

	//1.- Remove the three index entries and excise the player/dog sequence
	//    entry together so no stale reference can observe a half-retired
	//    player.
	delete(r.tokenIndex, player.Token)
	delete(r.dogOwnerIndex, player.DogID)
	delete(r.players, playerID)
	delete(r.dogs, player.DogID)
	delete(r.metaFor, playerID)
	for i, id := range r.order {
		if id == playerID {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}

	return name, score, joinTime, true
}

// generateToken draws a 32-character lowercase hex token from two
// cryptographically unpredictable 64-bit values, sampled fresh per join.
func generateToken() (string, error) {
	var buf [16]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf[:]), nil
}

// randomRoadPoint samples a point uniformly on m's road network.
func randomRoadPoint(m *worldmodel.Map) (geometry.Position, bool) {
	if len(m.Roads) == 0 {
		return geometry.Position{}, false
	}
	//1.- Pick a road with probability proportional to its length so the
	//    sample is uniform over the whole network, not per road.
	lengths := make([]float64, len(m.Roads))
	total := 0.0
	for i, s := range m.Roads {
		from := s.Start.X
		if s.Orientation == geometry.Vertical {
			from = s.Start.Y
		}
		lengths[i] = math.Abs(float64(s.End - from))
		total += lengths[i]
	}
	pick := mrand.Float64() * total
	strip := m.Roads[len(m.Roads)-1]
	for i, l := range lengths {
		if pick < l {
			strip = m.Roads[i]
			break
		}
		pick -= l
	}
	bounds := strip.Bounds()
	var x, y float64
	switch strip.Orientation {
	case geometry.Vertical:
		x = float64(strip.Start.X)
		lo, hi := bounds.MinY+geometry.RoadHalfWidth, bounds.MaxY-geometry.RoadHalfWidth
		y = lo + mrand.Float64()*math.Max(0, hi-lo)
	default:
		y = float64(strip.Start.Y)
		lo, hi := bounds.MinX+geometry.RoadHalfWidth, bounds.MaxX-geometry.RoadHalfWidth
		x = lo + mrand.Float64()*math.Max(0, hi-lo)
	}
	return geometry.Position{X: x, Y: y}, true
}
