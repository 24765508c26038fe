// Package retirement tracks per-player idle time and retires players who
// have been idle past the configured threshold, persisting their final
// score to the records sink.
package retirement

import (
	"sync"
	"time"

	"lostandfound/server/internal/logging"
	"lostandfound/server/internal/records"
	"lostandfound/server/internal/session"
)

// pendingRecord is a retired-player record waiting to be retried against
// the sink after an earlier attempt failed.
type pendingRecord struct {
	name           string
	score          float64
	playTimeSeconds float64
	attempts       int
}

// Controller drives the idle-tracking and retirement policy described in
// the component design: per tick, idle dogs accrue idle time; once idle
// duration crosses the threshold, the player is retired atomically with
// respect to the façade lock the caller already holds.
type Controller struct {
	threshold time.Duration
	now       func() time.Time
	sink      records.Sink
	logger    *logging.Logger

	mu         sync.Mutex
	retryQueue []pendingRecord
	retryCap   int

	onRetire func(name string, score float64, playTimeSeconds float64)
}

// Option configures optional Controller behaviour at construction time.
type Option func(*Controller)

// WithClock overrides the wall-clock time source, for deterministic tests.
func WithClock(clock func() time.Time) Option {
	return func(c *Controller) {
		if clock != nil {
			c.now = clock
		}
	}
}

// WithLogger attaches a structured logger for retry/drop diagnostics.
func WithLogger(logger *logging.Logger) Option {
	return func(c *Controller) { c.logger = logger }
}

// WithRetryCap bounds the in-memory retry queue used when the sink is
// unavailable; beyond this many pending records the oldest is dropped and
// logged at Error level.
func WithRetryCap(cap int) Option {
	return func(c *Controller) {
		if cap > 0 {
			c.retryCap = cap
		}
	}
}

// NewController constructs a Controller bound to a records sink and an idle
// threshold.
func NewController(threshold time.Duration, sink records.Sink, opts ...Option) *Controller {
	c := &Controller{
		threshold: threshold,
		now:       time.Now,
		sink:      sink,
		retryCap:  64,
		logger:    logging.NewTestLogger(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// SetRetirementCallback installs an optional hook invoked after a player is
// retired, mirroring the façade surface's SetRetirementCallback.
func (c *Controller) SetRetirementCallback(fn func(name string, score float64, playTimeSeconds float64)) {
	c.onRetire = fn
}

// Tick runs one retirement pass: idle bookkeeping for every active player,
// then retirement for anyone whose idle time has crossed the threshold,
// then a retry pass over previously failed sink writes. The caller must
// already hold the façade's exclusive lock.
func (c *Controller) Tick(registry *session.Registry) {
	if registry == nil {
		return
	}
	now := c.now()

	for _, snap := range registry.Active() {
		idle := snap.Dog.Velocity.IsZero()
		if !idle {
			continue
		}
		if snap.IdleStart == nil {
			//1.- Arm the idle clock the first tick a dog is found at rest.
			registry.SetIdleStart(snap.Player.ID, timePtr(now))
			continue
		}
		if now.Sub(*snap.IdleStart) >= c.threshold {
			c.retire(registry, snap)
		}
	}

	c.drainRetryQueue()
}

func (c *Controller) retire(registry *session.Registry, snap session.Snapshot) {
	name, score, joinTime, ok := registry.Retire(snap.Player.ID)
	if !ok {
		//1.- Already retired by a prior pass: idempotent no-op.
		return
	}
	playTimeSeconds := c.now().Sub(joinTime).Seconds()
	c.persist(name, score, playTimeSeconds)
	if c.onRetire != nil {
		c.onRetire(name, score, playTimeSeconds)
	}
}

func (c *Controller) persist(name string, score, playTimeSeconds float64) {
	if err := c.sink.Add(name, score, playTimeSeconds); err != nil {
		c.logger.Warn("records sink rejected retirement, queueing retry",
			logging.String("name", name), logging.Error(err))
		c.enqueueRetry(pendingRecord{name: name, score: score, playTimeSeconds: playTimeSeconds})
		return
	}
}

func (c *Controller) enqueueRetry(rec pendingRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.retryQueue = append(c.retryQueue, rec)
	if len(c.retryQueue) > c.retryCap {
		dropped := c.retryQueue[0]
		c.retryQueue = c.retryQueue[1:]
		c.logger.Error("dropping retired-player record, retry queue full",
			logging.String("name", dropped.name))
	}
}

func (c *Controller) drainRetryQueue() {
	c.mu.Lock()
	queue := c.retryQueue
	c.retryQueue = nil
	c.mu.Unlock()

	var stillPending []pendingRecord
	for _, rec := range queue {
		rec.attempts++
		if err := c.sink.Add(rec.name, rec.score, rec.playTimeSeconds); err != nil {
			c.logger.Debug("retry of queued record failed", logging.String("name", rec.name), logging.Error(err))
			stillPending = append(stillPending, rec)
			continue
		}
	}

	if len(stillPending) == 0 {
		return
	}
	c.mu.Lock()
	c.retryQueue = append(stillPending, c.retryQueue...)
	c.mu.Unlock()
}

func timePtr(t time.Time) *time.Time { return &t }
