package retirement

import (
	"strings"
	"sync"
	"testing"
	"time"

	"lostandfound/server/internal/records"
	"lostandfound/server/internal/session"
	"lostandfound/server/internal/worldmodel"
)

// failingSink wraps a MemorySink with a toggleable failure mode, so tests
// can exercise the retry queue without a real on-disk sink.
type failingSink struct {
	mu    sync.Mutex
	fail  bool
	inner *records.MemorySink
}

func newFailingSink() *failingSink {
	return &failingSink{inner: records.NewMemorySink()}
}

func (s *failingSink) setFail(f bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail = f
}

func (s *failingSink) Add(name string, score, playTimeSeconds float64) error {
	s.mu.Lock()
	fail := s.fail
	s.mu.Unlock()
	if fail {
		return records.ErrSinkUnavailable
	}
	return s.inner.Add(name, score, playTimeSeconds)
}

func (s *failingSink) Top(start, max int) ([]records.Record, error) { return s.inner.Top(start, max) }
func (s *failingSink) Close() error                                 { return s.inner.Close() }

func mustTestWorld(t *testing.T) *worldmodel.World {
	t.Helper()
	cfg, err := worldmodel.LoadConfig(strings.NewReader(
		`{"maps":[{"id":"park","name":"Park","roads":[{"x0":0,"y0":0,"x1":10,"y1":0}]}]}`))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	w, err := worldmodel.NewWorld(cfg)
	if err != nil {
		t.Fatalf("NewWorld: %v", err)
	}
	return w
}

func TestControllerRetiresInMemoryDespiteSinkFailureThenRetries(t *testing.T) {
	w := mustTestWorld(t)
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	clockFn := func() time.Time { return clock }

	registry := session.NewRegistry(w, session.WithClock(clockFn))
	sink := newFailingSink()
	sink.setFail(true)
	ctrl := NewController(time.Second, sink, WithClock(clockFn))

	token, _, err := registry.Join("alice", "park")
	if err != nil {
		t.Fatalf("Join: %v", err)
	}
	if ok, err := registry.SetAction(token, session.MoveStop); !ok {
		t.Fatalf("SetAction: %v", err)
	}

	clock = clock.Add(2 * time.Second)
	ctrl.Tick(registry)

	if _, ok := registry.FindByToken(token); ok {
		t.Fatal("expected player to be retired in-memory even though the sink rejected the write")
	}
	if top, err := sink.Top(0, 10); err != nil || len(top) != 0 {
		t.Fatalf("expected no persisted records while the sink is failing, got %v (err %v)", top, err)
	}

	sink.setFail(false)
	ctrl.Tick(registry)

	top, err := sink.Top(0, 10)
	if err != nil {
		t.Fatalf("Top: %v", err)
	}
	if len(top) != 1 || top[0].Name != "alice" {
		t.Fatalf("expected alice's record to be retried and persisted once the sink recovered, got %v", top)
	}
}

func TestControllerDropsOldestBeyondRetryCap(t *testing.T) {
	w := mustTestWorld(t)
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	clockFn := func() time.Time { return clock }

	registry := session.NewRegistry(w, session.WithClock(clockFn))
	sink := newFailingSink()
	sink.setFail(true)
	ctrl := NewController(time.Second, sink, WithClock(clockFn), WithRetryCap(1))

	aliceToken, _, err := registry.Join("alice", "park")
	if err != nil {
		t.Fatalf("Join alice: %v", err)
	}
	if ok, err := registry.SetAction(aliceToken, session.MoveStop); !ok {
		t.Fatalf("SetAction alice: %v", err)
	}
	bobToken, _, err := registry.Join("bob", "park")
	if err != nil {
		t.Fatalf("Join bob: %v", err)
	}
	if ok, err := registry.SetAction(bobToken, session.MoveStop); !ok {
		t.Fatalf("SetAction bob: %v", err)
	}

	// Both players cross the idle threshold in the same tick; both retirement
	// writes fail and are queued, but the cap of 1 drops alice's (the older)
	// entry, keeping only bob's.
	clock = clock.Add(2 * time.Second)
	ctrl.Tick(registry)

	sink.setFail(false)
	ctrl.Tick(registry)

	top, err := sink.Top(0, 10)
	if err != nil {
		t.Fatalf("Top: %v", err)
	}
	if len(top) != 1 || top[0].Name != "bob" {
		t.Fatalf("expected only bob's record to survive the capped retry queue, got %v", top)
	}
}
