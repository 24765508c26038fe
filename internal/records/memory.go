package records

import (
	"sort"
	"sync"
)

// MemorySink is an in-process Sink implementation used by tests and by
// callers that do not need durability across restarts.
type MemorySink struct {
	mu      sync.Mutex
	records []Record
	nextID  int
}

// NewMemorySink constructs an empty in-memory records sink.
func NewMemorySink() *MemorySink { return &MemorySink{} }

// Add persists one retired player's final tally.
func (s *MemorySink) Add(name string, score float64, playTimeSeconds float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	s.records = append(s.records, Record{
		ID:         idFor(s.nextID),
		Name:       name,
		Score:      score,
		PlayTimeMs: int64(playTimeSeconds*1000 + 0.5),
	})
	return nil
}

// Top returns up to max records starting at the given zero-based offset,
// ranked by (score DESC, play_time_ms ASC, name ASC).
func (s *MemorySink) Top(start, max int) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sorted := append([]Record(nil), s.records...)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.PlayTimeMs != b.PlayTimeMs {
			return a.PlayTimeMs < b.PlayTimeMs
		}
		return a.Name < b.Name
	})

	if start >= len(sorted) || max <= 0 {
		return nil, nil
	}
	end := start + max
	if end > len(sorted) {
		end = len(sorted)
	}
	return sorted[start:end], nil
}

// Close is a no-op for the in-memory sink.
func (s *MemorySink) Close() error { return nil }

func idFor(n int) string {
	const alphabet = "0123456789abcdef"
	if n == 0 {
		return "0"
	}
	var buf [16]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = alphabet[n%16]
		n /= 16
	}
	return string(buf[i:])
}
