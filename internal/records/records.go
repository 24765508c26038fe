// Package records implements the append-only store of retired-player
// records with a ranked read query.
package records

import "errors"

// ErrSinkUnavailable wraps an underlying driver error from a Sink.
var ErrSinkUnavailable = errors.New("records sink unavailable")

// Record is one persisted retired-player row.
type Record struct {
	ID         string
	Name       string
	Score      float64
	PlayTimeMs int64
}

// Sink is the durable append-only store the retirement controller writes
// to, with a ranked read query over the stored records.
type Sink interface {
	// Add persists one retired player's final tally.
	Add(name string, score float64, playTimeSeconds float64) error
	// Top returns up to max records starting at the given zero-based
	// offset, ordered by (score DESC, play_time_ms ASC, name ASC).
	Top(start, max int) ([]Record, error)
	// Close releases any resources held by the sink.
	Close() error
}
