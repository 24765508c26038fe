package records

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const schemaDDL = `
CREATE TABLE IF NOT EXISTS retired_players (
    id           TEXT PRIMARY KEY,
    name         TEXT NOT NULL,
    score        INTEGER NOT NULL,
    play_time_ms INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_retired_players_rank
    ON retired_players (score DESC, play_time_ms ASC, name ASC);
`

// SQLiteSink is a Sink backed by a pure-Go SQLite driver, with a bounded
// connection pool so a slow append cannot starve the rest of the process.
type SQLiteSink struct {
	db   *sql.DB
	pool *connPool
}

// connPool is a fixed-size pool of reserved *sql.Conn handles. An acquirer
// blocks on the condition variable until a connection is pushed back by a
// prior holder, which signals one waiter.
type connPool struct {
	mu    sync.Mutex
	cond  *sync.Cond
	conns []*sql.Conn
}

func newConnPool(ctx context.Context, db *sql.DB, size int) (*connPool, error) {
	p := &connPool{}
	p.cond = sync.NewCond(&p.mu)
	for i := 0; i < size; i++ {
		conn, err := db.Conn(ctx)
		if err != nil {
			for _, c := range p.conns {
				_ = c.Close()
			}
			return nil, err
		}
		p.conns = append(p.conns, conn)
	}
	return p, nil
}

func (p *connPool) acquire() *sql.Conn {
	p.mu.Lock()
	for len(p.conns) == 0 {
		p.cond.Wait()
	}
	n := len(p.conns) - 1
	conn := p.conns[n]
	p.conns = p.conns[:n]
	p.mu.Unlock()
	return conn
}

func (p *connPool) release(conn *sql.Conn) {
	p.mu.Lock()
	p.conns = append(p.conns, conn)
	p.mu.Unlock()
	p.cond.Signal()
}

func (p *connPool) closeAll() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	var firstErr error
	for _, c := range p.conns {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	p.conns = nil
	return firstErr
}

// OpenSQLiteSink opens (creating if necessary) the sqlite database at path
// and prepares a bounded pool of poolSize connections.
func OpenSQLiteSink(path string, poolSize int) (*SQLiteSink, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrSinkUnavailable, path, err)
	}
	ctx := context.Background()
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode = WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: journal_mode pragma: %v", ErrSinkUnavailable, err)
	}
	if _, err := db.ExecContext(ctx, schemaDDL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: schema init: %v", ErrSinkUnavailable, err)
	}
	if poolSize <= 0 {
		poolSize = 1
	}
	pool, err := newConnPool(ctx, db, poolSize)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: connection pool: %v", ErrSinkUnavailable, err)
	}
	return &SQLiteSink{db: db, pool: pool}, nil
}

// Add persists one retired player's final tally, acquiring a pooled
// connection for the duration of the insert.
func (s *SQLiteSink) Add(name string, score float64, playTimeSeconds float64) error {
	conn := s.pool.acquire()
	defer s.pool.release(conn)

	playTimeMs := int64(playTimeSeconds*1000 + 0.5)
	id := uuid.NewString()
	_, err := conn.ExecContext(context.Background(),
		`INSERT INTO retired_players (id, name, score, play_time_ms) VALUES (?, ?, ?, ?)`,
		id, name, int64(score), playTimeMs)
	if err != nil {
		return fmt.Errorf("%w: insert: %v", ErrSinkUnavailable, err)
	}
	return nil
}

// Top returns up to max records starting at the given zero-based offset,
// ranked by (score DESC, play_time_ms ASC, name ASC).
func (s *SQLiteSink) Top(start, max int) ([]Record, error) {
	if max <= 0 {
		return nil, nil
	}
	conn := s.pool.acquire()
	defer s.pool.release(conn)

	rows, err := conn.QueryContext(context.Background(),
		`SELECT id, name, score, play_time_ms FROM retired_players
		 ORDER BY score DESC, play_time_ms ASC, name ASC
		 LIMIT ? OFFSET ?`, max, start)
	if err != nil {
		return nil, fmt.Errorf("%w: query: %v", ErrSinkUnavailable, err)
	}
	defer rows.Close()

	var results []Record
	for rows.Next() {
		var rec Record
		var score int64
		if err := rows.Scan(&rec.ID, &rec.Name, &score, &rec.PlayTimeMs); err != nil {
			return nil, fmt.Errorf("%w: scan: %v", ErrSinkUnavailable, err)
		}
		rec.Score = float64(score)
		results = append(results, rec)
	}
	return results, rows.Err()
}

// Close releases the connection pool and the underlying database handle.
func (s *SQLiteSink) Close() error {
	poolErr := s.pool.closeAll()
	dbErr := s.db.Close()
	if poolErr != nil {
		return poolErr
	}
	return dbErr
}
