package pool

import (
	"context"
	"database/sql"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Lease is a borrowed connection. It must be released exactly once; extra
// Release calls are no-ops.
//
// Every statement run through the lease refreshes its last-used time, which
// the idle sweep reads. A pinned lease is never reclaimed by the sweep.
type Lease struct {
	id         uuid.UUID
	conn       Conn
	acquiredAt time.Time
	lastUsed   atomic.Int64
	now        func() time.Time

	mu   sync.Mutex // guards pins against a concurrent reclaim
	pins int

	once       sync.Once
	released   atomic.Bool
	release    func(*Lease) error
	releaseErr error
}

func newLease(conn Conn, now func() time.Time, release func(*Lease) error) *Lease {
	l := &Lease{
		id:         uuid.New(),
		conn:       conn,
		acquiredAt: now(),
		now:        now,
		release:    release,
	}
	l.lastUsed.Store(l.acquiredAt.UnixNano())
	return l
}

// ID identifies the lease in logs.
func (l *Lease) ID() uuid.UUID {
	return l.id
}

// Conn returns the underlying connection.
func (l *Lease) Conn() Conn {
	return l.conn
}

// AcquiredAt returns when the lease was handed out.
func (l *Lease) AcquiredAt() time.Time {
	return l.acquiredAt
}

// LastUsed returns the last time the lease ran a statement or was touched.
func (l *Lease) LastUsed() time.Time {
	return time.Unix(0, l.lastUsed.Load())
}

// Touch marks the lease as used now.
func (l *Lease) Touch() {
	l.lastUsed.Store(l.now().UnixNano())
}

// IdleFor returns how long the lease has gone unused as of now.
func (l *Lease) IdleFor(now time.Time) time.Duration {
	return now.Sub(l.LastUsed())
}

// Pin protects the lease from the idle sweep until the matching Unpin.
// Pins nest. Pinning a released lease returns ErrLeaseReleased.
func (l *Lease) Pin() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.Released() {
		return ErrLeaseReleased
	}
	l.pins++
	return nil
}

// Unpin undoes one Pin.
func (l *Lease) Unpin() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.pins > 0 {
		l.pins--
	}
}

// Pinned reports whether the lease is currently pinned.
func (l *Lease) Pinned() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.pins > 0
}

// reclaimIfIdle releases the lease when it is unpinned and has been idle
// longer than threshold as of now. It reports whether it released and the
// idle time it saw.
func (l *Lease) reclaimIfIdle(now time.Time, threshold time.Duration) (bool, time.Duration, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	idle := l.IdleFor(now)
	if l.pins > 0 || l.Released() || idle <= threshold {
		return false, idle, nil
	}
	return true, idle, l.Release()
}

// Released reports whether the lease went back to the pool.
func (l *Lease) Released() bool {
	return l.released.Load()
}

// ExecContext runs a statement on the leased connection.
func (l *Lease) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	if l.Released() {
		return nil, ErrLeaseReleased
	}
	l.Touch()
	return l.conn.ExecContext(ctx, query, args...)
}

// QueryContext runs a query on the leased connection.
func (l *Lease) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	if l.Released() {
		return nil, ErrLeaseReleased
	}
	l.Touch()
	return l.conn.QueryContext(ctx, query, args...)
}

// Release returns the connection to the pool. Only the first call does
// anything; later calls return the first call's result.
func (l *Lease) Release() error {
	l.once.Do(func() {
		l.Touch()
		l.released.Store(true)
		if l.release != nil {
			l.releaseErr = l.release(l)
		}
	})
	return l.releaseErr
}

var _ Conn = (*Lease)(nil)
