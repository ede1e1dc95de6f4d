package pool

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"sync"
	"time"
)

type fakeConn struct {
	id       int
	probeErr error

	mu    sync.Mutex
	execs []string
}

func (c *fakeConn) ExecContext(_ context.Context, query string, _ ...any) (sql.Result, error) {
	c.mu.Lock()
	c.execs = append(c.execs, query)
	c.mu.Unlock()
	if c.probeErr != nil {
		return nil, c.probeErr
	}
	return driver.RowsAffected(0), nil
}

func (c *fakeConn) QueryContext(context.Context, string, ...any) (*sql.Rows, error) {
	return nil, nil
}

// fakePool hands out connections according to a script of errors; a nil
// entry yields a healthy connection.
type fakePool struct {
	mu         sync.Mutex
	script     []error
	probeErrs  []error
	connects   int
	released   []*fakeConn
	releaseErr error
}

func (p *fakePool) Connect(context.Context) (Conn, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	i := p.connects
	p.connects++
	if i < len(p.script) && p.script[i] != nil {
		return nil, p.script[i]
	}
	c := &fakeConn{id: i}
	if i < len(p.probeErrs) {
		c.probeErr = p.probeErrs[i]
	}
	return c, nil
}

func (p *fakePool) Release(conn Conn) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.released = append(p.released, conn.(*fakeConn))
	return p.releaseErr
}

func (p *fakePool) Stats() Stats {
	return Stats{Total: 10, Idle: 0, InUse: 10, Waiting: 2}
}

func (p *fakePool) Info() Info {
	return Info{Host: "db.internal", Port: 5432, User: "app", Database: "orders", MaxSize: 10}
}

func (p *fakePool) Connects() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.connects
}

// recordingLogger keeps every message it receives.
type recordingLogger struct {
	mu      sync.Mutex
	entries []logEntry
}

type logEntry struct {
	level string
	msg   string
	args  []any
}

func (l *recordingLogger) log(level, msg string, args []any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, logEntry{level: level, msg: msg, args: args})
}

func (l *recordingLogger) Debug(msg string, args ...any) { l.log("debug", msg, args) }
func (l *recordingLogger) Info(msg string, args ...any)  { l.log("info", msg, args) }
func (l *recordingLogger) Warn(msg string, args ...any)  { l.log("warn", msg, args) }
func (l *recordingLogger) Error(msg string, args ...any) { l.log("error", msg, args) }

func (l *recordingLogger) levels() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.entries))
	for i, e := range l.entries {
		out[i] = e.level
	}
	return out
}

// manualClock is a settable time source.
type manualClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func recordSleeps(a *Acquirer) *[]time.Duration {
	var sleeps []time.Duration
	a.sleep = func(ctx context.Context, d time.Duration) error {
		sleeps = append(sleeps, d)
		return ctx.Err()
	}
	return &sleeps
}
