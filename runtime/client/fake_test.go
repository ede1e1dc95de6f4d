package client

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"strings"
	"sync"

	"github.com/satishbabariya/querykit/runtime/pool"
)

// scriptConn records every statement and fails those whose text starts
// with a key of failOn.
type scriptConn struct {
	mu         sync.Mutex
	statements []string
	failOn     map[string]error
	honorCtx   bool
}

func (c *scriptConn) ExecContext(ctx context.Context, query string, _ ...any) (sql.Result, error) {
	c.mu.Lock()
	c.statements = append(c.statements, query)
	c.mu.Unlock()
	if c.honorCtx && ctx.Err() != nil {
		return nil, ctx.Err()
	}
	for prefix, err := range c.failOn {
		if strings.HasPrefix(query, prefix) {
			return nil, err
		}
	}
	return driver.RowsAffected(1), nil
}

func (c *scriptConn) QueryContext(context.Context, string, ...any) (*sql.Rows, error) {
	return nil, nil
}

func (c *scriptConn) Statements() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	// Drop the liveness probe.
	out := make([]string, 0, len(c.statements))
	for _, s := range c.statements {
		if s != pool.DefaultProbe {
			out = append(out, s)
		}
	}
	return out
}

type singleConnPool struct {
	conn       *scriptConn
	connectErr error
	releases   int
}

func (p *singleConnPool) Connect(context.Context) (pool.Conn, error) {
	if p.connectErr != nil {
		return nil, p.connectErr
	}
	return p.conn, nil
}

func (p *singleConnPool) Release(pool.Conn) error {
	p.releases++
	return nil
}

func (p *singleConnPool) Stats() pool.Stats { return pool.Stats{} }
func (p *singleConnPool) Info() pool.Info   { return pool.Info{Host: "test"} }

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

func (l *recordingLogger) find(msg string) (logEntry, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, e := range l.entries {
		if e.msg == msg {
			return e, true
		}
	}
	return logEntry{}, false
}

func newTestClient(conn *scriptConn, opts ...Option) (*Client, *singleConnPool, *recordingLogger) {
	p := &singleConnPool{conn: conn}
	log := &recordingLogger{}
	acq := pool.NewAcquirer(p, pool.WithLogger(log), pool.WithMaxAttempts(1))
	return New(acq, opts...), p, log
}
