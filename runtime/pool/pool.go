// Package pool acquires pooled database connections with liveness checks,
// retry with exponential backoff and idle reclamation of held leases.
package pool

import (
	"context"
	"database/sql"
	"fmt"
)

// Conn is a single database connection handed out by a Pool.
// *sql.Conn satisfies it.
type Conn interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Pool is the connection pool capability this package builds on.
type Pool interface {
	// Connect checks a connection out of the pool.
	Connect(ctx context.Context) (Conn, error)

	// Release returns a connection to the pool.
	Release(conn Conn) error

	// Stats reports current occupancy.
	Stats() Stats

	// Info describes the pool target, for diagnostics only.
	Info() Info
}

// Stats holds pool occupancy counters.
type Stats struct {
	Total   int
	Idle    int
	InUse   int
	Waiting int64
}

// Info is a diagnostic snapshot of the pool configuration.
// It never carries the password.
type Info struct {
	Host     string
	Port     int
	User     string
	Database string
	MaxSize  int
}

// String implements fmt.Stringer.
func (i Info) String() string {
	return fmt.Sprintf("%s@%s:%d/%s (max %d)", i.User, i.Host, i.Port, i.Database, i.MaxSize)
}

// Logger is the leveled log sink used by this package and by
// runtime/client. Arguments are slog-style key/value pairs.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// StackLogger is implemented by loggers that can attach a stack trace.
type StackLogger interface {
	ErrorStack(msg string, err error, args ...any)
}

// NopLogger discards everything.
type NopLogger struct{}

func (NopLogger) Debug(string, ...any) {}
func (NopLogger) Info(string, ...any)  {}
func (NopLogger) Warn(string, ...any)  {}
func (NopLogger) Error(string, ...any) {}

// LogErrorStack logs err with a stack trace when l supports it and as a
// plain error otherwise.
func LogErrorStack(l Logger, msg string, err error, args ...any) {
	if sl, ok := l.(StackLogger); ok {
		sl.ErrorStack(msg, err, args...)
		return
	}
	l.Error(msg, append(args, "error", err)...)
}
