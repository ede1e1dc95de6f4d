package client

import "strings"

// IsolationLevel represents transaction isolation levels
type IsolationLevel int

const (
	// LevelDefault leaves the isolation level to the server
	LevelDefault IsolationLevel = iota
	// ReadUncommitted allows dirty reads
	ReadUncommitted
	// ReadCommitted prevents dirty reads
	ReadCommitted
	// RepeatableRead prevents dirty reads and non-repeatable reads
	RepeatableRead
	// Serializable prevents dirty reads, non-repeatable reads, and phantom reads
	Serializable
)

// String returns the SQL spelling of the level.
func (level IsolationLevel) String() string {
	switch level {
	case ReadUncommitted:
		return "READ UNCOMMITTED"
	case ReadCommitted:
		return "READ COMMITTED"
	case RepeatableRead:
		return "REPEATABLE READ"
	case Serializable:
		return "SERIALIZABLE"
	default:
		return ""
	}
}

// Policy decides how a unit of work is wrapped and how its failure is
// surfaced.
type Policy struct {
	// ThrowOnError returns failures to the caller. When false the caller
	// gets the zero value and a nil error.
	ThrowOnError bool

	// PrintSQLError logs a structured diagnostic for database errors.
	PrintSQLError bool

	// RollbackOnError issues ROLLBACK when the work or COMMIT fails.
	RollbackOnError bool

	// UseTransaction wraps the work in BEGIN/COMMIT.
	UseTransaction bool

	// Isolation is added to BEGIN when set.
	Isolation IsolationLevel

	// ReadOnly starts a read-only transaction.
	ReadOnly bool
}

// DefaultPolicy fails loud: rethrow, log SQL errors, roll back, use a
// transaction.
func DefaultPolicy() Policy {
	return Policy{
		ThrowOnError:    true,
		PrintSQLError:   true,
		RollbackOnError: true,
		UseTransaction:  true,
	}
}

// PolicyOption adjusts the policy of a single call.
type PolicyOption func(*Policy)

// Quiet swallows failures; the call returns the zero value and nil.
func Quiet() PolicyOption {
	return func(p *Policy) {
		p.ThrowOnError = false
	}
}

// NoSQLErrorLog suppresses the database error diagnostic.
func NoSQLErrorLog() PolicyOption {
	return func(p *Policy) {
		p.PrintSQLError = false
	}
}

// NoRollback leaves a failed transaction to the connection.
//
// The lease still goes back to the pool afterwards, so the pooled session
// keeps the failed transaction open and the next BEGIN on it fails. Work run
// with NoRollback must end the transaction itself (ROLLBACK on the lease)
// before returning its error.
func NoRollback() PolicyOption {
	return func(p *Policy) {
		p.RollbackOnError = false
	}
}

// NoTransaction runs the work without BEGIN/COMMIT.
func NoTransaction() PolicyOption {
	return func(p *Policy) {
		p.UseTransaction = false
	}
}

// WithIsolation sets the transaction isolation level.
func WithIsolation(level IsolationLevel) PolicyOption {
	return func(p *Policy) {
		p.Isolation = level
	}
}

// ReadOnly starts a read-only transaction.
func ReadOnly() PolicyOption {
	return func(p *Policy) {
		p.ReadOnly = true
	}
}

// WithPolicy replaces the whole policy. Later options still apply on top.
func WithPolicy(policy Policy) PolicyOption {
	return func(p *Policy) {
		*p = policy
	}
}

func (p Policy) with(opts []PolicyOption) Policy {
	for _, opt := range opts {
		opt(&p)
	}
	return p
}

// beginStatement renders BEGIN with the policy's transaction modes.
func (p Policy) beginStatement() string {
	var modes []string
	if level := p.Isolation.String(); level != "" {
		modes = append(modes, "ISOLATION LEVEL "+level)
	}
	if p.ReadOnly {
		modes = append(modes, "READ ONLY")
	}
	if len(modes) == 0 {
		return "BEGIN"
	}
	return "BEGIN " + strings.Join(modes, ", ")
}
