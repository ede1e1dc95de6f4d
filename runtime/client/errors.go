package client

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"

	"github.com/satishbabariya/querykit/runtime/pool"
)

var (
	// ErrNoConnection matches acquisition failures.
	ErrNoConnection = pool.ErrNoConnection

	// ErrBeginFailed is returned when BEGIN fails. No rollback is attempted.
	ErrBeginFailed = errors.New("client: begin transaction failed")

	// ErrCommitFailed is returned when COMMIT fails.
	ErrCommitFailed = errors.New("client: commit transaction failed")
)

// Database error categories, matched with errors.Is against a
// *DatabaseError.
var (
	ErrUniqueViolation      = errors.New("unique constraint violation")
	ErrForeignKeyViolation  = errors.New("foreign key constraint violation")
	ErrNotNullViolation     = errors.New("not null constraint violation")
	ErrSerializationFailure = errors.New("serialization failure")
)

// DatabaseError is a failure reported by the database server, carrying
// its diagnostic payload.
type DatabaseError struct {
	Vendor     string // "postgres", "mysql", "sqlite3" or "sqlstate"
	Code       string // vendor error code
	SQLState   string // SQLSTATE when known
	Severity   string
	Message    string
	Detail     string
	Hint       string
	Position   string
	Where      string
	Table      string
	Column     string
	Constraint string

	category error
	err      error
}

// Error implements the error interface.
func (e *DatabaseError) Error() string {
	var b strings.Builder
	b.WriteString(e.Vendor)
	b.WriteString(" error")
	if e.Code != "" {
		b.WriteString(" ")
		b.WriteString(e.Code)
	}
	b.WriteString(": ")
	b.WriteString(e.Message)
	if e.Detail != "" {
		b.WriteString(" (")
		b.WriteString(e.Detail)
		b.WriteString(")")
	}
	return b.String()
}

// Unwrap returns the driver error.
func (e *DatabaseError) Unwrap() error {
	return e.err
}

// Is matches the category sentinels.
func (e *DatabaseError) Is(target error) bool {
	return e.category != nil && target == e.category
}

// LogArgs returns the diagnostic payload as slog-style key/value pairs,
// skipping empty fields.
func (e *DatabaseError) LogArgs() []any {
	fields := []struct {
		key   string
		value string
	}{
		{"vendor", e.Vendor},
		{"code", e.Code},
		{"sqlstate", e.SQLState},
		{"severity", e.Severity},
		{"message", e.Message},
		{"detail", e.Detail},
		{"hint", e.Hint},
		{"position", e.Position},
		{"where", e.Where},
		{"table", e.Table},
		{"column", e.Column},
		{"constraint", e.Constraint},
	}
	args := make([]any, 0, len(fields)*2)
	for _, f := range fields {
		if f.value != "" {
			args = append(args, f.key, f.value)
		}
	}
	return args
}

type sqlStater interface {
	SQLState() string
}

// AsDatabaseError extracts a *DatabaseError from err. It recognizes lib/pq,
// MySQL and SQLite driver errors, and any error with a SQLState method.
func AsDatabaseError(err error) (*DatabaseError, bool) {
	if err == nil {
		return nil, false
	}

	var dbErr *DatabaseError
	if errors.As(err, &dbErr) {
		return dbErr, true
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return fromPostgres(pqErr), true
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return fromMySQL(myErr), true
	}

	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return fromSQLite(liteErr), true
	}

	var stater sqlStater
	if errors.As(err, &stater) {
		state := stater.SQLState()
		if state == "" {
			return nil, false
		}
		return &DatabaseError{
			Vendor:   "sqlstate",
			Code:     state,
			SQLState: state,
			Message:  err.Error(),
			category: categoryForSQLState(state),
			err:      err,
		}, true
	}

	return nil, false
}

// IsDatabaseError reports whether err carries a database error.
func IsDatabaseError(err error) bool {
	_, ok := AsDatabaseError(err)
	return ok
}

func fromPostgres(e *pq.Error) *DatabaseError {
	return &DatabaseError{
		Vendor:     "postgres",
		Code:       string(e.Code),
		SQLState:   string(e.Code),
		Severity:   e.Severity,
		Message:    e.Message,
		Detail:     e.Detail,
		Hint:       e.Hint,
		Position:   e.Position,
		Where:      e.Where,
		Table:      e.Table,
		Column:     e.Column,
		Constraint: e.Constraint,
		category:   categoryForSQLState(string(e.Code)),
		err:        e,
	}
}

func fromMySQL(e *mysql.MySQLError) *DatabaseError {
	state := strings.TrimRight(string(e.SQLState[:]), "\x00")
	var category error
	switch e.Number {
	case 1062, 1586:
		category = ErrUniqueViolation
	case 1216, 1217, 1451, 1452:
		category = ErrForeignKeyViolation
	case 1048, 1364:
		category = ErrNotNullViolation
	case 1213:
		category = ErrSerializationFailure
	default:
		category = categoryForSQLState(state)
	}
	return &DatabaseError{
		Vendor:   "mysql",
		Code:     strconv.Itoa(int(e.Number)),
		SQLState: state,
		Severity: "ERROR",
		Message:  e.Message,
		category: category,
		err:      e,
	}
}

func fromSQLite(e sqlite3.Error) *DatabaseError {
	var category error
	switch e.ExtendedCode {
	case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
		category = ErrUniqueViolation
	case sqlite3.ErrConstraintForeignKey:
		category = ErrForeignKeyViolation
	case sqlite3.ErrConstraintNotNull:
		category = ErrNotNullViolation
	}
	return &DatabaseError{
		Vendor:   "sqlite3",
		Code:     strconv.Itoa(int(e.ExtendedCode)),
		Severity: "ERROR",
		Message:  e.Error(),
		Detail:   e.Code.Error(),
		category: category,
		err:      e,
	}
}

func categoryForSQLState(state string) error {
	switch state {
	case "23505":
		return ErrUniqueViolation
	case "23503":
		return ErrForeignKeyViolation
	case "23502":
		return ErrNotNullViolation
	case "40001", "40P01":
		return ErrSerializationFailure
	}
	return nil
}

// stageError marks a BEGIN or COMMIT failure while keeping the cause
// (a *DatabaseError when the driver reported one) reachable.
type stageError struct {
	stage error
	cause error
}

func (e *stageError) Error() string {
	return fmt.Sprintf("%v: %v", e.stage, e.cause)
}

func (e *stageError) Unwrap() []error {
	return []error{e.stage, e.cause}
}
