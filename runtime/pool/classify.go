package pool

import (
	"context"
	"database/sql/driver"
	"errors"
	"io"
	"net"
	"strings"
	"syscall"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
)

// FailureClass tells whether an acquisition failure is worth retrying.
type FailureClass int

const (
	// ClassOther failures are not retried.
	ClassOther FailureClass = iota
	// ClassResource failures come from pool or server exhaustion.
	ClassResource
	// ClassConnectivity failures come from a lost or shutting down server.
	ClassConnectivity
)

// String implements fmt.Stringer.
func (c FailureClass) String() string {
	switch c {
	case ClassResource:
		return "transient-resource"
	case ClassConnectivity:
		return "transient-connectivity"
	default:
		return "other"
	}
}

// Transient reports whether the class is retried.
func (c FailureClass) Transient() bool {
	return c == ClassResource || c == ClassConnectivity
}

var resourceSignatures = []string{
	"too many clients",
	"too many connections",
	"remaining connection slots are reserved",
	"connection pool exhausted",
	"pool exhausted",
	"timeout exceeded when trying to connect",
	"no more connections allowed",
}

var connectivitySignatures = []string{
	"connection terminated",
	"terminating connection",
	"server closed the connection unexpectedly",
	"the database system is shutting down",
	"the database system is starting up",
	"the database system is in recovery mode",
	"connection refused",
	"connection reset",
	"broken pipe",
	"bad connection",
	"server has gone away",
	"lost connection",
	"unexpected eof",
}

// PostgreSQL SQLSTATE codes.
const (
	pgTooManyConnections = "53300"
	pgAdminShutdown      = "57P01"
	pgCrashShutdown      = "57P02"
	pgCannotConnectNow   = "57P03"
	pgConnectionClass    = "08"
)

// MySQL server and client error numbers.
const (
	myTooManyConnections  = 1040
	myServerShutdown      = 1053
	myUserTooManyConns    = 1203
	myServerGone          = 2006
	myServerLost          = 2013
	myConnectionCountHigh = 1226
)

// Classify sorts an acquisition error into a FailureClass. Vendor error
// codes from lib/pq and the MySQL driver are checked first, then known
// message signatures.
func Classify(err error) FailureClass {
	if err == nil {
		return ClassOther
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return ClassOther
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch {
		case pqErr.Code == pgTooManyConnections:
			return ClassResource
		case pqErr.Code == pgAdminShutdown, pqErr.Code == pgCrashShutdown, pqErr.Code == pgCannotConnectNow:
			return ClassConnectivity
		case string(pqErr.Code.Class()) == pgConnectionClass:
			return ClassConnectivity
		}
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		switch myErr.Number {
		case myTooManyConnections, myUserTooManyConns, myConnectionCountHigh:
			return ClassResource
		case myServerShutdown, myServerGone, myServerLost:
			return ClassConnectivity
		}
	}

	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, mysql.ErrInvalidConn) ||
		errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EPIPE) {
		return ClassConnectivity
	}

	msg := strings.ToLower(err.Error())
	for _, sig := range resourceSignatures {
		if strings.Contains(msg, sig) {
			return ClassResource
		}
	}
	for _, sig := range connectivitySignatures {
		if strings.Contains(msg, sig) {
			return ClassConnectivity
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ClassConnectivity
	}
	return ClassOther
}
