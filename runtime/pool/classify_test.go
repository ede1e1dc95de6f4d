package pool

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"io"
	"syscall"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want FailureClass
	}{
		{name: "nil", err: nil, want: ClassOther},
		{name: "pq too many connections", err: &pq.Error{Code: "53300"}, want: ClassResource},
		{name: "pq admin shutdown", err: &pq.Error{Code: "57P01"}, want: ClassConnectivity},
		{name: "pq cannot connect now", err: &pq.Error{Code: "57P03"}, want: ClassConnectivity},
		{name: "pq connection failure class", err: &pq.Error{Code: "08006"}, want: ClassConnectivity},
		{name: "pq auth failure", err: &pq.Error{Code: "28P01", Message: "password authentication failed"}, want: ClassOther},
		{name: "mysql too many connections", err: &mysql.MySQLError{Number: 1040}, want: ClassResource},
		{name: "mysql server gone", err: &mysql.MySQLError{Number: 2006}, want: ClassConnectivity},
		{name: "mysql access denied", err: &mysql.MySQLError{Number: 1045, Message: "Access denied"}, want: ClassOther},
		{name: "mysql invalid conn", err: mysql.ErrInvalidConn, want: ClassConnectivity},
		{name: "bad conn", err: driver.ErrBadConn, want: ClassConnectivity},
		{name: "wrapped econnrefused", err: fmt.Errorf("dial tcp: %w", syscall.ECONNREFUSED), want: ClassConnectivity},
		{name: "unexpected eof", err: io.ErrUnexpectedEOF, want: ClassConnectivity},
		{name: "pool exhausted message", err: errors.New("Connection pool exhausted"), want: ClassResource},
		{name: "timeout message", err: errors.New("timeout exceeded when trying to connect"), want: ClassResource},
		{name: "terminated message", err: errors.New("Connection terminated unexpectedly"), want: ClassConnectivity},
		{name: "context canceled", err: context.Canceled, want: ClassOther},
		{name: "deadline", err: fmt.Errorf("connect: %w", context.DeadlineExceeded), want: ClassOther},
		{name: "unrelated", err: errors.New("database \"nope\" does not exist"), want: ClassOther},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}
}

func TestFailureClass(t *testing.T) {
	assert.True(t, ClassResource.Transient())
	assert.True(t, ClassConnectivity.Transient())
	assert.False(t, ClassOther.Transient())

	assert.Equal(t, "transient-resource", ClassResource.String())
	assert.Equal(t, "transient-connectivity", ClassConnectivity.String())
	assert.Equal(t, "other", ClassOther.String())
}
