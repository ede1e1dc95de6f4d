package client

import (
	"context"
	"errors"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satishbabariya/querykit/runtime/pool"
)

func insertUser(ctx context.Context, lease *pool.Lease) (int, error) {
	if _, err := lease.ExecContext(ctx, "INSERT INTO users (email) VALUES ($1)", "a@example.com"); err != nil {
		return 0, err
	}
	return 42, nil
}

func TestRun_Commits(t *testing.T) {
	conn := &scriptConn{}
	c, p, _ := newTestClient(conn)

	id, err := Run(context.Background(), c, insertUser)
	require.NoError(t, err)
	assert.Equal(t, 42, id)
	assert.Equal(t, []string{"BEGIN", "INSERT INTO users (email) VALUES ($1)", "COMMIT"}, conn.Statements())
	assert.Equal(t, 1, p.releases)
}

func TestRun_UniqueViolationQuiet(t *testing.T) {
	conn := &scriptConn{failOn: map[string]error{
		"INSERT": &pq.Error{Code: "23505", Message: "duplicate key value violates unique constraint \"users_email_key\"", Constraint: "users_email_key"},
	}}
	c, p, log := newTestClient(conn)

	id, err := Run(context.Background(), c, insertUser, Quiet())
	assert.NoError(t, err)
	assert.Zero(t, id)
	assert.Equal(t, []string{"BEGIN", "INSERT INTO users (email) VALUES ($1)", "ROLLBACK"}, conn.Statements())
	assert.Equal(t, 1, p.releases)

	entry, ok := log.find("database error")
	require.True(t, ok)
	assert.Equal(t, "error", entry.level)
	assert.Contains(t, entry.args, "23505")
	assert.Contains(t, entry.args, "users_email_key")
}

func TestRunOutcome_RecoveredKeepsError(t *testing.T) {
	conn := &scriptConn{failOn: map[string]error{"INSERT": &pq.Error{Code: "23505"}}}
	c, _, _ := newTestClient(conn)

	res := RunOutcome(context.Background(), c, insertUser, Quiet())
	assert.Equal(t, OutcomeRecovered, res.Outcome)
	assert.ErrorIs(t, res.Err, ErrUniqueViolation)
	assert.Zero(t, res.Value)
}

func TestRun_DatabaseErrorPropagates(t *testing.T) {
	pqErr := &pq.Error{Code: "23503", Message: "insert violates foreign key", Table: "orders"}
	conn := &scriptConn{failOn: map[string]error{"INSERT": pqErr}}
	c, _, _ := newTestClient(conn)

	_, err := Run(context.Background(), c, insertUser)
	require.Error(t, err)

	var dbErr *DatabaseError
	require.ErrorAs(t, err, &dbErr)
	assert.Equal(t, "postgres", dbErr.Vendor)
	assert.Equal(t, "23503", dbErr.Code)
	assert.Equal(t, "orders", dbErr.Table)
	assert.ErrorIs(t, err, ErrForeignKeyViolation)
	assert.NotErrorIs(t, err, ErrUniqueViolation)

	var driverErr *pq.Error
	require.ErrorAs(t, err, &driverErr)
	assert.Same(t, pqErr, driverErr)
	assert.Contains(t, conn.Statements(), "ROLLBACK")
}

func TestRun_GenericErrorUnmodified(t *testing.T) {
	conn := &scriptConn{}
	c, _, log := newTestClient(conn)
	validation := errors.New("email is required")

	_, err := Run(context.Background(), c, func(context.Context, *pool.Lease) (int, error) {
		return 0, validation
	})
	assert.Same(t, validation, err)
	assert.Equal(t, []string{"BEGIN", "ROLLBACK"}, conn.Statements())

	_, ok := log.find("database error")
	assert.False(t, ok)
}

func TestRun_NoSQLErrorLog(t *testing.T) {
	conn := &scriptConn{failOn: map[string]error{"INSERT": &pq.Error{Code: "23505"}}}
	c, _, log := newTestClient(conn)

	_, err := Run(context.Background(), c, insertUser, NoSQLErrorLog())
	assert.ErrorIs(t, err, ErrUniqueViolation)
	_, ok := log.find("database error")
	assert.False(t, ok)
}

func TestRun_BeginFailure(t *testing.T) {
	beginErr := errors.New("connection is busy")
	conn := &scriptConn{failOn: map[string]error{"BEGIN": beginErr}}
	c, p, _ := newTestClient(conn)
	called := false

	_, err := Run(context.Background(), c, func(context.Context, *pool.Lease) (int, error) {
		called = true
		return 1, nil
	})
	assert.ErrorIs(t, err, ErrBeginFailed)
	assert.ErrorIs(t, err, beginErr)
	assert.False(t, called)
	assert.Equal(t, []string{"BEGIN"}, conn.Statements())
	assert.Equal(t, 1, p.releases)
}

func TestRun_BeginFailureQuiet(t *testing.T) {
	conn := &scriptConn{failOn: map[string]error{"BEGIN": errors.New("boom")}}
	c, p, _ := newTestClient(conn)

	res := RunOutcome(context.Background(), c, insertUser, Quiet())
	assert.Equal(t, OutcomeRecovered, res.Outcome)
	assert.ErrorIs(t, res.Err, ErrBeginFailed)
	assert.NotContains(t, conn.Statements(), "ROLLBACK")
	assert.Equal(t, 1, p.releases)
}

func TestRun_RollbackFailureDoesNotMask(t *testing.T) {
	workErr := errors.New("out of stock")
	conn := &scriptConn{failOn: map[string]error{"ROLLBACK": errors.New("connection lost")}}
	c, p, log := newTestClient(conn)

	_, err := Run(context.Background(), c, func(context.Context, *pool.Lease) (int, error) {
		return 0, workErr
	})
	assert.Same(t, workErr, err)
	assert.Equal(t, 1, p.releases)

	entry, ok := log.find("rollback failed")
	require.True(t, ok)
	assert.Equal(t, "error", entry.level)
}

func TestRun_CommitFailure(t *testing.T) {
	conn := &scriptConn{failOn: map[string]error{"COMMIT": &pq.Error{Code: "40001", Message: "could not serialize access"}}}
	c, p, _ := newTestClient(conn)

	_, err := Run(context.Background(), c, insertUser)
	assert.ErrorIs(t, err, ErrCommitFailed)
	assert.ErrorIs(t, err, ErrSerializationFailure)
	assert.True(t, IsDatabaseError(err))
	assert.Equal(t, []string{"BEGIN", "INSERT INTO users (email) VALUES ($1)", "COMMIT", "ROLLBACK"}, conn.Statements())
	assert.Equal(t, 1, p.releases)
}

func TestRun_NoTransaction(t *testing.T) {
	conn := &scriptConn{}
	c, _, _ := newTestClient(conn)

	_, err := Run(context.Background(), c, insertUser, NoTransaction())
	require.NoError(t, err)
	assert.Equal(t, []string{"INSERT INTO users (email) VALUES ($1)"}, conn.Statements())
}

func TestRun_NoRollback(t *testing.T) {
	conn := &scriptConn{failOn: map[string]error{"INSERT": errors.New("boom")}}
	c, _, _ := newTestClient(conn)

	_, err := Run(context.Background(), c, insertUser, NoRollback())
	require.Error(t, err)
	assert.Equal(t, []string{"BEGIN", "INSERT INTO users (email) VALUES ($1)"}, conn.Statements())
}

func TestRun_IsolationAndReadOnly(t *testing.T) {
	conn := &scriptConn{}
	c, _, _ := newTestClient(conn)

	_, err := Run(context.Background(), c, func(context.Context, *pool.Lease) (int, error) {
		return 0, nil
	}, WithIsolation(Serializable), ReadOnly())
	require.NoError(t, err)
	assert.Equal(t, "BEGIN ISOLATION LEVEL SERIALIZABLE, READ ONLY", conn.Statements()[0])
}

func TestRun_WithPolicyThenOverride(t *testing.T) {
	conn := &scriptConn{failOn: map[string]error{"INSERT": errors.New("boom")}}
	c, _, _ := newTestClient(conn)

	policy := DefaultPolicy()
	policy.UseTransaction = false
	_, err := Run(context.Background(), c, insertUser, WithPolicy(policy), Quiet())
	assert.NoError(t, err)
	assert.Equal(t, []string{"INSERT INTO users (email) VALUES ($1)"}, conn.Statements())
}

func TestRun_DefaultPolicyOption(t *testing.T) {
	conn := &scriptConn{failOn: map[string]error{"INSERT": errors.New("boom")}}
	quiet := DefaultPolicy()
	quiet.ThrowOnError = false
	c, _, _ := newTestClient(conn, WithDefaultPolicy(quiet))

	_, err := Run(context.Background(), c, insertUser)
	assert.NoError(t, err)
}

func TestRun_PanicRollsBackAndReleases(t *testing.T) {
	conn := &scriptConn{}
	c, p, _ := newTestClient(conn)

	assert.PanicsWithValue(t, "kaboom", func() {
		_, _ = Run(context.Background(), c, func(context.Context, *pool.Lease) (int, error) {
			panic("kaboom")
		})
	})
	assert.Equal(t, []string{"BEGIN", "ROLLBACK"}, conn.Statements())
	assert.Equal(t, 1, p.releases)
}

func TestRun_CancelledContextStillCommits(t *testing.T) {
	conn := &scriptConn{honorCtx: true}
	c, _, _ := newTestClient(conn)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	_, err := Run(ctx, c, func(context.Context, *pool.Lease) (int, error) {
		cancel()
		return 7, nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"BEGIN", "COMMIT"}, conn.Statements())
}

func TestRun_AcquireFailure(t *testing.T) {
	p := &singleConnPool{connectErr: errors.New("password authentication failed")}
	acq := pool.NewAcquirer(p)
	c := New(acq)

	_, err := Run(context.Background(), c, insertUser)
	assert.ErrorIs(t, err, ErrNoConnection)

	res := RunOutcome(context.Background(), c, insertUser, Quiet())
	assert.Equal(t, OutcomeRecovered, res.Outcome)
	assert.ErrorIs(t, res.Err, ErrNoConnection)
	assert.Zero(t, p.releases)
}

func TestClient_Exec(t *testing.T) {
	conn := &scriptConn{}
	c, _, _ := newTestClient(conn)

	err := c.Exec(context.Background(), func(ctx context.Context, lease *pool.Lease) error {
		_, err := lease.ExecContext(ctx, "DELETE FROM sessions")
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"BEGIN", "DELETE FROM sessions", "COMMIT"}, conn.Statements())
}

func TestOutcome_String(t *testing.T) {
	assert.Equal(t, "success", OutcomeSuccess.String())
	assert.Equal(t, "recovered", OutcomeRecovered.String())
	assert.Equal(t, "propagated", OutcomePropagated.String())
}
