package client

import (
	"context"
	"fmt"

	"github.com/satishbabariya/querykit/runtime/pool"
)

// Work is a unit of work run on a leased connection.
type Work[T any] func(ctx context.Context, lease *pool.Lease) (T, error)

// Outcome tells how a call was resolved.
type Outcome int

const (
	// OutcomeSuccess means the work (and COMMIT) succeeded.
	OutcomeSuccess Outcome = iota
	// OutcomeRecovered means a failure was swallowed by the policy.
	OutcomeRecovered
	// OutcomePropagated means a failure was returned to the caller.
	OutcomePropagated
)

// String implements fmt.Stringer.
func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeRecovered:
		return "recovered"
	case OutcomePropagated:
		return "propagated"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// Result is the full resolution of a call. Err holds the failure even when
// the policy swallowed it.
type Result[T any] struct {
	Value   T
	Outcome Outcome
	Err     error
}

// Run acquires a lease, runs work on it under the resolved policy and
// releases the lease. On a swallowed failure it returns the zero value and
// a nil error.
func Run[T any](ctx context.Context, c *Client, work Work[T], opts ...PolicyOption) (T, error) {
	res := RunOutcome(ctx, c, work, opts...)
	if res.Outcome == OutcomePropagated {
		return res.Value, res.Err
	}
	return res.Value, nil
}

// Exec is Run for work without a result.
func (c *Client) Exec(ctx context.Context, work func(ctx context.Context, lease *pool.Lease) error, opts ...PolicyOption) error {
	_, err := Run(ctx, c, func(ctx context.Context, lease *pool.Lease) (struct{}, error) {
		return struct{}{}, work(ctx, lease)
	}, opts...)
	return err
}

// RunOutcome is Run reporting how the call was resolved.
//
// The lease is pinned against the idle sweep for the whole call and
// released exactly once on every path. With UseTransaction,
// a BEGIN failure is resolved without rollback; a work or COMMIT failure
// is rolled back when RollbackOnError is set, and a failing ROLLBACK is
// only logged. A panic in work rolls back and re-panics.
func RunOutcome[T any](ctx context.Context, c *Client, work Work[T], opts ...PolicyOption) Result[T] {
	policy := c.policy.with(opts)

	lease, err := c.acquirer.AcquirePinned(ctx)
	if err != nil {
		return resolve[T](policy, err)
	}
	defer c.release(lease)

	if !policy.UseTransaction {
		value, err := work(ctx, lease)
		if err != nil {
			return fail[T](c, policy, classify(err))
		}
		return Result[T]{Value: value, Outcome: OutcomeSuccess}
	}

	if _, err := lease.ExecContext(ctx, policy.beginStatement()); err != nil {
		return fail[T](c, policy, &stageError{stage: ErrBeginFailed, cause: classify(err)})
	}

	finished := false
	defer func() {
		if !finished {
			if p := recover(); p != nil {
				c.rollback(ctx, lease, fmt.Errorf("panic: %v", p))
				panic(p) // re-throw panic after rollback
			}
		}
	}()

	value, err := work(ctx, lease)
	if err != nil {
		err = classify(err)
	} else if _, cerr := lease.ExecContext(context.WithoutCancel(ctx), "COMMIT"); cerr != nil {
		err = &stageError{stage: ErrCommitFailed, cause: classify(cerr)}
	}
	if err == nil {
		finished = true
		return Result[T]{Value: value, Outcome: OutcomeSuccess}
	}

	if policy.RollbackOnError {
		c.rollback(ctx, lease, err)
	}
	finished = true
	return fail[T](c, policy, err)
}

// fail reports err per policy and resolves the call.
func fail[T any](c *Client, policy Policy, err error) Result[T] {
	if dbErr, ok := AsDatabaseError(err); ok {
		if policy.PrintSQLError {
			c.logger.Error("database error", dbErr.LogArgs()...)
		}
	} else {
		c.logger.Warn("unit of work failed", "error", err)
	}
	return resolve[T](policy, err)
}

func resolve[T any](policy Policy, err error) Result[T] {
	if policy.ThrowOnError {
		return Result[T]{Outcome: OutcomePropagated, Err: err}
	}
	return Result[T]{Outcome: OutcomeRecovered, Err: err}
}

// classify turns a driver error into a *DatabaseError when it carries a
// vendor code and leaves any other error untouched.
func classify(err error) error {
	if dbErr, ok := AsDatabaseError(err); ok {
		return dbErr
	}
	return err
}

// rollback ends the transaction after cause. It runs even when ctx is
// cancelled, and its own failure is only logged.
func (c *Client) rollback(ctx context.Context, lease *pool.Lease, cause error) {
	if _, err := lease.ExecContext(context.WithoutCancel(ctx), "ROLLBACK"); err != nil {
		c.logger.Error("rollback failed", "lease", lease.ID().String(), "error", err, "cause", cause)
		return
	}
	c.logger.Debug("transaction rolled back", "lease", lease.ID().String(), "cause", cause)
}

func (c *Client) release(lease *pool.Lease) {
	lease.Unpin()
	lease.Touch()
	if err := lease.Release(); err != nil {
		c.logger.Warn("releasing connection failed", "lease", lease.ID().String(), "error", err)
	}
}
