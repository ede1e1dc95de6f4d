package pool

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"
)

// DefaultProbe is the liveness query run on every acquired connection.
const DefaultProbe = "SELECT 1"

// RetryConfig holds acquisition retry configuration
type RetryConfig struct {
	MaxAttempts int           // Total connection attempts, first one included
	BaseDelay   time.Duration // Delay after the first failed attempt
	MaxDelay    time.Duration // Upper bound for a single delay (0 = unbounded)
	Jitter      bool          // Spread each delay by ±25%
}

// DefaultRetryConfig returns default retry configuration
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 3,
		BaseDelay:   100 * time.Millisecond,
	}
}

// Delay returns the backoff before the attempt that follows attempt
// (0-based): BaseDelay * 2^attempt, capped by MaxDelay. A product that would
// overflow saturates at MaxDelay, or at the largest Duration when no cap is
// set.
func (c RetryConfig) Delay(attempt int) time.Duration {
	if c.BaseDelay <= 0 {
		return 0
	}
	if attempt < 0 {
		attempt = 0
	}

	limit := time.Duration(math.MaxInt64)
	if c.MaxDelay > 0 {
		limit = c.MaxDelay
	}
	if attempt >= 63 || c.BaseDelay > limit>>uint(attempt) {
		return limit
	}
	return c.BaseDelay << uint(attempt)
}

// Option customizes an Acquirer.
type Option func(*Acquirer)

// WithMaxAttempts sets the total number of connection attempts.
func WithMaxAttempts(n int) Option {
	return func(a *Acquirer) {
		a.retry.MaxAttempts = n
	}
}

// WithBaseDelay sets the first backoff delay.
func WithBaseDelay(d time.Duration) Option {
	return func(a *Acquirer) {
		a.retry.BaseDelay = d
	}
}

// WithMaxDelay caps a single backoff delay.
func WithMaxDelay(d time.Duration) Option {
	return func(a *Acquirer) {
		a.retry.MaxDelay = d
	}
}

// WithJitter enables ±25% jitter on backoff delays.
func WithJitter(enabled bool) Option {
	return func(a *Acquirer) {
		a.retry.Jitter = enabled
	}
}

// WithRetryConfig replaces the whole retry configuration.
func WithRetryConfig(cfg RetryConfig) Option {
	return func(a *Acquirer) {
		a.retry = cfg
	}
}

// WithLogger sets the logger.
func WithLogger(l Logger) Option {
	return func(a *Acquirer) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithProbe sets the liveness query. An empty query disables the probe.
func WithProbe(query string) Option {
	return func(a *Acquirer) {
		a.probe = query
	}
}

// Acquirer hands out liveness-checked leases from a Pool, retrying
// transient failures with exponential backoff. It is safe for concurrent use.
type Acquirer struct {
	pool   Pool
	retry  RetryConfig
	logger Logger
	probe  string

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error

	mu   sync.Mutex
	held map[*Lease]struct{}
}

// NewAcquirer creates an Acquirer over p.
func NewAcquirer(p Pool, opts ...Option) *Acquirer {
	a := &Acquirer{
		pool:   p,
		retry:  DefaultRetryConfig(),
		logger: NopLogger{},
		probe:  DefaultProbe,
		now:    time.Now,
		sleep:  sleepContext,
		held:   make(map[*Lease]struct{}),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.retry.MaxAttempts < 1 {
		a.retry.MaxAttempts = 1
	}
	return a
}

// Pool returns the underlying pool.
func (a *Acquirer) Pool() Pool {
	return a.pool
}

// Logger returns the configured logger.
func (a *Acquirer) Logger() Logger {
	return a.logger
}

// RetryConfig returns the effective retry configuration.
func (a *Acquirer) RetryConfig() RetryConfig {
	return a.retry
}

// Acquire checks out a connection, verifies it with the liveness probe and
// returns it as a Lease.
//
// Resource and connectivity failures, and failed probes, are retried up to
// MaxAttempts with exponential backoff; no delay follows the last attempt.
// Other failures are returned at once. The returned error is an
// *AcquireError matching ErrNoConnection.
func (a *Acquirer) Acquire(ctx context.Context) (*Lease, error) {
	return a.acquire(ctx, false)
}

// AcquirePinned is Acquire returning a lease that is already pinned, so the
// idle sweep cannot reclaim it before the caller is done. Unpin or Release
// it when finished.
func (a *Acquirer) AcquirePinned(ctx context.Context) (*Lease, error) {
	return a.acquire(ctx, true)
}

func (a *Acquirer) acquire(ctx context.Context, pinned bool) (*Lease, error) {
	var lastErr error
	class := ClassOther

	for attempt := 0; attempt < a.retry.MaxAttempts; attempt++ {
		conn, err := a.pool.Connect(ctx)
		if err == nil {
			if perr := a.checkAlive(ctx, conn); perr != nil {
				a.logger.Warn("connection failed liveness probe",
					"attempt", attempt+1, "max_attempts", a.retry.MaxAttempts, "error", perr)
				if rerr := a.pool.Release(conn); rerr != nil {
					a.logger.Warn("releasing dead connection failed", "error", rerr)
				}
				lastErr, class = perr, ClassConnectivity
			} else {
				lease := newLease(conn, a.now, a.releaseLease)
				if pinned {
					lease.pins = 1
				}
				a.mu.Lock()
				a.held[lease] = struct{}{}
				a.mu.Unlock()
				if attempt > 0 {
					a.logger.Info("connection acquired after retry", "lease", lease.ID().String(), "attempts", attempt+1)
				}
				return lease, nil
			}
		} else {
			lastErr, class = err, Classify(err)
			if !class.Transient() {
				a.logFatal(err, attempt+1)
				return nil, &AcquireError{Attempts: attempt + 1, Class: class, Cause: err}
			}
			a.logger.Warn("transient connection failure",
				"class", class.String(), "attempt", attempt+1, "max_attempts", a.retry.MaxAttempts, "error", err)
		}

		if attempt == a.retry.MaxAttempts-1 {
			break
		}
		if serr := a.sleep(ctx, a.backoff(attempt)); serr != nil {
			return nil, &AcquireError{Attempts: attempt + 1, Class: ClassOther, Cause: serr}
		}
	}

	a.logger.Error("no connection available, retries exhausted",
		"attempts", a.retry.MaxAttempts, "class", class.String(), "error", lastErr)
	return nil, &AcquireError{Attempts: a.retry.MaxAttempts, Class: class, Cause: lastErr}
}

func (a *Acquirer) checkAlive(ctx context.Context, conn Conn) error {
	if a.probe == "" {
		return nil
	}
	if _, err := conn.ExecContext(ctx, a.probe); err != nil {
		return fmt.Errorf("%w: %w", ErrProbeFailed, err)
	}
	return nil
}

func (a *Acquirer) backoff(attempt int) time.Duration {
	delay := a.retry.Delay(attempt)
	if a.retry.Jitter && delay > 0 {
		jitterRange := delay / 4
		if jitterRange > 0 {
			spread := time.Duration(rand.Int63n(int64(jitterRange) * 2))
			if delay > math.MaxInt64-jitterRange {
				spread /= 2
			}
			delay = delay - jitterRange + spread
		}
	}
	return delay
}

// logFatal emits the full diagnostic context for a non-retryable failure.
func (a *Acquirer) logFatal(err error, attempts int) {
	info := a.pool.Info()
	stats := a.pool.Stats()
	LogErrorStack(a.logger, "connection acquisition failed", err,
		"attempts", attempts,
		"host", info.Host,
		"port", info.Port,
		"user", info.User,
		"database", info.Database,
		"max_size", info.MaxSize,
		"total", stats.Total,
		"idle", stats.Idle,
		"in_use", stats.InUse,
		"waiting", stats.Waiting,
	)
}

func (a *Acquirer) releaseLease(l *Lease) error {
	a.mu.Lock()
	delete(a.held, l)
	a.mu.Unlock()
	return a.pool.Release(l.conn)
}

// Held returns the number of leases currently checked out.
func (a *Acquirer) Held() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.held)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// IsNoConnection reports whether err is an acquisition failure.
func IsNoConnection(err error) bool {
	return errors.Is(err, ErrNoConnection)
}
