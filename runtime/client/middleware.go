package client

import (
	"context"
	"time"
)

// QueryEvent describes one statement run through Intercept.
type QueryEvent struct {
	Query    string
	Args     []any
	Duration time.Duration
	Error    error
	Start    time.Time
	End      time.Time
}

// Middleware is a function that intercepts statements
type Middleware func(ctx context.Context, event *QueryEvent, next func() error) error

// Use adds a middleware to the chain
func (c *Client) Use(middleware Middleware) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.middlewares = append(c.middlewares, middleware)
}

// Intercept runs exec through the middleware chain. Query builders call it
// around each statement they send on a lease.
func (c *Client) Intercept(ctx context.Context, query string, args []any, exec func() error) error {
	c.mu.RLock()
	chain := c.middlewares
	c.mu.RUnlock()

	if len(chain) == 0 {
		return exec()
	}

	event := &QueryEvent{
		Query: query,
		Args:  args,
		Start: time.Now(),
	}

	var next func() error
	index := 0

	next = func() error {
		if index >= len(chain) {
			// Last middleware, execute the actual statement
			err := exec()
			event.End = time.Now()
			event.Duration = event.End.Sub(event.Start)
			event.Error = err
			return err
		}

		middleware := chain[index]
		index++
		return middleware(ctx, event, next)
	}

	return next()
}

// LoggingMiddleware logs every statement at debug level and failures at
// warn level.
func LoggingMiddleware(logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}) Middleware {
	return func(ctx context.Context, event *QueryEvent, next func() error) error {
		err := next()
		if err != nil {
			logger.Warn("statement failed", "query", event.Query, "args", len(event.Args), "error", err)
		} else {
			logger.Debug("statement completed", "query", event.Query, "args", len(event.Args), "duration", event.Duration)
		}
		return err
	}
}

// TimingMiddleware creates a middleware that measures statement execution time
func TimingMiddleware(onTiming func(query string, duration time.Duration)) Middleware {
	return func(ctx context.Context, event *QueryEvent, next func() error) error {
		err := next()
		if onTiming != nil {
			onTiming(event.Query, event.Duration)
		}
		return err
	}
}

// ErrorMiddleware creates a middleware that handles errors
func ErrorMiddleware(onError func(query string, err error)) Middleware {
	return func(ctx context.Context, event *QueryEvent, next func() error) error {
		err := next()
		if err != nil && onError != nil {
			onError(event.Query, err)
		}
		return err
	}
}
