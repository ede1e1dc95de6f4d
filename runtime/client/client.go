// Package client runs units of work on leased connections inside a
// transaction and resolves their failures according to a Policy.
package client

import (
	"sync"

	"github.com/satishbabariya/querykit/runtime/pool"
)

// Client is the handle every unit of work runs through. Build one at
// startup and share it; it is safe for concurrent use.
type Client struct {
	acquirer *pool.Acquirer
	logger   pool.Logger
	policy   Policy

	mu          sync.RWMutex
	middlewares []Middleware
}

// Option configures a Client.
type Option func(*Client)

// WithLogger overrides the logger. By default the acquirer's logger is used.
func WithLogger(l pool.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithDefaultPolicy sets the policy applied when a call passes no
// PolicyOption.
func WithDefaultPolicy(p Policy) Option {
	return func(c *Client) {
		c.policy = p
	}
}

// WithMiddleware registers statement middleware at construction time.
func WithMiddleware(mw ...Middleware) Option {
	return func(c *Client) {
		c.middlewares = append(c.middlewares, mw...)
	}
}

// New creates a Client over acquirer.
func New(acquirer *pool.Acquirer, opts ...Option) *Client {
	c := &Client{
		acquirer: acquirer,
		logger:   acquirer.Logger(),
		policy:   DefaultPolicy(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Acquirer returns the connection acquirer.
func (c *Client) Acquirer() *pool.Acquirer {
	return c.acquirer
}

// Logger returns the client's logger.
func (c *Client) Logger() pool.Logger {
	return c.logger
}

// Policy returns the default policy.
func (c *Client) Policy() Policy {
	return c.policy
}
