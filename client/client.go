// Package client
// Author: momentics <momentics@gmail.com>
//
// Client dials a remote bridge server and runs a single session between the
// connection and the local serial device.

package client

import (
	"context"
	"fmt"

	"github.com/momentics/serbridge/api"
	"github.com/momentics/serbridge/internal/session"
	"github.com/momentics/serbridge/transport/tcp"
	"go.uber.org/zap"
)

// Option customizes a Client.
type Option func(*Client)

// WithLogger sets the client logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// WithDebug publishes the live session through d.
func WithDebug(d api.Debug) Option {
	return func(c *Client) { c.debug = d }
}

// Client is the dialing session driver.
type Client struct {
	remote string
	runner *session.Runner
	log    *zap.Logger
	debug  api.Debug
}

// NewClient prepares a client for remote (host:port).
func NewClient(remote string, runner *session.Runner, opts ...Option) (*Client, error) {
	if remote == "" || runner == nil {
		return nil, fmt.Errorf("client: remote and runner are required: %w", api.ErrInvalidArgument)
	}
	c := &Client{remote: remote, runner: runner, log: zap.NewNop()}
	for _, o := range opts {
		o(c)
	}
	if c.debug != nil {
		c.debug.RegisterProbe("client.remote", func() any { return remote })
		c.debug.RegisterProbe("client.sessions", func() any { return runner.Tracker().Snapshot() })
	}
	return c, nil
}

// Run dials the server and relays until the session ends. ctx bounds the
// dial only.
func (c *Client) Run(ctx context.Context) error {
	stream, err := tcp.Dial(ctx, c.remote)
	if err != nil {
		c.log.Error("connect failed", zap.String("remote", c.remote), zap.Error(err))
		return err
	}
	return c.runner.Run(stream, c.remote)
}
