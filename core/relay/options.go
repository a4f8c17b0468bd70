// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

package relay

import (
	"github.com/momentics/serbridge/api"
	"github.com/momentics/serbridge/pool"
	"go.uber.org/zap"
)

// Observer receives per-direction traffic notifications.
type Observer interface {
	// Relayed is called after n bytes were written to the destination.
	Relayed(direction string, n int)
	// Stalled is called when the destination of a direction would block.
	Stalled(direction string)
}

type nopObserver struct{}

func (nopObserver) Relayed(string, int) {}
func (nopObserver) Stalled(string)      {}

// Option customizes a Relay.
type Option func(*Relay)

// WithLogger attaches a logger.
func WithLogger(l *zap.Logger) Option {
	return func(r *Relay) {
		if l != nil {
			r.log = l
		}
	}
}

// WithObserver attaches a traffic observer.
func WithObserver(o Observer) Option {
	return func(r *Relay) {
		if o != nil {
			r.obs = o
		}
	}
}

// WithMultiplexer makes the relay use m instead of creating its own reactor.
// The relay closes m when it returns.
func WithMultiplexer(m api.Multiplexer) Option {
	return func(r *Relay) {
		r.mux = m
	}
}

// WithBufferPool takes the direction buffers from bp. The pool size
// overrides the size passed to New.
func WithBufferPool(bp *pool.BytePool) Option {
	return func(r *Relay) {
		r.bufPool = bp
	}
}

// WithEventCapacity sets the number of events fetched per Wait.
func WithEventCapacity(n int) Option {
	return func(r *Relay) {
		if n > 0 {
			r.events = make([]api.Event, n)
		}
	}
}
