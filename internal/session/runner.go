// File: internal/session/runner.go
// Author: momentics <momentics@gmail.com>
//
// Runner binds an accepted or dialed stream to the serial device for one
// relay session.

package session

import (
	"fmt"
	"time"

	"github.com/momentics/serbridge/api"
	"github.com/momentics/serbridge/core/relay"
	"github.com/momentics/serbridge/pool"
	"github.com/momentics/serbridge/transport"
	"go.uber.org/zap"
)

// Hooks receives session lifecycle and traffic notifications.
type Hooks interface {
	relay.Observer
	SessionStarted()
	SessionEnded(start time.Time, err error)
	SetupFailed()
}

// OpenFunc opens the serial side of a session.
type OpenFunc func(transport.SerialConfig) (api.Transport, error)

// MuxFunc creates the readiness multiplexer for a session.
type MuxFunc func() (api.Multiplexer, error)

// OpenSerial is the default OpenFunc.
func OpenSerial(cfg transport.SerialConfig) (api.Transport, error) {
	s, err := transport.OpenSerial(cfg)
	if err != nil {
		return nil, err
	}
	return s, nil
}

type nopHooks struct{}

func (nopHooks) Relayed(string, int)           {}
func (nopHooks) Stalled(string)                {}
func (nopHooks) SessionStarted()               {}
func (nopHooks) SessionEnded(time.Time, error) {}
func (nopHooks) SetupFailed()                  {}

// Option customizes a Runner.
type Option func(*Runner)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.log = l
		}
	}
}

// WithHooks sets the lifecycle observer, typically control.Metrics.
func WithHooks(h Hooks) Option {
	return func(r *Runner) {
		if h != nil {
			r.hooks = h
		}
	}
}

// WithOpener replaces the serial opener.
func WithOpener(fn OpenFunc) Option {
	return func(r *Runner) { r.open = fn }
}

// WithMultiplexerFactory makes every session use multiplexers from fn.
func WithMultiplexerFactory(fn MuxFunc) Option {
	return func(r *Runner) { r.newMux = fn }
}

// WithTracker shares a tracker between runners.
func WithTracker(t *Tracker) Option {
	return func(r *Runner) { r.tracker = t }
}

// Runner runs relay sessions against one serial device.
type Runner struct {
	serial  transport.SerialConfig
	bufSize int
	bufPool *pool.BytePool
	open    OpenFunc
	newMux  MuxFunc
	log     *zap.Logger
	hooks   Hooks
	tracker *Tracker
}

// NewRunner creates a runner. bufSize below pool.MinBufferSize is raised.
func NewRunner(serial transport.SerialConfig, bufSize int, opts ...Option) *Runner {
	size, _ := pool.NormalizeSize(bufSize)
	r := &Runner{
		serial:  serial,
		bufSize: size,
		bufPool: pool.NewBytePool(size),
		open:    OpenSerial,
		log:     zap.NewNop(),
		hooks:   nopHooks{},
		tracker: NewTracker(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Tracker returns the live session registry.
func (r *Runner) Tracker() *Tracker { return r.tracker }

// BufferPool returns the pool shared by all sessions of r.
func (r *Runner) BufferPool() *pool.BytePool { return r.bufPool }

// Run relays between stream and the serial device until the session ends.
// stream is always closed on return.
func (r *Runner) Run(stream api.Transport, peer string) error {
	info := api.SessionInfo{
		ID:        r.tracker.NextID(),
		Peer:      peer,
		Device:    r.serial.Name,
		Status:    api.SessionConnecting,
		StartedAt: time.Now(),
	}
	log := r.log.With(zap.Uint64("session", info.ID), zap.String("peer", peer))
	log.Info("connect", zap.Stringer("serial", r.serial))

	rl, err := r.setup(stream, log)
	if err != nil {
		r.hooks.SetupFailed()
		log.Error("session setup failed", zap.Error(err))
		return err
	}

	info.Status = api.SessionActive
	r.tracker.add(info, rl)
	r.hooks.SessionStarted()

	err = rl.Run()

	r.tracker.remove(info.ID)
	r.hooks.SessionEnded(info.StartedAt, err)
	fields := []zap.Field{
		zap.String("reason", rl.Reason()),
		zap.Duration("elapsed", time.Since(info.StartedAt)),
	}
	if err != nil {
		log.Warn("disconnect", append(fields, zap.Error(err))...)
		return err
	}
	log.Info("disconnect", fields...)
	return nil
}

func (r *Runner) setup(stream api.Transport, log *zap.Logger) (*relay.Relay, error) {
	serial, err := r.open(r.serial)
	if err != nil {
		_ = stream.Close()
		return nil, fmt.Errorf("open serial %s: %w", r.serial.Name, err)
	}
	opts := []relay.Option{
		relay.WithLogger(log),
		relay.WithObserver(r.hooks),
		relay.WithBufferPool(r.bufPool),
	}
	if r.newMux != nil {
		mux, err := r.newMux()
		if err != nil {
			_ = stream.Close()
			_ = serial.Close()
			return nil, fmt.Errorf("create multiplexer: %w", err)
		}
		opts = append(opts, relay.WithMultiplexer(mux))
	}
	rl, err := relay.New(stream, serial, r.bufSize, opts...)
	if err != nil {
		_ = stream.Close()
		_ = serial.Close()
		return nil, err
	}
	return rl, nil
}
