// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

package relay

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/momentics/serbridge/api"
	"github.com/momentics/serbridge/pool"
	"github.com/momentics/serbridge/reactor"
	"go.uber.org/zap"
)

// Registration tokens of the two endpoints.
const (
	StreamToken api.Token = 0
	SerialToken api.Token = 1
)

// Direction names used in logs, metrics and errors.
const (
	StreamToSerial = "stream->serial"
	SerialToStream = "serial->stream"
)

type endpoint struct {
	t        api.Transport
	tok      api.Token
	interest api.Interest
}

// direction is one source->destination path with its own buffer.
type direction struct {
	name    string
	src     int // index into Relay.ends
	dst     int
	buf     *pool.SlidingBuffer
	state   atomic.Int32
	srcEOF  bool
	relayed atomic.Uint64
	stalls  atomic.Uint64
}

func (d *direction) State() State     { return State(d.state.Load()) }
func (d *direction) setState(s State) { d.state.Store(int32(s)) }

// Relay forwards bytes between a stream and a serial transport until either
// side closes or a fatal I/O error occurs. A Relay runs once.
type Relay struct {
	mux     api.Multiplexer
	ends    [2]endpoint
	dirs    [2]*direction // dirs[i] reads from ends[i]
	bufPool *pool.BytePool
	events  []api.Event
	log     *zap.Logger
	obs     Observer
	reason  string
	started atomic.Bool
}

// New prepares a relay between stream and serial. bufSize is the capacity of
// each direction buffer; values below pool.MinBufferSize are raised.
func New(stream, serial api.Transport, bufSize int, opts ...Option) (*Relay, error) {
	if stream == nil || serial == nil {
		return nil, fmt.Errorf("relay: nil transport: %w", api.ErrInvalidArgument)
	}
	r := &Relay{
		log: zap.NewNop(),
		obs: nopObserver{},
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.events == nil {
		r.events = make([]api.Event, reactor.DefaultEventCapacity)
	}
	if r.mux == nil {
		m, err := reactor.New()
		if err != nil {
			return nil, err
		}
		r.mux = m
	}

	r.ends[0] = endpoint{t: stream, tok: StreamToken}
	r.ends[1] = endpoint{t: serial, tok: SerialToken}
	r.dirs[0] = &direction{name: StreamToSerial, src: 0, dst: 1, buf: r.allocate(bufSize)}
	r.dirs[1] = &direction{name: SerialToStream, src: 1, dst: 0, buf: r.allocate(bufSize)}
	return r, nil
}

func (r *Relay) allocate(size int) *pool.SlidingBuffer {
	if r.bufPool != nil {
		return r.bufPool.GetBuffer()
	}
	size, _ = pool.NormalizeSize(size)
	return pool.NewSlidingBuffer(make([]byte, size))
}

// Exchange runs a relay between stream and serial and returns when the
// session is over. Both transports are closed on return.
func Exchange(stream, serial api.Transport, bufSize int, opts ...Option) error {
	r, err := New(stream, serial, bufSize, opts...)
	if err != nil {
		_ = stream.Close()
		_ = serial.Close()
		return err
	}
	return r.Run()
}

// Run drives the session. It returns nil on graceful closure by either side
// and a *SessionError on fatal failure. Transports, buffers and the
// multiplexer are released before Run returns.
func (r *Relay) Run() (err error) {
	if !r.started.CompareAndSwap(false, true) {
		return fmt.Errorf("relay: already started: %w", api.ErrInvalidArgument)
	}
	defer func() { r.release(err) }()

	for i := range r.ends {
		e := &r.ends[i]
		e.interest = api.Readable
		if err := r.mux.Register(e.t, e.tok, e.interest); err != nil {
			return &SessionError{Op: "register", Err: err}
		}
	}

	for {
		n, err := r.mux.Wait(r.events)
		if err != nil {
			return &SessionError{Op: "wait", Err: err}
		}
		for _, ev := range r.events[:n] {
			done, err := r.dispatch(ev)
			if err != nil || done {
				return err
			}
		}
	}
}

// dispatch handles one readiness event. done reports session termination.
func (r *Relay) dispatch(ev api.Event) (done bool, err error) {
	idx := -1
	for i := range r.ends {
		if r.ends[i].tok == ev.Token {
			idx = i
		}
	}
	if idx < 0 {
		return true, &SessionError{Op: "dispatch", Err: fmt.Errorf("unknown token %d: %w", ev.Token, api.ErrNotFound)}
	}
	outbound := r.dirs[idx]  // this endpoint is the source
	inbound := r.dirs[1-idx] // this endpoint is the destination

	if ev.Error {
		outbound.setState(StateClosed)
		r.reason = "error condition on " + r.ends[idx].t.Kind().String()
		err := api.ErrTransportFault
		if cause := faultCause(r.ends[idx].t); cause != nil {
			err = fmt.Errorf("%w: %w", api.ErrTransportFault, cause)
		}
		return true, &SessionError{Direction: outbound.name, Op: "poll", Err: err}
	}
	if ev.Readable {
		if err := r.arm(outbound); err != nil {
			return true, err
		}
	}
	if ev.Writable {
		if done, err := r.drain(inbound); done || err != nil {
			return true, err
		}
	}
	if ev.ReadClosed {
		if done, err := r.sourceClosed(outbound); done || err != nil {
			return true, err
		}
	}
	if ev.WriteClosed {
		r.reason = r.ends[idx].t.Kind().String() + " closed for writing"
		return true, nil
	}
	return false, nil
}

// faultCause fetches the error behind an error condition on t. Transports
// without a pending-error query are read once so the syscall reports it.
func faultCause(t api.Transport) error {
	if fr, ok := t.(api.FaultReporter); ok {
		if err := fr.PendingError(); err != nil {
			return err
		}
	}
	var scratch [1]byte
	if _, err := t.Read(scratch[:]); err != nil && !api.IsTransient(err) {
		return err
	}
	return nil
}

// arm asks for a wake-up once the destination of d can take output.
func (r *Relay) arm(d *direction) error {
	if d.srcEOF {
		return nil
	}
	if d.State() == StateIdle {
		d.setState(StateArmedForFlush)
	}
	return r.rearm(d.dst, true)
}

// sourceClosed delivers whatever arrived together with the close before the
// session ends. A direction waiting on its destination resumes on the next
// writable event instead.
func (r *Relay) sourceClosed(d *direction) (bool, error) {
	switch d.State() {
	case StateWaitingForDrain, StateFlushing, StateClosed:
		return false, nil
	}
	return r.drain(d)
}

// drain moves data from the source of d to its destination until one side
// would block or the session ends.
func (r *Relay) drain(d *direction) (done bool, err error) {
	if d.State() == StateClosed {
		return true, nil
	}
	d.setState(StateDraining)
	src := r.ends[d.src].t
	dst := r.ends[d.dst].t
	dry := false

	for {
		if !d.srcEOF && !dry && !d.buf.Full() {
			n, err := src.Read(d.buf.Free())
			switch {
			case errors.Is(err, api.ErrInterrupted):
				continue
			case errors.Is(err, api.ErrWouldBlock):
				if d.buf.Len() == 0 {
					return false, r.idle(d)
				}
				dry = true
			case err != nil:
				return true, r.fail(d, "read", err)
			case n == 0:
				d.srcEOF = true
				if d.buf.Len() == 0 {
					return true, r.finish(d, r.ends[d.src].t.Kind().String()+" closed")
				}
			default:
				d.buf.MarkFilled(n)
			}
		}

		n, err := r.write(dst, d.buf.Filled())
		switch {
		case errors.Is(err, api.ErrWouldBlock):
			d.stalls.Add(1)
			r.obs.Stalled(d.name)
			if d.srcEOF {
				d.setState(StateFlushing)
			} else {
				d.setState(StateWaitingForDrain)
			}
			return false, r.rearm(d.dst, false)
		case err != nil:
			return true, r.fail(d, "write", err)
		case n == 0:
			return true, r.finish(d, r.ends[d.dst].t.Kind().String()+" refused output")
		}
		d.buf.Consume(n)
		d.relayed.Add(uint64(n))
		r.obs.Relayed(d.name, n)

		if d.buf.Len() == 0 {
			if d.srcEOF {
				return true, r.finish(d, r.ends[d.src].t.Kind().String()+" closed")
			}
			if dry {
				return false, r.idle(d)
			}
		}
	}
}

// write retries interrupted writes of p.
func (r *Relay) write(dst api.Transport, p []byte) (int, error) {
	for {
		n, err := dst.Write(p)
		if errors.Is(err, api.ErrInterrupted) {
			continue
		}
		return n, err
	}
}

// idle returns d to its resting state: the source is watched for
// readability only and the destination drops the writable interest d held.
func (r *Relay) idle(d *direction) error {
	d.setState(StateIdle)
	if err := r.rearm(d.src, false); err != nil {
		return err
	}
	return r.rearm(d.dst, false)
}

// rearm recomputes the interest of ends[idx] from both directions. A forced
// rearm is issued even when the set is unchanged so the multiplexer
// re-evaluates readiness.
func (r *Relay) rearm(idx int, force bool) error {
	e := &r.ends[idx]
	in := api.Readable
	if r.dirs[1-idx].State().wantsWritable() {
		in |= api.Writable
	}
	if in == e.interest && !force {
		return nil
	}
	if err := r.mux.Rearm(e.t, e.tok, in); err != nil {
		return &SessionError{Op: "rearm", Err: err}
	}
	e.interest = in
	return nil
}

func (r *Relay) finish(d *direction, reason string) error {
	d.setState(StateClosed)
	r.reason = reason
	return nil
}

func (r *Relay) fail(d *direction, op string, err error) error {
	d.setState(StateClosed)
	r.reason = d.name + " " + op + " failed"
	return &SessionError{Direction: d.name, Op: op, Err: err}
}

// release tears the session down. On graceful closure a stream endpoint is
// half-closed first so the peer sees an orderly end of output.
func (r *Relay) release(err error) {
	for i := range r.ends {
		e := r.ends[i]
		_ = r.mux.Deregister(e.t)
		if hc, ok := e.t.(api.HalfCloser); ok && err == nil {
			_ = hc.CloseWrite()
		}
		if cerr := e.t.Close(); cerr != nil {
			r.log.Debug("transport close failed", zap.Stringer("kind", e.t.Kind()), zap.Error(cerr))
		}
	}
	_ = r.mux.Close()
	for _, d := range r.dirs {
		d.setState(StateClosed)
		if r.bufPool != nil {
			r.bufPool.PutBuffer(d.buf)
		}
	}
	if err != nil {
		r.log.Warn("relay terminated", zap.String("reason", r.reason), zap.Error(err))
		return
	}
	r.log.Debug("relay finished", zap.String("reason", r.reason))
}

// Reason describes why the session ended. Valid after Run returns.
func (r *Relay) Reason() string { return r.reason }

// DirectionStats is a point-in-time view of one direction.
type DirectionStats struct {
	State   string `json:"state"`
	Relayed uint64 `json:"relayed"`
	Stalls  uint64 `json:"stalls"`
}

// Stats returns the state and counters of both directions. It is safe to
// call from another goroutine while Run is in progress.
func (r *Relay) Stats() map[string]DirectionStats {
	out := make(map[string]DirectionStats, len(r.dirs))
	for _, d := range r.dirs {
		out[d.name] = DirectionStats{
			State:   d.State().String(),
			Relayed: d.relayed.Load(),
			Stalls:  d.stalls.Load(),
		}
	}
	return out
}
