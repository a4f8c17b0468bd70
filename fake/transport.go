// Package fake
// Author: momentics <momentics@gmail.com>
//
// Fake implementations for testing and development.
// Provides predictable, controllable behavior for the transport and
// multiplexer contracts.

package fake

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/eapache/queue"
	"github.com/momentics/serbridge/api"
)

// WriteResult scripts the outcome of one Write call. N < 0 accepts the whole
// input (subject to the transport's write limit).
type WriteResult struct {
	N   int
	Err error
}

// Transport is a scripted api.Transport. Inbound data is queued in chunks
// and handed out one chunk (or part of it) per Read; Write outcomes can be
// scripted call by call.
type Transport struct {
	mu         sync.Mutex
	kind       api.Kind
	fd         uintptr
	inbound    *queue.Queue // []byte chunks
	pending    []byte       // remainder of a partially read chunk
	eof        bool
	hangup     bool
	fault      bool
	faultErr   error
	readErr    error
	writes     *queue.Queue // WriteResult
	writeLimit int
	written    bytes.Buffer
	readCalls  int
	writeCalls int
	closed     bool
}

// NewTransport creates a fake transport of the given kind.
func NewTransport(kind api.Kind, fd uintptr) *Transport {
	return &Transport{
		kind:    kind,
		fd:      fd,
		inbound: queue.New(),
		writes:  queue.New(),
	}
}

// Feed queues chunks to be returned by subsequent reads.
func (t *Transport) Feed(chunks ...[]byte) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, c := range chunks {
		t.inbound.Add(append([]byte(nil), c...))
	}
}

// CloseInput makes reads return (0, nil) once queued data is consumed.
func (t *Transport) CloseInput() {
	t.mu.Lock()
	t.eof = true
	t.mu.Unlock()
}

// HangUp simulates the peer disappearing in both directions.
func (t *Transport) HangUp() {
	t.mu.Lock()
	t.hangup = true
	t.mu.Unlock()
}

// RaiseFault flags an error condition on the descriptor. cause, when not
// nil, is reported once by PendingError.
func (t *Transport) RaiseFault(cause error) {
	t.mu.Lock()
	t.fault = true
	t.faultErr = cause
	t.mu.Unlock()
}

// PendingError returns and clears the cause given to RaiseFault.
func (t *Transport) PendingError() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	err := t.faultErr
	t.faultErr = nil
	return err
}

// FailReads makes reads return err once queued data is consumed.
func (t *Transport) FailReads(err error) {
	t.mu.Lock()
	t.readErr = err
	t.mu.Unlock()
}

// ScriptWrites queues outcomes for the next Write calls. Calls beyond the
// script accept data normally.
func (t *Transport) ScriptWrites(results ...WriteResult) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, r := range results {
		t.writes.Add(r)
	}
}

// LimitWrites caps the number of bytes accepted per Write (0 = unlimited).
func (t *Transport) LimitWrites(n int) {
	t.mu.Lock()
	t.writeLimit = n
	t.mu.Unlock()
}

// Read implements api.Transport.
func (t *Transport) Read(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.readCalls++
	if t.closed {
		return 0, api.ErrTransportClosed
	}
	if len(t.pending) == 0 && t.inbound.Length() > 0 {
		t.pending = t.inbound.Remove().([]byte)
	}
	if len(t.pending) > 0 {
		n := copy(p, t.pending)
		t.pending = t.pending[n:]
		return n, nil
	}
	switch {
	case t.readErr != nil:
		return 0, t.readErr
	case t.eof || t.hangup:
		return 0, nil
	}
	return 0, api.ErrWouldBlock
}

// Write implements api.Transport.
func (t *Transport) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.writeCalls++
	if t.closed {
		return 0, api.ErrTransportClosed
	}
	n := len(p)
	if t.writes.Length() > 0 {
		r := t.writes.Remove().(WriteResult)
		if r.Err != nil {
			return 0, r.Err
		}
		if r.N >= 0 && r.N < n {
			n = r.N
		}
	}
	if t.writeLimit > 0 && n > t.writeLimit {
		n = t.writeLimit
	}
	t.written.Write(p[:n])
	return n, nil
}

func (t *Transport) Fd() uintptr    { return t.fd }
func (t *Transport) Kind() api.Kind { return t.kind }

// Close implements api.Transport.
func (t *Transport) Close() error {
	t.mu.Lock()
	t.closed = true
	t.mu.Unlock()
	return nil
}

// Written returns a copy of every byte accepted by Write.
func (t *Transport) Written() []byte {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]byte(nil), t.written.Bytes()...)
}

// ReadCalls returns the number of Read invocations.
func (t *Transport) ReadCalls() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.readCalls
}

// WriteCalls returns the number of Write invocations.
func (t *Transport) WriteCalls() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.writeCalls
}

// Closed reports whether Close was called.
func (t *Transport) Closed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closed
}

func (t *Transport) String() string {
	return fmt.Sprintf("fake.%s(fd=%d)", t.kind, t.fd)
}

// readiness reports the level-triggered state of the transport.
func (t *Transport) readiness() (readable, writable, readClosed, writeClosed, fault bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return false, false, false, false, false
	}
	hasData := len(t.pending) > 0 || t.inbound.Length() > 0
	readable = hasData || t.eof || t.readErr != nil || t.hangup
	writable = !t.hangup
	readClosed = t.eof || t.hangup
	writeClosed = t.hangup
	return readable, writable, readClosed, writeClosed, t.fault
}
