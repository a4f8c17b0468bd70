// File: api/transport.go
// Author: momentics <momentics@gmail.com>
//
// Defines the non-blocking transport abstraction shared by the relay,
// the readiness multiplexer and the concrete stream/serial endpoints.

package api

// Kind distinguishes the two transport variants a session pairs together.
type Kind int

const (
	KindStream Kind = iota
	KindSerial
)

func (k Kind) String() string {
	switch k {
	case KindStream:
		return "stream"
	case KindSerial:
		return "serial"
	default:
		return "unknown"
	}
}

// Transport abstracts an open, non-blocking byte endpoint.
//
// Read and Write never suspend the caller. When the operation cannot make
// progress they return ErrWouldBlock; a call interrupted by a signal returns
// ErrInterrupted. A (0, nil) Read means the peer closed its sending side.
type Transport interface {
	// Read reads into a preallocated buffer.
	Read(p []byte) (n int, err error)

	// Write writes as much of p as the endpoint accepts right now.
	Write(p []byte) (n int, err error)

	// Fd returns the underlying OS-level file descriptor used for readiness registration.
	Fd() uintptr

	// Kind reports whether this is a stream or a serial endpoint.
	Kind() Kind

	// Close releases the descriptor.
	Close() error
}

// HalfCloser is implemented by stream transports able to signal end of output
// while keeping the read side open.
type HalfCloser interface {
	CloseWrite() error
}

// FaultReporter is implemented by transports that can report the error
// pending on the descriptor after the multiplexer flagged an error condition.
type FaultReporter interface {
	// PendingError returns and clears the pending error, nil when none.
	PendingError() error
}
