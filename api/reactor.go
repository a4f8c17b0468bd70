// File: api/reactor.go
// Author: momentics <momentics@gmail.com>
//
// Defines the readiness multiplexer contract used by the duplex relay
// regardless of the polling mechanism behind it (epoll, test doubles).

package api

// Token identifies a registered transport inside a multiplexer.
type Token uint32

// Interest is the set of readiness conditions that wake a Wait call.
type Interest uint8

const (
	Readable Interest = 1 << iota
	Writable
)

// Has reports whether all bits of other are present.
func (i Interest) Has(other Interest) bool { return i&other == other }

func (i Interest) String() string {
	switch i {
	case Readable:
		return "r"
	case Writable:
		return "w"
	case Readable | Writable:
		return "rw"
	default:
		return "-"
	}
}

// Event encapsulates one readiness notification for a registered transport.
// Events are produced by Wait and consumed immediately.
type Event struct {
	Token       Token
	Readable    bool
	Writable    bool
	ReadClosed  bool
	WriteClosed bool
	Error       bool
}

// Multiplexer waits on several transports at once.
type Multiplexer interface {
	// Register starts watching t under tok with the given interest.
	Register(t Transport, tok Token, in Interest) error

	// Rearm replaces the interest set of an already registered transport.
	Rearm(t Transport, tok Token, in Interest) error

	// Deregister stops watching t.
	Deregister(t Transport) error

	// Wait blocks without timeout until at least one event is pending and
	// fills events. Returns the number of events written.
	Wait(events []Event) (int, error)

	// Close releases the polling backend.
	Close() error
}
