//go:build linux
// +build linux

// File: transport/stream_linux.go
// Author: momentics <momentics@gmail.com>
//
// TCP stream endpoint driven through its raw descriptor.

package transport

import (
	"fmt"
	"net"
	"sync"

	"github.com/momentics/serbridge/api"
	"golang.org/x/sys/unix"
)

// Stream is the network side of a session. The Go runtime already keeps the
// socket in non-blocking mode; Stream bypasses the netpoller and issues raw
// reads and writes so that the relay's own multiplexer drives it.
type Stream struct {
	conn *net.TCPConn
	fd   int
	once sync.Once
	err  error
}

// NewStream wraps an established TCP connection.
func NewStream(conn *net.TCPConn) (*Stream, error) {
	raw, err := conn.SyscallConn()
	if err != nil {
		return nil, fmt.Errorf("stream syscall conn: %w", err)
	}
	fd := -1
	if err := raw.Control(func(f uintptr) { fd = int(f) }); err != nil {
		return nil, fmt.Errorf("stream fd: %w", err)
	}
	_ = conn.SetNoDelay(true)
	return &Stream{conn: conn, fd: fd}, nil
}

func (s *Stream) Read(p []byte) (int, error)  { return fdRead(s.fd, p) }
func (s *Stream) Write(p []byte) (int, error) { return fdWrite(s.fd, p) }
func (s *Stream) Fd() uintptr                 { return uintptr(s.fd) }
func (s *Stream) Kind() api.Kind              { return api.KindStream }

// RemoteAddr reports the peer address.
func (s *Stream) RemoteAddr() net.Addr { return s.conn.RemoteAddr() }

// PendingError returns and clears the socket error (SO_ERROR).
func (s *Stream) PendingError() error {
	v, err := unix.GetsockoptInt(s.fd, unix.SOL_SOCKET, unix.SO_ERROR)
	if err != nil {
		return classify("getsockopt", s.fd, err)
	}
	if v == 0 {
		return nil
	}
	return fmt.Errorf("socket fd=%d: %w", s.fd, unix.Errno(v))
}

// CloseWrite half-closes the connection, sending FIN after buffered output.
func (s *Stream) CloseWrite() error { return s.conn.CloseWrite() }

// Close closes the connection. It is idempotent.
func (s *Stream) Close() error {
	s.once.Do(func() { s.err = s.conn.Close() })
	return s.err
}
