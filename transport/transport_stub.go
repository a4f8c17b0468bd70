//go:build !linux
// +build !linux

// File: transport/transport_stub.go
// Author: momentics <momentics@gmail.com>
//
// Stub implementation for unsupported platforms.

package transport

import (
	"fmt"
	"net"

	"github.com/momentics/serbridge/api"
)

// Stream is unavailable on this platform.
type Stream struct{}

// NewStream returns api.ErrNotSupported on this platform.
func NewStream(*net.TCPConn) (*Stream, error) {
	return nil, fmt.Errorf("transport: stream: %w", api.ErrNotSupported)
}

func (*Stream) Read([]byte) (int, error)  { return 0, api.ErrNotSupported }
func (*Stream) Write([]byte) (int, error) { return 0, api.ErrNotSupported }
func (*Stream) Fd() uintptr               { return 0 }
func (*Stream) Kind() api.Kind            { return api.KindStream }
func (*Stream) RemoteAddr() net.Addr      { return nil }
func (*Stream) CloseWrite() error         { return api.ErrNotSupported }
func (*Stream) PendingError() error       { return nil }
func (*Stream) Close() error              { return nil }

// Serial is unavailable on this platform.
type Serial struct{}

// OpenSerial returns api.ErrNotSupported on this platform.
func OpenSerial(SerialConfig) (*Serial, error) {
	return nil, fmt.Errorf("transport: serial: %w", api.ErrNotSupported)
}

func (*Serial) Read([]byte) (int, error)  { return 0, api.ErrNotSupported }
func (*Serial) Write([]byte) (int, error) { return 0, api.ErrNotSupported }
func (*Serial) Fd() uintptr               { return 0 }
func (*Serial) Kind() api.Kind            { return api.KindSerial }
func (*Serial) Config() SerialConfig      { return SerialConfig{} }
func (*Serial) Close() error              { return nil }
