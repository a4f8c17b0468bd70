//go:build !linux
// +build !linux

// File: reactor/reactor_stub.go
// Author: momentics <momentics@gmail.com>
//
// Stub implementation for unsupported platforms.

package reactor

import (
	"fmt"

	"github.com/momentics/serbridge/api"
)

func newMultiplexer() (api.Multiplexer, error) {
	return nil, fmt.Errorf("reactor: this platform is not supported: %w", api.ErrNotSupported)
}
