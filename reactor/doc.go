// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Package reactor provides the readiness multiplexer used by the duplex relay.
// On Linux it is backed by edge-triggered epoll; other platforms report
// api.ErrNotSupported.
package reactor
