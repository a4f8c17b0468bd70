// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Package transport provides the two non-blocking endpoints a bridge session
// relays between: a TCP byte stream and a serial character device.
//
// Both expose their raw descriptor so they can be registered with the
// reactor, and both translate EAGAIN/EINTR into api.ErrWouldBlock and
// api.ErrInterrupted.
package transport
