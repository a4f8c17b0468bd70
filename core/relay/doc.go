// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Package relay implements the duplex byte relay between a stream transport
// and a serial transport.
//
// Each direction owns a fixed-size pool.SlidingBuffer and moves through an
// explicit state machine:
//
//	Idle ──src readable──▶ ArmedForFlush ──dst writable──▶ Draining
//	Draining ──src would block──▶ Idle
//	Draining ──dst would block──▶ WaitingForDrain ──dst writable──▶ Draining
//	Draining ──src EOF, bytes pending──▶ Flushing ──buffer empty──▶ Closed
//
// Readability of a source only arms its destination for writability; data
// moves when the destination reports it can accept output. A stalled
// destination therefore stops reads from its source and memory stays bounded
// by the two buffers.
package relay
