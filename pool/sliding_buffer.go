// File: pool/sliding_buffer.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Fixed-capacity byte window used by one relay direction.

package pool

import "fmt"

// SlidingBuffer holds bytes read from a source that are still waiting to be
// written to a destination. Bytes [0, cursor) are unflushed data in arrival
// order, [cursor, cap) is free space for the next read.
//
// A SlidingBuffer is owned by a single goroutine and is not safe for
// concurrent use.
type SlidingBuffer struct {
	buf    []byte
	cursor int
}

// NewSlidingBuffer wraps buf; its length is the buffer capacity.
func NewSlidingBuffer(buf []byte) *SlidingBuffer {
	return &SlidingBuffer{buf: buf}
}

// Free returns the writable region [cursor, cap). Callers must drain the
// buffer before asking for free space again once it is full.
func (b *SlidingBuffer) Free() []byte {
	if b.cursor == len(b.buf) {
		panic("pool: SlidingBuffer.Free called on full buffer")
	}
	return b.buf[b.cursor:]
}

// MarkFilled advances the cursor by n freshly read bytes and returns the
// region now eligible for writing.
func (b *SlidingBuffer) MarkFilled(n int) []byte {
	if n < 0 || n > len(b.buf)-b.cursor {
		panic(fmt.Sprintf("pool: MarkFilled(%d) exceeds free space %d", n, len(b.buf)-b.cursor))
	}
	b.cursor += n
	return b.buf[:b.cursor]
}

// Consume drops the first n bytes that were written out. Unflushed bytes
// that remain are moved to the start of the buffer.
func (b *SlidingBuffer) Consume(n int) {
	switch {
	case n < 0 || n > b.cursor:
		panic(fmt.Sprintf("pool: Consume(%d) exceeds buffered %d", n, b.cursor))
	case n == b.cursor:
		b.cursor = 0
	case n > 0:
		copy(b.buf, b.buf[n:b.cursor])
		b.cursor -= n
	}
}

// Filled returns the unflushed region [0, cursor).
func (b *SlidingBuffer) Filled() []byte { return b.buf[:b.cursor] }

// Len is the number of unflushed bytes.
func (b *SlidingBuffer) Len() int { return b.cursor }

// Cap is the fixed capacity.
func (b *SlidingBuffer) Cap() int { return len(b.buf) }

// Available is the number of free bytes.
func (b *SlidingBuffer) Available() int { return len(b.buf) - b.cursor }

// Full reports whether no free space remains.
func (b *SlidingBuffer) Full() bool { return b.cursor == len(b.buf) }

// Bytes exposes the backing array so it can be handed back to its pool.
func (b *SlidingBuffer) Bytes() []byte { return b.buf }
