// File: pool/bytepool.go
// Author: momentics <momentics@gmail.com>

package pool

import (
	"sync"
	"sync/atomic"
)

// MinBufferSize is the smallest per-direction capacity a relay accepts.
const MinBufferSize = 512

// NormalizeSize raises size to MinBufferSize. The second result reports
// whether the requested value was changed.
func NormalizeSize(size int) (int, bool) {
	if size < MinBufferSize {
		return MinBufferSize, true
	}
	return size, false
}

// BytePool recycles fixed-size backing arrays for sliding buffers so that a
// server running session after session does not reallocate them each time.
type BytePool struct {
	size  int
	pool  sync.Pool
	stats struct {
		alloc atomic.Int64
		inUse atomic.Int64
	}
}

// NewBytePool creates a pool of buffers of the given size (at least MinBufferSize).
func NewBytePool(size int) *BytePool {
	size, _ = NormalizeSize(size)
	bp := &BytePool{size: size}
	bp.pool.New = func() any {
		bp.stats.alloc.Add(1)
		buf := make([]byte, bp.size)
		return &buf
	}
	return bp
}

// Size returns the buffer size handed out by this pool.
func (b *BytePool) Size() int { return b.size }

// GetBuffer returns a sliding buffer backed by a pooled array.
func (b *BytePool) GetBuffer() *SlidingBuffer {
	bufp := b.pool.Get().(*[]byte)
	b.stats.inUse.Add(1)
	return NewSlidingBuffer(*bufp)
}

// PutBuffer returns the backing array of sb to the pool. sb must not be used afterwards.
func (b *BytePool) PutBuffer(sb *SlidingBuffer) {
	if sb == nil {
		return
	}
	buf := sb.Bytes()
	if cap(buf) != b.size {
		return
	}
	sb.buf, sb.cursor = nil, 0
	buf = buf[:b.size]
	b.stats.inUse.Add(-1)
	b.pool.Put(&buf)
}

// Stats returns allocation counters.
func (b *BytePool) Stats() (allocated, inUse int64) {
	return b.stats.alloc.Load(), b.stats.inUse.Load()
}
