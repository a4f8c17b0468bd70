// Package pool
// Author: momentics <momentics@gmail.com>
//
// Relay buffer memory.
// SlidingBuffer is a fixed window of unflushed bytes that compacts on partial
// consumption. BytePool recycles the backing arrays between sessions.
package pool
