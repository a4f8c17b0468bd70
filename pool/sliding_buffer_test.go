package pool_test

import (
	"bytes"
	"math/rand"
	"testing"

	"github.com/momentics/serbridge/pool"
)

func fill(t *testing.T, b *pool.SlidingBuffer, data []byte) []byte {
	t.Helper()
	n := copy(b.Free(), data)
	return b.MarkFilled(n)
}

func TestSlidingBuffer_FillsConcatenateInOrder(t *testing.T) {
	b := pool.NewSlidingBuffer(make([]byte, 64))
	var want []byte
	for i, size := range []int{1, 7, 13, 20, 23} {
		chunk := bytes.Repeat([]byte{byte('a' + i)}, size)
		want = append(want, chunk...)
		got := fill(t, b, chunk)
		if !bytes.Equal(got, want) {
			t.Fatalf("after fill %d: got %q want %q", i, got, want)
		}
	}
	if !b.Full() || b.Available() != 0 {
		t.Fatalf("expected full buffer, len=%d avail=%d", b.Len(), b.Available())
	}
}

func TestSlidingBuffer_ConsumeAllResetsCursor(t *testing.T) {
	b := pool.NewSlidingBuffer(make([]byte, 16))
	fill(t, b, []byte("0123456789"))
	b.Consume(10)
	if b.Len() != 0 || b.Available() != 16 {
		t.Fatalf("expected empty buffer, len=%d avail=%d", b.Len(), b.Available())
	}
}

func TestSlidingBuffer_PartialConsumeCompacts(t *testing.T) {
	b := pool.NewSlidingBuffer(make([]byte, 16))
	fill(t, b, []byte("abcdefgh"))
	b.Consume(3)
	if got := string(b.Filled()); got != "defgh" {
		t.Fatalf("compaction lost order: %q", got)
	}
	got := fill(t, b, []byte("XYZ"))
	if string(got) != "defghXYZ" {
		t.Fatalf("consumed bytes resurfaced or order broken: %q", got)
	}
	b.Consume(0)
	if b.Len() != 8 {
		t.Fatalf("Consume(0) changed length to %d", b.Len())
	}
}

// A destination that always accepts fewer bytes than offered must still
// drain the buffer to zero without losing a byte.
func TestSlidingBuffer_PartialWritesDrainWithoutLoss(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	b := pool.NewSlidingBuffer(make([]byte, 512))
	src := make([]byte, 4096)
	rng.Read(src)

	var out bytes.Buffer
	in := src
	for len(in) > 0 || b.Len() > 0 {
		if len(in) > 0 && !b.Full() {
			n := copy(b.Free(), in[:min(len(in), 1+rng.Intn(200))])
			in = in[n:]
			b.MarkFilled(n)
		}
		pending := b.Filled()
		accepted := len(pending) - 1
		if accepted <= 0 {
			accepted = len(pending)
		}
		out.Write(pending[:accepted])
		b.Consume(accepted)
	}
	if !bytes.Equal(out.Bytes(), src) {
		t.Fatalf("drained %d bytes, mismatch with %d source bytes", out.Len(), len(src))
	}
	if b.Len() != 0 {
		t.Fatalf("cursor not back at zero: %d", b.Len())
	}
}

func TestSlidingBuffer_MisuseAborts(t *testing.T) {
	cases := map[string]func(b *pool.SlidingBuffer){
		"free on full":   func(b *pool.SlidingBuffer) { b.MarkFilled(4); b.Free() },
		"overfill":       func(b *pool.SlidingBuffer) { b.MarkFilled(5) },
		"over-consume":   func(b *pool.SlidingBuffer) { b.MarkFilled(2); b.Consume(3) },
		"negative count": func(b *pool.SlidingBuffer) { b.Consume(-1) },
	}
	for name, fn := range cases {
		t.Run(name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Fatal("expected panic")
				}
			}()
			fn(pool.NewSlidingBuffer(make([]byte, 4)))
		})
	}
}

func TestBytePool_NormalizesAndRecycles(t *testing.T) {
	bp := pool.NewBytePool(100)
	if bp.Size() != pool.MinBufferSize {
		t.Fatalf("pool size = %d, want %d", bp.Size(), pool.MinBufferSize)
	}
	sb := bp.GetBuffer()
	if sb.Cap() != pool.MinBufferSize || sb.Len() != 0 {
		t.Fatalf("unexpected buffer cap=%d len=%d", sb.Cap(), sb.Len())
	}
	fill(t, sb, []byte("stale"))
	bp.PutBuffer(sb)
	if _, inUse := bp.Stats(); inUse != 0 {
		t.Fatalf("inUse = %d after put", inUse)
	}
	again := bp.GetBuffer()
	if again.Len() != 0 {
		t.Fatalf("recycled buffer not empty: %d", again.Len())
	}
}

func TestNormalizeSize(t *testing.T) {
	if n, raised := pool.NormalizeSize(100); n != 512 || !raised {
		t.Errorf("NormalizeSize(100) = %d, %v", n, raised)
	}
	if n, raised := pool.NormalizeSize(4096); n != 4096 || raised {
		t.Errorf("NormalizeSize(4096) = %d, %v", n, raised)
	}
}
