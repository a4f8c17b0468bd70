//go:build linux

package reactor_test

import (
	"testing"

	"github.com/momentics/serbridge/api"
	"github.com/momentics/serbridge/reactor"
	"golang.org/x/sys/unix"
)

// fdTransport exposes one end of a socket pair as an api.Transport.
type fdTransport struct{ fd int }

func (f *fdTransport) Read(p []byte) (int, error)  { return unix.Read(f.fd, p) }
func (f *fdTransport) Write(p []byte) (int, error) { return unix.Write(f.fd, p) }
func (f *fdTransport) Fd() uintptr                 { return uintptr(f.fd) }
func (f *fdTransport) Kind() api.Kind              { return api.KindStream }
func (f *fdTransport) Close() error                { return unix.Close(f.fd) }

func socketPair(t *testing.T) (*fdTransport, *fdTransport) {
	t.Helper()
	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM|unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		t.Fatalf("socketpair: %v", err)
	}
	a, b := &fdTransport{fds[0]}, &fdTransport{fds[1]}
	t.Cleanup(func() { _ = a.Close(); _ = b.Close() })
	return a, b
}

func waitOne(t *testing.T, m api.Multiplexer) api.Event {
	t.Helper()
	events := make([]api.Event, reactor.DefaultEventCapacity)
	for {
		n, err := m.Wait(events)
		if err != nil {
			t.Fatalf("wait: %v", err)
		}
		if n > 0 {
			return events[0]
		}
	}
}

func TestEpoll_ReadableThenRearmWritable(t *testing.T) {
	m, err := reactor.New()
	if err != nil {
		t.Fatalf("reactor init: %v", err)
	}
	defer m.Close()

	local, peer := socketPair(t)
	if err := m.Register(local, 7, api.Readable); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := peer.Write([]byte("ping")); err != nil {
		t.Fatalf("peer write: %v", err)
	}
	ev := waitOne(t, m)
	if ev.Token != 7 || !ev.Readable || ev.Writable {
		t.Fatalf("unexpected event: %+v", ev)
	}

	buf := make([]byte, 16)
	if n, err := local.Read(buf); err != nil || string(buf[:n]) != "ping" {
		t.Fatalf("read: n=%d err=%v", n, err)
	}

	// Growing interest on an already writable socket must produce an edge.
	if err := m.Rearm(local, 7, api.Readable|api.Writable); err != nil {
		t.Fatalf("rearm: %v", err)
	}
	ev = waitOne(t, m)
	if ev.Token != 7 || !ev.Writable {
		t.Fatalf("expected writable edge after rearm: %+v", ev)
	}
	if err := m.Deregister(local); err != nil {
		t.Fatalf("deregister: %v", err)
	}
}

func TestEpoll_PeerCloseReportsReadClosed(t *testing.T) {
	m, err := reactor.New()
	if err != nil {
		t.Fatalf("reactor init: %v", err)
	}
	defer m.Close()

	local, peer := socketPair(t)
	if err := m.Register(local, 1, api.Readable); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := unix.Shutdown(peer.fd, unix.SHUT_WR); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	ev := waitOne(t, m)
	if !ev.ReadClosed {
		t.Fatalf("expected read-closed: %+v", ev)
	}
	if ev.WriteClosed {
		t.Fatalf("half close must not report write-closed: %+v", ev)
	}
}

func TestEpoll_EmptyEventBuffer(t *testing.T) {
	m, err := reactor.New()
	if err != nil {
		t.Fatalf("reactor init: %v", err)
	}
	defer m.Close()
	if _, err := m.Wait(nil); err == nil {
		t.Fatal("expected error for empty event buffer")
	}
}
