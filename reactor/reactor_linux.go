//go:build linux
// +build linux

// File: reactor/reactor_linux.go
// Author: momentics <momentics@gmail.com>
//
// Linux epoll(7)-based multiplexer.

package reactor

import (
	"fmt"

	"github.com/momentics/serbridge/api"
	"golang.org/x/sys/unix"
)

// epollMultiplexer watches descriptors in edge-triggered mode. Rearming
// through EPOLL_CTL_MOD re-evaluates readiness, so a transport that is
// already writable reports a fresh writable edge after its interest grows.
type epollMultiplexer struct {
	epfd int
	raw  []unix.EpollEvent
}

func newMultiplexer() (api.Multiplexer, error) {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("epoll create: %w", err)
	}
	return &epollMultiplexer{epfd: epfd}, nil
}

func epollMask(in api.Interest) uint32 {
	mask := uint32(unix.EPOLLET | unix.EPOLLRDHUP)
	if in.Has(api.Readable) {
		mask |= unix.EPOLLIN
	}
	if in.Has(api.Writable) {
		mask |= unix.EPOLLOUT
	}
	return mask
}

func (m *epollMultiplexer) ctl(op int, t api.Transport, tok api.Token, in api.Interest) error {
	ev := unix.EpollEvent{
		Events: epollMask(in),
		Fd:     int32(t.Fd()),
		Pad:    int32(tok),
	}
	return unix.EpollCtl(m.epfd, op, int(t.Fd()), &ev)
}

// Register adds the transport descriptor to the epoll set.
func (m *epollMultiplexer) Register(t api.Transport, tok api.Token, in api.Interest) error {
	if err := m.ctl(unix.EPOLL_CTL_ADD, t, tok, in); err != nil {
		return fmt.Errorf("epoll ctl add fd=%d: %w", t.Fd(), err)
	}
	return nil
}

// Rearm replaces the interest set of a registered descriptor.
func (m *epollMultiplexer) Rearm(t api.Transport, tok api.Token, in api.Interest) error {
	if err := m.ctl(unix.EPOLL_CTL_MOD, t, tok, in); err != nil {
		return fmt.Errorf("epoll ctl mod fd=%d: %w", t.Fd(), err)
	}
	return nil
}

// Deregister removes the descriptor from the epoll set.
func (m *epollMultiplexer) Deregister(t api.Transport) error {
	if err := unix.EpollCtl(m.epfd, unix.EPOLL_CTL_DEL, int(t.Fd()), nil); err != nil {
		return fmt.Errorf("epoll ctl del fd=%d: %w", t.Fd(), err)
	}
	return nil
}

// Wait blocks infinitely until at least one event is ready.
// A signal interrupting epoll_wait yields zero events and no error.
func (m *epollMultiplexer) Wait(events []api.Event) (int, error) {
	if len(events) == 0 {
		return 0, fmt.Errorf("reactor: empty event buffer: %w", api.ErrInvalidArgument)
	}
	if cap(m.raw) < len(events) {
		m.raw = make([]unix.EpollEvent, len(events))
	}
	raw := m.raw[:len(events)]

	n, err := unix.EpollWait(m.epfd, raw, -1)
	if err != nil {
		if err == unix.EINTR {
			return 0, nil
		}
		return 0, fmt.Errorf("epoll wait: %w", err)
	}
	for i := 0; i < n; i++ {
		events[i] = translate(raw[i])
	}
	return n, nil
}

func translate(ev unix.EpollEvent) api.Event {
	bits := ev.Events
	hup := bits&unix.EPOLLHUP != 0
	errored := bits&unix.EPOLLERR != 0
	return api.Event{
		Token:       api.Token(ev.Pad),
		Readable:    bits&unix.EPOLLIN != 0,
		Writable:    bits&unix.EPOLLOUT != 0,
		ReadClosed:  hup || (bits&unix.EPOLLIN != 0 && bits&unix.EPOLLRDHUP != 0),
		WriteClosed: hup || (bits&unix.EPOLLOUT != 0 && errored),
		Error:       errored,
	}
}

// Close closes the epoll instance.
func (m *epollMultiplexer) Close() error {
	return unix.Close(m.epfd)
}
