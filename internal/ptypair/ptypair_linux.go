//go:build linux

// Package ptypair opens pseudo-terminal pairs that stand in for serial
// devices in tests.
package ptypair

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// Pair is an open pseudo terminal. Master is the controlling side; SlavePath
// is the device a serial transport can open.
type Pair struct {
	Master    int
	SlavePath string
}

// Open allocates a new pty whose master side is non-blocking.
func Open() (*Pair, error) {
	fd, err := unix.Open("/dev/ptmx", unix.O_RDWR|unix.O_NOCTTY|unix.O_NONBLOCK|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("open ptmx: %w", err)
	}
	if err := unix.IoctlSetPointerInt(fd, unix.TIOCSPTLCK, 0); err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("unlock pty: %w", err)
	}
	n, err := unix.IoctlGetInt(fd, unix.TIOCGPTN)
	if err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("pty number: %w", err)
	}
	return &Pair{Master: fd, SlavePath: fmt.Sprintf("/dev/pts/%d", n)}, nil
}

// Close releases the master side.
func (p *Pair) Close() error { return unix.Close(p.Master) }
