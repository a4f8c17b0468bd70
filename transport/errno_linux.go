//go:build linux
// +build linux

// File: transport/errno_linux.go
// Author: momentics <momentics@gmail.com>

package transport

import (
	"fmt"

	"github.com/momentics/serbridge/api"
	"golang.org/x/sys/unix"
)

// classify maps raw errno results of non-blocking calls onto the api sentinels.
func classify(op string, fd int, err error) error {
	switch err {
	case nil:
		return nil
	case unix.EAGAIN:
		return api.ErrWouldBlock
	case unix.EINTR:
		return api.ErrInterrupted
	case unix.EBADF:
		return fmt.Errorf("%s fd=%d: %w", op, fd, api.ErrTransportClosed)
	}
	return fmt.Errorf("%s fd=%d: %w", op, fd, err)
}

// fdRead and fdWrite normalise the (-1, err) convention of the raw syscalls.
func fdRead(fd int, p []byte) (int, error) {
	n, err := unix.Read(fd, p)
	if n < 0 {
		n = 0
	}
	return n, classify("read", fd, err)
}

func fdWrite(fd int, p []byte) (int, error) {
	n, err := unix.Write(fd, p)
	if n < 0 {
		n = 0
	}
	return n, classify("write", fd, err)
}
