//go:build linux
// +build linux

// File: transport/serial_linux.go
// Author: momentics <momentics@gmail.com>
//
// Serial character device opened non-blocking in raw 8N1 mode.

package transport

import (
	"fmt"
	"sync"

	"github.com/momentics/serbridge/api"
	"golang.org/x/sys/unix"
)

var baudRates = map[int]uint32{
	50: unix.B50, 75: unix.B75, 110: unix.B110, 134: unix.B134, 150: unix.B150,
	200: unix.B200, 300: unix.B300, 600: unix.B600, 1200: unix.B1200,
	1800: unix.B1800, 2400: unix.B2400, 4800: unix.B4800, 9600: unix.B9600,
	19200: unix.B19200, 38400: unix.B38400, 57600: unix.B57600,
	115200: unix.B115200, 230400: unix.B230400, 460800: unix.B460800,
	500000: unix.B500000, 576000: unix.B576000, 921600: unix.B921600,
	1000000: unix.B1000000, 1152000: unix.B1152000, 1500000: unix.B1500000,
	2000000: unix.B2000000, 2500000: unix.B2500000, 3000000: unix.B3000000,
	3500000: unix.B3500000, 4000000: unix.B4000000,
}

// Serial is the character-device side of a session.
type Serial struct {
	cfg  SerialConfig
	fd   int
	once sync.Once
	err  error
}

// OpenSerial opens and configures the device. The port is left
// non-exclusive so diagnostic tools can still attach to it.
func OpenSerial(cfg SerialConfig) (*Serial, error) {
	speed, ok := baudRates[cfg.BaudRate]
	if !ok {
		return nil, api.NewError(api.ErrCodeNotSupported, "unsupported baudrate").
			WithContext("baud_rate", cfg.BaudRate)
	}
	fd, err := unix.Open(cfg.Name, unix.O_RDWR|unix.O_NOCTTY|unix.O_NONBLOCK|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", cfg.Name, err)
	}
	if err := configureRaw(fd, speed); err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("configure serial port %s, baudrate = %d: %w", cfg.Name, cfg.BaudRate, err)
	}
	_ = unix.IoctlSetInt(fd, unix.TIOCNXCL, 0)
	return &Serial{cfg: cfg, fd: fd}, nil
}

// configureRaw applies cfmakeraw(3) semantics plus the requested speed.
func configureRaw(fd int, speed uint32) error {
	t, err := unix.IoctlGetTermios(fd, unix.TCGETS)
	if err != nil {
		return fmt.Errorf("tcgets: %w", err)
	}
	t.Iflag &^= unix.IGNBRK | unix.BRKINT | unix.PARMRK | unix.ISTRIP |
		unix.INLCR | unix.IGNCR | unix.ICRNL | unix.IXON | unix.IXOFF
	t.Oflag &^= unix.OPOST
	t.Lflag &^= unix.ECHO | unix.ECHONL | unix.ICANON | unix.ISIG | unix.IEXTEN
	t.Cflag &^= unix.CSIZE | unix.PARENB | unix.CSTOPB | unix.CBAUD
	t.Cflag |= unix.CS8 | unix.CREAD | unix.CLOCAL | speed
	t.Ispeed = speed
	t.Ospeed = speed
	t.Cc[unix.VMIN] = 1
	t.Cc[unix.VTIME] = 0
	if err := unix.IoctlSetTermios(fd, unix.TCSETS, t); err != nil {
		return fmt.Errorf("tcsets: %w", err)
	}
	return nil
}

func (s *Serial) Read(p []byte) (int, error)  { return fdRead(s.fd, p) }
func (s *Serial) Write(p []byte) (int, error) { return fdWrite(s.fd, p) }
func (s *Serial) Fd() uintptr                 { return uintptr(s.fd) }
func (s *Serial) Kind() api.Kind              { return api.KindSerial }

// Config returns the settings the port was opened with.
func (s *Serial) Config() SerialConfig { return s.cfg }

// Close releases the device. It is idempotent.
func (s *Serial) Close() error {
	s.once.Do(func() { s.err = unix.Close(s.fd) })
	return s.err
}
