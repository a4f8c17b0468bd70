// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

package tcp

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/momentics/serbridge/transport"
)

// ErrListenerClosed is returned by Accept after Close.
var ErrListenerClosed = errors.New("tcp: listener closed")

// Listener produces one connected stream per accepted client.
type Listener struct {
	ln *net.TCPListener
}

// Listen binds addr (e.g. "0.0.0.0:8722").
func Listen(ctx context.Context, addr string) (*Listener, error) {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("tcp listen %s: %w", addr, err)
	}
	return &Listener{ln: ln.(*net.TCPListener)}, nil
}

// Addr returns the bound address.
func (l *Listener) Addr() net.Addr { return l.ln.Addr() }

// Accept waits for the next client. Cancelling ctx closes the listener.
func (l *Listener) Accept(ctx context.Context) (*transport.Stream, error) {
	stop := context.AfterFunc(ctx, func() { _ = l.ln.Close() })
	defer stop()

	conn, err := l.ln.AcceptTCP()
	if err != nil {
		if errors.Is(err, net.ErrClosed) {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, ErrListenerClosed
		}
		return nil, fmt.Errorf("tcp accept: %w", err)
	}
	s, err := transport.NewStream(conn)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	return s, nil
}

// Close stops accepting.
func (l *Listener) Close() error { return l.ln.Close() }

// Dial connects to a remote bridge server.
func Dial(ctx context.Context, addr string) (*transport.Stream, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("tcp dial %s: %w", addr, err)
	}
	s, err := transport.NewStream(conn.(*net.TCPConn))
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	return s, nil
}
