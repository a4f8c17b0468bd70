// File: server/server.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Server accepts TCP clients and bridges each one to the serial device, one
// session at a time. Further clients wait in the listen backlog until the
// active session ends.

package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"

	"github.com/momentics/serbridge/api"
	"github.com/momentics/serbridge/internal/session"
	"github.com/momentics/serbridge/transport/tcp"
	"go.uber.org/zap"
)

// ErrAlreadyRunning is returned when Listen is called twice.
var ErrAlreadyRunning = errors.New("server already running")

// Server is the accepting session driver.
type Server struct {
	addr   string
	runner *session.Runner
	log    *zap.Logger
	debug  api.Debug

	mu sync.Mutex
	ln *tcp.Listener
}

// NewServer builds a server that will bind addr and hand each client to runner.
func NewServer(addr string, runner *session.Runner, opts ...ServerOption) (*Server, error) {
	if runner == nil {
		return nil, fmt.Errorf("server: nil session runner: %w", api.ErrInvalidArgument)
	}
	s := &Server{addr: addr, runner: runner, log: zap.NewNop()}
	for _, o := range opts {
		o(s)
	}
	if s.debug != nil {
		s.debug.RegisterProbe("server.addr", func() any { return s.Addr().String() })
		s.debug.RegisterProbe("server.sessions", func() any { return runner.Tracker().Snapshot() })
	}
	return s, nil
}

// Listen binds the listening socket.
func (s *Server) Listen(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln != nil {
		return ErrAlreadyRunning
	}
	ln, err := tcp.Listen(ctx, s.addr)
	if err != nil {
		return err
	}
	s.ln = ln
	s.log.Info("Server on " + ln.Addr().String())
	return nil
}

// Addr returns the bound address, or the configured one before Listen.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		addr, _ := net.ResolveTCPAddr("tcp", s.addr)
		if addr == nil {
			return &net.TCPAddr{}
		}
		return addr
	}
	return s.ln.Addr()
}

// Serve accepts clients until ctx is cancelled or the listener is closed.
// A failed or fatal session is logged and the server keeps accepting.
// Serve returns nil after cancellation.
func (s *Server) Serve(ctx context.Context) error {
	s.mu.Lock()
	ln := s.ln
	s.mu.Unlock()
	if ln == nil {
		return fmt.Errorf("server: serve before listen: %w", api.ErrInvalidArgument)
	}
	for {
		stream, err := ln.Accept(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, tcp.ErrListenerClosed) {
				return nil
			}
			return err
		}
		peer := "unknown"
		if ra := stream.RemoteAddr(); ra != nil {
			peer = ra.String()
		}
		// the outcome has been logged and counted by the runner
		_ = s.runner.Run(stream, peer)
	}
}

// ListenAndServe combines Listen and Serve.
func (s *Server) ListenAndServe(ctx context.Context) error {
	if err := s.Listen(ctx); err != nil {
		return err
	}
	defer s.Close()
	return s.Serve(ctx)
}

// Close stops accepting. An active session runs to completion.
func (s *Server) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return nil
	}
	return s.ln.Close()
}
