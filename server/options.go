// File: server/options.go
// Package server defines functional options for the bridge server.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package server

import (
	"github.com/momentics/serbridge/api"
	"go.uber.org/zap"
)

// ServerOption customizes server initialization.
type ServerOption func(*Server)

// WithLogger sets the server logger.
func WithLogger(l *zap.Logger) ServerOption {
	return func(s *Server) {
		if l != nil {
			s.log = l
		}
	}
}

// WithDebug publishes server and session state through d.
func WithDebug(d api.Debug) ServerOption {
	return func(s *Server) {
		s.debug = d
	}
}
