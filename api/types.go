// File: api/types.go
// Author: momentics <momentics@gmail.com>
//
// Shared API-level type declarations, DTOs, and constants.

package api

import "time"

// SessionStatus enumerates the state of a bridge session.
type SessionStatus int

const (
	SessionUnknown SessionStatus = iota
	SessionConnecting
	SessionActive
	SessionClosed
)

func (s SessionStatus) String() string {
	switch s {
	case SessionConnecting:
		return "connecting"
	case SessionActive:
		return "active"
	case SessionClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// SessionInfo describes one bridge session for logs and debug probes.
type SessionInfo struct {
	ID        uint64        `json:"id"`
	Peer      string        `json:"peer"`
	Device    string        `json:"device"`
	Status    SessionStatus `json:"-"`
	StartedAt time.Time     `json:"started_at"`
}

// Debug exposes live state of the bridge for the introspection endpoint.
type Debug interface {
	// DumpState evaluates every probe.
	DumpState() map[string]any

	// RegisterProbe adds or replaces a named probe.
	RegisterProbe(name string, fn func() any)
}
