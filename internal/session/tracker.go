// File: internal/session/tracker.go
// Author: momentics <momentics@gmail.com>
//
// Thread-safe registry of live sessions.

package session

import (
	"sort"
	"sync"
	"sync/atomic"

	"github.com/momentics/serbridge/api"
	"github.com/momentics/serbridge/core/relay"
)

// Snapshot is the debug view of one session.
type Snapshot struct {
	api.SessionInfo
	State      string                          `json:"status"`
	Directions map[string]relay.DirectionStats `json:"directions,omitempty"`
}

type tracked struct {
	info  api.SessionInfo
	relay *relay.Relay
}

// Tracker assigns session ids and records live sessions.
type Tracker struct {
	seq      atomic.Uint64
	mu       sync.RWMutex
	sessions map[uint64]*tracked
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{sessions: make(map[uint64]*tracked)}
}

// NextID returns a fresh session id, starting at 1.
func (t *Tracker) NextID() uint64 { return t.seq.Add(1) }

func (t *Tracker) add(info api.SessionInfo, r *relay.Relay) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sessions[info.ID] = &tracked{info: info, relay: r}
}

func (t *Tracker) remove(id uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.sessions, id)
}

// Len reports the number of live sessions.
func (t *Tracker) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.sessions)
}

// Snapshot lists live sessions ordered by id.
func (t *Tracker) Snapshot() []Snapshot {
	t.mu.RLock()
	out := make([]Snapshot, 0, len(t.sessions))
	for _, s := range t.sessions {
		snap := Snapshot{SessionInfo: s.info, State: s.info.Status.String()}
		if s.relay != nil {
			snap.Directions = s.relay.Stats()
		}
		out = append(out, snap)
	}
	t.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
