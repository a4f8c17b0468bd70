// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT

package fake

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/momentics/serbridge/api"
)

// ErrStalled is returned by Poller.Wait when no registered transport is ready.
// A real multiplexer would block forever at that point.
var ErrStalled = errors.New("fake: poller stalled, nothing is ready")

// RearmCall records one Rearm invocation.
type RearmCall struct {
	Token    api.Token
	Interest api.Interest
}

type registration struct {
	t        *Transport
	interest api.Interest
}

// Poller is a level-triggered api.Multiplexer over fake transports.
type Poller struct {
	mu       sync.Mutex
	regs     map[api.Token]*registration
	maxWaits int
	waits    int
	rearms   []RearmCall
	closed   bool
}

// NewPoller creates a poller that fails with ErrStalled after maxWaits
// Wait calls, guarding tests against livelock.
func NewPoller(maxWaits int) *Poller {
	return &Poller{regs: make(map[api.Token]*registration), maxWaits: maxWaits}
}

func (p *Poller) lookup(t api.Transport) (*Transport, error) {
	ft, ok := t.(*Transport)
	if !ok {
		return nil, fmt.Errorf("fake: poller accepts only fake transports: %w", api.ErrInvalidArgument)
	}
	return ft, nil
}

// Register implements api.Multiplexer.
func (p *Poller) Register(t api.Transport, tok api.Token, in api.Interest) error {
	ft, err := p.lookup(t)
	if err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, dup := p.regs[tok]; dup {
		return fmt.Errorf("fake: token %d registered twice", tok)
	}
	p.regs[tok] = &registration{t: ft, interest: in}
	return nil
}

// Rearm implements api.Multiplexer.
func (p *Poller) Rearm(t api.Transport, tok api.Token, in api.Interest) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	reg, ok := p.regs[tok]
	if !ok || reg.t != t {
		return fmt.Errorf("fake: rearm of unknown token %d: %w", tok, api.ErrNotFound)
	}
	reg.interest = in
	p.rearms = append(p.rearms, RearmCall{Token: tok, Interest: in})
	return nil
}

// Deregister implements api.Multiplexer.
func (p *Poller) Deregister(t api.Transport) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for tok, reg := range p.regs {
		if reg.t == t {
			delete(p.regs, tok)
			return nil
		}
	}
	return api.ErrNotFound
}

// Wait reports every registered transport whose level state matches its interest.
func (p *Poller) Wait(events []api.Event) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return 0, api.ErrTransportClosed
	}
	p.waits++
	if p.maxWaits > 0 && p.waits > p.maxWaits {
		return 0, ErrStalled
	}

	tokens := make([]api.Token, 0, len(p.regs))
	for tok := range p.regs {
		tokens = append(tokens, tok)
	}
	sort.Slice(tokens, func(i, j int) bool { return tokens[i] < tokens[j] })

	n := 0
	for _, tok := range tokens {
		if n == len(events) {
			break
		}
		reg := p.regs[tok]
		readable, writable, readClosed, writeClosed, fault := reg.t.readiness()
		ev := api.Event{
			Token:       tok,
			Readable:    readable && reg.interest.Has(api.Readable),
			Writable:    writable && reg.interest.Has(api.Writable),
			ReadClosed:  readClosed,
			WriteClosed: writeClosed,
			Error:       fault,
		}
		if ev.Readable || ev.Writable || ev.ReadClosed || ev.WriteClosed || ev.Error {
			events[n] = ev
			n++
		}
	}
	if n == 0 {
		return 0, ErrStalled
	}
	return n, nil
}

// Close implements api.Multiplexer.
func (p *Poller) Close() error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	return nil
}

// Waits returns the number of Wait calls so far.
func (p *Poller) Waits() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.waits
}

// Rearms returns a copy of the recorded Rearm calls.
func (p *Poller) Rearms() []RearmCall {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]RearmCall(nil), p.rearms...)
}

// Interest returns the current interest of tok.
func (p *Poller) Interest(tok api.Token) api.Interest {
	p.mu.Lock()
	defer p.mu.Unlock()
	if reg, ok := p.regs[tok]; ok {
		return reg.interest
	}
	return 0
}

// Closed reports whether Close was called.
func (p *Poller) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}
