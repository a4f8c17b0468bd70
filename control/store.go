// control/store.go
// Author: momentics <momentics@gmail.com>
//
// Thread-safe configuration store with reload propagation.

package control

import (
	"sync"
)

// ConfigStore holds the active configuration and notifies listeners when it changes.
type ConfigStore struct {
	mu        sync.RWMutex
	config    *Config
	listeners []func(*Config)
}

// NewConfigStore initializes a store with cfg.
func NewConfigStore(cfg *Config) *ConfigStore {
	return &ConfigStore{config: cfg}
}

// Snapshot returns a copy of the active configuration.
func (cs *ConfigStore) Snapshot() Config {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	c := *cs.config
	c.Log.Outputs = append([]string(nil), cs.config.Log.Outputs...)
	return c
}

// Set replaces the configuration and dispatches reload listeners synchronously.
func (cs *ConfigStore) Set(cfg *Config) {
	cs.mu.Lock()
	cs.config = cfg
	listeners := append(([]func(*Config))(nil), cs.listeners...)
	cs.mu.Unlock()
	for _, fn := range listeners {
		fn(cfg)
	}
}

// OnReload registers a listener hook called on config changes.
func (cs *ConfigStore) OnReload(fn func(*Config)) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.listeners = append(cs.listeners, fn)
}
