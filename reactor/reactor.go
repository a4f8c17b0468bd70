// File: reactor/reactor.go
// Author: momentics <momentics@gmail.com>
//
// Platform-neutral constructor for the readiness multiplexer.

package reactor

import "github.com/momentics/serbridge/api"

// DefaultEventCapacity sizes the event batch a relay hands to Wait.
const DefaultEventCapacity = 32

// New constructs the platform-specific multiplexer.
func New() (api.Multiplexer, error) {
	return newMultiplexer()
}
