// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

package relay

// State is the per-direction position in the transfer protocol.
type State int32

const (
	StateIdle State = iota
	StateArmedForFlush
	StateDraining
	StateWaitingForDrain
	StateFlushing
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateArmedForFlush:
		return "armed"
	case StateDraining:
		return "draining"
	case StateWaitingForDrain:
		return "waiting"
	case StateFlushing:
		return "flushing"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// wantsWritable reports whether a direction in this state needs its
// destination watched for writability.
func (s State) wantsWritable() bool {
	switch s {
	case StateArmedForFlush, StateDraining, StateWaitingForDrain, StateFlushing:
		return true
	}
	return false
}
