// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

package relay

import (
	"errors"
	"fmt"
)

// SessionError is a fatal I/O failure that ended a session.
type SessionError struct {
	Direction string // empty for failures of the multiplexer itself
	Op        string
	Err       error
}

func (e *SessionError) Error() string {
	if e.Direction == "" {
		return fmt.Sprintf("relay %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("relay %s %s: %v", e.Direction, e.Op, e.Err)
}

func (e *SessionError) Unwrap() error { return e.Err }

// IsFatal reports whether err ended a session because of an unrecoverable
// I/O failure. Graceful closure returns a nil error.
func IsFatal(err error) bool {
	var se *SessionError
	return errors.As(err, &se)
}
