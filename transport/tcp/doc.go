// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Package tcp accepts and dials TCP connections and hands them over as
// transport.Stream endpoints for the relay.
package tcp
