// Package session
// Author: momentics <momentics@gmail.com>
//
// Session lifecycle shared by the server and client drivers: the serial
// device is opened for the connection, a relay runs to completion and the
// outcome is logged and reported. Active sessions are tracked for debug
// introspection.
package session
