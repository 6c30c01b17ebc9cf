package util

import (
	"errors"
	"io"
	"net"
	"os"
)

// IsHarmlessClose returns true for errors that are expected while a
// transport is being torn down.  The session read loop uses this to
// tell an ordinary shutdown apart from a failure worth reporting.
func IsHarmlessClose(err error) bool {
	if err == nil {
		return true
	}
	if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) ||
		errors.Is(err, io.ErrClosedPipe) || errors.Is(err, os.ErrClosed) {
		return true
	}
	// net.OpError wrapping "use of closed network connection"
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return errors.Is(opErr.Err, net.ErrClosed)
	}
	return false
}
