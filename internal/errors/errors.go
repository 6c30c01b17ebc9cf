// Package errors provides domain-specific error types for gocom.
//
// These types carry structured context (operation, device, whether the
// device is gone for good) that helps callers decide how to handle
// failures and provides better diagnostics than plain string wrapping.
package errors

import (
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"syscall"

	serial "go.bug.st/serial"
)

// ── Sentinel errors ──────────────────────────────────────────────────

var (
	ErrNotConnected     = errors.New("not connected")
	ErrAlreadyConnected = errors.New("already connected")
	ErrPortBusy         = errors.New("port is busy")
	ErrPortNotFound     = errors.New("port not found")
	ErrReaderHeld       = errors.New("read cursor already acquired")
	ErrNotWritable      = errors.New("transport is not writable")
)

// ── Structured error types ───────────────────────────────────────────

// PortError represents a failure in a transport operation.
type PortError struct {
	Op     string // operation: "open", "read", "write", "close"
	Device string // device path or address involved
	Err    error  // underlying error
	Gone   bool   // device has detached; the transport is dead
}

func (e *PortError) Error() string {
	s := fmt.Sprintf("%s %s: %v", e.Op, e.Device, e.Err)
	if e.Gone {
		s += " (device gone)"
	}
	return s
}

func (e *PortError) Unwrap() error { return e.Err }

// SSHError represents an SSH-specific failure with host context.
type SSHError struct {
	Op   string // "handshake", "auth", "session", "exec"
	Host string
	Port int
	Err  error
}

func (e *SSHError) Error() string {
	return fmt.Sprintf("ssh %s %s:%d: %v", e.Op, e.Host, e.Port, e.Err)
}

func (e *SSHError) Unwrap() error { return e.Err }

// ConfigError represents an invalid configuration value.
type ConfigError struct {
	Field   string      // config field name
	Value   interface{} // the invalid value (nil if missing)
	Message string      // human-readable explanation
	Hint    string      // suggestion for the user (optional)
}

func (e *ConfigError) Error() string {
	msg := fmt.Sprintf("config: --%s", e.Field)
	if e.Value != nil {
		msg += fmt.Sprintf("=%v", e.Value)
	}
	msg += ": " + e.Message
	if e.Hint != "" {
		msg += "\n  hint: " + e.Hint
	}
	return msg
}

// ── Constructors ─────────────────────────────────────────────────────

// Wrap creates a PortError, automatically detecting whether the
// underlying error means the device has detached.
func Wrap(op, device string, err error) *PortError {
	return &PortError{
		Op:     op,
		Device: device,
		Err:    err,
		Gone:   classifyGone(err),
	}
}

// WrapSSH creates an SSHError.
func WrapSSH(op, host string, port int, err error) *SSHError {
	return &SSHError{Op: op, Host: host, Port: port, Err: err}
}

// ── Classification helpers ───────────────────────────────────────────

// IsDeviceGone reports whether err means the device has detached and
// the transport will never become readable or writable again.
func IsDeviceGone(err error) bool {
	if err == nil {
		return false
	}
	var pe *PortError
	if errors.As(err, &pe) {
		return pe.Gone
	}
	return classifyGone(err)
}

// classifyGone inspects driver and OS error types for conditions that
// mean the underlying device is no longer there.
func classifyGone(err error) bool {
	if err == nil {
		return false
	}
	// go.bug.st/serial surfaces a closed or vanished port as a
	// *serial.PortError with a dedicated code.
	var se *serial.PortError
	if errors.As(err, &se) {
		switch se.Code() {
		case serial.PortClosed, serial.PortNotFound, serial.InvalidSerialPort:
			return true
		}
	}
	// Unplugging a USB adapter mid-read surfaces as EIO or ENXIO.
	if errors.Is(err, syscall.EIO) || errors.Is(err, syscall.ENXIO) ||
		errors.Is(err, syscall.ENODEV) {
		return true
	}
	if errors.Is(err, os.ErrClosed) || errors.Is(err, net.ErrClosed) ||
		errors.Is(err, io.ErrClosedPipe) {
		return true
	}
	return false
}

// ── Re-exports for convenience ───────────────────────────────────────
//
// These allow callers to use gocom/internal/errors as a drop-in
// replacement for the standard library in common operations.

// As is [errors.As].
func As(err error, target interface{}) bool { return errors.As(err, target) }

// Is is [errors.Is].
func Is(err, target error) bool { return errors.Is(err, target) }

// New is [errors.New].
func New(text string) error { return errors.New(text) }

// Unwrap is [errors.Unwrap].
func Unwrap(err error) error { return errors.Unwrap(err) }

// Join is [errors.Join].
func Join(errs ...error) error { return errors.Join(errs...) }
