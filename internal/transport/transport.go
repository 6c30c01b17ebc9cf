// Package transport provides abstractions for the bidirectional byte
// stream a console session runs over.  Transports handle the "how" of
// data movement — a local serial port, a serial-over-TCP bridge, a
// remote console reached through SSH, or a child process — independent
// of what happens over the stream (which is the session layer's job).
package transport

import (
	"context"
	"fmt"
	"time"
)

// Parity is the parity bit setting for serial framing.
type Parity byte

const (
	ParityNone  Parity = 'N'
	ParityEven  Parity = 'E'
	ParityOdd   Parity = 'O'
	ParityMark  Parity = 'M'
	ParitySpace Parity = 'S'
)

// StopBits is the stop bit setting for serial framing.
type StopBits int

const (
	StopOne          StopBits = 1
	StopTwo          StopBits = 2
	StopOnePointFive StopBits = 15 // 1.5 stop bits
)

// Config describes how to open a transport.  Device is a serial port
// path, a host:port address, a remote command, or a local command
// line, depending on the opener.  The framing fields only apply to
// serial ports; other openers ignore them.
type Config struct {
	Device   string
	BaudRate int
	DataBits int
	Parity   Parity
	StopBits StopBits
}

// FrameLabel renders the framing parameters in the conventional short
// form, e.g. "8N1".
func (c Config) FrameLabel() string {
	stop := "1"
	switch c.StopBits {
	case StopTwo:
		stop = "2"
	case StopOnePointFive:
		stop = "1.5"
	}
	return fmt.Sprintf("%d%c%s", c.DataBits, c.Parity, stop)
}

func (c Config) String() string {
	if c.BaudRate > 0 {
		return fmt.Sprintf("%s @ %d %s", c.Device, c.BaudRate, c.FrameLabel())
	}
	return c.Device
}

// Opener opens transports.  Implementations include the serial driver,
// a TCP bridge dialer, an SSH remote-command opener, and a local
// child-process opener.
type Opener interface {
	// Open establishes the byte stream described by cfg.
	Open(ctx context.Context, cfg Config) (Transport, error)
}

// Transport is one open bidirectional byte stream.
//
// The read side is pulled through an exclusively held Reader; the
// write side takes an internal lock for the duration of each Write
// call and releases it on every exit path, so one stalled write never
// wedges later ones behind a held lock.
type Transport interface {
	// AcquireReader returns the exclusive read cursor.  At most one
	// cursor exists at a time; acquiring while one is held fails.
	AcquireReader() (Reader, error)

	// Write sends p down the stream.  Safe for concurrent use.
	Write(ctx context.Context, p []byte) error

	// Writable reports whether writes can currently be attempted.
	Writable() bool

	// Readable reports whether the stream can still produce bytes.
	// It goes false when the stream ends or the device detaches.
	Readable() bool

	// Device returns the identity this transport was opened on, used
	// to match attach/detach notifications.
	Device() string

	// Close tears the stream down and releases the device.
	Close() error
}

// Reader is the active read cursor of a transport.  It is owned by
// the read loop, except that Cancel may be called from outside to
// resolve an in-flight Next.
type Reader interface {
	// Next blocks until the next chunk of inbound bytes arrives and
	// returns it.  The returned slice is only valid until the
	// following Next call.  Returns io.EOF at end-of-stream and after
	// Cancel.
	Next(ctx context.Context) ([]byte, error)

	// Cancel resolves a blocked Next with io.EOF.  After Cancel the
	// cursor must not be reused.
	Cancel()

	// Release returns the cursor so a new one may be acquired.
	Release()
}

// EventKind distinguishes attach from detach notifications.
type EventKind int

const (
	DeviceAttached EventKind = iota
	DeviceDetached
)

func (k EventKind) String() string {
	if k == DeviceAttached {
		return "attached"
	}
	return "detached"
}

// Event is an out-of-band device notification.  Events are
// informational; delivering one never changes any transport's state.
type Event struct {
	Kind   EventKind
	Device string
	When   time.Time
}

// Watcher delivers attach/detach events until closed.
type Watcher interface {
	// Events returns the notification channel.  The channel is closed
	// when the watcher shuts down.
	Events() <-chan Event

	// Close stops watching and closes the event channel.
	Close() error
}
