package transport

import (
	"context"
	"net"
	"time"

	ncerr "gocom/internal/errors"
	"gocom/util"
)

// TCPOpener connects to a serial-over-TCP bridge (a ser2net-style
// server exposing a device as a raw socket).  cfg.Device is the
// host:port address.
type TCPOpener struct {
	Timeout time.Duration
	Logger  *util.Logger
}

// Open dials the bridge.
func (o *TCPOpener) Open(ctx context.Context, cfg Config) (Transport, error) {
	dialer := net.Dialer{Timeout: o.Timeout}

	o.Logger.Verbose("connecting to bridge %s", cfg.Device)

	conn, err := dialer.DialContext(ctx, "tcp", cfg.Device)
	if err != nil {
		return nil, ncerr.Wrap("open", cfg.Device, err)
	}

	o.Logger.Verbose("connected to %s", conn.RemoteAddr())

	// A bridge that closes its socket is gone for good: read-side EOF
	// ends the transport (unlike a local serial device).
	return newStream(conn, conn, cfg.Device, conn.Close), nil
}
