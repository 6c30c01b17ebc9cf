package transport

import (
	"context"

	serial "go.bug.st/serial"
	"go.bug.st/serial/enumerator"

	ncerr "gocom/internal/errors"
	"gocom/util"
)

// SerialOpener opens local serial ports via the OS serial driver.
type SerialOpener struct {
	Logger *util.Logger
}

// Open opens cfg.Device with the configured baud rate and framing.
// Open failures propagate to the caller; nothing here retries.
func (o *SerialOpener) Open(ctx context.Context, cfg Config) (Transport, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	mode, err := serialMode(cfg)
	if err != nil {
		return nil, err
	}

	o.Logger.Verbose("opening %s (%d baud, %s)", cfg.Device, cfg.BaudRate, cfg.FrameLabel())

	port, err := serial.Open(cfg.Device, mode)
	if err != nil {
		return nil, openError(cfg.Device, err)
	}

	// A serial device can stop sending without detaching; a read-side
	// end-of-stream is not the end of the transport.
	s := newStream(port, port, cfg.Device, port.Close)
	s.transientEOF = true
	return s, nil
}

// serialMode translates the transport framing config into the driver's
// mode struct.  The driver validates the baud rate itself on Open.
func serialMode(cfg Config) (*serial.Mode, error) {
	mode := &serial.Mode{
		BaudRate: cfg.BaudRate,
		DataBits: cfg.DataBits,
	}

	switch cfg.Parity {
	case ParityNone, 0:
		mode.Parity = serial.NoParity
	case ParityEven:
		mode.Parity = serial.EvenParity
	case ParityOdd:
		mode.Parity = serial.OddParity
	case ParityMark:
		mode.Parity = serial.MarkParity
	case ParitySpace:
		mode.Parity = serial.SpaceParity
	default:
		return nil, &ncerr.ConfigError{
			Field:   "frame",
			Value:   string(cfg.Parity),
			Message: "unknown parity",
			Hint:    "use one of N, E, O, M, S",
		}
	}

	switch cfg.StopBits {
	case StopOne, 0:
		mode.StopBits = serial.OneStopBit
	case StopTwo:
		mode.StopBits = serial.TwoStopBits
	case StopOnePointFive:
		mode.StopBits = serial.OnePointFiveStopBits
	default:
		return nil, &ncerr.ConfigError{
			Field:   "frame",
			Value:   int(cfg.StopBits),
			Message: "unknown stop bits",
			Hint:    "use 1, 1.5, or 2",
		}
	}

	return mode, nil
}

// openError maps driver error codes onto the package sentinels so
// callers can match with errors.Is.
func openError(device string, err error) error {
	var pe *serial.PortError
	if ncerr.As(err, &pe) {
		switch pe.Code() {
		case serial.PortBusy:
			return ncerr.Wrap("open", device, ncerr.ErrPortBusy)
		case serial.PortNotFound:
			return ncerr.Wrap("open", device, ncerr.ErrPortNotFound)
		}
	}
	return ncerr.Wrap("open", device, err)
}

// ListPorts enumerates the serial devices currently present.
func ListPorts() ([]string, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, ncerr.Wrap("enumerate", "serial", err)
	}
	return ports, nil
}

// PortDetail describes one attached serial device.  USB metadata is
// empty for non-USB ports.
type PortDetail struct {
	Name         string
	IsUSB        bool
	VID          string
	PID          string
	SerialNumber string
	Product      string
}

// ListPortDetails enumerates attached devices with USB metadata.
func ListPortDetails() ([]PortDetail, error) {
	ports, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, ncerr.Wrap("enumerate", "serial", err)
	}
	out := make([]PortDetail, 0, len(ports))
	for _, p := range ports {
		out = append(out, PortDetail{
			Name:         p.Name,
			IsUSB:        p.IsUSB,
			VID:          p.VID,
			PID:          p.PID,
			SerialNumber: p.SerialNumber,
			Product:      p.Product,
		})
	}
	return out, nil
}
