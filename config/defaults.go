package config

import "time"

// ── Default values ───────────────────────────────────────────────────
//
// All tuneable defaults live here so they are easy to audit and reuse
// across CLI flags and environment variable loading.

const (
	// DefaultBaudRate is the speed assumed when no baud is given.
	// Per convention of modern dev boards and USB-serial adapters.
	DefaultBaudRate = 115200

	// DefaultDataBits is the character size of the default frame.
	DefaultDataBits = 8

	// DefaultFrame is the spec string behind the default framing.
	DefaultFrame = "8N1"

	// DefaultSSHPort is the standard SSH port.
	DefaultSSHPort = 22

	// DefaultConnTimeout is the TCP/SSH connection timeout.
	DefaultConnTimeout = 30 * time.Second

	// DefaultWatchInterval is how often the device watcher re-lists
	// serial ports when no OS-level notification source exists.
	DefaultWatchInterval = 2 * time.Second
)

// New returns a Config populated with defaults.  Flag and env loading
// overlay on top of this.
func New() *Config {
	return &Config{
		Baud:          DefaultBaudRate,
		Frame:         DefaultFrame,
		Timeout:       DefaultConnTimeout,
		Watch:         true,
		WatchInterval: DefaultWatchInterval,
	}
}
