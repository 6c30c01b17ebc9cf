// Package config defines the runtime configuration for gocom and provides
// helpers for parsing frame specifications and remote host specs.
package config

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	ncerr "gocom/internal/errors"
	"gocom/internal/transport"
)

// Config holds every tuneable for a single gocom session.
type Config struct {
	// ── Connection ───────────────────────────────────────────────────
	Device   string // serial device path, tcp address, or ssh command
	Baud     int
	Frame    string // raw "8N1"-style spec from --frame
	DataBits int
	Parity   transport.Parity
	StopBits transport.StopBits
	Timeout  time.Duration

	// ── Remote console ───────────────────────────────────────────────
	TCPAddr        string // --tcp: host:port of a serial-over-TCP bridge
	SSHSpec        string // raw user@host[:port] from --ssh
	SSHEnabled     bool
	SSHUser        string
	SSHHost        string
	SSHPort        int
	SSHCommand     string // remote command to attach to; defaults per cmd
	SSHKeyPath     string
	SSHPassword    bool // true → prompt interactively
	UseSSHAgent    bool
	StrictHostKey  bool
	KnownHostsPath string

	// ── Execution ────────────────────────────────────────────────────
	Execute string // --exec: local command standing in for a device

	// ── Input handling ───────────────────────────────────────────────
	Echo         bool
	FlushOnEnter bool

	// ── Device lifecycle ─────────────────────────────────────────────
	List           bool
	Watch          bool
	WatchInterval  time.Duration
	AutoDisconnect bool

	// ── Output ───────────────────────────────────────────────────────
	Verbose int
}

// ── Frame-spec parser ────────────────────────────────────────────────

// frameRe matches specs such as "8N1", "7E1", or "8N1.5".
var frameRe = regexp.MustCompile(`^([5-8])([NEOMSneoms])(1|1\.5|2)$`)

// ParseFrameSpec decomposes a compact framing spec like "8N1" into data
// bits, parity, and stop bits.
func ParseFrameSpec(spec string) (dataBits int, parity transport.Parity, stop transport.StopBits, err error) {
	m := frameRe.FindStringSubmatch(spec)
	if m == nil {
		return 0, 0, 0, fmt.Errorf("invalid frame spec %q – expected e.g. 8N1, 7E1, 8N2", spec)
	}
	dataBits, _ = strconv.Atoi(m[1])
	switch m[2] {
	case "N", "n":
		parity = transport.ParityNone
	case "E", "e":
		parity = transport.ParityEven
	case "O", "o":
		parity = transport.ParityOdd
	case "M", "m":
		parity = transport.ParityMark
	case "S", "s":
		parity = transport.ParitySpace
	}
	switch m[3] {
	case "1":
		stop = transport.StopOne
	case "1.5":
		stop = transport.StopOnePointFive
	case "2":
		stop = transport.StopTwo
	}
	return dataBits, parity, stop, nil
}

// ParseBaud parses a positional baud-rate argument.
func ParseBaud(s string) (int, error) {
	baud, err := strconv.Atoi(s)
	if err != nil || baud <= 0 {
		return 0, fmt.Errorf("invalid baud rate %q", s)
	}
	return baud, nil
}

// ── SSH-spec parser ──────────────────────────────────────────────────

// sshRe matches [user@]host[:port].
var sshRe = regexp.MustCompile(`^(?:([^@]+)@)?([^:]+)(?::(\d+))?$`)

// ParseSSHSpec extracts user, host, and port from a string such as
// "admin@console-server.example.com:2222".  Port defaults to 22.
func ParseSSHSpec(spec string) (user, host string, port int, err error) {
	m := sshRe.FindStringSubmatch(spec)
	if m == nil {
		return "", "", 0, fmt.Errorf("invalid ssh spec %q – expected [user@]host[:port]", spec)
	}
	user = m[1]
	host = m[2]
	port = DefaultSSHPort
	if m[3] != "" {
		port, err = strconv.Atoi(m[3])
		if err != nil || port < 1 || port > 65535 {
			return "", "", 0, fmt.Errorf("invalid ssh port %q", m[3])
		}
	}
	if host == "" {
		return "", "", 0, fmt.Errorf("ssh host is required")
	}
	return user, host, port, nil
}

// ── Validation ───────────────────────────────────────────────────────

// Validate checks that the configuration is internally consistent.
func (c *Config) Validate() error {
	if c.List {
		return nil
	}

	sources := 0
	if c.Device != "" {
		sources++
	}
	if c.TCPAddr != "" {
		sources++
	}
	if c.SSHEnabled {
		sources++
	}
	if c.Execute != "" {
		sources++
	}
	if sources == 0 {
		return &ncerr.ConfigError{
			Field:   "device",
			Message: "a device is required",
			Hint:    "pass a serial device path, or use --tcp/--ssh/--exec (see --list for attached ports)",
		}
	}
	if sources > 1 {
		return fmt.Errorf("--tcp, --ssh, --exec, and a serial device are mutually exclusive")
	}

	if c.Baud <= 0 {
		return &ncerr.ConfigError{
			Field:   "baud",
			Value:   c.Baud,
			Message: "baud rate must be positive",
			Hint:    "common rates are 9600, 57600, and 115200",
		}
	}

	if c.SSHEnabled && c.SSHHost == "" {
		return fmt.Errorf("ssh host is required")
	}

	if c.AutoDisconnect && !c.Watch {
		return fmt.Errorf("--auto-disconnect requires --watch")
	}

	return nil
}
