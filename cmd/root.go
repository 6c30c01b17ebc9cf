// Package cmd wires up the CLI flags and dispatches to the core modes.
package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	flag "github.com/spf13/pflag"

	"gocom/config"
	"gocom/internal/core"
	"gocom/util"
)

// UsageError marks an error caused by the invocation rather than the
// session: bad flags, arguments, or configuration.  main exits 2 for
// these, 1 for runtime failures.
type UsageError struct {
	Err error
}

func (e *UsageError) Error() string { return e.Err.Error() }
func (e *UsageError) Unwrap() error { return e.Err }

// version is overridable at link time:
//
//	go build -ldflags "-X gocom/cmd.version=2.0.0"
var version = "1.0.0" //nolint:gochecknoglobals

// Execute parses args and runs the appropriate gocom mode.
func Execute(ctx context.Context, args []string) error {
	// Defaults first, then env, then flags: flag defaults below are
	// seeded from the env-overlaid config so unset flags keep the
	// env/default value.
	cfg := config.New()
	config.LoadFromEnv(cfg)

	fs := flag.NewFlagSet("gocom", flag.ContinueOnError)

	// ── connection ───────────────────────────────────────────────
	fs.IntVarP(&cfg.Baud, "baud", "b", cfg.Baud, "Baud rate")
	fs.StringVar(&cfg.Frame, "frame", cfg.Frame, "Framing spec (e.g. 8N1, 7E1)")

	var timeoutSec int
	fs.IntVarP(&timeoutSec, "timeout", "w", 0, "Connect timeout in seconds")

	// ── remote console ───────────────────────────────────────────
	fs.StringVar(&cfg.TCPAddr, "tcp", cfg.TCPAddr, "Connect to a serial-over-TCP bridge at host:port")
	fs.StringVar(&cfg.SSHSpec, "ssh", cfg.SSHSpec, "Console via SSH gateway [user@]host[:port]")
	fs.StringVar(&cfg.SSHCommand, "ssh-command", cfg.SSHCommand, "Remote command to attach to (with --ssh)")
	fs.StringVar(&cfg.SSHKeyPath, "ssh-key", cfg.SSHKeyPath, "SSH private key file")
	fs.BoolVar(&cfg.SSHPassword, "ssh-password", cfg.SSHPassword, "Prompt for SSH password")
	fs.BoolVar(&cfg.UseSSHAgent, "ssh-agent", cfg.UseSSHAgent, "Use SSH agent")
	fs.BoolVar(&cfg.StrictHostKey, "strict-hostkey", cfg.StrictHostKey, "Verify SSH host keys")
	fs.StringVar(&cfg.KnownHostsPath, "known-hosts", cfg.KnownHostsPath, "Custom known_hosts path")

	// ── execution ────────────────────────────────────────────────
	fs.StringVarP(&cfg.Execute, "exec", "e", cfg.Execute, "Attach to a local command instead of a device")

	// ── input handling ───────────────────────────────────────────
	fs.BoolVarP(&cfg.Echo, "echo", "E", cfg.Echo, "Echo typed input locally")
	fs.BoolVarP(&cfg.FlushOnEnter, "flush-on-enter", "F", cfg.FlushOnEnter, "Buffer input, send on Enter")

	// ── device lifecycle ─────────────────────────────────────────
	fs.BoolVarP(&cfg.List, "list", "L", false, "List attached serial ports and exit")
	fs.BoolVarP(&cfg.Watch, "watch", "W", cfg.Watch, "Report device attach/detach events")
	fs.BoolVar(&cfg.AutoDisconnect, "auto-disconnect", cfg.AutoDisconnect, "Disconnect when the device detaches (with --watch)")

	// ── output ───────────────────────────────────────────────────
	fs.CountVarP(&cfg.Verbose, "verbose", "v", "Increase verbosity (repeatable)")

	var showVersion, showHelp, dryRun bool
	fs.BoolVar(&showVersion, "version", false, "Print version and exit")
	fs.BoolVarP(&showHelp, "help", "h", false, "Show this help")
	fs.BoolVar(&dryRun, "dry-run", false, "Validate configuration and exit")

	fs.Usage = func() { printUsage(fs) }

	// ── parse ────────────────────────────────────────────────────
	if err := fs.Parse(args); err != nil {
		return &UsageError{Err: err}
	}

	if showHelp || (len(args) == 0 && cfg.Device == "") {
		printUsage(fs)
		return nil
	}
	if showVersion {
		fmt.Printf("gocom %s\n", version)
		return nil
	}

	if timeoutSec > 0 {
		cfg.Timeout = time.Duration(timeoutSec) * time.Second
	}

	// ── positional arguments ─────────────────────────────────────
	if err := parsePositional(cfg, fs.Args()); err != nil {
		return &UsageError{Err: err}
	}

	// ── frame spec ───────────────────────────────────────────────
	bits, parity, stop, err := config.ParseFrameSpec(cfg.Frame)
	if err != nil {
		return &UsageError{Err: err}
	}
	cfg.DataBits, cfg.Parity, cfg.StopBits = bits, parity, stop

	// ── ssh spec ─────────────────────────────────────────────────
	if cfg.SSHSpec != "" {
		user, host, port, err := config.ParseSSHSpec(cfg.SSHSpec)
		if err != nil {
			return &UsageError{Err: fmt.Errorf("ssh: %w", err)}
		}
		cfg.SSHEnabled = true
		cfg.SSHUser = user
		cfg.SSHHost = host
		cfg.SSHPort = port
		if cfg.SSHCommand == "" {
			return &UsageError{Err: fmt.Errorf("--ssh requires --ssh-command (the remote console command)")}
		}
	}

	// ── validate ─────────────────────────────────────────────────
	if err := cfg.Validate(); err != nil {
		return &UsageError{Err: err}
	}

	if dryRun {
		return nil
	}

	// ── build and run ────────────────────────────────────────────
	logger := util.NewLogger(cfg.Verbose)

	mode, err := core.Build(cfg, logger)
	if err != nil {
		return err
	}
	return mode.Run(ctx)
}

// ── helpers ──────────────────────────────────────────────────────────

// parsePositional accepts DEVICE [BAUD].  The device argument is
// optional when --tcp/--ssh/--exec/--list already names a target.
func parsePositional(cfg *config.Config, remaining []string) error {
	switch len(remaining) {
	case 0:
		return nil
	case 2:
		baud, err := config.ParseBaud(remaining[1])
		if err != nil {
			return err
		}
		cfg.Baud = baud
		fallthrough
	case 1:
		if cfg.TCPAddr != "" || cfg.SSHSpec != "" || cfg.Execute != "" {
			return fmt.Errorf("device argument %q conflicts with --tcp/--ssh/--exec", remaining[0])
		}
		cfg.Device = remaining[0]
		return nil
	default:
		return fmt.Errorf("too many arguments (expected DEVICE [BAUD])")
	}
}

func printUsage(fs *flag.FlagSet) {
	fmt.Fprintf(os.Stderr, `gocom – Serial Console Tool v%s

An interactive console for serial devices, serial-over-TCP bridges,
and remote console servers.

Usage:
  gocom [options] <device> [baud]             Open a serial console
  gocom -L                                    List attached ports
  gocom --tcp <host:port> [options]           Console via TCP bridge
  gocom --ssh user@gateway --ssh-command CMD  Console via SSH gateway
  gocom -e <command>                          Console on a local command

Options:
`, version)
	fs.PrintDefaults()
	fmt.Fprintf(os.Stderr, `
Examples:
  gocom /dev/ttyUSB0 115200                   115200 8N1 console
  gocom -b 9600 --frame 7E1 /dev/ttyACM0      Legacy framing
  gocom -EF /dev/ttyUSB0                      Local echo, send on Enter
  gocom -W --auto-disconnect /dev/ttyACM0     Follow device hotplug
  gocom --tcp console-server:7000             ser2net-style bridge

Press Ctrl-] to leave a console session.
`)
}
