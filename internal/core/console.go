package core

import (
	"context"

	"gocom/internal/console"
	"gocom/internal/metrics"
	"gocom/internal/session"
	"gocom/internal/transport"
	"gocom/util"
)

// ConsoleMode attaches the local terminal to a device: it opens the
// transport, runs the session until the device goes away or the user
// hits the escape key, and renders lifecycle events in between — the
// default mode.
type ConsoleMode struct {
	Opener         transport.Opener
	PortCfg        transport.Config
	Echo           bool
	FlushOnEnter   bool
	Watcher        transport.Watcher // nil → no attach/detach relay
	AutoDisconnect bool
	Logger         *util.Logger
	Metrics        *metrics.Collector

	// Term defaults to a terminal on os.Stdin/os.Stdout when nil.
	// Override in tests for deterministic I/O.
	Term *console.Term
}

func (m *ConsoleMode) term() *console.Term {
	if m.Term != nil {
		return m.Term
	}
	return console.New(m.Logger)
}

// Run opens the device and blocks until the session ends.  Keyboard
// input is pumped into the session from a helper goroutine; the
// session's read loop runs on this goroutine.
func (m *ConsoleMode) Run(ctx context.Context) error {
	term := m.term()

	restore, err := term.MakeRaw()
	if err != nil {
		return err
	}
	m.Logger.SetCRLF(true)
	defer func() {
		restore()
		m.Logger.SetCRLF(false)
	}()

	sess := session.New(term, m.hooks(term), m.Logger, m.Metrics)
	sess.SetEcho(m.Echo)
	sess.SetFlushOnEnter(m.FlushOnEnter)

	if m.Watcher != nil {
		bridge := session.NewBridge(sess, m.Watcher, term, m.Logger,
			m.PortCfg.Device, m.AutoDisconnect)
		defer bridge.Close() //nolint:errcheck
	}

	// Keyboard pump.  ErrQuit (escape key) and end-of-input both fold
	// into a disconnect request; the session ignores it when the read
	// loop already tore the connection down.
	go func() {
		if err := term.ReadInput(sess.HandleInput); err != nil && err != console.ErrQuit {
			m.Logger.Error("input: %v", err)
		}
		sess.Disconnect()
	}()

	// Context cancellation (Ctrl-C before raw mode, SIGTERM) also
	// requests a disconnect so Connect can return.
	runDone := make(chan struct{})
	defer close(runDone)
	go func() {
		select {
		case <-ctx.Done():
			sess.Disconnect()
		case <-runDone:
		}
	}()

	err = sess.Connect(ctx, m.Opener, m.PortCfg)

	if m.Logger.Level() >= util.LogVerbose {
		m.Logger.Verbose("session stats: %s", m.Metrics.JSON())
	}
	return err
}

// hooks renders lifecycle transitions on the terminal.  Errors go to
// the logger so they survive even when the terminal is torn down.
func (m *ConsoleMode) hooks(term *console.Term) session.Hooks {
	return session.Hooks{
		OnConnecting: func(cfg transport.Config) {
			m.Logger.Verbose("connecting to %s", cfg.String())
		},
		OnConnected: func(tr transport.Transport) {
			term.Write("connected to " + tr.Device() + " (press Ctrl-] to exit)\n")
		},
		OnDisconnecting: func(early bool) {
			if early {
				term.Write("device lost, closing\n")
			}
		},
		OnDisconnected: func(early bool) {
			if early {
				term.Write("disconnected (device went away)\n")
			} else {
				term.Write("disconnected\n")
			}
		},
		OnConnectError: func(err error) {
			m.Logger.Error("connection: %v", err)
		},
		OnDisconnectError: func(err error) {
			m.Logger.Error("close: %v", err)
		},
	}
}
