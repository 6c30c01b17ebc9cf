// Package session owns the lifecycle of one console connection: it
// opens a transport, drives the read loop that frames inbound bytes
// into timestamped lines, handles outbound input with echo and
// line-buffering policy, and converges every disconnect path — local,
// remote, or error — to a single consistent terminal state.
//
// The session never renders anything itself; it talks to a Display
// collaborator and reports lifecycle points through Hooks.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"
	"unicode/utf8"

	ncerr "gocom/internal/errors"
	"gocom/internal/framing"
	"gocom/internal/metrics"
	"gocom/internal/transport"
	"gocom/util"
)

// State is the connection lifecycle state.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateDisconnecting
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateDisconnecting:
		return "disconnecting"
	default:
		return "disconnected"
	}
}

// Display is the rendering collaborator.  Write appends text to the
// visible output; Bell signals an audible/visible alert.
type Display interface {
	Write(text string)
	Bell()
}

// Hooks are the lifecycle notification callbacks.  All are optional
// and invoked synchronously at well-defined points.  The early flag
// distinguishes a close forced by the transport vanishing from one
// requested by the user.
type Hooks struct {
	OnConnecting    func(cfg transport.Config)
	OnConnected     func(tr transport.Transport)
	OnDisconnecting func(early bool)
	OnDisconnected  func(early bool)

	// OnConnectError receives read-loop errors and close failures on
	// the early-disconnect path.  OnDisconnectError receives close
	// failures on the explicit path only; the two are distinct error
	// surfaces.
	OnConnectError    func(err error)
	OnDisconnectError func(err error)
}

func (h *Hooks) connecting(cfg transport.Config) {
	if h.OnConnecting != nil {
		h.OnConnecting(cfg)
	}
}

func (h *Hooks) connected(tr transport.Transport) {
	if h.OnConnected != nil {
		h.OnConnected(tr)
	}
}

func (h *Hooks) disconnecting(early bool) {
	if h.OnDisconnecting != nil {
		h.OnDisconnecting(early)
	}
}

func (h *Hooks) disconnected(early bool) {
	if h.OnDisconnected != nil {
		h.OnDisconnected(early)
	}
}

func (h *Hooks) connectError(err error) {
	if h.OnConnectError != nil {
		h.OnConnectError(err)
	}
}

func (h *Hooks) disconnectError(err error) {
	if h.OnDisconnectError != nil {
		h.OnDisconnectError(err)
	}
}

// Session manages one logical connection.  One Session owns one
// transport at a time; the transport handle is populated by Connect
// and cleared by Disconnect or by read-loop termination.
type Session struct {
	display Display
	hooks   Hooks
	logger  *util.Logger
	metrics *metrics.Collector
	framer  *framing.LineFramer
	clock   func() time.Time

	mu           sync.Mutex
	state        State
	port         transport.Transport
	reader       transport.Reader
	echo         bool
	flushOnEnter bool
	lineBuf      []byte
}

// New creates a disconnected Session.  display must not be nil; the
// metrics collector may be nil.
func New(display Display, hooks Hooks, logger *util.Logger, m *metrics.Collector) *Session {
	return &Session{
		display: display,
		hooks:   hooks,
		logger:  logger,
		metrics: m,
		framer:  framing.NewLineFramer(),
		clock:   time.Now,
	}
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// SetEcho enables or disables local echo of input.
func (s *Session) SetEcho(on bool) {
	s.mu.Lock()
	s.echo = on
	s.mu.Unlock()
}

// SetFlushOnEnter switches between character-at-a-time writes and
// line-buffered writes flushed on the carriage-return submit key.
func (s *Session) SetFlushOnEnter(on bool) {
	s.mu.Lock()
	s.flushOnEnter = on
	s.mu.Unlock()
}

// CurrentDevice returns the identity of the connected transport, or
// "" while disconnected.
func (s *Session) CurrentDevice() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.port == nil {
		return ""
	}
	return s.port.Device()
}

// Connect opens the transport described by cfg and runs the read loop
// until the connection ends.  It blocks for the life of the
// connection; run it on its own goroutine when the caller needs to
// keep working.  Open failures propagate to the caller and are not
// retried.  Read-loop failures are reported through the hooks, never
// returned.
func (s *Session) Connect(ctx context.Context, opener transport.Opener, cfg transport.Config) error {
	s.mu.Lock()
	if s.port != nil || s.state != StateDisconnected {
		s.mu.Unlock()
		return ncerr.ErrAlreadyConnected
	}
	s.state = StateConnecting
	s.mu.Unlock()

	s.hooks.connecting(cfg)

	tr, err := opener.Open(ctx, cfg)
	if err != nil {
		s.mu.Lock()
		s.state = StateDisconnected
		s.mu.Unlock()
		return err
	}

	s.mu.Lock()
	s.port = tr
	s.state = StateConnected
	s.framer.Reset()
	s.mu.Unlock()

	s.logger.Info("connected: %s", cfg)
	s.hooks.connected(tr)

	s.readLoop(ctx)
	return nil
}

// readLoop pulls chunks while the transport handle is set, the context
// is live, and the transport remains readable.  Loop exit with the
// handle already cleared means Disconnect ran; exit with the handle
// still set means the transport died on its own (or the context was
// cancelled) and triggers the early-disconnect sequence.
func (s *Session) readLoop(ctx context.Context) {
	for {
		port := s.currentPort()
		if port == nil {
			return // cleared by Disconnect; it owns the teardown
		}
		if ctx.Err() != nil {
			// Cancelled context: stop re-acquiring and converge
			// through the teardown below instead of spinning on a
			// cursor whose every Next fails immediately.
			break
		}
		if !port.Readable() {
			break
		}

		rd, err := port.AcquireReader()
		if err != nil {
			if s.currentPort() == nil {
				return
			}
			s.reportReadError(err)
			break
		}

		s.setReader(rd)
		err = s.drain(ctx, rd)
		s.setReader(nil)
		rd.Release()

		if err != nil {
			if s.currentPort() == nil {
				// Disconnect cancelled the cursor mid-read; ordinary
				// termination, nothing to report.
				return
			}
			s.reportReadError(err)
		}
		// End-of-stream with the handle still set: the device may
		// resume sending, so go around and re-acquire a cursor.
	}

	// Early disconnect: the transport stopped being readable while
	// the handle was still ours.
	port := s.takePort()
	if port == nil {
		return
	}
	if err := ctx.Err(); err != nil {
		s.logger.Verbose("session cancelled: %v", err)
	} else {
		s.logger.Warn("transport lost: %s", port.Device())
	}
	s.hooks.disconnecting(true)
	if err := port.Close(); err != nil {
		// Close failures here surface on the connect-error side: the
		// loop, not the user, initiated this close.
		s.hooks.connectError(err)
	}
	s.setState(StateDisconnected)
	s.hooks.disconnected(true)
}

// drain pulls chunks from one read cursor until end-of-stream, error,
// or cancellation, feeding the framer and rendering each complete line
// with a wall-clock timestamp.
func (s *Session) drain(ctx context.Context, rd transport.Reader) error {
	for {
		chunk, err := rd.Next(ctx)
		if err != nil {
			if util.IsHarmlessClose(err) || ncerr.Is(err, context.Canceled) ||
				ncerr.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return err
		}

		s.metrics.BytesReceived(int64(len(chunk)))
		for _, line := range s.framer.Feed(chunk) {
			s.metrics.LineFramed()
			s.display.Write(s.stampLine(line))
		}
	}
}

// stampLine prefixes a framed line with HH:MM:SS and a trailing
// newline.  Lines that fail to decode as text surface as an error
// line instead of aborting the session.
func (s *Session) stampLine(line []byte) string {
	ts := s.clock().Format("15:04:05")
	if !utf8.Valid(line) {
		return fmt.Sprintf("%s [decode error: %d byte line is not valid UTF-8]\n", ts, len(line))
	}
	return fmt.Sprintf("%s %s\n", ts, line)
}

// Disconnect closes the connection on user request.  Clearing the
// handle before anything else guarantees a concurrently running read
// loop sees the handle gone and does not treat its own exit as an
// early disconnect.  OnDisconnected always fires once a captured
// transport exists, even when the close itself fails.
func (s *Session) Disconnect() {
	s.mu.Lock()
	port := s.port
	s.port = nil
	rd := s.reader
	s.reader = nil
	if port != nil {
		s.state = StateDisconnecting
	}
	s.mu.Unlock()

	if rd != nil {
		rd.Cancel()
	}
	if port == nil {
		return
	}

	s.hooks.disconnecting(false)
	if err := port.Close(); err != nil {
		s.hooks.disconnectError(err)
	}
	s.setState(StateDisconnected)
	s.logger.Info("disconnected: %s", port.Device())
	s.hooks.disconnected(false)
}

// ── internal accessors ───────────────────────────────────────────────

func (s *Session) currentPort() transport.Transport {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.port
}

// takePort captures and clears the handle; exactly one of Disconnect
// and the read loop wins it.
func (s *Session) takePort() transport.Transport {
	s.mu.Lock()
	defer s.mu.Unlock()
	port := s.port
	s.port = nil
	if port != nil {
		s.state = StateDisconnecting
	}
	return port
}

func (s *Session) setReader(rd transport.Reader) {
	s.mu.Lock()
	s.reader = rd
	s.mu.Unlock()
}

func (s *Session) setState(st State) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

func (s *Session) reportReadError(err error) {
	s.metrics.ReadError(err.Error())
	s.logger.Debug("read: %v", err)
	s.hooks.connectError(err)
}
