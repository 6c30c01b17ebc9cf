// Package console implements the interactive display surface: it
// renders session output on the local terminal and turns keystrokes
// into input events.  The session core only ever sees the Display and
// input-callback contracts, never the TTY itself.
package console

import (
	"bytes"
	"errors"
	"io"
	"os"
	"strings"
	"sync"

	"golang.org/x/term"

	"gocom/util"
)

// DefaultEscapeKey is Ctrl-], the classic "leave the console" key.
const DefaultEscapeKey = 0x1D

// ErrQuit is returned by ReadInput when the user hits the escape key.
var ErrQuit = errors.New("console quit")

// Term is a terminal-backed Display.  Write appends to the visible
// output (expanding LF to CRLF while the terminal is raw) and Bell
// rings the terminal bell.
type Term struct {
	input  io.Reader
	output io.Writer
	logger *util.Logger
	escape byte

	mu  sync.Mutex
	raw bool
}

// New returns a Term over stdin/stdout.
func New(logger *util.Logger) *Term {
	return &Term{
		input:  os.Stdin,
		output: os.Stdout,
		logger: logger,
		escape: DefaultEscapeKey,
	}
}

// NewWithIO returns a Term over arbitrary endpoints, for tests and for
// embedding the console behind another stream.
func NewWithIO(in io.Reader, out io.Writer, logger *util.Logger) *Term {
	return &Term{input: in, output: out, logger: logger, escape: DefaultEscapeKey}
}

// MakeRaw switches the terminal to raw mode so keystrokes arrive one
// at a time without local line editing.  The returned restore function
// must run before the process exits; it is a no-op when stdin is not a
// TTY (piped input).
func (t *Term) MakeRaw() (restore func(), err error) {
	f, ok := t.input.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		t.logger.Debug("console: input is not a TTY, staying cooked")
		return func() {}, nil
	}

	state, err := term.MakeRaw(int(f.Fd()))
	if err != nil {
		return nil, err
	}

	t.mu.Lock()
	t.raw = true
	t.mu.Unlock()

	return func() {
		t.mu.Lock()
		t.raw = false
		t.mu.Unlock()
		term.Restore(int(f.Fd()), state) //nolint:errcheck
	}, nil
}

// Write appends text to the visible output.
func (t *Term) Write(text string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.raw {
		text = strings.ReplaceAll(text, "\n", "\r\n")
	}
	io.WriteString(t.output, text) //nolint:errcheck
}

// Bell signals the user audibly (or visibly, per terminal settings).
func (t *Term) Bell() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.output.Write([]byte{0x07}) //nolint:errcheck
}

// ReadInput pumps input units to fn: one callback per read, which in
// raw mode means per keystroke (or per paste chunk).  It returns
// ErrQuit when the escape key appears, nil at end of input, and the
// read error otherwise.  Bytes before an escape key in the same chunk
// are still delivered.
func (t *Term) ReadInput(fn func(string)) error {
	buf := make([]byte, 256)
	for {
		n, err := t.input.Read(buf)
		if n > 0 {
			data := buf[:n]
			if i := bytes.IndexByte(data, t.escape); i >= 0 {
				if i > 0 {
					fn(string(data[:i]))
				}
				return ErrQuit
			}
			fn(string(data))
		}
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
	}
}
