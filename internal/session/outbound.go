package session

import (
	"context"

	"gocom/internal/transport"
)

// submitKey is the carriage-return keystroke that flushes the line
// buffer in flush-on-enter mode.
const submitKey = "\r"

// HandleInput processes one unit of user input (a keystroke or a paste
// chunk).  Echo happens first and is independent of writability.  When
// the transport cannot take writes the input is dropped with an alert:
// no queuing, no retry, and no error escapes the handler.
func (s *Session) HandleInput(data string) {
	s.mu.Lock()
	echo := s.echo
	flush := s.flushOnEnter
	port := s.port
	s.mu.Unlock()

	if echo {
		s.display.Write(data)
	}

	if port == nil || !port.Writable() {
		s.display.Bell()
		s.metrics.WriteDropped()
		return
	}

	if !flush {
		s.send(port, []byte(data))
		return
	}

	s.mu.Lock()
	s.lineBuf = append(s.lineBuf, data...)
	var out []byte
	if data == submitKey {
		out = s.lineBuf
		s.lineBuf = nil
	}
	s.mu.Unlock()

	if out != nil {
		s.send(port, out)
	}
}

// send performs one transport write.  The transport holds its write
// lock only for the duration of this single call, so a stalled write
// cannot wedge later input events behind a held lock.
func (s *Session) send(port transport.Transport, p []byte) {
	if err := port.Write(context.Background(), p); err != nil {
		// Failed writes alert like unwritable ones; the bytes are
		// gone either way.
		s.logger.Debug("write: %v", err)
		s.display.Bell()
		s.metrics.WriteDropped()
		return
	}
	s.metrics.WriteCompleted()
	s.metrics.BytesSent(int64(len(p)))
}
