package session

import (
	"fmt"
	"testing"

	"gocom/internal/metrics"
)

// connected returns a session wired to a fake transport, bypassing the
// read loop; outbound behaviour doesn't need one.
func connected(t *testing.T, display *fakeDisplay) (*Session, *fakeTransport) {
	t.Helper()
	tr := newFakeTransport("/dev/ttyUSB0")
	s := New(display, Hooks{}, testLogger(), metrics.New())
	s.mu.Lock()
	s.port = tr
	s.state = StateConnected
	s.mu.Unlock()
	return s, tr
}

func TestHandleInput_ImmediateMode(t *testing.T) {
	s, tr := connected(t, &fakeDisplay{})

	s.HandleInput("h")
	s.HandleInput("i")
	s.HandleInput("\r")

	writes := tr.writeCalls()
	if len(writes) != 3 {
		t.Fatalf("writes = %d, want 3 separate calls", len(writes))
	}
	for i, want := range []string{"h", "i", "\r"} {
		if string(writes[i]) != want {
			t.Errorf("write %d = %q, want %q", i, writes[i], want)
		}
	}
}

func TestHandleInput_FlushOnEnter(t *testing.T) {
	s, tr := connected(t, &fakeDisplay{})
	s.SetFlushOnEnter(true)

	s.HandleInput("h")
	s.HandleInput("i")
	if n := len(tr.writeCalls()); n != 0 {
		t.Fatalf("wrote %d times before submit, want 0", n)
	}

	s.HandleInput("\r")
	writes := tr.writeCalls()
	if len(writes) != 1 {
		t.Fatalf("writes = %d, want exactly 1", len(writes))
	}
	if string(writes[0]) != "hi\r" {
		t.Errorf("write = %q, want %q", writes[0], "hi\r")
	}

	// The buffer resets after each flush.
	s.HandleInput("x")
	s.HandleInput("\r")
	writes = tr.writeCalls()
	if len(writes) != 2 || string(writes[1]) != "x\r" {
		t.Errorf("second flush = %q, want %q", writes[len(writes)-1], "x\r")
	}
}

func TestHandleInput_PasteChunkInFlushMode(t *testing.T) {
	// A paste arrives as one multi-character input unit; only a lone
	// carriage return submits.
	s, tr := connected(t, &fakeDisplay{})
	s.SetFlushOnEnter(true)

	s.HandleInput("show version")
	s.HandleInput("\r")

	writes := tr.writeCalls()
	if len(writes) != 1 || string(writes[0]) != "show version\r" {
		t.Fatalf("writes = %q, want one %q", writes, "show version\r")
	}
}

func TestHandleInput_EchoIndependentOfWritability(t *testing.T) {
	display := &fakeDisplay{}
	s, tr := connected(t, display)
	s.SetEcho(true)
	tr.setWritable(false)

	s.HandleInput("q")

	if got := display.output(); got != "q" {
		t.Errorf("echo output = %q, want %q", got, "q")
	}
	if display.bellCount() != 1 {
		t.Errorf("bells = %d, want 1", display.bellCount())
	}
	if n := len(tr.writeCalls()); n != 0 {
		t.Errorf("writes = %d, want 0 on unwritable transport", n)
	}
}

func TestHandleInput_NoEchoByDefault(t *testing.T) {
	display := &fakeDisplay{}
	s, tr := connected(t, display)

	s.HandleInput("q")

	if got := display.output(); got != "" {
		t.Errorf("unexpected echo %q", got)
	}
	if len(tr.writeCalls()) != 1 {
		t.Error("input should still be written")
	}
}

func TestHandleInput_DisconnectedBellsAndDrops(t *testing.T) {
	display := &fakeDisplay{}
	m := metrics.New()
	s := New(display, Hooks{}, testLogger(), m)

	s.HandleInput("x") // no transport at all

	if display.bellCount() != 1 {
		t.Errorf("bells = %d, want 1", display.bellCount())
	}
	if m.DroppedWrites() != 1 {
		t.Errorf("dropped = %d, want 1", m.DroppedWrites())
	}
}

func TestHandleInput_WriteFailureDoesNotPanic(t *testing.T) {
	display := &fakeDisplay{}
	s, tr := connected(t, display)
	tr.writeErr = fmt.Errorf("write /dev/ttyUSB0: input/output error")

	s.HandleInput("x") // must not panic or propagate

	if display.bellCount() != 1 {
		t.Errorf("bells = %d, want 1 on failed write", display.bellCount())
	}
}

func TestHandleInput_FlushBufferSurvivesUnwritableGap(t *testing.T) {
	display := &fakeDisplay{}
	s, tr := connected(t, display)
	s.SetFlushOnEnter(true)

	s.HandleInput("a")
	tr.setWritable(false)
	s.HandleInput("b") // dropped with a bell, not buffered
	tr.setWritable(true)
	s.HandleInput("\r")

	writes := tr.writeCalls()
	if len(writes) != 1 || string(writes[0]) != "a\r" {
		t.Errorf("writes = %q, want one %q", writes, "a\r")
	}
	if display.bellCount() != 1 {
		t.Errorf("bells = %d, want 1", display.bellCount())
	}
}
