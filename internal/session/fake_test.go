package session

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"gocom/internal/transport"
	"gocom/util"
)

func testLogger() *util.Logger { return util.NewLogger(0) }

// ── scriptable transport ─────────────────────────────────────────────

type feedItem struct {
	b   []byte
	err error
}

// fakeTransport is a scriptable Transport: tests push chunks and
// errors through the feed channel and flip readable/writable at will.
type fakeTransport struct {
	mu       sync.Mutex
	device   string
	readable bool
	writable bool
	closed   int
	closeErr error
	writes   [][]byte
	writeErr error
	acquires int
	feed     chan feedItem
	feedOnce sync.Once
}

func newFakeTransport(device string) *fakeTransport {
	return &fakeTransport{
		device:   device,
		readable: true,
		writable: true,
		feed:     make(chan feedItem, 16),
	}
}

func (f *fakeTransport) send(s string)  { f.feed <- feedItem{b: []byte(s)} }
func (f *fakeTransport) fail(err error) { f.feed <- feedItem{err: err} }
func (f *fakeTransport) endOfStream()   { f.feedOnce.Do(func() { close(f.feed) }) }

func (f *fakeTransport) setReadable(on bool) {
	f.mu.Lock()
	f.readable = on
	f.mu.Unlock()
}

func (f *fakeTransport) setWritable(on bool) {
	f.mu.Lock()
	f.writable = on
	f.mu.Unlock()
}

func (f *fakeTransport) Device() string { return f.device }

func (f *fakeTransport) Readable() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.readable && f.closed == 0
}

func (f *fakeTransport) Writable() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.writable && f.closed == 0
}

func (f *fakeTransport) Write(ctx context.Context, p []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeErr != nil {
		return f.writeErr
	}
	cp := make([]byte, len(p))
	copy(cp, p)
	f.writes = append(f.writes, cp)
	return nil
}

func (f *fakeTransport) writeCalls() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([][]byte, len(f.writes))
	copy(out, f.writes)
	return out
}

func (f *fakeTransport) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed++
	return f.closeErr
}

func (f *fakeTransport) closeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func (f *fakeTransport) AcquireReader() (transport.Reader, error) {
	f.mu.Lock()
	f.acquires++
	f.mu.Unlock()
	return &fakeReader{feed: f.feed, cancel: make(chan struct{})}, nil
}

type fakeReader struct {
	feed       chan feedItem
	cancel     chan struct{}
	cancelOnce sync.Once
}

func (r *fakeReader) Next(ctx context.Context) ([]byte, error) {
	select {
	case <-r.cancel:
		return nil, io.EOF
	case <-ctx.Done():
		return nil, ctx.Err()
	case item, ok := <-r.feed:
		if !ok {
			return nil, io.EOF
		}
		if item.err != nil {
			return nil, item.err
		}
		return item.b, nil
	}
}

func (r *fakeReader) Cancel()  { r.cancelOnce.Do(func() { close(r.cancel) }) }
func (r *fakeReader) Release() {}

// fakeOpener hands out a pre-built transport, or fails.
type fakeOpener struct {
	tr  *fakeTransport
	err error
}

func (o *fakeOpener) Open(ctx context.Context, cfg transport.Config) (transport.Transport, error) {
	if o.err != nil {
		return nil, o.err
	}
	return o.tr, nil
}

// ── display double ───────────────────────────────────────────────────

type fakeDisplay struct {
	mu    sync.Mutex
	text  strings.Builder
	bells int
}

func (d *fakeDisplay) Write(s string) {
	d.mu.Lock()
	d.text.WriteString(s)
	d.mu.Unlock()
}

func (d *fakeDisplay) Bell() {
	d.mu.Lock()
	d.bells++
	d.mu.Unlock()
}

func (d *fakeDisplay) output() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.text.String()
}

func (d *fakeDisplay) bellCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.bells
}

// waitForOutput polls until the display contains want or the deadline
// passes.
func (d *fakeDisplay) waitForOutput(t *testing.T, want string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if strings.Contains(d.output(), want) {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("display never showed %q; output:\n%s", want, d.output())
}

// ── hook recorder ────────────────────────────────────────────────────

// recorder captures the callback sequence on a channel so tests can
// assert ordering without sleeps.
type recorder struct {
	events chan string
}

func newRecorder() *recorder {
	return &recorder{events: make(chan string, 64)}
}

func (r *recorder) hooks() Hooks {
	return Hooks{
		OnConnecting:      func(cfg transport.Config) { r.events <- "connecting" },
		OnConnected:       func(tr transport.Transport) { r.events <- "connected" },
		OnDisconnecting:   func(early bool) { r.events <- fmt.Sprintf("disconnecting early=%v", early) },
		OnDisconnected:    func(early bool) { r.events <- fmt.Sprintf("disconnected early=%v", early) },
		OnConnectError:    func(err error) { r.events <- "connect-error: " + err.Error() },
		OnDisconnectError: func(err error) { r.events <- "disconnect-error: " + err.Error() },
	}
}

// next returns the next recorded event, failing the test on timeout.
func (r *recorder) next(t *testing.T) string {
	t.Helper()
	select {
	case ev := <-r.events:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for callback")
		return ""
	}
}

// expect asserts the exact next event.
func (r *recorder) expect(t *testing.T, want string) {
	t.Helper()
	if got := r.next(t); got != want {
		t.Fatalf("callback = %q, want %q", got, want)
	}
}

// expectNone asserts no further events arrive within a grace period.
func (r *recorder) expectNone(t *testing.T) {
	t.Helper()
	select {
	case ev := <-r.events:
		t.Fatalf("unexpected callback %q", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

// ── watcher double ───────────────────────────────────────────────────

type fakeWatcher struct {
	events    chan transport.Event
	closeOnce sync.Once
}

func newFakeWatcher() *fakeWatcher {
	return &fakeWatcher{events: make(chan transport.Event, 8)}
}

func (w *fakeWatcher) Events() <-chan transport.Event { return w.events }

func (w *fakeWatcher) Close() error {
	w.closeOnce.Do(func() { close(w.events) })
	return nil
}
