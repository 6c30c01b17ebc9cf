package transport

import (
	"context"
	"io"
	"sync"
	"sync/atomic"

	ncerr "gocom/internal/errors"
	"gocom/util"
)

// stream is the shared Transport engine used by every driver.  A
// driver supplies the raw endpoints and a close hook; stream adds the
// exclusive read cursor, the per-call write lock, and the
// readable/writable bookkeeping.
type stream struct {
	r       io.Reader
	w       io.Writer
	device  string
	closeFn func() error

	// transientEOF: a read-side end-of-stream does not end the
	// transport (a serial device can stop sending and resume later).
	// Stream sockets and pipes leave this false: their EOF is final.
	transientEOF bool

	writeMu   sync.Mutex
	closed    atomic.Bool
	broken    atomic.Bool // device gone or stream failed for good
	sawEOF    atomic.Bool
	closeOnce sync.Once

	readerMu sync.Mutex
	held     bool
}

func newStream(r io.Reader, w io.Writer, device string, closeFn func() error) *stream {
	return &stream{r: r, w: w, device: device, closeFn: closeFn}
}

func (s *stream) Device() string { return s.device }

func (s *stream) Writable() bool {
	return !s.closed.Load() && !s.broken.Load()
}

func (s *stream) Readable() bool {
	if s.closed.Load() || s.broken.Load() {
		return false
	}
	if s.sawEOF.Load() && !s.transientEOF {
		return false
	}
	return true
}

// Write acquires the write lock for exactly one call.  The deferred
// unlock guarantees release on every exit path, including failures.
func (s *stream) Write(ctx context.Context, p []byte) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	if !s.Writable() {
		return ncerr.ErrNotWritable
	}

	if _, err := s.w.Write(p); err != nil {
		if ncerr.IsDeviceGone(err) {
			s.broken.Store(true)
		}
		return ncerr.Wrap("write", s.device, err)
	}
	return nil
}

func (s *stream) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		if s.closeFn != nil {
			err = s.closeFn()
		}
	})
	return err
}

// AcquireReader hands out the exclusive read cursor, starting a pump
// goroutine that turns blocking Reads into channel deliveries so the
// cursor can be cancelled from outside.
func (s *stream) AcquireReader() (Reader, error) {
	s.readerMu.Lock()
	defer s.readerMu.Unlock()

	if s.held {
		return nil, ncerr.ErrReaderHeld
	}
	if !s.Readable() {
		return nil, ncerr.Wrap("read", s.device, io.EOF)
	}
	s.held = true
	s.sawEOF.Store(false)

	r := &streamReader{
		owner:  s,
		ch:     make(chan chunk, 1),
		cancel: make(chan struct{}),
	}
	go r.pump()
	return r, nil
}

func (s *stream) release() {
	s.readerMu.Lock()
	s.held = false
	s.readerMu.Unlock()
}

type chunk struct {
	buf *[]byte
	n   int
	err error
}

// streamReader is the exclusive read cursor over a stream.
type streamReader struct {
	owner      *stream
	ch         chan chunk
	cancel     chan struct{}
	cancelOnce sync.Once
	prev       *[]byte // buffer handed out by the last Next, pooled on the next call
	deferred   error   // read error that arrived together with final bytes
}

// pump reads chunks off the raw stream until an error, end-of-stream,
// or cancellation.  After Cancel it may stay blocked in Read until the
// transport is closed; delivered-but-unconsumed chunks go back to the
// pool.
func (r *streamReader) pump() {
	defer close(r.ch)
	for {
		buf := util.GetChunk()
		n, err := r.owner.r.Read(*buf)

		if n == 0 {
			util.PutChunk(buf)
			buf = nil
		}
		if n == 0 && err == nil {
			// Zero-byte read without error (serial read timeout
			// shape); just go around again.
			continue
		}

		c := chunk{buf: buf, n: n, err: err}
		select {
		case r.ch <- c:
		case <-r.cancel:
			util.PutChunk(buf)
			return
		}
		if err != nil {
			return
		}
	}
}

func (r *streamReader) Next(ctx context.Context) ([]byte, error) {
	if r.prev != nil {
		util.PutChunk(r.prev)
		r.prev = nil
	}
	if r.deferred != nil {
		err := r.deferred
		r.deferred = nil
		return nil, r.finish(err)
	}

	select {
	case <-r.cancel:
		return nil, io.EOF
	case <-ctx.Done():
		return nil, ctx.Err()
	case c, ok := <-r.ch:
		if !ok {
			r.owner.sawEOF.Store(true)
			return nil, io.EOF
		}
		if c.err != nil {
			if c.n > 0 {
				// Deliver the final bytes now; the error resurfaces
				// on the next call.
				r.prev = c.buf
				r.deferred = c.err
				return (*c.buf)[:c.n], nil
			}
			return nil, r.finish(c.err)
		}
		r.prev = c.buf
		return (*c.buf)[:c.n], nil
	}
}

// finish classifies the terminal read error and updates the owning
// stream's readable/writable bookkeeping.
func (r *streamReader) finish(err error) error {
	if util.IsHarmlessClose(err) {
		r.owner.sawEOF.Store(true)
		return io.EOF
	}
	if ncerr.IsDeviceGone(err) {
		r.owner.broken.Store(true)
	}
	return ncerr.Wrap("read", r.owner.device, err)
}

func (r *streamReader) Cancel() {
	r.cancelOnce.Do(func() { close(r.cancel) })
}

func (r *streamReader) Release() {
	if r.prev != nil {
		util.PutChunk(r.prev)
		r.prev = nil
	}
	r.Cancel()
	r.owner.release()
}
