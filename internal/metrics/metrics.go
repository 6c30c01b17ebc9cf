// Package metrics provides lightweight, lock-free counters for
// tracking runtime statistics of a console session.
//
// All methods are safe for concurrent use.  A nil *Collector is a
// valid no-op receiver, so callers never need to nil-check.
package metrics

import (
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"
)

// Collector tracks runtime metrics for a console session.
// A nil Collector is safe to use — all methods become no-ops.
type Collector struct {
	bytesIn       atomic.Int64
	bytesOut      atomic.Int64
	linesFramed   atomic.Int64
	writes        atomic.Int64
	writesDropped atomic.Int64
	readErrors    atomic.Int64

	mu           sync.RWMutex
	startTime    time.Time
	lastError    time.Time
	lastErrorMsg string
}

// New creates a metrics collector with the start time set to now.
func New() *Collector {
	return &Collector{startTime: time.Now()}
}

// ── I/O metrics ──────────────────────────────────────────────────────

// BytesReceived records n bytes read from the transport.
func (c *Collector) BytesReceived(n int64) {
	if c == nil {
		return
	}
	c.bytesIn.Add(n)
}

// BytesSent records n bytes written to the transport.
func (c *Collector) BytesSent(n int64) {
	if c == nil {
		return
	}
	c.bytesOut.Add(n)
}

// LineFramed records one complete inbound line.
func (c *Collector) LineFramed() {
	if c == nil {
		return
	}
	c.linesFramed.Add(1)
}

// WriteCompleted records one successful transport write call.
func (c *Collector) WriteCompleted() {
	if c == nil {
		return
	}
	c.writes.Add(1)
}

// WriteDropped records input discarded because the transport was not
// writable.
func (c *Collector) WriteDropped() {
	if c == nil {
		return
	}
	c.writesDropped.Add(1)
}

// TotalBytesIn returns total bytes received.
func (c *Collector) TotalBytesIn() int64 {
	if c == nil {
		return 0
	}
	return c.bytesIn.Load()
}

// TotalBytesOut returns total bytes sent.
func (c *Collector) TotalBytesOut() int64 {
	if c == nil {
		return 0
	}
	return c.bytesOut.Load()
}

// LinesIn returns the number of complete lines framed.
func (c *Collector) LinesIn() int64 {
	if c == nil {
		return 0
	}
	return c.linesFramed.Load()
}

// DroppedWrites returns the number of discarded input events.
func (c *Collector) DroppedWrites() int64 {
	if c == nil {
		return 0
	}
	return c.writesDropped.Load()
}

// ── Error metrics ────────────────────────────────────────────────────

// ReadError increments the read error counter and stores the message.
func (c *Collector) ReadError(msg string) {
	if c == nil {
		return
	}
	c.readErrors.Add(1)
	c.mu.Lock()
	c.lastError = time.Now()
	c.lastErrorMsg = msg
	c.mu.Unlock()
}

// ReadErrors returns the total number of read errors recorded.
func (c *Collector) ReadErrors() int64 {
	if c == nil {
		return 0
	}
	return c.readErrors.Load()
}

// ── Snapshot ─────────────────────────────────────────────────────────

// Snapshot is a point-in-time view of all metrics.
type Snapshot struct {
	Uptime           string `json:"uptime"`
	BytesIn          int64  `json:"bytes_in"`
	BytesOut         int64  `json:"bytes_out"`
	LinesIn          int64  `json:"lines_in"`
	Writes           int64  `json:"writes"`
	WritesDropped    int64  `json:"writes_dropped"`
	ReadErrors       int64  `json:"read_errors"`
	LastError        string `json:"last_error,omitempty"`
	LastErrorMessage string `json:"last_error_message,omitempty"`
}

// Snapshot returns a copy of all current metrics.
func (c *Collector) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	s := Snapshot{
		Uptime:        time.Since(c.startTime).Truncate(time.Second).String(),
		BytesIn:       c.bytesIn.Load(),
		BytesOut:      c.bytesOut.Load(),
		LinesIn:       c.linesFramed.Load(),
		Writes:        c.writes.Load(),
		WritesDropped: c.writesDropped.Load(),
		ReadErrors:    c.readErrors.Load(),
	}
	if !c.lastError.IsZero() {
		s.LastError = c.lastError.Format(time.RFC3339)
		s.LastErrorMessage = c.lastErrorMsg
	}
	return s
}

// JSON returns the snapshot as an indented JSON string.
func (c *Collector) JSON() string {
	s := c.Snapshot()
	data, _ := json.MarshalIndent(s, "", "  ")
	return string(data)
}
