package metrics

import (
	"strings"
	"sync"
	"testing"
)

func TestCollector_Counters(t *testing.T) {
	c := New()

	c.BytesReceived(100)
	c.BytesReceived(50)
	c.BytesSent(30)
	c.LineFramed()
	c.LineFramed()
	c.WriteCompleted()
	c.WriteDropped()

	if got := c.TotalBytesIn(); got != 150 {
		t.Errorf("bytes in = %d, want 150", got)
	}
	if got := c.TotalBytesOut(); got != 30 {
		t.Errorf("bytes out = %d, want 30", got)
	}
	if got := c.LinesIn(); got != 2 {
		t.Errorf("lines = %d, want 2", got)
	}
	if got := c.DroppedWrites(); got != 1 {
		t.Errorf("dropped = %d, want 1", got)
	}
}

func TestCollector_NilSafe(t *testing.T) {
	var c *Collector

	// None of these may panic.
	c.BytesReceived(1)
	c.BytesSent(1)
	c.LineFramed()
	c.WriteCompleted()
	c.WriteDropped()
	c.ReadError("x")

	if c.TotalBytesIn() != 0 || c.ReadErrors() != 0 {
		t.Error("nil collector should report zeros")
	}
	if s := c.Snapshot(); s.BytesIn != 0 {
		t.Error("nil snapshot should be zero")
	}
}

func TestCollector_ReadError(t *testing.T) {
	c := New()
	c.ReadError("device unplugged")

	if got := c.ReadErrors(); got != 1 {
		t.Errorf("read errors = %d, want 1", got)
	}
	s := c.Snapshot()
	if s.LastErrorMessage != "device unplugged" {
		t.Errorf("last error message = %q", s.LastErrorMessage)
	}
	if s.LastError == "" {
		t.Error("last error timestamp missing")
	}
}

func TestCollector_Concurrent(t *testing.T) {
	c := New()
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c.BytesReceived(1)
				c.LineFramed()
			}
		}()
	}
	wg.Wait()

	if got := c.TotalBytesIn(); got != 1000 {
		t.Errorf("bytes in = %d, want 1000", got)
	}
	if got := c.LinesIn(); got != 1000 {
		t.Errorf("lines = %d, want 1000", got)
	}
}

func TestCollector_JSON(t *testing.T) {
	c := New()
	c.BytesReceived(42)

	out := c.JSON()
	if !strings.Contains(out, `"bytes_in": 42`) {
		t.Errorf("JSON missing bytes_in: %s", out)
	}
	if !strings.Contains(out, `"uptime"`) {
		t.Errorf("JSON missing uptime: %s", out)
	}
}
