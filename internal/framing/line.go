// Package framing splits an unbounded inbound byte stream into
// discrete lines.  It is the only place that understands the line
// delimiter; everything upstream treats chunks as opaque bytes.
package framing

import "bytes"

// Delimiter is the byte that terminates a complete line.
const Delimiter = '\n'

// LineFramer accumulates inbound chunks and extracts complete lines.
// Bytes after the last delimiter stay buffered until the next Feed.
// There is no line length limit: a peer that never sends a delimiter
// grows the accumulator without bound.
//
// Not safe for concurrent use; it is owned exclusively by the read
// loop that feeds it.
type LineFramer struct {
	buf []byte
	off int // read cursor: everything before off has been consumed
}

// NewLineFramer returns an empty framer.
func NewLineFramer() *LineFramer {
	return &LineFramer{}
}

// Feed appends chunk to the accumulator and returns every complete
// line that is now available, in order, with the delimiter stripped.
// Each returned line is a copy and remains valid after further calls.
// Returns nil when chunk completes no line.
func (f *LineFramer) Feed(chunk []byte) [][]byte {
	f.buf = append(f.buf, chunk...)

	var lines [][]byte
	for {
		i := bytes.IndexByte(f.buf[f.off:], Delimiter)
		if i < 0 {
			break
		}
		line := make([]byte, i)
		copy(line, f.buf[f.off:f.off+i])
		lines = append(lines, line)
		f.off += i + 1
	}

	f.compact()
	return lines
}

// Buffered returns the number of bytes awaiting a delimiter.
func (f *LineFramer) Buffered() int {
	return len(f.buf) - f.off
}

// Reset discards any buffered partial line.
func (f *LineFramer) Reset() {
	f.buf = f.buf[:0]
	f.off = 0
}

// compact reclaims the consumed prefix once it dominates the buffer,
// so the accumulator grows amortised rather than per delimiter.
func (f *LineFramer) compact() {
	switch {
	case f.off == len(f.buf):
		f.buf = f.buf[:0]
		f.off = 0
	case f.off > len(f.buf)/2:
		n := copy(f.buf, f.buf[f.off:])
		f.buf = f.buf[:n]
		f.off = 0
	}
}
