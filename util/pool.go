package util

import "sync"

// DefaultChunkSize is the buffer size for transport read chunks (4 KiB).
// Serial links are slow relative to the network; a small chunk keeps
// latency low without starving throughput at high baud rates.
const DefaultChunkSize = 4 * 1024

// ChunkPool provides reusable byte buffers for the transport read
// loops, reducing GC pressure on the per-chunk hot path.
var ChunkPool = sync.Pool{
	New: func() interface{} {
		buf := make([]byte, DefaultChunkSize)
		return &buf
	},
}

// GetChunk retrieves a buffer from the pool.  Callers must return it
// with [PutChunk] when finished.
func GetChunk() *[]byte {
	return ChunkPool.Get().(*[]byte)
}

// PutChunk returns a buffer to the pool for reuse.
func PutChunk(buf *[]byte) {
	if buf == nil {
		return
	}
	ChunkPool.Put(buf)
}
