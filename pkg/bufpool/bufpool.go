// Package bufpool provides reusable byte slices for the blob streaming paths:
// chunk assembly during upload finalization, raw block decompression and
// report pack export. Pooling keeps the per-job allocation profile flat when
// many multi-megabyte transcripts are ingested back to back.
//
// Two size classes are enough here:
//   - copy buffers (64KB) for io.CopyBuffer streaming
//   - block buffers (1MB) for assembling a raw block before compression
//
// Requests larger than the block class are allocated directly and never
// pooled, so a single oversized transcript cannot pin memory.
package bufpool

import "sync"

const (
	// CopySize is the size class for streaming copies.
	CopySize = 64 << 10

	// BlockSize is the size class for raw block assembly.
	BlockSize = 1 << 20
)

// Pool hands out byte slices in two size classes backed by sync.Pool.
// Safe for concurrent use.
type Pool struct {
	copyPool  sync.Pool
	blockPool sync.Pool
}

// NewPool creates an empty pool.
func NewPool() *Pool {
	p := &Pool{}
	p.copyPool.New = func() any {
		b := make([]byte, CopySize)
		return &b
	}
	p.blockPool.New = func() any {
		b := make([]byte, BlockSize)
		return &b
	}
	return p
}

// Get returns a slice of exactly size bytes. The backing array comes from the
// smallest fitting size class; oversized requests are allocated directly.
func (p *Pool) Get(size int) []byte {
	switch {
	case size <= CopySize:
		return (*(p.copyPool.Get().(*[]byte)))[:size]
	case size <= BlockSize:
		return (*(p.blockPool.Get().(*[]byte)))[:size]
	default:
		return make([]byte, size)
	}
}

// Put returns a buffer to its size class. Buffers that did not come from the
// pool (oversized or foreign capacity) are dropped for the GC.
func (p *Pool) Put(buf []byte) {
	if buf == nil {
		return
	}
	full := buf[:cap(buf)]
	switch cap(buf) {
	case CopySize:
		p.copyPool.Put(&full)
	case BlockSize:
		p.blockPool.Put(&full)
	}
}

// defaultPool serves the package-level helpers.
var defaultPool = NewPool()

// Get returns a slice of exactly size bytes from the default pool.
func Get(size int) []byte { return defaultPool.Get(size) }

// Put returns a buffer to the default pool.
func Put(buf []byte) { defaultPool.Put(buf) }
