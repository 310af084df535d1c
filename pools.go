package napp

import "sync"

// uint32SlicePool hands out reusable []uint32 scratch buffers. Loaned
// buffers come back empty (length zero) with at least the configured
// capacity preserved, so the steady state allocates nothing per query.
//
// The query engine keeps one pool per buffer role: comb-id outputs,
// candidate lists, the store-sort posting copy, and the scan counter
// array. sync.Pool serves any number of concurrent loans without
// blocking, which covers the build and query fan-out.
type uint32SlicePool struct {
	pool sync.Pool
}

// newUint32SlicePool creates a pool whose fresh buffers start with the
// given capacity.
func newUint32SlicePool(capacity int) *uint32SlicePool {
	if capacity < 0 {
		capacity = 0
	}
	return &uint32SlicePool{
		pool: sync.Pool{
			New: func() interface{} {
				buf := make([]uint32, 0, capacity)
				return &buf
			},
		},
	}
}

// loan borrows an empty buffer from the pool.
func (p *uint32SlicePool) loan() []uint32 {
	return (*p.pool.Get().(*[]uint32))[:0]
}

// release returns a buffer to the pool. The buffer's grown capacity is
// kept for the next borrower.
func (p *uint32SlicePool) release(buf []uint32) {
	buf = buf[:0]
	p.pool.Put(&buf)
}
