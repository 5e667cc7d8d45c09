package alloc

import (
	"math/bits"
	"sync"
)

const (
	minPoolClassShift = 6  // 64 B
	maxPoolClassShift = 16 // 64 KiB keeps jumbo frames pooled
	poolClassCount    = maxPoolClassShift - minPoolClassShift + 1
)

// Pool is a size-class allocator backed by sync.Pool. Requests are rounded up
// to the next power of two between 64 B and 64 KiB; larger requests fall
// through to the heap and are left to the garbage collector on release.
type Pool struct {
	classes [poolClassCount]sync.Pool
}

// NewPool creates an empty pool allocator.
func NewPool() *Pool {
	p := &Pool{}
	for i := range p.classes {
		size := 1 << (i + minPoolClassShift)
		p.classes[i].New = func() any {
			b := make([]byte, size)
			return &b
		}
	}
	return p
}

// classOf returns the class index for a request of n bytes, or -1 if n is
// larger than the biggest class.
func classOf(n int) int {
	if n <= 1<<minPoolClassShift {
		return 0
	}
	shift := bits.Len(uint(n - 1))
	if shift > maxPoolClassShift {
		return -1
	}
	return shift - minPoolClassShift
}

func (p *Pool) Allocate(n int) []byte {
	if n <= 0 {
		return nil
	}
	idx := classOf(n)
	if idx < 0 {
		return make([]byte, n)
	}
	bp := p.classes[idx].Get().(*[]byte)
	return (*bp)[:n]
}

// Deallocate returns b to its size class. Slices whose capacity is not a
// class size did not come from the pool and are dropped.
func (p *Pool) Deallocate(b []byte) error {
	c := cap(b)
	if c == 0 {
		return nil
	}
	idx := classOf(c)
	if idx < 0 || 1<<(idx+minPoolClassShift) != c {
		return nil
	}
	b = b[:c]
	p.classes[idx].Put(&b)
	return nil
}
