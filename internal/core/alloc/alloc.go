// Package alloc implements pluggable allocation strategies for packet buffers.
//
// An Allocator signals failure by returning nil from Allocate and never panics.
// Allocators may be shared by many buffers; the ones in this package are safe
// for concurrent use.
package alloc

import "errors"

// ErrNotOwned is returned by Deallocate when the slice was not handed out by
// the allocator it is returned to.
var ErrNotOwned = errors.New("alloc: slice was not allocated by this allocator")

// Allocator allocates and releases raw byte regions.
type Allocator interface {
	// Allocate returns a slice of length n, or nil when n <= 0 or the
	// allocator cannot satisfy the request. Contents are unspecified.
	Allocate(n int) []byte
	// Deallocate hands a slice obtained from Allocate back to the allocator.
	Deallocate(b []byte) error
}

type heapAllocator struct{}

func (heapAllocator) Allocate(n int) []byte {
	if n <= 0 {
		return nil
	}
	return make([]byte, n)
}

func (heapAllocator) Deallocate([]byte) error { return nil }

var defaultHeap Allocator = heapAllocator{}

// Heap returns the platform allocator. Memory is reclaimed by the garbage
// collector, so Deallocate never fails.
func Heap() Allocator {
	return defaultHeap
}
