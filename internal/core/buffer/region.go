package buffer

import (
	"fmt"
	"unsafe"

	"firestige.xyz/pktforge/internal/core"
	"firestige.xyz/pktforge/internal/core/alloc"
)

// region is a byte slice tagged with its ownership. A nil region is the
// null-state. An owned region remembers the allocator it must go back to,
// so it can move between buffers with different allocators.
type region interface {
	bytes() []byte
	owning() bool
	release() error
	// trim returns the same region restricted to its first n bytes.
	trim(n int) region
}

type ownedRegion struct {
	buf  []byte
	from alloc.Allocator
}

func (r ownedRegion) bytes() []byte { return r.buf }
func (r ownedRegion) owning() bool  { return true }

func (r ownedRegion) release() error {
	if err := r.from.Deallocate(r.buf); err != nil {
		return fmt.Errorf("%w: %v", core.ErrReleaseFailed, err)
	}
	return nil
}

func (r ownedRegion) trim(n int) region {
	return ownedRegion{buf: r.buf[:n], from: r.from}
}

// subRegion is part of an owned region that the buffer was reset to. The
// whole parent goes back to its allocator when the part is released.
type subRegion struct {
	buf    []byte
	parent ownedRegion
}

func (r subRegion) bytes() []byte  { return r.buf }
func (r subRegion) owning() bool   { return true }
func (r subRegion) release() error { return r.parent.release() }
func (r subRegion) trim(n int) region {
	return subRegion{buf: r.buf[:n], parent: r.parent}
}

// narrowRegion returns the region for data when data lies inside the owned
// region cur. ok is false when data is empty or cur does not own it.
func narrowRegion(cur region, data []byte) (r region, ok bool) {
	if len(data) == 0 || !aliases(data, regionBytes(cur)) {
		return nil, false
	}
	switch c := cur.(type) {
	case ownedRegion:
		return subRegion{buf: data, parent: c}, true
	case subRegion:
		return subRegion{buf: data, parent: c.parent}, true
	}
	return nil, false
}

type borrowedRegion struct {
	buf []byte
}

func (r borrowedRegion) bytes() []byte { return r.buf }
func (r borrowedRegion) owning() bool  { return false }
func (r borrowedRegion) release() error {
	return nil
}

func (r borrowedRegion) trim(n int) region {
	return borrowedRegion{buf: r.buf[:n]}
}

// adoptRegion wraps caller-supplied data. Empty data yields the null-state.
func adoptRegion(data []byte, owns bool, a alloc.Allocator) region {
	if len(data) == 0 {
		return nil
	}
	if owns {
		return ownedRegion{buf: data, from: a}
	}
	return borrowedRegion{buf: data}
}

// releaseRegion frees r if it is owned. A nil region is a no-op.
func releaseRegion(r region) error {
	if r == nil {
		return nil
	}
	return r.release()
}

// regionBytes returns the full storage of r, or nil in null-state.
func regionBytes(r region) []byte {
	if r == nil {
		return nil
	}
	return r.bytes()
}

// allocate returns exactly n bytes from a, or nil.
func allocate(a alloc.Allocator, n int) []byte {
	b := a.Allocate(n)
	if cap(b) < n {
		return nil
	}
	return b[:n]
}

// aliases reports whether the memory behind a and b overlaps.
func aliases(a, b []byte) bool {
	if cap(a) == 0 || cap(b) == 0 {
		return false
	}
	pa := uintptr(unsafe.Pointer(unsafe.SliceData(a)))
	pb := uintptr(unsafe.Pointer(unsafe.SliceData(b)))
	return pa < pb+uintptr(cap(b)) && pb < pa+uintptr(cap(a))
}

// detach returns src, or a private copy of it when src points into storage
// that the pending mutation may move or free.
func detach(src, storage []byte) []byte {
	if !aliases(src, storage) {
		return src
	}
	c := make([]byte, len(src))
	copy(c, src)
	return c
}

// resolveIndex maps a possibly negative index onto the contents. ok is false
// when at lies before -length.
func resolveIndex(at, length int) (pos int, ok bool) {
	if at >= 0 {
		return at, true
	}
	if at < -length {
		return 0, false
	}
	return length + at, true
}
