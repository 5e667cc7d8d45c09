// Package buffer implements the byte-region engine under every packet: a
// slice that is either owned (obtained from an allocator and handed back on
// reallocation or reset) or borrowed (capture memory the buffer must never
// release), with byte-exact append, insert and remove at arbitrary offsets.
//
// Two variants share the Buffer interface. LengthBuffer keeps its storage
// exactly as long as its contents. CapacityBuffer only grows its storage,
// following a GrowthPolicy, and shrinks by adjusting its length.
//
// Indexes accepted by Insert and Remove may be negative and then count from
// the end: -1 addresses the last byte and -Len() the first one.
//
// A buffer that holds no data, owns nothing and has zero length is in
// null-state. Operations that fail after partially mutating the buffer leave
// it in null-state; all other failures leave it unchanged.
package buffer

import (
	"fmt"
	"strings"

	"firestige.xyz/pktforge/internal/core/alloc"
)

// Buffer is implemented by LengthBuffer and CapacityBuffer only.
type Buffer interface {
	// Bytes returns the logical contents. The slice is invalidated by any
	// mutating call.
	Bytes() []byte
	Len() int
	// Cap returns the allocated storage size, which equals Len for the
	// length-only variant.
	Cap() int
	// Owning reports whether the buffer releases its data on reset.
	Owning() bool
	// Present reports whether the buffer is not in null-state.
	Present() bool

	Reset(data []byte, owns bool) error
	Reallocate(n int) error
	Append(n int) error
	AppendBytes(src []byte) error
	Insert(at, n int) error
	InsertBytes(at int, src []byte) error
	Remove(at, n int) error
	// Release returns the contents and leaves the buffer in null-state
	// without freeing anything. The caller takes over the memory.
	Release() []byte

	Clone() (Buffer, error)
	CopyFrom(src Buffer) error
	Move() Buffer
	MoveFrom(src Buffer) error

	// take hands the region over to another buffer and leaves the
	// receiver in null-state.
	take() (region, int)
}

// Variant selects a Buffer implementation.
type Variant int

const (
	LengthOnly Variant = iota
	CapacityAware
)

func (v Variant) String() string {
	switch v {
	case LengthOnly:
		return "length"
	case CapacityAware:
		return "capacity"
	default:
		return fmt.Sprintf("Variant(%d)", int(v))
	}
}

// ParseVariant accepts "length" or "capacity".
func ParseVariant(s string) (Variant, error) {
	switch strings.ToLower(s) {
	case "", "length", "length-only":
		return LengthOnly, nil
	case "capacity", "capacity-aware":
		return CapacityAware, nil
	default:
		return LengthOnly, fmt.Errorf("unknown buffer variant: %s (must be length or capacity)", s)
	}
}

type options struct {
	allocator alloc.Allocator
	growth    GrowthPolicy
}

// Option configures a new buffer.
type Option func(*options)

// WithAllocator sets the allocator used for owned storage.
func WithAllocator(a alloc.Allocator) Option {
	return func(o *options) {
		if a != nil {
			o.allocator = a
		}
	}
}

// WithGrowth sets the growth policy of a capacity-aware buffer. It is
// ignored by the length-only variant.
func WithGrowth(g GrowthPolicy) Option {
	return func(o *options) {
		if g != nil {
			o.growth = g
		}
	}
}

func newOptions(opts []Option) options {
	o := options{
		allocator: alloc.Heap(),
		growth:    DoublingGrowth,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// New creates an empty buffer of the given variant.
func New(v Variant, opts ...Option) Buffer {
	if v == CapacityAware {
		return NewCapacity(opts...)
	}
	return NewLength(opts...)
}
