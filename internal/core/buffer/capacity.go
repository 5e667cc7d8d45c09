package buffer

import (
	"fmt"

	"firestige.xyz/pktforge/internal/core"
	"firestige.xyz/pktforge/internal/core/alloc"
)

// CapacityBuffer is the capacity-aware variant. Storage only grows, by the
// configured GrowthPolicy, so repeated appends are amortized. Shrinking
// adjusts the length and keeps the storage until Reallocate(0).
//
// Insert and Remove with an index before -Len() do nothing and succeed,
// where the length-only variant clamps the index to the start.
type CapacityBuffer struct {
	reg    region
	length int
	alloc  alloc.Allocator
	growth GrowthPolicy
}

var _ Buffer = (*CapacityBuffer)(nil)

// NewCapacity creates a capacity-aware buffer in null-state.
func NewCapacity(opts ...Option) *CapacityBuffer {
	o := newOptions(opts)
	return &CapacityBuffer{alloc: o.allocator, growth: o.growth}
}

func (b *CapacityBuffer) Bytes() []byte {
	if b.reg == nil {
		return nil
	}
	return b.reg.bytes()[:b.length]
}

func (b *CapacityBuffer) Len() int { return b.length }
func (b *CapacityBuffer) Cap() int { return len(regionBytes(b.reg)) }

func (b *CapacityBuffer) Owning() bool {
	return b.reg != nil && b.reg.owning()
}

func (b *CapacityBuffer) Present() bool {
	return b.reg != nil || b.length > 0
}

// Reset releases the current data and adopts data, whose length becomes
// both length and capacity. Data inside the current owned storage is
// handled as by LengthBuffer.Reset.
func (b *CapacityBuffer) Reset(data []byte, owns bool) error {
	if r, ok := narrowRegion(b.reg, data); ok {
		b.reg = r
		b.length = len(data)
		return nil
	}
	if err := b.drop(); err != nil {
		return err
	}
	b.reg = adoptRegion(data, owns, b.alloc)
	b.length = len(data)
	return nil
}

func (b *CapacityBuffer) drop() error {
	r := b.reg
	b.reg = nil
	b.length = 0
	return releaseRegion(r)
}

// reserve makes sure the storage holds at least n bytes. Existing contents
// are preserved and the bytes past the length are zeroed.
func (b *CapacityBuffer) reserve(n int) error {
	capacity := b.Cap()
	if n <= capacity {
		return nil
	}
	newCap := b.growth(capacity, n)
	if newCap < n {
		newCap = n
	}
	nb := allocate(b.alloc, newCap)
	if nb == nil {
		return fmt.Errorf("grow to %d bytes: %w", newCap, core.ErrAllocFailed)
	}
	copied := copy(nb, b.Bytes())
	clear(nb[copied:])
	length := b.length
	if err := b.drop(); err != nil {
		_ = b.alloc.Deallocate(nb)
		return err
	}
	b.reg = ownedRegion{buf: nb, from: b.alloc}
	b.length = length
	return nil
}

// Reallocate sets the length to n. Storage is replaced only when n exceeds
// the capacity; Reallocate(0) releases it.
func (b *CapacityBuffer) Reallocate(n int) error {
	if n < 0 {
		return fmt.Errorf("reallocate %d bytes: %w", n, core.ErrInvalidLength)
	}
	if n == 0 {
		return b.drop()
	}
	if n == b.length {
		return nil
	}
	if err := b.reserve(n); err != nil {
		return err
	}
	if n > b.length {
		clear(b.reg.bytes()[b.length:n])
	}
	b.length = n
	return nil
}

func (b *CapacityBuffer) Append(n int) error {
	if n < 0 {
		return fmt.Errorf("append %d bytes: %w", n, core.ErrInvalidLength)
	}
	if n == 0 {
		return nil
	}
	return b.Reallocate(b.length + n)
}

func (b *CapacityBuffer) AppendBytes(src []byte) error {
	if len(src) == 0 {
		return nil
	}
	src = detach(src, regionBytes(b.reg))
	old := b.length
	if err := b.Reallocate(old + len(src)); err != nil {
		return err
	}
	copy(b.Bytes()[old:], src)
	return nil
}

func (b *CapacityBuffer) Insert(at, n int) error {
	return b.insert(at, n, nil)
}

func (b *CapacityBuffer) InsertBytes(at int, src []byte) error {
	return b.insert(at, len(src), src)
}

func (b *CapacityBuffer) insert(at, n int, src []byte) error {
	if n < 0 {
		return fmt.Errorf("insert %d bytes: %w", n, core.ErrInvalidLength)
	}
	if n == 0 {
		return nil
	}
	length := b.length
	pos, ok := resolveIndex(at, length)
	if !ok {
		return nil
	}
	if pos > length {
		return fmt.Errorf("insert at %d into %d bytes: %w", at, length, core.ErrIndexOutOfRange)
	}
	src = detach(src, regionBytes(b.reg))
	if err := b.reserve(length + n); err != nil {
		return err
	}
	d := b.reg.bytes()[:length+n]
	copy(d[pos+n:], d[pos:length])
	if src != nil {
		copy(d[pos:pos+n], src)
	} else {
		clear(d[pos : pos+n])
	}
	b.length = length + n
	return nil
}

// Remove deletes n bytes starting at at without releasing storage.
func (b *CapacityBuffer) Remove(at, n int) error {
	if n < 0 {
		return fmt.Errorf("remove %d bytes: %w", n, core.ErrInvalidLength)
	}
	if n == 0 {
		return nil
	}
	length := b.length
	pos, ok := resolveIndex(at, length)
	if !ok || pos >= length {
		return nil
	}
	if n > length-pos {
		n = length - pos
	}
	d := b.reg.bytes()[:length]
	copy(d[pos:], d[pos+n:])
	b.length = length - n
	return nil
}

func (b *CapacityBuffer) Release() []byte {
	d := b.Bytes()
	b.reg = nil
	b.length = 0
	return d
}

func (b *CapacityBuffer) Clone() (Buffer, error) {
	c := &CapacityBuffer{alloc: b.alloc, growth: b.growth}
	if b.length == 0 {
		return c, nil
	}
	nb := allocate(b.alloc, b.length)
	if nb == nil {
		return nil, fmt.Errorf("clone %d bytes: %w", b.length, core.ErrAllocFailed)
	}
	copy(nb, b.Bytes())
	c.reg = ownedRegion{buf: nb, from: b.alloc}
	c.length = b.length
	return c, nil
}

// CopyFrom replaces the contents with a deep copy of src. src may be b.
func (b *CapacityBuffer) CopyFrom(src Buffer) error {
	data := src.Bytes()
	if len(data) == 0 {
		return b.drop()
	}
	nb := allocate(b.alloc, len(data))
	if nb == nil {
		return fmt.Errorf("copy %d bytes: %w", len(data), core.ErrAllocFailed)
	}
	copy(nb, data)
	if err := b.drop(); err != nil {
		_ = b.alloc.Deallocate(nb)
		return err
	}
	b.reg = ownedRegion{buf: nb, from: b.alloc}
	b.length = len(nb)
	return nil
}

func (b *CapacityBuffer) Move() Buffer {
	m := &CapacityBuffer{alloc: b.alloc, growth: b.growth}
	m.reg, m.length = b.take()
	return m
}

func (b *CapacityBuffer) MoveFrom(src Buffer) error {
	if src == Buffer(b) {
		return nil
	}
	if err := b.drop(); err != nil {
		return err
	}
	b.reg, b.length = src.take()
	return nil
}

func (b *CapacityBuffer) take() (region, int) {
	r, n := b.reg, b.length
	b.reg = nil
	b.length = 0
	return r, n
}
