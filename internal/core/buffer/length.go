package buffer

import (
	"fmt"

	"firestige.xyz/pktforge/internal/core"
	"firestige.xyz/pktforge/internal/core/alloc"
)

// LengthBuffer is the length-only variant: its storage is always exactly as
// long as its contents, so every size change reallocates.
type LengthBuffer struct {
	reg   region
	alloc alloc.Allocator
}

var _ Buffer = (*LengthBuffer)(nil)

// NewLength creates a length-only buffer in null-state.
func NewLength(opts ...Option) *LengthBuffer {
	o := newOptions(opts)
	return &LengthBuffer{alloc: o.allocator}
}

func (b *LengthBuffer) Bytes() []byte { return regionBytes(b.reg) }
func (b *LengthBuffer) Len() int      { return len(regionBytes(b.reg)) }
func (b *LengthBuffer) Cap() int      { return b.Len() }

func (b *LengthBuffer) Owning() bool {
	return b.reg != nil && b.reg.owning()
}

func (b *LengthBuffer) Present() bool {
	return b.reg != nil
}

// Reset releases the current data and adopts data. Data inside the current
// owned storage keeps that storage alive and stays owned whatever owns says:
// the whole storage is released once the buffer lets go of data.
func (b *LengthBuffer) Reset(data []byte, owns bool) error {
	if r, ok := narrowRegion(b.reg, data); ok {
		b.reg = r
		return nil
	}
	if err := b.drop(); err != nil {
		return err
	}
	b.reg = adoptRegion(data, owns, b.alloc)
	return nil
}

// drop releases the current region and enters null-state whatever the
// outcome.
func (b *LengthBuffer) drop() error {
	r := b.reg
	b.reg = nil
	return releaseRegion(r)
}

// adopt replaces the current region with the freshly allocated nb. When the
// old region cannot be released nb is handed back and the buffer is left in
// null-state.
func (b *LengthBuffer) adopt(nb []byte) error {
	if err := b.drop(); err != nil {
		_ = b.alloc.Deallocate(nb)
		return err
	}
	b.reg = ownedRegion{buf: nb, from: b.alloc}
	return nil
}

func (b *LengthBuffer) Reallocate(n int) error {
	if n < 0 {
		return fmt.Errorf("reallocate %d bytes: %w", n, core.ErrInvalidLength)
	}
	cur := b.Bytes()
	if n == len(cur) {
		return nil
	}
	if n == 0 {
		return b.drop()
	}
	nb := allocate(b.alloc, n)
	if nb == nil {
		return fmt.Errorf("reallocate %d bytes: %w", n, core.ErrAllocFailed)
	}
	copied := copy(nb, cur)
	clear(nb[copied:])
	return b.adopt(nb)
}

func (b *LengthBuffer) Append(n int) error {
	if n < 0 {
		return fmt.Errorf("append %d bytes: %w", n, core.ErrInvalidLength)
	}
	if n == 0 {
		return nil
	}
	return b.Reallocate(b.Len() + n)
}

func (b *LengthBuffer) AppendBytes(src []byte) error {
	if len(src) == 0 {
		return nil
	}
	src = detach(src, b.Bytes())
	old := b.Len()
	if err := b.Reallocate(old + len(src)); err != nil {
		return err
	}
	copy(b.Bytes()[old:], src)
	return nil
}

func (b *LengthBuffer) Insert(at, n int) error {
	return b.insert(at, n, nil)
}

func (b *LengthBuffer) InsertBytes(at int, src []byte) error {
	return b.insert(at, len(src), src)
}

func (b *LengthBuffer) insert(at, n int, src []byte) error {
	if n < 0 {
		return fmt.Errorf("insert %d bytes: %w", n, core.ErrInvalidLength)
	}
	if n == 0 {
		return nil
	}
	length := b.Len()
	pos, _ := resolveIndex(at, length)
	if pos > length {
		return fmt.Errorf("insert at %d into %d bytes: %w", at, length, core.ErrIndexOutOfRange)
	}
	src = detach(src, b.Bytes())
	if err := b.Reallocate(length + n); err != nil {
		return err
	}
	d := b.Bytes()
	copy(d[pos+n:], d[pos:length])
	if src != nil {
		copy(d[pos:pos+n], src)
	} else {
		clear(d[pos : pos+n])
	}
	return nil
}

// Remove deletes n bytes starting at at. n is clamped to the bytes left
// after at, and an index at or past the end removes nothing.
func (b *LengthBuffer) Remove(at, n int) error {
	if n < 0 {
		return fmt.Errorf("remove %d bytes: %w", n, core.ErrInvalidLength)
	}
	if n == 0 {
		return nil
	}
	length := b.Len()
	pos, _ := resolveIndex(at, length)
	if pos >= length {
		return nil
	}
	if n > length-pos {
		n = length - pos
	}
	if n == length {
		return b.Reallocate(0)
	}
	nb := allocate(b.alloc, length-n)
	if nb == nil {
		return fmt.Errorf("remove %d bytes: %w", n, core.ErrAllocFailed)
	}
	d := b.Bytes()
	copy(nb, d[:pos])
	copy(nb[pos:], d[pos+n:])
	return b.adopt(nb)
}

func (b *LengthBuffer) Release() []byte {
	d := b.Bytes()
	b.reg = nil
	return d
}

// Clone returns an independent deep copy. Cloning a buffer without contents
// yields a buffer in null-state.
func (b *LengthBuffer) Clone() (Buffer, error) {
	c := &LengthBuffer{alloc: b.alloc}
	if b.Len() == 0 {
		return c, nil
	}
	nb := allocate(b.alloc, b.Len())
	if nb == nil {
		return nil, fmt.Errorf("clone %d bytes: %w", b.Len(), core.ErrAllocFailed)
	}
	copy(nb, b.Bytes())
	c.reg = ownedRegion{buf: nb, from: b.alloc}
	return c, nil
}

// CopyFrom replaces the contents with a deep copy of src. src may be b.
func (b *LengthBuffer) CopyFrom(src Buffer) error {
	data := src.Bytes()
	if len(data) == 0 {
		return b.drop()
	}
	nb := allocate(b.alloc, len(data))
	if nb == nil {
		return fmt.Errorf("copy %d bytes: %w", len(data), core.ErrAllocFailed)
	}
	copy(nb, data)
	return b.adopt(nb)
}

// Move transfers the region to a new buffer and leaves b in null-state.
func (b *LengthBuffer) Move() Buffer {
	m := &LengthBuffer{alloc: b.alloc}
	m.reg, _ = b.take()
	return m
}

// MoveFrom releases the current data and takes over the region of src,
// which is left in null-state. Moving a buffer into itself does nothing.
func (b *LengthBuffer) MoveFrom(src Buffer) error {
	if src == Buffer(b) {
		return nil
	}
	if err := b.drop(); err != nil {
		return err
	}
	r, n := src.take()
	if r != nil {
		r = r.trim(n)
	}
	b.reg = r
	return nil
}

func (b *LengthBuffer) take() (region, int) {
	r, n := b.reg, b.Len()
	b.reg = nil
	return r, n
}
