// Package packetbuf binds a Buffer to capture metadata. Callers work with a
// PacketBuffer and never need to know which buffer variant backs it.
package packetbuf

import (
	"fmt"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"

	"firestige.xyz/pktforge/internal/core"
	"firestige.xyz/pktforge/internal/core/alloc"
	"firestige.xyz/pktforge/internal/core/buffer"
)

// PacketBuffer is the bytes of one packet plus its capture metadata.
type PacketBuffer struct {
	buf     buffer.Buffer
	variant buffer.Variant

	timestamp   time.Time
	linkType    layers.LinkType
	frameLength int // wire length, may exceed the captured length
}

type options struct {
	variant    buffer.Variant
	bufferOpts []buffer.Option
}

// Option configures a new PacketBuffer. The backing variant is fixed at
// construction.
type Option func(*options)

// WithVariant selects the buffer variant. The default is length-only.
func WithVariant(v buffer.Variant) Option {
	return func(o *options) { o.variant = v }
}

// WithAllocator sets the allocator for owned storage.
func WithAllocator(a alloc.Allocator) Option {
	return func(o *options) { o.bufferOpts = append(o.bufferOpts, buffer.WithAllocator(a)) }
}

// WithCapacity selects the capacity-aware variant with growth policy g.
func WithCapacity(g buffer.GrowthPolicy) Option {
	return func(o *options) {
		o.variant = buffer.CapacityAware
		o.bufferOpts = append(o.bufferOpts, buffer.WithGrowth(g))
	}
}

// New creates a PacketBuffer in null-state.
func New(opts ...Option) *PacketBuffer {
	o := options{variant: buffer.LengthOnly}
	for _, opt := range opts {
		opt(&o)
	}
	return &PacketBuffer{
		buf:      buffer.New(o.variant, o.bufferOpts...),
		variant:  o.variant,
		linkType: layers.LinkTypeEthernet,
	}
}

// NewFrom creates a PacketBuffer over captured memory. With owns set the
// memory is released through the configured allocator when replaced.
func NewFrom(data []byte, ts time.Time, owns bool, linkType layers.LinkType, opts ...Option) (*PacketBuffer, error) {
	pb := New(opts...)
	if err := pb.SetData(data, owns, ts, linkType, len(data)); err != nil {
		return nil, err
	}
	return pb, nil
}

// FromCapture creates a PacketBuffer from a gopacket capture record.
func FromCapture(data []byte, ci gopacket.CaptureInfo, linkType layers.LinkType, owns bool, opts ...Option) (*PacketBuffer, error) {
	pb := New(opts...)
	if err := pb.SetData(data, owns, ci.Timestamp, linkType, ci.Length); err != nil {
		return nil, err
	}
	return pb, nil
}

func (pb *PacketBuffer) Data() []byte              { return pb.buf.Bytes() }
func (pb *PacketBuffer) Len() int                  { return pb.buf.Len() }
func (pb *PacketBuffer) Cap() int                  { return pb.buf.Cap() }
func (pb *PacketBuffer) Owning() bool              { return pb.buf.Owning() }
func (pb *PacketBuffer) Present() bool             { return pb.buf.Present() }
func (pb *PacketBuffer) Variant() buffer.Variant   { return pb.variant }
func (pb *PacketBuffer) Timestamp() time.Time      { return pb.timestamp }
func (pb *PacketBuffer) LinkType() layers.LinkType { return pb.linkType }
func (pb *PacketBuffer) FrameLength() int          { return pb.frameLength }

func (pb *PacketBuffer) SetTimestamp(ts time.Time) { pb.timestamp = ts }

func (pb *PacketBuffer) SetLinkType(lt layers.LinkType) { pb.linkType = lt }

// SetFrameLength records the wire length. Values below the captured length
// are raised to it.
func (pb *PacketBuffer) SetFrameLength(n int) {
	if n < pb.Len() {
		n = pb.Len()
	}
	pb.frameLength = n
}

// CaptureInfo describes the current contents as a gopacket capture record.
func (pb *PacketBuffer) CaptureInfo() gopacket.CaptureInfo {
	return gopacket.CaptureInfo{
		Timestamp:     pb.timestamp,
		CaptureLength: pb.Len(),
		Length:        pb.frameLength,
	}
}

// SetData replaces the contents the way Buffer.Reset does and records the
// metadata. Nil or empty data is rejected and leaves pb unchanged. A
// frameLength below the data length defaults to the data length.
func (pb *PacketBuffer) SetData(data []byte, owns bool, ts time.Time, linkType layers.LinkType, frameLength int) error {
	if len(data) == 0 {
		return fmt.Errorf("set packet data: %w", core.ErrInvalidData)
	}
	if err := pb.buf.Reset(data, owns); err != nil {
		pb.clearMetadata()
		return err
	}
	if frameLength < len(data) {
		frameLength = len(data)
	}
	pb.timestamp = ts
	pb.linkType = linkType
	pb.frameLength = frameLength
	return nil
}

// Release hands the contents to the caller and leaves pb in null-state.
func (pb *PacketBuffer) Release() []byte {
	pb.clearMetadata()
	return pb.buf.Release()
}

// Clear releases the contents and resets the metadata.
func (pb *PacketBuffer) Clear() error {
	pb.clearMetadata()
	return pb.buf.Reset(nil, false)
}

func (pb *PacketBuffer) clearMetadata() {
	pb.timestamp = time.Time{}
	pb.linkType = layers.LinkTypeEthernet
	pb.frameLength = 0
}

// track runs a size-changing operation and moves the frame length by the
// same amount the captured length moved.
func (pb *PacketBuffer) track(op func() error) error {
	before := pb.buf.Len()
	err := op()
	if !pb.buf.Present() {
		pb.frameLength = 0
		return err
	}
	after := pb.buf.Len()
	pb.frameLength += after - before
	if pb.frameLength < after {
		pb.frameLength = after
	}
	return err
}

func (pb *PacketBuffer) Reallocate(n int) error {
	return pb.track(func() error { return pb.buf.Reallocate(n) })
}

func (pb *PacketBuffer) Append(n int) error {
	return pb.track(func() error { return pb.buf.Append(n) })
}

func (pb *PacketBuffer) AppendBytes(src []byte) error {
	return pb.track(func() error { return pb.buf.AppendBytes(src) })
}

func (pb *PacketBuffer) Insert(at, n int) error {
	return pb.track(func() error { return pb.buf.Insert(at, n) })
}

func (pb *PacketBuffer) InsertBytes(at int, src []byte) error {
	return pb.track(func() error { return pb.buf.InsertBytes(at, src) })
}

func (pb *PacketBuffer) Remove(at, n int) error {
	return pb.track(func() error { return pb.buf.Remove(at, n) })
}

// Clone returns a deep copy with the same variant and metadata.
func (pb *PacketBuffer) Clone() (*PacketBuffer, error) {
	b, err := pb.buf.Clone()
	if err != nil {
		return nil, err
	}
	return &PacketBuffer{
		buf:         b,
		variant:     pb.variant,
		timestamp:   pb.timestamp,
		linkType:    pb.linkType,
		frameLength: pb.frameLength,
	}, nil
}

// CopyFrom deep copies src, contents and metadata, into pb. src may be pb.
func (pb *PacketBuffer) CopyFrom(src *PacketBuffer) error {
	ts, lt, fl := src.timestamp, src.linkType, src.frameLength
	if err := pb.buf.CopyFrom(src.buf); err != nil {
		if !pb.buf.Present() {
			pb.clearMetadata()
		}
		return err
	}
	pb.timestamp, pb.linkType, pb.frameLength = ts, lt, fl
	return nil
}

// Move transfers contents and metadata to a new PacketBuffer and leaves pb
// in null-state.
func (pb *PacketBuffer) Move() *PacketBuffer {
	m := &PacketBuffer{
		buf:         pb.buf.Move(),
		variant:     pb.variant,
		timestamp:   pb.timestamp,
		linkType:    pb.linkType,
		frameLength: pb.frameLength,
	}
	pb.clearMetadata()
	return m
}

// MoveFrom takes over the contents and metadata of src, which is left in
// null-state. Moving a PacketBuffer into itself does nothing.
func (pb *PacketBuffer) MoveFrom(src *PacketBuffer) error {
	if src == pb {
		return nil
	}
	if err := pb.buf.MoveFrom(src.buf); err != nil {
		pb.clearMetadata()
		return err
	}
	pb.timestamp, pb.linkType, pb.frameLength = src.timestamp, src.linkType, src.frameLength
	src.clearMetadata()
	return nil
}
