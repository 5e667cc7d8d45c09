// Package packet exposes the bytes of a PacketBuffer as an ordered chain of
// protocol layers. Every layer views a contiguous sub-range of the buffer;
// the ranges tile the buffer exactly, and any size change of one layer is
// propagated to the offsets of every layer after it.
package packet

import (
	"fmt"
	"io"
	"strings"

	"github.com/google/gopacket"
	"github.com/hashicorp/go-multierror"

	"firestige.xyz/pktforge/internal/core"
	"firestige.xyz/pktforge/internal/core/packetbuf"
	"firestige.xyz/pktforge/internal/log"
)

// Packet is a layer chain over one PacketBuffer. It is not safe for
// concurrent use.
type Packet struct {
	buf        *packetbuf.PacketBuffer
	ownsBuffer bool

	slots []slot
	free  []uint32
	chain []entry

	mask core.ProtocolType
	log  log.Logger
}

// slot holds a layer in the arena. gen changes every time the slot is
// vacated so that handles to earlier occupants go stale.
type slot struct {
	layer    Layer
	gen      uint32
	live     bool
	borrowed bool
}

type entry struct {
	id     LayerID
	offset int
	length int
}

type Option func(*Packet)

// WithLogger sets the logger used for failure reporting.
func WithLogger(l log.Logger) Option {
	return func(p *Packet) { p.log = l }
}

// WithBuffer runs the packet over pb instead of a fresh buffer. When owns is
// true Close releases pb. Layers cannot be added over a pb that already
// holds bytes; use Decode for a buffer that already holds a frame.
func WithBuffer(pb *packetbuf.PacketBuffer, owns bool) Option {
	return func(p *Packet) {
		p.buf = pb
		p.ownsBuffer = owns
	}
}

// New returns an empty packet owning a null-state PacketBuffer built with
// bufOpts.
func New(bufOpts []packetbuf.Option, opts ...Option) *Packet {
	p := &Packet{log: log.GetLogger()}
	for _, o := range opts {
		o(p)
	}
	if p.buf == nil {
		p.buf = packetbuf.New(bufOpts...)
		p.ownsBuffer = true
	}
	return p
}

// Buffer returns the underlying PacketBuffer. Size changes made directly on
// it bypass the chain and break its offsets.
func (p *Packet) Buffer() *packetbuf.PacketBuffer { return p.buf }

// Data returns the packet bytes.
func (p *Packet) Data() []byte { return p.buf.Data() }

// Len returns the packet length in bytes.
func (p *Packet) Len() int { return p.buf.Len() }

// OwnsBuffer reports whether Close releases the buffer.
func (p *Packet) OwnsBuffer() bool { return p.ownsBuffer }

// Count returns the number of layers.
func (p *Packet) Count() int { return len(p.chain) }

// ProtocolMask returns the union of the protocols of all layers.
func (p *Packet) ProtocolMask() core.ProtocolType { return p.mask }

// IsPacketOfType reports whether every protocol in mask is present.
func (p *Packet) IsPacketOfType(mask core.ProtocolType) bool { return p.mask.Has(mask) }

func (p *Packet) First() (LayerID, bool) {
	if len(p.chain) == 0 {
		return LayerID{}, false
	}
	return p.chain[0].id, true
}

func (p *Packet) Last() (LayerID, bool) {
	if len(p.chain) == 0 {
		return LayerID{}, false
	}
	return p.chain[len(p.chain)-1].id, true
}

func (p *Packet) Next(id LayerID) (LayerID, bool) {
	pos, err := p.locate(id)
	if err != nil || pos+1 >= len(p.chain) {
		return LayerID{}, false
	}
	return p.chain[pos+1].id, true
}

func (p *Packet) Prev(id LayerID) (LayerID, bool) {
	pos, err := p.locate(id)
	if err != nil || pos == 0 {
		return LayerID{}, false
	}
	return p.chain[pos-1].id, true
}

// Layer returns the layer value behind id.
func (p *Packet) Layer(id LayerID) (Layer, error) {
	if _, err := p.locate(id); err != nil {
		return nil, err
	}
	return p.slots[id.slot].layer, nil
}

// View returns a view of the layer behind id.
func (p *Packet) View(id LayerID) (View, error) {
	if _, err := p.locate(id); err != nil {
		return View{}, err
	}
	return View{p: p, id: id}, nil
}

// Layers returns views of all layers, first to last.
func (p *Packet) Layers() []View {
	views := make([]View, len(p.chain))
	for i, e := range p.chain {
		views[i] = View{p: p, id: e.id}
	}
	return views
}

// LayerOfType returns the first layer carrying proto.
func (p *Packet) LayerOfType(proto core.ProtocolType) (View, bool) {
	return p.LayerOfTypeAfter(LayerID{}, proto)
}

// LayerOfTypeAfter returns the first layer carrying proto that follows
// after. A zero after searches from the head.
func (p *Packet) LayerOfTypeAfter(after LayerID, proto core.ProtocolType) (View, bool) {
	start := 0
	if !after.IsZero() {
		pos, err := p.locate(after)
		if err != nil {
			return View{}, false
		}
		start = pos + 1
	}
	for _, e := range p.chain[start:] {
		if p.slots[e.id.slot].layer.Protocol().Has(proto) {
			return View{p: p, id: e.id}, true
		}
	}
	return View{}, false
}

// Clone returns an independent packet with a deep copy of the buffer and
// the same layer layout. Layers implementing Cloner are cloned, others are
// shared.
func (p *Packet) Clone() (*Packet, error) {
	pb, err := p.buf.Clone()
	if err != nil {
		return nil, fmt.Errorf("clone packet: %w", err)
	}
	c := &Packet{buf: pb, ownsBuffer: true, mask: p.mask, log: p.log}
	for _, e := range p.chain {
		s := p.slots[e.id.slot]
		l := s.layer
		borrowed := s.borrowed
		if cl, ok := l.(Cloner); ok {
			l = cl.CloneLayer()
			borrowed = false
		}
		id := c.allocSlot(l, borrowed)
		c.chain = append(c.chain, entry{id: id, offset: e.offset, length: e.length})
	}
	return c, nil
}

// Close drops every layer and releases the buffer if the packet owns it.
// Owned layers implementing io.Closer are closed.
func (p *Packet) Close() error {
	var result *multierror.Error
	for _, e := range p.chain {
		if err := p.destroy(e.id); err != nil {
			result = multierror.Append(result, err)
		}
	}
	p.chain = nil
	p.slots = nil
	p.free = nil
	p.mask = core.UnknownProtocol
	if p.ownsBuffer {
		if err := p.buf.Clear(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}

// Gopacket decodes the current bytes with gopacket for interop with code
// that speaks gopacket.Packet. The result copies the bytes.
func (p *Packet) Gopacket() gopacket.Packet {
	data := append([]byte(nil), p.buf.Data()...)
	gp := gopacket.NewPacket(data, p.buf.LinkType(), gopacket.Default)
	if md := gp.Metadata(); md != nil {
		md.CaptureInfo = p.buf.CaptureInfo()
	}
	return gp
}

func (p *Packet) String() string {
	if len(p.chain) == 0 {
		return fmt.Sprintf("packet(%d bytes, no layers)", p.buf.Len())
	}
	parts := make([]string, len(p.chain))
	for i, v := range p.Layers() {
		parts[i] = v.String()
	}
	return strings.Join(parts, " ")
}

// locate resolves id to its position in the chain.
func (p *Packet) locate(id LayerID) (int, error) {
	if id.IsZero() || int(id.slot) >= len(p.slots) {
		return -1, fmt.Errorf("%v: %w", id, core.ErrNotInChain)
	}
	s := p.slots[id.slot]
	if !s.live || s.gen != id.gen {
		return -1, fmt.Errorf("%v: %w", id, core.ErrStaleLayer)
	}
	for i, e := range p.chain {
		if e.id == id {
			return i, nil
		}
	}
	return -1, fmt.Errorf("%v: %w", id, core.ErrNotInChain)
}

func (p *Packet) allocSlot(l Layer, borrowed bool) LayerID {
	var idx uint32
	if n := len(p.free); n > 0 {
		idx = p.free[n-1]
		p.free = p.free[:n-1]
	} else {
		idx = uint32(len(p.slots))
		p.slots = append(p.slots, slot{})
	}
	s := &p.slots[idx]
	s.gen++
	s.layer, s.live, s.borrowed = l, true, borrowed
	return LayerID{slot: idx, gen: s.gen}
}

// freeSlot vacates the slot of id and returns the layer it held.
func (p *Packet) freeSlot(id LayerID) Layer {
	s := &p.slots[id.slot]
	l := s.layer
	s.layer, s.live, s.borrowed = nil, false, false
	s.gen++
	p.free = append(p.free, id.slot)
	return l
}

// destroy vacates the slot of id and closes the layer if the packet owns it.
func (p *Packet) destroy(id LayerID) error {
	borrowed := p.slots[id.slot].borrowed
	l := p.freeSlot(id)
	if borrowed {
		return nil
	}
	if c, ok := l.(io.Closer); ok {
		if err := c.Close(); err != nil {
			return fmt.Errorf("close %s layer: %w", layerName(l), err)
		}
	}
	return nil
}

func (p *Packet) recomputeMask() {
	p.mask = core.UnknownProtocol
	for _, e := range p.chain {
		p.mask |= p.slots[e.id.slot].layer.Protocol()
	}
}
