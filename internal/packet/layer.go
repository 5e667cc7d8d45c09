package packet

import (
	"fmt"

	"firestige.xyz/pktforge/internal/core"
)

// Layer is one protocol's view over a sub-range of a packet. A layer never
// owns bytes: it reads and writes them through the View it is handed, and
// changes its size only through View.Extend and View.Shorten so that the
// packet can re-base every later layer.
type Layer interface {
	Protocol() core.ProtocolType
	// CalculateFields recomputes length fields, checksums and the like from
	// the bytes of this layer and its neighbours.
	CalculateFields(v View) error
}

// Cloner is implemented by layers that carry state of their own and must be
// copied when the packet is cloned. Stateless layers are shared.
type Cloner interface {
	CloneLayer() Layer
}

// LayerID is a stable handle to a layer in a Packet. Handles of removed
// layers are never reused, so a stale handle is detected rather than
// silently resolving to another layer. The zero LayerID refers to no layer.
type LayerID struct {
	slot uint32
	gen  uint32
}

// IsZero reports whether id refers to no layer.
func (id LayerID) IsZero() bool {
	return id.gen == 0
}

func (id LayerID) String() string {
	if id.IsZero() {
		return "layer(none)"
	}
	return fmt.Sprintf("layer(%d.%d)", id.slot, id.gen)
}

// View binds a layer handle to its packet. Its methods resolve the handle on
// every call, so a View stays valid across edits of other layers.
type View struct {
	p  *Packet
	id LayerID
}

func (v View) ID() LayerID     { return v.id }
func (v View) Packet() *Packet { return v.p }
func (v View) IsValid() bool   { _, err := v.p.locate(v.id); return err == nil }
func (v View) Layer() Layer    { l, _ := v.p.Layer(v.id); return l }
func (v View) Protocol() core.ProtocolType {
	if l := v.Layer(); l != nil {
		return l.Protocol()
	}
	return core.UnknownProtocol
}

// Offset returns the position of the layer's first byte in the packet, or
// -1 for a stale view.
func (v View) Offset() int {
	pos, err := v.p.locate(v.id)
	if err != nil {
		return -1
	}
	return v.p.chain[pos].offset
}

// Len returns the size of the layer in bytes.
func (v View) Len() int {
	pos, err := v.p.locate(v.id)
	if err != nil {
		return 0
	}
	return v.p.chain[pos].length
}

// Bytes returns the layer's bytes. The slice is invalidated by any size
// change of the packet.
func (v View) Bytes() []byte {
	pos, err := v.p.locate(v.id)
	if err != nil {
		return nil
	}
	e := v.p.chain[pos]
	return v.p.buf.Data()[e.offset : e.offset+e.length]
}

// Rest returns the bytes from the start of the layer to the end of the
// packet.
func (v View) Rest() []byte {
	off := v.Offset()
	if off < 0 {
		return nil
	}
	return v.p.buf.Data()[off:]
}

func (v View) Next() (View, bool) {
	id, ok := v.p.Next(v.id)
	return View{p: v.p, id: id}, ok
}

func (v View) Prev() (View, bool) {
	id, ok := v.p.Prev(v.id)
	return View{p: v.p, id: id}, ok
}

// Extend inserts n zero bytes at offsetInLayer.
func (v View) Extend(offsetInLayer, n int) error {
	return v.p.ExtendLayer(v.id, offsetInLayer, n)
}

// Shorten removes n bytes at offsetInLayer.
func (v View) Shorten(offsetInLayer, n int) error {
	return v.p.ShortenLayer(v.id, offsetInLayer, n)
}

// Resize grows or shrinks the layer at its end to n bytes.
func (v View) Resize(n int) error {
	cur := v.Len()
	switch {
	case n > cur:
		return v.Extend(cur, n-cur)
	case n < cur:
		return v.Shorten(n, cur-n)
	default:
		return nil
	}
}

func (v View) String() string {
	pos, err := v.p.locate(v.id)
	if err != nil {
		return v.id.String()
	}
	e := v.p.chain[pos]
	return fmt.Sprintf("%s[%d:%d]", layerName(v.Layer()), e.offset, e.offset+e.length)
}

// layerName is the protocol name of l, or the name a layer reports itself.
func layerName(l Layer) string {
	if n, ok := l.(interface{ Name() string }); ok {
		return n.Name()
	}
	return l.Protocol().String()
}

// SetBytes resizes the layer to len(data) and copies data into it.
func (v View) SetBytes(data []byte) error {
	if err := v.Resize(len(data)); err != nil {
		return err
	}
	copy(v.Bytes(), data)
	return nil
}

// datagramEnd returns the end offset of the bytes carried from v onwards,
// stopping at a trailer layer.
func datagramEnd(v View) int {
	pos, err := v.p.locate(v.id)
	if err != nil {
		return 0
	}
	end := v.p.chain[pos].offset
	for _, e := range v.p.chain[pos:] {
		if v.p.slots[e.id.slot].layer.Protocol() == core.Trailer {
			break
		}
		end = e.offset + e.length
	}
	return end
}
