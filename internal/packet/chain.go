package packet

import (
	"errors"
	"fmt"
	"io"

	"github.com/hashicorp/go-multierror"

	"firestige.xyz/pktforge/internal/core"
)

type LayerOption func(*slot)

// ByReference adds a layer the caller keeps owning: the packet never closes
// it.
func ByReference() LayerOption {
	return func(s *slot) { s.borrowed = true }
}

// AddLayer appends l at the tail of the chain with contents as its bytes.
func (p *Packet) AddLayer(l Layer, contents []byte, opts ...LayerOption) (LayerID, error) {
	if l == nil {
		return LayerID{}, fmt.Errorf("add layer: %w", core.ErrInvalidData)
	}
	if err := p.checkUnclaimed(); err != nil {
		return LayerID{}, fmt.Errorf("add layer: %w", err)
	}
	off := p.buf.Len()
	if err := p.buf.AppendBytes(contents); err != nil {
		return LayerID{}, p.failed("add layer", l, err)
	}
	id := p.attach(l, opts)
	p.chain = append(p.chain, entry{id: id, offset: off, length: len(contents)})
	p.mask |= l.Protocol()
	return id, nil
}

// InsertLayer places l directly after the layer after, or at the head when
// after is zero.
func (p *Packet) InsertLayer(after LayerID, l Layer, contents []byte, opts ...LayerOption) (LayerID, error) {
	if l == nil {
		return LayerID{}, fmt.Errorf("insert layer: %w", core.ErrInvalidData)
	}
	if err := p.checkUnclaimed(); err != nil {
		return LayerID{}, fmt.Errorf("insert layer: %w", err)
	}
	pos, off := -1, 0
	if !after.IsZero() {
		var err error
		if pos, err = p.locate(after); err != nil {
			return LayerID{}, fmt.Errorf("insert layer: %w", err)
		}
		off = p.chain[pos].offset + p.chain[pos].length
	}
	if err := p.buf.InsertBytes(off, contents); err != nil {
		return LayerID{}, p.failed("insert layer", l, err)
	}

	id := p.attach(l, opts)
	at := pos + 1
	p.chain = append(p.chain, entry{})
	copy(p.chain[at+1:], p.chain[at:])
	p.chain[at] = entry{id: id, offset: off, length: len(contents)}
	p.rebase(at+1, len(contents))
	p.mask |= l.Protocol()
	return id, nil
}

// RemoveLayer deletes the layer and its bytes. An owned layer implementing
// io.Closer is closed.
func (p *Packet) RemoveLayer(id LayerID) error {
	l, borrowed, err := p.unlink(id)
	if err != nil {
		return err
	}
	if borrowed {
		return nil
	}
	if c, ok := l.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// DetachLayer deletes the layer's bytes from the packet and hands the layer
// value back to the caller.
func (p *Packet) DetachLayer(id LayerID) (Layer, error) {
	l, _, err := p.unlink(id)
	if err != nil {
		return nil, err
	}
	return l, nil
}

func (p *Packet) unlink(id LayerID) (Layer, bool, error) {
	pos, err := p.locate(id)
	if err != nil {
		return nil, false, fmt.Errorf("remove layer: %w", err)
	}
	e := p.chain[pos]
	l := p.slots[id.slot].layer
	if err := p.buf.Remove(e.offset, e.length); err != nil {
		return nil, false, p.failed("remove layer", l, err)
	}

	borrowed := p.slots[id.slot].borrowed
	p.chain = append(p.chain[:pos], p.chain[pos+1:]...)
	p.rebase(pos, -e.length)
	p.freeSlot(id)
	p.recomputeMask()
	return l, borrowed, nil
}

// ExtendLayer inserts n zero bytes into the layer before offsetInLayer and
// shifts every later layer by n.
func (p *Packet) ExtendLayer(id LayerID, offsetInLayer, n int) error {
	pos, err := p.locate(id)
	if err != nil {
		return fmt.Errorf("extend layer: %w", err)
	}
	e := p.chain[pos]
	switch {
	case n < 0:
		return fmt.Errorf("extend layer by %d: %w", n, core.ErrInvalidLength)
	case offsetInLayer < 0 || offsetInLayer > e.length:
		return fmt.Errorf("extend layer at %d of %d: %w", offsetInLayer, e.length, core.ErrIndexOutOfRange)
	case n == 0:
		return nil
	}
	if err := p.buf.Insert(e.offset+offsetInLayer, n); err != nil {
		return p.failed("extend layer", p.slots[id.slot].layer, err)
	}
	p.chain[pos].length += n
	p.rebase(pos+1, n)
	return nil
}

// ShortenLayer removes n bytes of the layer starting at offsetInLayer and
// shifts every later layer back by n.
func (p *Packet) ShortenLayer(id LayerID, offsetInLayer, n int) error {
	pos, err := p.locate(id)
	if err != nil {
		return fmt.Errorf("shorten layer: %w", err)
	}
	e := p.chain[pos]
	switch {
	case n < 0:
		return fmt.Errorf("shorten layer by %d: %w", n, core.ErrInvalidLength)
	case offsetInLayer < 0 || offsetInLayer+n > e.length:
		return fmt.Errorf("shorten layer %d bytes at %d of %d: %w", n, offsetInLayer, e.length, core.ErrIndexOutOfRange)
	case n == 0:
		return nil
	}
	if err := p.buf.Remove(e.offset+offsetInLayer, n); err != nil {
		return p.failed("shorten layer", p.slots[id.slot].layer, err)
	}
	p.chain[pos].length -= n
	p.rebase(pos+1, -n)
	return nil
}

// ComputeCalculateFields runs every layer's CalculateFields once, first to
// last. A failing layer does not stop the pass; all failures are returned
// together.
func (p *Packet) ComputeCalculateFields() error {
	ids := make([]LayerID, len(p.chain))
	for i, e := range p.chain {
		ids[i] = e.id
	}

	var result *multierror.Error
	for _, id := range ids {
		if _, err := p.locate(id); err != nil {
			continue
		}
		l := p.slots[id.slot].layer
		if err := l.CalculateFields(View{p: p, id: id}); err != nil {
			result = multierror.Append(result, fmt.Errorf("%s layer: %w", layerName(l), err))
		}
	}
	if err := result.ErrorOrNil(); err != nil {
		p.log.WithError(err).Debug("calculate fields incomplete")
		return err
	}
	return nil
}

// checkUnclaimed rejects edits of a packet whose buffer holds bytes but no
// layers, as after WithBuffer over a filled buffer. Layers must start at
// offset 0.
func (p *Packet) checkUnclaimed() error {
	if len(p.chain) == 0 && p.buf.Len() > 0 {
		return fmt.Errorf("%d bytes not covered by any layer: %w", p.buf.Len(), core.ErrInvalidData)
	}
	return nil
}

func (p *Packet) attach(l Layer, opts []LayerOption) LayerID {
	var s slot
	for _, o := range opts {
		o(&s)
	}
	return p.allocSlot(l, s.borrowed)
}

// rebase shifts the offsets of chain[from:] by delta.
func (p *Packet) rebase(from, delta int) {
	for i := from; i < len(p.chain); i++ {
		p.chain[i].offset += delta
	}
}

// failed reports a buffer failure. When the buffer lost its storage the
// offsets no longer describe it, so the chain is dropped as well.
func (p *Packet) failed(op string, l Layer, err error) error {
	logger := p.log.WithError(err).WithField("layer", layerName(l))
	if errors.Is(err, core.ErrReleaseFailed) {
		logger.Warnf("%s: buffer released, dropping %d layers", op, len(p.chain))
		p.dropChain()
	} else {
		logger.Debugf("%s failed", op)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func (p *Packet) dropChain() {
	for _, e := range p.chain {
		_ = p.destroy(e.id)
	}
	p.chain = p.chain[:0]
	p.mask = core.UnknownProtocol
}
