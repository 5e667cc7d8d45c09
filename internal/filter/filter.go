// Package filter selects packets by protocol mask or by classic BPF
// programs run over the packet bytes.
package filter

import (
	"firestige.xyz/pktforge/internal/core"
	"firestige.xyz/pktforge/internal/packet"
)

type Filter interface {
	Match(p *packet.Packet) bool
}

// Func adapts a function to Filter.
type Func func(p *packet.Packet) bool

func (f Func) Match(p *packet.Packet) bool { return f(p) }

// Protocols matches packets carrying every protocol in mask.
func Protocols(mask core.ProtocolType) Filter {
	return Func(func(p *packet.Packet) bool { return p.IsPacketOfType(mask) })
}

type CounterFilter struct {
	inner   Filter
	seen    int
	matched int
}

// NewCounterFilter counts the packets inner sees and lets pass. A nil inner
// passes everything.
func NewCounterFilter(inner Filter) *CounterFilter {
	return &CounterFilter{inner: inner}
}

func (f *CounterFilter) Match(p *packet.Packet) bool {
	f.seen++
	if f.inner != nil && !f.inner.Match(p) {
		return false
	}
	f.matched++
	return true
}

func (f *CounterFilter) Seen() int    { return f.seen }
func (f *CounterFilter) Matched() int { return f.matched }
