package filter

import "firestige.xyz/pktforge/internal/packet"

// Chain passes a packet through its filters in order and hands it to the
// handler once all of them matched.
type Chain struct {
	filters []Filter
	handler func(p *packet.Packet)
}

func NewChain(handler func(p *packet.Packet), filters ...Filter) *Chain {
	all := make([]Filter, len(filters))
	copy(all, filters)
	return &Chain{filters: all, handler: handler}
}

func (c *Chain) Filters() []Filter {
	return c.filters
}

// Filter reports whether p passed every filter. The handler runs only for
// packets that did.
func (c *Chain) Filter(p *packet.Packet) bool {
	if !c.Match(p) {
		return false
	}
	if c.handler != nil {
		c.handler(p)
	}
	return true
}

// Match lets a Chain nest inside another chain.
func (c *Chain) Match(p *packet.Packet) bool {
	for _, f := range c.filters {
		if !f.Match(p) {
			return false
		}
	}
	return true
}
