package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/gopacket/layers"

	"firestige.xyz/pktforge/internal/core/alloc"
	"firestige.xyz/pktforge/internal/core/buffer"
	"firestige.xyz/pktforge/internal/core/packetbuf"
)

// NewAllocator builds the configured allocator chain. Call it once and share
// the result: a pool or a budget only works across the buffers using it.
func (cfg *GlobalConfig) NewAllocator() alloc.Allocator {
	var a alloc.Allocator = alloc.Heap()
	if cfg.Allocator.Type == "pool" {
		a = alloc.NewPool()
	}
	if cfg.Allocator.Budget > 0 {
		a = alloc.NewLimited(a, cfg.Allocator.Budget)
	}
	if cfg.Allocator.Instrument {
		a = alloc.NewInstrumented(a, cfg.Allocator.Name)
	}
	return a
}

// BufferOptions returns PacketBuffer options for the configured variant
// backed by a.
func (cfg *GlobalConfig) BufferOptions(a alloc.Allocator) []packetbuf.Option {
	opts := []packetbuf.Option{packetbuf.WithAllocator(a)}
	v, _ := buffer.ParseVariant(cfg.Buffer.Variant)
	if v == buffer.CapacityAware {
		g, err := buffer.ParseGrowth(cfg.Buffer.Growth)
		if err != nil {
			g = buffer.DoublingGrowth
		}
		opts = append(opts, packetbuf.WithCapacity(g))
	}
	return opts
}

var linkTypes = map[string]layers.LinkType{
	"ethernet":  layers.LinkTypeEthernet,
	"en10mb":    layers.LinkTypeEthernet,
	"raw":       layers.LinkTypeRaw,
	"ipv4":      layers.LinkTypeIPv4,
	"ipv6":      layers.LinkTypeIPv6,
	"null":      layers.LinkTypeNull,
	"loop":      layers.LinkTypeLoop,
	"linux_sll": layers.LinkTypeLinuxSLL,
}

// ParseLinkType accepts a link type name or its numeric DLT value.
func ParseLinkType(s string) (layers.LinkType, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if lt, ok := linkTypes[name]; ok {
		return lt, nil
	}
	if n, err := strconv.ParseUint(name, 10, 8); err == nil {
		return layers.LinkType(n), nil
	}
	return 0, fmt.Errorf("unknown link type: %s", s)
}
