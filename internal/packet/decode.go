package packet

import (
	"fmt"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"

	"firestige.xyz/pktforge/internal/core"
	"firestige.xyz/pktforge/internal/core/packetbuf"
)

var gopacketProtocols = map[gopacket.LayerType]core.ProtocolType{
	layers.LayerTypeEthernet:  core.Ethernet,
	layers.LayerTypeDot1Q:     core.Dot1Q,
	layers.LayerTypeARP:       core.ARP,
	layers.LayerTypeIPv4:      core.IPv4,
	layers.LayerTypeIPv6:      core.IPv6,
	layers.LayerTypeICMPv4:    core.ICMPv4,
	layers.LayerTypeICMPv6:    core.ICMPv6,
	layers.LayerTypeTCP:       core.TCP,
	layers.LayerTypeUDP:       core.UDP,
	layers.LayerTypeSCTP:      core.SCTP,
	layers.LayerTypeGRE:       core.GRE,
	layers.LayerTypeVXLAN:     core.VXLAN,
	layers.LayerTypeDNS:       core.DNS,
	layers.LayerTypeSIP:       core.SIP,
	gopacket.LayerTypePayload: core.Payload,
}

// ProtocolOf maps a gopacket layer type to its protocol bit. Types without
// a bit of their own map to UnknownProtocol.
func ProtocolOf(t gopacket.LayerType) core.ProtocolType {
	return gopacketProtocols[t]
}

// Decode builds a layer chain over the frame already held by pb. gopacket
// finds the layer boundaries; the chain's layers view pb's bytes without
// copying. Bytes no decoded layer claims, such as Ethernet padding, form a
// trailing Raw layer of protocol Trailer. When owns is true the packet
// releases pb on Close.
func Decode(pb *packetbuf.PacketBuffer, owns bool, opts ...Option) (*Packet, error) {
	if pb == nil || !pb.Present() {
		return nil, fmt.Errorf("decode: %w", core.ErrInvalidData)
	}
	p := New(nil, append(opts, WithBuffer(pb, owns))...)

	data := pb.Data()
	gp := gopacket.NewPacket(data, pb.LinkType(), gopacket.DecodeOptions{NoCopy: true})

	off := 0
	for _, gl := range gp.Layers() {
		n := len(gl.LayerContents())
		if n == 0 {
			continue
		}
		if off+n > len(data) {
			break
		}
		p.appendView(layerFor(gl.LayerType()), off, n)
		off += n
	}
	if off < len(data) {
		p.appendView(&Raw{Proto: core.Trailer}, off, len(data)-off)
	}

	if err := gp.ErrorLayer(); err != nil {
		p.log.WithField("link_type", pb.LinkType().String()).
			WithError(err.Error()).
			Debug("frame partially decoded")
	}
	return p, nil
}

// appendView attaches l over bytes already present in the buffer.
func (p *Packet) appendView(l Layer, off, n int) {
	id := p.allocSlot(l, false)
	p.chain = append(p.chain, entry{id: id, offset: off, length: n})
	p.mask |= l.Protocol()
}

func layerFor(t gopacket.LayerType) Layer {
	switch t {
	case layers.LayerTypeEthernet:
		return &Ethernet{}
	case layers.LayerTypeIPv4:
		return &IPv4{}
	case layers.LayerTypeUDP:
		return &UDP{}
	}
	proto := ProtocolOf(t)
	if proto == core.UnknownProtocol {
		proto = core.Payload
	}
	return &Raw{Proto: proto, Kind: t.String()}
}
