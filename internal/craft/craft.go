// Package craft builds packets from recipes.
package craft

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/google/gopacket/layers"

	"firestige.xyz/pktforge/internal/config"
	"firestige.xyz/pktforge/internal/core"
	"firestige.xyz/pktforge/internal/core/packetbuf"
	"firestige.xyz/pktforge/internal/log"
	"firestige.xyz/pktforge/internal/packet"
)

// Builder turns recipes into packets whose buffers are built with the
// configured options.
type Builder struct {
	bufOpts []packetbuf.Option
	now     func() time.Time
	log     log.Logger
}

func NewBuilder(bufOpts []packetbuf.Option) *Builder {
	return &Builder{bufOpts: bufOpts, now: time.Now, log: log.GetLogger()}
}

// Build crafts r.Count packets. The first is built layer by layer, the rest
// are clones with their timestamps spaced by the recipe interval.
func (b *Builder) Build(r *config.Recipe) ([]*packet.Packet, error) {
	first, err := b.BuildOne(r)
	if err != nil {
		return nil, err
	}
	start := r.Start
	if start.IsZero() {
		start = b.now()
	}
	first.Buffer().SetTimestamp(start)

	count := r.Count
	if count < 1 {
		count = 1
	}
	out := make([]*packet.Packet, 0, count)
	out = append(out, first)
	interval := r.IntervalDuration()
	for i := 1; i < count; i++ {
		c, err := first.Clone()
		if err != nil {
			for _, p := range out {
				_ = p.Close()
			}
			return nil, fmt.Errorf("copy %d: %w", i, err)
		}
		c.Buffer().SetTimestamp(start.Add(time.Duration(i) * interval))
		out = append(out, c)
	}
	b.log.WithField("recipe", r.Name).WithField("packets", len(out)).Debug("recipe built")
	return out, nil
}

// BuildOne crafts a single packet from r without a timestamp.
func (b *Builder) BuildOne(r *config.Recipe) (*packet.Packet, error) {
	lt, err := config.ParseLinkType(r.LinkType)
	if err != nil {
		return nil, err
	}
	p := packet.New(b.bufOpts)
	for i, ls := range r.Layers {
		if err := b.addLayer(p, ls); err != nil {
			_ = p.Close()
			return nil, fmt.Errorf("layers[%d] %s: %w", i, ls.Type, err)
		}
	}
	if err := p.ComputeCalculateFields(); err != nil {
		_ = p.Close()
		return nil, err
	}
	p.Buffer().SetLinkType(lt)
	return p, nil
}

func (b *Builder) addLayer(p *packet.Packet, ls config.LayerSpec) error {
	switch ls.Type {
	case "ethernet":
		var f ethernetFields
		if err := decodeFields(ls.Fields, &f); err != nil {
			return err
		}
		_, err := p.AddLayer(&packet.Ethernet{}, packet.EthernetHeader(f.Dst, f.Src, layers.EthernetType(f.EtherType)))
		return err

	case "ipv4":
		f := ipv4Fields{TTL: 64}
		if err := decodeFields(ls.Fields, &f); err != nil {
			return err
		}
		if f.Src.To4() == nil || f.Dst.To4() == nil {
			return fmt.Errorf("src and dst must be IPv4 addresses: %w", core.ErrInvalidData)
		}
		hdr := packet.IPv4Header(f.Src, f.Dst, f.TTL)
		hdr[1] = f.TOS
		binary.BigEndian.PutUint16(hdr[4:6], f.ID)
		if f.DontFrag {
			hdr[6] |= 0x40
		}
		hdr[9] = f.Protocol
		id, err := p.AddLayer(&packet.IPv4{}, hdr)
		if err != nil {
			return err
		}
		v, err := p.View(id)
		if err != nil {
			return err
		}
		ip := v.Layer().(*packet.IPv4)
		for _, opt := range f.Options {
			if err := ip.AddOption(v, opt); err != nil {
				return err
			}
		}
		return nil

	case "udp":
		var f udpFields
		if err := decodeFields(ls.Fields, &f); err != nil {
			return err
		}
		_, err := p.AddLayer(&packet.UDP{}, packet.UDPHeader(f.SrcPort, f.DstPort))
		return err

	case "payload", "raw":
		var f payloadFields
		if err := decodeFields(ls.Fields, &f); err != nil {
			return err
		}
		proto := core.Payload
		if f.Protocol != "" {
			var ok bool
			if proto, ok = core.ParseProtocol(f.Protocol); !ok {
				return fmt.Errorf("unknown protocol %q: %w", f.Protocol, core.ErrInvalidData)
			}
		}
		data := append([]byte(f.Text), f.Hex...)
		if pad := f.Size - len(data); pad > 0 {
			data = append(data, make([]byte, pad)...)
		}
		_, err := p.AddLayer(&packet.Raw{Proto: proto}, data)
		return err
	}
	return fmt.Errorf("unknown layer type %q: %w", ls.Type, core.ErrInvalidData)
}
