package packet

import (
	"encoding/binary"
	"fmt"
	"net"

	"github.com/google/gopacket/layers"

	"firestige.xyz/pktforge/internal/core"
)

const (
	IPv4HeaderLen    = 20
	IPv4MaxHeaderLen = 60

	// maxDatagramLen is the largest value of a 16 bit length field.
	maxDatagramLen = 0xffff
)

var ipProtocols = map[core.ProtocolType]layers.IPProtocol{
	core.ICMPv4: layers.IPProtocolICMPv4,
	core.TCP:    layers.IPProtocolTCP,
	core.UDP:    layers.IPProtocolUDP,
	core.GRE:    layers.IPProtocolGRE,
	core.SCTP:   layers.IPProtocolSCTP,
	core.IPv4:   layers.IPProtocolIPv4,
	core.IPv6:   layers.IPProtocolIPv6,
}

// IPv4 is an IPv4 header including its options.
type IPv4 struct{}

// IPv4Header returns a 20 byte header without options. Length, protocol and
// checksum are left for CalculateFields.
func IPv4Header(src, dst net.IP, ttl uint8) []byte {
	b := make([]byte, IPv4HeaderLen)
	b[0] = 4<<4 | IPv4HeaderLen/4
	b[8] = ttl
	copy(b[12:16], src.To4())
	copy(b[16:20], dst.To4())
	return b
}

func (*IPv4) Protocol() core.ProtocolType { return core.IPv4 }

// CalculateFields sets version and IHL from the header size, total length
// from the bytes up to any trailer, the protocol from the next layer, and
// the header checksum.
func (*IPv4) CalculateFields(v View) error {
	b := v.Bytes()
	if len(b) < IPv4HeaderLen || len(b) > IPv4MaxHeaderLen || len(b)%4 != 0 {
		return fmt.Errorf("header of %d bytes: %w", len(b), core.ErrInvalidData)
	}
	total := datagramEnd(v) - v.Offset()
	if total > maxDatagramLen {
		return fmt.Errorf("datagram of %d bytes: %w", total, core.ErrInvalidLength)
	}
	b[0] = 4<<4 | byte(len(b)/4)
	binary.BigEndian.PutUint16(b[2:4], uint16(total))
	if next, ok := v.Next(); ok {
		if proto, ok := ipProtocols[next.Protocol()]; ok {
			b[9] = byte(proto)
		}
	}
	b[10], b[11] = 0, 0
	binary.BigEndian.PutUint16(b[10:12], checksum(b, 0))
	return nil
}

// AddOption appends opt to the header options, padded with zero bytes
// (End of Option List) to a multiple of four.
func (*IPv4) AddOption(v View, opt []byte) error {
	padded := (len(opt) + 3) &^ 3
	at := v.Len()
	if at+padded > IPv4MaxHeaderLen {
		return fmt.Errorf("header of %d bytes: %w", at+padded, core.ErrInvalidLength)
	}
	if err := v.Extend(at, padded); err != nil {
		return err
	}
	b := v.Bytes()
	copy(b[at:], opt)
	b[0] = b[0]&0xf0 | byte(len(b)/4)
	return nil
}

// ClearOptions drops all header options.
func (*IPv4) ClearOptions(v View) error {
	if n := v.Len(); n > IPv4HeaderLen {
		if err := v.Shorten(IPv4HeaderLen, n-IPv4HeaderLen); err != nil {
			return err
		}
	}
	b := v.Bytes()
	b[0] = b[0]&0xf0 | IPv4HeaderLen/4
	return nil
}

func (*IPv4) Options(v View) []byte {
	b := v.Bytes()
	if len(b) <= IPv4HeaderLen {
		return nil
	}
	return b[IPv4HeaderLen:]
}

func (*IPv4) Addresses(v View) (src, dst net.IP) {
	b := v.Bytes()
	if len(b) < IPv4HeaderLen {
		return nil, nil
	}
	return net.IP(b[12:16]), net.IP(b[16:20])
}
