package packet

import (
	"encoding/binary"
	"fmt"

	"github.com/google/gopacket/layers"

	"firestige.xyz/pktforge/internal/core"
)

const UDPHeaderLen = 8

// UDP is a UDP header. Its payload is the following layers.
type UDP struct{}

func UDPHeader(srcPort, dstPort uint16) []byte {
	b := make([]byte, UDPHeaderLen)
	binary.BigEndian.PutUint16(b[0:2], srcPort)
	binary.BigEndian.PutUint16(b[2:4], dstPort)
	return b
}

func (*UDP) Protocol() core.ProtocolType { return core.UDP }

// CalculateFields sets the length field and, when the previous layer is
// IPv4, the checksum over the pseudo header. Without IPv4 the checksum is
// left at zero, which means none.
func (*UDP) CalculateFields(v View) error {
	b := v.Bytes()
	if len(b) < UDPHeaderLen {
		return fmt.Errorf("header of %d bytes: %w", len(b), core.ErrInvalidData)
	}
	off := v.Offset()
	length := datagramEnd(v) - off
	if length > maxDatagramLen {
		return fmt.Errorf("datagram of %d bytes: %w", length, core.ErrInvalidLength)
	}
	binary.BigEndian.PutUint16(b[4:6], uint16(length))
	b[6], b[7] = 0, 0

	prev, ok := v.Prev()
	if !ok || prev.Protocol() != core.IPv4 {
		return nil
	}
	ip := prev.Bytes()
	if len(ip) < IPv4HeaderLen {
		return nil
	}
	sum := pseudoHeaderSum(ip[12:16], ip[16:20], uint8(layers.IPProtocolUDP), length)
	cs := checksum(v.p.Data()[off:off+length], sum)
	if cs == 0 {
		cs = 0xffff
	}
	binary.BigEndian.PutUint16(b[6:8], cs)
	return nil
}

func (*UDP) Ports(v View) (src, dst uint16) {
	b := v.Bytes()
	if len(b) < UDPHeaderLen {
		return 0, 0
	}
	return binary.BigEndian.Uint16(b[0:2]), binary.BigEndian.Uint16(b[2:4])
}
