package packet

import (
	"encoding/binary"
	"fmt"
	"net"

	"github.com/google/gopacket/layers"

	"firestige.xyz/pktforge/internal/core"
)

const EthernetHeaderLen = 14

var etherTypes = map[core.ProtocolType]layers.EthernetType{
	core.IPv4:  layers.EthernetTypeIPv4,
	core.IPv6:  layers.EthernetTypeIPv6,
	core.ARP:   layers.EthernetTypeARP,
	core.Dot1Q: layers.EthernetTypeDot1Q,
}

// Ethernet is an Ethernet II header.
type Ethernet struct{}

// EthernetHeader returns header bytes for dst, src and etherType. A zero
// etherType is filled in by CalculateFields.
func EthernetHeader(dst, src net.HardwareAddr, etherType layers.EthernetType) []byte {
	b := make([]byte, EthernetHeaderLen)
	copy(b[0:6], dst)
	copy(b[6:12], src)
	binary.BigEndian.PutUint16(b[12:14], uint16(etherType))
	return b
}

func (*Ethernet) Protocol() core.ProtocolType { return core.Ethernet }

// CalculateFields sets the EtherType from the protocol of the next layer.
func (*Ethernet) CalculateFields(v View) error {
	b := v.Bytes()
	if len(b) < EthernetHeaderLen {
		return fmt.Errorf("header of %d bytes: %w", len(b), core.ErrInvalidData)
	}
	next, ok := v.Next()
	if !ok {
		return nil
	}
	if t, ok := etherTypes[next.Protocol()]; ok {
		binary.BigEndian.PutUint16(b[12:14], uint16(t))
	}
	return nil
}

func (*Ethernet) EtherType(v View) layers.EthernetType {
	b := v.Bytes()
	if len(b) < EthernetHeaderLen {
		return 0
	}
	return layers.EthernetType(binary.BigEndian.Uint16(b[12:14]))
}

// Addresses returns the destination and source MAC addresses.
func (*Ethernet) Addresses(v View) (dst, src net.HardwareAddr) {
	b := v.Bytes()
	if len(b) < EthernetHeaderLen {
		return nil, nil
	}
	return net.HardwareAddr(b[0:6]), net.HardwareAddr(b[6:12])
}
