// Package core defines core types with zero external dependencies.
package core

import (
	"strings"
)

// ProtocolType is a bit in a packet's protocol mask. A packet's mask is the
// OR of the types of all layers currently in its chain.
type ProtocolType uint64

const (
	UnknownProtocol ProtocolType = 0

	Ethernet ProtocolType = 1 << iota
	Dot1Q
	ARP
	IPv4
	IPv6
	ICMPv4
	ICMPv6
	TCP
	UDP
	SCTP
	GRE
	VXLAN
	DNS
	HTTP
	SIP
	RTP
	Payload
	Trailer
)

var protocolNames = []struct {
	proto ProtocolType
	name  string
}{
	{Ethernet, "Ethernet"},
	{Dot1Q, "Dot1Q"},
	{ARP, "ARP"},
	{IPv4, "IPv4"},
	{IPv6, "IPv6"},
	{ICMPv4, "ICMPv4"},
	{ICMPv6, "ICMPv6"},
	{TCP, "TCP"},
	{UDP, "UDP"},
	{SCTP, "SCTP"},
	{GRE, "GRE"},
	{VXLAN, "VXLAN"},
	{DNS, "DNS"},
	{HTTP, "HTTP"},
	{SIP, "SIP"},
	{RTP, "RTP"},
	{Payload, "Payload"},
	{Trailer, "Trailer"},
}

// Has reports whether every bit of other is set in p.
func (p ProtocolType) Has(other ProtocolType) bool {
	return other != UnknownProtocol && p&other == other
}

// String renders the mask as names joined by "|".
func (p ProtocolType) String() string {
	if p == UnknownProtocol {
		return "Unknown"
	}
	var names []string
	for _, pn := range protocolNames {
		if p&pn.proto != 0 {
			names = append(names, pn.name)
		}
	}
	if len(names) == 0 {
		return "Unknown"
	}
	return strings.Join(names, "|")
}

// ParseProtocol maps a case-insensitive protocol name to its type.
func ParseProtocol(name string) (ProtocolType, bool) {
	for _, pn := range protocolNames {
		if strings.EqualFold(pn.name, name) {
			return pn.proto, true
		}
	}
	return UnknownProtocol, false
}
