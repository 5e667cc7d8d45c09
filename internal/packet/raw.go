package packet

import "firestige.xyz/pktforge/internal/core"

// Raw is an opaque layer: a payload, a trailer, or any protocol the chain
// carries without interpreting.
type Raw struct {
	Proto core.ProtocolType
	// Kind names the layer when Proto alone does not, e.g. a gopacket
	// layer type without a protocol bit.
	Kind string
}

func (r *Raw) Protocol() core.ProtocolType {
	if r.Proto == core.UnknownProtocol {
		return core.Payload
	}
	return r.Proto
}

func (r *Raw) Name() string {
	if r.Kind != "" {
		return r.Kind
	}
	return r.Protocol().String()
}

func (r *Raw) CalculateFields(View) error { return nil }

func (r *Raw) CloneLayer() Layer {
	c := *r
	return &c
}
