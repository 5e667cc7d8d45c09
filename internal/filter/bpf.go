package filter

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/gopacket/layers"
	"golang.org/x/net/bpf"

	"firestige.xyz/pktforge/internal/packet"
)

// BPF runs a classic BPF program over the packet bytes. A program returning
// a non-zero length matches.
type BPF struct {
	vm   *bpf.VM
	prog []bpf.Instruction
}

func NewBPF(prog []bpf.Instruction) (*BPF, error) {
	vm, err := bpf.NewVM(prog)
	if err != nil {
		return nil, fmt.Errorf("load bpf program: %w", err)
	}
	return &BPF{vm: vm, prog: prog}, nil
}

// NewBPFRaw loads a program given as raw instructions, e.g. the output of
// ParseDD.
func NewBPFRaw(raw []bpf.RawInstruction) (*BPF, error) {
	prog, ok := bpf.Disassemble(raw)
	if !ok {
		return nil, fmt.Errorf("load bpf program: unknown instruction in %d raw instructions", len(raw))
	}
	return NewBPF(prog)
}

func (b *BPF) Match(p *packet.Packet) bool {
	n, err := b.vm.Run(p.Data())
	return err == nil && n > 0
}

func (b *BPF) Program() []bpf.Instruction {
	return b.prog
}

// ParseDD reads a program in the format printed by "tcpdump -dd":
// one "{ code, jt, jf, k }," per line.
func ParseDD(text string) ([]bpf.RawInstruction, error) {
	var raw []bpf.RawInstruction
	sc := bufio.NewScanner(strings.NewReader(text))
	line := 0
	for sc.Scan() {
		line++
		s := strings.TrimSpace(sc.Text())
		s = strings.TrimSuffix(s, ",")
		if s == "" {
			continue
		}
		if !strings.HasPrefix(s, "{") || !strings.HasSuffix(s, "}") {
			return nil, fmt.Errorf("line %d: expected { code, jt, jf, k }", line)
		}
		fields := strings.Split(strings.Trim(s, "{} "), ",")
		if len(fields) != 4 {
			return nil, fmt.Errorf("line %d: expected 4 fields, got %d", line, len(fields))
		}
		var vals [4]uint64
		for i, f := range fields {
			v, err := strconv.ParseUint(strings.TrimSpace(f), 0, 32)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
			vals[i] = v
		}
		if vals[1] > 0xff || vals[2] > 0xff || vals[0] > 0xffff {
			return nil, fmt.Errorf("line %d: field out of range", line)
		}
		raw = append(raw, bpf.RawInstruction{
			Op: uint16(vals[0]),
			Jt: uint8(vals[1]),
			Jf: uint8(vals[2]),
			K:  uint32(vals[3]),
		})
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("empty bpf program")
	}
	return raw, nil
}

const (
	etherTypeOffset = 12
	ipProtoOffset   = packet.EthernetHeaderLen + 9
)

// EtherTypeProgram matches Ethernet frames of type t.
func EtherTypeProgram(t layers.EthernetType) []bpf.Instruction {
	return []bpf.Instruction{
		bpf.LoadAbsolute{Off: etherTypeOffset, Size: 2},
		bpf.JumpIf{Cond: bpf.JumpEqual, Val: uint32(t), SkipFalse: 1},
		bpf.RetConstant{Val: 0xffff},
		bpf.RetConstant{Val: 0},
	}
}

// IPProtocolProgram matches IPv4 over Ethernet carrying proto.
func IPProtocolProgram(proto layers.IPProtocol) []bpf.Instruction {
	return []bpf.Instruction{
		bpf.LoadAbsolute{Off: etherTypeOffset, Size: 2},
		bpf.JumpIf{Cond: bpf.JumpEqual, Val: uint32(layers.EthernetTypeIPv4), SkipFalse: 3},
		bpf.LoadAbsolute{Off: ipProtoOffset, Size: 1},
		bpf.JumpIf{Cond: bpf.JumpEqual, Val: uint32(proto), SkipFalse: 1},
		bpf.RetConstant{Val: 0xffff},
		bpf.RetConstant{Val: 0},
	}
}

// UDPDstPortProgram matches UDP over IPv4 over Ethernet with destination
// port port. The IPv4 header length is taken from the frame.
func UDPDstPortProgram(port uint16) []bpf.Instruction {
	return []bpf.Instruction{
		bpf.LoadAbsolute{Off: etherTypeOffset, Size: 2},
		bpf.JumpIf{Cond: bpf.JumpEqual, Val: uint32(layers.EthernetTypeIPv4), SkipFalse: 5},
		bpf.LoadAbsolute{Off: ipProtoOffset, Size: 1},
		bpf.JumpIf{Cond: bpf.JumpEqual, Val: uint32(layers.IPProtocolUDP), SkipFalse: 3},
		bpf.LoadMemShift{Off: packet.EthernetHeaderLen},
		bpf.LoadIndirect{Off: packet.EthernetHeaderLen + 2, Size: 2},
		bpf.JumpIf{Cond: bpf.JumpEqual, Val: uint32(port), SkipTrue: 1},
		bpf.RetConstant{Val: 0},
		bpf.RetConstant{Val: 0xffff},
	}
}
