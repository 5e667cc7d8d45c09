package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"firestige.xyz/pktforge/internal/capture"
	"firestige.xyz/pktforge/internal/core"
	"firestige.xyz/pktforge/internal/core/packetbuf"
	"firestige.xyz/pktforge/internal/filter"
	"firestige.xyz/pktforge/internal/log"
	"firestige.xyz/pktforge/internal/packet"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <capture-file>",
	Short: "List the layers of every packet in a capture file",
	Long: `Decode every packet of a pcap or pcapng file into its layer chain and
print one line per packet. Packets can be narrowed down by protocol and by
a classic BPF program in "tcpdump -dd" format; matches can be written to a
new capture file.

Examples:
  pktforge inspect sip.pcap
  pktforge inspect sip.pcap --proto ipv4,udp --hex
  tcpdump -dd udp port 5060 > sip.bpf && pktforge inspect in.pcap --bpf sip.bpf -o sip.pcap`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInspectCommand(cmd, args[0])
	},
}

var (
	inspectProto  string
	inspectBPF    string
	inspectHex    bool
	inspectOutput string
)

func init() {
	inspectCmd.Flags().StringVar(&inspectProto, "proto", "", "comma separated protocols every shown packet must carry")
	inspectCmd.Flags().StringVar(&inspectBPF, "bpf", "", "file with a BPF program in tcpdump -dd format")
	inspectCmd.Flags().BoolVar(&inspectHex, "hex", false, "print packet bytes")
	inspectCmd.Flags().StringVarP(&inspectOutput, "output", "o", "", "write matching packets to this capture file")
}

func buildFilters() ([]filter.Filter, error) {
	var filters []filter.Filter
	if inspectProto != "" {
		var mask core.ProtocolType
		for _, name := range strings.Split(inspectProto, ",") {
			proto, ok := core.ParseProtocol(strings.TrimSpace(name))
			if !ok {
				return nil, fmt.Errorf("unknown protocol %q", name)
			}
			mask |= proto
		}
		filters = append(filters, filter.Protocols(mask))
	}
	if inspectBPF != "" {
		text, err := os.ReadFile(inspectBPF)
		if err != nil {
			return nil, fmt.Errorf("failed to read bpf program: %w", err)
		}
		raw, err := filter.ParseDD(string(text))
		if err != nil {
			return nil, fmt.Errorf("bpf program %s: %w", inspectBPF, err)
		}
		prog, err := filter.NewBPFRaw(raw)
		if err != nil {
			return nil, err
		}
		filters = append(filters, prog)
	}
	return filters, nil
}

func runInspectCommand(cmd *cobra.Command, path string) error {
	filters, err := buildFilters()
	if err != nil {
		return err
	}
	counter := filter.NewCounterFilter(nil)
	filters = append([]filter.Filter{counter}, filters...)

	sinks := []capture.Sink{capture.NewConsoleSink(cmd.OutOrStdout(), inspectHex)}
	var sendErr error
	chain := filter.NewChain(func(p *packet.Packet) {
		for _, s := range sinks {
			if err := s.Send(p); err != nil && sendErr == nil {
				sendErr = err
			}
		}
	}, filters...)

	opts := []capture.SourceOption{capture.WithBufferOptions(cfg.BufferOptions(allocator)...)}
	if cfg.Capture.Borrow && inspectOutput == "" {
		opts = append(opts, capture.WithBorrow())
	}

	var out *capture.FileSink
	matched := 0
	_, err = capture.ReadFile(cmd.Context(), path, func(pb *packetbuf.PacketBuffer) error {
		if inspectOutput != "" && out == nil {
			format, err := capture.ParseFormat(cfg.Capture.Format)
			if err != nil {
				return err
			}
			if out, err = capture.CreateFile(inspectOutput, format, pb.LinkType()); err != nil {
				return err
			}
			sinks = append(sinks, out)
		}
		p, err := packet.Decode(pb, pb.Owning())
		if err != nil {
			return err
		}
		defer p.Close()
		if chain.Filter(p) {
			matched++
		}
		return sendErr
	}, opts...)
	if out != nil {
		if cerr := out.Close(); err == nil {
			err = cerr
		}
	}
	if err != nil {
		return err
	}

	log.GetLogger().WithField("path", path).WithField("packets", counter.Seen()).Debug("capture inspected")
	fmt.Fprintf(cmd.OutOrStdout(), "%d packet(s), %d shown\n", counter.Seen(), matched)
	return nil
}
