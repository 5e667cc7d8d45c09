package capture

import (
	"fmt"
	"io"

	"firestige.xyz/pktforge/internal/packet"
)

// ConsoleSink prints one line per packet: sequence number, timestamp,
// captured and wire length, and the layer layout.
type ConsoleSink struct {
	w       io.Writer
	seq     int
	hexdump bool
}

func NewConsoleSink(w io.Writer, hexdump bool) *ConsoleSink {
	return &ConsoleSink{w: w, hexdump: hexdump}
}

func (s *ConsoleSink) Send(p *packet.Packet) error {
	s.seq++
	pb := p.Buffer()
	_, err := fmt.Fprintf(s.w, "#%d %s len=%d/%d %s\n",
		s.seq, pb.Timestamp().UTC().Format("2006-01-02T15:04:05.000000Z"),
		pb.Len(), pb.FrameLength(), p)
	if err != nil || !s.hexdump {
		return err
	}
	_, err = fmt.Fprintf(s.w, "% x\n", p.Data())
	return err
}

func (s *ConsoleSink) Close() error {
	return nil
}
