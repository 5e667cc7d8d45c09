package capture

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"

	"firestige.xyz/pktforge/internal/packet"
)

// Sink consumes packets.
type Sink interface {
	Send(p *packet.Packet) error
	Close() error
}

type Format int

const (
	FormatPcap Format = iota
	FormatPcapNG
)

func (f Format) String() string {
	if f == FormatPcapNG {
		return "pcapng"
	}
	return "pcap"
}

func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "", "pcap":
		return FormatPcap, nil
	case "pcapng":
		return FormatPcapNG, nil
	default:
		return FormatPcap, fmt.Errorf("unknown capture format: %s (must be pcap or pcapng)", s)
	}
}

const DefaultSnaplen = 65535

// FileSink writes packets to a pcap or pcapng stream.
type FileSink struct {
	pcap   *pcapgo.Writer
	ng     *pcapgo.NgWriter
	closer io.Closer
	now    func() time.Time
	sent   int
}

// NewFileSink writes the file header for linkType to w.
func NewFileSink(w io.Writer, format Format, linkType layers.LinkType) (*FileSink, error) {
	s := &FileSink{now: time.Now}
	switch format {
	case FormatPcapNG:
		ng, err := pcapgo.NewNgWriter(w, linkType)
		if err != nil {
			return nil, fmt.Errorf("failed to write pcapng header: %w", err)
		}
		s.ng = ng
	default:
		pw := pcapgo.NewWriter(w)
		if err := pw.WriteFileHeader(DefaultSnaplen, linkType); err != nil {
			return nil, fmt.Errorf("failed to write pcap header: %w", err)
		}
		s.pcap = pw
	}
	return s, nil
}

// CreateFile creates path and returns a sink writing to it. Closing the
// sink closes the file.
func CreateFile(path string, format Format, linkType layers.LinkType) (*FileSink, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create capture file %s: %w", path, err)
	}
	s, err := NewFileSink(f, format, linkType)
	if err != nil {
		f.Close()
		return nil, err
	}
	s.closer = f
	return s, nil
}

// Send writes the packet's bytes with its capture metadata. A packet
// without a timestamp is stamped with the current time.
func (s *FileSink) Send(p *packet.Packet) error {
	ci := p.Buffer().CaptureInfo()
	if ci.Timestamp.IsZero() {
		ci.Timestamp = s.now()
	}
	var err error
	if s.ng != nil {
		err = s.ng.WritePacket(ci, p.Data())
	} else {
		err = s.pcap.WritePacket(ci, p.Data())
	}
	if err != nil {
		return fmt.Errorf("failed to write packet %d: %w", s.sent+1, err)
	}
	s.sent++
	return nil
}

func (s *FileSink) Sent() int { return s.sent }

func (s *FileSink) Close() error {
	var err error
	if s.ng != nil {
		err = s.ng.Flush()
	}
	if s.closer != nil {
		if cerr := s.closer.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
