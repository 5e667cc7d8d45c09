// Package capture moves packets between pcap/pcapng files and PacketBuffers.
// Files are read and written with gopacket's pure Go pcapgo codecs.
package capture

import (
	"bufio"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"

	"firestige.xyz/pktforge/internal/core/packetbuf"
	"firestige.xyz/pktforge/internal/log"
)

const pcapngMagic = 0x0A0D0D0A

type packetReader interface {
	ZeroCopyReadPacketData() ([]byte, gopacket.CaptureInfo, error)
	LinkType() layers.LinkType
}

type FileSource struct {
	path    string
	borrow  bool
	bufOpts []packetbuf.Option

	file   *os.File
	reader packetReader
	format Format
	read   int
}

type SourceOption func(*FileSource)

// WithBufferOptions configures the PacketBuffers the source produces.
func WithBufferOptions(opts ...packetbuf.Option) SourceOption {
	return func(s *FileSource) { s.bufOpts = append(s.bufOpts, opts...) }
}

// WithBorrow makes Next return buffers that borrow the reader's memory
// instead of copying it. A borrowed buffer is only valid until the next
// call to Next.
func WithBorrow() SourceOption {
	return func(s *FileSource) { s.borrow = true }
}

func NewFileSource(path string, opts ...SourceOption) (*FileSource, error) {
	if path == "" {
		return nil, fmt.Errorf("file path is required")
	}
	s := &FileSource{path: path}
	for _, o := range opts {
		o(s)
	}
	return s, nil
}

// Start opens the file and detects whether it is pcap or pcapng.
func (s *FileSource) Start(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f, err := os.Open(s.path)
	if err != nil {
		return fmt.Errorf("failed to open capture file %s: %w", s.path, err)
	}
	br := bufio.NewReader(f)
	magic, err := br.Peek(4)
	if err != nil {
		f.Close()
		return fmt.Errorf("failed to read capture file %s: %w", s.path, err)
	}

	if binary.LittleEndian.Uint32(magic) == pcapngMagic {
		s.format = FormatPcapNG
		s.reader, err = pcapgo.NewNgReader(br, pcapgo.DefaultNgReaderOptions)
	} else {
		s.format = FormatPcap
		s.reader, err = pcapgo.NewReader(br)
	}
	if err != nil {
		f.Close()
		return fmt.Errorf("failed to open capture file %s: %w", s.path, err)
	}
	s.file = f
	log.GetLogger().WithField("path", s.path).
		WithField("format", s.format.String()).
		WithField("link_type", s.reader.LinkType().String()).
		Debug("capture file opened")
	return nil
}

// Next returns the next packet, or io.EOF after the last one.
func (s *FileSource) Next() (*packetbuf.PacketBuffer, error) {
	if s.reader == nil {
		return nil, fmt.Errorf("file source not started")
	}
	data, ci, err := s.reader.ZeroCopyReadPacketData()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("failed to read packet %d: %w", s.read+1, err)
	}
	s.read++

	if s.borrow {
		return packetbuf.FromCapture(data, ci, s.reader.LinkType(), false, s.bufOpts...)
	}
	pb := packetbuf.New(s.bufOpts...)
	if err := pb.AppendBytes(data); err != nil {
		return nil, fmt.Errorf("failed to copy packet %d: %w", s.read, err)
	}
	pb.SetTimestamp(ci.Timestamp)
	pb.SetLinkType(s.reader.LinkType())
	pb.SetFrameLength(ci.Length)
	return pb, nil
}

func (s *FileSource) LinkType() layers.LinkType {
	if s.reader == nil {
		return layers.LinkTypeEthernet
	}
	return s.reader.LinkType()
}

func (s *FileSource) Format() Format { return s.format }

// Read returns the number of packets returned so far.
func (s *FileSource) Read() int { return s.read }

func (s *FileSource) Stop() error {
	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file, s.reader = nil, nil
	return err
}

// ReadFile calls fn for every packet in the file at path and returns the
// number of packets read. fn owns each buffer unless WithBorrow is given.
func ReadFile(ctx context.Context, path string, fn func(*packetbuf.PacketBuffer) error, opts ...SourceOption) (int, error) {
	s, err := NewFileSource(path, opts...)
	if err != nil {
		return 0, err
	}
	if err := s.Start(ctx); err != nil {
		return 0, err
	}
	defer s.Stop()

	for {
		if err := ctx.Err(); err != nil {
			return s.Read(), err
		}
		pb, err := s.Next()
		if errors.Is(err, io.EOF) {
			return s.Read(), nil
		}
		if err != nil {
			return s.Read(), err
		}
		if err := fn(pb); err != nil {
			return s.Read(), err
		}
	}
}
