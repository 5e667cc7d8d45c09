package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/gopacket/layers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"firestige.xyz/pktforge/internal/core"
	"firestige.xyz/pktforge/internal/core/alloc"
	"firestige.xyz/pktforge/internal/core/buffer"
	"firestige.xyz/pktforge/internal/core/packetbuf"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pktforge.yml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}
	return path
}

func TestLoadValidConfig(t *testing.T) {
	path := writeConfig(t, `
pktforge:
  log:
    level: "debug"
    appenders:
      - type: "stderr"
      - type: "file"
        file:
          filename: "/tmp/pktforge.log"
          max_size: 10
  buffer:
    variant: "capacity"
    growth: "exact"
  allocator:
    type: "pool"
    budget: 1048576
    instrument: true
  capture:
    format: "pcapng"
    link_type: "raw"
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	require.Len(t, cfg.Log.Appenders, 2)
	assert.Equal(t, "stderr", cfg.Log.Appenders[0].Type)
	assert.Equal(t, "/tmp/pktforge.log", cfg.Log.Appenders[1].File.Filename)
	assert.Equal(t, 10, cfg.Log.Appenders[1].File.MaxSize)
	assert.Equal(t, "capacity", cfg.Buffer.Variant)
	assert.Equal(t, "exact", cfg.Buffer.Growth)
	assert.Equal(t, "pool", cfg.Allocator.Type)
	assert.Equal(t, 1048576, cfg.Allocator.Budget)
	assert.True(t, cfg.Allocator.Instrument)
	assert.Equal(t, "pktforge", cfg.Allocator.Name)
	assert.Equal(t, "pcapng", cfg.Capture.Format)
	assert.Equal(t, "raw", cfg.Capture.LinkType)
	// Defaults fill what the file leaves out.
	assert.NotEmpty(t, cfg.Log.Pattern)
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	require.Len(t, cfg.Log.Appenders, 1)
	assert.Equal(t, "stdout", cfg.Log.Appenders[0].Type)
	assert.Equal(t, "length", cfg.Buffer.Variant)
	assert.Equal(t, "heap", cfg.Allocator.Type)
	assert.Equal(t, 0, cfg.Allocator.Budget)
	assert.Equal(t, "pcap", cfg.Capture.Format)
	assert.Equal(t, "ethernet", cfg.Capture.LinkType)
	assert.Equal(t, cfg, Default())
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("PKTFORGE_LOG_LEVEL", "warn")
	t.Setenv("PKTFORGE_ALLOCATOR_TYPE", "pool")
	path := writeConfig(t, `
pktforge:
  log:
    level: "debug"
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "pool", cfg.Allocator.Type)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yml"))
	assert.Error(t, err)
}

func TestValidationReportsEveryProblem(t *testing.T) {
	path := writeConfig(t, `
pktforge:
  log:
    level: "loud"
    appenders:
      - type: "file"
      - type: "kafka"
  buffer:
    variant: "ring"
    growth: "triple"
  allocator:
    type: "slab"
    budget: -1
  capture:
    format: "erf"
    link_type: "token-ring"
`)
	_, err := Load(path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrConfigInvalid))
	for _, want := range []string{
		"log level", "requires filename", `unknown type "kafka"`, "buffer.variant", "buffer.growth",
		"allocator.type", "allocator.budget", "capture.format", "capture.link_type",
	} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestNewAllocatorChain(t *testing.T) {
	cfg := Default()
	assert.Equal(t, alloc.Heap(), cfg.NewAllocator())

	cfg.Allocator.Type = "pool"
	assert.IsType(t, &alloc.Pool{}, cfg.NewAllocator())

	cfg.Allocator.Budget = 128
	limited, ok := cfg.NewAllocator().(*alloc.Limited)
	require.True(t, ok)
	assert.Equal(t, 128, limited.Budget())

	cfg.Allocator.Instrument = true
	cfg.Allocator.Name = "test-config"
	inst, ok := cfg.NewAllocator().(*alloc.Instrumented)
	require.True(t, ok)
	assert.Equal(t, "test-config", inst.Name())
}

func TestBufferOptions(t *testing.T) {
	cfg := Default()
	pb := packetbuf.New(cfg.BufferOptions(cfg.NewAllocator())...)
	assert.Equal(t, buffer.LengthOnly, pb.Variant())

	cfg.Buffer.Variant = "capacity"
	cfg.Buffer.Growth = "double"
	pb = packetbuf.New(cfg.BufferOptions(cfg.NewAllocator())...)
	assert.Equal(t, buffer.CapacityAware, pb.Variant())
	require.NoError(t, pb.Append(10))
	require.NoError(t, pb.Append(1))
	assert.Equal(t, 20, pb.Cap())
}

func TestParseLinkType(t *testing.T) {
	tests := []struct {
		input string
		want  layers.LinkType
		ok    bool
	}{
		{"ethernet", layers.LinkTypeEthernet, true},
		{"Linux_SLL", layers.LinkTypeLinuxSLL, true},
		{"101", layers.LinkType(101), true},
		{"token-ring", 0, false},
		{"300", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseLinkType(tt.input)
			if tt.ok {
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			} else {
				assert.Error(t, err)
			}
		})
	}
}
