package network

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"

	"github.com/banshee-data/motus/internal/monitoring"
)

// PacketHandler consumes one UDP payload. *UDPListener satisfies it.
type PacketHandler interface {
	HandlePacket(packet []byte) error
}

// ReplayOptions controls pcap replay.
type ReplayOptions struct {
	// Port selects UDP datagrams by destination port. Zero accepts all.
	Port int
	// Realtime sleeps between packets to reproduce the capture's pacing.
	Realtime bool
}

// ReplayResult summarises a replay.
type ReplayResult struct {
	Packets  int
	Handled  int
	Failures int
	Elapsed  time.Duration
}

// ReplayPCAPFile feeds the UDP payloads of a classic pcap capture to h.
func ReplayPCAPFile(ctx context.Context, path string, h PacketHandler, opts ReplayOptions) (ReplayResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return ReplayResult{}, fmt.Errorf("failed to open PCAP file %s: %w", path, err)
	}
	defer f.Close()
	return ReplayPCAP(ctx, f, h, opts)
}

// ReplayPCAP feeds the UDP payloads read from r to h. It returns at end of
// input or when ctx is cancelled.
func ReplayPCAP(ctx context.Context, r io.Reader, h PacketHandler, opts ReplayOptions) (ReplayResult, error) {
	var res ReplayResult

	reader, err := pcapgo.NewReader(r)
	if err != nil {
		return res, fmt.Errorf("failed to read PCAP header: %w", err)
	}
	if opts.Port > 0 {
		monitoring.Logf("PCAP replay filtering on udp port %d", opts.Port)
	}

	start := time.Now()
	var prev time.Time
	for {
		if err := ctx.Err(); err != nil {
			monitoring.Logf("PCAP replay stopping due to context cancellation (processed %d packets)", res.Packets)
			res.Elapsed = time.Since(start)
			return res, err
		}

		data, ci, err := reader.ReadPacketData()
		if errors.Is(err, io.EOF) {
			res.Elapsed = time.Since(start)
			monitoring.Logf("PCAP replay complete: %d packets, %d delivered in %v", res.Packets, res.Handled, res.Elapsed)
			return res, nil
		}
		if err != nil {
			res.Elapsed = time.Since(start)
			return res, fmt.Errorf("failed to read PCAP packet %d: %w", res.Packets+1, err)
		}
		res.Packets++

		packet := gopacket.NewPacket(data, reader.LinkType(), gopacket.Default)
		udp, ok := packet.Layer(layers.LayerTypeUDP).(*layers.UDP)
		if !ok || len(udp.Payload) == 0 {
			continue
		}
		if opts.Port > 0 && int(udp.DstPort) != opts.Port {
			continue
		}

		if opts.Realtime && !prev.IsZero() {
			if gap := ci.Timestamp.Sub(prev); gap > 0 {
				if err := sleepCtx(ctx, gap); err != nil {
					res.Elapsed = time.Since(start)
					return res, err
				}
			}
		}
		prev = ci.Timestamp

		res.Handled++
		if err := h.HandlePacket(udp.Payload); err != nil {
			res.Failures++
			monitoring.Debugf("PCAP packet %d: %v", res.Packets, err)
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
