// Package network carries OSC datagrams between the pipeline and the
// outside world: the inbound listener, the outbound forwarder and pcap
// replay.
package network

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/banshee-data/motus/internal/mocap"
	"github.com/banshee-data/motus/internal/monitoring"
)

// Default ports used by the installation.
const (
	DefaultListenPort  = 8887
	DefaultForwardPort = 8888
)

// PacketDecoder turns one datagram into readings. A decoder may return
// readings together with an error when only part of a packet routes.
type PacketDecoder interface {
	Decode(packet []byte) ([]mocap.Reading, error)
}

// ReadingSink accepts decoded readings. Push returns false when the
// reading was dropped.
type ReadingSink interface {
	Push(r mocap.Reading) bool
}

// UDPListener receives OSC datagrams and hands decoded readings to a sink.
type UDPListener struct {
	address       string
	rcvBuf        int
	logInterval   time.Duration
	conn          UDPSocket
	stats         PacketStatsInterface
	decoder       PacketDecoder
	sink          ReadingSink
	socketFactory UDPSocketFactory
}

// UDPListenerConfig contains configuration options for the UDP listener.
type UDPListenerConfig struct {
	Address       string
	RcvBuf        int
	LogInterval   time.Duration
	Stats         PacketStatsInterface
	Decoder       PacketDecoder
	Sink          ReadingSink
	SocketFactory UDPSocketFactory
}

// NewUDPListener creates a listener. Missing stats, address, interval and
// socket factory fall back to defaults.
func NewUDPListener(config UDPListenerConfig) *UDPListener {
	stats := config.Stats
	if stats == nil {
		stats = noopStats{}
	}
	logInterval := config.LogInterval
	if logInterval == 0 {
		logInterval = time.Minute
	}
	address := config.Address
	if address == "" {
		address = fmt.Sprintf(":%d", DefaultListenPort)
	}
	factory := config.SocketFactory
	if factory == nil {
		factory = RealUDPSocketFactory{}
	}
	return &UDPListener{
		address:       address,
		rcvBuf:        config.RcvBuf,
		logInterval:   logInterval,
		stats:         stats,
		decoder:       config.Decoder,
		sink:          config.Sink,
		socketFactory: factory,
	}
}

// Address returns the configured listen address.
func (l *UDPListener) Address() string { return l.address }

// Start listens until ctx is cancelled. It returns ctx.Err() on shutdown.
func (l *UDPListener) Start(ctx context.Context) error {
	addr, err := net.ResolveUDPAddr("udp", l.address)
	if err != nil {
		return fmt.Errorf("failed to resolve UDP address: %w", err)
	}

	conn, err := l.socketFactory.ListenUDP("udp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on UDP address: %w", err)
	}
	l.conn = conn
	defer conn.Close()

	if l.rcvBuf > 0 {
		if err := conn.SetReadBuffer(l.rcvBuf); err != nil {
			monitoring.Logf("Warning: failed to set UDP receive buffer size to %d: %v", l.rcvBuf, err)
		}
	}

	monitoring.Logf("OSC listener started on %s with receive buffer %d bytes", l.address, l.rcvBuf)

	go l.startStatsLogging(ctx)

	buffer := make([]byte, 65536)
	for {
		select {
		case <-ctx.Done():
			monitoring.Logf("OSC listener stopping due to context cancellation")
			return ctx.Err()
		default:
		}

		if err := conn.SetReadDeadline(time.Now().Add(100 * time.Millisecond)); err != nil {
			monitoring.Debugf("failed to set read deadline: %v", err)
		}

		n, from, err := conn.ReadFromUDP(buffer)
		if err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			monitoring.Logf("UDP read error: %v", err)
			continue
		}

		if err := l.HandlePacket(buffer[:n]); err != nil {
			monitoring.Debugf("bad packet from %v: %v", from, err)
		}
	}
}

func (l *UDPListener) startStatsLogging(ctx context.Context) {
	ticker := time.NewTicker(l.logInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.stats.LogStats()
		}
	}
}

// HandlePacket decodes one datagram and pushes every reading it carries.
// Readings that decoded are delivered even when the returned error is
// non-nil.
func (l *UDPListener) HandlePacket(packet []byte) error {
	l.stats.AddPacket(len(packet))
	if l.decoder == nil {
		return nil
	}

	readings, err := l.decoder.Decode(packet)
	if err != nil {
		l.stats.AddDecodeError()
	}
	l.stats.AddReadings(len(readings))

	if l.sink != nil {
		for _, r := range readings {
			if !l.sink.Push(r) {
				l.stats.AddDropped()
			}
		}
	}
	return err
}

// Close releases the socket.
func (l *UDPListener) Close() error {
	if l.conn != nil {
		return l.conn.Close()
	}
	return nil
}
