package network

import (
	"context"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/banshee-data/motus/internal/mocap"
	"github.com/banshee-data/motus/internal/monitoring"
	"github.com/banshee-data/motus/internal/osc"
)

// DefaultForwardBuffer is the number of datagrams the forwarder queues
// before dropping. Each active sensor emits 320 messages per tick, so this
// holds a full tick for a few dozen sensors.
const DefaultForwardBuffer = 8192

// MessageForwarder encodes pipeline messages as OSC and writes them to a
// UDP destination from its own goroutine. Send never blocks on the network.
type MessageForwarder struct {
	conn        io.WriteCloser
	channel     chan []byte
	stats       PacketStatsInterface
	logInterval time.Duration
	address     string

	closeOnce sync.Once
	done      chan struct{}
}

// NewMessageForwarder dials addr ("host:port") and returns a forwarder
// that is not yet started. bufferSize <= 0 means DefaultForwardBuffer.
func NewMessageForwarder(addr string, bufferSize int, stats PacketStatsInterface, logInterval time.Duration) (*MessageForwarder, error) {
	if addr == "" {
		addr = fmt.Sprintf("127.0.0.1:%d", DefaultForwardPort)
	}
	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve forward address: %w", err)
	}
	conn, err := net.DialUDP("udp", nil, udpAddr)
	if err != nil {
		return nil, fmt.Errorf("failed to create forward connection: %w", err)
	}
	return NewMessageForwarderWithConn(conn, addr, bufferSize, stats, logInterval), nil
}

// NewMessageForwarderWithConn builds a forwarder around an existing writer.
func NewMessageForwarderWithConn(conn io.WriteCloser, addr string, bufferSize int, stats PacketStatsInterface, logInterval time.Duration) *MessageForwarder {
	if bufferSize <= 0 {
		bufferSize = DefaultForwardBuffer
	}
	if stats == nil {
		stats = noopStats{}
	}
	if logInterval <= 0 {
		logInterval = time.Minute
	}
	return &MessageForwarder{
		conn:        conn,
		channel:     make(chan []byte, bufferSize),
		stats:       stats,
		logInterval: logInterval,
		address:     addr,
		done:        make(chan struct{}),
	}
}

// Address returns the destination.
func (f *MessageForwarder) Address() string { return f.address }

// Start runs the writer goroutine until ctx is cancelled or Close is
// called. Write failures are summarised once per log interval.
func (f *MessageForwarder) Start(ctx context.Context) {
	go func() {
		failed := 0
		var lastErr error
		ticker := time.NewTicker(f.logInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-f.done:
				return
			case packet := <-f.channel:
				if _, err := f.conn.Write(packet); err != nil {
					failed++
					lastErr = err
					continue
				}
				f.stats.AddSent(1)
			case <-ticker.C:
				if failed > 0 {
					monitoring.Logf("Dropped %d outbound OSC messages due to errors (latest: %v)", failed, lastErr)
					failed = 0
					lastErr = nil
				}
			}
		}
	}()

	monitoring.Logf("Forwarding OSC messages to %s", f.address)
}

// Send queues every message for delivery. Messages that do not fit in the
// queue are dropped and counted. The returned error reports encoding
// failures only.
func (f *MessageForwarder) Send(msgs []mocap.Message) error {
	packets, err := osc.EncodeAll(msgs)
	for _, p := range packets {
		select {
		case f.channel <- p:
		default:
			f.stats.AddDropped()
		}
	}
	return err
}

// Capacity returns the queue size.
func (f *MessageForwarder) Capacity() int { return cap(f.channel) }

// Pending returns the number of queued datagrams.
func (f *MessageForwarder) Pending() int { return len(f.channel) }

// Close stops the writer and closes the connection.
func (f *MessageForwarder) Close() error {
	var err error
	f.closeOnce.Do(func() {
		close(f.done)
		err = f.conn.Close()
	})
	return err
}
