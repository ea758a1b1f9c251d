package network

import (
	"fmt"
	"sync"
	"time"

	"github.com/banshee-data/motus/internal/monitoring"
)

// PacketStatsInterface is what the listener and forwarder report into.
type PacketStatsInterface interface {
	AddPacket(bytes int)
	AddReadings(count int)
	AddDecodeError()
	AddDropped()
	AddSent(count int)
	LogStats()
}

// PacketStats accumulates transport counters between LogStats calls.
type PacketStats struct {
	mu           sync.Mutex
	packetCount  int64
	byteCount    int64
	readingCount int64
	decodeErrors int64
	droppedCount int64
	sentCount    int64
	lastReset    time.Time
}

// NewPacketStats creates an empty counter set.
func NewPacketStats() *PacketStats {
	return &PacketStats{lastReset: time.Now()}
}

func (ps *PacketStats) AddPacket(bytes int) {
	ps.mu.Lock()
	ps.packetCount++
	ps.byteCount += int64(bytes)
	ps.mu.Unlock()
}

func (ps *PacketStats) AddReadings(count int) {
	ps.mu.Lock()
	ps.readingCount += int64(count)
	ps.mu.Unlock()
}

func (ps *PacketStats) AddDecodeError() {
	ps.mu.Lock()
	ps.decodeErrors++
	ps.mu.Unlock()
}

func (ps *PacketStats) AddDropped() {
	ps.mu.Lock()
	ps.droppedCount++
	ps.mu.Unlock()
}

func (ps *PacketStats) AddSent(count int) {
	ps.mu.Lock()
	ps.sentCount += int64(count)
	ps.mu.Unlock()
}

// StatsSnapshot is a copy of the counters over one interval.
type StatsSnapshot struct {
	Packets      int64
	Bytes        int64
	Readings     int64
	DecodeErrors int64
	Dropped      int64
	Sent         int64
	Duration     time.Duration
}

// GetAndReset returns the counters and starts a new interval.
func (ps *PacketStats) GetAndReset() StatsSnapshot {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	now := time.Now()
	s := StatsSnapshot{
		Packets:      ps.packetCount,
		Bytes:        ps.byteCount,
		Readings:     ps.readingCount,
		DecodeErrors: ps.decodeErrors,
		Dropped:      ps.droppedCount,
		Sent:         ps.sentCount,
		Duration:     now.Sub(ps.lastReset),
	}
	ps.packetCount, ps.byteCount, ps.readingCount = 0, 0, 0
	ps.decodeErrors, ps.droppedCount, ps.sentCount = 0, 0, 0
	ps.lastReset = now
	return s
}

// LogStats logs per-second rates for the interval and resets the counters.
// Quiet intervals are not logged.
func (ps *PacketStats) LogStats() {
	if msg := ps.GetAndReset().String(); msg != "" {
		monitoring.Logf("%s", msg)
	}
}

func (s StatsSnapshot) String() string {
	if s.Packets == 0 && s.Dropped == 0 && s.Sent == 0 {
		return ""
	}
	secs := s.Duration.Seconds()
	if secs <= 0 {
		secs = 1
	}
	msg := fmt.Sprintf("OSC stats (/sec): %.1f packets in, %.1f readings, %.1f messages out",
		float64(s.Packets)/secs, float64(s.Readings)/secs, float64(s.Sent)/secs)
	if s.DecodeErrors > 0 {
		msg += fmt.Sprintf(", %d undecodable", s.DecodeErrors)
	}
	if s.Dropped > 0 {
		msg += fmt.Sprintf(", %d dropped", s.Dropped)
	}
	return msg
}

// noopStats is used when no collector is supplied.
type noopStats struct{}

func (noopStats) AddPacket(int)   {}
func (noopStats) AddReadings(int) {}
func (noopStats) AddDecodeError() {}
func (noopStats) AddDropped()     {}
func (noopStats) AddSent(int)     {}
func (noopStats) LogStats()       {}
