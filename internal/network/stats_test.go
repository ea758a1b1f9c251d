package network

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/banshee-data/motus/internal/monitoring"
)

func TestPacketStats_GetAndReset(t *testing.T) {
	ps := NewPacketStats()
	ps.AddPacket(100)
	ps.AddPacket(50)
	ps.AddReadings(3)
	ps.AddDecodeError()
	ps.AddDropped()
	ps.AddSent(7)

	s := ps.GetAndReset()
	assert.Equal(t, int64(2), s.Packets)
	assert.Equal(t, int64(150), s.Bytes)
	assert.Equal(t, int64(3), s.Readings)
	assert.Equal(t, int64(1), s.DecodeErrors)
	assert.Equal(t, int64(1), s.Dropped)
	assert.Equal(t, int64(7), s.Sent)

	after := ps.GetAndReset()
	after.Duration = 0
	assert.Equal(t, StatsSnapshot{}, after, "counters are zero after reset")
}

func TestStatsSnapshot_String(t *testing.T) {
	assert.Empty(t, StatsSnapshot{Duration: time.Second}.String())

	msg := StatsSnapshot{Packets: 10, Readings: 20, Sent: 5, DecodeErrors: 2, Dropped: 1, Duration: 2 * time.Second}.String()
	assert.Contains(t, msg, "5.0 packets in")
	assert.Contains(t, msg, "10.0 readings")
	assert.Contains(t, msg, "2.5 messages out")
	assert.Contains(t, msg, "2 undecodable")
	assert.Contains(t, msg, "1 dropped")
}

func TestPacketStats_LogStats(t *testing.T) {
	original := monitoring.Logf
	defer func() { monitoring.Logf = original }()
	var logged []string
	monitoring.SetLogger(func(format string, v ...interface{}) {
		logged = append(logged, fmt.Sprintf(format, v...))
	})

	ps := NewPacketStats()
	ps.LogStats()
	assert.Empty(t, logged, "quiet intervals are not logged")

	ps.AddPacket(10)
	ps.LogStats()
	assert.Len(t, logged, 1)
	assert.Contains(t, logged[0], "OSC stats")
}
