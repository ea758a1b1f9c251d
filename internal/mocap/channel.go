package mocap

import (
	"fmt"
	"sync"
)

// DefaultHistoryCap is the number of samples a Channel retains before
// evicting the oldest.
const DefaultHistoryCap = 1024

// SensorID names one physical sensor stream.
type SensorID struct {
	DeviceID string `json:"device_id"`
	Index    int    `json:"index"`
}

func (id SensorID) String() string {
	return fmt.Sprintf("%s/%d", id.DeviceID, id.Index)
}

// Channel buffers the samples of a single sensor. Ingest may be called from
// any goroutine; Commit and Window belong to the tick goroutine.
type Channel struct {
	id  SensorID
	cap int

	mu      sync.Mutex
	staging []Sample

	history  []Sample
	newCount int
}

// NewChannel creates a channel for id retaining at most historyCap samples.
// A non-positive cap falls back to DefaultHistoryCap.
func NewChannel(id SensorID, historyCap int) *Channel {
	if historyCap <= 0 {
		historyCap = DefaultHistoryCap
	}
	return &Channel{
		id:      id,
		cap:     historyCap,
		history: make([]Sample, 0, historyCap),
	}
}

// ID returns the sensor identity.
func (c *Channel) ID() SensorID { return c.id }

// Same reports whether the channel belongs to (deviceID, index).
func (c *Channel) Same(deviceID string, index int) bool {
	return c.id.DeviceID == deviceID && c.id.Index == index
}

// Cap returns the history cap.
func (c *Channel) Cap() int { return c.cap }

// Ingest stages a sample for the next Commit.
func (c *Channel) Ingest(s Sample) {
	c.mu.Lock()
	c.staging = append(c.staging, s)
	c.mu.Unlock()
}

// Pending returns the number of staged samples.
func (c *Channel) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.staging)
}

// Commit moves staged samples into history, trims history to the cap and
// records how many samples arrived this tick.
func (c *Channel) Commit() {
	c.mu.Lock()
	staged := c.staging
	c.staging = nil
	c.mu.Unlock()

	c.history = append(c.history, staged...)
	if over := len(c.history) - c.cap; over > 0 {
		// Shift in place so the backing array does not grow without bound.
		n := copy(c.history, c.history[over:])
		c.history = c.history[:n]
	}
	c.newCount = len(staged)
}

// NewSampleCount is the number of samples moved by the last Commit.
func (c *Channel) NewSampleCount() int { return c.newCount }

// Len returns the history length.
func (c *Channel) Len() int { return len(c.history) }

// Window returns a copy of the last min(n, Len()) samples, oldest first.
func (c *Channel) Window(n int) []Sample {
	if n <= 0 {
		return nil
	}
	if n > len(c.history) {
		n = len(c.history)
	}
	out := make([]Sample, n)
	copy(out, c.history[len(c.history)-n:])
	return out
}
