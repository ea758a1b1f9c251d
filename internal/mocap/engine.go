package mocap

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/banshee-data/motus/internal/monitoring"
)

// Sender delivers outbound messages, typically over UDP.
type Sender interface {
	Send(msgs []Message) error
}

// EngineStats counts what the engine has processed since start.
type EngineStats struct {
	Ticks    uint64
	Readings uint64
	Dropped  uint64
	Messages uint64
	Sensors  int
}

// Engine runs the per-tick cycle: drain inbound readings into their channels,
// commit every channel and tick every entity, then dispatch the messages.
// Step must be called from a single goroutine.
type Engine struct {
	registry *Registry
	queue    *Queue
	sender   Sender

	ticks    atomic.Uint64
	readings atomic.Uint64
	messages atomic.Uint64
	sensors  atomic.Int64

	snapMu   sync.RWMutex
	snapshot []EntitySnapshot
}

// EntitySnapshot is a read-only copy of an entity's state taken at the end of
// a tick, for consumers outside the tick goroutine.
type EntitySnapshot struct {
	ID         int                     `json:"id"`
	Sensor     SensorID                `json:"sensor"`
	HistoryLen int                     `json:"history_len"`
	NewSamples int                     `json:"new_samples"`
	OutputLens map[string]int          `json:"output_lens"`
	Trails     map[string][]TrailPoint `json:"trails"`
}

// NewEngine wires a registry built from cfg to queue. sender may be nil, in
// which case Step only returns the messages.
func NewEngine(cfg Config, queue *Queue, sender Sender) *Engine {
	cfg = cfg.withDefaults()
	if queue == nil {
		queue = NewQueue(cfg.QueueCapacity)
	}
	return &Engine{
		registry: NewRegistry(cfg),
		queue:    queue,
		sender:   sender,
	}
}

// Registry exposes the registry. Only touch it from the tick goroutine.
func (e *Engine) Registry() *Registry { return e.registry }

// Queue returns the inbound queue transports push into.
func (e *Engine) Queue() *Queue { return e.queue }

// Step runs one tick at host time elapsed (seconds) and returns the messages
// produced.
func (e *Engine) Step(elapsed float64) []Message {
	readings := e.queue.Drain()
	for _, r := range readings {
		ch := e.registry.Resolve(r.DeviceID, r.Index)
		ch.Ingest(r.Sample(elapsed))
	}
	e.readings.Add(uint64(len(readings)))

	for _, ch := range e.registry.sensors {
		ch.Commit()
	}
	var msgs []Message
	for _, ent := range e.registry.entities {
		ent.Tick(elapsed)
		msgs = append(msgs, ent.Outgoing()...)
	}

	e.ticks.Add(1)
	e.messages.Add(uint64(len(msgs)))
	e.sensors.Store(int64(e.registry.Len()))
	e.takeSnapshot()

	if e.sender != nil && len(msgs) > 0 {
		if err := e.sender.Send(msgs); err != nil {
			monitoring.Logf("mocap: failed to send %d messages: %v", len(msgs), err)
		}
	}
	return msgs
}

func (e *Engine) takeSnapshot() {
	snaps := make([]EntitySnapshot, 0, len(e.registry.entities))
	for _, ent := range e.registry.entities {
		snap := EntitySnapshot{
			ID:         ent.ID(),
			Sensor:     ent.Channel().ID(),
			HistoryLen: ent.Channel().Len(),
			NewSamples: ent.Channel().NewSampleCount(),
			OutputLens: make(map[string]int, len(ent.Nodes())),
			Trails:     make(map[string][]TrailPoint, len(ent.Trails())),
		}
		for i, n := range ent.Nodes() {
			snap.OutputLens[nodeLabel(i, n)] = len(n.Output())
		}
		for _, t := range ent.Trails() {
			snap.Trails[t.Name()] = t.Points()
		}
		snaps = append(snaps, snap)
	}
	e.snapMu.Lock()
	e.snapshot = snaps
	e.snapMu.Unlock()
}

// Snapshot returns the entity states as of the last Step. Safe from any
// goroutine.
func (e *Engine) Snapshot() []EntitySnapshot {
	e.snapMu.RLock()
	defer e.snapMu.RUnlock()
	out := make([]EntitySnapshot, len(e.snapshot))
	copy(out, e.snapshot)
	return out
}

func nodeLabel(pos int, n Node) string {
	if n.Kind() == KindDerivative {
		return fmt.Sprintf("%s%d", n.Kind(), pos-1)
	}
	return n.Kind().String()
}

// Stats returns a snapshot of the counters. Safe from any goroutine.
func (e *Engine) Stats() EngineStats {
	return EngineStats{
		Ticks:    e.ticks.Load(),
		Readings: e.readings.Load(),
		Dropped:  e.queue.Dropped(),
		Messages: e.messages.Load(),
		Sensors:  int(e.sensors.Load()),
	}
}

// LogStats writes the counters through the package logger.
func (e *Engine) LogStats() {
	s := e.Stats()
	monitoring.Logf("mocap: ticks=%d readings=%d dropped=%d messages=%d sensors=%d",
		s.Ticks, s.Readings, s.Dropped, s.Messages, s.Sensors)
}
