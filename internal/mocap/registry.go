package mocap

import "github.com/banshee-data/motus/internal/monitoring"

// Registry maps sensor identities to channels and their entities.
// sensors[i] and entities[i] always belong together. Lookup is a linear scan;
// installations run a handful of sensors.
type Registry struct {
	cfg      Config
	sensors  []*Channel
	entities []*Entity
}

// NewRegistry creates an empty registry whose channels and entities are built
// with cfg.
func NewRegistry(cfg Config) *Registry {
	return &Registry{cfg: cfg.withDefaults()}
}

// Resolve returns the channel for (deviceID, index), creating the channel and
// its entity on first contact.
func (r *Registry) Resolve(deviceID string, index int) *Channel {
	if i := r.find(deviceID, index); i >= 0 {
		return r.sensors[i]
	}

	ch := NewChannel(SensorID{DeviceID: deviceID, Index: index}, r.cfg.HistoryCap)
	r.sensors = append(r.sensors, ch)
	ent := NewEntity(len(r.sensors)-1, ch, r.cfg)
	r.entities = append(r.entities, ent)
	monitoring.Logf("mocap: new sensor %s bound to entity %d", ch.ID(), ent.ID())
	return ch
}

// Lookup returns the entity for (deviceID, index) without creating one.
func (r *Registry) Lookup(deviceID string, index int) (*Entity, bool) {
	i := r.find(deviceID, index)
	if i < 0 {
		return nil, false
	}
	return r.entities[i], true
}

// EntityFor returns the entity bound to ch.
func (r *Registry) EntityFor(ch *Channel) (*Entity, bool) {
	for i, c := range r.sensors {
		if c == ch {
			return r.entities[i], true
		}
	}
	return nil, false
}

// Len returns the number of known sensors.
func (r *Registry) Len() int { return len(r.sensors) }

// Channels returns the channels in creation order.
func (r *Registry) Channels() []*Channel {
	out := make([]*Channel, len(r.sensors))
	copy(out, r.sensors)
	return out
}

// Entities returns the entities in creation order.
func (r *Registry) Entities() []*Entity {
	out := make([]*Entity, len(r.entities))
	copy(out, r.entities)
	return out
}

func (r *Registry) find(deviceID string, index int) int {
	for i, ch := range r.sensors {
		if ch.Same(deviceID, index) {
			return i
		}
	}
	return -1
}
