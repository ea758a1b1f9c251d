package mocap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_ResolveSameIdentity(t *testing.T) {
	r := NewRegistry(DefaultConfig())

	a := r.Resolve("3", 3)
	b := r.Resolve("3", 3)
	assert.Same(t, a, b)
	assert.Equal(t, 1, r.Len())

	e1, ok := r.EntityFor(a)
	require.True(t, ok)
	e2, ok := r.Lookup("3", 3)
	require.True(t, ok)
	assert.Same(t, e1, e2)
	assert.Same(t, a, e1.Channel())
}

func TestRegistry_DistinctIdentitiesNeverAlias(t *testing.T) {
	r := NewRegistry(DefaultConfig())
	ids := []SensorID{{"3", 3}, {"3", 4}, {"4", 3}, {"7", 7}, {"", 0}}

	chans := make([]*Channel, len(ids))
	for i, id := range ids {
		chans[i] = r.Resolve(id.DeviceID, id.Index)
	}
	require.Equal(t, len(ids), r.Len())

	for i := range chans {
		for j := range chans {
			if i != j {
				assert.NotSame(t, chans[i], chans[j], "%v aliases %v", ids[i], ids[j])
			}
		}
	}
}

func TestRegistry_ParallelOrdering(t *testing.T) {
	r := NewRegistry(DefaultConfig())
	r.Resolve("a", 0)
	r.Resolve("b", 1)
	r.Resolve("a", 0)
	r.Resolve("c", 2)

	chans := r.Channels()
	ents := r.Entities()
	require.Len(t, chans, 3)
	require.Len(t, ents, 3)
	for i := range chans {
		assert.Equal(t, i, ents[i].ID())
		assert.Same(t, chans[i], ents[i].Channel())
	}
	assert.Equal(t, "c", chans[2].ID().DeviceID)
}

func TestRegistry_LookupUnknown(t *testing.T) {
	r := NewRegistry(DefaultConfig())
	_, ok := r.Lookup("nope", 1)
	assert.False(t, ok)
	_, ok = r.EntityFor(NewChannel(SensorID{"x", 1}, 0))
	assert.False(t, ok)
	assert.Equal(t, 0, r.Len(), "Lookup must not create state")
}

func TestRegistry_UsesHistoryCap(t *testing.T) {
	cfg := DefaultConfig()
	cfg.HistoryCap = 16
	r := NewRegistry(cfg)
	assert.Equal(t, 16, r.Resolve("a", 1).Cap())
}
