package mocap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fillChannel(ch *Channel, n int) {
	for i := 0; i < n; i++ {
		ch.Ingest(rampSample(float64(i)))
	}
	ch.Commit()
}

func TestEntity_GraphShape(t *testing.T) {
	ch := NewChannel(SensorID{"3", 3}, 0)
	e := NewEntity(0, ch, DefaultConfig())

	kinds := make([]NodeKind, 0, 4)
	for _, n := range e.Nodes() {
		kinds = append(kinds, n.Kind())
	}
	assert.Equal(t, []NodeKind{KindSource, KindAveraging, KindDerivative, KindDerivative}, kinds)
	assert.Same(t, ch, e.Source().Channel())
	assert.Same(t, ch, e.Channel())
	assert.Len(t, e.Trails(), 3)
}

func TestEntity_TickRunsChainInOrder(t *testing.T) {
	ch := NewChannel(SensorID{"3", 3}, 0)
	e := NewEntity(0, ch, DefaultConfig())
	fillChannel(ch, 50)

	e.Tick(1)

	assert.Len(t, e.Source().Output(), 48)
	assert.Len(t, e.Average().Output(), 48)
	// 47 steps → 94 interleaved differences → 92 rows.
	assert.Len(t, e.FirstDerivative().Output(), 92)
	assert.Len(t, e.SecondDerivative().Output(), 180)
}

func TestEntity_OutgoingConcatenatesInNodeOrder(t *testing.T) {
	ch := NewChannel(SensorID{"3", 3}, 0)
	e := NewEntity(0, ch, DefaultConfig())
	fillChannel(ch, 50)
	e.Tick(1)

	msgs := e.Outgoing()
	require.Len(t, msgs, 48+92+180)
	for i, m := range msgs {
		want := AddressDerivative
		if i < 48 {
			want = AddressPoints
		}
		require.Equal(t, want, m.Address, "message %d", i)
	}
}

func TestEntity_NoReplayWhenIdle(t *testing.T) {
	ch := NewChannel(SensorID{"3", 3}, 0)
	e := NewEntity(0, ch, DefaultConfig())
	fillChannel(ch, 50)
	e.Tick(1)
	require.NotEmpty(t, e.Outgoing())

	ch.Commit() // nothing staged
	e.Tick(2)
	assert.Empty(t, e.Outgoing())
	assert.Len(t, e.Average().Output(), 48, "idle ticks keep the last output")
}

func TestEntity_RecomputesIdleWhenSkipDisabled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SkipIdle = false
	ch := NewChannel(SensorID{"3", 3}, 0)
	e := NewEntity(0, ch, cfg)
	fillChannel(ch, 50)
	e.Tick(1)
	first := e.Outgoing()

	ch.Commit()
	e.Tick(2)
	assert.Equal(t, first, e.Outgoing())
}

func TestEntity_ShortHistoryEmitsNothing(t *testing.T) {
	ch := NewChannel(SensorID{"1", 1}, 0)
	e := NewEntity(0, ch, DefaultConfig())
	fillChannel(ch, 20)
	e.Tick(1)

	assert.Len(t, e.Source().Output(), 20)
	assert.Empty(t, e.Average().Output())
	assert.Empty(t, e.FirstDerivative().Output())
	assert.Empty(t, e.Outgoing())
}

func TestEntity_Trails(t *testing.T) {
	ch := NewChannel(SensorID{"3", 3}, 0)
	e := NewEntity(0, ch, DefaultConfig())
	fillChannel(ch, 50)
	e.Tick(1)

	trail := e.Trails()[0]
	assert.Equal(t, "average", trail.Name())
	pts := trail.Points()
	require.Len(t, pts, DefaultMaxDraw)
	last := e.Average().Output()[47]
	assert.Equal(t, last.Get(FieldAccelX), pts[len(pts)-1].X)
	assert.Equal(t, last.Get(FieldAccelZ), pts[len(pts)-1].Alpha)
}

func TestTrail_ClearsOnShortOutput(t *testing.T) {
	up := newStub(xRows(make([]float64, 30)...)...)
	tr := NewTrail("t", up, 25)
	tr.Update()
	require.Len(t, tr.Points(), 25)

	up.set(xRows(1, 2)...)
	tr.Update()
	assert.Empty(t, tr.Points())
}
