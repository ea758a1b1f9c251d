package mocap

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/motus/internal/timeutil"
)

func TestEngine_RunStepsOnTicks(t *testing.T) {
	clock := timeutil.NewMockClock(time.Unix(1000, 0))
	eng := NewEngine(DefaultConfig(), nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- eng.Run(ctx, clock, 20*time.Millisecond) }()

	require.Eventually(t, func() bool { return clock.TickerCount() == 1 }, time.Second, time.Millisecond)

	eng.Queue().Push(Reading{DeviceID: "1", Index: 1, AccelX: 1})
	clock.Advance(20 * time.Millisecond)
	require.Eventually(t, func() bool { return eng.Stats().Ticks == 1 }, time.Second, time.Millisecond)

	clock.Advance(20 * time.Millisecond)
	require.Eventually(t, func() bool { return eng.Stats().Ticks == 2 }, time.Second, time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)

	snaps := eng.Snapshot()
	require.Len(t, snaps, 1)
	assert.Equal(t, 1, snaps[0].HistoryLen)
	assert.Equal(t, uint64(1), eng.Stats().Readings)
}
