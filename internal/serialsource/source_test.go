package serialsource

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/motus/internal/mocap"
)

func TestSource_MonitorPushesReadings(t *testing.T) {
	port := NewMockSerialPort("# bridge v2\n1,1,0.1,0.2,0.3\nbad line\n\n2,2,1,2,3,9\n")
	q := mocap.NewQueue(0)
	src := NewSource(port, q)

	require.NoError(t, src.Monitor(context.Background()))

	got := q.Drain()
	require.Len(t, got, 2)
	assert.Equal(t, "1", got[0].DeviceID)
	assert.Equal(t, 9.0, got[1].Timestamp)

	assert.Equal(t, Stats{Lines: 5, Readings: 2, Rejected: 1}, src.Stats())
}

func TestSource_CountsDrops(t *testing.T) {
	port := NewMockSerialPort("a,1,1,1,1\na,1,2,2,2\n")
	src := NewSource(port, mocap.NewQueue(1))
	require.NoError(t, src.Monitor(context.Background()))
	assert.Equal(t, uint64(1), src.Stats().Dropped)
}

func TestSource_ReadError(t *testing.T) {
	port := &MockSerialPort{ReadError: errors.New("device unplugged")}
	src := NewSource(port, mocap.NewQueue(0))
	err := src.Monitor(context.Background())
	assert.EqualError(t, err, "device unplugged")
}

func TestSource_ContextCancel(t *testing.T) {
	port := &MockSerialPort{ReadData: []byte("a,1,1,1,1\n"), ReadDelay: 50 * time.Millisecond}
	src := NewSource(port, mocap.NewQueue(0))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, src.Monitor(ctx), context.DeadlineExceeded)
}

func TestSource_Close(t *testing.T) {
	port := NewMockSerialPort("")
	src := NewSource(port, nil)
	require.NoError(t, src.Close())
	assert.True(t, port.Closed)
	assert.True(t, src.isClosing())
}

func TestOpen_BadOptions(t *testing.T) {
	_, err := Open("/dev/null", PortOptions{DataBits: 12}, nil)
	assert.Error(t, err)
}
