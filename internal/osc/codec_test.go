package osc

import (
	"errors"
	"testing"
	"time"

	"github.com/hypebeast/go-osc/osc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/motus/internal/mocap"
)

func marshal(t *testing.T, p osc.Packet) []byte {
	t.Helper()
	data, err := p.MarshalBinary()
	require.NoError(t, err)
	return data
}

func TestDecode_Wiimote(t *testing.T) {
	d := NewDecoder(DefaultDecoderConfig())
	msg := osc.NewMessage("/wii/3/accel/pry", float32(0.25), float32(0.5), float32(0.75))

	readings, err := d.Decode(marshal(t, msg))
	require.NoError(t, err)
	require.Len(t, readings, 1)
	assert.Equal(t, mocap.Reading{DeviceID: "3", Index: 3, AccelX: 0.25, AccelY: 0.5, AccelZ: 0.75}, readings[0])
}

func TestDecode_Phone(t *testing.T) {
	d := NewDecoder(DefaultDecoderConfig())
	msg := osc.NewMessage(PhoneAddress, float32(1), float32(2), float32(3), float32(4))

	readings, err := d.Decode(marshal(t, msg))
	require.NoError(t, err)
	require.Len(t, readings, 1)
	assert.Equal(t, "7", readings[0].DeviceID)
	assert.Equal(t, 7, readings[0].Index)
	assert.Equal(t, 3.0, readings[0].AccelZ)
}

func TestDecode_WiimoteScaling(t *testing.T) {
	cfg := DefaultDecoderConfig()
	cfg.WiimoteAccelMax = 2
	d := NewDecoder(cfg)
	msg := osc.NewMessage("/wii/0/accel/pry", float32(-1), float32(1), float32(2))

	readings, err := d.Decode(marshal(t, msg))
	require.NoError(t, err)
	require.Len(t, readings, 1)
	assert.Equal(t, 0.5, readings[0].AccelX)
	assert.Equal(t, 0.5, readings[0].AccelY)
	assert.Equal(t, 1.0, readings[0].AccelZ)
}

func TestDecode_Rejections(t *testing.T) {
	d := NewDecoder(DefaultDecoderConfig())
	tests := []struct {
		name string
		msg  *osc.Message
	}{
		{"unknown address", osc.NewMessage("/mocap/points", float32(1), float32(2), float32(3))},
		{"wiimote out of range", osc.NewMessage("/wii/6/accel/pry", float32(1), float32(2), float32(3))},
		{"wiimote not numeric", osc.NewMessage("/wii/x/accel/pry", float32(1), float32(2), float32(3))},
		{"too few arguments", osc.NewMessage("/wii/1/accel/pry", float32(1))},
		{"string argument", osc.NewMessage("/wii/1/accel/pry", "a", float32(2), float32(3))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			readings, err := d.Decode(marshal(t, tt.msg))
			assert.Error(t, err)
			assert.Empty(t, readings)
		})
	}
}

func TestDecode_UnknownAddressIsSentinel(t *testing.T) {
	d := NewDecoder(DefaultDecoderConfig())
	_, err := d.DecodeMessage(osc.NewMessage("/nope"))
	assert.True(t, errors.Is(err, ErrUnknownAddress))
}

func TestDecode_BundleKeepsGoodMessages(t *testing.T) {
	d := NewDecoder(DefaultDecoderConfig())
	b := osc.NewBundle(time.Now())
	require.NoError(t, b.Append(osc.NewMessage("/wii/1/accel/pry", float32(1), float32(2), float32(3))))
	require.NoError(t, b.Append(osc.NewMessage("/other")))
	require.NoError(t, b.Append(osc.NewMessage("/wii/2/accel/pry", int32(4), int32(5), int32(6))))

	readings, err := d.Decode(marshal(t, b))
	assert.Error(t, err)
	require.Len(t, readings, 2)
	assert.Equal(t, "1", readings[0].DeviceID)
	assert.Equal(t, 4.0, readings[1].AccelX)
}

func TestDecode_Garbage(t *testing.T) {
	d := NewDecoder(DefaultDecoderConfig())
	_, err := d.Decode([]byte("not osc"))
	assert.Error(t, err)
}

func TestEncode_RoundTrip(t *testing.T) {
	data, err := Encode(mocap.Message{Address: mocap.AddressDerivative, X: 1.5, Y: -2})
	require.NoError(t, err)

	pkt, err := osc.ParsePacket(string(data))
	require.NoError(t, err)
	msg, ok := pkt.(*osc.Message)
	require.True(t, ok)
	assert.Equal(t, mocap.AddressDerivative, msg.Address)
	assert.Equal(t, []interface{}{float32(1.5), float32(-2)}, msg.Arguments)
}

func TestEncodeAll(t *testing.T) {
	out, err := EncodeAll([]mocap.Message{
		{Address: mocap.AddressPoints, X: 1, Y: 2},
		{Address: mocap.AddressPoints, X: 3, Y: 4},
	})
	require.NoError(t, err)
	assert.Len(t, out, 2)
}
