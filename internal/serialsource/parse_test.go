package serialsource

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/motus/internal/mocap"
)

func TestParseLine(t *testing.T) {
	r, err := ParseLine("wii, 3, 0.1, -0.2, 0.9")
	require.NoError(t, err)
	assert.Equal(t, mocap.Reading{DeviceID: "wii", Index: 3, AccelX: 0.1, AccelY: -0.2, AccelZ: 0.9}, r)

	r, err = ParseLine("7,7,1,2,3,12.5\r")
	require.NoError(t, err)
	assert.Equal(t, 12.5, r.Timestamp)
}

func TestParseLine_Errors(t *testing.T) {
	assert.ErrorIs(t, func() error { _, err := ParseLine("   "); return err }(), ErrEmptyLine)
	assert.ErrorIs(t, func() error { _, err := ParseLine("# header"); return err }(), ErrEmptyLine)

	for _, line := range []string{
		"a,1,2,3",
		"a,1,2,3,4,5,6",
		",1,2,3,4",
		"a,x,2,3,4",
		"a,1,2,three,4",
		"a,1,2,3,4,later",
	} {
		_, err := ParseLine(line)
		assert.Error(t, err, line)
		assert.NotErrorIs(t, err, ErrEmptyLine, line)
	}
}
