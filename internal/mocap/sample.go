// Package mocap implements the per-sensor signal processing pipeline: sample
// buffering per sensor identity, a fixed filter graph per tracked entity
// (source → averaging → derivative → derivative), and the registry that routes
// incoming readings to the right pipeline instance.
package mocap

import (
	"math"
	"strconv"
	"strings"

	"github.com/banshee-data/motus/internal/monitoring"
)

// NoData marks a sample field that was never populated. Aggregations skip it
// and propagate it when every contributing value is missing.
const NoData = -1e38

// Field indexes the scalar fields of a Sample.
type Field int

const (
	FieldIndex     Field = 0
	FieldTimestamp Field = 1
	FieldAccelX    Field = 2
	FieldAccelY    Field = 3
	FieldAccelZ    Field = 4
	FieldGyroX     Field = 11
	FieldGyroY     Field = 12
	FieldGyroZ     Field = 13
	FieldPosX      Field = 14
	FieldPosY      Field = 15
	FieldQuatX     Field = 20
	FieldQuatY     Field = 21
	FieldQuatZ     Field = 22
	FieldQuatA     Field = 23
)

const (
	scalarFields = 20 // fields below this live in the scalar slots
	fieldCount   = 24 // scalar slots + quaternion components
)

// Vec3 is a 3-component vector (acceleration, gyro).
type Vec3 struct {
	X, Y, Z float64
}

// Sample is one timestamped motion reading. The zero value is not useful;
// build samples with NewSample so every field starts as NoData.
type Sample struct {
	data        [scalarFields]float64
	quaternion  [4]float64
	orientation [3]float64
}

// NewSample returns a sample with every field set to NoData.
func NewSample() Sample {
	var s Sample
	for i := range s.data {
		s.data[i] = NoData
	}
	for i := range s.quaternion {
		s.quaternion[i] = NoData
	}
	for i := range s.orientation {
		s.orientation[i] = NoData
	}
	return s
}

// Get returns the value stored in field f. Fields past the quaternion range
// are a programming error: they are logged and read as NoData.
func (s Sample) Get(f Field) float64 {
	switch {
	case f >= 0 && f < scalarFields:
		return s.data[f]
	case f >= scalarFields && f < fieldCount:
		return s.quaternion[f-scalarFields]
	default:
		monitoring.Logf("mocap: sample field out of range: %d", f)
		return NoData
	}
}

// Set stores v in field f. Out-of-range fields are logged and ignored.
func (s *Sample) Set(f Field, v float64) {
	switch {
	case f >= 0 && f < scalarFields:
		s.data[f] = v
	case f >= scalarFields && f < fieldCount:
		s.quaternion[f-scalarFields] = v
	default:
		monitoring.Logf("mocap: sample field out of range: %d", f)
	}
}

// Timestamp returns the timestamp field.
func (s Sample) Timestamp() float64 { return s.data[FieldTimestamp] }

// Accel returns the acceleration fields.
func (s Sample) Accel() Vec3 {
	return Vec3{s.data[FieldAccelX], s.data[FieldAccelY], s.data[FieldAccelZ]}
}

// SetAccel stores the acceleration fields.
func (s *Sample) SetAccel(v Vec3) {
	s.data[FieldAccelX] = v.X
	s.data[FieldAccelY] = v.Y
	s.data[FieldAccelZ] = v.Z
}

// Gyro returns the gyroscope fields.
func (s Sample) Gyro() Vec3 {
	return Vec3{s.data[FieldGyroX], s.data[FieldGyroY], s.data[FieldGyroZ]}
}

// SetGyro stores the gyroscope fields.
func (s *Sample) SetGyro(v Vec3) {
	s.data[FieldGyroX] = v.X
	s.data[FieldGyroY] = v.Y
	s.data[FieldGyroZ] = v.Z
}

// Quaternion returns x, y, z and angle.
func (s Sample) Quaternion() [4]float64 { return s.quaternion }

// SetQuaternion stores x, y, z and angle.
func (s *Sample) SetQuaternion(x, y, z, angle float64) {
	s.quaternion = [4]float64{x, y, z, angle}
}

// Orientation returns the orientation triple.
func (s Sample) Orientation() [3]float64 { return s.orientation }

// SetOrientation stores the orientation triple.
func (s *Sample) SetOrientation(o [3]float64) { s.orientation = o }

// ScaleAccel normalises acceleration into 0..1 as |a|/max. Wiimotes already
// report in that range with max 1; other devices pass their full-scale value.
// Missing fields stay missing.
func (s *Sample) ScaleAccel(max float64) {
	if max == 0 {
		return
	}
	for f := FieldAccelX; f <= FieldAccelZ; f++ {
		if s.data[f] == NoData {
			continue
		}
		s.data[f] = math.Abs(s.data[f]) / max
	}
}

// String renders the 24 fields as a comma-separated line.
func (s Sample) String() string {
	parts := make([]string, fieldCount)
	for i := 0; i < fieldCount; i++ {
		parts[i] = strconv.FormatFloat(s.Get(Field(i)), 'g', -1, 64)
	}
	return strings.Join(parts, ",")
}
