package serialsource

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/banshee-data/motus/internal/mocap"
)

// ErrEmptyLine is returned for blank lines and comments.
var ErrEmptyLine = errors.New("serialsource: empty line")

// ParseLine reads one reading from a line of the form
//
//	device,index,ax,ay,az[,timestamp]
//
// Lines starting with '#' are comments.
func ParseLine(line string) (mocap.Reading, error) {
	var r mocap.Reading

	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return r, ErrEmptyLine
	}

	fields := strings.Split(line, ",")
	if len(fields) != 5 && len(fields) != 6 {
		return r, fmt.Errorf("serialsource: expected 5 or 6 fields, got %d", len(fields))
	}
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}

	if fields[0] == "" {
		return r, errors.New("serialsource: missing device id")
	}
	r.DeviceID = fields[0]

	idx, err := strconv.Atoi(fields[1])
	if err != nil {
		return r, fmt.Errorf("serialsource: bad index %q: %w", fields[1], err)
	}
	r.Index = idx

	vals := make([]float64, len(fields)-2)
	for i, f := range fields[2:] {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return r, fmt.Errorf("serialsource: bad value %q: %w", f, err)
		}
		vals[i] = v
	}
	r.AccelX, r.AccelY, r.AccelZ = vals[0], vals[1], vals[2]
	if len(vals) == 4 {
		r.Timestamp = vals[3]
	}
	return r, nil
}
