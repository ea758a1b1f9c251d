package mocap

import (
	"gonum.org/v1/gonum/stat"
)

// AveragingNode computes a trailing moving average of the acceleration
// fields. Row i averages input rows [i-window, i], so a full window spans
// window+1 rows. One output row is produced per input row.
type AveragingNode struct {
	nodeBase
	window int
}

// NewAveragingNode averages the output of up looking back cfg.AverageWindow
// rows.
func NewAveragingNode(up Node, cfg Config) *AveragingNode {
	cfg = cfg.withDefaults()
	return &AveragingNode{
		nodeBase: newNodeBase(up, nil, cfg),
		window:   cfg.AverageWindow,
	}
}

func (n *AveragingNode) Kind() NodeKind { return KindAveraging }

// Window returns how many rows each average looks back.
func (n *AveragingNode) Window() int { return n.window }

// Update recomputes the averages. Inputs shorter than the buffer size leave
// the previous output untouched.
func (n *AveragingNode) Update(elapsed float64) {
	n.fresh = false
	if n.idle() {
		return
	}
	in := n.input()
	if len(in) < n.bufferSize {
		return
	}

	out := make([]Sample, len(in))
	scratch := make([]float64, 0, n.window+1)
	for i := range in {
		start := max(0, i-n.window)
		row := NewSample()
		row.Set(FieldIndex, in[i].Get(FieldIndex))
		row.Set(FieldTimestamp, in[i].Get(FieldTimestamp))
		if n.groups.Accel {
			for f := FieldAccelX; f <= FieldAccelZ; f++ {
				row.Set(f, meanSkippingNoData(in[start:i+1], f, scratch))
			}
		}
		out[i] = row
	}
	n.out = out
	n.fresh = true
}

// Outgoing returns the averaged positions under AddressPoints.
func (n *AveragingNode) Outgoing() []Message { return n.messages(AddressPoints) }

// meanSkippingNoData averages field f over rows, ignoring missing values.
// When nothing is present the result is NoData.
func meanSkippingNoData(rows []Sample, f Field, scratch []float64) float64 {
	vals := scratch[:0]
	for _, r := range rows {
		if v := r.Get(f); v != NoData {
			vals = append(vals, v)
		}
	}
	if len(vals) == 0 {
		return NoData
	}
	return stat.Mean(vals, nil)
}
