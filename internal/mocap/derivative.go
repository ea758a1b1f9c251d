package mocap

import "math"

// DerivativeNode approximates the rate of change of the x/y acceleration of
// its upstream. Two of them in series give the second derivative.
//
// The output rows reuse the index and timestamp fields to carry the
// intermediate difference value; downstream consumers depend on this.
type DerivativeNode struct {
	nodeBase
	scale float64
	diffs []float64
}

// NewDerivativeNode differentiates the output of up.
func NewDerivativeNode(up Node, cfg Config) *DerivativeNode {
	cfg = cfg.withDefaults()
	return &DerivativeNode{
		nodeBase: newNodeBase(up, nil, cfg),
		scale:    cfg.DerivativeScale,
	}
}

func (n *DerivativeNode) Kind() NodeKind { return KindDerivative }

// Differences returns the interleaved |dx|, |dy| sequence from the latest
// computation, before scaling.
func (n *DerivativeNode) Differences() []float64 { return n.diffs }

// Update recomputes the differences. Inputs shorter than the buffer size
// leave the previous output untouched.
func (n *DerivativeNode) Update(elapsed float64) {
	n.fresh = false
	if n.idle() {
		return
	}
	in := n.input()
	if len(in) < n.bufferSize {
		return
	}

	diffs := make([]float64, 0, 2*len(in))
	for i := 1; i < len(in); i++ {
		diffs = append(diffs,
			absDiff(in[i].Get(FieldAccelX), in[i-1].Get(FieldAccelX)),
			absDiff(in[i].Get(FieldAccelY), in[i-1].Get(FieldAccelY)),
		)
	}

	out := make([]Sample, 0, len(diffs))
	for i := 2; i < len(diffs); i++ {
		row := NewSample()
		row.Set(FieldIndex, diffs[i-1])
		row.Set(FieldTimestamp, diffs[i-1])
		if n.groups.Accel {
			row.Set(FieldAccelX, n.scaled(diffs[i-1]))
			row.Set(FieldAccelY, n.scaled(diffs[i]))
		}
		out = append(out, row)
	}
	n.diffs = diffs
	n.out = out
	n.fresh = true
}

// Outgoing returns the derivative positions under AddressDerivative.
func (n *DerivativeNode) Outgoing() []Message { return n.messages(AddressDerivative) }

func (n *DerivativeNode) scaled(v float64) float64 {
	if v == NoData {
		return NoData
	}
	return v * n.scale
}

func absDiff(a, b float64) float64 {
	if a == NoData || b == NoData {
		return NoData
	}
	return math.Abs(a - b)
}
