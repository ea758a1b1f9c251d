package mocap

// SourceNode adapts a Channel into the Node graph. It drops rows with no
// acceleration and otherwise passes samples through untouched.
type SourceNode struct {
	nodeBase
	channel *Channel
}

// NewSourceNode binds a source node to ch.
func NewSourceNode(ch *Channel, cfg Config) *SourceNode {
	return &SourceNode{
		nodeBase: newNodeBase(nil, nil, cfg.withDefaults()),
		channel:  ch,
	}
}

func (n *SourceNode) Kind() NodeKind { return KindSource }

// Channel returns the bound channel.
func (n *SourceNode) Channel() *Channel { return n.channel }

// NewSampleCount reports the channel's count for this tick.
func (n *SourceNode) NewSampleCount() int {
	if n.channel == nil {
		return 0
	}
	return n.channel.NewSampleCount()
}

// Update pulls the channel window and filters out rows without acceleration.
func (n *SourceNode) Update(elapsed float64) {
	n.fresh = false
	if n.channel == nil {
		n.out = nil
		return
	}
	if n.skipIdle && len(n.out) > 0 && n.channel.NewSampleCount() == 0 {
		return
	}

	window := n.channel.Window(n.bufferSize)
	out := make([]Sample, 0, len(window))
	for _, s := range window {
		if s.Get(FieldAccelX) == NoData {
			continue
		}
		out = append(out, s)
	}
	n.out = out
	n.fresh = true
}

// Outgoing is always empty: sources only feed other nodes.
func (n *SourceNode) Outgoing() []Message { return nil }
