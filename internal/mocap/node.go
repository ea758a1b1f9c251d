package mocap

// NodeKind identifies the concrete filter behind a Node.
type NodeKind int

const (
	KindSource NodeKind = iota
	KindAveraging
	KindDerivative
)

func (k NodeKind) String() string {
	switch k {
	case KindSource:
		return "source"
	case KindAveraging:
		return "averaging"
	case KindDerivative:
		return "derivative"
	default:
		return "unknown"
	}
}

// Outbound OSC address tags.
const (
	AddressPoints     = "/mocap/points"
	AddressDerivative = "/mocap/derivative/"
)

// Message is one outbound (address, x, y) triple.
type Message struct {
	Address string
	X, Y    float64
}

// ChannelGroups selects which sample field groups a node processes. Only
// acceleration is computed today; gyro and quaternion are accepted so
// configuration files can carry them.
type ChannelGroups struct {
	Accel      bool
	Gyro       bool
	Quaternion bool
}

// Node is one stage of an entity's filter graph.
type Node interface {
	// Update recomputes the output buffer from upstream. elapsed is the host
	// clock in seconds.
	Update(elapsed float64)
	// Output returns the current output buffer. Callers must not modify it.
	Output() []Sample
	// Outgoing returns messages for rows computed during the latest Update.
	Outgoing() []Message
	// NewSampleCount reports how many new samples reached this node in the
	// current tick.
	NewSampleCount() int
	Kind() NodeKind
}

// nodeBase holds what every node shares: upstream references, gating size,
// channel groups and the output buffer.
type nodeBase struct {
	up1, up2   Node
	bufferSize int
	groups     ChannelGroups
	skipIdle   bool

	out   []Sample
	fresh bool
}

func newNodeBase(up1, up2 Node, cfg Config) nodeBase {
	return nodeBase{
		up1:        up1,
		up2:        up2,
		bufferSize: cfg.BufferSize,
		groups:     cfg.Groups,
		skipIdle:   cfg.SkipIdle,
	}
}

func (n *nodeBase) Output() []Sample { return n.out }

// BufferSize returns the minimum input length the node computes on.
func (n *nodeBase) BufferSize() int { return n.bufferSize }

// SetBufferSize changes the gating length.
func (n *nodeBase) SetBufferSize(sz int) { n.bufferSize = sz }

// Groups returns the enabled channel groups.
func (n *nodeBase) Groups() ChannelGroups { return n.groups }

// SetGroups replaces the enabled channel groups.
func (n *nodeBase) SetGroups(g ChannelGroups) { n.groups = g }

// Fresh reports whether the output was recomputed by the latest Update.
func (n *nodeBase) Fresh() bool { return n.fresh }

// NewSampleCount is zero if any bound upstream saw nothing new this tick,
// otherwise the largest upstream count.
func (n *nodeBase) NewSampleCount() int {
	max := 0
	for _, up := range [2]Node{n.up1, n.up2} {
		if up == nil {
			continue
		}
		c := up.NewSampleCount()
		if c == 0 {
			return 0
		}
		if c > max {
			max = c
		}
	}
	return max
}

// input returns the primary upstream buffer, or nil when unbound.
func (n *nodeBase) input() []Sample {
	if n.up1 == nil {
		return nil
	}
	return n.up1.Output()
}

// idle reports whether recomputation can be skipped: nothing new upstream and
// an output already in place.
func (n *nodeBase) idle() bool {
	return n.skipIdle && len(n.out) > 0 && n.NewSampleCount() == 0
}

// messages renders the output rows as (address, accel x, accel y) triples.
func (n *nodeBase) messages(address string) []Message {
	if !n.fresh || len(n.out) == 0 {
		return nil
	}
	msgs := make([]Message, 0, len(n.out))
	for _, row := range n.out {
		msgs = append(msgs, Message{
			Address: address,
			X:       row.Get(FieldAccelX),
			Y:       row.Get(FieldAccelY),
		})
	}
	return msgs
}
