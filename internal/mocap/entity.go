package mocap

// Entity is one tracked thing (a hand holding a sensor) with its fixed
// filter graph: source → averaging → derivative → derivative.
type Entity struct {
	id      int
	channel *Channel

	source  *SourceNode
	average *AveragingNode
	der1    *DerivativeNode
	der2    *DerivativeNode

	nodes  []Node
	trails []*Trail
}

// NewEntity builds the filter graph over ch. id is the entity's position in
// the registry.
func NewEntity(id int, ch *Channel, cfg Config) *Entity {
	cfg = cfg.withDefaults()

	src := NewSourceNode(ch, cfg)
	avg := NewAveragingNode(src, cfg)
	d1 := NewDerivativeNode(avg, cfg)
	d2 := NewDerivativeNode(d1, cfg)

	return &Entity{
		id:      id,
		channel: ch,
		source:  src,
		average: avg,
		der1:    d1,
		der2:    d2,
		nodes:   []Node{src, avg, d1, d2},
		trails: []*Trail{
			NewTrail("average", avg, cfg.MaxDraw),
			NewTrail("derivative1", d1, cfg.MaxDraw),
			NewTrail("derivative2", d2, cfg.MaxDraw),
		},
	}
}

// ID returns the creation-order index.
func (e *Entity) ID() int { return e.id }

// Channel returns the bound sensor channel.
func (e *Entity) Channel() *Channel { return e.channel }

// Source returns the source node.
func (e *Entity) Source() *SourceNode { return e.source }

// Average returns the averaging node.
func (e *Entity) Average() *AveragingNode { return e.average }

// FirstDerivative returns the first derivative node.
func (e *Entity) FirstDerivative() *DerivativeNode { return e.der1 }

// SecondDerivative returns the second derivative node.
func (e *Entity) SecondDerivative() *DerivativeNode { return e.der2 }

// Nodes returns the graph in update order.
func (e *Entity) Nodes() []Node { return e.nodes }

// Trails returns the visualisation trails.
func (e *Entity) Trails() []*Trail { return e.trails }

// Tick updates every node in dependency order, then refreshes the trails.
func (e *Entity) Tick(elapsed float64) {
	for _, n := range e.nodes {
		n.Update(elapsed)
	}
	for _, t := range e.trails {
		t.Update()
	}
}

// Outgoing collects this tick's messages in node order.
func (e *Entity) Outgoing() []Message {
	var msgs []Message
	for _, n := range e.nodes {
		msgs = append(msgs, n.Outgoing()...)
	}
	return msgs
}
