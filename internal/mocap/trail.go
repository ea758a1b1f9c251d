package mocap

// TrailPoint is one drawable point: x and y from the acceleration fields,
// alpha from acceleration z.
type TrailPoint struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Alpha float64 `json:"alpha"`
}

// Trail keeps the most recent points of a node's output for display. It is
// never read by the pipeline itself.
type Trail struct {
	name    string
	source  Node
	maxDraw int
	points  []TrailPoint
}

// NewTrail follows the output of source, keeping maxDraw points.
func NewTrail(name string, source Node, maxDraw int) *Trail {
	if maxDraw <= 0 {
		maxDraw = DefaultMaxDraw
	}
	return &Trail{name: name, source: source, maxDraw: maxDraw}
}

// Name returns the label of the trail.
func (t *Trail) Name() string { return t.name }

// Update snapshots the tail of the source output. Outputs shorter than
// maxDraw clear the trail.
func (t *Trail) Update() {
	buf := t.source.Output()
	if len(buf) < t.maxDraw {
		t.points = t.points[:0]
		return
	}
	pts := make([]TrailPoint, 0, t.maxDraw)
	for _, s := range buf[len(buf)-t.maxDraw:] {
		pts = append(pts, TrailPoint{
			X:     s.Get(FieldAccelX),
			Y:     s.Get(FieldAccelY),
			Alpha: s.Get(FieldAccelZ),
		})
	}
	t.points = pts
}

// Points returns a copy of the current trail.
func (t *Trail) Points() []TrailPoint {
	out := make([]TrailPoint, len(t.points))
	copy(out, t.points)
	return out
}
