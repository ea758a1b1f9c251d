package mocap

// Pipeline defaults. They match the values the installation was tuned with.
const (
	DefaultBufferSize      = 48
	DefaultAverageWindow   = 10
	DefaultDerivativeScale = 100.0
	DefaultMaxDraw         = 25
	DefaultSampleRate      = 51.2
	DefaultQueueCapacity   = 4096
)

// Config carries the construction-time parameters of the pipeline.
type Config struct {
	// HistoryCap bounds each Channel's history.
	HistoryCap int
	// BufferSize is the window a SourceNode pulls from its channel and the
	// minimum input length averaging and derivative nodes compute on.
	BufferSize int
	// AverageWindow is how far back each average reaches: row i averages
	// rows [i-AverageWindow, i].
	AverageWindow int
	// DerivativeScale multiplies derivative outputs.
	DerivativeScale float64
	// MaxDraw is the trail length kept for visualisation.
	MaxDraw int
	// SampleRate is the nominal sensor rate in Hz. Informational only.
	SampleRate float64
	// QueueCapacity bounds the inbound reading queue.
	QueueCapacity int
	// SkipIdle skips recomputation for nodes whose upstream saw no new
	// samples this tick.
	SkipIdle bool
	// Groups selects the processed field groups. A zero value means
	// acceleration only; use SetGroups on a node to disable every group.
	Groups ChannelGroups
}

// DefaultConfig returns the installation defaults.
func DefaultConfig() Config {
	return Config{
		HistoryCap:      DefaultHistoryCap,
		BufferSize:      DefaultBufferSize,
		AverageWindow:   DefaultAverageWindow,
		DerivativeScale: DefaultDerivativeScale,
		MaxDraw:         DefaultMaxDraw,
		SampleRate:      DefaultSampleRate,
		QueueCapacity:   DefaultQueueCapacity,
		SkipIdle:        true,
		Groups:          ChannelGroups{Accel: true},
	}
}

// withDefaults fills any unset numeric field and an empty Groups from
// DefaultConfig.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.HistoryCap <= 0 {
		c.HistoryCap = d.HistoryCap
	}
	if c.BufferSize <= 0 {
		c.BufferSize = d.BufferSize
	}
	if c.AverageWindow <= 0 {
		c.AverageWindow = d.AverageWindow
	}
	if c.DerivativeScale == 0 {
		c.DerivativeScale = d.DerivativeScale
	}
	if c.MaxDraw <= 0 {
		c.MaxDraw = d.MaxDraw
	}
	if c.SampleRate <= 0 {
		c.SampleRate = d.SampleRate
	}
	if c.QueueCapacity <= 0 {
		c.QueueCapacity = d.QueueCapacity
	}
	if c.Groups == (ChannelGroups{}) {
		c.Groups = d.Groups
	}
	return c
}
