package mocap

import (
	"context"
	"time"

	"github.com/banshee-data/motus/internal/timeutil"
)

// Run calls Step once per interval until ctx is cancelled. Elapsed time
// passed to Step is measured from the start of Run on clock.
func (e *Engine) Run(ctx context.Context, clock timeutil.Clock, interval time.Duration) error {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	start := clock.Now()
	ticker := clock.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C():
			e.Step(clock.Since(start).Seconds())
		}
	}
}
