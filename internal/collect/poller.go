package collect

import (
	"context"
	"time"

	"github.com/banshee-data/delay.report/internal/monitoring"
	"github.com/banshee-data/delay.report/internal/timeutil"
)

// CycleFunc runs one collection cycle.
type CycleFunc func(ctx context.Context) error

// Poller runs a collection cycle once, then on every tick until the context
// is cancelled. A zero interval means one-shot.
type Poller struct {
	Clock    timeutil.Clock
	Interval time.Duration
	Cycle    CycleFunc
}

// Run executes the poll loop. Cycle errors are logged and the loop keeps
// going; only context cancellation ends it.
func (p *Poller) Run(ctx context.Context) error {
	if err := p.Cycle(ctx); err != nil {
		monitoring.Warnf("collection cycle failed: %v", err)
	}
	if p.Interval <= 0 {
		return nil
	}

	ticker := p.Clock.NewTicker(p.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C():
			if err := p.Cycle(ctx); err != nil {
				monitoring.Warnf("collection cycle failed: %v", err)
			}
		}
	}
}
