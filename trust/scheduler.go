package trust

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// DefaultDecayInterval is how often the decay sweep runs.
const DefaultDecayInterval = 24 * time.Hour

// Scheduler runs the periodic trust decay sweep. Trust is tracked
// qualitatively, so the sweep only logs; it writes nothing.
type Scheduler struct {
	interval time.Duration
	log      *zap.Logger
	onSweep  func()
}

func NewScheduler(interval time.Duration, log *zap.Logger) *Scheduler {
	if interval <= 0 {
		interval = DefaultDecayInterval
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Scheduler{interval: interval, log: log}
}

// Run ticks until ctx is cancelled. It returns nil on cancellation.
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.log.Info("trust scheduler started", zap.Duration("interval", s.interval))
	for {
		select {
		case <-ctx.Done():
			s.log.Info("trust scheduler stopped")
			return nil
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep is the decay pass. Numeric decay is retired.
func (s *Scheduler) Sweep(_ context.Context) {
	s.log.Info("trust decay skipped, using qualitative trust states only")
	if s.onSweep != nil {
		s.onSweep()
	}
}
