// Package melody runs the scheduled-melody player goroutine that drives
// engine.Engine.MelodyTick at a fixed real-time interval (SPEC_FULL
// §4.13/§5).
package melody

import (
	"context"
	"time"

	"github.com/cbegin/subsynth-go/internal/engine"
)

// TickEngine is the slice of *engine.Engine the scheduler needs.
type TickEngine interface {
	SampleClock() float64
	MelodyTick(now float64)
}

// Scheduler ticks an engine's melody player at Interval until its context
// is cancelled.
type Scheduler struct {
	Engine   TickEngine
	Interval time.Duration
}

// NewScheduler creates a scheduler ticking at ~5ms, matching the
// arpeggiator's cadence since both share the engine's main tick loop in
// spirit (SPEC_FULL §4.13).
func NewScheduler(e *engine.Engine) *Scheduler {
	return &Scheduler{Engine: e, Interval: 5 * time.Millisecond}
}

// Run ticks the melody scheduler until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	interval := s.Interval
	if interval <= 0 {
		interval = 5 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.Engine.MelodyTick(s.Engine.SampleClock())
		}
	}
}
