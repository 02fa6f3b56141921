// Package arp runs the arpeggiator stepper goroutine that drives
// engine.Engine.ArpTick at a fixed real-time interval (SPEC_FULL §4.12/§5).
package arp

import (
	"context"
	"time"

	"github.com/cbegin/subsynth-go/internal/engine"
)

// TickEngine is the slice of *engine.Engine the stepper needs.
type TickEngine interface {
	SampleClock() float64
	ArpTick(now float64)
}

// Stepper ticks an engine's arpeggiator at Interval until its context is
// cancelled. It never holds engine state of its own: all arp configuration
// and run state lives on engine.Engine.Arp (SPEC_FULL §9).
type Stepper struct {
	Engine   TickEngine
	Interval time.Duration
}

// NewStepper creates a stepper ticking at ~5ms (>=200Hz) per SPEC_FULL §4.12.
func NewStepper(e *engine.Engine) *Stepper {
	return &Stepper{Engine: e, Interval: 5 * time.Millisecond}
}

// Run ticks the arpeggiator until ctx is cancelled, observing ctx.Done()
// between ticks rather than polling a bare stop flag (SPEC_FULL §5).
func (s *Stepper) Run(ctx context.Context) error {
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
			s.Engine.ArpTick(s.Engine.SampleClock())
		}
	}
}
