package arp

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

type fakeEngine struct {
	ticks atomic.Int64
	clock float64
}

func (f *fakeEngine) SampleClock() float64 { return f.clock }
func (f *fakeEngine) ArpTick(now float64)  { f.ticks.Add(1) }

func TestStepperTicksUntilCancelled(t *testing.T) {
	f := &fakeEngine{}
	s := &Stepper{Engine: f, Interval: time.Millisecond}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_ = s.Run(ctx)
	if f.ticks.Load() == 0 {
		t.Fatalf("expected at least one ArpTick call")
	}
}
