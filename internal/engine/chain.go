package engine

import (
	"github.com/cbegin/subsynth-go/internal/effects"
	"github.com/cbegin/subsynth-go/internal/filter"
)

// filterEffector adapts the per-channel float64 filter.Filter pair to the
// stereo effects.Effector interface so the biquad stage can sit in the same
// Chain as the other effects.
type filterEffector struct {
	l, r *filter.Filter
}

func (f *filterEffector) Process(l, r float32) (float32, float32) {
	return float32(f.l.Process(float64(l))), float32(f.r.Process(float64(r)))
}

func (f *filterEffector) Reset() {
	f.l.Reset()
	f.r.Reset()
}

// toggleEffector gates an Effector behind an enable flag. get is called on
// every Process/Reset rather than captured once, since SetDelayParams and
// SetCompressorParams replace the underlying effect pointer wholesale.
type toggleEffector struct {
	enabled *bool
	get     func() effects.Effector
}

func (t *toggleEffector) Process(l, r float32) (float32, float32) {
	if !*t.enabled {
		return l, r
	}
	return t.get().Process(l, r)
}

func (t *toggleEffector) Reset() {
	t.get().Reset()
}
