package effects

import "math"

const flangerSampleRate = 44100
const flangerBufferSamples = flangerSampleRate / 10 // 100ms, per SPEC_FULL §4.6

// Flanger implements a short modulated delay line swept by a sine LFO and
// cross-faded with the dry signal, per SPEC_FULL §4.6. Adapted from the
// teacher's chorus effect, narrowed to a single modulated tap instead of
// multiple chorus voices.
type Flanger struct {
	bufL, bufR []float32
	pos        int

	RateHz   float64 // LFO sweep rate
	DepthSec float64 // peak modulation depth, seconds
	Wet      float32

	lfoPhase float64
}

func NewFlanger(rateHz, depthSec float64, wet float32) *Flanger {
	return &Flanger{
		bufL:     make([]float32, flangerBufferSamples),
		bufR:     make([]float32, flangerBufferSamples),
		RateHz:   rateHz,
		DepthSec: depthSec,
		Wet:      clamp(wet, 0, 1),
	}
}

func (f *Flanger) read(buf []float32, delaySamples int) float32 {
	n := len(buf)
	idx := f.pos - delaySamples
	for idx < 0 {
		idx += n
	}
	return buf[idx%n]
}

func (f *Flanger) Process(l, r float32) (float32, float32) {
	lfo := math.Sin(2 * math.Pi * f.lfoPhase)
	f.lfoPhase += f.RateHz / flangerSampleRate
	if f.lfoPhase >= 1 {
		f.lfoPhase -= math.Floor(f.lfoPhase)
	}

	modDelaySec := f.DepthSec * (0.5 * (lfo + 1))
	modDelaySamples := int(modDelaySec * flangerSampleRate)

	delayedL := f.read(f.bufL, modDelaySamples)
	delayedR := f.read(f.bufR, modDelaySamples)

	f.bufL[f.pos] = l
	f.bufR[f.pos] = r
	f.pos++
	if f.pos >= len(f.bufL) {
		f.pos = 0
	}

	return l*(1-f.Wet) + delayedL*f.Wet, r*(1-f.Wet) + delayedR*f.Wet
}

func (f *Flanger) Reset() {
	for i := range f.bufL {
		f.bufL[i] = 0
		f.bufR[i] = 0
	}
	f.pos = 0
	f.lfoPhase = 0
}
