package effects

import "math"

const reverbSampleRate = 44100
const reverbBufferSeconds = 2

var tapBaseMultipliers = [6]float64{0.8, 1.2, 1.6, 2.2, 3.1, 4.5}

// tapDiffuseOffsets scales the diffusion term added to taps 3-6 only; the
// first two taps are pure base-delay multiples (SPEC_FULL §4.8).
var tapDiffuseOffsets = [6]float64{0, 0, 0.1, 0.2, 0.3, 0.4}

// Reverb implements the multi-tap stereo reverb of SPEC_FULL §4.8: a
// pre-delay tap, six averaged taps per channel, stereo cross-mix, and
// one-pole damping feeding back into the line.
type Reverb struct {
	bufL, bufR []float32
	pos        int

	Size     float32 // 0..1, scales tap delay length and output level
	PreDelay float32 // seconds
	Diffuse  float32 // 0..1, spreads the tap spacing
	Stereo   float32 // 0..1, amount of left/right cross-mix
	Damp     float32 // 0..1, one-pole damping applied to the feedback path
	DryMix   float32
	WetMix   float32

	dampL, dampR float32
}

// NewReverb creates a reverb with the given room size, feedback amount, and
// wet mix. feedback sets Damp = 1 - feedback (more feedback, less damping);
// the write-back gain into the delay line is fixed at 0.7. DryMix is
// 1 - wet. PreDelay (0.02s), Diffuse (0.3) and Stereo (0.5) take fixed
// starting values and can be overridden via the exported fields.
func NewReverb(size, feedback, wet float32) *Reverb {
	bufSize := int(reverbBufferSeconds * reverbSampleRate)
	return &Reverb{
		bufL:     make([]float32, bufSize),
		bufR:     make([]float32, bufSize),
		Size:     size,
		PreDelay: 0.02,
		Diffuse:  0.3,
		Stereo:   0.5,
		Damp:     1 - feedback,
		DryMix:   1 - wet,
		WetMix:   wet,
	}
}

func (r *Reverb) readAt(buf []float32, delaySamples int) float32 {
	n := len(buf)
	if delaySamples >= n {
		delaySamples = n - 1
	}
	idx := r.pos - delaySamples
	for idx < 0 {
		idx += n
	}
	return buf[idx]
}

// Process renders one stereo sample through the reverb: a pre-delayed tap is
// read, six taps (the first two pure base-delay multiples, the last four
// additionally offset by diffusion) are averaged to form the wet signal,
// cross-mixed per Stereo, damped with a one-pole filter, and fed back into
// the delay line alongside the pre-delayed tap.
func (r *Reverb) Process(l, r2 float32) (float32, float32) {
	preDelaySamples := int(math.Round(float64(r.PreDelay) * reverbSampleRate))
	preDelayedL := r.readAt(r.bufL, preDelaySamples)
	preDelayedR := r.readAt(r.bufR, preDelaySamples)

	baseDelay := 0.02 + float64(r.Size)*0.08
	diffusion := 0.3 + float64(r.Diffuse)*0.4

	var wetL, wetR float32
	for i, mult := range tapBaseMultipliers {
		delaySamples := int((baseDelay*mult + diffusion*tapDiffuseOffsets[i]) * reverbSampleRate)
		wetL += r.readAt(r.bufL, delaySamples)
		wetR += r.readAt(r.bufR, delaySamples)
	}
	wetL = wetL / 6 * r.Size
	wetR = wetR / 6 * r.Size

	cross := r.Stereo * 0.3
	crossL := wetR * cross
	crossR := wetL * cross
	wetL = wetL*(1-cross) + crossL
	wetR = wetR*(1-cross) + crossR

	dampCoef := 1 - r.Damp*0.1
	r.dampL = r.dampL*dampCoef + wetL*(1-dampCoef)
	r.dampR = r.dampR*dampCoef + wetR*(1-dampCoef)

	r.bufL[r.pos] = preDelayedL + r.dampL*0.7
	r.bufR[r.pos] = preDelayedR + r.dampR*0.7
	r.pos++
	if r.pos >= len(r.bufL) {
		r.pos = 0
	}

	outL := l*r.DryMix + r.dampL*r.WetMix
	outR := r2*r.DryMix + r.dampR*r.WetMix
	return outL, outR
}

func (r *Reverb) Reset() {
	for i := range r.bufL {
		r.bufL[i] = 0
		r.bufR[i] = 0
	}
	r.pos = 0
	r.dampL, r.dampR = 0, 0
}
