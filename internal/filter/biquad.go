// Package filter implements the engine's per-instance state-variable
// low-pass biquad filter with resonance, drive, and optional oversampling.
package filter

import "math"

const sampleRate = 44100

// inertial is the parameter-smoothing coefficient applied to cutoff/Q each
// sample before recomputing biquad coefficients.
const inertial = 0.992

// Filter is a 2-pole low-pass biquad. All state lives on the value itself —
// never in package-level variables — so that multiple instances never alias
// each other (see DESIGN.md / SPEC_FULL §9, resolving the original's
// process-wide static-local bug).
type Filter struct {
	Cutoff float64 // Hz
	Q      float64
	Drive  float64

	// Oversampling factor: 0 (disabled), 2, 4, or 8.
	Oversample int

	smoothedCutoff float64
	smoothedQ      float64

	b0, b1, b2 float64
	a1, a2     float64

	x1, x2 float64
	y1, y2 float64

	coeffsValid bool
}

// New creates a filter with sane defaults (fully open, no resonance).
func New() *Filter {
	return &Filter{
		Cutoff: sampleRate / 2,
		Q:      0.707,
		Drive:  1,
	}
}

func (f *Filter) recomputeCoeffs(cutoff, q float64) {
	omega := 2 * math.Pi * cutoff / sampleRate
	k := math.Tan(omega / 2)
	norm := 1 / (1 + k/q + k*k)
	f.b0 = k * k * norm
	f.b1 = 2 * f.b0
	f.b2 = f.b0
	f.a1 = 2 * (k*k - 1) * norm
	f.a2 = (1 - k/q + k*k) * norm
}

// Process filters a single sample, applying parameter smoothing, drive, and
// optional integer oversampling.
func (f *Filter) Process(x float64) float64 {
	q := f.Q
	if q < 0.1 {
		q = 0.1
	}

	if !f.coeffsValid {
		f.smoothedCutoff = f.Cutoff
		f.smoothedQ = q
		f.recomputeCoeffs(f.smoothedCutoff, f.smoothedQ)
		f.coeffsValid = true
	}

	target := f.Cutoff
	prevCutoff := f.smoothedCutoff
	prevQ := f.smoothedQ
	f.smoothedCutoff = inertial*f.smoothedCutoff + (1-inertial)*target
	f.smoothedQ = inertial*f.smoothedQ + (1-inertial)*q

	if math.Abs(f.smoothedCutoff-prevCutoff) > 1 || math.Abs(f.smoothedQ-prevQ) > 0.01 {
		f.recomputeCoeffs(f.smoothedCutoff, f.smoothedQ)
	}

	factor := f.Oversample
	if factor != 2 && factor != 4 && factor != 8 {
		factor = 0
	}
	if factor == 0 {
		return f.step(x)
	}

	var sum float64
	sum += f.step(x)
	for i := 1; i < factor; i++ {
		sum += f.step(0)
	}
	return sum / float64(factor)
}

func (f *Filter) step(x float64) float64 {
	x = math.Tanh(x * f.Drive)
	y := f.b0*x + f.b1*f.x1 + f.b2*f.x2 - f.a1*f.y1 - f.a2*f.y2
	f.x2 = f.x1
	f.x1 = x
	f.y2 = f.y1
	f.y1 = y
	return y
}

// Reset clears filter history (not parameters).
func (f *Filter) Reset() {
	f.x1, f.x2, f.y1, f.y2 = 0, 0, 0, 0
}
