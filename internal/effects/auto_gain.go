package effects

// AutoGain tracks an independent smoothed-|x| level per channel and applies
// makeup gain toward TargetRMS, the final stage of the fixed post-filter
// chain in SPEC_FULL §4.10. Both the level and the gain are smoothed with
// the same alpha, matching the original's two parallel EMAs per channel.
type AutoGain struct {
	TargetRMS float32
	Alpha     float32

	rmsL, rmsR   float32
	gainL, gainR float32
}

func NewAutoGain(targetRMS float32) *AutoGain {
	return &AutoGain{
		TargetRMS: targetRMS,
		Alpha:     0.999,
		gainL:     1,
		gainR:     1,
	}
}

func (a *AutoGain) Process(l, r float32) (float32, float32) {
	l = a.processChannel(l, &a.rmsL, &a.gainL)
	r = a.processChannel(r, &a.rmsR, &a.gainR)
	return l, r
}

func (a *AutoGain) processChannel(x float32, rms, gain *float32) float32 {
	absVal := x
	if absVal < 0 {
		absVal = -absVal
	}
	*rms = a.Alpha**rms + (1-a.Alpha)*absVal

	targetGain := float32(1.0)
	if *rms > 0 {
		targetGain = a.TargetRMS / *rms
	}
	*gain = a.Alpha**gain + (1-a.Alpha)*targetGain

	return x * *gain
}

func (a *AutoGain) Reset() {
	a.rmsL, a.rmsR = 0, 0
	a.gainL, a.gainR = 1, 1
}
