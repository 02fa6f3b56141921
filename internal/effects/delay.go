package effects

import "math"

const delaySampleRate = 44100
const maxDelaySeconds = 3

// Delay implements a stereo delay line with feedback and wet/dry mix, per
// SPEC_FULL §4.7. Both channels share the same delay time.
type Delay struct {
	bufL, bufR []float32
	pos        int
	timeSec    float64
	feedback   float32
	wet        float32
}

// NewDelay creates a delay effect. delaySec is the delay time in seconds,
// feedback and wet are 0..1 (feedback is clamped to <= 0.95).
func NewDelay(delaySec float64, feedback, wet float32) *Delay {
	size := int(maxDelaySeconds * delaySampleRate)
	return &Delay{
		bufL:     make([]float32, size),
		bufR:     make([]float32, size),
		timeSec:  delaySec,
		feedback: clamp(feedback, 0, 0.95),
		wet:      clamp(wet, 0, 1),
	}
}

func (d *Delay) readIndex() int {
	offset := int(math.Floor(d.timeSec * delaySampleRate))
	if offset >= len(d.bufL) {
		offset = len(d.bufL) - 1
	}
	idx := d.pos - offset
	for idx < 0 {
		idx += len(d.bufL)
	}
	return idx
}

func (d *Delay) Process(l, r float32) (float32, float32) {
	idx := d.readIndex()
	readL := d.bufL[idx]
	readR := d.bufR[idx]

	d.bufL[d.pos] = l + d.feedback*readL
	d.bufR[d.pos] = r + d.feedback*readR

	d.pos++
	if d.pos >= len(d.bufL) {
		d.pos = 0
	}

	return l*(1-d.wet) + readL*d.wet, r*(1-d.wet) + readR*d.wet
}

func (d *Delay) Reset() {
	for i := range d.bufL {
		d.bufL[i] = 0
		d.bufR[i] = 0
	}
	d.pos = 0
}

// SetTime updates the delay time in seconds, clamped to the buffer size.
func (d *Delay) SetTime(sec float64) {
	if sec < 0 {
		sec = 0
	}
	if sec > maxDelaySeconds {
		sec = maxDelaySeconds
	}
	d.timeSec = sec
}

func clamp(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
