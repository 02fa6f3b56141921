package effects

import "math"

const compressorSampleRate = 44100

// Compressor implements feed-forward dynamic range compression in the dB
// domain per SPEC_FULL §4.9: the instantaneous target gain is computed from
// the input level and threshold/ratio, then the *gain* itself is smoothed
// with independent attack/release coefficients.
type Compressor struct {
	thresholdDB float32
	ratio       float32
	attackCoef  float32
	releaseCoef float32
	makeup      float32
	gainL       float32
	gainR       float32
}

// NewCompressor creates a compressor effect.
// thresholdDB: threshold in dB (e.g. -20)
// ratio: compression ratio (e.g. 4 for 4:1)
// attackMs, releaseMs: gain-smoothing times in milliseconds
// makeupDB: makeup gain in dB
func NewCompressor(thresholdDB, ratio, attackMs, releaseMs, makeupDB float32) *Compressor {
	sr := float32(compressorSampleRate)
	attackSec := attackMs * 0.001
	releaseSec := releaseMs * 0.001
	if attackSec < 0.0001 {
		attackSec = 0.0001
	}
	if releaseSec < 0.0001 {
		releaseSec = 0.0001
	}
	return &Compressor{
		thresholdDB: thresholdDB,
		ratio:       ratio,
		attackCoef:  float32(math.Exp(-1.0 / float64(attackSec*sr))),
		releaseCoef: float32(math.Exp(-1.0 / float64(releaseSec*sr))),
		makeup:      float32(math.Pow(10, float64(makeupDB)/20)),
		gainL:       1,
		gainR:       1,
	}
}

func (c *Compressor) Process(l, r float32) (float32, float32) {
	gL := c.processChannel(l, &c.gainL)
	gR := c.processChannel(r, &c.gainR)
	return l * gL * c.makeup, r * gR * c.makeup
}

// processChannel computes the instantaneous target gain for x, smooths
// *gain toward it with the attack coefficient while reducing gain or the
// release coefficient while releasing it, and returns the smoothed gain.
func (c *Compressor) processChannel(x float32, gain *float32) float32 {
	absVal := float32(math.Abs(float64(x))) + 1e-20
	inDB := float32(20 * math.Log10(float64(absVal)))

	desiredGain := float32(1.0)
	if inDB > c.thresholdDB {
		outDB := c.thresholdDB + (inDB-c.thresholdDB)/c.ratio
		desiredGain = float32(math.Pow(10, float64(outDB-inDB)/20))
	}

	coef := c.releaseCoef
	if desiredGain < *gain {
		coef = c.attackCoef
	}
	*gain = coef**gain + (1-coef)*desiredGain
	return *gain
}

func (c *Compressor) Reset() {
	c.gainL = 1
	c.gainR = 1
}
