package effects

import (
	"math"
	"testing"
)

// TestDelayDisabledIsTransparent is property 5: a delay with wet=0 must pass
// the dry signal through unchanged.
func TestDelayDisabledIsTransparent(t *testing.T) {
	d := NewDelay(0.3, 0.4, 0)
	for i := 0; i < 100; i++ {
		in := float32(math.Sin(float64(i) * 0.1))
		l, r := d.Process(in, in)
		if math.Abs(float64(l-in)) > 1e-6 || math.Abs(float64(r-in)) > 1e-6 {
			t.Fatalf("sample %d: expected transparent passthrough, got (%f,%f) want %f", i, l, r, in)
		}
	}
}

// TestReverbDisabledIsTransparent is property 5 applied to the reverb.
func TestReverbDisabledIsTransparent(t *testing.T) {
	rv := NewReverb(0.5, 0.5, 0)
	for i := 0; i < 100; i++ {
		in := float32(math.Sin(float64(i) * 0.1))
		l, r := rv.Process(in, in)
		if math.Abs(float64(l-in)) > 1e-6 || math.Abs(float64(r-in)) > 1e-6 {
			t.Fatalf("sample %d: expected transparent passthrough, got (%f,%f) want %f", i, l, r, in)
		}
	}
}

// TestFlangerDisabledIsTransparent is property 5 applied to the flanger.
func TestFlangerDisabledIsTransparent(t *testing.T) {
	fl := NewFlanger(0.5, 0.002, 0)
	for i := 0; i < 100; i++ {
		in := float32(math.Sin(float64(i) * 0.1))
		l, r := fl.Process(in, in)
		if math.Abs(float64(l-in)) > 1e-6 || math.Abs(float64(r-in)) > 1e-6 {
			t.Fatalf("sample %d: expected transparent passthrough, got (%f,%f) want %f", i, l, r, in)
		}
	}
}

// TestCompressorGainIsMonotonic is property 6: increasing input level above
// threshold must never increase the applied gain.
func TestCompressorGainIsMonotonic(t *testing.T) {
	c := NewCompressor(-20, 4, 5, 50, 0)
	levels := []float32{0.05, 0.1, 0.2, 0.4, 0.6, 0.8, 1.0}
	var prevGain float32 = 2 // larger than any achievable gain
	for _, lvl := range levels {
		c.Reset()
		var outL float32
		for i := 0; i < 2000; i++ {
			outL, _ = c.Process(lvl, lvl)
		}
		gain := outL / lvl
		if gain > prevGain+1e-4 {
			t.Errorf("level %f: gain %f exceeds gain at lower level %f", lvl, gain, prevGain)
		}
		prevGain = gain
	}
}

// TestDelayTimingMatchesScenario is scenario S6: a 0.25s delay with zero
// feedback and full wet mix must echo an impulse back exactly 0.25s later
// (11025 samples at 44100Hz): sample 0 is silent and no sample before the
// echo exceeds 0.5.
func TestDelayTimingMatchesScenario(t *testing.T) {
	d := NewDelay(0.25, 0, 1.0)
	const expectedSamples = 11025

	l, _ := d.Process(1.0, 1.0)
	if l != 0 {
		t.Fatalf("sample 0: expected silence before the echo, got %f", l)
	}

	var echoSample = -1
	for i := 1; i <= expectedSamples+10; i++ {
		l, _ := d.Process(0, 0)
		if l > 0.5 {
			echoSample = i
			break
		}
	}
	if echoSample != expectedSamples {
		t.Errorf("echo arrived at sample %d, want %d", echoSample, expectedSamples)
	}
}

func TestDCBlockerRemovesOffset(t *testing.T) {
	d := NewDCBlocker()
	var sum float32
	const n = 4000
	for i := 0; i < n; i++ {
		l, _ := d.Process(0.5, 0.5)
		if i > n/2 {
			sum += l
		}
	}
	avg := sum / float32(n/2)
	if math.Abs(float64(avg)) > 0.01 {
		t.Errorf("DC offset not removed: average output %f", avg)
	}
}

func TestSoftClipBoundsOutput(t *testing.T) {
	s := NewSoftClip(4)
	l, r := s.Process(10, -10)
	// tanh(10*4) saturates to ~1.0, then divides by drive=4.
	if l <= 0.24 || l >= 0.2501 {
		t.Errorf("expected clipped output near 0.25, got %f", l)
	}
	if r >= -0.24 || r <= -0.2501 {
		t.Errorf("expected clipped output near -0.25, got %f", r)
	}
}

func TestAutoGainConvergesTowardTarget(t *testing.T) {
	a := NewAutoGain(0.2)
	var lastL float32
	for i := 0; i < 20000; i++ {
		in := float32(math.Sin(float64(i) * 0.3))
		lastL, _ = a.Process(in*0.01, in*0.01)
		_ = lastL
	}
	var sumSq float32
	const window = 2000
	for i := 0; i < window; i++ {
		in := float32(math.Sin(float64(i) * 0.3))
		l, _ := a.Process(in*0.01, in*0.01)
		sumSq += l * l
	}
	rms := float32(math.Sqrt(float64(sumSq / window)))
	if math.Abs(float64(rms-0.2)) > 0.05 {
		t.Errorf("auto-gain RMS = %f, want close to target 0.2", rms)
	}
}

func TestChainAppliesEffectsInOrder(t *testing.T) {
	// Zero delay reads the slot before it is overwritten, so a fresh line
	// outputs silence; the soft clip after it must still bound the output.
	d := NewDelay(0, 0, 1.0)
	sc := NewSoftClip(1)
	chain := NewChain(d, sc)
	l, r := chain.Process(10, 10)
	if l > 1.0001 || r > 1.0001 {
		t.Errorf("chained soft clip did not bound output: (%f,%f)", l, r)
	}

	// DC blocker then soft clip gives tanh(9.95); the reverse order would
	// give 0.995*tanh(10).
	wantL, _ := NewSoftClip(1).Process(NewDCBlocker().Process(10, 10))
	gotL, _ := NewChain(NewDCBlocker(), NewSoftClip(1)).Process(10, 10)
	if gotL != wantL {
		t.Errorf("chain output %f, want %f from applying effects in order", gotL, wantL)
	}
}
