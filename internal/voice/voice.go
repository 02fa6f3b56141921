// Package voice implements a polyphonic voice: three VCOs summed with
// per-VCO mix, detune, phase offset, and pan, plus unison rendering.
package voice

import (
	"math"

	"github.com/cbegin/subsynth-go/internal/oscillator"
	"github.com/cbegin/subsynth-go/internal/wavetable"
)

const numVCOs = 3

// Unison spread tables indexed by spread index (0..4), per SPEC_FULL §4.5.
var (
	DetuneCentsPerStep = [5]float64{0, 3, 10, 25, 50}
	PhaseSecPerStep    = [5]float64{0, 1e-4, 2.5e-4, 5e-4, 1e-3}
)

// Voice owns three oscillators (VCOs) and the per-voice mixing/unison state.
type Voice struct {
	Oscs [numVCOs]*oscillator.Oscillator

	MIDINote int // -1 means free
	LastUsed float64

	MixLevel float64

	// UnisonCount 0 and UnisonSpreadIdx -1 mean "use global", per
	// SPEC_FULL §3.
	UnisonCount      int
	UnisonSpreadIdx  int

	BaseFrequency float64

	VCOMix        [numVCOs]float64
	VCODetune     [numVCOs]float64 // cents
	VCOPhaseMs    [numVCOs]float64
	VCOPan        [numVCOs]float64 // -1..1
}

// New creates a voice with three oscillators sharing the given sine table
// and default even VCO mix.
func New(table *wavetable.Table) *Voice {
	v := &Voice{
		MIDINote:        -1,
		MixLevel:        1,
		UnisonSpreadIdx: -1,
	}
	for i := range v.Oscs {
		v.Oscs[i] = oscillator.New(table)
		v.VCOMix[i] = 1.0 / numVCOs
	}
	return v
}

// NoteOn starts all three oscillators at the given MIDI note and velocity
// (0..1), applying each VCO's detune/phase-offset/pitch settings.
func (v *Voice) NoteOn(midiNote int, velocity, now float64) {
	v.MIDINote = midiNote
	v.BaseFrequency = wavetable.MIDIToHz(float64(midiNote))
	for i, osc := range v.Oscs {
		osc.Frequency = v.BaseFrequency
		osc.DetuneCents = v.VCODetune[i]
		osc.PhaseOffsetSec = v.VCOPhaseMs[i] / 1000
		osc.NoteOn(velocity, now)
	}
	v.LastUsed = now
}

// NoteOff releases all three oscillators. The voice remains audible until
// the envelopes complete.
func (v *Voice) NoteOff(now float64) {
	for _, osc := range v.Oscs {
		osc.NoteOff(now)
	}
	v.MIDINote = -1
}

// EnvState reports the voice's envelope state, read from oscillator 0 since
// all three share the same envelope phase after NoteOn.
func (v *Voice) EnvState() oscillator.EnvelopeState {
	return v.Oscs[0].EnvState
}

// GenerateMono sums the three VCOs' samples weighted by VCOMix.
func (v *Voice) GenerateMono(now float64) float64 {
	var sum float64
	for i, osc := range v.Oscs {
		sum += osc.Generate(now) * v.VCOMix[i]
	}
	return sum
}

// GenerateStereo computes a stereo pair from the three VCOs, applying each
// VCO's pan with an equal-power-approximation linear pan law.
func (v *Voice) GenerateStereo(now float64) (float64, float64) {
	var l, r float64
	for i, osc := range v.Oscs {
		s := osc.Generate(now) * v.VCOMix[i]
		pan := v.VCOPan[i]
		l += s * (1 - math.Max(0, pan))
		r += s * (1 + math.Min(0, pan))
	}
	return l, r
}

// GenerateStereoDetuned renders a non-state-mutating unison copy at an extra
// detune (cents) and phase offset (seconds), applying voicePan at the voice
// level rather than per-VCO, per SPEC_FULL §4.5.
func (v *Voice) GenerateStereoDetuned(extraCents, extraPhaseSec, voicePan float64) (float64, float64) {
	var sum float64
	for i, osc := range v.Oscs {
		sum += osc.GenerateDetuned(extraCents, extraPhaseSec) * v.VCOMix[i]
	}
	l := sum * (1 - math.Max(0, voicePan))
	r := sum * (1 + math.Min(0, voicePan))
	return l, r
}

// EffectiveUnison resolves this voice's unison count/spread against the
// engine-global defaults (0 / -1 meaning "use global").
func (v *Voice) EffectiveUnison(globalCount, globalSpread int) (count, spread int) {
	count = v.UnisonCount
	if count == 0 {
		count = globalCount
	}
	if count < 1 {
		count = 1
	}
	if count > 8 {
		count = 8
	}
	spread = v.UnisonSpreadIdx
	if spread < 0 {
		spread = globalSpread
	}
	if spread < 0 {
		spread = 0
	}
	if spread > 4 {
		spread = 4
	}
	return
}

// GenerateUnison renders N unison copies (per EffectiveUnison) and returns
// the summed, loudness-divided stereo pair for this voice only (the
// engine divides by √|voices| separately across all voices).
func (v *Voice) GenerateUnison(now float64, globalCount, globalSpread int) (float64, float64) {
	count, spread := v.EffectiveUnison(globalCount, globalSpread)
	centsPerStep := DetuneCentsPerStep[spread]
	phasePerStep := PhaseSecPerStep[spread]
	center := float64(count-1) / 2

	var mixL, mixR float64
	for k := 0; k < count; k++ {
		offset := float64(k) - center
		var l, r float64
		if offset == 0 {
			l, r = v.GenerateStereo(now)
		} else {
			pan := -0.5
			if offset > 0 {
				pan = 0.5
			}
			l, r = v.GenerateStereoDetuned(offset*centsPerStep, offset*phasePerStep, pan)
		}
		mixL += l
		mixR += r
	}
	n := float64(count)
	return (mixL / n) * v.MixLevel, (mixR / n) * v.MixLevel
}
