// Package oscillator implements the phase-accumulating, ADSR-enveloped
// oscillator used by each VCO in a voice.
package oscillator

import (
	"math"

	"github.com/cbegin/subsynth-go/internal/wavetable"
)

// SampleRate is the engine's fixed sample rate in Hz.
const SampleRate = 44100

// Waveform selects the oscillator's output shape. Square and Pulse are kept
// as distinct constants even though they compute identically today — see
// SPEC_FULL §4.2 for why this alias is explicit rather than dropped.
type Waveform int

const (
	Sine Waveform = iota
	Square
	Saw
	Triangle
	SawUp
	SawDown
	Pulse
	Random
)

// EnvelopeState is the ADSR phase.
type EnvelopeState int

const (
	Off EnvelopeState = iota
	Attack
	Decay
	Sustain
	Release
)

const (
	semitoneConst = 0.0577622650466621 // ln(2)/12
	centConst     = 0.00057807807701174 // ln(2)/1200
)

// Oscillator is a single phase-accumulating voice-component oscillator.
type Oscillator struct {
	table *wavetable.Table

	Waveform  Waveform
	Frequency float64
	Amplitude float64
	phase     float64 // samples generated, wraps at SampleRate; NoteOn does not reset it

	EnvState         EnvelopeState
	envLevel         float64
	startTime        float64
	releaseStartTime float64
	releaseStartLvl  float64
	noteOnTime       float64

	AttackSec  float64
	DecaySec   float64
	SustainLvl float64
	ReleaseSec float64

	PhaseOffsetSec       float64
	PulseWidth           float64
	PitchShiftSemitones  float64
	DetuneCents          float64
	PitchBend            float64
	LfoMod               float64

	randState uint32
}

// New creates an oscillator sharing the given sine table.
func New(table *wavetable.Table) *Oscillator {
	return &Oscillator{
		table:      table,
		Waveform:   Sine,
		PulseWidth: 0.5,
		randState:  22222,
	}
}

// NoteOn starts the ADSR envelope at the given velocity-derived amplitude.
func (o *Oscillator) NoteOn(amplitude, now float64) {
	o.EnvState = Attack
	o.startTime = now
	o.Amplitude = amplitude
	o.noteOnTime = now
}

// NoteOff begins the release phase unless the oscillator is already Off.
func (o *Oscillator) NoteOff(now float64) {
	if o.EnvState != Off {
		o.EnvState = Release
		o.releaseStartTime = now
		o.releaseStartLvl = o.envLevel
	}
}

func (o *Oscillator) effectiveFreq() float64 {
	pitchMod := o.PitchShiftSemitones + o.PitchBend + o.LfoMod
	return o.Frequency * math.Exp(pitchMod*semitoneConst) * math.Exp(o.DetuneCents*centConst)
}

func (o *Oscillator) waveformSample(effFreq, t float64) float64 {
	switch o.Waveform {
	case Sine:
		return o.table.Lookup(2 * math.Pi * effFreq * t)
	case Square, Pulse:
		pos := effFreq*t - math.Floor(effFreq*t)
		if pos < o.PulseWidth {
			return 1
		}
		return -1
	case Saw:
		return 2 * (t*effFreq - math.Floor(t*effFreq+0.5))
	case SawUp:
		return 2*(t*effFreq-math.Floor(t*effFreq)) - 1
	case SawDown:
		return 1 - 2*(t*effFreq-math.Floor(t*effFreq))
	case Triangle:
		return 2*math.Abs(2*(2*t*effFreq-math.Floor(2*t*effFreq+0.5))) - 1
	case Random:
		o.randState = o.randState*1664525 + 1013904223
		v := (o.randState >> 9) & 0x7FFFFF
		return float64(v)/4194303.5*2 - 1
	}
	return 0
}

// Generate produces the next sample, advancing phase and envelope state.
// now is the sample-counter clock in seconds (see DESIGN.md).
func (o *Oscillator) Generate(now float64) float64 {
	t := o.phase/SampleRate + o.PhaseOffsetSec
	effFreq := o.effectiveFreq()
	sample := o.waveformSample(effFreq, t)

	o.advanceEnvelope(now)

	o.phase++
	if o.phase >= SampleRate {
		o.phase -= SampleRate
	}

	return sample * o.Amplitude * o.envLevel
}

// GenerateDetuned computes a sample for unison rendering without mutating
// phase or envelope state, using an extra detune/phase offset.
func (o *Oscillator) GenerateDetuned(extraCents, extraPhaseSec float64) float64 {
	localPhase := o.phase/SampleRate + o.PhaseOffsetSec + extraPhaseSec
	pitchMod := o.PitchShiftSemitones + o.PitchBend + o.LfoMod
	combinedCents := o.DetuneCents + extraCents
	effFreq := o.Frequency * math.Exp(pitchMod*semitoneConst) * math.Exp(combinedCents*centConst)

	var sample float64
	switch o.Waveform {
	case Sine:
		sample = o.table.Lookup(2 * math.Pi * effFreq * localPhase)
	case Square, Pulse:
		pos := effFreq*localPhase - math.Floor(effFreq*localPhase)
		if pos < o.PulseWidth {
			sample = 1
		} else {
			sample = -1
		}
	case Saw:
		sample = 2 * (localPhase*effFreq - math.Floor(localPhase*effFreq+0.5))
	case SawUp:
		sample = 2*(localPhase*effFreq-math.Floor(localPhase*effFreq)) - 1
	case SawDown:
		sample = 1 - 2*(localPhase*effFreq-math.Floor(localPhase*effFreq))
	case Triangle:
		sample = 2*math.Abs(2*(2*localPhase*effFreq-math.Floor(2*localPhase*effFreq+0.5))) - 1
	case Random:
		s := uint32(math.Mod(localPhase*100000.0, 4294967295.0))
		s = s*1664525 + 1013904223
		v := (s >> 9) & 0x7FFFFF
		sample = float64(v)/4194303.5*2 - 1
	}
	return sample * o.Amplitude * o.envLevel
}

func (o *Oscillator) advanceEnvelope(now float64) {
	switch o.EnvState {
	case Off:
		o.envLevel = 0
	case Attack:
		elapsed := now - o.startTime
		if o.AttackSec == 0 {
			o.envLevel = 1
		} else {
			o.envLevel = math.Min(1, elapsed/o.AttackSec)
		}
		if elapsed >= o.AttackSec {
			o.EnvState = Decay
			o.startTime = now
		}
	case Decay:
		elapsed := now - o.startTime
		if o.DecaySec == 0 {
			o.envLevel = o.SustainLvl
		} else {
			o.envLevel = math.Max(o.SustainLvl, 1-(elapsed/o.DecaySec)*(1-o.SustainLvl))
		}
		if elapsed >= o.DecaySec {
			o.EnvState = Sustain
		}
	case Sustain:
		o.envLevel = o.SustainLvl
	case Release:
		elapsed := now - o.releaseStartTime
		if o.ReleaseSec == 0 {
			o.envLevel = 0
		} else {
			o.envLevel = math.Max(0, o.releaseStartLvl-(elapsed/o.ReleaseSec)*o.releaseStartLvl)
		}
		if elapsed >= o.ReleaseSec || o.envLevel <= 0.001 {
			o.EnvState = Off
			o.envLevel = 0
		}
	}
}

// SetPulseWidth clamps pw into [0.01, 0.99] per SPEC_FULL §7 before storing
// it, since pulse width is one of the engine's silently-clamped parameters.
func (o *Oscillator) SetPulseWidth(pw float64) {
	if pw < 0.01 {
		pw = 0.01
	}
	if pw > 0.99 {
		pw = 0.99
	}
	o.PulseWidth = pw
}

// EnvLevel returns the current envelope level.
func (o *Oscillator) EnvLevel() float64 { return o.envLevel }

// Phase returns the current phase accumulator (samples).
func (o *Oscillator) Phase() float64 { return o.phase }

// SetPhase overwrites the phase accumulator.
func (o *Oscillator) SetPhase(p float64) { o.phase = p }
