package engine

import (
	"github.com/cbegin/subsynth-go/internal/effects"
	"github.com/cbegin/subsynth-go/internal/oscillator"
)

func intToWaveform(n int) oscillator.Waveform {
	if n < int(oscillator.Sine) || n > int(oscillator.Random) {
		return oscillator.Sine
	}
	return oscillator.Waveform(n)
}

// SetMasterVolume sets the post-pan master gain.
func (e *Engine) SetMasterVolume(v float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.MasterVolume = v
}

// SetMasterPan sets the master pan (-1..1).
func (e *Engine) SetMasterPan(p float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.MasterPan = clampf(p, -1, 1)
}

// SetUnison sets the global unison count (1..8) and spread index (0..4)
// used by voices whose own override is "use global" (SPEC_FULL §3/§4.5).
func (e *Engine) SetUnison(count, spread int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if count < 1 {
		count = 1
	}
	if count > 8 {
		count = 8
	}
	if spread < 0 {
		spread = 0
	}
	if spread > 4 {
		spread = 4
	}
	e.UnisonCount = count
	e.UnisonSpread = spread
}

// SetPitchBendRange sets the pitch-bend range in semitones applied to the
// normalized pitch-bend value.
func (e *Engine) SetPitchBendRange(semitones float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.PitchBendRange = semitones
}

// SetModLFO sets the mod-LFO rate (Hz) and the semitone depth scaled by the
// mod wheel (SPEC_FULL §2C).
func (e *Engine) SetModLFO(rateHz, depthSemitones float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.ModLFORate = rateHz
	e.ModLFODepthSemitones = depthSemitones
}

// SetFilterParams applies cutoff/Q/drive/oversample to both channel filters.
func (e *Engine) SetFilterParams(cutoff, q, drive float64, oversample int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.FilterL.Cutoff, e.FilterR.Cutoff = cutoff, cutoff
	e.FilterL.Q, e.FilterR.Q = q, q
	e.FilterL.Drive, e.FilterR.Drive = drive, drive
	e.FilterL.Oversample, e.FilterR.Oversample = oversample, oversample
}

// SetEffectEnabled toggles one of the fixed post-filter-chain effects by
// name: "flanger", "delay", "reverb", "compressor", "filter", "dc",
// "softclip" or "autogain" (the stages of SPEC_FULL §4.10's pipeline).
// Any other name is ignored.
func (e *Engine) SetEffectEnabled(name string, enabled bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	switch name {
	case "flanger":
		e.FlangerEnabled = enabled
	case "delay":
		e.DelayEnabled = enabled
	case "reverb":
		e.ReverbEnabled = enabled
	case "compressor":
		e.CompressorEnabled = enabled
	case "filter":
		e.FilterEnabled = enabled
	case "dc":
		e.DCEnabled = enabled
	case "softclip":
		e.SoftClipEnabled = enabled
	case "autogain":
		e.AutoGainEnabled = enabled
	}
}

// SetFlangerParams replaces the flanger's sweep/mix parameters.
func (e *Engine) SetFlangerParams(rateHz, depthSec float64, wet float32) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.Flanger.RateHz = rateHz
	e.Flanger.DepthSec = depthSec
	e.Flanger.Wet = wet
}

// SetDelayParams rebuilds the delay line for a new time/feedback/wet, since
// the delay buffer size is fixed at construction (SPEC_FULL §4.7).
func (e *Engine) SetDelayParams(timeSec float64, feedback, wet float32) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.Delay = effects.NewDelay(timeSec, feedback, wet)
}

// SetReverbParams replaces every reverb parameter at once (SPEC_FULL §4.8).
func (e *Engine) SetReverbParams(size, preDelay, diffuse, stereo, damp, dryMix, wetMix float32) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.Reverb.Size = size
	e.Reverb.PreDelay = preDelay
	e.Reverb.Diffuse = diffuse
	e.Reverb.Stereo = stereo
	e.Reverb.Damp = damp
	e.Reverb.DryMix = dryMix
	e.Reverb.WetMix = wetMix
}

// SetCompressorParams rebuilds the compressor, since its envelope
// coefficients are derived once at construction (SPEC_FULL §4.9).
func (e *Engine) SetCompressorParams(thresholdDB, ratio, attackMs, releaseMs, makeupDB float32) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.Compressor = effects.NewCompressor(thresholdDB, ratio, attackMs, releaseMs, makeupDB)
}

// SetSoftClipDrive sets the soft clipper's drive amount.
func (e *Engine) SetSoftClipDrive(drive float32) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if drive <= 0 {
		drive = 1
	}
	e.SoftClip.Drive = drive
}

// SetAutoGainTarget sets the auto-gain stage's target RMS level.
func (e *Engine) SetAutoGainTarget(target float32) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.AutoGain.TargetRMS = target
}

// SetDCBlockerPole sets the DC blocker's pole coefficient.
func (e *Engine) SetDCBlockerPole(r float32) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.DC.R = r
}

// VoiceConfig mirrors the per-voice tree of the preset format (SPEC_FULL
// §6), used to apply a loaded preset's voice block to a live voice.
type VoiceConfig struct {
	MixLevel        float64
	UnisonCount     int
	UnisonSpreadIdx int
	AttackSec       float64
	DecaySec        float64
	SustainLvl      float64
	ReleaseSec      float64
	VCO             [3]VCOConfig
}

// VCOConfig mirrors one VCO entry of a voice's preset block.
type VCOConfig struct {
	Waveform   int
	Mix        float64
	DetuneCent float64
	PhaseMs    float64
	PulseWidth float64
	PitchShift float64
	Pan        float64
}

// ApplyVoiceConfig writes a preset voice block onto live voice voiceIdx.
// It never touches phase or envelope state, matching the invariant that
// only the render loop's producer advances those (SPEC_FULL §3).
func (e *Engine) ApplyVoiceConfig(voiceIdx int, cfg VoiceConfig) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if voiceIdx < 0 || voiceIdx >= len(e.Voices) {
		return
	}
	v := e.Voices[voiceIdx]
	v.MixLevel = cfg.MixLevel
	v.UnisonCount = cfg.UnisonCount
	v.UnisonSpreadIdx = cfg.UnisonSpreadIdx
	for i, vc := range cfg.VCO {
		v.VCOMix[i] = vc.Mix
		v.VCODetune[i] = vc.DetuneCent
		v.VCOPhaseMs[i] = vc.PhaseMs
		v.VCOPan[i] = vc.Pan
		osc := v.Oscs[i]
		osc.AttackSec = cfg.AttackSec
		osc.DecaySec = cfg.DecaySec
		osc.SustainLvl = cfg.SustainLvl
		osc.ReleaseSec = cfg.ReleaseSec
		osc.PitchShiftSemitones = vc.PitchShift
		osc.SetPulseWidth(vc.PulseWidth)
		osc.Waveform = intToWaveform(vc.Waveform)
	}
}
