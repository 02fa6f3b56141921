// Package engine wires the voice table, event router targets, effects
// chain, and render pipeline into the synthesizer's single shared state,
// per SPEC_FULL §3-§4. All mutation goes through the engine's coarse mutex
// except the visualization ring-buffer writes, which are single-producer
// atomics (SPEC_FULL §5).
package engine

import (
	"math"
	"sync"
	"sync/atomic"

	"github.com/cbegin/subsynth-go/internal/effects"
	"github.com/cbegin/subsynth-go/internal/filter"
	"github.com/cbegin/subsynth-go/internal/oscillator"
	"github.com/cbegin/subsynth-go/internal/voice"
	"github.com/cbegin/subsynth-go/internal/wavetable"
)

const (
	numVoices       = 8
	vizBufSize      = 2048
	voiceVizBufSize = 512
)

// Engine owns every piece of shared synthesizer state for one process-wide
// instance (SPEC_FULL §9: no package-level var holds engine state).
type Engine struct {
	mu sync.Mutex

	table  *wavetable.Table
	Voices [numVoices]*voice.Voice

	noteToVoice map[int]int
	roundRobin  atomic.Uint64

	// now is the sample-counter clock, in seconds, advanced by 1/SR per
	// rendered frame (SPEC_FULL §9). It is the single time domain shared
	// by every NoteOn/NoteOff call, regardless of which producer thread
	// issues it.
	now float64

	MasterVolume   float64
	MasterPan      float64
	Transpose      int
	UnisonCount    int
	UnisonSpread   int
	PitchBend      float64
	PitchBendRange float64
	ModWheel       float64
	ModLFORate     float64
	ModLFODepthSemitones float64
	modLFOPhase    float64

	FilterEnabled     bool
	FilterL, FilterR  *filter.Filter
	FlangerEnabled    bool
	Flanger           *effects.Flanger
	DelayEnabled      bool
	Delay             *effects.Delay
	ReverbEnabled     bool
	Reverb            *effects.Reverb
	CompressorEnabled bool
	Compressor        *effects.Compressor
	DCEnabled         bool
	DC                *effects.DCBlocker
	SoftClipEnabled   bool
	SoftClip          *effects.SoftClip
	AutoGainEnabled   bool
	AutoGain          *effects.AutoGain

	chain    *effects.Chain
	filterFx *filterEffector

	Arp    ArpState
	Melody MelodyState

	vizWriteIdx      atomic.Uint64
	vizBuf           [vizBufSize][2]float32
	voiceVizWriteIdx [numVoices]atomic.Uint64
	voiceVizBuf      [numVoices][voiceVizBufSize]float32
}

// New creates a fully wired engine with default parameters and a fixed
// 8-voice table.
func New() *Engine {
	t := wavetable.New()
	e := &Engine{
		table:                t,
		noteToVoice:          make(map[int]int),
		MasterVolume:         1,
		UnisonCount:          1,
		UnisonSpread:         0,
		PitchBendRange:       2,
		ModLFORate:           5,
		ModLFODepthSemitones: 0,
		FilterL:              filter.New(),
		FilterR:              filter.New(),
		Flanger:              effects.NewFlanger(0.5, 0.002, 0.3),
		Delay:                effects.NewDelay(0.3, 0.3, 0.3),
		Reverb:               effects.NewReverb(0.5, 0.3, 0.3),
		Compressor:           effects.NewCompressor(-18, 4, 10, 100, 0),
		DC:                   effects.NewDCBlocker(),
		SoftClip:             effects.NewSoftClip(1),
		AutoGain:             effects.NewAutoGain(0.3),
	}
	for i := range e.Voices {
		e.Voices[i] = voice.New(t)
	}
	e.filterFx = &filterEffector{l: e.FilterL, r: e.FilterR}
	e.chain = effects.NewChain(
		&toggleEffector{enabled: &e.FlangerEnabled, get: func() effects.Effector { return e.Flanger }},
		&toggleEffector{enabled: &e.DelayEnabled, get: func() effects.Effector { return e.Delay }},
		&toggleEffector{enabled: &e.ReverbEnabled, get: func() effects.Effector { return e.Reverb }},
		&toggleEffector{enabled: &e.CompressorEnabled, get: func() effects.Effector { return e.Compressor }},
		&toggleEffector{enabled: &e.FilterEnabled, get: func() effects.Effector { return e.filterFx }},
		&toggleEffector{enabled: &e.DCEnabled, get: func() effects.Effector { return e.DC }},
		&toggleEffector{enabled: &e.SoftClipEnabled, get: func() effects.Effector { return e.SoftClip }},
		&toggleEffector{enabled: &e.AutoGainEnabled, get: func() effects.Effector { return e.AutoGain }},
	)
	e.Arp.activeVoice = -1
	e.Arp.BPM = 120
	e.Arp.Gate = 0.5
	e.Arp.RangeOctaves = 1
	e.Arp.randState = 12345
	e.Melody.MaxLoops = 1
	return e
}

// SampleClock returns the engine's current sample-counter time in seconds,
// for use by tick-driven producers (arp, melody) as their "now" reference.
func (e *Engine) SampleClock() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.now
}

// Render fills buf (interleaved stereo float32, len(buf)/2 frames) by
// pulling samples from the full synthesis and effects pipeline. Render must
// never allocate or block beyond the engine mutex (SPEC_FULL §5); any
// unexpected panic during rendering is recovered and the buffer is zeroed
// so the audio thread never stops.
func (e *Engine) Render(buf []float32) {
	e.mu.Lock()
	defer e.mu.Unlock()
	defer func() {
		if r := recover(); r != nil {
			for i := range buf {
				buf[i] = 0
			}
		}
	}()

	frames := len(buf) / 2
	for i := 0; i < frames; i++ {
		l, r := e.renderFrameLocked()
		buf[i*2] = float32(l)
		buf[i*2+1] = float32(r)
	}
}

func (e *Engine) renderFrameLocked() (float64, float64) {
	lfoVal := math.Sin(2 * math.Pi * e.modLFOPhase)
	lfoMod := lfoVal * e.ModWheel * e.ModLFODepthSemitones
	pitchBendSemis := e.PitchBend * e.PitchBendRange

	var mixL, mixR float64
	for vi, v := range e.Voices {
		for _, osc := range v.Oscs {
			osc.PitchBend = pitchBendSemis
			osc.LfoMod = lfoMod
		}
		l, r := v.GenerateUnison(e.now, e.UnisonCount, e.UnisonSpread)
		mixL += l
		mixR += r
		e.writeVoiceViz(vi, float32((l+r)*0.5))
	}
	if n := len(e.Voices); n > 0 {
		div := math.Sqrt(float64(n))
		mixL /= div
		mixR /= div
	}

	fl, fr := float32(mixL), float32(mixR)
	fl, fr = e.chain.Process(fl, fr)

	outL := float64(fl) * e.MasterVolume
	outR := float64(fr) * e.MasterVolume
	pan := e.MasterPan
	outL *= 1 - math.Max(0, pan)
	outR *= 1 + math.Min(0, pan)

	outL = clampf(outL, -1, 1)
	outR = clampf(outR, -1, 1)

	e.writeViz(float32(outL), float32(outR))

	e.modLFOPhase += e.ModLFORate / oscillator.SampleRate
	if e.modLFOPhase >= 1 {
		e.modLFOPhase -= math.Floor(e.modLFOPhase)
	}
	e.now += 1.0 / oscillator.SampleRate

	return outL, outR
}

func (e *Engine) writeViz(l, r float32) {
	idx := e.vizWriteIdx.Add(1) - 1
	e.vizBuf[idx%vizBufSize] = [2]float32{l, r}
}

func (e *Engine) writeVoiceViz(voiceIdx int, sample float32) {
	idx := e.voiceVizWriteIdx[voiceIdx].Add(1) - 1
	e.voiceVizBuf[voiceIdx][idx%voiceVizBufSize] = sample
}

// VizBuffer returns the live 2048-entry stereo post-effects ring. Readers
// must tolerate torn reads across the write index wrap (SPEC_FULL §5/§6).
func (e *Engine) VizBuffer() *[vizBufSize][2]float32 {
	return &e.vizBuf
}

// VoiceVizBuffer returns the live 512-entry per-voice ring for voiceIdx.
func (e *Engine) VoiceVizBuffer(voiceIdx int) *[voiceVizBufSize]float32 {
	return &e.voiceVizBuf[voiceIdx]
}

func clampf(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

func clampNote(n int) int {
	if n < 0 {
		return 0
	}
	if n > 127 {
		return 127
	}
	return n
}
