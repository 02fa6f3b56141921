package voice

import (
	"math"
	"testing"

	"github.com/cbegin/subsynth-go/internal/oscillator"
	"github.com/cbegin/subsynth-go/internal/wavetable"
)

func newTestVoice() *Voice {
	return New(wavetable.New())
}

func TestNoteOnSetsFrequencyAndState(t *testing.T) {
	v := newTestVoice()
	v.NoteOn(69, 1.0, 0)
	if v.BaseFrequency != 440 {
		t.Errorf("BaseFrequency = %f, want 440", v.BaseFrequency)
	}
	if v.MIDINote != 69 {
		t.Errorf("MIDINote = %d, want 69", v.MIDINote)
	}
	if v.EnvState() != oscillator.Attack {
		t.Errorf("EnvState = %v, want Attack", v.EnvState())
	}
}

func TestNoteOffMarksFree(t *testing.T) {
	v := newTestVoice()
	v.NoteOn(60, 1.0, 0)
	v.NoteOff(0)
	if v.MIDINote != -1 {
		t.Errorf("MIDINote after NoteOff = %d, want -1", v.MIDINote)
	}
	if v.EnvState() != oscillator.Release {
		t.Errorf("EnvState after NoteOff = %v, want Release", v.EnvState())
	}
}

// TestUnisonN1IsDirectSample is invariant 7: unison with N=1 at any spread
// index must equal the direct stereo sample, with no detuned copies summed.
func TestUnisonN1IsDirectSample(t *testing.T) {
	for spread := 0; spread <= 4; spread++ {
		v1 := newTestVoice()
		v1.Oscs[0].SustainLvl = 1
		v1.NoteOn(69, 1.0, 0)
		v2 := newTestVoice()
		v2.Oscs[0].SustainLvl = 1
		v2.NoteOn(69, 1.0, 0)

		for i := 0; i < 10; i++ {
			now := float64(i) / oscillator.SampleRate
			directL, directR := v1.GenerateStereo(now)
			unisonL, unisonR := v2.GenerateUnison(now, 1, spread)
			if math.Abs(directL-unisonL) > 1e-9 || math.Abs(directR-unisonR) > 1e-9 {
				t.Fatalf("spread %d, sample %d: direct=(%f,%f) unison=(%f,%f)", spread, i, directL, directR, unisonL, unisonR)
			}
		}
	}
}

func TestGenerateMonoSumsVCOs(t *testing.T) {
	v := newTestVoice()
	for i := range v.Oscs {
		v.Oscs[i].SustainLvl = 1
	}
	v.NoteOn(69, 1.0, 0)
	got := v.GenerateMono(0)
	// GenerateMono already advanced v's state, so the expectation is summed
	// from an identical voice's oscillators, weighted by VCOMix.
	ref := newTestVoice()
	for i := range ref.Oscs {
		ref.Oscs[i].SustainLvl = 1
	}
	ref.NoteOn(69, 1.0, 0)
	var want float64
	for i, osc := range ref.Oscs {
		want += osc.Generate(0) * ref.VCOMix[i]
	}
	if got != want {
		t.Errorf("GenerateMono = %f, want weighted VCO sum %f", got, want)
	}
	// The VCOMix weights default to 1/3 each.
	sum := 0.0
	for _, m := range v.VCOMix {
		sum += m
	}
	if math.Abs(sum-1.0) > 1e-9 {
		t.Fatalf("VCO mix weights should sum to 1, got %f", sum)
	}
}

func TestEffectiveUnisonUsesGlobalWhenZero(t *testing.T) {
	v := newTestVoice()
	count, spread := v.EffectiveUnison(4, 2)
	if count != 4 || spread != 2 {
		t.Errorf("EffectiveUnison = (%d,%d), want (4,2)", count, spread)
	}
	v.UnisonCount = 3
	v.UnisonSpreadIdx = 1
	count, spread = v.EffectiveUnison(4, 2)
	if count != 3 || spread != 1 {
		t.Errorf("EffectiveUnison with override = (%d,%d), want (3,1)", count, spread)
	}
}
