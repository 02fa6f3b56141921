package engine

import (
	"math"
	"testing"

	"github.com/cbegin/subsynth-go/internal/oscillator"
)

// TestNoteToVoiceMapConsistency is invariant 1: whenever the map contains
// n -> v, voices[v].MIDINote must equal n.
func TestNoteToVoiceMapConsistency(t *testing.T) {
	e := New()
	notes := []int{60, 61, 62, 63, 64, 65, 66, 67, 68, 69, 70}
	for _, n := range notes {
		e.NoteOn(n, 1.0)
		for note, idx := range e.noteToVoice {
			if e.Voices[idx].MIDINote != note {
				t.Fatalf("map[%d]=%d but voice %d has MIDINote=%d", note, idx, idx, e.Voices[idx].MIDINote)
			}
		}
	}
}

// TestVoiceStealing is scenario S3: 8 voices sustain notes 60..67, then a
// note-on for 68 steals the LRU voice, whose old mapping disappears.
func TestVoiceStealing(t *testing.T) {
	e := New()
	for i, n := 0, 60; n <= 67; i, n = i+1, n+1 {
		e.Voices[i].Oscs[0].SustainLvl = 1
		e.NoteOn(n, 1.0)
		// advance the clock between note-ons so LastUsed differs.
		e.mu.Lock()
		e.now += 0.01
		e.mu.Unlock()
	}
	if _, ok := e.noteToVoice[60]; !ok {
		t.Fatalf("expected note 60 mapped before stealing")
	}
	e.NoteOn(68, 1.0)
	if _, ok := e.noteToVoice[60]; ok {
		t.Errorf("expected LRU note 60 to be evicted from the map")
	}
	if _, ok := e.noteToVoice[68]; !ok {
		t.Errorf("expected note 68 to be mapped after stealing")
	}
}

// TestPitchBendScenario is scenario S4.
func TestPitchBendScenario(t *testing.T) {
	e := New()
	e.SetPitchBendRange(2)
	e.SetPitchBend(1.0)
	e.Voices[0].Oscs[0].SustainLvl = 1
	e.NoteOn(69, 1.0)

	e.mu.Lock()
	osc := e.Voices[0].Oscs[0]
	osc.PitchBend = e.PitchBend * e.PitchBendRange
	semitoneConst := math.Log(2) / 12
	got := osc.Frequency * math.Exp(osc.PitchBend*semitoneConst)
	e.mu.Unlock()

	want := 440 * math.Pow(2, 2.0/12)
	if math.Abs(got-want) > 0.01 {
		t.Errorf("effective freq = %f, want %f", got, want)
	}
}

// TestArpUpPatternOneSecond is invariant 9.
func TestArpUpPatternOneSecond(t *testing.T) {
	e := New()
	e.SetArpEnabled(true)
	e.Arp.BPM = 120
	e.Arp.Gate = 0.5
	e.Arp.RangeOctaves = 1
	e.Arp.Direction = ArpUp
	e.NoteOn(60, 1.0)
	e.NoteOn(64, 1.0)
	e.NoteOn(67, 1.0)

	var got []int
	now := 0.0
	const stepDur = 0.125
	for i := 0; i < 8; i++ {
		now += stepDur
		e.ArpTick(now)
		got = append(got, e.Arp.activeMIDI)
	}
	want := []int{60, 64, 67, 60, 64, 67, 60, 64}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("step %d: got %v, want %v", i, got, want)
		}
	}
}

// TestArpUpDownScenario is scenario S5.
func TestArpUpDownScenario(t *testing.T) {
	e := New()
	e.SetArpEnabled(true)
	e.Arp.BPM = 240
	e.Arp.Gate = 1.0
	e.Arp.RangeOctaves = 2
	e.Arp.Direction = ArpUpDown
	e.NoteOn(60, 1.0)
	e.NoteOn(64, 1.0)
	e.NoteOn(67, 1.0)

	want := []int{60, 64, 67, 72, 76, 79, 76, 72, 67, 64, 60, 64}
	stepDur := 60.0 / 240 / 4
	now := 0.0
	var got []int
	for i := 0; i < len(want); i++ {
		now += stepDur
		e.ArpTick(now)
		got = append(got, e.Arp.activeMIDI)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("step %d: got %v, want %v", i, got, want)
		}
	}
}

// TestFinalSamplesAreClamped is invariant 8.
func TestFinalSamplesAreClamped(t *testing.T) {
	e := New()
	e.MasterVolume = 10
	for _, v := range e.Voices {
		v.Oscs[0].SustainLvl = 1
	}
	e.NoteOn(60, 1.0)
	buf := make([]float32, 2000)
	e.Render(buf)
	for i, s := range buf {
		if s > 1.0001 || s < -1.0001 {
			t.Fatalf("sample %d = %f out of [-1,1]", i, s)
		}
	}
}

// TestOffVoiceIsSilent is invariant 2.
func TestOffVoiceIsSilent(t *testing.T) {
	e := New()
	v := e.Voices[0]
	v.Oscs[0].ReleaseSec = 0
	v.NoteOn(60, 1.0, 0)
	v.NoteOff(0)
	for i := 0; i < 10; i++ {
		v.GenerateMono(float64(i) / oscillator.SampleRate)
	}
	if v.EnvState() != oscillator.Off {
		t.Fatalf("expected Off state")
	}
	for i := 0; i < 10; i++ {
		s := v.GenerateMono(float64(i) / oscillator.SampleRate)
		if s != 0 {
			t.Errorf("sample %d after Off = %f, want 0", i, s)
		}
	}
}
