package engine

import "sort"

// ArpDirection selects the note-stepping pattern (SPEC_FULL §4.12).
type ArpDirection int

const (
	ArpUp ArpDirection = iota
	ArpDown
	ArpUpDown
	ArpRandom
)

// ArpState holds the arpeggiator's configuration and run state, owned by
// the engine (SPEC_FULL §3). internal/arp.Stepper drives ArpTick on a
// periodic goroutine; it never touches these fields directly.
type ArpState struct {
	Enabled      bool
	BPM          float64
	Gate         float64
	Direction    ArpDirection
	RangeOctaves int
	Hold         bool

	heldNotes    []int
	stepIndex    int
	lastStepTime float64
	activeVoice  int
	activeMIDI   int
	offDeadline  float64
	randState    uint32
}

// SetArpEnabled toggles the arpeggiator. On either transition it releases
// all voices, clears held notes, and clears the note-to-voice map
// (SPEC_FULL §4.12).
func (e *Engine) SetArpEnabled(enabled bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if enabled == e.Arp.Enabled {
		return
	}
	e.Arp.Enabled = enabled
	for i := range e.Voices {
		e.Voices[i].NoteOff(e.now)
	}
	e.noteToVoice = make(map[int]int)
	e.Arp.heldNotes = nil
	e.Arp.stepIndex = 0
	e.Arp.activeVoice = -1
}

// ConfigureArp applies a preset's arpeggiator block without touching the
// enabled flag (use SetArpEnabled for that, since it also resets state).
func (e *Engine) ConfigureArp(bpm, gate float64, dir ArpDirection, rangeOctaves int, hold bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.Arp.BPM = bpm
	e.Arp.Gate = gate
	e.Arp.Direction = dir
	e.Arp.RangeOctaves = rangeOctaves
	e.Arp.Hold = hold
}

func (e *Engine) heldNoteOnLocked(note int) {
	for _, n := range e.Arp.heldNotes {
		if n == note {
			return
		}
	}
	e.Arp.heldNotes = append(e.Arp.heldNotes, note)
}

func (e *Engine) heldNoteOffLocked(note int) {
	if e.Arp.Hold {
		return
	}
	for i, n := range e.Arp.heldNotes {
		if n == note {
			e.Arp.heldNotes = append(e.Arp.heldNotes[:i], e.Arp.heldNotes[i+1:]...)
			return
		}
	}
}

// ArpTick advances the arpeggiator stepper by one tick, with now expressed
// in the engine's sample-counter time domain (SPEC_FULL §4.12). Callers on
// a real-time goroutine should pass e.SampleClock() each tick; tests may
// pass any monotonically increasing value.
func (e *Engine) ArpTick(now float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	a := &e.Arp
	if !a.Enabled {
		return
	}

	if a.activeVoice != -1 && now >= a.offDeadline {
		e.releaseVoiceLocked(a.activeVoice)
		a.activeVoice = -1
	}

	if len(a.heldNotes) == 0 {
		if a.activeVoice != -1 {
			e.releaseVoiceLocked(a.activeVoice)
			a.activeVoice = -1
		}
		a.stepIndex = 0
		return
	}

	stepDur := 60.0 / a.BPM / 4.0
	if now-a.lastStepTime < stepDur {
		return
	}
	a.lastStepTime = now

	pattern := buildArpPattern(a.heldNotes, a.RangeOctaves)
	n := len(pattern)
	if n == 0 {
		return
	}

	var note int
	switch a.Direction {
	case ArpDown:
		rev := make([]int, n)
		for i, v := range pattern {
			rev[n-1-i] = v
		}
		note = rev[a.stepIndex%n]
	case ArpUpDown:
		cycle := 2*n - 2
		if cycle < 1 {
			cycle = 1
		}
		s := a.stepIndex % cycle
		if s < n {
			note = pattern[s]
		} else {
			note = pattern[2*n-2-s]
		}
	case ArpRandom:
		a.randState = a.randState*1664525 + 1013904223
		a.stepIndex = int(a.randState>>9) % n
		note = pattern[a.stepIndex]
	default: // ArpUp
		note = pattern[a.stepIndex%n]
	}

	idx := e.allocateRoundRobinLocked(note, 0.8)
	a.activeVoice = idx
	a.activeMIDI = note
	a.offDeadline = now + a.Gate*stepDur
	a.stepIndex++
}

// buildArpPattern sorts held notes ascending and appends each note shifted
// up by an octave for every octave in [0, rangeOctaves), octave-major.
func buildArpPattern(held []int, rangeOctaves int) []int {
	sorted := append([]int(nil), held...)
	sort.Ints(sorted)
	if rangeOctaves < 1 {
		rangeOctaves = 1
	}
	pattern := make([]int, 0, len(sorted)*rangeOctaves)
	for octave := 0; octave < rangeOctaves; octave++ {
		for _, n := range sorted {
			pattern = append(pattern, n+12*octave)
		}
	}
	return pattern
}
