package engine

import (
	"context"
	"time"

	"github.com/cbegin/subsynth-go/internal/oscillator"
)

// NoteOn is the EngineHandler entry point used by internal/router and is
// also reachable directly from tests. It applies master transpose, then
// either appends to the arpeggiator's held-note list (if enabled) or
// performs envelope-aware voice stealing (SPEC_FULL §4.11).
func (e *Engine) NoteOn(note int, velocity float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	note = clampNote(note + e.Transpose)
	if e.Arp.Enabled {
		e.heldNoteOnLocked(note)
		return
	}
	e.noteOnStealLocked(note, velocity)
}

// NoteOff is the EngineHandler entry point for note-off messages.
func (e *Engine) NoteOff(note int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	note = clampNote(note + e.Transpose)
	if e.Arp.Enabled {
		e.heldNoteOffLocked(note)
		return
	}
	if idx, ok := e.noteToVoice[note]; ok {
		e.Voices[idx].NoteOff(e.now)
		delete(e.noteToVoice, note)
	}
}

// SetPitchBend clamps and stores the normalized pitch bend (-1..1).
func (e *Engine) SetPitchBend(v float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.PitchBend = clampf(v, -1, 1)
}

// SetModWheel clamps and stores the mod wheel position (0..1).
func (e *Engine) SetModWheel(v float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.ModWheel = clampf(v, 0, 1)
}

// SetTranspose sets the master transpose in semitones (SPEC_FULL §2C/§4.11).
func (e *Engine) SetTranspose(semitones int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.Transpose = semitones
}

// AllNotesOff releases every voice and clears all pending note tracking
// (SPEC_FULL §2C's panic-handling supplement).
func (e *Engine) AllNotesOff() {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i := range e.Voices {
		e.Voices[i].NoteOff(e.now)
	}
	e.noteToVoice = make(map[int]int)
	e.Arp.heldNotes = nil
	e.Arp.activeVoice = -1
	for _, p := range e.Melody.Pending {
		e.Voices[p.VoiceIdx].NoteOff(e.now)
	}
	e.Melody.Pending = nil
}

// Drain releases every voice (note-off on all voices, arp/melody state
// cleared) and blocks until the longest release tail has finished or ctx is
// cancelled, so shutdown never closes the audio device mid-envelope.
func (e *Engine) Drain(ctx context.Context) error {
	e.AllNotesOff()
	e.StopMelody()

	longest := 0.0
	e.mu.Lock()
	for _, v := range e.Voices {
		for _, osc := range v.Oscs {
			if osc.ReleaseSec > longest {
				longest = osc.ReleaseSec
			}
		}
	}
	e.mu.Unlock()

	timer := time.NewTimer(time.Duration(longest*float64(time.Second)) + 10*time.Millisecond)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// noteOnStealLocked scans the voice table per SPEC_FULL §4.11: prefer the
// first Off voice, else the LRU Release voice, else the LRU active voice.
func (e *Engine) noteOnStealLocked(note int, velocity float64) {
	idx := -1
	for i, v := range e.Voices {
		if v.EnvState() == oscillator.Off {
			idx = i
			break
		}
	}
	if idx == -1 {
		idx = e.lruAmongLocked(func(s oscillator.EnvelopeState) bool { return s == oscillator.Release })
	}
	if idx == -1 {
		idx = e.lruAmongLocked(func(s oscillator.EnvelopeState) bool {
			return s == oscillator.Attack || s == oscillator.Decay || s == oscillator.Sustain
		})
	}
	if idx == -1 {
		return
	}
	e.stealAndTriggerLocked(idx, note, velocity)
}

func (e *Engine) lruAmongLocked(match func(oscillator.EnvelopeState) bool) int {
	best := -1
	bestTime := 0.0
	for i, v := range e.Voices {
		if !match(v.EnvState()) {
			continue
		}
		if best == -1 || v.LastUsed < bestTime {
			best = i
			bestTime = v.LastUsed
		}
	}
	return best
}

// stealAndTriggerLocked retires any note mapping the chosen voice currently
// holds before re-triggering it, per SPEC_FULL §3's map-consistency
// invariant and §4.11's stealing procedure.
func (e *Engine) stealAndTriggerLocked(idx, note int, velocity float64) {
	v := e.Voices[idx]
	if v.MIDINote != -1 {
		if cur, ok := e.noteToVoice[v.MIDINote]; ok && cur == idx {
			delete(e.noteToVoice, v.MIDINote)
		}
		v.NoteOff(e.now)
	}
	v.NoteOn(note, velocity, e.now)
	e.noteToVoice[note] = idx
}

// allocateRoundRobinLocked picks the next voice by round-robin, used by the
// arpeggiator and melody scheduler who don't care which specific voice they
// get (SPEC_FULL §4.12/§4.13).
func (e *Engine) allocateRoundRobinLocked(note int, velocity float64) int {
	idx := int(e.roundRobin.Add(1)-1) % len(e.Voices)
	e.stealAndTriggerLocked(idx, note, velocity)
	return idx
}

func (e *Engine) releaseVoiceLocked(idx int) {
	v := e.Voices[idx]
	if v.MIDINote != -1 {
		if cur, ok := e.noteToVoice[v.MIDINote]; ok && cur == idx {
			delete(e.noteToVoice, v.MIDINote)
		}
	}
	v.NoteOff(e.now)
}
