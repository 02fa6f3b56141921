package engine

// MelodyEvent is one chord step in a scheduled melody: a set of MIDI notes
// held for DurationSec then released, followed by DelayAfterSec of silence
// before the next event (SPEC_FULL §3/§4.13). The last event of the list
// does not get that spacing: see MelodyTick. The event list itself is
// supplied by the caller via LoadMelody, not hardcoded in the engine.
type MelodyEvent struct {
	Notes         []int
	DurationSec   float64
	DelayAfterSec float64
}

type pendingNoteOff struct {
	MIDI     int
	Velocity float64
	OffTime  float64
	VoiceIdx int
}

// MelodyState holds the scheduled-melody player's configuration and run
// state, owned by the engine. internal/melody.Scheduler drives MelodyTick
// on a periodic goroutine.
type MelodyState struct {
	Events        []MelodyEvent
	Index         int
	NextEventTime float64
	Playing       bool
	LoopCount     int
	MaxLoops      int

	Pending []pendingNoteOff
}

// LoadMelody installs a fixed event list and loop count without starting
// playback.
func (e *Engine) LoadMelody(events []MelodyEvent, maxLoops int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.Melody.Events = events
	e.Melody.MaxLoops = maxLoops
	e.Melody.Index = 0
	e.Melody.LoopCount = 0
	e.Melody.Playing = false
}

// PlayMelody starts (or restarts) playback from the first event.
func (e *Engine) PlayMelody() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.Melody.Index = 0
	e.Melody.LoopCount = 0
	e.Melody.NextEventTime = e.now
	e.Melody.Playing = true
}

// StopMelody halts playback and releases every voice it was holding.
func (e *Engine) StopMelody() {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, p := range e.Melody.Pending {
		e.releaseVoiceLocked(p.VoiceIdx)
	}
	e.Melody.Pending = nil
	e.Melody.Playing = false
}

// MelodyTick advances the melody scheduler by one tick, with now expressed
// in the engine's sample-counter time domain (SPEC_FULL §4.13). The
// end-of-list step runs on the same tick that starts the last event: if
// loops remain, the first event starts on the next tick (the last event's
// pending note-offs stay scheduled); otherwise every pending note,
// including the last event's just-started chord, is released at once and
// playback stops.
func (e *Engine) MelodyTick(now float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	m := &e.Melody
	if !m.Playing {
		return
	}

	remaining := m.Pending[:0]
	for _, p := range m.Pending {
		if now >= p.OffTime {
			e.releaseVoiceLocked(p.VoiceIdx)
		} else {
			remaining = append(remaining, p)
		}
	}
	m.Pending = remaining

	if m.Index < len(m.Events) && now >= m.NextEventTime {
		ev := m.Events[m.Index]
		for _, note := range ev.Notes {
			idx := e.allocateRoundRobinLocked(note, 0.8)
			e.addPendingNoteOffLocked(pendingNoteOff{
				MIDI:     note,
				Velocity: 0.8,
				OffTime:  now + ev.DurationSec,
				VoiceIdx: idx,
			})
		}
		m.NextEventTime = now + ev.DurationSec + ev.DelayAfterSec
		m.Index++
	}

	if m.Index >= len(m.Events) {
		m.LoopCount++
		if m.LoopCount < m.MaxLoops {
			m.Index = 0
			m.NextEventTime = now
		} else {
			for _, p := range m.Pending {
				e.releaseVoiceLocked(p.VoiceIdx)
			}
			m.Pending = nil
			m.Playing = false
			m.Index = 0
			m.LoopCount = 0
		}
	}
}

// addPendingNoteOffLocked bounds the pending list at max-voices, dropping
// (and immediately firing) the oldest entry rather than growing unbounded
// (SPEC_FULL §9's resolved open question).
func (e *Engine) addPendingNoteOffLocked(p pendingNoteOff) {
	m := &e.Melody
	if len(m.Pending) >= len(e.Voices) {
		oldest := m.Pending[0]
		e.releaseVoiceLocked(oldest.VoiceIdx)
		m.Pending = m.Pending[1:]
	}
	m.Pending = append(m.Pending, p)
}
