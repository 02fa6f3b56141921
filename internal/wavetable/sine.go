// Package wavetable provides the sine lookup table and MIDI/frequency
// conversion primitives shared by the oscillator and engine packages.
package wavetable

import "math"

const tableSize = 4096

// Table is a 4096-entry sine lookup table covering one full cycle, read
// with linear interpolation between adjacent entries.
type Table struct {
	entries [tableSize]float64
}

// New builds a populated sine table.
func New() *Table {
	t := &Table{}
	for i := range t.entries {
		t.entries[i] = math.Sin(2 * math.Pi * float64(i) / float64(tableSize))
	}
	return t
}

// Lookup wraps phase (radians) into [0, 2π) and returns sin(phase)
// interpolated linearly between the two nearest table entries.
func (t *Table) Lookup(phase float64) float64 {
	const twoPi = 2 * math.Pi
	p := math.Mod(phase, twoPi)
	if p < 0 {
		p += twoPi
	}
	pos := p / twoPi * float64(tableSize)
	i0 := int(pos) % tableSize
	i1 := (i0 + 1) % tableSize
	frac := pos - math.Floor(pos)
	return t.entries[i0]*(1-frac) + t.entries[i1]*frac
}

// MIDIToHz converts a MIDI note number to frequency using equal temperament
// with A4 (note 69) = 440 Hz.
func MIDIToHz(note float64) float64 {
	return 440 * math.Pow(2, (note-69)/12)
}
