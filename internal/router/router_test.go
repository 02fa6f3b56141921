package router

import "testing"

type fakeEngine struct {
	notesOn     []int
	notesOff    []int
	pitchBend   float64
	modWheel    float64
	allNotesOff bool
}

func (f *fakeEngine) NoteOn(note int, velocity float64) { f.notesOn = append(f.notesOn, note) }
func (f *fakeEngine) NoteOff(note int)                  { f.notesOff = append(f.notesOff, note) }
func (f *fakeEngine) SetPitchBend(v float64)            { f.pitchBend = v }
func (f *fakeEngine) SetModWheel(v float64)             { f.modWheel = v }
func (f *fakeEngine) AllNotesOff()                      { f.allNotesOff = true }

func TestNoteOnDispatch(t *testing.T) {
	f := &fakeEngine{}
	HandleMessage(f, []byte{0x90, 60, 100})
	if len(f.notesOn) != 1 || f.notesOn[0] != 60 {
		t.Fatalf("notesOn = %v, want [60]", f.notesOn)
	}
}

func TestNoteOnZeroVelocityIsNoteOff(t *testing.T) {
	f := &fakeEngine{}
	HandleMessage(f, []byte{0x90, 60, 0})
	if len(f.notesOff) != 1 || f.notesOff[0] != 60 {
		t.Fatalf("notesOff = %v, want [60]", f.notesOff)
	}
}

func TestNoteOffDispatch(t *testing.T) {
	f := &fakeEngine{}
	HandleMessage(f, []byte{0x80, 60, 0})
	if len(f.notesOff) != 1 || f.notesOff[0] != 60 {
		t.Fatalf("notesOff = %v, want [60]", f.notesOff)
	}
}

func TestPitchBendDecode(t *testing.T) {
	f := &fakeEngine{}
	// 14-bit center value 8192 -> bend 0.0
	HandleMessage(f, []byte{0xE0, 0x00, 0x40})
	if f.pitchBend != 0 {
		t.Errorf("pitchBend = %f, want 0", f.pitchBend)
	}
	// max value 16383 -> bend ~ +1.0
	HandleMessage(f, []byte{0xE0, 0x7F, 0x7F})
	if f.pitchBend < 0.99 || f.pitchBend > 1.0 {
		t.Errorf("pitchBend = %f, want ~1.0", f.pitchBend)
	}
}

func TestModWheelCC(t *testing.T) {
	f := &fakeEngine{}
	HandleMessage(f, []byte{0xB0, 1, 127})
	if f.modWheel < 0.999 {
		t.Errorf("modWheel = %f, want ~1.0", f.modWheel)
	}
}

func TestAllNotesOffCC(t *testing.T) {
	f := &fakeEngine{}
	HandleMessage(f, []byte{0xB0, 123, 0})
	if !f.allNotesOff {
		t.Errorf("expected AllNotesOff to be called")
	}
}

func TestUnknownStatusIgnored(t *testing.T) {
	f := &fakeEngine{}
	HandleMessage(f, []byte{0xA0, 60, 0}) // aftertouch, not handled
	if len(f.notesOn) != 0 || len(f.notesOff) != 0 {
		t.Errorf("expected no dispatch for unhandled status")
	}
}
