package preset

import (
	"strings"
	"testing"

	"github.com/cbegin/subsynth-go/internal/engine"
)

const samplePreset = `
master_volume 0.75
master_pan -0.2
unison_count 3
unison_spread 2
pitch_bend_range 4
mod_lfo_rate 6 # comment tail

arp {
  enabled 1
  bpm 140
  gate 0.6
  direction updown
  range 2
  hold 0
}

voice 0 {
  mix 0.9
  attack 0.02
  decay 0.2
  sustain 0.6
  release 0.3
  vco 0 { waveform saw mix 0.5 detune 7 pulse_width 0.4 }
  vco 1 { waveform sine mix 0.5 }
}

effects {
  flanger { enabled 1 rate 0.8 depth 0.003 base 0.004 feedback 0.3 wet 0.4 }
  delay { enabled 1 time 0.25 feedback 0.4 wet 0.2 }
  compressor { enabled 1 threshold -12 ratio 6 attack 5 release 80 makeup 2 }
}

window { x 10 y 20 w 900 h 700 }
`

func TestLoadParsesScalarsAndBlocks(t *testing.T) {
	p, err := Load(strings.NewReader(samplePreset))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if v := p.root.float("master_volume", -1); v != 0.75 {
		t.Fatalf("master_volume = %v, want 0.75", v)
	}
	arp := p.root.block("arp")
	if arp == nil {
		t.Fatal("arp block missing")
	}
	if bpm := arp.float("bpm", -1); bpm != 140 {
		t.Fatalf("arp bpm = %v, want 140", bpm)
	}
	voice0 := p.root.indexed("voice", 0)
	if voice0 == nil {
		t.Fatal("voice 0 block missing")
	}
	vco0 := voice0.indexed("vco", 0)
	if vco0 == nil {
		t.Fatal("voice 0 vco 0 block missing")
	}
	if w := vco0.str("waveform", ""); w != "saw" {
		t.Fatalf("vco0 waveform = %q, want saw", w)
	}
}

func TestMissingKeysRetainDefaults(t *testing.T) {
	p, err := Load(strings.NewReader("master_volume 0.5\n"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	e := engine.New()
	e.SetMasterPan(0.33)
	p.ApplyToEngine(e)
	// master_pan was never mentioned in the document; ApplyToEngine falls
	// back to the field's own built-in default (0), not the engine's prior
	// value, matching the rest of the scalar fields' behavior.
	if e.MasterPan != 0 {
		t.Errorf("MasterPan = %v, want built-in default 0", e.MasterPan)
	}
	if e.VizBuffer() == nil {
		t.Fatal("engine should still be usable after a sparse preset")
	}
}

func TestApplyToEngineDoesNotPanicOnFullDocument(t *testing.T) {
	p, err := Load(strings.NewReader(samplePreset))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	e := engine.New()
	p.ApplyToEngine(e)

	buf := make([]float32, 256)
	e.Render(buf)
	for _, s := range buf {
		if s < -1 || s > 1 {
			t.Fatalf("rendered sample %v out of range after preset apply", s)
		}
	}
}

func TestWindowGeometryDefaultsWhenAbsent(t *testing.T) {
	p, err := Load(strings.NewReader("master_volume 1\n"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	x, y, w, h := p.WindowGeometry(1, 2, 3, 4)
	if x != 1 || y != 2 || w != 3 || h != 4 {
		t.Fatalf("WindowGeometry = (%d,%d,%d,%d), want defaults (1,2,3,4)", x, y, w, h)
	}
}

func TestWindowGeometryParsed(t *testing.T) {
	p, err := Load(strings.NewReader(samplePreset))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	x, y, w, h := p.WindowGeometry(0, 0, 0, 0)
	if x != 10 || y != 20 || w != 900 || h != 700 {
		t.Fatalf("WindowGeometry = (%d,%d,%d,%d), want (10,20,900,700)", x, y, w, h)
	}
}
