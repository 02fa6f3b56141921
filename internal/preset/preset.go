// Package preset implements the synthesizer's structured text preset
// format (SPEC_FULL §6): a small "{key value}" block grammar generalized
// from the teacher's own "#EFFECT{type params}" definition syntax
// (player.go's buildEffectChain/createEffect), built on stdlib
// bufio.Scanner and strconv rather than an external config-file library
// the corpus never reaches for. Unknown keys are ignored; a missing key
// takes a built-in default value, not the engine's current value (see
// ApplyToEngine).
package preset

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/cbegin/subsynth-go/internal/engine"
)

// node is one level of the parsed key/value tree: scalar fields plus
// named or indexed child blocks ("voice 0 { ... }", "flanger { ... }").
type node struct {
	fields map[string]string
	blocks map[string]*node
}

func newNode() *node {
	return &node{fields: map[string]string{}, blocks: map[string]*node{}}
}

// Preset holds one parsed preset document, ready to apply to an engine.
// This package only reads presets; it has no writer.
type Preset struct {
	root *node
}

// Load reads and parses a preset document. Malformed documents return an
// error; it is the caller's job to log and fall back to defaults
// (SPEC_FULL §7), not this package's.
func Load(r io.Reader) (*Preset, error) {
	toks, err := tokenize(r)
	if err != nil {
		return nil, fmt.Errorf("read preset: %w", err)
	}
	root := newNode()
	pos := 0
	if err := parseBlockBody(toks, &pos, root); err != nil {
		return nil, fmt.Errorf("parse preset: %w", err)
	}
	return &Preset{root: root}, nil
}

func tokenize(r io.Reader) ([]string, error) {
	var toks []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := sc.Text()
		if idx := strings.IndexByte(line, '#'); idx >= 0 {
			line = line[:idx]
		}
		line = strings.ReplaceAll(line, "{", " { ")
		line = strings.ReplaceAll(line, "}", " } ")
		toks = append(toks, strings.Fields(line)...)
	}
	return toks, sc.Err()
}

func parseBlockBody(toks []string, pos *int, n *node) error {
	for *pos < len(toks) {
		tok := toks[*pos]
		if tok == "}" {
			*pos++
			return nil
		}
		key := tok
		*pos++
		if *pos >= len(toks) {
			return fmt.Errorf("unexpected end of input after %q", key)
		}

		if toks[*pos] == "{" {
			*pos++
			child := newNode()
			if err := parseBlockBody(toks, pos, child); err != nil {
				return err
			}
			n.blocks[key] = child
			continue
		}

		if _, err := strconv.Atoi(toks[*pos]); err == nil && *pos+1 < len(toks) && toks[*pos+1] == "{" {
			idx := toks[*pos]
			*pos += 2
			child := newNode()
			if err := parseBlockBody(toks, pos, child); err != nil {
				return err
			}
			n.blocks[key+" "+idx] = child
			continue
		}

		n.fields[key] = toks[*pos]
		*pos++
	}
	return nil
}

func (n *node) block(name string) *node {
	if n == nil {
		return nil
	}
	return n.blocks[name]
}

func (n *node) indexed(name string, idx int) *node {
	if n == nil {
		return nil
	}
	return n.blocks[fmt.Sprintf("%s %d", name, idx)]
}

func (n *node) float(key string, def float64) float64 {
	if n == nil {
		return def
	}
	s, ok := n.fields[key]
	if !ok {
		return def
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return def
	}
	return v
}

func (n *node) int(key string, def int) int {
	if n == nil {
		return def
	}
	s, ok := n.fields[key]
	if !ok {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}

func (n *node) bool(key string, def bool) bool {
	if n == nil {
		return def
	}
	s, ok := n.fields[key]
	if !ok {
		return def
	}
	return s == "1" || s == "true"
}

func (n *node) str(key string, def string) string {
	if n == nil {
		return def
	}
	s, ok := n.fields[key]
	if !ok {
		return def
	}
	return s
}

var waveformNames = map[string]int{
	"sine": 0, "square": 1, "saw": 2, "triangle": 3,
	"sawup": 4, "sawdown": 5, "pulse": 6, "random": 7,
}

func parseWaveform(s string) int {
	if v, ok := waveformNames[s]; ok {
		return v
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return 0
}

var arpDirectionNames = map[string]engine.ArpDirection{
	"up": engine.ArpUp, "down": engine.ArpDown,
	"updown": engine.ArpUpDown, "random": engine.ArpRandom,
}

func parseArpDirection(s string) engine.ArpDirection {
	if d, ok := arpDirectionNames[s]; ok {
		return d
	}
	return engine.ArpUp
}

// ApplyToEngine writes this preset onto e. The top-level scalars are always
// written: one missing from the document is set to its built-in default
// here, not left at e's current value. The arp, voice and effects blocks
// are applied only when present; inside a present block, a missing key (or
// a missing vco block of a voice) takes its built-in default.
func (p *Preset) ApplyToEngine(e *engine.Engine) {
	root := p.root

	e.SetMasterVolume(root.float("master_volume", 0.8))
	e.SetMasterPan(root.float("master_pan", 0))
	e.SetUnison(root.int("unison_count", 1), root.int("unison_spread", 0))
	e.SetPitchBendRange(root.float("pitch_bend_range", 2))
	e.SetModLFO(root.float("mod_lfo_rate", 5), root.float("mod_lfo_depth", 0))

	if arp := root.block("arp"); arp != nil {
		e.ConfigureArp(
			arp.float("bpm", 120),
			arp.float("gate", 0.5),
			parseArpDirection(arp.str("direction", "up")),
			arp.int("range", 1),
			arp.bool("hold", false),
		)
		e.SetArpEnabled(arp.bool("enabled", false))
	}

	for i := 0; i < 8; i++ {
		vn := root.indexed("voice", i)
		if vn == nil {
			continue
		}
		cfg := engine.VoiceConfig{
			MixLevel:        vn.float("mix", 1),
			UnisonCount:     vn.int("unison_count", 0),
			UnisonSpreadIdx: vn.int("unison_spread", -1),
			AttackSec:       vn.float("attack", 0.01),
			DecaySec:        vn.float("decay", 0.1),
			SustainLvl:      vn.float("sustain", 0.7),
			ReleaseSec:      vn.float("release", 0.2),
		}
		for j := 0; j < 3; j++ {
			vco := vn.indexed("vco", j)
			cfg.VCO[j] = engine.VCOConfig{
				Waveform:   parseWaveform(vco.str("waveform", "sine")),
				Mix:        vco.float("mix", 1.0/3.0),
				DetuneCent: vco.float("detune", 0),
				PhaseMs:    vco.float("phase_ms", 0),
				PulseWidth: vco.float("pulse_width", 0.5),
				PitchShift: vco.float("pitch_shift", 0),
				Pan:        vco.float("pan", 0),
			}
		}
		e.ApplyVoiceConfig(i, cfg)
	}

	effects := root.block("effects")
	if fl := effects.block("flanger"); fl != nil {
		e.SetFlangerParams(fl.float("rate", 0.5), fl.float("depth", 0.002), float32(fl.float("wet", 0.3)))
		e.SetEffectEnabled("flanger", fl.bool("enabled", false))
	}
	if dl := effects.block("delay"); dl != nil {
		e.SetDelayParams(dl.float("time", 0.3), float32(dl.float("feedback", 0.3)), float32(dl.float("wet", 0.3)))
		e.SetEffectEnabled("delay", dl.bool("enabled", false))
	}
	if rv := effects.block("reverb"); rv != nil {
		e.SetReverbParams(
			float32(rv.float("size", 0.5)), float32(rv.float("predelay", 0.02)),
			float32(rv.float("diffuse", 0.3)), float32(rv.float("stereo", 0.5)),
			float32(rv.float("damp", 0.5)), float32(rv.float("dry", 0.7)), float32(rv.float("wet", 0.3)),
		)
		e.SetEffectEnabled("reverb", rv.bool("enabled", false))
	}
	if cp := effects.block("compressor"); cp != nil {
		e.SetCompressorParams(
			float32(cp.float("threshold", -18)), float32(cp.float("ratio", 4)),
			float32(cp.float("attack", 10)), float32(cp.float("release", 100)),
			float32(cp.float("makeup", 0)),
		)
		e.SetEffectEnabled("compressor", cp.bool("enabled", false))
	}
	if ft := effects.block("filter"); ft != nil {
		e.SetFilterParams(ft.float("cutoff", 20000), ft.float("q", 0.707), ft.float("drive", 1), ft.int("oversample", 0))
		e.SetEffectEnabled("filter", ft.bool("enabled", false))
	}
	if dc := effects.block("dc"); dc != nil {
		e.SetDCBlockerPole(float32(dc.float("pole", 0.995)))
		e.SetEffectEnabled("dc", dc.bool("enabled", false))
	}
	if sc := effects.block("softclip"); sc != nil {
		e.SetSoftClipDrive(float32(sc.float("drive", 1)))
		e.SetEffectEnabled("softclip", sc.bool("enabled", false))
	}
	if ag := effects.block("autogain"); ag != nil {
		e.SetAutoGainTarget(float32(ag.float("target", 0.3)))
		e.SetEffectEnabled("autogain", ag.bool("enabled", false))
	}

	// The window block is parsed but has no engine effect; a UI layer
	// would read it via WindowGeometry.
}

// WindowGeometry returns the optional "window { x y w h }" block's values,
// or the given default if the preset carries none.
func (p *Preset) WindowGeometry(defX, defY, defW, defH int) (x, y, w, h int) {
	win := p.root.block("window")
	return win.int("x", defX), win.int("y", defY), win.int("w", defW), win.int("h", defH)
}
