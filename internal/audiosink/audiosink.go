// Package audiosink is the pull-based audio backend (SPEC_FULL §6): it
// wraps github.com/hajimehoshi/ebiten/v2/audio (and its ebitengine/oto/v3
// driver) exactly as the teacher's internal/audio/stream.go does, and adds
// the atomic-pointer engine hot-swap idiom from
// IntuitionAmiga-IntuitionEngine's audio_backend_oto.go so a preset reload
// can swap in a new *engine.Engine without the render callback ever
// blocking on the coarse engine mutex held by a stale instance.
package audiosink

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"sync"
	"sync/atomic"

	ebitaudio "github.com/hajimehoshi/ebiten/v2/audio"

	"github.com/cbegin/subsynth-go/internal/engine"
)

// SampleRate is the fixed engine/output sample rate (SPEC_FULL §4.2).
const SampleRate = 44100

// Renderer is the slice of *engine.Engine the sink pulls samples from.
type Renderer interface {
	Render(buf []float32)
}

// Sink owns the current engine pointer and presents it to the audio
// backend as a pull-callback io.Reader, per SPEC_FULL §6's render(buffer,
// sample_count) contract.
type Sink struct {
	current atomic.Pointer[Renderer]
	buf     []float32

	player *ebitaudio.Player
}

// New creates a Sink rendering from e and opens the shared ebiten audio
// context/player. Device open failure is fatal per SPEC_FULL §7; callers
// should log.Fatalf on a non-nil error.
func New(e Renderer) (*Sink, error) {
	ctx, err := sharedAudioContext(SampleRate)
	if err != nil {
		return nil, err
	}
	s := &Sink{}
	s.current.Store(&e)

	pl, err := ctx.NewPlayerF32(s)
	if err != nil {
		return nil, fmt.Errorf("create audio player: %w", err)
	}
	s.player = pl
	return s, nil
}

// SetEngine atomically swaps the engine the sink renders from. The render
// callback never blocks on this: it loads the pointer once per Read.
func (s *Sink) SetEngine(e Renderer) {
	s.current.Store(&e)
}

// Read implements io.Reader for ebiten's float32 player: it renders one
// buffer's worth of interleaved stereo float32 samples and converts them to
// the little-endian byte wire format ebiten expects.
func (s *Sink) Read(p []byte) (int, error) {
	frames := len(p) / 8 // 2 channels * 4 bytes per float32
	if frames == 0 {
		return 0, nil
	}
	need := frames * 2
	if cap(s.buf) < need {
		s.buf = make([]float32, need)
	}
	s.buf = s.buf[:need]

	r := s.current.Load()
	if r == nil {
		for i := range s.buf {
			s.buf[i] = 0
		}
	} else {
		(*r).Render(s.buf)
	}

	for i := 0; i < need; i++ {
		u := math.Float32bits(s.buf[i])
		binary.LittleEndian.PutUint32(p[i*4:], u)
	}
	return frames * 8, nil
}

func (s *Sink) Close() error { return nil }

// Play starts audio output.
func (s *Sink) Play() { s.player.Play() }

// Pause stops audio output without releasing the device.
func (s *Sink) Pause() { s.player.Pause() }

// IsPlaying reports whether the sink is currently producing audio.
func (s *Sink) IsPlaying() bool { return s.player.IsPlaying() }

// Stop pauses and releases the underlying player.
func (s *Sink) Stop() error {
	s.player.Pause()
	return s.player.Close()
}

var (
	audioContextOnce sync.Once
	audioContext     *ebitaudio.Context
	audioContextErr  error
	audioSampleRate  int
)

func sharedAudioContext(sampleRate int) (*ebitaudio.Context, error) {
	audioContextOnce.Do(func() {
		audioSampleRate = sampleRate
		audioContext = ebitaudio.NewContext(sampleRate)
	})
	if audioContextErr != nil {
		return nil, audioContextErr
	}
	if audioSampleRate != sampleRate {
		return nil, fmt.Errorf("audio context already initialized at %d Hz (requested %d Hz)", audioSampleRate, sampleRate)
	}
	return audioContext, nil
}

var _ io.ReadCloser = (*Sink)(nil)
var _ Renderer = (*engine.Engine)(nil)
