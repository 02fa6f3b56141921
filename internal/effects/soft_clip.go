package effects

import "math"

// SoftClip applies a tanh-based saturation curve, per SPEC_FULL §4.10's
// fixed post-filter chain. It has no persistent state: Reset is a no-op.
type SoftClip struct {
	Drive float32
}

func NewSoftClip(drive float32) *SoftClip {
	if drive <= 0 {
		drive = 1
	}
	return &SoftClip{Drive: drive}
}

func (s *SoftClip) Process(l, r float32) (float32, float32) {
	return float32(math.Tanh(float64(l*s.Drive))) / s.Drive, float32(math.Tanh(float64(r*s.Drive))) / s.Drive
}

func (s *SoftClip) Reset() {}
