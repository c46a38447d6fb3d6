package slicer

import (
	"github.com/discordance/phrase-sampler/envelope"
	"github.com/discordance/phrase-sampler/signal"
)

const (
	// FadeIn is the length of the slice attack in samples.
	FadeIn = 64
	// FadeOut is the length of the slice release in samples.
	FadeOut = 128
	// TransformFadeOut is the longest micro fade-out applied before a
	// buffer swap or a transform.
	TransformFadeOut = 1024
	// MakeupGain compensates the average attenuation of overlapping envelopes.
	MakeupGain = 1.45
)

// Slice is a range of a frame buffer played as a single grain. It holds no
// audio, only indexes, and is copied by value.
type Slice struct {
	ID     int
	Start  int
	End    int
	Cursor int
}

// Len returns the number of frames covered by the slice.
func (s Slice) Len() int {
	return s.End - s.Start
}

// Consumed returns true when the cursor reached the end of the slice.
func (s Slice) Consumed() bool {
	return s.Cursor >= s.Len()
}

// Remaining returns how many frames are left to play.
func (s Slice) Remaining() int {
	if s.Consumed() {
		return 0
	}
	return s.Len() - s.Cursor
}

// EffectiveLen is the slice length adjusted to the playback rate. Faster
// playback shortens the slot the slice must fit in.
func (s Slice) EffectiveLen(playbackRate float64) int {
	if playbackRate > 1 {
		return int(float64(s.Len()) / playbackRate)
	}
	return s.Len()
}

// NextFrame returns the enveloped frame at cursor and advances the cursor.
// Consumed slices yield silence. Cursor saturates at the slice length.
func (s *Slice) NextFrame(playbackRate float64, frames []signal.Frame) signal.Frame {
	f := signal.Equilibrium
	if !s.Consumed() {
		i := s.Start + s.Cursor
		if i >= 0 && i < len(frames) {
			f = frames[i]
		}
		s.Cursor++
	}

	pos := int64(s.Cursor)
	return f.
		Scale(envelope.FadeIn(pos, FadeIn)).
		Scale(envelope.FadeOut(pos, FadeOut, int64(s.EffectiveLen(playbackRate)))).
		Scale(MakeupGain)
}
