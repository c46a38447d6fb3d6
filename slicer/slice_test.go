package slicer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/discordance/phrase-sampler/signal"
	"github.com/discordance/phrase-sampler/slicer"
)

func ones(n int) []signal.Frame {
	f := make([]signal.Frame, n)
	for i := range f {
		f[i] = signal.Frame{1, 1}
	}
	return f
}

func TestSliceEnvelope(t *testing.T) {
	frames := ones(256)
	s := slicer.Slice{Start: 0, End: 256}
	amps := make([]float32, 0, 256)
	for i := 0; i < 256; i++ {
		f := s.NextFrame(1.0, frames)
		amps = append(amps, f[0]/slicer.MakeupGain)
	}

	assert.InDelta(t, 0, amps[0], 0.02)
	for i := 1; i < slicer.FadeIn; i++ {
		assert.True(t, amps[i] > amps[i-1], "fade in must rise at %d", i)
	}
	assert.InDelta(t, 1, amps[slicer.FadeIn-1], 1e-6)
	for i := slicer.FadeIn; i < 256-slicer.FadeOut; i++ {
		assert.InDelta(t, 1, amps[i], 1e-6)
	}
	for i := 256 - slicer.FadeOut + 1; i < 256; i++ {
		assert.True(t, amps[i] <= amps[i-1], "fade out must not rise at %d", i)
	}
	assert.Equal(t, float32(0), amps[255])
	assert.True(t, s.Consumed())
	assert.Equal(t, 0, s.Remaining())
}

func TestSliceConsumed(t *testing.T) {
	frames := ones(20)
	s := slicer.Slice{Start: 10, End: 20}
	assert.Equal(t, 10, s.Len())
	assert.Equal(t, 10, s.Remaining())
	for i := 0; i < 10; i++ {
		s.NextFrame(1.0, frames)
	}
	assert.Equal(t, 0, s.Remaining())
	for i := 0; i < 100; i++ {
		assert.Equal(t, signal.Equilibrium, s.NextFrame(1.0, frames))
	}
	assert.Equal(t, 10, s.Cursor, "cursor saturates")
}

func TestSliceOutOfRange(t *testing.T) {
	s := slicer.Slice{Start: 100, End: 400}
	for i := 0; i < 300; i++ {
		assert.Equal(t, signal.Equilibrium, s.NextFrame(1.0, ones(10)))
	}
}

func TestSliceEffectiveLen(t *testing.T) {
	s := slicer.Slice{Start: 0, End: 400}
	assert.Equal(t, 400, s.EffectiveLen(0.5))
	assert.Equal(t, 400, s.EffectiveLen(1))
	assert.Equal(t, 200, s.EffectiveLen(2))

	// faster playback releases earlier
	frames := ones(400)
	var last signal.Frame
	for i := 0; i < 200; i++ {
		last = s.NextFrame(2, frames)
	}
	assert.Equal(t, signal.Equilibrium, last)
	assert.Equal(t, 200, s.Remaining())
}
