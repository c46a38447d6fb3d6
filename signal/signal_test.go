package signal_test

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/discordance/phrase-sampler/signal"
)

func TestInterIntAsFrames(t *testing.T) {
	tests := []struct {
		ints        []int
		numChannels int
		bitDepth    signal.BitDepth
		expected    []signal.Frame
	}{
		{
			ints:        []int{1, 2, 1, 2, 1, 2},
			numChannels: 2,
			expected:    []signal.Frame{{1, 2}, {1, 2}, {1, 2}},
		},
		{
			ints:        []int{1, 2, 1},
			numChannels: 2,
			expected:    []signal.Frame{{1, 2}, {1, 1}},
		},
		{
			ints:        []int{3, 4},
			numChannels: 1,
			expected:    []signal.Frame{{3, 3}, {4, 4}},
		},
		{
			ints:        []int{math.MaxInt16, -math.MaxInt16},
			numChannels: 2,
			bitDepth:    signal.BitDepth16,
			expected:    []signal.Frame{{1, -1}},
		},
		{
			ints:     nil,
			expected: nil,
		},
		{
			ints:     []int{1, 2, 3},
			expected: nil,
		},
	}

	for _, test := range tests {
		ints := signal.InterInt{
			Data:        test.ints,
			NumChannels: test.numChannels,
			BitDepth:    test.bitDepth,
		}
		assert.Equal(t, test.expected, ints.AsFrames())
	}
}

func TestAsInterInt(t *testing.T) {
	frames := []signal.Frame{{1, -1}, {0.5, 2}}
	ints := signal.AsInterInt(frames, signal.BitDepth16, nil)
	assert.Equal(t, []int{math.MaxInt16 - 1, -(math.MaxInt16 - 1), (math.MaxInt16 - 1) / 2, math.MaxInt16 - 1}, ints)

	reused := signal.AsInterInt(frames[:1], signal.BitDepth16, ints)
	assert.Equal(t, 2, len(reused))
	assert.Equal(t, 4, cap(reused))
}

func TestInterleave(t *testing.T) {
	frames := []signal.Frame{{1, 2}, {3, 4}, {5, 6}}
	dst := make([]float32, 4)
	n := signal.Interleave(frames, dst)
	assert.Equal(t, 2, n)
	assert.Equal(t, []float32{1, 2, 3, 4}, dst)
}

func TestFrame(t *testing.T) {
	f := signal.Frame{0.5, -0.5}
	assert.Equal(t, signal.Frame{0.25, -0.25}, f.Scale(0.5))
	assert.Equal(t, signal.Frame{0.25, 0}, signal.Frame{0, 0.5}.Lerp(signal.Frame{0.5, -0.5}, 0.5))

	block := []signal.Frame{{1, 1}, {2, 2}}
	signal.Silence(block)
	assert.Equal(t, []signal.Frame{signal.Equilibrium, signal.Equilibrium}, block)
}

func TestDurationOf(t *testing.T) {
	assert.Equal(t, time.Second, signal.DurationOf(44100, 44100))
	assert.Equal(t, 500*time.Millisecond, signal.DurationOf(44100, 22050))
}
