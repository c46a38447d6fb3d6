package wav_test

import (
	"errors"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/discordance/phrase-sampler/signal"
	"github.com/discordance/phrase-sampler/smartbuf"
	"github.com/discordance/phrase-sampler/wav"
)

const sampleRate = 44100

func tempDir(t *testing.T) (string, func()) {
	t.Helper()
	dir, err := ioutil.TempDir("", "smplr-wav")
	require.NoError(t, err)
	return dir, func() { os.RemoveAll(dir) }
}

func ramp(n int) []signal.Frame {
	frames := make([]signal.Frame, n)
	for i := range frames {
		v := float32(i%100)/100 - 0.5
		frames[i] = signal.Frame{v, -v}
	}
	return frames
}

func write(t *testing.T, path string, bitDepth signal.BitDepth, frames []signal.Frame, blockSize int) {
	t.Helper()
	sink, err := wav.NewSink(path, sampleRate, bitDepth)
	require.NoError(t, err)
	for i := 0; i < len(frames); i += blockSize {
		end := i + blockSize
		if end > len(frames) {
			end = len(frames)
		}
		require.NoError(t, sink.Write(frames[i:end]))
	}
	require.NoError(t, sink.Close())
}

func TestRoundTrip(t *testing.T) {
	dir, cleanup := tempDir(t)
	defer cleanup()

	tests := []struct {
		bitDepth signal.BitDepth
		file     string
		frames   int
		tempo    float64
		delta    float64
	}{
		{
			bitDepth: signal.BitDepth16,
			file:     "loop_90bpm.wav",
			frames:   1000,
			tempo:    90,
			delta:    1e-4,
		},
		{
			bitDepth: signal.BitDepth24,
			file:     "loop_4beats.wav",
			frames:   sampleRate,
			tempo:    240,
			delta:    1e-6,
		},
		{
			bitDepth: signal.BitDepth32,
			file:     "loop.wav",
			frames:   513,
			tempo:    smartbuf.DefaultTempo,
			delta:    1e-6,
		},
	}
	for _, test := range tests {
		path := filepath.Join(dir, test.file)
		frames := ramp(test.frames)
		write(t, path, test.bitDepth, frames, 512)

		b, err := wav.Load(path, sampleRate)
		require.NoError(t, err, test.file)
		assert.Equal(t, wav.Name(path), b.Name)
		assert.Equal(t, test.frames, b.Len())
		assert.InDelta(t, test.tempo, b.OriginalTempo, 1e-9)
		for i := range frames {
			assert.InDelta(t, frames[i][0], b.Frames[i][0], test.delta)
			assert.InDelta(t, frames[i][1], b.Frames[i][1], test.delta)
		}
		positions, err := b.PositionsFor(smartbuf.Bar8Mode)
		require.NoError(t, err)
		assert.Equal(t, 0, positions[0])
	}
}

func TestLoadErrors(t *testing.T) {
	dir, cleanup := tempDir(t)
	defer cleanup()

	_, err := wav.Load(filepath.Join(dir, "missing.wav"), sampleRate)
	assert.Error(t, err)

	garbage := filepath.Join(dir, "garbage.wav")
	require.NoError(t, ioutil.WriteFile(garbage, []byte("definitely not a riff file"), 0644))
	_, err = wav.Load(garbage, sampleRate)
	assert.True(t, errors.Is(err, wav.ErrInvalidFile))

	path := filepath.Join(dir, "rate.wav")
	write(t, path, signal.BitDepth16, ramp(64), 64)
	_, err = wav.Load(path, 48000)
	assert.True(t, errors.Is(err, wav.ErrSampleRate))
}

func TestSinkBitDepth(t *testing.T) {
	dir, cleanup := tempDir(t)
	defer cleanup()
	_, err := wav.NewSink(filepath.Join(dir, "out.wav"), sampleRate, signal.BitDepth8)
	assert.Equal(t, wav.ErrUnsupportedBitDepth, err)
}

func TestName(t *testing.T) {
	assert.Equal(t, "drums_120bpm", wav.Name("/samples/drums_120bpm.wav"))
	assert.Equal(t, "loop", wav.Name("loop"))
}
