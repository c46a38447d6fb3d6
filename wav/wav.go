// Package wav decodes wav files into smart buffers and renders frames to
// wav files.
package wav

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/discordance/phrase-sampler/signal"
	"github.com/discordance/phrase-sampler/smartbuf"
)

var (
	// ErrUnsupportedBitDepth is returned when unsupported bit depth is used.
	ErrUnsupportedBitDepth = errors.New("only 16, 24 and 32 bit depth is supported")
	// ErrInvalidFile is returned when the file is not a valid wav.
	ErrInvalidFile = errors.New("wav is not valid")
	// ErrSampleRate is returned when the file sample rate differs from the
	// output sample rate. Samples are never resampled.
	ErrSampleRate = errors.New("sample rate mismatch")
)

func supported(bitDepth signal.BitDepth) bool {
	switch bitDepth {
	case signal.BitDepth16, signal.BitDepth24, signal.BitDepth32:
		return true
	}
	return false
}

// Load decodes the file at path into a smart buffer. The original tempo is
// parsed from the file name.
func Load(path string, sampleRate int) (*smartbuf.Buffer, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	decoder := wav.NewDecoder(file)
	if !decoder.IsValidFile() {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFile, path)
	}
	bitDepth := signal.BitDepth(decoder.BitDepth)
	if !supported(bitDepth) {
		return nil, fmt.Errorf("%w: %v has %d", ErrUnsupportedBitDepth, path, bitDepth)
	}
	if int(decoder.SampleRate) != sampleRate {
		return nil, fmt.Errorf("%w: %v is %d, expected %d", ErrSampleRate, path, decoder.SampleRate, sampleRate)
	}

	ib, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("decode %v: %w", path, err)
	}
	frames := signal.InterInt{
		Data:        ib.Data,
		NumChannels: ib.Format.NumChannels,
		BitDepth:    bitDepth,
	}.AsFrames()
	tempo, _ := smartbuf.ParseTempo(path, len(frames), sampleRate)
	return smartbuf.New(Name(path), frames, tempo), nil
}

// Name returns the sample name of the file: its base name without extension.
func Name(path string) string {
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}

// Sink saves stereo frames to wav file.
type Sink struct {
	path     string
	bitDepth signal.BitDepth
	file     *os.File
	encoder  *wav.Encoder
	ib       *audio.IntBuffer
}

// NewSink creates the file and the encoder.
func NewSink(path string, sampleRate int, bitDepth signal.BitDepth) (*Sink, error) {
	if !supported(bitDepth) {
		return nil, ErrUnsupportedBitDepth
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	return &Sink{
		path:     path,
		bitDepth: bitDepth,
		file:     f,
		encoder:  wav.NewEncoder(f, sampleRate, int(bitDepth), 2, 1),
		ib: &audio.IntBuffer{
			Format: &audio.Format{
				NumChannels: 2,
				SampleRate:  sampleRate,
			},
			SourceBitDepth: int(bitDepth),
		},
	}, nil
}

// Write encodes the block.
func (s *Sink) Write(block []signal.Frame) error {
	s.ib.Data = signal.AsInterInt(block, s.bitDepth, s.ib.Data)
	return s.encoder.Write(s.ib)
}

// Close flushes encoder and closes the file.
func (s *Sink) Close() error {
	if err := s.encoder.Close(); err != nil {
		s.file.Close()
		return fmt.Errorf("close encoder %v: %w", s.path, err)
	}
	return s.file.Close()
}
