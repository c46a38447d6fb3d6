// Package portaudio plays the engine through the default output device.
package portaudio

import (
	"fmt"

	"github.com/gordonklaus/portaudio"

	"github.com/discordance/phrase-sampler/signal"
)

// Processor fills blocks of frames.
type Processor interface {
	Process(out []signal.Frame)
}

// Sink represents portaudio stream which pulls blocks from the processor
// in the device callback.
type Sink struct {
	processor  Processor
	sampleRate int
	bufferSize int
	block      []signal.Frame
	stream     *portaudio.Stream
}

// NewSink returns a sink for the processor. The stream is opened by Start.
func NewSink(p Processor, sampleRate, bufferSize int) *Sink {
	return &Sink{
		processor:  p,
		sampleRate: sampleRate,
		bufferSize: bufferSize,
		block:      make([]signal.Frame, bufferSize),
	}
}

// Start initializes portaudio and starts the default stereo stream.
func (s *Sink) Start() error {
	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("portaudio initialize: %w", err)
	}
	stream, err := portaudio.OpenDefaultStream(0, 2, float64(s.sampleRate), s.bufferSize, s.callback)
	if err != nil {
		portaudio.Terminate()
		return fmt.Errorf("portaudio open stream: %w", err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return fmt.Errorf("portaudio start stream: %w", err)
	}
	s.stream = stream
	return nil
}

// callback runs on the device thread.
func (s *Sink) callback(out []float32) {
	n := len(out) / 2
	if n > cap(s.block) {
		s.block = make([]signal.Frame, n)
	}
	block := s.block[:n]
	s.processor.Process(block)
	signal.Interleave(block, out)
}

// Close stops the stream and terminates portaudio structures.
func (s *Sink) Close() error {
	if s.stream == nil {
		return nil
	}
	if err := s.stream.Stop(); err != nil {
		return err
	}
	if err := s.stream.Close(); err != nil {
		return err
	}
	s.stream = nil
	return portaudio.Terminate()
}
