// Package engine owns the generator of a track on the audio goroutine.
// Producers hand commands over bounded channels; the engine polls them
// without blocking before every block, so a full or empty channel never
// stalls output.
package engine

import (
	"fmt"

	"github.com/rs/xid"

	"github.com/discordance/phrase-sampler/control"
	"github.com/discordance/phrase-sampler/generator"
	"github.com/discordance/phrase-sampler/log"
	"github.com/discordance/phrase-sampler/metric"
	"github.com/discordance/phrase-sampler/signal"
	"github.com/discordance/phrase-sampler/slicer"
	"github.com/discordance/phrase-sampler/smartbuf"
)

// Engine drives a single track.
type Engine struct {
	id         string
	name       string
	trackNum   int
	sampleRate int
	log        log.Logger
	meter      *metric.Meter

	gen     generator.Generator
	samples []*smartbuf.Buffer
	sample  int

	ticks    control.Chan
	commands control.Chan
}

// Option configures the engine.
type Option func(*Engine)

// WithLogger sets logger to Engine. If this option is not provided, silent
// logger is used.
func WithLogger(l log.Logger) Option {
	return func(e *Engine) {
		e.log = l
	}
}

// WithName sets the name metrics are published under.
func WithName(name string) Option {
	return func(e *Engine) {
		e.name = name
	}
}

// WithTrackNum sets the track the engine answers to.
func WithTrackNum(n int) Option {
	return func(e *Engine) {
		e.trackNum = n
	}
}

// WithSampleRate sets the sample rate of produced frames.
func WithSampleRate(sampleRate int) Option {
	return func(e *Engine) {
		e.sampleRate = sampleRate
	}
}

// WithCapacity sets the capacity of command channels.
func WithCapacity(n int) Option {
	return func(e *Engine) {
		e.ticks = control.NewChan(n)
		e.commands = control.NewChan(n)
	}
}

// WithSamples sets the sample list. The first one is loaded on creation.
func WithSamples(samples ...*smartbuf.Buffer) Option {
	return func(e *Engine) {
		e.samples = samples
	}
}

// New returns an engine for the generator.
func New(gen generator.Generator, options ...Option) (*Engine, error) {
	e := &Engine{
		id:         xid.New().String(),
		sampleRate: slicer.SampleRate,
		log:        log.Silent,
		gen:        gen,
		ticks:      control.NewChan(control.DefaultCapacity),
		commands:   control.NewChan(control.DefaultCapacity),
	}
	for _, option := range options {
		option(e)
	}
	if e.name == "" {
		e.name = fmt.Sprintf("track%d", e.trackNum)
	}
	e.meter = metric.NewMeter(e.name, e.sampleRate)
	if len(e.samples) > 0 {
		if err := e.gen.Load(e.samples[0]); err != nil {
			return nil, fmt.Errorf("load sample %q: %w", e.samples[0].Name, err)
		}
	}
	return e, nil
}

// ID returns unique engine id.
func (e *Engine) ID() string {
	return e.id
}

// Name returns the metrics name.
func (e *Engine) Name() string {
	return e.name
}

// Generator returns the generator driven by the engine.
func (e *Engine) Generator() generator.Generator {
	return e.gen
}

// Sample returns the index of the loaded sample.
func (e *Engine) Sample() int {
	return e.sample
}

// Offer queues a message without blocking. Ticks and transport messages
// have their own channel so they are never delayed by control traffic.
// It's safe to call from any goroutine.
func (e *Engine) Offer(m control.Message) bool {
	c := e.commands
	switch m.(type) {
	case control.Sync, control.Start, control.Stop:
		c = e.ticks
	}
	if c.Offer(m) {
		return true
	}
	e.meter.Dropped()
	return false
}

// Process applies pending messages and fills the block.
func (e *Engine) Process(out []signal.Frame) {
	e.poll(e.ticks)
	e.poll(e.commands)
	e.gen.FillBlock(out)
	e.meter.Block(int64(len(out)))
}

// poll applies at most one channel capacity of messages.
func (e *Engine) poll(c control.Chan) {
	for i := 0; i < cap(c); i++ {
		select {
		case m := <-c:
			e.Apply(m)
		default:
			return
		}
	}
}

// Apply executes the message on the generator. Messages addressed to
// other tracks are ignored.
func (e *Engine) Apply(m control.Message) {
	if n, ok := control.Track(m); ok && n != e.trackNum {
		return
	}
	e.meter.Command()
	switch v := m.(type) {
	case control.Sync:
		e.gen.Sync(v.Tempo, v.Tick)
	case control.Start:
		e.gen.Play()
		e.log.Debug(fmt.Sprintf("%v: play %v", e.name, e.gen.Playing()))
	case control.Stop:
		e.gen.Stop()
		e.log.Debug(fmt.Sprintf("%v: stop", e.name))
	case control.Load:
		e.load(v.Buffer)
	case control.NextSample:
		e.switchSample(1)
	case control.PrevSample:
		e.switchSample(-1)
	case control.PlaybackMult:
		e.gen.SetPlaybackMult(v.Value)
	case control.LoopDiv:
		e.gen.SetLoopDiv(v.Value)
	case control.Slicer:
		e.gen.HandleControl(v)
		e.log.Debug(fmt.Sprintf("%v: queued %v", e.name, v.Transform))
	default:
		e.log.Debug(fmt.Sprintf("%v: ignored %v", e.name, m))
	}
}

func (e *Engine) load(b *smartbuf.Buffer) {
	if b == nil {
		return
	}
	if err := e.gen.Load(b); err != nil {
		e.log.Info(fmt.Sprintf("%v: load %q failed: %v", e.name, b.Name, err))
		return
	}
	e.log.Debug(fmt.Sprintf("%v: load %q requested", e.name, b.Name))
}

func (e *Engine) switchSample(delta int) {
	n := len(e.samples)
	if n == 0 {
		return
	}
	e.sample = ((e.sample+delta)%n + n) % n
	e.load(e.samples[e.sample])
}
