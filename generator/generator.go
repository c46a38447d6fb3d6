// Package generator turns smart buffers into a stream of stereo frames
// synchronized to the tempo clock. All variants share the same transport
// contract and are selected per track with Kind.
package generator

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rs/xid"

	"github.com/discordance/phrase-sampler/control"
	"github.com/discordance/phrase-sampler/signal"
	"github.com/discordance/phrase-sampler/smartbuf"
)

// ErrUnknownKind is returned when a generator kind can't be resolved.
var ErrUnknownKind = errors.New("unknown generator kind")

// Kind identifies a generator variant.
type Kind int

const (
	// Slicer plays the buffer as tempo-locked slices that can be reordered.
	Slicer Kind = iota
	// Repitch plays the buffer looped and resampled to the tempo.
	Repitch
	// Pvoc is the time-stretch variant. It plays frames unchanged.
	Pvoc
)

var kindNames = map[Kind]string{
	Slicer:  "slicer",
	Repitch: "repitch",
	Pvoc:    "pvoc",
}

func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ParseKind resolves a kind by name.
func ParseKind(s string) (Kind, error) {
	for k, n := range kindNames {
		if strings.EqualFold(n, s) {
			return k, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// Generator produces audio blocks for a track.
// All methods must be called from the audio goroutine.
type Generator interface {
	ID() string
	Kind() Kind
	// FillBlock writes the next frames into out. A stopped generator
	// writes silence and keeps its state.
	FillBlock(out []signal.Frame)
	// Load replaces the buffer. Variants may defer the change.
	Load(b *smartbuf.Buffer) error
	// Sync anchors the generator to the tempo clock.
	Sync(tempo float64, tick uint64)
	Play()
	Stop()
	Playing() bool
	SetPlaybackMult(v uint64)
	SetLoopDiv(v uint64)
	Reset()
	// HandleControl consumes variant specific messages and ignores the rest.
	HandleControl(m control.Message)
}

type options struct {
	mode       smartbuf.PositionsMode
	seed       int64
	seeded     bool
	sampleRate int
	ppqn       int
}

// Option configures a generator.
type Option func(*options)

// WithMode sets the positions mode of the slicer.
func WithMode(m smartbuf.PositionsMode) Option {
	return func(o *options) {
		o.mode = m
	}
}

// WithSeed seeds the random transforms of the slicer.
func WithSeed(seed int64) Option {
	return func(o *options) {
		o.seed = seed
		o.seeded = true
	}
}

// WithTiming sets the sample rate and the tick resolution of the slicer.
func WithTiming(sampleRate, ppqn int) Option {
	return func(o *options) {
		o.sampleRate = sampleRate
		o.ppqn = ppqn
	}
}

// New returns a generator of the provided kind.
func New(kind Kind, opts ...Option) (Generator, error) {
	o := options{mode: smartbuf.Bar8Mode}
	for _, opt := range opts {
		opt(&o)
	}
	switch kind {
	case Slicer:
		return newSlicerGen(o), nil
	case Repitch:
		return newRepitchGen(), nil
	case Pvoc:
		return newPvocGen(), nil
	}
	return nil, fmt.Errorf("%w: %v", ErrUnknownKind, kind)
}

// transport is the state shared by all variants.
type transport struct {
	id   string
	kind Kind

	frameIndex   int
	playbackMult uint64
	loopDiv      uint64
	nextLoopDiv  uint64
	playing      bool
	// buf is the generator copy of the loaded buffer.
	buf *smartbuf.Buffer
	// reset is called when playback stops.
	reset func()
}

func newTransport(kind Kind, reset func()) transport {
	return transport{
		id:           xid.New().String(),
		kind:         kind,
		playbackMult: 1,
		loopDiv:      1,
		nextLoopDiv:  1,
		buf:          smartbuf.NewEmpty(),
		reset:        reset,
	}
}

// ID returns unique generator id.
func (t *transport) ID() string {
	return t.id
}

// Kind returns the variant.
func (t *transport) Kind() Kind {
	return t.kind
}

// Play starts playback if a buffer is loaded.
func (t *transport) Play() {
	if t.buf.Len() > 0 {
		t.playing = true
	}
}

// Stop resets the generator and stops playback.
func (t *transport) Stop() {
	t.Reset()
	t.playing = false
}

// Playing returns true while playing.
func (t *transport) Playing() bool {
	return t.playing
}

// Reset calls the reset hook of the variant.
func (t *transport) Reset() {
	if t.reset != nil {
		t.reset()
	}
}

// SetPlaybackMult sets the playback multiplier.
func (t *transport) SetPlaybackMult(v uint64) {
	t.playbackMult = v
}

// SetLoopDiv records the loop division applied next.
func (t *transport) SetLoopDiv(v uint64) {
	t.nextLoopDiv = v
}

// PlaybackMult returns the playback multiplier.
func (t *transport) PlaybackMult() uint64 {
	return t.playbackMult
}

// LoopDiv returns the current and the next loop division.
func (t *transport) LoopDiv() (current, next uint64) {
	return t.loopDiv, t.nextLoopDiv
}
