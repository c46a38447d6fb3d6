package slicer

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/discordance/phrase-sampler/envelope"
	"github.com/discordance/phrase-sampler/signal"
	"github.com/discordance/phrase-sampler/smartbuf"
)

const (
	// SampleRate is the rate the tick clock is converted with.
	SampleRate = 44100
	// PPQN is the number of ticks per quarter note.
	PPQN = 24
	// neutralRate is the playback rate when no buffer is loaded.
	neutralRate = 1.0
)

// bufferChange is a swap requested while a buffer is playing. requestKey is
// the slice covering the clock in the next buffer at request time and
// nextKey the one following it. lastClock detects the clock wrapping in the
// next buffer, the only boundary a single slice buffer has.
type bufferChange struct {
	requestKey int
	nextKey    int
	lastClock  int
}

// Seq is the slice sequencer. It keeps a private copy of the playing
// buffer, resolves which slice covers the tick clock and defers buffer swaps
// and transforms to slice boundaries.
//
// Seq is not safe for concurrent use: it's owned by the audio goroutine.
type Seq struct {
	ticks   uint64
	tempo   float64
	elapsed float64

	sampleRate float64
	ppqn       float64

	local *smartbuf.Buffer
	mode  smartbuf.PositionsMode

	orig    *SliceMap
	scratch *SliceMap
	playing *SliceMap

	curKey int
	cur    Slice
	hasCur bool
	// lastClock detects the loop wrapping back onto the same slice.
	lastClock int

	change        bufferChange
	changePending bool

	transform        Transform
	transformPending bool

	fade envelope.MicroFadeOut
	rng  *rand.Rand
}

// Option configures the sequencer.
type Option func(*Seq)

// WithMode sets the positions mode used to slice buffers.
func WithMode(m smartbuf.PositionsMode) Option {
	return func(s *Seq) {
		s.mode = m
	}
}

// WithSeed seeds the random source used by RandSwap.
func WithSeed(seed int64) Option {
	return func(s *Seq) {
		s.rng = rand.New(rand.NewSource(seed))
	}
}

// WithPPQN overrides the tick resolution.
func WithPPQN(ppqn int) Option {
	return func(s *Seq) {
		s.ppqn = float64(ppqn)
	}
}

// WithSampleRate overrides the sample rate used to convert ticks.
func WithSampleRate(sampleRate int) Option {
	return func(s *Seq) {
		s.sampleRate = float64(sampleRate)
	}
}

// NewSeq returns a sequencer without buffer.
func NewSeq(options ...Option) *Seq {
	s := &Seq{
		tempo:      smartbuf.DefaultTempo,
		sampleRate: SampleRate,
		ppqn:       PPQN,
		mode:       smartbuf.Bar8Mode,
		orig:       NewSliceMap(),
		scratch:    NewSliceMap(),
		playing:    NewSliceMap(),
	}
	for _, option := range options {
		option(s)
	}
	if s.rng == nil {
		s.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return s
}

// Sync anchors the clock to the tick grid and resets the frame counter.
func (s *Seq) Sync(tempo float64, tick uint64) {
	s.ticks = tick
	s.tempo = tempo
	s.elapsed = 0
}

// Loaded returns true once a buffer was committed.
func (s *Seq) Loaded() bool {
	return s.local != nil
}

// Local returns the private buffer copy. It must not be modified.
func (s *Seq) Local() *smartbuf.Buffer {
	return s.local
}

// Mode returns the positions mode.
func (s *Seq) Mode() smartbuf.PositionsMode {
	return s.mode
}

// Orig returns the slices in original order.
func (s *Seq) Orig() *SliceMap {
	return s.orig
}

// Playing returns the slices currently played.
func (s *Seq) Playing() *SliceMap {
	return s.playing
}

// CurrentKey returns the key of the selected slice.
func (s *Seq) CurrentKey() (int, bool) {
	return s.curKey, s.hasCur
}

// PendingChange returns the buffer swap waiting for its boundary.
func (s *Seq) PendingChange() (requestKey, nextKey int, ok bool) {
	return s.change.requestKey, s.change.nextKey, s.changePending
}

// PendingTransform returns the transform waiting for its boundary.
func (s *Seq) PendingTransform() (Transform, bool) {
	return s.transform, s.transformPending
}

// ticksAsFrames converts the tick count to frames at tempo.
func (s *Seq) ticksAsFrames(tempo float64) int64 {
	if tempo <= 0 {
		return 0
	}
	return int64(float64(s.ticks) * 60 / (tempo * s.ppqn) * s.sampleRate)
}

// LocalClock is the position in the local buffer: the tick clock converted
// at the buffer tempo plus frames elapsed since the last tick, wrapped by
// the buffer length.
func (s *Seq) LocalClock() int {
	n := int64(s.local.Len())
	if n == 0 {
		return 0
	}
	return int((s.ticksAsFrames(s.local.OriginalTempo)%n + int64(s.elapsed)) % n)
}

// NextClock is the position the tick clock would have in b.
func (s *Seq) NextClock(b *smartbuf.Buffer) int {
	n := int64(b.Len())
	if n == 0 {
		return 0
	}
	return int(s.ticksAsFrames(b.OriginalTempo) % n)
}

// PlaybackRate is the speed the local buffer must be played at to follow
// the external tempo.
func (s *Seq) PlaybackRate() float64 {
	if s.local == nil || s.local.OriginalTempo <= 0 {
		return neutralRate
	}
	return s.tempo / s.local.OriginalTempo
}

// AdvanceClock moves the clock by one output frame.
func (s *Seq) AdvanceClock() {
	s.elapsed += s.PlaybackRate()
}

// RequestLoad loads b immediately if nothing is loaded yet. Otherwise the
// swap is deferred until the clock crosses to the next slice of b.
func (s *Seq) RequestLoad(b *smartbuf.Buffer) error {
	positions, err := b.PositionsFor(s.mode)
	if err != nil {
		return fmt.Errorf("request load: %w", err)
	}
	if s.local == nil {
		return s.CommitLoad(b)
	}

	clock := s.NextClock(b)
	requestKey := floor(positions, clock)
	nextKey := b.Len()
	for _, p := range positions {
		if p > requestKey {
			nextKey = p
			break
		}
	}
	s.change = bufferChange{requestKey: requestKey, nextKey: nextKey, lastClock: clock}
	s.changePending = true
	return nil
}

// CommitLoad copies b into the local buffer, rebuilds the original slices
// and resets the playing ones. Applied transforms are lost.
func (s *Seq) CommitLoad(b *smartbuf.Buffer) error {
	positions, err := b.PositionsFor(s.mode)
	if err != nil {
		return fmt.Errorf("commit load: %w", err)
	}
	if s.local == nil {
		s.local = b.Clone()
	} else {
		s.local.CopyFrom(b)
	}

	s.orig.Clear()
	s.scratch.Clear()
	n := s.local.Len()
	for i, start := range positions {
		if start >= n {
			break
		}
		end := n
		if i+1 < len(positions) && positions[i+1] < n {
			end = positions[i+1]
		}
		s.orig.Insert(start, Slice{ID: i, Start: start, End: end})
	}
	s.playing.CopyFrom(s.orig)
	s.hasCur = false
	return nil
}

// QueueTransform latches a transform to apply at the next slice boundary.
// Nil clears the latch.
func (s *Seq) QueueTransform(t *Transform) {
	if t == nil {
		s.transformPending = false
		return
	}
	s.transform = *t
	s.transformPending = true
}

// ApplyTransform reorders the playing slices immediately.
func (s *Seq) ApplyTransform(t Transform) {
	switch t.Kind {
	case Reset:
		s.playing.CopyFrom(s.orig)
	case RandSwap:
		if !s.playing.SameKeys(s.orig) {
			s.playing.CopyFrom(s.orig)
		}
		s.playing.RandSwap(s.orig, s.rng)
	case QuantRepeat:
		if s.local == nil || t.Quant <= 0 || s.playing.Len() == 0 {
			return
		}
		key := t.SliceIndex
		if _, ok := s.playing.Get(key); !ok {
			key = s.playing.Floor(key)
		}
		s.playing.QuantRepeat(t.Quant, key, s.local.Len())
	}
	s.hasCur = false
}

// Update commits a pending swap once the clock crossed its boundary in
// candidate, applies a pending transform when the slice changes and selects
// the slice covering the clock.
func (s *Seq) Update(candidate *smartbuf.Buffer) {
	if s.local == nil {
		return
	}

	if s.changePending {
		positions, err := candidate.PositionsFor(s.mode)
		if err != nil {
			panic(fmt.Sprintf("slicer: pending swap on invalid buffer: %v", err))
		}
		next := s.NextClock(candidate)
		wrapped := s.change.lastClock-next > candidate.Len()/2
		s.change.lastClock = next
		if wrapped || floor(positions, next) != s.change.requestKey {
			if err := s.CommitLoad(candidate); err != nil {
				panic(fmt.Sprintf("slicer: %v", err))
			}
			s.changePending = false
			s.fade.Stop()
		}
	}

	clock := s.LocalClock()
	wrapped := s.lastClock-clock > s.local.Len()/2
	s.lastClock = clock
	key := s.playing.Floor(clock)
	if s.hasCur && key == s.curKey && !wrapped {
		s.armFade()
		return
	}
	if s.transformPending {
		s.ApplyTransform(s.transform)
		s.transformPending = false
		key = s.playing.Floor(clock)
	}
	slice, ok := s.playing.Get(key)
	if !ok {
		panic(fmt.Sprintf("slicer: no slice at key %d", key))
	}
	s.curKey, s.cur, s.hasCur = key, slice, true
	s.fade.Stop()
}

// armFade starts the micro fade-out on the tail of the current slice when
// a swap or a transform waits for the boundary.
func (s *Seq) armFade() {
	if s.fade.Active() || !(s.changePending || s.transformPending) {
		return
	}
	left := s.cur.EffectiveLen(s.PlaybackRate()) - s.cur.Cursor
	if left > 0 && left <= TransformFadeOut {
		s.fade.Start(int64(left))
	}
}

// NextFrame advances the clock, updates the state and returns the next
// frame of the current slice.
func (s *Seq) NextFrame(candidate *smartbuf.Buffer) signal.Frame {
	s.AdvanceClock()
	s.Update(candidate)
	if s.local == nil {
		return signal.Equilibrium
	}
	f := s.cur.NextFrame(s.PlaybackRate(), s.local.Frames)
	if s.fade.Active() {
		s.fade.Next()
		f = s.fade.Apply(f)
	}
	return f
}

// floor returns the greatest position lower or equal to pos.
func floor(positions []int, pos int) int {
	for i := len(positions) - 1; i >= 0; i-- {
		if positions[i] <= pos {
			return positions[i]
		}
	}
	panic(fmt.Sprintf("slicer: no position before %d", pos))
}
