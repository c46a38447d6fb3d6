// Package control defines the immutable commands producers send to the
// audio goroutine. Producers never block: commands are offered to bounded
// channels and dropped when the channel is full.
package control

import (
	"fmt"

	"github.com/discordance/phrase-sampler/slicer"
	"github.com/discordance/phrase-sampler/smartbuf"
)

// DefaultCapacity is the size of command channels.
const DefaultCapacity = 1024

// Message is a command addressed to the audio goroutine.
type Message interface {
	fmt.Stringer
}

type (
	// Sync is a tick of the tempo clock.
	Sync struct {
		Tempo float64
		Tick  uint64
	}

	// Start starts playback.
	Start struct{}

	// Stop stops playback.
	Stop struct{}

	// Load replaces the buffer of a track. The buffer must not be modified
	// once sent.
	Load struct {
		TrackNum int
		Buffer   *smartbuf.Buffer
	}

	// NextSample switches a track to its next sample.
	NextSample struct {
		TrackNum int
	}

	// PrevSample switches a track to its previous sample.
	PrevSample struct {
		TrackNum int
	}

	// PlaybackMult sets the playback multiplier of a track.
	PlaybackMult struct {
		TrackNum int
		Value    uint64
	}

	// LoopDiv sets the loop division of a track.
	LoopDiv struct {
		TrackNum int
		Value    uint64
	}

	// Volume sets the volume of a track.
	Volume struct {
		TrackNum int
		Value    float32
	}

	// Pan sets the pan of a track.
	Pan struct {
		TrackNum int
		Value    float32
	}

	// Slicer carries a transform for the slicer of a track.
	Slicer struct {
		TrackNum  int
		Transform slicer.Transform
	}
)

func (m Sync) String() string {
	return fmt.Sprintf("sync(tempo=%v, tick=%d)", m.Tempo, m.Tick)
}

func (Start) String() string {
	return "start"
}

func (Stop) String() string {
	return "stop"
}

func (m Load) String() string {
	name := ""
	if m.Buffer != nil {
		name = m.Buffer.Name
	}
	return fmt.Sprintf("track %d: load %q", m.TrackNum, name)
}

func (m NextSample) String() string {
	return fmt.Sprintf("track %d: next sample", m.TrackNum)
}

func (m PrevSample) String() string {
	return fmt.Sprintf("track %d: prev sample", m.TrackNum)
}

func (m PlaybackMult) String() string {
	return fmt.Sprintf("track %d: playback mult %d", m.TrackNum, m.Value)
}

func (m LoopDiv) String() string {
	return fmt.Sprintf("track %d: loop div %d", m.TrackNum, m.Value)
}

func (m Volume) String() string {
	return fmt.Sprintf("track %d: volume %v", m.TrackNum, m.Value)
}

func (m Pan) String() string {
	return fmt.Sprintf("track %d: pan %v", m.TrackNum, m.Value)
}

func (m Slicer) String() string {
	return fmt.Sprintf("track %d: slicer %v", m.TrackNum, m.Transform)
}

// Track returns the track number a message is addressed to. Transport
// messages are not addressed to a track.
func Track(m Message) (int, bool) {
	switch v := m.(type) {
	case Load:
		return v.TrackNum, true
	case NextSample:
		return v.TrackNum, true
	case PrevSample:
		return v.TrackNum, true
	case PlaybackMult:
		return v.TrackNum, true
	case LoopDiv:
		return v.TrackNum, true
	case Volume:
		return v.TrackNum, true
	case Pan:
		return v.TrackNum, true
	case Slicer:
		return v.TrackNum, true
	}
	return 0, false
}

// Sender accepts messages without blocking.
type Sender interface {
	Offer(Message) bool
}

// Chan is a bounded message channel.
type Chan chan Message

// NewChan returns a channel with capacity.
func NewChan(capacity int) Chan {
	return make(Chan, capacity)
}

// Offer sends the message without blocking.
func (c Chan) Offer(m Message) bool {
	return Offer(c, m)
}

// Offer sends the message without blocking. It returns false if the
// channel is full.
func Offer(c chan<- Message, m Message) bool {
	select {
	case c <- m:
		return true
	default:
		return false
	}
}
