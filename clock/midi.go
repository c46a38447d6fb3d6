package clock

import (
	"fmt"
	"sync"
	"time"

	"gitlab.com/gomidi/midi/v2"

	"github.com/discordance/phrase-sampler/control"
	"github.com/discordance/phrase-sampler/log"
)

// MIDI real time status bytes.
const (
	timingClock = 0xF8
	start       = 0xFA
	continued   = 0xFB
	stop        = 0xFC
)

// MIDIPPQN is the resolution of MIDI clock.
const MIDIPPQN = 24

// window is the number of clock intervals the tempo is averaged over.
const window = MIDIPPQN

// maxInterval resets tempo estimation after a gap in the clock.
const maxInterval = time.Second

// MIDI follows an external MIDI clock. Ticks are only offered between start
// and stop messages.
type MIDI struct {
	sender control.Sender
	log    log.Logger

	mu        sync.Mutex
	tempo     float64
	running   bool
	tick      uint64
	last      time.Time
	intervals [window]time.Duration
	count     int
	pos       int
}

// NewMIDI returns a clock follower. The tempo is used until it can be
// estimated from the clock.
func NewMIDI(s control.Sender, tempo float64, l log.Logger) *MIDI {
	if l == nil {
		l = log.Silent
	}
	return &MIDI{
		sender: s,
		tempo:  tempo,
		log:    l,
	}
}

// Tempo returns the estimated tempo.
func (c *MIDI) Tempo() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tempo
}

// Listen opens the named input port and follows its clock until stop is
// called.
func (c *MIDI) Listen(port string) (func(), error) {
	in, err := midi.FindInPort(port)
	if err != nil {
		return nil, fmt.Errorf("find midi port %q: %w", port, err)
	}
	stopFn, err := midi.ListenTo(in, func(msg midi.Message, _ int32) {
		c.Handle(msg, time.Now())
	}, midi.UseTimeCode(), midi.HandleError(func(err error) {
		c.log.Info(fmt.Sprintf("midi: %v", err))
	}))
	if err != nil {
		return nil, fmt.Errorf("listen to midi port %q: %w", port, err)
	}
	c.log.Info(fmt.Sprintf("midi: following clock of %q", port))
	return func() {
		stopFn()
		in.Close()
	}, nil
}

// Handle processes a raw MIDI message received at the time.
func (c *MIDI) Handle(msg []byte, at time.Time) {
	if len(msg) == 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	switch msg[0] {
	case timingClock:
		c.measure(at)
		if !c.running {
			return
		}
		c.sender.Offer(control.Sync{Tempo: c.tempo, Tick: c.tick})
		c.tick++
	case start:
		c.running = true
		c.tick = 0
		c.sender.Offer(control.Start{})
	case continued:
		c.running = true
		c.sender.Offer(control.Start{})
	case stop:
		c.running = false
		c.sender.Offer(control.Stop{})
	}
}

// measure updates the tempo estimation with the interval since the last
// clock message.
func (c *MIDI) measure(at time.Time) {
	last := c.last
	c.last = at
	if last.IsZero() {
		return
	}
	d := at.Sub(last)
	if d <= 0 || d > maxInterval {
		c.count, c.pos = 0, 0
		return
	}
	c.intervals[c.pos] = d
	c.pos = (c.pos + 1) % window
	if c.count < window {
		c.count++
	}
	var sum time.Duration
	for i := 0; i < c.count; i++ {
		sum += c.intervals[i]
	}
	avg := sum / time.Duration(c.count)
	c.tempo = 60 / (avg.Seconds() * MIDIPPQN)
}
