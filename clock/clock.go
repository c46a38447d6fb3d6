// Package clock produces the tempo ticks that drive the sequencers. Every
// producer offers control.Sync messages without blocking.
package clock

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/discordance/phrase-sampler/control"
	"github.com/discordance/phrase-sampler/log"
)

// ErrStarted is returned when a running clock is started again.
var ErrStarted = errors.New("clock already started")

// Interval returns the duration of one tick.
func Interval(tempo float64, ppqn int) time.Duration {
	return time.Duration(60 / (tempo * float64(ppqn)) * float64(time.Second))
}

// Internal is a free running clock based on a ticker.
type Internal struct {
	sender control.Sender
	tempo  float64
	ppqn   int
	log    log.Logger

	mu   sync.Mutex
	stop chan struct{}
	done chan struct{}
}

// NewInternal returns a stopped clock.
func NewInternal(s control.Sender, tempo float64, ppqn int, l log.Logger) *Internal {
	if l == nil {
		l = log.Silent
	}
	return &Internal{
		sender: s,
		tempo:  tempo,
		ppqn:   ppqn,
		log:    l,
	}
}

// Start offers the start message and the first tick, then ticks until Stop.
func (c *Internal) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stop != nil {
		return ErrStarted
	}
	c.stop = make(chan struct{})
	c.done = make(chan struct{})
	c.sender.Offer(control.Sync{Tempo: c.tempo, Tick: 0})
	c.sender.Offer(control.Start{})
	c.log.Info(fmt.Sprintf("clock: started at %v bpm", c.tempo))
	go c.run(c.stop, c.done)
	return nil
}

func (c *Internal) run(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(Interval(c.tempo, c.ppqn))
	defer ticker.Stop()
	var tick uint64
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			tick++
			c.sender.Offer(control.Sync{Tempo: c.tempo, Tick: tick})
		}
	}
}

// Stop ends ticking and offers the stop message. It's safe to call Stop on
// a stopped clock.
func (c *Internal) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stop == nil {
		return
	}
	close(c.stop)
	<-c.done
	c.stop, c.done = nil, nil
	c.sender.Offer(control.Stop{})
	c.log.Info("clock: stopped")
}

// Virtual derives ticks from the number of rendered frames. It is used when
// rendering offline, faster than real time.
type Virtual struct {
	tempo      float64
	ppqn       int
	sampleRate int
	frames     int64
	next       uint64
}

// NewVirtual returns a clock at frame zero.
func NewVirtual(tempo float64, ppqn, sampleRate int) *Virtual {
	return &Virtual{
		tempo:      tempo,
		ppqn:       ppqn,
		sampleRate: sampleRate,
	}
}

// tickAt returns the frame where the tick falls.
func (c *Virtual) tickAt(tick uint64) float64 {
	return float64(tick) * 60 / (c.tempo * float64(c.ppqn)) * float64(c.sampleRate)
}

// Advance offers every tick that falls into the next block of frames and
// moves the clock past it. It returns the number of offered ticks.
func (c *Virtual) Advance(s control.Sender, frames int) int {
	end := float64(c.frames + int64(frames))
	n := 0
	for c.tickAt(c.next) < end {
		s.Offer(control.Sync{Tempo: c.tempo, Tick: c.next})
		c.next++
		n++
	}
	c.frames += int64(frames)
	return n
}
