// Package metric publishes engine counters with expvar.
package metric

import (
	"expvar"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/discordance/phrase-sampler/signal"
)

const enginesLabel = "smplr.engines"

const (
	// BlockCounter measures number of produced blocks.
	BlockCounter = "Blocks"
	// FrameCounter measures number of produced frames.
	FrameCounter = "Frames"
	// LatencyCounter measures time between block calls.
	LatencyCounter = "Latency"
	// DurationCounter counts the duration of produced audio.
	DurationCounter = "Duration"
	// CommandCounter counts applied commands.
	CommandCounter = "Commands"
	// DroppedCounter counts commands dropped by producers.
	DroppedCounter = "Dropped"
	// MeterCounter counts meters created for the name.
	MeterCounter = "Meters"
)

var (
	registry = metrics{
		m: make(map[string]metric),
	}

	counters = []string{
		BlockCounter,
		FrameCounter,
		LatencyCounter,
		DurationCounter,
		CommandCounter,
		DroppedCounter,
		MeterCounter,
	}
)

// Get metrics values for provided name.
func Get(name string) map[string]string {
	return getCounters(name)
}

// GetAll returns counters for all measured names.
func GetAll() map[string]map[string]string {
	m := make(map[string]map[string]string)
	registry.Lock()
	defer registry.Unlock()
	for name := range registry.m {
		m[name] = getCounters(name)
	}
	return m
}

func getCounters(name string) map[string]string {
	m := make(map[string]string)
	for _, counter := range counters {
		v := expvar.Get(key(name, counter))
		if v != nil {
			m[counter] = v.String()
		}
	}
	return m
}

// Meter captures counters of a single engine. Calls are lock free.
type Meter struct {
	metric
	sampleRate int
	calledAt   time.Time
	blockSize  int64
	blockDur   time.Duration
}

// NewMeter creates a meter publishing under name.
func NewMeter(name string, sampleRate int) *Meter {
	m := registry.get(name)
	m.meters.Add(1)
	return &Meter{
		metric:     m,
		sampleRate: sampleRate,
	}
}

// Block captures a produced block of frames.
func (m *Meter) Block(frames int64) {
	now := time.Now()
	if !m.calledAt.IsZero() {
		m.latency.set(now.Sub(m.calledAt))
	}
	m.calledAt = now
	m.blocks.Add(1)
	m.frames.Add(frames)
	// recalculate block duration only when block size has changed
	if m.blockSize != frames {
		m.blockSize = frames
		m.blockDur = signal.DurationOf(m.sampleRate, frames)
	}
	m.duration.add(m.blockDur)
}

// Command captures an applied command.
func (m *Meter) Command() {
	m.commands.Add(1)
}

// Dropped captures a command that could not be queued.
func (m *Meter) Dropped() {
	m.dropped.Add(1)
}

type metrics struct {
	sync.Mutex
	m map[string]metric
}

func (m *metrics) get(name string) metric {
	m.Lock()
	defer m.Unlock()
	if metric, ok := m.m[name]; ok {
		// return existing metric if available
		return metric
	}
	metric := newMetric(name)
	m.m[name] = metric
	return metric
}

type metric struct {
	meters   *expvar.Int
	blocks   *expvar.Int
	frames   *expvar.Int
	commands *expvar.Int
	dropped  *expvar.Int
	latency  *duration
	duration *duration
}

func newMetric(name string) metric {
	m := metric{
		meters:   expvar.NewInt(key(name, MeterCounter)),
		blocks:   expvar.NewInt(key(name, BlockCounter)),
		frames:   expvar.NewInt(key(name, FrameCounter)),
		commands: expvar.NewInt(key(name, CommandCounter)),
		dropped:  expvar.NewInt(key(name, DroppedCounter)),
		latency:  &duration{},
		duration: &duration{},
	}
	expvar.Publish(key(name, LatencyCounter), m.latency)
	expvar.Publish(key(name, DurationCounter), m.duration)
	return m
}

func key(name, counter string) string {
	return fmt.Sprintf("%s.%s.%s", enginesLabel, name, counter)
}

// duration allows to format time.Duration metric values.
type duration struct {
	d int64
}

func (v *duration) String() string {
	return fmt.Sprintf("%q", time.Duration(atomic.LoadInt64(&v.d)).String())
}

func (v *duration) add(delta time.Duration) {
	atomic.AddInt64(&v.d, int64(delta))
}

func (v *duration) set(value time.Duration) {
	atomic.StoreInt64(&v.d, int64(value))
}
