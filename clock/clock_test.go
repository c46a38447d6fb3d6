package clock_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/discordance/phrase-sampler/clock"
	"github.com/discordance/phrase-sampler/control"
)

func drain(c control.Chan) []control.Message {
	var msgs []control.Message
	for {
		select {
		case m := <-c:
			msgs = append(msgs, m)
		default:
			return msgs
		}
	}
}

func TestInterval(t *testing.T) {
	tests := []struct {
		tempo    float64
		ppqn     int
		expected time.Duration
	}{
		{tempo: 120, ppqn: 24, expected: 20833333 * time.Nanosecond},
		{tempo: 60, ppqn: 1, expected: time.Second},
		{tempo: 150, ppqn: 4, expected: 100 * time.Millisecond},
	}
	for _, test := range tests {
		assert.InDelta(t, float64(test.expected), float64(clock.Interval(test.tempo, test.ppqn)), 1)
	}
}

func TestInternal(t *testing.T) {
	defer goleak.VerifyNoLeaks(t)
	c := control.NewChan(control.DefaultCapacity)
	clk := clock.NewInternal(c, 6000, 24, nil)

	require.NoError(t, clk.Start())
	assert.Equal(t, clock.ErrStarted, clk.Start())
	time.Sleep(50 * time.Millisecond)
	clk.Stop()
	clk.Stop()

	msgs := drain(c)
	require.True(t, len(msgs) > 3, "got %d messages", len(msgs))
	assert.Equal(t, control.Sync{Tempo: 6000, Tick: 0}, msgs[0])
	assert.Equal(t, control.Start{}, msgs[1])
	for i, m := range msgs[2 : len(msgs)-1] {
		assert.Equal(t, control.Sync{Tempo: 6000, Tick: uint64(i + 1)}, m)
	}
	assert.Equal(t, control.Stop{}, msgs[len(msgs)-1])

	// restart after stop
	require.NoError(t, clk.Start())
	clk.Stop()
	drain(c)
}

func TestVirtual(t *testing.T) {
	c := control.NewChan(128)
	clk := clock.NewVirtual(120, 24, 44100)

	// a tick lasts 918.75 frames
	assert.Equal(t, 1, clk.Advance(c, 512))
	assert.Equal(t, 1, clk.Advance(c, 512))
	assert.Equal(t, 0, clk.Advance(c, 400))
	assert.Equal(t, control.Sync{Tempo: 120, Tick: 0}, <-c)
	assert.Equal(t, control.Sync{Tempo: 120, Tick: 1}, <-c)

	total := 2
	for i := 0; i < 42; i++ {
		total += clk.Advance(c, 1000)
	}
	// ticks up to 43424 frames
	assert.Equal(t, 48, total)
	msgs := drain(c)
	assert.Equal(t, control.Sync{Tempo: 120, Tick: 47}, msgs[len(msgs)-1])
}

func TestMIDI(t *testing.T) {
	c := control.NewChan(128)
	clk := clock.NewMIDI(c, 100, nil)
	at := time.Unix(0, 0)
	interval := clock.Interval(120, clock.MIDIPPQN)

	// clocks before start only measure tempo
	for i := 0; i < 30; i++ {
		clk.Handle([]byte{0xF8}, at)
		at = at.Add(interval)
	}
	assert.Empty(t, drain(c))
	assert.InDelta(t, 120, clk.Tempo(), 1e-3)

	clk.Handle([]byte{0xFA}, at)
	for i := 0; i < 3; i++ {
		clk.Handle([]byte{0xF8}, at)
		at = at.Add(interval)
	}
	clk.Handle([]byte{0xFC}, at)
	clk.Handle([]byte{0xF8}, at.Add(interval))
	clk.Handle([]byte{0xFB}, at.Add(2*interval))
	clk.Handle([]byte{0xF8}, at.Add(3*interval))
	clk.Handle(nil, at)
	clk.Handle([]byte{0x90, 60, 100}, at)

	msgs := drain(c)
	require.Len(t, msgs, 7)
	assert.Equal(t, control.Start{}, msgs[0])
	for i := 0; i < 3; i++ {
		sync, ok := msgs[i+1].(control.Sync)
		require.True(t, ok)
		assert.Equal(t, uint64(i), sync.Tick)
	}
	assert.Equal(t, control.Stop{}, msgs[4])
	assert.Equal(t, control.Start{}, msgs[5])
	assert.Equal(t, uint64(3), msgs[6].(control.Sync).Tick)
}

func TestMIDIGapResetsEstimation(t *testing.T) {
	c := control.NewChan(128)
	clk := clock.NewMIDI(c, 100, nil)
	at := time.Unix(0, 0)
	for i := 0; i < 10; i++ {
		clk.Handle([]byte{0xF8}, at)
		at = at.Add(clock.Interval(90, clock.MIDIPPQN))
	}
	assert.InDelta(t, 90, clk.Tempo(), 1e-3)

	at = at.Add(2 * time.Second)
	for i := 0; i < 10; i++ {
		clk.Handle([]byte{0xF8}, at)
		at = at.Add(clock.Interval(140, clock.MIDIPPQN))
	}
	assert.InDelta(t, 140, clk.Tempo(), 1e-3)
}
