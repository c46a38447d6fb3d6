package engine_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/discordance/phrase-sampler/control"
	"github.com/discordance/phrase-sampler/engine"
	"github.com/discordance/phrase-sampler/generator"
	"github.com/discordance/phrase-sampler/metric"
	"github.com/discordance/phrase-sampler/signal"
	"github.com/discordance/phrase-sampler/slicer"
	"github.com/discordance/phrase-sampler/smartbuf"
)

func sample(name string, n int) *smartbuf.Buffer {
	frames := make([]signal.Frame, n)
	for i := range frames {
		frames[i] = signal.Frame{0.5, -0.5}
	}
	return smartbuf.New(name, frames, smartbuf.DefaultTempo)
}

func newEngine(t *testing.T, name string, options ...engine.Option) (*engine.Engine, *generator.SlicerGen) {
	t.Helper()
	gen, err := generator.New(generator.Slicer, generator.WithMode(smartbuf.Bar4Mode), generator.WithSeed(1))
	require.NoError(t, err)
	e, err := engine.New(gen, append([]engine.Option{engine.WithName(name)}, options...)...)
	require.NoError(t, err)
	return e, gen.(*generator.SlicerGen)
}

func silent(block []signal.Frame) bool {
	for _, f := range block {
		if f != signal.Equilibrium {
			return false
		}
	}
	return true
}

func TestEngineLoadsFirstSample(t *testing.T) {
	e, gen := newEngine(t, "engine-first", engine.WithSamples(sample("a", 4096), sample("b", 4096)))
	assert.NotEmpty(t, e.ID())
	assert.Equal(t, "engine-first", e.Name())
	assert.Equal(t, 0, e.Sample())
	require.True(t, gen.Seq().Loaded())
	assert.Equal(t, "a", gen.Seq().Local().Name)
}

func TestEngineDefaultName(t *testing.T) {
	gen, err := generator.New(generator.Pvoc)
	require.NoError(t, err)
	e, err := engine.New(gen, engine.WithTrackNum(3))
	require.NoError(t, err)
	assert.Equal(t, "track3", e.Name())
	assert.Equal(t, gen, e.Generator())
}

func TestEngineProcess(t *testing.T) {
	e, _ := newEngine(t, "engine-process", engine.WithSamples(sample("a", 4096)))
	block := make([]signal.Frame, 256)

	e.Process(block)
	assert.True(t, silent(block), "stopped engine must output silence")

	assert.True(t, e.Offer(control.Sync{Tempo: 120, Tick: 0}))
	assert.True(t, e.Offer(control.Start{}))
	e.Process(block)
	assert.True(t, e.Generator().Playing())
	assert.False(t, silent(block))

	assert.True(t, e.Offer(control.Stop{}))
	e.Process(block)
	assert.False(t, e.Generator().Playing())
	assert.True(t, silent(block))

	m := metric.Get("engine-process")
	assert.Equal(t, "3", m[metric.BlockCounter])
	assert.Equal(t, "768", m[metric.FrameCounter])
	assert.Equal(t, "3", m[metric.CommandCounter])
}

func TestEngineSwitchSample(t *testing.T) {
	e, _ := newEngine(t, "engine-switch", engine.WithSamples(sample("a", 4096), sample("b", 4096), sample("c", 4096)))
	block := make([]signal.Frame, 16)
	tests := []struct {
		msg      control.Message
		expected int
	}{
		{msg: control.PrevSample{}, expected: 2},
		{msg: control.NextSample{}, expected: 0},
		{msg: control.NextSample{}, expected: 1},
		{msg: control.NextSample{TrackNum: 1}, expected: 1},
		{msg: control.NextSample{}, expected: 2},
	}
	for _, test := range tests {
		require.True(t, e.Offer(test.msg))
		e.Process(block)
		assert.Equal(t, test.expected, e.Sample(), "after %v", test.msg)
	}
}

func TestEngineIgnoresOtherTracks(t *testing.T) {
	e, gen := newEngine(t, "engine-tracks", engine.WithTrackNum(2), engine.WithSamples(sample("a", 4096)))
	block := make([]signal.Frame, 16)

	e.Offer(control.Slicer{TrackNum: 1, Transform: slicer.RandSwapTransform()})
	e.Offer(control.PlaybackMult{TrackNum: 1, Value: 4})
	e.Process(block)
	_, ok := gen.Seq().PendingTransform()
	assert.False(t, ok)
	assert.Equal(t, uint64(1), gen.PlaybackMult())

	e.Offer(control.Slicer{TrackNum: 2, Transform: slicer.RandSwapTransform()})
	e.Offer(control.PlaybackMult{TrackNum: 2, Value: 4})
	e.Offer(control.Volume{TrackNum: 2, Value: 0.5})
	e.Offer(control.Pan{TrackNum: 2, Value: -1})
	e.Process(block)
	tr, ok := gen.Seq().PendingTransform()
	require.True(t, ok)
	assert.Equal(t, slicer.RandSwap, tr.Kind)
	assert.Equal(t, uint64(4), gen.PlaybackMult())
}

func TestEngineLoadCommand(t *testing.T) {
	e, gen := newEngine(t, "engine-load")
	block := make([]signal.Frame, 16)

	e.Offer(control.Load{Buffer: smartbuf.NewEmpty()})
	e.Offer(control.Load{})
	e.Process(block)
	assert.False(t, gen.Seq().Loaded())

	e.Offer(control.Load{Buffer: sample("x", 2048)})
	e.Process(block)
	require.True(t, gen.Seq().Loaded())
	assert.Equal(t, "x", gen.Seq().Local().Name)
}

func TestEngineDropsWhenFull(t *testing.T) {
	e, _ := newEngine(t, "engine-full", engine.WithCapacity(1))
	assert.True(t, e.Offer(control.Sync{Tempo: 120, Tick: 1}))
	assert.False(t, e.Offer(control.Sync{Tempo: 120, Tick: 2}))
	// commands have their own channel
	assert.True(t, e.Offer(control.LoopDiv{Value: 2}))
	assert.False(t, e.Offer(control.LoopDiv{Value: 4}))
	assert.Equal(t, "2", metric.Get("engine-full")[metric.DroppedCounter])

	e.Process(make([]signal.Frame, 8))
	assert.True(t, e.Offer(control.Sync{Tempo: 120, Tick: 3}))
}

func TestEngineLoadError(t *testing.T) {
	gen, err := generator.New(generator.Slicer)
	require.NoError(t, err)
	_, err = engine.New(gen, engine.WithName("engine-error"), engine.WithSamples(smartbuf.NewEmpty()))
	assert.Error(t, err)
}
