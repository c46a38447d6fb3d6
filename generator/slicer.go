package generator

import (
	"github.com/discordance/phrase-sampler/control"
	"github.com/discordance/phrase-sampler/signal"
	"github.com/discordance/phrase-sampler/slicer"
	"github.com/discordance/phrase-sampler/smartbuf"
)

// SlicerGen plays the buffer through the slice sequencer. The transport
// buffer is the candidate the sequencer swaps to.
type SlicerGen struct {
	transport
	seq *slicer.Seq
}

func newSlicerGen(o options) *SlicerGen {
	seqOpts := []slicer.Option{slicer.WithMode(o.mode)}
	if o.seeded {
		seqOpts = append(seqOpts, slicer.WithSeed(o.seed))
	}
	if o.sampleRate > 0 {
		seqOpts = append(seqOpts, slicer.WithSampleRate(o.sampleRate))
	}
	if o.ppqn > 0 {
		seqOpts = append(seqOpts, slicer.WithPPQN(o.ppqn))
	}
	g := &SlicerGen{
		seq: slicer.NewSeq(seqOpts...),
	}
	g.transport = newTransport(Slicer, g.reset)
	return g
}

// Seq exposes the sequencer for inspection.
func (g *SlicerGen) Seq() *slicer.Seq {
	return g.seq
}

// FillBlock pulls every frame from the sequencer.
func (g *SlicerGen) FillBlock(out []signal.Frame) {
	if !g.playing {
		signal.Silence(out)
		return
	}
	for i := range out {
		out[i] = g.seq.NextFrame(g.buf)
	}
}

// Load requests the buffer swap and updates the candidate copy.
func (g *SlicerGen) Load(b *smartbuf.Buffer) error {
	if err := g.seq.RequestLoad(b); err != nil {
		return err
	}
	g.buf.CopyFrom(b)
	return nil
}

// Sync forwards the tick once a buffer is loaded.
func (g *SlicerGen) Sync(tempo float64, tick uint64) {
	if g.seq.Loaded() {
		g.seq.Sync(tempo, tick)
	}
}

// HandleControl queues slicer transforms. A repeat captures the slice
// playing when the message arrives.
func (g *SlicerGen) HandleControl(m control.Message) {
	msg, ok := m.(control.Slicer)
	if !ok {
		return
	}
	t := msg.Transform
	switch t.Kind {
	case slicer.Reset, slicer.RandSwap:
	case slicer.QuantRepeat:
		if t.Quant <= 0 {
			return
		}
		key, ok := g.seq.CurrentKey()
		if !ok {
			return
		}
		t = slicer.QuantRepeatTransform(t.Quant, key)
	default:
		return
	}
	g.seq.QueueTransform(&t)
}

// reset is called on stop. Slicer position follows the clock, so there is
// nothing to rewind.
func (g *SlicerGen) reset() {}
