package generator

import (
	"github.com/discordance/phrase-sampler/control"
	"github.com/discordance/phrase-sampler/signal"
	"github.com/discordance/phrase-sampler/smartbuf"
)

// RepitchGen loops the buffer resampled with linear interpolation, so the
// pitch follows the tempo.
type RepitchGen struct {
	transport
	rate float64
	// x is the interpolation position between left and right.
	x           float64
	left, right signal.Frame
}

func newRepitchGen() *RepitchGen {
	g := &RepitchGen{rate: 1}
	g.transport = newTransport(Repitch, g.reset)
	g.reset()
	return g
}

// FillBlock writes interpolated frames.
func (g *RepitchGen) FillBlock(out []signal.Frame) {
	if !g.playing || g.buf.Len() == 0 {
		signal.Silence(out)
		return
	}
	for i := range out {
		for g.x >= 1 {
			g.left, g.right = g.right, g.nextSourceFrame()
			g.x--
		}
		out[i] = g.left.Lerp(g.right, g.x)
		g.x += g.rate
	}
}

func (g *RepitchGen) nextSourceFrame() signal.Frame {
	f := g.buf.Frames[g.frameIndex%g.buf.Len()]
	g.frameIndex++
	return f
}

// Load copies the buffer and rewinds.
func (g *RepitchGen) Load(b *smartbuf.Buffer) error {
	if b.Len() == 0 {
		return smartbuf.ErrEmpty
	}
	g.buf.CopyFrom(b)
	g.reset()
	return nil
}

// Sync updates the resampling rate.
func (g *RepitchGen) Sync(tempo float64, tick uint64) {
	if g.buf.OriginalTempo > 0 {
		g.rate = tempo / g.buf.OriginalTempo
	}
}

// HandleControl ignores all messages.
func (g *RepitchGen) HandleControl(control.Message) {}

func (g *RepitchGen) reset() {
	g.frameIndex = 0
	g.x = 1
	g.left, g.right = signal.Equilibrium, signal.Equilibrium
}
