package generator

import (
	"github.com/discordance/phrase-sampler/control"
	"github.com/discordance/phrase-sampler/signal"
	"github.com/discordance/phrase-sampler/smartbuf"
)

// PvocGen is the phase vocoder placeholder: it loops frames unchanged.
type PvocGen struct {
	transport
}

func newPvocGen() *PvocGen {
	g := &PvocGen{}
	g.transport = newTransport(Pvoc, g.reset)
	return g
}

// FillBlock writes frames straight from the buffer.
func (g *PvocGen) FillBlock(out []signal.Frame) {
	if !g.playing || g.buf.Len() == 0 {
		signal.Silence(out)
		return
	}
	for i := range out {
		out[i] = g.buf.Frames[g.frameIndex%g.buf.Len()]
		g.frameIndex++
	}
}

// Load copies the buffer and rewinds.
func (g *PvocGen) Load(b *smartbuf.Buffer) error {
	if b.Len() == 0 {
		return smartbuf.ErrEmpty
	}
	g.buf.CopyFrom(b)
	g.reset()
	return nil
}

// Sync is ignored until time stretching is implemented.
func (g *PvocGen) Sync(float64, uint64) {}

// HandleControl ignores all messages.
func (g *PvocGen) HandleControl(control.Message) {}

func (g *PvocGen) reset() {
	g.frameIndex = 0
}
