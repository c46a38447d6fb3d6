// Package envelope computes amplitude multipliers used to avoid clicks when
// grains start, end or get interrupted.
package envelope

import "github.com/discordance/phrase-sampler/signal"

// FadeIn returns the rising ramp multiplier at pos over length samples.
// It is 1 once pos reaches length.
func FadeIn(pos, length int64) float32 {
	if length <= 0 || pos >= length {
		return 1
	}
	if pos <= 0 {
		return 0
	}
	return float32(pos) / float32(length)
}

// FadeOut returns the falling ramp multiplier at pos for the last length
// samples of a total long segment. It reaches 0 at total and stays there.
func FadeOut(pos, length, total int64) float32 {
	if length <= 0 {
		return 1
	}
	start := total - length
	if pos <= start {
		return 1
	}
	if pos >= total {
		return 0
	}
	return float32(total-pos) / float32(length)
}

// MicroFadeOut is a short linear fade to silence.
// Zero value is inactive and passes frames through.
type MicroFadeOut struct {
	length int64
	pos    int64
}

// Start arms the fade over length samples.
func (m *MicroFadeOut) Start(length int64) {
	m.length = length
	m.pos = 0
}

// Active returns true when the fade has been started.
func (m *MicroFadeOut) Active() bool {
	return m.length > 0
}

// Done returns true when the fade reached silence.
func (m *MicroFadeOut) Done() bool {
	return m.Active() && m.pos >= m.length
}

// Stop disarms the fade.
func (m *MicroFadeOut) Stop() {
	m.length = 0
	m.pos = 0
}

// Next advances the fade by one sample and returns true if it is done.
func (m *MicroFadeOut) Next() bool {
	if m.pos < m.length {
		m.pos++
	}
	return m.Done()
}

// Apply scales the frame with the current fade value.
func (m *MicroFadeOut) Apply(f signal.Frame) signal.Frame {
	if !m.Active() {
		return f
	}
	return f.Scale(FadeOut(m.pos, m.length, m.length))
}
