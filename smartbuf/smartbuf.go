// Package smartbuf holds audio buffers prepared for slicing: stereo frames,
// the tempo they were recorded at and slice boundaries for every positions
// mode.
package smartbuf

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/discordance/phrase-sampler/signal"
)

// DefaultTempo is used when the file name carries no tempo metadata.
const DefaultTempo = 120.0

var (
	// ErrNoPositions is returned when a buffer has no positions for a mode.
	ErrNoPositions = errors.New("no positions for mode")
	// ErrUnknownMode is returned when a positions mode name can't be parsed.
	ErrUnknownMode = errors.New("unknown positions mode")
	// ErrEmpty is returned when slicing an empty buffer.
	ErrEmpty = errors.New("empty buffer")
)

// PositionsMode selects which boundary set is used to slice a buffer.
type PositionsMode int

const (
	// Bar4Mode slices a loop in 4 equal parts.
	Bar4Mode PositionsMode = iota
	// Bar8Mode slices a loop in 8 equal parts.
	Bar8Mode
	// Bar16Mode slices a loop in 16 equal parts.
	Bar16Mode
)

// Modes lists all supported positions modes.
var Modes = []PositionsMode{Bar4Mode, Bar8Mode, Bar16Mode}

// Divisions returns the number of slices the mode produces.
func (m PositionsMode) Divisions() int {
	switch m {
	case Bar4Mode:
		return 4
	case Bar8Mode:
		return 8
	case Bar16Mode:
		return 16
	}
	return 1
}

func (m PositionsMode) String() string {
	return fmt.Sprintf("bar%d", m.Divisions())
}

// ParseMode converts the mode name to PositionsMode.
func ParseMode(s string) (PositionsMode, error) {
	for _, m := range Modes {
		if strings.EqualFold(m.String(), s) {
			return m, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

// Buffer is the smart buffer: frames plus the metadata needed to slice them.
type Buffer struct {
	Name          string
	Frames        []signal.Frame
	OriginalTempo float64
	Positions     map[PositionsMode][]int
}

// New returns a buffer with positions computed for all modes.
func New(name string, frames []signal.Frame, originalTempo float64) *Buffer {
	b := &Buffer{
		Name:          name,
		Frames:        frames,
		OriginalTempo: originalTempo,
		Positions:     make(map[PositionsMode][]int, len(Modes)),
	}
	for _, m := range Modes {
		b.Positions[m] = Divide(len(frames), m.Divisions())
	}
	return b
}

// NewEmpty returns an empty buffer with default tempo.
func NewEmpty() *Buffer {
	return &Buffer{
		OriginalTempo: DefaultTempo,
		Positions:     make(map[PositionsMode][]int, len(Modes)),
	}
}

// Len returns number of frames.
func (b *Buffer) Len() int {
	if b == nil {
		return 0
	}
	return len(b.Frames)
}

// PositionsFor returns the onsets of the mode. The returned slice is the
// buffer's own data and must not be modified.
func (b *Buffer) PositionsFor(m PositionsMode) ([]int, error) {
	if b.Len() == 0 {
		return nil, ErrEmpty
	}
	p, ok := b.Positions[m]
	if !ok || len(p) == 0 {
		return nil, fmt.Errorf("%w %v", ErrNoPositions, m)
	}
	return p, nil
}

// Clone returns a deep copy of the buffer.
func (b *Buffer) Clone() *Buffer {
	c := &Buffer{
		Positions: make(map[PositionsMode][]int, len(b.Positions)),
	}
	c.CopyFrom(b)
	return c
}

// CopyFrom copies source into b reusing allocated capacity.
func (b *Buffer) CopyFrom(source *Buffer) {
	b.Name = source.Name
	b.OriginalTempo = source.OriginalTempo
	if cap(b.Frames) < len(source.Frames) {
		b.Frames = make([]signal.Frame, len(source.Frames))
	}
	b.Frames = b.Frames[:len(source.Frames)]
	copy(b.Frames, source.Frames)

	if b.Positions == nil {
		b.Positions = make(map[PositionsMode][]int, len(source.Positions))
	}
	for m := range b.Positions {
		if _, ok := source.Positions[m]; !ok {
			delete(b.Positions, m)
		}
	}
	for m, p := range source.Positions {
		dst := b.Positions[m]
		if cap(dst) < len(p) {
			dst = make([]int, len(p))
		}
		dst = dst[:len(p)]
		copy(dst, p)
		b.Positions[m] = dst
	}
}

// Divide returns first-zero ascending onsets splitting length frames into
// n equal parts. The closing boundary equals length.
func Divide(length, n int) []int {
	if length <= 0 {
		return nil
	}
	if n < 1 {
		n = 1
	}
	if n > length {
		n = length
	}
	positions := make([]int, 0, n+1)
	for i := 0; i < n; i++ {
		positions = append(positions, i*length/n)
	}
	return append(positions, length)
}

var (
	bpmPattern   = regexp.MustCompile(`(?i)[_\-. ](\d+(?:\.\d+)?)\s*bpm`)
	beatsPattern = regexp.MustCompile(`(?i)[_\-. ](\d+)\s*beats`)
)

// ParseTempo extracts the original tempo from the file name. It understands
// "<name>_<bpm>bpm" and "<name>_<beats>beats"; the latter derives the tempo
// from the duration of numFrames at sampleRate. The second return value is
// the number of beats in the loop, zero when unknown.
func ParseTempo(path string, numFrames int, sampleRate int) (float64, int) {
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if m := bpmPattern.FindStringSubmatch(name); m != nil {
		if bpm, err := strconv.ParseFloat(m[1], 64); err == nil && bpm > 0 {
			beats := 0
			if numFrames > 0 && sampleRate > 0 {
				beats = int(float64(numFrames)/float64(sampleRate)*bpm/60 + 0.5)
			}
			return bpm, beats
		}
	}
	if m := beatsPattern.FindStringSubmatch(name); m != nil {
		if beats, err := strconv.Atoi(m[1]); err == nil && beats > 0 && numFrames > 0 && sampleRate > 0 {
			seconds := float64(numFrames) / float64(sampleRate)
			return float64(beats) * 60 / seconds, beats
		}
	}
	return DefaultTempo, 0
}
