// Package signal provides the stereo frame type used across smplr and the
// conversions needed to move it in and out of files and devices. It allows to:
// 	- scale and mix stereo frames
//	- convert interleaved int data to frames and back
//	- convert bit depth for int signals
package signal

import (
	"math"
	"time"
)

// Frame is a single stereo sample: left and right channels.
type Frame [2]float32

// Equilibrium is the silent frame.
var Equilibrium = Frame{}

// Scale multiplies both channels by the amplitude factor.
func (f Frame) Scale(amp float32) Frame {
	return Frame{f[0] * amp, f[1] * amp}
}

// Lerp linearly interpolates between f and next, x in [0, 1].
func (f Frame) Lerp(next Frame, x float64) Frame {
	return Frame{
		f[0] + float32(float64(next[0]-f[0])*x),
		f[1] + float32(float64(next[1]-f[1])*x),
	}
}

// Silence overwrites every frame of the block with equilibrium.
func Silence(block []Frame) {
	for i := range block {
		block[i] = Equilibrium
	}
}

const (
	// BitDepth8 is 8 bit depth.
	BitDepth8 = BitDepth(8)
	// BitDepth16 is 16 bit depth.
	BitDepth16 = BitDepth(16)
	// BitDepth24 is 24 bit depth.
	BitDepth24 = BitDepth(24)
	// BitDepth32 is 32 bit depth.
	BitDepth32 = BitDepth(32)
)

// BitDepth contains values required for int-to-float and backward conversion.
type BitDepth int

// InterInt is an interleaved int signal.
type InterInt struct {
	Data        []int
	NumChannels int
	BitDepth
}

// devider is used when int to float conversion is done.
func (bitDepth BitDepth) devider() int {
	switch bitDepth {
	case BitDepth8:
		return math.MaxInt8
	case BitDepth16:
		return math.MaxInt16
	case BitDepth24:
		return 1<<23 - 1
	case BitDepth32:
		return math.MaxInt32
	default:
		return 1
	}
}

// multiplier is used when float to int conversion is done.
func (bitDepth BitDepth) multiplier() int {
	switch bitDepth {
	case BitDepth8:
		return math.MaxInt8 - 1
	case BitDepth16:
		return math.MaxInt16 - 1
	case BitDepth24:
		return 1<<23 - 2
	case BitDepth32:
		return math.MaxInt32 - 1
	default:
		return 1
	}
}

// DurationOf returns time duration of passed samples for this sample rate.
func DurationOf(sampleRate int, samples int64) time.Duration {
	return time.Duration(float64(samples) / float64(sampleRate) * float64(time.Second))
}

// AsFrames converts interleaved int signal to stereo frames. Mono input is
// duplicated on both channels, channels past the second are dropped.
func (ints InterInt) AsFrames() []Frame {
	if ints.Data == nil || ints.NumChannels == 0 {
		return nil
	}
	size := int(math.Ceil(float64(len(ints.Data)) / float64(ints.NumChannels)))
	frames := make([]Frame, size)

	// determine the devider for bit depth conversion
	devider := float32(ints.BitDepth.devider())

	for i := range frames {
		pos := i * ints.NumChannels
		l := float32(ints.Data[pos]) / devider
		r := l
		if ints.NumChannels > 1 && pos+1 < len(ints.Data) {
			r = float32(ints.Data[pos+1]) / devider
		}
		frames[i] = Frame{l, r}
	}
	return frames
}

// AsInterInt converts stereo frames to interleaved int data, reusing the
// capacity of dst.
func AsInterInt(frames []Frame, bitDepth BitDepth, dst []int) []int {
	multiplier := float32(bitDepth.multiplier())
	if cap(dst) < 2*len(frames) {
		dst = make([]int, 2*len(frames))
	}
	dst = dst[:2*len(frames)]
	for i, f := range frames {
		dst[2*i] = int(clip(f[0]) * multiplier)
		dst[2*i+1] = int(clip(f[1]) * multiplier)
	}
	return dst
}

// Interleave writes frames as interleaved float32 samples into dst and
// returns the number of frames written.
func Interleave(frames []Frame, dst []float32) int {
	n := len(dst) / 2
	if len(frames) < n {
		n = len(frames)
	}
	for i := 0; i < n; i++ {
		dst[2*i] = frames[i][0]
		dst[2*i+1] = frames[i][1]
	}
	return n
}

func clip(v float32) float32 {
	switch {
	case v > 1:
		return 1
	case v < -1:
		return -1
	}
	return v
}
