package slicer

import "fmt"

// TransformKind identifies how a transform reorders the playing slices.
type TransformKind int

const (
	// Reset restores the original slice order.
	Reset TransformKind = iota
	// RandSwap shuffles the slices between the existing slots.
	RandSwap
	// QuantRepeat repeats a single slice every quant frames.
	QuantRepeat
)

func (k TransformKind) String() string {
	switch k {
	case Reset:
		return "reset"
	case RandSwap:
		return "rand_swap"
	case QuantRepeat:
		return "quant_repeat"
	}
	return fmt.Sprintf("transform(%d)", int(k))
}

// Transform describes a reordering of the playing slices.
// Quant and SliceIndex are only used by QuantRepeat: Quant is the repeat
// length in frames and SliceIndex the key of the repeated slice.
type Transform struct {
	Kind       TransformKind
	Quant      int
	SliceIndex int
}

// ResetTransform returns a Reset transform.
func ResetTransform() Transform {
	return Transform{Kind: Reset}
}

// RandSwapTransform returns a RandSwap transform.
func RandSwapTransform() Transform {
	return Transform{Kind: RandSwap}
}

// QuantRepeatTransform returns a QuantRepeat transform.
func QuantRepeatTransform(quant, sliceIndex int) Transform {
	return Transform{Kind: QuantRepeat, Quant: quant, SliceIndex: sliceIndex}
}

func (t Transform) String() string {
	if t.Kind == QuantRepeat {
		return fmt.Sprintf("%v(quant=%d, slice=%d)", t.Kind, t.Quant, t.SliceIndex)
	}
	return t.Kind.String()
}
