package slicer

import (
	"fmt"
	"math/rand"
	"sort"
)

const defaultCapacity = 128

// SliceMap keeps slices by key together with the ascending order of keys.
// Keys are slice start offsets in the original buffer. Memory is allocated
// once and reused by Clear and CopyFrom.
type SliceMap struct {
	slices map[int]Slice
	keys   []int
	// mangled is scratch space to permute keys.
	mangled []int
}

// NewSliceMap allocates an empty map.
func NewSliceMap() *SliceMap {
	return &SliceMap{
		slices:  make(map[int]Slice, defaultCapacity),
		keys:    make([]int, 0, defaultCapacity),
		mangled: make([]int, 0, defaultCapacity),
	}
}

// Len returns number of slices.
func (m *SliceMap) Len() int {
	return len(m.keys)
}

// Get returns the slice stored at key.
func (m *SliceMap) Get(key int) (Slice, bool) {
	s, ok := m.slices[key]
	return s, ok
}

// Keys returns the keys in ascending order. The slice is owned by the map.
func (m *SliceMap) Keys() []int {
	return m.keys
}

// Insert sets the slice at key, adding the key to the order if it's new.
func (m *SliceMap) Insert(key int, s Slice) {
	if _, ok := m.slices[key]; !ok {
		m.keys = append(m.keys, key)
		sort.Ints(m.keys)
	}
	m.slices[key] = s
	m.check()
}

// Clear removes all slices and keeps allocated memory.
func (m *SliceMap) Clear() {
	for k := range m.slices {
		delete(m.slices, k)
	}
	m.keys = m.keys[:0]
	m.check()
}

// CopyFrom replaces the content of m with the content of other.
func (m *SliceMap) CopyFrom(other *SliceMap) {
	m.Clear()
	for k, s := range other.slices {
		m.slices[k] = s
	}
	m.keys = append(m.keys, other.keys...)
	m.check()
}

// SameKeys returns true when both maps hold the same keys.
func (m *SliceMap) SameKeys(other *SliceMap) bool {
	if len(m.keys) != len(other.keys) {
		return false
	}
	for i := range m.keys {
		if m.keys[i] != other.keys[i] {
			return false
		}
	}
	return true
}

// Floor returns the greatest key lower or equal to pos. If pos is before
// the first key, the last key is returned.
func (m *SliceMap) Floor(pos int) int {
	if len(m.keys) == 0 {
		panic("slicer: floor on empty slice map")
	}
	for i := len(m.keys) - 1; i >= 0; i-- {
		if m.keys[i] <= pos {
			return m.keys[i]
		}
	}
	return m.keys[len(m.keys)-1]
}

// RandSwap keeps the keys but assigns to every key the slice stored in
// reference under a randomly permuted key.
func (m *SliceMap) RandSwap(reference *SliceMap, rng *rand.Rand) {
	m.mangled = append(m.mangled[:0], m.keys...)
	rng.Shuffle(len(m.mangled), func(i, j int) {
		m.mangled[i], m.mangled[j] = m.mangled[j], m.mangled[i]
	})
	for i, k := range m.mangled {
		s, ok := reference.Get(k)
		if !ok {
			panic(fmt.Sprintf("slicer: key %d missing in reference map", k))
		}
		m.slices[m.keys[i]] = s
	}
	m.check()
}

// QuantRepeat replaces all slices with copies of the slice at key, placed
// every quant frames below max. Copies are numbered from zero.
func (m *SliceMap) QuantRepeat(quant, key, max int) {
	if quant <= 0 {
		panic(fmt.Sprintf("slicer: invalid quant %d", quant))
	}
	s, ok := m.Get(key)
	if !ok {
		panic(fmt.Sprintf("slicer: repeat key %d not found", key))
	}
	m.Clear()
	s.Cursor = 0
	id := 0
	for k := 0; k < max; k += quant {
		s.ID = id
		m.slices[k] = s
		m.keys = append(m.keys, k)
		id++
	}
	m.check()
}

// check panics if keys and slices went out of sync or keys are not
// strictly ascending.
func (m *SliceMap) check() {
	if len(m.slices) != len(m.keys) {
		panic(fmt.Sprintf("slicer: %d slices for %d keys", len(m.slices), len(m.keys)))
	}
	for i, k := range m.keys {
		if _, ok := m.slices[k]; !ok {
			panic(fmt.Sprintf("slicer: key %d has no slice", k))
		}
		if i > 0 && m.keys[i-1] >= k {
			panic(fmt.Sprintf("slicer: keys out of order at %d: %d >= %d", i, m.keys[i-1], k))
		}
	}
}
