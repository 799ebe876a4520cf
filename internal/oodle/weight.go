// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package oodle

// weightWindow is an adaptive frequency model: a vector of symbol values and
// their weights, a parallel vector of cumulative ranges over coderDomain, and
// the thresholds that drive periodic rebuilds.
//
// values[0]/weights[0] form the escape slot: landing on range 0 means either
// a repeat of a symbol appended since the last rebuildRanges (not yet given
// its own bucket) or a genuinely new symbol. rebuildWeights never removes
// this slot, only recycles its weight to zero and back to one once free
// slots reopen (spec §9) — this is load-bearing for decoder resynchronization
// and must never be "cleaned up" like a normal entry.
type weightWindow struct {
	countCap int
	values   []uint16
	weights  []uint16
	ranges   []uint16
	weightTotal uint32

	thresholdIncrease     uint32
	thresholdIncreaseCap  uint32
	thresholdRangeRebuild uint32
	thresholdWeightRebuild uint32
}

// result is the outcome of tryDecompressBlock: either an existing symbol
// value (reused, no allocation needed) or the index of a freshly allocated
// slot that the caller must fill in with a newly decoded value.
//
// This models the sentinel-index convention from spec §9 as a tagged union
// rather than an in-band magic integer.
type result struct {
	fresh bool
	index int
	value uint16
}

func clampU32(v, lo, hi uint32) uint32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// newWeightWindow constructs a weightWindow parameterized by maxValue (the
// largest symbol value this window will ever need to represent) and
// countCap (the symbol-count ceiling, supplied + 1).
func newWeightWindow(maxValue, countCap int) *weightWindow {
	w := &weightWindow{
		countCap: countCap + 1,
		values:   []uint16{0},
		weights:  []uint16{4},
		ranges:   []uint16{0, coderDomain},
		weightTotal: 4,
		thresholdIncrease:     4,
		thresholdRangeRebuild: 8,
	}
	w.thresholdWeightRebuild = clampU32(32*uint32(maxValue), 256, 15160)
	if maxValue > 64 {
		w.thresholdIncreaseCap = min32(2*uint32(maxValue), w.thresholdWeightRebuild/2-32)
	} else {
		w.thresholdIncreaseCap = 128
	}
	return w
}

func min32(a, b uint32) uint32 {
	if a < b {
		return a
	}
	return b
}

// rebuildRanges rebuilds the cumulative ranges table from the current
// weights, per spec §4.2.
func (w *weightWindow) rebuildRanges() {
	if len(w.ranges) > len(w.weights)+1 {
		w.ranges = w.ranges[:len(w.weights)+1]
	}
	for len(w.ranges) < len(w.weights)+1 {
		w.ranges = append(w.ranges, 0)
	}

	rangeWeight := (8 * coderDomain) / w.weightTotal
	var cum uint32
	for i, wt := range w.weights {
		w.ranges[i] = uint16(cum)
		cum += (uint32(wt) * rangeWeight) / 8
	}
	w.ranges[len(w.weights)] = coderDomain

	if w.thresholdIncrease > w.thresholdIncreaseCap/2 {
		w.thresholdRangeRebuild = w.weightTotal + w.thresholdIncreaseCap
	} else {
		w.thresholdIncrease *= 2
		w.thresholdRangeRebuild = w.weightTotal + w.thresholdIncrease
	}
}

// rebuildWeights halves every weight, compacts zero-weight entries (other
// than the escape slot), moves the largest remaining weight to the end with
// a rightmost-wins tiebreak, and reopens the escape slot if room exists.
// Reversing the tiebreak changes decoded output (spec §9).
func (w *weightWindow) rebuildWeights() {
	w.weightTotal = 0
	for i := range w.weights {
		w.weights[i] /= 2
		w.weightTotal += uint32(w.weights[i])
	}

	// Compact zero-weight entries, preserving index 0 (the escape slot)
	// unconditionally.
	i := 1
	for i < len(w.weights) {
		if w.weights[i] == 0 {
			last := len(w.weights) - 1
			w.weights[i] = w.weights[last]
			w.values[i] = w.values[last]
			w.weights = w.weights[:last]
			w.values = w.values[:last]
			continue
		}
		i++
	}

	if len(w.weights) > 1 {
		var maxW uint16
		maxIdx := 1
		for i := 1; i < len(w.weights); i++ {
			if w.weights[i] >= maxW {
				maxW = w.weights[i]
				maxIdx = i
			}
		}
		last := len(w.weights) - 1
		w.weights[maxIdx], w.weights[last] = w.weights[last], w.weights[maxIdx]
		w.values[maxIdx], w.values[last] = w.values[last], w.values[maxIdx]
	}

	if len(w.weights) < w.countCap && w.weights[0] == 0 {
		w.weights[0] = 1
		w.weightTotal++
	}
}

// tryDecompressBlock draws one symbol through c, updating the model. See
// spec §4.2 for the full dispatch.
func (w *weightWindow) tryDecompressBlock(c *coder) result {
	if w.weightTotal >= w.thresholdRangeRebuild {
		if w.thresholdRangeRebuild >= w.thresholdWeightRebuild {
			w.rebuildWeights()
		}
		w.rebuildRanges()
	}
	if len(w.ranges) < 2 {
		panic(ErrCorrupt)
	}

	v := c.decode(coderDomain)

	rng := 0
	for rng+1 < len(w.ranges) && uint32(w.ranges[rng+1]) <= v {
		rng++
	}
	if rng+1 >= len(w.ranges) || v < uint32(w.ranges[rng]) || v >= uint32(w.ranges[rng+1]) {
		panic(ErrCorrupt)
	}
	c.commit(coderDomain, uint32(w.ranges[rng]), uint32(w.ranges[rng+1])-uint32(w.ranges[rng]))

	w.weights[rng]++
	w.weightTotal++

	// rng != 0 lands on an already-ranged, previously-established symbol:
	// its bucket was carved out by an earlier rebuildRanges, so there is
	// nothing left to disambiguate.
	if rng != 0 {
		return result{value: w.values[rng]}
	}

	// rng == 0 is the escape bucket. It carries two possible meanings,
	// because a freshly appended symbol (below) has no range bucket of its
	// own until the next rebuildRanges: it may be a repeat of one of those
	// still-unranged symbols, or a genuinely new symbol never seen before.
	// A window that has only ever seen escape hits (ranges is still the
	// single-bucket [0, coderDomain] it started with) always lands here
	// first — that first hit is necessarily the fresh-symbol path, since
	// there is nothing yet to repeat.
	if len(w.weights) >= len(w.ranges) && c.decodeCommit(2) == 1 {
		l := len(w.weights) - len(w.ranges) + 1
		j := c.decodeCommit(uint32(l))
		index := len(w.ranges) + int(j) - 1
		w.weights[index] += 2
		w.weightTotal += 2
		return result{value: w.values[index]}
	}

	w.values = append(w.values, 0)
	w.weights = append(w.weights, 2)
	w.weightTotal += 2
	if len(w.weights) == w.countCap {
		w.weightTotal -= uint32(w.weights[0])
		w.weights[0] = 0
	}
	return result{fresh: true, index: len(w.values) - 1}
}

// fill writes a freshly decoded symbol value into the slot most recently
// allocated by tryDecompressBlock.
func (w *weightWindow) fill(index int, value uint16) {
	w.values[index] = value
}
