// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package oodle

// parameters is one of the three 12-byte parameter blocks parsed from the
// head of a compressed stream; it parameterizes one phase's dictionary.
//
// Layout (little-endian), per spec §3:
//
//	top:    decodedValueMax = top>>23 ; backrefValueMax = top & 0x7fffff
//	bottom: decodedCount = bottom>>23 ; 10 bits padding ; highbitCount = bottom & 0x1fff
//	sizesCount: 4 raw bytes
//
// The field widths are irregular (23/9 and 23/10/13 bit splits) and spelled
// out explicitly by the format, so the masks below are applied directly
// rather than through a general bit-field reader; see DESIGN.md for why this
// one packed record is handled with plain shifts instead of
// github.com/dsnet/golib/bits.
type parameters struct {
	decodedValueMax int
	backrefValueMax int
	decodedCount    int
	highbitCount    int
	sizesCount      [4]byte

	padding uint32 // bits 13-22 of bottom, unused by decoding; kept for pack
}

// parseParameters reads one 12-byte parameters record from the head of buf,
// returning it and the remaining bytes.
func parseParameters(buf []byte) (parameters, []byte) {
	top := leUint32(buf[0:4])
	bottom := leUint32(buf[4:8])

	var p parameters
	p.decodedValueMax = int(top >> 23)
	p.backrefValueMax = int(top & 0x7fffff)
	p.decodedCount = int(bottom >> 23)
	p.highbitCount = int(bottom & 0x1fff)
	p.padding = bottom & 0x007fe000
	copy(p.sizesCount[:], buf[8:12])

	return p, buf[12:]
}

// pack re-encodes p into its 12-byte on-disk form, used only to verify the
// round-trip property from spec §8 ("given a packed 12-byte block, re-packing
// the parsed fields with the same masks yields the original bytes"). The 10
// padding bits of bottom are written back as parseParameters found them.
func (p parameters) pack() [12]byte {
	var out [12]byte
	top := uint32(p.decodedValueMax)<<23 | uint32(p.backrefValueMax)&0x7fffff
	bottom := uint32(p.decodedCount)<<23 | p.padding&0x007fe000 | uint32(p.highbitCount)&0x1fff
	putLeUint32(out[0:4], top)
	putLeUint32(out[4:8], bottom)
	copy(out[8:12], p.sizesCount[:])
	return out
}

func leUint32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

func putLeUint32(b []byte, v uint32) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
}

// dictionary holds every weightWindow used to decode one phase: low/high
// bits of the back-reference offset, a vector of mid-bit windows indexed by
// the high-bit value, a small set of literal windows (only index 0 is ever
// consulted — spec §9, "unused literal windows" — the remaining three are
// kept allocated to preserve the memory layout), and a set of 65 size
// windows indexed by the previous backref size.
type dictionary struct {
	decodedValueMax int
	backrefValueMax int
	lowbitValueMax  int
	midbitValueMax  int
	highbitValueMax int

	lowbitWindow  *weightWindow
	highbitWindow *weightWindow
	midbitWindow  []*weightWindow
	decodedWindow [4]*weightWindow
	sizeWindow    [4*16 + 1]*weightWindow

	decodedSize int
	backrefSize int
}

// newDictionary derives a fresh dictionary from one phase's parameters. A
// dictionary is live only during its own phase; reuse across phases is
// forbidden (spec §5).
func newDictionary(p parameters) *dictionary {
	d := &dictionary{
		decodedValueMax: p.decodedValueMax,
		backrefValueMax: p.backrefValueMax,
	}
	d.lowbitValueMax = min32i(d.backrefValueMax+1, 4)
	d.midbitValueMax = min32i(d.backrefValueMax/4+1, 256)
	d.highbitValueMax = d.backrefValueMax/1024 + 1

	d.lowbitWindow = newWeightWindow(d.lowbitValueMax, d.lowbitValueMax)
	d.highbitWindow = newWeightWindow(d.highbitValueMax, int(p.highbitCount))

	d.midbitWindow = make([]*weightWindow, d.highbitValueMax)
	for i := range d.midbitWindow {
		d.midbitWindow[i] = newWeightWindow(d.midbitValueMax, d.midbitValueMax)
	}

	d.decodedWindow[0] = newWeightWindow(d.decodedValueMax, int(p.decodedCount))
	for i := 1; i < 4; i++ {
		d.decodedWindow[i] = newWeightWindow(d.decodedValueMax, int(p.decodedCount))
	}

	// The 65 size windows (index 0 = "no previous backref", indices 1..64 =
	// previous backref_size value) are grouped into 4 buckets of 16 by
	// sizesCount's 4 bytes, indexed in reverse (original_source
	// src/granny2/compression/oodle/dictionary.rs: sizes_count[3 - i]); the
	// highest bucket absorbs the one extra (65th) entry.
	for i := range d.sizeWindow {
		group := min32i(i/16, 3)
		count := int(p.sizesCount[3-group])
		d.sizeWindow[i] = newWeightWindow(64, count)
	}

	return d
}

func min32i(a, b int) int {
	if a < b {
		return a
	}
	return b
}
