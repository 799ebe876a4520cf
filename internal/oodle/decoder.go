// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package oodle

// Decompress runs the Oodle0/Oodle1 decoder over compressed, producing
// exactly decompressedSize bytes. stop0 and stop1 mark the boundaries of the
// first two of the three decoding phases; the third phase runs to
// decompressedSize. Each phase parses its own 36-byte-total parameters
// record share (three 12-byte blocks read up front, one per phase) and
// builds a fresh dictionary — dictionaries are never reused across phases
// (spec §5).
func Decompress(compressed []byte, stop0, stop1, decompressedSize int) (out []byte, err error) {
	defer errRecover(&err)

	// Pad with 4 trailing zero bytes: renormalization dereferences stream[1]
	// past the last logical byte (spec §9).
	padded := make([]byte, len(compressed)+4)
	copy(padded, compressed)

	var p [3]parameters
	rest := padded
	for i := range p {
		p[i], rest = parseParameters(rest)
	}

	var c coder
	c.init(rest)

	buf := newBuffer(decompressedSize)
	stops := [3]int{stop0, stop1, decompressedSize}
	for phase := 0; phase < 3; phase++ {
		d := newDictionary(p[phase])
		for buf.position < stops[phase] {
			decompressBlock(&c, d, buf)
		}
	}
	return buf.data, nil
}

// decompressBlock decides literal vs. back-reference and emits exactly one
// of them, advancing buf. See spec §4.3.
func decompressBlock(c *coder, d *dictionary, buf *buffer) int {
	sizeWin := d.sizeWindow[d.backrefSize]
	d1 := sizeWin.tryDecompressBlock(c)
	sizeVal := d1.value
	if d1.fresh {
		sizeVal = uint16(c.decodeCommit(65))
		sizeWin.fill(d1.index, sizeVal)
	}
	d.backrefSize = int(sizeVal)

	if d.backrefSize > 0 {
		return decompressBackref(c, d, buf)
	}
	return decompressLiteral(c, d, buf)
}

func decompressBackref(c *coder, d *dictionary, buf *buffer) int {
	actualSize := d.backrefSize + 1
	if d.backrefSize >= 61 {
		actualSize = sizeClasses[d.backrefSize-61]
	}

	backrefRange := d.backrefValueMax
	if d.decodedSize < backrefRange {
		backrefRange = d.decodedSize
	}

	d3 := d.lowbitWindow.tryDecompressBlock(c)
	lowVal := d3.value
	if d3.fresh {
		lowVal = uint16(c.decodeCommit(uint32(d.lowbitValueMax)))
		d.lowbitWindow.fill(d3.index, lowVal)
	}

	d4 := d.highbitWindow.tryDecompressBlock(c)
	highVal := d4.value
	if d4.fresh {
		highVal = uint16(c.decodeCommit(uint32(backrefRange/1024 + 1)))
		d.highbitWindow.fill(d4.index, highVal)
	}

	midWin := d.midbitWindow[highVal]
	d5 := midWin.tryDecompressBlock(c)
	midVal := d5.value
	if d5.fresh {
		midMax := backrefRange/4 + 1
		if midMax > 256 {
			midMax = 256
		}
		midVal = uint16(c.decodeCommit(uint32(midMax)))
		midWin.fill(d5.index, midVal)
	}

	backrefOffset := int(highVal)<<10 + int(midVal)<<2 + int(lowVal) + 1

	d.decodedSize += actualSize
	buf.backref(actualSize, backrefOffset)
	buf.advance(actualSize)
	return actualSize
}

func decompressLiteral(c *coder, d *dictionary, buf *buffer) int {
	win := d.decodedWindow[0]
	d2 := win.tryDecompressBlock(c)
	val := d2.value
	if d2.fresh {
		// Literal symbols are modeled in the upper 8 bits of a 16-bit value
		// (decodedValueMax bounds the drawn byte itself, 0..255); the shift
		// is applied once here at fill time, not at every read (spec §9,
		// "literal byte extraction").
		b := uint16(c.decodeCommit(uint32(d.decodedValueMax)))
		val = b << 8
		win.fill(d2.index, val)
	}

	buf.push(byte(val >> 8))
	buf.advance(1)

	d.decodedSize++
	return 1
}
