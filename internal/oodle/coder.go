// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package oodle

// coder is the arithmetic-coder state: a 32-bit numerator/denominator pair
// with byte-wise renormalization. It produces uniform integers in [0, max)
// on request (decode) and commits the chosen subinterval (commit).
//
// The renormalization shifts in a 9-bit window straddling a byte boundary;
// the exact bit mixing in decode is part of the bitstream contract and must
// be reproduced verbatim (spec §4.1).
type coder struct {
	numerator   uint32
	denominator uint32
	nextDenom   uint32 // scratch set by decode, consumed by commit
	stream      []byte // remaining compressed bytes, advances as consumed
}

// init seeds the coder from the first byte of stream without consuming it;
// the first renormalization inside decode consumes it. An off-by-one here
// desynchronizes every subsequent draw (spec §9, "numerator bootstrap").
func (c *coder) init(stream []byte) {
	c.stream = stream
	c.numerator = uint32(stream[0]) >> 1
	c.denominator = 0x80
}

// decode returns a uniform value in [0, max) without committing to it; the
// caller must follow with commit (or use decodeCommit).
func (c *coder) decode(max uint32) uint32 {
	for c.denominator <= 0x800000 {
		b0, b1 := streamByte(c.stream, 0), streamByte(c.stream, 1)
		c.numerator = c.numerator<<8 | uint32((b0<<7)&0x80|(b1>>1)&0x7f)
		if len(c.stream) > 0 {
			c.stream = c.stream[1:]
		}
		c.denominator <<= 8
	}
	c.nextDenom = c.denominator / max
	val := c.numerator / c.nextDenom
	if val >= max {
		val = max - 1
	}
	return val
}

// streamByte returns stream[i], or 0 if the index runs past the end. Callers
// pad the compressed buffer with trailing zero bytes (spec §9), so this only
// matters right at the very end of a malformed/truncated stream.
func streamByte(stream []byte, i int) byte {
	if i >= len(stream) {
		return 0
	}
	return stream[i]
}

// commit applies the subinterval [val, val+err) out of max, consuming it
// from the coder's denominator.
func (c *coder) commit(max, val, errWidth uint32) {
	c.numerator -= c.nextDenom * val
	if val+errWidth < max {
		c.denominator = c.nextDenom * errWidth
	} else {
		c.denominator -= c.nextDenom * val
	}
}

// decodeCommit draws a value in [0, max) and immediately commits a
// unit-width subinterval around it (err = 1), the common case used for
// drawing plain uniform integers (bit flags, fresh literal fills, etc.).
func (c *coder) decodeCommit(max uint32) uint32 {
	v := c.decode(max)
	c.commit(max, v, 1)
	return v
}
