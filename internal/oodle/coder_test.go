// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package oodle

import "testing"

// TestCoderIdentity is the "arithmetic coder identity" scenario from spec
// §8: an all-zero stream must decode to 0 for any max, since numerator stays
// at 0 through every renormalization and commit.
func TestCoderIdentity(t *testing.T) {
	stream := make([]byte, 64)

	var c coder
	c.init(stream)
	if c.numerator != 0 {
		t.Fatalf("numerator after init = %#x, want 0", c.numerator)
	}

	for _, max := range []uint32{1, 2, 65, 256, 0x4000} {
		if got := c.decodeCommit(max); got != 0 {
			t.Errorf("decodeCommit(%#x) = %d, want 0", max, got)
		}
	}
}

// TestCoderRenormalization exercises the byte-wise renormalization loop
// directly: denominator must stay above the 0x800000 threshold after every
// decode, and must never exceed it by more than a single byte shift.
func TestCoderRenormalization(t *testing.T) {
	stream := make([]byte, 256)
	for i := range stream {
		stream[i] = byte(i * 37)
	}

	var c coder
	c.init(stream)
	for i := 0; i < 100; i++ {
		v := c.decode(0x4000)
		if c.denominator <= 0x800000 {
			t.Fatalf("iteration %d: denominator = %#x, want > 0x800000", i, c.denominator)
		}
		if c.denominator > 0x800000<<8 {
			t.Fatalf("iteration %d: denominator = %#x, want <= %#x", i, c.denominator, 0x800000<<8)
		}
		c.commit(0x4000, v, 1)
	}
}

func TestStreamByte(t *testing.T) {
	stream := []byte{0xAA, 0xBB}
	vectors := []struct {
		i    int
		want byte
	}{
		{0, 0xAA},
		{1, 0xBB},
		{2, 0},
		{100, 0},
	}
	for _, v := range vectors {
		if got := streamByte(stream, v.i); got != v.want {
			t.Errorf("streamByte(stream, %d) = %#x, want %#x", v.i, got, v.want)
		}
	}
}
