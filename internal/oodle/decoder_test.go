// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package oodle

import (
	"bytes"
	"testing"
)

// TestDecompressAllZeroLiterals drives the full three-phase Decompress loop
// with an all-zero coder stream. By the "arithmetic coder identity" property
// (spec §8), every draw against an all-zero stream resolves to 0: the
// size-window escape always takes the literal path (backrefSize == 0), and
// the decoded-window escape always fills with value 0. The entire phase runs
// with both earlier phases empty (stop0 == stop1 == 0), so every output byte
// must be 0x00.
func TestDecompressAllZeroLiterals(t *testing.T) {
	p := parameters{
		decodedValueMax: 256,
		backrefValueMax: 0,
		decodedCount:    1,
		highbitCount:    1,
		sizesCount:      [4]byte{1, 1, 1, 1},
	}
	packed := p.pack()

	var compressed []byte
	compressed = append(compressed, packed[:]...)
	compressed = append(compressed, packed[:]...)
	compressed = append(compressed, packed[:]...)
	compressed = append(compressed, make([]byte, 64)...) // all-zero coder stream

	out, err := Decompress(compressed, 0, 0, 3)
	if err != nil {
		t.Fatalf("Decompress: %v", err)
	}
	want := []byte{0x00, 0x00, 0x00}
	if !bytes.Equal(out, want) {
		t.Errorf("out = %x, want %x", out, want)
	}
}

// TestDecompressLiteralShift is the "minimal literal" scenario from spec §8,
// narrowed to a direct, hand-verified unit test of decompressLiteral's
// arithmetic: given a coder state crafted so that decode(256) resolves to
// 65 (0x41) on the fill draw, the emitted byte must be 0x41 (the high byte
// of the stored, pre-shifted 16-bit value — see DESIGN.md "literal value
// encoding").
//
// The coder is constructed directly (not via a real compressed bitstream):
// with denominator held above the renormalization threshold, decode(max) is
// exactly numerator/(denominator/max). A fresh weightWindow's first draw is
// always an escape hit with val=0, errWidth=max (ranges is still the single
// bucket [0, coderDomain]), which commit() turns into a no-op on
// numerator/denominator — so the coder state reaching the fill draw is
// exactly the state set here.
func TestDecompressLiteralShift(t *testing.T) {
	p := parameters{decodedValueMax: 256, decodedCount: 1}
	d := newDictionary(p)

	const denom = 0x1000000
	const max = 256
	const wantByte = 0x41
	nextDenom := uint32(denom) / uint32(max)

	c := coder{
		numerator:   uint32(wantByte) * nextDenom,
		denominator: denom,
	}

	buf := newBuffer(1)
	n := decompressLiteral(&c, d, buf)
	if n != 1 {
		t.Fatalf("decompressLiteral returned %d, want 1", n)
	}
	if buf.data[0] != wantByte {
		t.Errorf("buf.data[0] = %#x, want %#x", buf.data[0], wantByte)
	}
}
