// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

// Package oodle implements the Oodle0/Oodle1 adaptive arithmetic decompressor
// used by the Granny2 container format.
//
// The decoder couples a 32-bit numerator/denominator arithmetic coder to a
// dynamic symbol model (WeightWindow) built from adaptive probability tables,
// and a sliding-window LZ back-reference stage (Buffer). The three pieces
// feed each other across three decoding phases with thresholds that must be
// reproduced bit-for-bit; any rounding or ordering mistake desynchronizes the
// stream.
package oodle

import "runtime"

// coderDomain is the fixed width of the arithmetic coder's probability space
// that every WeightWindow's ranges are built over.
const coderDomain = 0x4000

// sizeClasses maps a backref_size symbol in [61, 64] to its actual copy
// length, per spec.
var sizeClasses = [4]int{128, 192, 256, 512}

// Error is the wrapper type for errors specific to this package.
type Error string

func (e Error) Error() string { return "oodle: " + string(e) }

var (
	// ErrCorrupt indicates the entropy-coded stream is not well-formed
	// (e.g. an empty range table, or a draw that never finds a valid range).
	ErrCorrupt error = Error("stream is corrupted")
)

// errRecover turns a panic raised during decoding into a returned error,
// re-panicking on anything that is not a plain error (e.g. a runtime fault),
// consistent with the rest of the compression stack this package imitates.
func errRecover(err *error) {
	switch ex := recover().(type) {
	case nil:
		// Do nothing.
	case runtime.Error:
		panic(ex)
	case error:
		*err = ex
	default:
		panic(ex)
	}
}
