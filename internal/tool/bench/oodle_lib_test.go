// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

// +build !no_oodle_lib

package bench

import "testing"

func TestOodleFixtureDecodes(t *testing.T) {
	compressed, stop0, stop1, n := OodleFixture(1024)
	result := BenchmarkOodleDecode(compressed, stop0, stop1, n)
	if result.N == 0 {
		t.Fatal("benchmark never ran")
	}
}
