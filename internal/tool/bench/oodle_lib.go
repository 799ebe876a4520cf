// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

// +build !no_oodle_lib

package bench

import (
	"bufio"
	"bytes"
	"io"
	"io/ioutil"
	"runtime"
	"testing"

	"github.com/dsnet/granny2/internal/oodle"
)

// oodleParamsBlock is one packed 12-byte parameters record (decodedValueMax:
// 256, backrefValueMax: 0, decodedCount: 1, highbitCount: 1, sizesCount:
// {1,1,1,1}), the same all-zero-literal shape internal/oodle's own
// TestDecompressAllZeroLiterals uses. Oodle has no encoder in this module, so
// decode-rate comparisons against it can't run through the generic
// Encoder/Decoder suite the way FormatFlate and FormatXZ do; this fixture
// stands in for a real compressed file.
var oodleParamsBlock = [12]byte{
	0x00, 0x00, 0x00, 0x80,
	0x01, 0x00, 0x80, 0x00,
	0x01, 0x01, 0x01, 0x01,
}

// OodleFixture builds an all-zero-literal compressed stream that decompresses
// to n bytes. streamByte pads reads past the end of the coder stream with 0,
// so a short, fixed-size coder tail is enough regardless of n.
func OodleFixture(n int) (compressed []byte, stop0, stop1, decompressedSize int) {
	compressed = append(compressed, oodleParamsBlock[:]...)
	compressed = append(compressed, oodleParamsBlock[:]...)
	compressed = append(compressed, oodleParamsBlock[:]...)
	compressed = append(compressed, make([]byte, 64)...)
	return compressed, 0, 0, n
}

// BenchmarkOodleDecode benchmarks internal/oodle.Decompress the same way
// BenchmarkDecoder benchmarks a registered Decoder.
func BenchmarkOodleDecode(compressed []byte, stop0, stop1, decompressedSize int) testing.BenchmarkResult {
	return testing.Benchmark(func(b *testing.B) {
		b.StopTimer()
		runtime.GC()
		b.StartTimer()
		for i := 0; i < b.N; i++ {
			out, err := oodle.Decompress(compressed, stop0, stop1, decompressedSize)
			if err != nil {
				b.Fatalf("unexpected error: %v", err)
			}
			if _, err := io.Copy(ioutil.Discard, bufio.NewReader(bytes.NewReader(out))); err != nil {
				b.Fatalf("unexpected error: %v", err)
			}
			b.SetBytes(int64(len(out)))
		}
	})
}

// OodleDecodeRate reports the MB/s throughput of decompressing a fixture of
// the given decompressed size, in the same units BenchmarkDecoderSuite uses.
func OodleDecodeRate(decompressedSize int) float64 {
	compressed, stop0, stop1, n := OodleFixture(decompressedSize)
	result := BenchmarkOodleDecode(compressed, stop0, stop1, n)
	if result.N == 0 {
		return 0
	}
	us := (float64(result.T.Nanoseconds()) / 1e3) / float64(result.N)
	return float64(result.Bytes) / us
}
