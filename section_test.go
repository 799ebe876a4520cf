// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package granny2

import (
	"encoding/binary"
	"errors"
	"testing"
)

func buildSectionRecord(mode CompressionMode, compressedSize, decompressedSize uint32) []byte {
	buf := make([]byte, sectionRecordSize)
	le := binary.LittleEndian
	le.PutUint32(buf[0:4], uint32(mode))
	le.PutUint32(buf[4:8], 0) // section_offset, filled by caller if needed
	le.PutUint32(buf[8:12], compressedSize)
	le.PutUint32(buf[12:16], decompressedSize)
	return buf
}

func TestParseSectionFieldLayout(t *testing.T) {
	buf := buildSectionRecord(CompressionOodle0, 100, 200)
	binary.LittleEndian.PutUint32(buf[28:32], 8)  // relocation_header.offset
	binary.LittleEndian.PutUint32(buf[32:36], 2)  // relocation_header.count
	binary.LittleEndian.PutUint32(buf[36:40], 16) // marshalling_header.offset
	binary.LittleEndian.PutUint32(buf[40:44], 3)  // marshalling_header.count

	s := parseSection(buf)
	if s.Mode != CompressionOodle0 {
		t.Errorf("Mode = %v, want Oodle0", s.Mode)
	}
	if s.CompressedSize != 100 || s.DecompressedSize != 200 {
		t.Errorf("sizes = %d/%d, want 100/200", s.CompressedSize, s.DecompressedSize)
	}
	if s.RelocationHeader != (tableHeader{Offset: 8, Count: 2}) {
		t.Errorf("RelocationHeader = %+v, want {8 2}", s.RelocationHeader)
	}
	if s.MarshallingHeader != (tableHeader{Offset: 16, Count: 3}) {
		t.Errorf("MarshallingHeader = %+v, want {16 3}", s.MarshallingHeader)
	}
}

func TestParseSectionModeNoneSizeMismatch(t *testing.T) {
	buf := buildSectionRecord(CompressionNone, 100, 200)
	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected panic for mode None size mismatch")
		}
		if !errors.Is(r.(error), ErrSizeMismatch) {
			t.Errorf("panic value = %v, want ErrSizeMismatch", r)
		}
	}()
	parseSection(buf)
}

func TestParseSectionInvalidMode(t *testing.T) {
	buf := buildSectionRecord(CompressionMode(99), 0, 0)
	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected panic for invalid mode")
		}
		if !errors.Is(r.(error), ErrInvalidCompressionMode) {
			t.Errorf("panic value = %v, want ErrInvalidCompressionMode", r)
		}
	}()
	parseSection(buf)
}
