// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package granny2

import (
	"bytes"
	"encoding/binary"
	"testing"
)

// TestRelocationFixup is the spec §8 scenario 4 seed test: one section of
// 16 bytes, one relocation entry (src_offset=4, dst_section=0,
// dst_offset=12); after assembly the 4 bytes at offset 4 must equal
// 12, 0, 0, 0.
func TestRelocationFixup(t *testing.T) {
	var file []byte
	file = append(file, make([]byte, 16)...) // section 0's raw (mode-None) bytes

	relOffset := len(file)
	rel := make([]byte, relocationRecordSize)
	binary.LittleEndian.PutUint32(rel[0:4], 4)  // src_offset
	binary.LittleEndian.PutUint32(rel[4:8], 0)  // dst_section
	binary.LittleEndian.PutUint32(rel[8:12], 12) // dst_offset
	file = append(file, rel...)

	sections := []Section{{
		Mode:             CompressionNone,
		SectionOffset:    0,
		CompressedSize:   16,
		DecompressedSize: 16,
		RelocationHeader: tableHeader{Offset: uint32(relOffset), Count: 1},
	}}

	c, err := assembleSections(bytes.NewReader(file), sections, int64(len(file)))
	if err != nil {
		t.Fatalf("assembleSections: %v", err)
	}

	got := c.blob[4:8]
	want := []byte{12, 0, 0, 0}
	if !bytes.Equal(got, want) {
		t.Errorf("blob[4:8] = %v, want %v", got, want)
	}
}

func TestAssembleSectionsModeNone(t *testing.T) {
	payload := []byte{1, 2, 3, 4}
	sections := []Section{{
		Mode:             CompressionNone,
		SectionOffset:    0,
		CompressedSize:   4,
		DecompressedSize: 4,
	}}

	c, err := assembleSections(bytes.NewReader(payload), sections, int64(len(payload)))
	if err != nil {
		t.Fatalf("assembleSections: %v", err)
	}
	if !bytes.Equal(c.blob, payload) {
		t.Errorf("blob = %v, want %v", c.blob, payload)
	}
	if len(c.sectionBase) != 1 || c.sectionBase[0] != 0 {
		t.Errorf("sectionBase = %v, want [0]", c.sectionBase)
	}
}

func TestAssembleSectionsBitknitStub(t *testing.T) {
	raw := make([]byte, 5)
	sections := []Section{{
		Mode:             CompressionBitknit1,
		SectionOffset:    0,
		CompressedSize:   5,
		DecompressedSize: 8,
	}}
	c, err := assembleSections(bytes.NewReader(raw), sections, int64(len(raw)))
	if err != nil {
		t.Fatalf("assembleSections: %v", err)
	}
	if len(c.blob) != 5 {
		t.Fatalf("len(blob) = %d, want 5 (CompressedSize, not DecompressedSize)", len(c.blob))
	}
	for _, b := range c.blob {
		if b != 0 {
			t.Fatalf("blob = %v, want all-zero", c.blob)
		}
	}
}
