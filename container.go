// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package granny2

import (
	"encoding/binary"
	"io"
	"runtime"

	"github.com/dsnet/golib/errs"

	"github.com/dsnet/granny2/internal/oodle"
)

// bigEndianArches lists the GOARCH values known to run big-endian; marshalling
// (which this package does not implement) would need native pointer widths
// reinterpreted on those hosts (spec §4.4 step 5).
var bigEndianArches = map[string]bool{
	"mips": true, "mips64": true, "ppc64": true, "s390x": true, "sparc64": true,
}

// container is the concatenated, relocated address space produced by
// assembleSections: one contiguous blob plus the per-section base offsets
// into it (SPEC_FULL.md §4.4).
type container struct {
	blob        []byte
	sectionBase []int
}

// assembleSections implements spec §4.4: decompress every section, lay the
// results end to end, and patch in the relocation fixups. Grounded on
// bzip2/reader.go's per-block decode loop, generalized from a streaming
// io.Reader to an upfront-materialized blob since the element walker
// (§4.5) needs random access across section boundaries.
func assembleSections(r io.ReaderAt, sections []Section, size int64) (c *container, err error) {
	defer errs.Recover(&err)

	errs.Assert(!bigEndianArches[runtime.GOARCH], ErrBigEndianUnsupported)

	payloads := make([][]byte, len(sections))
	base := make([]int, len(sections))
	offset := 0
	for i, s := range sections {
		payload, err := decompressSection(r, s, size)
		if err != nil {
			return nil, err
		}
		payloads[i] = payload
		base[i] = offset
		offset += len(payload)
	}

	blob := make([]byte, offset)
	for i, payload := range payloads {
		copy(blob[base[i]:], payload)
	}

	for i, s := range sections {
		if err := applyRelocations(r, blob, s, i, base, size); err != nil {
			return nil, err
		}
	}

	return &container{blob: blob, sectionBase: base}, nil
}

// decompressSection decompresses a single section's payload per its mode
// (spec §4.4 step 2).
func decompressSection(r io.ReaderAt, s Section, size int64) ([]byte, error) {
	raw := make([]byte, s.CompressedSize)
	if s.CompressedSize > 0 {
		errs.Assert(int64(s.SectionOffset)+int64(s.CompressedSize) <= size, ErrOutOfBoundsRead)
		_, err := r.ReadAt(raw, int64(s.SectionOffset))
		errs.Assert(err == nil, ErrIoFailure)
	}

	switch s.Mode {
	case CompressionNone:
		errs.Assert(uint32(len(raw)) == s.DecompressedSize, ErrSizeMismatch)
		return raw, nil
	case CompressionOodle0, CompressionOodle1:
		out, err := oodle.Decompress(raw, int(s.Stop0), int(s.Stop1), int(s.DecompressedSize))
		if err != nil {
			return nil, ErrOodleDecompress
		}
		return out, nil
	case CompressionBitknit1, CompressionBitknit2:
		// Bitknit is recognized but not implemented by the core decoder
		// (spec §4.4 step 2, §9 open question): return a zero-filled
		// payload sized to CompressedSize, not DecompressedSize
		// (original_source src/granny2/section/mod.rs: Ok(vec![0;
		// compressed_size])). assembleSections uses len(payload) to
		// compute sectionBase, so the stub's size must match what the
		// format says this section occupies in the assembled blob, or
		// every later section's relocation fixups desync.
		return make([]byte, s.CompressedSize), nil
	default:
		return nil, ErrInvalidCompressionMode
	}
}

// applyRelocations implements spec §4.4 step 4. The relocation table itself
// lives in the original (uncompressed) file bytes at relocation_header.offset,
// one 12-byte Relocation record per entry.
func applyRelocations(r io.ReaderAt, blob []byte, s Section, sectionIndex int, base []int, size int64) error {
	count := s.RelocationHeader.Count
	if count == 0 {
		return nil
	}

	buf := make([]byte, relocationRecordSize)
	tableOffset := int64(s.RelocationHeader.Offset)
	for k := uint32(0); k < count; k++ {
		off := tableOffset + int64(k)*relocationRecordSize
		errs.Assert(off+relocationRecordSize <= size, ErrOutOfBoundsRead)
		_, err := r.ReadAt(buf, off)
		errs.Assert(err == nil, ErrIoFailure)
		rel := parseRelocation(buf)

		errs.Assert(int(rel.DstSection) < len(base), ErrOutOfBoundsRead)
		virtualDst := uint32(base[rel.DstSection]) + rel.DstOffset

		dst := base[sectionIndex] + int(rel.SrcOffset)
		errs.Assert(dst+4 <= len(blob), ErrOutOfBoundsRead)
		binary.LittleEndian.PutUint32(blob[dst:dst+4], virtualDst)
	}
	return nil
}
