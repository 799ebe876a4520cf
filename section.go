// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package granny2

import (
	"encoding/binary"
	"io"

	"github.com/dsnet/golib/errs"
)

// CompressionMode is a section's compression mode tag (spec §3/§6).
type CompressionMode uint32

const (
	CompressionNone CompressionMode = iota
	CompressionOodle0
	CompressionOodle1
	CompressionBitknit1
	CompressionBitknit2
)

func (m CompressionMode) valid() bool { return m <= CompressionBitknit2 }

// tableHeader is the (offset, count) pair shared by the relocation and
// marshalling sub-tables in a Section record.
type tableHeader struct {
	Offset uint32
	Count  uint32
}

// Section is the fixed 44-byte record describing one compressed region of
// the file (spec §3/§6).
type Section struct {
	Mode              CompressionMode
	SectionOffset     uint32
	CompressedSize    uint32
	DecompressedSize  uint32
	AlignmentSize     uint32
	Stop0             uint32
	Stop1             uint32
	RelocationHeader  tableHeader
	MarshallingHeader tableHeader
}

const sectionRecordSize = 44

// Relocation is a 12-byte fixup record (spec §3/§6).
type Relocation struct {
	SrcOffset  uint32
	DstSection uint32
	DstOffset  uint32
}

const relocationRecordSize = 12

func parseSection(buf []byte) Section {
	errs.Assert(len(buf) >= sectionRecordSize, ErrOutOfBoundsRead)
	le := binary.LittleEndian
	s := Section{
		Mode:             CompressionMode(le.Uint32(buf[0:4])),
		SectionOffset:    le.Uint32(buf[4:8]),
		CompressedSize:   le.Uint32(buf[8:12]),
		DecompressedSize: le.Uint32(buf[12:16]),
		AlignmentSize:    le.Uint32(buf[16:20]),
		Stop0:            le.Uint32(buf[20:24]),
		Stop1:            le.Uint32(buf[24:28]),
		RelocationHeader: tableHeader{
			Offset: le.Uint32(buf[28:32]),
			Count:  le.Uint32(buf[32:36]),
		},
		MarshallingHeader: tableHeader{
			Offset: le.Uint32(buf[36:40]),
			Count:  le.Uint32(buf[40:44]),
		},
	}
	errs.Assert(s.Mode.valid(), ErrInvalidCompressionMode)
	if s.Mode == CompressionNone {
		errs.Assert(s.CompressedSize == s.DecompressedSize, ErrSizeMismatch)
	}
	return s
}

// parseSectionTable reads count contiguous 44-byte Section records
// starting at offset.
func parseSectionTable(r io.ReaderAt, offset int64, count uint32, size int64) (sections []Section, err error) {
	defer errs.Recover(&err)

	sections = make([]Section, count)
	buf := make([]byte, sectionRecordSize)
	for i := uint32(0); i < count; i++ {
		off := offset + int64(i)*sectionRecordSize
		errs.Assert(off+sectionRecordSize <= size, ErrOutOfBoundsRead)
		_, err := r.ReadAt(buf, off)
		errs.Assert(err == nil, ErrIoFailure)
		sections[i] = parseSection(buf)
	}
	return sections, nil
}

func parseRelocation(buf []byte) Relocation {
	le := binary.LittleEndian
	return Relocation{
		SrcOffset:  le.Uint32(buf[0:4]),
		DstSection: le.Uint32(buf[4:8]),
		DstOffset:  le.Uint32(buf[8:12]),
	}
}
