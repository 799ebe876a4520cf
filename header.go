// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package granny2

import (
	"encoding/binary"
	"hash/crc32"
	"io"

	"github.com/dsnet/golib/errs"
	"github.com/dsnet/golib/hashutil"
)

var fileMagic = [16]byte{
	0xb8, 0x67, 0xb0, 0xca, 0xf8, 0x6d, 0xb1, 0x0f,
	0x84, 0x72, 0x8c, 0x7e, 0x5e, 0x19, 0x00, 0x1e,
}

// Reference32 is a (section, offset) pair addressing a location in the
// concatenated, relocated blob.
type Reference32 struct {
	Section uint32
	Offset  uint32
}

// FileHeader is the fixed-layout leading region of a Granny2 file (spec §6),
// promoted to a first-class type per SPEC_FULL.md §3.
type FileHeader struct {
	Magic           [16]byte
	HeaderSize      uint32
	CompressionType uint32
	ExtraBytes      [8]byte
	Version         uint32
	FileSize        uint32
	Checksum        uint32
	SectionOffset   uint32
	SectionCount    uint32
	RootNodeType    Reference32
	RootNodeObject  Reference32
	UserTag         [4]byte
	UserData        []byte
}

const fileHeaderFixedSize = 16 + 4 + 4 + 8 + 4 + 4 + 4 + 4 + 4 + 8 + 8 // = 68, up through RootNodeObject

// parseFileHeader reads and validates the fixed-layout header from the start
// of the file, then verifies the checksum over the remainder (SPEC_FULL.md
// §4.6).
func parseFileHeader(r io.ReaderAt, size int64) (hdr FileHeader, err error) {
	defer errs.Recover(&err)

	buf := make([]byte, fileHeaderFixedSize)
	_, err = r.ReadAt(buf, 0)
	errs.Assert(err == nil, ErrIoFailure)

	copy(hdr.Magic[:], buf[0:16])
	errs.Assert(hdr.Magic == fileMagic, ErrHeaderMagicMismatch)

	hdr.HeaderSize = binary.LittleEndian.Uint32(buf[16:20])
	hdr.CompressionType = binary.LittleEndian.Uint32(buf[20:24])
	copy(hdr.ExtraBytes[:], buf[24:32])
	hdr.Version = binary.LittleEndian.Uint32(buf[32:36])
	hdr.FileSize = binary.LittleEndian.Uint32(buf[36:40])
	hdr.Checksum = binary.LittleEndian.Uint32(buf[40:44])
	hdr.SectionOffset = binary.LittleEndian.Uint32(buf[44:48])
	hdr.SectionCount = binary.LittleEndian.Uint32(buf[48:52])
	hdr.RootNodeType = Reference32{
		Section: binary.LittleEndian.Uint32(buf[52:56]),
		Offset:  binary.LittleEndian.Uint32(buf[56:60]),
	}
	hdr.RootNodeObject = Reference32{
		Section: binary.LittleEndian.Uint32(buf[60:64]),
		Offset:  binary.LittleEndian.Uint32(buf[64:68]),
	}

	userTagBuf := make([]byte, 4)
	_, err = r.ReadAt(userTagBuf, int64(fileHeaderFixedSize))
	errs.Assert(err == nil, ErrIoFailure)
	copy(hdr.UserTag[:], userTagBuf)

	// UserData runs from the end of the fixed region (byte 72, after
	// UserTag) up to the 32-byte-relative section_offset. section_offset is
	// itself relative to byte 32 (the end of the leading region), so its
	// file-absolute address is 32+section_offset, and the length here is
	// (32+section_offset)-72, i.e. section_offset-40 (original_source
	// src/granny2/mod.rs: user_data = vec![0; section_offset - 40]).
	errs.Assert(int64(hdr.SectionOffset) <= size, ErrOutOfBoundsRead)
	userDataStart := int64(fileHeaderFixedSize) + 4
	userDataLen := int64(hdr.SectionOffset) - 40
	if userDataLen > 0 {
		hdr.UserData = make([]byte, userDataLen)
		_, err := r.ReadAt(hdr.UserData, userDataStart)
		errs.Assert(err == nil, ErrIoFailure)
	}

	if hdr.Checksum != 0 {
		errs.Assert(verifyChecksum(r, hdr, size), ErrChecksumMismatch)
	}

	return hdr, nil
}

// verifyChecksum computes a CRC-32-IEEE over file bytes [HeaderSize:FileSize)
// in fixed-size chunks, combining the running total with
// hashutil.CombineCRC32 the way bzip2/common.go combines per-block CRCs —
// here the "blocks" are read-buffer chunks rather than format blocks, since
// the checksum covers one contiguous region, but the chunked-accumulate shape
// is the same.
func verifyChecksum(r io.ReaderAt, hdr FileHeader, size int64) bool {
	start := int64(hdr.HeaderSize)
	end := int64(hdr.FileSize)
	if end > size {
		end = size
	}
	if start >= end {
		return true
	}

	var crc uint32
	buf := make([]byte, 32*1024)
	for off := start; off < end; {
		n := len(buf)
		if int64(n) > end-off {
			n = int(end - off)
		}
		if _, err := r.ReadAt(buf[:n], off); err != nil {
			return false
		}
		chunkCRC := crc32.ChecksumIEEE(buf[:n])
		crc = hashutil.CombineCRC32(crc32.IEEE, crc, chunkCRC, int64(n))
		off += int64(n)
	}
	return crc == hdr.Checksum
}
