// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

// +build debug

package granny2

import (
	"encoding/binary"
	"fmt"
	"os"
	"strings"

	dsbits "github.com/dsnet/golib/bits"
	dsstrconv "github.com/dsnet/golib/strconv"
)

const debug = true

// dumpHeader prints a FileHeader and section table to stderr in a form
// convenient for diffing against a hex editor's view of the raw file.
func dumpHeader(hdr FileHeader, sections []Section) {
	out := os.Stderr

	fmt.Fprintf(out, "FileHeader{\n")
	fmt.Fprintf(out, "\tVersion:       %d\n", hdr.Version)
	fmt.Fprintf(out, "\tFileSize:      %s\n", dsstrconv.FormatPrefix(float64(hdr.FileSize), dsstrconv.Base1024, 2))
	fmt.Fprintf(out, "\tSectionCount:  %d\n", hdr.SectionCount)
	fmt.Fprintf(out, "\tRootNodeType:  {%d, %#x}\n", hdr.RootNodeType.Section, hdr.RootNodeType.Offset)
	fmt.Fprintf(out, "\tRootNodeObj:   {%d, %#x}\n", hdr.RootNodeObject.Section, hdr.RootNodeObject.Offset)
	fmt.Fprintf(out, "}\n")

	for i, s := range sections {
		fmt.Fprintf(out, "Section[%d]{mode: %d, compressed: %s, decompressed: %s}\n",
			i, s.Mode,
			dsstrconv.FormatPrefix(float64(s.CompressedSize), dsstrconv.Base1024, 1),
			dsstrconv.FormatPrefix(float64(s.DecompressedSize), dsstrconv.Base1024, 1))
	}
}

// dumpElements pretty-prints a parsed element tree, indenting by depth.
func dumpElements(elems []Element, depth int) {
	indent := strings.Repeat("  ", depth)
	for _, e := range elems {
		fmt.Fprintf(os.Stderr, "%s%s\n", indent, e)
		dumpElements(e.Children, depth+1)
	}
}

// dumpInfoBits renders an Info record's extra_ptr field bit-by-bit, the same
// bits.Get field-extraction style the teacher uses for packed prefix-code
// records (xflate/meta/reader.go).
func dumpInfoBits(info Info) string {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], info.ExtraPtr)

	var sb strings.Builder
	for i := 31; i >= 0; i-- {
		if dsbits.Get(buf[:], i) {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	}
	return sb.String()
}
