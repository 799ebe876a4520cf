// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

// Package granny2 implements a reader for the Granny2 binary container
// format: an adaptive-arithmetic-coded (Oodle0/Oodle1) section payload
// layer, a relocation-patched concatenated address space, and a recursive,
// typed element-tree reconstruction on top of it.
//
// Parse is the package's one entry point; it owns no logging and no
// long-lived I/O lifecycle beyond the single call.
package granny2

import (
	"io"

	"github.com/dsnet/golib/errs"
)

// Granny2 is the fully parsed result of reading one container file.
type Granny2 struct {
	Header   FileHeader
	Sections []Section
	Blob     []byte
	Root     []Element
}

// Parse reads a Granny2 container from r (size bytes long): the file
// header, every section header, the decompressed and relocated section
// blob, and the element tree rooted at the header's RootNodeType /
// RootNodeObject references.
func Parse(r io.ReaderAt, size int64) (g *Granny2, err error) {
	defer errs.Recover(&err)

	hdr, err := parseFileHeader(r, size)
	if err != nil {
		return nil, err
	}

	sections, err := parseSectionTable(r, 32+int64(hdr.SectionOffset), hdr.SectionCount, size)
	if err != nil {
		return nil, err
	}

	c, err := assembleSections(r, sections, size)
	if err != nil {
		return nil, err
	}

	typesPos := sectionBlobOffset(c, hdr.RootNodeType)
	objectPos := sectionBlobOffset(c, hdr.RootNodeObject)

	visited := make(map[elementKey]bool)
	root, err := parseElements(c.blob, typesPos, objectPos, visited)
	if err != nil {
		return nil, err
	}

	return &Granny2{
		Header:   hdr,
		Sections: sections,
		Blob:     c.blob,
		Root:     root,
	}, nil
}

// sectionBlobOffset translates a file-relative (section, offset) reference
// into an absolute offset within the concatenated, relocated blob.
func sectionBlobOffset(c *container, ref Reference32) uint32 {
	errs.Assert(int(ref.Section) < len(c.sectionBase), ErrOutOfBoundsRead)
	return uint32(c.sectionBase[ref.Section]) + ref.Offset
}
