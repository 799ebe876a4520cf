// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package granny2

import (
	"encoding/binary"
	"fmt"
	"strconv"

	"github.com/dsnet/golib/errs"
)

// ElementType is an Info record's element_type tag (spec §6).
type ElementType uint32

const (
	TypeNone ElementType = iota
	TypeInline
	TypeReference
	TypeReferenceToArray
	TypeArrayOfReferences
	TypeVariantReference
	typeRemoved // recognized; zero-length "skip" payload, never emitted by a real file
	TypeReferenceToVariantArray
	TypeString
	TypeTransform
	TypeReal32
	TypeInt8
	TypeUInt8
	TypeInt8Norm
	TypeUInt8Norm
	TypeInt16
	TypeUInt16
	TypeInt16Norm
	TypeUInt16Norm
	TypeInt32
	TypeUInt32
	TypeReal16
	TypeEmptyReference
)

func (t ElementType) known() bool { return t <= TypeEmptyReference }

// infoRecordSize is the on-disk width of one Info record: element_type,
// name_offset, children_offset, and array_size are each stored as a 4-byte
// field (original_source src/granny2/element/info.rs widens them to
// u64/usize in memory but reads only 4 bytes off the wire for each),
// followed by the 12-byte opaque extra field and a 4-byte extra_ptr:
// 4*4+12+4 = 32.
const infoRecordSize = 32

// Info is a 32-byte type-catalog record (spec §6).
type Info struct {
	ElementType    ElementType
	NameOffset     uint32
	ChildrenOffset uint32
	ArraySize      uint32
	Extra          [12]byte
	ExtraPtr       uint32
}

// Element is one parsed node of the reconstructed object graph.
type Element struct {
	Name     string
	Type     ElementType
	Size     uint32 // logical array size (>= 1 for non-reference types)
	Data     []byte // raw payload bytes, array_size copies concatenated
	Children []Element
}

// elementKey identifies a (types_pos, object_pos) pair for the cycle guard
// (SPEC_FULL.md §4.7).
type elementKey struct {
	typesPos  uint32
	objectPos uint32
}

// parseElements reads the null-terminated Info list at typesPos, then walks
// one Element per Info record starting at objectPos (spec §4.5). visited is
// threaded through every recursive call and shared across the whole tree,
// since the same (typesPos, objectPos) pair denotes the same graph node
// regardless of which branch reaches it first (SPEC_FULL.md §4.7).
func parseElements(blob []byte, typesPos, objectPos uint32, visited map[elementKey]bool) (elems []Element, err error) {
	defer errs.Recover(&err)

	key := elementKey{typesPos, objectPos}
	errs.Assert(!visited[key], ErrCyclicReference)
	visited[key] = true

	infos, err := parseInfoList(blob, typesPos)
	if err != nil {
		return nil, err
	}

	pos := objectPos
	elems = make([]Element, 0, len(infos))
	for _, info := range infos {
		e, next, err := parseElement(blob, info, pos, visited)
		if err != nil {
			return nil, err
		}
		elems = append(elems, e)
		pos = next
	}
	return elems, nil
}

// parseInfoList reads Info records from typesPos until a terminator (tag
// None or an unrecognized tag) is hit.
func parseInfoList(blob []byte, typesPos uint32) ([]Info, error) {
	var infos []Info
	pos := int(typesPos)
	for {
		errs.Assert(pos+infoRecordSize <= len(blob), ErrOutOfBoundsRead)
		info := parseInfo(blob[pos : pos+infoRecordSize])
		if info.ElementType == TypeNone || !info.ElementType.known() {
			break
		}
		infos = append(infos, info)
		pos += infoRecordSize
	}
	return infos, nil
}

func parseInfo(buf []byte) Info {
	le := binary.LittleEndian
	var info Info
	info.ElementType = ElementType(le.Uint32(buf[0:4]))
	info.NameOffset = le.Uint32(buf[4:8])
	info.ChildrenOffset = le.Uint32(buf[8:12])
	info.ArraySize = le.Uint32(buf[12:16])
	// buf[16:28] is the opaque 12-byte extra field, deliberately unparsed.
	copy(info.Extra[:], buf[16:28])
	info.ExtraPtr = le.Uint32(buf[28:32])
	return info
}

// typeSize returns the fixed payload width of a scalar (non-reference,
// non-string) element type, in bytes.
func typeSize(t ElementType) int {
	switch t {
	case TypeInline:
		return 0
	case TypeTransform:
		return 72
	case TypeReal32, TypeInt32, TypeUInt32:
		return 4
	case TypeInt16, TypeUInt16, TypeInt16Norm, TypeUInt16Norm, TypeReal16:
		return 2
	case TypeInt8, TypeUInt8, TypeInt8Norm, TypeUInt8Norm:
		return 1
	case TypeString:
		return 4 // a u32 name_offset; the string bytes live elsewhere
	}
	return 0
}

func isReferenceKind(t ElementType) bool {
	switch t {
	case TypeReference, TypeReferenceToArray, TypeArrayOfReferences,
		TypeVariantReference, TypeReferenceToVariantArray, TypeEmptyReference:
		return true
	}
	return false
}

// parseElement parses one Element at pos per the dispatch in spec §4.5,
// returning the stream position immediately after its own payload (never
// after its children — the position-neutrality invariant).
func parseElement(blob []byte, info Info, pos uint32, visited map[elementKey]bool) (Element, uint32, error) {
	start := pos
	e := Element{Type: info.ElementType}

	if info.NameOffset != 0 {
		name, err := readCString(blob, info.NameOffset)
		if err != nil {
			return Element{}, 0, err
		}
		e.Name = name
	}

	if isReferenceKind(info.ElementType) {
		errs.Assert(info.ArraySize == 0, ErrInvalidArraySize)
		e.Size = 1
	} else {
		e.Size = info.ArraySize
		if e.Size == 0 {
			e.Size = 1
		}
	}

	switch info.ElementType {
	case TypeReference, TypeEmptyReference:
		p := int(start)
		errs.Assert(p+4 <= len(blob), ErrOutOfBoundsRead)
		offset := binary.LittleEndian.Uint32(blob[p : p+4])
		pos = uint32(p + 4)
		if offset != 0 {
			children, err := parseElements(blob, info.ChildrenOffset, offset, visited)
			if err != nil {
				return Element{}, 0, err
			}
			e.Children = children
		}

	case TypeArrayOfReferences:
		p := int(start)
		errs.Assert(p+8 <= len(blob), ErrOutOfBoundsRead)
		size := binary.LittleEndian.Uint32(blob[p : p+4])
		tableOffset := binary.LittleEndian.Uint32(blob[p+4 : p+8])
		pos = uint32(p + 8)

		errs.Assert(int(tableOffset)+int(size)*4 <= len(blob), ErrOutOfBoundsRead)
		e.Children = make([]Element, size)
		for i := uint32(0); i < size; i++ {
			off := int(tableOffset) + int(i)*4
			ref := binary.LittleEndian.Uint32(blob[off : off+4])
			children, err := parseElements(blob, info.ChildrenOffset, ref, visited)
			if err != nil {
				return Element{}, 0, err
			}
			e.Children[i] = Element{
				Name:     strconv.Itoa(int(i)),
				Children: children,
			}
		}

	case TypeReferenceToArray:
		p := int(start)
		errs.Assert(p+8 <= len(blob), ErrOutOfBoundsRead)
		size := binary.LittleEndian.Uint32(blob[p : p+4])
		arrPos := binary.LittleEndian.Uint32(blob[p+4 : p+8])
		pos = uint32(p + 8)

		children, err := walkSizedArray(blob, info.ChildrenOffset, arrPos, size, visited)
		if err != nil {
			return Element{}, 0, err
		}
		e.Children = children

	case TypeVariantReference:
		p := int(start)
		errs.Assert(p+8 <= len(blob), ErrOutOfBoundsRead)
		typeOffset := binary.LittleEndian.Uint32(blob[p : p+4])
		dataOffset := binary.LittleEndian.Uint32(blob[p+4 : p+8])
		pos = uint32(p + 8)
		if typeOffset != 0 && dataOffset != 0 {
			children, err := parseElements(blob, typeOffset, dataOffset, visited)
			if err != nil {
				return Element{}, 0, err
			}
			e.Children = children
		}

	case TypeReferenceToVariantArray:
		p := int(start)
		errs.Assert(p+12 <= len(blob), ErrOutOfBoundsRead)
		typeOffset := binary.LittleEndian.Uint32(blob[p : p+4])
		size := binary.LittleEndian.Uint32(blob[p+4 : p+8])
		dataOffset := binary.LittleEndian.Uint32(blob[p+8 : p+12])
		pos = uint32(p + 12)

		children, err := walkSizedArray(blob, typeOffset, dataOffset, size, visited)
		if err != nil {
			return Element{}, 0, err
		}
		e.Children = children

	case TypeInline:
		children, err := parseElements(blob, info.ChildrenOffset, start, visited)
		if err != nil {
			return Element{}, 0, err
		}
		e.Children = children

	default:
		size := typeSize(info.ElementType)
		total := size * int(e.Size)
		p := int(start)
		errs.Assert(p+total <= len(blob), ErrOutOfBoundsRead)
		e.Data = append([]byte(nil), blob[p:p+total]...)
		pos = uint32(p + total)
	}

	return e, pos, nil
}

// walkSizedArray reads size elements of the catalog at typesPos, starting at
// arrPos, advancing the cursor to the post-payload position after each one
// (spec §4.5, ReferenceToArray / ReferenceToVariantArray).
func walkSizedArray(blob []byte, typesPos, arrPos, size uint32, visited map[elementKey]bool) ([]Element, error) {
	infos, err := parseInfoList(blob, typesPos)
	if err != nil {
		return nil, err
	}
	if len(infos) == 0 {
		return nil, nil
	}

	children := make([]Element, 0, size)
	pos := arrPos
	for i := uint32(0); i < size; i++ {
		for _, info := range infos {
			e, next, err := parseElement(blob, info, pos, visited)
			if err != nil {
				return nil, err
			}
			children = append(children, e)
			pos = next
		}
	}
	return children, nil
}

// readCString reads a NUL-terminated string at an absolute blob offset,
// without disturbing any caller-tracked cursor (spec §4.5 step 1,
// "seek-save/restore").
func readCString(blob []byte, offset uint32) (string, error) {
	errs.Assert(int(offset) < len(blob), ErrOutOfBoundsRead)
	end := int(offset)
	for end < len(blob) && blob[end] != 0 {
		end++
	}
	errs.Assert(end < len(blob), ErrOutOfBoundsRead)
	return string(blob[offset:end]), nil
}

// String implements fmt.Stringer for debugging (e.g. printed by the
// +build debug helpers).
func (e Element) String() string {
	return fmt.Sprintf("Element{Name:%q Type:%d Size:%d Children:%d}", e.Name, e.Type, e.Size, len(e.Children))
}
