// Copyright 2021 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package rawelf decodes and encodes the byte-level ELF64 format: the
// identifier, the ELF header, the flat section-header array, and raw
// section bytes. It has no notion of "primary sections" vs. string,
// symbol, or relocation tables -- that classification belongs to package
// image. rawelf is strict: anything that doesn't conform to a plain
// ELF64 relocatable object (bad magic, unknown class, unknown section
// type, short or trailing data) is a *ParseError.
package rawelf

import (
	"bytes"
	"debug/elf"
	"encoding/binary"
	"fmt"

	"github.com/lunixbochs/struc"
)

// recognizedSectionTypes is the closed set of sh_type values this linker
// understands. Anything else fails to parse.
var recognizedSectionTypes = map[uint32]bool{
	uint32(elf.SHT_NULL):     true,
	uint32(elf.SHT_PROGBITS): true,
	uint32(elf.SHT_SYMTAB):   true,
	uint32(elf.SHT_STRTAB):   true,
	uint32(elf.SHT_RELA):     true,
	0x70000001:               true, // SHT_X86_64_UNWIND
	0x6FFF8003:               true, // SHT_GNU_verdef-ish OS range used by the inputs seen
}

// Raw is the byte-level decode of an ELF64 relocatable object: the
// header and the flat, unclassified section list, in file order.
type Raw struct {
	Header   elf.Header64
	Order    binary.ByteOrder
	Sections []RawSection
}

// RawSection is one entry of the flat section-header array, with its
// name resolved and its bytes materialized.
type RawSection struct {
	Name string
	elf.Section64
	Data []byte
}

// Decode parses data as an ELF64 relocatable object. Both endiannesses
// are accepted and the one found is preserved in Raw.Order.
func Decode(data []byte) (*Raw, error) {
	if len(data) < 16 {
		return nil, parseErrorf("file too short for ELF identifier")
	}
	if !bytes.Equal(data[:4], []byte{0x7F, 'E', 'L', 'F'}) {
		return nil, parseErrorf("bad magic %x", data[:4])
	}
	switch class := data[4]; class {
	case 2: // ELFCLASS64
	default:
		return nil, parseErrorf("unsupported ELF class %d, want ELFCLASS64", class)
	}
	var order binary.ByteOrder
	switch data[5] {
	case 1:
		order = binary.LittleEndian
	case 2:
		order = binary.BigEndian
	default:
		return nil, parseErrorf("unknown data encoding byte %d", data[5])
	}

	if len(data) < 64 {
		return nil, parseErrorf("file too short for ELF64 header")
	}
	var hdr elf.Header64
	if err := struc.UnpackWithOptions(bytes.NewReader(data[:64]), &hdr, &struc.Options{Order: order}); err != nil {
		return nil, parseErrorf("reading ELF header: %v", err)
	}
	if hdr.Ehsize != 64 {
		return nil, parseErrorf("unexpected e_ehsize %d, want 64", hdr.Ehsize)
	}
	if hdr.Shentsize != 64 {
		return nil, parseErrorf("unexpected sh_entsize %d, want 64", hdr.Shentsize)
	}
	if hdr.Shnum < 1 {
		return nil, parseErrorf("section header table is empty")
	}
	if uint64(hdr.Shoff) < uint64(hdr.Ehsize) {
		return nil, parseErrorf("section header offset 0x%x precedes end of ELF header", hdr.Shoff)
	}

	shEnd := hdr.Shoff + uint64(hdr.Shnum)*64
	if shEnd < hdr.Shoff || shEnd > uint64(len(data)) {
		return nil, parseErrorf("section header table [0x%x,0x%x) runs past end of file (size 0x%x)", hdr.Shoff, shEnd, len(data))
	}
	if shEnd != uint64(len(data)) {
		return nil, parseErrorf("%d trailing bytes after section header table", uint64(len(data))-shEnd)
	}

	sectionData := data[hdr.Ehsize:hdr.Shoff]

	rawHeaders := make([]elf.Section64, hdr.Shnum)
	for i := range rawHeaders {
		off := hdr.Shoff + uint64(i)*64
		r := bytes.NewReader(data[off : off+64])
		if err := struc.UnpackWithOptions(r, &rawHeaders[i], &struc.Options{Order: order}); err != nil {
			return nil, parseErrorf("reading section header %d: %v", i, err)
		}
		if !recognizedSectionTypes[rawHeaders[i].Type] {
			return nil, parseErrorf("section %d has unrecognized sh_type 0x%x", i, rawHeaders[i].Type)
		}
	}

	sections := make([]RawSection, hdr.Shnum)
	for i, sh := range rawHeaders {
		sections[i].Section64 = sh
		data, err := materialize(sectionData, hdr.Ehsize, sh.Off, sh.Size)
		if err != nil {
			return nil, fmt.Errorf("section %d: %w", i, err)
		}
		sections[i].Data = data
	}

	if int(hdr.Shstrndx) >= len(sections) {
		return nil, parseErrorf("e_shstrndx %d out of range", hdr.Shstrndx)
	}
	if sections[hdr.Shstrndx].Type != uint32(elf.SHT_STRTAB) {
		return nil, parseErrorf("e_shstrndx %d names a %s section, not a string table", hdr.Shstrndx, elf.SectionType(sections[hdr.Shstrndx].Type))
	}
	shstrtab := sections[hdr.Shstrndx].Data
	for i := range sections {
		name, err := CString(shstrtab, sections[i].Name64Offset())
		if err != nil {
			return nil, fmt.Errorf("section %d name: %w", i, err)
		}
		sections[i].Name = name
	}

	return &Raw{Header: hdr, Order: order, Sections: sections}, nil
}

// Name64Offset returns the sh_name offset of this section's name into
// the string table named by e_shstrndx.
func (s *RawSection) Name64Offset() uint32 { return s.Section64.Name }

// materialize extracts a section's on-disk bytes using the convention
// that (offset==0 && size==0) means an empty buffer (the null section),
// and that all other offsets are file-relative, so ehsize is subtracted
// to index into sectionData.
func materialize(sectionData []byte, ehsize uint16, offset, size uint64) ([]byte, error) {
	if offset == 0 && size == 0 {
		return []byte{}, nil
	}
	if offset < uint64(ehsize) {
		return nil, parseErrorf("offset 0x%x precedes end of ELF header", offset)
	}
	start := offset - uint64(ehsize)
	end := start + size
	if end < start || end > uint64(len(sectionData)) {
		return nil, parseErrorf("data range [0x%x,0x%x) out of bounds for body (size 0x%x)", offset, offset+size, uint64(len(sectionData))+uint64(ehsize))
	}
	out := make([]byte, size)
	copy(out, sectionData[start:end])
	return out, nil
}

// CString reads a NUL-terminated string from table at the given byte
// offset.
func CString(table []byte, offset uint32) (string, error) {
	if uint64(offset) >= uint64(len(table)) {
		return "", parseErrorf("string offset 0x%x out of range for table of size 0x%x", offset, len(table))
	}
	rest := table[offset:]
	n := bytes.IndexByte(rest, 0)
	if n < 0 {
		return "", parseErrorf("string at offset 0x%x is not NUL-terminated", offset)
	}
	return string(rest[:n]), nil
}
