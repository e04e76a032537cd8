// Copyright 2021 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package encode

import (
	"bytes"
	"debug/elf"
	"encoding/binary"

	"github.com/andrewhalle/byo-linker/image"
	"github.com/andrewhalle/byo-linker/rawelf"
)

// serialize lays out sections sequentially after a 64-byte header,
// computes offsets, and emits header, bodies, and section header table
// in that order.
func serialize(img *image.Image, sections []outSection, shstrndx int, shstrtab *stringTable) ([]byte, error) {
	const ehsize = 64
	const shentsize = 64

	offsets := make([]uint64, len(sections))
	offset := uint64(ehsize)
	for i, s := range sections {
		offsets[i] = offset
		offset += uint64(len(s.data))
	}
	shoff := offset

	hdr := elf.Header64{
		Ident:     buildIdent(img),
		Type:      uint16(img.Type),
		Machine:   uint16(img.Machine),
		Version:   uint32(elf.EV_CURRENT),
		Entry:     0,
		Phoff:     0,
		Shoff:     shoff,
		Flags:     img.Flags,
		Ehsize:    ehsize,
		Phentsize: 0,
		Phnum:     0,
		Shentsize: shentsize,
		Shnum:     uint16(len(sections)),
		Shstrndx:  uint16(shstrndx),
	}

	headerBytes, err := rawelf.PackHeader(hdr, img.Order)
	if err != nil {
		return nil, err
	}

	var out bytes.Buffer
	out.Write(headerBytes)
	for _, s := range sections {
		out.Write(s.data)
	}

	for i, s := range sections {
		entsize := uint64(0)
		if s.shType == uint32(elf.SHT_SYMTAB) || s.shType == uint32(elf.SHT_RELA) {
			entsize = 24
		}
		sh := elf.Section64{
			Name:      shstrtab.intern(s.name),
			Type:      s.shType,
			Flags:     s.flags,
			Addr:      s.addr,
			Off:       offsets[i],
			Size:      uint64(len(s.data)),
			Link:      s.link,
			Info:      s.info,
			Addralign: s.addralign,
			Entsize:   entsize,
		}
		shBytes, err := rawelf.PackSectionHeader(sh, img.Order)
		if err != nil {
			return nil, err
		}
		out.Write(shBytes)
	}

	return out.Bytes(), nil
}

// buildIdent reconstructs the 16-byte e_ident field from the image's
// preserved endianness and ABI fields.
func buildIdent(img *image.Image) [elf.EI_NIDENT]byte {
	var ident [elf.EI_NIDENT]byte
	ident[0] = 0x7F
	ident[1] = 'E'
	ident[2] = 'L'
	ident[3] = 'F'
	ident[elf.EI_CLASS] = byte(elf.ELFCLASS64)
	if img.Order == binary.BigEndian {
		ident[elf.EI_DATA] = byte(elf.ELFDATA2MSB)
	} else {
		ident[elf.EI_DATA] = byte(elf.ELFDATA2LSB)
	}
	ident[elf.EI_VERSION] = byte(elf.EV_CURRENT)
	ident[elf.EI_OSABI] = byte(img.OSABI)
	ident[elf.EI_ABIVERSION] = img.ABIVersion
	return ident
}
