// Copyright 2021 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package encode

import (
	"bytes"
	"debug/elf"
	"encoding/binary"
	"fmt"
	"log/slog"

	"github.com/andrewhalle/byo-linker/image"
	"github.com/andrewhalle/byo-linker/rawelf"
)

// outSection is one entry of the final, synthesized section list: the
// logical fields needed for both the section header and the body bytes,
// before file offsets are known.
type outSection struct {
	name      string
	shType    uint32
	flags     uint64
	addr      uint64
	link      uint32
	info      uint32
	addralign uint64
	data      []byte
}

// Encode serializes img as an ELF64 relocatable object: string tables
// are rebuilt, `.symtab` and one `.relaNAME` per relocated section are
// synthesized, and every section, including the synthesized ones, is
// laid out in the canonical order: primary sections, then rela
// sections, then .symtab, .strtab, and .shstrtab last.
func Encode(img *image.Image) ([]byte, error) {
	strtab := newStringTable()
	for _, s := range img.Symbols {
		strtab.intern(s.Name)
	}

	shstrtab := newStringTable()
	for _, s := range img.Sections {
		shstrtab.intern(s.Name)
	}
	for _, name := range []string{".strtab", ".shstrtab", ".symtab"} {
		shstrtab.intern(name)
	}
	for _, s := range img.Sections {
		if len(s.Relocations) > 0 {
			shstrtab.intern(".rela" + s.Name)
		}
	}

	var sections []outSection
	for _, s := range img.Sections {
		sections = append(sections, outSection{
			name:      s.Name,
			shType:    s.RawType,
			flags:     uint64(s.Flags),
			addr:      s.Addr,
			link:      s.Link,
			info:      s.Info,
			addralign: s.Addralign,
			data:      s.Data,
		})
	}

	for i, s := range img.Sections {
		if len(s.Relocations) == 0 {
			continue
		}
		data, err := packRelas(s.Relocations, img.Order)
		if err != nil {
			return nil, fmt.Errorf("encoding relocations for section %q: %w", s.Name, err)
		}
		sections = append(sections, outSection{
			name:      ".rela" + s.Name,
			shType:    uint32(elf.SHT_RELA),
			link:      0, // filled in below once .symtab's index is known
			info:      uint32(i),
			addralign: 8,
			data:      data,
		})
	}

	symtabData, symtabInfo, err := packSymtab(img.Symbols, strtab, img.Order)
	if err != nil {
		return nil, err
	}
	symtabIdx := len(sections)
	sections = append(sections, outSection{
		name:      ".symtab",
		shType:    uint32(elf.SHT_SYMTAB),
		link:      0, // filled in below once .strtab's index is known
		info:      symtabInfo,
		addralign: 8,
		data:      symtabData,
	})

	for i := range sections {
		if sections[i].shType == uint32(elf.SHT_RELA) {
			sections[i].link = uint32(symtabIdx)
		}
	}

	strtabIdx := len(sections)
	sections = append(sections, outSection{
		name:   ".strtab",
		shType: uint32(elf.SHT_STRTAB),
		data:   strtab.data,
	})
	sections[symtabIdx].link = uint32(strtabIdx)

	shstrtabIdx := len(sections)
	sections = append(sections, outSection{
		name:   ".shstrtab",
		shType: uint32(elf.SHT_STRTAB),
		data:   shstrtab.data,
	})

	slog.Debug("encode: laid out sections", "count", len(sections), "shstrndx", shstrtabIdx)
	return serialize(img, sections, shstrtabIdx, shstrtab)
}

// packSymtab concatenates symbols into 24-byte records and returns the
// index of the first non-LOCAL symbol, for sh_info.
// Symbols are assumed already partitioned local-before-non-local (the
// link engine's reorder phase guarantees this for merged output, and
// Open's invariant check guarantees it for a straight decode/encode
// round trip).
func packSymtab(symbols []*image.Symbol, strtab *stringTable, order binary.ByteOrder) ([]byte, uint32, error) {
	var buf bytes.Buffer
	firstNonLocal := uint32(len(symbols))
	for i, s := range symbols {
		if s.Bind() != elf.STB_LOCAL {
			firstNonLocal = uint32(i)
			break
		}
	}
	for i, s := range symbols {
		rec := elf.Sym64{
			Name:  strtab.intern(s.Name),
			Info:  s.Info,
			Other: s.Other,
			Shndx: uint16(s.Shndx),
			Value: s.Value,
			Size:  s.Size,
		}
		bs, err := rawelf.PackSym(rec, order)
		if err != nil {
			return nil, 0, fmt.Errorf("symbol %d (%q): %w", i, s.Name, err)
		}
		buf.Write(bs)
	}
	return buf.Bytes(), firstNonLocal, nil
}
