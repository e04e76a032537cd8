// Copyright 2021 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package image

import (
	"debug/elf"
	"fmt"
	"log/slog"

	"github.com/andrewhalle/byo-linker/rawelf"
)

// Open decodes data as an ELF64 relocatable object and lifts it into
// the logical Image model: raw decode (rawelf.Decode), section-model
// lifting (organize), symbol materialization, and relocation
// attachment, in one pass. This is the single entry point a caller
// needs.
func Open(data []byte) (*Image, error) {
	raw, err := rawelf.Decode(data)
	if err != nil {
		return nil, err
	}

	if raw.Header.Type != uint16(elf.ET_REL) {
		return nil, structuralErrorf("e_type %s is not ET_REL; only relocatable objects are supported", elf.Type(raw.Header.Type))
	}

	primary, symtab, relas, oldToNew, err := organize(raw)
	if err != nil {
		return nil, err
	}

	symbols, err := buildSymbols(raw, symtab, oldToNew)
	if err != nil {
		return nil, err
	}

	if err := buildRelocations(raw, primary, relas); err != nil {
		return nil, err
	}

	img := &Image{
		Type:       elf.Type(raw.Header.Type),
		Machine:    elf.Machine(raw.Header.Machine),
		Flags:      raw.Header.Flags,
		OSABI:      elf.OSABI(raw.Header.Ident[7]),
		ABIVersion: raw.Header.Ident[8],
		Order:      raw.Order,
		Sections:   primary,
		Symbols:    symbols,
	}

	if err := img.validate(); err != nil {
		return nil, fmt.Errorf("internal consistency check failed: %w", err)
	}

	slog.Debug("image: opened object", "machine", img.Machine, "sections", len(img.Sections), "symbols", len(img.Symbols))
	return img, nil
}

// validate re-checks the model's structural invariants after
// organize/buildSymbols/buildRelocations have run.
func (img *Image) validate() error {
	if len(img.Symbols) == 0 || img.Symbols[0].Name != "" || img.Symbols[0].Shndx != ShnUndef {
		return structuralErrorf("symbol 0 is not the empty-named, SHN_UNDEF null symbol")
	}
	seenNonLocal := false
	for i, s := range img.Symbols {
		if s.Bind() != elf.STB_LOCAL {
			seenNonLocal = true
		} else if seenNonLocal {
			return structuralErrorf("local symbol %d (%q) follows a non-local one", i, s.Name)
		}
	}
	for i, s := range img.Symbols {
		if s.Shndx == ShnUndef || s.Shndx == ShnAbs {
			continue
		}
		if int(s.Shndx) >= len(img.Sections) {
			return structuralErrorf("symbol %d (%q) has out-of-range shndx %d", i, s.Name, s.Shndx)
		}
	}
	for _, sec := range img.Sections {
		for _, r := range sec.Relocations {
			if int(r.Sym()) >= len(img.Symbols) {
				return structuralErrorf("relocation in section %q references out-of-range symbol %d", sec.Name, r.Sym())
			}
		}
	}
	return nil
}
