// Copyright 2021 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package image

import (
	"fmt"

	"github.com/andrewhalle/byo-linker/rawelf"
)

// buildSymbols is the symbol-model builder: it parses
// symtab's bytes into a sequence of Symbol entries, resolving each name
// against the string table symtab.Link points to, and remapping each
// shndx through oldToNew (passing SHN_ABS and SHN_UNDEF through
// unchanged).
func buildSymbols(raw *rawelf.Raw, symtab *rawelf.RawSection, oldToNew map[int]int) ([]*Symbol, error) {
	entries, err := rawelf.UnpackSyms(symtab.Data, raw.Order)
	if err != nil {
		return nil, fmt.Errorf("symbol table: %w", err)
	}
	if len(entries) == 0 || entries[0].Name != 0 || entries[0].Shndx != 0 || entries[0].Info != 0 {
		return nil, structuralErrorf("symbol table is missing the null symbol at index 0")
	}

	strIdx := int(symtab.Link)
	if strIdx < 0 || strIdx >= len(raw.Sections) {
		return nil, structuralErrorf("symbol table sh_link %d out of range", strIdx)
	}
	strtab := raw.Sections[strIdx].Data

	symbols := make([]*Symbol, len(entries))
	for i, e := range entries {
		name := ""
		if e.Name != 0 {
			n, err := rawelf.CString(strtab, e.Name)
			if err != nil {
				return nil, fmt.Errorf("symbol %d name: %w", i, err)
			}
			name = n
		}

		shndx := uint32(e.Shndx)
		switch shndx {
		case ShnAbs, ShnUndef:
			// Passed through unchanged.
		case ShnCommon:
			return nil, structuralErrorf("symbol %d (%q): SHN_COMMON symbols are not supported", i, name)
		default:
			newIdx, ok := oldToNew[int(shndx)]
			if !ok {
				return nil, structuralErrorf("symbol %d (%q) references filtered-out section %d", i, name, shndx)
			}
			shndx = uint32(newIdx)
		}

		symbols[i] = &Symbol{
			Name:  name,
			Info:  e.Info,
			Other: e.Other,
			Shndx: shndx,
			Value: e.Value,
			Size:  e.Size,
		}
	}

	return symbols, nil
}
