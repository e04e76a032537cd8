// Copyright 2021 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package image

import "github.com/andrewhalle/byo-linker/rawelf"

// organize is the section-model lifter. It walks the flat,
// ELF-oriented section list once and classifies each entry:
//
//   - SYMTAB is captured as the unique symbol table; more than one fails.
//   - RELA sections are collected for the relocation-model builder.
//   - STRTAB sections are discarded as primary sections -- section names
//     were already resolved by rawelf.Decode, and buildSymbols reads
//     symbol names from raw.Sections directly.
//   - anything else (including the null section and PROGBITS/unwind/OS
//     sections) becomes a primary section, and its old index is recorded
//     in oldToNew.
//
// Afterward, every RELA section's target-section field is rewritten
// through oldToNew, so the rest of the linker only ever deals with
// primary-section indices.
func organize(raw *rawelf.Raw) (primary []*Section, symtab *rawelf.RawSection, relas []rawelf.RawSection, oldToNew map[int]int, err error) {
	oldToNew = make(map[int]int, len(raw.Sections))

	for i := range raw.Sections {
		rs := raw.Sections[i]
		switch SectionType(rs.Type) {
		case TypeSymtab:
			if symtab != nil {
				return nil, nil, nil, nil, structuralErrorf("more than one SYMTAB section (already have %q, found another at section %d)", symtab.Name, i)
			}
			cp := rs
			symtab = &cp
		case TypeRela:
			relas = append(relas, rs)
		case TypeStrtab:
			// Discarded: name resolution reads string tables from raw.Sections.
		default:
			oldToNew[i] = len(primary)
			primary = append(primary, &Section{
				Name:      rs.Name,
				Type:      SectionType(rs.Type),
				RawType:   rs.Type,
				Flags:     SectionFlags(rs.Flags),
				Addr:      rs.Addr,
				Link:      rs.Link,
				Info:      rs.Info,
				Addralign: rs.Addralign,
				Data:      rs.Data,
			})
		}
	}

	if symtab == nil {
		return nil, nil, nil, nil, structuralErrorf("no SYMTAB section present")
	}

	for i := range relas {
		target := int(relas[i].Info)
		newIdx, ok := oldToNew[target]
		if !ok {
			return nil, nil, nil, nil, structuralErrorf("RELA section %q targets filtered-out section %d", relas[i].Name, target)
		}
		relas[i].Info = uint32(newIdx)
	}

	return primary, symtab, relas, oldToNew, nil
}
