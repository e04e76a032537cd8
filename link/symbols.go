// Copyright 2021 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package link

import (
	"log/slog"

	"github.com/andrewhalle/byo-linker/image"
)

// mergeSymbols is phase 2 of Merge: every symbol of b is reconciled
// against a's symbol table by name, except the null symbol at index 0,
// which always denotes a.Symbols[0] and is never looked up or
// appended. Index 0 staying the never-merged, never-deduplicated null
// entry is enforced here directly rather than left to fall out of
// section 0 happening to map to section 0.
//
// It returns, for each of b's symbol indices, the index into a.Symbols
// it now corresponds to.
func mergeSymbols(a, b *image.Image, sectionMergeMap []int, valueOffset []uint64) ([]int, error) {
	nameToIndex := make(map[string]int, len(a.Symbols))
	for i, s := range a.Symbols {
		if s.Name != "" {
			nameToIndex[s.Name] = i
		}
	}

	symbolMergeMap := make([]int, len(b.Symbols))

	for i, sym := range b.Symbols {
		if i == 0 {
			symbolMergeMap[0] = 0
			continue
		}

		if sym.Name != "" {
			if idx, ok := nameToIndex[sym.Name]; ok {
				existing := a.Symbols[idx]
				definedA := existing.Shndx != image.ShnUndef
				definedB := sym.Shndx != image.ShnUndef
				switch {
				case definedA && definedB:
					return nil, mergeConflictf("symbol %q is defined in both inputs", sym.Name)
				case !definedA && definedB:
					remapped := remapSymbol(sym, sectionMergeMap, valueOffset)
					*existing = *remapped
					slog.Debug("link: resolved previously undefined symbol", "name", sym.Name)
				}
				symbolMergeMap[i] = idx
				continue
			}
		}

		remapped := remapSymbol(sym, sectionMergeMap, valueOffset)
		a.Symbols = append(a.Symbols, remapped)
		idx := len(a.Symbols) - 1
		if sym.Name != "" {
			nameToIndex[sym.Name] = idx
		}
		symbolMergeMap[i] = idx
	}

	return symbolMergeMap, nil
}

// remapSymbol returns a copy of sym with its section reference
// translated from b's section numbering into a's, via the tables
// mergeSections produced. SHN_ABS and SHN_UNDEF symbols carry no
// section reference and are copied unchanged.
func remapSymbol(sym *image.Symbol, sectionMergeMap []int, valueOffset []uint64) *image.Symbol {
	cp := *sym
	if cp.Shndx != image.ShnAbs && cp.Shndx != image.ShnUndef {
		cp.Value += valueOffset[cp.Shndx]
		cp.Shndx = uint32(sectionMergeMap[cp.Shndx])
	}
	return &cp
}
