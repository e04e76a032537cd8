// Copyright 2021 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package link

import (
	"debug/elf"

	"github.com/andrewhalle/byo-linker/image"
)

// reorderSymbols is phase 3 of Merge: a.Symbols is
// stably partitioned so every LOCAL-bound symbol precedes every
// non-local one, with symbol 0 pinned in place, and every relocation
// in a.Sections is reindexed to follow.
//
// A relocation's old symbol index is interpreted one of two ways,
// depending on how it got into a.Sections this round:
//   - Merged == true: the relocation was cloned in by mergeSections this
//     round, so its symbol index is still in b's numbering and must go
//     through symbolMergeMap first.
//   - Merged == false: the relocation already belonged to a before this
//     round started, so its symbol index already refers to a position in
//     a.Symbols as it stood at the start of this round -- appends don't
//     disturb earlier indices, so that position is still valid going
//     into the partition below.
func reorderSymbols(a *image.Image, symbolMergeMap []int) {
	n := len(a.Symbols)
	order := make([]int, 1, n)
	order[0] = 0
	var nonlocal []int
	for i := 1; i < n; i++ {
		if a.Symbols[i].Bind() == elf.STB_LOCAL {
			order = append(order, i)
		} else {
			nonlocal = append(nonlocal, i)
		}
	}
	order = append(order, nonlocal...)

	newIndex := make([]int, n)
	reordered := make([]*image.Symbol, n)
	for newPos, oldPos := range order {
		newIndex[oldPos] = newPos
		reordered[newPos] = a.Symbols[oldPos]
	}
	a.Symbols = reordered

	for _, sec := range a.Sections {
		for _, r := range sec.Relocations {
			typ := r.Type()
			var preReorder uint64
			if r.Merged {
				preReorder = uint64(symbolMergeMap[r.Sym()])
			} else {
				preReorder = r.Sym()
			}
			r.SetInfo(uint64(newIndex[preReorder]), typ)
			r.Merged = false
		}
	}
}
