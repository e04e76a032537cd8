// Copyright 2021 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package symtab implements symbol table lookup by name and by
// section-relative address, for the linked symbols that come out of
// package link. Relocatable objects have no virtual addresses, only
// section-relative offsets in Symbol.Value, so lookup is always scoped
// to a *image.Section rather than a flat address space.
package symtab

import (
	"sort"

	"github.com/andrewhalle/byo-linker/image"
)

// NoSym is the SymID returned when a lookup fails.
const NoSym = -1

// SymID indexes a Table's backing symbol slice.
type SymID = int

// Table facilitates fast symbol lookup by name and by (section, offset).
type Table struct {
	syms []*image.Symbol

	// sections maps each section to an address index over the symbols
	// that live in it. Symbols with Shndx == ShnUndef or ShnAbs carry
	// no section and are omitted from every section's index.
	sections map[*image.Section]sectionTable

	// name indexes non-local symbols by name. A name may not be
	// unique if a weak symbol was never promoted, so lookup reports
	// whichever NewTable saw first.
	name map[string]SymID
}

type sectionTable struct {
	// addr holds symbol-boundary markers in Table.syms, ordered by
	// offset. See makeAddrIndex for the overlap-handling rules.
	addr []symAddr
}

type symAddr struct {
	addr uint64
	id   SymID
}

// NewTable indexes syms for lookup. syms is indexed by SymID, i.e. the
// position of a symbol in this slice is its SymID -- callers typically
// pass img.Symbols directly.
func NewTable(syms []*image.Symbol) *Table {
	name := make(map[string]SymID)
	for i, s := range syms {
		if s.Name != "" && s.Bind() != bindLocal {
			if _, ok := name[s.Name]; !ok {
				name[s.Name] = i
			}
		}
	}

	return &Table{syms: syms, sections: make(map[*image.Section]sectionTable), name: name}
}

// BuildAddr populates the per-section address index for img, associating
// each section pointer in img.Sections with the non-zero-size symbols
// that reference it by Shndx; zero-size symbols are not indexed, so Addr
// never returns one. Split from NewTable because the Table only needs the
// symbols themselves (and their names) to answer Name lookups, while
// Addr lookups need to know which *image.Section each Shndx denotes.
func (t *Table) BuildAddr(img *image.Image) {
	sectionSyms := make(map[*image.Section][]SymID)
	for i, s := range t.syms {
		if s.Shndx == image.ShnUndef || s.Shndx == image.ShnAbs || s.Size == 0 {
			continue
		}
		if int(s.Shndx) >= len(img.Sections) {
			continue
		}
		sec := img.Sections[s.Shndx]
		sectionSyms[sec] = append(sectionSyms[sec], i)
	}
	for sec, ids := range sectionSyms {
		t.sections[sec] = sectionTable{makeAddrIndex(t.syms, ids)}
	}
}

func makeAddrIndex(syms []*image.Symbol, ids []SymID) []symAddr {
	// Sort by starting address then priority, with low priority symbols
	// before higher priority so the higher priority ones override the
	// lower priority as we loop over the slice.
	sort.Slice(ids, func(i, j int) bool {
		si, sj := syms[ids[i]], syms[ids[j]]

		if si.Value != sj.Value {
			return si.Value < sj.Value
		}
		if si.Size != sj.Size {
			return si.Size > sj.Size
		}
		return ids[i] > ids[j]
	})

	// Create the address index. This would be trivial except that
	// symbols can and do overlap. We iterate through each symbol
	// *boundary* (beginning and end) and keep a stack of symbols at
	// the current address (lowest end address at top of stack).
	var out []symAddr
	stack := make([]symAddr, 0, 8)
	drainStack := func(addr uint64) {
		for len(stack) > 0 {
			endAddr := stack[len(stack)-1].addr
			if endAddr > addr {
				return
			}
			for len(stack) > 0 && stack[len(stack)-1].addr == endAddr {
				stack = stack[:len(stack)-1]
			}
			if len(stack) > 0 {
				out = append(out, symAddr{endAddr, stack[len(stack)-1].id})
			}
		}
	}
	for _, id := range ids {
		sym := syms[id]
		if len(stack) == 1 {
			if stack[0].addr <= sym.Value {
				stack = stack[:0]
			}
		} else if len(stack) > 0 {
			drainStack(sym.Value)
		}
		start := symAddr{sym.Value, id}
		if len(out) > 0 && out[len(out)-1].addr == sym.Value {
			out[len(out)-1] = start
		} else {
			out = append(out, start)
		}
		stack = append(stack, symAddr{sym.Value + sym.Size, id})
		if len(stack) > 1 {
			for i := len(stack) - 1; i >= 1 && stack[i].addr > stack[i-1].addr; i-- {
				stack[i], stack[i-1] = stack[i-1], stack[i]
			}
		}
	}
	drainStack(^uint64(0))

	return out
}

// Syms returns all symbols in Table, indexable by SymID. The caller
// must not modify the returned slice.
func (t *Table) Syms() []*image.Symbol {
	return t.syms
}

// Name returns the (global) symbol with the given name, or NoSym.
func (t *Table) Name(name string) SymID {
	if i, ok := t.name[name]; ok {
		return i
	}
	return NoSym
}

// Addr returns the symbol containing offset addr within section, or
// NoSym if none covers it. This symbol may not be unique, in which
// case Addr prioritizes the symbol with the latest starting address,
// followed by the symbol with the smallest size.
func (t *Table) Addr(section *image.Section, addr uint64) SymID {
	tab, ok := t.sections[section]
	if !ok {
		return NoSym
	}
	i := sort.Search(len(tab.addr), func(i int) bool {
		return addr < tab.addr[i].addr
	}) - 1
	if i < 0 {
		return NoSym
	}
	id := tab.addr[i].id
	sym := t.syms[id]
	if sym.Value+sym.Size <= addr {
		return NoSym
	}
	return id
}

const bindLocal = 0 // elf.STB_LOCAL, duplicated to avoid importing debug/elf just for this comparison
