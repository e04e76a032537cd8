// Copyright 2018 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package symtab

import (
	"fmt"
	"testing"

	"github.com/andrewhalle/byo-linker/image"
)

func globalSym(name string, shndx uint32, value, size uint64) *image.Symbol {
	s := &image.Symbol{Name: name, Shndx: shndx, Value: value, Size: size}
	s.SetBind(1) // STB_GLOBAL
	return s
}

func TestAddr(t *testing.T) {
	null := &image.Section{Name: ""}
	section1 := &image.Section{Name: "section1"}
	section2 := &image.Section{Name: "section2"}
	img := &image.Image{Sections: []*image.Section{null, section1, section2}}

	syms := []*image.Symbol{
		globalSym("a", 1, 1000, 10),
		globalSym("b", 1, 1050, 10),
		globalSym("c", 2, 2000, 10),
	}
	tab := NewTable(syms)
	tab.BuildAddr(img)

	check := func(label string, section *image.Section, addr uint64, want SymID) {
		t.Helper()
		got := tab.Addr(section, addr)
		if want != got {
			t.Errorf("%s: looking up (%v, %d) want %d, got %d", label, section, addr, want, got)
		}
	}

	check("beginning of symbol", section1, 1000, 0)
	check("beginning of symbol", section1, 1050, 1)
	check("beginning of symbol", section2, 2000, 2)

	check("end of symbol", section1, 1009, 0)
	check("end of symbol", section1, 1059, 1)
	check("just past end of symbol", section1, 1010, NoSym)
	check("just past end of symbol", section1, 1060, NoSym)

	check("wrong section", section2, 1000, NoSym)
	check("before first symbol", section1, 100, NoSym)

	unknown := &image.Section{Name: "unknown"}
	check("section with no symbols", unknown, 1000, NoSym)
}

func TestName(t *testing.T) {
	local := &image.Symbol{Name: "sym3", Value: 1002, Size: 10}
	local.SetBind(0) // STB_LOCAL

	syms := []*image.Symbol{
		globalSym("sym0", 0, 1000, 10),
		globalSym("sym1", 0, 1001, 0),
		globalSym("sym2", 1, 3000, 0),
		local,
	}
	tab := NewTable(syms)

	check := func(label, name string, want SymID) {
		t.Helper()
		got := tab.Name(name)
		if want != got {
			t.Errorf("%s: looking up %s want %d, got %d", label, name, want, got)
		}
	}

	check("symbol with size", "sym0", 0)
	check("symbol without size", "sym1", 1)
	check("local symbol", "sym3", NoSym)
	check("unknown symbol", "sym100", NoSym)
}

func TestSyms(t *testing.T) {
	syms := []*image.Symbol{
		globalSym("a", 0, 1000, 10),
		globalSym("b", 0, 1010, 10),
	}
	tab := NewTable(syms)
	got := tab.Syms()
	if len(got) != len(syms) {
		t.Fatalf("want %d symbols, got %d", len(syms), len(got))
	}
	for i := range syms {
		if got[i] != syms[i] {
			t.Fatalf("symbol %d: want %v, got %v", i, syms[i], got[i])
		}
	}
}

func TestOverlap(t *testing.T) {
	null := &image.Section{Name: ""}
	section1 := &image.Section{Name: "section1"}
	img := &image.Image{Sections: []*image.Section{null, section1}}

	const minAddr = 1000
	type bound struct{ value, size uint64 }
	bounds := []bound{
		// Strictly nested.
		{1000, 3}, {1001, 1},
		// Same beginning; smaller symbols preferred.
		{1010, 5}, {1010, 4}, {1010, 3},
		// Same end.
		{1020, 5}, {1021, 4}, {1022, 3},
		// Overlap in the middle with same size; later-starting symbol preferred.
		{1030, 5}, {1032, 5},
		// Nested abutting symbols.
		{1040, 5}, {1041, 1}, {1042, 1},
		// Same end nested in another symbol.
		{1050, 5}, {1051, 2}, {1052, 1},
		// Totally overlapping; lower SymIDs preferred.
		{1060, 1}, {1060, 1},
	}
	const maxAddr = 1070

	syms := make([]*image.Symbol, len(bounds))
	for i, b := range bounds {
		syms[i] = globalSym(fmt.Sprintf("sym%d", i), 1, b.value, b.size)
	}

	prefer := func(a, b SymID) bool {
		sa, sb := syms[a], syms[b]
		if sa.Value != sb.Value {
			return sa.Value > sb.Value
		}
		if sa.Size != sb.Size {
			return sa.Size < sb.Size
		}
		return a < b
	}
	slow := func(addr uint64) SymID {
		best := NoSym
		for i := range syms {
			if syms[i].Value <= addr && addr < syms[i].Value+syms[i].Size {
				if best == NoSym || prefer(i, best) {
					best = i
				}
			}
		}
		return best
	}

	tab := NewTable(syms)
	tab.BuildAddr(img)
	for addr := uint64(minAddr); addr < maxAddr; addr++ {
		want := slow(addr)
		got := tab.Addr(section1, addr)
		if want != got {
			t.Errorf("at address %d: want symbol %d, got %d", addr, want, got)
		}
	}
}
