// Copyright 2021 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package encode_test

import (
	"bytes"
	"debug/elf"
	"encoding/binary"
	"testing"

	"github.com/andrewhalle/byo-linker/encode"
	"github.com/andrewhalle/byo-linker/image"
	"github.com/andrewhalle/byo-linker/rawelf"
)

func testImage() *image.Image {
	null := &image.Section{Type: image.TypeNull, Data: []byte{}}
	text := &image.Section{
		Name:      ".text",
		Type:      image.TypeProgbits,
		RawType:   uint32(elf.SHT_PROGBITS),
		Addralign: 1,
		Data:      bytes.Repeat([]byte{0x90}, 4),
	}
	empty := &image.Section{
		Name:    ".bss_like",
		Type:    image.TypeProgbits,
		RawType: uint32(elf.SHT_PROGBITS),
		Data:    []byte{},
	}
	local := &image.Symbol{Name: "loc", Shndx: 1, Value: 0, Size: 4}
	global := &image.Symbol{Name: "glob", Shndx: 1, Value: 0, Size: 4}
	global.SetBind(elf.STB_GLOBAL)

	text.Relocations = []*image.RelocationA{{Offset: 0, Addend: 0}}
	text.Relocations[0].SetInfo(2, uint32(elf.R_X86_64_PC32))

	return &image.Image{
		Type:     elf.ET_REL,
		Machine:  elf.EM_X86_64,
		Order:    binary.LittleEndian,
		Sections: []*image.Section{null, text, empty},
		Symbols:  []*image.Symbol{{}, local, global},
	}
}

func TestEncodeInvariants(t *testing.T) {
	img := testImage()
	data, err := encode.Encode(img)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	got, err := image.Open(data)
	if err != nil {
		t.Fatalf("re-opening encoded output: %v", err)
	}

	if len(got.Sections) != 3 {
		t.Fatalf("got %d sections, want 3 (null, .text, .bss_like)", len(got.Sections))
	}
	if len(got.Sections[2].Data) != 0 {
		t.Errorf(".bss_like survived re-encode as %d bytes, want 0", len(got.Sections[2].Data))
	}

	// Package image lifts string and symbol tables out during organize,
	// so none of the synthesized .shstrtab/.strtab/.symtab sections may
	// show up as a primary section after re-decoding. This checks their
	// section types, not their position; the canonical layout
	// (.shstrtab last, e_shstrndx naming it) is checked by
	// TestEncodeSectionTableLayout.
	for _, s := range got.Sections {
		switch s.Name {
		case ".strtab", ".shstrtab", ".symtab":
			t.Errorf("synthesized table %q leaked into primary sections", s.Name)
		}
	}

	if len(got.Symbols) != 3 {
		t.Fatalf("got %d symbols, want 3", len(got.Symbols))
	}
	locals, nonlocals := 0, 0
	sawLocalAfterNonlocal := false
	seenNonlocal := false
	for _, s := range got.Symbols {
		if s.Bind() == elf.STB_LOCAL {
			locals++
			if seenNonlocal {
				sawLocalAfterNonlocal = true
			}
		} else {
			nonlocals++
			seenNonlocal = true
		}
	}
	if sawLocalAfterNonlocal {
		t.Error("a local symbol follows a non-local one; sh_info's local/non-local split is violated")
	}
	if locals != 2 { // null + loc
		t.Errorf("got %d local symbols, want 2", locals)
	}
	if nonlocals != 1 {
		t.Errorf("got %d non-local symbols, want 1", nonlocals)
	}

	if len(got.Sections[1].Relocations) != 1 {
		t.Fatalf("got %d relocations on .text, want 1", len(got.Sections[1].Relocations))
	}
	if got.Sections[1].Relocations[0].Sym() != 2 {
		t.Errorf("relocation sym = %d, want 2 (glob)", got.Sections[1].Relocations[0].Sym())
	}
	if got.Sections[1].Relocations[0].Type() != uint32(elf.R_X86_64_PC32) {
		t.Errorf("relocation type changed across round trip")
	}
}

// The emitted section header table must put .shstrtab last with
// e_shstrndx naming it, point .symtab's sh_info at the first non-local
// symbol, and wire every rela section's sh_link to .symtab and sh_info
// to the section it relocates.
func TestEncodeSectionTableLayout(t *testing.T) {
	img := testImage()
	data, err := encode.Encode(img)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	raw, err := rawelf.Decode(data)
	if err != nil {
		t.Fatalf("rawelf.Decode(Encode(img)): %v", err)
	}

	if got := raw.Sections[len(raw.Sections)-1].Name; got != ".shstrtab" {
		t.Errorf("last section = %q, want .shstrtab", got)
	}
	if int(raw.Header.Shstrndx) != len(raw.Sections)-1 {
		t.Errorf("e_shstrndx = %d, want %d", raw.Header.Shstrndx, len(raw.Sections)-1)
	}

	byName := make(map[string]int, len(raw.Sections))
	for i := range raw.Sections {
		byName[raw.Sections[i].Name] = i
	}
	symtabIdx, ok := byName[".symtab"]
	if !ok {
		t.Fatal("no .symtab section in encoded output")
	}
	symtab := raw.Sections[symtabIdx]
	if symtab.Info != 2 {
		t.Errorf(".symtab sh_info = %d, want 2 (null + loc are LOCAL)", symtab.Info)
	}
	if symtab.Entsize != rawelf.SymSize {
		t.Errorf(".symtab sh_entsize = %d, want %d", symtab.Entsize, rawelf.SymSize)
	}
	if int(symtab.Link) != byName[".strtab"] {
		t.Errorf(".symtab sh_link = %d, want .strtab at %d", symtab.Link, byName[".strtab"])
	}

	relaIdx, ok := byName[".rela.text"]
	if !ok {
		t.Fatal("no .rela.text section in encoded output")
	}
	rela := raw.Sections[relaIdx]
	if int(rela.Link) != symtabIdx {
		t.Errorf(".rela.text sh_link = %d, want .symtab at %d", rela.Link, symtabIdx)
	}
	if int(rela.Info) != byName[".text"] {
		t.Errorf(".rela.text sh_info = %d, want .text at %d", rela.Info, byName[".text"])
	}
}

func TestEncodeDeterministic(t *testing.T) {
	img := testImage()
	a, err := encode.Encode(img)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	b, err := encode.Encode(testImage())
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if !bytes.Equal(a, b) {
		t.Error("Encode produced different bytes for two structurally identical images")
	}
}

func TestEncodePreservesEndianness(t *testing.T) {
	img := testImage()
	img.Order = binary.BigEndian
	data, err := encode.Encode(img)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, err := image.Open(data)
	if err != nil {
		t.Fatalf("re-opening big-endian output: %v", err)
	}
	if got.Order != binary.BigEndian {
		t.Errorf("Order = %v, want BigEndian", got.Order)
	}
}
