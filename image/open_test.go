// Copyright 2021 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package image_test

import (
	"bytes"
	"debug/elf"
	"encoding/binary"
	"testing"

	"github.com/andrewhalle/byo-linker/encode"
	"github.com/andrewhalle/byo-linker/image"
)

// buildImage returns a minimal, valid image: a null section at index 0
// (mirroring the reserved SHN_UNDEF convention real ELF objects always
// carry), one PROGBITS ".text" section with a local and a global
// symbol, and a RELA at offset 0 of .text that references the global
// symbol.
func buildImage() *image.Image {
	null := &image.Section{Type: image.TypeNull, Data: []byte{}}
	text := &image.Section{
		Name:      ".text",
		Type:      image.TypeProgbits,
		RawType:   uint32(elf.SHT_PROGBITS),
		Addralign: 1,
		Data:      bytes.Repeat([]byte{0x90}, 8),
	}
	local := &image.Symbol{Name: "local_fn", Shndx: 1, Value: 0, Size: 4}
	local.SetBind(elf.STB_LOCAL)
	global := &image.Symbol{Name: "global_fn", Shndx: 1, Value: 4, Size: 4}
	global.SetBind(elf.STB_GLOBAL)

	text.Relocations = []*image.RelocationA{
		{Offset: 0, Addend: 0},
	}
	text.Relocations[0].SetInfo(2, uint32(elf.R_X86_64_PC32))

	return &image.Image{
		Type:     elf.ET_REL,
		Machine:  elf.EM_X86_64,
		OSABI:    elf.ELFOSABI_NONE,
		Order:    binary.LittleEndian,
		Sections: []*image.Section{null, text},
		Symbols:  []*image.Symbol{{}, local, global},
	}
}

func TestOpenRoundTrip(t *testing.T) {
	img := buildImage()
	data, err := encode.Encode(img)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	got, err := image.Open(data)
	if err != nil {
		t.Fatalf("Open(Encode(img)): %v", err)
	}

	if len(got.Sections) != 2 || got.Sections[1].Name != ".text" {
		t.Fatalf("Sections = %+v, want [null, .text]", got.Sections)
	}
	if !bytes.Equal(got.Sections[1].Data, img.Sections[1].Data) {
		t.Errorf(".text data = %x, want %x", got.Sections[1].Data, img.Sections[1].Data)
	}
	if len(got.Sections[1].Relocations) != 1 {
		t.Fatalf("got %d relocations on .text, want 1", len(got.Sections[1].Relocations))
	}
	if got.Sections[1].Relocations[0].Sym() != 2 {
		t.Errorf("relocation sym = %d, want 2", got.Sections[1].Relocations[0].Sym())
	}

	if len(got.Symbols) != 3 {
		t.Fatalf("got %d symbols, want 3", len(got.Symbols))
	}
	if got.Symbols[0].Name != "" || got.Symbols[0].Shndx != image.ShnUndef {
		t.Errorf("symbol 0 = %+v, want the empty null symbol", got.Symbols[0])
	}
	if got.Symbols[1].Name != "local_fn" || got.Symbols[2].Name != "global_fn" {
		t.Errorf("symbol names = [%q %q], want [local_fn global_fn]", got.Symbols[1].Name, got.Symbols[2].Name)
	}
}
