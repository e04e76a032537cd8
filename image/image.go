// Copyright 2021 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package image holds the logical model of an ELF64 relocatable object:
// string tables, symbol tables, and relocation tables are lifted out of
// the raw section array and hung off the first-class entities (a
// *Symbol*, a *Section*'s *Relocations*) they describe. Package rawelf
// only ever sees bytes; package image is where
// an object file becomes something a linker can reason about.
package image

import (
	"debug/elf"
	"encoding/binary"
)

// ByteOrder is the endianness of an Image, preserved from the input
// that produced it.
type ByteOrder = binary.ByteOrder

// Section index sentinels, carried over from debug/elf so callers don't
// need to import both packages to compare against them.
const (
	ShnUndef  = uint32(elf.SHN_UNDEF)  // 0: undefined symbol
	ShnAbs    = uint32(elf.SHN_ABS)    // 0xFFF1: absolute value, not relocated
	ShnCommon = uint32(elf.SHN_COMMON) // 0xFFF2: common block -- out of scope
)

// SectionType is a closed enumeration over the section types this
// linker understands. The raw sh_type value is always
// preserved in RawType, so an unrecognized-but-tolerated type could in
// principle round-trip even though this package currently rejects it at
// parse time (rawelf.Decode).
type SectionType uint32

const (
	TypeNull      SectionType = SectionType(elf.SHT_NULL)
	TypeProgbits  SectionType = SectionType(elf.SHT_PROGBITS)
	TypeSymtab    SectionType = SectionType(elf.SHT_SYMTAB)
	TypeStrtab    SectionType = SectionType(elf.SHT_STRTAB)
	TypeRela      SectionType = SectionType(elf.SHT_RELA)
	TypeUnwindX64 SectionType = 0x70000001
	TypeLoos      SectionType = 0x6FFF8003
)

func (t SectionType) String() string {
	switch t {
	case TypeNull:
		return "NULL"
	case TypeProgbits:
		return "PROGBITS"
	case TypeSymtab:
		return "SYMTAB"
	case TypeStrtab:
		return "STRTAB"
	case TypeRela:
		return "RELA"
	case TypeUnwindX64:
		return "UNWIND_X64"
	case TypeLoos:
		return "LOOS"
	default:
		return "UNKNOWN"
	}
}

// SectionFlags is a bitset over sh_flags, with named predicates for
// the flags the linker cares about.
type SectionFlags uint64

func (f SectionFlags) Write() bool { return f&SectionFlags(elf.SHF_WRITE) != 0 }
func (f SectionFlags) Alloc() bool { return f&SectionFlags(elf.SHF_ALLOC) != 0 }
func (f SectionFlags) Exec() bool  { return f&SectionFlags(elf.SHF_EXECINSTR) != 0 }

// Section is a primary section: everything in the input except string
// tables, symbol tables, and relocation tables, which are lifted out by
// organize and hung off the sections (Relocations) or discarded
// (string tables) that they describe.
type Section struct {
	Name      string
	Type      SectionType
	RawType   uint32 // preserved verbatim for faithful pass-through
	Flags     SectionFlags
	Addr      uint64
	Link      uint32
	Info      uint32
	Addralign uint64
	Data      []byte

	// Relocations is nil if no RELA section in the input addressed this
	// section. A present-but-empty slice is never produced.
	Relocations []*RelocationA
}

// Symbol is a materialized ELF symbol table entry with its name
// resolved and its section index remapped into Image.Sections.
type Symbol struct {
	Name  string
	Info  uint8
	Other uint8
	// Shndx is an index into Image.Sections, or one of ShnUndef/ShnAbs.
	Shndx uint32
	Value uint64
	Size  uint64
}

// Bind returns the symbol's binding (high nibble of Info): LOCAL,
// GLOBAL, or WEAK.
func (s *Symbol) Bind() elf.SymBind { return elf.ST_BIND(s.Info) }

// SetBind rewrites Info's binding nibble, preserving the type nibble.
func (s *Symbol) SetBind(b elf.SymBind) { s.Info = elf.ST_INFO(b, elf.ST_TYPE(s.Info)) }

// SymType returns the symbol's type (low nibble of Info).
func (s *Symbol) SymType() elf.SymType { return elf.ST_TYPE(s.Info) }

// RelocationA is a RELA-form relocation record (addend present),
// attached to the Section whose Data it patches.
type RelocationA struct {
	// Offset is within the owning Section's Data.
	Offset uint64
	// Info encodes (sym<<32 | type); use Sym/Type/SetInfo rather than
	// reading this directly.
	Info uint64
	// Addend is the signed addend input to Type.
	Addend int64

	// Merged is transient bookkeeping: true iff this relocation was
	// copied in from the incoming image during the current merge round,
	// either onto an existing section (Offset already biased by the
	// pre-merge length) or onto a freshly appended one (Offset unbiased).
	// Its symbol index is then still in the incoming image's numbering.
	// The relocation-reindex step (package link) consults this to pick
	// the correct symbol remap table.
	Merged bool
}

// Sym returns the symbol index encoded in Info.
func (r *RelocationA) Sym() uint64 { return r.Info >> 32 }

// Type returns the relocation type encoded in Info.
func (r *RelocationA) Type() uint32 { return uint32(r.Info) }

// SetInfo rewrites Info from a symbol index and relocation type.
func (r *RelocationA) SetInfo(sym uint64, typ uint32) { r.Info = sym<<32 | uint64(typ) }

// Image is the top-level aggregate: a decoded ELF64 relocatable object,
// or the accumulator the link engine folds incoming objects into.
type Image struct {
	// Type, Machine, and Flags are copied verbatim from the first input
	// file a linked output is derived from; they have no meaning to
	// merge across inputs.
	Type    elf.Type
	Machine elf.Machine
	Flags   uint32

	OSABI      elf.OSABI
	ABIVersion uint8

	// Order is the endianness of this image, preserved from the input
	// that produced it. All integer I/O for this image honors it.
	Order ByteOrder

	// Sections holds the ordered primary sections. Symbol Shndx
	// values and RelocationA ownership both index into this slice.
	Sections []*Section

	// Symbols holds every symbol, in index order. Invariant: all
	// symbols with LOCAL binding precede all non-local ones, and
	// symbol 0 is always the empty-named, SHN_UNDEF null symbol.
	Symbols []*Symbol
}
