// Copyright 2021 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package asm disassembles the bytes of a linked object's section for
// inspection, the way `byo-linker disasm` does (cmd/byo-linker/disasm.go).
// This linker only ever produces/consumes x86-64 relocatable objects,
// so the architecture dispatch below only wires up x86asm;
// it's kept as a switch rather than collapsed into a single function so
// a second architecture has an obvious place to land.
package asm

import (
	"fmt"

	"github.com/andrewhalle/byo-linker/arch"
)

// Disasm disassembles text for the given architecture. pc is the
// section-relative (or, for a fully linked object, absolute) address
// at which text begins, used to annotate each decoded instruction.
func Disasm(arch *arch.Arch, text []byte, pc uint64) (Seq, error) {
	switch arch.GoArch {
	case "amd64":
		return disasmX86(text, pc, 64), nil
	case "386":
		return disasmX86(text, pc, 32), nil
	}
	return nil, fmt.Errorf("unsupported assembly architecture: %s", arch)
}

// Seq is a decoded sequence of instructions, indexable in file order.
type Seq interface {
	Len() int
	Get(i int) Inst
}

// Inst is a single decoded machine instruction.
type Inst interface {
	// GoSyntax returns the Go assembler syntax representation of
	// this instruction. symName, if non-nil, must return the name
	// and base of the symbol containing address addr, or "" if
	// symbol lookup fails. cmd/byo-linker's disasm verb supplies one
	// backed by package symtab so branch/call targets print as
	// symbol+offset instead of a bare address.
	GoSyntax(symName func(addr uint64) (string, uint64)) string

	// PC returns the address this instruction was decoded at.
	PC() uint64

	// Len returns the length of this instruction in bytes.
	Len() int
}
