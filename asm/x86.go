// Copyright 2021 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asm

import (
	"golang.org/x/arch/x86/x86asm"
)

// disasmX86 walks text one instruction at a time with x86asm.Decode,
// annotating each with its address. A byte that fails to decode (an
// unrecognized opcode, a truncated instruction at the end of text) is
// recorded as a one-byte placeholder instruction rather than aborting
// the whole section -- linked .text sections routinely trail off into
// padding or data the decoder was never meant to see.
func disasmX86(text []byte, pc uint64, bits int) Seq {
	var out x86Seq
	for len(text) > 0 {
		inst, err := x86asm.Decode(text, bits)
		size := inst.Len
		if err != nil || size == 0 || inst.Op == 0 {
			inst = x86asm.Inst{}
		}
		if size == 0 {
			size = 1
		}
		out = append(out, x86Inst{inst, pc})

		text = text[size:]
		pc += uint64(size)
	}
	return out
}

type x86Seq []x86Inst

func (s x86Seq) Len() int {
	return len(s)
}

func (s x86Seq) Get(i int) Inst {
	return &s[i]
}

type x86Inst struct {
	x86asm.Inst
	pc uint64
}

func (i *x86Inst) GoSyntax(symname func(uint64) (string, uint64)) string {
	if i.Op == 0 {
		return "?"
	}
	return x86asm.GoSyntax(i.Inst, i.pc, symname)
}

func (i *x86Inst) PC() uint64 {
	return i.pc
}

func (i *x86Inst) Len() int {
	return i.Inst.Len
}
