// Copyright 2021 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"

	"github.com/andrewhalle/byo-linker/arch"
	"github.com/andrewhalle/byo-linker/asm"
	"github.com/andrewhalle/byo-linker/image"
	"github.com/andrewhalle/byo-linker/symtab"
	"github.com/spf13/cobra"
)

// newDisasmCommand is a supplemental inspection verb, not part of the
// merge pipeline: it decodes one object file and disassembles a named
// section's bytes using the x86-64 decoder.
func newDisasmCommand(opts *rootOptions) *cobra.Command {
	var section string

	cmd := &cobra.Command{
		Use:   "disasm INPUT",
		Short: "Disassemble one section of a relocatable object file",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading %s: %w", args[0], err)
			}

			img, err := image.Open(data)
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}

			var target *image.Section
			for _, s := range img.Sections {
				if s.Name == section {
					target = s
					break
				}
			}
			if target == nil {
				return fmt.Errorf("%s: no section named %q", args[0], section)
			}

			seq, err := asm.Disasm(arch.AMD64, target.Data, target.Addr)
			if err != nil {
				return fmt.Errorf("disassembling %q: %w", section, err)
			}

			tab := symtab.NewTable(img.Symbols)
			tab.BuildAddr(img)
			symname := func(addr uint64) (string, uint64) {
				id := tab.Addr(target, addr-target.Addr)
				if id == symtab.NoSym {
					return "", 0
				}
				sym := tab.Syms()[id]
				return sym.Name, sym.Value + target.Addr
			}

			for i := 0; i < seq.Len(); i++ {
				inst := seq.Get(i)
				fmt.Printf("%8x: %s\n", inst.PC(), inst.GoSyntax(symname))
			}

			return nil
		},
	}

	cmd.Flags().StringVarP(&section, "section", "s", ".text", "name of the section to disassemble")

	return cmd
}
