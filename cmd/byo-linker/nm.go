// Copyright 2021 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/andrewhalle/byo-linker/image"
	"github.com/andrewhalle/byo-linker/symtab"
	"github.com/spf13/cobra"
)

// newNmCommand is a supplemental inspection verb, not part of the merge
// pipeline: it opens one object file and lists its symbols sorted by
// (section, offset), the way `nm` lists an object's symbol table. It
// exists to exercise package symtab's address index on real linker
// output, since a relocatable object has no single flat address space
// to sort by -- only per-section offsets.
func newNmCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "nm INPUT",
		Short: "List the symbols of a relocatable object file",
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

			tab := symtab.NewTable(img.Symbols)
			tab.BuildAddr(img)

			type row struct {
				section   string
				value     uint64
				size      uint64
				bind      string
				name      string
				enclosing string
			}
			var rows []row
			for _, s := range img.Symbols {
				if s.Name == "" {
					continue
				}
				section := "*UND*"
				var sec *image.Section
				if s.Shndx == image.ShnAbs {
					section = "*ABS*"
				} else if s.Shndx != image.ShnUndef {
					sec = img.Sections[s.Shndx]
					section = sec.Name + "[" + sectionFlagLetters(sec.Flags) + "]"
				}

				// Zero-size symbols are typically local labels (jump
				// targets, block boundaries) rather than standalone
				// objects; resolve which sized symbol's range they
				// fall inside, the way `nm -S` callers infer "this
				// label lives inside that function".
				var enclosing string
				if s.Size == 0 && sec != nil {
					if id := tab.Addr(sec, s.Value); id != symtab.NoSym {
						if encl := tab.Syms()[id]; encl != s {
							enclosing = fmt.Sprintf("%s+0x%x", encl.Name, s.Value-encl.Value)
						}
					}
				}

				rows = append(rows, row{section, s.Value, s.Size, s.Bind().String(), s.Name, enclosing})
			}
			sort.SliceStable(rows, func(i, j int) bool {
				if rows[i].section != rows[j].section {
					return rows[i].section < rows[j].section
				}
				return rows[i].value < rows[j].value
			})

			for _, r := range rows {
				if r.enclosing != "" {
					fmt.Printf("%016x %-8s %-12s %s (%s)\n", r.value, r.bind, r.section, r.name, r.enclosing)
					continue
				}
				fmt.Printf("%016x %-8s %-12s %s\n", r.value, r.bind, r.section, r.name)
			}

			opts.logger.Debug("nm: listed symbols", "path", args[0], "count", len(rows))
			return nil
		},
	}

	return cmd
}

// sectionFlagLetters renders a section's flags the way readelf's
// section listing does (one letter per set flag), so `nm`'s section
// column also says whether a symbol's home section is writable or
// executable, not just its name.
func sectionFlagLetters(f image.SectionFlags) string {
	var letters string
	if f.Write() {
		letters += "W"
	}
	if f.Alloc() {
		letters += "A"
	}
	if f.Exec() {
		letters += "X"
	}
	return letters
}
