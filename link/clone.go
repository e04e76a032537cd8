// Copyright 2021 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package link

import "github.com/andrewhalle/byo-linker/image"

// cloneImage makes a deep-enough copy of img that mutating the result's
// Sections/Symbols slices, or the structs they point to, never reaches
// back into img. Merge always operates on a clone of its left operand so
// a caller's *image.Image is never mutated out from under it; linking is
// not destructive to its inputs.
func cloneImage(img *image.Image) *image.Image {
	out := &image.Image{
		Type:       img.Type,
		Machine:    img.Machine,
		Flags:      img.Flags,
		OSABI:      img.OSABI,
		ABIVersion: img.ABIVersion,
		Order:      img.Order,
		Sections:   make([]*image.Section, len(img.Sections)),
		Symbols:    make([]*image.Symbol, len(img.Symbols)),
	}
	for i, s := range img.Sections {
		out.Sections[i] = cloneSection(s)
	}
	for i, s := range img.Symbols {
		cp := *s
		out.Symbols[i] = &cp
	}
	return out
}

func cloneSection(s *image.Section) *image.Section {
	cp := &image.Section{
		Name:      s.Name,
		Type:      s.Type,
		RawType:   s.RawType,
		Flags:     s.Flags,
		Addr:      s.Addr,
		Link:      s.Link,
		Info:      s.Info,
		Addralign: s.Addralign,
		Data:      append([]byte(nil), s.Data...),
	}
	if s.Relocations != nil {
		cp.Relocations = make([]*image.RelocationA, len(s.Relocations))
		for i, r := range s.Relocations {
			rc := *r
			cp.Relocations[i] = &rc
		}
	}
	return cp
}
