// Copyright 2021 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package link

import (
	"bytes"
	"log/slog"

	"github.com/andrewhalle/byo-linker/image"
)

// mergeSections is phase 1 of Merge: every section of b is
// either folded into the like-named section of a, or appended to a as a
// new section. It returns, for each of b's section indices, the index
// in a.Sections it now corresponds to and the byte offset its data was
// appended at (0 for a freshly appended section).
//
// Every relocation b's sections carried is cloned onto the
// corresponding a section with RelocationA.Merged set, regardless of
// which branch placed it -- phase 3 needs a uniform signal for "this
// relocation's symbol index is still in b's numbering", and a section
// appended wholesale is exactly as unconverted as one whose data was
// folded into an existing section.
func mergeSections(a, b *image.Image) (sectionMergeMap []int, valueOffset []uint64, err error) {
	nameToIndex := make(map[string]int, len(a.Sections))
	for i, s := range a.Sections {
		nameToIndex[s.Name] = i
	}

	sectionMergeMap = make([]int, len(b.Sections))
	valueOffset = make([]uint64, len(b.Sections))

	for i, s := range b.Sections {
		if idx, ok := nameToIndex[s.Name]; ok {
			e := a.Sections[idx]
			offset, err := foldSectionData(e, s)
			if err != nil {
				return nil, nil, err
			}
			attachRelocations(e, s, offset)
			sectionMergeMap[i] = idx
			valueOffset[i] = offset
			slog.Debug("link: folded section", "name", s.Name, "into", idx, "offset", offset)
			continue
		}

		clone := cloneSection(s)
		clone.Relocations = nil
		a.Sections = append(a.Sections, clone)
		idx := len(a.Sections) - 1
		attachRelocations(clone, s, 0)
		nameToIndex[s.Name] = idx
		sectionMergeMap[i] = idx
		valueOffset[i] = 0
		slog.Debug("link: appended new section", "name", s.Name, "at", idx)
	}

	return sectionMergeMap, valueOffset, nil
}

// foldSectionData appends s's bytes onto e's, padding e's existing data
// out to s's alignment requirement with 0xFF filler first, and returns
// the offset the appended data starts at.
func foldSectionData(e, s *image.Section) (uint64, error) {
	if e.Type != s.Type || e.Flags != s.Flags || e.Addr != s.Addr || e.Addralign != s.Addralign {
		return 0, mergeConflictf("section %q: incompatible type/flags/addr/addralign across inputs", e.Name)
	}

	align := e.Addralign
	if align == 0 {
		align = 1
	}
	l := uint64(len(e.Data))
	if rem := l % align; rem != 0 {
		pad := align - rem
		e.Data = append(e.Data, bytes.Repeat([]byte{0xFF}, int(pad))...)
		l += pad
	}
	e.Data = append(e.Data, s.Data...)
	return l, nil
}

// attachRelocations clones src's relocations onto target, biasing each
// offset and tagging it as merged so phase 3 knows its symbol index
// still needs translation through this round's symbol_merge_map.
func attachRelocations(target, src *image.Section, offset uint64) {
	for _, r := range src.Relocations {
		target.Relocations = append(target.Relocations, &image.RelocationA{
			Offset: r.Offset + offset,
			Info:   r.Info,
			Addend: r.Addend,
			Merged: true,
		})
	}
}
