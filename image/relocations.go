// Copyright 2021 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package image

import (
	"fmt"

	"github.com/andrewhalle/byo-linker/rawelf"
)

// buildRelocations is the relocation-model builder. relas
// have already had their target-section field remapped to a primary
// section index by organize; this parses each one's RELA records and
// attaches them to the section they patch.
func buildRelocations(raw *rawelf.Raw, primary []*Section, relas []rawelf.RawSection) error {
	for _, rs := range relas {
		target := int(rs.Info)
		if target < 0 || target >= len(primary) {
			return fmt.Errorf("RELA section %q: remapped target %d out of range", rs.Name, target)
		}
		entries, err := rawelf.UnpackRelas(rs.Data, raw.Order)
		if err != nil {
			return fmt.Errorf("RELA section %q: %w", rs.Name, err)
		}
		sec := primary[target]
		for _, e := range entries {
			sec.Relocations = append(sec.Relocations, &RelocationA{
				Offset: e.Off,
				Info:   e.Info,
				Addend: e.Addend,
			})
		}
	}
	return nil
}
