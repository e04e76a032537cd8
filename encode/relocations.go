// Copyright 2021 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package encode

import (
	"bytes"
	"debug/elf"
	"encoding/binary"
	"fmt"

	"github.com/andrewhalle/byo-linker/image"
	"github.com/andrewhalle/byo-linker/rawelf"
)

// packRelas concatenates a section's relocations into 24-byte RELA
// records, in their current order.
func packRelas(relocs []*image.RelocationA, order binary.ByteOrder) ([]byte, error) {
	var buf bytes.Buffer
	for i, r := range relocs {
		rec := elf.Rela64{
			Off:    r.Offset,
			Info:   r.Info,
			Addend: r.Addend,
		}
		bs, err := rawelf.PackRela(rec, order)
		if err != nil {
			return nil, fmt.Errorf("relocation %d: %w", i, err)
		}
		buf.Write(bs)
	}
	return buf.Bytes(), nil
}
