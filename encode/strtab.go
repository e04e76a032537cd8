// Copyright 2021 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package encode serializes a logical *image.Image back into an ELF64
// relocatable object: string tables, the symbol table, per-section RELA
// tables, the section header array, and the file header.
package encode

// stringTable accumulates unique non-empty names and their offsets, in
// first-seen order, starting from a single leading NUL. Built fresh for
// every Encode call so repeated calls on the same image produce
// byte-identical tables.
type stringTable struct {
	data    []byte
	offsets map[string]uint32
}

func newStringTable() *stringTable {
	return &stringTable{data: []byte{0}, offsets: map[string]uint32{}}
}

// intern returns name's offset into the table, adding it if this is the
// first time it's been seen. The empty string always maps to offset 0,
// the leading NUL every ELF string table starts with.
func (t *stringTable) intern(name string) uint32 {
	if name == "" {
		return 0
	}
	if off, ok := t.offsets[name]; ok {
		return off
	}
	off := uint32(len(t.data))
	t.data = append(t.data, []byte(name)...)
	t.data = append(t.data, 0)
	t.offsets[name] = off
	return off
}
