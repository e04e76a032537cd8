// Copyright 2021 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rawelf

import (
	"bytes"
	"debug/elf"
	"encoding/binary"
	"fmt"

	"github.com/lunixbochs/struc"
)

// SymSize and RelaSize are the fixed on-disk sizes of an ELF64 symbol
// table entry and RELA relocation entry.
const (
	SymSize  = 24
	RelaSize = 24
)

func pack(v any, order binary.ByteOrder) ([]byte, error) {
	var buf bytes.Buffer
	if err := struc.PackWithOptions(&buf, v, &struc.Options{Order: order}); err != nil {
		return nil, fmt.Errorf("packing %T: %w", v, err)
	}
	return buf.Bytes(), nil
}

// PackHeader serializes an ELF64 file header.
func PackHeader(hdr elf.Header64, order binary.ByteOrder) ([]byte, error) {
	return pack(&hdr, order)
}

// PackSectionHeader serializes one 64-byte ELF64 section header entry.
func PackSectionHeader(sh elf.Section64, order binary.ByteOrder) ([]byte, error) {
	return pack(&sh, order)
}

// PackSym serializes one 24-byte ELF64 symbol table entry.
func PackSym(sym elf.Sym64, order binary.ByteOrder) ([]byte, error) {
	return pack(&sym, order)
}

// UnpackSym parses a 24-byte ELF64 symbol table entry.
func UnpackSym(data []byte, order binary.ByteOrder) (elf.Sym64, error) {
	var sym elf.Sym64
	if len(data) < SymSize {
		return sym, parseErrorf("symbol record too short: got %d bytes, want %d", len(data), SymSize)
	}
	if err := struc.UnpackWithOptions(bytes.NewReader(data[:SymSize]), &sym, &struc.Options{Order: order}); err != nil {
		return sym, fmt.Errorf("unpacking symbol: %w", err)
	}
	return sym, nil
}

// PackRela serializes one 24-byte ELF64 RELA relocation entry.
func PackRela(rela elf.Rela64, order binary.ByteOrder) ([]byte, error) {
	return pack(&rela, order)
}

// UnpackRela parses a 24-byte ELF64 RELA relocation entry.
func UnpackRela(data []byte, order binary.ByteOrder) (elf.Rela64, error) {
	var rela elf.Rela64
	if len(data) < RelaSize {
		return rela, parseErrorf("RELA record too short: got %d bytes, want %d", len(data), RelaSize)
	}
	if err := struc.UnpackWithOptions(bytes.NewReader(data[:RelaSize]), &rela, &struc.Options{Order: order}); err != nil {
		return rela, fmt.Errorf("unpacking RELA entry: %w", err)
	}
	return rela, nil
}

// UnpackSyms splits data into a sequence of 24-byte symbol records,
// including the null symbol conventionally stored at index 0.
func UnpackSyms(data []byte, order binary.ByteOrder) ([]elf.Sym64, error) {
	if len(data)%SymSize != 0 {
		return nil, parseErrorf("symbol table size %d is not a multiple of %d", len(data), SymSize)
	}
	n := len(data) / SymSize
	out := make([]elf.Sym64, n)
	for i := range out {
		sym, err := UnpackSym(data[i*SymSize:(i+1)*SymSize], order)
		if err != nil {
			return nil, fmt.Errorf("symbol %d: %w", i, err)
		}
		out[i] = sym
	}
	return out, nil
}

// UnpackRelas splits data into a sequence of 24-byte RELA records.
func UnpackRelas(data []byte, order binary.ByteOrder) ([]elf.Rela64, error) {
	if len(data)%RelaSize != 0 {
		return nil, parseErrorf("RELA table size %d is not a multiple of %d", len(data), RelaSize)
	}
	n := len(data) / RelaSize
	out := make([]elf.Rela64, n)
	for i := range out {
		rela, err := UnpackRela(data[i*RelaSize:(i+1)*RelaSize], order)
		if err != nil {
			return nil, fmt.Errorf("RELA entry %d: %w", i, err)
		}
		out[i] = rela
	}
	return out, nil
}
