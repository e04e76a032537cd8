// Copyright 2021 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package image

import "fmt"

// A StructuralError reports a file that parses byte-wise (package
// rawelf accepted it) but violates a structural invariant this linker
// relies on: more than one SYMTAB section, a RELA section whose target
// section was filtered out, or a symbol referencing a filtered-out
// section.
type StructuralError struct {
	Detail string
}

func (e *StructuralError) Error() string {
	return fmt.Sprintf("elf: structural error: %s", e.Detail)
}

func structuralErrorf(format string, args ...any) error {
	return &StructuralError{Detail: fmt.Sprintf(format, args...)}
}
