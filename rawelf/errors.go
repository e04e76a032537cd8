// Copyright 2021 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rawelf

import "fmt"

// A ParseError reports a violation of the ELF64 input format: bad magic,
// wrong class, unknown endianness, unknown section type, a short read, or
// trailing bytes. Every ParseError names the file offset or field where
// the problem was found.
type ParseError struct {
	Detail string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("elf: parse error: %s", e.Detail)
}

func parseErrorf(format string, args ...any) error {
	return &ParseError{Detail: fmt.Sprintf(format, args...)}
}
