// Copyright 2021 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package link

import "fmt"

// A MergeConflict reports two input sections with the same name but
// incompatible type/flags/addr/addralign, or two input files both
// defining the same symbol (of any binding, weak included).
type MergeConflict struct {
	Detail string
}

func (e *MergeConflict) Error() string {
	return fmt.Sprintf("link: merge conflict: %s", e.Detail)
}

func mergeConflictf(format string, args ...any) error {
	return &MergeConflict{Detail: fmt.Sprintf(format, args...)}
}
