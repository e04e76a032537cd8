// Copyright 2021 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package link implements the three-phase merge that combines two or
// more relocatable object images into one: sections are folded by name,
// symbols are reconciled by name (an undefined symbol resolves against a
// defined one; a name defined in both inputs is a conflict whatever its
// binding, so weak symbols get no special treatment), and the combined
// symbol table is partitioned so local symbols
// precede non-local ones, with every relocation's symbol index carried
// along correctly.
package link

import (
	"fmt"
	"log/slog"

	"github.com/andrewhalle/byo-linker/image"
)

// Link folds images left to right with Merge, producing a single
// combined image. It requires at least one input and never mutates any
// of them.
func Link(images ...*image.Image) (*image.Image, error) {
	if len(images) == 0 {
		return nil, mergeConflictf("no input images")
	}

	acc := cloneImage(images[0])
	for i, next := range images[1:] {
		merged, err := Merge(acc, next)
		if err != nil {
			return nil, fmt.Errorf("linking input %d: %w", i+1, err)
		}
		acc = merged
	}
	return acc, nil
}

// Merge combines b into a copy of a and returns the result, leaving
// both a and b untouched. It runs, in order:
//
//  1. section merging, folding b's sections into a's by name or
//     appending new ones;
//  2. symbol merging, reconciling b's symbols against a's by name; and
//  3. symbol reordering, partitioning the combined table by binding and
//     reindexing every relocation to match.
func Merge(a, b *image.Image) (*image.Image, error) {
	out := cloneImage(a)

	sectionMergeMap, valueOffset, err := mergeSections(out, b)
	if err != nil {
		return nil, err
	}

	symbolMergeMap, err := mergeSymbols(out, b, sectionMergeMap, valueOffset)
	if err != nil {
		return nil, err
	}

	reorderSymbols(out, symbolMergeMap)

	slog.Debug("link: merge complete", "sections", len(out.Sections), "symbols", len(out.Symbols))
	return out, nil
}
