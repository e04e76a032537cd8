// Copyright 2021 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"

	"github.com/andrewhalle/byo-linker/encode"
	"github.com/andrewhalle/byo-linker/image"
	"github.com/andrewhalle/byo-linker/link"
	"github.com/spf13/cobra"
)

func newLinkCommand(opts *rootOptions) *cobra.Command {
	outputPath := "a.out.o"

	cmd := &cobra.Command{
		Use:   "link INPUT...",
		Short: "Merge one or more relocatable object files into one",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			var images []*image.Image
			for _, path := range args {
				data, err := os.ReadFile(path)
				if err != nil {
					return fmt.Errorf("reading %s: %w", path, err)
				}
				img, err := image.Open(data)
				if err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
				images = append(images, img)
				opts.logger.Debug("decoded input", "path", path, "sections", len(img.Sections), "symbols", len(img.Symbols))
			}

			merged, err := link.Link(images...)
			if err != nil {
				return fmt.Errorf("linking: %w", err)
			}

			out, err := encode.Encode(merged)
			if err != nil {
				return fmt.Errorf("encoding output: %w", err)
			}

			if err := os.WriteFile(outputPath, out, 0o644); err != nil {
				return fmt.Errorf("writing %s: %w", outputPath, err)
			}

			opts.logger.Info("wrote linked object", "path", outputPath, "sections", len(merged.Sections), "symbols", len(merged.Symbols))
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", outputPath, "path to the linked output file")

	return cmd
}
