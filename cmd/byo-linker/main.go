// Copyright 2021 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command byo-linker merges one or more ELF64 relocatable object files
// into a single relocatable output, and can disassemble a section's
// bytes for inspection.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

// rootOptions holds flags shared across every subcommand.
type rootOptions struct {
	verbose bool
	logger  *slog.Logger
}

func main() {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "byo-linker",
		Short: "A minimal static linker for ELF64 relocatable object files",
		PersistentPreRun: func(*cobra.Command, []string) {
			level := slog.LevelInfo
			if opts.verbose {
				level = slog.LevelDebug
			}
			opts.logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
			slog.SetDefault(opts.logger)
		},
	}
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(newLinkCommand(opts), newDisasmCommand(opts), newNmCommand(opts))

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
