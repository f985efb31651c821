// Copyright (C) 2024 The Dagu Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pkgforge/pkgforge/internal/artifact"
)

// findArtifactCmd does not need the audit database: it only globs the
// staging and releases directories on disk (spec.md §6 "locate a built
// artifact by name across staging and every release store").
func findArtifactCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "find-artifact <pattern>",
		Short: "Locate a staged or released artifact by name (doublestar glob).",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			ctx := cmd.Context()
			c, err := bootstrap(ctx)
			if err != nil {
				fail(err)
			}
			defer c.Close(ctx)

			matches, err := artifact.Find(c.Config.Staging, []string{c.Config.ReleasesRoot}, args[0])
			if err != nil {
				fail(err)
			}
			if len(matches) == 0 {
				fmt.Fprintf(os.Stderr, "pkgforge: no artifact matches %q\n", args[0])
				return
			}
			for _, m := range matches {
				fmt.Println(m)
			}
		},
	}
}
