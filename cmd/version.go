// Copyright (C) 2024 The Dagu Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pkgforge/pkgforge/internal/build"
)

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the pkgforge version.",
		Run: func(cmd *cobra.Command, args []string) {
			if build.Commit != "" {
				fmt.Printf("%s %s (%s)\n", build.AppName, build.Version, build.Commit)
				return
			}
			fmt.Printf("%s %s\n", build.AppName, build.Version)
		},
	}
}
