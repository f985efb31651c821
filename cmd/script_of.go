// Copyright (C) 2024 The Dagu Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pkgforge/pkgforge/internal/script"
)

var scriptOfVersion string

func scriptOfCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "script-of <package>",
		Short: "Print a package's compiled build script, highlighted for the terminal.",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			runScriptOf(cmd, args[0])
		},
	}
	cmd.Flags().StringVar(&scriptOfVersion, "version", "", "exact version (default: latest)")
	return cmd
}

// runScriptOf compiles without a Linter: lint failures belong to `build`,
// not to a command whose only job is to show the user what would run.
func runScriptOf(cmd *cobra.Command, pkgName string) {
	ctx := cmd.Context()
	c, err := bootstrap(ctx)
	if err != nil {
		fail(err)
	}
	defer c.Close(ctx)

	version := scriptOfVersion
	if version == "" {
		versions := c.Repo.Versions(pkgName)
		if len(versions) == 0 {
			fail(fmt.Errorf("cmd: package %q not found", pkgName))
		}
		version = latestVersion(versions)
	}
	pkg, ok := c.Repo.Get(pkgName, version)
	if !ok {
		fail(fmt.Errorf("cmd: package %s-%s not found", pkgName, version))
	}

	compiled, err := script.Compile(ctx, pkg, script.Options{
		Shebang:         c.Config.Shebang,
		AvailablePhases: c.Config.AvailablePhases,
		Strict:          c.Config.StrictScriptInterpolation,
	})
	if err != nil {
		fail(err)
	}

	h := newHighlighter(c.Config.ScriptHighlightTheme)
	fmt.Println(h.Highlight(compiled))
}
