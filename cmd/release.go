// Copyright (C) 2024 The Dagu Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/pkgforge/pkgforge/app"
	"github.com/pkgforge/pkgforge/internal/artifact"
	"github.com/pkgforge/pkgforge/internal/submitctx"
)

var releaseTo string

func releaseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "release <artifact-pattern>...",
		Short: "Promote staged artifacts matching a name or glob into a release store.",
		Long:  `pkgforge release --to <store> <pattern>...`,
		Args:  cobra.MinimumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			runRelease(cmd, args)
		},
	}
	cmd.Flags().StringVar(&releaseTo, "to", "", "release store name (required, see config release_stores)")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

// runRelease resolves every pattern against the staging root, promotes each
// match, and records the release row — late-fail aggregated the same way
// `source download`/`source verify` are, since a multi-pattern release
// benefits from seeing every failure rather than stopping at the first
// (spec.md §7).
func runRelease(cmd *cobra.Command, patterns []string) {
	ctx := cmd.Context()
	c, err := bootstrap(ctx)
	if err != nil {
		fail(err)
	}
	defer c.Close(ctx)

	stores, err := app.ReleaseStores(c.Config)
	if err != nil {
		fail(err)
	}
	store, ok := stores[releaseTo]
	if !ok {
		fail(fmt.Errorf("cmd: unknown release store %q", releaseTo))
	}

	var failures []string
	for _, pattern := range patterns {
		matches, err := artifact.Find(c.Config.Staging, nil, pattern)
		if err != nil {
			failures = append(failures, fmt.Sprintf("%s: %v", pattern, err))
			continue
		}
		if len(matches) == 0 {
			failures = append(failures, fmt.Sprintf("%s: no staged artifact matches", pattern))
			continue
		}
		for _, path := range matches {
			desc := submitctx.ArtifactDescriptor{Name: filepath.Base(path), Path: path}
			if err := store.Promote(ctx, releaseTo, desc); err != nil {
				failures = append(failures, fmt.Sprintf("%s: %v", path, err))
				continue
			}
			if c.Store != nil {
				rel := submitctx.Release{Artifact: desc, StoreName: releaseTo, ReleaseTime: time.Now()}
				if err := c.Store.RecordRelease(ctx, rel); err != nil {
					failures = append(failures, fmt.Sprintf("%s: recorded copy but failed to log release: %v", path, err))
					continue
				}
			}
			fmt.Fprintf(os.Stdout, "%s -> %s\n", path, releaseTo)
		}
	}
	reportAggregate(failures)
}
