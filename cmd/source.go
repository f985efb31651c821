// Copyright (C) 2024 The Dagu Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package cmd

import (
	"fmt"
	"os"

	"github.com/Masterminds/semver/v3"
	"github.com/spf13/cobra"

	"github.com/pkgforge/pkgforge/app"
	"github.com/pkgforge/pkgforge/internal/pkgrepo"
)

var sourceVersion string

func sourceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "source [of|download|verify] <package>",
		Short: "Resolve, fetch, or verify a package's declared sources.",
	}
	cmd.PersistentFlags().StringVar(&sourceVersion, "version", "", "exact version (default: latest)")
	cmd.AddCommand(sourceOfCmd())
	cmd.AddCommand(sourceDownloadCmd())
	cmd.AddCommand(sourceVerifyCmd())
	return cmd
}

func sourceOfCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "of <package>",
		Short: "Print the cache path each declared source resolves to.",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			c, pkg := loadPackageForSources(cmd, args[0])
			defer c.Close(cmd.Context())
			for _, src := range pkg.Sources {
				fmt.Printf("%s\t%s\n", src.Key, c.Sources.TargetPath(src))
			}
		},
	}
}

func sourceDownloadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "download <package>",
		Short: "Fetch every declared source not already cached.",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			c, pkg := loadPackageForSources(cmd, args[0])
			defer c.Close(cmd.Context())

			// Late-fail: attempt every source, then report the aggregate
			// (spec.md §7 "Errors are reported late where the user benefit
			// is completeness (source download, release, verify)").
			var failures []string
			for _, src := range pkg.Sources {
				if _, err := c.Sources.Download(cmd.Context(), src); err != nil {
					failures = append(failures, fmt.Sprintf("%s: %v", src.Key, err))
					continue
				}
				fmt.Printf("%s\tok\n", src.Key)
			}
			reportAggregate(failures)
		},
	}
}

func sourceVerifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify <package>",
		Short: "Verify every declared source's cached content against its hash.",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			c, pkg := loadPackageForSources(cmd, args[0])
			defer c.Close(cmd.Context())

			var failures []string
			for _, src := range pkg.Sources {
				if _, err := c.Sources.CachePath(src); err != nil {
					failures = append(failures, fmt.Sprintf("%s: %v", src.Key, err))
					continue
				}
				fmt.Printf("%s\tok\n", src.Key)
			}
			reportAggregate(failures)
		},
	}
}

func loadPackageForSources(cmd *cobra.Command, name string) (*app.Container, *pkgrepo.Package) {
	c, err := bootstrap(cmd.Context())
	if err != nil {
		fail(err)
	}
	version := sourceVersion
	if version == "" {
		versions := c.Repo.Versions(name)
		if len(versions) == 0 {
			fail(fmt.Errorf("cmd: package %q not found", name))
		}
		version = latestVersion(versions)
	}
	pkg, ok := c.Repo.Get(name, version)
	if !ok {
		fail(fmt.Errorf("cmd: package %s-%s not found", name, version))
	}
	return c, pkg
}

// latestVersion picks the highest semver release among versions, falling
// back to lexical ordering for any that don't parse (mirrors the
// resolver's own tie-break in internal/resolver/resolve.go).
func latestVersion(versions []string) string {
	best := versions[0]
	bestSem, bestErr := semver.NewVersion(best)
	for _, v := range versions[1:] {
		sem, err := semver.NewVersion(v)
		switch {
		case err != nil || bestErr != nil:
			if v > best {
				best, bestSem, bestErr = v, sem, err
			}
		case sem.GreaterThan(bestSem):
			best, bestSem, bestErr = v, sem, err
		}
	}
	return best
}

func reportAggregate(failures []string) {
	if len(failures) == 0 {
		return
	}
	fmt.Fprintln(os.Stderr, "pkgforge: failures:")
	for _, f := range failures {
		fmt.Fprintln(os.Stderr, " -", f)
	}
	os.Exit(1)
}
