// Copyright (C) 2024 The Dagu Authors
// SPDX-License-Identifier: GPL-3.0-or-later

// Package cmd is the cobra CLI surface: it owns argument parsing, terminal
// rendering, and wiring into app.Container, none of which internal/ may
// depend on (spec.md §1 "Deliberately OUT of scope").
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pkgforge/pkgforge/app"
)

var (
	repoDir string
	quiet   bool
	debug   bool
)

// RootCmd is the top-level "pkgforge" command.
var RootCmd = &cobra.Command{
	Use:   "pkgforge",
	Short: "Distributed container-based package build orchestrator.",
	Long:  `Builds Linux packages by running package scripts inside containers across a fleet of container-engine endpoints.`,
}

func init() {
	RootCmd.PersistentFlags().StringVar(&repoDir, "dir", ".", "package repository root (searched upward for pkgforge.yml)")
	RootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress informational logging")
	RootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	RootCmd.AddCommand(buildCmd())
	RootCmd.AddCommand(treeOfCmd())
	RootCmd.AddCommand(scriptOfCmd())
	RootCmd.AddCommand(sourceCmd())
	RootCmd.AddCommand(dbCmd())
	RootCmd.AddCommand(releaseCmd())
	RootCmd.AddCommand(endpointCmd())
	RootCmd.AddCommand(findArtifactCmd())
	RootCmd.AddCommand(versionCmd())
}

// Execute runs the CLI, returning the first command error.
func Execute() error {
	return RootCmd.Execute()
}

// bootstrap loads the Container for the current invocation. Callers defer
// Close immediately; RequireStore is left to the individual command since
// not every command needs the audit database.
func bootstrap(ctx context.Context) (*app.Container, error) {
	return app.Bootstrap(ctx, repoDir, quiet, debug)
}

// withInterrupt derives a context cancelled on SIGINT/SIGTERM, the same
// signals the teacher's listenSignals watches for (cmd/commands.go).
func withInterrupt(parent context.Context) (context.Context, func()) {
	ctx, cancel := context.WithCancel(parent)
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-sig:
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, func() {
		signal.Stop(sig)
		cancel()
	}
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, "pkgforge:", err)
	os.Exit(1)
}
