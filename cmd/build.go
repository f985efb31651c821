// Copyright (C) 2024 The Dagu Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pkgforge/pkgforge/internal/artifact"
	"github.com/pkgforge/pkgforge/internal/resolver"
	"github.com/pkgforge/pkgforge/internal/submitctx"
)

var (
	buildVersion string
	buildImage   string
	buildEnv     []string
)

func buildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build <package>",
		Short: "Resolve a package's dependency tree and run one submit.",
		Long:  `pkgforge build <package> [--version V] --image I [--env K=V]...`,
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			runBuild(cmd, args[0])
		},
	}
	cmd.Flags().StringVar(&buildVersion, "version", "", "exact version to build (default: latest)")
	cmd.Flags().StringVar(&buildImage, "image", "", "container image to build with")
	cmd.Flags().StringArrayVar(&buildEnv, "env", nil, "additional K=V environment entries, repeatable")
	_ = cmd.MarkFlagRequired("image")
	return cmd
}

func runBuild(cmd *cobra.Command, pkgName string) {
	ctx, stop := withInterrupt(cmd.Context())
	defer stop()

	c, err := bootstrap(ctx)
	if err != nil {
		fail(err)
	}
	defer c.Close(ctx)

	env, err := parseEnvPairs(buildEnv)
	if err != nil {
		fail(err)
	}

	constraint := ""
	if buildVersion != "" {
		constraint = "=" + buildVersion
	}

	dag, plan, err := resolver.Resolve(c.Repo, pkgName, constraint)
	if err != nil {
		fail(err)
	}

	root := dag.Nodes[dag.Root]
	submit := submitctx.NewSubmit(time.Now(), buildImage, root.Name, root.Version, c.RepoHead, c.RepoAuthor, env, dag, plan)

	if c.Store != nil {
		if err := c.Store.RecordSubmit(ctx, submit); err != nil {
			fail(err)
		}
	}

	staging := &artifact.Staging{Root: c.Config.Staging, Logger: c.Logger}
	progress := newTerminalProgress()
	sched := c.NewScheduler(staging, progress)

	result, err := sched.Run(ctx, submit)
	progress.finish()
	if err != nil && result == nil {
		fail(err)
	}

	printSubmitResult(ctx, c, submit, result)
	if result == nil || !result.Succeeded {
		os.Exit(1)
	}
}

func parseEnvPairs(pairs []string) (map[string]string, error) {
	out := map[string]string{}
	for _, p := range pairs {
		name, value, ok := strings.Cut(p, "=")
		if !ok {
			return nil, fmt.Errorf("cmd: malformed --env entry %q, expected K=V", p)
		}
		out[name] = value
	}
	return out, nil
}
