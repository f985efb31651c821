// Copyright (C) 2024 The Dagu Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pkgforge/pkgforge/internal/resolver"
)

var treeOfVersion string

func treeOfCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tree-of <package>",
		Short: "Print a package's resolved dependency DAG and build plan.",
		Long:  `pkgforge tree-of <package> [--version V]`,
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			runTreeOf(cmd, args[0])
		},
	}
	cmd.Flags().StringVar(&treeOfVersion, "version", "", "exact version to resolve (default: latest)")
	return cmd
}

// runTreeOf does not need the audit database: it only resolves against the
// in-memory repository loaded from the package tree.
func runTreeOf(cmd *cobra.Command, pkgName string) {
	ctx := cmd.Context()
	c, err := bootstrap(ctx)
	if err != nil {
		fail(err)
	}
	defer c.Close(ctx)

	constraint := ""
	if treeOfVersion != "" {
		constraint = "=" + treeOfVersion
	}

	dag, plan, err := resolver.Resolve(c.Repo, pkgName, constraint)
	if err != nil {
		fail(err)
	}

	printTree(dag, plan)
}

func printTree(dag *resolver.DAG, plan *resolver.Plan) {
	out, err := json.MarshalIndent(struct {
		DAG  *resolver.DAG  `json:"dag"`
		Plan *resolver.Plan `json:"plan"`
	}{dag, plan}, "", "  ")
	if err != nil {
		fail(err)
	}
	fmt.Println(string(out))
}
