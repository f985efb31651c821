// Copyright (C) 2024 The Dagu Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package cmd

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

// endpointCmd groups the administrative subcommands that reach straight
// into a configured Docker endpoint, bypassing the scheduler entirely —
// grounded on the teacher's own status/stop commands (cmd/status.go,
// cmd/stop.go) but retargeted at a remote endpoint's containers rather
// than a local DAG-run.
func endpointCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "endpoint",
		Short: "Inspect and administer the configured Docker build endpoints.",
	}
	cmd.AddCommand(endpointListCmd())
	cmd.AddCommand(endpointTopCmd())
	cmd.AddCommand(endpointStopCmd())
	cmd.AddCommand(endpointPruneCmd())
	cmd.AddCommand(endpointImagesCmd())
	return cmd
}

func endpointListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the configured endpoint names.",
		Run: func(cmd *cobra.Command, args []string) {
			ctx := cmd.Context()
			c, err := bootstrap(ctx)
			if err != nil {
				fail(err)
			}
			defer c.Close(ctx)
			for _, name := range c.Pool.Endpoints() {
				fmt.Println(name)
			}
		},
	}
}

func endpointTopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "top <endpoint> <container-id>",
		Short: "Show per-process CPU/memory stats for one running container.",
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			ctx := cmd.Context()
			c, err := bootstrap(ctx)
			if err != nil {
				fail(err)
			}
			defer c.Close(ctx)

			stats, err := c.Pool.Top(ctx, args[0], args[1])
			if err != nil {
				fail(err)
			}

			t := table.NewWriter()
			t.AppendHeader(table.Row{"PID", "CMD", "CPU%", "RSS"})
			for _, s := range stats {
				t.AppendRow(table.Row{s.PID, s.Command, fmt.Sprintf("%.1f", s.CPUPercent), humanize.Bytes(s.MemoryRSS)})
			}
			fmt.Println(t.Render())
		},
	}
}

func endpointStopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop <endpoint> <container-id>",
		Short: "Stop and remove one running container on an endpoint.",
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			ctx := cmd.Context()
			c, err := bootstrap(ctx)
			if err != nil {
				fail(err)
			}
			defer c.Close(ctx)

			if err := c.Pool.Stop(ctx, args[0], args[1]); err != nil {
				fail(err)
			}
			fmt.Printf("stopped %s on %s\n", args[1], args[0])
		},
	}
}

func endpointPruneCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "prune <endpoint>",
		Short: "Remove stopped containers on one endpoint.",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			ctx := cmd.Context()
			c, err := bootstrap(ctx)
			if err != nil {
				fail(err)
			}
			defer c.Close(ctx)

			if err := c.Pool.Prune(ctx, args[0]); err != nil {
				fail(err)
			}
			fmt.Printf("pruned stopped containers on %s\n", args[0])
		},
	}
}

func endpointImagesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "images <endpoint>",
		Short: "List images available on one endpoint.",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			ctx := cmd.Context()
			c, err := bootstrap(ctx)
			if err != nil {
				fail(err)
			}
			defer c.Close(ctx)

			images, err := c.Pool.Images(ctx, args[0])
			if err != nil {
				fail(err)
			}

			t := table.NewWriter()
			t.AppendHeader(table.Row{"ID", "Tags", "Size"})
			for _, img := range images {
				t.AppendRow(table.Row{truncateID(img.ID, 19), img.RepoTags, img.Size})
			}
			fmt.Println(t.Render())
		},
	}
}
