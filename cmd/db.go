// Copyright (C) 2024 The Dagu Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package cmd

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/pkgforge/pkgforge/app"
	"github.com/pkgforge/pkgforge/internal/store"
)

var (
	dbOlderThan string
	dbNewerThan string
	dbPackage   string
	dbCommit    string
	dbEndpoint  string
	dbStoreName string
	dbLimit     int
)

func dbCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Administer and query the audit database.",
	}
	cmd.PersistentFlags().StringVar(&dbOlderThan, "older-than", "", "only rows at or before this time (RFC3339 or relative, e.g. \"7d\")")
	cmd.PersistentFlags().StringVar(&dbNewerThan, "newer-than", "", "only rows at or after this time (RFC3339 or relative, e.g. \"24h\")")
	cmd.PersistentFlags().StringVar(&dbPackage, "package", "", "filter by package name")
	cmd.PersistentFlags().StringVar(&dbCommit, "commit", "", "filter by repo commit hash")
	cmd.PersistentFlags().StringVar(&dbEndpoint, "endpoint", "", "filter by endpoint name")
	cmd.PersistentFlags().StringVar(&dbStoreName, "to", "", "filter by release store name")
	cmd.PersistentFlags().IntVar(&dbLimit, "limit", 0, "maximum rows to return (0 = unlimited)")

	cmd.AddCommand(dbSetupCmd())
	cmd.AddCommand(dbSubmitCmd())
	cmd.AddCommand(dbSubmitsCmd())
	cmd.AddCommand(dbJobsCmd())
	cmd.AddCommand(dbLogOfCmd())
	cmd.AddCommand(dbReleasesCmd())
	return cmd
}

func dbSetupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "setup",
		Short: "Apply pending audit-database migrations.",
		Run: func(cmd *cobra.Command, args []string) {
			ctx := cmd.Context()
			c, err := bootstrap(ctx)
			if err != nil {
				fail(err)
			}
			defer c.Close(ctx)

			if err := store.Migrate(ctx, c.Config.Database); err != nil {
				fail(err)
			}
			fmt.Println("audit database schema up to date")
		},
	}
}

func dbSubmitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "submit <uuid>",
		Short: "Show one submit's summary.",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			c := requireStoreBootstrap(cmd)
			defer c.Close(cmd.Context())

			id, err := uuid.Parse(args[0])
			if err != nil {
				fail(err)
			}
			sum, _, err := c.Store.GetSubmit(cmd.Context(), id)
			if err != nil {
				fail(err)
			}
			t := table.NewWriter()
			t.AppendHeader(table.Row{"UUID", "Submitted", "Commit", "Image", "Package", "Version", "Status"})
			t.AppendRow(table.Row{sum.UUID, humanize.Time(sum.SubmitTime), sum.RepoCommitHash, sum.RequestedImage, sum.RequestedPackage, sum.RequestedVersion, sum.Status})
			fmt.Println(t.Render())
		},
	}
}

func dbSubmitsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "submits",
		Short: "List submits, filterable by commit/package/time window.",
		Run: func(cmd *cobra.Command, args []string) {
			c := requireStoreBootstrap(cmd)
			defer c.Close(cmd.Context())

			older, newer := mustDateRange(cmd)
			rows, err := c.Store.ListSubmits(cmd.Context(), store.SubmitFilter{
				CommitHash: dbCommit,
				Package:    dbPackage,
				OlderThan:  older,
				NewerThan:  newer,
				Limit:      dbLimit,
			})
			if err != nil {
				fail(err)
			}

			t := table.NewWriter()
			t.AppendHeader(table.Row{"UUID", "Submitted", "Image", "Package", "Version", "Status"})
			for _, r := range rows {
				t.AppendRow(table.Row{r.UUID, humanize.Time(r.SubmitTime), r.RequestedImage, r.RequestedPackage, r.RequestedVersion, r.Status})
			}
			fmt.Println(t.Render())
		},
	}
}

func dbJobsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "jobs <submit-uuid>",
		Short: "List every job recorded against one submit.",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			c := requireStoreBootstrap(cmd)
			defer c.Close(cmd.Context())

			id, err := uuid.Parse(args[0])
			if err != nil {
				fail(err)
			}
			_, jobs, err := c.Store.GetSubmit(cmd.Context(), id)
			if err != nil {
				fail(err)
			}

			t := table.NewWriter()
			t.AppendHeader(table.Row{"Package", "Version", "Endpoint", "Status", "Fail reason"})
			for _, j := range jobs {
				if dbEndpoint != "" && j.Endpoint != dbEndpoint {
					continue
				}
				t.AppendRow(table.Row{j.Package, j.Version, j.Endpoint, j.Status, j.FailReason})
			}
			fmt.Println(t.Render())
		},
	}
}

func dbLogOfCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "log-of <submit-uuid> <package> <version>",
		Short: "Print one job's full persisted log text.",
		Args:  cobra.ExactArgs(3),
		Run: func(cmd *cobra.Command, args []string) {
			c := requireStoreBootstrap(cmd)
			defer c.Close(cmd.Context())

			id, err := uuid.Parse(args[0])
			if err != nil {
				fail(err)
			}
			logText, err := c.Store.GetJobLog(cmd.Context(), id, args[1], args[2])
			if err != nil {
				fail(err)
			}
			fmt.Println(logText)
		},
	}
}

func dbReleasesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "releases",
		Short: "List releases, filterable by package/store/time window.",
		Run: func(cmd *cobra.Command, args []string) {
			c := requireStoreBootstrap(cmd)
			defer c.Close(cmd.Context())

			older, newer := mustDateRange(cmd)
			rows, err := c.Store.ListReleases(cmd.Context(), store.ReleaseFilter{
				Package:   dbPackage,
				StoreName: dbStoreName,
				OlderThan: older,
				NewerThan: newer,
				Limit:     dbLimit,
			})
			if err != nil {
				fail(err)
			}

			t := table.NewWriter()
			t.AppendHeader(table.Row{"Artifact", "Store", "Released"})
			for _, r := range rows {
				t.AppendRow(table.Row{r.ArtifactName, r.StoreName, humanize.Time(r.ReleaseTime)})
			}
			fmt.Println(t.Render())
		},
	}
}

// mustDateRange parses the --older-than/--newer-than persistent flags,
// exiting on a malformed value.
func mustDateRange(cmd *cobra.Command) (older, newer time.Time) {
	older, err := parseDate(dbOlderThan)
	if err != nil {
		fail(err)
	}
	newer, err = parseDate(dbNewerThan)
	if err != nil {
		fail(err)
	}
	return older, newer
}

// requireStoreBootstrap bootstraps the Container and fails fast if no
// audit database is configured, since every db subcommand needs one.
func requireStoreBootstrap(cmd *cobra.Command) *app.Container {
	c, err := bootstrap(cmd.Context())
	if err != nil {
		fail(err)
	}
	if err := c.RequireStore(); err != nil {
		fail(err)
	}
	return c
}
