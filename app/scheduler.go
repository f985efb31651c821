// Copyright (C) 2024 The Dagu Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package app

import (
	"github.com/pkgforge/pkgforge/internal/artifact"
	"github.com/pkgforge/pkgforge/internal/scheduler"
)

// NewScheduler assembles a Scheduler from the bootstrapped Container plus
// the two per-command collaborators (the staging area and, optionally, a
// progress sink) that aren't shared across every subcommand.
//
// c.Store is only assigned into the Audit field when non-nil: a typed-nil
// *store.Store boxed into the scheduler.AuditStore interface would make
// Scheduler's `s.Audit != nil` check pass and then panic calling RecordJob
// on a nil pool, so a database-less invocation (tree-of, a local dry run)
// must leave Audit as a true nil interface instead.
func (c *Container) NewScheduler(staging *artifact.Staging, progress scheduler.ProgressSink) *scheduler.Scheduler {
	s := &scheduler.Scheduler{
		Config:   c.Config,
		Repo:     c.Repo,
		Pool:     c.Pool,
		Staging:  staging,
		Sources:  c.Sources,
		Linter:   c.Linter,
		Progress: progress,
	}
	if c.Store != nil {
		s.Audit = c.Store
	}
	return s
}
