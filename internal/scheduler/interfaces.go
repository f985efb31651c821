// Copyright (C) 2024 The Dagu Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package scheduler

import (
	"context"

	"github.com/google/uuid"

	"github.com/pkgforge/pkgforge/internal/script"
	"github.com/pkgforge/pkgforge/internal/submitctx"
)

// StagingStore is the narrow surface the scheduler needs from the staging
// artifact store: a per-submit scratch directory, and acceptance of that
// directory's /outputs contents into durable, named artifacts (spec.md
// §4.7, I7). internal/artifact.Staging implements this.
type StagingStore interface {
	JobDir(submit uuid.UUID, pkgName, pkgVersion string) (string, error)
	AcceptOutputs(submit uuid.UUID, outputsDir, pkgName, pkgVersion string) ([]submitctx.ArtifactDescriptor, error)
}

// AuditStore is the narrow surface the scheduler needs from the audit
// store: one append-only write per job on terminal transition.
// internal/store.Store implements this.
type AuditStore interface {
	RecordJob(ctx context.Context, submit uuid.UUID, rec submitctx.JobRecord) error
}

// ProgressSink reports live phase/progress/terminal updates for a job, as
// parsed from its marker stream. cmd/ supplies the terminal implementation;
// the scheduler never assumes one exists.
type ProgressSink interface {
	Phase(job submitctx.JobRef, phase string)
	Progress(job submitctx.JobRef, pct int)
	Done(job submitctx.JobRef, status submitctx.Status)
}

// Linter is an alias for script.Linter: the scheduler never lints directly,
// it just threads the configured linter through to Compile per job.
type Linter = script.Linter
