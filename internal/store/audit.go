// Copyright (C) 2024 The Dagu Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/pkgforge/pkgforge/internal/submitctx"
)

// RecordSubmit writes the submit row at submit start (spec.md §4.6): UUID,
// timestamp, requested (image, package), env, and the serialized DAG and
// plan. Called once, before any job goroutine starts.
func (s *Store) RecordSubmit(ctx context.Context, sub *submitctx.Submit) error {
	env, err := json.Marshal(sub.Env)
	if err != nil {
		return &DbError{Kind: "Exec", Err: err}
	}
	dag, err := json.Marshal(sub.DAG)
	if err != nil {
		return &DbError{Kind: "Exec", Err: err}
	}
	plan, err := json.Marshal(sub.Plan)
	if err != nil {
		return &DbError{Kind: "Exec", Err: err}
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO submits (id, submit_time, repo_commit_hash, requested_image, requested_package, requested_version, env, dag, plan, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, 'Pending')
	`, sub.UUID, sub.SubmitTime, sub.RepoCommitHash, sub.RequestedImage, sub.RequestedPackage, sub.RequestedVersion, env, dag, plan)
	if err != nil {
		return &DbError{Kind: "Exec", Err: err}
	}
	return nil
}

// RecordJob implements scheduler.AuditStore: one row per (submit, package,
// version), written on the job's terminal transition, with script text,
// container id, full log text, env, input/output artifact sets, endpoint,
// image, and package identity. A second write for the same job updates the
// existing row.
func (s *Store) RecordJob(ctx context.Context, submit uuid.UUID, rec submitctx.JobRecord) error {
	env, err := json.Marshal(rec.Env)
	if err != nil {
		return &DbError{Kind: "Exec", Err: err}
	}
	inputs, err := json.Marshal(rec.Inputs)
	if err != nil {
		return &DbError{Kind: "Exec", Err: err}
	}
	outputs, err := json.Marshal(rec.Outputs)
	if err != nil {
		return &DbError{Kind: "Exec", Err: err}
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO jobs (submit_id, package, version, endpoint, image, script_text, container_id, inputs, outputs, env, log_text, status, fail_reason)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (submit_id, package, version) DO UPDATE SET
			endpoint = EXCLUDED.endpoint,
			container_id = EXCLUDED.container_id,
			outputs = EXCLUDED.outputs,
			log_text = EXCLUDED.log_text,
			status = EXCLUDED.status,
			fail_reason = EXCLUDED.fail_reason
	`, submit, rec.Package, rec.Version, rec.Endpoint, rec.Image, rec.ScriptText, rec.ContainerID, inputs, outputs, env, rec.LogText, string(rec.Status), rec.FailReason)
	if err != nil {
		return &DbError{Kind: "Exec", Err: err}
	}
	return nil
}

// RecordRelease writes the release row atomically with a promotion
// (spec.md §4.7: "written atomically with the copy; on copy failure no row
// is written"). Callers call this only after ReleaseStore.Promote succeeds.
func (s *Store) RecordRelease(ctx context.Context, rel submitctx.Release) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO releases (artifact_name, artifact_path, store_name, release_time)
		VALUES ($1, $2, $3, $4)
	`, rel.Artifact.Name, rel.Artifact.Path, rel.StoreName, rel.ReleaseTime)
	if err != nil {
		return &DbError{Kind: "Exec", Err: err}
	}
	return nil
}
