// Copyright (C) 2024 The Dagu Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pkgforge/pkgforge/internal/submitctx"
)

// SubmitFilter narrows ListSubmits; zero-value fields are unfiltered.
type SubmitFilter struct {
	CommitHash string
	Image      string
	Package    string
	NewerThan  time.Time
	OlderThan  time.Time
	Limit      int
}

// SubmitSummary is one row of ListSubmits's result.
type SubmitSummary struct {
	UUID             uuid.UUID
	SubmitTime       time.Time
	RepoCommitHash   string
	RequestedImage   string
	RequestedPackage string
	RequestedVersion string
	Status           string
}

// buildSubmitQuery renders f into a parameterized WHERE/ORDER/LIMIT clause,
// split out from ListSubmits so the SQL it produces is unit-testable
// without a live database.
func buildSubmitQuery(f SubmitFilter) (string, []any) {
	q := strings.Builder{}
	q.WriteString(`SELECT id, submit_time, repo_commit_hash, requested_image, requested_package, requested_version, status FROM submits WHERE true`)
	var args []any

	if f.CommitHash != "" {
		args = append(args, f.CommitHash)
		fmt.Fprintf(&q, " AND repo_commit_hash = $%d", len(args))
	}
	if f.Image != "" {
		args = append(args, f.Image)
		fmt.Fprintf(&q, " AND requested_image = $%d", len(args))
	}
	if f.Package != "" {
		args = append(args, f.Package)
		fmt.Fprintf(&q, " AND requested_package = $%d", len(args))
	}
	if !f.NewerThan.IsZero() {
		args = append(args, f.NewerThan)
		fmt.Fprintf(&q, " AND submit_time >= $%d", len(args))
	}
	if !f.OlderThan.IsZero() {
		args = append(args, f.OlderThan)
		fmt.Fprintf(&q, " AND submit_time <= $%d", len(args))
	}
	q.WriteString(" ORDER BY submit_time DESC")
	if f.Limit > 0 {
		args = append(args, f.Limit)
		fmt.Fprintf(&q, " LIMIT $%d", len(args))
	}
	return q.String(), args
}

// ListSubmits answers the `db submits` subcommand.
func (s *Store) ListSubmits(ctx context.Context, f SubmitFilter) ([]SubmitSummary, error) {
	query, args := buildSubmitQuery(f)
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, &DbError{Kind: "Query", Err: err}
	}
	defer rows.Close()

	var out []SubmitSummary
	for rows.Next() {
		var row SubmitSummary
		if err := rows.Scan(&row.UUID, &row.SubmitTime, &row.RepoCommitHash, &row.RequestedImage, &row.RequestedPackage, &row.RequestedVersion, &row.Status); err != nil {
			return nil, &DbError{Kind: "Query", Err: err}
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, &DbError{Kind: "Query", Err: err}
	}
	return out, nil
}

// GetSubmit fetches one submit and every job recorded against it, for the
// `db submit <uuid>` / `db jobs <uuid>` subcommands.
func (s *Store) GetSubmit(ctx context.Context, submit uuid.UUID) (SubmitSummary, []submitctx.JobRecord, error) {
	var sum SubmitSummary
	err := s.pool.QueryRow(ctx, `
		SELECT id, submit_time, repo_commit_hash, requested_image, requested_package, requested_version, status
		FROM submits WHERE id = $1
	`, submit).Scan(&sum.UUID, &sum.SubmitTime, &sum.RepoCommitHash, &sum.RequestedImage, &sum.RequestedPackage, &sum.RequestedVersion, &sum.Status)
	if err != nil {
		return SubmitSummary{}, nil, &DbError{Kind: "Query", Err: err}
	}

	rows, err := s.pool.Query(ctx, `
		SELECT package, version, endpoint, image, script_text, container_id, env, log_text, status, fail_reason
		FROM jobs WHERE submit_id = $1
		ORDER BY package, version
	`, submit)
	if err != nil {
		return SubmitSummary{}, nil, &DbError{Kind: "Query", Err: err}
	}
	defer rows.Close()

	var jobs []submitctx.JobRecord
	for rows.Next() {
		rec := submitctx.JobRecord{Submit: submit}
		var status string
		if err := rows.Scan(&rec.Package, &rec.Version, &rec.Endpoint, &rec.Image, &rec.ScriptText, &rec.ContainerID, &rec.Env, &rec.LogText, &status, &rec.FailReason); err != nil {
			return SubmitSummary{}, nil, &DbError{Kind: "Query", Err: err}
		}
		rec.Status = submitctx.Status(status)
		jobs = append(jobs, rec)
	}
	if err := rows.Err(); err != nil {
		return SubmitSummary{}, nil, &DbError{Kind: "Query", Err: err}
	}
	return sum, jobs, nil
}

// GetJobLog fetches one job's full log text, for `db log-of`.
func (s *Store) GetJobLog(ctx context.Context, submit uuid.UUID, pkg, version string) (string, error) {
	var log string
	err := s.pool.QueryRow(ctx, `
		SELECT log_text FROM jobs WHERE submit_id = $1 AND package = $2 AND version = $3
	`, submit, pkg, version).Scan(&log)
	if err != nil {
		return "", &DbError{Kind: "Query", Err: err}
	}
	return log, nil
}

// ReleaseFilter narrows ListReleases; zero-value fields are unfiltered.
type ReleaseFilter struct {
	Package   string
	StoreName string
	NewerThan time.Time
	OlderThan time.Time
	Limit     int
}

// ReleaseRow is one row of ListReleases's result.
type ReleaseRow struct {
	ArtifactName string
	ArtifactPath string
	StoreName    string
	ReleaseTime  time.Time
}

// buildReleaseQuery renders f into a parameterized WHERE/ORDER/LIMIT
// clause, split out from ListReleases for the same testability reason as
// buildSubmitQuery.
func buildReleaseQuery(f ReleaseFilter) (string, []any) {
	q := strings.Builder{}
	q.WriteString(`SELECT artifact_name, artifact_path, store_name, release_time FROM releases WHERE true`)
	var args []any

	if f.Package != "" {
		args = append(args, f.Package)
		fmt.Fprintf(&q, " AND artifact_name = $%d", len(args))
	}
	if f.StoreName != "" {
		args = append(args, f.StoreName)
		fmt.Fprintf(&q, " AND store_name = $%d", len(args))
	}
	if !f.NewerThan.IsZero() {
		args = append(args, f.NewerThan)
		fmt.Fprintf(&q, " AND release_time >= $%d", len(args))
	}
	if !f.OlderThan.IsZero() {
		args = append(args, f.OlderThan)
		fmt.Fprintf(&q, " AND release_time <= $%d", len(args))
	}
	q.WriteString(" ORDER BY release_time DESC")
	if f.Limit > 0 {
		args = append(args, f.Limit)
		fmt.Fprintf(&q, " LIMIT $%d", len(args))
	}
	return q.String(), args
}

// ListReleases answers the `db releases` subcommand.
func (s *Store) ListReleases(ctx context.Context, f ReleaseFilter) ([]ReleaseRow, error) {
	query, args := buildReleaseQuery(f)
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, &DbError{Kind: "Query", Err: err}
	}
	defer rows.Close()

	var out []ReleaseRow
	for rows.Next() {
		var row ReleaseRow
		if err := rows.Scan(&row.ArtifactName, &row.ArtifactPath, &row.StoreName, &row.ReleaseTime); err != nil {
			return nil, &DbError{Kind: "Query", Err: err}
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, &DbError{Kind: "Query", Err: err}
	}
	return out, nil
}
