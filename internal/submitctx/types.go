// Copyright (C) 2024 The Dagu Authors
// SPDX-License-Identifier: GPL-3.0-or-later

// Package submitctx holds the serializable types shared across the
// resolver, script compiler, scheduler, and audit store for one submit:
// the request, its resolved tree, and the artifact/job identifiers that
// flow between them.
package submitctx

import (
	"time"

	"github.com/google/uuid"

	"github.com/pkgforge/pkgforge/internal/resolver"
)

// JobRef identifies one job within a submit, for log lines and progress
// reporting that must not depend on the scheduler's internal state.
type JobRef struct {
	Submit  uuid.UUID
	Package string
	Version string
}

func (r JobRef) String() string {
	return r.Package + "-" + r.Version
}

// ArtifactDescriptor names one output a job published, either a built
// package artifact or a forwarded source/patch, as it is staged on disk.
type ArtifactDescriptor struct {
	Name string // filesystem name, e.g. "zlib-1.3.0.pkg" or "src-<hash>.source"
	Path string // absolute path inside the submit's staging directory
}

// Submit is the top-level record of one build request: the requested
// (image, package), the resolved DAG and plan, and identifying metadata
// persisted at submit start (spec.md §3 Submit entity).
type Submit struct {
	UUID             uuid.UUID
	SubmitTime       time.Time
	RepoCommitHash   string
	RepoAuthor       string
	RequestedImage   string
	RequestedPackage string
	RequestedVersion string
	Env              map[string]string
	DAG              *resolver.DAG
	Plan             *resolver.Plan
}

// NewSubmit builds a Submit with a fresh UUID and the current wall-clock
// timestamp supplied by the caller (callers own time.Now() so tests stay
// deterministic).
func NewSubmit(now time.Time, image, pkg, version, repoCommitHash, repoAuthor string, env map[string]string, dag *resolver.DAG, plan *resolver.Plan) *Submit {
	return &Submit{
		UUID:             uuid.New(),
		SubmitTime:       now,
		RepoCommitHash:   repoCommitHash,
		RepoAuthor:       repoAuthor,
		RequestedImage:   image,
		RequestedPackage: pkg,
		RequestedVersion: version,
		Env:              env,
		DAG:              dag,
		Plan:             plan,
	}
}

// Status is a submit's or job's terminal disposition.
type Status string

const (
	StatusPending   Status = "Pending"
	StatusRunning   Status = "Running"
	StatusSucceeded Status = "Succeeded"
	StatusFailed    Status = "Failed"
)

// Release is one promotion of a staged artifact into a named release
// store (spec.md §3 Release entity, §4.7).
type Release struct {
	Artifact    ArtifactDescriptor
	StoreName   string
	ReleaseTime time.Time
}

// JobRecord is the fully materialized, terminal view of one job, as
// persisted to the audit store (spec.md §3 Job entity, §4.6).
type JobRecord struct {
	Submit      uuid.UUID
	Endpoint    string
	Image       string
	Package     string
	Version     string
	ScriptText  string
	ContainerID string
	Inputs      []ArtifactDescriptor
	Outputs     []ArtifactDescriptor
	Env         map[string]string
	LogText     string
	Status      Status
	FailReason  string
}
