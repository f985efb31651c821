// Copyright (C) 2024 The Dagu Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBuildSubmitQueryUnfilteredHasNoConditions(t *testing.T) {
	q, args := buildSubmitQuery(SubmitFilter{})
	assert.Empty(t, args)
	assert.NotContains(t, q, "AND")
	assert.Contains(t, q, "ORDER BY submit_time DESC")
	assert.NotContains(t, q, "LIMIT")
}

func TestBuildSubmitQueryAppliesEveryFilterAsItsOwnPlaceholder(t *testing.T) {
	f := SubmitFilter{
		CommitHash: "abc123",
		Image:      "debian:bullseye",
		Package:    "zlib",
		NewerThan:  time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		OlderThan:  time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC),
		Limit:      10,
	}
	q, args := buildSubmitQuery(f)

	assert.Len(t, args, 6)
	assert.Contains(t, q, "repo_commit_hash = $1")
	assert.Contains(t, q, "requested_image = $2")
	assert.Contains(t, q, "requested_package = $3")
	assert.Contains(t, q, "submit_time >= $4")
	assert.Contains(t, q, "submit_time <= $5")
	assert.Contains(t, q, "LIMIT $6")
	assert.Equal(t, 10, args[5])
}

func TestBuildReleaseQueryUnfilteredHasNoConditions(t *testing.T) {
	q, args := buildReleaseQuery(ReleaseFilter{})
	assert.Empty(t, args)
	assert.NotContains(t, q, "AND")
	assert.Contains(t, q, "ORDER BY release_time DESC")
}

func TestBuildReleaseQueryFiltersByPackageAndStore(t *testing.T) {
	q, args := buildReleaseQuery(ReleaseFilter{Package: "zlib", StoreName: "stable", Limit: 5})
	assert.Len(t, args, 3)
	assert.Contains(t, q, "artifact_name = $1")
	assert.Contains(t, q, "store_name = $2")
	assert.Contains(t, q, "LIMIT $3")
}
