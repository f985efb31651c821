// Copyright (C) 2024 The Dagu Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package scheduler

import "github.com/pkgforge/pkgforge/internal/submitctx"

// result is what a job publishes to its downstreams on exit, whichever way
// it exits. Forward is the recursive runtime closure this job contributes
// to anything depending on it (spec.md §4.5): its own outputs plus every
// runtime upstream's own Forward set, but never a build upstream's.
type result struct {
	status  submitctx.Status
	outputs []submitctx.ArtifactDescriptor
	forward []submitctx.ArtifactDescriptor
	err     error
}

// handle is one job's write-once completion slot. result is only valid to
// read after done is closed; the close happens-after the write, so readers
// need no additional synchronization.
type handle struct {
	done   chan struct{}
	result result
}

func newHandle() *handle {
	return &handle{done: make(chan struct{})}
}

func (h *handle) publish(r result) {
	h.result = r
	close(h.done)
}

// mergeForward unions a set of upstream Forward sets into one InputSet,
// de-duplicating by artifact name (the same runtime dependency may be
// reachable through more than one path in the DAG).
func mergeForward(sets ...[]submitctx.ArtifactDescriptor) []submitctx.ArtifactDescriptor {
	seen := map[string]bool{}
	var out []submitctx.ArtifactDescriptor
	for _, set := range sets {
		for _, a := range set {
			if seen[a.Name] {
				continue
			}
			seen[a.Name] = true
			out = append(out, a)
		}
	}
	return out
}
