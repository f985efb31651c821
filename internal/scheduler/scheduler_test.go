// Copyright (C) 2024 The Dagu Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package scheduler

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkgforge/pkgforge/internal/config"
	"github.com/pkgforge/pkgforge/internal/pkgrepo"
	"github.com/pkgforge/pkgforge/internal/resolver"
	"github.com/pkgforge/pkgforge/internal/script"
	"github.com/pkgforge/pkgforge/internal/submitctx"
)

func TestMergeForwardDeduplicatesByName(t *testing.T) {
	a := []submitctx.ArtifactDescriptor{{Name: "zlib-1.3.0.pkg", Path: "/a"}}
	b := []submitctx.ArtifactDescriptor{{Name: "zlib-1.3.0.pkg", Path: "/b"}, {Name: "openssl-3.0.0.pkg", Path: "/c"}}

	merged := mergeForward(a, b)
	assert.Len(t, merged, 2, "the same artifact name reached through two paths counts once")
}

func TestWaitUpstreamPropagatesFailure(t *testing.T) {
	upstream := newHandle()
	upstream.publish(result{status: submitctx.StatusFailed})

	handles := []*handle{upstream}
	_, err := waitUpstream(context.Background(), handles, []int{0}, nil)
	require.Error(t, err)
	var jobErr *JobError
	require.ErrorAs(t, err, &jobErr)
	assert.Equal(t, "UpstreamFailed", jobErr.Kind)
}

func TestWaitUpstreamCollectsForwardSets(t *testing.T) {
	buildDep := newHandle()
	buildDep.publish(result{
		status:  submitctx.StatusSucceeded,
		forward: []submitctx.ArtifactDescriptor{{Name: "compiler-1.0.0.pkg"}},
	})
	runtimeDep := newHandle()
	runtimeDep.publish(result{
		status:  submitctx.StatusSucceeded,
		forward: []submitctx.ArtifactDescriptor{{Name: "libssl-3.0.0.pkg"}, {Name: "libcrypto-3.0.0.pkg"}},
	})

	handles := []*handle{buildDep, runtimeDep}
	forwards, err := waitUpstream(context.Background(), handles, []int{0}, []int{1})
	require.NoError(t, err)

	merged := mergeForward(forwards...)
	names := map[string]bool{}
	for _, a := range merged {
		names[a.Name] = true
	}
	assert.True(t, names["compiler-1.0.0.pkg"])
	assert.True(t, names["libssl-3.0.0.pkg"])
	assert.True(t, names["libcrypto-3.0.0.pkg"])
}

func TestTerminalStateResolveHonorsExplicitOK(t *testing.T) {
	okState := script.StateResult{OK: true}
	ts := &terminalState{lastState: &okState}
	status, err := ts.resolve(1) // nonzero exit, but explicit OK marker wins
	assert.Equal(t, submitctx.StatusSucceeded, status)
	assert.NoError(t, err)
}

func TestTerminalStateResolveHonorsExplicitErr(t *testing.T) {
	errState := script.StateResult{OK: false, Message: "build failed"}
	ts := &terminalState{lastState: &errState}
	status, err := ts.resolve(0)
	assert.Equal(t, submitctx.StatusFailed, status)
	require.Error(t, err)
}

func TestTerminalStateResolveNonZeroExitNoMarker(t *testing.T) {
	ts := &terminalState{}
	status, err := ts.resolve(1)
	assert.Equal(t, submitctx.StatusFailed, status)
	var jobErr *JobError
	require.ErrorAs(t, err, &jobErr)
	assert.Equal(t, "ContainerExitNonZero", jobErr.Kind)
}

func TestTerminalStateResolveZeroExitNoMarker(t *testing.T) {
	ts := &terminalState{}
	status, err := ts.resolve(0)
	assert.Equal(t, submitctx.StatusFailed, status)
	var jobErr *JobError
	require.ErrorAs(t, err, &jobErr)
	assert.Equal(t, "MissingTerminalState", jobErr.Kind)
}

func TestPreflightRejectsDisallowedImage(t *testing.T) {
	cfg := &config.Config{Docker: config.Docker{Images: []config.Image{{Name: "alpine"}}}}
	repo := pkgrepo.NewRepository()
	dag := &resolver.DAG{}

	err := preflight(cfg, repo, dag, "ubuntu", nil)
	assert.Error(t, err)
}

func TestPreflightRejectsPackageDeniedImage(t *testing.T) {
	cfg := &config.Config{Docker: config.Docker{Images: []config.Image{{Name: "alpine"}}}}
	repo := pkgrepo.NewRepository()
	repo.Add(&pkgrepo.Package{Name: "app", Version: "1.0.0", DeniedImages: []string{"alpine"}})
	dag := &resolver.DAG{Nodes: []resolver.Node{{Name: "app", Version: "1.0.0"}}}

	err := preflight(cfg, repo, dag, "alpine", nil)
	assert.Error(t, err)
}

func TestPreflightRejectsUnlistedEnvName(t *testing.T) {
	cfg := &config.Config{
		Docker:     config.Docker{Images: []config.Image{{Name: "alpine"}}},
		Containers: config.Containers{CheckEnvNames: true, AllowedEnv: []string{"CFLAGS*"}},
	}
	repo := pkgrepo.NewRepository()
	dag := &resolver.DAG{}

	err := preflight(cfg, repo, dag, "alpine", map[string]string{"SECRET": "x"})
	assert.Error(t, err)

	err = preflight(cfg, repo, dag, "alpine", map[string]string{"CFLAGS_EXTRA": "-O2"})
	assert.NoError(t, err)
}
