// Copyright (C) 2024 The Dagu Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package script

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkgforge/pkgforge/internal/pkgrepo"
)

func TestCompileOrdersPhasesAndInterpolates(t *testing.T) {
	pkg := &pkgrepo.Package{
		Name:    "zlib",
		Version: "1.3.0",
		Phases: map[string]string{
			"build":   "make -j{{.Env.JOBS}}",
			"prepare": "tar xf {{.This.Name}}-{{.This.Version}}.tar.gz",
		},
		Env: map[string]string{"JOBS": "4"},
	}

	out, err := Compile(context.Background(), pkg, Options{
		AvailablePhases: []string{"prepare", "build", "install"},
		Strict:          true,
	})
	require.NoError(t, err)

	assert.Contains(t, out, "#!/bin/bash")
	assert.Contains(t, out, "tar xf zlib-1.3.0.tar.gz")
	assert.Contains(t, out, "make -j4")
	prepareIdx := indexOfSubstring(out, "tar xf")
	buildIdx := indexOfSubstring(out, "make -j4")
	assert.Less(t, prepareIdx, buildIdx, "phases must appear in available_phases order")
	assert.NotContains(t, out, "install", "undeclared phases are skipped entirely")
}

func TestCompileInjectsMarkerHelpers(t *testing.T) {
	pkg := &pkgrepo.Package{
		Name:    "app",
		Version: "1.0.0",
		Phases: map[string]string{
			"build": `{{state "OK"}}` + "\n" + `{{progress 50}}`,
		},
	}

	out, err := Compile(context.Background(), pkg, Options{AvailablePhases: []string{"build"}, Strict: true})
	require.NoError(t, err)
	assert.Contains(t, out, `echo '#BUTIDO:STATE:OK'`)
	assert.Contains(t, out, `echo '#BUTIDO:PROGRESS:50'`)
	assert.Contains(t, out, `echo '#BUTIDO:PHASE:build'`, "a phase banner marker is emitted for every declared phase")
}

func TestCompileStrictRejectsUnboundVariable(t *testing.T) {
	pkg := &pkgrepo.Package{
		Name:    "app",
		Version: "1.0.0",
		Phases:  map[string]string{"build": "echo {{.Env.UNDEFINED_VAR}}"},
	}

	_, err := Compile(context.Background(), pkg, Options{AvailablePhases: []string{"build"}, Strict: true})
	require.Error(t, err)
	var scriptErr *ScriptError
	require.ErrorAs(t, err, &scriptErr)
	assert.Equal(t, "UnboundVariable", scriptErr.Kind)
	assert.Equal(t, "build", scriptErr.Phase)
}

func TestCompileNonStrictAllowsUnboundVariable(t *testing.T) {
	pkg := &pkgrepo.Package{
		Name:    "app",
		Version: "1.0.0",
		Phases:  map[string]string{"build": "echo {{.Env.UNDEFINED_VAR}}"},
	}

	out, err := Compile(context.Background(), pkg, Options{AvailablePhases: []string{"build"}, Strict: false})
	require.NoError(t, err)
	assert.Contains(t, out, "echo \n", "a non-strict compile renders the unbound variable as empty rather than erroring")
}

type rejectingLinter struct{}

func (rejectingLinter) Lint(ctx context.Context, script string) error {
	return assert.AnError
}

func TestCompileLinterFailureAbortsCompile(t *testing.T) {
	pkg := &pkgrepo.Package{Name: "app", Version: "1.0.0", Phases: map[string]string{"build": "echo hi"}}

	_, err := Compile(context.Background(), pkg, Options{
		AvailablePhases: []string{"build"},
		Strict:          true,
		Linter:          rejectingLinter{},
	})
	require.Error(t, err)
	var scriptErr *ScriptError
	require.ErrorAs(t, err, &scriptErr)
	assert.Equal(t, "LinterFailed", scriptErr.Kind)
}

func indexOfSubstring(s, sub string) int {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return i
		}
	}
	return -1
}
