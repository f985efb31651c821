// Copyright (C) 2024 The Dagu Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package artifact

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFixture(t *testing.T, dir, rel string) {
	t.Helper()
	full := filepath.Join(dir, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte("x"), 0o644))
}

func TestFindMatchesAcrossStagingAndReleaseRoots(t *testing.T) {
	staging := t.TempDir()
	release := t.TempDir()

	submit := "11111111-1111-1111-1111-111111111111"
	writeFixture(t, staging, filepath.Join(submit, "zlib-1.3.0.pkg"))
	writeFixture(t, release, filepath.Join("stable", "zlib-1.3.0.pkg"))
	writeFixture(t, release, filepath.Join("stable", "openssl-3.0.0.pkg"))

	matches, err := Find(staging, []string{release}, "zlib-1.3.0.pkg")
	require.NoError(t, err)
	assert.Len(t, matches, 2)
}

func TestFindReturnsNoMatchesWithoutError(t *testing.T) {
	staging := t.TempDir()
	matches, err := Find(staging, nil, "missing-*.pkg")
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestFindSkipsMissingRoots(t *testing.T) {
	staging := t.TempDir()
	missing := filepath.Join(staging, "does-not-exist")

	matches, err := Find(staging, []string{missing}, "*.pkg")
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestFindGlobSupportsWildcard(t *testing.T) {
	staging := t.TempDir()
	writeFixture(t, staging, filepath.Join("sub1", "zlib-1.3.0.pkg"))
	writeFixture(t, staging, filepath.Join("sub2", "zlib-1.3.0.pkg.sha256"))

	matches, err := Find(staging, nil, "zlib-*")
	require.NoError(t, err)
	assert.Len(t, matches, 2)
}
