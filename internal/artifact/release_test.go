// Copyright (C) 2024 The Dagu Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package artifact

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkgforge/pkgforge/internal/submitctx"
)

func TestLocalStorePromoteCopiesIntoNamedStore(t *testing.T) {
	stagingFile := filepath.Join(t.TempDir(), "zlib-1.3.0.pkg")
	require.NoError(t, os.WriteFile(stagingFile, []byte("built"), 0o644))

	releases := t.TempDir()
	store := &LocalStore{ReleasesRoot: releases}

	err := store.Promote(context.Background(), "stable", submitctx.ArtifactDescriptor{
		Name: "zlib-1.3.0.pkg",
		Path: stagingFile,
	})
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(releases, "stable", "zlib-1.3.0.pkg"))
	require.NoError(t, err)
	assert.Equal(t, "built", string(data))

	// staging copy must survive promotion (I7: copy, never rename).
	_, err = os.Stat(stagingFile)
	assert.NoError(t, err)
}

func TestLocalStorePromoteOverwritesExistingRelease(t *testing.T) {
	stagingFile := filepath.Join(t.TempDir(), "zlib-1.3.0.pkg")
	require.NoError(t, os.WriteFile(stagingFile, []byte("new-build"), 0o644))

	releases := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(releases, "stable"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(releases, "stable", "zlib-1.3.0.pkg"), []byte("old-build"), 0o644))

	store := &LocalStore{ReleasesRoot: releases}
	err := store.Promote(context.Background(), "stable", submitctx.ArtifactDescriptor{
		Name: "zlib-1.3.0.pkg",
		Path: stagingFile,
	})
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(releases, "stable", "zlib-1.3.0.pkg"))
	require.NoError(t, err)
	assert.Equal(t, "new-build", string(data))
}
