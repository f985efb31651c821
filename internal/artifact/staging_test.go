// Copyright (C) 2024 The Dagu Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package artifact

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobDirCreatesNestedScratchPath(t *testing.T) {
	root := t.TempDir()
	s := &Staging{Root: root}
	submit := uuid.New()

	dir, err := s.JobDir(submit, "zlib", "1.3.0")
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(root, ".work", submit.String(), "zlib-1.3.0"), dir)
	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestAcceptOutputsCopiesMatchingFilesOnly(t *testing.T) {
	root := t.TempDir()
	outputsDir := t.TempDir()
	submit := uuid.New()

	require.NoError(t, os.WriteFile(filepath.Join(outputsDir, "zlib-1.3.0.pkg"), []byte("payload"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(outputsDir, "zlib-1.3.0.pkg.sha256"), []byte("hash"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(outputsDir, "unrelated.txt"), []byte("nope"), 0o644))

	s := &Staging{Root: root}
	got, err := s.AcceptOutputs(submit, outputsDir, "zlib", "1.3.0")
	require.NoError(t, err)

	names := make([]string, 0, len(got))
	for _, a := range got {
		names = append(names, a.Name)
	}
	assert.ElementsMatch(t, []string{"zlib-1.3.0.pkg", "zlib-1.3.0.pkg.sha256"}, names)

	for _, a := range got {
		data, err := os.ReadFile(a.Path)
		require.NoError(t, err)
		assert.NotEmpty(t, data)
	}
}

func TestAcceptOutputsDropsNonMatchingWithoutError(t *testing.T) {
	root := t.TempDir()
	outputsDir := t.TempDir()
	submit := uuid.New()

	require.NoError(t, os.WriteFile(filepath.Join(outputsDir, "other-9.9.pkg"), []byte("x"), 0o644))

	s := &Staging{Root: root}
	got, err := s.AcceptOutputs(submit, outputsDir, "zlib", "1.3.0")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestAcceptOutputsErrorsOnMissingOutputsDir(t *testing.T) {
	s := &Staging{Root: t.TempDir()}
	_, err := s.AcceptOutputs(uuid.New(), filepath.Join(t.TempDir(), "missing"), "zlib", "1.3.0")
	require.Error(t, err)
	var storeErr *StoreError
	require.ErrorAs(t, err, &storeErr)
	assert.Equal(t, "Copy", storeErr.Kind)
}
