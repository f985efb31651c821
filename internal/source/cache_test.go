// Copyright (C) 2024 The Dagu Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package source

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkgforge/pkgforge/internal/pkgrepo"
)

func TestCachePathForIsKeyedByHashNotURL(t *testing.T) {
	root := t.TempDir()
	a := pkgrepo.Source{URL: "https://example.com/a.tar.gz", Hash: pkgrepo.Hash{Algo: "sha256", Hex: "deadbeef"}}
	b := pkgrepo.Source{URL: "https://mirror.example.com/a.tar.gz", Hash: pkgrepo.Hash{Algo: "sha256", Hex: "deadbeef"}}

	assert.Equal(t, cachePathFor(root, a), cachePathFor(root, b))
}

func TestCachePathReportsNotCachedWhenMissing(t *testing.T) {
	c, err := NewCache(t.TempDir())
	require.NoError(t, err)

	_, err = c.CachePath(pkgrepo.Source{Key: "zlib-src", Hash: pkgrepo.Hash{Algo: "sha256", Hex: "deadbeef"}})
	require.Error(t, err)

	var srcErr *Error
	require.ErrorAs(t, err, &srcErr)
	assert.Equal(t, "NotCached", srcErr.Kind)
}

func TestCachePathVerifiesHashOnEveryCall(t *testing.T) {
	root := t.TempDir()
	c, err := NewCache(root)
	require.NoError(t, err)

	src := pkgrepo.Source{Key: "zlib-src", Hash: pkgrepo.Hash{Algo: "sha256", Hex: sha256Hex(t, "payload")}}
	path := cachePathFor(root, src)
	require.NoError(t, os.WriteFile(path, []byte("payload"), 0o644))

	got, err := c.CachePath(src)
	require.NoError(t, err)
	assert.Equal(t, path, got)
}

func TestCachePathRejectsCorruptedCacheEntry(t *testing.T) {
	root := t.TempDir()
	c, err := NewCache(root)
	require.NoError(t, err)

	src := pkgrepo.Source{Key: "zlib-src", Hash: pkgrepo.Hash{Algo: "sha256", Hex: sha256Hex(t, "payload")}}
	path := cachePathFor(root, src)
	require.NoError(t, os.WriteFile(path, []byte("corrupted"), 0o644))

	_, err = c.CachePath(src)
	require.Error(t, err)
	var srcErr *Error
	require.ErrorAs(t, err, &srcErr)
	assert.Equal(t, "HashMismatch", srcErr.Kind)
}

func TestNewCacheCreatesRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "nested", "cache")
	_, err := NewCache(root)
	require.NoError(t, err)

	info, err := os.Stat(root)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
