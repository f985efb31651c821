// Copyright (C) 2024 The Dagu Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package artifact

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReleaseKeyWithoutPrefix(t *testing.T) {
	assert.Equal(t, "stable/zlib-1.3.0.pkg", releaseKey("", "stable", "zlib-1.3.0.pkg"))
}

func TestReleaseKeyWithPrefix(t *testing.T) {
	assert.Equal(t, "pkgforge/stable/zlib-1.3.0.pkg", releaseKey("pkgforge", "stable", "zlib-1.3.0.pkg"))
}

func TestNewS3StoreBuildsClientWithoutDialing(t *testing.T) {
	store, err := NewS3Store("minio.internal:9000", "access", "secret", "releases", false)
	require.NoError(t, err)
	assert.NotNil(t, store.Client)
	assert.Equal(t, "releases", store.Bucket)
}
