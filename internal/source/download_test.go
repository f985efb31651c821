// Copyright (C) 2024 The Dagu Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package source

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkgforge/pkgforge/internal/pkgrepo"
)

func TestFetchRejectsUnsupportedScheme(t *testing.T) {
	src := pkgrepo.Source{Key: "weird", URL: "ftp://example.com/a.tar.gz"}
	err := fetch(context.Background(), src, t.TempDir()+"/dest", nil)
	require.Error(t, err)

	var srcErr *Error
	require.ErrorAs(t, err, &srcErr)
	assert.Equal(t, "UnsupportedScheme", srcErr.Kind)
}

func TestFetchRejectsUnparsableURL(t *testing.T) {
	src := pkgrepo.Source{Key: "bad-url", URL: "://not-a-url"}
	err := fetch(context.Background(), src, t.TempDir()+"/dest", nil)
	require.Error(t, err)

	var srcErr *Error
	require.ErrorAs(t, err, &srcErr)
	assert.Equal(t, "Download", srcErr.Kind)
}
