// Copyright (C) 2024 The Dagu Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package source

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkgforge/pkgforge/internal/pkgrepo"
)

func sha256Hex(t *testing.T, content string) string {
	t.Helper()
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

func TestVerifyAcceptsMatchingSHA256(t *testing.T) {
	path := filepath.Join(t.TempDir(), "payload")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o644))

	err := Verify(path, pkgrepo.Hash{Algo: "sha256", Hex: sha256Hex(t, "hello")})
	assert.NoError(t, err)
}

func TestVerifyRejectsMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "payload")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o644))

	err := Verify(path, pkgrepo.Hash{Algo: "sha256", Hex: "0000"})
	require.Error(t, err)
	var srcErr *Error
	require.ErrorAs(t, err, &srcErr)
	assert.Equal(t, "HashMismatch", srcErr.Kind)
}

func TestVerifyDefaultsToSHA256WhenAlgoEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "payload")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o644))

	err := Verify(path, pkgrepo.Hash{Hex: sha256Hex(t, "hello")})
	assert.NoError(t, err)
}

func TestVerifyRejectsUnsupportedAlgo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "payload")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o644))

	err := Verify(path, pkgrepo.Hash{Algo: "md5", Hex: "deadbeef"})
	require.Error(t, err)
}
