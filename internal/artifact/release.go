// Copyright (C) 2024 The Dagu Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package artifact

import (
	"context"
	"os"
	"path/filepath"

	"github.com/pkgforge/pkgforge/internal/submitctx"
)

// ReleaseStore promotes one staged artifact into a named, durable release
// location. Promotion is always copy, never rename (I7): the staging file
// is left in place so a second promotion (or a retry) is always possible.
type ReleaseStore interface {
	Promote(ctx context.Context, storeName string, a submitctx.ArtifactDescriptor) error
}

// LocalStore promotes into a subdirectory of releases_root per configured
// store name, overwriting any existing file of the same name first.
type LocalStore struct {
	ReleasesRoot string
}

func (s *LocalStore) Promote(_ context.Context, storeName string, a submitctx.ArtifactDescriptor) error {
	destDir := filepath.Join(s.ReleasesRoot, storeName)
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return &StoreError{Kind: "Copy", Path: destDir, Err: err}
	}

	dest := filepath.Join(destDir, a.Name)
	if _, err := os.Stat(dest); err == nil {
		if err := os.Remove(dest); err != nil {
			return &StoreError{Kind: "Overwrite", Path: dest, Err: err}
		}
	}

	if err := copyFile(a.Path, dest); err != nil {
		return &StoreError{Kind: "Copy", Path: dest, Err: err}
	}
	return nil
}
