// Copyright (C) 2024 The Dagu Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package scheduler

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pkgforge/pkgforge/internal/pkgrepo"
	"github.com/pkgforge/pkgforge/internal/submitctx"
)

// stageInputs populates a job's /inputs and /patches directories: upstream
// artifacts (already named per spec.md §6's `<name>-<version>.pkg` /
// `src-<hash>.source` contract), this package's own sources, and its
// patches.
func stageInputs(inputsDir, patchesDir string, pkg *pkgrepo.Package, inputSet []submitctx.ArtifactDescriptor, sources SourceResolver) error {
	for _, a := range inputSet {
		if err := copyFile(a.Path, filepath.Join(inputsDir, a.Name)); err != nil {
			return fmt.Errorf("scheduler: staging input %s: %w", a.Name, err)
		}
	}

	if sources != nil {
		for _, src := range pkg.Sources {
			path, err := sources.CachePath(src)
			if err != nil {
				return fmt.Errorf("scheduler: resolving source %s: %w", src.Key, err)
			}
			name := fmt.Sprintf("src-%s.source", src.Hash.Hex)
			if err := copyFile(path, filepath.Join(inputsDir, name)); err != nil {
				return fmt.Errorf("scheduler: staging source %s: %w", src.Key, err)
			}
		}
	}

	for _, patch := range pkg.Patches {
		src := filepath.Join(pkg.Dir, patch)
		if err := copyFile(src, filepath.Join(patchesDir, filepath.Base(patch))); err != nil {
			return fmt.Errorf("scheduler: staging patch %s: %w", patch, err)
		}
	}

	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, in)
	return err
}
