// Copyright (C) 2024 The Dagu Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package artifact

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/pkgforge/pkgforge/internal/logger"
	"github.com/pkgforge/pkgforge/internal/submitctx"
)

// Staging is the per-submit scratch area: `staging/<submit-uuid>/` holds
// every job's accepted outputs, flat, ready for later promotion or
// find-artifact search (spec.md §4.7).
type Staging struct {
	Root   string
	Logger logger.Logger // optional
}

// JobDir returns (creating if needed) the working directory one job's
// /inputs, /outputs and /patches mounts are staged under. This is scratch
// space private to the job, distinct from the submit-level directory
// AcceptOutputs copies into.
func (s *Staging) JobDir(submit uuid.UUID, pkgName, pkgVersion string) (string, error) {
	dir := filepath.Join(s.Root, ".work", submit.String(), pkgName+"-"+pkgVersion)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", &StoreError{Kind: "Copy", Path: dir, Err: err}
	}
	return dir, nil
}

// AcceptOutputs copies every file under outputsDir matching
// `<pkgName>-<pkgVersion>.*` into the submit's staging directory, dropping
// anything else with a logged warning (spec.md §4.5 "Running" step).
func (s *Staging) AcceptOutputs(submit uuid.UUID, outputsDir, pkgName, pkgVersion string) ([]submitctx.ArtifactDescriptor, error) {
	prefix := pkgName + "-" + pkgVersion
	destDir := filepath.Join(s.Root, submit.String())
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return nil, &StoreError{Kind: "Copy", Path: destDir, Err: err}
	}

	entries, err := os.ReadDir(outputsDir)
	if err != nil {
		return nil, &StoreError{Kind: "Copy", Path: outputsDir, Err: err}
	}

	var out []submitctx.ArtifactDescriptor
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if name != prefix && !strings.HasPrefix(name, prefix+".") {
			if s.Logger != nil {
				s.Logger.Warnf("artifact: dropping unexpected output file %q (expected %s.*)", name, prefix)
			}
			continue
		}

		dest := filepath.Join(destDir, name)
		if err := copyFile(filepath.Join(outputsDir, name), dest); err != nil {
			return nil, &StoreError{Kind: "Copy", Path: dest, Err: err}
		}
		out = append(out, submitctx.ArtifactDescriptor{Name: name, Path: dest})
	}
	return out, nil
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
