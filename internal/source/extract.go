// Copyright (C) 2024 The Dagu Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package source

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/mholt/archives"
)

// Extract unpacks archivePath into destDir, for a cached source that is an
// archive rather than a single file. No subcommand calls it.
// Grounded on the teacher's archive executor
// (internal/runtime/builtin/archive), which drives the same
// mholt/archives.Extractor interface.
func Extract(ctx context.Context, archivePath, destDir string) error {
	f, err := os.Open(archivePath)
	if err != nil {
		return &Error{Kind: "Extract", Key: archivePath, Err: err}
	}
	defer f.Close()

	format, input, err := archives.Identify(ctx, archivePath, f)
	if err != nil {
		return &Error{Kind: "Extract", Key: archivePath, Err: err}
	}

	ex, ok := format.(archives.Extractor)
	if !ok {
		return &Error{Kind: "Extract", Key: archivePath, Err: errNotAnArchive(archivePath)}
	}

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return &Error{Kind: "Extract", Key: destDir, Err: err}
	}

	err = ex.Extract(ctx, input, func(_ context.Context, entry archives.FileInfo) error {
		return extractEntry(destDir, entry)
	})
	if err != nil {
		return &Error{Kind: "Extract", Key: archivePath, Err: err}
	}
	return nil
}

func extractEntry(destDir string, entry archives.FileInfo) error {
	target := filepath.Join(destDir, entry.NameInArchive)

	if entry.IsDir() {
		return os.MkdirAll(target, 0o755)
	}

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}

	rc, err := entry.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, entry.Mode().Perm())
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, rc)
	return err
}

type notArchiveError struct{ path string }

func (e notArchiveError) Error() string { return e.path + " is not an extractable archive format" }

func errNotAnArchive(path string) error { return notArchiveError{path} }
