// Copyright (C) 2024 The Dagu Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package source

import (
	"context"
	"os"
	"path/filepath"

	"github.com/pkgforge/pkgforge/internal/pkgrepo"
)

// Cache resolves package sources against a single on-disk cache directory,
// keyed by hash so two packages sharing a source never fetch it twice.
type Cache struct {
	Root string
	SSH  *SSHConfig // optional, needed only for sftp:// sources
}

// NewCache returns a Cache rooted at root, creating it if necessary.
func NewCache(root string) (*Cache, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, &Error{Kind: "NotCached", Key: root, Err: err}
	}
	return &Cache{Root: root}, nil
}

// cachePathFor is the deterministic cache filename for a source: its hash,
// not its URL, so re-pointed mirrors of the same content share one entry.
func cachePathFor(root string, src pkgrepo.Source) string {
	return filepath.Join(root, src.Hash.Algo+"-"+src.Hash.Hex)
}

// TargetPath returns the cache path src would occupy whether or not it has
// been fetched yet, for the `source of` CLI verb: resolving a path is a
// pure function of the source's hash and never requires the fetch itself
// (spec.md §6 "resolve source cache paths").
func (c *Cache) TargetPath(src pkgrepo.Source) string {
	return cachePathFor(c.Root, src)
}

// CachePath implements scheduler.SourceResolver: it returns the verified
// on-disk path for src, re-checking the hash on every call (cheap relative
// to the fetch it's guarding against silent corruption). A source that has
// not yet been fetched (via `source download`, or Download below) reports
// Error{Kind: "NotCached"} rather than fetching implicitly — sources are
// fetched as an explicit step, not lazily during a build (spec.md §6).
func (c *Cache) CachePath(src pkgrepo.Source) (string, error) {
	path := cachePathFor(c.Root, src)
	if _, err := os.Stat(path); err != nil {
		return "", &Error{Kind: "NotCached", Key: src.Key, Err: err}
	}
	if err := Verify(path, src.Hash); err != nil {
		return "", err
	}
	return path, nil
}

// Download fetches src into the cache if not already present and verified,
// dispatching on the URL scheme, and returns the resulting cache path.
func (c *Cache) Download(ctx context.Context, src pkgrepo.Source) (string, error) {
	if path, err := c.CachePath(src); err == nil {
		return path, nil
	}

	dest := cachePathFor(c.Root, src)
	if err := fetch(ctx, src, dest, c.SSH); err != nil {
		return "", err
	}
	if err := Verify(dest, src.Hash); err != nil {
		_ = os.Remove(dest)
		return "", err
	}
	return dest, nil
}
