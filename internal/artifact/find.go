// Copyright (C) 2024 The Dagu Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package artifact

import (
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
)

// Find searches both the staging root and every configured release store
// for file names matching pattern (a doublestar glob), for the
// `find-artifact` CLI subcommand.
func Find(stagingRoot string, releaseRoots []string, pattern string) ([]string, error) {
	var matches []string
	for _, root := range append([]string{stagingRoot}, releaseRoots...) {
		if root == "" {
			continue
		}
		found, err := findIn(root, pattern)
		if err != nil {
			return nil, err
		}
		matches = append(matches, found...)
	}
	return matches, nil
}

func findIn(root, pattern string) ([]string, error) {
	if _, err := os.Stat(root); err != nil {
		return nil, nil
	}
	fsys := os.DirFS(root)
	rels, err := doublestar.Glob(fsys, "**/"+pattern)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(rels))
	for _, rel := range rels {
		out = append(out, filepath.Join(root, rel))
	}
	return out, nil
}
