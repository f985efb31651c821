// Copyright (C) 2024 The Dagu Authors
// SPDX-License-Identifier: GPL-3.0-or-later

// Package source resolves a package definition's declared sources to a
// verified on-disk cache entry: fetching over http(s)/sftp, hashing, and
// (for archives) extracting, backing the `source` CLI subcommands and the
// scheduler's SourceResolver collaborator.
package source

import "fmt"

// Error reports a failure locating, fetching, or verifying one source.
type Error struct {
	Kind string // "NotCached", "HashMismatch", "Download", "Extract", "UnsupportedScheme"
	Key  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("source: %s: %s: %v", e.Kind, e.Key, e.Err)
	}
	return fmt.Sprintf("source: %s: %s", e.Kind, e.Key)
}

func (e *Error) Unwrap() error { return e.Err }
